package coach

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salescoach/salescoach/internal/core"
	"github.com/salescoach/salescoach/internal/logging"
	"github.com/salescoach/salescoach/internal/metrics"
)

// Result is the engine's answer to one decision request.
type Result struct {
	Situation     Snapshot  `json:"situation"`
	CriticalLever Lever     `json:"critical_lever"`
	Plan          Plan      `json:"plan"`
	Message       string    `json:"message"`
	Confidence    float64   `json:"confidence"`
	Style         Style     `json:"style"`
	DecisionID    string    `json:"decision_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	DealValue float64
	Now       func() time.Time
	Logger    DecisionLogger   // nil disables the audit trail
	Metrics   *metrics.Metrics // nil disables metrics
	OnDecide  func(*Result)    // called after every successful decision
}

// Engine runs the pipeline: snapshot, lever, plan, message, log.
type Engine struct {
	builder   *Builder
	generator *Generator
	crafter   *Crafter
	logger    DecisionLogger
	metrics   *metrics.Metrics
	dealValue float64
	now       func() time.Time
	onDecide  func(*Result)
}

// NewEngine wires the pipeline stages over store.
func NewEngine(store Store, opts Options) (*Engine, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DealValue <= 0 {
		opts.DealValue = DefaultDealValue
	}
	crafter, err := NewCrafter()
	if err != nil {
		return nil, err
	}
	return &Engine{
		builder:   NewBuilder(store, opts.Now),
		generator: NewGenerator(store, opts.DealValue, opts.Now),
		crafter:   crafter,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		dealValue: opts.DealValue,
		now:       opts.Now,
		onDecide:  opts.OnDecide,
	}, nil
}

// Decide runs one decision for userID. The stages run sequentially and are not retried.
// A failed ledger write is logged and counted but does not fail the decision.
func (e *Engine) Decide(ctx context.Context, userID string) (res *Result, err error) {
	defer func() { e.metrics.IncDecision(err) }()

	if userID == "" {
		return nil, fmt.Errorf("user_id: %w", core.ErrMissingRequired)
	}
	log := logging.WithField("user_id", userID)

	start := time.Now()
	snap, in, err := e.builder.Build(ctx, userID)
	e.metrics.ObserveStage(metrics.StageSnapshot, err, time.Since(start))
	if err != nil {
		return nil, err
	}

	start = time.Now()
	lever := ClassifyWithDealValue(snap, e.dealValue)
	e.metrics.ObserveStage(metrics.StageClassify, nil, time.Since(start))
	e.metrics.IncLever(string(lever.Type))

	start = time.Now()
	plan := e.generator.Generate(ctx, lever, snap, in.Profile, in.WhatWorks)
	e.metrics.ObserveStage(metrics.StagePlan, nil, time.Since(start))
	if plan.Degraded {
		e.metrics.IncDegraded(string(plan.Type))
	}

	start = time.Now()
	style, msg := e.crafter.Craft(plan, in.Profile.DiscProfile, snap)
	e.metrics.ObserveStage(metrics.StageMessage, nil, time.Since(start))

	res = &Result{
		Situation:     snap,
		CriticalLever: lever,
		Plan:          plan,
		Message:       msg,
		Confidence:    plan.Confidence,
		Style:         style,
		Timestamp:     e.now().UTC(),
	}

	if e.logger != nil {
		d := &Decision{
			ID:         uuid.New().String(),
			UserID:     userID,
			Snapshot:   snap,
			Lever:      lever,
			Plan:       plan,
			Message:    msg,
			Style:      style,
			Confidence: plan.Confidence,
			Timestamp:  res.Timestamp,
		}
		start = time.Now()
		logErr := e.logger.LogDecision(ctx, d)
		e.metrics.ObserveStage(metrics.StageLog, logErr, time.Since(start))
		if logErr != nil {
			e.metrics.IncLedgerError()
			log.WithField("error", logErr.Error()).Error("Failed to log decision")
		} else {
			res.DecisionID = d.ID
		}
	}

	log.WithFields(map[string]interface{}{
		"lever":      string(lever.Type),
		"style":      string(style),
		"confidence": plan.Confidence,
	}).Info("Decision made")

	if e.onDecide != nil {
		e.onDecide(res)
	}
	return res, nil
}
