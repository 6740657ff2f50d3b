package coach

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/salescoach/salescoach/internal/core"
	"github.com/salescoach/salescoach/internal/learning"
	"github.com/salescoach/salescoach/internal/logging"
)

const (
	degradePenalty = 0.2
	minConfidence  = 0.1
)

// Plan is the concrete action plan for a lever. Detail holds the
// lever-specific content and is one of the *Plan detail types below.
type Plan struct {
	Type             LeverType  `json:"type"`
	MensajePrincipal string     `json:"mensaje_principal"`
	Confidence       float64    `json:"confidence"`
	Degraded         bool       `json:"degraded,omitempty"`
	Detail           PlanDetail `json:"detail,omitempty"`
}

// PlanDetail is implemented only by the detail types in this package.
type PlanDetail interface {
	planDetail()
}

// UnmarshalJSON restores the concrete detail type from the plan type.
func (p *Plan) UnmarshalJSON(data []byte) error {
	type plain Plan
	var raw struct {
		plain
		Detail json.RawMessage `json:"detail,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Plan(raw.plain)
	p.Detail = nil
	if len(raw.Detail) == 0 || string(raw.Detail) == "null" {
		return nil
	}

	var detail PlanDetail
	switch p.Type {
	case LeverEmotionalSupport:
		detail = &EmotionalSupportPlan{}
	case LeverPipelineEmergency, LeverProspectingSprint:
		detail = &ProspectingPlan{}
	case LeverProposalFollowUp:
		detail = &ProposalPlan{}
	case LeverCloseExistingDemos:
		detail = &DemosPlan{}
	case LeverMomentumRecovery:
		detail = &MomentumPlan{}
	case LeverLeadReactivation:
		detail = &ReactivationPlan{}
	case LeverOptimization:
		detail = &OptimizationPlan{}
	default:
		detail = &MaintainPlan{}
	}
	if err := json.Unmarshal(raw.Detail, detail); err != nil {
		return err
	}
	p.Detail = detail
	return nil
}

// Generator turns a lever into a plan. It may issue extra reads; their
// failures degrade the plan instead of failing it.
type Generator struct {
	store     Store
	dealValue float64
	now       func() time.Time
}

// NewGenerator creates a plan generator
func NewGenerator(store Store, dealValue float64, now func() time.Time) *Generator {
	if dealValue <= 0 {
		dealValue = DefaultDealValue
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{store: store, dealValue: dealValue, now: now}
}

// planRun carries per-generation state shared by the plan builders.
type planRun struct {
	ctx      context.Context
	userID   string
	lever    Lever
	snap     Snapshot
	profile  core.Profile
	ww       learning.WhatWorks
	now      time.Time
	degraded bool
}

// degrade records a failed supplementary read
func (r *planRun) degrade(what string, err error) {
	r.degraded = true
	logging.WithFields(map[string]interface{}{
		"user_id": r.userID,
		"lever":   string(r.lever.Type),
		"read":    what,
		"error":   err.Error(),
	}).Warn("Plan read failed, continuing without it")
}

// Generate builds the plan for lever.
func (g *Generator) Generate(ctx context.Context, lever Lever, snap Snapshot, profile *core.Profile, ww learning.WhatWorks) Plan {
	run := &planRun{
		ctx:   ctx,
		lever: lever,
		snap:  snap,
		ww:    ww,
		now:   g.now(),
	}
	if profile != nil {
		run.profile = *profile
		run.userID = profile.UserID
	}

	var plan Plan
	switch lever.Type {
	case LeverEmotionalSupport:
		plan = g.emotionalSupport(run)
	case LeverPipelineEmergency:
		plan = g.pipelineEmergency(run)
	case LeverProspectingSprint:
		plan = g.prospectingSprint(run)
	case LeverProposalFollowUp:
		plan = g.proposalFollowUp(run)
	case LeverCloseExistingDemos:
		plan = g.closeDemos(run)
	case LeverMomentumRecovery:
		plan = g.momentumRecovery(run)
	case LeverLeadReactivation:
		plan = g.leadReactivation(run)
	case LeverOptimization:
		plan = g.optimization(run)
	default:
		plan = maintain()
	}

	plan.Degraded = run.degraded
	if plan.Degraded && fixedConfidence(plan.Type) == 0 {
		plan.Confidence = degradedConfidence(plan.Confidence)
	}
	return plan
}

func degradedConfidence(c float64) float64 {
	return math.Max(c-degradePenalty, minConfidence)
}

// fixedConfidence returns the constant confidence of levers never reduced by degradation.
func fixedConfidence(t LeverType) float64 {
	switch t {
	case LeverEmotionalSupport:
		return 0.8
	case LeverOptimization:
		return 0.7
	}
	return 0
}

// MaintainPlan keeps the current rhythm.
type MaintainPlan struct {
	Acciones []string `json:"acciones"`
}

func (MaintainPlan) planDetail() {}

func maintain() Plan {
	return Plan{
		Type:             LeverMaintain,
		MensajePrincipal: "Continuar ritmo actual.",
		Confidence:       0.5,
		Detail:           &MaintainPlan{Acciones: []string{}},
	}
}

// daysBetween counts whole days from t to now, never negative.
func daysBetween(t, now time.Time) int {
	if now.Before(t) {
		return 0
	}
	return int(now.Sub(t).Hours() / 24)
}

func firstName(p core.Profile) string {
	if p.Nombre == "" {
		return "che"
	}
	return p.Nombre
}
