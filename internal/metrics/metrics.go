// Package metrics exposes Prometheus collectors for the decision pipeline.
package metrics

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "salescoach"

// Pipeline stages
const (
	StageSnapshot = "snapshot"
	StageClassify = "classify"
	StagePlan     = "plan"
	StageMessage  = "message"
	StageLog      = "log"
)

// Metrics reports decision engine activity.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	stageDuration *prometheus.HistogramVec
	decisions     *prometheus.CounterVec
	levers        *prometheus.CounterVec
	degradedPlans *prometheus.CounterVec
	ledgerErrors  prometheus.Counter
	learnedTotal  prometheus.Counter

	gatherer prometheus.Gatherer
}

var (
	defaultOnce sync.Once
	shared      *Metrics
)

// Default returns the process-wide metrics registered with the global registry.
func Default() *Metrics {
	defaultOnce.Do(func() {
		shared = MustNew(prometheus.DefaultRegisterer)
	})
	return shared
}

// MustNew creates and registers the collectors. Tests pass a fresh prometheus.NewRegistry().
// Collectors that are already registered are reused; any other error panics.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "coach",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each decision pipeline stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage", "status"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coach",
			Name:      "decisions_total",
			Help:      "Decisions requested, by outcome.",
		}, []string{"status"}),
		levers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coach",
			Name:      "levers_total",
			Help:      "Critical levers selected, by type.",
		}, []string{"lever"}),
		degradedPlans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coach",
			Name:      "degraded_plans_total",
			Help:      "Plans generated with at least one failed supplementary read.",
		}, []string{"lever"}),
		ledgerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "write_failures_total",
			Help:      "Decisions that could not be written to the ledger.",
		}),
		learnedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "learning",
			Name:      "patterns_stored_total",
			Help:      "Learned patterns stored by the detector.",
		}),
	}

	m.stageDuration = register(reg, m.stageDuration)
	m.decisions = register(reg, m.decisions)
	m.levers = register(reg, m.levers)
	m.degradedPlans = register(reg, m.degradedPlans)
	m.ledgerErrors = register(reg, m.ledgerErrors)
	m.learnedTotal = register(reg, m.learnedTotal)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ObserveStage records the duration of a pipeline stage.
func (m *Metrics) ObserveStage(stage string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.stageDuration.WithLabelValues(stage, status).Observe(d.Seconds())
}

// IncDecision counts a finished decision request.
func (m *Metrics) IncDecision(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.decisions.WithLabelValues(status).Inc()
}

// IncLever counts a selected lever.
func (m *Metrics) IncLever(lever string) {
	if m == nil {
		return
	}
	m.levers.WithLabelValues(lever).Inc()
}

// IncDegraded counts a degraded plan.
func (m *Metrics) IncDegraded(lever string) {
	if m == nil {
		return
	}
	m.degradedPlans.WithLabelValues(lever).Inc()
}

// IncLedgerError counts a failed decision write.
func (m *Metrics) IncLedgerError() {
	if m == nil {
		return
	}
	m.ledgerErrors.Inc()
}

// AddLearned counts stored patterns.
func (m *Metrics) AddLearned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.learnedTotal.Add(float64(n))
}

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
