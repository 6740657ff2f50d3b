package coach_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/salescoach/salescoach/internal/coach"
	"github.com/salescoach/salescoach/internal/core"
	"github.com/salescoach/salescoach/internal/metrics"
	"github.com/salescoach/salescoach/internal/storage"
	"github.com/salescoach/salescoach/internal/testutil"
)

type memoryLogger struct {
	mu        sync.Mutex
	decisions []*coach.Decision
	err       error
}

func (l *memoryLogger) LogDecision(ctx context.Context, d *coach.Decision) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.decisions = append(l.decisions, d)
	return nil
}

func newEngine(t *testing.T, db *storage.DB, logger coach.DecisionLogger) *coach.Engine {
	t.Helper()
	engine, err := coach.NewEngine(storage.NewRecordStore(db), coach.Options{
		Now:     func() time.Time { return testutil.Now },
		Logger:  logger,
		Metrics: metrics.MustNew(prometheus.NewRegistry()),
	})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine
}

func TestEngine_DecideEmotionalSupport(t *testing.T) {
	db := testutil.TestDBAt(t, testutil.Now)
	ctx := testutil.TestContext(t)
	testutil.SeedProfile(t, db, testutil.DefaultProfileFixture("u1"))
	testutil.SeedEmotional(t, db, testutil.EmotionalFixture("u1", 3, 5, 0))

	logger := &memoryLogger{}
	res, err := newEngine(t, db, logger).Decide(ctx, "u1")
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	if res.CriticalLever.Type != coach.LeverEmotionalSupport || res.CriticalLever.Urgency != coach.UrgencyCritical {
		t.Errorf("lever = %s/%s, want emotional_support/critical", res.CriticalLever.Type, res.CriticalLever.Urgency)
	}
	if res.Confidence != 0.8 || res.Plan.Confidence != res.Confidence {
		t.Errorf("Confidence = %v, want 0.8", res.Confidence)
	}
	if res.Message == "" || res.Style != coach.StyleBalanced {
		t.Errorf("style %s message %q", res.Style, res.Message)
	}
	if len(logger.decisions) != 1 || res.DecisionID != logger.decisions[0].ID {
		t.Fatalf("decision not logged: id=%q logged=%d", res.DecisionID, len(logger.decisions))
	}
	if got := logger.decisions[0]; got.UserID != "u1" || got.Lever.Type != res.CriticalLever.Type {
		t.Errorf("logged decision = %+v", got)
	}
}

func TestEngine_DecidePipelineEmergency(t *testing.T) {
	db := testutil.TestDBAt(t, testutil.Now)
	ctx := testutil.TestContext(t)
	testutil.SeedProfile(t, db, testutil.DefaultProfileFixture("u1"))
	testutil.SeedContacts(t, db, testutil.Leads("u1", "hot", 2, core.StageConversacion, 80)...)

	res, err := newEngine(t, db, nil).Decide(ctx, "u1")
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if res.CriticalLever.Type != coach.LeverPipelineEmergency {
		t.Fatalf("lever = %s, want pipeline_emergency", res.CriticalLever.Type)
	}
	p := res.Situation.Pipeline
	if p.Calientes != 2 || p.Total != p.Calientes+p.Tibios+p.Frios {
		t.Errorf("pipeline = %+v", p)
	}
	if res.Situation.Progress.Objetivo != 10000 || res.Situation.Progress.DiasRestantes != 9 {
		t.Errorf("progress = %+v", res.Situation.Progress)
	}
	if res.DecisionID != "" {
		t.Errorf("DecisionID = %q without a logger", res.DecisionID)
	}
}

func TestEngine_LedgerFailureIsNotFatal(t *testing.T) {
	db := testutil.TestDBAt(t, testutil.Now)
	testutil.SeedProfile(t, db, testutil.DefaultProfileFixture("u1"))

	logger := &memoryLogger{err: errors.New("disk full")}
	res, err := newEngine(t, db, logger).Decide(testutil.TestContext(t), "u1")
	if err != nil {
		t.Fatalf("Decide() error = %v, ledger failures must not fail the decision", err)
	}
	if res.DecisionID != "" {
		t.Errorf("DecisionID = %q, want empty after a failed write", res.DecisionID)
	}
}

func TestEngine_DecideErrors(t *testing.T) {
	db := testutil.TestDBAt(t, testutil.Now)
	engine := newEngine(t, db, nil)
	ctx := testutil.TestContext(t)

	if _, err := engine.Decide(ctx, ""); !errors.Is(err, core.ErrMissingRequired) {
		t.Errorf("Decide(\"\") error = %v, want ErrMissingRequired", err)
	}
	if _, err := engine.Decide(ctx, "nobody"); !errors.Is(err, core.ErrProfileNotFound) {
		t.Errorf("Decide(unknown) error = %v, want ErrProfileNotFound", err)
	}
}

func TestEngine_OnDecide(t *testing.T) {
	db := testutil.TestDBAt(t, testutil.Now)
	testutil.SeedProfile(t, db, testutil.DefaultProfileFixture("u1"))

	var seen []string
	engine, err := coach.NewEngine(storage.NewRecordStore(db), coach.Options{
		Now:      func() time.Time { return testutil.Now },
		OnDecide: func(r *coach.Result) { seen = append(seen, string(r.CriticalLever.Type)) },
	})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if _, err := engine.Decide(testutil.TestContext(t), "u1"); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if len(seen) != 1 {
		t.Errorf("OnDecide called %d times, want 1", len(seen))
	}
}

func TestEngine_ContextFollowsTheClock(t *testing.T) {
	now := testutil.Now
	db := testutil.TestDB(t)
	db.SetClock(func() time.Time { return now })
	ctx := testutil.TestContext(t)

	testutil.SeedProfile(t, db, testutil.DefaultProfileFixture("u1"))
	testutil.SeedContacts(t, db, testutil.Leads("u1", "demo", 5, core.StageDemo, 85)...)
	testutil.SeedInteractions(t, db, testutil.InteractionFixture("u1", core.OutcomePositive, 0))

	engine, err := coach.NewEngine(storage.NewRecordStore(db), coach.Options{
		Now: func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	first, err := engine.Decide(ctx, "u1")
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if first.Situation.Pipeline.DiasSinProspeccion != 0 || first.CriticalLever.Type == coach.LeverPipelineEmergency {
		t.Fatalf("first decision: dias=%d lever=%s", first.Situation.Pipeline.DiasSinProspeccion, first.CriticalLever.Type)
	}

	now = now.AddDate(0, 0, 20)

	later, err := engine.Decide(ctx, "u1")
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if got := later.Situation.Pipeline.DiasSinProspeccion; got != 20 {
		t.Errorf("DiasSinProspeccion after 20 idle days = %d, want 20", got)
	}
	if later.CriticalLever.Type != coach.LeverPipelineEmergency {
		t.Errorf("lever after 20 idle days = %s, want pipeline_emergency", later.CriticalLever.Type)
	}
}
