package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	_ "github.com/mattn/go-sqlite3"

	"github.com/salescoach/salescoach/internal/coach"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS ledger (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			timestamp TEXT NOT NULL,
			action TEXT NOT NULL,
			actor TEXT NOT NULL,
			entity_type TEXT,
			entity_id TEXT,
			details TEXT,
			prev_hash TEXT NOT NULL,
			hash TEXT NOT NULL
		)
	`)
	if err != nil {
		t.Fatalf("Failed to create ledger table: %v", err)
	}
	return db
}

// steppingClock advances one second per call.
func steppingClock(start time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * time.Second)
		n++
		return t
	}
}

var t0 = time.Date(2026, 10, 22, 15, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *sql.DB) {
	db := setupTestDB(t)
	store := NewStore(db)
	store.SetClock(steppingClock(t0))
	return store, db
}

func TestStore_Append(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	entry, err := store.Append(ctx, ActionProfileUpdated, ActorUser, "profile", "u1", map[string]interface{}{
		"nombre": "Ana",
	})
	if err != nil {
		t.Fatalf("Failed to append first entry: %v", err)
	}
	if entry.PrevHash != GenesisHash {
		t.Errorf("First entry should have genesis prev_hash, got %s", entry.PrevHash)
	}
	if len(entry.Hash) != 64 {
		t.Errorf("Entry hash should be 64 hex chars, got %q", entry.Hash)
	}
	if entry.Seq != 1 {
		t.Errorf("Seq = %d, want 1", entry.Seq)
	}

	entry2, err := store.Append(ctx, ActionContactCreated, ActorUser, "contact", "c1", nil)
	if err != nil {
		t.Fatalf("Failed to append second entry: %v", err)
	}
	if entry2.PrevHash != entry.Hash {
		t.Errorf("Second entry prev_hash should match first entry hash")
	}
	if entry2.Details != "" {
		t.Errorf("nil details should be stored empty, got %q", entry2.Details)
	}
}

func TestStore_Append_SameTimestampKeepsOrder(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	store := NewStore(db)
	store.SetClock(func() time.Time { return t0 })

	for i := 0; i < 5; i++ {
		if _, err := store.Append(ctx, ActionCoachDecision, ActorCoach, "user", "u1", nil); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if err := store.VerifyChain(ctx); err != nil {
		t.Errorf("chain with equal timestamps should verify: %v", err)
	}
}

func TestStore_VerifyChain(t *testing.T) {
	tests := []struct {
		name     string
		tamper   string
		wantType string
		wantNum  int
	}{
		{"valid", "", "", 0},
		{"tampered hash", "UPDATE ledger SET hash = 'tampered' WHERE seq = 2", HashMismatch, 2},
		{"tampered details", `UPDATE ledger SET details = '{"stored":99}' WHERE seq = 1`, HashMismatch, 1},
		{"broken link", "UPDATE ledger SET prev_hash = 'wrong' WHERE seq = 3", ChainBroken, 3},
		{"deleted entry", "DELETE FROM ledger WHERE seq = 2", ChainBroken, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store, db := newTestStore(t)

			for i := 0; i < 4; i++ {
				if _, err := store.Append(ctx, ActionPatternsLearned, ActorSystem, "user", "u1",
					map[string]int{"stored": i}); err != nil {
					t.Fatalf("append %d: %v", i, err)
				}
			}
			if tt.tamper != "" {
				if _, err := db.Exec(tt.tamper); err != nil {
					t.Fatalf("tamper: %v", err)
				}
			}

			err := store.VerifyChain(ctx)
			if tt.wantType == "" {
				if err != nil {
					t.Fatalf("Chain verification should pass: %v", err)
				}
				return
			}

			var chainErr *ChainError
			if !errors.As(err, &chainErr) {
				t.Fatalf("Expected ChainError, got %T (%v)", err, err)
			}
			if chainErr.Type != tt.wantType {
				t.Errorf("Type = %s, want %s", chainErr.Type, tt.wantType)
			}
			if chainErr.EntryNum != tt.wantNum {
				t.Errorf("EntryNum = %d, want %d", chainErr.EntryNum, tt.wantNum)
			}
		})
	}
}

func TestStore_Query(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	store.Append(ctx, ActionContactCreated, ActorUser, "contact", "c1", nil)
	store.Append(ctx, ActionContactCreated, ActorUser, "contact", "c2", nil)
	store.Append(ctx, ActionContactDeleted, ActorUser, "contact", "c1", nil)
	store.Append(ctx, ActionCoachDecision, ActorCoach, "user", "u1", nil)

	tests := []struct {
		name string
		opts QueryOptions
		want []string
	}{
		{"all newest first", QueryOptions{}, []string{"u1", "c1", "c2", "c1"}},
		{"by action", QueryOptions{Action: ActionContactCreated}, []string{"c2", "c1"}},
		{"by actor", QueryOptions{Actor: ActorCoach}, []string{"u1"}},
		{"by entity", QueryOptions{EntityType: "contact", EntityID: "c1"}, []string{"c1", "c1"}},
		{"limit", QueryOptions{Limit: 2}, []string{"u1", "c1"}},
		{"offset", QueryOptions{Offset: 3}, []string{"c1"}},
		{"since", QueryOptions{Since: t0.Add(2 * time.Second)}, []string{"u1", "c1"}},
		{"until", QueryOptions{Until: t0.Add(time.Second)}, []string{"c2", "c1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := store.Query(ctx, tt.opts)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			var got []string
			for _, e := range entries {
				got = append(got, e.EntityID)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("entity ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_GetByID(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	created, err := store.Append(ctx, ActionProfileUpdated, ActorUser, "profile", "u1", map[string]string{"nombre": "Ana"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("expected entry")
	}
	if diff := cmp.Diff(created, got); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}

	missing, err := store.GetByID(ctx, "nope")
	if err != nil {
		t.Fatalf("GetByID missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing entry, got %+v", missing)
	}
}

func TestStore_CountAndHistory(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	for i := 0; i < 3; i++ {
		store.Append(ctx, ActionContactCreated, ActorUser, "contact", fmt.Sprintf("c%d", i), nil)
	}
	store.Append(ctx, ActionContactDeleted, ActorUser, "contact", "c1", nil)

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 4 {
		t.Errorf("Count = %d, want 4", count)
	}

	history, err := store.GetEntityHistory(ctx, "contact", "c1")
	if err != nil {
		t.Fatalf("GetEntityHistory: %v", err)
	}
	if len(history) != 2 || history[0].Action != ActionContactDeleted {
		t.Errorf("history = %+v, want delete then create", history)
	}

	recent, err := store.GetRecent(ctx, 1)
	if err != nil {
		t.Fatalf("GetRecent: %v", err)
	}
	if len(recent) != 1 || recent[0].Seq != 4 {
		t.Errorf("recent = %+v, want seq 4", recent)
	}
}

func TestStore_GetSummary(t *testing.T) {
	ctx := context.Background()
	store, db := newTestStore(t)

	empty, err := store.GetSummary(ctx)
	if err != nil {
		t.Fatalf("GetSummary empty: %v", err)
	}
	if empty.TotalEntries != 0 || empty.FirstEntry != nil || !empty.ChainValid {
		t.Errorf("empty summary = %+v", empty)
	}

	store.Append(ctx, ActionCoachDecision, ActorCoach, "user", "u1", nil)
	store.Append(ctx, ActionCoachDecision, ActorCoach, "user", "u1", nil)
	store.Append(ctx, ActionProfileUpdated, ActorUser, "profile", "u1", nil)

	summary, err := store.GetSummary(ctx)
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if summary.TotalEntries != 3 {
		t.Errorf("TotalEntries = %d, want 3", summary.TotalEntries)
	}
	if diff := cmp.Diff(map[string]int{ActionCoachDecision: 2, ActionProfileUpdated: 1}, summary.ByAction); diff != "" {
		t.Errorf("ByAction mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]int{ActorCoach: 2, ActorUser: 1}, summary.ByActor); diff != "" {
		t.Errorf("ByActor mismatch (-want +got):\n%s", diff)
	}
	if !summary.FirstEntry.Equal(t0) || !summary.LastEntry.Equal(t0.Add(2*time.Second)) {
		t.Errorf("bounds = %v..%v", summary.FirstEntry, summary.LastEntry)
	}
	if !summary.ChainValid {
		t.Errorf("chain should be valid: %s", summary.ChainError)
	}

	db.Exec("UPDATE ledger SET actor = 'mallory' WHERE seq = 1")
	summary, err = store.GetSummary(ctx)
	if err != nil {
		t.Fatalf("GetSummary tampered: %v", err)
	}
	if summary.ChainValid || summary.ChainError == "" {
		t.Error("tampered ledger should report an invalid chain")
	}
}

func TestComputeHash_Deterministic(t *testing.T) {
	entry := &Entry{
		ID:         "test-id",
		Timestamp:  t0,
		Action:     ActionCoachDecision,
		Actor:      ActorCoach,
		EntityType: "user",
		EntityID:   "u1",
		Details:    `{"k":"v"}`,
		PrevHash:   GenesisHash,
	}

	hash1 := computeHash(entry)
	hash2 := computeHash(entry)
	if hash1 != hash2 {
		t.Error("Hash should be deterministic")
	}

	// Location must not change the hash
	local := *entry
	local.Timestamp = t0.In(time.FixedZone("ART", -3*3600))
	if computeHash(&local) != hash1 {
		t.Error("Hash should not depend on the timestamp location")
	}

	entry.Details = `{"k":"w"}`
	if computeHash(entry) == hash1 {
		t.Error("Different details should produce different hash")
	}
}

func TestRecorder_Decisions(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	rec := NewRecorder(store)

	first := &coach.Decision{
		ID:     "d1",
		UserID: "u1",
		Lever:  coach.Lever{Type: coach.LeverMomentumRecovery, Urgency: coach.UrgencyHigh},
		Plan: coach.Plan{
			Type:             coach.LeverMomentumRecovery,
			MensajePrincipal: "Recuperar ritmo",
			Confidence:       0.7,
			Detail:           &coach.MomentumPlan{Diagnostico: coach.MomentumDiagnosis{DiasDesdeUltimoCierre: 12}},
		},
		Message:    "Vamos",
		Style:      coach.StyleBalanced,
		Confidence: 0.7,
		Timestamp:  t0,
	}
	second := &coach.Decision{
		ID:         "d2",
		UserID:     "u1",
		Lever:      coach.Lever{Type: coach.LeverMaintain, Urgency: coach.UrgencyLow},
		Plan:       coach.Plan{Type: coach.LeverMaintain, Confidence: 0.5, Detail: &coach.MaintainPlan{Acciones: []string{}}},
		Style:      coach.StyleBalanced,
		Confidence: 0.5,
		Timestamp:  t0.Add(time.Hour),
	}
	other := &coach.Decision{ID: "d3", UserID: "u2", Plan: coach.Plan{Type: coach.LeverMaintain}}

	for _, d := range []*coach.Decision{first, second, other} {
		if err := rec.LogDecision(ctx, d); err != nil {
			t.Fatalf("LogDecision %s: %v", d.ID, err)
		}
	}
	if err := rec.RecordPatternsLearned(ctx, "u1", 3); err != nil {
		t.Fatalf("RecordPatternsLearned: %v", err)
	}

	got, err := rec.ListDecisions(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ListDecisions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d decisions, want 2", len(got))
	}
	if got[0].ID != "d2" || got[1].ID != "d1" {
		t.Errorf("order = %s,%s, want d2,d1", got[0].ID, got[1].ID)
	}
	if diff := cmp.Diff(*first, got[1]); diff != "" {
		t.Errorf("decision mismatch (-want +got):\n%s", diff)
	}

	limited, err := rec.ListDecisions(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("ListDecisions limited: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "d2" {
		t.Errorf("limited = %+v", limited)
	}

	if err := store.VerifyChain(ctx); err != nil {
		t.Errorf("VerifyChain: %v", err)
	}
}
