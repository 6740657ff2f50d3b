// Package coach is the decision engine: it snapshots a user's situation, picks the
// critical lever, builds a plan for it and renders the plan in the user's style.
package coach

import (
	"context"
	"time"

	"github.com/salescoach/salescoach/internal/core"
)

// Store is the record store the engine reads from.
// storage.RecordStore is the production implementation.
type Store interface {
	GetProfile(ctx context.Context, userID string) (*core.Profile, error)
	ActiveGoals(ctx context.Context, userID string) ([]core.Goal, error)
	ListContacts(ctx context.Context, userID string, f core.ContactFilter) ([]core.Contact, error)
	RecentInteractions(ctx context.Context, userID string, since time.Time) ([]core.Interaction, error)
	RecentCloses(ctx context.Context, userID string, since time.Time) ([]core.Interaction, error)
	RecentEmotionalStates(ctx context.Context, userID string, since time.Time, limit int) ([]core.EmotionalState, error)
	CurrentContext(ctx context.Context, userID string) (*core.CurrentContext, error)
	RecomputeContext(ctx context.Context, userID string) error
	ConfirmedPatterns(ctx context.Context, userID string) ([]core.Pattern, error)
	SupportResources(ctx context.Context, categories []string, limit int) ([]core.SupportResource, error)
	MotivationalPhrases(ctx context.Context, category string, limit int) ([]core.MotivationalPhrase, error)
}

// DecisionLogger appends decisions to the audit trail.
type DecisionLogger interface {
	LogDecision(ctx context.Context, d *Decision) error
}

// Decision is the audit record of one engine run.
type Decision struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Snapshot   Snapshot  `json:"snapshot"`
	Lever      Lever     `json:"lever"`
	Plan       Plan      `json:"plan"`
	Message    string    `json:"message"`
	Style      Style     `json:"style"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}
