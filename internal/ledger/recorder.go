package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/salescoach/salescoach/internal/coach"
	"github.com/salescoach/salescoach/internal/core"
)

// Recorder provides a convenient interface for recording common actions
type Recorder struct {
	store *Store
}

// NewRecorder creates a recorder for the given store
func NewRecorder(store *Store) *Recorder {
	return &Recorder{store: store}
}

// LogDecision appends a coach decision. The entity is the user.
func (r *Recorder) LogDecision(ctx context.Context, d *coach.Decision) error {
	_, err := r.store.Append(ctx, ActionCoachDecision, ActorCoach, "user", d.UserID, d)
	return err
}

// ListDecisions returns the logged decisions of a user, newest first.
func (r *Recorder) ListDecisions(ctx context.Context, userID string, limit int) ([]coach.Decision, error) {
	entries, err := r.store.Query(ctx, QueryOptions{
		Action:     ActionCoachDecision,
		EntityType: "user",
		EntityID:   userID,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}

	out := make([]coach.Decision, 0, len(entries))
	for _, e := range entries {
		var d coach.Decision
		if err := json.Unmarshal([]byte(e.Details), &d); err != nil {
			return nil, fmt.Errorf("decode decision %s: %w", e.ID, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// RecordProfileUpdated records a profile save
func (r *Recorder) RecordProfileUpdated(ctx context.Context, p *core.Profile) error {
	_, err := r.store.Append(ctx, ActionProfileUpdated, ActorUser, "profile", p.UserID, map[string]interface{}{
		"nombre":           p.Nombre,
		"revenue_objetivo": p.RevenueObjetivo,
	})
	return err
}

// RecordContactCreated records a new contact
func (r *Recorder) RecordContactCreated(ctx context.Context, c *core.Contact) error {
	_, err := r.store.Append(ctx, ActionContactCreated, ActorUser, "contact", c.ID, map[string]interface{}{
		"user_id": c.UserID,
		"stage":   c.Stage,
	})
	return err
}

// RecordContactDeleted records a removed contact
func (r *Recorder) RecordContactDeleted(ctx context.Context, userID, contactID string) error {
	_, err := r.store.Append(ctx, ActionContactDeleted, ActorUser, "contact", contactID, map[string]interface{}{
		"user_id": userID,
	})
	return err
}

// RecordCheckIn records an emotional check-in without its free text
func (r *Recorder) RecordCheckIn(ctx context.Context, e *core.EmotionalState) error {
	_, err := r.store.Append(ctx, ActionEmotionalCheckIn, ActorUser, "user", e.UserID, map[string]interface{}{
		"motivacion": e.Motivacion,
		"estres":     e.Estres,
	})
	return err
}

// RecordPatternsLearned records a learning run
func (r *Recorder) RecordPatternsLearned(ctx context.Context, userID string, stored int) error {
	_, err := r.store.Append(ctx, ActionPatternsLearned, ActorSystem, "user", userID, map[string]interface{}{
		"stored": stored,
	})
	return err
}
