package storage

import (
	"context"
	"time"

	"github.com/salescoach/salescoach/internal/core"
)

// RecordStore bundles every per-entity store behind the read contract the
// decision engine needs.
type RecordStore struct {
	DB           *DB
	Profiles     *ProfileStore
	Goals        *GoalStore
	Contacts     *ContactStore
	Interactions *InteractionStore
	Emotional    *EmotionalStore
	Context      *ContextStore
	Patterns     *PatternStore
	Reference    *ReferenceStore
	Services     *ServiceStore
	ICPs         *ICPStore
}

// NewRecordStore wires all stores over one database
func NewRecordStore(db *DB) *RecordStore {
	return &RecordStore{
		DB:           db,
		Profiles:     NewProfileStore(db),
		Goals:        NewGoalStore(db),
		Contacts:     NewContactStore(db),
		Interactions: NewInteractionStore(db),
		Emotional:    NewEmotionalStore(db),
		Context:      NewContextStore(db),
		Patterns:     NewPatternStore(db),
		Reference:    NewReferenceStore(db),
		Services:     NewServiceStore(db),
		ICPs:         NewICPStore(db),
	}
}

func (r *RecordStore) GetProfile(ctx context.Context, userID string) (*core.Profile, error) {
	return r.Profiles.Get(ctx, userID)
}

func (r *RecordStore) ActiveGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	return r.Goals.Active(ctx, userID)
}

func (r *RecordStore) ListContacts(ctx context.Context, userID string, f core.ContactFilter) ([]core.Contact, error) {
	return r.Contacts.List(ctx, userID, f)
}

func (r *RecordStore) RecentInteractions(ctx context.Context, userID string, since time.Time) ([]core.Interaction, error) {
	return r.Interactions.Since(ctx, userID, since)
}

func (r *RecordStore) RecentCloses(ctx context.Context, userID string, since time.Time) ([]core.Interaction, error) {
	return r.Interactions.ClosesSince(ctx, userID, since)
}

func (r *RecordStore) RecentEmotionalStates(ctx context.Context, userID string, since time.Time, limit int) ([]core.EmotionalState, error) {
	return r.Emotional.Recent(ctx, userID, since, limit)
}

func (r *RecordStore) CurrentContext(ctx context.Context, userID string) (*core.CurrentContext, error) {
	return r.Context.Get(ctx, userID)
}

func (r *RecordStore) RecomputeContext(ctx context.Context, userID string) error {
	_, err := r.Context.Recompute(ctx, userID)
	return err
}

func (r *RecordStore) ConfirmedPatterns(ctx context.Context, userID string) ([]core.Pattern, error) {
	return r.Patterns.Confirmed(ctx, userID)
}

func (r *RecordStore) SupportResources(ctx context.Context, categories []string, limit int) ([]core.SupportResource, error) {
	return r.Reference.SupportResources(ctx, categories, limit)
}

func (r *RecordStore) MotivationalPhrases(ctx context.Context, category string, limit int) ([]core.MotivationalPhrase, error) {
	return r.Reference.MotivationalPhrases(ctx, category, limit)
}
