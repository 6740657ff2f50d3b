package coach

import (
	"context"
	"errors"
	"time"

	"github.com/salescoach/salescoach/internal/core"
)

var errStoreDown = errors.New("store down")

// fakeStore serves canned records. Keys of fail make the named method return errStoreDown.
type fakeStore struct {
	profile      *core.Profile
	goals        []core.Goal
	contacts     []core.Contact
	interactions []core.Interaction
	closes       []core.Interaction
	emotional    []core.EmotionalState
	context      *core.CurrentContext
	patterns     []core.Pattern
	resources    []core.SupportResource
	phrases      []core.MotivationalPhrase

	fail       map[string]bool
	recomputed int
}

func (f *fakeStore) err(method string) error {
	if f.fail[method] {
		return errStoreDown
	}
	return nil
}

func (f *fakeStore) GetProfile(ctx context.Context, userID string) (*core.Profile, error) {
	if err := f.err("GetProfile"); err != nil {
		return nil, err
	}
	if f.profile == nil || f.profile.UserID != userID {
		return nil, core.ErrProfileNotFound
	}
	return f.profile, nil
}

func (f *fakeStore) ActiveGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	return f.goals, f.err("ActiveGoals")
}

func (f *fakeStore) ListContacts(ctx context.Context, userID string, filter core.ContactFilter) ([]core.Contact, error) {
	if err := f.err("ListContacts"); err != nil {
		return nil, err
	}
	var out []core.Contact
	for _, c := range f.contacts {
		if filter.ExcludeArchived && c.Tipo == core.ContactArchived {
			continue
		}
		if filter.Stage != "" && c.Stage != filter.Stage {
			continue
		}
		if filter.MinTemperature != nil && c.Temperatura < *filter.MinTemperature {
			continue
		}
		if filter.MaxTemperature != nil && c.Temperatura >= *filter.MaxTemperature {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) RecentInteractions(ctx context.Context, userID string, since time.Time) ([]core.Interaction, error) {
	return f.interactions, f.err("RecentInteractions")
}

func (f *fakeStore) RecentCloses(ctx context.Context, userID string, since time.Time) ([]core.Interaction, error) {
	return f.closes, f.err("RecentCloses")
}

func (f *fakeStore) RecentEmotionalStates(ctx context.Context, userID string, since time.Time, limit int) ([]core.EmotionalState, error) {
	if err := f.err("RecentEmotionalStates"); err != nil {
		return nil, err
	}
	if limit > 0 && len(f.emotional) > limit {
		return f.emotional[:limit], nil
	}
	return f.emotional, nil
}

func (f *fakeStore) CurrentContext(ctx context.Context, userID string) (*core.CurrentContext, error) {
	if err := f.err("CurrentContext"); err != nil {
		return nil, err
	}
	if f.context == nil {
		return nil, core.ErrContextNotFound
	}
	return f.context, nil
}

func (f *fakeStore) RecomputeContext(ctx context.Context, userID string) error {
	f.recomputed++
	if err := f.err("RecomputeContext"); err != nil {
		return err
	}
	f.context = &core.CurrentContext{UserID: userID, Momentum: core.MomentumStarting}
	return nil
}

func (f *fakeStore) ConfirmedPatterns(ctx context.Context, userID string) ([]core.Pattern, error) {
	return f.patterns, f.err("ConfirmedPatterns")
}

func (f *fakeStore) SupportResources(ctx context.Context, categories []string, limit int) ([]core.SupportResource, error) {
	return f.resources, f.err("SupportResources")
}

func (f *fakeStore) MotivationalPhrases(ctx context.Context, category string, limit int) ([]core.MotivationalPhrase, error) {
	return f.phrases, f.err("MotivationalPhrases")
}

// failing returns a fail set for the given methods
func failing(methods ...string) map[string]bool {
	m := make(map[string]bool, len(methods))
	for _, name := range methods {
		m[name] = true
	}
	return m
}
