package coach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/salescoach/salescoach/internal/core"
	"github.com/salescoach/salescoach/internal/learning"
)

const (
	interactionWindow = 30 * 24 * time.Hour
	emotionalWindow   = 7 * 24 * time.Hour
	emotionalLimit    = 7
)

// Builder loads the records a snapshot needs.
type Builder struct {
	store Store
	now   func() time.Time
}

// NewBuilder creates a snapshot builder
func NewBuilder(store Store, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{store: store, now: now}
}

// Load issues every read concurrently and returns once all have finished.
// Any failed read is fatal. A missing context, or one computed before today, is recomputed once.
func (b *Builder) Load(ctx context.Context, userID string) (*Inputs, error) {
	now := b.now()
	in := &Inputs{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := b.store.GetProfile(gctx, userID)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		in.Profile = p
		return nil
	})
	g.Go(func() error {
		goals, err := b.store.ActiveGoals(gctx, userID)
		if err != nil {
			return fmt.Errorf("load goals: %w", err)
		}
		in.Goals = goals
		return nil
	})
	g.Go(func() error {
		contacts, err := b.store.ListContacts(gctx, userID, core.ContactFilter{
			ExcludeArchived: true,
			OrderBy:         core.OrderByTemperature,
		})
		if err != nil {
			return fmt.Errorf("load contacts: %w", err)
		}
		in.Contacts = contacts
		return nil
	})
	g.Go(func() error {
		interactions, err := b.store.RecentInteractions(gctx, userID, now.Add(-interactionWindow))
		if err != nil {
			return fmt.Errorf("load interactions: %w", err)
		}
		in.Interactions = interactions
		return nil
	})
	g.Go(func() error {
		states, err := b.store.RecentEmotionalStates(gctx, userID, now.Add(-emotionalWindow), emotionalLimit)
		if err != nil {
			return fmt.Errorf("load emotional states: %w", err)
		}
		in.Emotional = states
		return nil
	})
	g.Go(func() error {
		patterns, err := b.store.ConfirmedPatterns(gctx, userID)
		if err != nil {
			return fmt.Errorf("load patterns: %w", err)
		}
		in.WhatWorks = learning.FromPatterns(patterns)
		return nil
	})
	g.Go(func() error {
		cc, err := b.store.CurrentContext(gctx, userID)
		if errors.Is(err, core.ErrContextNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load current context: %w", err)
		}
		in.Context = cc
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if contextStale(in.Context, now) {
		if err := b.store.RecomputeContext(ctx, userID); err != nil {
			return nil, fmt.Errorf("recompute current context: %w", err)
		}
		cc, err := b.store.CurrentContext(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load current context: %w", err)
		}
		in.Context = cc
	}
	return in, nil
}

// contextStale reports whether cc is missing or was computed on an earlier day.
// Inactivity days and month progress only move when the context is recomputed.
func contextStale(cc *core.CurrentContext, now time.Time) bool {
	if cc == nil {
		return true
	}
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return cc.UpdatedAt.UTC().Before(today)
}

// Build loads the inputs and derives the snapshot.
func (b *Builder) Build(ctx context.Context, userID string) (Snapshot, *Inputs, error) {
	in, err := b.Load(ctx, userID)
	if err != nil {
		return Snapshot{}, nil, err
	}
	return BuildSnapshot(*in, b.now()), in, nil
}
