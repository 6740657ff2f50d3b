package learning

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/salescoach/salescoach/internal/logging"
	"github.com/salescoach/salescoach/internal/storage"
)

// Service coordinates pattern detection and lookup
type Service struct {
	detector *Detector
	patterns *storage.PatternStore
	profiles *storage.ProfileStore

	running bool
	stopCh  chan struct{}
	mu      sync.Mutex

	config ServiceConfig
}

// ServiceConfig configures the learning service
type ServiceConfig struct {
	DetectorConfig DetectorConfig
	LearnInterval  time.Duration
}

// DefaultServiceConfig returns sensible defaults
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		DetectorConfig: DefaultDetectorConfig(),
		LearnInterval:  6 * time.Hour,
	}
}

// NewService creates a new learning service
func NewService(db *storage.DB, config ServiceConfig) *Service {
	return &Service{
		detector: NewDetector(db, config.DetectorConfig),
		patterns: storage.NewPatternStore(db),
		profiles: storage.NewProfileStore(db),
		config:   config,
	}
}

// Detector returns the pattern detector
func (s *Service) Detector() *Detector {
	return s.detector
}

// WhatWorks loads the confirmed patterns of a user
func (s *Service) WhatWorks(ctx context.Context, userID string) (WhatWorks, error) {
	confirmed, err := s.patterns.Confirmed(ctx, userID)
	if err != nil {
		return WhatWorks{}, fmt.Errorf("load confirmed patterns: %w", err)
	}
	return FromPatterns(confirmed), nil
}

// Learn runs detection for one user and stores the result
func (s *Service) Learn(ctx context.Context, userID string) (int, error) {
	patterns, err := s.detector.Learn(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(patterns), nil
}

// LearnAll runs detection for every user with a profile
func (s *Service) LearnAll(ctx context.Context) (int, error) {
	users, err := s.profiles.UserIDs(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, userID := range users {
		n, err := s.Learn(ctx, userID)
		if err != nil {
			logging.WithField("user_id", userID).WithField("error", err.Error()).Warn("pattern detection failed")
			continue
		}
		total += n
	}
	return total, nil
}

// Start begins background learning
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("learning service already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLearnLoop(ctx, s.stopCh)

	logging.WithField("interval", s.config.LearnInterval.String()).Info("learning service started")
	return nil
}

// Stop stops the learning service
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
}

func (s *Service) runLearnLoop(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(s.config.LearnInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			n, err := s.LearnAll(ctx)
			if err != nil {
				logging.Warn("learning pass failed: %v", err)
				continue
			}
			logging.Debug("learning pass stored %d patterns", n)
		}
	}
}
