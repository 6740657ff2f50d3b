package learning

import (
	"fmt"
	"strings"
	"time"

	"github.com/salescoach/salescoach/internal/core"
)

// Fallbacks used when no confirmed pattern covers a concern
const (
	DefaultCanal        = "linkedin"
	DefaultHorario      = "10:00-11:00"
	DefaultDia          = "martes"
	DefaultCanalRate    = 0.15
	DefaultFollowUpRate = 0.5
)

// WhatWorks holds the confirmed patterns of a user, at most one per type.
// The zero value is valid and answers every question with the fallbacks.
type WhatWorks struct {
	Timing   *core.Pattern `json:"timing,omitempty"`
	Canal    *core.Pattern `json:"canal,omitempty"`
	Speech   *core.Pattern `json:"speech,omitempty"`
	FollowUp *core.Pattern `json:"follow_up,omitempty"`

	ranked []core.Pattern
}

// FromPatterns keeps the confirmed patterns, most confident first
func FromPatterns(patterns []core.Pattern) WhatWorks {
	var w WhatWorks
	for i := range patterns {
		p := patterns[i]
		if p.Estado != core.PatternConfirmed {
			continue
		}
		w.ranked = append(w.ranked, p)

		slot := w.slot(p.PatternType)
		if slot == nil {
			continue
		}
		if *slot == nil || p.NivelConfianza > (*slot).NivelConfianza {
			*slot = &p
		}
	}
	return w
}

func (w *WhatWorks) slot(t core.PatternType) **core.Pattern {
	switch t {
	case core.PatternTiming:
		return &w.Timing
	case core.PatternCanal:
		return &w.Canal
	case core.PatternSpeech:
		return &w.Speech
	case core.PatternFollowUp:
		return &w.FollowUp
	}
	return nil
}

// Empty reports whether nothing has been confirmed yet
func (w WhatWorks) Empty() bool {
	return len(w.ranked) == 0
}

// Top returns up to n confirmed patterns, most confident first
func (w WhatWorks) Top(n int) []core.Pattern {
	if n > len(w.ranked) {
		n = len(w.ranked)
	}
	return append([]core.Pattern(nil), w.ranked[:n]...)
}

// BestCanal is the channel that converts best
func (w WhatWorks) BestCanal() string {
	if w.Canal != nil && w.Canal.Canal != "" {
		return w.Canal.Canal
	}
	return DefaultCanal
}

// CanalRate is the success rate of the best channel
func (w WhatWorks) CanalRate() float64 {
	if w.Canal != nil && w.Canal.TasaExito > 0 {
		return w.Canal.TasaExito
	}
	return DefaultCanalRate
}

// BestHorario returns the best time window and whether it was learned
func (w WhatWorks) BestHorario() (string, bool) {
	if w.Timing != nil && w.Timing.MejorHorario != "" {
		return w.Timing.MejorHorario, true
	}
	return DefaultHorario, false
}

// BestDia is the weekday with most positive outcomes
func (w WhatWorks) BestDia() string {
	if w.Timing != nil && w.Timing.MejorDiaSemana != "" {
		return w.Timing.MejorDiaSemana
	}
	return DefaultDia
}

// BestSpeech returns the opener that worked best, if any
func (w WhatWorks) BestSpeech() (string, bool) {
	if w.Speech != nil && w.Speech.MejorSpeech != "" {
		return w.Speech.MejorSpeech, true
	}
	return "", false
}

// FollowUpRate is the historic conversion of follow-ups
func (w WhatWorks) FollowUpRate() float64 {
	if w.FollowUp != nil && w.FollowUp.TasaExito > 0 {
		return w.FollowUp.TasaExito
	}
	return DefaultFollowUpRate
}

// MomentoOptimo reports whether now falls on the learned best day and hour.
func (w WhatWorks) MomentoOptimo(now time.Time) bool {
	if w.Timing == nil {
		return false
	}
	return w.Timing.MejorDiaSemana == core.WeekdayName(now.Weekday()) &&
		strings.Contains(w.Timing.MejorHorario, fmt.Sprintf("%d:", now.Hour()))
}
