// Package learning detects what works for each user from their interaction history.
package learning

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/salescoach/salescoach/internal/core"
	"github.com/salescoach/salescoach/internal/storage"
)

// Detector turns interaction history into learned patterns
type Detector struct {
	interactions *storage.InteractionStore
	patterns     *storage.PatternStore
	now          func() time.Time
	config       DetectorConfig
}

// DetectorConfig configures pattern detection
type DetectorConfig struct {
	MinSampleCount     int           // Minimum observations before a pattern is reported
	MinConfidence      float64       // Patterns below this are dropped
	ConfirmSampleCount int           // Observations needed to confirm a hypothesis
	ConfirmConfidence  float64       // Confidence needed to confirm a hypothesis
	LookbackWindow     time.Duration // How far back to look
}

// DefaultDetectorConfig returns sensible defaults
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		MinSampleCount:     5,
		MinConfidence:      0.5,
		ConfirmSampleCount: 10,
		ConfirmConfidence:  0.7,
		LookbackWindow:     90 * 24 * time.Hour,
	}
}

// NewDetector creates a new pattern detector
func NewDetector(db *storage.DB, config DetectorConfig) *Detector {
	return &Detector{
		interactions: storage.NewInteractionStore(db),
		patterns:     storage.NewPatternStore(db),
		now:          db.Now,
		config:       config,
	}
}

// DetectPatterns analyzes recent interactions and returns detected patterns
func (d *Detector) DetectPatterns(ctx context.Context, userID string) ([]core.Pattern, error) {
	since := d.now().Add(-d.config.LookbackWindow)
	interactions, err := d.interactions.Since(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("get interactions: %w", err)
	}
	return DetectFromInteractions(userID, interactions, d.config), nil
}

// Learn detects patterns and stores them, replacing older ones of the same type
func (d *Detector) Learn(ctx context.Context, userID string) ([]core.Pattern, error) {
	patterns, err := d.DetectPatterns(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range patterns {
		if err := d.patterns.Upsert(ctx, &patterns[i]); err != nil {
			return nil, fmt.Errorf("store %s pattern: %w", patterns[i].PatternType, err)
		}
	}
	return patterns, nil
}

// DetectFromInteractions is the pure detection step
func DetectFromInteractions(userID string, interactions []core.Interaction, cfg DetectorConfig) []core.Pattern {
	var patterns []core.Pattern

	if p, ok := detectCanalPattern(interactions, cfg); ok {
		patterns = append(patterns, p)
	}
	if p, ok := detectTimingPattern(interactions, cfg); ok {
		patterns = append(patterns, p)
	}
	if p, ok := detectFollowUpPattern(interactions, cfg); ok {
		patterns = append(patterns, p)
	}
	if p, ok := detectSpeechPattern(interactions, cfg); ok {
		patterns = append(patterns, p)
	}

	// Filter by confidence threshold
	var filtered []core.Pattern
	for _, p := range patterns {
		if p.NivelConfianza < cfg.MinConfidence {
			continue
		}
		p.UserID = userID
		p.Estado = core.PatternHypothesis
		if p.SampleCount >= cfg.ConfirmSampleCount && p.NivelConfianza >= cfg.ConfirmConfidence {
			p.Estado = core.PatternConfirmed
		}
		filtered = append(filtered, p)
	}
	return filtered
}

func succeeded(in core.Interaction) bool {
	return in.Resultado.IsPositive() || in.Resultado == core.OutcomeClosed
}

// sampleConfidence grows with the number of observations
func sampleConfidence(n int) float64 {
	return float64(n) / float64(n+5)
}

// detectCanalPattern finds the channel with the best success rate
func detectCanalPattern(interactions []core.Interaction, cfg DetectorConfig) (core.Pattern, bool) {
	type canalStats struct {
		canal   string
		total   int
		success int
	}
	byCanal := make(map[string]*canalStats)
	for _, in := range interactions {
		if in.Canal == "" {
			continue
		}
		st := byCanal[in.Canal]
		if st == nil {
			st = &canalStats{canal: in.Canal}
			byCanal[in.Canal] = st
		}
		st.total++
		if succeeded(in) {
			st.success++
		}
	}

	var candidates []*canalStats
	for _, st := range byCanal {
		if st.total >= cfg.MinSampleCount {
			candidates = append(candidates, st)
		}
	}
	if len(candidates) == 0 {
		return core.Pattern{}, false
	}

	rate := func(st *canalStats) float64 { return float64(st.success) / float64(st.total) }
	sort.Slice(candidates, func(i, j int) bool {
		ri, rj := rate(candidates[i]), rate(candidates[j])
		if ri != rj {
			return ri > rj
		}
		if candidates[i].total != candidates[j].total {
			return candidates[i].total > candidates[j].total
		}
		return candidates[i].canal < candidates[j].canal
	})

	best := candidates[0]
	return core.Pattern{
		PatternType:    core.PatternCanal,
		Canal:          best.canal,
		TasaExito:      rate(best),
		NivelConfianza: sampleConfidence(best.total),
		SampleCount:    best.total,
		Descripcion:    fmt.Sprintf("%s convierte %.0f%% (%d contactos)", best.canal, rate(best)*100, best.total),
	}, true
}

// detectTimingPattern finds the weekday and hour with most successful outcomes
func detectTimingPattern(interactions []core.Interaction, cfg DetectorConfig) (core.Pattern, bool) {
	var byDay [7]int
	var byHour [24]int
	total := 0

	for _, in := range interactions {
		if !succeeded(in) {
			continue
		}
		byDay[in.Fecha.Weekday()]++
		byHour[in.Fecha.Hour()]++
		total++
	}
	if total < cfg.MinSampleCount {
		return core.Pattern{}, false
	}

	bestDay := 0
	for d := range byDay {
		if byDay[d] > byDay[bestDay] {
			bestDay = d
		}
	}
	bestHour := 0
	for h := range byHour {
		if byHour[h] > byHour[bestHour] {
			bestHour = h
		}
	}

	dia := core.WeekdayName(time.Weekday(bestDay))
	horario := fmt.Sprintf("%d:00-%d:00", bestHour, (bestHour+1)%24)
	return core.Pattern{
		PatternType:    core.PatternTiming,
		MejorDiaSemana: dia,
		MejorHorario:   horario,
		TasaExito:      float64(byHour[bestHour]) / float64(total),
		NivelConfianza: sampleConfidence(total),
		SampleCount:    total,
		Descripcion:    fmt.Sprintf("Mejores respuestas los %s entre %s", dia, horario),
	}, true
}

// detectFollowUpPattern measures how often follow-ups convert
func detectFollowUpPattern(interactions []core.Interaction, cfg DetectorConfig) (core.Pattern, bool) {
	total, success := 0, 0
	for _, in := range interactions {
		if in.Tipo != "seguimiento" {
			continue
		}
		total++
		if succeeded(in) {
			success++
		}
	}
	if total < cfg.MinSampleCount {
		return core.Pattern{}, false
	}

	rate := float64(success) / float64(total)
	return core.Pattern{
		PatternType:    core.PatternFollowUp,
		TasaExito:      rate,
		NivelConfianza: sampleConfidence(total),
		SampleCount:    total,
		Descripcion:    fmt.Sprintf("Follow-up convierte %.0f%% (%d seguimientos)", rate*100, total),
	}, true
}

// detectSpeechPattern finds the opener with the best success rate. The opener
// is the interaction note; notes differing only in case or spacing count as one.
func detectSpeechPattern(interactions []core.Interaction, cfg DetectorConfig) (core.Pattern, bool) {
	type speechStats struct {
		text    string
		total   int
		success int
	}
	bySpeech := make(map[string]*speechStats)
	for _, in := range interactions {
		if in.Tipo == "seguimiento" {
			continue
		}
		text := strings.Join(strings.Fields(in.Notas), " ")
		if text == "" {
			continue
		}
		key := strings.ToLower(text)
		st := bySpeech[key]
		if st == nil {
			st = &speechStats{text: text}
			bySpeech[key] = st
		}
		st.total++
		if succeeded(in) {
			st.success++
		}
	}

	var best *speechStats
	rate := func(st *speechStats) float64 { return float64(st.success) / float64(st.total) }
	for _, st := range bySpeech {
		if st.total < cfg.MinSampleCount || st.success == 0 {
			continue
		}
		if best == nil || rate(st) > rate(best) ||
			(rate(st) == rate(best) && (st.total > best.total || (st.total == best.total && st.text < best.text))) {
			best = st
		}
	}
	if best == nil {
		return core.Pattern{}, false
	}

	return core.Pattern{
		PatternType:    core.PatternSpeech,
		MejorSpeech:    best.text,
		TasaExito:      rate(best),
		NivelConfianza: sampleConfidence(best.total),
		SampleCount:    best.total,
		Descripcion:    fmt.Sprintf("Tu mejor apertura convierte %.0f%% (%d usos)", rate(best)*100, best.total),
	}, true
}
