package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/salescoach/salescoach/internal/core"
)

// ContextStore maintains the derived per-user current context
type ContextStore struct {
	db           *DB
	profiles     *ProfileStore
	goals        *GoalStore
	interactions *InteractionStore
}

// NewContextStore creates a new current context store
func NewContextStore(db *DB) *ContextStore {
	return &ContextStore{
		db:           db,
		profiles:     NewProfileStore(db),
		goals:        NewGoalStore(db),
		interactions: NewInteractionStore(db),
	}
}

const contextColumns = `user_id, objetivo_mes_progress, proyeccion_mes, gap, velocidad_actual, velocidad_necesaria,
	dias_sin_actividad, momentum, racha_actual, mejor_racha_mes, cierres_ultimos_30d, cierres_vs_mes_anterior, updated_at`

// Get returns the stored context, or core.ErrContextNotFound
func (s *ContextStore) Get(ctx context.Context, userID string) (*core.CurrentContext, error) {
	var c core.CurrentContext
	err := s.db.conn.QueryRowContext(ctx, `SELECT `+contextColumns+` FROM current_context WHERE user_id = ?`, userID).Scan(
		&c.UserID, &c.ObjetivoMesProgress, &c.ProyeccionMes, &c.Gap, &c.VelocidadActual, &c.VelocidadNecesaria,
		&c.DiasSinActividad, &c.Momentum, &c.RachaActual, &c.MejorRachaMes, &c.CierresUltimos30d,
		&c.CierresVsMesAnterior, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrContextNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get current context: %w", err)
	}
	return &c, nil
}

// Recompute derives the context from goals and interactions and stores it
func (s *ContextStore) Recompute(ctx context.Context, userID string) (*core.CurrentContext, error) {
	now := s.db.Now()

	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	goals, err := s.goals.Active(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.interactions.Since(ctx, userID, now.AddDate(0, 0, -60))
	if err != nil {
		return nil, err
	}
	last, err := s.interactions.Last(ctx, userID)
	if err != nil {
		return nil, err
	}

	in := contextInputs{
		userID:          userID,
		profileCreated:  profile.CreatedAt,
		lastInteraction: last,
		interactions:    recent,
	}
	for i := range goals {
		if goals[i].Tipo == core.GoalRevenueTotal {
			in.revenueGoal = &goals[i]
			break
		}
	}

	c := computeCurrentContext(in, now)

	_, err = s.db.conn.ExecContext(ctx, `
		INSERT INTO current_context (`+contextColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
		    objetivo_mes_progress = excluded.objetivo_mes_progress,
		    proyeccion_mes = excluded.proyeccion_mes,
		    gap = excluded.gap,
		    velocidad_actual = excluded.velocidad_actual,
		    velocidad_necesaria = excluded.velocidad_necesaria,
		    dias_sin_actividad = excluded.dias_sin_actividad,
		    momentum = excluded.momentum,
		    racha_actual = excluded.racha_actual,
		    mejor_racha_mes = excluded.mejor_racha_mes,
		    cierres_ultimos_30d = excluded.cierres_ultimos_30d,
		    cierres_vs_mes_anterior = excluded.cierres_vs_mes_anterior,
		    updated_at = excluded.updated_at
	`,
		c.UserID, c.ObjetivoMesProgress, c.ProyeccionMes, c.Gap, c.VelocidadActual, c.VelocidadNecesaria,
		c.DiasSinActividad, c.Momentum, c.RachaActual, c.MejorRachaMes, c.CierresUltimos30d,
		c.CierresVsMesAnterior, c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("store current context: %w", err)
	}
	return &c, nil
}

type contextInputs struct {
	userID          string
	profileCreated  time.Time
	revenueGoal     *core.Goal
	lastInteraction *time.Time
	interactions    []core.Interaction // last 60 days, any order
}

// daysInMonth returns the number of days of t's month
func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

func daysBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}

func computeCurrentContext(in contextInputs, now time.Time) core.CurrentContext {
	c := core.CurrentContext{
		UserID:    in.userID,
		Momentum:  core.MomentumStable,
		UpdatedAt: now,
	}

	// Progress against the monthly revenue goal
	dim := daysInMonth(now)
	day := now.Day()
	remaining := dim - day
	if in.revenueGoal != nil {
		objetivo := in.revenueGoal.ValorObjetivo
		actual := in.revenueGoal.ValorActual
		if objetivo > 0 {
			c.ObjetivoMesProgress = actual / objetivo * 100
		}
		c.VelocidadActual = actual / float64(day)
		c.ProyeccionMes = c.VelocidadActual * float64(dim)
		c.Gap = math.Max(objetivo-actual, 0)
		c.VelocidadNecesaria = c.Gap / float64(max(remaining, 1))
	}

	// Inactivity
	if in.lastInteraction != nil {
		c.DiasSinActividad = daysBetween(*in.lastInteraction, now)
	} else if !in.profileCreated.IsZero() {
		c.DiasSinActividad = daysBetween(in.profileCreated, now)
	}

	// Closes this 30-day window vs the previous one
	cut30 := now.AddDate(0, 0, -30)
	cut60 := now.AddDate(0, 0, -60)
	var prev int
	for _, it := range in.interactions {
		if it.Resultado != core.OutcomeClosed {
			continue
		}
		switch {
		case !it.Fecha.Before(cut30):
			c.CierresUltimos30d++
		case !it.Fecha.Before(cut60):
			prev++
		}
	}
	switch {
	case prev > 0:
		c.CierresVsMesAnterior = float64(c.CierresUltimos30d-prev) / float64(prev)
	case c.CierresUltimos30d > 0:
		c.CierresVsMesAnterior = 1
	}

	switch {
	case len(in.interactions) == 0:
		c.Momentum = core.MomentumStarting
	case c.CierresVsMesAnterior > 0.1:
		c.Momentum = core.MomentumAccelerating
	case c.CierresVsMesAnterior < -0.1:
		c.Momentum = core.MomentumDeclining
	}

	c.RachaActual, c.MejorRachaMes = streaks(in.interactions, now)
	return c
}

// streaks counts consecutive days with at least one positive interaction.
// The current streak may end today or yesterday; the best streak is within this month.
func streaks(interactions []core.Interaction, now time.Time) (current, bestThisMonth int) {
	dayKey := func(t time.Time) time.Time {
		t = t.In(now.Location())
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
	}

	positive := make(map[time.Time]bool)
	for _, it := range interactions {
		if it.Resultado.IsPositive() || it.Resultado == core.OutcomeClosed {
			positive[dayKey(it.Fecha)] = true
		}
	}

	today := dayKey(now)
	start := today
	if !positive[start] {
		start = start.AddDate(0, 0, -1)
	}
	for d := start; positive[d]; d = d.AddDate(0, 0, -1) {
		current++
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	run := 0
	for d := monthStart; !d.After(today); d = d.AddDate(0, 0, 1) {
		if positive[d] {
			run++
			bestThisMonth = max(bestThisMonth, run)
		} else {
			run = 0
		}
	}
	return current, bestThisMonth
}
