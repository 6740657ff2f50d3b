package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/salescoach/salescoach/internal/core"
)

// EmotionalStore handles emotional check-in persistence
type EmotionalStore struct {
	db *DB
}

// NewEmotionalStore creates a new emotional state store
func NewEmotionalStore(db *DB) *EmotionalStore {
	return &EmotionalStore{db: db}
}

// Create records a check-in. Scores must be within 0-10.
func (s *EmotionalStore) Create(ctx context.Context, e *core.EmotionalState) error {
	if e.UserID == "" {
		return fmt.Errorf("emotional state user_id: %w", core.ErrMissingRequired)
	}
	for name, v := range map[string]float64{
		"energia": e.Energia, "motivacion": e.Motivacion, "estres": e.Estres, "confianza": e.Confianza,
	} {
		if v < 0 || v > 10 {
			return fmt.Errorf("%s %.1f out of range: %w", name, v, core.ErrInvalidInput)
		}
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Sentimiento == "" {
		e.Sentimiento = "neutral"
	}
	now := s.db.Now()
	if e.Fecha.IsZero() {
		e.Fecha = now
	}
	e.Fecha = e.Fecha.UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO emotional_states (id, user_id, fecha, sentimiento, energia, motivacion, estres, confianza, que_paso, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.UserID, e.Fecha, e.Sentimiento, e.Energia, e.Motivacion, e.Estres, e.Confianza, e.QuePaso, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert emotional state: %w", err)
	}
	return nil
}

// Recent returns up to limit check-ins dated on or after since, newest first.
// A zero since means no lower bound.
func (s *EmotionalStore) Recent(ctx context.Context, userID string, since time.Time, limit int) ([]core.EmotionalState, error) {
	query := `SELECT id, user_id, fecha, sentimiento, energia, motivacion, estres, confianza, que_paso, created_at
		FROM emotional_states WHERE user_id = ?`
	args := []interface{}{userID}

	if !since.IsZero() {
		query += " AND fecha >= ?"
		args = append(args, since.UTC())
	}
	query += " ORDER BY created_at DESC, fecha DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query emotional states: %w", err)
	}
	defer rows.Close()

	var out []core.EmotionalState
	for rows.Next() {
		var e core.EmotionalState
		if err := rows.Scan(&e.ID, &e.UserID, &e.Fecha, &e.Sentimiento, &e.Energia, &e.Motivacion,
			&e.Estres, &e.Confianza, &e.QuePaso, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan emotional state: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
