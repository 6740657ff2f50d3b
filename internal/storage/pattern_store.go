package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/salescoach/salescoach/internal/core"
)

// PatternStore handles learned "what works" patterns
type PatternStore struct {
	db *DB
}

// NewPatternStore creates a new pattern store
func NewPatternStore(db *DB) *PatternStore {
	return &PatternStore{db: db}
}

const patternColumns = `id, user_id, pattern_type, estado, nivel_confianza, mejor_horario, mejor_dia_semana,
	canal, tasa_exito, mejor_speech, descripcion, sample_count, created_at, updated_at`

// Upsert stores a pattern. There is one pattern per user and type.
func (s *PatternStore) Upsert(ctx context.Context, p *core.Pattern) error {
	if p.UserID == "" || p.PatternType == "" {
		return fmt.Errorf("pattern user_id and type: %w", core.ErrMissingRequired)
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Estado == "" {
		p.Estado = core.PatternHypothesis
	}
	now := s.db.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO learned_patterns (`+patternColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, pattern_type) DO UPDATE SET
		    estado = excluded.estado,
		    nivel_confianza = excluded.nivel_confianza,
		    mejor_horario = excluded.mejor_horario,
		    mejor_dia_semana = excluded.mejor_dia_semana,
		    canal = excluded.canal,
		    tasa_exito = excluded.tasa_exito,
		    mejor_speech = excluded.mejor_speech,
		    descripcion = excluded.descripcion,
		    sample_count = excluded.sample_count,
		    updated_at = excluded.updated_at
	`,
		p.ID, p.UserID, p.PatternType, p.Estado, p.NivelConfianza, p.MejorHorario, p.MejorDiaSemana,
		p.Canal, p.TasaExito, p.MejorSpeech, p.Descripcion, p.SampleCount, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert pattern: %w", err)
	}
	return nil
}

// Confirmed returns confirmed patterns, most confident first
func (s *PatternStore) Confirmed(ctx context.Context, userID string) ([]core.Pattern, error) {
	return s.query(ctx, `SELECT `+patternColumns+` FROM learned_patterns
		WHERE user_id = ? AND estado = ? ORDER BY nivel_confianza DESC, pattern_type ASC`,
		userID, core.PatternConfirmed)
}

// List returns every pattern of a user, most confident first
func (s *PatternStore) List(ctx context.Context, userID string) ([]core.Pattern, error) {
	return s.query(ctx, `SELECT `+patternColumns+` FROM learned_patterns
		WHERE user_id = ? ORDER BY nivel_confianza DESC, pattern_type ASC`, userID)
}

func (s *PatternStore) query(ctx context.Context, query string, args ...interface{}) ([]core.Pattern, error) {
	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}
	defer rows.Close()

	var out []core.Pattern
	for rows.Next() {
		var p core.Pattern
		if err := rows.Scan(&p.ID, &p.UserID, &p.PatternType, &p.Estado, &p.NivelConfianza, &p.MejorHorario,
			&p.MejorDiaSemana, &p.Canal, &p.TasaExito, &p.MejorSpeech, &p.Descripcion, &p.SampleCount,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
