package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/salescoach/salescoach/internal/core"
)

// InteractionStore handles interaction persistence
type InteractionStore struct {
	db *DB
}

// NewInteractionStore creates a new interaction store
func NewInteractionStore(db *DB) *InteractionStore {
	return &InteractionStore{db: db}
}

const interactionColumns = `id, user_id, contact_id, tipo, canal, resultado, valor, fecha, notas, created_at`

// Create records an interaction and bumps the contact's last interaction date
func (s *InteractionStore) Create(ctx context.Context, in *core.Interaction) error {
	if in.UserID == "" {
		return fmt.Errorf("interaction user_id: %w", core.ErrMissingRequired)
	}
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	if in.Resultado == "" {
		in.Resultado = core.OutcomeNeutral
	}
	now := s.db.Now()
	if in.Fecha.IsZero() {
		in.Fecha = now
	}
	in.Fecha = in.Fecha.UTC()
	in.CreatedAt = now

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO interactions (`+interactionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, in.ID, in.UserID, in.ContactID, in.Tipo, in.Canal, in.Resultado, in.Valor, in.Fecha, in.Notas, in.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert interaction: %w", err)
		}

		if in.ContactID == "" {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE contacts SET ultima_interaccion = ?, updated_at = ?
			WHERE id = ? AND user_id = ? AND (ultima_interaccion IS NULL OR ultima_interaccion < ?)
		`, in.Fecha, now, in.ContactID, in.UserID, in.Fecha)
		if err != nil {
			return fmt.Errorf("touch contact: %w", err)
		}
		return nil
	})
}

// Since returns a user's interactions on or after since, newest first
func (s *InteractionStore) Since(ctx context.Context, userID string, since time.Time) ([]core.Interaction, error) {
	return s.query(ctx, `SELECT `+interactionColumns+` FROM interactions
		WHERE user_id = ? AND fecha >= ? ORDER BY fecha DESC, created_at DESC`, userID, since.UTC())
}

// ClosesSince returns closed-deal interactions on or after since, newest first
func (s *InteractionStore) ClosesSince(ctx context.Context, userID string, since time.Time) ([]core.Interaction, error) {
	return s.query(ctx, `SELECT `+interactionColumns+` FROM interactions
		WHERE user_id = ? AND resultado = ? AND fecha >= ? ORDER BY fecha DESC`, userID, core.OutcomeClosed, since.UTC())
}

// ForContact returns the history of one contact, newest first
func (s *InteractionStore) ForContact(ctx context.Context, userID, contactID string) ([]core.Interaction, error) {
	return s.query(ctx, `SELECT `+interactionColumns+` FROM interactions
		WHERE user_id = ? AND contact_id = ? ORDER BY fecha DESC`, userID, contactID)
}

// Last returns the most recent interaction date, or nil when there is none
func (s *InteractionStore) Last(ctx context.Context, userID string) (*time.Time, error) {
	var fecha time.Time
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT fecha FROM interactions WHERE user_id = ? ORDER BY fecha DESC LIMIT 1
	`, userID).Scan(&fecha)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last interaction: %w", err)
	}
	return &fecha, nil
}

func (s *InteractionStore) query(ctx context.Context, query string, args ...interface{}) ([]core.Interaction, error) {
	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var out []core.Interaction
	for rows.Next() {
		var in core.Interaction
		if err := rows.Scan(&in.ID, &in.UserID, &in.ContactID, &in.Tipo, &in.Canal, &in.Resultado,
			&in.Valor, &in.Fecha, &in.Notas, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
