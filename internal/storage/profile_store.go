package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/salescoach/salescoach/internal/core"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// ProfileStore handles commercial profile persistence
type ProfileStore struct {
	db *DB
}

// NewProfileStore creates a new profile store
func NewProfileStore(db *DB) *ProfileStore {
	return &ProfileStore{db: db}
}

const profileColumns = `user_id, nombre, negocio, icp_principal, revenue_actual, revenue_objetivo,
	tiempo_disponible, disc_profile, bloques_energia, mejor_momento_dia, created_at, updated_at`

// Upsert creates the profile or replaces every editable field
func (s *ProfileStore) Upsert(ctx context.Context, p *core.Profile) error {
	if p.UserID == "" {
		return fmt.Errorf("profile user_id: %w", core.ErrMissingRequired)
	}

	now := s.db.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	bloques, _ := json.Marshal(p.BloquesEnergia)

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
		    nombre = excluded.nombre,
		    negocio = excluded.negocio,
		    icp_principal = excluded.icp_principal,
		    revenue_actual = excluded.revenue_actual,
		    revenue_objetivo = excluded.revenue_objetivo,
		    tiempo_disponible = excluded.tiempo_disponible,
		    disc_profile = excluded.disc_profile,
		    bloques_energia = excluded.bloques_energia,
		    mejor_momento_dia = excluded.mejor_momento_dia,
		    updated_at = excluded.updated_at
	`,
		p.UserID, p.Nombre, p.Negocio, p.ICPPrincipal, p.RevenueActual, p.RevenueObjetivo,
		p.TiempoDisponible, p.DiscProfile, string(bloques), p.MejorMomentoDia,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// Get returns the profile for a user
func (s *ProfileStore) Get(ctx context.Context, userID string) (*core.Profile, error) {
	row := s.db.conn.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID)

	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Exists reports whether a profile row exists
func (s *ProfileStore) Exists(ctx context.Context, userID string) (bool, error) {
	var n int
	err := s.db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles WHERE user_id = ?`, userID).Scan(&n)
	return n > 0, err
}

// UserIDs lists every user with a profile
func (s *ProfileStore) UserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT user_id FROM profiles ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanProfile(row rowScanner) (*core.Profile, error) {
	var p core.Profile
	var bloques string

	err := row.Scan(
		&p.UserID, &p.Nombre, &p.Negocio, &p.ICPPrincipal, &p.RevenueActual, &p.RevenueObjetivo,
		&p.TiempoDisponible, &p.DiscProfile, &bloques, &p.MejorMomentoDia, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// A malformed blob leaves the blocks empty; readers fall back to defaults.
	json.Unmarshal([]byte(bloques), &p.BloquesEnergia)
	return &p, nil
}
