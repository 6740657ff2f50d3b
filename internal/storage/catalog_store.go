package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/salescoach/salescoach/internal/core"
)

// ServiceStore handles the user's service catalog
type ServiceStore struct {
	db *DB
}

// NewServiceStore creates a new service store
func NewServiceStore(db *DB) *ServiceStore {
	return &ServiceStore{db: db}
}

const serviceColumns = `id, user_id, nombre, descripcion, precio, activo, orden, created_at, updated_at`

// Create inserts a service at the end of the catalog unless an order is given
func (s *ServiceStore) Create(ctx context.Context, svc *core.Service) error {
	if svc.UserID == "" || svc.Nombre == "" {
		return fmt.Errorf("service user_id and nombre: %w", core.ErrMissingRequired)
	}
	if svc.Precio < 0 {
		return fmt.Errorf("precio %.2f: %w", svc.Precio, core.ErrInvalidInput)
	}
	if svc.ID == "" {
		svc.ID = uuid.New().String()
	}
	if svc.Orden == 0 {
		var maxOrden sql.NullInt64
		if err := s.db.conn.QueryRowContext(ctx, `SELECT MAX(orden) FROM services WHERE user_id = ?`, svc.UserID).Scan(&maxOrden); err != nil {
			return fmt.Errorf("next service order: %w", err)
		}
		svc.Orden = int(maxOrden.Int64) + 1
	}
	svc.Activo = true
	now := s.db.Now()
	svc.CreatedAt = now
	svc.UpdatedAt = now

	_, err := s.db.conn.ExecContext(ctx, `INSERT INTO services (`+serviceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		svc.ID, svc.UserID, svc.Nombre, svc.Descripcion, svc.Precio, svc.Activo, svc.Orden, svc.CreatedAt, svc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert service: %w", err)
	}
	return nil
}

// Update saves name, description, price and order of a service
func (s *ServiceStore) Update(ctx context.Context, svc *core.Service) error {
	svc.UpdatedAt = s.db.Now()
	res, err := s.db.conn.ExecContext(ctx, `
		UPDATE services SET nombre = ?, descripcion = ?, precio = ?, orden = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND activo = 1
	`, svc.Nombre, svc.Descripcion, svc.Precio, svc.Orden, svc.UpdatedAt, svc.ID, svc.UserID)
	if err != nil {
		return fmt.Errorf("update service: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrRecordNotFound
	}
	return nil
}

// Deactivate soft-deletes a service
func (s *ServiceStore) Deactivate(ctx context.Context, userID, id string) error {
	res, err := s.db.conn.ExecContext(ctx, `UPDATE services SET activo = 0, updated_at = ? WHERE id = ? AND user_id = ?`,
		s.db.Now(), id, userID)
	if err != nil {
		return fmt.Errorf("deactivate service: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrRecordNotFound
	}
	return nil
}

// Get returns one service
func (s *ServiceStore) Get(ctx context.Context, id string) (*core.Service, error) {
	var svc core.Service
	err := s.db.conn.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = ?`, id).Scan(
		&svc.ID, &svc.UserID, &svc.Nombre, &svc.Descripcion, &svc.Precio, &svc.Activo, &svc.Orden,
		&svc.CreatedAt, &svc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}
	return &svc, nil
}

// Active lists active services in catalog order
func (s *ServiceStore) Active(ctx context.Context, userID string) ([]core.Service, error) {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT `+serviceColumns+` FROM services
		WHERE user_id = ? AND activo = 1 ORDER BY orden ASC, created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query services: %w", err)
	}
	defer rows.Close()

	var out []core.Service
	for rows.Next() {
		var svc core.Service
		if err := rows.Scan(&svc.ID, &svc.UserID, &svc.Nombre, &svc.Descripcion, &svc.Precio, &svc.Activo,
			&svc.Orden, &svc.CreatedAt, &svc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

// ICPStore handles ideal customer profiles
type ICPStore struct {
	db *DB
}

// NewICPStore creates a new ICP store
func NewICPStore(db *DB) *ICPStore {
	return &ICPStore{db: db}
}

const icpColumns = `id, user_id, nombre, descripcion, industria, tamano, activo, created_at, updated_at`

// Create inserts an ICP
func (s *ICPStore) Create(ctx context.Context, icp *core.ICP) error {
	if icp.UserID == "" || icp.Nombre == "" {
		return fmt.Errorf("icp user_id and nombre: %w", core.ErrMissingRequired)
	}
	if icp.ID == "" {
		icp.ID = uuid.New().String()
	}
	icp.Activo = true
	now := s.db.Now()
	icp.CreatedAt = now
	icp.UpdatedAt = now

	_, err := s.db.conn.ExecContext(ctx, `INSERT INTO icps (`+icpColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		icp.ID, icp.UserID, icp.Nombre, icp.Descripcion, icp.Industria, icp.Tamano, icp.Activo, icp.CreatedAt, icp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert icp: %w", err)
	}
	return nil
}

// Update saves an ICP
func (s *ICPStore) Update(ctx context.Context, icp *core.ICP) error {
	icp.UpdatedAt = s.db.Now()
	res, err := s.db.conn.ExecContext(ctx, `
		UPDATE icps SET nombre = ?, descripcion = ?, industria = ?, tamano = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND activo = 1
	`, icp.Nombre, icp.Descripcion, icp.Industria, icp.Tamano, icp.UpdatedAt, icp.ID, icp.UserID)
	if err != nil {
		return fmt.Errorf("update icp: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrRecordNotFound
	}
	return nil
}

// Deactivate soft-deletes an ICP
func (s *ICPStore) Deactivate(ctx context.Context, userID, id string) error {
	res, err := s.db.conn.ExecContext(ctx, `UPDATE icps SET activo = 0, updated_at = ? WHERE id = ? AND user_id = ?`,
		s.db.Now(), id, userID)
	if err != nil {
		return fmt.Errorf("deactivate icp: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrRecordNotFound
	}
	return nil
}

// Active lists active ICPs, oldest first
func (s *ICPStore) Active(ctx context.Context, userID string) ([]core.ICP, error) {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT `+icpColumns+` FROM icps
		WHERE user_id = ? AND activo = 1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query icps: %w", err)
	}
	defer rows.Close()

	var out []core.ICP
	for rows.Next() {
		var icp core.ICP
		if err := rows.Scan(&icp.ID, &icp.UserID, &icp.Nombre, &icp.Descripcion, &icp.Industria, &icp.Tamano,
			&icp.Activo, &icp.CreatedAt, &icp.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan icp: %w", err)
		}
		out = append(out, icp)
	}
	return out, rows.Err()
}
