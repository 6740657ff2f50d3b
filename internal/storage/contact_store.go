package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/salescoach/salescoach/internal/core"
)

// ContactStore handles pipeline contact persistence
type ContactStore struct {
	db *DB
}

// NewContactStore creates a new contact store
func NewContactStore(db *DB) *ContactStore {
	return &ContactStore{db: db}
}

const contactColumns = `id, user_id, nombre, empresa, email, telefono, tipo, stage, temperatura,
	stage_fecha_entrada, ultima_interaccion, valor_estimado, notas, created_at, updated_at`

// Create inserts a new contact
func (s *ContactStore) Create(ctx context.Context, c *core.Contact) error {
	if c.UserID == "" || c.Nombre == "" {
		return fmt.Errorf("contact user_id and nombre: %w", core.ErrMissingRequired)
	}
	if c.Temperatura < 0 || c.Temperatura > 100 {
		return fmt.Errorf("temperatura %d out of range: %w", c.Temperatura, core.ErrInvalidInput)
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Tipo == "" {
		c.Tipo = core.ContactLead
	}
	if c.Stage == "" {
		c.Stage = core.StageProspecto
	}
	now := s.db.Now()
	if c.StageFechaEntrada.IsZero() {
		c.StageFechaEntrada = now
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO contacts (`+contactColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.UserID, c.Nombre, c.Empresa, c.Email, c.Telefono, c.Tipo, c.Stage, c.Temperatura,
		c.StageFechaEntrada.UTC(), nullTime(c.UltimaInteraccion), c.ValorEstimado, c.Notas,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

// Get returns a contact by ID
func (s *ContactStore) Get(ctx context.Context, id string) (*core.Contact, error) {
	row := s.db.conn.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrContactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

// Update saves a contact. Moving to a new stage resets the stage entry date.
func (s *ContactStore) Update(ctx context.Context, c *core.Contact) error {
	current, err := s.Get(ctx, c.ID)
	if err != nil {
		return err
	}
	if c.Stage != current.Stage {
		c.StageFechaEntrada = s.db.Now()
	} else {
		c.StageFechaEntrada = current.StageFechaEntrada
	}
	c.UpdatedAt = s.db.Now()

	_, err = s.db.conn.ExecContext(ctx, `
		UPDATE contacts SET
		    nombre = ?, empresa = ?, email = ?, telefono = ?, tipo = ?, stage = ?,
		    temperatura = ?, stage_fecha_entrada = ?, valor_estimado = ?, notas = ?, updated_at = ?
		WHERE id = ?
	`,
		c.Nombre, c.Empresa, c.Email, c.Telefono, c.Tipo, c.Stage,
		c.Temperatura, c.StageFechaEntrada.UTC(), c.ValorEstimado, c.Notas, c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return nil
}

// Delete removes a contact owned by userID
func (s *ContactStore) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM contacts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrContactNotFound
	}
	return nil
}

// List returns a user's contacts narrowed by the filter
func (s *ContactStore) List(ctx context.Context, userID string, f core.ContactFilter) ([]core.Contact, error) {
	var where []string
	args := []interface{}{userID}
	where = append(where, "user_id = ?")

	if f.ExcludeArchived {
		where = append(where, "tipo != ?")
		args = append(args, core.ContactArchived)
	}
	if f.Stage != "" {
		where = append(where, "stage = ?")
		args = append(args, f.Stage)
	}
	if f.MinTemperature != nil {
		where = append(where, "temperatura >= ?")
		args = append(args, *f.MinTemperature)
	}
	if f.MaxTemperature != nil {
		where = append(where, "temperatura < ?")
		args = append(args, *f.MaxTemperature)
	}

	query := `SELECT ` + contactColumns + ` FROM contacts WHERE ` + strings.Join(where, " AND ")

	switch f.OrderBy {
	case core.OrderByTemperature:
		query += " ORDER BY temperatura DESC, nombre ASC"
	case core.OrderByLastInteraction:
		query += " ORDER BY ultima_interaccion IS NULL, ultima_interaccion DESC, created_at DESC"
	case core.OrderByStageEntry:
		query += " ORDER BY stage_fecha_entrada ASC"
	default:
		query += " ORDER BY created_at DESC"
	}

	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []core.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

func scanContact(row rowScanner) (*core.Contact, error) {
	var c core.Contact
	var ultima sql.NullTime

	err := row.Scan(
		&c.ID, &c.UserID, &c.Nombre, &c.Empresa, &c.Email, &c.Telefono, &c.Tipo, &c.Stage, &c.Temperatura,
		&c.StageFechaEntrada, &ultima, &c.ValorEstimado, &c.Notas, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if ultima.Valid {
		t := ultima.Time
		c.UltimaInteraccion = &t
	}
	return &c, nil
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
