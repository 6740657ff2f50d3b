package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/salescoach/salescoach/internal/core"
)

// GoalStore handles goal persistence
type GoalStore struct {
	db *DB
}

// NewGoalStore creates a new goal store
func NewGoalStore(db *DB) *GoalStore {
	return &GoalStore{db: db}
}

const goalColumns = `id, user_id, tipo, valor_objetivo, valor_actual, periodo, estado, created_at, updated_at`

// Create inserts a new goal
func (s *GoalStore) Create(ctx context.Context, g *core.Goal) error {
	if g.UserID == "" || g.Tipo == "" {
		return fmt.Errorf("goal user_id and tipo: %w", core.ErrMissingRequired)
	}
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if g.Estado == "" {
		g.Estado = core.GoalActive
	}
	if g.Periodo == "" {
		g.Periodo = s.db.Now().Format("2006-01")
	}
	now := s.db.Now()
	g.CreatedAt = now
	g.UpdatedAt = now

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, g.ID, g.UserID, g.Tipo, g.ValorObjetivo, g.ValorActual, g.Periodo, g.Estado, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

// Get returns a goal by ID
func (s *GoalStore) Get(ctx context.Context, id string) (*core.Goal, error) {
	row := s.db.conn.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrRecordNotFound
	}
	return g, err
}

// Update saves progress and status of a goal
func (s *GoalStore) Update(ctx context.Context, g *core.Goal) error {
	g.UpdatedAt = s.db.Now()
	res, err := s.db.conn.ExecContext(ctx, `
		UPDATE goals SET valor_objetivo = ?, valor_actual = ?, periodo = ?, estado = ?, updated_at = ?
		WHERE id = ?
	`, g.ValorObjetivo, g.ValorActual, g.Periodo, g.Estado, g.UpdatedAt, g.ID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrRecordNotFound
	}
	return nil
}

// Active returns the active goals of a user
func (s *GoalStore) Active(ctx context.Context, userID string) ([]core.Goal, error) {
	return s.query(ctx, `SELECT `+goalColumns+` FROM goals WHERE user_id = ? AND estado = ? ORDER BY created_at`,
		userID, core.GoalActive)
}

// List returns every goal of a user, newest first
func (s *GoalStore) List(ctx context.Context, userID string) ([]core.Goal, error) {
	return s.query(ctx, `SELECT `+goalColumns+` FROM goals WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

// UpsertRevenueGoal keeps a single active revenue_total goal in sync with the wizard answers
func (s *GoalStore) UpsertRevenueGoal(ctx context.Context, userID string, objetivo, actual float64) (*core.Goal, error) {
	active, err := s.Active(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range active {
		if active[i].Tipo == core.GoalRevenueTotal {
			g := active[i]
			g.ValorObjetivo = objetivo
			g.ValorActual = actual
			if err := s.Update(ctx, &g); err != nil {
				return nil, err
			}
			return &g, nil
		}
	}

	g := &core.Goal{
		UserID:        userID,
		Tipo:          core.GoalRevenueTotal,
		ValorObjetivo: objetivo,
		ValorActual:   actual,
	}
	if err := s.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *GoalStore) query(ctx context.Context, query string, args ...interface{}) ([]core.Goal, error) {
	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func scanGoal(row rowScanner) (*core.Goal, error) {
	var g core.Goal
	err := row.Scan(&g.ID, &g.UserID, &g.Tipo, &g.ValorObjetivo, &g.ValorActual, &g.Periodo, &g.Estado,
		&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
