package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/salescoach/salescoach/internal/core"
)

//go:embed seed/reference.yaml
var referenceSeed []byte

// ReferenceData is the shape of the reference seed file
type ReferenceData struct {
	SupportResources    []core.SupportResource    `yaml:"support_resources"`
	MotivationalPhrases []core.MotivationalPhrase `yaml:"motivational_phrases"`
}

// ReferenceStore reads the small reference tables used by coaching plans
type ReferenceStore struct {
	db *DB
}

// NewReferenceStore creates a new reference store
func NewReferenceStore(db *DB) *ReferenceStore {
	return &ReferenceStore{db: db}
}

// ParseReferenceData decodes a reference YAML document
func ParseReferenceData(data []byte) (*ReferenceData, error) {
	var ref ReferenceData
	if err := yaml.Unmarshal(data, &ref); err != nil {
		return nil, fmt.Errorf("parse reference data: %w", err)
	}
	return &ref, nil
}

// Seed loads the embedded reference data. Existing rows are left untouched.
func (s *ReferenceStore) Seed(ctx context.Context) (int, error) {
	ref, err := ParseReferenceData(referenceSeed)
	if err != nil {
		return 0, err
	}
	return s.Load(ctx, ref)
}

// Load inserts reference rows that do not exist yet and returns how many were added
func (s *ReferenceStore) Load(ctx context.Context, ref *ReferenceData) (int, error) {
	added := 0
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, r := range ref.SupportResources {
			res, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO support_resources (id, categoria, titulo, descripcion, url)
				VALUES (?, ?, ?, ?, ?)
			`, r.ID, r.Categoria, r.Titulo, r.Descripcion, r.URL)
			if err != nil {
				return fmt.Errorf("seed resource %s: %w", r.ID, err)
			}
			n, _ := res.RowsAffected()
			added += int(n)
		}
		for _, f := range ref.MotivationalPhrases {
			res, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO motivational_phrases (id, categoria, frase, autor)
				VALUES (?, ?, ?, ?)
			`, f.ID, f.Categoria, f.Frase, f.Autor)
			if err != nil {
				return fmt.Errorf("seed phrase %s: %w", f.ID, err)
			}
			n, _ := res.RowsAffected()
			added += int(n)
		}
		return nil
	})
	return added, err
}

// SupportResources returns up to limit resources in any of the categories
func (s *ReferenceStore) SupportResources(ctx context.Context, categories []string, limit int) ([]core.SupportResource, error) {
	query := `SELECT id, categoria, titulo, descripcion, url FROM support_resources`
	var args []interface{}
	if len(categories) > 0 {
		query += " WHERE categoria IN (?" + strings.Repeat(", ?", len(categories)-1) + ")"
		for _, c := range categories {
			args = append(args, c)
		}
	}
	query += " ORDER BY id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query support resources: %w", err)
	}
	defer rows.Close()

	var out []core.SupportResource
	for rows.Next() {
		var r core.SupportResource
		if err := rows.Scan(&r.ID, &r.Categoria, &r.Titulo, &r.Descripcion, &r.URL); err != nil {
			return nil, fmt.Errorf("scan support resource: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MotivationalPhrases returns up to limit phrases of a category
func (s *ReferenceStore) MotivationalPhrases(ctx context.Context, category string, limit int) ([]core.MotivationalPhrase, error) {
	query := `SELECT id, categoria, frase, autor FROM motivational_phrases WHERE categoria = ? ORDER BY id`
	args := []interface{}{category}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query motivational phrases: %w", err)
	}
	defer rows.Close()

	var out []core.MotivationalPhrase
	for rows.Next() {
		var f core.MotivationalPhrase
		if err := rows.Scan(&f.ID, &f.Categoria, &f.Frase, &f.Autor); err != nil {
			return nil, fmt.Errorf("scan motivational phrase: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
