// Package ledger provides a cryptographically verifiable, append-only audit ledger.
// Every entry is hash-chained to the previous entry, making any tampering detectable.
package ledger

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// GenesisHash is the prev_hash of the first entry
const GenesisHash = "GENESIS:0000000000000000000000000000000000000000000000000000000000000000"

// Store manages the append-only audit ledger
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewStore creates a new ledger store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// SetClock overrides the time source used for new entries
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Entry represents an immutable audit log entry
type Entry struct {
	Seq        int64     `json:"seq"`
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Action     string    `json:"action"`      // "coach.decision", "profile.updated", ...
	Actor      string    `json:"actor"`       // "user", "coach", "system"
	EntityType string    `json:"entity_type"` // "user", "contact", "profile", ...
	EntityID   string    `json:"entity_id"`
	Details    string    `json:"details"`   // JSON blob
	PrevHash   string    `json:"prev_hash"` // Hash of previous entry (chain)
	Hash       string    `json:"hash"`      // Hash of this entry
}

// ActionType constants
const (
	ActionCoachDecision    = "coach.decision"
	ActionProfileUpdated   = "profile.updated"
	ActionContactCreated   = "contact.created"
	ActionContactDeleted   = "contact.deleted"
	ActionEmotionalCheckIn = "emotional.checkin"
	ActionPatternsLearned  = "learning.patterns"
)

// ActorType constants
const (
	ActorUser   = "user"
	ActorCoach  = "coach"
	ActorSystem = "system"
)

const entryColumns = `seq, id, timestamp, action, actor, entity_type, entity_id, details, prev_hash, hash`

// Append adds a new entry to the ledger with cryptographic hash chaining.
// This is the ONLY way to add entries - ensuring append-only behavior.
func (s *Store) Append(ctx context.Context, action, actor, entityType, entityID string, details interface{}) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var detailsJSON string
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return nil, fmt.Errorf("marshal details: %w", err)
		}
		detailsJSON = string(data)
	}

	prevHash, err := s.lastHash(ctx)
	if err != nil {
		return nil, fmt.Errorf("get last hash: %w", err)
	}

	entry := &Entry{
		ID:         uuid.New().String(),
		Timestamp:  s.now().UTC(),
		Action:     action,
		Actor:      actor,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    detailsJSON,
		PrevHash:   prevHash,
	}
	entry.Hash = computeHash(entry)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger (id, timestamp, action, actor, entity_type, entity_id, details, prev_hash, hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, formatTime(entry.Timestamp), entry.Action, entry.Actor, entry.EntityType, entry.EntityID,
		entry.Details, entry.PrevHash, entry.Hash)
	if err != nil {
		return nil, fmt.Errorf("insert ledger entry: %w", err)
	}
	entry.Seq, _ = res.LastInsertId()

	return entry, nil
}

// lastHash returns the hash of the most recent entry
func (s *Store) lastHash(ctx context.Context) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT hash FROM ledger ORDER BY seq DESC LIMIT 1`).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return GenesisHash, nil
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

// formatTime is the stored and hashed form of a timestamp
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// computeHash creates the SHA-256 hash of an entry's canonical representation
func computeHash(entry *Entry) string {
	canonical := struct {
		ID         string `json:"id"`
		Timestamp  string `json:"timestamp"`
		Action     string `json:"action"`
		Actor      string `json:"actor"`
		EntityType string `json:"entity_type"`
		EntityID   string `json:"entity_id"`
		Details    string `json:"details"`
		PrevHash   string `json:"prev_hash"`
	}{
		ID:         entry.ID,
		Timestamp:  formatTime(entry.Timestamp),
		Action:     entry.Action,
		Actor:      entry.Actor,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    entry.Details,
		PrevHash:   entry.PrevHash,
	}

	data, _ := json.Marshal(canonical)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (*Entry, error) {
	var entry Entry
	var ts string
	var entityType, entityID, details sql.NullString
	if err := row.Scan(&entry.Seq, &entry.ID, &ts, &entry.Action, &entry.Actor,
		&entityType, &entityID, &details, &entry.PrevHash, &entry.Hash); err != nil {
		return nil, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	entry.Timestamp = parsed
	entry.EntityType = entityType.String
	entry.EntityID = entityID.String
	entry.Details = details.String
	return &entry, nil
}

// VerifyChain verifies the integrity of the entire ledger chain.
// Returns nil if valid, or an error describing the first broken link.
func (s *Store) VerifyChain(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM ledger ORDER BY seq ASC`)
	if err != nil {
		return fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	expectedPrevHash := GenesisHash
	entryNum := 0

	for rows.Next() {
		entryNum++
		entry, err := scanEntry(rows)
		if err != nil {
			return fmt.Errorf("scan entry %d: %w", entryNum, err)
		}

		if entry.PrevHash != expectedPrevHash {
			return &ChainError{
				EntryNum:     entryNum,
				EntryID:      entry.ID,
				ExpectedHash: expectedPrevHash,
				ActualHash:   entry.PrevHash,
				Type:         ChainBroken,
			}
		}

		expectedHash := computeHash(entry)
		if entry.Hash != expectedHash {
			return &ChainError{
				EntryNum:     entryNum,
				EntryID:      entry.ID,
				ExpectedHash: expectedHash,
				ActualHash:   entry.Hash,
				Type:         HashMismatch,
			}
		}

		expectedPrevHash = entry.Hash
	}

	return rows.Err()
}

// ChainError types
const (
	ChainBroken  = "chain_broken"
	HashMismatch = "hash_mismatch"
)

// ChainError represents a broken chain error
type ChainError struct {
	EntryNum     int
	EntryID      string
	ExpectedHash string
	ActualHash   string
	Type         string // ChainBroken or HashMismatch
}

func (e *ChainError) Error() string {
	if e.Type == ChainBroken {
		return fmt.Sprintf("chain broken at entry %d (ID: %s): expected prev_hash %s, got %s",
			e.EntryNum, e.EntryID, short(e.ExpectedHash), short(e.ActualHash))
	}
	return fmt.Sprintf("hash mismatch at entry %d (ID: %s): expected %s, got %s",
		e.EntryNum, e.EntryID, short(e.ExpectedHash), short(e.ActualHash))
}

func short(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16] + "..."
}

// QueryOptions filters listed entries
type QueryOptions struct {
	Action     string    // Filter by action type
	Actor      string    // Filter by actor
	EntityType string    // Filter by entity type
	EntityID   string    // Filter by entity ID
	Since      time.Time // Entries at or after this time
	Until      time.Time // Entries at or before this time
	Limit      int       // Maximum entries to return
	Offset     int       // Skip first N entries
}

// Query returns entries matching the given criteria, newest first
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]*Entry, error) {
	var where []string
	var args []interface{}

	if opts.Action != "" {
		where = append(where, "action = ?")
		args = append(args, opts.Action)
	}
	if opts.Actor != "" {
		where = append(where, "actor = ?")
		args = append(args, opts.Actor)
	}
	if opts.EntityType != "" {
		where = append(where, "entity_type = ?")
		args = append(args, opts.EntityType)
	}
	if opts.EntityID != "" {
		where = append(where, "entity_id = ?")
		args = append(args, opts.EntityID)
	}
	if !opts.Since.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, formatTime(opts.Since))
	}
	if !opts.Until.IsZero() {
		where = append(where, "timestamp <= ?")
		args = append(args, formatTime(opts.Until))
	}

	query := `SELECT ` + entryColumns + ` FROM ledger`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC"

	if opts.Limit > 0 || opts.Offset > 0 {
		limit := opts.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetByID returns a single entry by ID, or nil when it does not exist
func (s *Store) GetByID(ctx context.Context, id string) (*Entry, error) {
	entry, err := scanEntry(s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM ledger WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query entry: %w", err)
	}
	return entry, nil
}

// GetRecent returns the most recent entries
func (s *Store) GetRecent(ctx context.Context, limit int) ([]*Entry, error) {
	return s.Query(ctx, QueryOptions{Limit: limit})
}

// Count returns the total number of entries in the ledger
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ledger").Scan(&count)
	return count, err
}

// GetEntityHistory returns all entries for a specific entity
func (s *Store) GetEntityHistory(ctx context.Context, entityType, entityID string) ([]*Entry, error) {
	return s.Query(ctx, QueryOptions{
		EntityType: entityType,
		EntityID:   entityID,
	})
}

// Summary statistics
type Summary struct {
	TotalEntries int            `json:"total_entries"`
	FirstEntry   *time.Time     `json:"first_entry,omitempty"`
	LastEntry    *time.Time     `json:"last_entry,omitempty"`
	ByAction     map[string]int `json:"by_action"`
	ByActor      map[string]int `json:"by_actor"`
	ChainValid   bool           `json:"chain_valid"`
	ChainError   string         `json:"chain_error,omitempty"`
}

// GetSummary returns statistics about the ledger
func (s *Store) GetSummary(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ledger").Scan(&summary.TotalEntries); err != nil {
		return nil, err
	}

	for _, bound := range []struct {
		order string
		dest  **time.Time
	}{{"ASC", &summary.FirstEntry}, {"DESC", &summary.LastEntry}} {
		var ts string
		err := s.db.QueryRowContext(ctx, "SELECT timestamp FROM ledger ORDER BY seq "+bound.order+" LIMIT 1").Scan(&ts)
		if errors.Is(err, sql.ErrNoRows) {
			break
		}
		if err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			*bound.dest = &t
		}
	}

	var err error
	if summary.ByAction, err = s.countBy(ctx, "action"); err != nil {
		return nil, err
	}
	if summary.ByActor, err = s.countBy(ctx, "actor"); err != nil {
		return nil, err
	}

	if err := s.VerifyChain(ctx); err != nil {
		summary.ChainError = err.Error()
	} else {
		summary.ChainValid = true
	}

	return summary, nil
}

// countBy groups entries by a column. The column name is never user input.
func (s *Store) countBy(ctx context.Context, column string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+column+", COUNT(*) FROM ledger GROUP BY "+column)
	if err != nil {
		return nil, fmt.Errorf("count by %s: %w", column, err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		out[key] = count
	}
	return out, rows.Err()
}
