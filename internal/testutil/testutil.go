// Package testutil provides shared testing utilities for the sales coach.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/salescoach/salescoach/internal/storage"
)

// Now is the fixed instant used by fixtures: a Thursday, 9 days before month end.
var Now = time.Date(2026, 10, 22, 15, 0, 0, 0, time.UTC)

// TestDB creates an in-memory SQLite database for testing.
// The database is automatically closed when the test completes.
func TestDB(t *testing.T) *storage.DB {
	t.Helper()

	db, err := storage.Open(storage.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	// Run migrations
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	return db
}

// TestDBAt is TestDB with the store clock pinned to now.
func TestDBAt(t *testing.T, now time.Time) *storage.DB {
	t.Helper()
	db := TestDB(t)
	db.SetClock(func() time.Time { return now })
	return db
}

// TestContext returns a context with a timeout for tests.
// The context is automatically cancelled when the test completes.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TempDir creates a temporary directory for the test.
// The directory is automatically removed when the test completes.
func TempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "salescoach-test-*")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}
