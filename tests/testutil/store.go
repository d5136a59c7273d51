package testutil

import (
	"io"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/nhle/todo/internal/model"
	"github.com/nhle/todo/internal/store"
)

// NewTestStore creates an in-memory sqlite Store with all migrations
// applied. It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(model.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewFileTestStore is like NewTestStore but keeps the database in a file
// under t.TempDir(), so the pool holds several connections.
func NewFileTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(model.DriverSQLite, filepath.Join(t.TempDir(), "todo.db"))
	if err != nil {
		t.Fatalf("creating file test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing file test store: %v", err)
		}
	})

	return s
}

// NewTestLogger returns a logger that discards its output.
func NewTestLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}
