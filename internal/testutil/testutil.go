// Package testutil provides shared test helpers for setting up vaults and search stores.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/halvard/ansuz/internal/search"
	"github.com/halvard/ansuz/internal/vault"
)

// TestSearch creates a temporary search store that is automatically cleaned up.
func TestSearch(t *testing.T) *search.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := search.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestLogger returns a logger that discards all output.
func TestLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestIndex creates an index without a search sidecar, unbound.
func TestIndex(t *testing.T) *vault.Index {
	t.Helper()
	return vault.New(TestLogger(t), nil)
}
