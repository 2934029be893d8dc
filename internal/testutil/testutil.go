// Package testutil provides shared test helpers for setting up note
// directories, stores and databases.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/pinnote/internal/index"
	"github.com/starford/pinnote/internal/noteservice"
	"github.com/starford/pinnote/internal/notestore"
	"github.com/starford/pinnote/internal/storage"
)

// Logger discards everything.
var Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "pinnote-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore opens a store over a fresh temporary notes directory.
func TestStore(t *testing.T) (string, *notestore.Store) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	store, _, err := notestore.Open(fs, notestore.WithLogger(Logger))
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// TestService wires a store, an index kept in sync by an observer and a
// config file under a temporary directory.
func TestService(t *testing.T) (*noteservice.Service, *index.DB) {
	t.Helper()
	_, store := TestStore(t)
	db := TestDB(t)
	store.Observe(index.Observer(db, store, Logger))
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	svc := noteservice.NewService(store,
		noteservice.WithIndex(db),
		noteservice.WithConfigFile(cfgFile),
	)
	return svc, db
}
