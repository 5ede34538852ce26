// Package storagetest opens migrated databases for tests in other packages.
package storagetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"fmfm/internal/storage"
)

// NewDB opens a migrated database in a temp directory that is closed when
// the test ends.
func NewDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "fmfm.db"))
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(context.Background(), db); err != nil {
		t.Fatalf("storage.Migrate() error = %v", err)
	}
	return db
}
