// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"testing"

	"gorm.io/gorm"

	"p2p-lending/internal/infrastructure/db"
)

// Open returns a fresh in-memory sqlite database with every table migrated.
// The handle is limited to one connection; goroutines queue on it.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gdb) })
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}
