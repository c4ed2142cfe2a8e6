package migrations_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/playperu/globetrotter/internal/migrations"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("libsql", "file::memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrations(t *testing.T) {
	db := openDB(t)

	if err := migrations.Run(context.Background(), db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	var name string
	err := db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?", "session_snapshot",
	).Scan(&name)
	if err != nil {
		t.Errorf("table session_snapshot not found: %v", err)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("second run (should be no-op): %v", err)
	}
}
