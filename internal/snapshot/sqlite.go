package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/playperu/globetrotter/internal/migrations"
)

// OpenSQLite creates a SQLite connection via libSQL and configures it
// for concurrent use: WAL journal mode, 5 s busy timeout, foreign keys
// enabled.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// libSQL rejects Exec for PRAGMAs that return rows, but some PRAGMAs
	// (like foreign_keys=ON) return nothing. Use QueryContext and drain
	// rows to handle both cases uniformly.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		rows, err := db.QueryContext(ctx, p)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %s: %w", p, err)
		}
		rows.Close()
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// SQLiteStore keeps the snapshot as a single JSON row keyed by Key.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore runs migrations and returns a store backed by db.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if err := migrations.Run(ctx, db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session_snapshot (key, payload)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`, Key, string(payload))
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*Record, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM session_snapshot WHERE key = ?", Key,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &rec, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM session_snapshot WHERE key = ?", Key)
	if err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}
	return nil
}
