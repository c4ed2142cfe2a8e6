package snapshot

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/playperu/globetrotter/internal/quiz"
)

func sqliteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()

	db, err := OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := NewSQLiteStore(ctx, db)
	if err != nil {
		t.Fatalf("initializing store: %v", err)
	}
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := sqliteStore(t)
	ctx := context.Background()

	rec := Record{
		Score:        3,
		SessionID:    "sess-1",
		ChallengeID:  "ch-1",
		InviteLink:   "abc123",
		Mode:         quiz.ModeChallenge,
		InviterScore: 4,
	}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("saving: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if got == nil {
		t.Fatal("expected a record, got nil")
	}
	if diff := cmp.Diff(rec, *got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteStoreLoadEmpty(t *testing.T) {
	store := sqliteStore(t)

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil record, got %+v", got)
	}
}

func TestSQLiteStoreOverwrite(t *testing.T) {
	store := sqliteStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, Record{Score: 1, SessionID: "a", Mode: quiz.ModeNormal}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := store.Save(ctx, Record{Score: 2, SessionID: "b", Mode: quiz.ModeNormal}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if got.Score != 2 || got.SessionID != "b" {
		t.Errorf("expected latest record, got %+v", got)
	}
}

func TestSQLiteStoreClear(t *testing.T) {
	store := sqliteStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, Record{Score: 5, SessionID: "s", Mode: quiz.ModeNormal}); err != nil {
		t.Fatalf("saving: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clearing: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after clear, got %+v", got)
	}

	// Clearing an empty store is a no-op.
	if err := store.Clear(ctx); err != nil {
		t.Errorf("clearing empty store: %v", err)
	}
}
