package snapshot

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/playperu/globetrotter/internal/quiz"
)

func redisStore(t *testing.T) *RedisStore {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewRedisStore(rdb)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store := redisStore(t)
	ctx := context.Background()

	rec := Record{
		Score:        2,
		SessionID:    "sess-9",
		Mode:         quiz.ModeNormal,
		InviteLink:   "xyz789",
		ChallengeID:  "ch-9",
		InviterScore: 0,
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

func TestRedisStoreLoadEmpty(t *testing.T) {
	store := redisStore(t)

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil record, got %+v", got)
	}
}

func TestRedisStoreClear(t *testing.T) {
	store := redisStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, Record{Score: 1, SessionID: "s", Mode: quiz.ModeNormal}); err != nil {
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
}
