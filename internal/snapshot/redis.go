package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// OpenRedis connects to redis at rawURL and verifies the connection.
func OpenRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// RedisStore keeps the snapshot as a JSON value under Key.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := s.rdb.Set(ctx, Key, payload, 0).Err(); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) (*Record, error) {
	payload, err := s.rdb.Get(ctx, Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &rec, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, Key).Err(); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}
	return nil
}
