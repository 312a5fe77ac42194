package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/amishk599/gigradar/internal/model"
)

// DefaultSeenKey is the Redis set holding stored job IDs.
const DefaultSeenKey = "gigradar:seen"

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// CachedStore fronts a JobStore with a Redis set of known IDs so repeated
// polls of the same listings skip the database. The inner store stays the
// source of truth; Redis errors fall through to it.
type CachedStore struct {
	model.JobStore
	rdb    *redis.Client
	key    string
	logger *slog.Logger
}

// NewCachedStore wraps inner with a seen-cache stored under key.
func NewCachedStore(inner model.JobStore, rdb *redis.Client, key string, logger *slog.Logger) *CachedStore {
	if key == "" {
		key = DefaultSeenKey
	}
	return &CachedStore{JobStore: inner, rdb: rdb, key: key, logger: logger}
}

// Exists answers from the cache when it can and warms it on database hits.
func (s *CachedStore) Exists(ctx context.Context, id string) (bool, error) {
	hit, err := s.rdb.SIsMember(ctx, s.key, id).Result()
	if err != nil {
		s.logger.Warn("seen-cache lookup failed", "job_id", id, "error", err)
	} else if hit {
		return true, nil
	}

	exists, err := s.JobStore.Exists(ctx, id)
	if err != nil {
		return false, err
	}
	if exists {
		s.remember(ctx, id)
	}
	return exists, nil
}

// Upsert writes through to the inner store, then records the ID.
func (s *CachedStore) Upsert(ctx context.Context, job model.Job, c model.Classification) (bool, error) {
	inserted, err := s.JobStore.Upsert(ctx, job, c)
	if err != nil {
		return false, err
	}
	s.remember(ctx, job.ID)
	return inserted, nil
}

func (s *CachedStore) remember(ctx context.Context, id string) {
	if err := s.rdb.SAdd(ctx, s.key, id).Err(); err != nil {
		s.logger.Warn("seen-cache update failed", "job_id", id, "error", err)
	}
}
