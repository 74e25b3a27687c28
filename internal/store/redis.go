// redis.go -- go-redis client for the per-user habits cache.
//
// Each user's full habit list is cached as one JSON value under habits:<userID>
// with a fixed TTL. Writes never update the cache; they delete the key so the
// next read repopulates it from Postgres (read-through, write-invalidate).
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient parses redisURL, connects, and pings to verify connectivity.
// One client is shared by the cache, the event publisher and the subscriber;
// the caller owns it and closes it on shutdown.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
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

// HabitsCacheKey returns the cache key for userID's habit list.
func HabitsCacheKey(userID int64) string {
	return "habits:" + strconv.FormatInt(userID, 10)
}

// RedisStore wraps a Redis client for habits cache operations.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an already-connected client. Safe for concurrent use.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// GetHabits returns the cached habit list for userID.
// Returns ErrCacheMiss if the key is absent, ErrCacheCorrupt if it can't be decoded.
// An empty cached list is a hit, not a miss.
func (s *RedisStore) GetHabits(ctx context.Context, userID int64) ([]Habit, error) {
	raw, err := s.rdb.Get(ctx, HabitsCacheKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("fetching cached habits: %w", err)
	}

	var habits []Habit
	if err := json.Unmarshal(raw, &habits); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	if habits == nil {
		habits = []Habit{}
	}
	return habits, nil
}

// SetHabits caches userID's habit list for ttl (SETEX).
// A nil slice is stored as [] so an empty result is cached too.
func (s *RedisStore) SetHabits(ctx context.Context, userID int64, habits []Habit, ttl time.Duration) error {
	if habits == nil {
		habits = []Habit{}
	}
	data, err := json.Marshal(habits)
	if err != nil {
		return fmt.Errorf("marshaling habits: %w", err)
	}
	if err := s.rdb.SetEx(ctx, HabitsCacheKey(userID), data, ttl).Err(); err != nil {
		return fmt.Errorf("caching habits: %w", err)
	}
	return nil
}

// DeleteHabits drops userID's cached habit list. Deleting an absent key is not an error.
func (s *RedisStore) DeleteHabits(ctx context.Context, userID int64) error {
	if err := s.rdb.Del(ctx, HabitsCacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("deleting cached habits: %w", err)
	}
	return nil
}

// CheckHealth pings Redis; used by GET /health.
func (s *RedisStore) CheckHealth(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
