package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

// newTestRedis starts an in-process Redis and returns the server plus a RedisStore on it.
func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return mr, NewRedisStore(rdb)
}

// --- HabitsCacheKey ---

func TestHabitsCacheKey(t *testing.T) {
	if got := HabitsCacheKey(42); got != "habits:42" {
		t.Errorf("expected %q, got %q", "habits:42", got)
	}
}

// --- NewRedisClient ---

func TestNewRedisClient(t *testing.T) {
	t.Run("rejects malformed url", func(t *testing.T) {
		if _, err := NewRedisClient(context.Background(), "not a url"); err == nil {
			t.Fatal("expected error for malformed url")
		}
	})

	t.Run("fails when server is unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		if _, err := NewRedisClient(context.Background(), "redis://"+addr); err == nil {
			t.Fatal("expected ping error for closed server")
		}
	})
}

// --- SetHabits + GetHabits ---

func TestSetAndGetHabits(t *testing.T) {
	ctx := context.Background()

	t.Run("round-trip stores and retrieves habits", func(t *testing.T) {
		mr, rs := newTestRedis(t)
		desc := "before bed"
		habits := []Habit{
			{ID: 1, UserID: 9, Name: "Read", Description: &desc, CreatedAt: time.Now().UTC().Truncate(time.Second)},
			{ID: 2, UserID: 9, Name: "Stretch"},
		}

		if err := rs.SetHabits(ctx, 9, habits, 120*time.Second); err != nil {
			t.Fatalf("SetHabits failed: %v", err)
		}

		got, err := rs.GetHabits(ctx, 9)
		if err != nil {
			t.Fatalf("GetHabits failed: %v", err)
		}
		if len(got) != 2 || got[0].Name != "Read" || got[1].Name != "Stretch" {
			t.Fatalf("unexpected habits: %+v", got)
		}
		if got[0].Description == nil || *got[0].Description != desc {
			t.Error("description did not round-trip")
		}
		if !got[0].CreatedAt.Equal(habits[0].CreatedAt) {
			t.Errorf("CreatedAt: expected %v, got %v", habits[0].CreatedAt, got[0].CreatedAt)
		}

		if ttl := mr.TTL("habits:9"); ttl != 120*time.Second {
			t.Errorf("TTL: expected 120s, got %v", ttl)
		}
	})

	t.Run("empty list is cached as a hit", func(t *testing.T) {
		mr, rs := newTestRedis(t)

		if err := rs.SetHabits(ctx, 5, nil, time.Minute); err != nil {
			t.Fatalf("SetHabits failed: %v", err)
		}
		if v, _ := mr.Get("habits:5"); v != "[]" {
			t.Errorf("stored value: expected [], got %q", v)
		}

		got, err := rs.GetHabits(ctx, 5)
		if err != nil {
			t.Fatalf("expected hit for empty list, got %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", got)
		}
	})

	t.Run("entry expires after TTL", func(t *testing.T) {
		mr, rs := newTestRedis(t)

		rs.SetHabits(ctx, 3, []Habit{{ID: 1, UserID: 3, Name: "Walk"}}, 120*time.Second)

		mr.FastForward(119 * time.Second)
		if _, err := rs.GetHabits(ctx, 3); err != nil {
			t.Fatalf("expected hit before TTL, got %v", err)
		}

		mr.FastForward(2 * time.Second)
		if _, err := rs.GetHabits(ctx, 3); !errors.Is(err, ErrCacheMiss) {
			t.Fatalf("expected ErrCacheMiss after TTL, got %v", err)
		}
	})
}

// --- GetHabits (miss / corrupt / outage) ---

func TestGetHabitsFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key returns ErrCacheMiss", func(t *testing.T) {
		_, rs := newTestRedis(t)

		got, err := rs.GetHabits(ctx, 404)
		if !errors.Is(err, ErrCacheMiss) {
			t.Fatalf("expected ErrCacheMiss, got %v", err)
		}
		if got != nil {
			t.Error("expected nil habits on miss")
		}
	})

	t.Run("undecodable value returns ErrCacheCorrupt", func(t *testing.T) {
		mr, rs := newTestRedis(t)
		mr.Set("habits:8", "{not json")

		if _, err := rs.GetHabits(ctx, 8); !errors.Is(err, ErrCacheCorrupt) {
			t.Fatalf("expected ErrCacheCorrupt, got %v", err)
		}
	})

	t.Run("server outage is neither a miss nor corrupt", func(t *testing.T) {
		mr, rs := newTestRedis(t)
		mr.Close()

		_, err := rs.GetHabits(ctx, 1)
		if err == nil {
			t.Fatal("expected error with server down")
		}
		if errors.Is(err, ErrCacheMiss) || errors.Is(err, ErrCacheCorrupt) {
			t.Errorf("outage should surface as infrastructure error, got %v", err)
		}
	})
}

// --- DeleteHabits ---

func TestDeleteHabits(t *testing.T) {
	ctx := context.Background()

	t.Run("removes only the given user's entry", func(t *testing.T) {
		mr, rs := newTestRedis(t)
		rs.SetHabits(ctx, 1, []Habit{{ID: 1, UserID: 1, Name: "a"}}, time.Minute)
		rs.SetHabits(ctx, 2, []Habit{{ID: 2, UserID: 2, Name: "b"}}, time.Minute)

		if err := rs.DeleteHabits(ctx, 1); err != nil {
			t.Fatalf("DeleteHabits failed: %v", err)
		}
		if mr.Exists("habits:1") {
			t.Error("expected habits:1 to be deleted")
		}
		if !mr.Exists("habits:2") {
			t.Error("other user's entry should not be deleted")
		}
	})

	t.Run("deleting an absent key is not an error", func(t *testing.T) {
		_, rs := newTestRedis(t)
		if err := rs.DeleteHabits(ctx, 77); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})
}

// --- CheckHealth ---

func TestRedisCheckHealth(t *testing.T) {
	mr, rs := newTestRedis(t)
	if err := rs.CheckHealth(context.Background()); err != nil {
		t.Fatalf("expected healthy, got %v", err)
	}
	mr.Close()
	if err := rs.CheckHealth(context.Background()); err == nil {
		t.Fatal("expected error with server down")
	}
}
