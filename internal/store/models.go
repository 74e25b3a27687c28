// models.go -- Shared domain types for the store package.
// Used by both Postgres (durable store) and Redis (cache layer).
package store

import (
	"errors"
	"time"
)

// ErrCacheMiss is returned by GetHabits when the key is not in Redis.
// Callers use errors.Is to distinguish a true miss from a Redis infrastructure failure.
var ErrCacheMiss = errors.New("cache miss")

// ErrCacheCorrupt is returned by GetHabits when the cached value can't be decoded.
// Callers treat it as a miss and drop the entry.
var ErrCacheCorrupt = errors.New("cache entry corrupt")

// ErrNotFound is returned by ownership-filtered updates and deletes that match no row.
// A habit owned by someone else is indistinguishable from one that doesn't exist.
var ErrNotFound = errors.New("not found")

// DateLayout is the wire and storage format for record dates (day granularity).
const DateLayout = "2006-01-02"

// Habit represents a row in the habits table.
// Description is nil when SQL NULL.
type Habit struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HabitRecord represents a row in the habit_records table.
// One row at most per (UserID, HabitID, Date), enforced by a UNIQUE constraint.
// Date is always formatted with DateLayout.
type HabitRecord struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	HabitID   int64     `json:"habit_id"`
	Date      string    `json:"date"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
