package events

import (
	"context"
	"log/slog"

	"github.com/MGallo-Code/habitual/internal/metrics"
)

// CacheInvalidator drops a user's cached habit list.
// Satisfied by *store.RedisStore.
type CacheInvalidator interface {
	DeleteHabits(ctx context.Context, userID int64) error
}

// LogEvent logs every delivered event. The records service's only reaction.
func LogEvent(_ context.Context, ev Event) {
	slog.Info("event received",
		"type", ev.Type,
		"event_id", ev.ID,
		"user_id", ev.UserID,
		"habit_id", ev.HabitID,
		"date", ev.Date,
		"published_at", ev.Timestamp,
	)
}

// InvalidateOnRecordEvents returns a handler that drops the owning user's
// habits cache whenever the records service reports a change. Habit events
// are skipped since the habits service already invalidated synchronously
// before publishing them. Deletion is idempotent, so a redelivered or
// duplicate event is harmless.
func InvalidateOnRecordEvents(cache CacheInvalidator, m *metrics.Metrics) HandlerFunc {
	return func(ctx context.Context, ev Event) {
		LogEvent(ctx, ev)
		if !ev.Type.IsRecordEvent() {
			return
		}
		err := cache.DeleteHabits(ctx, ev.UserID)
		m.CacheInvalidation("event", err)
		if err != nil {
			slog.Warn("event-driven cache invalidation failed",
				"type", ev.Type, "user_id", ev.UserID, "error", err)
		}
	}
}
