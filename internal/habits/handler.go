// handler.go -- HTTP handlers for /habits.
//
// Reads are cache-aside: the per-user list is served from Redis when present
// and repopulated from Postgres on a miss. Every write runs, in order:
// persist -> drop the user's cache entry -> publish a change event -> respond.
// The cache delete happens before the response so the caller's next read
// can't see the pre-write list. Cache and broker failures after a committed
// write are logged and never change the response.
package habits

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MGallo-Code/habitual/internal/auth"
	"github.com/MGallo-Code/habitual/internal/events"
	"github.com/MGallo-Code/habitual/internal/httputil"
	"github.com/MGallo-Code/habitual/internal/metrics"
	"github.com/MGallo-Code/habitual/internal/store"
)

// DefaultCacheTTL applies when Handler.CacheTTL is zero.
const DefaultCacheTTL = 120 * time.Second

// Store defines database operations needed by habit handlers.
// Satisfied by *store.PostgresStore.
type Store interface {
	// ListHabitsByUser returns the user's habits ordered by id, never nil.
	ListHabitsByUser(ctx context.Context, userID int64) ([]store.Habit, error)

	// CreateHabit inserts a habit owned by userID.
	CreateHabit(ctx context.Context, userID int64, name string, description *string) (*store.Habit, error)

	// UpdateHabit rewrites name/description of a habit owned by userID.
	// Returns store.ErrNotFound when no owned habit matches.
	UpdateHabit(ctx context.Context, userID, id int64, name string, description *string) (*store.Habit, error)

	// DeleteHabit removes a habit owned by userID.
	// Returns store.ErrNotFound when no owned habit matches.
	DeleteHabit(ctx context.Context, userID, id int64) error
}

// Cache defines the per-user habits cache.
// Satisfied by *store.RedisStore.
type Cache interface {
	// GetHabits returns store.ErrCacheMiss on absence, store.ErrCacheCorrupt on bad data.
	GetHabits(ctx context.Context, userID int64) ([]store.Habit, error)

	// SetHabits caches the list with ttl.
	SetHabits(ctx context.Context, userID int64, habits []store.Habit, ttl time.Duration) error

	// DeleteHabits drops the user's entry.
	DeleteHabits(ctx context.Context, userID int64) error
}

// Publisher announces habit changes. Satisfied by *events.Publisher.
type Publisher interface {
	Publish(ctx context.Context, ev events.Event) error
}

// Handler holds dependencies for all /habits HTTP handlers.
type Handler struct {
	PS       Store
	RS       Cache
	EP       Publisher
	CacheTTL time.Duration
	Metrics  *metrics.Metrics
}

// habitInput is the body of POST /habits and PUT /habits/{id}.
type habitInput struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// normalize trims name and maps a blank description to NULL.
// Returns false if the name is blank once trimmed.
func (in *habitInput) normalize() bool {
	in.Name = strings.TrimSpace(in.Name)
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		if d == "" {
			in.Description = nil
		} else {
			in.Description = &d
		}
	}
	return in.Name != ""
}

func (h *Handler) cacheTTL() time.Duration {
	if h.CacheTTL <= 0 {
		return DefaultCacheTTL
	}
	return h.CacheTTL
}

// ListHabits handles GET /habits: the caller's habits ordered by id.
// Served from cache when present; a cache outage falls back to Postgres
// rather than failing the read.
func (h *Handler) ListHabits(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.Unauthorized(w, r, "missing token")
		return
	}

	cached, err := h.RS.GetHabits(r.Context(), userID)
	switch {
	case err == nil:
		h.Metrics.CacheLookup(metrics.CacheHit)
		httputil.LogDebug(r, "habits cache hit", "user_id", userID)
		httputil.JSON(w, r, http.StatusOK, cached)
		return
	case errors.Is(err, store.ErrCacheMiss):
		h.Metrics.CacheLookup(metrics.CacheMiss)
		httputil.LogDebug(r, "habits cache miss", "user_id", userID)
	case errors.Is(err, store.ErrCacheCorrupt):
		h.Metrics.CacheLookup(metrics.CacheCorrupt)
		httputil.LogWarn(r, "dropping corrupt habits cache entry", "user_id", userID, "error", err)
		if err := h.RS.DeleteHabits(r.Context(), userID); err != nil {
			httputil.LogWarn(r, "failed to drop corrupt cache entry", "user_id", userID, "error", err)
		}
	default:
		// Real Redis failure -- Postgres is the source of truth, so serve from it.
		h.Metrics.CacheLookup(metrics.CacheError)
		httputil.LogError(r, "habits cache lookup failed, falling back to postgres", "user_id", userID, "error", err)
	}

	habits, err := h.PS.ListHabitsByUser(r.Context(), userID)
	if err != nil {
		httputil.InternalServerError(w, r, err)
		return
	}

	// Repopulate cache, non-fatal on failure. Empty lists are cached too.
	if err := h.RS.SetHabits(r.Context(), userID, habits, h.cacheTTL()); err != nil {
		httputil.LogWarn(r, "failed to populate habits cache", "user_id", userID, "error", err)
	}

	httputil.JSON(w, r, http.StatusOK, habits)
}

// CreateHabit handles POST /habits.
// Returns 201 with the created habit, 400 for validation errors, 500 for store errors.
func (h *Handler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.Unauthorized(w, r, "missing token")
		return
	}

	var in habitInput
	if !httputil.DecodeJSON(w, r, &in) {
		return
	}
	if !in.normalize() {
		httputil.BadRequest(w, r, "invalid name")
		return
	}

	habit, err := h.PS.CreateHabit(r.Context(), userID, in.Name, in.Description)
	if err != nil {
		httputil.InternalServerError(w, r, err)
		return
	}

	h.afterWrite(r, userID, habit.ID, events.HabitCreated)
	httputil.LogInfo(r, "habit created", "user_id", userID, "habit_id", habit.ID)
	httputil.JSON(w, r, http.StatusCreated, habit)
}

// UpdateHabit handles PUT /habits/{id}, owner only.
// Returns 200 with the updated habit, 404 if missing or not the caller's.
func (h *Handler) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.Unauthorized(w, r, "missing token")
		return
	}

	id, ok := httputil.IDParam(w, r, "id", "id")
	if !ok {
		return
	}

	var in habitInput
	if !httputil.DecodeJSON(w, r, &in) {
		return
	}
	if !in.normalize() {
		httputil.BadRequest(w, r, "invalid name")
		return
	}

	habit, err := h.PS.UpdateHabit(r.Context(), userID, id, in.Name, in.Description)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.LogInfo(r, "habit update matched no owned habit", "user_id", userID, "habit_id", id)
			httputil.NotFound(w, r, "habit not found")
			return
		}
		httputil.InternalServerError(w, r, err)
		return
	}

	h.afterWrite(r, userID, habit.ID, events.HabitUpdated)
	httputil.JSON(w, r, http.StatusOK, habit)
}

// DeleteHabit handles DELETE /habits/{id}, owner only, hard delete.
// Returns 204, or 404 if missing or not the caller's.
func (h *Handler) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.Unauthorized(w, r, "missing token")
		return
	}

	id, ok := httputil.IDParam(w, r, "id", "id")
	if !ok {
		return
	}

	if err := h.PS.DeleteHabit(r.Context(), userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.LogInfo(r, "habit delete matched no owned habit", "user_id", userID, "habit_id", id)
			httputil.NotFound(w, r, "habit not found")
			return
		}
		httputil.InternalServerError(w, r, err)
		return
	}

	h.afterWrite(r, userID, id, events.HabitDeleted)
	httputil.LogInfo(r, "habit deleted", "user_id", userID, "habit_id", id)
	httputil.NoContent(w)
}

// afterWrite invalidates the owner's cache entry then publishes the change.
// Runs only after the store write committed. Detached from request
// cancellation: a client hanging up must not skip the invalidation.
func (h *Handler) afterWrite(r *http.Request, userID, habitID int64, t events.Type) {
	ctx := context.WithoutCancel(r.Context())

	err := h.RS.DeleteHabits(ctx, userID)
	h.Metrics.CacheInvalidation("write", err)
	if err != nil {
		// Stale entry survives at most one TTL.
		httputil.LogWarn(r, "failed to invalidate habits cache", "user_id", userID, "error", err)
	}

	ev, err := events.NewHabitEvent(t, userID, habitID)
	if err != nil {
		httputil.LogWarn(r, "failed to build change event", "type", t, "error", err)
		return
	}
	if err := h.EP.Publish(ctx, ev); err != nil {
		httputil.LogWarn(r, "failed to publish change event", "type", t, "habit_id", habitID, "error", err)
	}
}
