// handler.go -- HTTP handlers for /habits/{habitId}/records.
//
// A day counts as completed only when a record exists with completed=true.
// POST upserts the flag; DELETE removes the row and is how clients
// "un-complete" a day. Every successful write publishes a record event so the
// habits service can drop that user's cached list.
package records

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MGallo-Code/habitual/internal/auth"
	"github.com/MGallo-Code/habitual/internal/events"
	"github.com/MGallo-Code/habitual/internal/httputil"
	"github.com/MGallo-Code/habitual/internal/store"
)

// Store defines database operations needed by record handlers.
// Satisfied by *store.PostgresStore.
type Store interface {
	// GetRecord returns store.ErrNotFound when the day has no record.
	GetRecord(ctx context.Context, userID, habitID int64, date time.Time) (*store.HabitRecord, error)

	// UpsertRecord atomically inserts or updates the record for the day.
	UpsertRecord(ctx context.Context, userID, habitID int64, date time.Time, completed bool) (*store.HabitRecord, error)

	// DeleteRecord removes the day's record, returning rows removed.
	DeleteRecord(ctx context.Context, userID, habitID int64, date time.Time) (int64, error)
}

// Publisher announces record changes. Satisfied by *events.Publisher.
type Publisher interface {
	Publish(ctx context.Context, ev events.Event) error
}

// Handler holds dependencies for all record HTTP handlers.
type Handler struct {
	PS Store
	EP Publisher

	// Now returns the current time; "today" is its calendar date in its location.
	// Nil means time.Now (server-local).
	Now func() time.Time
}

// recordInput is the body of POST /habits/{habitId}/records. Both fields optional.
type recordInput struct {
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Completed *bool  `json:"completed"`
}

// today returns the current calendar date as YYYY-MM-DD.
func (h *Handler) today() string {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	return now().Format(store.DateLayout)
}

// resolveDate returns raw (or today when blank) parsed at day granularity,
// plus its canonical string form.
func (h *Handler) resolveDate(raw string) (time.Time, string, error) {
	if raw == "" {
		raw = h.today()
	}
	d, err := time.Parse(store.DateLayout, raw)
	if err != nil {
		return time.Time{}, "", err
	}
	return d, d.Format(store.DateLayout), nil
}

// GetRecords handles GET /habits/{habitId}/records?date=YYYY-MM-DD.
// Returns 200 with a zero- or one-element array.
func (h *Handler) GetRecords(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.Unauthorized(w, r, "missing token")
		return
	}

	habitID, ok := httputil.IDParam(w, r, "habitId", "habit_id")
	if !ok {
		return
	}

	date, _, err := h.resolveDate(r.URL.Query().Get("date"))
	if err != nil {
		httputil.BadRequest(w, r, "invalid date")
		return
	}

	rec, err := h.PS.GetRecord(r.Context(), userID, habitID, date)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.JSON(w, r, http.StatusOK, []store.HabitRecord{})
			return
		}
		httputil.InternalServerError(w, r, err)
		return
	}

	httputil.JSON(w, r, http.StatusOK, []store.HabitRecord{*rec})
}

// UpsertRecord handles POST /habits/{habitId}/records.
// date defaults to today, completed defaults to true. Returns 201 with the stored row;
// repeating the call for the same day updates that row rather than adding one.
func (h *Handler) UpsertRecord(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.Unauthorized(w, r, "missing token")
		return
	}

	habitID, ok := httputil.IDParam(w, r, "habitId", "habit_id")
	if !ok {
		return
	}

	var in recordInput
	if !httputil.DecodeJSON(w, r, &in) {
		return
	}
	date, dateStr, err := h.resolveDate(in.Date)
	if err != nil {
		httputil.BadRequest(w, r, "invalid date")
		return
	}
	completed := true
	if in.Completed != nil {
		completed = *in.Completed
	}

	rec, err := h.PS.UpsertRecord(r.Context(), userID, habitID, date, completed)
	if err != nil {
		httputil.InternalServerError(w, r, err)
		return
	}

	ev, err := events.NewRecordUpserted(userID, habitID, dateStr, completed)
	h.publish(r, ev, err)

	httputil.LogInfo(r, "record upserted", "user_id", userID, "habit_id", habitID, "date", dateStr, "completed", completed)
	httputil.JSON(w, r, http.StatusCreated, rec)
}

// DeleteRecord handles DELETE /habits/{habitId}/records?date=YYYY-MM-DD.
// Returns 200 whether or not a record existed; deleted reports how many rows went.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.Unauthorized(w, r, "missing token")
		return
	}

	habitID, ok := httputil.IDParam(w, r, "habitId", "habit_id")
	if !ok {
		return
	}

	date, dateStr, err := h.resolveDate(r.URL.Query().Get("date"))
	if err != nil {
		httputil.BadRequest(w, r, "invalid date")
		return
	}

	n, err := h.PS.DeleteRecord(r.Context(), userID, habitID, date)
	if err != nil {
		httputil.InternalServerError(w, r, err)
		return
	}

	// Nothing changed, nothing to announce.
	if n > 0 {
		ev, err := events.NewRecordDeleted(userID, habitID, dateStr)
		h.publish(r, ev, err)
	}

	httputil.JSON(w, r, http.StatusOK, struct {
		Success bool  `json:"success"`
		Deleted int64 `json:"deleted"`
	}{true, n})
}

// publish sends ev, logging (never surfacing) failures. buildErr is the
// error from constructing ev, if any.
func (h *Handler) publish(r *http.Request, ev events.Event, buildErr error) {
	if buildErr != nil {
		httputil.LogWarn(r, "failed to build change event", "error", buildErr)
		return
	}
	if err := h.EP.Publish(context.WithoutCancel(r.Context()), ev); err != nil {
		httputil.LogWarn(r, "failed to publish change event", "type", ev.Type, "habit_id", ev.HabitID, "error", err)
	}
}
