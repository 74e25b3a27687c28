// Package events carries change notifications between the habits and records
// services over Redis pub/sub.
//
// Every notification is one JSON envelope with a type discriminant, published
// on a single channel. Delivery is at-most-once: nothing is persisted, a
// subscriber that isn't connected at publish time never sees the event.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Type discriminates the event envelope.
type Type string

const (
	HabitCreated   Type = "habit.created"
	HabitUpdated   Type = "habit.updated"
	HabitDeleted   Type = "habit.deleted"
	RecordUpserted Type = "record.upserted"
	RecordDeleted  Type = "record.deleted"
)

// ErrInvalidEvent is wrapped by Decode for payloads that aren't a usable envelope.
var ErrInvalidEvent = errors.New("invalid event")

// Event is the envelope published for every habit or record change.
// Date is set for record events only; Completed for RecordUpserted only.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Type      Type      `json:"type"`
	UserID    int64     `json:"user_id"`
	HabitID   int64     `json:"habit_id"`
	Date      string    `json:"date,omitempty"`
	Completed *bool     `json:"completed,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// IsRecordEvent reports whether t originates from the records service.
func (t Type) IsRecordEvent() bool {
	return t == RecordUpserted || t == RecordDeleted
}

func (t Type) valid() bool {
	switch t {
	case HabitCreated, HabitUpdated, HabitDeleted, RecordUpserted, RecordDeleted:
		return true
	}
	return false
}

// NewHabitEvent builds a habit lifecycle event stamped with a fresh UUIDv7 and the current time.
func NewHabitEvent(t Type, userID, habitID int64) (Event, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Event{}, fmt.Errorf("generating event id: %w", err)
	}
	return Event{
		ID:        id,
		Type:      t,
		UserID:    userID,
		HabitID:   habitID,
		Timestamp: time.Now().UTC(),
	}, nil
}

// NewRecordUpserted builds a record.upserted event for (userID, habitID, date).
func NewRecordUpserted(userID, habitID int64, date string, completed bool) (Event, error) {
	ev, err := NewHabitEvent(RecordUpserted, userID, habitID)
	if err != nil {
		return Event{}, err
	}
	ev.Date = date
	ev.Completed = &completed
	return ev, nil
}

// NewRecordDeleted builds a record.deleted event for (userID, habitID, date).
func NewRecordDeleted(userID, habitID int64, date string) (Event, error) {
	ev, err := NewHabitEvent(RecordDeleted, userID, habitID)
	if err != nil {
		return Event{}, err
	}
	ev.Date = date
	return ev, nil
}

// Decode parses a published payload. Unknown types and envelopes missing the
// user or habit id are rejected with ErrInvalidEvent.
func Decode(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if !ev.Type.valid() {
		return Event{}, fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, ev.Type)
	}
	if ev.UserID == 0 || ev.HabitID == 0 {
		return Event{}, fmt.Errorf("%w: missing user_id or habit_id", ErrInvalidEvent)
	}
	return ev, nil
}
