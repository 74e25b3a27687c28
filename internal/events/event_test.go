package events

import (
	"encoding/json"
	"errors"
	"testing"
)

// --- Constructors ---

func TestNewHabitEvent(t *testing.T) {
	ev, err := NewHabitEvent(HabitCreated, 7, 3)
	if err != nil {
		t.Fatalf("NewHabitEvent failed: %v", err)
	}
	if ev.ID.IsNil() {
		t.Error("expected generated event id")
	}
	if ev.Type != HabitCreated || ev.UserID != 7 || ev.HabitID != 3 {
		t.Errorf("unexpected envelope: %+v", ev)
	}
	if ev.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}

	// Habit events carry no record fields on the wire
	raw, _ := json.Marshal(ev)
	var fields map[string]any
	json.Unmarshal(raw, &fields)
	if _, ok := fields["date"]; ok {
		t.Error("habit event should omit date")
	}
	if _, ok := fields["completed"]; ok {
		t.Error("habit event should omit completed")
	}
}

func TestNewRecordEvents(t *testing.T) {
	t.Run("upserted carries date and completed", func(t *testing.T) {
		ev, err := NewRecordUpserted(1, 2, "2024-01-01", false)
		if err != nil {
			t.Fatalf("NewRecordUpserted failed: %v", err)
		}
		if ev.Type != RecordUpserted || ev.Date != "2024-01-01" {
			t.Errorf("unexpected envelope: %+v", ev)
		}
		if ev.Completed == nil || *ev.Completed {
			t.Error("expected completed=false to be present")
		}
	})

	t.Run("deleted carries date only", func(t *testing.T) {
		ev, err := NewRecordDeleted(1, 2, "2024-01-01")
		if err != nil {
			t.Fatalf("NewRecordDeleted failed: %v", err)
		}
		if ev.Type != RecordDeleted || ev.Date != "2024-01-01" || ev.Completed != nil {
			t.Errorf("unexpected envelope: %+v", ev)
		}
	})

	t.Run("record types are recognised", func(t *testing.T) {
		for _, typ := range []Type{RecordUpserted, RecordDeleted} {
			if !typ.IsRecordEvent() {
				t.Errorf("%s should be a record event", typ)
			}
		}
		for _, typ := range []Type{HabitCreated, HabitUpdated, HabitDeleted} {
			if typ.IsRecordEvent() {
				t.Errorf("%s should not be a record event", typ)
			}
		}
	})
}

// --- Decode ---

func TestDecode(t *testing.T) {
	t.Run("round-trips a published envelope", func(t *testing.T) {
		ev, _ := NewRecordUpserted(4, 5, "2024-06-01", true)
		raw, _ := json.Marshal(ev)

		got, err := Decode(raw)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if got.ID != ev.ID || got.Type != ev.Type || got.Date != ev.Date {
			t.Errorf("expected %+v, got %+v", ev, got)
		}
		if got.Completed == nil || !*got.Completed {
			t.Error("completed did not round-trip")
		}
		if !got.Timestamp.Equal(ev.Timestamp) {
			t.Errorf("timestamp: expected %v, got %v", ev.Timestamp, got.Timestamp)
		}
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		if _, err := Decode([]byte("{nope")); !errors.Is(err, ErrInvalidEvent) {
			t.Errorf("expected ErrInvalidEvent, got %v", err)
		}
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := Decode([]byte(`{"type":"habit.exploded","user_id":1,"habit_id":1}`))
		if !errors.Is(err, ErrInvalidEvent) {
			t.Errorf("expected ErrInvalidEvent, got %v", err)
		}
	})

	t.Run("rejects legacy untyped records payload", func(t *testing.T) {
		_, err := Decode([]byte(`{"userId":1,"habitId":2,"date":"2024-01-01","completed":true}`))
		if !errors.Is(err, ErrInvalidEvent) {
			t.Errorf("expected ErrInvalidEvent, got %v", err)
		}
	})

	t.Run("rejects missing ids", func(t *testing.T) {
		_, err := Decode([]byte(`{"type":"habit.created","user_id":1}`))
		if !errors.Is(err, ErrInvalidEvent) {
			t.Errorf("expected ErrInvalidEvent, got %v", err)
		}
	})
}
