// stores.go
//
// Shared mock implementations of the handler-side interfaces
// (habits.Store, habits.Cache, records.Store, and both Publishers).
// Imported by test files across packages to avoid duplicate mock definitions.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MGallo-Code/habitual/internal/events"
	"github.com/MGallo-Code/habitual/internal/store"
)

// MockHabitStore implements habits.Store for tests.
// Always stateful...Habits is a map keyed by id, like a real table.
// Update/Delete filter on owner exactly like the SQL does.
// Use *Err fields to inject errors for specific operations.
type MockHabitStore struct {
	// Error injection...zero value means no error
	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error

	Habits map[int64]*store.Habit
	// ListCalls counts ListHabitsByUser calls, for cache-hit assertions.
	ListCalls int

	nextID int64
	mu     sync.Mutex
}

// NewMockHabitStore returns an empty MockHabitStore ready for use.
func NewMockHabitStore() *MockHabitStore {
	return &MockHabitStore{Habits: make(map[int64]*store.Habit)}
}

func (m *MockHabitStore) ListHabitsByUser(_ context.Context, userID int64) ([]store.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := []store.Habit{}
	for id := int64(1); id <= m.nextID; id++ {
		if h, ok := m.Habits[id]; ok && h.UserID == userID {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (m *MockHabitStore) CreateHabit(_ context.Context, userID int64, name string, description *string) (*store.Habit, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Habits == nil {
		m.Habits = make(map[int64]*store.Habit)
	}
	m.nextID++
	now := time.Now().UTC()
	h := &store.Habit{
		ID:          m.nextID,
		UserID:      userID,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.Habits[h.ID] = h
	cp := *h
	return &cp, nil
}

func (m *MockHabitStore) UpdateHabit(_ context.Context, userID, id int64, name string, description *string) (*store.Habit, error) {
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.Habits[id]
	if !ok || h.UserID != userID {
		return nil, store.ErrNotFound
	}
	h.Name = name
	h.Description = description
	h.UpdatedAt = time.Now().UTC()
	cp := *h
	return &cp, nil
}

func (m *MockHabitStore) DeleteHabit(_ context.Context, userID, id int64) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.Habits[id]
	if !ok || h.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.Habits, id)
	return nil
}

// MockCache implements habits.Cache and events.CacheInvalidator for tests.
// Always stateful...Entries is a map keyed by user id, like a real cache.
// Expiry is not simulated; TTLs records the last TTL passed per user.
type MockCache struct {
	// Error injection...zero value means no error
	GetErr    error
	SetErr    error
	DeleteErr error

	Entries map[int64][]store.Habit
	TTLs    map[int64]time.Duration
	Deletes []int64

	mu sync.Mutex
}

// NewMockCache returns an empty MockCache ready for use.
func NewMockCache() *MockCache {
	return &MockCache{
		Entries: make(map[int64][]store.Habit),
		TTLs:    make(map[int64]time.Duration),
	}
}

func (m *MockCache) GetHabits(_ context.Context, userID int64) ([]store.Habit, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.Entries[userID]
	if !ok {
		return nil, store.ErrCacheMiss
	}
	return append([]store.Habit{}, h...), nil
}

func (m *MockCache) SetHabits(_ context.Context, userID int64, habits []store.Habit, ttl time.Duration) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Entries == nil {
		m.Entries = make(map[int64][]store.Habit)
		m.TTLs = make(map[int64]time.Duration)
	}
	m.Entries[userID] = append([]store.Habit{}, habits...)
	m.TTLs[userID] = ttl
	return nil
}

func (m *MockCache) DeleteHabits(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletes = append(m.Deletes, userID)
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.Entries, userID)
	return nil
}

// Has reports whether userID currently has a cache entry.
func (m *MockCache) Has(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Entries[userID]
	return ok
}

// MockRecordStore implements records.Store for tests.
// Stateful and keyed by (user, habit, day) so upsert semantics match the UNIQUE constraint.
type MockRecordStore struct {
	// Error injection...zero value means no error
	GetErr    error
	UpsertErr error
	DeleteErr error

	Records map[RecordKey]*store.HabitRecord

	nextID int64
	mu     sync.Mutex
}

// RecordKey identifies one record, mirroring the (user_id, habit_id, record_date) constraint.
type RecordKey struct {
	UserID  int64
	HabitID int64
	Date    string
}

// NewMockRecordStore returns an empty MockRecordStore ready for use.
func NewMockRecordStore() *MockRecordStore {
	return &MockRecordStore{Records: make(map[RecordKey]*store.HabitRecord)}
}

func (m *MockRecordStore) GetRecord(_ context.Context, userID, habitID int64, date time.Time) (*store.HabitRecord, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.Records[RecordKey{userID, habitID, date.Format(store.DateLayout)}]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *MockRecordStore) UpsertRecord(_ context.Context, userID, habitID int64, date time.Time, completed bool) (*store.HabitRecord, error) {
	if m.UpsertErr != nil {
		return nil, m.UpsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Records == nil {
		m.Records = make(map[RecordKey]*store.HabitRecord)
	}
	key := RecordKey{userID, habitID, date.Format(store.DateLayout)}
	now := time.Now().UTC()
	rec, ok := m.Records[key]
	if ok {
		rec.Completed = completed
		rec.UpdatedAt = now
	} else {
		m.nextID++
		rec = &store.HabitRecord{
			ID:        m.nextID,
			UserID:    userID,
			HabitID:   habitID,
			Date:      key.Date,
			Completed: completed,
			CreatedAt: now,
			UpdatedAt: now,
		}
		m.Records[key] = rec
	}
	cp := *rec
	return &cp, nil
}

func (m *MockRecordStore) DeleteRecord(_ context.Context, userID, habitID int64, date time.Time) (int64, error) {
	if m.DeleteErr != nil {
		return 0, m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := RecordKey{userID, habitID, date.Format(store.DateLayout)}
	if _, ok := m.Records[key]; !ok {
		return 0, nil
	}
	delete(m.Records, key)
	return 1, nil
}

// ErrBrokerDown is a convenience error for publish-failure tests.
var ErrBrokerDown = errors.New("broker unavailable")

// MockPublisher implements habits.Publisher and records.Publisher.
// Records every event it was asked to publish, even when Err is set.
type MockPublisher struct {
	Err    error
	Events []events.Event

	mu sync.Mutex
}

func (m *MockPublisher) Publish(_ context.Context, ev events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
	return m.Err
}

// Published returns a copy of the events published so far.
func (m *MockPublisher) Published() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.Event{}, m.Events...)
}
