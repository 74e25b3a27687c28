// postgres_habits.go -- habit queries.
//
// Update and delete filter on BOTH id and user_id, so a non-owner's request
// matches zero rows and surfaces as ErrNotFound. Ownership is never checked
// in a separate read.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const habitColumns = "id, user_id, name, description, created_at, updated_at"

// ListHabitsByUser returns every habit owned by userID, ordered by ascending id.
// Returns an empty (non-nil) slice when the user has no habits.
func (s *PostgresStore) ListHabitsByUser(ctx context.Context, userID int64) ([]Habit, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+habitColumns+" FROM habits WHERE user_id = $1 ORDER BY id",
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying habits: %w", err)
	}

	habits, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Habit])
	if err != nil {
		return nil, fmt.Errorf("scanning habits: %w", err)
	}
	if habits == nil {
		habits = []Habit{}
	}
	return habits, nil
}

// CreateHabit inserts a new habit for userID and returns the stored row.
// description may be nil (SQL NULL).
func (s *PostgresStore) CreateHabit(ctx context.Context, userID int64, name string, description *string) (*Habit, error) {
	var h Habit
	err := s.pool.QueryRow(ctx,
		"INSERT INTO habits (user_id, name, description) VALUES ($1, $2, $3) RETURNING "+habitColumns,
		userID, name, description,
	).Scan(&h.ID, &h.UserID, &h.Name, &h.Description, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting habit: %w", err)
	}
	return &h, nil
}

// UpdateHabit sets name and description on habit id owned by userID and bumps updated_at.
// Returns ErrNotFound if the habit doesn't exist or belongs to someone else.
func (s *PostgresStore) UpdateHabit(ctx context.Context, userID, id int64, name string, description *string) (*Habit, error) {
	var h Habit
	err := s.pool.QueryRow(ctx, `
		UPDATE habits
		SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4
		RETURNING `+habitColumns,
		name, description, id, userID,
	).Scan(&h.ID, &h.UserID, &h.Name, &h.Description, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating habit: %w", err)
	}
	return &h, nil
}

// DeleteHabit hard-deletes habit id owned by userID.
// Returns ErrNotFound if the habit doesn't exist or belongs to someone else.
func (s *PostgresStore) DeleteHabit(ctx context.Context, userID, id int64) error {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM habits WHERE id = $1 AND user_id = $2",
		id, userID)
	if err != nil {
		return fmt.Errorf("deleting habit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
