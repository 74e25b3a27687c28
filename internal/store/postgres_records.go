// postgres_records.go -- habit completion record queries.
//
// The UNIQUE(user_id, habit_id, record_date) constraint is the only thing
// guaranteeing one record per day; UpsertRecord leans on ON CONFLICT rather
// than read-then-write so concurrent retries can't produce duplicates.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const recordColumns = "id, user_id, habit_id, to_char(record_date, 'YYYY-MM-DD'), completed, created_at, updated_at"

func scanRecord(row pgx.Row) (*HabitRecord, error) {
	var rec HabitRecord
	err := row.Scan(&rec.ID, &rec.UserID, &rec.HabitID, &rec.Date, &rec.Completed, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetRecord fetches the record for (userID, habitID, date).
// Returns ErrNotFound if no record exists for that day.
func (s *PostgresStore) GetRecord(ctx context.Context, userID, habitID int64, date time.Time) (*HabitRecord, error) {
	rec, err := scanRecord(s.pool.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM habit_records
		WHERE user_id = $1 AND habit_id = $2 AND record_date = $3
		LIMIT 1`,
		userID, habitID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching record: %w", err)
	}
	return rec, nil
}

// UpsertRecord atomically inserts the record for (userID, habitID, date) or,
// if one exists, sets completed and refreshes updated_at. Returns the stored row;
// the id is stable across repeated upserts of the same tuple.
func (s *PostgresStore) UpsertRecord(ctx context.Context, userID, habitID int64, date time.Time, completed bool) (*HabitRecord, error) {
	rec, err := scanRecord(s.pool.QueryRow(ctx, `
		INSERT INTO habit_records (user_id, habit_id, record_date, completed)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, habit_id, record_date)
		DO UPDATE SET completed = EXCLUDED.completed, updated_at = NOW()
		RETURNING `+recordColumns,
		userID, habitID, date, completed))
	if err != nil {
		return nil, fmt.Errorf("upserting record: %w", err)
	}
	return rec, nil
}

// DeleteRecord removes the record for (userID, habitID, date).
// Returns the number of rows removed (0 or 1); deleting an absent record is not an error.
func (s *PostgresStore) DeleteRecord(ctx context.Context, userID, habitID int64, date time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM habit_records WHERE user_id = $1 AND habit_id = $2 AND record_date = $3",
		userID, habitID, date)
	if err != nil {
		return 0, fmt.Errorf("deleting record: %w", err)
	}
	return tag.RowsAffected(), nil
}
