// Package store handles all database and cache interactions.
//
// postgres.go -- pgxpool connection setup.
// Creates a connection pool at startup, shared across all handlers.
// All queries use parameterized statements (no string concatenation).
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The store used by both services to connect with Postgres.
// Habit queries live in postgres_habits.go, record queries in postgres_records.go.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a verified connection pool to PostgreSQL and
// returns a ready-to-use store.
// Call once at startup from main.go...the returned store is safe for concurrent use.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	// Create a pool w/ database url, return if err
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	// Ping db to make sure connection works
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return &PostgresStore{pool}, nil
}

// Close shuts down the connection pool and releases all resources.
// Supposed to call via defer in main.go after creating the store.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// CheckHealth pings Postgres; used by GET /health.
func (s *PostgresStore) CheckHealth(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
