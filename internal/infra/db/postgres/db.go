// Package postgres stores aggregates and the outbox in PostgreSQL through
// database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects and pings the database.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS listings (
		id               TEXT PRIMARY KEY,
		owner_id         TEXT NOT NULL,
		title            TEXT NOT NULL,
		description      TEXT NOT NULL DEFAULT '',
		category         TEXT NOT NULL,
		state            TEXT NOT NULL,
		turnaround_days  INTEGER NOT NULL DEFAULT 0,
		min_rental_days  INTEGER NOT NULL DEFAULT 0,
		max_rental_days  INTEGER NOT NULL DEFAULT 0,
		license_required BOOLEAN NOT NULL DEFAULT FALSE,
		license_type     TEXT NOT NULL DEFAULT '',
		daily_rate       JSONB NOT NULL,
		deposit          JSONB NOT NULL,
		delivery         JSONB NOT NULL,
		services         JSONB NOT NULL,
		photos           JSONB NOT NULL DEFAULT '[]',
		version          BIGINT NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS listings_owner_idx ON listings (owner_id, updated_at DESC)`,
	`CREATE INDEX IF NOT EXISTS listings_state_category_idx ON listings (state, category)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id               TEXT PRIMARY KEY,
		listing_id       TEXT NOT NULL,
		owner_id         TEXT NOT NULL,
		renter_id        TEXT NOT NULL,
		renter_email     TEXT NOT NULL DEFAULT '',
		start_date       DATE NOT NULL,
		end_date         DATE NOT NULL,
		buffer_days      INTEGER NOT NULL DEFAULT 0,
		status           TEXT NOT NULL,
		snapshot         JSONB NOT NULL,
		message          TEXT NOT NULL DEFAULT '',
		license_attested BOOLEAN NOT NULL DEFAULT FALSE,
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL,
		decided_at       TIMESTAMPTZ,
		version          BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS bookings_listing_status_idx ON bookings (listing_id, status, start_date)`,
	`CREATE INDEX IF NOT EXISTS bookings_owner_idx ON bookings (owner_id, status)`,
	`CREATE INDEX IF NOT EXISTS bookings_renter_idx ON bookings (renter_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		payload         BYTEA NOT NULL,
		occurred_at     TIMESTAMPTZ NOT NULL,
		aggregate       TEXT NOT NULL,
		headers         JSONB NOT NULL DEFAULT '{}',
		state           TEXT NOT NULL,
		attempts        INTEGER NOT NULL DEFAULT 0,
		next_attempt_at TIMESTAMPTZ NOT NULL,
		claimed_by      TEXT NOT NULL DEFAULT '',
		claimed_at      TIMESTAMPTZ,
		sent_at         TIMESTAMPTZ,
		last_error      TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS outbox_due_idx ON outbox_events (state, next_attempt_at)`,
}

// asDate drops the zone a DATE column comes back with.
func asDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
