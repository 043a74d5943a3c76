package telemetry

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists provider events to the provider_events table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL event store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the events table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS provider_events (
			id            BIGSERIAL PRIMARY KEY,
			area          TEXT        NOT NULL,
			event_type    TEXT        NOT NULL,
			provider_id   TEXT        NOT NULL,
			message       TEXT        NOT NULL DEFAULT '',
			duration_ms   DOUBLE PRECISION,
			result_count  INTEGER,
			fallback_used BOOLEAN     NOT NULL DEFAULT FALSE,
			reason        TEXT        NOT NULL DEFAULT '',
			error         TEXT        NOT NULL DEFAULT '',
			request_id    TEXT        NOT NULL DEFAULT '',
			occurred_at   TIMESTAMPTZ NOT NULL
		);
		ALTER TABLE provider_events
			ADD COLUMN IF NOT EXISTS request_id TEXT NOT NULL DEFAULT '';
		CREATE INDEX IF NOT EXISTS provider_events_provider_time_idx
			ON provider_events (provider_id, occurred_at DESC);
		CREATE INDEX IF NOT EXISTS provider_events_request_idx
			ON provider_events (request_id) WHERE request_id <> '';
	`

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create provider_events: %w", err)
	}
	return nil
}

// WriteEvents inserts events in a single batch round trip.
func (s *PostgresStore) WriteEvents(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	query := `
		INSERT INTO provider_events (
			area, event_type, provider_id, message, duration_ms,
			result_count, fallback_used, reason, error, request_id, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	batch := &pgx.Batch{}
	for _, e := range events {
		var (
			durationMs  *float64
			resultCount *int
		)
		if e.Type == EventSuccess || e.Type == EventFailure {
			ms := float64(e.Duration.Microseconds()) / 1000
			durationMs = &ms
		}
		if e.Type == EventSuccess {
			n := e.ResultCount
			resultCount = &n
		}

		batch.Queue(query,
			string(e.Area),
			string(e.Type),
			e.ProviderID,
			e.Message,
			durationMs,
			resultCount,
			e.FallbackUsed,
			e.Reason,
			e.Error,
			e.RequestID,
			e.At,
		)
	}

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert provider events: %w", err)
	}
	return nil
}
