// Package pgoutbox is the Postgres implementation of outbox.Repository
// (spec.md §4.2/§6.1), built on jackc/pgx/v5 and Masterminds/squirrel, the
// same pairing the teacher uses for its relational adapters (grounded on
// LerianStudio-midaz's postgres repositories, adapted from database/sql to
// pgx so FetchUnprocessed can run FOR UPDATE SKIP LOCKED inside a
// caller-supplied pgx.Tx).
package pgoutbox

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kartohq/iam/internal/domain/event"
	"github.com/kartohq/iam/internal/domainerr"
	"github.com/kartohq/iam/internal/outbox"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repository is the pgx-backed outbox.Repository.
type Repository struct{}

// New builds a Repository. It is stateless: every method takes the
// connection (tx or pool) it runs against explicitly, per the explicit
// unit-of-work pattern (design note 9).
func New() *Repository {
	return &Repository{}
}

// Append inserts evt as one outbox row inside tx, the same transaction the
// calling aggregate's state change is persisted in (spec.md §4.1: "state
// change and event recording are atomic").
func (r *Repository) Append(ctx context.Context, tx pgx.Tx, evt event.Event, aggregateType, aggregateID string) error {
	payload, err := outbox.Serialize(evt)
	if err != nil {
		return err
	}

	query, args, err := insertQuery(uuid.New(), aggregateType, aggregateID, evt.EventType(), payload, evt.OccurredAt(), time.Now().UTC())
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return domainerr.FromPostgres(err, "outbox", "")
	}

	return nil
}

// insertQuery builds the outbox row insert, every dynamic value taken as a
// parameter so it can be unit tested without a generated id or clock.
func insertQuery(id uuid.UUID, aggregateType, aggregateID string, eventType event.Type, payload []byte, occurredAt, createdAt time.Time) (string, []any, error) {
	return psql.Insert("outbox").
		Columns("id", "aggregate_type", "aggregate_id", "event_type", "payload", "occurred_at", "created_at").
		Values(id, aggregateType, aggregateID, string(eventType), payload, occurredAt, createdAt).
		ToSql()
}

// FetchUnprocessed locks and returns up to limit unprocessed, non-quarantined
// rows ordered by created_at ascending — the global processing order
// (spec.md §4.2, §3 outbox entry invariants). Because the result is
// globally ordered, any subsequence sharing an aggregate_id is also in
// per-aggregate order, which is all the worker's per-aggregate grouping
// (spec.md §4.3 step 3) needs — grouping by aggregate_id happens in the
// worker, not here, so a partial batch never reorders one aggregate's
// entries relative to each other. FOR UPDATE SKIP LOCKED lets concurrent
// worker instances fetch disjoint batches without blocking each other.
func (r *Repository) FetchUnprocessed(ctx context.Context, tx pgx.Tx, limit int) ([]outbox.Entry, error) {
	query, args, err := fetchUnprocessedQuery(limit, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, domainerr.FromPostgres(err, "outbox", "")
	}
	defer rows.Close()

	var entries []outbox.Entry
	for rows.Next() {
		var e outbox.Entry
		if err := rows.Scan(
			&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload,
			&e.OccurredAt, &e.CreatedAt, &e.ProcessedAt, &e.RetryCount, &e.LastError, &e.FailedAt, &e.NextRetryAt,
		); err != nil {
			return nil, err
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// fetchUnprocessedQuery builds the SKIP LOCKED fetch (spec.md §4.2). A row
// with a future next_retry_at is excluded: it is mid-backoff and must not
// be retried before its delay elapses. Every entry of an aggregate that
// has a quarantined row is excluded too, until that row is cleared.
func fetchUnprocessedQuery(limit int, now time.Time) (string, []any, error) {
	return psql.Select(
		"id", "aggregate_type", "aggregate_id", "event_type", "payload",
		"occurred_at", "created_at", "processed_at", "retry_count", "last_error", "failed_at", "next_retry_at",
	).
		From("outbox").
		Where(sq.Eq{"processed_at": nil}).
		Where(sq.Eq{"failed_at": nil}).
		Where(sq.Or{sq.Eq{"next_retry_at": nil}, sq.LtOrEq{"next_retry_at": now}}).
		Where("NOT EXISTS (SELECT 1 FROM outbox q WHERE q.aggregate_id = outbox.aggregate_id AND q.failed_at IS NOT NULL)").
		OrderBy("created_at ASC").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
}

// MarkProcessed sets processed_at on a successfully applied entry.
func (r *Repository) MarkProcessed(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID) error {
	query, args, err := markProcessedQuery(id, time.Now().UTC())
	if err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, query, args...); err != nil {
		return domainerr.FromPostgres(err, "outbox", "")
	}

	return nil
}

func markProcessedQuery(id uuid.UUID, processedAt time.Time) (string, []any, error) {
	return psql.Update("outbox").
		Set("processed_at", processedAt).
		Where(sq.Eq{"id": id}).
		ToSql()
}

// RecordFailure increments retry_count and records cause; once attempt
// reaches maxAttempts, failed_at is set, quarantining the row until an
// operator clears it (spec.md §4.3). Otherwise next_retry_at is set so
// FetchUnprocessed skips the row until the caller's computed backoff
// elapses.
func (r *Repository) RecordFailure(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID, cause error, attempt, maxAttempts int, nextRetryAt time.Time) error {
	query, args, err := recordFailureQuery(id, cause.Error(), attempt, maxAttempts, time.Now().UTC(), nextRetryAt)
	if err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, query, args...); err != nil {
		return domainerr.FromPostgres(err, "outbox", "")
	}

	return nil
}

func recordFailureQuery(id uuid.UUID, lastError string, attempt, maxAttempts int, failedAt, nextRetryAt time.Time) (string, []any, error) {
	b := psql.Update("outbox").
		Set("retry_count", attempt).
		Set("last_error", lastError)

	if attempt >= maxAttempts {
		b = b.Set("failed_at", failedAt)
	} else {
		b = b.Set("next_retry_at", nextRetryAt)
	}

	return b.Where(sq.Eq{"id": id}).ToSql()
}
