package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kartohq/iam/internal/domain/event"
)

// Repository is the C2 port (spec.md §4.2). Append runs inside the
// caller's transaction (explicit unit-of-work, per design note 9);
// FetchUnprocessed likewise, so the worker can lock-then-release within
// one short transaction. MarkProcessed/RecordFailure take the pool
// directly because they run in their own short transaction, distinct from
// the fetch transaction (spec.md §4.3: never hold a transaction across a
// call to the authorization engine).
//
//go:generate mockgen --destination=repository.mock.go --package=outbox . Repository
type Repository interface {
	Append(ctx context.Context, tx pgx.Tx, evt event.Event, aggregateType, aggregateID string) error
	// FetchUnprocessed excludes rows whose NextRetryAt is still in the
	// future, so a backed-off entry isn't retried before its delay elapses.
	FetchUnprocessed(ctx context.Context, tx pgx.Tx, limit int) ([]Entry, error)
	MarkProcessed(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID) error
	RecordFailure(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID, cause error, attempt, maxAttempts int, nextRetryAt time.Time) error
}
