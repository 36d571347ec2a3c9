// Package worker implements C3 (spec.md §4.3): the background process
// that drains the transactional outbox, translates each entry into
// authorization-engine operations, applies them, and advances or retries
// the entry. Grounded on the teacher's worker-loop shape in
// common/app.go's graceful-shutdown pattern, generalized from an HTTP
// server loop to a poll-wake-fetch-apply loop.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"

	"github.com/kartohq/iam/internal/authz"
	"github.com/kartohq/iam/internal/domainerr"
	"github.com/kartohq/iam/internal/outbox"
	"github.com/kartohq/iam/internal/outbox/translate"
	"github.com/kartohq/iam/internal/platform/log"
)

const tracerName = "github.com/kartohq/iam/internal/outbox/worker"

// Config controls batch size, retry behavior, and quarantine threshold
// (spec.md §4.3).
type Config struct {
	BatchSize      int
	MaxAttempts    int
	BaseBackoff    time.Duration
	MaxBackoff     time.Duration
	PollOnEmpty    time.Duration
}

// DefaultConfig mirrors the values documented in spec.md §6.4.
func DefaultConfig() Config {
	return Config{
		BatchSize:   100,
		MaxAttempts: 10,
		BaseBackoff: 500 * time.Millisecond,
		MaxBackoff:  5 * time.Minute,
		PollOnEmpty: 5 * time.Second,
	}
}

// Worker drains the outbox, one aggregate-ordered batch at a time.
type Worker struct {
	pool       *pgxpool.Pool
	repo       outbox.Repository
	translator *translate.Composite
	engine     authz.Engine
	cfg        Config
	logger     log.Logger
}

// New builds a Worker. logger may be nil, in which case a NoneLogger is
// used.
func New(pool *pgxpool.Pool, repo outbox.Repository, engine authz.Engine, cfg Config, logger log.Logger) *Worker {
	if logger == nil {
		logger = &log.NoneLogger{}
	}

	return &Worker{
		pool:       pool,
		repo:       repo,
		translator: translate.DefaultComposite(),
		engine:     engine,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run drains the outbox until ctx is canceled, waking on every signal
// delivered to wake (from internal/outbox/eventsource) and otherwise
// falling back to cfg.PollOnEmpty between batches that found no work.
func (w *Worker) Run(ctx context.Context, wake <-chan struct{}) {
	ticker := time.NewTicker(w.cfg.PollOnEmpty)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-wake:
			w.drainUntilEmpty(ctx)
		case <-ticker.C:
			w.drainUntilEmpty(ctx)
		}
	}
}

// drainUntilEmpty repeatedly processes batches until a batch returns
// fewer entries than requested, so a burst of events is drained without
// waiting for the next wake signal.
func (w *Worker) drainUntilEmpty(ctx context.Context) {
	for {
		n, err := w.processBatch(ctx)
		if err != nil {
			w.logger.Errorf("outbox worker: batch failed: %v", err)
			return
		}

		if n < w.cfg.BatchSize {
			return
		}
	}
}

// processBatch fetches up to cfg.BatchSize unprocessed entries inside a
// short transaction (releasing row locks as soon as the fetch commits),
// then applies each outside that transaction — the authorization engine
// call never happens while holding a database lock (spec.md §4.3).
func (w *Worker) processBatch(ctx context.Context) (int, error) {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}

	entries, err := w.repo.FetchUnprocessed(ctx, tx, w.cfg.BatchSize)
	if err != nil {
		_ = tx.Rollback(ctx)
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	// entries arrive ordered by created_at ascending (global order), which
	// is also a valid per-aggregate order for any subsequence sharing an
	// aggregate_id. Once one entry for an aggregate fails within this pass,
	// every later entry for that same aggregate must be skipped so a
	// blocked aggregate never applies its mutations out of order
	// (spec.md §4.3 "Ordering guarantees").
	blocked := make(map[string]bool)
	for _, entry := range entries {
		if blocked[entry.AggregateID] {
			continue
		}

		if !w.processEntry(ctx, entry) {
			blocked[entry.AggregateID] = true
		}
	}

	return len(entries), nil
}

// processEntry applies entry's operations to the authorization engine and
// advances or retries it, reporting whether the aggregate may continue
// (true) or is now blocked for the remainder of this pass (false).
func (w *Worker) processEntry(ctx context.Context, entry outbox.Entry) bool {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "outbox.process_entry")
	span.SetAttributes(
		attribute.String("outbox.aggregate_id", entry.AggregateID),
		attribute.String("outbox.event_type", string(entry.EventType)),
	)
	defer span.End()

	ops, err := w.translator.Translate(entry.EventType, entry.Payload)
	if err != nil {
		// Unknown event type or malformed payload: never retryable,
		// quarantine immediately.
		span.SetStatus(otelcodes.Error, "translate failed")
		w.quarantine(ctx, entry, err)
		return false
	}

	for _, op := range ops {
		if err := w.engine.Apply(ctx, op); err != nil {
			span.SetStatus(otelcodes.Error, "engine apply failed")
			w.handleApplyFailure(ctx, entry, err)
			return false
		}
	}

	if err := w.repo.MarkProcessed(ctx, w.pool, entry.ID); err != nil {
		span.SetStatus(otelcodes.Error, "mark processed failed")
		w.logger.Errorf("outbox worker: mark processed failed for %s: %v", entry.ID, err)
		return false
	}

	return true
}

func (w *Worker) handleApplyFailure(ctx context.Context, entry outbox.Entry, cause error) {
	var authzErr domainerr.AuthorizationEngineError
	if errors.As(cause, &authzErr) && authzErr.Permanent {
		w.quarantine(ctx, entry, cause)
		return
	}

	attempt := entry.RetryCount + 1
	if attempt >= w.cfg.MaxAttempts {
		w.quarantine(ctx, entry, cause)
		return
	}

	backoff := calculateBackoff(attempt, w.cfg.BaseBackoff, w.cfg.MaxBackoff)
	nextRetryAt := time.Now().UTC().Add(backoff)

	if err := w.repo.RecordFailure(ctx, w.pool, entry.ID, cause, attempt, w.cfg.MaxAttempts, nextRetryAt); err != nil {
		w.logger.Errorf("outbox worker: record failure failed for %s: %v", entry.ID, err)
		return
	}

	w.logger.Warnf("outbox worker: entry %s failed (attempt %d/%d), next retry in %s: %v",
		entry.ID, attempt, w.cfg.MaxAttempts, backoff, cause)
}

func (w *Worker) quarantine(ctx context.Context, entry outbox.Entry, cause error) {
	if err := w.repo.RecordFailure(ctx, w.pool, entry.ID, cause, w.cfg.MaxAttempts, w.cfg.MaxAttempts, time.Now().UTC()); err != nil {
		w.logger.Errorf("outbox worker: quarantine failed for %s: %v", entry.ID, err)
		return
	}

	w.logger.Errorf("outbox worker: entry %s quarantined after %d attempts: %v", entry.ID, w.cfg.MaxAttempts, cause)
}

// calculateBackoff returns a full-jitter-free exponential delay, capped at
// maxBackoff (spec.md §4.3: "exponential backoff between retries").
func calculateBackoff(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}

	if d > max {
		return max
	}

	return d
}
