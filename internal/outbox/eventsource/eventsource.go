// Package eventsource wakes the outbox worker promptly after an append
// (spec.md §4.3: "the worker wakes on LISTEN/NOTIFY... falls back to
// polling"). It never reads outbox rows itself — it only produces wake
// signals on a channel the worker selects on.
package eventsource

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kartohq/iam/internal/platform/log"
)

// DefaultChannel is the Postgres NOTIFY channel the outbox-insert trigger
// publishes to (spec.md §6.1's AFTER INSERT trigger).
const DefaultChannel = "iam_outbox_events"

// Listen subscribes to channel over a dedicated connection and forwards a
// signal to the returned channel on every notification. On connection
// loss it reconnects with exponential backoff (capped at 30s) until ctx
// is canceled. The returned channel has a buffer of one and sends are
// non-blocking, coalescing bursts into a single wake (the worker drains
// until empty on each wake, so no notification is ever lost in practice).
func Listen(ctx context.Context, pool *pgxpool.Pool, channel string, logger log.Logger) <-chan struct{} {
	if logger == nil {
		logger = &log.NoneLogger{}
	}

	wake := make(chan struct{}, 1)

	go func() {
		backoff := time.Second
		const maxBackoff = 30 * time.Second

		for {
			if ctx.Err() != nil {
				return
			}

			if err := listenOnce(ctx, pool, channel, wake); err != nil {
				logger.Warnf("eventsource: listen connection lost, retrying in %s: %v", backoff, err)

				select {
				case <-ctx.Done():
					return
				case <-time.After(backoff):
				}

				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}

				continue
			}

			backoff = time.Second
		}
	}()

	return wake
}

// listenOnce acquires a dedicated connection, issues LISTEN, and blocks
// forwarding notifications until ctx is canceled or the connection drops.
func listenOnce(ctx context.Context, pool *pgxpool.Pool, channel string, wake chan<- struct{}) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgxIdentifier(channel)); err != nil {
		return err
	}

	for {
		if _, err := conn.Conn().WaitForNotification(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		select {
		case wake <- struct{}{}:
		default:
		}
	}
}

// pgxIdentifier quotes channel as a Postgres identifier. LISTEN does not
// accept bind parameters, so the channel name must be embedded directly;
// it is always a compile-time constant chosen by this service, never
// user input.
func pgxIdentifier(channel string) string {
	return `"` + channel + `"`
}

// Poll emits a wake signal every interval, as a fallback for deployments
// where LISTEN/NOTIFY is unavailable (spec.md §4.3).
func Poll(ctx context.Context, interval time.Duration) <-chan struct{} {
	wake := make(chan struct{}, 1)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case wake <- struct{}{}:
				default:
				}
			}
		}
	}()

	return wake
}

// Merge fans multiple wake channels into one.
func Merge(ctx context.Context, sources ...<-chan struct{}) <-chan struct{} {
	out := make(chan struct{}, 1)

	for _, src := range sources {
		src := src
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-src:
					if !ok {
						return
					}
					select {
					case out <- struct{}{}:
					default:
					}
				}
			}
		}()
	}

	return out
}
