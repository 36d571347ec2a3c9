// Package outbox implements C2 (spec.md §4.2): the transactional outbox
// repository port, entry shape, and event serialization registry. The
// worker that drains it lives in internal/outbox/worker; the translators
// that turn entries into authorization-engine operations live in
// internal/outbox/translate.
package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/kartohq/iam/internal/domain/event"
)

// Entry is one row of the outbox table (spec.md §3/§6.1).
//
// Invariants upheld by the repository, never by callers:
//   - ProcessedAt is monotonic; once set it is never cleared.
//   - An entry with FailedAt set is quarantined.
//   - CreatedAt provides global processing order; (AggregateID, CreatedAt)
//     provides per-aggregate order.
type Entry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     event.Type
	Payload       json.RawMessage
	OccurredAt    time.Time
	CreatedAt     time.Time
	ProcessedAt   *time.Time
	RetryCount    int
	LastError     *string
	FailedAt      *time.Time
	NextRetryAt   *time.Time
}

// IsQuarantined reports whether the entry has been parked after exceeding
// MAX_ATTEMPTS and requires operator action to clear.
func (e Entry) IsQuarantined() bool {
	return e.FailedAt != nil
}

// IsProcessed reports whether the entry has already been applied.
func (e Entry) IsProcessed() bool {
	return e.ProcessedAt != nil
}
