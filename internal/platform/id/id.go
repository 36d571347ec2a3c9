// Package id generates the two identifier shapes used across the IAM
// core: locally generated, lexicographically sortable ULIDs for every
// aggregate (tenant, group, workspace, API key) and UUIDs for outbox rows,
// matching spec.md §3's identifier rules.
package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// New returns a new 26-character, lexicographically sortable ULID string.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewUUID returns a new random UUID, used for outbox row primary keys per
// spec.md §6.1 (`outbox(id uuid pk, ...)`).
func NewUUID() uuid.UUID {
	return uuid.New()
}
