// Package apikeydomain implements the API Key aggregate (spec.md §3/§4.1):
// {id, owner_user_id, tenant_id, name, prefix, hash, created_at,
// expires_at, last_used_at?, is_revoked}. Name unique per (owner, tenant).
// Revoked keys cannot be un-revoked; expired keys are invalid; the
// plaintext secret exists only at creation time (it never reaches this
// package — see internal/apikey for generation/hashing).
package apikeydomain

import (
	"time"

	"github.com/kartohq/iam/internal/domain/event"
	"github.com/kartohq/iam/internal/domainerr"
	"github.com/kartohq/iam/internal/platform/id"
)

const maxNameLength = 255

type APIKey struct {
	ID          string
	OwnerUserID string
	TenantID    string
	Name        string
	Prefix      string
	Hash        string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	LastUsedAt  *time.Time
	IsRevoked   bool

	pending []event.Event
}

// New constructs an APIKey around an already-generated prefix/hash pair
// (see internal/apikey.Generate/Hash), recording APIKeyCreated.
func New(ownerUserID, tenantID, name, prefix, hash string, expiresAt time.Time) (*APIKey, error) {
	if len(name) == 0 || len(name) > maxNameLength {
		return nil, domainerr.NewInvariantViolation("api_key", "api key name must be 1-255 characters")
	}

	now := time.Now().UTC()
	k := &APIKey{
		ID:          id.New(),
		OwnerUserID: ownerUserID,
		TenantID:    tenantID,
		Name:        name,
		Prefix:      prefix,
		Hash:        hash,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
	}

	k.record(event.APIKeyCreated{APIKeyID: k.ID, OwnerID: ownerUserID, TenantID: tenantID, Occurred: now})

	return k, nil
}

func Rehydrate(id, ownerUserID, tenantID, name, prefix, hash string, createdAt, expiresAt time.Time, lastUsedAt *time.Time, isRevoked bool) *APIKey {
	return &APIKey{
		ID: id, OwnerUserID: ownerUserID, TenantID: tenantID, Name: name, Prefix: prefix, Hash: hash,
		CreatedAt: createdAt, ExpiresAt: expiresAt, LastUsedAt: lastUsedAt, IsRevoked: isRevoked,
	}
}

// IsExpired reports whether the key has expired as of now.
func (k *APIKey) IsExpired(now time.Time) bool {
	return !k.ExpiresAt.IsZero() && !k.ExpiresAt.After(now)
}

// RecordUsage is a side-effect-only mutator: it does not record an event,
// because usage is not an authorization-significant fact (spec.md §4.1).
func (k *APIKey) RecordUsage(now time.Time) {
	k.LastUsedAt = &now
}

// Revoke is a one-way door: sets IsRevoked, records APIKeyRevoked, but
// does not touch authorization relationships (spec.md §4.6 — revoked keys
// still appear in listings for audit; see DESIGN.md's Open Question
// resolution for why relationships are retained rather than modeled
// relationally).
func (k *APIKey) Revoke() error {
	if k.IsRevoked {
		return domainerr.NewInvariantViolation("api_key", "api key is already revoked")
	}

	k.IsRevoked = true
	k.record(event.APIKeyRevoked{APIKeyID: k.ID, Occurred: time.Now().UTC()})

	return nil
}

// Delete records APIKeyDeleted, removing both owner and tenant
// relationships (spec.md §6.3).
func (k *APIKey) Delete() {
	k.record(event.APIKeyDeleted{APIKeyID: k.ID, OwnerID: k.OwnerUserID, TenantID: k.TenantID, Occurred: time.Now().UTC()})
}

func (k *APIKey) record(e event.Event) {
	k.pending = append(k.pending, e)
}

func (k *APIKey) CollectEvents() []event.Event {
	evts := k.pending
	k.pending = nil

	return evts
}
