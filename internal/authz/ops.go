// Package authz defines the relationship-operation vocabulary exchanged
// with the external, relationship-based authorization engine (spec.md
// §6.3), and the port (Engine) through which the outbox worker applies
// them. The engine itself — schema design, evaluation — is explicitly out
// of scope (spec.md §1); this package only models the wire contract.
package authz

import "context"

// Op is one of WriteRelationship, DeleteRelationship, DeleteAllRelationships.
// Translators (internal/outbox/translate) are pure functions producing
// []Op; nothing in this package performs I/O.
type Op interface {
	isOp()
}

// WriteRelationship writes the triple (resource, relation, subject).
// Idempotent on the engine side: re-applying is a no-op (spec.md §8).
type WriteRelationship struct {
	Resource string
	Relation string
	Subject  string
}

func (WriteRelationship) isOp() {}

// DeleteRelationship deletes the triple (resource, relation, subject).
// Idempotent: deleting an already-absent triple is a no-op.
type DeleteRelationship struct {
	Resource string
	Relation string
	Subject  string
}

func (DeleteRelationship) isOp() {}

// DeleteAllRelationships deletes every relationship naming resource as
// the resource side. Part of the wire vocabulary the authorization engine
// accepts (spec.md §6.3), but no translator currently emits it: every
// *Deleted event's payload carries enough of a snapshot to expand into
// individual DeleteRelationship ops instead, which is preferred because it
// does not depend on the engine enumerating state that may already be
// partially gone (see internal/outbox/translate).
type DeleteAllRelationships struct {
	Resource string
}

func (DeleteAllRelationships) isOp() {}

// Engine is the port through which the outbox worker applies operations
// to the external authorization engine (modeled on SpiceDB/Zanzibar, per
// original_source/src/api/shared_kernel/outbox/spicedb_translator.py).
// A failed Apply call must be classified by the caller as retryable or
// permanent via a domainerr.AuthorizationEngineError.
//
//go:generate mockgen --destination=engine.mock.go --package=authz . Engine
type Engine interface {
	Apply(ctx context.Context, op Op) error

	// CheckPermission reports whether subject holds permission on
	// resource, used by the auth pipeline's tenant-binding check
	// (spec.md §4.5 stage 4).
	CheckPermission(ctx context.Context, resource, permission, subject string) (bool, error)
}
