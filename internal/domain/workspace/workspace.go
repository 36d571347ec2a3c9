// Package workspace implements the Workspace aggregate (spec.md §3/§4.1):
// {id, tenant_id, name, parent_id?, is_root, created_at, updated_at}.
// Exactly one root per tenant is enforced by a partial unique index on the
// relational store (see internal/platform/postgres/schema); the aggregate
// enforces the rest: is_root implies no parent, non-root requires a
// parent in the same tenant, deletion forbidden while children exist.
package workspace

import (
	"time"

	"github.com/kartohq/iam/internal/domain/event"
	"github.com/kartohq/iam/internal/domainerr"
	"github.com/kartohq/iam/internal/platform/id"
)

const maxNameLength = 255

type Workspace struct {
	ID        string
	TenantID  string
	Name      string
	ParentID  *string
	IsRoot    bool
	CreatedAt time.Time
	UpdatedAt time.Time

	pending []event.Event
}

// NewRoot constructs the root workspace of a tenant. The caller (the
// workspace repository/service) is responsible for enforcing that no root
// already exists for the tenant — ultimately backstopped by the database's
// partial unique index.
func NewRoot(tenantID, name string) (*Workspace, error) {
	if len(name) == 0 || len(name) > maxNameLength {
		return nil, domainerr.NewInvariantViolation("workspace", "workspace name must be 1-255 characters")
	}

	now := time.Now().UTC()
	w := &Workspace{
		ID:        id.New(),
		TenantID:  tenantID,
		Name:      name,
		IsRoot:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	w.record(event.WorkspaceCreated{WorkspaceID: w.ID, TenantID: tenantID, IsRoot: true, Occurred: now})

	return w, nil
}

// New constructs a non-root workspace under parent, which must belong to
// the same tenant.
func New(tenantID, name string, parent *Workspace) (*Workspace, error) {
	if len(name) == 0 || len(name) > maxNameLength {
		return nil, domainerr.NewInvariantViolation("workspace", "workspace name must be 1-255 characters")
	}

	if parent == nil {
		return nil, domainerr.NewInvariantViolation("workspace", "non-root workspace must have a parent")
	}

	if parent.TenantID != tenantID {
		return nil, domainerr.NewInvariantViolation("workspace", "parent workspace must belong to the same tenant")
	}

	now := time.Now().UTC()
	parentID := parent.ID
	w := &Workspace{
		ID:        id.New(),
		TenantID:  tenantID,
		Name:      name,
		ParentID:  &parentID,
		IsRoot:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	w.record(event.WorkspaceCreated{WorkspaceID: w.ID, TenantID: tenantID, ParentID: &parentID, IsRoot: false, Occurred: now})

	return w, nil
}

func Rehydrate(id, tenantID, name string, parentID *string, isRoot bool, createdAt, updatedAt time.Time) *Workspace {
	return &Workspace{
		ID: id, TenantID: tenantID, Name: name, ParentID: parentID, IsRoot: isRoot,
		CreatedAt: createdAt, UpdatedAt: updatedAt,
	}
}

// Delete records WorkspaceDeleted. hasChildren must be supplied by the
// caller (the repository knows the child count); the relational schema
// also enforces this via RESTRICT so a bypassed check here still fails
// loudly at the database.
func (w *Workspace) Delete(hasChildren bool) error {
	if hasChildren {
		return domainerr.NewInvariantViolation("workspace", "cannot delete a workspace with children")
	}

	w.record(event.WorkspaceDeleted{WorkspaceID: w.ID, TenantID: w.TenantID, Occurred: time.Now().UTC()})

	return nil
}

func (w *Workspace) record(e event.Event) {
	w.pending = append(w.pending, e)
}

func (w *Workspace) CollectEvents() []event.Event {
	evts := w.pending
	w.pending = nil

	return evts
}
