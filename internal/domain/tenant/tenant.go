// Package tenant implements the Tenant aggregate (spec.md §3/§4.1):
// {id, name}, globally unique name, lifecycle create -> (add/remove
// members) -> mark_for_deletion, with the invariant that the last
// administrative member can never be removed.
package tenant

import (
	"time"

	"github.com/kartohq/iam/internal/domain/authztypes"
	"github.com/kartohq/iam/internal/domain/event"
	"github.com/kartohq/iam/internal/domainerr"
	"github.com/kartohq/iam/internal/platform/id"
)

const maxNameLength = 255

// Member is a (user_id, role) pair on the tenant.
type Member struct {
	UserID string
	Role   authztypes.Role
}

// Tenant is the aggregate root. Members is kept in-memory for invariant
// checking during a single use-case call; the repository is the source of
// truth for persisted membership.
type Tenant struct {
	ID      string
	Name    string
	Members []Member

	pending []event.Event
}

// New constructs a Tenant with its creator as the sole, administrative
// member, recording TenantCreated and TenantMemberAdded.
func New(name, creatorUserID string) (*Tenant, error) {
	if len(name) == 0 || len(name) > maxNameLength {
		return nil, domainerr.NewInvariantViolation("tenant", "tenant name must be 1-255 characters")
	}

	now := time.Now().UTC()
	t := &Tenant{
		ID:   id.New(),
		Name: name,
	}

	t.record(event.TenantCreated{TenantID: t.ID, Name: name, Occurred: now})

	t.Members = append(t.Members, Member{UserID: creatorUserID, Role: authztypes.RoleAdmin})
	t.record(event.TenantMemberAdded{TenantID: t.ID, UserID: creatorUserID, Role: string(authztypes.RoleAdmin), Occurred: now})

	return t, nil
}

// Rehydrate reconstructs a Tenant from persisted state, with no pending
// events (used by repositories loading an existing aggregate).
func Rehydrate(id, name string, members []Member) *Tenant {
	return &Tenant{ID: id, Name: name, Members: members}
}

func (t *Tenant) adminCount() int {
	n := 0
	for _, m := range t.Members {
		if m.Role == authztypes.RoleAdmin {
			n++
		}
	}

	return n
}

func (t *Tenant) indexOf(userID string) int {
	for i, m := range t.Members {
		if m.UserID == userID {
			return i
		}
	}

	return -1
}

// AddMember adds userID with role, recording TenantMemberAdded. A user
// already present is rejected.
func (t *Tenant) AddMember(userID string, role authztypes.Role) error {
	if t.indexOf(userID) != -1 {
		return domainerr.NewInvariantViolation("tenant", "user is already a member of this tenant")
	}

	if !role.Valid() {
		return domainerr.NewInvariantViolation("tenant", "invalid member role")
	}

	t.Members = append(t.Members, Member{UserID: userID, Role: role})
	t.record(event.TenantMemberAdded{TenantID: t.ID, UserID: userID, Role: string(role), Occurred: time.Now().UTC()})

	return nil
}

// RemoveMember removes userID, recording TenantMemberRemoved. Removing the
// last administrative member is rejected.
func (t *Tenant) RemoveMember(userID string) error {
	idx := t.indexOf(userID)
	if idx == -1 {
		return domainerr.NewInvariantViolation("tenant", "user is not a member of this tenant")
	}

	removed := t.Members[idx]
	if removed.Role == authztypes.RoleAdmin && t.adminCount() == 1 {
		return domainerr.NewInvariantViolation("tenant", "cannot remove the last administrative member")
	}

	t.Members = append(t.Members[:idx], t.Members[idx+1:]...)
	t.record(event.TenantMemberRemoved{TenantID: t.ID, UserID: userID, Role: string(removed.Role), Occurred: time.Now().UTC()})

	return nil
}

// MarkForDeletion records TenantDeleted with a snapshot of current
// members, since the relational rows may be gone by the time the outbox
// worker processes the event. Per the open question in spec.md §9, the
// translator for TenantDeleted is a documented no-op (see DESIGN.md) — the
// snapshot is still recorded here so a future translator change doesn't
// require touching the aggregate.
func (t *Tenant) MarkForDeletion() []Member {
	members := make([]Member, len(t.Members))
	copy(members, t.Members)

	snapshot := make([]event.Member, len(members))
	for i, m := range members {
		snapshot[i] = event.Member{UserID: m.UserID, Role: string(m.Role)}
	}

	t.record(event.TenantDeleted{TenantID: t.ID, Members: snapshot, Occurred: time.Now().UTC()})

	return members
}

func (t *Tenant) record(e event.Event) {
	t.pending = append(t.pending, e)
}

// CollectEvents drains and clears the pending event list. Called exactly
// once per persistence cycle by the repository.
func (t *Tenant) CollectEvents() []event.Event {
	evts := t.pending
	t.pending = nil

	return evts
}
