// Package group implements the Group aggregate (spec.md §3/§4.1):
// {id, tenant_id, name, members}, name unique within tenant, at least one
// administrative member at all times, a user has at most one role per
// group.
package group

import (
	"time"

	"github.com/kartohq/iam/internal/domain/authztypes"
	"github.com/kartohq/iam/internal/domain/event"
	"github.com/kartohq/iam/internal/domainerr"
	"github.com/kartohq/iam/internal/platform/id"
)

const maxNameLength = 255

type Member struct {
	UserID string
	Role   authztypes.Role
}

type Group struct {
	ID       string
	TenantID string
	Name     string
	Members  []Member

	pending []event.Event
}

// New constructs a Group with its creator as the sole administrative
// member, recording GroupCreated and MemberAdded.
func New(tenantID, name, creatorUserID string) (*Group, error) {
	if len(name) == 0 || len(name) > maxNameLength {
		return nil, domainerr.NewInvariantViolation("group", "group name must be 1-255 characters")
	}

	now := time.Now().UTC()
	g := &Group{
		ID:       id.New(),
		TenantID: tenantID,
		Name:     name,
	}

	g.record(event.GroupCreated{GroupID: g.ID, TenantID: tenantID, Name: name, Occurred: now})

	g.Members = append(g.Members, Member{UserID: creatorUserID, Role: authztypes.RoleAdmin})
	g.record(event.MemberAdded{GroupID: g.ID, UserID: creatorUserID, Role: string(authztypes.RoleAdmin), Occurred: now})

	return g, nil
}

func Rehydrate(id, tenantID, name string, members []Member) *Group {
	return &Group{ID: id, TenantID: tenantID, Name: name, Members: members}
}

func (g *Group) adminCount() int {
	n := 0
	for _, m := range g.Members {
		if m.Role == authztypes.RoleAdmin {
			n++
		}
	}

	return n
}

func (g *Group) indexOf(userID string) int {
	for i, m := range g.Members {
		if m.UserID == userID {
			return i
		}
	}

	return -1
}

// AddMember adds userID with role. Adding an already-present member with
// the same role is rejected (spec.md §4.1).
func (g *Group) AddMember(userID string, role authztypes.Role) error {
	if !role.Valid() {
		return domainerr.NewInvariantViolation("group", "invalid member role")
	}

	if idx := g.indexOf(userID); idx != -1 {
		if g.Members[idx].Role == role {
			return domainerr.NewInvariantViolation("group", "user already has this role in the group")
		}

		return g.ChangeRole(userID, role)
	}

	g.Members = append(g.Members, Member{UserID: userID, Role: role})
	g.record(event.MemberAdded{GroupID: g.ID, UserID: userID, Role: string(role), Occurred: time.Now().UTC()})

	return nil
}

// RemoveMember removes userID. Removing a non-member, or the last
// administrative member, is rejected.
func (g *Group) RemoveMember(userID string) error {
	idx := g.indexOf(userID)
	if idx == -1 {
		return domainerr.NewInvariantViolation("group", "user is not a member of this group")
	}

	removed := g.Members[idx]
	if removed.Role == authztypes.RoleAdmin && g.adminCount() == 1 {
		return domainerr.NewInvariantViolation("group", "cannot remove the last administrative member")
	}

	g.Members = append(g.Members[:idx], g.Members[idx+1:]...)
	g.record(event.MemberRemoved{GroupID: g.ID, UserID: userID, Role: string(removed.Role), Occurred: time.Now().UTC()})

	return nil
}

// ChangeRole removes the old role and writes the new one for userID,
// recording a single MemberRoleChanged event (order matters downstream:
// translators must delete the old relation before writing the new one).
func (g *Group) ChangeRole(userID string, newRole authztypes.Role) error {
	idx := g.indexOf(userID)
	if idx == -1 {
		return domainerr.NewInvariantViolation("group", "user is not a member of this group")
	}

	if !newRole.Valid() {
		return domainerr.NewInvariantViolation("group", "invalid member role")
	}

	oldRole := g.Members[idx].Role
	if oldRole == newRole {
		return domainerr.NewInvariantViolation("group", "user already has this role in the group")
	}

	if oldRole == authztypes.RoleAdmin && newRole != authztypes.RoleAdmin && g.adminCount() == 1 {
		return domainerr.NewInvariantViolation("group", "cannot demote the last administrative member")
	}

	g.Members[idx].Role = newRole
	g.record(event.MemberRoleChanged{
		GroupID:  g.ID,
		UserID:   userID,
		OldRole:  string(oldRole),
		NewRole:  string(newRole),
		Occurred: time.Now().UTC(),
	})

	return nil
}

// Delete records GroupDeleted with a snapshot of current members.
func (g *Group) Delete() {
	snapshot := make([]event.Member, len(g.Members))
	for i, m := range g.Members {
		snapshot[i] = event.Member{UserID: m.UserID, Role: string(m.Role)}
	}

	g.record(event.GroupDeleted{GroupID: g.ID, TenantID: g.TenantID, Members: snapshot, Occurred: time.Now().UTC()})
}

func (g *Group) record(e event.Event) {
	g.pending = append(g.pending, e)
}

func (g *Group) CollectEvents() []event.Event {
	evts := g.pending
	g.pending = nil

	return evts
}
