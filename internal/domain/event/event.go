// Package event holds the frozen domain event records that aggregates
// record and the outbox carries to the authorization engine (spec.md §3
// "Immutable value objects" / "Domain events"). Events live in their own
// package, separate from the aggregates that emit them, so both the
// aggregate packages and the outbox serializer/translator packages can
// import them without a cycle.
package event

import "time"

// Type is the discriminator stored in the outbox row's event_type column.
// Exhaustive per spec.md §3.
type Type string

const (
	TypeGroupCreated        Type = "GroupCreated"
	TypeGroupDeleted        Type = "GroupDeleted"
	TypeMemberAdded         Type = "MemberAdded"
	TypeMemberRemoved       Type = "MemberRemoved"
	TypeMemberRoleChanged   Type = "MemberRoleChanged"
	TypeTenantCreated       Type = "TenantCreated"
	TypeTenantDeleted       Type = "TenantDeleted"
	TypeTenantMemberAdded   Type = "TenantMemberAdded"
	TypeTenantMemberRemoved Type = "TenantMemberRemoved"
	TypeWorkspaceCreated    Type = "WorkspaceCreated"
	TypeWorkspaceDeleted    Type = "WorkspaceDeleted"
	TypeAPIKeyCreated       Type = "APIKeyCreated"
	TypeAPIKeyRevoked       Type = "APIKeyRevoked"
	TypeAPIKeyDeleted       Type = "APIKeyDeleted"
)

// Event is implemented by every domain event record. AggregateType and
// AggregateID identify the outbox row's partition key; OccurredAt is the
// event's own UTC timestamp, recorded by the aggregate at the moment the
// fact became true (not at outbox-append time).
type Event interface {
	EventType() Type
	AggregateType() string
	AggregateID() string
	OccurredAt() time.Time
}

// Member is a (user_id, role) pair snapshotted into Group/TenantDeleted
// events, because by the time the worker processes the deletion the
// relational rows may already be gone (spec.md §3).
type Member struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type GroupCreated struct {
	GroupID    string    `json:"group_id"`
	TenantID   string    `json:"tenant_id"`
	Name       string    `json:"name"`
	Occurred   time.Time `json:"occurred_at"`
}

func (e GroupCreated) EventType() Type        { return TypeGroupCreated }
func (e GroupCreated) AggregateType() string  { return "group" }
func (e GroupCreated) AggregateID() string    { return e.GroupID }
func (e GroupCreated) OccurredAt() time.Time  { return e.Occurred }

type GroupDeleted struct {
	GroupID  string    `json:"group_id"`
	TenantID string    `json:"tenant_id"`
	Members  []Member  `json:"members"`
	Occurred time.Time `json:"occurred_at"`
}

func (e GroupDeleted) EventType() Type       { return TypeGroupDeleted }
func (e GroupDeleted) AggregateType() string { return "group" }
func (e GroupDeleted) AggregateID() string   { return e.GroupID }
func (e GroupDeleted) OccurredAt() time.Time { return e.Occurred }

type MemberAdded struct {
	GroupID  string    `json:"group_id"`
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	Occurred time.Time `json:"occurred_at"`
}

func (e MemberAdded) EventType() Type       { return TypeMemberAdded }
func (e MemberAdded) AggregateType() string { return "group" }
func (e MemberAdded) AggregateID() string   { return e.GroupID }
func (e MemberAdded) OccurredAt() time.Time { return e.Occurred }

type MemberRemoved struct {
	GroupID  string    `json:"group_id"`
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	Occurred time.Time `json:"occurred_at"`
}

func (e MemberRemoved) EventType() Type       { return TypeMemberRemoved }
func (e MemberRemoved) AggregateType() string { return "group" }
func (e MemberRemoved) AggregateID() string   { return e.GroupID }
func (e MemberRemoved) OccurredAt() time.Time { return e.Occurred }

type MemberRoleChanged struct {
	GroupID  string    `json:"group_id"`
	UserID   string    `json:"user_id"`
	OldRole  string    `json:"old_role"`
	NewRole  string    `json:"new_role"`
	Occurred time.Time `json:"occurred_at"`
}

func (e MemberRoleChanged) EventType() Type       { return TypeMemberRoleChanged }
func (e MemberRoleChanged) AggregateType() string { return "group" }
func (e MemberRoleChanged) AggregateID() string   { return e.GroupID }
func (e MemberRoleChanged) OccurredAt() time.Time { return e.Occurred }

type TenantCreated struct {
	TenantID string    `json:"tenant_id"`
	Name     string    `json:"name"`
	Occurred time.Time `json:"occurred_at"`
}

func (e TenantCreated) EventType() Type       { return TypeTenantCreated }
func (e TenantCreated) AggregateType() string { return "tenant" }
func (e TenantCreated) AggregateID() string   { return e.TenantID }
func (e TenantCreated) OccurredAt() time.Time { return e.Occurred }

type TenantDeleted struct {
	TenantID string    `json:"tenant_id"`
	Members  []Member  `json:"members"`
	Occurred time.Time `json:"occurred_at"`
}

func (e TenantDeleted) EventType() Type       { return TypeTenantDeleted }
func (e TenantDeleted) AggregateType() string { return "tenant" }
func (e TenantDeleted) AggregateID() string   { return e.TenantID }
func (e TenantDeleted) OccurredAt() time.Time { return e.Occurred }

type TenantMemberAdded struct {
	TenantID string    `json:"tenant_id"`
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	Occurred time.Time `json:"occurred_at"`
}

func (e TenantMemberAdded) EventType() Type       { return TypeTenantMemberAdded }
func (e TenantMemberAdded) AggregateType() string { return "tenant" }
func (e TenantMemberAdded) AggregateID() string   { return e.TenantID }
func (e TenantMemberAdded) OccurredAt() time.Time { return e.Occurred }

type TenantMemberRemoved struct {
	TenantID string    `json:"tenant_id"`
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	Occurred time.Time `json:"occurred_at"`
}

func (e TenantMemberRemoved) EventType() Type       { return TypeTenantMemberRemoved }
func (e TenantMemberRemoved) AggregateType() string { return "tenant" }
func (e TenantMemberRemoved) AggregateID() string   { return e.TenantID }
func (e TenantMemberRemoved) OccurredAt() time.Time { return e.Occurred }

type WorkspaceCreated struct {
	WorkspaceID string    `json:"workspace_id"`
	TenantID    string    `json:"tenant_id"`
	ParentID    *string   `json:"parent_id,omitempty"`
	IsRoot      bool      `json:"is_root"`
	Occurred    time.Time `json:"occurred_at"`
}

func (e WorkspaceCreated) EventType() Type       { return TypeWorkspaceCreated }
func (e WorkspaceCreated) AggregateType() string { return "workspace" }
func (e WorkspaceCreated) AggregateID() string   { return e.WorkspaceID }
func (e WorkspaceCreated) OccurredAt() time.Time { return e.Occurred }

type WorkspaceDeleted struct {
	WorkspaceID string    `json:"workspace_id"`
	TenantID    string    `json:"tenant_id"`
	Occurred    time.Time `json:"occurred_at"`
}

func (e WorkspaceDeleted) EventType() Type       { return TypeWorkspaceDeleted }
func (e WorkspaceDeleted) AggregateType() string { return "workspace" }
func (e WorkspaceDeleted) AggregateID() string   { return e.WorkspaceID }
func (e WorkspaceDeleted) OccurredAt() time.Time { return e.Occurred }

type APIKeyCreated struct {
	APIKeyID string    `json:"api_key_id"`
	OwnerID  string    `json:"owner_user_id"`
	TenantID string    `json:"tenant_id"`
	Occurred time.Time `json:"occurred_at"`
}

func (e APIKeyCreated) EventType() Type       { return TypeAPIKeyCreated }
func (e APIKeyCreated) AggregateType() string { return "api_key" }
func (e APIKeyCreated) AggregateID() string   { return e.APIKeyID }
func (e APIKeyCreated) OccurredAt() time.Time { return e.Occurred }

type APIKeyRevoked struct {
	APIKeyID string    `json:"api_key_id"`
	Occurred time.Time `json:"occurred_at"`
}

func (e APIKeyRevoked) EventType() Type       { return TypeAPIKeyRevoked }
func (e APIKeyRevoked) AggregateType() string { return "api_key" }
func (e APIKeyRevoked) AggregateID() string   { return e.APIKeyID }
func (e APIKeyRevoked) OccurredAt() time.Time { return e.Occurred }

type APIKeyDeleted struct {
	APIKeyID string    `json:"api_key_id"`
	OwnerID  string    `json:"owner_user_id"`
	TenantID string    `json:"tenant_id"`
	Occurred time.Time `json:"occurred_at"`
}

func (e APIKeyDeleted) EventType() Type       { return TypeAPIKeyDeleted }
func (e APIKeyDeleted) AggregateType() string { return "api_key" }
func (e APIKeyDeleted) AggregateID() string   { return e.APIKeyID }
func (e APIKeyDeleted) OccurredAt() time.Time { return e.Occurred }
