package translate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartohq/iam/internal/authz"
	"github.com/kartohq/iam/internal/domain/event"
	"github.com/kartohq/iam/internal/outbox"
)

func mustSerialize(t *testing.T, evt event.Event) []byte {
	t.Helper()
	payload, err := outbox.Serialize(evt)
	require.NoError(t, err)
	return payload
}

func TestDefaultComposite_GroupCreated(t *testing.T) {
	c := DefaultComposite()
	evt := event.GroupCreated{GroupID: "g1", TenantID: "t1", Name: "Engineering", Occurred: time.Unix(0, 0)}

	ops, err := c.Translate(event.TypeGroupCreated, mustSerialize(t, evt))
	require.NoError(t, err)
	assert.Equal(t, []authz.Op{
		authz.WriteRelationship{Resource: "group:g1", Relation: "tenant", Subject: "tenant:t1"},
	}, ops)
}

func TestDefaultComposite_MemberRoleChanged_OrderMatters(t *testing.T) {
	c := DefaultComposite()
	evt := event.MemberRoleChanged{GroupID: "g1", UserID: "u1", OldRole: "member", NewRole: "admin", Occurred: time.Unix(0, 0)}

	ops, err := c.Translate(event.TypeMemberRoleChanged, mustSerialize(t, evt))
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, authz.DeleteRelationship{Resource: "group:g1", Relation: "member", Subject: "user:u1"}, ops[0])
	assert.Equal(t, authz.WriteRelationship{Resource: "group:g1", Relation: "admin", Subject: "user:u1"}, ops[1])
}

func TestDefaultComposite_GroupDeleted_ExpandsMembers(t *testing.T) {
	c := DefaultComposite()
	evt := event.GroupDeleted{
		GroupID:  "g1",
		TenantID: "t1",
		Members:  []event.Member{{UserID: "u1", Role: "admin"}, {UserID: "u2", Role: "member"}},
		Occurred: time.Unix(0, 0),
	}

	ops, err := c.Translate(event.TypeGroupDeleted, mustSerialize(t, evt))
	require.NoError(t, err)
	require.Len(t, ops, 3)
	assert.Equal(t, authz.DeleteRelationship{Resource: "group:g1", Relation: "tenant", Subject: "tenant:t1"}, ops[0])
	assert.Contains(t, ops, authz.DeleteRelationship{Resource: "group:g1", Relation: "admin", Subject: "user:u1"})
	assert.Contains(t, ops, authz.DeleteRelationship{Resource: "group:g1", Relation: "member", Subject: "user:u2"})
}

func TestDefaultComposite_TenantCreatedAndDeleted_AreNoOps(t *testing.T) {
	c := DefaultComposite()

	ops, err := c.Translate(event.TypeTenantCreated, mustSerialize(t, event.TenantCreated{TenantID: "t1", Name: "Acme", Occurred: time.Unix(0, 0)}))
	require.NoError(t, err)
	assert.Empty(t, ops)

	ops, err = c.Translate(event.TypeTenantDeleted, mustSerialize(t, event.TenantDeleted{TenantID: "t1", Occurred: time.Unix(0, 0)}))
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestDefaultComposite_WorkspaceCreated_RootHasNoParentEdge(t *testing.T) {
	c := DefaultComposite()
	evt := event.WorkspaceCreated{WorkspaceID: "w1", TenantID: "t1", IsRoot: true, Occurred: time.Unix(0, 0)}

	ops, err := c.Translate(event.TypeWorkspaceCreated, mustSerialize(t, evt))
	require.NoError(t, err)
	assert.Equal(t, []authz.Op{
		authz.WriteRelationship{Resource: "workspace:w1", Relation: "tenant", Subject: "tenant:t1"},
	}, ops)
}

func TestDefaultComposite_WorkspaceCreated_ChildHasParentEdge(t *testing.T) {
	c := DefaultComposite()
	parent := "w1"
	evt := event.WorkspaceCreated{WorkspaceID: "w2", TenantID: "t1", ParentID: &parent, IsRoot: false, Occurred: time.Unix(0, 0)}

	ops, err := c.Translate(event.TypeWorkspaceCreated, mustSerialize(t, evt))
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, authz.WriteRelationship{Resource: "workspace:w2", Relation: "parent", Subject: "workspace:w1"}, ops[1])
}

func TestDefaultComposite_WorkspaceDeleted_DeletesTenantEdge(t *testing.T) {
	c := DefaultComposite()
	evt := event.WorkspaceDeleted{WorkspaceID: "w1", TenantID: "t1", Occurred: time.Unix(0, 0)}

	ops, err := c.Translate(event.TypeWorkspaceDeleted, mustSerialize(t, evt))
	require.NoError(t, err)
	assert.Equal(t, []authz.Op{
		authz.DeleteRelationship{Resource: "workspace:w1", Relation: "tenant", Subject: "tenant:t1"},
	}, ops)
}

func TestDefaultComposite_APIKeyRevoked_IsNoOp(t *testing.T) {
	c := DefaultComposite()
	ops, err := c.Translate(event.TypeAPIKeyRevoked, mustSerialize(t, event.APIKeyRevoked{APIKeyID: "k1", Occurred: time.Unix(0, 0)}))
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestDefaultComposite_APIKeyCreated_WritesOwnerAndTenant(t *testing.T) {
	c := DefaultComposite()
	evt := event.APIKeyCreated{APIKeyID: "k1", OwnerID: "u1", TenantID: "t1", Occurred: time.Unix(0, 0)}

	ops, err := c.Translate(event.TypeAPIKeyCreated, mustSerialize(t, evt))
	require.NoError(t, err)
	assert.Equal(t, []authz.Op{
		authz.WriteRelationship{Resource: "api_key:k1", Relation: "owner", Subject: "user:u1"},
		authz.WriteRelationship{Resource: "api_key:k1", Relation: "tenant", Subject: "tenant:t1"},
	}, ops)
}

func TestDefaultComposite_APIKeyDeleted_DeletesOwnerAndTenantEdges(t *testing.T) {
	c := DefaultComposite()
	evt := event.APIKeyDeleted{APIKeyID: "k1", OwnerID: "u1", TenantID: "t1", Occurred: time.Unix(0, 0)}

	ops, err := c.Translate(event.TypeAPIKeyDeleted, mustSerialize(t, evt))
	require.NoError(t, err)
	assert.Equal(t, []authz.Op{
		authz.DeleteRelationship{Resource: "api_key:k1", Relation: "owner", Subject: "user:u1"},
		authz.DeleteRelationship{Resource: "api_key:k1", Relation: "tenant", Subject: "tenant:t1"},
	}, ops)
}

func TestComposite_UnknownEventType(t *testing.T) {
	c := DefaultComposite()
	_, err := c.Translate(event.Type("Bogus"), []byte(`{}`))
	assert.Error(t, err)
}
