package group_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartohq/iam/internal/domain/authztypes"
	"github.com/kartohq/iam/internal/domain/event"
	"github.com/kartohq/iam/internal/domain/group"
	"github.com/kartohq/iam/internal/domainerr"
)

func TestNew_RecordsCreatedAndMemberAdded(t *testing.T) {
	g, err := group.New("t1", "eng", "u1")
	require.NoError(t, err)

	evts := g.CollectEvents()
	require.Len(t, evts, 2)
	assert.IsType(t, event.GroupCreated{}, evts[0])
	assert.IsType(t, event.MemberAdded{}, evts[1])

	added := evts[1].(event.MemberAdded)
	assert.Equal(t, "u1", added.UserID)
	assert.Equal(t, string(authztypes.RoleAdmin), added.Role)
}

func TestNew_RejectsEmptyName(t *testing.T) {
	_, err := group.New("t1", "", "u1")
	require.Error(t, err)
	assert.IsType(t, domainerr.InvariantViolation{}, err)
}

func TestCollectEvents_ClearsAfterCall(t *testing.T) {
	g, err := group.New("t1", "eng", "u1")
	require.NoError(t, err)

	_ = g.CollectEvents()
	assert.Empty(t, g.CollectEvents())
}

func TestRemoveMember_RejectsLastAdmin(t *testing.T) {
	g, err := group.New("t1", "eng", "u1")
	require.NoError(t, err)
	g.CollectEvents()

	err = g.RemoveMember("u1")
	require.Error(t, err)
	assert.IsType(t, domainerr.InvariantViolation{}, err)
}

func TestRemoveMember_AllowsNonLastAdmin(t *testing.T) {
	g, err := group.New("t1", "eng", "u1")
	require.NoError(t, err)
	g.CollectEvents()

	require.NoError(t, g.AddMember("u2", authztypes.RoleAdmin))
	g.CollectEvents()

	require.NoError(t, g.RemoveMember("u1"))
	evts := g.CollectEvents()
	require.Len(t, evts, 1)
	assert.IsType(t, event.MemberRemoved{}, evts[0])
}

func TestRemoveMember_RejectsNonMember(t *testing.T) {
	g, err := group.New("t1", "eng", "u1")
	require.NoError(t, err)
	g.CollectEvents()

	err = g.RemoveMember("ghost")
	require.Error(t, err)
	assert.IsType(t, domainerr.InvariantViolation{}, err)
}

func TestAddMember_SameRoleRejected(t *testing.T) {
	g, err := group.New("t1", "eng", "u1")
	require.NoError(t, err)
	g.CollectEvents()

	err = g.AddMember("u1", authztypes.RoleAdmin)
	require.Error(t, err)
}

func TestChangeRole_EmitsSingleEventWithOrderedRoles(t *testing.T) {
	g, err := group.New("t1", "eng", "u1")
	require.NoError(t, err)
	g.CollectEvents()

	require.NoError(t, g.AddMember("u2", authztypes.RoleMember))
	g.CollectEvents()

	require.NoError(t, g.ChangeRole("u2", authztypes.RoleAdmin))
	evts := g.CollectEvents()
	require.Len(t, evts, 1)

	changed := evts[0].(event.MemberRoleChanged)
	assert.Equal(t, string(authztypes.RoleMember), changed.OldRole)
	assert.Equal(t, string(authztypes.RoleAdmin), changed.NewRole)
}

func TestChangeRole_RejectsDemotingLastAdmin(t *testing.T) {
	g, err := group.New("t1", "eng", "u1")
	require.NoError(t, err)
	g.CollectEvents()

	err = g.ChangeRole("u1", authztypes.RoleMember)
	require.Error(t, err)
}

func TestDelete_SnapshotsMembers(t *testing.T) {
	g, err := group.New("t1", "eng", "u1")
	require.NoError(t, err)
	g.CollectEvents()

	require.NoError(t, g.AddMember("u2", authztypes.RoleMember))
	g.CollectEvents()

	g.Delete()
	evts := g.CollectEvents()
	require.Len(t, evts, 1)

	deleted := evts[0].(event.GroupDeleted)
	require.Len(t, deleted.Members, 2)
}
