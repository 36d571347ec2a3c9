package tenant_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartohq/iam/internal/domain/authztypes"
	"github.com/kartohq/iam/internal/domain/event"
	"github.com/kartohq/iam/internal/domain/tenant"
)

func TestNew_RecordsCreatedAndMemberAdded(t *testing.T) {
	tn, err := tenant.New("acme", "u1")
	require.NoError(t, err)

	evts := tn.CollectEvents()
	require.Len(t, evts, 2)
	assert.IsType(t, event.TenantCreated{}, evts[0])
	assert.IsType(t, event.TenantMemberAdded{}, evts[1])
}

func TestRemoveMember_RejectsLastAdmin(t *testing.T) {
	tn, err := tenant.New("acme", "u1")
	require.NoError(t, err)
	tn.CollectEvents()

	err = tn.RemoveMember("u1")
	require.Error(t, err)
}

func TestAddThenRemoveMember(t *testing.T) {
	tn, err := tenant.New("acme", "u1")
	require.NoError(t, err)
	tn.CollectEvents()

	require.NoError(t, tn.AddMember("u2", authztypes.RoleMember))
	tn.CollectEvents()

	require.NoError(t, tn.RemoveMember("u2"))
	evts := tn.CollectEvents()
	require.Len(t, evts, 1)
	assert.IsType(t, event.TenantMemberRemoved{}, evts[0])
}

func TestMarkForDeletion_SnapshotsMembers(t *testing.T) {
	tn, err := tenant.New("acme", "u1")
	require.NoError(t, err)
	tn.CollectEvents()

	members := tn.MarkForDeletion()
	assert.Len(t, members, 1)

	evts := tn.CollectEvents()
	require.Len(t, evts, 1)
	deleted := evts[0].(event.TenantDeleted)
	assert.Len(t, deleted.Members, 1)
}
