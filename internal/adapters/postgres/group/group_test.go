package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertGroupQuery(t *testing.T) {
	query, args, err := upsertGroupQuery("g1", "t1", "Engineering")
	require.NoError(t, err)

	assert.Contains(t, query, "INSERT INTO groups (id,tenant_id,name) VALUES ($1,$2,$3)")
	assert.Contains(t, query, "ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name")
	assert.Equal(t, []any{"g1", "t1", "Engineering"}, args)
}

func TestDeleteGroupMembersQuery(t *testing.T) {
	query, args, err := deleteGroupMembersQuery("g1")
	require.NoError(t, err)

	assert.Equal(t, "DELETE FROM group_members WHERE group_id = $1", query)
	assert.Equal(t, []any{"g1"}, args)
}

func TestInsertGroupMemberQuery(t *testing.T) {
	query, args, err := insertGroupMemberQuery("g1", "u1", "member")
	require.NoError(t, err)

	assert.Contains(t, query, "INSERT INTO group_members (group_id,user_id,role) VALUES ($1,$2,$3)")
	assert.Equal(t, []any{"g1", "u1", "member"}, args)
}

func TestDeleteGroupQuery(t *testing.T) {
	query, args, err := deleteGroupQuery("g1")
	require.NoError(t, err)

	assert.Equal(t, "DELETE FROM groups WHERE id = $1", query)
	assert.Equal(t, []any{"g1"}, args)
}

func TestFindGroupQuery(t *testing.T) {
	query, args, err := findGroupQuery("g1")
	require.NoError(t, err)

	assert.Equal(t, "SELECT tenant_id, name FROM groups WHERE id = $1", query)
	assert.Equal(t, []any{"g1"}, args)
}

func TestGroupMembersOfQuery(t *testing.T) {
	query, args, err := groupMembersOfQuery("g1")
	require.NoError(t, err)

	assert.Equal(t, "SELECT user_id, role FROM group_members WHERE group_id = $1", query)
	assert.Equal(t, []any{"g1"}, args)
}
