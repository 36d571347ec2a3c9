package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindUserQuery(t *testing.T) {
	query, args, err := findUserQuery("u1")
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, username FROM users WHERE id = $1", query)
	assert.Equal(t, []any{"u1"}, args)
}

func TestEnsureProvisionedQuery(t *testing.T) {
	query, args, err := ensureProvisionedQuery("u1", "alice")
	require.NoError(t, err)

	assert.Contains(t, query, "INSERT INTO users (id,username) VALUES ($1,$2)")
	assert.Contains(t, query, "ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username WHERE users.username <> EXCLUDED.username")
	assert.Equal(t, []any{"u1", "alice"}, args)
}
