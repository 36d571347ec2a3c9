package apikey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apikeydomain "github.com/kartohq/iam/internal/domain/apikeydomain"
)

func TestInsertAPIKeyQuery(t *testing.T) {
	now := time.Unix(0, 0)
	expires := now.Add(time.Hour)
	k := apikeydomain.Rehydrate("k1", "u1", "t1", "CI key", "pfx", "hash", now, expires, nil, false)

	query, args, err := insertAPIKeyQuery(k)
	require.NoError(t, err)

	assert.Contains(t, query, "INSERT INTO api_keys")
	assert.Contains(t, query, "(id,owner_user_id,tenant_id,name,prefix,hash,created_at,expires_at,is_revoked)")
	assert.Equal(t, []any{"k1", "u1", "t1", "CI key", "pfx", "hash", now, expires, false}, args)
}

func TestRevokeAPIKeyQuery(t *testing.T) {
	query, args, err := revokeAPIKeyQuery("k1")
	require.NoError(t, err)

	assert.Equal(t, "UPDATE api_keys SET is_revoked = $1 WHERE id = $2", query)
	assert.Equal(t, []any{true, "k1"}, args)
}

func TestDeleteAPIKeyQuery(t *testing.T) {
	query, args, err := deleteAPIKeyQuery("k1")
	require.NoError(t, err)

	assert.Equal(t, "DELETE FROM api_keys WHERE id = $1", query)
	assert.Equal(t, []any{"k1"}, args)
}

func TestRecordUsageQuery(t *testing.T) {
	at := time.Unix(100, 0)

	query, args, err := recordUsageQuery("k1", at)
	require.NoError(t, err)

	assert.Equal(t, "UPDATE api_keys SET last_used_at = $1 WHERE id = $2", query)
	assert.Equal(t, []any{at, "k1"}, args)
}

func TestFindByPrefixQuery(t *testing.T) {
	query, args, err := findByPrefixQuery("pfx")
	require.NoError(t, err)

	assert.Contains(t, query, "SELECT id, owner_user_id, tenant_id, name, prefix, hash, created_at, expires_at, last_used_at, is_revoked FROM api_keys")
	assert.Contains(t, query, "WHERE prefix = $1")
	assert.Equal(t, []any{"pfx"}, args)
}
