package workspace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	workspacedomain "github.com/kartohq/iam/internal/domain/workspace"
)

func TestInsertWorkspaceQuery(t *testing.T) {
	t.Run("root_workspace_has_nil_parent", func(t *testing.T) {
		now := time.Unix(0, 0)
		w := workspacedomain.Rehydrate("w1", "t1", "Root", nil, true, now, now)

		query, args, err := insertWorkspaceQuery(w)
		require.NoError(t, err)

		assert.Contains(t, query, "INSERT INTO workspaces")
		assert.Contains(t, query, "(id,tenant_id,name,parent_id,is_root,created_at,updated_at)")
		assert.Equal(t, []any{"w1", "t1", "Root", (*string)(nil), true, now, now}, args)
	})

	t.Run("child_workspace_carries_parent_id", func(t *testing.T) {
		now := time.Unix(0, 0)
		parent := "w1"
		w := workspacedomain.Rehydrate("w2", "t1", "Child", &parent, false, now, now)

		_, args, err := insertWorkspaceQuery(w)
		require.NoError(t, err)

		assert.Equal(t, []any{"w2", "t1", "Child", &parent, false, now, now}, args)
	})
}

func TestDeleteWorkspaceQuery(t *testing.T) {
	query, args, err := deleteWorkspaceQuery("w1")
	require.NoError(t, err)

	assert.Equal(t, "DELETE FROM workspaces WHERE id = $1", query)
	assert.Equal(t, []any{"w1"}, args)
}

func TestChildCountQuery(t *testing.T) {
	query, args, err := childCountQuery("w1")
	require.NoError(t, err)

	assert.Equal(t, "SELECT count(*) FROM workspaces WHERE parent_id = $1", query)
	assert.Equal(t, []any{"w1"}, args)
}

func TestFindWorkspaceQuery(t *testing.T) {
	query, args, err := findWorkspaceQuery("w1")
	require.NoError(t, err)

	assert.Equal(t, "SELECT tenant_id, name, parent_id, is_root, created_at, updated_at FROM workspaces WHERE id = $1", query)
	assert.Equal(t, []any{"w1"}, args)
}
