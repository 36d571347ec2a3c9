package translate

import (
	"encoding/json"
	"fmt"

	"github.com/kartohq/iam/internal/authz"
	"github.com/kartohq/iam/internal/domain/authztypes"
	"github.com/kartohq/iam/internal/domain/event"
)

// WorkspaceTranslator maps Workspace aggregate events to relationship
// operations (spec.md §6.3). A workspace always carries a tenant edge;
// non-root workspaces additionally carry a parent edge so permission
// checks can walk the workspace tree.
type WorkspaceTranslator struct{}

func (WorkspaceTranslator) SupportedEventTypes() []event.Type {
	return []event.Type{
		event.TypeWorkspaceCreated,
		event.TypeWorkspaceDeleted,
	}
}

func (WorkspaceTranslator) Translate(eventType event.Type, payload json.RawMessage) ([]authz.Op, error) {
	evt, err := unmarshalEvent(eventType, payload)
	if err != nil {
		return nil, err
	}

	switch e := evt.(type) {
	case event.WorkspaceCreated:
		ops := []authz.Op{
			authz.WriteRelationship{
				Resource: authztypes.FormatResource(authztypes.ResourceWorkspace, e.WorkspaceID),
				Relation: string(authztypes.RelationTenant),
				Subject:  authztypes.FormatResource(authztypes.ResourceTenant, e.TenantID),
			},
		}

		if !e.IsRoot && e.ParentID != nil {
			ops = append(ops, authz.WriteRelationship{
				Resource: authztypes.FormatResource(authztypes.ResourceWorkspace, e.WorkspaceID),
				Relation: string(authztypes.RelationParent),
				Subject:  authztypes.FormatResource(authztypes.ResourceWorkspace, *e.ParentID),
			})
		}

		return ops, nil

	case event.WorkspaceDeleted:
		return []authz.Op{
			authz.DeleteRelationship{
				Resource: authztypes.FormatResource(authztypes.ResourceWorkspace, e.WorkspaceID),
				Relation: string(authztypes.RelationTenant),
				Subject:  authztypes.FormatResource(authztypes.ResourceTenant, e.TenantID),
			},
		}, nil

	default:
		return nil, fmt.Errorf("workspace translator: unexpected event %T", evt)
	}
}
