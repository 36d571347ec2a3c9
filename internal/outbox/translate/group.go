package translate

import (
	"encoding/json"
	"fmt"

	"github.com/kartohq/iam/internal/authz"
	"github.com/kartohq/iam/internal/domain/authztypes"
	"github.com/kartohq/iam/internal/domain/event"
)

// GroupTranslator maps Group aggregate events to relationship operations
// (spec.md §6.3 table, rows GroupCreated/MemberAdded/MemberRemoved/
// MemberRoleChanged/GroupDeleted).
type GroupTranslator struct{}

func (GroupTranslator) SupportedEventTypes() []event.Type {
	return []event.Type{
		event.TypeGroupCreated,
		event.TypeGroupDeleted,
		event.TypeMemberAdded,
		event.TypeMemberRemoved,
		event.TypeMemberRoleChanged,
	}
}

func (GroupTranslator) Translate(eventType event.Type, payload json.RawMessage) ([]authz.Op, error) {
	evt, err := unmarshalEvent(eventType, payload)
	if err != nil {
		return nil, err
	}

	switch e := evt.(type) {
	case event.GroupCreated:
		return []authz.Op{
			authz.WriteRelationship{
				Resource: authztypes.FormatResource(authztypes.ResourceGroup, e.GroupID),
				Relation: string(authztypes.RelationTenant),
				Subject:  authztypes.FormatResource(authztypes.ResourceTenant, e.TenantID),
			},
		}, nil

	case event.MemberAdded:
		return []authz.Op{
			authz.WriteRelationship{
				Resource: authztypes.FormatResource(authztypes.ResourceGroup, e.GroupID),
				Relation: e.Role,
				Subject:  authztypes.FormatResource(authztypes.ResourceUser, e.UserID),
			},
		}, nil

	case event.MemberRemoved:
		return []authz.Op{
			authz.DeleteRelationship{
				Resource: authztypes.FormatResource(authztypes.ResourceGroup, e.GroupID),
				Relation: e.Role,
				Subject:  authztypes.FormatResource(authztypes.ResourceUser, e.UserID),
			},
		}, nil

	case event.MemberRoleChanged:
		// Order matters: delete the old role before writing the new one.
		return []authz.Op{
			authz.DeleteRelationship{
				Resource: authztypes.FormatResource(authztypes.ResourceGroup, e.GroupID),
				Relation: e.OldRole,
				Subject:  authztypes.FormatResource(authztypes.ResourceUser, e.UserID),
			},
			authz.WriteRelationship{
				Resource: authztypes.FormatResource(authztypes.ResourceGroup, e.GroupID),
				Relation: e.NewRole,
				Subject:  authztypes.FormatResource(authztypes.ResourceUser, e.UserID),
			},
		}, nil

	case event.GroupDeleted:
		ops := []authz.Op{
			authz.DeleteRelationship{
				Resource: authztypes.FormatResource(authztypes.ResourceGroup, e.GroupID),
				Relation: string(authztypes.RelationTenant),
				Subject:  authztypes.FormatResource(authztypes.ResourceTenant, e.TenantID),
			},
		}

		for _, m := range e.Members {
			ops = append(ops, authz.DeleteRelationship{
				Resource: authztypes.FormatResource(authztypes.ResourceGroup, e.GroupID),
				Relation: m.Role,
				Subject:  authztypes.FormatResource(authztypes.ResourceUser, m.UserID),
			})
		}

		return ops, nil

	default:
		return nil, fmt.Errorf("group translator: unexpected event %T", evt)
	}
}
