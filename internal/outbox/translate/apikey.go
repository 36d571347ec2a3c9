package translate

import (
	"encoding/json"
	"fmt"

	"github.com/kartohq/iam/internal/authz"
	"github.com/kartohq/iam/internal/domain/authztypes"
	"github.com/kartohq/iam/internal/domain/event"
)

// APIKeyTranslator maps APIKey aggregate events to relationship operations
// (spec.md §6.3). APIKeyRevoked is a deliberate no-op: a revoked key keeps
// its relationships so that already-issued authorization decisions made
// before revocation remain auditable; revocation is enforced at the
// authentication layer (internal/apikey), not by relationship removal. See
// DESIGN.md's resolution of the revoked-key-visibility open question.
type APIKeyTranslator struct{}

func (APIKeyTranslator) SupportedEventTypes() []event.Type {
	return []event.Type{
		event.TypeAPIKeyCreated,
		event.TypeAPIKeyRevoked,
		event.TypeAPIKeyDeleted,
	}
}

func (APIKeyTranslator) Translate(eventType event.Type, payload json.RawMessage) ([]authz.Op, error) {
	evt, err := unmarshalEvent(eventType, payload)
	if err != nil {
		return nil, err
	}

	switch e := evt.(type) {
	case event.APIKeyCreated:
		return []authz.Op{
			authz.WriteRelationship{
				Resource: authztypes.FormatResource(authztypes.ResourceAPIKey, e.APIKeyID),
				Relation: string(authztypes.RelationOwner),
				Subject:  authztypes.FormatResource(authztypes.ResourceUser, e.OwnerID),
			},
			authz.WriteRelationship{
				Resource: authztypes.FormatResource(authztypes.ResourceAPIKey, e.APIKeyID),
				Relation: string(authztypes.RelationTenant),
				Subject:  authztypes.FormatResource(authztypes.ResourceTenant, e.TenantID),
			},
		}, nil

	case event.APIKeyRevoked:
		return nil, nil

	case event.APIKeyDeleted:
		return []authz.Op{
			authz.DeleteRelationship{
				Resource: authztypes.FormatResource(authztypes.ResourceAPIKey, e.APIKeyID),
				Relation: string(authztypes.RelationOwner),
				Subject:  authztypes.FormatResource(authztypes.ResourceUser, e.OwnerID),
			},
			authz.DeleteRelationship{
				Resource: authztypes.FormatResource(authztypes.ResourceAPIKey, e.APIKeyID),
				Relation: string(authztypes.RelationTenant),
				Subject:  authztypes.FormatResource(authztypes.ResourceTenant, e.TenantID),
			},
		}, nil

	default:
		return nil, fmt.Errorf("api key translator: unexpected event %T", evt)
	}
}
