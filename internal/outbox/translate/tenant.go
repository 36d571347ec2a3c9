package translate

import (
	"encoding/json"
	"fmt"

	"github.com/kartohq/iam/internal/authz"
	"github.com/kartohq/iam/internal/domain/authztypes"
	"github.com/kartohq/iam/internal/domain/event"
)

// TenantTranslator maps Tenant aggregate events to relationship operations
// (spec.md §6.3). TenantCreated and TenantDeleted are deliberate no-ops:
// see DESIGN.md's resolution of the tenant-deletion-cascade open question.
type TenantTranslator struct{}

func (TenantTranslator) SupportedEventTypes() []event.Type {
	return []event.Type{
		event.TypeTenantCreated,
		event.TypeTenantDeleted,
		event.TypeTenantMemberAdded,
		event.TypeTenantMemberRemoved,
	}
}

func (TenantTranslator) Translate(eventType event.Type, payload json.RawMessage) ([]authz.Op, error) {
	evt, err := unmarshalEvent(eventType, payload)
	if err != nil {
		return nil, err
	}

	switch e := evt.(type) {
	case event.TenantCreated:
		// A tenant has no resource to point relationships at besides
		// itself; the first TenantMemberAdded (creator-as-admin) carries
		// the actual relationship write.
		_ = e
		return nil, nil

	case event.TenantMemberAdded:
		return []authz.Op{
			authz.WriteRelationship{
				Resource: authztypes.FormatResource(authztypes.ResourceTenant, e.TenantID),
				Relation: e.Role,
				Subject:  authztypes.FormatResource(authztypes.ResourceUser, e.UserID),
			},
		}, nil

	case event.TenantMemberRemoved:
		return []authz.Op{
			authz.DeleteRelationship{
				Resource: authztypes.FormatResource(authztypes.ResourceTenant, e.TenantID),
				Relation: e.Role,
				Subject:  authztypes.FormatResource(authztypes.ResourceUser, e.UserID),
			},
		}, nil

	case event.TenantDeleted:
		// No-op: tenant deletion is out of the core's scope (spec.md §1
		// Non-goals list tenant offboarding as a deferred operational
		// concern), so nothing here unwinds the member relationships.
		// See DESIGN.md.
		_ = e
		return nil, nil

	default:
		return nil, fmt.Errorf("tenant translator: unexpected event %T", evt)
	}
}
