package outbox

import (
	"encoding/json"
	"fmt"

	"github.com/kartohq/iam/internal/domain/event"
	"github.com/kartohq/iam/internal/domainerr"
)

// serializer is a registry keyed by event type name, grounded on
// original_source/src/api/iam/infrastructure/outbox/serializer.py's
// class-name-keyed lookup, reimplemented as a sum-type discriminator per
// design note 9 ("replace dynamic dispatch on runtime class name with a
// sum type / tagged union"). Unknown event types fail fast, per spec.md
// §4.2.
var knownEventTypes = map[event.Type]struct{}{
	event.TypeGroupCreated:        {},
	event.TypeGroupDeleted:        {},
	event.TypeMemberAdded:         {},
	event.TypeMemberRemoved:       {},
	event.TypeMemberRoleChanged:   {},
	event.TypeTenantCreated:       {},
	event.TypeTenantDeleted:       {},
	event.TypeTenantMemberAdded:   {},
	event.TypeTenantMemberRemoved: {},
	event.TypeWorkspaceCreated:    {},
	event.TypeWorkspaceDeleted:    {},
	event.TypeAPIKeyCreated:       {},
	event.TypeAPIKeyRevoked:       {},
	event.TypeAPIKeyDeleted:       {},
}

// Serialize marshals evt to its outbox payload form (spec.md §6.2: all
// event fields flattened, no __type__ discriminator inside the payload —
// the row's event_type column is the discriminator).
func Serialize(evt event.Event) (json.RawMessage, error) {
	if _, ok := knownEventTypes[evt.EventType()]; !ok {
		return nil, fmt.Errorf("%w: %s", domainerr.UnknownEventTypeBusinessError, evt.EventType())
	}

	return json.Marshal(evt)
}

// Deserialize reconstructs the typed event for eventType from payload.
// Used by translators and by round-trip tests (spec.md §8:
// serialize(event) |> deserialize = event).
func Deserialize(eventType event.Type, payload json.RawMessage) (event.Event, error) {
	if _, ok := knownEventTypes[eventType]; !ok {
		return nil, fmt.Errorf("%w: %s", domainerr.UnknownEventTypeBusinessError, eventType)
	}

	switch eventType {
	case event.TypeGroupCreated:
		var e event.GroupCreated
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	case event.TypeGroupDeleted:
		var e event.GroupDeleted
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	case event.TypeMemberAdded:
		var e event.MemberAdded
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	case event.TypeMemberRemoved:
		var e event.MemberRemoved
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	case event.TypeMemberRoleChanged:
		var e event.MemberRoleChanged
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	case event.TypeTenantCreated:
		var e event.TenantCreated
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	case event.TypeTenantDeleted:
		var e event.TenantDeleted
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	case event.TypeTenantMemberAdded:
		var e event.TenantMemberAdded
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	case event.TypeTenantMemberRemoved:
		var e event.TenantMemberRemoved
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	case event.TypeWorkspaceCreated:
		var e event.WorkspaceCreated
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	case event.TypeWorkspaceDeleted:
		var e event.WorkspaceDeleted
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	case event.TypeAPIKeyCreated:
		var e event.APIKeyCreated
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	case event.TypeAPIKeyRevoked:
		var e event.APIKeyRevoked
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	case event.TypeAPIKeyDeleted:
		var e event.APIKeyDeleted
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("%w: %s", domainerr.UnknownEventTypeBusinessError, eventType)
	}
}
