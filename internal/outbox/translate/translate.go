// Package translate implements the translator plugin model of C3
// (spec.md §4.3): a composite dispatches on event_type to a per-bounded-
// context translator, each exposing SupportedEventTypes and Translate.
// Every translator is pure: same input, same output, no I/O — grounded on
// original_source/src/api/shared_kernel/outbox/spicedb_translator.py.
package translate

import (
	"encoding/json"
	"fmt"

	"github.com/kartohq/iam/internal/authz"
	"github.com/kartohq/iam/internal/domain/event"
	"github.com/kartohq/iam/internal/outbox"
)

// Translator is implemented by each bounded context's translator.
type Translator interface {
	SupportedEventTypes() []event.Type
	Translate(eventType event.Type, payload json.RawMessage) ([]authz.Op, error)
}

// Composite dispatches on event_type to the registered translator.
type Composite struct {
	byType map[event.Type]Translator
}

// NewComposite registers translators, indexing each by its declared
// SupportedEventTypes.
func NewComposite(translators ...Translator) *Composite {
	c := &Composite{byType: make(map[event.Type]Translator)}

	for _, t := range translators {
		for _, et := range t.SupportedEventTypes() {
			c.byType[et] = t
		}
	}

	return c
}

// Translate converts one outbox entry's (event_type, payload) into the
// relationship operations to apply.
func (c *Composite) Translate(eventType event.Type, payload json.RawMessage) ([]authz.Op, error) {
	t, ok := c.byType[eventType]
	if !ok {
		return nil, fmt.Errorf("translate: no translator registered for event type %q", eventType)
	}

	return t.Translate(eventType, payload)
}

// DefaultComposite wires together every bounded context's translator.
func DefaultComposite() *Composite {
	return NewComposite(
		GroupTranslator{},
		TenantTranslator{},
		WorkspaceTranslator{},
		APIKeyTranslator{},
	)
}

func unmarshalEvent(eventType event.Type, payload json.RawMessage) (event.Event, error) {
	return outbox.Deserialize(eventType, payload)
}
