package events

import (
	"encoding/json"
	"fmt"

	"github.com/mamadbah2/viberbot/pkg/clients/viber/errs"
)

var registry = map[Type]func() Event{
	TypeMessage:             func() Event { return &MessageEvent{} },
	TypeFailed:              func() Event { return &Failed{} },
	TypeConversationStarted: func() Event { return &ConversationStarted{} },
	TypeDelivered:           func() Event { return &Delivered{} },
	TypeSeen:                func() Event { return &Seen{} },
	TypeSubscribed:          func() Event { return &Subscribed{} },
	TypeUnsubscribed:        func() Event { return &Unsubscribed{} },
	TypeWebhook:             func() Event { return &Webhook{} },
}

// Create builds the event selected by the "event" key.
func Create(fields map[string]json.RawMessage) (Event, error) {
	raw, ok := fields["event"]
	if !ok {
		return nil, errs.NewValidationError("request is missing field 'event'")
	}

	var eventType Type
	if err := json.Unmarshal(raw, &eventType); err != nil {
		return nil, errs.Validationf("event type '%s' is not supported", raw)
	}

	newEvent, ok := registry[eventType]
	if !ok {
		return nil, errs.Validationf("event type '%s' is not supported", eventType)
	}

	event := newEvent()
	if err := event.decode(fields); err != nil {
		return nil, err
	}
	return event, nil
}

// Decode parses a raw callback body and dispatches it through Create.
func Decode(data []byte) (Event, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode request body: %w", err)
	}
	return Create(fields)
}

// FromMap is Create for a mapping of already decoded values.
func FromMap(fields map[string]any) (Event, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode request fields: %w", err)
	}
	return Decode(data)
}
