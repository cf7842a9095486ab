// Package events decodes the callbacks Viber delivers to a bot webhook.
package events

import (
	"encoding/json"
	"fmt"
)

// Type is the wire discriminator stored under the "event" key.
type Type string

const (
	TypeSeen                Type = "seen"
	TypeConversationStarted Type = "conversation_started"
	TypeDelivered           Type = "delivered"
	TypeMessage             Type = "message"
	TypeSubscribed          Type = "subscribed"
	TypeUnsubscribed        Type = "unsubscribed"
	TypeFailed              Type = "failed"
	TypeWebhook             Type = "webhook"
)

// Event is implemented by every callback variant.
type Event interface {
	EventType() Type
	UnixTimestamp() int64
	decode(fields map[string]json.RawMessage) error
}

// MissingFieldError reports a required key absent from a callback body.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("request is missing required field '%s'", e.Field)
}

// Base carries the fields every callback has. It is also the generic
// webhook event.
type Base struct {
	Type      Type  `json:"event"`
	Timestamp int64 `json:"timestamp"`
}

func (b *Base) EventType() Type      { return b.Type }
func (b *Base) UnixTimestamp() int64 { return b.Timestamp }

// decodeBase fills the timestamp and, when the variant has no fixed type,
// the event type from the "event" key.
func (b *Base) decodeBase(fixed Type, fields map[string]json.RawMessage) error {
	if err := required(fields, "timestamp", &b.Timestamp); err != nil {
		return err
	}
	if fixed != "" {
		b.Type = fixed
		return nil
	}
	return required(fields, "event", &b.Type)
}

// required decodes key into dst and fails when the key is absent.
func required(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok {
		return &MissingFieldError{Field: key}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode field '%s': %w", key, err)
	}
	return nil
}

// optional decodes key into dst when present and leaves dst untouched otherwise.
func optional(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode field '%s': %w", key, err)
	}
	return nil
}

// UserProfile describes a Viber user as sent in callbacks. Every field is
// optional.
type UserProfile struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	Country    string `json:"country,omitempty"`
	Language   string `json:"language,omitempty"`
	APIVersion int    `json:"api_version,omitempty"`
}

// Token identifies a message. The platform sends it as a 64-bit JSON number;
// it is kept as its decimal text so no precision is lost.
type Token string

func (t *Token) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Token(s)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*t = Token(number)
	return nil
}
