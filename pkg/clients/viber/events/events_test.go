package events

import (
	"errors"
	"strings"
	"testing"

	"github.com/mamadbah2/viberbot/pkg/clients/viber/errs"
	"github.com/mamadbah2/viberbot/pkg/clients/viber/messages"
)

func TestCreateMissingEvent(t *testing.T) {
	t.Parallel()

	_, err := FromMap(map[string]any{
		"timestamp":     1457764197627,
		"message_token": "912661846655238145",
		"sender":        map[string]any{"id": "01234567890A=", "name": "viberUser"},
		"message":       map[string]any{"type": "text", "text": "HI!"},
	})

	var validationErr *errs.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if !strings.HasPrefix(err.Error(), "request is missing field 'event'") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestCreateUnsupportedEvent(t *testing.T) {
	t.Parallel()

	_, err := FromMap(map[string]any{"event": "client_status", "timestamp": 1})
	if errs.Code(err) != errs.CodeValidation {
		t.Fatalf("error = %v, want validation error", err)
	}
	if !strings.Contains(err.Error(), "client_status") {
		t.Errorf("error %q does not name the event", err.Error())
	}
}

func TestCreateVariants(t *testing.T) {
	t.Parallel()

	t.Run("unsubscribed", func(t *testing.T) {
		t.Parallel()
		event, err := FromMap(map[string]any{"event": "unsubscribed", "timestamp": 1, "user_id": "u1"})
		if err != nil {
			t.Fatalf("FromMap() error = %v", err)
		}
		unsubscribed, ok := event.(*Unsubscribed)
		if !ok {
			t.Fatalf("FromMap() = %T, want *Unsubscribed", event)
		}
		if unsubscribed.UserID != "u1" || unsubscribed.EventType() != TypeUnsubscribed || unsubscribed.UnixTimestamp() != 1 {
			t.Errorf("unexpected event %+v", unsubscribed)
		}
	})

	t.Run("message", func(t *testing.T) {
		t.Parallel()
		body := `{
			"event": "message",
			"timestamp": 1457764197627,
			"message_token": 4912661846655238145,
			"sender": {"id": "01234567890A=", "name": "John McClane", "avatar": "http://avatar.example.com", "country": "UK", "language": "en", "api_version": 1},
			"message": {"type": "text", "text": "a message to the service", "tracking_data": "tracking data"},
			"chat_id": "chat-1"
		}`
		event, err := Decode([]byte(body))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		message, ok := event.(*MessageEvent)
		if !ok {
			t.Fatalf("Decode() = %T, want *MessageEvent", event)
		}
		if message.MessageToken != "4912661846655238145" {
			t.Errorf("MessageToken = %q, want full precision", message.MessageToken)
		}
		if message.Sender.ID != "01234567890A=" || message.Sender.Country != "UK" || message.Sender.APIVersion != 1 {
			t.Errorf("Sender = %+v", message.Sender)
		}
		text, ok := message.Message.(*messages.Text)
		if !ok {
			t.Fatalf("Message = %T, want *messages.Text", message.Message)
		}
		if text.Text != "a message to the service" || text.TrackingData != "tracking data" {
			t.Errorf("Message = %+v", text)
		}
		if message.ChatID != "chat-1" || message.Silent {
			t.Errorf("optional fields = %q/%v", message.ChatID, message.Silent)
		}
	})

	t.Run("message with unknown message type", func(t *testing.T) {
		t.Parallel()
		_, err := FromMap(map[string]any{
			"event":         "message",
			"timestamp":     1,
			"message_token": 1,
			"sender":        map[string]any{"id": "a"},
			"message":       map[string]any{"type": "hologram"},
		})
		if errs.Code(err) != errs.CodeValidation {
			t.Errorf("error = %v, want validation error", err)
		}
	})

	t.Run("subscribed", func(t *testing.T) {
		t.Parallel()
		event, err := FromMap(map[string]any{
			"event":       "subscribed",
			"timestamp":   10,
			"user":        map[string]any{"id": "u2", "name": "Jane"},
			"api_version": 7,
		})
		if err != nil {
			t.Fatalf("FromMap() error = %v", err)
		}
		subscribed := event.(*Subscribed)
		if subscribed.User.ID != "u2" || subscribed.User.Name != "Jane" || subscribed.APIVersion != 7 {
			t.Errorf("unexpected event %+v", subscribed)
		}
	})

	t.Run("conversation started", func(t *testing.T) {
		t.Parallel()
		event, err := FromMap(map[string]any{
			"event":         "conversation_started",
			"timestamp":     10,
			"message_token": 4912661846655238145,
			"type":          "open",
			"context":       "ctx",
			"user":          map[string]any{"id": "u3"},
			"subscribed":    true,
		})
		if err != nil {
			t.Fatalf("FromMap() error = %v", err)
		}
		started := event.(*ConversationStarted)
		if started.Kind != "open" || started.Context != "ctx" || !started.Subscribed || started.User.ID != "u3" {
			t.Errorf("unexpected event %+v", started)
		}
	})

	t.Run("delivered and seen", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"delivered", "seen"} {
			event, err := FromMap(map[string]any{"event": name, "timestamp": 5, "message_token": "t1", "user_id": "u4"})
			if err != nil {
				t.Fatalf("FromMap(%s) error = %v", name, err)
			}
			if event.EventType() != Type(name) {
				t.Errorf("EventType() = %s, want %s", event.EventType(), name)
			}
		}
	})

	t.Run("failed is lenient", func(t *testing.T) {
		t.Parallel()
		event, err := FromMap(map[string]any{"event": "failed", "timestamp": 5})
		if err != nil {
			t.Fatalf("FromMap() error = %v", err)
		}
		failed := event.(*Failed)
		if failed.MessageToken != "" || failed.UserID != "" || failed.Desc != "" {
			t.Errorf("unexpected event %+v", failed)
		}

		event, err = FromMap(map[string]any{"event": "failed", "timestamp": 5, "message_token": 9, "user_id": "u5", "desc": "blocked"})
		if err != nil {
			t.Fatalf("FromMap() error = %v", err)
		}
		failed = event.(*Failed)
		if failed.MessageToken != "9" || failed.UserID != "u5" || failed.Desc != "blocked" {
			t.Errorf("unexpected event %+v", failed)
		}
	})

	t.Run("webhook takes type from body", func(t *testing.T) {
		t.Parallel()
		event, err := FromMap(map[string]any{"event": "webhook", "timestamp": 3, "message_token": 1})
		if err != nil {
			t.Fatalf("FromMap() error = %v", err)
		}
		if _, ok := event.(*Webhook); !ok || event.EventType() != TypeWebhook {
			t.Errorf("unexpected event %T %s", event, event.EventType())
		}
	})
}

func TestCreateRequiredFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fields map[string]any
		field  string
	}{
		{"missing timestamp", map[string]any{"event": "webhook"}, "timestamp"},
		{"unsubscribed without user", map[string]any{"event": "unsubscribed", "timestamp": 1}, "user_id"},
		{"subscribed without user", map[string]any{"event": "subscribed", "timestamp": 1}, "user"},
		{"seen without token", map[string]any{"event": "seen", "timestamp": 1, "user_id": "u"}, "message_token"},
		{"delivered without user", map[string]any{"event": "delivered", "timestamp": 1, "message_token": 1}, "user_id"},
		{"message without sender", map[string]any{"event": "message", "timestamp": 1, "message_token": 1, "message": map[string]any{"type": "text", "text": "x"}}, "sender"},
		{"message without message", map[string]any{"event": "message", "timestamp": 1, "message_token": 1, "sender": map[string]any{}}, "message"},
		{"conversation started without type", map[string]any{"event": "conversation_started", "timestamp": 1, "message_token": 1, "user": map[string]any{}}, "type"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := FromMap(tc.fields)
			var missing *MissingFieldError
			if !errors.As(err, &missing) {
				t.Fatalf("error = %v, want MissingFieldError", err)
			}
			if missing.Field != tc.field {
				t.Errorf("missing field = %q, want %q", missing.Field, tc.field)
			}
		})
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	if _, err := Decode([]byte(`{"event":`)); err == nil {
		t.Fatal("Decode() error = nil, want JSON error")
	}
}
