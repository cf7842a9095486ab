package viber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/mamadbah2/viberbot/pkg/clients/viber/errs"
	"github.com/mamadbah2/viberbot/pkg/clients/viber/messages"
)

type postedRequest struct {
	endpoint string
	payload  Payload
}

// fakeRequester records every call and answers with respond.
type fakeRequester struct {
	posted  []postedRequest
	respond func(endpoint string, payload Payload) (Response, error)
}

func (f *fakeRequester) PostRequest(_ context.Context, endpoint string, payload Payload) (Response, error) {
	f.posted = append(f.posted, postedRequest{endpoint: endpoint, payload: payload})
	if f.respond == nil {
		return Response{"status": json.Number("0"), "message_token": json.Number("5741311803571721087")}, nil
	}
	return f.respond(endpoint, payload)
}

func receiverIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("user-%03d=", i)
	}
	return ids
}

func TestSendMessagePayload(t *testing.T) {
	t.Parallel()

	requester := &fakeRequester{}
	sender := NewMessageSender(nil, requester, 0)

	message := &messages.Text{Text: "hello", Common: messages.Common{TrackingData: "track-1"}}
	token, err := sender.SendMessage(context.Background(), "03249305A=", "testbot", "https://avatar", message, "chat-9")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if token != "5741311803571721087" {
		t.Errorf("token = %q", token)
	}

	if len(requester.posted) != 1 {
		t.Fatalf("posted %d requests, want 1", len(requester.posted))
	}
	got := requester.posted[0]
	if got.endpoint != EndpointSendMessage {
		t.Errorf("endpoint = %q", got.endpoint)
	}

	want := Payload{
		"type":          "text",
		"text":          "hello",
		"tracking_data": "track-1",
		"receiver":      "03249305A=",
		"chat_id":       "chat-9",
		"sender":        map[string]any{"name": "testbot", "avatar": "https://avatar"},
	}
	if !reflect.DeepEqual(got.payload, want) {
		t.Errorf("payload mismatch:\n got  %#v\n want %#v", got.payload, want)
	}
}

func TestSendMessageOmitsUnsetFields(t *testing.T) {
	t.Parallel()

	requester := &fakeRequester{}
	sender := NewMessageSender(nil, requester, 0)

	if _, err := sender.SendMessage(context.Background(), "03249305A=", "testbot", "", &messages.Text{Text: "hi"}, ""); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	payload := requester.posted[0].payload
	for _, key := range []string{"chat_id", "from", "broadcast_list", "tracking_data", "keyboard", "min_api_version"} {
		if _, ok := payload[key]; ok {
			t.Errorf("payload carries unset field %q", key)
		}
	}
	if !reflect.DeepEqual(payload["sender"], map[string]any{"name": "testbot", "avatar": nil}) {
		t.Errorf("sender = %#v", payload["sender"])
	}
}

func TestSendMessageRejectsInvalidMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message messages.Message
	}{
		{"empty text", &messages.Text{}},
		{"picture without media", &messages.Picture{Text: "caption"}},
		{"nil message", nil},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			requester := &fakeRequester{}
			_, err := NewMessageSender(nil, requester, 0).SendMessage(context.Background(), "03249305A=", "bot", "", tc.message, "")

			var validationErr *errs.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if !strings.HasPrefix(err.Error(), "failed validating message:") {
				t.Errorf("error = %q", err.Error())
			}
			if len(requester.posted) != 0 {
				t.Errorf("invalid message reached the transport")
			}
		})
	}
}

func TestBroadcastMessageList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		list    []string
		wantErr string
	}{
		{"nil list", nil, "broadcast list should contain list of receiver ids"},
		{"empty list", []string{}, "broadcast list should not be empty"},
		{"over limit", receiverIDs(301), "broadcast list max length is 300"},
		{"single receiver", receiverIDs(1), ""},
		{"at limit", receiverIDs(300), ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			requester := &fakeRequester{}
			_, err := NewMessageSender(nil, requester, 0).BroadcastMessage(context.Background(), tc.list, "bot", "", &messages.Text{Text: "news"})

			if tc.wantErr != "" {
				if err == nil || err.Error() != tc.wantErr {
					t.Fatalf("error = %v, want %q", err, tc.wantErr)
				}
				if errs.Code(err) != errs.CodeValidation {
					t.Errorf("Code() = %s", errs.Code(err))
				}
				if len(requester.posted) != 0 {
					t.Error("rejected broadcast reached the transport")
				}
				return
			}

			if err != nil {
				t.Fatalf("BroadcastMessage() error = %v", err)
			}
			got := requester.posted[0]
			if got.endpoint != EndpointBroadcastMessage {
				t.Errorf("endpoint = %q", got.endpoint)
			}
			if !reflect.DeepEqual(got.payload["broadcast_list"], tc.list) {
				t.Error("broadcast_list not forwarded")
			}
			if _, ok := got.payload["receiver"]; ok {
				t.Error("broadcast payload must not carry a receiver")
			}
		})
	}
}

func TestBroadcastMessageCustomLimit(t *testing.T) {
	t.Parallel()

	sender := NewMessageSender(nil, &fakeRequester{}, 2)
	_, err := sender.BroadcastMessage(context.Background(), receiverIDs(3), "bot", "", &messages.Text{Text: "news"})
	if err == nil || err.Error() != "broadcast list max length is 2" {
		t.Errorf("error = %v", err)
	}
}

func TestPostToPublicAccount(t *testing.T) {
	t.Parallel()

	t.Run("payload", func(t *testing.T) {
		t.Parallel()

		requester := &fakeRequester{}
		_, err := NewMessageSender(nil, requester, 0).PostToPublicAccount(context.Background(), "admin-1=", "bot", "https://avatar", &messages.URL{Media: "https://example.com"})
		if err != nil {
			t.Fatalf("PostToPublicAccount() error = %v", err)
		}

		got := requester.posted[0]
		if got.endpoint != EndpointPost {
			t.Errorf("endpoint = %q", got.endpoint)
		}
		if got.payload["from"] != "admin-1=" || got.payload["type"] != "url" || got.payload["media"] != "https://example.com" {
			t.Errorf("payload = %#v", got.payload)
		}
		if _, ok := got.payload["receiver"]; ok {
			t.Error("post payload must not carry a receiver")
		}
	})

	t.Run("missing sender", func(t *testing.T) {
		t.Parallel()

		requester := &fakeRequester{}
		_, err := NewMessageSender(nil, requester, 0).PostToPublicAccount(context.Background(), "", "bot", "", &messages.Text{Text: "hi"})
		if err == nil || err.Error() != "missing parameter sender" {
			t.Errorf("error = %v", err)
		}
		if len(requester.posted) != 0 {
			t.Error("request without sender reached the transport")
		}
	})
}

func TestSendMessagePropagatesFailures(t *testing.T) {
	t.Parallel()

	t.Run("request error", func(t *testing.T) {
		t.Parallel()

		requester := &fakeRequester{respond: func(string, Payload) (Response, error) {
			return nil, errs.NewRequestError(6, "receiverNotSubscribed")
		}}
		_, err := NewMessageSender(nil, requester, 0).SendMessage(context.Background(), "x=", "bot", "", &messages.Text{Text: "hi"}, "")

		var requestErr *errs.RequestError
		if !errors.As(err, &requestErr) || requestErr.Status != 6 {
			t.Errorf("error = %v, want RequestError status 6", err)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()

		requester := &fakeRequester{respond: func(string, Payload) (Response, error) {
			return Response{"status": json.Number("0")}, nil
		}}
		_, err := NewMessageSender(nil, requester, 0).SendMessage(context.Background(), "x=", "bot", "", &messages.Text{Text: "hi"}, "")
		if err == nil || !strings.Contains(err.Error(), "message_token") {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("string token", func(t *testing.T) {
		t.Parallel()

		requester := &fakeRequester{respond: func(string, Payload) (Response, error) {
			return Response{"status": json.Number("0"), "message_token": "abc"}, nil
		}}
		token, err := NewMessageSender(nil, requester, 0).SendMessage(context.Background(), "x=", "bot", "", &messages.Text{Text: "hi"}, "")
		if err != nil || token != "abc" {
			t.Errorf("SendMessage() = %q, %v", token, err)
		}
	})
}
