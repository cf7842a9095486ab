package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mamadbah2/viberbot/internal/domain/models"
	"github.com/mamadbah2/viberbot/internal/server/handlers"
)

type stubMessaging struct{}

func (stubMessaging) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	return nil
}

func (stubMessaging) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) ([]string, error) {
	return []string{"1"}, nil
}

func (stubMessaging) Broadcast(ctx context.Context, text string) ([]string, error) {
	return []string{"1"}, nil
}

func TestRoutes(t *testing.T) {
	engine := New(handlers.NewWebhookHandler(stubMessaging{}, nil), nil)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{method: http.MethodGet, path: "/healthz", want: http.StatusOK},
		{method: http.MethodPost, path: "/webhook", body: `{"event":"webhook","timestamp":1}`, want: http.StatusOK},
		{method: http.MethodPost, path: "/send-message", body: `{"to":"u1","text":"hi"}`, want: http.StatusAccepted},
		{method: http.MethodPost, path: "/broadcast", body: `{"text":"hi"}`, want: http.StatusAccepted},
		{method: http.MethodGet, path: "/webhook", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			engine.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rec.Code)
			}
			if rec.Header().Get(RequestIDHeader) == "" {
				t.Fatal("expected a generated request id")
			}
		})
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	engine := New(handlers.NewWebhookHandler(stubMessaging{}, nil), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()

	engine.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "req-42" {
		t.Fatalf("expected request id %q, got %q", "req-42", got)
	}
}
