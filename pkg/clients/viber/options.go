package viber

import (
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/viberbot/pkg/clients/viber/events"
)

type webhookSettings struct {
	eventTypes []events.Type
	isInline   bool
	sendName   bool
	sendPhoto  bool
}

// WebhookOption customises a set_webhook call.
type WebhookOption func(*webhookSettings)

// WithEventTypes restricts the callbacks the platform delivers. Without this
// option the platform default applies; with it, even an empty list is sent.
func WithEventTypes(types ...events.Type) WebhookOption {
	return func(s *webhookSettings) {
		s.eventTypes = append(make([]events.Type, 0, len(types)), types...)
	}
}

// WithInline marks the webhook as serving inline conversations.
func WithInline(inline bool) WebhookOption {
	return func(s *webhookSettings) { s.isInline = inline }
}

// WithSendName controls whether user names are included in callbacks.
func WithSendName(send bool) WebhookOption {
	return func(s *webhookSettings) { s.sendName = send }
}

// WithSendPhoto controls whether user photos are included in callbacks.
func WithSendPhoto(send bool) WebhookOption {
	return func(s *webhookSettings) { s.sendPhoto = send }
}

type apiSettings struct {
	logger         *zap.Logger
	client         *resty.Client
	baseURL        string
	userAgent      string
	timeout        time.Duration
	broadcastLimit int
}

// Option customises an API.
type Option func(*apiSettings)

// WithLogger sets the logger used by every component.
func WithLogger(logger *zap.Logger) Option {
	return func(s *apiSettings) { s.logger = logger }
}

// WithHTTPClient shares a long-lived resty client across calls. The API
// never closes it.
func WithHTTPClient(client *resty.Client) Option {
	return func(s *apiSettings) { s.client = client }
}

// WithBaseURL points the API at another host, mostly for tests.
func WithBaseURL(baseURL string) Option {
	return func(s *apiSettings) { s.baseURL = baseURL }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(s *apiSettings) { s.userAgent = userAgent }
}

// WithTimeout bounds every request.
func WithTimeout(timeout time.Duration) Option {
	return func(s *apiSettings) { s.timeout = timeout }
}

// WithBroadcastLimit overrides the maximum broadcast list length.
func WithBroadcastLimit(limit int) Option {
	return func(s *apiSettings) { s.broadcastLimit = limit }
}
