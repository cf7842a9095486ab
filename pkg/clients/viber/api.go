package viber

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"go.uber.org/zap"

	"github.com/mamadbah2/viberbot/pkg/clients/viber/events"
	"github.com/mamadbah2/viberbot/pkg/clients/viber/messages"
)

// API is the entry point of the client: it verifies and parses callbacks
// and sends messages on behalf of one bot.
type API struct {
	logger        *zap.Logger
	config        BotConfiguration
	requestSender *RequestSender
	messageSender *MessageSender
}

// New builds an API for the bot described by cfg.
func New(cfg BotConfiguration, opts ...Option) *API {
	settings := apiSettings{
		baseURL:        DefaultBaseURL,
		userAgent:      DefaultUserAgent,
		timeout:        DefaultTimeout,
		broadcastLimit: DefaultBroadcastMaxSize,
	}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.logger == nil {
		settings.logger = zap.NewNop()
	}

	requestSender := NewRequestSender(settings.logger, settings.baseURL, cfg, settings.userAgent, settings.client, settings.timeout)
	return &API{
		logger:        settings.logger,
		config:        cfg,
		requestSender: requestSender,
		messageSender: NewMessageSender(settings.logger, requestSender, settings.broadcastLimit),
	}
}

// Name is the configured bot name.
func (a *API) Name() string { return a.config.Name }

// Avatar is the configured bot avatar URL.
func (a *API) Avatar() string { return a.config.Avatar }

// SetWebhook registers url for callbacks.
func (a *API) SetWebhook(ctx context.Context, url string, opts ...WebhookOption) ([]events.Type, error) {
	a.logger.Debug("setting webhook", zap.String("url", url))
	return a.requestSender.SetWebhook(ctx, url, opts...)
}

// UnsetWebhook stops callback delivery.
func (a *API) UnsetWebhook(ctx context.Context) ([]events.Type, error) {
	a.logger.Debug("unsetting webhook")
	return a.requestSender.SetWebhook(ctx, "")
}

// GetOnline returns the online status of up to 100 members.
func (a *API) GetOnline(ctx context.Context, ids []string) ([]OnlineStatus, error) {
	return a.requestSender.GetOnlineStatus(ctx, ids)
}

// GetUserDetails returns the profile of userID.
func (a *API) GetUserDetails(ctx context.Context, userID string) (*UserDetails, error) {
	return a.requestSender.GetUserDetails(ctx, userID)
}

// GetAccountInfo returns the bot account details.
func (a *API) GetAccountInfo(ctx context.Context) (Response, error) {
	a.logger.Debug("requesting account info")
	info, err := a.requestSender.GetAccountInfo(ctx)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("received account info", zap.Any("account_info", info))
	return info, nil
}

// Signature returns the hex HMAC-SHA256 of body keyed by the auth token.
func (a *API) Signature(body []byte) string {
	mac := hmac.New(sha256.New, []byte(a.config.AuthToken))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches the raw callback body.
// The body must be the bytes as received; re-encoded JSON will not match.
func (a *API) VerifySignature(body []byte, signature string) bool {
	return hmac.Equal([]byte(a.Signature(body)), []byte(signature))
}

// ParseRequest decodes a raw callback body into its event.
func (a *API) ParseRequest(body []byte) (events.Event, error) {
	a.logger.Debug("parsing request")
	event, err := events.Decode(body)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("parsed request", zap.String("event", string(event.EventType())), zap.Int64("timestamp", event.UnixTimestamp()))
	return event, nil
}

// SendMessages sends msgs to one user in order and returns their tokens.
// The first failure stops the batch.
func (a *API) SendMessages(ctx context.Context, to, chatID string, msgs ...messages.Message) ([]string, error) {
	a.logger.Debug("going to send messages", zap.String("to", to), zap.Int("count", len(msgs)))
	return a.sendAll(msgs, func(message messages.Message) (string, error) {
		return a.messageSender.SendMessage(ctx, to, a.config.Name, a.config.Avatar, message, chatID)
	})
}

// BroadcastMessages sends each of msgs to the whole broadcast list in order.
func (a *API) BroadcastMessages(ctx context.Context, broadcastList []string, msgs ...messages.Message) ([]string, error) {
	return a.sendAll(msgs, func(message messages.Message) (string, error) {
		return a.messageSender.BroadcastMessage(ctx, broadcastList, a.config.Name, a.config.Avatar, message)
	})
}

// PostMessagesToPublicAccount posts msgs to the public account as sender.
func (a *API) PostMessagesToPublicAccount(ctx context.Context, sender string, msgs ...messages.Message) ([]string, error) {
	return a.sendAll(msgs, func(message messages.Message) (string, error) {
		return a.messageSender.PostToPublicAccount(ctx, sender, a.config.Name, a.config.Avatar, message)
	})
}

func (a *API) sendAll(msgs []messages.Message, send func(messages.Message) (string, error)) ([]string, error) {
	tokens := make([]string, 0, len(msgs))
	for _, message := range msgs {
		token, err := send(message)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}
