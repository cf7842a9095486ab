package viber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/viberbot/pkg/clients/viber/errs"
	"github.com/mamadbah2/viberbot/pkg/clients/viber/events"
)

// OnlineStatus is one record returned by get_online.
type OnlineStatus struct {
	ID                  string `json:"id"`
	OnlineStatus        int    `json:"online_status"`
	OnlineStatusMessage string `json:"online_status_message"`
	LastOnline          int64  `json:"last_online,omitempty"`
}

// UserDetails is the profile returned by get_user_details.
type UserDetails struct {
	events.UserProfile
	PrimaryDeviceOS string `json:"primary_device_os,omitempty"`
	ViberVersion    string `json:"viber_version,omitempty"`
	DeviceType      string `json:"device_type,omitempty"`
	MCC             int    `json:"mcc,omitempty"`
	MNC             int    `json:"mnc,omitempty"`
}

// RequestSender performs every outbound call to the bot API.
type RequestSender struct {
	logger    *zap.Logger
	baseURL   string
	config    BotConfiguration
	userAgent string
	client    *resty.Client
	timeout   time.Duration
}

// NewRequestSender builds a sender. When client is nil each request runs on
// its own short-lived client; a caller-supplied client is shared and never
// closed here.
func NewRequestSender(logger *zap.Logger, baseURL string, cfg BotConfiguration, userAgent string, client *resty.Client, timeout time.Duration) *RequestSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RequestSender{
		logger:    logger,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		config:    cfg,
		userAgent: userAgent,
		client:    client,
		timeout:   timeout,
	}
}

// PostRequest sends payload to endpoint with the auth token injected and
// returns the decoded body when the platform reports status 0.
func (s *RequestSender) PostRequest(ctx context.Context, endpoint string, payload Payload) (Response, error) {
	body := make(Payload, len(payload)+1)
	for key, value := range payload {
		body[key] = value
	}
	body["auth_token"] = s.config.AuthToken

	client := s.client
	if client == nil {
		client = resty.New().SetLogger(s.logger.Sugar())
		defer client.GetClient().CloseIdleConnections()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := client.R().
		SetContext(ctx).
		SetHeader("User-Agent", s.userAgent).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(s.baseURL + "/" + endpoint)
	if err != nil {
		s.logFailure(endpoint, payload, err)
		if isTimeout(err) {
			return nil, errs.NewTimeoutError(endpoint, err)
		}
		return nil, errs.NewClientError(endpoint, err)
	}

	if !resp.IsSuccess() {
		err := fmt.Errorf("unexpected http status %d", resp.StatusCode())
		s.logFailure(endpoint, payload, err)
		return nil, errs.NewClientError(endpoint, err)
	}

	result, err := decodeResponse(resp.Body())
	if err != nil {
		s.logFailure(endpoint, payload, err)
		return nil, err
	}

	status, err := responseStatus(result)
	if err != nil {
		s.logFailure(endpoint, payload, err)
		return nil, err
	}

	if status != 0 {
		statusMessage, _ := result["status_message"].(string)
		s.logger.Warn("request rejected by platform",
			zap.String("endpoint", endpoint),
			zap.Int64("status", status),
			zap.String("status_message", statusMessage))
		return nil, errs.NewRequestError(status, statusMessage)
	}

	return result, nil
}

// SetWebhook registers url as the callback address and returns the event
// types the platform will deliver.
func (s *RequestSender) SetWebhook(ctx context.Context, url string, opts ...WebhookOption) ([]events.Type, error) {
	settings := webhookSettings{sendName: true, sendPhoto: true}
	for _, opt := range opts {
		opt(&settings)
	}

	payload := Payload{
		"url":        url,
		"is_inline":  settings.isInline,
		"send_name":  settings.sendName,
		"send_photo": settings.sendPhoto,
	}
	if settings.eventTypes != nil {
		payload["event_types"] = settings.eventTypes
	}

	result, err := s.PostRequest(ctx, EndpointSetWebhook, payload)
	if err != nil {
		return nil, err
	}

	var accepted []events.Type
	if err := decodeField(result, "event_types", &accepted); err != nil {
		return nil, err
	}
	return accepted, nil
}

// GetAccountInfo returns the bot account details.
func (s *RequestSender) GetAccountInfo(ctx context.Context) (Response, error) {
	return s.PostRequest(ctx, EndpointGetAccountInfo, Payload{})
}

// GetOnlineStatus returns the online status of the given members.
func (s *RequestSender) GetOnlineStatus(ctx context.Context, ids []string) ([]OnlineStatus, error) {
	if len(ids) == 0 {
		return nil, errs.NewValidationError("missing parameter ids, should be a list of viber memberIds")
	}

	result, err := s.PostRequest(ctx, EndpointGetOnline, Payload{"ids": ids})
	if err != nil {
		return nil, err
	}

	var users []OnlineStatus
	if err := decodeField(result, "users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUserDetails returns the profile of a subscribed user.
func (s *RequestSender) GetUserDetails(ctx context.Context, userID string) (*UserDetails, error) {
	if userID == "" {
		return nil, errs.NewValidationError("missing parameter id")
	}

	result, err := s.PostRequest(ctx, EndpointGetUserDetails, Payload{"id": userID})
	if err != nil {
		return nil, err
	}

	user := new(UserDetails)
	if err := decodeField(result, "user", user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *RequestSender) logFailure(endpoint string, payload Payload, err error) {
	s.logger.Error("failed to post request",
		zap.String("endpoint", endpoint),
		zap.Any("payload", payload),
		zap.Error(err))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func decodeResponse(body []byte) (Response, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var result Response
	if err := decoder.Decode(&result); err != nil {
		return nil, err
	}
	return result, nil
}

func responseStatus(result Response) (int64, error) {
	raw, ok := result["status"]
	if !ok {
		return 0, errors.New("response is missing field 'status'")
	}
	number, ok := raw.(json.Number)
	if !ok {
		return 0, fmt.Errorf("response status %v is not a number", raw)
	}
	return number.Int64()
}

// decodeField re-decodes one response field into a typed value.
func decodeField(result Response, key string, dst any) error {
	raw, ok := result[key]
	if !ok {
		return fmt.Errorf("response is missing field '%s'", key)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode response field '%s': %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode response field '%s': %w", key, err)
	}
	return nil
}
