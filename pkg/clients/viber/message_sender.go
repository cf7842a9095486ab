package viber

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/viberbot/pkg/clients/viber/errs"
	"github.com/mamadbah2/viberbot/pkg/clients/viber/messages"
)

// PostRequester is the transport the MessageSender relies on.
type PostRequester interface {
	PostRequest(ctx context.Context, endpoint string, payload Payload) (Response, error)
}

// MessageSender shapes message payloads for the send, broadcast and post
// endpoints.
type MessageSender struct {
	logger         *zap.Logger
	requester      PostRequester
	broadcastLimit int
}

// NewMessageSender builds a sender. A non-positive limit selects
// DefaultBroadcastMaxSize.
func NewMessageSender(logger *zap.Logger, requester PostRequester, broadcastLimit int) *MessageSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	if broadcastLimit <= 0 {
		broadcastLimit = DefaultBroadcastMaxSize
	}
	return &MessageSender{logger: logger, requester: requester, broadcastLimit: broadcastLimit}
}

type recipient struct {
	from          string
	receiver      string
	chatID        string
	broadcastList []string
}

// SendMessage sends message to a single user and returns its token. chatID
// is only set for inline conversations.
func (s *MessageSender) SendMessage(ctx context.Context, to, senderName, senderAvatar string, message messages.Message, chatID string) (string, error) {
	if err := s.validate(message); err != nil {
		return "", err
	}

	payload, err := s.preparePayload(message, senderName, senderAvatar, recipient{receiver: to, chatID: chatID})
	if err != nil {
		return "", err
	}
	return s.post(ctx, EndpointSendMessage, payload)
}

// BroadcastMessage sends message to every id in broadcastList at once.
func (s *MessageSender) BroadcastMessage(ctx context.Context, broadcastList []string, senderName, senderAvatar string, message messages.Message) (string, error) {
	if err := s.validate(message); err != nil {
		return "", err
	}

	switch {
	case broadcastList == nil:
		return "", errs.NewValidationError("broadcast list should contain list of receiver ids")
	case len(broadcastList) == 0:
		return "", errs.NewValidationError("broadcast list should not be empty")
	case len(broadcastList) > s.broadcastLimit:
		return "", errs.Validationf("broadcast list max length is %d", s.broadcastLimit)
	}

	payload, err := s.preparePayload(message, senderName, senderAvatar, recipient{broadcastList: broadcastList})
	if err != nil {
		return "", err
	}
	return s.post(ctx, EndpointBroadcastMessage, payload)
}

// PostToPublicAccount posts message to the bot's public account on behalf
// of sender, who must be an account admin.
func (s *MessageSender) PostToPublicAccount(ctx context.Context, sender, senderName, senderAvatar string, message messages.Message) (string, error) {
	if err := s.validate(message); err != nil {
		return "", err
	}
	if sender == "" {
		return "", errs.NewValidationError("missing parameter sender")
	}

	payload, err := s.preparePayload(message, senderName, senderAvatar, recipient{from: sender})
	if err != nil {
		return "", err
	}
	return s.post(ctx, EndpointPost, payload)
}

func (s *MessageSender) validate(message messages.Message) error {
	if message != nil && message.Validate() {
		return nil
	}
	description := messages.String(message)
	s.logger.Error("failed validating message", zap.String("message", description))
	return errs.Validationf("failed validating message: %s", description)
}

func (s *MessageSender) preparePayload(message messages.Message, senderName, senderAvatar string, to recipient) (Payload, error) {
	fields, err := messages.ToMap(message)
	if err != nil {
		return nil, err
	}

	payload := Payload(fields)
	payload["from"] = nullable(to.from)
	payload["receiver"] = nullable(to.receiver)
	payload["chat_id"] = nullable(to.chatID)
	payload["sender"] = map[string]any{
		"name":   senderName,
		"avatar": nullable(senderAvatar),
	}
	if to.broadcastList != nil {
		payload["broadcast_list"] = to.broadcastList
	}

	return StripEmptyFields(payload), nil
}

func (s *MessageSender) post(ctx context.Context, endpoint string, payload Payload) (string, error) {
	s.logger.Debug("going to send message", zap.String("endpoint", endpoint), zap.Any("payload", payload))

	result, err := s.requester.PostRequest(ctx, endpoint, payload)
	if err != nil {
		return "", err
	}
	return messageToken(result)
}

func messageToken(result Response) (string, error) {
	switch token := result["message_token"].(type) {
	case json.Number:
		return token.String(), nil
	case string:
		return token, nil
	case nil:
		return "", fmt.Errorf("response is missing field 'message_token'")
	default:
		return fmt.Sprint(token), nil
	}
}
