package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/viberbot/internal/config"
	"github.com/mamadbah2/viberbot/internal/domain/models"
	"github.com/mamadbah2/viberbot/internal/service/commands"
	"github.com/mamadbah2/viberbot/pkg/clients/anthropic"
	"github.com/mamadbah2/viberbot/pkg/clients/viber/events"
	"github.com/mamadbah2/viberbot/pkg/clients/viber/messages"
)

// ErrInvalidSignature means the callback body does not match its signature.
var ErrInvalidSignature = errors.New("invalid callback signature")

// ErrInvalidPayload means the callback body could not be decoded.
var ErrInvalidPayload = errors.New("invalid callback payload")

const (
	subscribeReply           = "Thanks for subscribing!"
	conversationStartedReply = "Thanks for starting conversation!"
	aiTimeout                = 20 * time.Second
)

// ViberAPI is the callback part of *viber.API.
type ViberAPI interface {
	VerifySignature(body []byte, signature string) bool
	ParseRequest(body []byte) (events.Event, error)
}

// Sender delivers and journals bot messages.
type Sender interface {
	Send(ctx context.Context, to, chatID string, msgs ...messages.Message) ([]string, error)
	SendText(ctx context.Context, to, text string) ([]string, error)
	Broadcast(ctx context.Context, text string) ([]string, error)
	Record(ctx context.Context, entries ...models.JournalEntry)
}

// SubscriberStore keeps track of who follows the bot.
type SubscriberStore interface {
	UpsertSubscriber(ctx context.Context, subscriber models.Subscriber) error
	MarkUnsubscribed(ctx context.Context, userID string, at time.Time) error
}

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	HandleWebhook(ctx context.Context, body []byte, signature string) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) ([]string, error)
	Broadcast(ctx context.Context, text string) ([]string, error)
}

// Service answers Viber callbacks: it echoes or AI-answers messages, runs
// admin commands, greets new users and journals delivery callbacks.
type Service struct {
	cfg         config.ViberConfig
	api         ViberAPI
	sender      Sender
	subscribers SubscriberStore
	dispatcher  commands.Dispatcher
	ai          anthropic.Client
	sessions    *SessionManager
	logger      *zap.Logger
}

// NewService wires a new service instance. aiClient may be nil, in which
// case text messages are echoed.
func NewService(cfg config.ViberConfig, api ViberAPI, sender Sender, subscribers SubscriberStore, dispatcher commands.Dispatcher, aiClient anthropic.Client, logger *zap.Logger) *Service {
	svc := &Service{
		cfg:         cfg,
		api:         api,
		sender:      sender,
		subscribers: subscribers,
		dispatcher:  dispatcher,
		ai:          aiClient,
		sessions:    NewSessionManager(),
		logger:      logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// HandleWebhook verifies and decodes a raw callback, then handles it. Only
// signature and decoding problems are returned; handling failures are
// logged so the platform does not redeliver the callback.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !s.api.VerifySignature(body, signature) {
		return ErrInvalidSignature
	}

	event, err := s.api.ParseRequest(body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	if err := s.HandleEvent(ctx, event); err != nil {
		s.logger.Error("failed to handle callback", zap.String("event", string(event.EventType())), zap.Error(err))
	}
	return nil
}

// HandleEvent reacts to one decoded callback.
func (s *Service) HandleEvent(ctx context.Context, event events.Event) error {
	at := time.UnixMilli(event.UnixTimestamp()).UTC()

	switch e := event.(type) {
	case *events.MessageEvent:
		s.sender.Record(ctx, models.JournalEntry{
			Time:         at,
			Kind:         models.JournalReceived,
			UserID:       e.Sender.ID,
			MessageToken: string(e.MessageToken),
			Detail:       string(e.Message.Type()),
		})
		return s.handleMessage(ctx, e)

	case *events.Subscribed:
		subscriber := models.Subscriber{
			ID:           e.User.ID,
			Name:         e.User.Name,
			Avatar:       e.User.Avatar,
			Country:      e.User.Country,
			Language:     e.User.Language,
			APIVersion:   e.User.APIVersion,
			SubscribedAt: at,
		}
		if err := s.subscribers.UpsertSubscriber(ctx, subscriber); err != nil {
			return err
		}
		s.sender.Record(ctx, models.JournalEntry{Time: at, Kind: models.JournalSubscribed, UserID: e.User.ID})
		_, err := s.sender.SendText(ctx, e.User.ID, subscribeReply)
		return err

	case *events.Unsubscribed:
		s.sessions.ClearSession(e.UserID)
		s.sender.Record(ctx, models.JournalEntry{Time: at, Kind: models.JournalUnsubscribed, UserID: e.UserID})
		return s.subscribers.MarkUnsubscribed(ctx, e.UserID, at)

	case *events.ConversationStarted:
		s.logger.Info("conversation started", zap.String("user", e.User.ID), zap.String("type", e.Kind), zap.Bool("subscribed", e.Subscribed))
		_, err := s.sender.SendText(ctx, e.User.ID, conversationStartedReply)
		return err

	case *events.Delivered:
		s.sender.Record(ctx, models.JournalEntry{Time: at, Kind: models.JournalDelivered, UserID: e.UserID, MessageToken: string(e.MessageToken)})
		return nil

	case *events.Seen:
		s.sender.Record(ctx, models.JournalEntry{Time: at, Kind: models.JournalSeen, UserID: e.UserID, MessageToken: string(e.MessageToken)})
		return nil

	case *events.Failed:
		s.logger.Warn("message delivery failed", zap.String("user", e.UserID), zap.String("token", string(e.MessageToken)), zap.String("desc", e.Desc))
		s.sender.Record(ctx, models.JournalEntry{Time: at, Kind: models.JournalFailed, UserID: e.UserID, MessageToken: string(e.MessageToken), Detail: e.Desc})
		return nil

	case *events.Webhook:
		s.logger.Info("webhook confirmed by platform")
		return nil

	default:
		s.logger.Debug("ignoring callback", zap.String("event", string(event.EventType())))
		return nil
	}
}

func (s *Service) handleMessage(ctx context.Context, e *events.MessageEvent) error {
	text, isText := e.Message.(*messages.Text)

	switch {
	case isText && models.IsCommand(text.Text) && s.isAdmin(e.Sender.ID):
		return s.reply(ctx, e, s.runCommand(ctx, text.Text, e.Sender.ID))

	case isText && s.ai != nil:
		answer, err := s.askAI(ctx, e.Sender.ID, text.Text)
		if err == nil {
			return s.reply(ctx, e, answer)
		}
		s.logger.Warn("ai reply failed, echoing instead", zap.String("user", e.Sender.ID), zap.Error(err))
	}

	_, err := s.sender.Send(ctx, e.Sender.ID, e.ChatID, e.Message)
	return err
}

func (s *Service) reply(ctx context.Context, e *events.MessageEvent, text string) error {
	_, err := s.sender.Send(ctx, e.Sender.ID, e.ChatID, &messages.Text{Text: text})
	return err
}

func (s *Service) isAdmin(userID string) bool {
	return s.cfg.AdminID != "" && userID == s.cfg.AdminID
}

// runCommand turns dispatcher errors into operator-facing text.
func (s *Service) runCommand(ctx context.Context, text, sender string) string {
	cmd := models.ParseCommand(text)

	result, err := s.dispatcher.HandleCommand(ctx, cmd, sender)
	switch {
	case err == nil:
		return result
	case errors.Is(err, commands.ErrInvalidArguments):
		return fmt.Sprintf("Invalid arguments. Usage: %s", commands.Usage[cmd.Type].Title)
	case errors.Is(err, commands.ErrUnsupportedCommand):
		return "Unknown command.\n" + commands.HelpText()
	default:
		s.logger.Error("command failed", zap.String("command", string(cmd.Type)), zap.Error(err))
		return fmt.Sprintf("Command %s failed: %v", cmd.Type, err)
	}
}

func (s *Service) askAI(ctx context.Context, userID, input string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, aiTimeout)
	defer cancel()

	answer, err := s.ai.Reply(ctx, s.sessions.History(userID), input)
	if err != nil {
		return "", err
	}
	s.sessions.Append(userID,
		anthropic.Message{Role: "user", Content: input},
		anthropic.Message{Role: "assistant", Content: answer})
	return answer, nil
}

// SendOutbound lets internal operators push text to one user via HTTP.
func (s *Service) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) ([]string, error) {
	return s.sender.Send(ctx, req.To, req.ChatID, &messages.Text{Text: req.Text})
}

// Broadcast sends text to every active subscriber.
func (s *Service) Broadcast(ctx context.Context, text string) ([]string, error) {
	return s.sender.Broadcast(ctx, text)
}
