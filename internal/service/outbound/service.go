package outbound

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/viberbot/internal/domain/models"
	"github.com/mamadbah2/viberbot/pkg/clients/viber"
	"github.com/mamadbah2/viberbot/pkg/clients/viber/messages"
)

// ErrNoSubscribers is returned when a broadcast has nobody to reach.
var ErrNoSubscribers = errors.New("no active subscribers")

// API is the part of *viber.API used to deliver messages.
type API interface {
	SendMessages(ctx context.Context, to, chatID string, msgs ...messages.Message) ([]string, error)
	BroadcastMessages(ctx context.Context, broadcastList []string, msgs ...messages.Message) ([]string, error)
}

// SubscriberLister returns the broadcast audience.
type SubscriberLister interface {
	ListActiveSubscribers(ctx context.Context) ([]models.Subscriber, error)
}

// JournalWriter records sends.
type JournalWriter interface {
	Append(ctx context.Context, entries ...models.JournalEntry) error
}

// Service sends bot messages, tags them with a tracking id and journals
// every token the platform returns.
type Service struct {
	api         API
	subscribers SubscriberLister
	journal     JournalWriter
	chunkSize   int
	logger      *zap.Logger
	now         func() time.Time
	trackingID  func() string
}

// NewService wires the sender. journal may be nil. chunkSize is the
// platform broadcast limit; non-positive selects the platform default.
func NewService(api API, subscribers SubscriberLister, journal JournalWriter, chunkSize int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if chunkSize <= 0 {
		chunkSize = viber.DefaultBroadcastMaxSize
	}
	return &Service{
		api:         api,
		subscribers: subscribers,
		journal:     journal,
		chunkSize:   chunkSize,
		logger:      logger,
		now:         time.Now,
		trackingID:  func() string { return uuid.NewString() },
	}
}

// Send delivers msgs to one user in order and returns their tokens.
func (s *Service) Send(ctx context.Context, to, chatID string, msgs ...messages.Message) ([]string, error) {
	trackingID := s.tag(msgs)

	tokens, err := s.api.SendMessages(ctx, to, chatID, msgs...)
	if err != nil {
		return nil, fmt.Errorf("send to %s: %w", to, err)
	}

	entries := make([]models.JournalEntry, len(tokens))
	for i, token := range tokens {
		entries[i] = models.JournalEntry{
			Kind:         models.JournalSent,
			UserID:       to,
			MessageToken: token,
			TrackingData: trackingID,
			Detail:       string(msgs[i].Type()),
		}
	}
	s.Record(ctx, entries...)
	return tokens, nil
}

// SendText is Send for a single text message.
func (s *Service) SendText(ctx context.Context, to, text string) ([]string, error) {
	return s.Send(ctx, to, "", &messages.Text{Text: text})
}

// Broadcast sends text to every active subscriber, one platform call per
// chunk of the broadcast limit. Tokens of chunks sent before a failure are
// returned together with the error.
func (s *Service) Broadcast(ctx context.Context, text string) ([]string, error) {
	subscribers, err := s.subscribers.ListActiveSubscribers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	if len(subscribers) == 0 {
		return nil, ErrNoSubscribers
	}

	ids := make([]string, len(subscribers))
	for i, subscriber := range subscribers {
		ids[i] = subscriber.ID
	}

	var tokens []string
	for start := 0; start < len(ids); start += s.chunkSize {
		end := min(start+s.chunkSize, len(ids))
		chunk := ids[start:end]

		message := &messages.Text{Text: text}
		trackingID := s.tag([]messages.Message{message})

		chunkTokens, err := s.api.BroadcastMessages(ctx, chunk, message)
		if err != nil {
			s.logger.Error("broadcast chunk failed", zap.Int("offset", start), zap.Int("size", len(chunk)), zap.Error(err))
			return tokens, fmt.Errorf("broadcast to %d subscribers from offset %d: %w", len(chunk), start, err)
		}

		entries := make([]models.JournalEntry, len(chunkTokens))
		for i, token := range chunkTokens {
			entries[i] = models.JournalEntry{
				Kind:         models.JournalSent,
				MessageToken: token,
				TrackingData: trackingID,
				Detail:       fmt.Sprintf("broadcast:%d", len(chunk)),
			}
		}
		s.Record(ctx, entries...)
		tokens = append(tokens, chunkTokens...)
	}

	s.logger.Info("broadcast sent", zap.Int("subscribers", len(ids)), zap.Int("messages", len(tokens)))
	return tokens, nil
}

// tag stamps one tracking id on every message.
func (s *Service) tag(msgs []messages.Message) string {
	trackingID := s.trackingID()
	for _, message := range msgs {
		if message == nil {
			continue
		}
		if err := messages.Apply(message, map[string]any{"tracking_data": trackingID}); err != nil {
			s.logger.Debug("message not tagged", zap.String("type", string(message.Type())), zap.Error(err))
		}
	}
	return trackingID
}

// Record journals entries, stamping the time when unset. Journal failures
// are logged only.
func (s *Service) Record(ctx context.Context, entries ...models.JournalEntry) {
	if s.journal == nil || len(entries) == 0 {
		return
	}
	for i := range entries {
		if entries[i].Time.IsZero() {
			entries[i].Time = s.now().UTC()
		}
	}
	if err := s.journal.Append(ctx, entries...); err != nil {
		s.logger.Warn("failed to journal entries", zap.String("kind", string(entries[0].Kind)), zap.Int("count", len(entries)), zap.Error(err))
	}
}
