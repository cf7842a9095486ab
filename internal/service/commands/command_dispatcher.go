package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/viberbot/internal/domain/models"
	"github.com/mamadbah2/viberbot/internal/service/reporting"
	"github.com/mamadbah2/viberbot/pkg/clients/viber"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not yet support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

const (
	// get_online accepts at most this many ids per call.
	maxOnlineIDs         = 100
	maxListedSubscribers = 20
	reportWindow         = 7 * 24 * time.Hour
)

// ViberClient is the metadata part of *viber.API.
type ViberClient interface {
	GetAccountInfo(ctx context.Context) (viber.Response, error)
	GetOnline(ctx context.Context, ids []string) ([]viber.OnlineStatus, error)
	GetUserDetails(ctx context.Context, userID string) (*viber.UserDetails, error)
}

// Broadcaster sends text to every active subscriber.
type Broadcaster interface {
	Broadcast(ctx context.Context, text string) ([]string, error)
}

// SubscriberLister returns the active subscribers.
type SubscriberLister interface {
	ListActiveSubscribers(ctx context.Context) ([]models.Subscriber, error)
}

// ReportingAdapter defines the reporting functions required by the dispatcher.
type ReportingAdapter interface {
	DeliveryReport(ctx context.Context, start, end time.Time) (models.DeliveryReport, error)
}

// Dispatcher executes parsed operator commands.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Usage lists the operator commands and their arguments.
var Usage = map[models.CommandType]models.AutomationReply{
	models.CommandInfo:        {Title: "/info", Message: "Show the bot account details."},
	models.CommandOnline:      {Title: "/online <id> [id...]", Message: "Show the online status of up to 100 users."},
	models.CommandWhois:       {Title: "/whois <id>", Message: "Show the profile of a subscribed user."},
	models.CommandBroadcast:   {Title: "/broadcast <text>", Message: "Send text to every active subscriber."},
	models.CommandSubscribers: {Title: "/subscribers", Message: "Count the active subscribers."},
	models.CommandReport:      {Title: "/report", Message: "Delivery statistics for the last seven days."},
	models.CommandHelp:        {Title: "/help", Message: "Show this list."},
}

// Service implements the Dispatcher interface.
type Service struct {
	viber       ViberClient
	broadcaster Broadcaster
	subscribers SubscriberLister
	reporting   ReportingAdapter
	logger      *zap.Logger
	now         func() time.Time
}

// NewService constructs a command dispatcher.
func NewService(viberClient ViberClient, broadcaster Broadcaster, subscribers SubscriberLister, reports ReportingAdapter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		viber:       viberClient,
		broadcaster: broadcaster,
		subscribers: subscribers,
		reporting:   reports,
		logger:      logger,
		now:         time.Now,
	}
}

// HandleCommand runs cmd and returns the text to reply with.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Any("args", cmd.Args))

	switch cmd.Type {
	case models.CommandInfo:
		return s.accountInfo(ctx)
	case models.CommandOnline:
		return s.onlineStatus(ctx, cmd)
	case models.CommandWhois:
		return s.whois(ctx, cmd)
	case models.CommandBroadcast:
		if cmd.Body == "" {
			return "", ErrInvalidArguments
		}
		tokens, err := s.broadcaster.Broadcast(ctx, cmd.Body)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Broadcast sent in %d message(s).", len(tokens)), nil
	case models.CommandSubscribers:
		return s.listSubscribers(ctx)
	case models.CommandReport:
		end := s.now().UTC()
		report, err := s.reporting.DeliveryReport(ctx, end.Add(-reportWindow), end)
		if err != nil {
			return "", err
		}
		return reporting.FormatReport(report), nil
	case models.CommandHelp:
		return HelpText(), nil
	default:
		return "", ErrUnsupportedCommand
	}
}

// HelpText renders Usage in a stable order.
func HelpText() string {
	lines := make([]string, 0, len(Usage))
	for _, reply := range Usage {
		lines = append(lines, fmt.Sprintf("%s - %s", reply.Title, reply.Message))
	}
	sort.Strings(lines)
	return "Commands:\n" + strings.Join(lines, "\n")
}

func (s *Service) accountInfo(ctx context.Context) (string, error) {
	info, err := s.viber.GetAccountInfo(ctx)
	if err != nil {
		return "", err
	}

	message := fmt.Sprintf("Account %v (%v)", info["name"], info["id"])
	if count, ok := info["subscribers_count"]; ok {
		message += fmt.Sprintf(", %v subscribers", count)
	}
	if webhook, ok := info["webhook"].(string); ok && webhook != "" {
		message += fmt.Sprintf(".\nWebhook: %s", webhook)
	}
	return message, nil
}

func (s *Service) onlineStatus(ctx context.Context, cmd models.Command) (string, error) {
	if len(cmd.Args) == 0 || len(cmd.Args) > maxOnlineIDs {
		return "", ErrInvalidArguments
	}

	users, err := s.viber.GetOnline(ctx, cmd.Args)
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "No status returned.", nil
	}

	lines := make([]string, 0, len(users))
	for _, user := range users {
		line := fmt.Sprintf("%s: %s", user.ID, user.OnlineStatusMessage)
		if user.LastOnline > 0 {
			line += fmt.Sprintf(" (last online %s)", time.UnixMilli(user.LastOnline).UTC().Format(time.RFC3339))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

func (s *Service) whois(ctx context.Context, cmd models.Command) (string, error) {
	if len(cmd.Args) != 1 {
		return "", ErrInvalidArguments
	}

	user, err := s.viber.GetUserDetails(ctx, cmd.Args[0])
	if err != nil {
		return "", err
	}

	fields := []string{fmt.Sprintf("%s (%s)", user.Name, user.ID)}
	for _, field := range []struct{ label, value string }{
		{"country", user.Country},
		{"language", user.Language},
		{"device", user.DeviceType},
		{"os", user.PrimaryDeviceOS},
		{"viber", user.ViberVersion},
	} {
		if field.value != "" {
			fields = append(fields, fmt.Sprintf("%s: %s", field.label, field.value))
		}
	}
	return strings.Join(fields, "\n"), nil
}

func (s *Service) listSubscribers(ctx context.Context) (string, error) {
	subscribers, err := s.subscribers.ListActiveSubscribers(ctx)
	if err != nil {
		return "", err
	}
	if len(subscribers) == 0 {
		return "No active subscribers yet.", nil
	}

	lines := []string{fmt.Sprintf("%d active subscriber(s).", len(subscribers))}
	for i, subscriber := range subscribers {
		if i == maxListedSubscribers {
			lines = append(lines, fmt.Sprintf("... and %d more", len(subscribers)-i))
			break
		}
		name := subscriber.Name
		if name == "" {
			name = "(no name)"
		}
		lines = append(lines, fmt.Sprintf("%s - %s", name, subscriber.ID))
	}
	return strings.Join(lines, "\n"), nil
}
