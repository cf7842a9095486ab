package reporting

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/viberbot/internal/domain/models"
)

const dateLayout = "2006-01-02"

// JournalReader loads delivery journal entries in [start, end).
type JournalReader interface {
	Entries(ctx context.Context, start, end time.Time) ([]models.JournalEntry, error)
}

// ReportStore keeps generated reports.
type ReportStore interface {
	SaveDeliveryReport(ctx context.Context, report models.DeliveryReport) error
}

// Service exposes delivery analytics for operator commands and the weekly report.
type Service struct {
	journal JournalReader
	store   ReportStore
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires a new reporting service instance. store may be nil.
func NewService(journal JournalReader, store ReportStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{journal: journal, store: store, logger: logger, now: time.Now}
}

// DeliveryReport aggregates the journal over [start, end). Delivery
// callbacks are counted once per message token.
func (s *Service) DeliveryReport(ctx context.Context, start, end time.Time) (models.DeliveryReport, error) {
	entries, err := s.journal.Entries(ctx, start, end)
	if err != nil {
		return models.DeliveryReport{}, fmt.Errorf("load journal: %w", err)
	}

	report := models.DeliveryReport{PeriodStart: start, PeriodEnd: end, CreatedAt: s.now().UTC()}
	seen := map[models.JournalKind]map[string]struct{}{
		models.JournalDelivered: {},
		models.JournalSeen:      {},
		models.JournalFailed:    {},
	}

	for _, entry := range entries {
		switch entry.Kind {
		case models.JournalSent:
			report.Sent++
		case models.JournalReceived:
			report.Received++
		case models.JournalSubscribed:
			report.Subscribed++
		case models.JournalUnsubscribed:
			report.Unsubscribed++
		case models.JournalDelivered, models.JournalSeen, models.JournalFailed:
			key := entry.MessageToken
			if key == "" {
				key = entry.UserID + "/" + entry.Time.String()
			}
			seen[entry.Kind][key] = struct{}{}
		default:
			s.logger.Debug("skip journal entry with unknown kind", zap.String("kind", string(entry.Kind)))
		}
	}

	report.Delivered = len(seen[models.JournalDelivered])
	report.Seen = len(seen[models.JournalSeen])
	report.Failed = len(seen[models.JournalFailed])
	report.DeliveryRate = percentage(report.Delivered, report.Sent)
	report.SeenRate = percentage(report.Seen, report.Sent)

	return report, nil
}

// GenerateWeeklyReport summarises the seven days before now, stores the
// report and returns its text.
func (s *Service) GenerateWeeklyReport(ctx context.Context, now time.Time) (string, error) {
	end := dayStart(now)
	start := end.AddDate(0, 0, -7)

	report, err := s.DeliveryReport(ctx, start, end)
	if err != nil {
		return "", err
	}

	if s.store != nil {
		if err := s.store.SaveDeliveryReport(ctx, report); err != nil {
			s.logger.Error("failed to store delivery report", zap.Error(err))
		}
	}

	return FormatReport(report), nil
}

// FormatReport renders a report as a chat message.
func FormatReport(report models.DeliveryReport) string {
	period := fmt.Sprintf("%s-%s", report.PeriodStart.Format(dateLayout), report.PeriodEnd.Format(dateLayout))

	if report.Sent == 0 && report.Received == 0 && report.Subscribed == 0 && report.Unsubscribed == 0 {
		return fmt.Sprintf("Delivery report (%s): no activity recorded.", period)
	}

	return fmt.Sprintf("Delivery report (%s): %d sent, %d delivered (%.2f%%), %d seen (%.2f%%), %d failed.\n%d messages received, %d subscribed, %d unsubscribed.",
		period,
		report.Sent,
		report.Delivered, report.DeliveryRate,
		report.Seen, report.SeenRate,
		report.Failed,
		report.Received, report.Subscribed, report.Unsubscribed)
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	rate := float64(part) / float64(total) * 100
	return math.Round(rate*100) / 100
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
