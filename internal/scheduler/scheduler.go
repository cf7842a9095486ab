package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/viberbot/internal/config"
)

const jobTimeout = 2 * time.Minute

// ReportGenerator builds the weekly delivery report text.
type ReportGenerator interface {
	GenerateWeeklyReport(ctx context.Context, now time.Time) (string, error)
}

// TextSender delivers plain text to a Viber user.
type TextSender interface {
	SendText(ctx context.Context, to, text string) ([]string, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron    *cron.Cron
	reports ReportGenerator
	sender  TextSender
	cfg     config.Config
	logger  *zap.Logger
	now     func() time.Time
}

// NewScheduler creates a new scheduler instance running in the configured
// reporting timezone.
func NewScheduler(cfg config.Config, reports ReportGenerator, sender TextSender, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load reporting timezone %q: %w", cfg.Reporting.Timezone, err)
	}

	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		reports: reports,
		sender:  sender,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Start registers the jobs and starts the scheduler. Without an admin to
// receive it, the weekly report is not scheduled.
func (s *Scheduler) Start() error {
	if s.cfg.Viber.AdminID == "" {
		s.logger.Warn("VIBER_ADMIN_ID not set, weekly report disabled")
	} else if _, err := s.cron.AddFunc(s.cfg.Reporting.CronSchedule, s.sendWeeklyReport); err != nil {
		return fmt.Errorf("schedule weekly report %q: %w", s.cfg.Reporting.CronSchedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.Reporting.CronSchedule))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendWeeklyReport() {
	s.logger.Info("generating weekly report")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	report, err := s.reports.GenerateWeeklyReport(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to generate weekly report", zap.Error(err))
		return
	}

	if _, err := s.sender.SendText(ctx, s.cfg.Viber.AdminID, report); err != nil {
		s.logger.Error("failed to send weekly report", zap.Error(err))
		return
	}
	s.logger.Info("weekly report sent successfully")
}
