package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/viberbot/internal/config"
	"github.com/mamadbah2/viberbot/internal/repository/mongodb"
	"github.com/mamadbah2/viberbot/internal/repository/sheets"
	"github.com/mamadbah2/viberbot/internal/scheduler"
	"github.com/mamadbah2/viberbot/internal/server/handlers"
	"github.com/mamadbah2/viberbot/internal/server/router"
	botsvc "github.com/mamadbah2/viberbot/internal/service/bot"
	commandsvc "github.com/mamadbah2/viberbot/internal/service/commands"
	outboundsvc "github.com/mamadbah2/viberbot/internal/service/outbound"
	reportingsvc "github.com/mamadbah2/viberbot/internal/service/reporting"
	"github.com/mamadbah2/viberbot/pkg/clients/anthropic"
	"github.com/mamadbah2/viberbot/pkg/clients/viber"
	"github.com/mamadbah2/viberbot/pkg/clients/viber/events"
	"github.com/mamadbah2/viberbot/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
	if err != nil {
		baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
	}
	journal := sheets.NewJournal(sheetsRepo, baseLogger.Named("repo.journal"))

	mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	httpClient := resty.New()
	defer httpClient.GetClient().CloseIdleConnections()

	viberAPI := viber.New(
		viber.BotConfiguration{Name: cfg.Viber.BotName, Avatar: cfg.Viber.BotAvatar, AuthToken: cfg.Viber.AuthToken},
		viber.WithLogger(baseLogger.Named("client.viber")),
		viber.WithHTTPClient(httpClient),
		viber.WithBaseURL(cfg.Viber.BaseURL),
		viber.WithTimeout(cfg.Viber.RequestTimeout),
		viber.WithBroadcastLimit(cfg.Viber.BroadcastMaxLength),
	)

	sender := outboundsvc.NewService(viberAPI, mongoRepo, journal, cfg.Viber.BroadcastMaxLength, baseLogger.Named("svc.outbound"))
	reportingSvc := reportingsvc.NewService(journal, mongoRepo, baseLogger.Named("svc.reporting"))
	commandDispatcher := commandsvc.NewService(viberAPI, sender, mongoRepo, reportingSvc, baseLogger.Named("svc.commands"))

	var aiClient anthropic.Client
	if cfg.AI.AnthropicKey != "" {
		aiClient = anthropic.NewClient(cfg.AI.AnthropicKey, cfg.Viber.BotName)
		baseLogger.Info("anthropic ai client enabled")
	} else {
		baseLogger.Warn("anthropic api key missing, text messages will be echoed")
	}

	messagingSvc := botsvc.NewService(cfg.Viber, viberAPI, sender, mongoRepo, commandDispatcher, aiClient, baseLogger.Named("svc.bot"))
	webhookHandler := handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.webhook"))
	engine := router.New(webhookHandler, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(*cfg, reportingSvc, sender, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	// The platform probes the webhook URL while registering it, so the
	// server has to be listening first.
	if cfg.Viber.WebhookURL != "" {
		go registerWebhook(ctx, viberAPI, cfg.Viber, baseLogger)
	}

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func registerWebhook(ctx context.Context, api *viber.API, cfg config.ViberConfig, log *zap.Logger) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(time.Second):
	}

	types := make([]events.Type, 0, len(cfg.WebhookEvents))
	for _, name := range cfg.WebhookEvents {
		types = append(types, events.Type(name))
	}

	var opts []viber.WebhookOption
	if len(types) > 0 {
		opts = append(opts, viber.WithEventTypes(types...))
	}

	subscribed, err := api.SetWebhook(ctx, cfg.WebhookURL, opts...)
	if err != nil {
		log.Error("failed to set webhook", zap.String("url", cfg.WebhookURL), zap.Error(err))
		return
	}
	log.Info("webhook registered", zap.String("url", cfg.WebhookURL), zap.Any("event_types", subscribed))
}
