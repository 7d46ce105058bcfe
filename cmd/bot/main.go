package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"mensa_menu_bot/internal/app"
	"mensa_menu_bot/internal/infra/config"
	idb "mensa_menu_bot/internal/infra/database"
	"mensa_menu_bot/internal/infra/logger"
	"mensa_menu_bot/internal/infra/mensa"
	"mensa_menu_bot/internal/infra/scheduler"
	itelegram "mensa_menu_bot/internal/infra/telegram"

	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg.LogLevel, cfg.Environment)
	log := logger.Get()
	log.WithField("environment", cfg.Environment).Info("Mensa menu bot starting")

	// Database connection and subscription store
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	subRepo := idb.NewPostgresSubscriptionRepository(db)
	if err := subRepo.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("FATAL: Could not prepare database schema: %v", err)
	}

	// Telegram bot. The poller stays nil: updates are pulled manually so the
	// read watermark only advances after a message was handled.
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.TelegramToken,
		Client: &http.Client{Timeout: cfg.HTTPTimeout},
	})
	if err != nil {
		log.Fatalf("FATAL: Could not create Telegram bot: %v", err)
	}
	telegramClient := itelegram.NewTelebotAdapter(bot)
	updatePuller := itelegram.NewUpdatePuller(bot)

	// Menu pipeline
	menuSource := mensa.NewClient(cfg.MenuURL, cfg.HTTPTimeout, log.WithField("component", "mensa"))
	menuService := app.NewMenuService(
		menuSource,
		telegramClient,
		log.WithField("component", "menu"),
		cfg.ExcludedCounter,
		cfg.CutoffHour,
	)

	// Durable delivery schedule
	notifScheduler := scheduler.NewNotificationScheduler(
		subRepo,
		menuService,
		log.WithField("component", "scheduler"),
		cfg.NotifyHour,
		cfg.NotifyMinute,
		cfg.MisfireGrace,
	)
	if err := notifScheduler.Start(context.Background()); err != nil {
		log.Fatalf("FATAL: Could not start notification scheduler: %v", err)
	}

	// Inbound side
	handler := app.NewMessageHandler(
		menuService,
		notifScheduler,
		telegramClient,
		updatePuller,
		log.WithField("component", "handler"),
		cfg.NotifyHour,
		cfg.NotifyMinute,
	)
	poller := app.NewUpdatePoller(
		updatePuller,
		handler,
		log.WithField("component", "poller"),
		cfg.PollInterval,
		cfg.ErrorBackoff,
	)

	ctx, cancel := context.WithCancel(context.Background())
	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		poller.Run(ctx)
	}()
	log.Info("Bot running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down application...")
	cancel()
	<-pollerDone
	notifScheduler.Stop()
	log.Info("Application shut down gracefully")
}
