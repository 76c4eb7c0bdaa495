package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/office_hours/internal/app"
	"github.com/Freeeeeet/office_hours/internal/audit"
	"github.com/Freeeeeet/office_hours/internal/config"
	"github.com/Freeeeeet/office_hours/internal/controller"
	"github.com/Freeeeeet/office_hours/internal/controller/rest"
	"github.com/Freeeeeet/office_hours/internal/notify"
	"github.com/Freeeeeet/office_hours/internal/repository"
	"github.com/Freeeeeet/office_hours/internal/repository/base"
	"github.com/Freeeeeet/office_hours/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		migrator.Close()
		return err
	}
	migrator.Close()

	// Репозитории делят пул, транзакция передаётся через ctx
	txManager := base.NewRepository(pool)
	slotRepo := repository.NewSlotRepository(pool)
	appointmentRepo := repository.NewAppointmentRepository(pool)
	waitlistRepo := repository.NewWaitlistRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	recurringRepo := repository.NewRecurringScheduleRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	sinks := []notify.Sink{notify.NewStoreSink(notificationRepo)}

	var tgBot *bot.Bot
	if cfg.TelegramToken != "" {
		tgBot, err = bot.New(cfg.TelegramToken)
		if err != nil {
			return err
		}
		sinks = append(sinks, notify.NewTelegramSink(tgBot, userRepo, cfg.PublicURL))
	} else {
		logger.Warn("TELEGRAM_TOKEN is not set, notifications are stored in inbox only")
	}

	dispatcher := notify.NewDispatcher(logger, cfg.NotifyWorkers, cfg.NotifyQueueSize, sinks...)
	dispatcher.Start()
	defer dispatcher.Stop()

	recorder := audit.NewRecorder(logger)

	waitlistService := service.NewWaitlistService(txManager, slotRepo, appointmentRepo, waitlistRepo,
		dispatcher, cfg.Timezone, logger.Named("waitlist"))
	bookingService := service.NewBookingService(txManager, slotRepo, appointmentRepo, waitlistRepo,
		waitlistService, dispatcher, recorder, cfg.Timezone, cfg.MeetingBaseURL, logger.Named("booking"))
	slotService := service.NewSlotService(txManager, slotRepo, appointmentRepo, recurringRepo,
		cfg.Timezone, cfg.SlotGenerationWeeks, logger.Named("slots"))
	reminderService := service.NewReminderService(appointmentRepo, dispatcher, cfg.Timezone, logger.Named("reminders"))
	inboxService := service.NewInboxService(notificationRepo)

	scheduler, err := app.NewScheduler(reminderService, slotService, app.SchedulerConfig{
		ReminderInterval:    cfg.ReminderInterval,
		StartupDelay:        cfg.ReminderStartupDelay,
		SlotGenerationCron:  cfg.SlotGenerationCron,
		SlotGenerationWeeks: cfg.SlotGenerationWeeks,
		Location:            cfg.Timezone,
	}, logger)
	if err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if tgBot != nil {
		botController := controller.NewBotController(tgBot, userRepo, bookingService, cfg.Timezone, logger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Bot commands are not registered", zap.Error(err))
		}
		go botController.Start(ctx)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := rest.NewHandler(bookingService, waitlistService, slotService, inboxService, reminderService, logger)
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      rest.NewRouter(handler, []byte(cfg.JWTSecret), logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server started", zap.String("addr", cfg.HTTPAddr), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	logger.Info("Server stopped")
	return nil
}
