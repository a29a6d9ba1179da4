package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/adapters/cache"
	"github.com/LycorisBlue/backend-ruachconnect/internal/adapters/messaging"
	"github.com/LycorisBlue/backend-ruachconnect/internal/adapters/outbox"
	"github.com/LycorisBlue/backend-ruachconnect/internal/adapters/repository"
	"github.com/LycorisBlue/backend-ruachconnect/internal/config"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/services"
)

// The reminder worker runs two long-lived jobs: the cron-driven reminder pass
// and the notification outbox relay.
func main() {
	_ = godotenv.Load()

	logger, err := config.NewLogger(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.LoadWorkerConfig()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}

	broker, err := messaging.NewRabbitMQBroker(cfg.RabbitMQURL, cfg.NotificationQueueName)
	if err != nil {
		logger.Fatal("failed to connect to rabbitmq", zap.Error(err))
	}
	defer broker.Close()
	logger.Info("connected to rabbitmq", zap.String("queue", cfg.NotificationQueueName))

	personRepo := repository.NewPersonRepository(db, logger)
	followUpRepo := repository.NewFollowUpRepository(db, logger)
	mentorRepo := repository.NewMentorRepository(db, logger)
	notificationRepo := repository.NewNotificationRepository(db, logger)
	settingsRepo := repository.NewSettingsRepository(db, logger)

	settings := cache.NewSettingsCache(settingsRepo, redisClient, time.Minute, logger)
	guard := cache.NewRedisReminderGuard(redisClient)
	clock := ports.SystemClock{}

	notificationService := services.NewNotificationService(personRepo, notificationRepo, clock, logger)
	followUpService := services.NewFollowUpService(personRepo, followUpRepo, mentorRepo, clock, logger)
	reminderService := services.NewReminderService(
		personRepo, followUpService, settings, guard, notificationService, clock, logger)

	relay := outbox.NewRelay(db, cfg.DatabaseURL, broker, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.ReminderCronSpec, func() {
		report, err := reminderService.RunReminderPass(ctx)
		if err != nil {
			logger.Error("reminder pass failed", zap.Error(err))
			return
		}
		logger.Info("reminder pass finished",
			zap.Int("new_reminders", report.NewVisitorReminders),
			zap.Int("overdue_reminders", report.OverdueReminders),
			zap.Int("skipped", report.Skipped))
	})
	if err != nil {
		logger.Fatal("invalid reminder cron spec",
			zap.String("spec", cfg.ReminderCronSpec), zap.Error(err))
	}
	scheduler.Start()
	logger.Info("reminder scheduler started", zap.String("spec", cfg.ReminderCronSpec))

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := "UP"
		httpStatus := http.StatusOK
		if !relay.IsHealthy() {
			status = "DOWN"
			httpStatus = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(httpStatus)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":    status,
			"component": "reminder-worker",
		})
	})
	healthMux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		status := "UP"
		httpStatus := http.StatusOK
		if !relay.IsReady() {
			status = "DOWN"
			httpStatus = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(httpStatus)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":    status,
			"component": "reminder-worker",
		})
	})

	healthServer := &http.Server{Addr: ":8090", Handler: healthMux}
	go func() {
		logger.Info("health server listening", zap.String("addr", healthServer.Addr))
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", zap.Error(err))
		}
	}()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("outbox relay starting")
		if err := relay.Start(ctx); err != nil && err != context.Canceled {
			logger.Error("relay worker error", zap.Error(err))
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.Error("fatal worker error, shutting down", zap.Error(err))
	}
	cancel()

	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("health server shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
