package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/adapters/cache"
	"github.com/LycorisBlue/backend-ruachconnect/internal/adapters/handler"
	"github.com/LycorisBlue/backend-ruachconnect/internal/adapters/middleware"
	"github.com/LycorisBlue/backend-ruachconnect/internal/adapters/repository"
	"github.com/LycorisBlue/backend-ruachconnect/internal/config"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/services"
)

func main() {
	_ = godotenv.Load()

	logger, err := config.NewLogger(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.Load()
	ctx := context.Background()

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
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	logger.Info("connected to redis", zap.String("address", cfg.RedisAddress))

	personRepo := repository.NewPersonRepository(db, logger)
	followUpRepo := repository.NewFollowUpRepository(db, logger)
	mentorRepo := repository.NewMentorRepository(db, logger)
	notificationRepo := repository.NewNotificationRepository(db, logger)
	settingsRepo := repository.NewSettingsRepository(db, logger)

	settings := cache.NewSettingsCache(settingsRepo, redisClient, cfg.SettingsCacheTTL, logger)
	clock := ports.SystemClock{}

	notificationService := services.NewNotificationService(personRepo, notificationRepo, clock, logger)
	assignmentService := services.NewAssignmentService(personRepo, mentorRepo, settings, notificationService, clock, logger)
	personService := services.NewPersonService(personRepo, assignmentService, settings, notificationService, clock, logger)
	followUpService := services.NewFollowUpService(personRepo, followUpRepo, mentorRepo, clock, logger)
	statsService := services.NewStatsService(personRepo, mentorRepo, followUpRepo, clock, logger)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTPublicKey, logger)

	personHandler := handler.NewPersonHandler(personService, assignmentService, followUpService, logger)
	followUpHandler := handler.NewFollowUpHandler(followUpService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger)
	statsHandler := handler.NewStatsHandler(statsService, logger)
	healthHandler := handler.NewHealthHandler(db, redisClient, logger)

	anyRole := []string{
		string(domain.RoleCanCommittee),
		string(domain.RoleMentor),
		string(domain.RolePastor),
		string(domain.RoleAdmin),
	}
	intakeRoles := []string{string(domain.RoleCanCommittee), string(domain.RoleAdmin)}
	followUpRoles := []string{string(domain.RoleMentor), string(domain.RolePastor), string(domain.RoleAdmin)}
	oversightRoles := []string{string(domain.RolePastor), string(domain.RoleAdmin)}
	dashboardRoles := []string{string(domain.RoleCanCommittee), string(domain.RolePastor), string(domain.RoleAdmin)}

	mux := http.NewServeMux()

	// Health endpoints (OpenShift compatible)
	mux.HandleFunc("/health", healthHandler.Health)
	mux.HandleFunc("/health/ready", healthHandler.Ready)
	mux.HandleFunc("/health/live", healthHandler.Live)
	mux.Handle("/metrics", promhttp.Handler())

	// Visitor lifecycle
	mux.Handle("POST /persons", authMiddleware.RequireRole(intakeRoles, personHandler.Create))
	mux.Handle("GET /persons", authMiddleware.RequireRole(anyRole, personHandler.List))
	mux.Handle("GET /persons/overdue", authMiddleware.RequireRole(followUpRoles, personHandler.Overdue))
	mux.Handle("GET /persons/{id}", authMiddleware.RequireRole(anyRole, personHandler.Get))
	mux.Handle("PUT /persons/{id}/status", authMiddleware.RequireRole(followUpRoles, personHandler.SetStatus))
	mux.Handle("PUT /persons/{id}/assign", authMiddleware.RequireRole(oversightRoles, personHandler.AssignMentor))

	// Follow-ups
	mux.Handle("POST /follow-ups", authMiddleware.RequireRole(followUpRoles, followUpHandler.Create))
	mux.Handle("GET /follow-ups", authMiddleware.RequireRole(anyRole, followUpHandler.List))
	mux.Handle("GET /follow-ups/upcoming", authMiddleware.RequireRole(followUpRoles, followUpHandler.Upcoming))

	// Notifications
	mux.Handle("GET /notifications", authMiddleware.RequireRole(anyRole, notificationHandler.List))
	mux.Handle("PUT /notifications/{id}/read", authMiddleware.RequireRole(anyRole, notificationHandler.MarkRead))

	// Stats
	mux.Handle("GET /stats/mentors", authMiddleware.RequireRole(oversightRoles, statsHandler.MentorWorkloads))
	mux.Handle("GET /stats/dashboard", authMiddleware.RequireRole(dashboardRoles, statsHandler.Dashboard))

	corsOrigins := []string{"*"}
	if raw := os.Getenv("CORS_ALLOWED_ORIGINS"); raw != "" {
		corsOrigins = []string{raw}
	}
	root := middleware.CORSMiddleware(corsOrigins)(mux)

	logger.Info("starting api server", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, root); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
