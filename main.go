package main

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TripTally/trip-tally-backend/config"
	"github.com/TripTally/trip-tally-backend/db"
	"github.com/TripTally/trip-tally-backend/handlers"
	"github.com/TripTally/trip-tally-backend/internal/events"
	"github.com/TripTally/trip-tally-backend/internal/store/postgres"
	"github.com/TripTally/trip-tally-backend/logger"
	"github.com/TripTally/trip-tally-backend/middleware"
	"github.com/TripTally/trip-tally-backend/models"
	"github.com/TripTally/trip-tally-backend/router"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger.InitLogger()
	log := logger.GetLogger()
	defer logger.Close()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Database pool
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to parse database config: %v", err)
	}
	if cfg.Database.MaxConnections > 0 {
		poolConfig.MaxConns = int32(cfg.Database.MaxConnections)
	}
	if cfg.IsProduction() {
		poolConfig.ConnConfig.TLSConfig = &tls.Config{
			ServerName: cfg.Database.Host,
			MinVersion: tls.VersionTLS12,
		}
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(cfg.Database.URL()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis
	redisOptions := &redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	if cfg.Redis.UseTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOptions)
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Warnw("Failed to close redis client", "error", err)
		}
	}()

	// Event publisher
	eventPublisher := events.NewRedisPublisher(redisClient, events.Config{
		PublishTimeout:  time.Duration(cfg.EventService.PublishTimeoutSeconds) * time.Second,
		EventBufferSize: cfg.EventService.EventBufferSize,
	})

	// Stores and models
	expenseStore := postgres.NewExpenseStore(pool)
	participantStore := postgres.NewParticipantStore(pool)
	checklistStore := postgres.NewChecklistStore(pool)

	ledgerModel := models.NewLedgerModel(expenseStore, participantStore, eventPublisher)
	checklistModel := models.NewChecklistModel(checklistStore, ledgerModel, eventPublisher)

	// Router
	r := router.SetupRouter(router.Dependencies{
		Config:           cfg,
		JWTValidator:     middleware.NewJWTValidator(cfg.Server.JwtSecretKey),
		ExpenseHandler:   handlers.NewExpenseHandler(ledgerModel),
		MemberHandler:    handlers.NewMemberHandler(ledgerModel),
		ChecklistHandler: handlers.NewChecklistHandler(checklistModel),
		HealthHandler:    handlers.NewHealthHandler(pool, redisClient, cfg.Server.Version),
		RedisClient:      redisClient,
		Logger:           log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infow("Starting server", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("Server forced to shutdown", "error", err)
	}
	if err := eventPublisher.Shutdown(ctx); err != nil {
		log.Errorw("Event publisher shutdown failed", "error", err)
	}
	log.Info("Server stopped")
}
