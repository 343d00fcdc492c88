package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/repository"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/service"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/worker"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/config"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/database"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/logger"
)

// Standalone outbox dispatcher. Drains pending intents (notifications,
// ticket emails, audit lines) committed by the API server's transactions.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       "info",
		Format:      "json",
		Environment: cfg.App.Environment,
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Outbox Worker...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection
	dbCfg := &database.PostgresConfig{
		Host:          cfg.Database.Host,
		Port:          cfg.Database.Port,
		User:          cfg.Database.User,
		Password:      cfg.Database.Password,
		Database:      cfg.Database.DBName,
		SSLMode:       cfg.Database.SSLMode,
		MaxConns:      10,
		MinConns:      2,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to connect to database: %v", err))
	}
	defer db.Close()
	appLog.Info("Database connected")

	// Initialize repositories and sinks
	outboxRepo := repository.NewPostgresOutboxRepository(db.Pool())
	reservationRepo := repository.NewPostgresReservationRepository(db.Pool(), outboxRepo)

	notifier := service.NewLogNotifier()
	ticketer := service.NewQRTicketer(reservationRepo, service.NewLogMailSender())
	auditSink := service.NewLogAuditSink()

	// Create worker
	outboxWorker := worker.NewOutboxWorker(
		outboxRepo,
		notifier,
		ticketer,
		auditSink,
		&worker.OutboxWorkerConfig{
			PollInterval:         cfg.Workers.OutboxPollInterval,
			BatchSize:            cfg.Workers.OutboxBatchSize,
			RetryInterval:        cfg.Workers.OutboxRetryInterval,
			CleanupInterval:      1 * time.Hour,
			CleanupRetentionDays: int(cfg.Workers.OutboxCleanupAfter.Hours() / 24),
		},
	)

	if err := outboxWorker.Start(ctx); err != nil {
		appLog.Fatal(fmt.Sprintf("Worker failed to start: %v", err))
	}

	appLog.Info("Outbox Worker started successfully")

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down worker...")
	cancel()
	outboxWorker.Stop()

	appLog.Info("Outbox Worker exited gracefully")
}
