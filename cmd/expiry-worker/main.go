package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/gateway"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/repository"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/service"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/worker"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/config"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/database"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/logger"
)

// Standalone hold-expiry sweeper. The API server runs the same worker
// in-process; deploy this binary instead when the sweep should scale
// independently of the request path.
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
	appLog.Info("Starting Hold Expiry Worker...")

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

	// Initialize repositories. The sweep only transitions holds, so the
	// gateway is never invoked; the mock satisfies the service dependency.
	outboxRepo := repository.NewPostgresOutboxRepository(db.Pool())
	reservationRepo := repository.NewPostgresReservationRepository(db.Pool(), outboxRepo)

	reservationService := service.NewReservationService(
		reservationRepo,
		gateway.NewMockGateway(nil),
		&service.ReservationServiceConfig{
			Quota:    cfg.Reservation.VendorQuota,
			HoldTTL:  cfg.Reservation.HoldTTL,
			Currency: cfg.Reservation.Currency,
		},
	)

	// Create worker
	expiryWorker := worker.NewExpiryWorker(reservationService, &worker.ExpiryWorkerConfig{
		ScanInterval: cfg.Workers.ExpiryScanInterval,
		BatchSize:    cfg.Workers.ExpiryBatchSize,
	})

	if err := expiryWorker.Start(ctx); err != nil {
		appLog.Fatal(fmt.Sprintf("Worker failed to start: %v", err))
	}

	appLog.Info("Hold Expiry Worker started successfully")

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down worker...")
	cancel()
	expiryWorker.Stop()

	appLog.Info("Hold Expiry Worker exited gracefully")
}
