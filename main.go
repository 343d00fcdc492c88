package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // Import pprof for profiling
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/di"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/gateway"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/handler"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/pricing"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/repository"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/service"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/worker"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/config"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/database"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/logger"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/middleware"
	pkgredis "github.com/StereoSachiiii/SA-PROJECT-V1/pkg/redis"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/telemetry"
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

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
	if cfg.App.Debug {
		logCfg.Level = "debug"
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Stall Reservation Service...")

	ctx := context.Background()

	// Initialize tracing
	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		appLog.Warn(fmt.Sprintf("Telemetry init failed, continuing without tracing: %v", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	// Initialize database connection
	dbCfg := &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   1 * time.Second,
		EnableTracing:   cfg.OTel.Enabled,
		ServiceName:     cfg.OTel.ServiceName,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	defer db.Close()
	appLog.Info(fmt.Sprintf("Database connected (pool: min=%d, max=%d)", dbCfg.MinConns, dbCfg.MaxConns))

	// Initialize Redis connection
	redisCfg := &pkgredis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}
	redisClient, err := pkgredis.NewClient(ctx, redisCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Redis connection failed: %v", err))
	}
	defer redisClient.Close()
	appLog.Info(fmt.Sprintf("Redis connected (pool: %d, minIdle: %d)", redisCfg.PoolSize, redisCfg.MinIdleConns))

	// Initialize payment gateway
	var paymentGateway gateway.PaymentGateway
	if cfg.Stripe.UseMock {
		paymentGateway = gateway.NewMockGateway(nil)
		appLog.Warn("Using mock payment gateway")
	} else {
		paymentGateway, err = gateway.NewStripeGateway(&gateway.StripeGatewayConfig{
			SecretKey:   cfg.Stripe.SecretKey,
			Environment: cfg.App.Environment,
		})
		if err != nil {
			appLog.Fatal(fmt.Sprintf("Stripe gateway init failed: %v", err))
		}
		appLog.Info("Stripe payment gateway connected")
	}

	// Initialize repositories
	outboxRepo := repository.NewPostgresOutboxRepository(db.Pool())
	reservationRepo := repository.NewPostgresReservationRepository(db.Pool(), outboxRepo)
	stallRepo := repository.NewPostgresStallRepository(db.Pool())
	checkInRepo := repository.NewPostgresCheckInRepository(db.Pool())

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		DB:              db,
		Redis:           redisClient,
		ReservationRepo: reservationRepo,
		StallRepo:       stallRepo,
		CheckInRepo:     checkInRepo,
		OutboxRepo:      outboxRepo,
		PaymentGateway:  paymentGateway,
		PricingConfig:   pricing.DefaultConfig(),
		ServiceConfig: &service.ReservationServiceConfig{
			Quota:    cfg.Reservation.VendorQuota,
			HoldTTL:  cfg.Reservation.HoldTTL,
			Currency: cfg.Reservation.Currency,
		},
		InventoryConfig: &service.InventoryServiceConfig{
			CacheTTL: cfg.Workers.FloorMapCacheTTL,
		},
		ExpiryWorkerCfg: &worker.ExpiryWorkerConfig{
			ScanInterval: cfg.Workers.ExpiryScanInterval,
			BatchSize:    cfg.Workers.ExpiryBatchSize,
		},
		OutboxWorkerCfg: &worker.OutboxWorkerConfig{
			PollInterval:         cfg.Workers.OutboxPollInterval,
			BatchSize:            cfg.Workers.OutboxBatchSize,
			RetryInterval:        cfg.Workers.OutboxRetryInterval,
			CleanupInterval:      1 * time.Hour,
			CleanupRetentionDays: int(cfg.Workers.OutboxCleanupAfter.Hours() / 24),
		},
	})

	// Start background workers alongside the API
	if err := container.ExpiryWorker.Start(ctx); err != nil {
		appLog.Fatal(fmt.Sprintf("Expiry worker failed to start: %v", err))
	}
	defer container.ExpiryWorker.Stop()

	if err := container.OutboxWorker.Start(ctx); err != nil {
		appLog.Fatal(fmt.Sprintf("Outbox worker failed to start: %v", err))
	}
	defer container.OutboxWorker.Stop()

	// Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		gin.DisableConsoleColor()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.OTel.Enabled {
		router.Use(telemetry.TracingMiddleware(cfg.OTel.ServiceName))
	}

	// Health check endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	// Pool stats endpoint for monitoring
	router.GET("/metrics/pool", func(c *gin.Context) {
		stats := db.Stats()
		c.JSON(http.StatusOK, gin.H{
			"db_pool": gin.H{
				"total_conns":    stats.TotalConns(),
				"acquired_conns": stats.AcquiredConns(),
				"idle_conns":     stats.IdleConns(),
				"max_conns":      stats.MaxConns(),
			},
		})
	})

	idempotencyConfig := middleware.DefaultIdempotencyConfig(redisClient.Client())
	idempotencyConfig.SkipPaths = []string{"/health", "/ready", "/metrics/pool"}
	idempotent := middleware.IdempotencyMiddleware(idempotencyConfig)

	auth := handler.AuthMiddleware(cfg.JWT.Secret)

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/status", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"version": cfg.App.Version,
				"service": cfg.App.Name,
			})
		})

		// Public floor map
		v1.GET("/events/:eventId/stalls", container.StallHandler.GetFloorMap)
		v1.GET("/stalls/:id", container.StallHandler.GetStall)

		// Vendor reservation routes
		reservations := v1.Group("/reservations")
		reservations.Use(auth, handler.RequireRole(handler.RoleVendor, handler.RoleAdmin))
		{
			reservations.POST("", idempotent, container.ReservationHandler.CreateReservations)
			reservations.POST("/:id/payment-intent", idempotent, container.ReservationHandler.CreatePaymentIntent)
			reservations.POST("/:id/confirm", idempotent, container.ReservationHandler.ConfirmPayment)
			reservations.POST("/:id/refund-request", idempotent, container.ReservationHandler.RequestRefund)
			reservations.DELETE("/:id", idempotent, container.ReservationHandler.CancelReservation)

			reservations.GET("", container.ReservationHandler.GetMyReservations)
			reservations.GET("/:id", container.ReservationHandler.GetReservation)
			reservations.GET("/summary/:eventId", container.ReservationHandler.GetMySummary)
		}

		// Gate routes for door staff
		gate := v1.Group("/gate")
		gate.Use(auth, handler.RequireRole(handler.RoleEmployee, handler.RoleAdmin))
		{
			gate.POST("/check-in", idempotent, container.CheckInHandler.CheckIn)
			gate.GET("/lookup/:key", container.CheckInHandler.Lookup)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(auth, handler.RequireRole(handler.RoleAdmin))
		{
			admin.DELETE("/reservations/:id", idempotent, container.ReservationHandler.AdminCancel)
			admin.POST("/reservations/:id/refund", idempotent, container.ReservationHandler.AdminRefund)
			admin.POST("/stalls/:id/block", idempotent, container.StallHandler.BlockStall)
			admin.POST("/stalls/:id/unblock", idempotent, container.StallHandler.UnblockStall)
			admin.PUT("/stall-templates/:id/availability", idempotent, container.StallHandler.SetTemplateAvailability)
			admin.POST("/events/:eventId/reprice", idempotent, container.StallHandler.BulkReprice)
		}
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Start pprof server on separate port for profiling
	if cfg.App.Debug {
		go func() {
			pprofAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port+1000)
			appLog.Info(fmt.Sprintf("pprof server listening on %s", pprofAddr))
			if err := http.ListenAndServe(pprofAddr, nil); err != nil {
				appLog.Error(fmt.Sprintf("pprof server error: %v", err))
			}
		}()
	}

	// Start server in goroutine
	go func() {
		appLog.Info(fmt.Sprintf("Stall Reservation Service listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}
