package di

import (
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/gateway"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/handler"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/pricing"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/repository"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/service"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/worker"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/database"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/redis"
)

// Container holds all dependencies for the stall reservation service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	ReservationRepo repository.ReservationRepository
	StallRepo       repository.StallRepository
	CheckInRepo     repository.CheckInRepository
	OutboxRepo      repository.OutboxRepository

	// External
	PaymentGateway gateway.PaymentGateway

	// Services
	ReservationService service.ReservationService
	InventoryService   service.InventoryService
	CheckInService     service.CheckInService

	// Outbox sinks
	Notifier  service.Notifier
	Ticketer  service.Ticketer
	AuditSink service.AuditSink

	// Workers
	ExpiryWorker *worker.ExpiryWorker
	OutboxWorker *worker.OutboxWorker

	// Handlers
	HealthHandler      *handler.HealthHandler
	ReservationHandler *handler.ReservationHandler
	StallHandler       *handler.StallHandler
	CheckInHandler     *handler.CheckInHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB    *database.PostgresDB
	Redis *redis.Client

	ReservationRepo repository.ReservationRepository
	StallRepo       repository.StallRepository
	CheckInRepo     repository.CheckInRepository
	OutboxRepo      repository.OutboxRepository

	PaymentGateway gateway.PaymentGateway

	PricingConfig     pricing.Config
	ServiceConfig     *service.ReservationServiceConfig
	InventoryConfig   *service.InventoryServiceConfig
	ExpiryWorkerCfg   *worker.ExpiryWorkerConfig
	OutboxWorkerCfg   *worker.OutboxWorkerConfig
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:              cfg.DB,
		Redis:           cfg.Redis,
		ReservationRepo: cfg.ReservationRepo,
		StallRepo:       cfg.StallRepo,
		CheckInRepo:     cfg.CheckInRepo,
		OutboxRepo:      cfg.OutboxRepo,
		PaymentGateway:  cfg.PaymentGateway,
	}

	engine := pricing.NewEngine(cfg.PricingConfig)

	// Initialize services
	c.ReservationService = service.NewReservationService(
		c.ReservationRepo,
		c.PaymentGateway,
		cfg.ServiceConfig,
	)
	c.InventoryService = service.NewInventoryService(
		c.StallRepo,
		engine,
		c.Redis,
		cfg.InventoryConfig,
	)
	c.CheckInService = service.NewCheckInService(
		c.ReservationRepo,
		c.CheckInRepo,
		c.OutboxRepo,
	)

	// Outbox sinks: notifications and audit lines go to the log, tickets
	// are rendered as QR passes and handed to the mail sender
	c.Notifier = service.NewLogNotifier()
	c.Ticketer = service.NewQRTicketer(c.ReservationRepo, service.NewLogMailSender())
	c.AuditSink = service.NewLogAuditSink()

	// Initialize workers
	c.ExpiryWorker = worker.NewExpiryWorker(c.ReservationService, cfg.ExpiryWorkerCfg)
	c.OutboxWorker = worker.NewOutboxWorker(
		c.OutboxRepo,
		c.Notifier,
		c.Ticketer,
		c.AuditSink,
		cfg.OutboxWorkerCfg,
	)

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis)
	c.ReservationHandler = handler.NewReservationHandler(c.ReservationService)
	c.StallHandler = handler.NewStallHandler(c.InventoryService)
	c.CheckInHandler = handler.NewCheckInHandler(c.CheckInService)

	return c
}
