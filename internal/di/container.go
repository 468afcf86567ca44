package di

import (
	"context"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/gateway"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/handler"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/repository"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/service"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/database"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/logger"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/redis"
	"go.uber.org/zap"
)

// Container holds all dependencies for the booking platform
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	BookingRepo repository.BookingRepository
	Catalog     repository.EventCatalog
	LedgerRepo  repository.LedgerRepository
	WalletRepo  repository.WalletRepository

	// Gateway and publishers
	Gateway        gateway.PaymentGateway
	EventPublisher service.EventPublisher

	// Services
	BookingService service.BookingService
	WalletService  service.WalletService

	// Handlers
	HealthHandler  *handler.HealthHandler
	BookingHandler *handler.BookingHandler
	WalletHandler  *handler.WalletHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB             *database.PostgresDB
	Redis          *redis.Client
	BookingRepo    repository.BookingRepository
	Catalog        repository.EventCatalog
	LedgerRepo     repository.LedgerRepository
	WalletRepo     repository.WalletRepository
	Gateway        gateway.PaymentGateway
	EventPublisher service.EventPublisher
	ServiceConfig  *service.BookingServiceConfig
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *ContainerConfig) *Container {
	c := &Container{
		DB:             cfg.DB,
		Redis:          cfg.Redis,
		BookingRepo:    cfg.BookingRepo,
		Catalog:        cfg.Catalog,
		LedgerRepo:     cfg.LedgerRepo,
		WalletRepo:     cfg.WalletRepo,
		Gateway:        cfg.Gateway,
		EventPublisher: cfg.EventPublisher,
	}

	// Optional advisory inventory cache
	var inventoryCache *repository.RedisInventoryCache
	if c.Redis != nil {
		var err error
		inventoryCache, err = repository.NewRedisInventoryCache(ctx, c.Redis)
		if err != nil {
			logger.Get().Warn("inventory cache unavailable, falling back to storage reads",
				zap.Error(err))
			inventoryCache = nil
		}
	}

	// Initialize services
	c.WalletService = service.NewWalletService(c.WalletRepo, c.LedgerRepo, c.EventPublisher)
	c.BookingService = service.NewBookingService(
		c.BookingRepo,
		c.Catalog,
		c.LedgerRepo,
		c.WalletService,
		c.Gateway,
		c.EventPublisher,
		inventoryCache,
		cfg.ServiceConfig,
	)

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis)
	c.BookingHandler = handler.NewBookingHandler(c.BookingService)
	c.WalletHandler = handler.NewWalletHandler(c.WalletService)

	return c
}
