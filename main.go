package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/config"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/di"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/gateway"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/metrics"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/repository"
	"github.com/Freelancing-tuhin/Hobi-app-server/internal/service"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/database"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/kafka"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/logger"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/middleware"
	pkgredis "github.com/Freelancing-tuhin/Hobi-app-server/pkg/redis"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/telemetry"
)

const bookingEventsTopic = "booking-events"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logCfg := &logger.Config{
		Level:       "info",
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if cfg.App.Debug {
		logCfg.Level = "debug"
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Hobi booking service...")

	ctx := context.Background()

	// Tracing and metrics
	if cfg.OTel.Enabled {
		_, err := telemetry.Init(ctx, &telemetry.Config{
			Enabled:        true,
			ServiceName:    cfg.OTel.ServiceName,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			CollectorAddr:  cfg.OTel.CollectorAddr,
			SampleRatio:    cfg.OTel.SampleRatio,
		})
		if err != nil {
			appLog.Warn(fmt.Sprintf("Telemetry init failed, traces disabled: %v", err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = telemetry.Shutdown(shutdownCtx)
			}()
		}
		if err := telemetry.InitMetrics(ctx); err != nil {
			appLog.Warn(fmt.Sprintf("Metrics init failed: %v", err))
		}
	}
	if err := metrics.Init(); err != nil {
		appLog.Warn(fmt.Sprintf("Metric instruments unavailable: %v", err))
	}

	// PostgreSQL
	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	defer db.Close()
	appLog.Info("Database connected")

	// Redis
	redisClient, err := pkgredis.NewClient(ctx, &pkgredis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MinIdleConns:  cfg.Redis.MinIdleConns,
		MaxRetries:    3,
		RetryInterval: 100 * time.Millisecond,
		DialTimeout:   cfg.Redis.DialTimeout,
		ReadTimeout:   cfg.Redis.ReadTimeout,
		WriteTimeout:  cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Redis connection failed: %v", err))
	}
	defer redisClient.Close()
	appLog.Info("Redis connected")

	// Payment gateway
	gw, err := gateway.New(cfg.Gateway)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Gateway init failed: %v", err))
	}
	appLog.Info(fmt.Sprintf("Payment gateway ready (provider: %s)", gw.Name()))

	// Event publisher
	var eventPublisher service.EventPublisher = service.NewNoOpEventPublisher()
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
			Brokers:  cfg.Kafka.Brokers,
			ClientID: cfg.Kafka.ClientID,
		})
		if err != nil {
			appLog.Warn(fmt.Sprintf("Kafka connection failed, using no-op publisher: %v", err))
		} else {
			eventPublisher = service.NewKafkaEventPublisher(producer, bookingEventsTopic)
			appLog.Info("Kafka event publisher connected")
		}
	}
	defer eventPublisher.Close()

	// Repositories
	pool := db.Pool()
	container := di.NewContainer(ctx, &di.ContainerConfig{
		DB:             db,
		Redis:          redisClient,
		BookingRepo:    repository.NewPostgresBookingRepository(pool),
		Catalog:        repository.NewPostgresEventRepository(pool),
		LedgerRepo:     repository.NewPostgresLedgerRepository(pool),
		WalletRepo:     repository.NewPostgresWalletRepository(pool),
		Gateway:        gw,
		EventPublisher: eventPublisher,
		ServiceConfig:  &service.BookingServiceConfig{},
	})

	router := buildRouter(cfg, container, redisClient)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		appLog.Info(fmt.Sprintf("Hobi booking service listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}

func buildRouter(cfg *config.Config, container *di.Container, redisClient *pkgredis.Client) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		gin.DisableConsoleColor()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(telemetry.TracingMiddleware(cfg.App.Name))

	if cfg.Server.RateLimitRPS > 0 {
		rlCfg := middleware.DefaultRateLimitConfig()
		rlCfg.RequestsPerSecond = cfg.Server.RateLimitRPS
		rlCfg.BurstSize = cfg.Server.RateLimitBurst
		rlCfg.UseRedis = true
		rlCfg.RedisClient = redisClient
		router.Use(middleware.RateLimiter(rlCfg))
	}

	router.GET("/healthz", container.HealthHandler.Live)
	router.GET("/readyz", container.HealthHandler.Ready)

	idempotency := middleware.Idempotency(&middleware.IdempotencyConfig{
		Redis: redisClient.Client(),
	})
	auth := middleware.Auth(cfg.JWT.Secret)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/status", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"service": cfg.App.Name,
				"version": cfg.App.Version,
			})
		})

		bookings := v1.Group("/bookings")
		bookings.Use(auth)
		{
			bookings.POST("", idempotency, container.BookingHandler.CreateBooking)
			bookings.POST("/multiple", idempotency, container.BookingHandler.CreateMultipleBookings)
			bookings.POST("/:id/confirm", idempotency, container.BookingHandler.ConfirmBooking)
			bookings.POST("/confirm-multiple", idempotency, container.BookingHandler.ConfirmMultipleBookings)
			bookings.POST("/:id/refund", idempotency, container.BookingHandler.RefundBooking)
			bookings.PATCH("/:id/status", container.BookingHandler.UpdateBookingStatus)
			bookings.GET("/:id", container.BookingHandler.GetBooking)
		}

		users := v1.Group("/users")
		users.Use(auth)
		{
			users.GET("/:id/bookings", container.BookingHandler.GetUserBookings)
		}

		events := v1.Group("/events")
		events.Use(auth)
		{
			events.GET("/:id/bookings", container.BookingHandler.GetEventBookings)
		}

		organizers := v1.Group("/organizers")
		organizers.Use(auth, middleware.RequireRole("organizer"))
		{
			organizers.GET("/:id/wallet", container.WalletHandler.GetWallet)
			organizers.GET("/:id/transactions", container.WalletHandler.ListTransactions)
			organizers.GET("/:id/bookings", container.BookingHandler.GetOrganizerBookings)
			organizers.POST("/:id/withdrawals", idempotency, container.WalletHandler.RequestWithdrawal)
		}

		withdrawals := v1.Group("/withdrawals")
		withdrawals.Use(auth, middleware.RequireRole("admin"))
		{
			withdrawals.POST("/:id/complete", idempotency, container.WalletHandler.CompleteWithdrawal)
			withdrawals.POST("/:id/reject", idempotency, container.WalletHandler.RejectWithdrawal)
		}
	}

	return router
}
