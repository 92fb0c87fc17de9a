package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hyunwoogil/restaurant-order-service/internal/configs"
	"github.com/hyunwoogil/restaurant-order-service/internal/handlers"
	"github.com/hyunwoogil/restaurant-order-service/internal/services"
	"github.com/hyunwoogil/restaurant-order-service/pkg"
	"github.com/hyunwoogil/restaurant-order-service/pkg/cache"
	"github.com/hyunwoogil/restaurant-order-service/pkg/database"
	middleware "github.com/hyunwoogil/restaurant-order-service/pkg/middlewares"
	"github.com/hyunwoogil/restaurant-order-service/pkg/push"
	"github.com/hyunwoogil/restaurant-order-service/pkg/repositories"
	"github.com/hyunwoogil/restaurant-order-service/pkg/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewApp wires dependencies, builds the Gin engine, and returns an *http.Server and a cleanup func.
// It reads configuration from environment variables via configs.Load.
func NewApp(ctx context.Context, logger *zap.Logger) (*http.Server, func(), error) {
	cfg, err := configs.Load(logger)
	if err != nil {
		return nil, nil, err
	}

	// Postgres
	dbConfig := database.Config{
		PrimaryDSN: cfg.PrimaryDbAddr,
		MaxConns:   cfg.MaxDbCons,
		MinConns:   cfg.MinDbCons,
	}
	if !utils.IsEmpty(cfg.ReplicaDbAddr) {
		dbConfig.ReplicaDSNs = []string{cfg.ReplicaDbAddr}
	}
	db, disconnect, err := database.New(ctx, logger, dbConfig)
	if err != nil {
		return nil, nil, err
	}

	// Run migrations on primary
	if err = database.RunMigrations(logger, cfg.PrimaryDbAddr); err != nil {
		disconnect()
		return nil, nil, err
	}

	// Redis is optional; without it the menu cache and global rate limiting
	// degrade to DB reads and local-only limiting.
	var redisClient *redis.Client
	closeRedis := func() {}
	if !utils.IsEmpty(cfg.RedisAddr) {
		redisClient, closeRedis, err = cache.New(ctx, cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			logger.Warn("redis unavailable, continuing without cache", zap.Error(err))
			redisClient, closeRedis = nil, func() {}
		}
	}

	// Push: FCM when credentials are configured, otherwise disabled (queued
	// notifications fail with a recorded reason instead of blocking orders).
	var pusher push.Sender
	if utils.IsEmpty(cfg.FirebaseCredentialsFile) {
		logger.Warn("push delivery disabled: no firebase credentials configured")
		pusher = push.NewDisabled()
	} else {
		pusher, err = push.NewFCMSender(ctx, logger, cfg.FirebaseCredentialsFile)
		if err != nil {
			disconnect()
			closeRedis()
			return nil, nil, err
		}
	}

	// Kafka is optional; lifecycle events are best-effort.
	var publisher services.EventPublisher
	if utils.IsEmpty(cfg.KafkaBrokers) {
		logger.Warn("order events disabled: no kafka brokers configured")
		publisher = services.NewNoopEventPublisher()
	} else {
		publisher, err = services.NewKafkaEventPublisher(logger, ctx, cfg)
		if err != nil {
			disconnect()
			closeRedis()
			return nil, nil, err
		}
	}

	// Repositories
	menuRepo := repositories.NewMenuRepository()
	orderRepo := repositories.NewOrderRepository()
	notifRepo := repositories.NewNotificationRepository()
	deviceRepo := repositories.NewDeviceRepository()
	userRepo := repositories.NewUserRepository()

	// Services
	pricing := services.NewPricingEngine(logger, menuRepo)
	orderService := services.NewOrderService(logger, db, pricing, orderRepo, notifRepo, deviceRepo, pusher, publisher)
	notificationService := services.NewNotificationService(logger, db, notifRepo, deviceRepo, pusher)
	menuService := services.NewMenuService(logger, db, menuRepo, redisClient, cfg.MenuCacheTTL)
	deviceService := services.NewDeviceService(logger, db, deviceRepo)
	userService := services.NewUserService(logger, db, userRepo)

	orderLimiter := pkg.NewDistributedLimiter(redisClient, "global:order_rate", cfg.OrderRate, cfg.OrderBurst, time.Minute, logger)

	// Handlers
	baseHandler := handlers.NewBaseHandler(logger)
	menuHandler := handlers.NewMenuHandler(logger, menuService)
	orderHandler := handlers.NewOrderHandler(logger, orderService, orderLimiter)
	adminHandler := handlers.NewAdminHandler(logger, orderService, notificationService, cfg.DispatchBatchLimit)
	deviceHandler := handlers.NewDeviceHandler(logger, deviceService)
	userHandler := handlers.NewUserHandler(logger, userService)

	// Router
	r := gin.Default()
	r.Use(middleware.CORS(cfg.AllowOrigins))

	api := r.Group("/api/v1")
	api.Use(middleware.TraceID())
	api.Use(middleware.Metrics())

	menuHandler.RegisterRoutes(api)
	orderHandler.RegisterRoutes(api)
	adminHandler.RegisterRoutes(api)
	deviceHandler.RegisterRoutes(api)
	userHandler.RegisterRoutes(api)
	baseHandler.RegisterRoutes(r)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	cleanup := func() {
		disconnect()
		closeRedis()
		publisher.Close()
	}

	return srv, cleanup, nil
}
