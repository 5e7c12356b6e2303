package main

import (
	"context"
	"os"
	"time"

	"order_scheduler/internal/config"
	"order_scheduler/internal/database"
	"order_scheduler/internal/handlers"
	"order_scheduler/internal/migrations"
	"order_scheduler/internal/notify"
	"order_scheduler/internal/redis"
	"order_scheduler/internal/repository"
	"order_scheduler/internal/services"
	"order_scheduler/pkg/notifygate"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := migrations.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Initialize Redis
	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}

	// Initialize event publisher
	publisher, err := notify.NewPublisher(cfg.AmqpURL, cfg.EventExchange)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer publisher.Close()

	// Initialize notification gateway client
	gateway := notifygate.NewClient(cfg.GatewayURL, cfg.GatewayUsername, cfg.GatewayPassword)

	// Initialize repositories
	scheduleRepo := repository.NewScheduleRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Initialize services
	notificationService := services.NewNotificationService(customerRepo, gateway, publisher)
	scheduleService := services.NewScheduleService(scheduleRepo, orderRepo, auditRepo)
	fulfillmentService := services.NewFulfillmentService(scheduleRepo, orderRepo, productRepo, notificationService)
	fulfillmentService.SetRedisClient(redisClient,
		time.Duration(cfg.BatchLockTTL)*time.Second,
		time.Duration(cfg.StockCacheTTL)*time.Second)

	// Initialize handlers
	scheduleHandler := handlers.NewScheduleHandler(scheduleService)
	fulfillmentHandler := handlers.NewFulfillmentHandler(fulfillmentService)

	// Periodic fulfillment tick
	ticker := cron.New()
	_, err = ticker.AddFunc(cfg.BatchSchedule, func() {
		result, err := fulfillmentService.ProcessDueSchedules(context.Background(), time.Now())
		if err != nil {
			log.Error().Err(err).Msg("fulfillment tick failed")
			return
		}
		log.Info().
			Int("processed", result.Processed).
			Int("created", result.Created).
			Int("errors", len(result.Errors)).
			Msg("fulfillment tick")
	})
	if err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.BatchSchedule).Msg("invalid batch schedule")
	}
	ticker.Start()
	defer ticker.Stop()

	// Setup routes
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	scheduleHandler.RegisterRoutes(api)
	fulfillmentHandler.RegisterRoutes(api)

	// Start server
	log.Info().Str("port", cfg.ServerPort).Msg("server starting")
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
