package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/saeid-a/CoachBookingBack/internal/config"
	"github.com/saeid-a/CoachBookingBack/internal/database"
	"github.com/saeid-a/CoachBookingBack/internal/events"
	"github.com/saeid-a/CoachBookingBack/internal/logging"
	"github.com/saeid-a/CoachBookingBack/internal/repository"
	"github.com/saeid-a/CoachBookingBack/internal/routes"
	feedws "github.com/saeid-a/CoachBookingBack/internal/websocket"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := logging.New("coach-booking", cfg.AppEnv)
	slog.SetDefault(logger)

	bookingPolicy, err := config.LoadBookingPolicy(cfg.PolicyFile)
	if err != nil {
		logger.Error("failed to load booking policy", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		logger.Error("DB_URL is required")
		os.Exit(1)
	}
	if err := database.ConnectDB(ctx, cfg.DBUrl, logger); err != nil {
		logger.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer database.CloseDB()

	rt := routes.Runtime{
		Logger: logger,
		Policy: bookingPolicy,
		Hub:    feedws.NewHub(logger),
	}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "err", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		rt.Redis = rdb
	}

	// 3. Background workers
	go rt.Hub.Run(ctx)
	publisher := events.NewPublisher(repository.NewPgStore(database.DB), logger, events.PublisherConfig{
		Brokers:   cfg.KafkaBrokers,
		Topic:     cfg.KafkaTopic,
		PollEvery: cfg.OutboxPollInterval,
	})
	go publisher.Run(ctx)

	// 4. Setup Fiber
	app := fiber.New(fiber.Config{AppName: "coach-booking"})

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(helmet.New())
	app.Use(fiberlogger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	if err := routes.RegisterRoutes(app, cfg, database.DB, rt); err != nil {
		logger.Error("failed to register routes", "err", err)
		os.Exit(1)
	}

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("server shutdown failed", "err", err)
		}
	}()

	// 5. Start Server
	logger.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error("server failed", "err", err)
	}
}
