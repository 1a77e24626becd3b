package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"landsmon/internal/alert"
	"landsmon/internal/api"
	"landsmon/internal/config"
	"landsmon/internal/metrics"
	"landsmon/internal/notify"
	"landsmon/internal/store"
)

func main() {
	ctx := context.Background()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded (port: %d, db: %s/%s)", cfg.Server.Port, cfg.Database.Driver, cfg.Database.Name)

	// 2. Connect to database
	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	// 3. Bootstrap system tables
	if err := db.Bootstrap(ctx); err != nil {
		log.Fatalf("Failed to bootstrap system tables: %v", err)
	}
	log.Println("System tables ready")

	// 4. Threshold registry, seeded with defaults on first run
	registry := alert.NewRegistry(store.NewThresholdStore(db))
	if err := registry.Seed(ctx); err != nil {
		log.Fatalf("Failed to seed thresholds: %v", err)
	}

	// 5. Evaluator over the persisted event history
	events := store.NewEventStore(db, cfg.Alerting.HistorySize)
	evaluator := alert.NewEvaluator(registry, events, cfg.Alerting.Cooldown())

	// 6. Webhook channels and dispatcher
	channelStore := store.NewChannelStore(db)
	channels := notify.NewChannels(channelStore)
	logs := store.NewWebhookLogStore(db, cfg.Dispatcher.LogSize)
	dispatcher := notify.NewDispatcher(logs, channelStore, cfg.Dispatcher.Source, cfg.Dispatcher.Timeout())

	// 7. Background usage collector (disabled when poll_interval is 0)
	source := metrics.NewHTTPSource(cfg.Metrics)
	collector := metrics.NewCollector(source, registry, evaluator, dispatcher, channels, cfg.Metrics.Interval())
	collector.Start()
	defer collector.Stop()

	// 8. Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	// 9. Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 10. API routes
	handler := api.NewHandler(registry, evaluator, channels, dispatcher)
	api.RegisterRoutes(app, handler)

	// 11. Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	log.Fatal(app.Listen(addr))
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	var appErr *api.AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(api.ErrorResponse{Error: appErr})
	}

	log.Printf("ERROR: %v", err)
	return c.Status(code).JSON(api.ErrorResponse{
		Error: api.NewAppError("INTERNAL", code, "internal server error"),
	})
}
