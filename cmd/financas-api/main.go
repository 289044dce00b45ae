package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"financas/internal/amqp"
	"financas/internal/config"
	"financas/internal/httpapi"
	"financas/internal/log"
	"financas/internal/middleware/ratelimit"
	"financas/internal/services"
	"financas/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     slog.LevelInfo,
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)

	logger.Info("Starting financas-api")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	if cfg.DefaultOwnerID != "" {
		owner, err := uuid.Parse(cfg.DefaultOwnerID)
		if err != nil {
			logger.Error("DEFAULT_OWNER_ID is not a UUID", "error", err)
			os.Exit(1)
		}
		if err := repo.SeedCategories(context.Background(), owner); err != nil {
			logger.Error("Failed to seed default categories", "error", err, log.FieldOwnerID, owner)
			os.Exit(1)
		}
		logger.Info("Default categories ready", log.FieldOwnerID, owner)
	}

	// The broker is optional. Without it entries still persist; the export
	// worker's pending sweep picks them up from the database.
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without export events", "error", err)
		} else {
			defer amqpClient.Close()
			events = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled, export events will not be published")
	}

	materializer := services.NewMaterializer(repo)
	categories := storage.NewCachedCategoryStore(repo, 256, 5*time.Minute)
	server := httpapi.NewServer(
		services.NewEntryService(repo, categories, events, materializer),
		services.NewForecaster(repo),
		services.NewLifecycle(repo),
		services.NewHorizonJob(repo, materializer, cfg.SweepConcurrency),
		logger.WithComponent(log.ComponentHTTP),
	)

	limiter := ratelimit.NewLimiter(ratelimit.DefaultConfig())
	defer limiter.Stop()
	server.SetRateLimiter(limiter)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        server.Handler(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting financas server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
