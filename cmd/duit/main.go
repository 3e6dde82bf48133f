package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"duit/internal/config"
	"duit/internal/events"
	apphttp "duit/internal/http"
	"duit/internal/ledger"
	applog "duit/internal/log"
	"duit/internal/storage"
	"duit/internal/suggest"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	// Choose persistence backend for the ledger.
	var store ledger.Store
	switch cfg.Backend {
	case "sqlite":
		db, err := storage.NewSQLite(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite store", applog.FieldError, err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer db.Close()
		store = db
		logger.Info("Initialized SQLite backend", applog.FieldBackend, cfg.Backend, "path", cfg.SQLiteDBPath)
	default:
		store = storage.NewSnapshot(cfg.SnapshotPath)
		logger.Info("Initialized snapshot backend", applog.FieldBackend, cfg.Backend, "path", cfg.SnapshotPath)
	}

	lg, err := ledger.New(context.Background(), store)
	if err != nil {
		logger.Error("Failed to hydrate ledger", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Ledger hydrated", "transactions", lg.Len())

	// Mutation events are optional: without an AMQP URL the app runs
	// standalone and the mirror worker simply has nothing to consume.
	var publisher apphttp.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without event publishing", applog.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP event publishing enabled", "exchange", cfg.AMQPExchange)
		}
	}

	// Budget suggestions are optional and keyed off the Gemini API key.
	var suggester apphttp.Suggester
	if cfg.GeminiAPIKey != "" {
		runner, err := suggest.NewGeminiRunner(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("Gemini unavailable, continuing without suggestions", applog.FieldError, err)
		} else {
			defer runner.Close()
			suggester = suggest.NewService(runner, cfg.SuggestTimeout)
			logger.Info("Budget suggestions enabled", "model", cfg.GeminiModel)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, lg, suggester, publisher, logger, cfg.RateLimitPerMin)

	// Graceful shutdown handling
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
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting duit server", "port", cfg.Port, applog.FieldBackend, cfg.Backend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
