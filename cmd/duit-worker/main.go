package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"duit/internal/config"
	"duit/internal/events"
	"duit/internal/ledger"
	applog "duit/internal/log"
	"duit/internal/storage"
	"duit/internal/worker"
)

// duit-worker mirrors the primary ledger store into a SQLite replica.
// It applies mutation events as they arrive and periodically resyncs
// the full store to heal any missed messages.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     applog.DefaultConfig().Level,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting duit-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the mirror worker")
		os.Exit(1)
	}

	// Source is the primary ledger store, read-only from here.
	var source ledger.Store
	switch cfg.Backend {
	case "sqlite":
		db, err := storage.NewSQLite(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to open primary store", applog.FieldError, err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer db.Close()
		source = db
	default:
		source = storage.NewSnapshot(cfg.SnapshotPath)
	}

	sink, err := storage.NewSQLite(cfg.MirrorDBPath)
	if err != nil {
		logger.Error("Failed to initialize mirror database", applog.FieldError, err, "path", cfg.MirrorDBPath)
		os.Exit(1)
	}
	defer sink.Close()

	amqpClient, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirror := worker.NewMirror(sink, source)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Full resync on startup catches anything missed while down.
	if err := mirror.Resync(ctx); err != nil {
		logger.Error("Startup resync failed", applog.FieldError, err, applog.FieldOperation, applog.OpSync)
	} else {
		logger.Info("Startup resync complete")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.Consume(gctx, mirror.HandleEvent)
	})

	g.Go(func() error {
		return mirror.RunPeriodicResync(gctx, cfg.ResyncInterval)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
