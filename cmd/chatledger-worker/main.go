package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"chatledger/internal/amqp"
	"chatledger/internal/config"
	applog "chatledger/internal/log"
	"chatledger/internal/sheets"
	gsheet "chatledger/internal/sheets/google"
	mem "chatledger/internal/sheets/memory"
	"chatledger/internal/storage"
	"chatledger/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	lc := applog.DefaultConfig()
	lc.Component = applog.ComponentWorker
	lc.Format = cfg.LogFormat
	level, levelErr := applog.ParseLevel(cfg.LogLevel)
	lc.Level = level
	logger := applog.New(lc)
	applog.SetDefault(logger)
	if levelErr != nil {
		logger.Warn("Falling back to info level", applog.FieldError, levelErr)
	}

	logger.Info("Starting chatledger-worker", applog.FieldOperation, applog.OpStartup)

	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Configuration validation failed",
			"error_type", applog.ErrorTypeConfiguration,
			applog.FieldError, err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete", applog.FieldOperation, applog.OpShutdown)
}

func run(cfg *config.Config, logger *applog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	var writer sheets.ExpenseWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			return err
		}
		writer = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = mem.New()
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, mirroring to memory only")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(repo, writer, worker.Config{
		BatchSize:   cfg.SyncBatchSize,
		Interval:    cfg.SyncInterval,
		MaxAttempts: cfg.SyncMaxAttempts,
		MinAge:      worker.DefaultConfig().MinAge,
	})

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		// Not fatal: the periodic sweep retries.
		logger.Error("Failed startup sync check", applog.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := amqpClient.ConsumeExpenseSync(gctx, syncWorker.HandleSyncMessage)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return syncWorker.Run(gctx)
	})

	return g.Wait()
}
