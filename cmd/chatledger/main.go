package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"chatledger/internal/amqp"
	"chatledger/internal/bot"
	"chatledger/internal/cache"
	"chatledger/internal/config"
	"chatledger/internal/dialog"
	apphttp "chatledger/internal/http"
	applog "chatledger/internal/log"
	"chatledger/internal/services"
	"chatledger/internal/session"
	"chatledger/internal/storage"
	"chatledger/internal/telegram"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := newLogger(cfg)
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			"error_type", applog.ErrorTypeConfiguration,
			applog.FieldError, err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func newLogger(cfg *config.Config) *applog.Logger {
	lc := applog.DefaultConfig()
	lc.Format = cfg.LogFormat
	level, err := applog.ParseLevel(cfg.LogLevel)
	lc.Level = level
	logger := applog.New(lc)
	if err != nil {
		logger.Warn("Falling back to info level", applog.FieldError, err)
	}
	return logger
}

func run(cfg *config.Config, logger *applog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()
	logger.Info("SQLite repository initialized", "path", cfg.SQLiteDBPath)

	// A nil *amqp.Client must not reach the service as a non-nil interface.
	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, sheet sync disabled", applog.FieldError, err)
		} else {
			publisher = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP_URL not set, sheet sync disabled")
	}

	expenses := services.NewExpenseService(repo, publisher)
	defer expenses.Close()

	sessions := session.NewStore(cfg.SessionMaxEntries, cfg.SessionIdleTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(sessions)
	cacheManager.StartCleanup(min(cfg.SessionIdleTTL/4, 10*time.Minute))
	defer cacheManager.Stop()

	engine := dialog.NewEngine(repo, expenses, dialog.WithLocation(loc))
	dispatcher := bot.NewDispatcher(repo, engine, sessions, bot.WithLocation(loc))

	srv := apphttp.NewServer(net.JoinHostPort("", cfg.Port), apphttp.Deps{
		Handler:       dispatcher,
		Sender:        telegram.NewClient(cfg.TelegramAPIBase, cfg.TelegramBotToken),
		Ready:         repo,
		WebhookSecret: cfg.TelegramWebhookSecret,
		Logger:        logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting chatledger server",
			applog.FieldOperation, applog.OpStartup,
			"port", cfg.Port,
			"timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
			return err
		}
		return nil
	})

	return g.Wait()
}
