// Package cli provides the initialization steps shared by cmd/produtivo,
// cmd/sync-worker and cmd/recurring-worker.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"produtivo/internal/amqp"
	"produtivo/internal/config"
	plog "produtivo/internal/log"
	"produtivo/internal/recurrence"
	"produtivo/internal/storage"
)

// SetupLogger builds the process logger for level and installs it as the
// slog default.
func SetupLogger(level string) *plog.Logger {
	logger := plog.New(plog.Config{
		Level:  plog.ParseLevel(level),
		Output: os.Stdout,
	})
	slog.SetDefault(logger.Logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it for an API
// server, or for a worker when worker is set. Exits on failure.
func LoadAndValidateConfig(logger *plog.Logger, worker bool) *config.Config {
	cfg := config.Load()
	validate := cfg.Validate
	if worker {
		validate = cfg.ValidateWorker
	}
	if err := validate(); err != nil {
		logger.Error("Configuration validation failed", plog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenTaskStore opens the task database or exits the process.
func OpenTaskStore(logger *plog.Logger, path string) *storage.TaskStore {
	store, err := storage.OpenTaskStore(path, logger)
	if err != nil {
		logger.Error("Failed to open task database", plog.FieldError, err, "path", path)
		os.Exit(1)
	}
	return store
}

// OpenFinanceStore opens the finance database or exits the process.
func OpenFinanceStore(logger *plog.Logger, path string) *storage.FinanceStore {
	store, err := storage.OpenFinanceStore(path)
	if err != nil {
		logger.Error("Failed to open finance database", plog.FieldError, err, "path", path)
		os.Exit(1)
	}
	logger.Info("Finance database ready", "path", path, "schema_version", store.SchemaVersion())
	return store
}

// ConnectPublisher returns an AMQP client for publishing sync messages, or
// nil when AMQP is not configured or unreachable. Callers close the client.
func ConnectPublisher(logger *plog.Logger, cfg *config.Config) (*amqp.Client, recurrence.Publisher) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - transactions will be exported by the sync sweep only")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without publishing", plog.FieldError, err)
		return nil, nil
	}
	logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client, client
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *plog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// GracefulShutdown runs each cleanup step within timeout, logging failures.
func GracefulShutdown(logger *plog.Logger, timeout time.Duration, steps ...func(context.Context) error) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, step := range steps {
		if err := step(shutdownCtx); err != nil {
			logger.Error("Shutdown step failed", plog.FieldError, err)
		}
	}
	if shutdownCtx.Err() != nil {
		logger.Warn("Shutdown timeout reached")
		return
	}
	logger.Info("Shutdown complete")
}
