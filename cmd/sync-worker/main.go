package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"produtivo/internal/amqp"
	"produtivo/internal/backend"
	"produtivo/internal/cli"
	plog "produtivo/internal/log"
	"produtivo/internal/services"
	"produtivo/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	boot := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(boot, true)
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(plog.ComponentWorker)

	logger.Info("Starting sync-worker", "export_backend", cfg.ExportBackend)

	financeStore := cli.OpenFinanceStore(logger, cfg.FinanceDBPath)
	defer financeStore.Close()

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid export backend", plog.FieldError, err)
		os.Exit(1)
	}
	exporter, err := backend.NewFactory(logger).CreateExporter(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create exporter", plog.FieldError, err)
		os.Exit(1)
	}
	defer exporter.Cleanup()

	syncWorker := worker.NewSyncWorker(financeStore, exporter.Exporter, cfg.SyncBatchSize, logger)

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", plog.FieldError, err)
	}

	processor := services.NewSyncProcessor(syncWorker, services.SyncProcessorConfig{
		PollInterval: cfg.SyncPollInterval,
		BatchSize:    cfg.SyncBatchSize,
	}, logger)
	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start sync processor", plog.FieldError, err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", plog.FieldError, err)
			os.Exit(1)
		}
		g.Go(func() error {
			err := amqpClient.ConsumeTransactionSync(gctx, syncWorker.HandleSyncMessage)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("Skipping AMQP message consumption - relying on the sync sweep")
	}

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Message consumption failed", plog.FieldError, err)
	}

	logger.Info("Shutting down sync-worker...")
	cli.GracefulShutdown(logger, 30*time.Second,
		processor.Stop,
		func(context.Context) error {
			if amqpClient == nil {
				return nil
			}
			return amqpClient.Close()
		},
	)
}
