package main

import (
	"context"
	"os"
	"time"

	"produtivo/internal/cli"
	plog "produtivo/internal/log"
	"produtivo/internal/recurrence"
	"produtivo/internal/scheduler"
	"produtivo/internal/services"
)

const jobName = "recurring-transactions"

func main() {
	cli.LoadEnvFile()
	boot := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(boot, true)
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(plog.ComponentScheduler)

	logger.Info("Starting recurring-worker")

	financeStore := cli.OpenFinanceStore(logger, cfg.FinanceDBPath)
	defer financeStore.Close()

	amqpClient, publisher := cli.ConnectPublisher(logger, cfg)
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	loc := cfg.Location()
	financeService := services.NewFinanceService(financeStore, publisher,
		recurrence.Options{CatchUp: cfg.RecurringCatchUp}, logger)
	financeService.SetLocation(loc)

	generate := func(ctx context.Context) error {
		report, err := financeService.GenerateAll(ctx)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "Recurring transactions processed",
			"generated", report.Generated,
			"skipped", report.Skipped,
			"failed", len(report.Failures))
		for _, f := range report.Failures {
			logger.WarnContext(ctx, "Recurrence failed",
				plog.FieldRecurrenceID, f.RecurrenceID,
				plog.FieldError, f.Error)
		}
		return nil
	}

	sched := scheduler.New(loc, logger)
	id, err := sched.Schedule(jobName, cfg.RecurringSchedule, generate)
	if err != nil {
		logger.Error("Invalid recurring schedule", plog.FieldError, err, "schedule", cfg.RecurringSchedule)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	logger.Info("Running initial recurring processing...")
	sched.RunNow(jobName, generate)

	sched.Start()
	logger.Info("Recurring processor scheduled",
		"schedule", cfg.RecurringSchedule,
		"timezone", loc.String(),
		"next_run", sched.Next(id).Format(time.RFC3339))

	<-ctx.Done()

	logger.Info("Shutting down recurring-worker...")
	cli.GracefulShutdown(logger, 30*time.Second, sched.Stop)
}
