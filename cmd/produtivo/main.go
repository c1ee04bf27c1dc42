package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"produtivo/internal/analytics"
	"produtivo/internal/auth"
	"produtivo/internal/cache"
	"produtivo/internal/cli"
	apphttp "produtivo/internal/http"
	plog "produtivo/internal/log"
	"produtivo/internal/recurrence"
	"produtivo/internal/services"
)

func main() {
	cli.LoadEnvFile()
	boot := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(boot, false)
	logger := cli.SetupLogger(cfg.LogLevel)

	logger.Info("Starting produtivo", "env", cfg.Env, "timezone", cfg.Timezone)

	taskStore := cli.OpenTaskStore(logger, cfg.TasksDBPath)
	financeStore := cli.OpenFinanceStore(logger, cfg.FinanceDBPath)

	amqpClient, publisher := cli.ConnectPublisher(logger, cfg)

	reports := cache.NewLRUCache[analytics.Report](500, 5*time.Minute)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(reports)
	cacheManager.StartCleanup(time.Minute)

	loc := cfg.Location()
	taskService := services.NewTaskService(taskStore, reports, logger)
	taskService.SetLocation(loc)
	financeService := services.NewFinanceService(financeStore, publisher,
		recurrence.Options{CatchUp: cfg.RecurringCatchUp}, logger)
	financeService.SetLocation(loc)

	authService := auth.NewService(taskStore, auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL), logger)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:           ":" + cfg.Port,
		Debug:          cfg.IsDevelopment(),
		RequestTimeout: cfg.RequestTimeout,
		RateLimit:      cfg.RateLimit,
		Logger:         logger,
	}, apphttp.Deps{
		Auth:    authService,
		Tasks:   taskService,
		Finance: financeService,
		Checks: map[string]apphttp.Pinger{
			"tasks_db":   taskStore,
			"finance_db": financeStore,
		},
	})

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		cli.GracefulShutdown(logger, 30*time.Second,
			srv.Shutdown,
			func(context.Context) error { cacheManager.Stop(); return nil },
			func(context.Context) error {
				if amqpClient == nil {
					return nil
				}
				return amqpClient.Close()
			},
			func(context.Context) error { return taskStore.Close() },
			func(context.Context) error { return financeStore.Close() },
		)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", plog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
