package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cfg, logger := cli.LoadConfig(log.ComponentApp, (*config.Config).Validate)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	events, closeEvents := cli.InitPublisher(logger, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	defer closeEvents()

	svc := apphttp.Services{
		Ledger:     services.NewLedgerService(repo, events),
		Budgets:    services.NewBudgetService(repo),
		Goals:      services.NewGoalService(repo, events, cfg.GoalRequireFunds),
		Recurring:  services.NewRecurringScheduler(repo, events, cfg.RecurringMaxPerRun),
		Allocation: services.NewAllocationService(repo),
		Analytics:  services.NewAnalyticsService(repo),
		Settings:   services.NewSettingsService(repo),
		Import:     services.NewImportService(repo, events),
	}

	srv := apphttp.NewServer(":"+cfg.Port, repo, svc, apphttp.Options{
		APIKey:             cfg.APIKey,
		CacheTTL:           cfg.CacheTTL,
		CacheSize:          cfg.CacheSize,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		Logger:             logger.WithComponent(log.ComponentHTTP),
	})

	ctx, stop := cli.SignalContext()
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting fintrack server", log.FieldOperation, log.OpStartup, "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down fintrack server", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		cli.Fatal(logger, "Server error", err)
	}
	logger.Info("Server stopped gracefully")
}
