package main

import (
	"context"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cfg, logger := cli.LoadConfig(log.ComponentRecurring, (*config.Config).Validate)
	logger.Info("Starting recurring-worker", log.FieldOperation, log.OpStartup,
		"interval", cfg.RecurringInterval,
		"max_per_run", cfg.RecurringMaxPerRun,
		"sqlite_db", cfg.SQLiteDBPath)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	events, closeEvents := cli.InitPublisher(logger, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	defer closeEvents()

	scheduler := services.NewRecurringScheduler(repo, events, cfg.RecurringMaxPerRun)

	ctx, stop := cli.SignalContext()
	defer stop()

	run := func(ctx context.Context, now time.Time) {
		res, err := scheduler.Process(ctx, core.DateOf(now))
		if err != nil {
			logger.Error("Recurring processing failed", log.FieldError, err)
			return
		}
		logger.Info("Recurring processing complete",
			"processed", res.Processed,
			"transactions_created", res.TransactionsCreated,
			"limit_reached", res.LimitReached,
			"next_check", now.Add(cfg.RecurringInterval).Format("15:04:05"))
	}

	run(ctx, time.Now())

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Recurring-worker shutdown complete", log.FieldOperation, log.OpShutdown)
			return
		case now := <-ticker.C:
			run(ctx, now)
		}
	}
}
