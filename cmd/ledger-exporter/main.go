package main

import (
	"context"
	"errors"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/export/sheets"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

func main() {
	cfg, logger := cli.LoadConfig(log.ComponentExport, func(c *config.Config) error {
		if err := c.Validate(); err != nil {
			return err
		}
		return c.ValidateExporter()
	})
	logger.Info("Starting ledger-exporter", log.FieldOperation, log.OpStartup,
		"spreadsheet_id", cfg.ExportSpreadsheetID,
		"sheet", cfg.ExportSheetName)

	ctx, stop := cli.SignalContext()
	defer stop()

	sheet, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID:   cfg.ExportSpreadsheetID,
		SheetName:       cfg.ExportSheetName,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
	})
	if err != nil {
		cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer client.Close()

	w := worker.NewExportWorker(sheet)
	if err := client.ConsumeLedgerEvents(ctx, w.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		cli.Fatal(logger, "Event consumption failed", err)
	}
	logger.Info("Ledger-exporter shutdown complete", log.FieldOperation, log.OpShutdown)
}
