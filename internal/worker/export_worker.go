// Package worker turns consumed ledger events into exported sheet rows.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
)

// RowAppender stores rows in an external sheet.
type RowAppender interface {
	AppendRows(ctx context.Context, rows [][]any) error
}

// ExportWorker appends one row per transaction or transfer event.
type ExportWorker struct {
	sheet  RowAppender
	logger *slog.Logger
}

func NewExportWorker(sheet RowAppender) *ExportWorker {
	return &ExportWorker{
		sheet:  sheet,
		logger: slog.Default().With(log.FieldComponent, log.ComponentExport),
	}
}

// Exported reports whether events of type t become sheet rows.
func Exported(t amqp.EventType) bool {
	return strings.HasPrefix(string(t), "transaction.") || t == amqp.EventTransferCreated
}

// EventRow lays out an event as timestamp, type, entity id, account id, amount and date.
func EventRow(e *amqp.LedgerEvent) []any {
	account := ""
	if e.AccountID != nil {
		account = fmt.Sprint(*e.AccountID)
	}
	return []any{
		e.Timestamp.UTC().Format(time.RFC3339),
		string(e.Type),
		e.EntityID,
		account,
		e.Amount,
		e.Date,
	}
}

// HandleEvent exports e. Events of other types are acknowledged without a row.
// A returned error makes the consumer requeue the message.
func (w *ExportWorker) HandleEvent(ctx context.Context, e *amqp.LedgerEvent) error {
	if !Exported(e.Type) {
		w.logger.DebugContext(ctx, "Skipping event", log.FieldEventType, e.Type, log.FieldEntityID, e.EntityID)
		return nil
	}

	if err := w.sheet.AppendRows(ctx, [][]any{EventRow(e)}); err != nil {
		return fmt.Errorf("export %s %d: %w", e.Type, e.EntityID, err)
	}

	w.logger.InfoContext(ctx, "Ledger event exported",
		log.FieldOperation, log.OpExport,
		log.FieldEventType, e.Type,
		log.FieldEntityID, e.EntityID,
		log.FieldAmount, e.Amount)
	return nil
}
