package services

import (
	"context"
	"log/slog"

	"fintrack/internal/amqp"
)

// Publisher delivers ledger events once a mutation has committed.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, e *amqp.LedgerEvent) error
}

// publish never fails the caller: the ledger row is already committed.
func publish(ctx context.Context, p Publisher, e *amqp.LedgerEvent) {
	if p == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping ledger event", "type", e.Type)
		return
	}
	if err := p.PublishLedgerEvent(ctx, e); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"type", e.Type,
			"entity_id", e.EntityID,
			"error", err)
	}
}
