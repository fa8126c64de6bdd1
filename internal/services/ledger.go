package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// LedgerService owns accounts, categories, transactions and transfers, and
// keeps every account balance equal to the signed sum of what touches it.
type LedgerService struct {
	repo   *storage.SQLiteRepository
	events Publisher
	logger *slog.Logger
}

func NewLedgerService(repo *storage.SQLiteRepository, events Publisher) *LedgerService {
	return &LedgerService{
		repo:   repo,
		events: events,
		logger: slog.Default().With(log.FieldComponent, log.ComponentLedger),
	}
}

// lookupErr turns a missing row into missing and passes other failures through.
func lookupErr(err error, missing error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return missing
	}
	return err
}

// checkCategory verifies the category exists and carries type t.
func checkCategory(ctx context.Context, q *storage.Queries, id int64, t core.TransactionType) error {
	c, err := q.GetCategory(ctx, id)
	if err != nil {
		return lookupErr(err, core.Validationf("category %d not found", id))
	}
	if c.Type != t {
		return core.Validationf("category %q is an %s category, got %s", c.Name, c.Type, t)
	}
	return nil
}

func checkAccount(ctx context.Context, q *storage.Queries, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := q.GetAccount(ctx, *id); err != nil {
		return lookupErr(err, core.Validationf("account %d not found", *id))
	}
	return nil
}

// applyDelta moves an account balance by delta. A nil account has no balance effect.
func applyDelta(ctx context.Context, q *storage.Queries, accountID *int64, delta decimal.Decimal) error {
	if accountID == nil {
		return nil
	}
	err := q.AddAccountBalance(ctx, *accountID, core.ToCents(delta))
	return lookupErr(err, core.Validationf("account %d not found", *accountID))
}

// createTransactionTx validates t, inserts it and applies its delta. Recurring
// materialization and statement import share it with CreateTransaction.
func createTransactionTx(ctx context.Context, q *storage.Queries, t core.Transaction) (core.Transaction, error) {
	amount, err := core.NormalizeAmount(t.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Amount = amount
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := checkCategory(ctx, q, t.CategoryID, t.Type); err != nil {
		return core.Transaction{}, err
	}
	if err := checkAccount(ctx, q, t.AccountID); err != nil {
		return core.Transaction{}, err
	}

	created, err := q.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	if err := applyDelta(ctx, q, created.AccountID, created.SignedAmount()); err != nil {
		return core.Transaction{}, err
	}
	return created, nil
}
