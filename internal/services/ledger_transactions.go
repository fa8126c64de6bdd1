package services

import (
	"context"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// TransactionInput creates a transaction. Date defaults to today.
type TransactionInput struct {
	Amount      decimal.Decimal      `json:"amount"`
	Type        core.TransactionType `json:"type"`
	CategoryID  int64                `json:"category_id"`
	AccountID   *int64               `json:"account_id"`
	Date        *core.Date           `json:"date"`
	Description string               `json:"description"`
}

// TransactionPatch updates a transaction. AccountID distinguishes an absent
// field from null, which detaches the transaction from its account.
type TransactionPatch struct {
	Amount      *decimal.Decimal      `json:"amount"`
	Type        *core.TransactionType `json:"type"`
	CategoryID  *int64                `json:"category_id"`
	AccountID   core.OptionalID       `json:"account_id"`
	Date        *core.Date            `json:"date"`
	Description *string               `json:"description"`
}

func (in TransactionInput) transaction() core.Transaction {
	date := core.Today()
	if in.Date != nil {
		date = *in.Date
	}
	return core.Transaction{
		Amount:      in.Amount,
		Type:        in.Type,
		CategoryID:  in.CategoryID,
		AccountID:   in.AccountID,
		Date:        date,
		Description: in.Description,
	}
}

// CreateTransaction records a transaction and applies its signed amount to the
// linked account in the same database transaction.
func (s *LedgerService) CreateTransaction(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	var created core.Transaction
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		var err error
		created, err = createTransactionTx(ctx, q, in.transaction())
		return err
	})
	if err != nil {
		return core.Transaction{}, err
	}

	s.logger.InfoContext(ctx, "Transaction created",
		log.NewFields().
			WithOperation(log.OpCreate).
			WithEntity(created.ID, created.Amount.StringFixed(2)).
			WithAccount(created.AccountID).
			ToSlice()...)
	publish(ctx, s.events, transactionEvent(amqp.EventTransactionCreated, created))
	return created, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := s.repo.Queries().GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, lookupErr(err, core.NotFoundf("transaction %d not found", id))
	}
	return t, nil
}

// ListTransactions pages through transactions, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	f, err := f.Normalize()
	if err != nil {
		return nil, err
	}
	return s.repo.Queries().ListTransactions(ctx, f)
}

// TransactionSummary totals everything matching f, ignoring paging.
func (s *LedgerService) TransactionSummary(ctx context.Context, f core.TransactionFilter) (core.TransactionSummary, error) {
	f, err := f.Normalize()
	if err != nil {
		return core.TransactionSummary{}, err
	}
	t, err := s.repo.Queries().SummarizeTransactions(ctx, f)
	if err != nil {
		return core.TransactionSummary{}, err
	}
	income, expense := core.FromCents(t.IncomeCents), core.FromCents(t.ExpenseCents)
	return core.TransactionSummary{
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      income.Sub(expense),
		Count:        t.Count,
	}, nil
}

// UpdateTransaction reverses the stored delta and applies the new one atomically.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id int64, p TransactionPatch) (core.Transaction, error) {
	var updated core.Transaction
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		old, err := q.GetTransaction(ctx, id)
		if err != nil {
			return lookupErr(err, core.NotFoundf("transaction %d not found", id))
		}

		next := old
		if p.Amount != nil {
			next.Amount = *p.Amount
		}
		if p.Type != nil {
			next.Type = *p.Type
		}
		if p.CategoryID != nil {
			next.CategoryID = *p.CategoryID
		}
		if p.AccountID.Set {
			next.AccountID = p.AccountID.Value
		}
		if p.Date != nil {
			next.Date = *p.Date
		}
		if p.Description != nil {
			next.Description = *p.Description
		}

		if next.Amount, err = core.NormalizeAmount(next.Amount); err != nil {
			return err
		}
		if err := next.Validate(); err != nil {
			return err
		}
		if err := checkCategory(ctx, q, next.CategoryID, next.Type); err != nil {
			return err
		}
		if err := checkAccount(ctx, q, next.AccountID); err != nil {
			return err
		}

		if err := applyDelta(ctx, q, old.AccountID, old.SignedAmount().Neg()); err != nil {
			return err
		}
		if err := applyDelta(ctx, q, next.AccountID, next.SignedAmount()); err != nil {
			return err
		}
		if err := q.UpdateTransaction(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	s.logger.InfoContext(ctx, "Transaction updated",
		log.NewFields().
			WithOperation(log.OpUpdate).
			WithEntity(updated.ID, updated.Amount.StringFixed(2)).
			WithAccount(updated.AccountID).
			ToSlice()...)
	publish(ctx, s.events, transactionEvent(amqp.EventTransactionUpdated, updated))
	return updated, nil
}

// DeleteTransaction reverses the transaction's delta and removes it.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	var deleted core.Transaction
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		var err error
		deleted, err = q.GetTransaction(ctx, id)
		if err != nil {
			return lookupErr(err, core.NotFoundf("transaction %d not found", id))
		}
		if err := applyDelta(ctx, q, deleted.AccountID, deleted.SignedAmount().Neg()); err != nil {
			return err
		}
		return q.DeleteTransaction(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Transaction deleted",
		log.NewFields().
			WithOperation(log.OpDelete).
			WithEntity(id, deleted.Amount.StringFixed(2)).
			WithAccount(deleted.AccountID).
			ToSlice()...)
	publish(ctx, s.events, transactionEvent(amqp.EventTransactionDeleted, deleted))
	return nil
}

func transactionEvent(t amqp.EventType, tx core.Transaction) *amqp.LedgerEvent {
	return amqp.NewLedgerEvent(t, tx.ID).
		WithAccount(tx.AccountID).
		WithAmount(tx.SignedAmount()).
		WithDate(tx.Date)
}
