package services

import (
	"context"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

type TransferInput struct {
	FromAccountID int64           `json:"from_account_id"`
	ToAccountID   int64           `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Date          *core.Date      `json:"date"`
	Note          string          `json:"note"`
}

// TransferResult is the persisted transfer and both accounts after it.
type TransferResult struct {
	Transfer core.Transfer `json:"transfer"`
	From     core.Account  `json:"from"`
	To       core.Account  `json:"to"`
}

// CreateTransfer moves an amount between two accounts atomically. The source
// must hold at least the amount.
func (s *LedgerService) CreateTransfer(ctx context.Context, in TransferInput) (TransferResult, error) {
	if in.FromAccountID == in.ToAccountID {
		return TransferResult{}, core.Validationf("cannot transfer to the same account")
	}
	amount, err := core.NormalizeAmount(in.Amount)
	if err != nil {
		return TransferResult{}, err
	}
	if core.TooLong(in.Note, core.MaxTextLength) {
		return TransferResult{}, core.Validationf("note too long (max 200 characters)")
	}
	date := core.Today()
	if in.Date != nil {
		date = *in.Date
	}

	var res TransferResult
	err = s.repo.InTx(ctx, func(q *storage.Queries) error {
		from, err := q.GetAccount(ctx, in.FromAccountID)
		if err != nil {
			return lookupErr(err, core.Validationf("source account %d not found", in.FromAccountID))
		}
		if _, err := q.GetAccount(ctx, in.ToAccountID); err != nil {
			return lookupErr(err, core.Validationf("destination account %d not found", in.ToAccountID))
		}
		if from.Balance.LessThan(amount) {
			return core.Validationf("insufficient balance in account %d: %s available", from.ID, from.Balance.StringFixed(2))
		}

		res.Transfer, err = q.CreateTransfer(ctx, core.Transfer{
			FromAccountID: in.FromAccountID,
			ToAccountID:   in.ToAccountID,
			Amount:        amount,
			Date:          date,
			Note:          in.Note,
		})
		if err != nil {
			return err
		}
		if err := q.AddAccountBalance(ctx, in.FromAccountID, -core.ToCents(amount)); err != nil {
			return err
		}
		if err := q.AddAccountBalance(ctx, in.ToAccountID, core.ToCents(amount)); err != nil {
			return err
		}

		if res.From, err = q.GetAccount(ctx, in.FromAccountID); err != nil {
			return err
		}
		res.To, err = q.GetAccount(ctx, in.ToAccountID)
		return err
	})
	if err != nil {
		return TransferResult{}, err
	}

	s.logger.InfoContext(ctx, "Transfer created",
		log.FieldOperation, log.OpTransfer,
		log.FieldEntityID, res.Transfer.ID,
		"from_account_id", in.FromAccountID,
		"to_account_id", in.ToAccountID,
		log.FieldAmount, amount.StringFixed(2))
	publish(ctx, s.events, amqp.NewLedgerEvent(amqp.EventTransferCreated, res.Transfer.ID).
		WithAccount(&res.Transfer.FromAccountID).
		WithAmount(amount).
		WithDate(date))
	return res, nil
}

// ListTransfers lists transfers touching accountID, or all when accountID is 0.
func (s *LedgerService) ListTransfers(ctx context.Context, accountID int64) ([]core.Transfer, error) {
	return s.repo.Queries().ListTransfers(ctx, accountID)
}
