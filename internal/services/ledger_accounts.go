package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// AccountInput creates an account. Accounts always open with a zero balance.
type AccountInput struct {
	Name      string           `json:"name"`
	Type      core.AccountType `json:"type"`
	IsDefault bool             `json:"is_default"`
}

type AccountPatch struct {
	Name      *string           `json:"name"`
	Type      *core.AccountType `json:"type"`
	IsDefault *bool             `json:"is_default"`
}

// Reconciliation compares a stored balance with the one derived from the ledger.
type Reconciliation struct {
	AccountID      int64           `json:"account_id"`
	AccountName    string          `json:"account_name"`
	StoredBalance  decimal.Decimal `json:"stored_balance"`
	DerivedBalance decimal.Decimal `json:"derived_balance"`
	Difference     decimal.Decimal `json:"difference"`
	Matches        bool            `json:"matches"`
}

// CreateAccount creates an account. The first account, or one created with
// IsDefault, becomes the single default.
func (s *LedgerService) CreateAccount(ctx context.Context, in AccountInput) (core.Account, error) {
	a := core.Account{Name: in.Name, Type: in.Type}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}

	var created core.Account
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		defaults, err := q.CountDefaultAccounts(ctx)
		if err != nil {
			return err
		}
		created, err = q.CreateAccount(ctx, a)
		if err != nil {
			return err
		}
		if in.IsDefault || defaults == 0 {
			if err := q.SetDefaultAccount(ctx, created.ID); err != nil {
				return err
			}
			created.IsDefault = true
		}
		return nil
	})
	if err != nil {
		return core.Account{}, err
	}

	s.logger.InfoContext(ctx, "Account created",
		log.FieldOperation, log.OpCreate,
		log.FieldAccountID, created.ID,
		"type", created.Type,
		"is_default", created.IsDefault)
	return created, nil
}

func (s *LedgerService) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	a, err := s.repo.Queries().GetAccount(ctx, id)
	if err != nil {
		return core.Account{}, lookupErr(err, core.NotFoundf("account %d not found", id))
	}
	return a, nil
}

// ListAccounts returns the default account first, then the rest by name.
func (s *LedgerService) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return s.repo.Queries().ListAccounts(ctx)
}

// UpdateAccount renames or retypes an account and can move the default flag to it.
// The default cannot be cleared directly, only moved to another account.
func (s *LedgerService) UpdateAccount(ctx context.Context, id int64, p AccountPatch) (core.Account, error) {
	var updated core.Account
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		a, err := q.GetAccount(ctx, id)
		if err != nil {
			return lookupErr(err, core.NotFoundf("account %d not found", id))
		}
		if p.Name != nil {
			a.Name = *p.Name
		}
		if p.Type != nil {
			a.Type = *p.Type
		}
		if err := a.Validate(); err != nil {
			return err
		}
		if err := q.UpdateAccount(ctx, a); err != nil {
			return err
		}

		if p.IsDefault != nil {
			switch {
			case *p.IsDefault && !a.IsDefault:
				if err := q.SetDefaultAccount(ctx, a.ID); err != nil {
					return err
				}
				a.IsDefault = true
			case !*p.IsDefault && a.IsDefault:
				return core.Validationf("account %d is the default; set another account as default instead", id)
			}
		}
		updated = a
		return nil
	})
	if err != nil {
		return core.Account{}, err
	}

	s.logger.InfoContext(ctx, "Account updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldAccountID, id)
	return updated, nil
}

// DeleteAccount removes an account that is not the default and that no
// transaction, transfer or recurring template references.
func (s *LedgerService) DeleteAccount(ctx context.Context, id int64) error {
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		a, err := q.GetAccount(ctx, id)
		if err != nil {
			return lookupErr(err, core.NotFoundf("account %d not found", id))
		}
		if a.IsDefault {
			return core.Conflictf("account %d is the default account and cannot be deleted", id)
		}
		refs, err := q.AccountReferences(ctx, id)
		if err != nil {
			return err
		}
		if refs.Any() {
			return core.Conflictf("account %d is referenced by %d transactions, %d transfers and %d recurring templates",
				id, refs.Transactions, refs.Transfers, refs.Templates)
		}
		return q.DeleteAccount(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Account deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldAccountID, id)
	return nil
}

// ReconcileAccount recomputes an account balance from its live transactions and transfers.
func (s *LedgerService) ReconcileAccount(ctx context.Context, id int64) (Reconciliation, error) {
	var r Reconciliation
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		a, err := q.GetAccount(ctx, id)
		if err != nil {
			return lookupErr(err, core.NotFoundf("account %d not found", id))
		}
		r, err = reconcile(ctx, q, a)
		return err
	})
	return r, err
}

// ReconcileAll reconciles every account in one snapshot.
func (s *LedgerService) ReconcileAll(ctx context.Context) ([]Reconciliation, error) {
	var out []Reconciliation
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		accounts, err := q.ListAccounts(ctx)
		if err != nil {
			return err
		}
		for _, a := range accounts {
			r, err := reconcile(ctx, q, a)
			if err != nil {
				return err
			}
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

func reconcile(ctx context.Context, q *storage.Queries, a core.Account) (Reconciliation, error) {
	cents, err := q.DerivedAccountBalance(ctx, a.ID)
	if err != nil {
		return Reconciliation{}, fmt.Errorf("reconcile account %d: %w", a.ID, err)
	}
	derived := core.FromCents(cents)
	return Reconciliation{
		AccountID:      a.ID,
		AccountName:    a.Name,
		StoredBalance:  a.Balance,
		DerivedBalance: derived,
		Difference:     a.Balance.Sub(derived),
		Matches:        a.Balance.Equal(derived),
	}, nil
}
