package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

const accountColumns = `id, name, type, balance_cents, is_default, created_at`

func scanAccount(row rowScanner) (core.Account, error) {
	var (
		a       core.Account
		cents   int64
		created sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Type, &cents, &a.IsDefault, &created); err != nil {
		return core.Account{}, err
	}
	a.Balance = core.FromCents(cents)
	a.CreatedAt = created.Time
	return a, nil
}

const createAccount = `-- name: CreateAccount :one
INSERT INTO accounts (name, type, balance_cents, is_default)
VALUES (?, ?, ?, ?)
RETURNING ` + accountColumns

func (q *Queries) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	row := q.db.QueryRowContext(ctx, createAccount, a.Name, string(a.Type), core.ToCents(a.Balance), boolInt(a.IsDefault))
	created, err := scanAccount(row)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return created, nil
}

const getAccount = `-- name: GetAccount :one
SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`

func (q *Queries) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	a, err := scanAccount(q.db.QueryRowContext(ctx, getAccount, id))
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}
	return a, nil
}

const listAccounts = `-- name: ListAccounts :many
SELECT ` + accountColumns + ` FROM accounts ORDER BY is_default DESC, name, id`

func (q *Queries) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()
	var items []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return items, nil
}

const countDefaultAccounts = `-- name: CountDefaultAccounts :one
SELECT COUNT(*) FROM accounts WHERE is_default = 1`

func (q *Queries) CountDefaultAccounts(ctx context.Context) (int64, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, countDefaultAccounts).Scan(&n); err != nil {
		return 0, fmt.Errorf("count default accounts: %w", err)
	}
	return n, nil
}

const updateAccount = `-- name: UpdateAccount :exec
UPDATE accounts SET name = ?, type = ? WHERE id = ?`

func (q *Queries) UpdateAccount(ctx context.Context, a core.Account) error {
	if _, err := q.db.ExecContext(ctx, updateAccount, a.Name, string(a.Type), a.ID); err != nil {
		return fmt.Errorf("update account %d: %w", a.ID, err)
	}
	return nil
}

const clearDefaultAccount = `-- name: ClearDefaultAccount :exec
UPDATE accounts SET is_default = 0 WHERE is_default = 1`

const setDefaultAccount = `-- name: SetDefaultAccount :exec
UPDATE accounts SET is_default = 1 WHERE id = ?`

// SetDefaultAccount moves the default flag to id. Run it inside a transaction.
func (q *Queries) SetDefaultAccount(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, clearDefaultAccount); err != nil {
		return fmt.Errorf("clear default account: %w", err)
	}
	if _, err := q.db.ExecContext(ctx, setDefaultAccount, id); err != nil {
		return fmt.Errorf("set default account %d: %w", id, err)
	}
	return nil
}

const addAccountBalance = `-- name: AddAccountBalance :execrows
UPDATE accounts SET balance_cents = balance_cents + ? WHERE id = ?`

// AddAccountBalance applies a signed delta in cents. Missing accounts yield sql.ErrNoRows.
func (q *Queries) AddAccountBalance(ctx context.Context, id, deltaCents int64) error {
	res, err := q.db.ExecContext(ctx, addAccountBalance, deltaCents, id)
	if err != nil {
		return fmt.Errorf("apply balance delta to account %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("apply balance delta to account %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("apply balance delta to account %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

const deleteAccount = `-- name: DeleteAccount :exec
DELETE FROM accounts WHERE id = ?`

func (q *Queries) DeleteAccount(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, deleteAccount, id); err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	return nil
}

// AccountRefs counts the rows that keep an account from being deleted.
type AccountRefs struct {
	Transactions int64
	Transfers    int64
	Templates    int64
}

func (r AccountRefs) Any() bool {
	return r.Transactions+r.Transfers+r.Templates > 0
}

const accountReferences = `-- name: AccountReferences :one
SELECT
    (SELECT COUNT(*) FROM transactions WHERE account_id = ?1),
    (SELECT COUNT(*) FROM transfers WHERE from_account_id = ?1 OR to_account_id = ?1),
    (SELECT COUNT(*) FROM recurring_templates WHERE account_id = ?1)`

func (q *Queries) AccountReferences(ctx context.Context, id int64) (AccountRefs, error) {
	var r AccountRefs
	if err := q.db.QueryRowContext(ctx, accountReferences, id).Scan(&r.Transactions, &r.Transfers, &r.Templates); err != nil {
		return AccountRefs{}, fmt.Errorf("count account references: %w", err)
	}
	return r, nil
}

const derivedAccountBalance = `-- name: DerivedAccountBalance :one
SELECT
    COALESCE((SELECT SUM(CASE WHEN type = 'income' THEN amount_cents ELSE -amount_cents END)
              FROM transactions WHERE account_id = ?1), 0)
  + COALESCE((SELECT SUM(amount_cents) FROM transfers WHERE to_account_id = ?1), 0)
  - COALESCE((SELECT SUM(amount_cents) FROM transfers WHERE from_account_id = ?1), 0)`

// DerivedAccountBalance recomputes an account balance from its live transactions and transfers.
func (q *Queries) DerivedAccountBalance(ctx context.Context, id int64) (int64, error) {
	var cents int64
	if err := q.db.QueryRowContext(ctx, derivedAccountBalance, id).Scan(&cents); err != nil {
		return 0, fmt.Errorf("derive account balance: %w", err)
	}
	return cents, nil
}
