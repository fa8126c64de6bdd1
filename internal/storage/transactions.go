package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

const transactionColumns = `id, amount_cents, type, category_id, account_id, date, description, external_ref, created_at`

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t       core.Transaction
		cents   int64
		account sql.NullInt64
		date    string
		ref     sql.NullString
		created sql.NullTime
	)
	if err := row.Scan(&t.ID, &cents, &t.Type, &t.CategoryID, &account, &date, &t.Description, &ref, &created); err != nil {
		return core.Transaction{}, err
	}
	d, err := dateOf(date)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Amount = core.FromCents(cents)
	t.AccountID = idPtr(account)
	t.Date = d
	t.ExternalRef = ref.String
	t.CreatedAt = created.Time
	return t, nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	var items []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return items, nil
}

const createTransaction = `-- name: CreateTransaction :one
INSERT INTO transactions (amount_cents, type, category_id, account_id, date, description, external_ref)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + transactionColumns

func (q *Queries) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		core.ToCents(t.Amount), string(t.Type), t.CategoryID, nullID(t.AccountID),
		t.Date.String(), t.Description, nullString(t.ExternalRef))
	created, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return created, nil
}

const getTransaction = `-- name: GetTransaction :one
SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

const filterClause = `
WHERE (?1 = '' OR type = ?1)
  AND (?2 = 0 OR category_id = ?2)
  AND (?3 = 0 OR account_id = ?3)
  AND (?4 = '' OR date >= ?4)
  AND (?5 = '' OR date <= ?5)`

func filterArgs(f core.TransactionFilter) []interface{} {
	return []interface{}{string(f.Type), f.CategoryID, f.AccountID, dateFilter(f.Start), dateFilter(f.End)}
}

const listTransactions = `-- name: ListTransactions :many
SELECT ` + transactionColumns + ` FROM transactions` + filterClause + `
ORDER BY date DESC, id DESC
LIMIT ?6 OFFSET ?7`

// ListTransactions pages through transactions matching f, newest first.
func (q *Queries) ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	args := append(filterArgs(f), f.Limit, f.Offset)
	rows, err := q.db.QueryContext(ctx, listTransactions, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return scanTransactions(rows)
}

// Totals holds income and expense sums in cents.
type Totals struct {
	IncomeCents  int64
	ExpenseCents int64
	Count        int64
}

const summarizeTransactions = `-- name: SummarizeTransactions :one
SELECT
    COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents END), 0),
    COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents END), 0),
    COUNT(*)
FROM transactions` + filterClause

// SummarizeTransactions totals every transaction matching f, ignoring paging.
func (q *Queries) SummarizeTransactions(ctx context.Context, f core.TransactionFilter) (Totals, error) {
	var t Totals
	row := q.db.QueryRowContext(ctx, summarizeTransactions, filterArgs(f)...)
	if err := row.Scan(&t.IncomeCents, &t.ExpenseCents, &t.Count); err != nil {
		return Totals{}, fmt.Errorf("summarize transactions: %w", err)
	}
	return t, nil
}

const updateTransaction = `-- name: UpdateTransaction :exec
UPDATE transactions
SET amount_cents = ?, type = ?, category_id = ?, account_id = ?, date = ?, description = ?
WHERE id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := q.db.ExecContext(ctx, updateTransaction,
		core.ToCents(t.Amount), string(t.Type), t.CategoryID, nullID(t.AccountID),
		t.Date.String(), t.Description, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	return nil
}

const deleteTransaction = `-- name: DeleteTransaction :exec
DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, deleteTransaction, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}

const externalRefExists = `-- name: ExternalRefExists :one
SELECT EXISTS (SELECT 1 FROM transactions WHERE account_id = ? AND external_ref = ?)`

// ExternalRefExists reports whether a statement line was already imported into an account.
func (q *Queries) ExternalRefExists(ctx context.Context, accountID int64, ref string) (bool, error) {
	var exists bool
	if err := q.db.QueryRowContext(ctx, externalRefExists, accountID, ref).Scan(&exists); err != nil {
		return false, fmt.Errorf("check external ref: %w", err)
	}
	return exists, nil
}

const allTimeTotals = `-- name: AllTimeTotals :one
SELECT
    COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents END), 0),
    COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents END), 0),
    COUNT(*)
FROM transactions`

func (q *Queries) AllTimeTotals(ctx context.Context) (Totals, error) {
	var t Totals
	if err := q.db.QueryRowContext(ctx, allTimeTotals).Scan(&t.IncomeCents, &t.ExpenseCents, &t.Count); err != nil {
		return Totals{}, fmt.Errorf("sum all transactions: %w", err)
	}
	return t, nil
}

// CategoryTotal is the sum of one category's transactions in cents.
type CategoryTotal struct {
	CategoryID   int64
	CategoryName string
	TotalCents   int64
}

const totalsByCategory = `-- name: TotalsByCategory :many
SELECT t.category_id, c.name, SUM(t.amount_cents) AS total
FROM transactions t
JOIN categories c ON c.id = t.category_id
WHERE t.type = ? AND t.date >= ? AND t.date <= ?
GROUP BY t.category_id, c.name
ORDER BY total DESC, c.name`

func (q *Queries) TotalsByCategory(ctx context.Context, t core.TransactionType, start, end core.Date) ([]CategoryTotal, error) {
	rows, err := q.db.QueryContext(ctx, totalsByCategory, string(t), start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("total by category: %w", err)
	}
	defer rows.Close()
	var items []CategoryTotal
	for rows.Next() {
		var ct CategoryTotal
		if err := rows.Scan(&ct.CategoryID, &ct.CategoryName, &ct.TotalCents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		items = append(items, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category totals: %w", err)
	}
	return items, nil
}

const dailyTotals = `-- name: DailyTotals :many
SELECT date, SUM(amount_cents)
FROM transactions
WHERE type = ? AND date >= ? AND date <= ?
GROUP BY date`

// DailyTotals sums transactions of type t per calendar date in [start, end].
func (q *Queries) DailyTotals(ctx context.Context, t core.TransactionType, start, end core.Date) (core.DayTotals, error) {
	rows, err := q.db.QueryContext(ctx, dailyTotals, string(t), start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}
	defer rows.Close()
	out := core.DayTotals{}
	for rows.Next() {
		var (
			day   string
			cents int64
		)
		if err := rows.Scan(&day, &cents); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		out[day] = core.FromCents(cents)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily totals: %w", err)
	}
	return out, nil
}
