package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

const budgetColumns = `id, category_id, month, year, amount_cents, created_at`

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b       core.Budget
		cents   int64
		created sql.NullTime
	)
	if err := row.Scan(&b.ID, &b.CategoryID, &b.Month, &b.Year, &cents, &created); err != nil {
		return core.Budget{}, err
	}
	b.Amount = core.FromCents(cents)
	b.CreatedAt = created.Time
	return b, nil
}

const createBudget = `-- name: CreateBudget :one
INSERT INTO budgets (category_id, month, year, amount_cents) VALUES (?, ?, ?, ?)
RETURNING ` + budgetColumns

func (q *Queries) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	created, err := scanBudget(q.db.QueryRowContext(ctx, createBudget, b.CategoryID, b.Month, b.Year, core.ToCents(b.Amount)))
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	return created, nil
}

const getBudget = `-- name: GetBudget :one
SELECT ` + budgetColumns + ` FROM budgets WHERE id = ?`

func (q *Queries) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	b, err := scanBudget(q.db.QueryRowContext(ctx, getBudget, id))
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %d: %w", id, err)
	}
	return b, nil
}

const budgetPeriodTaken = `-- name: BudgetPeriodTaken :one
SELECT EXISTS (SELECT 1 FROM budgets WHERE category_id = ? AND month = ? AND year = ? AND id <> ?)`

// BudgetPeriodTaken reports whether another budget covers the same category and period.
func (q *Queries) BudgetPeriodTaken(ctx context.Context, b core.Budget) (bool, error) {
	var taken bool
	if err := q.db.QueryRowContext(ctx, budgetPeriodTaken, b.CategoryID, b.Month, b.Year, b.ID).Scan(&taken); err != nil {
		return false, fmt.Errorf("check budget period: %w", err)
	}
	return taken, nil
}

const updateBudget = `-- name: UpdateBudget :exec
UPDATE budgets SET category_id = ?, month = ?, year = ?, amount_cents = ? WHERE id = ?`

func (q *Queries) UpdateBudget(ctx context.Context, b core.Budget) error {
	if _, err := q.db.ExecContext(ctx, updateBudget, b.CategoryID, b.Month, b.Year, core.ToCents(b.Amount), b.ID); err != nil {
		return fmt.Errorf("update budget %d: %w", b.ID, err)
	}
	return nil
}

const deleteBudget = `-- name: DeleteBudget :exec
DELETE FROM budgets WHERE id = ?`

func (q *Queries) DeleteBudget(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, deleteBudget, id); err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	return nil
}

// BudgetRow is a budget with its category name and the expense spent in its period.
type BudgetRow struct {
	Budget       core.Budget
	CategoryName string
	SpentCents   int64
}

// ?3 and ?4 are the first and last day of the period.
const budgetRows = `-- name: BudgetRows :many
SELECT b.id, b.category_id, b.month, b.year, b.amount_cents, b.created_at, c.name,
       COALESCE((SELECT SUM(t.amount_cents) FROM transactions t
                 WHERE t.category_id = b.category_id AND t.type = 'expense'
                   AND t.date >= ?3 AND t.date <= ?4), 0)
FROM budgets b
JOIN categories c ON c.id = b.category_id
WHERE b.month = ?1 AND b.year = ?2
ORDER BY c.name, b.id`

// BudgetRows returns every budget of a period together with its spending.
func (q *Queries) BudgetRows(ctx context.Context, month, year int) ([]BudgetRow, error) {
	first, last := core.MonthBounds(year, month)
	rows, err := q.db.QueryContext(ctx, budgetRows, month, year, first.String(), last.String())
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()
	var items []BudgetRow
	for rows.Next() {
		var (
			r       BudgetRow
			cents   int64
			created sql.NullTime
		)
		if err := rows.Scan(&r.Budget.ID, &r.Budget.CategoryID, &r.Budget.Month, &r.Budget.Year,
			&cents, &created, &r.CategoryName, &r.SpentCents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		r.Budget.Amount = core.FromCents(cents)
		r.Budget.CreatedAt = created.Time
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return items, nil
}

const categorySpent = `-- name: CategorySpent :one
SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
WHERE category_id = ? AND type = 'expense' AND date >= ? AND date <= ?`

// CategorySpent sums a category's expenses within a month.
func (q *Queries) CategorySpent(ctx context.Context, categoryID int64, month, year int) (int64, error) {
	first, last := core.MonthBounds(year, month)
	var cents int64
	if err := q.db.QueryRowContext(ctx, categorySpent, categoryID, first.String(), last.String()).Scan(&cents); err != nil {
		return 0, fmt.Errorf("sum category spending: %w", err)
	}
	return cents, nil
}
