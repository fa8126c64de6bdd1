package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

const transferColumns = `id, from_account_id, to_account_id, amount_cents, date, note, created_at`

func scanTransfer(row rowScanner) (core.Transfer, error) {
	var (
		t       core.Transfer
		cents   int64
		date    string
		created sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.FromAccountID, &t.ToAccountID, &cents, &date, &t.Note, &created); err != nil {
		return core.Transfer{}, err
	}
	d, err := dateOf(date)
	if err != nil {
		return core.Transfer{}, err
	}
	t.Amount = core.FromCents(cents)
	t.Date = d
	t.CreatedAt = created.Time
	return t, nil
}

const createTransfer = `-- name: CreateTransfer :one
INSERT INTO transfers (from_account_id, to_account_id, amount_cents, date, note)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + transferColumns

func (q *Queries) CreateTransfer(ctx context.Context, t core.Transfer) (core.Transfer, error) {
	row := q.db.QueryRowContext(ctx, createTransfer, t.FromAccountID, t.ToAccountID, core.ToCents(t.Amount), t.Date.String(), t.Note)
	created, err := scanTransfer(row)
	if err != nil {
		return core.Transfer{}, fmt.Errorf("insert transfer: %w", err)
	}
	return created, nil
}

const listTransfers = `-- name: ListTransfers :many
SELECT ` + transferColumns + ` FROM transfers
WHERE (?1 = 0 OR from_account_id = ?1 OR to_account_id = ?1)
ORDER BY date DESC, id DESC`

// ListTransfers returns transfers touching accountID, or all of them when accountID is 0.
func (q *Queries) ListTransfers(ctx context.Context, accountID int64) ([]core.Transfer, error) {
	rows, err := q.db.QueryContext(ctx, listTransfers, accountID)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()
	var items []core.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfers: %w", err)
	}
	return items, nil
}
