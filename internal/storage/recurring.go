package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

const templateColumns = `id, amount_cents, type, category_id, account_id, interval, next_date, anchor_day, description, is_active, created_at`

func scanTemplate(row rowScanner) (core.RecurringTemplate, error) {
	var (
		rt      core.RecurringTemplate
		cents   int64
		account sql.NullInt64
		next    string
		created sql.NullTime
	)
	if err := row.Scan(&rt.ID, &cents, &rt.Type, &rt.CategoryID, &account, &rt.Interval,
		&next, &rt.AnchorDay, &rt.Description, &rt.IsActive, &created); err != nil {
		return core.RecurringTemplate{}, err
	}
	d, err := dateOf(next)
	if err != nil {
		return core.RecurringTemplate{}, err
	}
	rt.Amount = core.FromCents(cents)
	rt.AccountID = idPtr(account)
	rt.NextDate = d
	rt.CreatedAt = created.Time
	return rt, nil
}

func scanTemplates(rows *sql.Rows) ([]core.RecurringTemplate, error) {
	defer rows.Close()
	var items []core.RecurringTemplate
	for rows.Next() {
		rt, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring template: %w", err)
		}
		items = append(items, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recurring templates: %w", err)
	}
	return items, nil
}

const createTemplate = `-- name: CreateTemplate :one
INSERT INTO recurring_templates (amount_cents, type, category_id, account_id, interval, next_date, anchor_day, description, is_active)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + templateColumns

func (q *Queries) CreateTemplate(ctx context.Context, rt core.RecurringTemplate) (core.RecurringTemplate, error) {
	row := q.db.QueryRowContext(ctx, createTemplate, core.ToCents(rt.Amount), string(rt.Type), rt.CategoryID,
		nullID(rt.AccountID), string(rt.Interval), rt.NextDate.String(), rt.AnchorDay, rt.Description, boolInt(rt.IsActive))
	created, err := scanTemplate(row)
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("insert recurring template: %w", err)
	}
	return created, nil
}

const getTemplate = `-- name: GetTemplate :one
SELECT ` + templateColumns + ` FROM recurring_templates WHERE id = ?`

func (q *Queries) GetTemplate(ctx context.Context, id int64) (core.RecurringTemplate, error) {
	rt, err := scanTemplate(q.db.QueryRowContext(ctx, getTemplate, id))
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("get recurring template %d: %w", id, err)
	}
	return rt, nil
}

const listTemplates = `-- name: ListTemplates :many
SELECT ` + templateColumns + ` FROM recurring_templates ORDER BY next_date, id`

func (q *Queries) ListTemplates(ctx context.Context) ([]core.RecurringTemplate, error) {
	rows, err := q.db.QueryContext(ctx, listTemplates)
	if err != nil {
		return nil, fmt.Errorf("list recurring templates: %w", err)
	}
	return scanTemplates(rows)
}

const listDueTemplates = `-- name: ListDueTemplates :many
SELECT ` + templateColumns + ` FROM recurring_templates
WHERE is_active = 1 AND next_date <= ?
ORDER BY next_date, id`

// ListDueTemplates returns active templates with a cycle due on or before asOf.
func (q *Queries) ListDueTemplates(ctx context.Context, asOf core.Date) ([]core.RecurringTemplate, error) {
	rows, err := q.db.QueryContext(ctx, listDueTemplates, asOf.String())
	if err != nil {
		return nil, fmt.Errorf("list due recurring templates: %w", err)
	}
	return scanTemplates(rows)
}

const updateTemplate = `-- name: UpdateTemplate :exec
UPDATE recurring_templates
SET amount_cents = ?, type = ?, category_id = ?, account_id = ?, interval = ?,
    next_date = ?, anchor_day = ?, description = ?, is_active = ?
WHERE id = ?`

func (q *Queries) UpdateTemplate(ctx context.Context, rt core.RecurringTemplate) error {
	_, err := q.db.ExecContext(ctx, updateTemplate, core.ToCents(rt.Amount), string(rt.Type), rt.CategoryID,
		nullID(rt.AccountID), string(rt.Interval), rt.NextDate.String(), rt.AnchorDay, rt.Description,
		boolInt(rt.IsActive), rt.ID)
	if err != nil {
		return fmt.Errorf("update recurring template %d: %w", rt.ID, err)
	}
	return nil
}

const setTemplateNextDate = `-- name: SetTemplateNextDate :exec
UPDATE recurring_templates SET next_date = ? WHERE id = ?`

func (q *Queries) SetTemplateNextDate(ctx context.Context, id int64, next core.Date) error {
	if _, err := q.db.ExecContext(ctx, setTemplateNextDate, next.String(), id); err != nil {
		return fmt.Errorf("advance recurring template %d: %w", id, err)
	}
	return nil
}

const deleteTemplate = `-- name: DeleteTemplate :exec
DELETE FROM recurring_templates WHERE id = ?`

func (q *Queries) DeleteTemplate(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, deleteTemplate, id); err != nil {
		return fmt.Errorf("delete recurring template %d: %w", id, err)
	}
	return nil
}
