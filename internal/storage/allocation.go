package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

const ruleColumns = `r.id, r.name, r.percentage, r.target_type, r.target_id,
    COALESCE(g.name, c.name, ''), r.is_active, r.sort_order, r.created_at`

const ruleFrom = ` FROM allocation_rules r
LEFT JOIN goals g ON r.target_type = 'goal' AND g.id = r.target_id
LEFT JOIN categories c ON r.target_type = 'category' AND c.id = r.target_id`

func scanRule(row rowScanner) (core.AllocationRule, error) {
	var (
		r       core.AllocationRule
		created sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.Name, &r.Percentage, &r.TargetType, &r.TargetID,
		&r.TargetName, &r.IsActive, &r.SortOrder, &created); err != nil {
		return core.AllocationRule{}, err
	}
	r.CreatedAt = created.Time
	return r, nil
}

const createRule = `-- name: CreateRule :one
INSERT INTO allocation_rules (name, percentage, target_type, target_id, is_active, sort_order)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id`

// CreateRule inserts r and returns it with its target name resolved.
func (q *Queries) CreateRule(ctx context.Context, r core.AllocationRule) (core.AllocationRule, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createRule, r.Name, r.Percentage, string(r.TargetType), r.TargetID,
		boolInt(r.IsActive), r.SortOrder).Scan(&id)
	if err != nil {
		return core.AllocationRule{}, fmt.Errorf("insert allocation rule: %w", err)
	}
	return q.GetRule(ctx, id)
}

const getRule = `-- name: GetRule :one
SELECT ` + ruleColumns + ruleFrom + ` WHERE r.id = ?`

func (q *Queries) GetRule(ctx context.Context, id int64) (core.AllocationRule, error) {
	r, err := scanRule(q.db.QueryRowContext(ctx, getRule, id))
	if err != nil {
		return core.AllocationRule{}, fmt.Errorf("get allocation rule %d: %w", id, err)
	}
	return r, nil
}

const listRules = `-- name: ListRules :many
SELECT ` + ruleColumns + ruleFrom + `
WHERE (?1 = 0 OR r.is_active = 1)
ORDER BY r.sort_order, r.id`

// ListRules returns rules ordered by (sort_order, id), only active ones when activeOnly is set.
func (q *Queries) ListRules(ctx context.Context, activeOnly bool) ([]core.AllocationRule, error) {
	rows, err := q.db.QueryContext(ctx, listRules, boolInt(activeOnly))
	if err != nil {
		return nil, fmt.Errorf("list allocation rules: %w", err)
	}
	defer rows.Close()
	var items []core.AllocationRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan allocation rule: %w", err)
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allocation rules: %w", err)
	}
	return items, nil
}

const updateRule = `-- name: UpdateRule :exec
UPDATE allocation_rules
SET name = ?, percentage = ?, target_type = ?, target_id = ?, is_active = ?, sort_order = ?
WHERE id = ?`

func (q *Queries) UpdateRule(ctx context.Context, r core.AllocationRule) error {
	_, err := q.db.ExecContext(ctx, updateRule, r.Name, r.Percentage, string(r.TargetType), r.TargetID,
		boolInt(r.IsActive), r.SortOrder, r.ID)
	if err != nil {
		return fmt.Errorf("update allocation rule %d: %w", r.ID, err)
	}
	return nil
}

const deleteRule = `-- name: DeleteRule :exec
DELETE FROM allocation_rules WHERE id = ?`

func (q *Queries) DeleteRule(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, deleteRule, id); err != nil {
		return fmt.Errorf("delete allocation rule %d: %w", id, err)
	}
	return nil
}
