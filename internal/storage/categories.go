package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

const categoryColumns = `id, name, type, icon, created_at`

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c       core.Category
		created sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Type, &c.Icon, &created); err != nil {
		return core.Category{}, err
	}
	c.CreatedAt = created.Time
	return c, nil
}

const createCategory = `-- name: CreateCategory :one
INSERT INTO categories (name, type, icon) VALUES (?, ?, ?)
RETURNING ` + categoryColumns

func (q *Queries) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	created, err := scanCategory(q.db.QueryRowContext(ctx, createCategory, c.Name, string(c.Type), c.Icon))
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return created, nil
}

const getCategory = `-- name: GetCategory :one
SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`

func (q *Queries) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	c, err := scanCategory(q.db.QueryRowContext(ctx, getCategory, id))
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return c, nil
}

const listCategories = `-- name: ListCategories :many
SELECT ` + categoryColumns + ` FROM categories
WHERE (?1 = '' OR type = ?1)
ORDER BY type, name`

// ListCategories returns all categories, or only those of type t when t is set.
func (q *Queries) ListCategories(ctx context.Context, t core.TransactionType) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories, string(t))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var items []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return items, nil
}

const categoryNameTaken = `-- name: CategoryNameTaken :one
SELECT EXISTS (SELECT 1 FROM categories WHERE name = ? COLLATE NOCASE AND id <> ?)`

// CategoryNameTaken reports whether another category already uses name.
func (q *Queries) CategoryNameTaken(ctx context.Context, name string, exceptID int64) (bool, error) {
	var taken bool
	if err := q.db.QueryRowContext(ctx, categoryNameTaken, name, exceptID).Scan(&taken); err != nil {
		return false, fmt.Errorf("check category name: %w", err)
	}
	return taken, nil
}

const updateCategory = `-- name: UpdateCategory :exec
UPDATE categories SET name = ?, type = ?, icon = ? WHERE id = ?`

func (q *Queries) UpdateCategory(ctx context.Context, c core.Category) error {
	if _, err := q.db.ExecContext(ctx, updateCategory, c.Name, string(c.Type), c.Icon, c.ID); err != nil {
		return fmt.Errorf("update category %d: %w", c.ID, err)
	}
	return nil
}

const deleteCategory = `-- name: DeleteCategory :exec
DELETE FROM categories WHERE id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, deleteCategory, id); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return nil
}

// CategoryRefs counts the rows that pin a category.
type CategoryRefs struct {
	Transactions int64
	Budgets      int64
	Templates    int64
	Rules        int64
}

const categoryReferences = `-- name: CategoryReferences :one
SELECT
    (SELECT COUNT(*) FROM transactions WHERE category_id = ?1),
    (SELECT COUNT(*) FROM budgets WHERE category_id = ?1),
    (SELECT COUNT(*) FROM recurring_templates WHERE category_id = ?1),
    (SELECT COUNT(*) FROM allocation_rules WHERE target_type = 'category' AND target_id = ?1)`

func (q *Queries) CategoryReferences(ctx context.Context, id int64) (CategoryRefs, error) {
	var r CategoryRefs
	if err := q.db.QueryRowContext(ctx, categoryReferences, id).Scan(&r.Transactions, &r.Budgets, &r.Templates, &r.Rules); err != nil {
		return CategoryRefs{}, fmt.Errorf("count category references: %w", err)
	}
	return r, nil
}
