package storage

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

const listSettings = `-- name: ListSettings :many
SELECT key, value FROM settings ORDER BY key`

func (q *Queries) ListSettings(ctx context.Context) ([]core.Setting, error) {
	rows, err := q.db.QueryContext(ctx, listSettings)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()
	var items []core.Setting
	for rows.Next() {
		var s core.Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return items, nil
}

const getSetting = `-- name: GetSetting :one
SELECT key, value FROM settings WHERE key = ?`

func (q *Queries) GetSetting(ctx context.Context, key string) (core.Setting, error) {
	var s core.Setting
	if err := q.db.QueryRowContext(ctx, getSetting, key).Scan(&s.Key, &s.Value); err != nil {
		return core.Setting{}, fmt.Errorf("get setting %q: %w", key, err)
	}
	return s, nil
}

const putSetting = `-- name: PutSetting :exec
INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`

func (q *Queries) PutSetting(ctx context.Context, s core.Setting) error {
	if _, err := q.db.ExecContext(ctx, putSetting, s.Key, s.Value); err != nil {
		return fmt.Errorf("put setting %q: %w", s.Key, err)
	}
	return nil
}
