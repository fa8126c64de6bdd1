package storage

import (
	"context"
	"fmt"
)

const ledgerVersion = `-- name: LedgerVersion :one
SELECT version FROM ledger_version WHERE id = 1`

// LedgerVersion returns the change counter maintained by triggers on the
// ledger tables. It moves on every committed write, whichever process made it.
func (q *Queries) LedgerVersion(ctx context.Context) (int64, error) {
	var v int64
	if err := q.db.QueryRowContext(ctx, ledgerVersion).Scan(&v); err != nil {
		return 0, fmt.Errorf("get ledger version: %w", err)
	}
	return v, nil
}
