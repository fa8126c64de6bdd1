package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Seeded by migration 000002.
const (
	mainAccountID     int64 = 1
	salaryCategoryID  int64 = 1
	foodCategoryID    int64 = 5
	housingCategoryID int64 = 7
)

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
}

func (f *fakePublisher) PublishLedgerEvent(_ context.Context, e *amqp.LedgerEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakePublisher) types() []amqp.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]amqp.EventType, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

func date(s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func balanceOf(t *testing.T, s *LedgerService, id int64) decimal.Decimal {
	t.Helper()
	a, err := s.GetAccount(context.Background(), id)
	require.NoError(t, err)
	return a.Balance
}
