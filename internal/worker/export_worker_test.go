package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

type fakeSheet struct {
	rows [][]any
	err  error
}

func (f *fakeSheet) AppendRows(_ context.Context, rows [][]any) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, rows...)
	return nil
}

func TestHandleEventAppendsRow(t *testing.T) {
	sheet := &fakeSheet{}
	w := NewExportWorker(sheet)

	account := int64(1)
	e := amqp.NewLedgerEvent(amqp.EventTransactionCreated, 42).
		WithAccount(&account).
		WithAmount(decimal.RequireFromString("12.5")).
		WithDate(core.NewDate(2024, 3, 1))
	e.Timestamp = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	require.NoError(t, w.HandleEvent(context.Background(), e))
	require.Len(t, sheet.rows, 1)
	assert.Equal(t, []any{"2024-03-01T09:30:00Z", "transaction.created", int64(42), "1", "12.50", "2024-03-01"}, sheet.rows[0])
}

func TestHandleEventSkipsOtherTypes(t *testing.T) {
	sheet := &fakeSheet{}
	w := NewExportWorker(sheet)

	for _, typ := range []amqp.EventType{amqp.EventGoalContributed, amqp.EventRecurringProcessed} {
		require.NoError(t, w.HandleEvent(context.Background(), amqp.NewLedgerEvent(typ, 1)))
	}
	assert.Empty(t, sheet.rows)

	require.NoError(t, w.HandleEvent(context.Background(), amqp.NewLedgerEvent(amqp.EventTransferCreated, 3)))
	require.Len(t, sheet.rows, 1)
	assert.Equal(t, "", sheet.rows[0][3], "transfers carry no single account")
}

func TestHandleEventReturnsSheetErrors(t *testing.T) {
	w := NewExportWorker(&fakeSheet{err: errors.New("quota exceeded")})
	err := w.HandleEvent(context.Background(), amqp.NewLedgerEvent(amqp.EventTransactionDeleted, 9))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction.deleted 9")
}

func TestExported(t *testing.T) {
	assert.True(t, Exported(amqp.EventTransactionUpdated))
	assert.True(t, Exported(amqp.EventTransferCreated))
	assert.False(t, Exported(amqp.EventGoalContributed))
}
