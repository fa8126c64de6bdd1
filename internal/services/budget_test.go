package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestBudgetStatusTracksSpending(t *testing.T) {
	repo := newTestRepo(t)
	ledger := NewLedgerService(repo, nil)
	budgets := NewBudgetService(repo)
	ctx := context.Background()

	b, err := budgets.CreateBudget(ctx, BudgetInput{CategoryID: foodCategoryID, Month: 2, Year: 2024, Amount: dec("200")})
	require.NoError(t, err)
	assert.True(t, b.Spent.IsZero())
	assert.Equal(t, "Food", b.CategoryName)

	for _, in := range []TransactionInput{
		{Amount: dec("150"), Type: core.Expense, CategoryID: foodCategoryID, Date: ptr(date("2024-02-01"))},
		{Amount: dec("50"), Type: core.Expense, CategoryID: foodCategoryID, Date: ptr(date("2024-02-29"))},
		{Amount: dec("70"), Type: core.Expense, CategoryID: foodCategoryID, Date: ptr(date("2024-03-01"))},
		{Amount: dec("30"), Type: core.Expense, CategoryID: housingCategoryID, Date: ptr(date("2024-02-10"))},
	} {
		_, err := ledger.CreateTransaction(ctx, in)
		require.NoError(t, err)
	}

	items, err := budgets.Status(ctx, 2, 2024)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, dec("200").Equal(items[0].Spent))
	assert.True(t, items[0].Remaining.IsZero())
	assert.Equal(t, 100.0, items[0].PercentUsed)
	assert.True(t, items[0].OverLimit)

	one, err := budgets.GetBudget(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, dec("200").Equal(one.Spent))

	empty, err := budgets.Status(ctx, 7, 2030)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBudgetValidation(t *testing.T) {
	budgets := NewBudgetService(newTestRepo(t))
	ctx := context.Background()

	_, err := budgets.CreateBudget(ctx, BudgetInput{CategoryID: foodCategoryID, Month: 1, Year: 2024, Amount: dec("100")})
	require.NoError(t, err)

	tests := []struct {
		name  string
		in    BudgetInput
		check func(error) bool
	}{
		{"duplicate period", BudgetInput{CategoryID: foodCategoryID, Month: 1, Year: 2024, Amount: dec("5")}, core.IsConflict},
		{"zero amount", BudgetInput{CategoryID: foodCategoryID, Month: 2, Year: 2024}, core.IsValidation},
		{"bad month", BudgetInput{CategoryID: foodCategoryID, Month: 13, Year: 2024, Amount: dec("5")}, core.IsValidation},
		{"income category", BudgetInput{CategoryID: salaryCategoryID, Month: 1, Year: 2024, Amount: dec("5")}, core.IsValidation},
		{"missing category", BudgetInput{CategoryID: 999, Month: 1, Year: 2024, Amount: dec("5")}, core.IsValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := budgets.CreateBudget(ctx, tt.in)
			assert.True(t, tt.check(err), "got %v", err)
		})
	}
}

func TestBudgetUpdateAndDelete(t *testing.T) {
	budgets := NewBudgetService(newTestRepo(t))
	ctx := context.Background()

	jan, err := budgets.CreateBudget(ctx, BudgetInput{CategoryID: foodCategoryID, Month: 1, Year: 2024, Amount: dec("100")})
	require.NoError(t, err)
	feb, err := budgets.CreateBudget(ctx, BudgetInput{CategoryID: foodCategoryID, Month: 2, Year: 2024, Amount: dec("100")})
	require.NoError(t, err)

	updated, err := budgets.UpdateBudget(ctx, jan.ID, BudgetPatch{Amount: ptr(dec("150.50"))})
	require.NoError(t, err)
	assert.True(t, dec("150.50").Equal(updated.Amount))

	_, err = budgets.UpdateBudget(ctx, jan.ID, BudgetPatch{Month: ptr(2)})
	assert.True(t, core.IsConflict(err))
	_, err = budgets.UpdateBudget(ctx, jan.ID, BudgetPatch{Amount: ptr(dec("0"))})
	assert.True(t, core.IsValidation(err))

	require.NoError(t, budgets.DeleteBudget(ctx, feb.ID))
	assert.True(t, core.IsNotFound(budgets.DeleteBudget(ctx, feb.ID)))
	_, err = budgets.GetBudget(ctx, feb.ID)
	assert.True(t, core.IsNotFound(err))
}
