package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestCalculateSplitsInRuleOrder(t *testing.T) {
	repo := newTestRepo(t)
	goals := NewGoalService(repo, nil, false)
	rules := NewAllocationService(repo)
	ctx := context.Background()

	vacation, err := goals.CreateGoal(ctx, GoalInput{Name: "Vacation", TargetAmount: dec("2000")})
	require.NoError(t, err)

	_, err = rules.CreateRule(ctx, RuleInput{Name: "Travel", Percentage: 20, TargetType: core.TargetGoal, TargetID: vacation.ID, SortOrder: 1})
	require.NoError(t, err)
	_, err = rules.CreateRule(ctx, RuleInput{Name: "Home", Percentage: 30, TargetType: core.TargetCategory, TargetID: housingCategoryID, SortOrder: 2})
	require.NoError(t, err)
	_, err = rules.CreateRule(ctx, RuleInput{Name: "Paused", Percentage: 50, TargetType: core.TargetCategory, TargetID: foodCategoryID, IsActive: ptr(false)})
	require.NoError(t, err)

	plan, err := rules.Calculate(ctx, dec("1000"))
	require.NoError(t, err)
	require.Len(t, plan.Items, 2)
	assert.Equal(t, "Vacation", plan.Items[0].TargetName)
	assert.True(t, dec("200").Equal(plan.Items[0].Amount))
	assert.Equal(t, "Housing", plan.Items[1].TargetName)
	assert.True(t, dec("300").Equal(plan.Items[1].Amount))
	assert.Equal(t, 50, plan.TotalPercentage)
	assert.False(t, plan.OverAllocated)
	assert.True(t, dec("500").Equal(plan.Unallocated))

	all, err := rules.ListRules(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCalculateToleratesOverAllocation(t *testing.T) {
	rules := NewAllocationService(newTestRepo(t))
	ctx := context.Background()

	for _, pct := range []int{60, 50} {
		_, err := rules.CreateRule(ctx, RuleInput{Name: "Split", Percentage: pct, TargetType: core.TargetCategory, TargetID: foodCategoryID})
		require.NoError(t, err)
	}
	plan, err := rules.Calculate(ctx, dec("10.01"))
	require.NoError(t, err)
	assert.True(t, plan.OverAllocated)
	assert.Equal(t, 110, plan.TotalPercentage)
	assert.True(t, dec("6.01").Equal(plan.Items[0].Amount))
	assert.True(t, dec("5.01").Equal(plan.Items[1].Amount))

	_, err = rules.Calculate(ctx, dec("0"))
	assert.True(t, core.IsValidation(err))
}

func TestRuleValidation(t *testing.T) {
	rules := NewAllocationService(newTestRepo(t))
	ctx := context.Background()

	tests := []struct {
		name string
		in   RuleInput
	}{
		{"missing goal", RuleInput{Name: "x", Percentage: 10, TargetType: core.TargetGoal, TargetID: 42}},
		{"missing category", RuleInput{Name: "x", Percentage: 10, TargetType: core.TargetCategory, TargetID: 999}},
		{"percentage over 100", RuleInput{Name: "x", Percentage: 101, TargetType: core.TargetCategory, TargetID: foodCategoryID}},
		{"percentage zero", RuleInput{Name: "x", TargetType: core.TargetCategory, TargetID: foodCategoryID}},
		{"bad target type", RuleInput{Name: "x", Percentage: 10, TargetType: "account", TargetID: 1}},
		{"empty name", RuleInput{Name: "  ", Percentage: 10, TargetType: core.TargetCategory, TargetID: foodCategoryID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rules.CreateRule(ctx, tt.in)
			assert.True(t, core.IsValidation(err), "got %v", err)
		})
	}

	r, err := rules.CreateRule(ctx, RuleInput{Name: "Food", Percentage: 10, TargetType: core.TargetCategory, TargetID: foodCategoryID})
	require.NoError(t, err)
	updated, err := rules.UpdateRule(ctx, r.ID, RulePatch{Percentage: ptr(25), TargetID: ptr(housingCategoryID)})
	require.NoError(t, err)
	assert.Equal(t, 25, updated.Percentage)
	assert.Equal(t, "Housing", updated.TargetName)
	_, err = rules.GetRule(ctx, 999)
	assert.True(t, core.IsNotFound(err))
}
