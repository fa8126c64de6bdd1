package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNewBudgetStatus(t *testing.T) {
	tests := []struct {
		name      string
		limit     string
		spent     string
		remaining string
		percent   float64
		over      bool
	}{
		{"under", "100", "40", "60", 40, false},
		{"exactly at limit", "100", "100", "0", 100, true},
		{"over", "100", "150", "-50", 150, true},
		{"nothing spent", "250", "0", "250", 0, false},
		{"zero limit", "0", "10", "-10", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewBudgetStatus(Budget{Amount: dec(tt.limit)}, "Food", dec(tt.spent))
			if !st.Remaining.Equal(dec(tt.remaining)) {
				t.Errorf("Remaining = %s, want %s", st.Remaining, tt.remaining)
			}
			if st.PercentUsed != tt.percent {
				t.Errorf("PercentUsed = %v, want %v", st.PercentUsed, tt.percent)
			}
			if st.OverLimit != tt.over {
				t.Errorf("OverLimit = %v, want %v", st.OverLimit, tt.over)
			}
		})
	}
}

func TestGoalContribute(t *testing.T) {
	g := Goal{Name: "Trip", TargetAmount: dec("100"), CurrentAmount: dec("0")}

	g, err := g.Contribute(dec("60"))
	if err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if g.Completed || g.ProgressPercent != 60 {
		t.Fatalf("after 60: completed=%v progress=%v", g.Completed, g.ProgressPercent)
	}

	g, err = g.Contribute(dec("50"))
	if err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if !g.Completed {
		t.Fatal("expected goal completed")
	}
	if !g.CurrentAmount.Equal(dec("110")) {
		t.Fatalf("current = %s, want 110", g.CurrentAmount)
	}
	if g.ProgressPercent != 100 {
		t.Fatalf("progress = %v, want capped 100", g.ProgressPercent)
	}

	if _, err := g.Contribute(dec("0")); !IsValidation(err) {
		t.Fatalf("zero contribution: expected validation error, got %v", err)
	}
}

func TestCompletedGoalStaysCompleted(t *testing.T) {
	g := Goal{TargetAmount: dec("500"), CurrentAmount: dec("100"), Completed: true}
	g, err := g.Contribute(dec("1"))
	if err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if !g.Completed {
		t.Fatal("completed flag was cleared")
	}
}

func TestSplitAllocation(t *testing.T) {
	rules := []AllocationRule{
		{ID: 1, Name: "Savings", Percentage: 20, TargetType: TargetGoal, TargetID: 1},
		{ID: 2, Name: "Fun", Percentage: 30, TargetType: TargetCategory, TargetID: 4},
	}
	plan := SplitAllocation(dec("1000"), rules)
	if len(plan.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(plan.Items))
	}
	if !plan.Items[0].Amount.Equal(dec("200")) || !plan.Items[1].Amount.Equal(dec("300")) {
		t.Fatalf("amounts = %s, %s", plan.Items[0].Amount, plan.Items[1].Amount)
	}
	if plan.TotalPercentage != 50 || plan.OverAllocated {
		t.Fatalf("total=%d over=%v", plan.TotalPercentage, plan.OverAllocated)
	}
	if !plan.Unallocated.Equal(dec("500")) {
		t.Fatalf("unallocated = %s", plan.Unallocated)
	}
}

func TestSplitAllocationOverAllocated(t *testing.T) {
	rules := []AllocationRule{
		{ID: 1, Name: "A", Percentage: 70},
		{ID: 2, Name: "B", Percentage: 40},
	}
	plan := SplitAllocation(dec("100"), rules)
	if !plan.OverAllocated || plan.TotalPercentage != 110 {
		t.Fatalf("total=%d over=%v", plan.TotalPercentage, plan.OverAllocated)
	}
	if !plan.Unallocated.Equal(dec("-10")) {
		t.Fatalf("unallocated = %s, want -10", plan.Unallocated)
	}
}

func TestSplitAllocationRoundsShares(t *testing.T) {
	plan := SplitAllocation(dec("10.01"), []AllocationRule{{ID: 1, Name: "third", Percentage: 33}})
	// 10.01 * 0.33 = 3.3033
	if !plan.Items[0].Amount.Equal(dec("3.30")) {
		t.Fatalf("share = %s, want 3.30", plan.Items[0].Amount)
	}
}

func TestWithPercents(t *testing.T) {
	rows := WithPercents([]CategorySpending{
		{CategoryID: 1, Total: dec("75")},
		{CategoryID: 2, Total: dec("25")},
	})
	if rows[0].Percent != 75 || rows[1].Percent != 25 {
		t.Fatalf("percents = %v, %v", rows[0].Percent, rows[1].Percent)
	}
	if got := WithPercents(nil); len(got) != 0 {
		t.Fatalf("expected empty result")
	}
}

func TestFillTrend(t *testing.T) {
	end := NewDate(2025, 3, 2)
	start := TrendStart(end, 7)
	if start.String() != "2025-02-24" {
		t.Fatalf("start = %s", start)
	}
	income := DayTotals{"2025-02-25": dec("100")}
	expense := DayTotals{"2025-03-01": dec("12.5"), "2025-02-01": dec("99")}

	points := FillTrend(start, end, income, expense)
	if len(points) != 7 {
		t.Fatalf("len = %d, want 7", len(points))
	}
	for i, p := range points {
		if !p.Date.Equal(start.AddDays(i)) {
			t.Fatalf("point %d date = %s", i, p.Date)
		}
	}
	if !points[1].Income.Equal(dec("100")) || !points[5].Expense.Equal(dec("12.5")) {
		t.Fatalf("unexpected totals: %+v", points)
	}
	if !points[0].Income.IsZero() || !points[0].Expense.IsZero() {
		t.Fatalf("missing days must be zero filled")
	}
}

func TestFillDailySingleDay(t *testing.T) {
	d := NewDate(2025, 1, 1)
	out := FillDaily(TrendStart(d, 1), d, DayTotals{})
	if len(out) != 1 || !out[0].Amount.IsZero() {
		t.Fatalf("got %+v", out)
	}
}
