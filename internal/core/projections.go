package core

import "github.com/shopspring/decimal"

// BudgetStatus is a budget together with its spending for the period.
type BudgetStatus struct {
	Budget
	CategoryName string          `json:"category_name"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
	PercentUsed  float64         `json:"percent_used"`
	OverLimit    bool            `json:"over_limit"`
}

// NewBudgetStatus derives the spending fields of b. A zero limit yields 0 percent.
func NewBudgetStatus(b Budget, categoryName string, spent decimal.Decimal) BudgetStatus {
	return BudgetStatus{
		Budget:       b,
		CategoryName: categoryName,
		Spent:        spent,
		Remaining:    b.Amount.Sub(spent),
		PercentUsed:  PercentOf(spent, b.Amount),
		OverLimit:    b.Amount.IsPositive() && spent.GreaterThanOrEqual(b.Amount),
	}
}

// GoalProgress returns current/target*100 capped at 100.
func GoalProgress(current, target decimal.Decimal) float64 {
	p := PercentOf(current, target)
	if p > 100 {
		return 100
	}
	return p
}

// WithProgress fills the derived progress field.
func (g Goal) WithProgress() Goal {
	g.ProgressPercent = GoalProgress(g.CurrentAmount, g.TargetAmount)
	return g
}

// Contribute adds amount to the goal. Completion is decided on the unclamped
// amounts and a completed goal stays completed.
func (g Goal) Contribute(amount decimal.Decimal) (Goal, error) {
	amount, err := NormalizeAmount(amount)
	if err != nil {
		return g, err
	}
	if g.CurrentAmount.Add(amount).GreaterThan(maxAmount) {
		return g, Validationf("contribution would push current_amount past 9999999999.99")
	}
	g.CurrentAmount = g.CurrentAmount.Add(amount)
	g.Completed = g.Completed || g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
	return g.WithProgress(), nil
}

// Allocation is one rule's share of an amount.
type Allocation struct {
	RuleID     int64           `json:"rule_id"`
	RuleName   string          `json:"rule_name"`
	Percentage int             `json:"percentage"`
	TargetType TargetType      `json:"target_type"`
	TargetID   int64           `json:"target_id"`
	TargetName string          `json:"target_name"`
	Amount     decimal.Decimal `json:"amount"`
}

// AllocationPlan is the result of splitting an amount across rules.
type AllocationPlan struct {
	Amount          decimal.Decimal `json:"amount"`
	Items           []Allocation    `json:"allocations"`
	TotalPercentage int             `json:"total_percentage"`
	OverAllocated   bool            `json:"over_allocated"`
	Unallocated     decimal.Decimal `json:"unallocated"` // negative when over allocated
}

// SplitAllocation computes amount*percentage/100 per rule, keeping rule order.
// Rules summing to more than 100 percent are flagged, not rejected.
func SplitAllocation(amount decimal.Decimal, rules []AllocationRule) AllocationPlan {
	plan := AllocationPlan{Amount: amount, Items: make([]Allocation, 0, len(rules))}
	allocated := decimal.Zero
	for _, r := range rules {
		share := amount.Mul(decimal.NewFromInt(int64(r.Percentage))).Div(hundred).Round(2)
		allocated = allocated.Add(share)
		plan.TotalPercentage += r.Percentage
		plan.Items = append(plan.Items, Allocation{
			RuleID:     r.ID,
			RuleName:   r.Name,
			Percentage: r.Percentage,
			TargetType: r.TargetType,
			TargetID:   r.TargetID,
			TargetName: r.TargetName,
			Amount:     share,
		})
	}
	plan.OverAllocated = plan.TotalPercentage > 100
	plan.Unallocated = amount.Sub(allocated)
	return plan
}

// Overview summarizes a date range.
type Overview struct {
	StartDate        Date            `json:"start_date"`
	EndDate          Date            `json:"end_date"`
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpense     decimal.Decimal `json:"total_expense"`
	Balance          decimal.Decimal `json:"balance"`
	TotalInGoals     decimal.Decimal `json:"total_in_goals"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	TransactionCount int64           `json:"transaction_count"`
	ActiveGoals      int64           `json:"active_goals"`
	BudgetsOverLimit int             `json:"budgets_over_limit"`
}

// CategorySpending is one category's share of a range total.
type CategorySpending struct {
	CategoryID   int64           `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Total        decimal.Decimal `json:"total"`
	Percent      float64         `json:"percent"`
}

// WithPercents fills Percent for each row against the sum of all rows.
func WithPercents(rows []CategorySpending) []CategorySpending {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Total)
	}
	for i := range rows {
		rows[i].Percent = PercentOf(rows[i].Total, total)
	}
	return rows
}

type TrendPoint struct {
	Date    Date            `json:"date"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

type DailySpending struct {
	Date   Date            `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// DayTotals holds per-day sums keyed by YYYY-MM-DD.
type DayTotals map[string]decimal.Decimal

// TrendStart returns the first day of a window of days ending at end, inclusive.
func TrendStart(end Date, days int) Date {
	return end.AddDays(-(days - 1))
}

// FillTrend produces one point per day from start to end inclusive, zero filled.
func FillTrend(start, end Date, income, expense DayTotals) []TrendPoint {
	var out []TrendPoint
	for d := start; !d.After(end); d = d.AddDays(1) {
		out = append(out, TrendPoint{
			Date:    d,
			Income:  lookup(income, d),
			Expense: lookup(expense, d),
		})
	}
	return out
}

// FillDaily is the expense-only variant of FillTrend.
func FillDaily(start, end Date, expense DayTotals) []DailySpending {
	var out []DailySpending
	for d := start; !d.After(end); d = d.AddDays(1) {
		out = append(out, DailySpending{Date: d, Amount: lookup(expense, d)})
	}
	return out
}

func lookup(m DayTotals, d Date) decimal.Decimal {
	if v, ok := m[d.String()]; ok {
		return v
	}
	return decimal.Zero
}
