package services

import (
	"context"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

const (
	DefaultTrendDays = 30
	MaxTrendDays     = 365
)

// AnalyticsService computes read-side projections over the ledger. Empty
// ranges yield zero-valued results, never errors.
type AnalyticsService struct {
	repo   *storage.SQLiteRepository
	logger *slog.Logger
}

func NewAnalyticsService(repo *storage.SQLiteRepository) *AnalyticsService {
	return &AnalyticsService{
		repo:   repo,
		logger: slog.Default().With(log.FieldComponent, log.ComponentAnalytics),
	}
}

// Range resolves optional bounds to [first of the current month, today].
func Range(start, end *core.Date) (core.Date, core.Date, error) {
	today := core.Today()
	s, e := core.FirstOfMonth(today), today
	if end != nil {
		e = *end
		if start == nil {
			s = core.FirstOfMonth(e)
		}
	}
	if start != nil {
		s = *start
	}
	if e.Before(s) {
		return s, e, core.Validationf("end date before start date")
	}
	return s, e, nil
}

// Overview summarizes [start, end] from one consistent snapshot.
func (s *AnalyticsService) Overview(ctx context.Context, start, end *core.Date) (core.Overview, error) {
	from, to, err := Range(start, end)
	if err != nil {
		return core.Overview{}, err
	}

	ov := core.Overview{StartDate: from, EndDate: to}
	err = s.repo.InTx(ctx, func(q *storage.Queries) error {
		totals, err := q.SummarizeTransactions(ctx, core.TransactionFilter{Start: &from, End: &to})
		if err != nil {
			return err
		}
		goals, err := q.GoalStats(ctx)
		if err != nil {
			return err
		}
		budgets, err := q.BudgetRows(ctx, to.Month(), to.Year())
		if err != nil {
			return err
		}

		ov.TotalIncome = core.FromCents(totals.IncomeCents)
		ov.TotalExpense = core.FromCents(totals.ExpenseCents)
		ov.Balance = ov.TotalIncome.Sub(ov.TotalExpense)
		ov.TotalInGoals = core.FromCents(goals.CurrentCents)
		ov.AvailableBalance = ov.Balance.Sub(ov.TotalInGoals)
		ov.TransactionCount = totals.Count
		ov.ActiveGoals = goals.Active
		for _, r := range budgets {
			if core.NewBudgetStatus(r.Budget, r.CategoryName, core.FromCents(r.SpentCents)).OverLimit {
				ov.BudgetsOverLimit++
			}
		}
		return nil
	})
	if err != nil {
		return core.Overview{}, err
	}
	return ov, nil
}

// ByCategory groups transactions of type t (expense when empty) by category,
// largest total first.
func (s *AnalyticsService) ByCategory(ctx context.Context, t core.TransactionType, start, end *core.Date) ([]core.CategorySpending, error) {
	if t == "" {
		t = core.Expense
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	from, to, err := Range(start, end)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.Queries().TotalsByCategory(ctx, t, from, to)
	if err != nil {
		return nil, err
	}
	rows := make([]core.CategorySpending, 0, len(totals))
	for _, ct := range totals {
		rows = append(rows, core.CategorySpending{
			CategoryID:   ct.CategoryID,
			CategoryName: ct.CategoryName,
			Total:        core.FromCents(ct.TotalCents),
		})
	}
	return core.WithPercents(rows), nil
}

// window resolves a trailing window of days ending at end (today when nil).
func window(days int, end *core.Date) (core.Date, core.Date, error) {
	if days == 0 {
		days = DefaultTrendDays
	}
	if days < 1 || days > MaxTrendDays {
		return core.Date{}, core.Date{}, core.Validationf("days must be between 1 and %d", MaxTrendDays)
	}
	to := core.Today()
	if end != nil {
		to = *end
	}
	return core.TrendStart(to, days), to, nil
}

// Trend returns daily income and expense for the trailing window, one point
// per day in ascending order, zero filled.
func (s *AnalyticsService) Trend(ctx context.Context, days int, end *core.Date) ([]core.TrendPoint, error) {
	from, to, err := window(days, end)
	if err != nil {
		return nil, err
	}
	var income, expense core.DayTotals
	err = s.repo.InTx(ctx, func(q *storage.Queries) error {
		var err error
		if income, err = q.DailyTotals(ctx, core.Income, from, to); err != nil {
			return err
		}
		expense, err = q.DailyTotals(ctx, core.Expense, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}
	return core.FillTrend(from, to, income, expense), nil
}

// DailySpending is the expense-only variant of Trend.
func (s *AnalyticsService) DailySpending(ctx context.Context, days int, end *core.Date) ([]core.DailySpending, error) {
	from, to, err := window(days, end)
	if err != nil {
		return nil, err
	}
	expense, err := s.repo.Queries().DailyTotals(ctx, core.Expense, from, to)
	if err != nil {
		return nil, err
	}
	return core.FillDaily(from, to, expense), nil
}

// LedgerVersion reports the ledger's change counter. Cached projections are
// valid only while it stays the same.
func (s *AnalyticsService) LedgerVersion(ctx context.Context) (int64, error) {
	return s.repo.Queries().LedgerVersion(ctx)
}
