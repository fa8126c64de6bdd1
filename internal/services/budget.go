package services

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// BudgetService manages monthly spending limits and derives their status
// from the ledger on every read.
type BudgetService struct {
	repo   *storage.SQLiteRepository
	logger *slog.Logger
}

func NewBudgetService(repo *storage.SQLiteRepository) *BudgetService {
	return &BudgetService{
		repo:   repo,
		logger: slog.Default().With(log.FieldComponent, log.ComponentBudget),
	}
}

type BudgetInput struct {
	CategoryID int64           `json:"category_id"`
	Month      int             `json:"month"`
	Year       int             `json:"year"`
	Amount     decimal.Decimal `json:"amount"`
}

type BudgetPatch struct {
	CategoryID *int64           `json:"category_id"`
	Month      *int             `json:"month"`
	Year       *int             `json:"year"`
	Amount     *decimal.Decimal `json:"amount"`
}

// prepare normalizes b and checks its category and period against q.
func prepareBudget(ctx context.Context, q *storage.Queries, b core.Budget) (core.Budget, error) {
	b.Amount = b.Amount.Round(2)
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := checkCategory(ctx, q, b.CategoryID, core.Expense); err != nil {
		return core.Budget{}, err
	}
	taken, err := q.BudgetPeriodTaken(ctx, b)
	if err != nil {
		return core.Budget{}, err
	}
	if taken {
		return core.Budget{}, core.Conflictf("budget for category %d in %02d/%d already exists", b.CategoryID, b.Month, b.Year)
	}
	return b, nil
}

func (s *BudgetService) CreateBudget(ctx context.Context, in BudgetInput) (core.BudgetStatus, error) {
	var status core.BudgetStatus
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		b, err := prepareBudget(ctx, q, core.Budget{
			CategoryID: in.CategoryID,
			Month:      in.Month,
			Year:       in.Year,
			Amount:     in.Amount,
		})
		if err != nil {
			return err
		}
		created, err := q.CreateBudget(ctx, b)
		if err != nil {
			return err
		}
		status, err = budgetStatus(ctx, q, created)
		return err
	})
	if err != nil {
		return core.BudgetStatus{}, err
	}

	s.logger.InfoContext(ctx, "Budget created",
		log.NewFields().
			WithOperation(log.OpCreate).
			WithEntity(status.ID, status.Amount.StringFixed(2)).
			ToSlice()...)
	return status, nil
}

// GetBudget returns one budget with its current spending.
func (s *BudgetService) GetBudget(ctx context.Context, id int64) (core.BudgetStatus, error) {
	q := s.repo.Queries()
	b, err := q.GetBudget(ctx, id)
	if err != nil {
		return core.BudgetStatus{}, lookupErr(err, core.NotFoundf("budget %d not found", id))
	}
	return budgetStatus(ctx, q, b)
}

// Status lists every budget of a month with spent, remaining and percent used.
// A period without budgets yields an empty list.
func (s *BudgetService) Status(ctx context.Context, month, year int) ([]core.BudgetStatus, error) {
	if month < 1 || month > 12 {
		return nil, core.ErrInvalidMonth
	}
	if year < 1900 || year > 9999 {
		return nil, core.Validationf("invalid year %d", year)
	}
	rows, err := s.repo.Queries().BudgetRows(ctx, month, year)
	if err != nil {
		return nil, err
	}
	items := make([]core.BudgetStatus, 0, len(rows))
	for _, r := range rows {
		items = append(items, core.NewBudgetStatus(r.Budget, r.CategoryName, core.FromCents(r.SpentCents)))
	}
	return items, nil
}

func (s *BudgetService) UpdateBudget(ctx context.Context, id int64, p BudgetPatch) (core.BudgetStatus, error) {
	var status core.BudgetStatus
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		b, err := q.GetBudget(ctx, id)
		if err != nil {
			return lookupErr(err, core.NotFoundf("budget %d not found", id))
		}
		if p.CategoryID != nil {
			b.CategoryID = *p.CategoryID
		}
		if p.Month != nil {
			b.Month = *p.Month
		}
		if p.Year != nil {
			b.Year = *p.Year
		}
		if p.Amount != nil {
			b.Amount = *p.Amount
		}
		if b, err = prepareBudget(ctx, q, b); err != nil {
			return err
		}
		if err := q.UpdateBudget(ctx, b); err != nil {
			return err
		}
		status, err = budgetStatus(ctx, q, b)
		return err
	})
	if err != nil {
		return core.BudgetStatus{}, err
	}

	s.logger.InfoContext(ctx, "Budget updated",
		log.NewFields().
			WithOperation(log.OpUpdate).
			WithEntity(status.ID, status.Amount.StringFixed(2)).
			ToSlice()...)
	return status, nil
}

func (s *BudgetService) DeleteBudget(ctx context.Context, id int64) error {
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetBudget(ctx, id); err != nil {
			return lookupErr(err, core.NotFoundf("budget %d not found", id))
		}
		return q.DeleteBudget(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Budget deleted", log.FieldOperation, log.OpDelete, log.FieldEntityID, id)
	return nil
}

func budgetStatus(ctx context.Context, q *storage.Queries, b core.Budget) (core.BudgetStatus, error) {
	c, err := q.GetCategory(ctx, b.CategoryID)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	spent, err := q.CategorySpent(ctx, b.CategoryID, b.Month, b.Year)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return core.NewBudgetStatus(b, c.Name, core.FromCents(spent)), nil
}
