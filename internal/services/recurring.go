package services

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// DefaultMaxPerRun caps the transactions one Process call materializes.
const DefaultMaxPerRun = 100

// RecurringScheduler materializes due recurring templates into transactions.
// It has no timer of its own; callers decide when Process runs.
type RecurringScheduler struct {
	repo      *storage.SQLiteRepository
	events    Publisher
	maxPerRun int
	logger    *slog.Logger
}

func NewRecurringScheduler(repo *storage.SQLiteRepository, events Publisher, maxPerRun int) *RecurringScheduler {
	if maxPerRun <= 0 {
		maxPerRun = DefaultMaxPerRun
	}
	return &RecurringScheduler{
		repo:      repo,
		events:    events,
		maxPerRun: maxPerRun,
		logger:    slog.Default().With(log.FieldComponent, log.ComponentRecurring),
	}
}

type TemplateInput struct {
	Amount      decimal.Decimal      `json:"amount"`
	Type        core.TransactionType `json:"type"`
	CategoryID  int64                `json:"category_id"`
	AccountID   *int64               `json:"account_id"`
	Interval    core.Interval        `json:"interval"`
	NextDate    *core.Date           `json:"next_date"`
	Description string               `json:"description"`
	IsActive    *bool                `json:"is_active"`
}

type TemplatePatch struct {
	Amount      *decimal.Decimal      `json:"amount"`
	Type        *core.TransactionType `json:"type"`
	CategoryID  *int64                `json:"category_id"`
	AccountID   core.OptionalID       `json:"account_id"`
	Interval    *core.Interval        `json:"interval"`
	NextDate    *core.Date            `json:"next_date"`
	Description *string               `json:"description"`
	IsActive    *bool                 `json:"is_active"`
}

// ProcessResult reports one Process run.
type ProcessResult struct {
	Processed           int       `json:"processed"`
	TransactionsCreated int       `json:"transactions_created"`
	LimitReached        bool      `json:"limit_reached"`
	AsOf                core.Date `json:"as_of"`
}

func prepareTemplate(ctx context.Context, q *storage.Queries, rt core.RecurringTemplate) (core.RecurringTemplate, error) {
	amount, err := core.NormalizeAmount(rt.Amount)
	if err != nil {
		return core.RecurringTemplate{}, err
	}
	rt.Amount = amount
	if err := rt.Validate(); err != nil {
		return core.RecurringTemplate{}, err
	}
	if err := checkCategory(ctx, q, rt.CategoryID, rt.Type); err != nil {
		return core.RecurringTemplate{}, err
	}
	if err := checkAccount(ctx, q, rt.AccountID); err != nil {
		return core.RecurringTemplate{}, err
	}
	return rt, nil
}

func (s *RecurringScheduler) CreateTemplate(ctx context.Context, in TemplateInput) (core.RecurringTemplate, error) {
	rt := core.RecurringTemplate{
		Amount:      in.Amount,
		Type:        in.Type,
		CategoryID:  in.CategoryID,
		AccountID:   in.AccountID,
		Interval:    in.Interval,
		NextDate:    core.Today(),
		Description: in.Description,
		IsActive:    true,
	}
	if in.NextDate != nil {
		rt.NextDate = *in.NextDate
	}
	if in.IsActive != nil {
		rt.IsActive = *in.IsActive
	}
	rt.AnchorDay = rt.NextDate.Day()

	var created core.RecurringTemplate
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		rt, err := prepareTemplate(ctx, q, rt)
		if err != nil {
			return err
		}
		created, err = q.CreateTemplate(ctx, rt)
		return err
	})
	if err != nil {
		return core.RecurringTemplate{}, err
	}

	s.logger.InfoContext(ctx, "Recurring template created",
		log.NewFields().
			WithOperation(log.OpCreate).
			WithEntity(created.ID, created.Amount.StringFixed(2)).
			WithAccount(created.AccountID).
			ToSlice()...)
	return created, nil
}

func (s *RecurringScheduler) GetTemplate(ctx context.Context, id int64) (core.RecurringTemplate, error) {
	rt, err := s.repo.Queries().GetTemplate(ctx, id)
	if err != nil {
		return core.RecurringTemplate{}, lookupErr(err, core.NotFoundf("recurring template %d not found", id))
	}
	return rt, nil
}

func (s *RecurringScheduler) ListTemplates(ctx context.Context) ([]core.RecurringTemplate, error) {
	return s.repo.Queries().ListTemplates(ctx)
}

// UpdateTemplate applies p. Toggling is_active leaves next_date alone; a new
// next_date also becomes the anchor day.
func (s *RecurringScheduler) UpdateTemplate(ctx context.Context, id int64, p TemplatePatch) (core.RecurringTemplate, error) {
	var updated core.RecurringTemplate
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		rt, err := q.GetTemplate(ctx, id)
		if err != nil {
			return lookupErr(err, core.NotFoundf("recurring template %d not found", id))
		}
		if p.Amount != nil {
			rt.Amount = *p.Amount
		}
		if p.Type != nil {
			rt.Type = *p.Type
		}
		if p.CategoryID != nil {
			rt.CategoryID = *p.CategoryID
		}
		if p.AccountID.Set {
			rt.AccountID = p.AccountID.Value
		}
		if p.Interval != nil {
			rt.Interval = *p.Interval
		}
		if p.NextDate != nil {
			rt.NextDate = *p.NextDate
			rt.AnchorDay = p.NextDate.Day()
		}
		if p.Description != nil {
			rt.Description = *p.Description
		}
		if p.IsActive != nil {
			rt.IsActive = *p.IsActive
		}
		if rt, err = prepareTemplate(ctx, q, rt); err != nil {
			return err
		}
		if err := q.UpdateTemplate(ctx, rt); err != nil {
			return err
		}
		updated = rt
		return nil
	})
	if err != nil {
		return core.RecurringTemplate{}, err
	}

	s.logger.InfoContext(ctx, "Recurring template updated",
		log.NewFields().
			WithOperation(log.OpUpdate).
			WithEntity(updated.ID, updated.Amount.StringFixed(2)).
			ToSlice()...)
	return updated, nil
}

func (s *RecurringScheduler) DeleteTemplate(ctx context.Context, id int64) error {
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetTemplate(ctx, id); err != nil {
			return lookupErr(err, core.NotFoundf("recurring template %d not found", id))
		}
		return q.DeleteTemplate(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Recurring template deleted", log.FieldOperation, log.OpDelete, log.FieldEntityID, id)
	return nil
}

// Process materializes every cycle due on or before asOf, one transaction per
// cycle, advancing each template past asOf. The run is one database
// transaction: it either applies completely or not at all. Cycles beyond the
// per-run cap stay due for the next call.
func (s *RecurringScheduler) Process(ctx context.Context, asOf core.Date) (ProcessResult, error) {
	res := ProcessResult{AsOf: asOf}
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		due, err := q.ListDueTemplates(ctx, asOf)
		if err != nil {
			return err
		}
		for _, rt := range due {
			if res.LimitReached {
				break
			}
			advancer, err := GetAdvancer(rt.Interval)
			if err != nil {
				return err
			}

			next, created := rt.NextDate, 0
			for !next.After(asOf) {
				if res.TransactionsCreated >= s.maxPerRun {
					res.LimitReached = true
					break
				}
				if _, err := createTransactionTx(ctx, q, core.Transaction{
					Amount:      rt.Amount,
					Type:        rt.Type,
					CategoryID:  rt.CategoryID,
					AccountID:   rt.AccountID,
					Date:        next,
					Description: rt.Description,
				}); err != nil {
					return err
				}
				created++
				res.TransactionsCreated++
				next = advancer.Advance(next, rt.AnchorDay)
			}

			if created == 0 {
				continue
			}
			if err := q.SetTemplateNextDate(ctx, rt.ID, next); err != nil {
				return err
			}
			res.Processed++
			s.logger.DebugContext(ctx, "Recurring template materialized",
				log.FieldEntityID, rt.ID,
				"cycles", created,
				"next_date", next.String())
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Recurring processing failed",
			log.FieldOperation, log.OpProcess,
			log.FieldDate, asOf.String(),
			log.FieldError, err)
		return ProcessResult{AsOf: asOf}, err
	}

	s.logger.InfoContext(ctx, "Recurring processing complete",
		log.FieldOperation, log.OpProcess,
		log.FieldDate, asOf.String(),
		"processed", res.Processed,
		"transactions_created", res.TransactionsCreated,
		"limit_reached", res.LimitReached)
	if res.TransactionsCreated > 0 {
		publish(ctx, s.events, amqp.NewLedgerEvent(amqp.EventRecurringProcessed, 0).
			WithDate(asOf).
			WithCount(res.TransactionsCreated))
	}
	return res, nil
}
