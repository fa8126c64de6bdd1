package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// GoalService tracks savings goals and their contribution history.
type GoalService struct {
	repo         *storage.SQLiteRepository
	events       Publisher
	requireFunds bool
	logger       *slog.Logger
}

// NewGoalService creates the service. With requireFunds, contributions may not
// exceed the available balance.
func NewGoalService(repo *storage.SQLiteRepository, events Publisher, requireFunds bool) *GoalService {
	return &GoalService{
		repo:         repo,
		events:       events,
		requireFunds: requireFunds,
		logger:       slog.Default().With(log.FieldComponent, log.ComponentGoal),
	}
}

type GoalInput struct {
	Name          string           `json:"name"`
	TargetAmount  decimal.Decimal  `json:"target_amount"`
	CurrentAmount *decimal.Decimal `json:"current_amount"`
	Deadline      *core.Date       `json:"deadline"`
}

type GoalPatch struct {
	Name         *string           `json:"name"`
	TargetAmount *decimal.Decimal  `json:"target_amount"`
	Deadline     core.OptionalDate `json:"deadline"`
}

type ContributionInput struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
	Date   *core.Date      `json:"date"`
}

func (s *GoalService) CreateGoal(ctx context.Context, in GoalInput) (core.Goal, error) {
	g := core.Goal{
		Name:         strings.TrimSpace(in.Name),
		TargetAmount: in.TargetAmount.Round(2),
		Deadline:     in.Deadline,
	}
	if in.CurrentAmount != nil {
		g.CurrentAmount = in.CurrentAmount.Round(2)
	}
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	g.Completed = g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)

	created, err := s.repo.Queries().CreateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, err
	}
	s.logger.InfoContext(ctx, "Goal created",
		log.NewFields().
			WithOperation(log.OpCreate).
			WithEntity(created.ID, created.TargetAmount.StringFixed(2)).
			ToSlice()...)
	return created, nil
}

func (s *GoalService) GetGoal(ctx context.Context, id int64) (core.Goal, error) {
	g, err := s.repo.Queries().GetGoal(ctx, id)
	if err != nil {
		return core.Goal{}, lookupErr(err, core.NotFoundf("goal %d not found", id))
	}
	return g, nil
}

// ListGoals returns goals newest first.
func (s *GoalService) ListGoals(ctx context.Context) ([]core.Goal, error) {
	return s.repo.Queries().ListGoals(ctx)
}

// UpdateGoal applies p. A new target re-derives completion from the current amount.
func (s *GoalService) UpdateGoal(ctx context.Context, id int64, p GoalPatch) (core.Goal, error) {
	var updated core.Goal
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		g, err := q.GetGoal(ctx, id)
		if err != nil {
			return lookupErr(err, core.NotFoundf("goal %d not found", id))
		}
		if p.Name != nil {
			g.Name = strings.TrimSpace(*p.Name)
		}
		if p.TargetAmount != nil {
			g.TargetAmount = p.TargetAmount.Round(2)
		}
		if p.Deadline.Set {
			g.Deadline = p.Deadline.Value
		}
		if err := g.Validate(); err != nil {
			return err
		}
		if p.TargetAmount != nil {
			g.Completed = g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
		}
		if err := q.UpdateGoal(ctx, g); err != nil {
			return err
		}
		updated = g.WithProgress()
		return nil
	})
	if err != nil {
		return core.Goal{}, err
	}

	s.logger.InfoContext(ctx, "Goal updated",
		log.NewFields().
			WithOperation(log.OpUpdate).
			WithEntity(updated.ID, updated.TargetAmount.StringFixed(2)).
			ToSlice()...)
	return updated, nil
}

// DeleteGoal removes a goal and its history. Goals targeted by allocation
// rules cannot be deleted.
func (s *GoalService) DeleteGoal(ctx context.Context, id int64) error {
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetGoal(ctx, id); err != nil {
			return lookupErr(err, core.NotFoundf("goal %d not found", id))
		}
		rules, err := q.GoalReferences(ctx, id)
		if err != nil {
			return err
		}
		if rules > 0 {
			return core.Conflictf("goal %d is targeted by %d allocation rule(s)", id, rules)
		}
		return q.DeleteGoal(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Goal deleted", log.FieldOperation, log.OpDelete, log.FieldEntityID, id)
	return nil
}

// Contribute adds money to a goal and records it in the history. Completed
// goals still accept contributions.
func (s *GoalService) Contribute(ctx context.Context, id int64, in ContributionInput) (core.Goal, error) {
	amount, err := core.NormalizeAmount(in.Amount)
	if err != nil {
		return core.Goal{}, err
	}
	if core.TooLong(in.Note, core.MaxTextLength) {
		return core.Goal{}, core.Validationf("note too long (max 200 characters)")
	}
	date := core.Today()
	if in.Date != nil {
		date = *in.Date
	}

	var updated core.Goal
	err = s.repo.InTx(ctx, func(q *storage.Queries) error {
		g, err := q.GetGoal(ctx, id)
		if err != nil {
			return lookupErr(err, core.NotFoundf("goal %d not found", id))
		}
		if s.requireFunds {
			available, err := availableBalance(ctx, q)
			if err != nil {
				return err
			}
			if amount.GreaterThan(available) {
				return core.Validationf("insufficient available balance: %s available", available.StringFixed(2))
			}
		}
		if g, err = g.Contribute(amount); err != nil {
			return err
		}
		if err := q.UpdateGoal(ctx, g); err != nil {
			return err
		}
		if _, err := q.CreateContribution(ctx, core.GoalContribution{
			GoalID: id,
			Amount: amount,
			Date:   date,
			Note:   in.Note,
		}); err != nil {
			return err
		}
		updated = g
		return nil
	})
	if err != nil {
		return core.Goal{}, err
	}

	s.logger.InfoContext(ctx, "Goal contribution recorded",
		log.FieldOperation, log.OpContrib,
		log.FieldEntityID, id,
		log.FieldAmount, amount.StringFixed(2),
		"completed", updated.Completed)
	publish(ctx, s.events, amqp.NewLedgerEvent(amqp.EventGoalContributed, id).
		WithAmount(amount).
		WithDate(date))
	return updated, nil
}

// History lists a goal's contributions, newest first.
func (s *GoalService) History(ctx context.Context, id int64) ([]core.GoalContribution, error) {
	q := s.repo.Queries()
	if _, err := q.GetGoal(ctx, id); err != nil {
		return nil, lookupErr(err, core.NotFoundf("goal %d not found", id))
	}
	return q.ListContributions(ctx, id)
}

// availableBalance is all-time income minus expense minus money held in goals.
func availableBalance(ctx context.Context, q *storage.Queries) (decimal.Decimal, error) {
	totals, err := q.AllTimeTotals(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	stats, err := q.GoalStats(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return core.FromCents(totals.IncomeCents - totals.ExpenseCents - stats.CurrentCents), nil
}
