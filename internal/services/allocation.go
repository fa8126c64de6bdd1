package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// AllocationService manages allocation rules and projects how an amount
// would split across them. Calculation never mutates goals or categories.
type AllocationService struct {
	repo   *storage.SQLiteRepository
	logger *slog.Logger
}

func NewAllocationService(repo *storage.SQLiteRepository) *AllocationService {
	return &AllocationService{
		repo:   repo,
		logger: slog.Default().With(log.FieldComponent, log.ComponentAllocation),
	}
}

type RuleInput struct {
	Name       string          `json:"name"`
	Percentage int             `json:"percentage"`
	TargetType core.TargetType `json:"target_type"`
	TargetID   int64           `json:"target_id"`
	IsActive   *bool           `json:"is_active"`
	SortOrder  int             `json:"sort_order"`
}

type RulePatch struct {
	Name       *string          `json:"name"`
	Percentage *int             `json:"percentage"`
	TargetType *core.TargetType `json:"target_type"`
	TargetID   *int64           `json:"target_id"`
	IsActive   *bool            `json:"is_active"`
	SortOrder  *int             `json:"sort_order"`
}

func checkTarget(ctx context.Context, q *storage.Queries, r core.AllocationRule) error {
	var err error
	switch r.TargetType {
	case core.TargetGoal:
		_, err = q.GetGoal(ctx, r.TargetID)
	case core.TargetCategory:
		_, err = q.GetCategory(ctx, r.TargetID)
	default:
		return core.ErrInvalidTargetType
	}
	return lookupErr(err, core.Validationf("%s %d not found", r.TargetType, r.TargetID))
}

func prepareRule(ctx context.Context, q *storage.Queries, r core.AllocationRule) (core.AllocationRule, error) {
	r.Name = strings.TrimSpace(r.Name)
	if err := r.Validate(); err != nil {
		return core.AllocationRule{}, err
	}
	if err := checkTarget(ctx, q, r); err != nil {
		return core.AllocationRule{}, err
	}
	return r, nil
}

func (s *AllocationService) CreateRule(ctx context.Context, in RuleInput) (core.AllocationRule, error) {
	r := core.AllocationRule{
		Name:       in.Name,
		Percentage: in.Percentage,
		TargetType: in.TargetType,
		TargetID:   in.TargetID,
		IsActive:   true,
		SortOrder:  in.SortOrder,
	}
	if in.IsActive != nil {
		r.IsActive = *in.IsActive
	}

	var created core.AllocationRule
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		r, err := prepareRule(ctx, q, r)
		if err != nil {
			return err
		}
		created, err = q.CreateRule(ctx, r)
		return err
	})
	if err != nil {
		return core.AllocationRule{}, err
	}

	s.logger.InfoContext(ctx, "Allocation rule created",
		log.FieldOperation, log.OpCreate,
		log.FieldEntityID, created.ID,
		"percentage", created.Percentage,
		"target_type", created.TargetType)
	return created, nil
}

func (s *AllocationService) GetRule(ctx context.Context, id int64) (core.AllocationRule, error) {
	r, err := s.repo.Queries().GetRule(ctx, id)
	if err != nil {
		return core.AllocationRule{}, lookupErr(err, core.NotFoundf("allocation rule %d not found", id))
	}
	return r, nil
}

// ListRules returns every rule, active or not, in calculation order.
func (s *AllocationService) ListRules(ctx context.Context) ([]core.AllocationRule, error) {
	return s.repo.Queries().ListRules(ctx, false)
}

func (s *AllocationService) UpdateRule(ctx context.Context, id int64, p RulePatch) (core.AllocationRule, error) {
	var updated core.AllocationRule
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		r, err := q.GetRule(ctx, id)
		if err != nil {
			return lookupErr(err, core.NotFoundf("allocation rule %d not found", id))
		}
		if p.Name != nil {
			r.Name = *p.Name
		}
		if p.Percentage != nil {
			r.Percentage = *p.Percentage
		}
		if p.TargetType != nil {
			r.TargetType = *p.TargetType
		}
		if p.TargetID != nil {
			r.TargetID = *p.TargetID
		}
		if p.IsActive != nil {
			r.IsActive = *p.IsActive
		}
		if p.SortOrder != nil {
			r.SortOrder = *p.SortOrder
		}
		if r, err = prepareRule(ctx, q, r); err != nil {
			return err
		}
		if err := q.UpdateRule(ctx, r); err != nil {
			return err
		}
		updated, err = q.GetRule(ctx, id)
		return err
	})
	if err != nil {
		return core.AllocationRule{}, err
	}
	s.logger.InfoContext(ctx, "Allocation rule updated", log.FieldOperation, log.OpUpdate, log.FieldEntityID, id)
	return updated, nil
}

func (s *AllocationService) DeleteRule(ctx context.Context, id int64) error {
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetRule(ctx, id); err != nil {
			return lookupErr(err, core.NotFoundf("allocation rule %d not found", id))
		}
		return q.DeleteRule(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Allocation rule deleted", log.FieldOperation, log.OpDelete, log.FieldEntityID, id)
	return nil
}

// Calculate splits amount across the active rules. Rules adding up to more
// than 100 percent are reported on the plan, not rejected.
func (s *AllocationService) Calculate(ctx context.Context, amount decimal.Decimal) (core.AllocationPlan, error) {
	amount, err := core.NormalizeAmount(amount)
	if err != nil {
		return core.AllocationPlan{}, err
	}
	rules, err := s.repo.Queries().ListRules(ctx, true)
	if err != nil {
		return core.AllocationPlan{}, err
	}
	plan := core.SplitAllocation(amount, rules)
	if plan.OverAllocated {
		s.logger.WarnContext(ctx, "Allocation rules exceed 100 percent",
			log.FieldAmount, amount.StringFixed(2),
			"total_percentage", plan.TotalPercentage,
			"rules", len(rules))
	}
	return plan, nil
}
