package services

import (
	"context"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

type CategoryInput struct {
	Name string               `json:"name"`
	Type core.TransactionType `json:"type"`
	Icon string               `json:"icon"`
}

type CategoryPatch struct {
	Name *string               `json:"name"`
	Type *core.TransactionType `json:"type"`
	Icon *string               `json:"icon"`
}

func (s *LedgerService) CreateCategory(ctx context.Context, in CategoryInput) (core.Category, error) {
	c := core.Category{Name: strings.TrimSpace(in.Name), Type: in.Type, Icon: in.Icon}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	var created core.Category
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		taken, err := q.CategoryNameTaken(ctx, c.Name, 0)
		if err != nil {
			return err
		}
		if taken {
			return core.Conflictf("category %q already exists", c.Name)
		}
		created, err = q.CreateCategory(ctx, c)
		return err
	})
	if err != nil {
		return core.Category{}, err
	}

	s.logger.InfoContext(ctx, "Category created",
		log.FieldOperation, log.OpCreate,
		log.FieldEntityID, created.ID,
		"type", created.Type)
	return created, nil
}

func (s *LedgerService) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	c, err := s.repo.Queries().GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, lookupErr(err, core.NotFoundf("category %d not found", id))
	}
	return c, nil
}

// ListCategories lists all categories, or those of type t when it is set.
func (s *LedgerService) ListCategories(ctx context.Context, t core.TransactionType) ([]core.Category, error) {
	if t != "" {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	return s.repo.Queries().ListCategories(ctx, t)
}

// UpdateCategory edits a category. Its type is frozen once transactions or
// recurring templates use it, since they must agree with it.
func (s *LedgerService) UpdateCategory(ctx context.Context, id int64, p CategoryPatch) (core.Category, error) {
	var updated core.Category
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		c, err := q.GetCategory(ctx, id)
		if err != nil {
			return lookupErr(err, core.NotFoundf("category %d not found", id))
		}
		if p.Name != nil {
			c.Name = strings.TrimSpace(*p.Name)
		}
		if p.Icon != nil {
			c.Icon = *p.Icon
		}
		if p.Type != nil && *p.Type != c.Type {
			refs, err := q.CategoryReferences(ctx, id)
			if err != nil {
				return err
			}
			if refs.Transactions+refs.Templates+refs.Budgets > 0 {
				return core.Conflictf("category %d is in use; its type cannot change", id)
			}
			c.Type = *p.Type
		}
		if err := c.Validate(); err != nil {
			return err
		}
		taken, err := q.CategoryNameTaken(ctx, c.Name, c.ID)
		if err != nil {
			return err
		}
		if taken {
			return core.Conflictf("category %q already exists", c.Name)
		}
		if err := q.UpdateCategory(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return core.Category{}, err
	}

	s.logger.InfoContext(ctx, "Category updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldEntityID, id)
	return updated, nil
}

// DeleteCategory removes a category nothing references.
func (s *LedgerService) DeleteCategory(ctx context.Context, id int64) error {
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetCategory(ctx, id); err != nil {
			return lookupErr(err, core.NotFoundf("category %d not found", id))
		}
		refs, err := q.CategoryReferences(ctx, id)
		if err != nil {
			return err
		}
		if refs.Transactions+refs.Budgets+refs.Templates+refs.Rules > 0 {
			return core.Conflictf("category %d is referenced by %d transactions, %d budgets, %d recurring templates and %d allocation rules",
				id, refs.Transactions, refs.Budgets, refs.Templates, refs.Rules)
		}
		return q.DeleteCategory(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Category deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldEntityID, id)
	return nil
}
