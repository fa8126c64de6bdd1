package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

const goalColumns = `id, name, target_amount_cents, current_amount_cents, deadline, completed, created_at`

func scanGoal(row rowScanner) (core.Goal, error) {
	var (
		g               core.Goal
		target, current int64
		deadline        sql.NullString
		created         sql.NullTime
	)
	if err := row.Scan(&g.ID, &g.Name, &target, &current, &deadline, &g.Completed, &created); err != nil {
		return core.Goal{}, err
	}
	if deadline.Valid {
		d, err := dateOf(deadline.String)
		if err != nil {
			return core.Goal{}, err
		}
		g.Deadline = &d
	}
	g.TargetAmount = core.FromCents(target)
	g.CurrentAmount = core.FromCents(current)
	g.CreatedAt = created.Time
	return g.WithProgress(), nil
}

const createGoal = `-- name: CreateGoal :one
INSERT INTO goals (name, target_amount_cents, current_amount_cents, deadline, completed)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + goalColumns

func (q *Queries) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	row := q.db.QueryRowContext(ctx, createGoal, g.Name, core.ToCents(g.TargetAmount),
		core.ToCents(g.CurrentAmount), nullDate(g.Deadline), boolInt(g.Completed))
	created, err := scanGoal(row)
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	return created, nil
}

const getGoal = `-- name: GetGoal :one
SELECT ` + goalColumns + ` FROM goals WHERE id = ?`

func (q *Queries) GetGoal(ctx context.Context, id int64) (core.Goal, error) {
	g, err := scanGoal(q.db.QueryRowContext(ctx, getGoal, id))
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal %d: %w", id, err)
	}
	return g, nil
}

const listGoals = `-- name: ListGoals :many
SELECT ` + goalColumns + ` FROM goals ORDER BY created_at DESC, id DESC`

func (q *Queries) ListGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := q.db.QueryContext(ctx, listGoals)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()
	var items []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		items = append(items, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return items, nil
}

const updateGoal = `-- name: UpdateGoal :exec
UPDATE goals
SET name = ?, target_amount_cents = ?, current_amount_cents = ?, deadline = ?, completed = ?
WHERE id = ?`

func (q *Queries) UpdateGoal(ctx context.Context, g core.Goal) error {
	_, err := q.db.ExecContext(ctx, updateGoal, g.Name, core.ToCents(g.TargetAmount),
		core.ToCents(g.CurrentAmount), nullDate(g.Deadline), boolInt(g.Completed), g.ID)
	if err != nil {
		return fmt.Errorf("update goal %d: %w", g.ID, err)
	}
	return nil
}

const deleteGoal = `-- name: DeleteGoal :exec
DELETE FROM goals WHERE id = ?`

func (q *Queries) DeleteGoal(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, deleteGoal, id); err != nil {
		return fmt.Errorf("delete goal %d: %w", id, err)
	}
	return nil
}

// GoalStats aggregates goal state for the overview.
type GoalStats struct {
	CurrentCents int64
	Active       int64
}

const goalStats = `-- name: GoalStats :one
SELECT COALESCE(SUM(current_amount_cents), 0), COUNT(CASE WHEN completed = 0 THEN 1 END)
FROM goals`

func (q *Queries) GoalStats(ctx context.Context) (GoalStats, error) {
	var s GoalStats
	if err := q.db.QueryRowContext(ctx, goalStats).Scan(&s.CurrentCents, &s.Active); err != nil {
		return GoalStats{}, fmt.Errorf("goal stats: %w", err)
	}
	return s, nil
}

const goalReferences = `-- name: GoalReferences :one
SELECT COUNT(*) FROM allocation_rules WHERE target_type = 'goal' AND target_id = ?`

// GoalReferences counts allocation rules targeting a goal.
func (q *Queries) GoalReferences(ctx context.Context, id int64) (int64, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, goalReferences, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("count goal references: %w", err)
	}
	return n, nil
}

const contributionColumns = `id, goal_id, amount_cents, date, note, created_at`

func scanContribution(row rowScanner) (core.GoalContribution, error) {
	var (
		c       core.GoalContribution
		cents   int64
		date    string
		created sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.GoalID, &cents, &date, &c.Note, &created); err != nil {
		return core.GoalContribution{}, err
	}
	d, err := dateOf(date)
	if err != nil {
		return core.GoalContribution{}, err
	}
	c.Amount = core.FromCents(cents)
	c.Date = d
	c.CreatedAt = created.Time
	return c, nil
}

const createContribution = `-- name: CreateContribution :one
INSERT INTO goal_contributions (goal_id, amount_cents, date, note) VALUES (?, ?, ?, ?)
RETURNING ` + contributionColumns

func (q *Queries) CreateContribution(ctx context.Context, c core.GoalContribution) (core.GoalContribution, error) {
	row := q.db.QueryRowContext(ctx, createContribution, c.GoalID, core.ToCents(c.Amount), c.Date.String(), c.Note)
	created, err := scanContribution(row)
	if err != nil {
		return core.GoalContribution{}, fmt.Errorf("insert goal contribution: %w", err)
	}
	return created, nil
}

const listContributions = `-- name: ListContributions :many
SELECT ` + contributionColumns + ` FROM goal_contributions
WHERE goal_id = ?
ORDER BY date DESC, id DESC`

func (q *Queries) ListContributions(ctx context.Context, goalID int64) ([]core.GoalContribution, error) {
	rows, err := q.db.QueryContext(ctx, listContributions, goalID)
	if err != nil {
		return nil, fmt.Errorf("list goal contributions: %w", err)
	}
	defer rows.Close()
	var items []core.GoalContribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal contribution: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goal contributions: %w", err)
	}
	return items, nil
}
