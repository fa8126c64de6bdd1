// Package services provides the ledger business logic.
//
// This file holds the strategies that move a recurring template to its next
// cycle. Each interval (daily, weekly, monthly, yearly) has its own Advancer.
package services

import (
	"fmt"

	"fintrack/internal/core"
)

// Advancer computes the date of the cycle following current.
// anchorDay is the day of month the template was created for.
type Advancer interface {
	Advance(current core.Date, anchorDay int) core.Date
}

// DailyAdvancer moves one calendar day.
type DailyAdvancer struct{}

func (DailyAdvancer) Advance(current core.Date, _ int) core.Date {
	return current.AddDays(1)
}

// WeeklyAdvancer moves seven days.
type WeeklyAdvancer struct{}

func (WeeklyAdvancer) Advance(current core.Date, _ int) core.Date {
	return current.AddDays(7)
}

// MonthlyAdvancer moves one calendar month, returning to anchorDay once the
// month is long enough (Jan 31 -> Feb 29 -> Mar 31).
type MonthlyAdvancer struct{}

func (MonthlyAdvancer) Advance(current core.Date, anchorDay int) core.Date {
	return core.AddMonthsClamped(current, 1, anchorDay)
}

// YearlyAdvancer moves one calendar year; Feb 29 clamps to Feb 28 in common years.
type YearlyAdvancer struct{}

func (YearlyAdvancer) Advance(current core.Date, anchorDay int) core.Date {
	return core.AddYearsClamped(current, 1, anchorDay)
}

var advanceStrategies = map[core.Interval]Advancer{
	core.Daily:   DailyAdvancer{},
	core.Weekly:  WeeklyAdvancer{},
	core.Monthly: MonthlyAdvancer{},
	core.Yearly:  YearlyAdvancer{},
}

// GetAdvancer returns the advancer for an interval.
func GetAdvancer(interval core.Interval) (Advancer, error) {
	a, ok := advanceStrategies[interval]
	if !ok {
		return nil, fmt.Errorf("unknown interval: %s", interval)
	}
	return a, nil
}

// RegisterAdvancer registers an advancer for a new interval. Not safe for
// concurrent use with GetAdvancer; call it during init.
func RegisterAdvancer(interval core.Interval, a Advancer) {
	advanceStrategies[interval] = a
}
