package services

import (
	"testing"

	"fintrack/internal/core"
)

func TestDailyAdvancer_Advance(t *testing.T) {
	got := DailyAdvancer{}.Advance(core.NewDate(2024, 12, 31), 31)
	if !got.Equal(core.NewDate(2025, 1, 1)) {
		t.Errorf("DailyAdvancer.Advance() = %s, want 2025-01-01", got)
	}
}

func TestWeeklyAdvancer_Advance(t *testing.T) {
	tests := []struct {
		name string
		from core.Date
		want core.Date
	}{
		{"same month", core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 8)},
		{"across leap day", core.NewDate(2024, 2, 26), core.NewDate(2024, 3, 4)},
		{"across year", core.NewDate(2024, 12, 28), core.NewDate(2025, 1, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeeklyAdvancer{}.Advance(tt.from, tt.from.Day())
			if !got.Equal(tt.want) {
				t.Errorf("WeeklyAdvancer.Advance() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMonthlyAdvancer_Advance(t *testing.T) {
	tests := []struct {
		name   string
		from   core.Date
		anchor int
		want   core.Date
	}{
		{"regular day", core.NewDate(2024, 1, 15), 15, core.NewDate(2024, 2, 15)},
		{"clamps to leap february", core.NewDate(2024, 1, 31), 31, core.NewDate(2024, 2, 29)},
		{"clamps to common february", core.NewDate(2023, 1, 31), 31, core.NewDate(2023, 2, 28)},
		{"returns to anchor after clamp", core.NewDate(2024, 2, 29), 31, core.NewDate(2024, 3, 31)},
		{"clamps to thirty day month", core.NewDate(2024, 3, 31), 31, core.NewDate(2024, 4, 30)},
		{"december to january", core.NewDate(2024, 12, 31), 31, core.NewDate(2025, 1, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyAdvancer{}.Advance(tt.from, tt.anchor)
			if !got.Equal(tt.want) {
				t.Errorf("MonthlyAdvancer.Advance() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestYearlyAdvancer_Advance(t *testing.T) {
	tests := []struct {
		name   string
		from   core.Date
		anchor int
		want   core.Date
	}{
		{"regular date", core.NewDate(2024, 6, 10), 10, core.NewDate(2025, 6, 10)},
		{"leap day clamps", core.NewDate(2024, 2, 29), 29, core.NewDate(2025, 2, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := YearlyAdvancer{}.Advance(tt.from, tt.anchor)
			if !got.Equal(tt.want) {
				t.Errorf("YearlyAdvancer.Advance() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGetAdvancer(t *testing.T) {
	tests := []struct {
		interval core.Interval
		wantErr  bool
	}{
		{core.Daily, false},
		{core.Weekly, false},
		{core.Monthly, false},
		{core.Yearly, false},
		{core.Interval("hourly"), true},
	}

	for _, tt := range tests {
		t.Run(string(tt.interval), func(t *testing.T) {
			a, err := GetAdvancer(tt.interval)
			if tt.wantErr {
				if err == nil {
					t.Error("GetAdvancer() expected error for unknown interval")
				}
				return
			}
			if err != nil || a == nil {
				t.Errorf("GetAdvancer() = %v, %v", a, err)
			}
		})
	}
}

type fortnightlyAdvancer struct{}

func (fortnightlyAdvancer) Advance(current core.Date, _ int) core.Date {
	return current.AddDays(14)
}

func TestRegisterAdvancer(t *testing.T) {
	fortnightly := core.Interval("fortnightly")
	RegisterAdvancer(fortnightly, fortnightlyAdvancer{})
	defer delete(advanceStrategies, fortnightly)

	a, err := GetAdvancer(fortnightly)
	if err != nil {
		t.Fatalf("GetAdvancer() error = %v", err)
	}
	if got := a.Advance(core.NewDate(2024, 1, 1), 1); !got.Equal(core.NewDate(2024, 1, 15)) {
		t.Errorf("custom advancer = %s, want 2024-01-15", got)
	}
}
