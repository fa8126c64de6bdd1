package core

import "time"

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonthsClamped moves d by n calendar months, landing on anchorDay or on the
// last day of the target month when anchorDay does not exist there.
// A non-positive anchorDay uses d's own day.
func AddMonthsClamped(d Date, n, anchorDay int) Date {
	if anchorDay <= 0 {
		anchorDay = d.Day()
	}
	total := d.Year()*12 + (d.Month() - 1) + n
	year, month := total/12, time.Month(total%12+1)

	day := anchorDay
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return NewDate(year, int(month), day)
}

// AddYearsClamped moves d by n calendar years, same month, clamped like AddMonthsClamped.
func AddYearsClamped(d Date, n, anchorDay int) Date {
	return AddMonthsClamped(d, 12*n, anchorDay)
}

// MonthBounds returns the first and last day of a month.
func MonthBounds(year, month int) (Date, Date) {
	first := NewDate(year, month, 1)
	last := NewDate(year, month, DaysInMonth(year, time.Month(month)))
	return first, last
}

// FirstOfMonth returns the first day of d's month.
func FirstOfMonth(d Date) Date {
	return NewDate(d.Year(), d.Month(), 1)
}
