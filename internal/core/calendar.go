package core

import "time"

// AddMonths returns a date k calendar months after t, preserving the
// day-of-month except when the target month is shorter, in which case the
// result clamps to the last day of that month (Jan 31 + 1 month is
// Feb 28/29, never Mar 3). Both the installment scheduler and the
// billing-cycle calculator depend on this single primitive behaving
// identically.
func AddMonths(t time.Time, k int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month+time.Month(k), 1, 0, 0, 0, 0, t.Location())
	if last := lastDayOfMonth(target.Year(), target.Month(), t.Location()); day > last {
		day = last
	}
	h, m, s := t.Clock()
	return time.Date(target.Year(), target.Month(), day, h, m, s, t.Nanosecond(), t.Location())
}

// AddMonthsDate is AddMonths over the Date wrapper.
func AddMonthsDate(d Date, k int) Date {
	return Date{Time: AddMonths(d.Time, k)}
}

func lastDayOfMonth(year int, month time.Month, loc *time.Location) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
