package core

import "time"

// CycleWindow is the inclusive date window between two consecutive
// statement closings: Start at 00:00:00, End at 23:59:59.
type CycleWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls inside the window, inclusive.
func (w CycleWindow) Contains(d Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// BillingCycle returns the currently open billing cycle for a card with
// the given closing day, as seen from ref. The closing day is clamped to
// [1, 28] so the window never trips over month-length edge cases.
//
// When ref falls after the closing day the cycle opened the day after the
// closing in ref's month and closes on the closing day of the next month;
// otherwise it opened the day after the previous month's closing and
// closes on this month's closing day.
func BillingCycle(closingDay int, ref time.Time) CycleWindow {
	if closingDay < 1 {
		closingDay = 1
	}
	if closingDay > 28 {
		closingDay = 28
	}

	year, month, day := ref.Date()
	closeThisMonth := time.Date(year, month, closingDay, 0, 0, 0, 0, time.UTC)

	var start, end time.Time
	if day > closingDay {
		start = closeThisMonth.AddDate(0, 0, 1)
		end = AddMonths(closeThisMonth, 1)
	} else {
		start = AddMonths(closeThisMonth, -1).AddDate(0, 0, 1)
		end = closeThisMonth
	}
	return CycleWindow{
		Start: start,
		End:   end.Add(24*time.Hour - time.Second),
	}
}
