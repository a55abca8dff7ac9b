package core

import (
	"fmt"
	"time"
)

// Period selects one of the canonical summary windows.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// Window is an inclusive range of calendar days.
type Window struct {
	Start Date
	End   Date
	Title string
}

// WindowFor computes the window for period ending on today.
// Weeks start on Monday; months on the 1st.
func WindowFor(period Period, today Date) (Window, error) {
	switch period {
	case PeriodDay:
		return Window{
			Start: today,
			End:   today,
			Title: "Today — " + today.Format("Jan 02"),
		}, nil
	case PeriodWeek:
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDays(-offset)
		return Window{
			Start: start,
			End:   today,
			Title: fmt.Sprintf("This Week (%s – %s)", start.Format("Jan 02"), today.Format("Jan 02")),
		}, nil
	case PeriodMonth:
		return Window{
			Start: NewDate(today.Year(), int(today.Month()), 1),
			End:   today,
			Title: today.Format("January 2006"),
		}, nil
	default:
		return Window{}, fmt.Errorf("%w: unknown period %q", ErrValidation, period)
	}
}

// Today returns the current calendar day in loc.
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}

// SumTotals adds up the totals of a summary.
func SumTotals(rows []CategoryTotal) int64 {
	var total int64
	for _, r := range rows {
		total += r.Total
	}
	return total
}
