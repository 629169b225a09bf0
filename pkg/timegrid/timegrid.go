// Package timegrid provides the pure calendar-day arithmetic behind the
// scheduling board: day normalization, inclusive range membership, inclusive
// durations, and the padded month grid used by monthly and weekly views.
package timegrid

import "time"

// DaysPerWeek is the width of one calendar grid row.
const DaysPerWeek = 7

// Day strips the time-of-day component, normalizing to midnight UTC. All
// comparisons in this package operate on Day-normalized values.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// WithinRange reports whether d lies within [start, end], inclusive on both
// ends, comparing by calendar day.
func WithinRange(d, start, end time.Time) bool {
	day := Day(d)
	return !day.Before(Day(start)) && !day.After(Day(end))
}

// Duration returns the inclusive day count of [start, end]: both endpoints
// count, so a single-day range has duration 1. When end precedes start the
// result clamps to 1; validation rejects such ranges before they are stored,
// so the clamp only shields display code from transient inverted input.
func Duration(start, end time.Time) int {
	days := int(Day(end).Sub(Day(start)).Hours() / 24)
	if days < 0 {
		return 1
	}
	return days + 1
}

// startOfWeek returns the Sunday on or before d. The board renders weeks
// Sunday-first.
func startOfWeek(d time.Time) time.Time {
	day := Day(d)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// MonthDays returns every calendar cell needed to render the month grid of
// t's month: all days from the week start on/before the 1st through the week
// end on/after the month's last day. The result length is a multiple of 7.
func MonthDays(t time.Time) []time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	cur := startOfWeek(first)
	end := startOfWeek(last).AddDate(0, 0, DaysPerWeek-1)

	var days []time.Time
	for !cur.After(end) {
		days = append(days, cur)
		cur = cur.AddDate(0, 0, 1)
	}
	return days
}

// Week is one 7-day page of the month grid.
type Week struct {
	Start time.Time
	Days  []time.Time
}

// WeeksInMonth partitions the month grid of t into consecutive weeks, used to
// page one calendar week at a time in weekly view.
func WeeksInMonth(t time.Time) []Week {
	days := MonthDays(t)
	weeks := make([]Week, 0, len(days)/DaysPerWeek)
	for i := 0; i+DaysPerWeek <= len(days); i += DaysPerWeek {
		weeks = append(weeks, Week{
			Start: days[i],
			Days:  days[i : i+DaysPerWeek],
		})
	}
	return weeks
}
