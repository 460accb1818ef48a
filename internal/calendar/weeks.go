package calendar

import "time"

// Week is one grid row, always seven consecutive days.
type Week [7]time.Time

// Matrix is the full set of weeks overlapping a month.
type Matrix []Week

// BuildWeeks returns the weeks needed to render ref's month: from the first
// weekStart on or before the 1st through the last day before the next
// weekStart on or after the month's last day. Days are local midnights in
// ref's location.
func BuildWeeks(ref time.Time, weekStart time.Weekday) Matrix {
	weekStart = normalizeWeekday(weekStart)
	monthStart := StartOfMonth(ref)
	monthEnd := EndOfMonth(ref)

	lead := (int(monthStart.Weekday()) - int(weekStart) + 7) % 7
	weekEnd := (weekStart + 6) % 7
	trail := (int(weekEnd) - int(monthEnd.Weekday()) + 7) % 7

	gridStart := AddDays(monthStart, -lead)
	total := lead + monthEnd.Day() + trail

	weeks := make(Matrix, 0, total/7)
	for i := 0; i < total; i += 7 {
		var w Week
		for j := range w {
			w[j] = AddDays(gridStart, i+j)
		}
		weeks = append(weeks, w)
	}
	return weeks
}

// Days flattens the matrix in calendar order.
func (m Matrix) Days() []time.Time {
	out := make([]time.Time, 0, len(m)*7)
	for _, w := range m {
		out = append(out, w[:]...)
	}
	return out
}

// MonthDays lists every day of ref's month, 1st to last.
func MonthDays(ref time.Time) []time.Time {
	start := StartOfMonth(ref)
	n := DaysInMonth(start.Year(), start.Month())
	out := make([]time.Time, n)
	for i := range out {
		out[i] = AddDays(start, i)
	}
	return out
}

// WeekdayHeaders returns short weekday names starting at weekStart.
func WeekdayHeaders(weekStart time.Weekday) [7]string {
	weekStart = normalizeWeekday(weekStart)
	var out [7]string
	for i := range out {
		out[i] = time.Weekday((int(weekStart) + i) % 7).String()[:3]
	}
	return out
}

// AddDays moves by calendar days (not 24h steps) so DST transitions do not
// shift the wall clock away from midnight.
func AddDays(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+n, 0, 0, 0, 0, t.Location())
}

func normalizeWeekday(d time.Weekday) time.Weekday {
	return time.Weekday(((int(d) % 7) + 7) % 7)
}
