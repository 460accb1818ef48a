package calendar

import (
	"strings"
	"time"
)

// DayKeyLayout is the bucket key format (local calendar day).
const DayKeyLayout = "2006-01-02"

// DayKey returns the calendar-day key of t in t's own location.
func DayKey(t time.Time) string { return t.Format(DayKeyLayout) }

var dueLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	DayKeyLayout,
}

// ParseDue parses an API due date. Values with an explicit offset are
// converted into loc; naive values are read as wall-clock time in loc.
func ParseDue(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dueLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// StartOfDay returns local midnight of t's day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func EndOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), DaysInMonth(t.Year(), t.Month()), 0, 0, 0, 0, t.Location())
}

func DaysInMonth(y int, m time.Month) int {
	// Day 0 of next month is last day of this month.
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func clampDay(y int, m time.Month, d int) int {
	if d < 1 {
		return 1
	}
	if max := DaysInMonth(y, m); d > max {
		return max
	}
	return d
}

// AddMonths shifts t by n calendar months. The day of month is kept when the
// target month has it and clamped to the month's last day otherwise, so
// Jan 31 + 1 month is Feb 28 (or 29) rather than early March.
func AddMonths(t time.Time, n int) time.Time {
	total := int(t.Month()) - 1 + n
	y := t.Year() + floorDiv(total, 12)
	m := time.Month(floorMod(total, 12) + 1)
	return withDate(t, y, m)
}

// WithMonth replaces the month of t, keeping year, time of day and (when
// valid) the day of month.
func WithMonth(t time.Time, m time.Month) time.Time {
	if m < time.January {
		m = time.January
	}
	if m > time.December {
		m = time.December
	}
	return withDate(t, t.Year(), m)
}

// WithYear replaces the year of t. Feb 29 becomes Feb 28 in common years.
func WithYear(t time.Time, y int) time.Time {
	if y < 1 {
		y = 1
	}
	if y > 9999 {
		y = 9999
	}
	return withDate(t, y, t.Month())
}

func withDate(t time.Time, y int, m time.Month) time.Time {
	d := clampDay(y, m, t.Day())
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// ParseMonth accepts 1-12, full English month names or three-letter
// abbreviations.
func ParseMonth(s string) (time.Month, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	n := 0
	numeric := true
	for _, r := range s {
		if r < '0' || r > '9' {
			numeric = false
			break
		}
		n = n*10 + int(r-'0')
		if n > 12 {
			return 0, false
		}
	}
	if numeric {
		if n < 1 {
			return 0, false
		}
		return time.Month(n), true
	}
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if s == name || (len(s) >= 3 && strings.HasPrefix(name, s)) {
			return m, true
		}
	}
	return 0, false
}

// ParseWeekday accepts English weekday names or abbreviations.
func ParseWeekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 2 {
		return 0, false
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.HasPrefix(strings.ToLower(d.String()), s) {
			return d, true
		}
	}
	return 0, false
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
