package calendar

import (
	"testing"
	"time"
)

func TestAddMonths_ClampsDayOfMonth(t *testing.T) {
	cases := []struct {
		in   time.Time
		n    int
		want time.Time
	}{
		{date(2024, time.January, 31), 1, date(2024, time.February, 29)},
		{date(2023, time.January, 31), 1, date(2023, time.February, 28)},
		{date(2024, time.March, 31), -1, date(2024, time.February, 29)},
		{date(2024, time.March, 15), 1, date(2024, time.April, 15)},
		{date(2024, time.December, 10), 1, date(2025, time.January, 10)},
		{date(2024, time.January, 10), -1, date(2023, time.December, 10)},
		{date(2024, time.May, 31), -15, date(2023, time.February, 28)},
		{date(2024, time.May, 31), 25, date(2026, time.June, 30)},
	}
	for _, tc := range cases {
		if got := AddMonths(tc.in, tc.n); !got.Equal(tc.want) {
			t.Fatalf("AddMonths(%s, %d)=%s, want %s", DayKey(tc.in), tc.n, DayKey(got), DayKey(tc.want))
		}
	}
}

func TestAddMonths_KeepsTimeOfDay(t *testing.T) {
	in := time.Date(2024, time.January, 31, 14, 45, 10, 0, time.UTC)
	got := AddMonths(in, 1)
	if got.Hour() != 14 || got.Minute() != 45 || got.Second() != 10 {
		t.Fatalf("time of day lost: %v", got)
	}
}

func TestWithMonthAndYear(t *testing.T) {
	in := time.Date(2024, time.March, 31, 9, 0, 0, 0, time.UTC)
	if got := WithMonth(in, time.April); !got.Equal(time.Date(2024, time.April, 30, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("WithMonth=%v", got)
	}
	if got := WithMonth(in, 13); got.Month() != time.December {
		t.Fatalf("out-of-range month should clamp, got %v", got)
	}
	leap := time.Date(2024, time.February, 29, 9, 0, 0, 0, time.UTC)
	if got := WithYear(leap, 2025); !got.Equal(time.Date(2025, time.February, 28, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("WithYear=%v", got)
	}
	if got := WithYear(leap, 0); got.Year() != 1 {
		t.Fatalf("year should clamp to 1, got %v", got)
	}
}

func TestParseDue(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	cases := []struct {
		raw string
		key string
		ok  bool
	}{
		{"2024-03-05T23:30:00Z", "2024-03-06", true},
		{"2024-03-05T23:30:00.123456Z", "2024-03-06", true},
		{"2024-03-05T10:00:00+05:00", "2024-03-05", true},
		{"2024-03-05T23:30:00", "2024-03-05", true},
		{"2024-03-05T23:30:00.5", "2024-03-05", true},
		{"2024-03-05", "2024-03-05", true},
		{"", "", false},
		{"05/03/2024", "", false},
		{"2024-13-40", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseDue(tc.raw, loc)
		if ok != tc.ok {
			t.Fatalf("ParseDue(%q) ok=%v, want %v", tc.raw, ok, tc.ok)
		}
		if ok && DayKey(got) != tc.key {
			t.Fatalf("ParseDue(%q) day=%s, want %s", tc.raw, DayKey(got), tc.key)
		}
	}
}

func TestParseMonthAndWeekday(t *testing.T) {
	for in, want := range map[string]time.Month{"3": time.March, "12": time.December, "feb": time.February, "September": time.September} {
		if got, ok := ParseMonth(in); !ok || got != want {
			t.Fatalf("ParseMonth(%q)=%v,%v", in, got, ok)
		}
	}
	for _, bad := range []string{"", "0", "13", "ja", "smarch"} {
		if _, ok := ParseMonth(bad); ok {
			t.Fatalf("ParseMonth(%q) should fail", bad)
		}
	}
	if d, ok := ParseWeekday("mon"); !ok || d != time.Monday {
		t.Fatalf("ParseWeekday(mon)=%v,%v", d, ok)
	}
	if _, ok := ParseWeekday("x"); ok {
		t.Fatalf("ParseWeekday(x) should fail")
	}
}

func TestSameDayAndMonth(t *testing.T) {
	a := time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC)
	if !SameDay(a, b) || !SameMonth(a, b) {
		t.Fatalf("expected same day")
	}
	if SameDay(a, a.AddDate(0, 0, 1)) {
		t.Fatalf("expected different day")
	}
}
