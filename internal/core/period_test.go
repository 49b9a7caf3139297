package core

import "testing"

func TestResolvePeriod(t *testing.T) {
	cases := []struct {
		name               string
		year, month        int
		startDay, endDay   int
		wantStart, wantEnd string
	}{
		{"wraparound", 2025, 3, 26, 25, "2025-02-26", "2025-03-25"},
		{"full calendar month", 2025, 3, 1, 31, "2025-03-01", "2025-03-31"},
		{"february clamps end", 2025, 2, 1, 31, "2025-02-01", "2025-02-28"},
		{"leap february clamps end", 2024, 2, 1, 31, "2024-02-01", "2024-02-29"},
		{"january wraps into previous year", 2025, 1, 26, 25, "2024-12-26", "2025-01-25"},
		{"start clamps in short previous month", 2025, 3, 31, 30, "2025-02-28", "2025-03-30"},
		{"single day window", 2025, 4, 15, 15, "2025-04-15", "2025-04-15"},
		{"zero days clamp to 1", 2025, 5, 0, -3, "2025-05-01", "2025-05-01"},
		{"month 13 rolls forward", 2024, 13, 1, 31, "2025-01-01", "2025-01-31"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := ResolvePeriod(tc.year, tc.month, tc.startDay, tc.endDay)
			if got := p.StartDate().String(); got != tc.wantStart {
				t.Fatalf("start = %s, want %s", got, tc.wantStart)
			}
			if got := p.EndDate().String(); got != tc.wantEnd {
				t.Fatalf("end = %s, want %s", got, tc.wantEnd)
			}
		})
	}
}

func TestResolvePeriodEndIsEndOfDay(t *testing.T) {
	p := ResolvePeriod(2025, 3, 26, 25)
	if p.End.Hour() != 23 || p.End.Minute() != 59 || p.End.Second() != 59 {
		t.Fatalf("end not at end of day: %v", p.End)
	}
	if !p.Contains(NewDate(2025, 3, 25)) {
		t.Fatalf("end day must be inclusive")
	}
	if !p.Contains(NewDate(2025, 2, 26)) {
		t.Fatalf("start day must be inclusive")
	}
	if p.Contains(NewDate(2025, 3, 26)) || p.Contains(NewDate(2025, 2, 25)) {
		t.Fatalf("days outside the window must be excluded")
	}
	if p.Contains(Date{}) {
		t.Fatalf("zero date must be excluded")
	}
}

func TestPreviousMonth(t *testing.T) {
	cases := []struct{ y, m, wy, wm int }{
		{2025, 3, 2025, 2},
		{2025, 1, 2024, 12},
		{2025, 12, 2025, 11},
	}
	for _, tc := range cases {
		y, m := PreviousMonth(tc.y, tc.m)
		if y != tc.wy || m != tc.wm {
			t.Fatalf("PreviousMonth(%d,%d) = %d,%d want %d,%d", tc.y, tc.m, y, m, tc.wy, tc.wm)
		}
	}
}

func TestCalendarYear(t *testing.T) {
	p := CalendarYear(2025)
	if p.String() != "2025-01-01..2025-12-31" {
		t.Fatalf("unexpected year window %s", p)
	}
}
