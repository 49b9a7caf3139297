package core

import "time"

// Period is an inclusive accounting window. End is the last instant of its day.
type Period struct {
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
}

// ResolvePeriod returns the fiscal month of (year, month) for a start/end day pair.
//
// When startDay > endDay the window wraps: it starts on startDay of the previous
// calendar month and ends on endDay of the target month. Days beyond the end of a
// month clamp to its last day and days below 1 clamp to 1. Months outside 1..12
// roll into the neighbouring years.
func ResolvePeriod(year, month, startDay, endDay int) Period {
	year, month = normalizeMonth(year, month)
	startDay = max(startDay, 1)
	endDay = max(endDay, 1)

	startYear, startMonth := year, month
	if startDay > endDay {
		startYear, startMonth = PreviousMonth(year, month)
	}

	start := clampedDay(startYear, startMonth, startDay)
	end := clampedDay(year, month, endDay)
	return Period{Start: start, End: endOfDay(end)}
}

// CalendarMonth is the window covering every day of one calendar month.
func CalendarMonth(year, month int) Period {
	return ResolvePeriod(year, month, 1, 31)
}

// CalendarYear is the window covering January 1 through December 31.
func CalendarYear(year int) Period {
	return Period{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   endOfDay(time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)),
	}
}

// PreviousMonth steps back one calendar month, rolling the year in January.
func PreviousMonth(year, month int) (int, int) {
	return normalizeMonth(year, month-1)
}

// Contains reports whether d falls inside the window, both ends inclusive.
func (p Period) Contains(d Date) bool {
	if d.IsZero() {
		return false
	}
	return !d.Time.Before(p.Start) && !d.Time.After(p.End)
}

// StartDate and EndDate return the window bounds as calendar days.
func (p Period) StartDate() Date {
	return Date{Time: truncateDay(p.Start)}
}

func (p Period) EndDate() Date {
	return Date{Time: truncateDay(p.End)}
}

func (p Period) String() string {
	return p.StartDate().String() + ".." + p.EndDate().String()
}

// DaysIn returns the number of days in the given month.
func DaysIn(year, month int) int {
	year, month = normalizeMonth(year, month)
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func normalizeMonth(year, month int) (int, int) {
	t := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), int(t.Month())
}

func clampedDay(year, month, day int) time.Time {
	day = min(day, DaysIn(year, month))
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
