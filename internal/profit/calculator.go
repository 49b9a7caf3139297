package profit

import (
	"baedal/internal/core"
)

type (
	// MonthTotal is one row of the yearly table.
	MonthTotal struct {
		Month     int        `json:"month"`
		NetProfit core.Money `json:"netProfit"`
		Revenue   core.Money `json:"revenue"`
		Expenses  core.Money `json:"expenses"`
	}

	// YearlySummary aggregates a calendar year and adds one row per calendar month.
	YearlySummary struct {
		Summary
		Year             int          `json:"year"`
		MonthlyBreakdown []MonthTotal `json:"monthlyBreakdown"`
	}

	// GoalProgress compares a fiscal month's net profit with the goal amount.
	GoalProgress struct {
		Goal    core.Money   `json:"goal"`
		Current core.Money   `json:"current"`
		Percent float64      `json:"percent"`
		Period  *core.Period `json:"period"`
	}
)

// Monthly aggregates the fiscal month of (year, month) defined by the settings' day pair.
func Monthly(entries []core.Entry, settings core.Settings, year, month int) Summary {
	period := core.ResolvePeriod(year, month, settings.MonthlyStartDay, settings.MonthlyEndDay)
	s := Aggregate(entries, period.Contains, settings)
	s.Period = &period
	return s
}

// PreviousMonthly aggregates the fiscal month before (year, month).
func PreviousMonthly(entries []core.Entry, settings core.Settings, year, month int) Summary {
	py, pm := core.PreviousMonth(year, month)
	return Monthly(entries, settings, py, pm)
}

// Yearly aggregates a calendar year. The monthly rows follow calendar months,
// not fiscal periods.
func Yearly(entries []core.Entry, settings core.Settings, year int) YearlySummary {
	period := core.CalendarYear(year)
	out := YearlySummary{
		Summary:          newSummary(),
		Year:             year,
		MonthlyBreakdown: make([]MonthTotal, 12),
	}
	for i := range out.MonthlyBreakdown {
		out.MonthlyBreakdown[i].Month = i + 1
	}

	for _, e := range entries {
		if !period.Contains(e.Date) {
			continue
		}
		b := Decompose(e, settings)
		out.add(e, b)

		row := &out.MonthlyBreakdown[int(e.Date.Month())-1]
		row.Revenue += b.Revenue
		row.Expenses += b.Expenses
		row.NetProfit = row.Revenue - row.Expenses
	}
	out.finish()
	out.Period = &period
	return out
}

// Cumulative aggregates every entry with no date filter.
func Cumulative(entries []core.Entry, settings core.Settings) Summary {
	return Aggregate(entries, All, settings)
}

// Progress reports how far a fiscal month's net profit is towards the goal,
// clamped to 0..100 percent. A non-positive goal reports 0.
func Progress(entries []core.Entry, settings core.Settings, year, month int) GoalProgress {
	s := Monthly(entries, settings, year, month)
	g := GoalProgress{Goal: settings.GoalAmount, Current: s.NetProfit, Period: s.Period}
	if settings.GoalAmount > 0 {
		pct := float64(s.NetProfit) / float64(settings.GoalAmount) * 100
		g.Percent = min(max(pct, 0), 100)
	}
	return g
}

// EntrySource provides a read-only snapshot of entries.
type EntrySource interface {
	Entries() []core.Entry
}

// SettingsSource provides the current settings.
type SettingsSource interface {
	Settings() core.Settings
}

// StaticSettings serves a fixed settings value.
type StaticSettings core.Settings

func (s StaticSettings) Settings() core.Settings { return core.Settings(s) }

// Calculator resolves periods against live entries and settings. Every call
// reads a fresh snapshot, so results follow the store without invalidation.
type Calculator struct {
	entries  EntrySource
	settings SettingsSource
}

func NewCalculator(entries EntrySource, settings SettingsSource) *Calculator {
	return &Calculator{entries: entries, settings: settings}
}

func (c *Calculator) MonthlySummary(year, month int) Summary {
	return Monthly(c.entries.Entries(), c.settings.Settings(), year, month)
}

func (c *Calculator) PreviousMonthlySummary(year, month int) Summary {
	return PreviousMonthly(c.entries.Entries(), c.settings.Settings(), year, month)
}

func (c *Calculator) YearlySummary(year int) YearlySummary {
	return Yearly(c.entries.Entries(), c.settings.Settings(), year)
}

func (c *Calculator) CumulativeSummary() Summary {
	return Cumulative(c.entries.Entries(), c.settings.Settings())
}

func (c *Calculator) GoalProgress(year, month int) GoalProgress {
	return Progress(c.entries.Entries(), c.settings.Settings(), year, month)
}
