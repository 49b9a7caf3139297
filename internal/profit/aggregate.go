package profit

import (
	"sort"

	"baedal/internal/core"
)

type (
	// CategoryTotal sums one revenue or expense category across entries.
	CategoryTotal struct {
		Label  string     `json:"label"`
		Count  core.Count `json:"count"`
		Amount core.Money `json:"amount"`
	}

	// DayTotal is one calendar cell.
	DayTotal struct {
		Revenue  core.Money `json:"revenue"`
		Expenses core.Money `json:"expenses"`
		Profit   core.Money `json:"profit"`
	}

	// UnitPriceTotal splits legacy revenue earned at a single unit price.
	UnitPriceTotal struct {
		DeliveryCount       core.Count `json:"deliveryCount"`
		DeliveryRevenue     core.Money `json:"deliveryRevenue"`
		ReturnCount         core.Count `json:"returnCount"`
		ReturnRevenue       core.Money `json:"returnRevenue"`
		InterruptionCount   core.Count `json:"interruptionCount"`
		InterruptionRevenue core.Money `json:"interruptionRevenue"`
		TotalRevenue        core.Money `json:"totalRevenue"`
	}

	// Summary is the aggregate of every entry accepted by a date predicate.
	Summary struct {
		Period *core.Period `json:"period,omitempty"`

		Revenue   core.Money `json:"revenue"`
		Expenses  core.Money `json:"expenses"`
		NetProfit core.Money `json:"netProfit"`

		RevenueByCategory  map[string]CategoryTotal `json:"revenueByCategory"`
		ExpensesByCategory map[string]CategoryTotal `json:"expensesByCategory"`
		ItemCounts         map[string]core.Count    `json:"itemCounts"`

		TotalVolume        core.Count `json:"totalVolume"`
		TotalFreshBag      core.Count `json:"totalFreshBag"`
		TotalWorkingDays   int        `json:"totalWorkingDays"`
		DailyAverageVolume float64    `json:"dailyAverageVolume"`

		DailyBreakdown     map[string]DayTotal           `json:"dailyBreakdown"`
		UnitPriceBreakdown map[core.Money]UnitPriceTotal `json:"unitPriceBreakdown"`
	}
)

// Predicate selects the entry dates an aggregation includes.
type Predicate func(core.Date) bool

// All accepts every date.
func All(core.Date) bool { return true }

func newSummary() Summary {
	return Summary{
		RevenueByCategory:  make(map[string]CategoryTotal),
		ExpensesByCategory: make(map[string]CategoryTotal),
		ItemCounts:         make(map[string]core.Count),
		DailyBreakdown:     make(map[string]DayTotal),
		UnitPriceBreakdown: make(map[core.Money]UnitPriceTotal),
	}
}

// Aggregate folds every entry whose date satisfies inPeriod into a Summary.
// A nil predicate accepts everything. The result does not depend on the
// order of entries.
func Aggregate(entries []core.Entry, inPeriod Predicate, settings core.Settings) Summary {
	if inPeriod == nil {
		inPeriod = All
	}
	s := newSummary()
	for _, e := range entries {
		if !inPeriod(e.Date) {
			continue
		}
		s.add(e, Decompose(e, settings))
	}
	s.finish()
	return s
}

func (s *Summary) add(e core.Entry, b Breakdown) {
	s.Revenue += b.Revenue
	s.Expenses += b.Expenses
	s.TotalVolume += b.Volume
	s.TotalFreshBag += b.FreshBags

	for _, line := range b.RevenueLines {
		s.RevenueByCategory[line.Label] = addLine(s.RevenueByCategory[line.Label], line)
	}
	for _, line := range b.ExpenseLines {
		s.ExpensesByCategory[line.Label] = addLine(s.ExpensesByCategory[line.Label], line)
	}
	for label, n := range b.ItemCounts {
		s.ItemCounts[label] += n
	}

	day := e.Date.String()
	d := s.DailyBreakdown[day]
	d.Revenue += b.Revenue
	d.Expenses += b.Expenses
	d.Profit = d.Revenue - d.Expenses
	s.DailyBreakdown[day] = d

	if e.UnitPrice > 0 && e.DeliveryCount+e.ReturnCount+e.DeliveryInterruptionAmount != 0 {
		u := s.UnitPriceBreakdown[e.UnitPrice]
		u.DeliveryCount += e.DeliveryCount
		u.DeliveryRevenue += e.UnitPrice.Times(e.DeliveryCount)
		u.ReturnCount += e.ReturnCount
		u.ReturnRevenue += e.UnitPrice.Times(e.ReturnCount)
		u.InterruptionCount += e.DeliveryInterruptionAmount
		u.InterruptionRevenue += e.UnitPrice.Times(e.DeliveryInterruptionAmount)
		u.TotalRevenue = u.DeliveryRevenue + u.ReturnRevenue + u.InterruptionRevenue
		s.UnitPriceBreakdown[e.UnitPrice] = u
	}
}

func (s *Summary) finish() {
	s.NetProfit = s.Revenue - s.Expenses
	s.TotalWorkingDays = len(s.DailyBreakdown)
	if s.TotalWorkingDays > 0 {
		s.DailyAverageVolume = float64(s.TotalVolume) / float64(s.TotalWorkingDays)
	}
}

func addLine(t CategoryTotal, line LineItem) CategoryTotal {
	t.Label = line.Label
	t.Count += line.Count
	t.Amount += line.Amount
	return t
}

// RevenueDistribution lists revenue categories by amount, largest first.
func (s Summary) RevenueDistribution() []CategoryTotal {
	return distribution(s.RevenueByCategory)
}

// ExpenseDistribution lists expense categories by amount, largest first.
func (s Summary) ExpenseDistribution() []CategoryTotal {
	return distribution(s.ExpensesByCategory)
}

func distribution(m map[string]CategoryTotal) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(m))
	for _, t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// UnitPricesDesc returns the unit prices present in the breakdown, highest first.
func (s Summary) UnitPricesDesc() []core.Money {
	prices := make([]core.Money, 0, len(s.UnitPriceBreakdown))
	for p := range s.UnitPriceBreakdown {
		prices = append(prices, p)
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i] > prices[j] })
	return prices
}
