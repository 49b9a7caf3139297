package profit

import (
	"math/rand"
	"reflect"
	"testing"

	"baedal/internal/core"
)

func fixtureEntries() []core.Entry {
	return []core.Entry{
		{ID: "s1", Date: core.NewDate(2025, 3, 1), Type: core.Income, Round: 1, UnitPrice: 700, DeliveryCount: 100, ReturnCount: 5, FreshBagCount: 10},
		{ID: "s2", Date: core.NewDate(2025, 3, 1), Type: core.Income, Round: 2, UnitPrice: 800, DeliveryCount: 50},
		{ID: "s3", Date: core.NewDate(2025, 3, 2), Type: core.Income, UnitPrice: 700, DeliveryCount: 80, DeliveryInterruptionAmount: 2},
		{ID: "z1", Date: core.NewDate(2025, 3, 2), Type: core.Expense, FuelCost: 30000},
		{ID: "z2", Date: core.NewDate(2025, 4, 1), Type: core.Expense, CustomItems: []core.CustomItem{{Key: "carLease", Name: "리스료", Type: core.Expense, Amount: 300000}}},
	}
}

func marchOnly(d core.Date) bool {
	return core.CalendarMonth(2025, 3).Contains(d)
}

func TestAggregateTotals(t *testing.T) {
	s := Aggregate(fixtureEntries(), marchOnly, core.DefaultSettings())

	wantRevenue := core.Money(700*100 + 700*5 + 10*100 + 800*50 + 700*80 + 700*2)
	if s.Revenue != wantRevenue {
		t.Fatalf("revenue = %d, want %d", s.Revenue, wantRevenue)
	}
	if s.Expenses != 30000 {
		t.Fatalf("expenses = %d, want 30000", s.Expenses)
	}
	if s.NetProfit != wantRevenue-30000 {
		t.Fatalf("net = %d", s.NetProfit)
	}
	if s.TotalVolume != 100+5+50+80+2 {
		t.Fatalf("volume = %d", s.TotalVolume)
	}
	if s.TotalFreshBag != 10 {
		t.Fatalf("fresh bags = %d", s.TotalFreshBag)
	}
	if s.TotalWorkingDays != 2 {
		t.Fatalf("working days = %d, want 2", s.TotalWorkingDays)
	}
	if s.DailyAverageVolume != float64(237)/2 {
		t.Fatalf("daily average = %v", s.DailyAverageVolume)
	}
	if got := s.RevenueByCategory["배송"]; got.Count != 230 || got.Amount != 700*100+800*50+700*80 {
		t.Fatalf("delivery category = %+v", got)
	}
	if got := s.ExpensesByCategory["유류비"]; got.Amount != 30000 {
		t.Fatalf("fuel category = %+v", got)
	}
	if got := s.ItemCounts["배송"]; got != 230 {
		t.Fatalf("delivery count chip = %d", got)
	}
}

func TestAggregateDailyBreakdown(t *testing.T) {
	s := Aggregate(fixtureEntries(), marchOnly, core.DefaultSettings())
	day1 := s.DailyBreakdown["2025-03-01"]
	if day1.Revenue != 700*100+700*5+1000+800*50 || day1.Expenses != 0 {
		t.Fatalf("day1 = %+v", day1)
	}
	day2 := s.DailyBreakdown["2025-03-02"]
	if day2.Expenses != 30000 || day2.Profit != day2.Revenue-30000 {
		t.Fatalf("day2 = %+v", day2)
	}
	if _, ok := s.DailyBreakdown["2025-04-01"]; ok {
		t.Fatalf("april entry leaked into march")
	}
}

func TestAggregateUnitPriceBreakdown(t *testing.T) {
	entries := append(fixtureEntries(), core.Entry{
		Date: core.NewDate(2025, 3, 3), Type: core.Income,
		CustomItems: []core.CustomItem{{Key: "promotionAmount", Type: core.Income, Count: 10, UnitPrice: 900}},
	})
	s := Aggregate(entries, marchOnly, core.DefaultSettings())

	if len(s.UnitPriceBreakdown) != 2 {
		t.Fatalf("unit prices = %v, want only legacy 700 and 800", s.UnitPricesDesc())
	}
	u := s.UnitPriceBreakdown[700]
	if u.DeliveryCount != 180 || u.ReturnCount != 5 || u.InterruptionCount != 2 {
		t.Fatalf("700 counts = %+v", u)
	}
	if u.TotalRevenue != 700*(180+5+2) {
		t.Fatalf("700 total = %d", u.TotalRevenue)
	}
	if got := s.UnitPricesDesc(); !reflect.DeepEqual(got, []core.Money{800, 700}) {
		t.Fatalf("prices desc = %v", got)
	}
}

func TestAggregateCommutative(t *testing.T) {
	entries := fixtureEntries()
	want := Aggregate(entries, All, core.DefaultSettings())

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]core.Entry(nil), entries...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := Aggregate(shuffled, All, core.DefaultSettings())
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("permutation %d changed the summary", i)
		}
	}
}

func TestAggregateEmptyGuardsDivision(t *testing.T) {
	s := Aggregate(nil, All, core.DefaultSettings())
	if s.TotalWorkingDays != 0 || s.DailyAverageVolume != 0 {
		t.Fatalf("empty aggregate = %+v", s)
	}
	s = Aggregate(fixtureEntries(), func(core.Date) bool { return false }, core.DefaultSettings())
	if s.TotalWorkingDays != 0 || s.DailyAverageVolume != 0 || s.Revenue != 0 {
		t.Fatalf("filtered-out aggregate = %+v", s)
	}
}

func TestAggregateNilPredicateAcceptsAll(t *testing.T) {
	s := Aggregate(fixtureEntries(), nil, core.DefaultSettings())
	if s.TotalWorkingDays != 3 {
		t.Fatalf("working days = %d, want 3", s.TotalWorkingDays)
	}
}

func TestDistributionsSorted(t *testing.T) {
	s := Aggregate(fixtureEntries(), All, core.DefaultSettings())
	rev := s.RevenueDistribution()
	for i := 1; i < len(rev); i++ {
		if rev[i-1].Amount < rev[i].Amount {
			t.Fatalf("revenue distribution not sorted: %+v", rev)
		}
	}
	exp := s.ExpenseDistribution()
	if len(exp) != 2 || exp[0].Label != "리스료" {
		t.Fatalf("expense distribution = %+v", exp)
	}
}
