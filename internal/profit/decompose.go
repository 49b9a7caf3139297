// Package profit turns entries into revenue, expense and volume figures.
//
// Decompose works on a single entry, Aggregate folds many entries inside a
// date window, and Calculator exposes the monthly, previous, yearly and
// cumulative views over a live entry source. Everything here is pure: no
// function mutates its input or returns an error.
package profit

import "baedal/internal/core"

// LineItem is one revenue or expense component of an entry.
type LineItem struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Count     core.Count `json:"count,omitempty"`
	UnitPrice core.Money `json:"unitPrice,omitempty"`
	Amount    core.Money `json:"amount"`
}

// Breakdown is the financial view of a single entry.
type Breakdown struct {
	Revenue  core.Money `json:"revenue"`
	Expenses core.Money `json:"expenses"`
	// RevenueByUnitPrice groups revenue lines by the rate that produced them.
	// Fresh bags always land under FreshBagUnitPrice; a custom item without a
	// unit price is bucketed under its own amount.
	RevenueByUnitPrice map[core.Money][]LineItem `json:"revenueByUnitPrice"`
	RevenueLines       []LineItem                `json:"revenueLines"`
	ExpenseLines       []LineItem                `json:"expenseLines"`
	Volume             core.Count                `json:"volume"`
	FreshBags          core.Count                `json:"freshBags"`
	ItemCounts         map[string]core.Count     `json:"itemCounts"`
}

// volumeKeys are the quantity keys that count as delivered volume.
var volumeKeys = map[string]bool{
	core.KeyDeliveryCount:              true,
	core.KeyReturnCount:                true,
	core.KeyDeliveryInterruptionAmount: true,
}

// Decompose splits an entry into its revenue and expense components.
//
// Revenue is the legacy delivery, return and interruption counts at the
// entry's unit price, fresh bags at the fixed rate, and every income custom
// item. Expenses are the seven legacy fields plus every expense custom item.
// Custom items whose class cannot be resolved contribute nothing.
func Decompose(e core.Entry, settings core.Settings) Breakdown {
	b := Breakdown{
		RevenueByUnitPrice: make(map[core.Money][]LineItem),
		ItemCounts:         make(map[string]core.Count),
	}

	legacy := []struct {
		key   string
		count core.Count
		price core.Money
	}{
		{core.KeyDeliveryCount, e.DeliveryCount, e.UnitPrice},
		{core.KeyReturnCount, e.ReturnCount, e.UnitPrice},
		{core.KeyDeliveryInterruptionAmount, e.DeliveryInterruptionAmount, e.UnitPrice},
		{core.KeyFreshBagCount, e.FreshBagCount, core.FreshBagUnitPrice},
	}
	for _, l := range legacy {
		if l.count == 0 {
			continue
		}
		line := LineItem{
			Key:       l.key,
			Label:     settings.Label(l.key),
			Count:     l.count,
			UnitPrice: l.price,
			Amount:    l.price.Times(l.count),
		}
		b.addRevenue(l.price, line)
	}
	b.Volume += e.DeliveryCount + e.ReturnCount + e.DeliveryInterruptionAmount
	b.FreshBags += e.FreshBagCount

	expenses := e.LegacyExpenses()
	for _, key := range core.LegacyExpenseKeys {
		amount := expenses[key]
		if amount == 0 {
			continue
		}
		b.addExpense(LineItem{Key: key, Label: settings.Label(key), Amount: amount})
	}

	for _, item := range e.CustomItems {
		class, ok := settings.ItemClass(item)
		if !ok {
			continue
		}
		amount := item.EffectiveAmount()
		if amount == 0 && item.Count == 0 {
			continue
		}
		line := LineItem{
			Key:       item.Key,
			Label:     settings.ItemLabel(item),
			Count:     item.Count,
			UnitPrice: item.UnitPrice,
			Amount:    amount,
		}
		switch class {
		case core.Income:
			bucket := item.UnitPrice
			if bucket <= 0 {
				bucket = amount
			}
			b.addRevenue(bucket, line)
			if volumeKeys[item.Key] {
				b.Volume += item.Count
			}
			if item.Key == core.KeyFreshBagCount {
				b.FreshBags += item.Count
			}
		case core.Expense:
			b.addExpense(line)
		}
	}

	return b
}

func (b *Breakdown) addRevenue(bucket core.Money, line LineItem) {
	b.Revenue += line.Amount
	b.RevenueByUnitPrice[bucket] = append(b.RevenueByUnitPrice[bucket], line)
	b.RevenueLines = append(b.RevenueLines, line)
	if line.Count != 0 {
		b.ItemCounts[line.Label] += line.Count
	}
}

func (b *Breakdown) addExpense(line LineItem) {
	b.Expenses += line.Amount
	b.ExpenseLines = append(b.ExpenseLines, line)
}

// Net is revenue minus expenses.
func (b Breakdown) Net() core.Money {
	return b.Revenue - b.Expenses
}
