package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2025, 3, 7)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2025-03-07"` {
		t.Fatalf("marshal = %s", b)
	}

	var got Date
	if err := json.Unmarshal([]byte(`"2025-03-07T10:11:12.000Z"`), &got); err != nil {
		t.Fatalf("unmarshal timestamp: %v", err)
	}
	if !got.Equal(d) {
		t.Fatalf("got %s, want %s", got, d)
	}

	if err := json.Unmarshal([]byte(`"07/03/2025"`), &got); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestEntryValidate(t *testing.T) {
	good := Entry{
		Date:          NewDate(2025, 3, 1),
		Type:          Income,
		Round:         2,
		UnitPrice:     700,
		DeliveryCount: 10,
		CustomItems:   []CustomItem{{Key: "promotionAmount", Type: Income, Amount: 5000}},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mut  func(*Entry)
		want error
	}{
		{"zero date", func(e *Entry) { e.Date = Date{} }, ErrInvalidDate},
		{"bad type", func(e *Entry) { e.Type = "refund" }, ErrInvalidType},
		{"round too high", func(e *Entry) { e.Round = 9 }, ErrInvalidRound},
		{"negative count", func(e *Entry) { e.ReturnCount = -1 }, ErrNegativeValue},
		{"negative expense", func(e *Entry) { e.FuelCost = -5 }, ErrNegativeValue},
		{"negative item", func(e *Entry) { e.CustomItems[0].Amount = -1 }, ErrNegativeValue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := good.Clone()
			tc.mut(&e)
			if err := e.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCustomItemEffectiveAmount(t *testing.T) {
	cases := []struct {
		name string
		item CustomItem
		want Money
	}{
		{"unit price wins over amount", CustomItem{Type: Income, Count: 5, UnitPrice: 200, Amount: 999}, 1000},
		{"amount without unit price", CustomItem{Type: Expense, Amount: 45000, Count: 1}, 45000},
		{"unit price without count", CustomItem{Type: Income, UnitPrice: 300}, 0},
		{"empty", CustomItem{Type: Income}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.item.EffectiveAmount(); got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestEntryCloneDoesNotShareItems(t *testing.T) {
	e := Entry{CustomItems: []CustomItem{{Key: "a", Amount: 1}}}
	c := e.Clone()
	c.CustomItems[0].Amount = 2
	if e.CustomItems[0].Amount != 1 {
		t.Fatalf("clone shares custom items")
	}
}

func TestEntryJSONShape(t *testing.T) {
	raw := `{"id":"s3","date":"2025-03-02","type":"income","round":1,"unitPrice":"700",
		"deliveryCount":"120","freshBagCount":4,"customItems":[{"key":"promotionAmount","name":"프로모션","type":"income","amount":"10,000"}],
		"timestamp":"2025-03-02T09:00:00Z","memo":"x"}`
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.ID != "s3" || e.UnitPrice != 700 || e.DeliveryCount != 120 || e.FreshBagCount != 4 {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if len(e.CustomItems) != 1 || e.CustomItems[0].Amount != 10000 {
		t.Fatalf("unexpected custom items: %+v", e.CustomItems)
	}
}
