package sheets

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"baedal/internal/core"
)

func TestRows_RoundTrip(t *testing.T) {
	entries := []core.Entry{
		{
			ID: "s4", Date: core.NewDate(2024, 5, 3), Type: core.Income, Round: 2, UnitPrice: 720,
			DeliveryCount: 150, ReturnCount: 5, DeliveryInterruptionAmount: 1, FreshBagCount: 9,
			CustomItems: []core.CustomItem{{Key: "promotionAmount", Name: "프로모션", Type: core.Income, Amount: 30000}},
			Timestamp:   time.Date(2024, 5, 3, 22, 1, 2, 500, time.UTC),
		},
		{
			ID: "z2", Date: core.NewDate(2024, 5, 2), Type: core.Expense,
			PenaltyAmount: 1, IndustrialAccidentCost: 2, FuelCost: 3, MaintenanceCost: 4,
			VATAmount: 5, IncomeTaxAmount: 6, TaxAccountantFee: 7,
			GroupID: "installment-9", Memo: "타이어 (2/6회차)",
		},
	}

	values, err := EncodeRows(entries)
	if err != nil {
		t.Fatalf("EncodeRows() error = %v", err)
	}
	if len(values) != 3 || values[0][1] != ColDate || values[1][2] != "수입" {
		t.Fatalf("unexpected matrix: %v", values[:2])
	}

	got, err := DecodeRows(values)
	if err != nil {
		t.Fatalf("DecodeRows() error = %v", err)
	}
	if !reflect.DeepEqual(got, entries) {
		t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", got, entries)
	}
}

func TestDecodeRows_SheetsValues(t *testing.T) {
	// What the API returns with UNFORMATTED_VALUE: numbers as float64, columns
	// in any order, trailing empty cells trimmed.
	values := [][]any{
		{ColType, ColDate, ColDeliveries, ColUnitPrice, "비고"},
		{"income", "2024-06-01", float64(120), float64(700), "x"},
		{"지출", "2024-06-02"},
		{"", ""},
	}
	got, err := DecodeRows(values)
	if err != nil {
		t.Fatalf("DecodeRows() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Type != core.Income || got[0].DeliveryCount != 120 || got[0].UnitPrice != 700 {
		t.Errorf("first row = %+v", got[0])
	}
	if got[1].Type != core.Expense || !got[1].Date.Equal(core.NewDate(2024, 6, 2)) {
		t.Errorf("second row = %+v", got[1])
	}
}

func TestDecodeRows_Errors(t *testing.T) {
	tests := []struct {
		name   string
		values [][]any
		want   string
	}{
		{"missing header", [][]any{{ColID, ColType}}, "missing"},
		{"bad date", [][]any{{ColDate, ColType}, {"2024-13-40", "수입"}}, "row 2"},
		{"bad type", [][]any{{ColDate, ColType}, {"2024-01-01", "이체"}}, "invalid entry type"},
		{"bad items", [][]any{{ColDate, ColType, ColCustomItems}, {"2024-01-01", "수입", "{"}}, "custom items"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRows(tt.values)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("DecodeRows() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestCellString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"abc", "abc"},
		{float64(1000000), "1000000"},
		{float64(12.5), "12.5"},
		{int64(-3), "-3"},
	}
	for _, tt := range tests {
		if got := cellString(tt.in); got != tt.want {
			t.Errorf("cellString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
