package store

import "baedal/internal/core"

// IsDuplicate reports whether two entries carry the same economic content.
//
// Date, type, round, unit price, every legacy quantity and expense field and
// the custom item list (same items in the same order) must match. Id,
// timestamp, memo and group are ignored. It guards against submitting the
// same form twice; two different entries on one day are never flagged.
func IsDuplicate(a, b core.Entry) bool {
	if !a.Date.Equal(b.Date) ||
		a.Type != b.Type ||
		a.Round != b.Round ||
		a.UnitPrice != b.UnitPrice ||
		a.DeliveryCount != b.DeliveryCount ||
		a.ReturnCount != b.ReturnCount ||
		a.DeliveryInterruptionAmount != b.DeliveryInterruptionAmount ||
		a.FreshBagCount != b.FreshBagCount ||
		a.PenaltyAmount != b.PenaltyAmount ||
		a.IndustrialAccidentCost != b.IndustrialAccidentCost ||
		a.FuelCost != b.FuelCost ||
		a.MaintenanceCost != b.MaintenanceCost ||
		a.VATAmount != b.VATAmount ||
		a.IncomeTaxAmount != b.IncomeTaxAmount ||
		a.TaxAccountantFee != b.TaxAccountantFee {
		return false
	}
	if len(a.CustomItems) != len(b.CustomItems) {
		return false
	}
	for i := range a.CustomItems {
		if a.CustomItems[i] != b.CustomItems[i] {
			return false
		}
	}
	return true
}

func findDuplicate(entries []core.Entry, candidate core.Entry) (core.Entry, bool) {
	for _, e := range entries {
		if IsDuplicate(e, candidate) {
			return e, true
		}
	}
	return core.Entry{}, false
}
