package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"baedal/internal/core"
)

// EntryColumns lists the entries table columns after position, in the order
// EntryArgs and ScanEntry use. The SQLite and Postgres schemas share it.
const EntryColumns = `id, "date", type, round, unit_price,
	delivery_count, return_count, delivery_interruption_amount, fresh_bag_count,
	penalty_amount, industrial_accident_cost, fuel_cost, maintenance_cost,
	vat_amount, income_tax_amount, tax_accountant_fee,
	custom_items, "timestamp", group_id, memo`

// EntryColumnCount is the number of columns in EntryColumns.
const EntryColumnCount = 20

// Scanner is satisfied by *sql.Row, *sql.Rows and pgx.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// EntryArgs flattens an entry into query arguments matching EntryColumns.
func EntryArgs(e core.Entry) ([]any, error) {
	items, err := EncodeCustomItems(e.CustomItems)
	if err != nil {
		return nil, err
	}
	ts := ""
	if !e.Timestamp.IsZero() {
		ts = e.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	return []any{
		e.ID, e.Date.String(), string(e.Type), int64(e.Round), int64(e.UnitPrice),
		int64(e.DeliveryCount), int64(e.ReturnCount), int64(e.DeliveryInterruptionAmount), int64(e.FreshBagCount),
		int64(e.PenaltyAmount), int64(e.IndustrialAccidentCost), int64(e.FuelCost), int64(e.MaintenanceCost),
		int64(e.VATAmount), int64(e.IncomeTaxAmount), int64(e.TaxAccountantFee),
		items, ts, e.GroupID, e.Memo,
	}, nil
}

// ScanEntry reads one row selected with EntryColumns.
func ScanEntry(sc Scanner) (core.Entry, error) {
	var e core.Entry
	var date, typ, items, ts string
	var round, unitPrice, deliveries, returns, interruptions, bags int64
	var penalty, accident, fuel, maintenance, vat, incomeTax, accountant int64
	if err := sc.Scan(&e.ID, &date, &typ, &round, &unitPrice,
		&deliveries, &returns, &interruptions, &bags,
		&penalty, &accident, &fuel, &maintenance,
		&vat, &incomeTax, &accountant,
		&items, &ts, &e.GroupID, &e.Memo); err != nil {
		return core.Entry{}, err
	}

	d, err := core.ParseDate(date)
	if err != nil {
		return core.Entry{}, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	e.Date = d
	e.Type = core.EntryType(typ)
	e.Round = int(round)
	e.UnitPrice = core.Money(unitPrice)
	e.DeliveryCount = core.Count(deliveries)
	e.ReturnCount = core.Count(returns)
	e.DeliveryInterruptionAmount = core.Count(interruptions)
	e.FreshBagCount = core.Count(bags)
	e.PenaltyAmount = core.Money(penalty)
	e.IndustrialAccidentCost = core.Money(accident)
	e.FuelCost = core.Money(fuel)
	e.MaintenanceCost = core.Money(maintenance)
	e.VATAmount = core.Money(vat)
	e.IncomeTaxAmount = core.Money(incomeTax)
	e.TaxAccountantFee = core.Money(accountant)

	if e.CustomItems, err = DecodeCustomItems(items); err != nil {
		return core.Entry{}, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	if ts != "" {
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return core.Entry{}, fmt.Errorf("entry %s: parse timestamp: %w", e.ID, err)
		}
	}
	return e, nil
}

// EncodeCustomItems serialises custom items as a JSON array ("[]" when empty).
func EncodeCustomItems(items []core.CustomItem) (string, error) {
	if len(items) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode custom items: %w", err)
	}
	return string(b), nil
}

// DecodeCustomItems is the inverse of EncodeCustomItems. Empty input yields nil.
func DecodeCustomItems(s string) ([]core.CustomItem, error) {
	if s == "" || s == "[]" || s == "null" {
		return nil, nil
	}
	var items []core.CustomItem
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, fmt.Errorf("decode custom items: %w", err)
	}
	return items, nil
}
