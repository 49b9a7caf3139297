package sheets

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"baedal/internal/core"
)

// Header labels of the snapshot sheet. The first nine match the export
// columns users already know from the app.
const (
	ColID            = "ID"
	ColDate          = "날짜"
	ColType          = "구분"
	ColRound         = "회전"
	ColUnitPrice     = "단가"
	ColDeliveries    = "배송건수"
	ColReturns       = "반품건수"
	ColFreshBags     = "프레시백"
	ColInterruptions = "중단금액"
	ColPenalty       = "패널티"
	ColAccident      = "산재"
	ColFuel          = "유류비"
	ColMaintenance   = "유지보수비"
	ColVAT           = "부가세"
	ColIncomeTax     = "종합소득세"
	ColAccountant    = "세무사 비용"
	ColCustomItems   = "항목"
	ColGroup         = "그룹"
	ColMemo          = "메모"
	ColTimestamp     = "기록시간"
)

// Header is the first row of every snapshot.
var Header = []string{
	ColID, ColDate, ColType, ColRound, ColUnitPrice,
	ColDeliveries, ColReturns, ColFreshBags, ColInterruptions,
	ColPenalty, ColAccident, ColFuel, ColMaintenance, ColVAT, ColIncomeTax, ColAccountant,
	ColCustomItems, ColGroup, ColMemo, ColTimestamp,
}

// Type cell values.
const (
	typeIncome  = "수입"
	typeExpense = "지출"
)

// EncodeRows renders entries as a values matrix, header first. Amounts stay
// numeric so sheet formulas can sum them.
func EncodeRows(entries []core.Entry) ([][]any, error) {
	out := make([][]any, 0, len(entries)+1)
	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	out = append(out, header)

	for _, e := range entries {
		items := ""
		if len(e.CustomItems) > 0 {
			b, err := json.Marshal(e.CustomItems)
			if err != nil {
				return nil, fmt.Errorf("encode custom items of %s: %w", e.ID, err)
			}
			items = string(b)
		}
		ts := ""
		if !e.Timestamp.IsZero() {
			ts = e.Timestamp.UTC().Format(time.RFC3339Nano)
		}
		out = append(out, []any{
			e.ID, e.Date.String(), typeLabel(e.Type), e.Round, int64(e.UnitPrice),
			int64(e.DeliveryCount), int64(e.ReturnCount), int64(e.FreshBagCount), int64(e.DeliveryInterruptionAmount),
			int64(e.PenaltyAmount), int64(e.IndustrialAccidentCost), int64(e.FuelCost), int64(e.MaintenanceCost),
			int64(e.VATAmount), int64(e.IncomeTaxAmount), int64(e.TaxAccountantFee),
			items, e.GroupID, e.Memo, ts,
		})
	}
	return out, nil
}

// DecodeRows parses a values matrix written by EncodeRows. Columns are found
// by header label, so reordered or extra columns are tolerated. Rows without
// a date are skipped.
func DecodeRows(values [][]any) ([]core.Entry, error) {
	if len(values) == 0 {
		return nil, nil
	}
	cols := make(map[string]int, len(values[0]))
	for i, h := range values[0] {
		cols[strings.TrimSpace(cellString(h))] = i
	}
	for _, required := range []string{ColDate, ColType} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("snapshot header missing %q", required)
		}
	}

	get := func(row []any, col string) string {
		i, ok := cols[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(cellString(row[i]))
	}
	money := func(row []any, col string) core.Money { return core.ParseAmount(get(row, col)) }
	count := func(row []any, col string) core.Count { return core.ParseCount(get(row, col)) }

	var out []core.Entry
	for n, row := range values[1:] {
		rawDate := get(row, ColDate)
		if rawDate == "" {
			continue
		}
		date, err := core.ParseDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		typ, err := parseType(get(row, ColType))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}

		e := core.Entry{
			ID:                         get(row, ColID),
			Date:                       date,
			Type:                       typ,
			Round:                      int(count(row, ColRound)),
			UnitPrice:                  money(row, ColUnitPrice),
			DeliveryCount:              count(row, ColDeliveries),
			ReturnCount:                count(row, ColReturns),
			FreshBagCount:              count(row, ColFreshBags),
			DeliveryInterruptionAmount: count(row, ColInterruptions),
			PenaltyAmount:              money(row, ColPenalty),
			IndustrialAccidentCost:     money(row, ColAccident),
			FuelCost:                   money(row, ColFuel),
			MaintenanceCost:            money(row, ColMaintenance),
			VATAmount:                  money(row, ColVAT),
			IncomeTaxAmount:            money(row, ColIncomeTax),
			TaxAccountantFee:           money(row, ColAccountant),
			GroupID:                    get(row, ColGroup),
			Memo:                       get(row, ColMemo),
		}
		if items := get(row, ColCustomItems); items != "" {
			if err := json.Unmarshal([]byte(items), &e.CustomItems); err != nil {
				return nil, fmt.Errorf("row %d: decode custom items: %w", n+2, err)
			}
		}
		if ts := get(row, ColTimestamp); ts != "" {
			if e.Timestamp, err = time.Parse(time.RFC3339, ts); err != nil {
				return nil, fmt.Errorf("row %d: parse timestamp: %w", n+2, err)
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func typeLabel(t core.EntryType) string {
	if t == core.Expense {
		return typeExpense
	}
	return typeIncome
}

func parseType(s string) (core.EntryType, error) {
	switch strings.ToLower(s) {
	case typeIncome, string(core.Income):
		return core.Income, nil
	case typeExpense, string(core.Expense):
		return core.Expense, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrInvalidType, s)
}

// cellString renders a cell as the API returns it: strings as-is and numbers
// without exponent notation.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprint(x)
	}
}
