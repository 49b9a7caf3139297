// Package core provides money parsing and handling utilities.
//
// This file contains the won and quantity types used by entries together with
// the tolerant parser that turns user-formatted strings ("12,000원") into them.
package core

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// Money is an amount in Korean won. Won has no minor unit.
	Money int64

	// Count is a non-currency quantity such as deliveries or fresh bags.
	Count int64
)

// FreshBagUnitPrice is the fixed won value of one fresh-bag pickup.
const FreshBagUnitPrice Money = 100

var amountNoise = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "원", "", "₩", "", "_", "")

// ParseAmount converts a locale-formatted numeric string to won.
//
// Thousands separators, spaces and currency markers are ignored. Empty or
// invalid input yields 0. Fractions are rounded half away from zero.
//
// Examples:
//
//	ParseAmount("12,000")   -> 12000
//	ParseAmount("7,000원")  -> 7000
//	ParseAmount("")         -> 0
//	ParseAmount("abc")      -> 0
//	ParseAmount("99.5")     -> 100
func ParseAmount(s string) Money {
	d, ok := parseDecimal(s)
	if !ok {
		return 0
	}
	return Money(d.Round(0).IntPart())
}

// ParseCount applies the ParseAmount rules to a quantity.
func ParseCount(s string) Count {
	return Count(ParseAmount(s))
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	s = amountNoise.Replace(strings.TrimSpace(s))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Times multiplies a unit price by a quantity.
func (m Money) Times(c Count) Money {
	return m * Money(c)
}

// String renders m with thousands separators, e.g. "1,234,500".
func (m Money) String() string {
	return groupThousands(int64(m))
}

func (c Count) String() string {
	return groupThousands(int64(c))
}

func groupThousands(v int64) string {
	digits := strconv.FormatInt(v, 10)
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}
	var b strings.Builder
	pre := len(digits) % 3
	if pre > 0 {
		b.WriteString(digits[:pre])
	}
	for i := pre; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// UnmarshalJSON accepts JSON numbers and numeric strings; anything else is 0.
func (m *Money) UnmarshalJSON(data []byte) error {
	*m = Money(parseJSONNumber(data))
	return nil
}

func (c *Count) UnmarshalJSON(data []byte) error {
	*c = Count(parseJSONNumber(data))
	return nil
}

func parseJSONNumber(data []byte) int64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0
		}
		return int64(ParseAmount(s))
	}
	return int64(ParseAmount(string(data)))
}
