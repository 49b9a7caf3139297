package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the on-disk and wire format of an entry date.
const DateLayout = "2006-01-02"

// MaxRound is the highest same-day session number an entry may carry.
const MaxRound = 8

const (
	Income  EntryType = "income"
	Expense EntryType = "expense"
)

type (
	EntryType string

	// Date is a calendar day at UTC midnight.
	Date struct {
		time.Time
	}

	// CustomItem is an open-ended revenue or expense line attached to an entry.
	CustomItem struct {
		Key       string    `json:"key"`
		Name      string    `json:"name,omitempty"`
		Type      EntryType `json:"type"`
		Amount    Money     `json:"amount,omitempty"`
		Count     Count     `json:"count,omitempty"`
		UnitPrice Money     `json:"unitPrice,omitempty"`
	}

	// Entry is one logged day-event. Legacy fields predate custom items and are
	// still read by every calculation.
	Entry struct {
		ID        string    `json:"id,omitempty"`
		Date      Date      `json:"date"`
		Type      EntryType `json:"type"`
		Round     int       `json:"round,omitempty"`
		UnitPrice Money     `json:"unitPrice,omitempty"`

		DeliveryCount Count `json:"deliveryCount,omitempty"`
		ReturnCount   Count `json:"returnCount,omitempty"`
		// DeliveryInterruptionAmount is a count of interrupted deliveries, paid at UnitPrice.
		DeliveryInterruptionAmount Count `json:"deliveryInterruptionAmount,omitempty"`
		FreshBagCount              Count `json:"freshBagCount,omitempty"`

		PenaltyAmount          Money `json:"penaltyAmount,omitempty"`
		IndustrialAccidentCost Money `json:"industrialAccidentCost,omitempty"`
		FuelCost               Money `json:"fuelCost,omitempty"`
		MaintenanceCost        Money `json:"maintenanceCost,omitempty"`
		VATAmount              Money `json:"vatAmount,omitempty"`
		IncomeTaxAmount        Money `json:"incomeTaxAmount,omitempty"`
		TaxAccountantFee       Money `json:"taxAccountantFee,omitempty"`

		CustomItems []CustomItem `json:"customItems,omitempty"`
		Timestamp   time.Time    `json:"timestamp"`
		GroupID     string       `json:"groupId,omitempty"`
		Memo        string       `json:"memo,omitempty"`
	}
)

var (
	ErrDuplicateEntry  = errors.New("duplicate entry")
	ErrEntryNotFound   = errors.New("entry not found")
	ErrPersistence     = errors.New("persistence failed")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidType     = errors.New("invalid entry type")
	ErrInvalidRound    = errors.New("invalid round")
	ErrNegativeValue   = errors.New("negative value")
	ErrInvalidSettings = errors.New("invalid settings")
)

// Valid reports whether t is one of the two entry classes.
func (t EntryType) Valid() bool {
	return t == Income || t == Expense
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Equal reports whether both dates name the same calendar day.
func (d Date) Equal(o Date) bool {
	return d.String() == o.String()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, data)
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	// Accept full timestamps from older exports, keeping only the day.
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks an entry at the boundary. The calculation core never calls it
// and treats out-of-range numbers as they are.
func (e Entry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if !e.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, e.Type)
	}
	if e.Round < 0 || e.Round > MaxRound {
		return fmt.Errorf("%w: %d (must be 0..%d)", ErrInvalidRound, e.Round, MaxRound)
	}
	counts := map[string]Count{
		"deliveryCount":              e.DeliveryCount,
		"returnCount":                e.ReturnCount,
		"deliveryInterruptionAmount": e.DeliveryInterruptionAmount,
		"freshBagCount":              e.FreshBagCount,
	}
	for name, c := range counts {
		if c < 0 {
			return fmt.Errorf("%w: %s", ErrNegativeValue, name)
		}
	}
	if e.UnitPrice < 0 {
		return fmt.Errorf("%w: unitPrice", ErrNegativeValue)
	}
	for name, m := range e.LegacyExpenses() {
		if m < 0 {
			return fmt.Errorf("%w: %s", ErrNegativeValue, name)
		}
	}
	for i, item := range e.CustomItems {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("custom item %d: %w", i, err)
		}
	}
	return nil
}

func (c CustomItem) Validate() error {
	if strings.TrimSpace(c.Key) == "" && strings.TrimSpace(c.Name) == "" {
		return errors.New("custom item needs a key or a name")
	}
	if c.Type != "" && !c.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, c.Type)
	}
	if c.Amount < 0 || c.Count < 0 || c.UnitPrice < 0 {
		return ErrNegativeValue
	}
	return nil
}

// EffectiveAmount is UnitPrice*Count when a unit price is set, Amount otherwise.
func (c CustomItem) EffectiveAmount() Money {
	if c.UnitPrice > 0 {
		return c.UnitPrice.Times(c.Count)
	}
	return c.Amount
}

// Legacy expense field keys, in display order.
const (
	KeyPenaltyAmount          = "penaltyAmount"
	KeyIndustrialAccidentCost = "industrialAccidentCost"
	KeyFuelCost               = "fuelCost"
	KeyMaintenanceCost        = "maintenanceCost"
	KeyVATAmount              = "vatAmount"
	KeyIncomeTaxAmount        = "incomeTaxAmount"
	KeyTaxAccountantFee       = "taxAccountantFee"
)

// Legacy quantity field keys.
const (
	KeyDeliveryCount              = "deliveryCount"
	KeyReturnCount                = "returnCount"
	KeyDeliveryInterruptionAmount = "deliveryInterruptionAmount"
	KeyFreshBagCount              = "freshBagCount"
)

// LegacyExpenseKeys lists the seven fixed expense fields in display order.
var LegacyExpenseKeys = []string{
	KeyPenaltyAmount,
	KeyIndustrialAccidentCost,
	KeyFuelCost,
	KeyMaintenanceCost,
	KeyVATAmount,
	KeyIncomeTaxAmount,
	KeyTaxAccountantFee,
}

// LegacyExpenses returns the fixed expense fields keyed by their field name.
func (e Entry) LegacyExpenses() map[string]Money {
	return map[string]Money{
		KeyPenaltyAmount:          e.PenaltyAmount,
		KeyIndustrialAccidentCost: e.IndustrialAccidentCost,
		KeyFuelCost:               e.FuelCost,
		KeyMaintenanceCost:        e.MaintenanceCost,
		KeyVATAmount:              e.VATAmount,
		KeyIncomeTaxAmount:        e.IncomeTaxAmount,
		KeyTaxAccountantFee:       e.TaxAccountantFee,
	}
}

// Clone returns a copy that shares no slices with e. A nil item list stays
// nil and an empty one stays empty.
func (e Entry) Clone() Entry {
	if e.CustomItems != nil {
		e.CustomItems = append(make([]CustomItem, 0, len(e.CustomItems)), e.CustomItems...)
	}
	return e
}
