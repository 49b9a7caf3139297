package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type (
	// PriceList holds one or more preset prices. It decodes from a single
	// number or from an array.
	PriceList []Money

	// ItemConfig describes a configurable income or expense line.
	ItemConfig struct {
		Key            string    `json:"key"`
		Label          string    `json:"label"`
		IsVisible      bool      `json:"isVisible"`
		UseCustomPrice bool      `json:"useCustomPrice,omitempty"`
		CustomPrice    PriceList `json:"customPrice,omitempty"`
	}

	// Settings are owned by the user and read by the calculation core.
	Settings struct {
		MonthlyStartDay    int          `json:"monthlyStartDay"`
		MonthlyEndDay      int          `json:"monthlyEndDay"`
		FavoriteUnitPrices []Money      `json:"favoriteUnitPrices"`
		IncomeConfig       []ItemConfig `json:"incomeConfig"`
		ExpenseConfig      []ItemConfig `json:"expenseConfig"`
		GoalAmount         Money        `json:"goalAmount"`
	}
)

// Labels used when no configuration names a legacy field.
var defaultLabels = map[string]string{
	KeyDeliveryCount:              "배송",
	KeyDeliveryInterruptionAmount: "중단",
	KeyReturnCount:                "반품",
	KeyFreshBagCount:              "프레시백",
	KeyPenaltyAmount:              "패널티",
	KeyIndustrialAccidentCost:     "산재",
	KeyFuelCost:                   "유류비",
	KeyMaintenanceCost:            "유지보수비",
	KeyVATAmount:                  "부가세",
	KeyIncomeTaxAmount:            "종합소득세",
	KeyTaxAccountantFee:           "세무사 비용",
}

// DefaultSettings returns the settings a fresh install starts with.
func DefaultSettings() Settings {
	return Settings{
		MonthlyStartDay:    26,
		MonthlyEndDay:      25,
		FavoriteUnitPrices: []Money{700},
		IncomeConfig: []ItemConfig{
			{Key: KeyDeliveryCount, Label: "배송", IsVisible: true},
			{Key: KeyDeliveryInterruptionAmount, Label: "중단", IsVisible: true},
			{Key: KeyReturnCount, Label: "반품", IsVisible: true},
			{Key: KeyFreshBagCount, Label: "프레시백", IsVisible: true, UseCustomPrice: true, CustomPrice: PriceList{100, 200}},
			{Key: "assignmentCount", Label: "채번", IsVisible: false},
			{Key: "promotionAmount", Label: "프로모션", IsVisible: false, UseCustomPrice: true, CustomPrice: PriceList{1}},
		},
		ExpenseConfig: []ItemConfig{
			{Key: KeyPenaltyAmount, Label: "패널티", IsVisible: true},
			{Key: KeyIndustrialAccidentCost, Label: "산재", IsVisible: true},
			{Key: KeyFuelCost, Label: "유류비", IsVisible: true},
			{Key: KeyMaintenanceCost, Label: "유지보수비", IsVisible: true},
			{Key: KeyVATAmount, Label: "부가세", IsVisible: true},
			{Key: KeyIncomeTaxAmount, Label: "종합소득세", IsVisible: true},
			{Key: KeyTaxAccountantFee, Label: "세무사 비용", IsVisible: true},
		},
		GoalAmount: 7_000_000,
	}
}

func (s Settings) Validate() error {
	var errs []error
	if s.MonthlyStartDay < 1 || s.MonthlyStartDay > 31 {
		errs = append(errs, fmt.Errorf("monthlyStartDay %d must be between 1 and 31", s.MonthlyStartDay))
	}
	if s.MonthlyEndDay < 1 || s.MonthlyEndDay > 31 {
		errs = append(errs, fmt.Errorf("monthlyEndDay %d must be between 1 and 31", s.MonthlyEndDay))
	}
	if s.GoalAmount < 0 {
		errs = append(errs, errors.New("goalAmount cannot be negative"))
	}
	for _, p := range s.FavoriteUnitPrices {
		if p < 0 {
			errs = append(errs, errors.New("favoriteUnitPrices cannot contain negative prices"))
			break
		}
	}
	for _, cfg := range append(append([]ItemConfig(nil), s.IncomeConfig...), s.ExpenseConfig...) {
		if strings.TrimSpace(cfg.Key) == "" {
			errs = append(errs, errors.New("item config key cannot be empty"))
			break
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
	}
	return nil
}

// LookupItem finds the configuration of a custom item and the class it belongs to.
//
// The key is tried first across income then expense items. Entries written by
// older versions only carry the display label, so a label match is the fallback.
func (s Settings) LookupItem(key, name string) (ItemConfig, EntryType, bool) {
	if key != "" {
		if cfg, ok := findBy(s.IncomeConfig, func(c ItemConfig) bool { return c.Key == key }); ok {
			return cfg, Income, true
		}
		if cfg, ok := findBy(s.ExpenseConfig, func(c ItemConfig) bool { return c.Key == key }); ok {
			return cfg, Expense, true
		}
	}
	if name != "" {
		if cfg, ok := findBy(s.IncomeConfig, func(c ItemConfig) bool { return c.Label == name }); ok {
			return cfg, Income, true
		}
		if cfg, ok := findBy(s.ExpenseConfig, func(c ItemConfig) bool { return c.Label == name }); ok {
			return cfg, Expense, true
		}
	}
	return ItemConfig{}, "", false
}

// Label returns the display label for a legacy field or configured item key.
func (s Settings) Label(key string) string {
	if cfg, _, ok := s.LookupItem(key, ""); ok && cfg.Label != "" {
		return cfg.Label
	}
	if label, ok := defaultLabels[key]; ok {
		return label
	}
	return key
}

// ItemLabel returns the display label of a custom item.
func (s Settings) ItemLabel(item CustomItem) string {
	if cfg, _, ok := s.LookupItem(item.Key, item.Name); ok && cfg.Label != "" {
		return cfg.Label
	}
	if item.Name != "" {
		return item.Name
	}
	return item.Key
}

// ItemClass resolves whether a custom item counts as income or expense. The
// item's own type wins; configuration decides for untyped items.
func (s Settings) ItemClass(item CustomItem) (EntryType, bool) {
	if item.Type.Valid() {
		return item.Type, true
	}
	if _, class, ok := s.LookupItem(item.Key, item.Name); ok {
		return class, true
	}
	return "", false
}

func findBy(items []ItemConfig, match func(ItemConfig) bool) (ItemConfig, bool) {
	for _, it := range items {
		if match(it) {
			return it, true
		}
	}
	return ItemConfig{}, false
}

func (p *PriceList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = nil
		return nil
	}
	if data[0] == '[' {
		var prices []Money
		if err := json.Unmarshal(data, &prices); err != nil {
			return fmt.Errorf("decode price list: %w", err)
		}
		*p = prices
		return nil
	}
	var single Money
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("decode price: %w", err)
	}
	*p = PriceList{single}
	return nil
}
