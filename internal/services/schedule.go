// Package services provides business logic and orchestration services.
//
// This file holds the due-date strategies used by installment plans. Each
// schedule kind encapsulates how the payment dates of a plan are listed.
package services

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"baedal/internal/core"
)

// MaxInstallmentMonths bounds how far ahead a plan may reach.
const MaxInstallmentMonths = 120

// Schedule lists the due dates of a plan running for months from start.
type Schedule interface {
	Dates(start core.Date, months int) []core.Date
}

// MonthlySchedule pays once a month on the start day. When a month is too
// short the payment falls on its last day.
type MonthlySchedule struct{}

func (MonthlySchedule) Dates(start core.Date, months int) []core.Date {
	dates := make([]core.Date, 0, months)
	day := start.Day()
	for i := 0; i < months; i++ {
		first := time.Date(start.Year(), start.Month()+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		d := min(day, core.DaysIn(first.Year(), int(first.Month())))
		dates = append(dates, core.NewDate(first.Year(), int(first.Month()), d))
	}
	return dates
}

// WeekdaySchedule pays on every selected weekday in [start, start+months).
type WeekdaySchedule struct {
	Weekdays []time.Weekday
}

func (s WeekdaySchedule) Dates(start core.Date, months int) []core.Date {
	if len(s.Weekdays) == 0 {
		return nil
	}
	end := start.AddDate(0, months, 0)
	var dates []core.Date
	for d := start.Time; d.Before(end); d = d.AddDate(0, 0, 1) {
		if slices.Contains(s.Weekdays, d.Weekday()) {
			dates = append(dates, core.Date{Time: d})
		}
	}
	return dates
}

// InstallmentPlan describes a recurring expense split into dated payments.
// Weekdays holds 0 (Sunday) to 6 (Saturday); an empty list means one payment
// a month.
type InstallmentPlan struct {
	StartDate  core.Date  `json:"startDate"`
	Months     int        `json:"months"`
	Weekdays   []int      `json:"weekdays,omitempty"`
	ExpenseKey string     `json:"expenseKey"`
	Amount     core.Money `json:"amount"`
	Memo       string     `json:"memo,omitempty"`
}

var ErrInvalidPlan = errors.New("invalid installment plan")

func (p InstallmentPlan) Validate() error {
	var errs []error
	if p.StartDate.IsZero() {
		errs = append(errs, errors.New("startDate is required"))
	}
	if p.Months < 1 || p.Months > MaxInstallmentMonths {
		errs = append(errs, fmt.Errorf("months must be between 1 and %d", MaxInstallmentMonths))
	}
	if p.ExpenseKey == "" {
		errs = append(errs, errors.New("expenseKey is required"))
	}
	if p.Amount <= 0 {
		errs = append(errs, errors.New("amount must be positive"))
	}
	for _, d := range p.Weekdays {
		if d < 0 || d > 6 {
			errs = append(errs, fmt.Errorf("weekday %d out of range 0..6", d))
			break
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPlan, errors.Join(errs...))
	}
	return nil
}

// Schedule returns the strategy matching the plan.
func (p InstallmentPlan) Schedule() Schedule {
	if len(p.Weekdays) == 0 {
		return MonthlySchedule{}
	}
	days := make([]time.Weekday, len(p.Weekdays))
	for i, d := range p.Weekdays {
		days[i] = time.Weekday(d)
	}
	return WeekdaySchedule{Weekdays: days}
}

// Entries builds one expense entry per due date, all sharing groupID. Each
// carries a single custom item for the plan's expense and a memo ending in
// "(i/n회차)".
func (p InstallmentPlan) Entries(groupID string, settings core.Settings) []core.Entry {
	dates := p.Schedule().Dates(p.StartDate, p.Months)

	label := p.ExpenseKey
	if cfg, _, ok := settings.LookupItem(p.ExpenseKey, ""); ok && cfg.Label != "" {
		label = cfg.Label
	}
	prefix := p.Memo
	if prefix == "" {
		prefix = "할부"
		if len(p.Weekdays) > 0 {
			prefix = "정기결제"
		}
	}

	entries := make([]core.Entry, len(dates))
	for i, d := range dates {
		entries[i] = core.Entry{
			Date: d,
			Type: core.Expense,
			CustomItems: []core.CustomItem{{
				Key:    p.ExpenseKey,
				Name:   label,
				Type:   core.Expense,
				Amount: p.Amount,
				Count:  1,
			}},
			GroupID: groupID,
			Memo:    fmt.Sprintf("%s (%d/%d회차)", prefix, i+1, len(dates)),
		}
	}
	return entries
}

// InstallmentGroup summarises the entries sharing one group id.
type InstallmentGroup struct {
	GroupID    string     `json:"groupId"`
	Title      string     `json:"title"`
	Amount     core.Money `json:"amount"`
	TotalCount int        `json:"totalCount"`
	PaidCount  int        `json:"paidCount"`
	StartDate  core.Date  `json:"startDate"`
	EndDate    core.Date  `json:"endDate"`
	Completed  bool       `json:"completed"`
}

// GroupInstallments collects grouped entries. A payment dated on or before
// today counts as paid. Groups are ordered by start date, newest first.
func GroupInstallments(entries []core.Entry, today core.Date) []InstallmentGroup {
	byID := map[string]*InstallmentGroup{}
	var order []string
	for _, e := range entries {
		if e.GroupID == "" {
			continue
		}
		g, ok := byID[e.GroupID]
		if !ok {
			g = &InstallmentGroup{GroupID: e.GroupID, Title: "알 수 없는 지출", StartDate: e.Date, EndDate: e.Date}
			if len(e.CustomItems) > 0 {
				g.Title = e.CustomItems[0].Name
				if g.Title == "" {
					g.Title = e.CustomItems[0].Key
				}
				g.Amount = e.CustomItems[0].Amount
			}
			byID[e.GroupID] = g
			order = append(order, e.GroupID)
		}
		g.TotalCount++
		if e.Date.Before(g.StartDate.Time) {
			g.StartDate = e.Date
		}
		if e.Date.After(g.EndDate.Time) {
			g.EndDate = e.Date
		}
		if !e.Date.After(today.Time) {
			g.PaidCount++
		}
	}

	out := make([]InstallmentGroup, 0, len(order))
	for _, id := range order {
		g := byID[id]
		g.Completed = g.PaidCount == g.TotalCount
		out = append(out, *g)
	}
	slices.SortStableFunc(out, func(a, b InstallmentGroup) int {
		return b.StartDate.Compare(a.StartDate.Time)
	})
	return out
}
