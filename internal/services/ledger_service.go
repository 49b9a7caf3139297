package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"baedal/internal/amqp"
	"baedal/internal/cache"
	"baedal/internal/core"
	"baedal/internal/log"
	"baedal/internal/profit"
	"baedal/internal/store"
)

// ErrInvalidInput marks rejected user input.
var ErrInvalidInput = errors.New("invalid input")

// Publisher announces ledger changes. *amqp.Client implements it.
type Publisher interface {
	PublishEntriesChanged(ctx context.Context, msg *amqp.EntriesChangedMessage) error
}

// SettingsSaver persists settings after an update.
type SettingsSaver func(core.Settings) error

// InstallmentResult reports a scheduled plan.
type InstallmentResult struct {
	GroupID string `json:"groupId"`
	Planned int    `json:"planned"`
	store.ImportResult
}

// LedgerService orchestrates the entry store, change notifications, the
// summary cache and user settings.
type LedgerService struct {
	store     *store.Store
	publisher Publisher
	calc      *profit.Calculator
	summaries *cache.LRUCache[any]
	// generation is part of every cache key and changes on invalidation, so
	// a summary computed from an older snapshot lands under a key that is
	// never read again.
	generation atomic.Uint64

	settingsMu   sync.RWMutex
	settings     core.Settings
	saveSettings SettingsSaver

	now    func() time.Time
	logger *log.Logger
}

type ServiceOption func(*LedgerService)

// WithPublisher enables change notifications.
func WithPublisher(p Publisher) ServiceOption {
	return func(s *LedgerService) { s.publisher = p }
}

// WithSettingsSaver persists settings on update.
func WithSettingsSaver(save SettingsSaver) ServiceOption {
	return func(s *LedgerService) { s.saveSettings = save }
}

// WithSummaryCache replaces the default summary cache.
func WithSummaryCache(c *cache.LRUCache[any]) ServiceOption {
	return func(s *LedgerService) { s.summaries = c }
}

func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *LedgerService) { s.now = now }
}

func WithServiceLogger(l *log.Logger) ServiceOption {
	return func(s *LedgerService) { s.logger = l.WithComponent(log.ComponentLedger) }
}

func NewLedgerService(st *store.Store, settings core.Settings, opts ...ServiceOption) *LedgerService {
	s := &LedgerService{
		store:     st,
		settings:  settings,
		summaries: cache.NewLRUCache[any](128, 5*time.Minute),
		now:       time.Now,
		logger:    log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.calc = profit.NewCalculator(st, s)
	return s
}

// SummaryCache exposes the cache so it can be registered for cleanup.
func (s *LedgerService) SummaryCache() *cache.LRUCache[any] { return s.summaries }

// Settings implements profit.SettingsSource.
func (s *LedgerService) Settings() core.Settings {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()
	return s.settings
}

// UpdateSettings validates, saves and applies new settings.
func (s *LedgerService) UpdateSettings(ctx context.Context, settings core.Settings) (core.Settings, error) {
	if err := settings.Validate(); err != nil {
		return core.Settings{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	s.settingsMu.Lock()
	if s.saveSettings != nil {
		if err := s.saveSettings(settings); err != nil {
			s.settingsMu.Unlock()
			return core.Settings{}, fmt.Errorf("save settings: %w", err)
		}
	}
	s.settings = settings
	s.settingsMu.Unlock()

	s.invalidate()
	s.logger.InfoContext(ctx, "Settings updated",
		"monthly_start_day", settings.MonthlyStartDay,
		"monthly_end_day", settings.MonthlyEndDay)
	return settings, nil
}

// Entries returns the collection newest first, limited to [from, to] when
// either bound is set.
func (s *LedgerService) Entries(from, to core.Date) []core.Entry {
	all := s.store.Entries()
	if from.IsZero() && to.IsZero() {
		return all
	}
	out := all[:0]
	for _, e := range all {
		if !from.IsZero() && e.Date.Before(from.Time) {
			continue
		}
		if !to.IsZero() && e.Date.After(to.Time) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Count returns the number of stored entries.
func (s *LedgerService) Count() int { return s.store.Len() }

func (s *LedgerService) Get(id string) (core.Entry, error) {
	e, ok := s.store.Get(id)
	if !ok {
		return core.Entry{}, fmt.Errorf("%w: %s", core.ErrEntryNotFound, id)
	}
	return e, nil
}

// Save creates an entry, or updates one when e carries an id. force skips
// the duplicate guard on create.
func (s *LedgerService) Save(ctx context.Context, e core.Entry, force bool) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	op := log.OpCreate
	if e.ID != "" {
		op = log.OpUpdate
	}

	var (
		saved core.Entry
		err   error
	)
	if force {
		saved, err = s.store.ForceInsert(ctx, e)
	} else {
		saved, err = s.store.Insert(ctx, e)
	}
	if err != nil {
		s.afterFailedMutation(err)
		return core.Entry{}, err
	}

	s.invalidate()
	msg := amqp.NewEntriesChangedMessage(op, s.store.Len())
	msg.EntryID = saved.ID
	s.publish(ctx, msg)
	s.logger.InfoContext(ctx, "Entry saved",
		log.FieldOperation, op,
		log.FieldEntryID, saved.ID,
		log.FieldEntryType, string(saved.Type),
		log.FieldEntryDate, saved.Date.String())
	return saved, nil
}

// Update replaces the entry stored under id.
func (s *LedgerService) Update(ctx context.Context, id string, e core.Entry) (core.Entry, error) {
	if id == "" {
		return core.Entry{}, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	e.ID = id
	return s.Save(ctx, e, false)
}

func (s *LedgerService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		s.afterFailedMutation(err)
		return err
	}
	s.invalidate()
	msg := amqp.NewEntriesChangedMessage(log.OpDelete, s.store.Len())
	msg.EntryID = id
	msg.Removed = 1
	s.publish(ctx, msg)
	return nil
}

// DeleteGroup removes an installment group, or only its payments after the
// cutoff when after is set.
func (s *LedgerService) DeleteGroup(ctx context.Context, groupID string, after core.Date) (int, error) {
	if groupID == "" {
		return 0, fmt.Errorf("%w: group id is required", ErrInvalidInput)
	}
	removed, err := s.store.DeleteGroup(ctx, groupID, after)
	if err != nil {
		s.afterFailedMutation(err)
		return 0, err
	}
	if removed > 0 {
		s.invalidate()
		msg := amqp.NewEntriesChangedMessage(log.OpDelete, s.store.Len())
		msg.GroupID = groupID
		msg.Removed = removed
		s.publish(ctx, msg)
	}
	return removed, nil
}

// Import merges candidates without duplicating stored entries.
func (s *LedgerService) Import(ctx context.Context, candidates []core.Entry) (store.ImportResult, error) {
	res, err := s.store.BulkImportStrict(ctx, candidates)
	if err != nil {
		s.afterFailedMutation(err)
		return res, err
	}
	if res.Added > 0 {
		s.invalidate()
		msg := amqp.NewEntriesChangedMessage(log.OpImport, s.store.Len())
		msg.Added = res.Added
		msg.Skipped = res.Skipped
		s.publish(ctx, msg)
	}
	s.logger.InfoContext(ctx, "Entries imported",
		log.FieldOperation, log.OpImport,
		"added", res.Added,
		"skipped", res.Skipped)
	return res, nil
}

func (s *LedgerService) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		s.afterFailedMutation(err)
		return err
	}
	s.invalidate()
	s.publish(ctx, amqp.NewEntriesChangedMessage(log.OpClear, 0))
	s.logger.WarnContext(ctx, "Ledger cleared", log.FieldOperation, log.OpClear)
	return nil
}

// ScheduleInstallments generates the plan's payments under a fresh group id
// and imports them.
func (s *LedgerService) ScheduleInstallments(ctx context.Context, plan InstallmentPlan) (InstallmentResult, error) {
	if err := plan.Validate(); err != nil {
		return InstallmentResult{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	groupID := "installment-" + uuid.NewString()
	entries := plan.Entries(groupID, s.Settings())
	if len(entries) == 0 {
		return InstallmentResult{}, fmt.Errorf("%w: plan has no payment dates", ErrInvalidInput)
	}
	res, err := s.Import(ctx, entries)
	return InstallmentResult{GroupID: groupID, Planned: len(entries), ImportResult: res}, err
}

// Installments lists installment groups as of today.
func (s *LedgerService) Installments() []InstallmentGroup {
	now := s.now()
	today := core.NewDate(now.Year(), int(now.Month()), now.Day())
	return GroupInstallments(s.store.Entries(), today)
}

func (s *LedgerService) MonthlySummary(year, month int) profit.Summary {
	return cached(s, "monthly:"+strconv.Itoa(year)+"-"+strconv.Itoa(month), func() profit.Summary {
		return s.calc.MonthlySummary(year, month)
	})
}

func (s *LedgerService) PreviousMonthlySummary(year, month int) profit.Summary {
	return cached(s, "previous:"+strconv.Itoa(year)+"-"+strconv.Itoa(month), func() profit.Summary {
		return s.calc.PreviousMonthlySummary(year, month)
	})
}

func (s *LedgerService) YearlySummary(year int) profit.YearlySummary {
	return cached(s, "yearly:"+strconv.Itoa(year), func() profit.YearlySummary {
		return s.calc.YearlySummary(year)
	})
}

func (s *LedgerService) CumulativeSummary() profit.Summary {
	return cached(s, "cumulative", s.calc.CumulativeSummary)
}

func (s *LedgerService) GoalProgress(year, month int) profit.GoalProgress {
	return cached(s, "goal:"+strconv.Itoa(year)+"-"+strconv.Itoa(month), func() profit.GoalProgress {
		return s.calc.GoalProgress(year, month)
	})
}

func cached[T any](s *LedgerService, key string, compute func() T) T {
	key += "@" + strconv.FormatUint(s.generation.Load(), 10)
	if v, ok := s.summaries.Get(key); ok {
		if out, ok := v.(T); ok {
			return out
		}
	}
	out := compute()
	s.summaries.Set(key, out)
	return out
}

func (s *LedgerService) invalidate() {
	s.generation.Add(1)
	s.summaries.Purge()
}

// afterFailedMutation drops cached summaries when the store applied a
// mutation in memory but could not persist it.
func (s *LedgerService) afterFailedMutation(err error) {
	if errors.Is(err, core.ErrPersistence) {
		s.invalidate()
	}
}

func (s *LedgerService) publish(ctx context.Context, msg *amqp.EntriesChangedMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEntriesChanged(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish entries changed message",
			log.FieldOperation, msg.Operation,
			log.FieldError, err)
	}
}
