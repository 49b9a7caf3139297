package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"baedal/internal/core"
	"baedal/internal/log"
)

type fakePersister struct {
	mu      sync.Mutex
	stored  []core.Entry
	saves   int
	saveErr error
	loadErr error
}

func (f *fakePersister) Load(context.Context) ([]core.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return append([]core.Entry(nil), f.stored...), nil
}

func (f *fakePersister) Save(_ context.Context, entries []core.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.stored = append([]core.Entry(nil), entries...)
	return nil
}

var fixedNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

func openStore(t *testing.T, p *fakePersister) *Store {
	t.Helper()
	s, err := Open(context.Background(), p, WithClock(func() time.Time { return fixedNow }), WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

func incomeEntry(date core.Date, deliveries core.Count) core.Entry {
	return core.Entry{Date: date, Type: core.Income, Round: 1, UnitPrice: 700, DeliveryCount: deliveries}
}

func expenseEntry(date core.Date, fuel core.Money) core.Entry {
	return core.Entry{Date: date, Type: core.Expense, FuelCost: fuel}
}

func TestStore_InsertAssignsIDsAndTimestamp(t *testing.T) {
	p := &fakePersister{}
	s := openStore(t, p)
	ctx := context.Background()

	first, err := s.Insert(ctx, incomeEntry(core.NewDate(2024, 3, 1), 100))
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	second, err := s.Insert(ctx, expenseEntry(core.NewDate(2024, 3, 1), 15000))
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	third, err := s.Insert(ctx, incomeEntry(core.NewDate(2024, 3, 2), 90))
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if first.ID != "s1" || second.ID != "z1" || third.ID != "s2" {
		t.Errorf("ids = %s, %s, %s; want s1, z1, s2", first.ID, second.ID, third.ID)
	}
	if !first.Timestamp.Equal(fixedNow) {
		t.Errorf("timestamp = %v, want %v", first.Timestamp, fixedNow)
	}
	if p.saves != 3 {
		t.Errorf("saves = %d, want 3", p.saves)
	}
	if len(p.stored) != 3 || p.stored[0].ID != "s2" {
		t.Errorf("persisted collection not sorted date-desc: %+v", p.stored)
	}
}

func TestStore_InsertRejectsDuplicate(t *testing.T) {
	p := &fakePersister{}
	s := openStore(t, p)
	ctx := context.Background()

	e := incomeEntry(core.NewDate(2024, 1, 15), 120)
	if _, err := s.Insert(ctx, e); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	savesBefore := p.saves

	e.Memo = "submitted twice"
	_, err := s.Insert(ctx, e)
	if !errors.Is(err, core.ErrDuplicateEntry) {
		t.Fatalf("Insert() error = %v, want ErrDuplicateEntry", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
	if p.saves != savesBefore {
		t.Errorf("duplicate create must not persist")
	}

	forced, err := s.ForceInsert(ctx, e)
	if err != nil {
		t.Fatalf("ForceInsert() error = %v", err)
	}
	if forced.ID != "s2" || s.Len() != 2 {
		t.Errorf("ForceInsert() id = %s len = %d, want s2 and 2", forced.ID, s.Len())
	}
}

func TestStore_DifferentRoundIsNotDuplicate(t *testing.T) {
	s := openStore(t, &fakePersister{})
	ctx := context.Background()

	e := incomeEntry(core.NewDate(2024, 1, 15), 120)
	if _, err := s.Insert(ctx, e); err != nil {
		t.Fatal(err)
	}
	e.Round = 2
	if _, err := s.Insert(ctx, e); err != nil {
		t.Errorf("second round rejected: %v", err)
	}
}

func TestStore_UpdateKeepsIDAndTimestamp(t *testing.T) {
	s := openStore(t, &fakePersister{})
	ctx := context.Background()

	created, err := s.Insert(ctx, incomeEntry(core.NewDate(2024, 2, 1), 50))
	if err != nil {
		t.Fatal(err)
	}

	edit := created
	edit.Timestamp = time.Time{}
	edit.DeliveryCount = 80
	updated, err := s.Insert(ctx, edit)
	if err != nil {
		t.Fatalf("update error = %v", err)
	}
	if updated.ID != created.ID || !updated.Timestamp.Equal(created.Timestamp) {
		t.Errorf("update changed identity: %+v", updated)
	}
	got, ok := s.Get(created.ID)
	if !ok || got.DeliveryCount != 80 {
		t.Errorf("Get() = %+v, %v", got, ok)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestStore_UpdateUnknownID(t *testing.T) {
	s := openStore(t, &fakePersister{})
	e := incomeEntry(core.NewDate(2024, 2, 1), 50)
	e.ID = "s99"
	if _, err := s.Insert(context.Background(), e); !errors.Is(err, core.ErrEntryNotFound) {
		t.Errorf("error = %v, want ErrEntryNotFound", err)
	}
}

func TestStore_UpdateMergesIntoStoredRecord(t *testing.T) {
	s := openStore(t, &fakePersister{})
	ctx := context.Background()

	e := incomeEntry(core.NewDate(2024, 2, 1), 50)
	e.GroupID = "installment-g"
	e.Memo = "할부 (1/3회차)"
	e.Round = 1
	e.CustomItems = []core.CustomItem{{Key: "promotion", Name: "프로모션", Type: core.Income, Amount: 1000, Count: 1}}
	created, err := s.Insert(ctx, e)
	if err != nil {
		t.Fatal(err)
	}

	edit := core.Entry{
		ID:            created.ID,
		Date:          core.NewDate(2024, 2, 2),
		Type:          core.Income,
		UnitPrice:     800,
		DeliveryCount: 60,
	}
	updated, err := s.Insert(ctx, edit)
	if err != nil {
		t.Fatalf("update error = %v", err)
	}

	got, _ := s.Get(created.ID)
	for _, entry := range []core.Entry{updated, got} {
		if entry.GroupID != "installment-g" || entry.Memo != "할부 (1/3회차)" || entry.Round != 1 {
			t.Errorf("merge dropped fields: group=%q memo=%q round=%d", entry.GroupID, entry.Memo, entry.Round)
		}
		if len(entry.CustomItems) != 1 {
			t.Errorf("custom items = %v, want the stored item", entry.CustomItems)
		}
		if entry.UnitPrice != 800 || entry.DeliveryCount != 60 || !entry.Date.Equal(core.NewDate(2024, 2, 2)) {
			t.Errorf("update not applied: %+v", entry)
		}
	}

	if n, err := s.DeleteGroup(ctx, "installment-g", core.Date{}); err != nil || n != 1 {
		t.Errorf("DeleteGroup() = %d, %v, want 1 removed", n, err)
	}
}

func TestStore_UpdateEmptyCustomItemsClears(t *testing.T) {
	s := openStore(t, &fakePersister{})
	ctx := context.Background()

	e := incomeEntry(core.NewDate(2024, 2, 1), 50)
	e.CustomItems = []core.CustomItem{{Key: "promotion", Name: "프로모션", Type: core.Income, Amount: 1000, Count: 1}}
	created, err := s.Insert(ctx, e)
	if err != nil {
		t.Fatal(err)
	}
	created.CustomItems = []core.CustomItem{}
	updated, err := s.Insert(ctx, created)
	if err != nil {
		t.Fatal(err)
	}
	if len(updated.CustomItems) != 0 {
		t.Errorf("custom items = %v, want none", updated.CustomItems)
	}
}

func TestStore_UpdateRejectsTypeChange(t *testing.T) {
	s := openStore(t, &fakePersister{})
	ctx := context.Background()

	created, err := s.Insert(ctx, incomeEntry(core.NewDate(2024, 2, 1), 50))
	if err != nil {
		t.Fatal(err)
	}
	edit := created
	edit.Type = core.Expense
	if _, err := s.Insert(ctx, edit); !errors.Is(err, core.ErrInvalidType) {
		t.Fatalf("error = %v, want ErrInvalidType", err)
	}
	got, _ := s.Get(created.ID)
	if got.Type != core.Income {
		t.Errorf("stored type = %s, want income", got.Type)
	}
}

func TestStore_RecoversSequences(t *testing.T) {
	p := &fakePersister{stored: []core.Entry{
		{ID: "s1", Type: core.Income, Date: core.NewDate(2024, 1, 1), DeliveryCount: 1},
		{ID: "s3", Type: core.Income, Date: core.NewDate(2024, 1, 2), DeliveryCount: 2},
		{ID: "z2", Type: core.Expense, Date: core.NewDate(2024, 1, 2), FuelCost: 3},
	}}
	s := openStore(t, p)
	ctx := context.Background()

	inc, err := s.Insert(ctx, incomeEntry(core.NewDate(2024, 1, 3), 10))
	if err != nil {
		t.Fatal(err)
	}
	exp, err := s.Insert(ctx, expenseEntry(core.NewDate(2024, 1, 3), 10))
	if err != nil {
		t.Fatal(err)
	}
	if inc.ID != "s4" || exp.ID != "z3" {
		t.Errorf("ids = %s, %s; want s4, z3", inc.ID, exp.ID)
	}
}

func TestStore_DeleteNeverReusesIDs(t *testing.T) {
	s := openStore(t, &fakePersister{})
	ctx := context.Background()

	a, _ := s.Insert(ctx, incomeEntry(core.NewDate(2024, 1, 1), 1))
	b, _ := s.Insert(ctx, incomeEntry(core.NewDate(2024, 1, 2), 2))
	if err := s.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	c, _ := s.Insert(ctx, incomeEntry(core.NewDate(2024, 1, 3), 3))
	if a.ID != "s1" || c.ID != "s3" {
		t.Errorf("ids = %s, %s; want s1, s3", a.ID, c.ID)
	}
	if err := s.Delete(ctx, "s42"); !errors.Is(err, core.ErrEntryNotFound) {
		t.Errorf("Delete(unknown) error = %v", err)
	}
}

func TestStore_ClearResetsSequences(t *testing.T) {
	p := &fakePersister{}
	s := openStore(t, p)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if _, err := s.Insert(ctx, incomeEntry(core.NewDate(2024, 1, i), core.Count(i))); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if s.Len() != 0 || len(p.stored) != 0 {
		t.Errorf("store not empty after Clear")
	}
	e, err := s.Insert(ctx, incomeEntry(core.NewDate(2024, 1, 1), 1))
	if err != nil {
		t.Fatal(err)
	}
	if e.ID != "s1" {
		t.Errorf("id after Clear = %s, want s1", e.ID)
	}
}

func TestStore_BulkImportStrict(t *testing.T) {
	s := openStore(t, &fakePersister{})
	ctx := context.Background()

	existing, err := s.Insert(ctx, incomeEntry(core.NewDate(2024, 1, 1), 100))
	if err != nil {
		t.Fatal(err)
	}

	stamp := time.Date(2023, 12, 31, 8, 0, 0, 0, time.UTC)
	batch := []core.Entry{
		{ID: "s77", Date: existing.Date, Type: core.Income, Round: 1, UnitPrice: 700, DeliveryCount: 100},
		{Date: core.NewDate(2024, 1, 2), Type: core.Income, UnitPrice: 700, DeliveryCount: 80, Timestamp: stamp},
		{Date: core.NewDate(2024, 1, 2), Type: core.Income, UnitPrice: 700, DeliveryCount: 80},
		{Date: core.NewDate(2024, 1, 2), Type: core.Expense, FuelCost: 12000},
		{Date: core.NewDate(2024, 1, 3), Type: "transfer"},
	}

	res, err := s.BulkImportStrict(ctx, batch)
	if err != nil {
		t.Fatalf("BulkImportStrict() error = %v", err)
	}
	if res.Added != 2 || res.Skipped != 3 {
		t.Errorf("result = %+v, want added 2 skipped 3", res)
	}

	imported, ok := s.Get("s2")
	if !ok {
		t.Fatal("imported income not stored as s2")
	}
	if !imported.Timestamp.Equal(stamp) {
		t.Errorf("import dropped original timestamp: %v", imported.Timestamp)
	}
	if _, ok := s.Get("z1"); !ok {
		t.Error("imported expense not stored as z1")
	}
	if _, ok := s.Get("s77"); ok {
		t.Error("import kept a foreign id")
	}

	again, err := s.BulkImportStrict(ctx, batch)
	if err != nil {
		t.Fatal(err)
	}
	if again.Added != 0 {
		t.Errorf("second import added %d entries", again.Added)
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
}

func TestStore_DeleteGroup(t *testing.T) {
	s := openStore(t, &fakePersister{})
	ctx := context.Background()

	for m := 1; m <= 4; m++ {
		e := expenseEntry(core.NewDate(2024, m, 5), 50000)
		e.GroupID = "installment-abc"
		if _, err := s.ForceInsert(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Insert(ctx, expenseEntry(core.NewDate(2024, 3, 5), 1000)); err != nil {
		t.Fatal(err)
	}

	n, err := s.DeleteGroup(ctx, "installment-abc", core.NewDate(2024, 2, 5))
	if err != nil {
		t.Fatalf("DeleteGroup() error = %v", err)
	}
	if n != 2 || s.Len() != 3 {
		t.Errorf("removed %d, len %d; want 2 and 3", n, s.Len())
	}

	n, err = s.DeleteGroup(ctx, "installment-abc", core.Date{})
	if err != nil || n != 2 {
		t.Errorf("DeleteGroup(all) = %d, %v", n, err)
	}
	if _, err := s.DeleteGroup(ctx, "installment-abc", core.Date{}); !errors.Is(err, core.ErrEntryNotFound) {
		t.Errorf("empty group error = %v", err)
	}
}

func TestStore_PersistenceFailure(t *testing.T) {
	diskFull := errors.New("disk full")
	p := &fakePersister{}
	s := openStore(t, p)
	p.saveErr = diskFull

	e, err := s.Insert(context.Background(), incomeEntry(core.NewDate(2024, 5, 1), 10))
	if !errors.Is(err, core.ErrPersistence) || !errors.Is(err, diskFull) {
		t.Fatalf("error = %v, want ErrPersistence wrapping cause", err)
	}
	if errors.Is(err, core.ErrDuplicateEntry) {
		t.Error("persistence failure reported as duplicate")
	}
	if e.ID != "s1" || s.Len() != 1 {
		t.Errorf("in-memory change not kept: %+v len=%d", e, s.Len())
	}
}

func TestOpen_LoadFailure(t *testing.T) {
	_, err := Open(context.Background(), &fakePersister{loadErr: errors.New("corrupt")}, WithLogger(log.Discard()))
	if !errors.Is(err, core.ErrPersistence) {
		t.Errorf("Open() error = %v, want ErrPersistence", err)
	}
}

func TestStore_EntriesIsSnapshot(t *testing.T) {
	s := openStore(t, &fakePersister{})
	ctx := context.Background()
	e := incomeEntry(core.NewDate(2024, 1, 1), 1)
	e.CustomItems = []core.CustomItem{{Key: "promo", Type: core.Income, Amount: 5000}}
	if _, err := s.Insert(ctx, e); err != nil {
		t.Fatal(err)
	}

	snap := s.Entries()
	snap[0].CustomItems[0].Amount = 1
	snap[0].DeliveryCount = 999

	got, _ := s.Get("s1")
	if got.DeliveryCount != 1 || got.CustomItems[0].Amount != 5000 {
		t.Errorf("snapshot aliases store state: %+v", got)
	}
}
