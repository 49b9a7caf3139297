package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"baedal/internal/core"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "baedal.db")
	repo, err := NewSQLiteRepository(path, nil)
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func fixtureEntries() []core.Entry {
	return []core.Entry{
		{
			ID: "s3", Date: core.NewDate(2024, 4, 2), Type: core.Income, Round: 2, UnitPrice: 750,
			DeliveryCount: 130, ReturnCount: 4, DeliveryInterruptionAmount: 2, FreshBagCount: 6,
			CustomItems: []core.CustomItem{
				{Key: "promotion", Name: "프로모션", Type: core.Income, Amount: 20000},
				{Key: "numbering", Type: core.Income, Count: 3, UnitPrice: 500},
			},
			Timestamp: time.Date(2024, 4, 2, 22, 15, 0, 123000000, time.UTC),
		},
		{
			ID: "z1", Date: core.NewDate(2024, 4, 1), Type: core.Expense,
			PenaltyAmount: 1000, IndustrialAccidentCost: 2000, FuelCost: 30000, MaintenanceCost: 4000,
			VATAmount: 5000, IncomeTaxAmount: 6000, TaxAccountantFee: 7000,
			GroupID: "installment-1", Memo: "보험 (1/3회차)",
		},
		{ID: "s1", Date: core.NewDate(2024, 4, 1), Type: core.Income, UnitPrice: 700, DeliveryCount: 90},
	}
}

func TestSQLiteRepository_SaveLoad(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	want := fixtureEntries()
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() mismatch\n got: %+v\nwant: %+v", got, want)
	}
}

func TestSQLiteRepository_SaveReplacesCollection(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, fixtureEntries()); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, fixtureEntries()[:1]); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "s3" {
		t.Errorf("Load() = %+v, want only s3", got)
	}

	if err := repo.Save(ctx, nil); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.Load(ctx)
	if len(got) != 0 {
		t.Errorf("Load() after empty save = %d entries", len(got))
	}
}

func TestSQLiteRepository_Reopen(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx := context.Background()
	if err := repo.Save(ctx, fixtureEntries()); err != nil {
		t.Fatal(err)
	}
	repo.Close()

	reopened, err := NewSQLiteRepository(path, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("got %d entries after reopen, want 3", len(got))
	}
	if err := reopened.Ready(ctx); err != nil {
		t.Errorf("Ready() error = %v", err)
	}
}

func TestSQLiteRepository_DuplicateIDRollsBack(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	if err := repo.Save(ctx, fixtureEntries()); err != nil {
		t.Fatal(err)
	}

	bad := fixtureEntries()
	bad[2].ID = bad[0].ID
	if err := repo.Save(ctx, bad); err == nil {
		t.Fatal("Save() accepted duplicate ids")
	}
	got, _ := repo.Load(ctx)
	if len(got) != 3 {
		t.Errorf("failed save was not rolled back: %d entries", len(got))
	}
}

func TestCustomItemsCodec(t *testing.T) {
	tests := []struct {
		name  string
		items []core.CustomItem
		want  string
	}{
		{"nil", nil, "[]"},
		{"one", []core.CustomItem{{Key: "tip", Type: core.Income, Amount: 3000}}, `[{"key":"tip","type":"income","amount":3000}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := EncodeCustomItems(tt.items)
			if err != nil {
				t.Fatal(err)
			}
			if s != tt.want {
				t.Errorf("EncodeCustomItems() = %s, want %s", s, tt.want)
			}
			back, err := DecodeCustomItems(s)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(back, tt.items) {
				t.Errorf("DecodeCustomItems() = %+v, want %+v", back, tt.items)
			}
		})
	}

	if _, err := DecodeCustomItems("{broken"); err == nil {
		t.Error("DecodeCustomItems() accepted invalid JSON")
	}
}
