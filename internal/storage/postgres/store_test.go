package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"baedal/internal/core"
)

func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres store tests")
	}
	return dsn
}

func mustOpen(t *testing.T) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, getTestDSN(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Save(context.Background(), nil)
		s.Close()
	})
	return s
}

func TestStore_SaveLoad(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()

	entries := []core.Entry{
		{
			ID: "s2", Date: core.NewDate(2024, 6, 2), Type: core.Income, UnitPrice: 800, DeliveryCount: 140,
			CustomItems: []core.CustomItem{{Key: "promotion", Type: core.Income, Amount: 15000}},
			Timestamp:   time.Date(2024, 6, 2, 21, 0, 0, 0, time.UTC),
		},
		{ID: "z1", Date: core.NewDate(2024, 6, 1), Type: core.Expense, FuelCost: 25000, Memo: "주유"},
	}
	if err := s.Save(ctx, entries); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].ID != "s2" || got[1].ID != "z1" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].CustomItems[0].Amount != 15000 || got[1].Memo != "주유" {
		t.Errorf("fields lost: %+v", got)
	}

	if err := s.Save(ctx, entries[1:]); err != nil {
		t.Fatalf("save subset: %v", err)
	}
	got, _ = s.Load(ctx)
	if len(got) != 1 {
		t.Errorf("save did not replace collection: %d rows", len(got))
	}
}

func TestOpen_InvalidDSN(t *testing.T) {
	if _, err := Open(context.Background(), "::not a url::"); err == nil {
		t.Error("Open() accepted an invalid dsn")
	}
}
