package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/movesion/cardsim/adapters/sqlite"
	"github.com/movesion/cardsim/domain/scenario"
	"github.com/movesion/cardsim/ports"
)

func openTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate error: %v", err)
	}
	return db
}

func testScenario(name string, cards float64) scenario.Scenario {
	horizon := 12
	spend := 200.0
	return scenario.Scenario{
		Name:          name,
		HorizonMonths: &horizon,
		Adoption:      scenario.Adoption{StartActiveCards: &cards},
		Usage:         scenario.Usage{SpendPerActiveCardMonth: &spend},
	}
}

func TestPresetStore_PutAndGet(t *testing.T) {
	store := sqlite.NewPresetStore(openTestDB(t))
	ctx := context.Background()

	preset := ports.Preset{
		Name:        "pilot",
		Description: "Small pilot program",
		Scenario:    testScenario("Pilot", 500),
	}
	if err := store.Put(ctx, preset); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, err := store.Get(ctx, "pilot")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Name != "pilot" || got.Description != "Small pilot program" {
		t.Errorf("got %q / %q", got.Name, got.Description)
	}
	if got.Scenario.Adoption.StartActiveCards == nil || *got.Scenario.Adoption.StartActiveCards != 500 {
		t.Error("scenario did not round-trip")
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not populated")
	}
}

func TestPresetStore_GetMissing(t *testing.T) {
	store := sqlite.NewPresetStore(openTestDB(t))

	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}
}

func TestPresetStore_PutReplaces(t *testing.T) {
	store := sqlite.NewPresetStore(openTestDB(t))
	ctx := context.Background()

	if err := store.Put(ctx, ports.Preset{Name: "pilot", Scenario: testScenario("Pilot", 500)}); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if err := store.Put(ctx, ports.Preset{Name: "pilot", Description: "updated", Scenario: testScenario("Pilot", 800)}); err != nil {
		t.Fatalf("second Put error: %v", err)
	}

	got, err := store.Get(ctx, "pilot")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Description != "updated" {
		t.Errorf("Description = %q, want updated", got.Description)
	}
	if *got.Scenario.Adoption.StartActiveCards != 800 {
		t.Errorf("StartActiveCards = %v, want 800", *got.Scenario.Adoption.StartActiveCards)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("len(List) = %d, want 1", len(all))
	}
}

func TestPresetStore_ListOrdered(t *testing.T) {
	store := sqlite.NewPresetStore(openTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := store.Put(ctx, ports.Preset{Name: name, Scenario: testScenario(name, 100)}); err != nil {
			t.Fatalf("Put %s error: %v", name, err)
		}
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(List) = %d, want 3", len(all))
	}
	want := []string{"alpha", "mid", "zeta"}
	for i, p := range all {
		if p.Name != want[i] {
			t.Errorf("List[%d].Name = %s, want %s", i, p.Name, want[i])
		}
	}
}

func TestPresetStore_Delete(t *testing.T) {
	store := sqlite.NewPresetStore(openTestDB(t))
	ctx := context.Background()

	if err := store.Put(ctx, ports.Preset{Name: "pilot", Scenario: testScenario("Pilot", 500)}); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	if err := store.Delete(ctx, "pilot"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := store.Get(ctx, "pilot"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}

	if err := store.Delete(ctx, "pilot"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}
