package memory_test

import (
	"context"
	"pantry/internal/infra/persistence/memory"
	"pantry/internal/infra/persistence/memory/memorytest"
	"pantry/pkg/domain"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	cat := memorytest.Catalog(t)
	saveBeverage(t, cat.Beverages, &domain.Beverage{
		Name:  "porter",
		Food:  &domain.Food{Name: "stew"},
		Place: &domain.Place{Name: "pub"},
	})
	snap := cat.ExportState()

	want := memory.Snapshot{
		Foods:     []domain.Food{{ID: 1, Name: "stew"}},
		Places:    []domain.Place{{ID: 1, Name: "pub"}},
		Beverages: []domain.Beverage{{ID: 1, Name: "porter", Food: &domain.Food{ID: 1}, Place: &domain.Place{ID: 1}}},
		Counters:  map[domain.EntityType]int64{domain.EntityFood: 1, domain.EntityPlace: 1, domain.EntityBeverage: 1},
	}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Fatalf("export (-want +got):\n%s", diff)
	}

	if err := cat.Beverages.DeleteAll(ctx); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	cat.ImportState(snap)
	got, err := cat.Beverages.GetReferenceByID(ctx, 1)
	if err != nil {
		t.Fatalf("restored beverage: %v", err)
	}
	if got.Food.Name != "stew" || got.Place.Name != "pub" {
		t.Fatalf("restored beverage not rehydrated: %+v", got)
	}
	next, _ := cat.Foods.Save(ctx, &domain.Food{Name: "bread"})
	if next.ID != 2 {
		t.Fatalf("restored counter should mint 2, got %d", next.ID)
	}
}

func TestImportWithoutCountersUsesHighestIdentity(t *testing.T) {
	ctx := context.Background()
	cat := memorytest.Catalog(t)
	cat.ImportState(memory.Snapshot{Foods: []domain.Food{{ID: 3, Name: "a"}, {ID: 11, Name: "b"}}})
	f, _ := cat.Foods.Save(ctx, &domain.Food{Name: "c"})
	if f.ID != 12 {
		t.Fatalf("expected 12, got %d", f.ID)
	}
}

func TestImportIgnoresStaleCounter(t *testing.T) {
	ctx := context.Background()
	cat := memorytest.Catalog(t)
	cat.ImportState(memory.Snapshot{
		Foods:    []domain.Food{{ID: 1, Name: "a"}, {ID: 5, Name: "b"}},
		Counters: map[domain.EntityType]int64{domain.EntityFood: 2, domain.EntityPlace: 9},
	})
	f, err := cat.Foods.Save(ctx, &domain.Food{Name: "c"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if f.ID != 6 {
		t.Fatalf("expected 6, got %d", f.ID)
	}
	if n, _ := cat.Foods.Count(ctx); n != 3 {
		t.Fatalf("restored row evicted, count %d", n)
	}
	p, _ := cat.Places.Save(ctx, &domain.Place{Name: "cellar"})
	if p.ID != 10 {
		t.Fatalf("expected recorded place counter to win, got %d", p.ID)
	}
}

func TestCheckpointRestoresOnCleanup(t *testing.T) {
	ctx := context.Background()
	cat := memorytest.Catalog(t)
	if _, err := cat.Foods.Save(ctx, &domain.Food{Name: "base"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	t.Run("mutate", func(t *testing.T) {
		memorytest.Checkpoint(t, cat)
		if err := cat.Foods.DeleteAll(ctx); err != nil {
			t.Fatalf("delete all: %v", err)
		}
		if _, err := cat.Foods.Save(ctx, &domain.Food{Name: "scratch"}); err != nil {
			t.Fatalf("save: %v", err)
		}
	})

	all, _ := cat.Foods.FindAll(ctx)
	if len(all) != 1 || all[0].Name != "base" {
		t.Fatalf("checkpoint not restored: %+v", all)
	}
}

func TestSharedRegistryIsProcessWide(t *testing.T) {
	ctx := context.Background()
	first := memorytest.Shared(t)
	second, err := memory.NewCatalog(memory.Shared())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if _, err := first.Places.Save(ctx, &domain.Place{Name: "dock"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if n, _ := second.Places.Count(ctx); n != 1 {
		t.Fatalf("shared registry not shared, count %d", n)
	}
}
