package memory_test

import (
	"context"
	"errors"
	"pantry/internal/infra/persistence/memory"
	"pantry/internal/infra/persistence/memory/memorytest"
	"pantry/pkg/domain"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func saveBeverage(t *testing.T, repo domain.BeverageRepository, b *domain.Beverage) *domain.Beverage {
	t.Helper()
	saved, err := repo.Save(context.Background(), b)
	if err != nil {
		t.Fatalf("save beverage %s: %v", b.Name, err)
	}
	return saved
}

func TestBeverageSaveCascadesAssociations(t *testing.T) {
	ctx := context.Background()
	cat := memorytest.Catalog(t)

	in := &domain.Beverage{
		Name:  "espresso",
		Food:  &domain.Food{Name: "bread"},
		Place: &domain.Place{Name: "cafe"},
	}
	saved := saveBeverage(t, cat.Beverages, in)
	if saved.ID == 0 || saved.Food.ID == 0 || saved.Place.ID == 0 {
		t.Fatalf("expected identities on beverage and associations: %+v", saved)
	}
	if in.Food.ID != saved.Food.ID || in.ID != saved.ID {
		t.Fatalf("expected caller entity updated in place")
	}
	if n, _ := cat.Foods.Count(ctx); n != 1 {
		t.Fatalf("expected cascaded food, count %d", n)
	}
	if n, _ := cat.Places.Count(ctx); n != 1 {
		t.Fatalf("expected cascaded place, count %d", n)
	}

	got, ok, err := cat.Beverages.FindByID(ctx, saved.ID)
	if err != nil || !ok {
		t.Fatalf("find: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(saved, got); diff != "" {
		t.Fatalf("read back differs (-want +got):\n%s", diff)
	}
}

func TestBeverageModifyAndDelete(t *testing.T) {
	ctx := context.Background()
	cat := memorytest.Catalog(t)
	first := saveBeverage(t, cat.Beverages, &domain.Beverage{Name: "tea", Food: &domain.Food{Name: "scone"}})
	second := saveBeverage(t, cat.Beverages, &domain.Beverage{Name: "wine", Place: &domain.Place{Name: "bar"}})

	first.Name = "green tea"
	saveBeverage(t, cat.Beverages, first)
	got, _ := cat.Beverages.GetReferenceByID(ctx, first.ID)
	if got.Name != "green tea" || got.Food.Name != "scone" {
		t.Fatalf("unexpected modified beverage %+v", got)
	}
	if n, _ := cat.Beverages.Count(ctx); n != 2 {
		t.Fatalf("modify must not add a row, count %d", n)
	}

	if err := cat.Beverages.DeleteByID(ctx, first.ID); err != nil {
		t.Fatalf("delete by id: %v", err)
	}
	if err := cat.Beverages.Delete(ctx, second); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n, _ := cat.Beverages.Count(ctx); n != 0 {
		t.Fatalf("expected no beverages, count %d", n)
	}
	if n, _ := cat.Foods.Count(ctx); n != 1 {
		t.Fatalf("deleting a beverage must not delete its food, count %d", n)
	}
}

func TestAssociationUpdatesAreVisibleThroughOwner(t *testing.T) {
	ctx := context.Background()
	reg := memorytest.Registry(t)
	r1, err := memory.NewBeverageRepository(reg)
	if err != nil {
		t.Fatalf("r1: %v", err)
	}
	c := saveBeverage(t, r1, &domain.Beverage{Name: "latte", Food: &domain.Food{Name: "bread"}})

	r2, _ := memory.NewBeverageRepository(reg)
	foods, _ := memory.NewFoodRepository(reg)
	if r1.Store() != r2.Store() {
		t.Fatalf("composite handles must share a store")
	}

	a, ok, _ := foods.FindByID(ctx, c.Food.ID)
	if !ok {
		t.Fatalf("cascaded food missing from food store")
	}
	a.Name = "cake"
	if _, err := foods.Save(ctx, a); err != nil {
		t.Fatalf("update food: %v", err)
	}

	for name, repo := range map[string]*memory.BeverageRepository{"r1": r1, "r2": r2} {
		got, err := repo.GetReferenceByID(ctx, c.ID)
		if err != nil {
			t.Fatalf("%s get: %v", name, err)
		}
		if got.Food.Name != "cake" {
			t.Fatalf("%s: expected association name cake, got %q", name, got.Food.Name)
		}
		all, _ := repo.FindAll(ctx)
		if len(all) != 1 || all[0].Food.Name != "cake" {
			t.Fatalf("%s: find all returned stale association %+v", name, all)
		}
	}
}

func TestFoodUpdatedThroughBeverageIsVisibleToFoods(t *testing.T) {
	ctx := context.Background()
	cat := memorytest.Catalog(t)
	b := saveBeverage(t, cat.Beverages, &domain.Beverage{Name: "cider", Food: &domain.Food{Name: "apple"}})

	b.Food.Name = "apple pie"
	saveBeverage(t, cat.Beverages, b)

	f, err := cat.Foods.GetReferenceByID(ctx, b.Food.ID)
	if err != nil {
		t.Fatalf("get food: %v", err)
	}
	if f.Name != "apple pie" {
		t.Fatalf("expected cascaded rename, got %q", f.Name)
	}
	if n, _ := cat.Foods.Count(ctx); n != 1 {
		t.Fatalf("cascade must update in place, count %d", n)
	}
}

func TestBeverageFinders(t *testing.T) {
	ctx := context.Background()
	cat := memorytest.Catalog(t)
	bar, _ := cat.Places.Save(ctx, &domain.Place{Name: "bar"})
	cafe, _ := cat.Places.Save(ctx, &domain.Place{Name: "cafe"})
	olives, _ := cat.Foods.Save(ctx, &domain.Food{Name: "olives"})

	saveBeverage(t, cat.Beverages, &domain.Beverage{Name: "martini", Food: olives, Place: bar})
	saveBeverage(t, cat.Beverages, &domain.Beverage{Name: "espresso", Place: cafe})
	saveBeverage(t, cat.Beverages, &domain.Beverage{Name: "vermouth", Food: olives, Place: bar})
	saveBeverage(t, cat.Beverages, &domain.Beverage{Name: "water"})

	atBar, err := cat.Beverages.ListByPlaceID(ctx, bar.ID)
	if err != nil {
		t.Fatalf("list by place: %v", err)
	}
	withOlives, err := cat.Beverages.ListByFoodID(ctx, olives.ID)
	if err != nil {
		t.Fatalf("list by food: %v", err)
	}
	beverageNames := func(bs []*domain.Beverage) []string {
		out := []string{}
		for _, b := range bs {
			out = append(out, b.Name)
		}
		return out
	}
	if diff := cmp.Diff([]string{"martini", "vermouth"}, beverageNames(atBar)); diff != "" {
		t.Fatalf("by place (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"martini", "vermouth"}, beverageNames(withOlives)); diff != "" {
		t.Fatalf("by food (-want +got):\n%s", diff)
	}
	none, _ := cat.Beverages.ListByPlaceID(ctx, 4242)
	if len(none) != 0 {
		t.Fatalf("expected no beverages at unknown place")
	}
}

func TestBeveragePagesResolveAssociations(t *testing.T) {
	ctx := context.Background()
	cat := memorytest.Catalog(t)
	for _, n := range []string{"a", "b", "c"} {
		saveBeverage(t, cat.Beverages, &domain.Beverage{Name: n, Food: &domain.Food{Name: "food-" + n}})
	}
	foods, _ := cat.Foods.FindAll(ctx)
	for _, f := range foods {
		f.Name += "!"
		if _, err := cat.Foods.Save(ctx, f); err != nil {
			t.Fatalf("rename: %v", err)
		}
	}

	page, err := cat.Beverages.FindAllPage(ctx, domain.PageOf(1, 2))
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page.Content) != 1 || page.Content[0].Food.Name != "food-c!" {
		t.Fatalf("unexpected page %+v", page.Content)
	}
	byID, _ := cat.Beverages.FindAllByID(ctx, []int64{1, 2})
	for _, b := range byID {
		if b.Food.Name != "food-"+b.Name+"!" {
			t.Fatalf("stale association on %s: %q", b.Name, b.Food.Name)
		}
	}
}

func TestDanglingAssociationFailsRead(t *testing.T) {
	ctx := context.Background()
	cat := memorytest.Catalog(t)
	b := saveBeverage(t, cat.Beverages, &domain.Beverage{Name: "mead", Place: &domain.Place{Name: "hall"}})
	if err := cat.Places.DeleteByID(ctx, b.Place.ID); err != nil {
		t.Fatalf("delete place: %v", err)
	}
	if _, err := cat.Beverages.GetReferenceByID(ctx, b.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for dangling place, got %v", err)
	}
	if _, _, err := cat.Beverages.FindByID(ctx, b.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from find, got %v", err)
	}
}

func TestBeverageNullArguments(t *testing.T) {
	ctx := context.Background()
	cat := memorytest.Catalog(t)
	if _, err := cat.Beverages.Save(ctx, nil); !errors.Is(err, domain.ErrNullArgument) {
		t.Fatalf("expected ErrNullArgument, got %v", err)
	}
	_, err := cat.Beverages.SaveAll(ctx, []*domain.Beverage{{Name: "ok", Food: &domain.Food{Name: "x"}}, nil})
	if !errors.Is(err, domain.ErrNullArgument) {
		t.Fatalf("expected ErrNullArgument, got %v", err)
	}
	if n, _ := cat.Foods.Count(ctx); n != 0 {
		t.Fatalf("rejected batch must not cascade, food count %d", n)
	}
}
