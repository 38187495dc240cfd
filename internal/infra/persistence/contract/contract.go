// Package contract holds the behavioural suite every catalog backend must
// pass. Results are compared as sets: backends order rows differently.
package contract

import (
	"context"
	"errors"
	"math"
	"pantry/pkg/domain"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Backend is one set of catalog repositories under test.
type Backend = domain.Repositories

// Factory returns an empty backend for a single subtest.
type Factory func(t *testing.T) Backend

// Run executes the suite, calling open once per case.
func Run(t *testing.T, open Factory) {
	cases := []struct {
		name string
		fn   func(*testing.T, Backend)
	}{
		{"fresh identities", freshIdentities},
		{"update in place", updateInPlace},
		{"round trip", roundTrip},
		{"reference lookup", referenceLookup},
		{"explicit key then minted key", explicitThenMinted},
		{"paging", paging},
		{"paging with huge values", hugePages},
		{"null arguments", nullArguments},
		{"unsupported queries", unsupportedQueries},
		{"deletes", deletes},
		{"find all by id", findAllByID},
		{"cascade and rehydrate", cascadeAndRehydrate},
		{"kind finders", kindFinders},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, open(t))
		})
	}
}

func saveFood(t *testing.T, b Backend, name string) *domain.Food {
	t.Helper()
	f, err := b.Foods.Save(context.Background(), &domain.Food{Name: name})
	if err != nil {
		t.Fatalf("save food %s: %v", name, err)
	}
	return f
}

func count(t *testing.T, c func(context.Context) (int64, error)) int64 {
	t.Helper()
	n, err := c(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func foodNames(foods []*domain.Food) []string {
	out := make([]string, 0, len(foods))
	for _, f := range foods {
		out = append(out, f.Name)
	}
	sort.Strings(out)
	return out
}

func beverageNames(bs []*domain.Beverage) []string {
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.Name)
	}
	sort.Strings(out)
	return out
}

func freshIdentities(t *testing.T, b Backend) {
	seen := map[int64]bool{}
	for _, name := range []string{"a", "b", "c"} {
		f := saveFood(t, b, name)
		if f.ID == 0 || seen[f.ID] {
			t.Fatalf("identity %d is not fresh", f.ID)
		}
		seen[f.ID] = true
	}
	if n := count(t, b.Foods.Count); n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
}

func updateInPlace(t *testing.T, b Backend) {
	ctx := context.Background()
	f := saveFood(t, b, "bread")
	f.Name = "cake"
	if _, err := b.Foods.Save(ctx, f); err != nil {
		t.Fatalf("update: %v", err)
	}
	if n := count(t, b.Foods.Count); n != 1 {
		t.Fatalf("update grew the store to %d", n)
	}
	got, ok, err := b.Foods.FindByID(ctx, f.ID)
	if err != nil || !ok || got.Name != "cake" {
		t.Fatalf("expected cake, got %+v ok=%v err=%v", got, ok, err)
	}
}

func roundTrip(t *testing.T, b Backend) {
	ctx := context.Background()
	saved := saveFood(t, b, "olives")
	found, _, err := b.Foods.FindByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	again, err := b.Foods.Save(ctx, found)
	if err != nil {
		t.Fatalf("resave: %v", err)
	}
	if diff := cmp.Diff(saved, again); diff != "" {
		t.Fatalf("round trip changed entity (-want +got):\n%s", diff)
	}
	if n := count(t, b.Foods.Count); n != 1 {
		t.Fatalf("round trip changed count to %d", n)
	}
}

func referenceLookup(t *testing.T, b Backend) {
	ctx := context.Background()
	f := saveFood(t, b, "figs")
	if ok, _ := b.Foods.ExistsByID(ctx, f.ID); !ok {
		t.Fatalf("expected existence")
	}
	missing := f.ID + 1000
	if ok, _ := b.Foods.ExistsByID(ctx, missing); ok {
		t.Fatalf("unexpected existence")
	}
	if _, ok, err := b.Foods.FindByID(ctx, missing); ok || err != nil {
		t.Fatalf("expected empty result, ok=%v err=%v", ok, err)
	}
	_, err := b.Foods.GetReferenceByID(ctx, missing)
	var nf domain.NotFoundError
	if !errors.Is(err, domain.ErrNotFound) || !errors.As(err, &nf) || nf.Entity != domain.EntityFood {
		t.Fatalf("expected food NotFoundError, got %v", err)
	}
}

func paging(t *testing.T, b Backend) {
	ctx := context.Background()
	for _, n := range []string{"a", "b", "c", "d", "e"} {
		saveFood(t, b, n)
	}
	var seen []*domain.Food
	for page := 0; page < 3; page++ {
		p, err := b.Foods.FindAllPage(ctx, domain.PageOf(page, 2))
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if len(p.Content) > 2 || p.Total != 5 || p.TotalPages() != 3 {
			t.Fatalf("page %d: len=%d total=%d pages=%d", page, len(p.Content), p.Total, p.TotalPages())
		}
		seen = append(seen, p.Content...)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d", "e"}, foodNames(seen)); diff != "" {
		t.Fatalf("pages do not cover the store (-want +got):\n%s", diff)
	}
	past, err := b.Foods.FindAllPage(ctx, domain.PageOf(9, 2))
	if err != nil || len(past.Content) != 0 || past.Total != 5 {
		t.Fatalf("offset past end: %+v %v", past, err)
	}
	if _, err := b.Foods.FindAllPage(ctx, domain.PageOf(-1, 2)); !errors.Is(err, domain.ErrInvalidPage) {
		t.Fatalf("expected ErrInvalidPage, got %v", err)
	}
}

func explicitThenMinted(t *testing.T, b Backend) {
	ctx := context.Background()
	before := saveFood(t, b, "before")
	explicit, err := b.Foods.Save(ctx, &domain.Food{ID: before.ID + 10, Name: "explicit"})
	if err != nil {
		t.Fatalf("save explicit: %v", err)
	}
	minted := saveFood(t, b, "minted")
	if minted.ID <= explicit.ID {
		t.Fatalf("minted id %d does not follow explicit id %d", minted.ID, explicit.ID)
	}
	if n := count(t, b.Foods.Count); n != 3 {
		t.Fatalf("expected 3 saves - 0 deletes, got %d", n)
	}
	got, ok, err := b.Foods.FindByID(ctx, explicit.ID)
	if err != nil || !ok || got.Name != "explicit" {
		t.Fatalf("explicit row lost: %+v ok=%v err=%v", got, ok, err)
	}
}

func hugePages(t *testing.T, b Backend) {
	ctx := context.Background()
	for _, n := range []string{"a", "b", "c"} {
		saveFood(t, b, n)
	}
	all, err := b.Foods.FindAllPage(ctx, domain.PageOf(0, math.MaxInt))
	if err != nil {
		t.Fatalf("first huge page: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, foodNames(all.Content)); diff != "" {
		t.Fatalf("first huge page (-want +got):\n%s", diff)
	}
	if all.HasNext() || all.TotalPages() != 1 {
		t.Fatalf("first huge page: next=%v pages=%d", all.HasNext(), all.TotalPages())
	}
	for _, req := range []domain.PageRequest{
		domain.PageOf(1, math.MaxInt),
		domain.PageOf(math.MaxInt/2, 4),
		domain.PageOf(math.MaxInt, math.MaxInt),
	} {
		p, err := b.Foods.FindAllPage(ctx, req)
		if err != nil {
			t.Fatalf("page %+v: %v", req, err)
		}
		if len(p.Content) != 0 || p.Total != 3 || p.HasNext() {
			t.Fatalf("page %+v: len=%d total=%d next=%v", req, len(p.Content), p.Total, p.HasNext())
		}
	}
}

func nullArguments(t *testing.T, b Backend) {
	ctx := context.Background()
	checks := map[string]error{}
	_, checks["save"] = b.Foods.Save(ctx, nil)
	_, checks["save beverage"] = b.Beverages.Save(ctx, nil)
	_, checks["save all"] = b.Foods.SaveAll(ctx, nil)
	_, checks["save all member"] = b.Places.SaveAll(ctx, []*domain.Place{nil})
	_, checks["find all by id"] = b.Foods.FindAllByID(ctx, nil)
	checks["delete"] = b.Foods.Delete(ctx, nil)
	checks["delete all by id"] = b.Foods.DeleteAllByID(ctx, nil)
	checks["delete all by id in batch"] = b.Foods.DeleteAllByIDInBatch(ctx, nil)
	checks["delete all in batch"] = b.Foods.DeleteAllInBatch(ctx, nil)
	for name, err := range checks {
		if !errors.Is(err, domain.ErrNullArgument) {
			t.Fatalf("%s: expected ErrNullArgument, got %v", name, err)
		}
	}
}

func unsupportedQueries(t *testing.T, b Backend) {
	ctx := context.Background()
	ex := domain.Example[domain.Place]{Probe: &domain.Place{Name: "x"}}
	checks := map[string]error{}
	_, checks["sorted"] = b.Places.FindAllSorted(ctx, domain.Sort{})
	_, checks["find all by example"] = b.Places.FindAllByExample(ctx, ex)
	_, _, checks["find one by example"] = b.Places.FindOneByExample(ctx, ex)
	_, checks["count by example"] = b.Places.CountByExample(ctx, ex)
	_, checks["exists by example"] = b.Places.ExistsByExample(ctx, ex)
	for name, err := range checks {
		if !errors.Is(err, domain.ErrUnsupportedOperation) {
			t.Fatalf("%s: expected ErrUnsupportedOperation, got %v", name, err)
		}
	}
}

func deletes(t *testing.T, b Backend) {
	ctx := context.Background()
	var fs []*domain.Food
	for _, n := range []string{"a", "b", "c", "d", "e", "f"} {
		fs = append(fs, saveFood(t, b, n))
	}
	if err := b.Foods.DeleteByID(ctx, fs[5].ID+1000); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
	if n := count(t, b.Foods.Count); n != 6 {
		t.Fatalf("deleting an absent id changed count to %d", n)
	}
	steps := []error{
		b.Foods.DeleteByID(ctx, fs[0].ID),
		b.Foods.Delete(ctx, fs[1]),
		b.Foods.DeleteAllByID(ctx, []int64{fs[2].ID}),
		b.Foods.DeleteAllByIDInBatch(ctx, []int64{fs[3].ID}),
		b.Foods.DeleteAllInBatch(ctx, []*domain.Food{fs[4]}),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("delete step %d: %v", i, err)
		}
	}
	if n := count(t, b.Foods.Count); n != 1 {
		t.Fatalf("expected 6 saves - 5 deletes, got %d", n)
	}
	if err := b.Foods.DeleteAll(ctx); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if n := count(t, b.Foods.Count); n != 0 {
		t.Fatalf("expected empty, got %d", n)
	}
	if err := b.Foods.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func findAllByID(t *testing.T, b Backend) {
	ctx := context.Background()
	a := saveFood(t, b, "a")
	saveFood(t, b, "b")
	c := saveFood(t, b, "c")
	got, err := b.Foods.FindAllByID(ctx, []int64{c.ID, a.ID, c.ID + 1000})
	if err != nil {
		t.Fatalf("find all by id: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "c"}, foodNames(got)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	none, err := b.Foods.FindAllByID(ctx, []int64{})
	if err != nil || len(none) != 0 {
		t.Fatalf("empty ids: %v %v", none, err)
	}
}

func cascadeAndRehydrate(t *testing.T, b Backend) {
	ctx := context.Background()
	c, err := b.Beverages.SaveAndFlush(ctx, &domain.Beverage{
		Name:  "latte",
		Food:  &domain.Food{Name: "bread"},
		Place: &domain.Place{Name: "cafe"},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if c.Food.ID == 0 || c.Place.ID == 0 {
		t.Fatalf("associations not cascaded: %+v", c)
	}
	if n := count(t, b.Foods.Count); n != 1 {
		t.Fatalf("expected cascaded food, count %d", n)
	}

	a, err := b.Foods.GetReferenceByID(ctx, c.Food.ID)
	if err != nil {
		t.Fatalf("food: %v", err)
	}
	a.Name = "cake"
	if _, err := b.Foods.Save(ctx, a); err != nil {
		t.Fatalf("update food: %v", err)
	}

	got, err := b.Beverages.GetReferenceByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("get beverage: %v", err)
	}
	if got.Food.Name != "cake" || got.Place.Name != "cafe" {
		t.Fatalf("stale associations: food=%q place=%q", got.Food.Name, got.Place.Name)
	}
	all, err := b.Beverages.FindAll(ctx)
	if err != nil || len(all) != 1 || all[0].Food.Name != "cake" {
		t.Fatalf("find all: %+v %v", all, err)
	}
	page, err := b.Beverages.FindAllPage(ctx, domain.PageOf(0, 5))
	if err != nil || len(page.Content) != 1 || page.Content[0].Food.Name != "cake" {
		t.Fatalf("page: %+v %v", page, err)
	}

	got.Place.Name = "bistro"
	if _, err := b.Beverages.Save(ctx, got); err != nil {
		t.Fatalf("save through beverage: %v", err)
	}
	p, err := b.Places.GetReferenceByID(ctx, c.Place.ID)
	if err != nil || p.Name != "bistro" {
		t.Fatalf("cascaded place update not visible: %+v %v", p, err)
	}
	if n := count(t, b.Places.Count); n != 1 {
		t.Fatalf("cascade duplicated place, count %d", n)
	}
}

func kindFinders(t *testing.T, b Backend) {
	ctx := context.Background()
	bar, err := b.Places.Save(ctx, &domain.Place{Name: "bar"})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	olives := saveFood(t, b, "olives")
	rows := []*domain.Beverage{
		{Name: "martini", Food: olives, Place: bar},
		{Name: "negroni", Place: bar},
		{Name: "vermouth", Food: olives},
		{Name: "water"},
	}
	if _, err := b.Beverages.SaveAll(ctx, rows); err != nil {
		t.Fatalf("save all: %v", err)
	}
	atBar, err := b.Beverages.ListByPlaceID(ctx, bar.ID)
	if err != nil {
		t.Fatalf("by place: %v", err)
	}
	withOlives, err := b.Beverages.ListByFoodID(ctx, olives.ID)
	if err != nil {
		t.Fatalf("by food: %v", err)
	}
	if diff := cmp.Diff([]string{"martini", "negroni"}, beverageNames(atBar)); diff != "" {
		t.Fatalf("by place (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"martini", "vermouth"}, beverageNames(withOlives)); diff != "" {
		t.Fatalf("by food (-want +got):\n%s", diff)
	}
	for _, bev := range atBar {
		if bev.Place == nil || bev.Place.Name != "bar" {
			t.Fatalf("finder did not rehydrate place: %+v", bev)
		}
	}
}
