package memory

import (
	"errors"
	"fmt"
	"math"
	"pantry/pkg/domain"
	"sync"
	"testing"
)

type note struct {
	ID   string
	Body string
}

var noteKind = Kind[note, string]{
	Name:  "note",
	ID:    func(n *note) string { return n.ID },
	SetID: func(n *note, id string) { n.ID = id },
}

type ticket struct {
	ID    int32
	Title string
}

var ticketKind = Kind[ticket, int32]{
	Name:  "ticket",
	ID:    func(t *ticket) int32 { return t.ID },
	SetID: func(t *ticket, id int32) { t.ID = id },
}

type recordingLogger struct {
	noopLogger
	warns []string
}

func (l *recordingLogger) Warn(msg string, _ ...any) { l.warns = append(l.warns, msg) }

func newFoodStore(t *testing.T) *EntityStore[domain.Food, int64] {
	t.Helper()
	s, err := NewEntityStore(FoodKind)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func names(foods []*domain.Food) []string {
	out := make([]string, 0, len(foods))
	for _, f := range foods {
		out = append(out, f.Name)
	}
	return out
}

func TestEntityStoreUpsertOrder(t *testing.T) {
	s := newFoodStore(t)
	s.Upsert(&domain.Food{ID: 1, Name: "bread"})
	s.Upsert(&domain.Food{ID: 2, Name: "cheese"})
	s.Upsert(&domain.Food{ID: 3, Name: "olives"})
	s.Upsert(&domain.Food{ID: 1, Name: "cake"})

	if s.Count() != 3 {
		t.Fatalf("expected 3 entries after replacement, got %d", s.Count())
	}
	got := fmt.Sprint(names(s.List()))
	if got != "[cheese olives cake]" {
		t.Fatalf("unexpected order %s", got)
	}
}

func TestEntityStoreClonesOnTheWayInAndOut(t *testing.T) {
	s := newFoodStore(t)
	f := &domain.Food{ID: 7, Name: "bread"}
	s.Upsert(f)
	f.Name = "mutated after upsert"

	found, ok := s.Find(7)
	if !ok || found.Name != "bread" {
		t.Fatalf("store aliased caller value: %+v", found)
	}
	found.Name = "mutated after find"
	again, _ := s.Find(7)
	if again.Name != "bread" {
		t.Fatalf("store aliased returned value: %+v", again)
	}
}

func TestEntityStoreRemoveWhere(t *testing.T) {
	s := newFoodStore(t)
	for i := int64(1); i <= 5; i++ {
		s.Upsert(&domain.Food{ID: i, Name: fmt.Sprintf("f%d", i)})
	}
	removed := s.RemoveWhere(func(f *domain.Food) bool { return f.ID%2 == 0 })
	if removed != 2 || s.Count() != 3 {
		t.Fatalf("expected 2 removed and 3 left, got %d and %d", removed, s.Count())
	}
	if s.Contains(2) || !s.Contains(3) {
		t.Fatalf("unexpected membership after removal")
	}
	if n := s.RemoveWhere(func(*domain.Food) bool { return false }); n != 0 {
		t.Fatalf("expected no removals, got %d", n)
	}
}

func TestEntityStoreClearKeepsCounterResetRestartsIt(t *testing.T) {
	s := newFoodStore(t)
	first, err := s.Insert(&domain.Food{Name: "bread"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	s.Clear()
	if s.Count() != 0 {
		t.Fatalf("expected empty store after clear")
	}
	second, _ := s.Insert(&domain.Food{Name: "cake"})
	if second.ID <= first.ID {
		t.Fatalf("clear must not reuse keys: first %d second %d", first.ID, second.ID)
	}

	s.Reset()
	third, _ := s.Insert(&domain.Food{Name: "pie"})
	if third.ID != 1 {
		t.Fatalf("reset should restart the counter, got %d", third.ID)
	}
}

func TestEntityStoreInsertWritesKeyBack(t *testing.T) {
	s := newFoodStore(t)
	f := &domain.Food{Name: "bread"}
	stored, err := s.Insert(f)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if f.ID == 0 || f.ID != stored.ID {
		t.Fatalf("expected key written back, caller %d stored %d", f.ID, stored.ID)
	}
}

func TestKeyAssignerIsNew(t *testing.T) {
	ints, _ := newKeyAssigner[int64](nil)
	cases := []struct {
		id   int64
		want bool
	}{{0, true}, {1, false}, {-1, false}}
	for _, tc := range cases {
		if got := ints.isNew(tc.id); got != tc.want {
			t.Fatalf("isNew(%d) = %v, want %v", tc.id, got, tc.want)
		}
	}
	strs, _ := newKeyAssigner[string](nil)
	if !strs.isNew("") || strs.isNew("x") {
		t.Fatalf("unexpected string sentinel handling")
	}
}

func TestUnsupportedIdentityType(t *testing.T) {
	type sample struct{ ID float64 }
	kind := Kind[sample, float64]{
		Name:  "sample",
		ID:    func(s *sample) float64 { return s.ID },
		SetID: func(s *sample, id float64) { s.ID = id },
	}
	_, err := NewEntityStore(kind)
	if !errors.Is(err, domain.ErrUnsupportedIdentityType) {
		t.Fatalf("expected ErrUnsupportedIdentityType, got %v", err)
	}
	if _, err := NewRepository(NewRegistry(), kind); !errors.Is(err, domain.ErrUnsupportedIdentityType) {
		t.Fatalf("expected registry to surface ErrUnsupportedIdentityType, got %v", err)
	}
}

func TestKindValidation(t *testing.T) {
	if _, err := NewEntityStore(Kind[note, string]{Name: "note"}); err == nil {
		t.Fatalf("expected error for missing accessors")
	}
	if _, err := NewEntityStore(Kind[note, string]{ID: noteKind.ID, SetID: noteKind.SetID}); err == nil {
		t.Fatalf("expected error for missing name")
	}
}

func TestInt32Keys(t *testing.T) {
	s, err := NewEntityStore(ticketKind)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	a, _ := s.Insert(&ticket{Title: "a"})
	b, _ := s.Insert(&ticket{Title: "b"})
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("unexpected int32 keys %d %d", a.ID, b.ID)
	}

	s.keys.restore(math.MaxInt32)
	if _, err := s.Insert(&ticket{Title: "overflow"}); !errors.Is(err, ErrKeySpaceExhausted) {
		t.Fatalf("expected ErrKeySpaceExhausted, got %v", err)
	}
	if s.Count() != 2 {
		t.Fatalf("failed insert must not store anything, count %d", s.Count())
	}
}

func TestStringKeysAreUnique(t *testing.T) {
	s, err := NewEntityStore(noteKind)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		n, err := s.Insert(&note{Body: "x"})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if n.ID == "" || seen[n.ID] {
			t.Fatalf("duplicate or empty key %q", n.ID)
		}
		seen[n.ID] = true
	}
}

func TestReissuedKeyEvictsHolder(t *testing.T) {
	logger := &recordingLogger{}
	s, err := NewEntityStore(noteKind,
		WithTokenSource(func() string { return "dup" }),
		WithLogger(logger))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := s.Insert(&note{Body: "first"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.Insert(&note{Body: "second"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if s.Count() != 1 {
		t.Fatalf("expected holder evicted, count %d", s.Count())
	}
	got, _ := s.Find("dup")
	if got.Body != "second" {
		t.Fatalf("expected newest entity under reissued key, got %q", got.Body)
	}
	if len(logger.warns) != 1 {
		t.Fatalf("expected one collision warning, got %v", logger.warns)
	}
}

func TestInsertMintsPastExplicitKey(t *testing.T) {
	s := newFoodStore(t)
	s.Upsert(&domain.Food{ID: 1, Name: "explicit"})
	minted, err := s.Insert(&domain.Food{Name: "minted"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if minted.ID != 2 {
		t.Fatalf("expected minted key 2, got %d", minted.ID)
	}
	if s.Count() != 2 {
		t.Fatalf("explicit row evicted, count %d", s.Count())
	}
	if got, ok := s.Find(1); !ok || got.Name != "explicit" {
		t.Fatalf("explicit row lost: %+v %v", got, ok)
	}

	s.Upsert(&domain.Food{ID: 7, Name: "far"})
	s.Upsert(&domain.Food{ID: 3, Name: "near"})
	if s.Counter() != 7 {
		t.Fatalf("counter must not move backwards, got %d", s.Counter())
	}
	next, _ := s.Insert(&domain.Food{Name: "next"})
	if next.ID != 8 || s.Count() != 5 {
		t.Fatalf("expected key 8 and five rows, got %d and %d", next.ID, s.Count())
	}
}

func TestInt32InsertMintsPastExplicitKey(t *testing.T) {
	s, err := NewEntityStore(ticketKind)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	s.Upsert(&ticket{ID: 5, Title: "explicit"})
	minted, err := s.Insert(&ticket{Title: "minted"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if minted.ID != 6 || s.Count() != 2 {
		t.Fatalf("expected key 6 and two rows, got %d and %d", minted.ID, s.Count())
	}
	s.Upsert(&ticket{ID: math.MaxInt32})
	if _, err := s.Insert(&ticket{}); !errors.Is(err, ErrKeySpaceExhausted) {
		t.Fatalf("expected ErrKeySpaceExhausted, got %v", err)
	}
}

func TestConcurrentExplicitKeysAdvanceCounter(t *testing.T) {
	s := newFoodStore(t)
	var wg sync.WaitGroup
	for i := int64(1); i <= 64; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Upsert(&domain.Food{ID: id})
		}(i)
	}
	wg.Wait()
	if s.Counter() != 64 {
		t.Fatalf("expected counter 64, got %d", s.Counter())
	}
}

func TestLoadRestoresEntriesAndCounter(t *testing.T) {
	s := newFoodStore(t)
	s.Load([]*domain.Food{{ID: 4, Name: "a"}, nil, {ID: 9, Name: "b"}}, 9)
	if s.Count() != 2 || s.Counter() != 9 {
		t.Fatalf("unexpected state count=%d counter=%d", s.Count(), s.Counter())
	}
	next, _ := s.Insert(&domain.Food{Name: "c"})
	if next.ID != 10 {
		t.Fatalf("expected next key 10, got %d", next.ID)
	}
}
