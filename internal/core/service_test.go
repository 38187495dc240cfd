package core

import (
	"context"
	"errors"
	"pantry/internal/infra/persistence/memory/memorytest"
	"pantry/pkg/domain"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newService(t *testing.T) (*Service, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewService(memorytest.Catalog(t).Repositories(), NewZapLogger(zap.New(core))), logs
}

func TestAddPairingReusesAssociationsByName(t *testing.T) {
	ctx := context.Background()
	svc, logs := newService(t)

	wine, err := svc.AddPairing(ctx, "wine", "cheese", "cellar")
	if err != nil {
		t.Fatalf("add wine: %v", err)
	}
	port, err := svc.AddPairing(ctx, "port", "cheese", "")
	if err != nil {
		t.Fatalf("add port: %v", err)
	}
	if port.FoodID() != wine.FoodID() || port.Place != nil {
		t.Fatalf("port should reuse cheese and have no place: %+v", port)
	}
	if n, _ := svc.Repositories().Foods.Count(ctx); n != 1 {
		t.Fatalf("expected one food, got %d", n)
	}
	if logs.FilterMessage("pairing added").Len() != 2 {
		t.Fatalf("expected two pairing logs, got %d", logs.Len())
	}

	with, err := svc.PairingsWith(ctx, wine.FoodID())
	if err != nil || len(with) != 2 {
		t.Fatalf("pairings with cheese: %v %v", with, err)
	}
	at, err := svc.PairingsAt(ctx, wine.PlaceID())
	if err != nil || len(at) != 1 || at[0].Name != "wine" {
		t.Fatalf("pairings at cellar: %v %v", at, err)
	}

	if _, err := svc.AddPairing(ctx, "", "cheese", ""); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestRenameFoodIsVisibleThroughPairings(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	tea, err := svc.AddPairing(ctx, "tea", "scone", "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.RenameFood(ctx, tea.FoodID(), "crumpet"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, ok, err := svc.Repositories().Beverages.FindByID(ctx, tea.ID)
	if err != nil || !ok {
		t.Fatalf("find: %v %v", ok, err)
	}
	if got.Food.Name != "crumpet" {
		t.Fatalf("beverage still sees %q", got.Food.Name)
	}
	if _, err := svc.RenameFood(ctx, 404, "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.RenameFood(ctx, tea.FoodID(), ""); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestMenuPages(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	for _, name := range []string{"a", "b", "c"} {
		if _, err := svc.AddPairing(ctx, name, "bread", "bar"); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
	page, err := svc.Menu(ctx, domain.PageOf(1, 2))
	if err != nil {
		t.Fatalf("menu: %v", err)
	}
	if len(page.Content) != 1 || page.Total != 3 || page.HasNext() {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Content[0].Food == nil || page.Content[0].Food.Name != "bread" {
		t.Fatalf("menu must resolve associations: %+v", page.Content[0])
	}
	if _, err := svc.Menu(ctx, domain.PageOf(-1, 2)); !errors.Is(err, domain.ErrInvalidPage) {
		t.Fatalf("expected ErrInvalidPage, got %v", err)
	}
}
