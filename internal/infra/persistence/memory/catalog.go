package memory

import (
	"context"
	"pantry/pkg/domain"
)

// Compile-time contract assertions ensuring the memory repositories adhere to the domain interfaces.
var (
	_ domain.FoodRepository     = (*FoodRepository)(nil)
	_ domain.PlaceRepository    = (*PlaceRepository)(nil)
	_ domain.BeverageRepository = (*BeverageRepository)(nil)
)

// FoodKind describes domain.Food identities.
var FoodKind = Kind[domain.Food, int64]{
	Name:  domain.EntityFood,
	ID:    func(f *domain.Food) int64 { return f.ID },
	SetID: func(f *domain.Food, id int64) { f.ID = id },
	Clone: domain.CloneFood,
}

// PlaceKind describes domain.Place identities.
var PlaceKind = Kind[domain.Place, int64]{
	Name:  domain.EntityPlace,
	ID:    func(p *domain.Place) int64 { return p.ID },
	SetID: func(p *domain.Place, id int64) { p.ID = id },
	Clone: domain.ClonePlace,
}

// BeverageKind describes domain.Beverage identities.
var BeverageKind = Kind[domain.Beverage, int64]{
	Name:  domain.EntityBeverage,
	ID:    func(b *domain.Beverage) int64 { return b.ID },
	SetID: func(b *domain.Beverage, id int64) { b.ID = id },
	Clone: domain.CloneBeverage,
}

// FoodRepository is the memory-backed domain.FoodRepository.
type FoodRepository struct {
	*Repository[domain.Food, int64]
}

// NewFoodRepository returns a handle over the registry's food store.
func NewFoodRepository(r *Registry) (*FoodRepository, error) {
	base, err := NewRepository(r, FoodKind)
	if err != nil {
		return nil, err
	}
	return &FoodRepository{Repository: base}, nil
}

// PlaceRepository is the memory-backed domain.PlaceRepository.
type PlaceRepository struct {
	*Repository[domain.Place, int64]
}

// NewPlaceRepository returns a handle over the registry's place store.
func NewPlaceRepository(r *Registry) (*PlaceRepository, error) {
	base, err := NewRepository(r, PlaceKind)
	if err != nil {
		return nil, err
	}
	return &PlaceRepository{Repository: base}, nil
}

// BeverageRepository is the memory-backed domain.BeverageRepository. Foods
// and places are cascaded into, and rehydrated from, their own stores.
type BeverageRepository struct {
	*Resolver[domain.Beverage, int64]
}

// NewBeverageRepository returns a handle over the registry's beverage store
// together with handles over the shared food and place stores.
func NewBeverageRepository(r *Registry) (*BeverageRepository, error) {
	base, err := NewRepository(r, BeverageKind)
	if err != nil {
		return nil, err
	}
	foods, err := NewFoodRepository(r)
	if err != nil {
		return nil, err
	}
	places, err := NewPlaceRepository(r)
	if err != nil {
		return nil, err
	}
	food := Ref[domain.Beverage, domain.Food, int64]("food", foods,
		func(b *domain.Beverage) *domain.Food { return b.Food },
		func(b *domain.Beverage, f *domain.Food) { b.Food = f },
		FoodKind.ID)
	place := Ref[domain.Beverage, domain.Place, int64]("place", places,
		func(b *domain.Beverage) *domain.Place { return b.Place },
		func(b *domain.Beverage, p *domain.Place) { b.Place = p },
		PlaceKind.ID)
	return &BeverageRepository{Resolver: NewResolver(base, food, place)}, nil
}

// ListByPlaceID returns the beverages served at placeID.
func (r *BeverageRepository) ListByPlaceID(ctx context.Context, placeID int64) ([]*domain.Beverage, error) {
	return r.listWhere(ctx, func(b *domain.Beverage) bool { return b.PlaceID() == placeID })
}

// ListByFoodID returns the beverages paired with foodID.
func (r *BeverageRepository) ListByFoodID(ctx context.Context, foodID int64) ([]*domain.Beverage, error) {
	return r.listWhere(ctx, func(b *domain.Beverage) bool { return b.FoodID() == foodID })
}

func (r *BeverageRepository) listWhere(ctx context.Context, keep func(*domain.Beverage) bool) ([]*domain.Beverage, error) {
	var out []*domain.Beverage
	for _, b := range r.Store().List() {
		if keep(b) {
			out = append(out, b)
		}
	}
	return r.ResolveAll(ctx, out)
}

// Catalog bundles the three catalog repositories built over one registry.
type Catalog struct {
	Registry  *Registry
	Foods     *FoodRepository
	Places    *PlaceRepository
	Beverages *BeverageRepository
}

// NewCatalog builds the catalog repositories over r.
func NewCatalog(r *Registry) (*Catalog, error) {
	foods, err := NewFoodRepository(r)
	if err != nil {
		return nil, err
	}
	places, err := NewPlaceRepository(r)
	if err != nil {
		return nil, err
	}
	beverages, err := NewBeverageRepository(r)
	if err != nil {
		return nil, err
	}
	return &Catalog{Registry: r, Foods: foods, Places: places, Beverages: beverages}, nil
}

// Repositories returns the catalog as the backend-neutral bundle.
func (c *Catalog) Repositories() domain.Repositories {
	return domain.Repositories{Foods: c.Foods, Places: c.Places, Beverages: c.Beverages}
}
