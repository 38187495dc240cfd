package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"pantry/pkg/domain"
)

var (
	_ domain.FoodRepository     = (*FoodRepository)(nil)
	_ domain.PlaceRepository    = (*PlaceRepository)(nil)
	_ domain.BeverageRepository = (*BeverageRepository)(nil)
)

// FoodTable maps domain.Food onto the foods table.
var FoodTable = Table[domain.Food]{
	Name:    "foods",
	Kind:    domain.EntityFood,
	Columns: []string{"name"},
	ID:      func(f *domain.Food) int64 { return f.ID },
	SetID:   func(f *domain.Food, id int64) { f.ID = id },
	Clone:   domain.CloneFood,
	Values:  func(f *domain.Food) []any { return []any{f.Name} },
	Scan: func(scan func(...any) error) (*domain.Food, error) {
		var f domain.Food
		if err := scan(&f.ID, &f.Name); err != nil {
			return nil, err
		}
		return &f, nil
	},
}

// PlaceTable maps domain.Place onto the places table.
var PlaceTable = Table[domain.Place]{
	Name:    "places",
	Kind:    domain.EntityPlace,
	Columns: []string{"name"},
	ID:      func(p *domain.Place) int64 { return p.ID },
	SetID:   func(p *domain.Place, id int64) { p.ID = id },
	Clone:   domain.ClonePlace,
	Values:  func(p *domain.Place) []any { return []any{p.Name} },
	Scan: func(scan func(...any) error) (*domain.Place, error) {
		var p domain.Place
		if err := scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		return &p, nil
	},
}

// BeverageTable maps domain.Beverage onto the beverages table. Associations
// are stored as nullable foreign keys and scanned back as identity-only stubs.
var BeverageTable = Table[domain.Beverage]{
	Name:    "beverages",
	Kind:    domain.EntityBeverage,
	Columns: []string{"name", "food_id", "place_id"},
	ID:      func(b *domain.Beverage) int64 { return b.ID },
	SetID:   func(b *domain.Beverage, id int64) { b.ID = id },
	Clone:   domain.CloneBeverage,
	Values: func(b *domain.Beverage) []any {
		return []any{b.Name, nullKey(b.FoodID()), nullKey(b.PlaceID())}
	},
	Scan: func(scan func(...any) error) (*domain.Beverage, error) {
		var b domain.Beverage
		var food, place sql.NullInt64
		if err := scan(&b.ID, &b.Name, &food, &place); err != nil {
			return nil, err
		}
		if food.Valid {
			b.Food = &domain.Food{ID: food.Int64}
		}
		if place.Valid {
			b.Place = &domain.Place{ID: place.Int64}
		}
		return &b, nil
	},
}

func nullKey(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

// FoodRepository is the SQL-backed domain.FoodRepository.
type FoodRepository struct {
	*Repository[domain.Food]
}

// PlaceRepository is the SQL-backed domain.PlaceRepository.
type PlaceRepository struct {
	*Repository[domain.Place]
}

// BeverageRepository is the SQL-backed domain.BeverageRepository. Saves
// cascade into foods and places in the same transaction; reads load the
// current association rows.
type BeverageRepository struct {
	*Repository[domain.Beverage]
}

// ListByPlaceID returns the beverages served at placeID.
func (r *BeverageRepository) ListByPlaceID(ctx context.Context, placeID int64) ([]*domain.Beverage, error) {
	return r.list(ctx, r.db, "WHERE place_id = "+r.dialect.Bind(1), "", placeID)
}

// ListByFoodID returns the beverages paired with foodID.
func (r *BeverageRepository) ListByFoodID(ctx context.Context, foodID int64) ([]*domain.Beverage, error) {
	return r.list(ctx, r.db, "WHERE food_id = "+r.dialect.Bind(1), "", foodID)
}

// Catalog bundles the catalog repositories sharing one database handle.
type Catalog struct {
	DB        *sql.DB
	Dialect   Dialect
	Foods     *FoodRepository
	Places    *PlaceRepository
	Beverages *BeverageRepository
}

// Open applies the dialect schema to db and builds the catalog repositories.
func Open(ctx context.Context, db *sql.DB, dialect Dialect) (*Catalog, error) {
	if err := dialect.ApplySchema(ctx, db); err != nil {
		return nil, err
	}
	foods := NewRepository(db, dialect, FoodTable)
	places := NewRepository(db, dialect, PlaceTable)

	bt := BeverageTable
	bt.before = func(ctx context.Context, q querier, b *domain.Beverage) error {
		if b.Food != nil {
			if err := foods.save(ctx, q, b.Food); err != nil {
				return fmt.Errorf("cascade food: %w", err)
			}
		}
		if b.Place != nil {
			if err := places.save(ctx, q, b.Place); err != nil {
				return fmt.Errorf("cascade place: %w", err)
			}
		}
		return nil
	}
	bt.after = func(ctx context.Context, q querier, b *domain.Beverage) error {
		if b.Food != nil {
			f, err := foods.reference(ctx, q, b.Food.ID)
			if err != nil {
				return fmt.Errorf("rehydrate food: %w", err)
			}
			b.Food = f
		}
		if b.Place != nil {
			p, err := places.reference(ctx, q, b.Place.ID)
			if err != nil {
				return fmt.Errorf("rehydrate place: %w", err)
			}
			b.Place = p
		}
		return nil
	}
	return &Catalog{
		DB:        db,
		Dialect:   dialect,
		Foods:     &FoodRepository{Repository: foods},
		Places:    &PlaceRepository{Repository: places},
		Beverages: &BeverageRepository{Repository: NewRepository(db, dialect, bt)},
	}, nil
}

// Counts returns the row count of every catalog table.
func (c *Catalog) Counts(ctx context.Context) (map[domain.EntityType]int64, error) {
	out := make(map[domain.EntityType]int64, 3)
	counters := map[domain.EntityType]func(context.Context) (int64, error){
		domain.EntityFood:     c.Foods.Count,
		domain.EntityPlace:    c.Places.Count,
		domain.EntityBeverage: c.Beverages.Count,
	}
	for kind, count := range counters {
		n, err := count(ctx)
		if err != nil {
			return nil, err
		}
		out[kind] = n
	}
	return out, nil
}

// Truncate removes every row, dependents first.
func (c *Catalog) Truncate(ctx context.Context) error {
	if err := c.Beverages.DeleteAll(ctx); err != nil {
		return err
	}
	if err := c.Foods.DeleteAll(ctx); err != nil {
		return err
	}
	return c.Places.DeleteAll(ctx)
}

// Close releases the database handle.
func (c *Catalog) Close() error { return c.DB.Close() }

// Repositories returns the catalog as the backend-neutral bundle.
func (c *Catalog) Repositories() domain.Repositories {
	return domain.Repositories{Foods: c.Foods, Places: c.Places, Beverages: c.Beverages}
}
