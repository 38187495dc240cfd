package domain

import "context"

// Repository is the CRUD and query contract every backend implements for one
// entity kind T keyed by K. The in-memory implementation must be
// indistinguishable from the SQL ones for everything a test can observe.
type Repository[T any, K comparable] interface {
	// Save inserts a new entity (assigning its identity) or replaces a persisted one.
	Save(ctx context.Context, entity *T) (*T, error)
	SaveAll(ctx context.Context, entities []*T) ([]*T, error)
	SaveAndFlush(ctx context.Context, entity *T) (*T, error)
	SaveAllAndFlush(ctx context.Context, entities []*T) ([]*T, error)
	Flush(ctx context.Context) error

	// FindByID reports false when no entity has the identity.
	FindByID(ctx context.Context, id K) (*T, bool, error)
	ExistsByID(ctx context.Context, id K) (bool, error)
	// GetReferenceByID fails with an error matching ErrNotFound when absent.
	GetReferenceByID(ctx context.Context, id K) (*T, error)
	FindAll(ctx context.Context) ([]*T, error)
	FindAllPage(ctx context.Context, req PageRequest) (Page[T], error)
	FindAllByID(ctx context.Context, ids []K) ([]*T, error)
	Count(ctx context.Context) (int64, error)

	// Sorting and example queries are not emulated; they return ErrUnsupportedOperation.
	FindAllSorted(ctx context.Context, sort Sort) ([]*T, error)
	FindAllByExample(ctx context.Context, example Example[T]) ([]*T, error)
	FindOneByExample(ctx context.Context, example Example[T]) (*T, bool, error)
	CountByExample(ctx context.Context, example Example[T]) (int64, error)
	ExistsByExample(ctx context.Context, example Example[T]) (bool, error)

	// Delete variants are no-ops for identities that are not stored.
	DeleteByID(ctx context.Context, id K) error
	Delete(ctx context.Context, entity *T) error
	DeleteAllByID(ctx context.Context, ids []K) error
	DeleteAllByIDInBatch(ctx context.Context, ids []K) error
	DeleteAllInBatch(ctx context.Context, entities []*T) error
	DeleteAll(ctx context.Context) error
}

// FoodRepository persists foods.
type FoodRepository interface {
	Repository[Food, int64]
}

// PlaceRepository persists places.
type PlaceRepository interface {
	Repository[Place, int64]
}

// BeverageRepository persists beverages and cascades their food and place.
type BeverageRepository interface {
	Repository[Beverage, int64]
	ListByPlaceID(ctx context.Context, placeID int64) ([]*Beverage, error)
	ListByFoodID(ctx context.Context, foodID int64) ([]*Beverage, error)
}

// Repositories bundles one repository per catalog kind, all over the same backend.
type Repositories struct {
	Foods     FoodRepository
	Places    PlaceRepository
	Beverages BeverageRepository
}
