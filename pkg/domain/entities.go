// Package domain defines the catalog entities, the repository contract shared
// by every persistence backend, and the errors callers assert on.
package domain

// EntityType identifies the kind of record stored by a repository.
type EntityType string

// Supported entity kinds. Each kind owns exactly one backing store per registry.
const (
	// EntityFood identifies a food record.
	EntityFood EntityType = "food"
	// EntityPlace identifies a place record.
	EntityPlace EntityType = "place"
	// EntityBeverage identifies a beverage record, which references a food and a place.
	EntityBeverage EntityType = "beverage"
)

// Food is a dish a beverage can be paired with.
type Food struct {
	ID   int64  `json:"id" yaml:"id,omitempty"`
	Name string `json:"name" yaml:"name"`
}

// Place is where a beverage is served.
type Place struct {
	ID   int64  `json:"id" yaml:"id,omitempty"`
	Name string `json:"name" yaml:"name"`
}

// Beverage pairs a drink with a food and a place. Food and Place are
// associations: repositories persist them in their own stores and rehydrate
// them on every read.
type Beverage struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Food  *Food  `json:"food"`
	Place *Place `json:"place"`
}

// FoodID returns the identity of the associated food, or 0 when unset.
func (b *Beverage) FoodID() int64 {
	if b == nil || b.Food == nil {
		return 0
	}
	return b.Food.ID
}

// PlaceID returns the identity of the associated place, or 0 when unset.
func (b *Beverage) PlaceID() int64 {
	if b == nil || b.Place == nil {
		return 0
	}
	return b.Place.ID
}

// CloneFood returns a copy of f.
func CloneFood(f *Food) *Food {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}

// ClonePlace returns a copy of p.
func ClonePlace(p *Place) *Place {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// CloneBeverage returns a deep copy of b including its associations.
func CloneBeverage(b *Beverage) *Beverage {
	if b == nil {
		return nil
	}
	c := *b
	c.Food = CloneFood(b.Food)
	c.Place = ClonePlace(b.Place)
	return &c
}
