package memory

import "pantry/pkg/domain"

// Snapshot captures a point-in-time clone of a catalog's stores, including
// the key counters so restored stores keep minting fresh identities.
// Beverage associations are reduced to identity-only references.
type Snapshot struct {
	Foods     []domain.Food               `json:"foods"`
	Places    []domain.Place              `json:"places"`
	Beverages []domain.Beverage           `json:"beverages"`
	Counters  map[domain.EntityType]int64 `json:"counters"`
}

// ExportState clones the current catalog state.
func (c *Catalog) ExportState() Snapshot {
	s := Snapshot{Counters: make(map[domain.EntityType]int64, 3)}
	for _, f := range c.Foods.Store().List() {
		s.Foods = append(s.Foods, *f)
	}
	for _, p := range c.Places.Store().List() {
		s.Places = append(s.Places, *p)
	}
	for _, b := range c.Beverages.Store().List() {
		row := *b
		if b.Food != nil {
			row.Food = &domain.Food{ID: b.Food.ID}
		}
		if b.Place != nil {
			row.Place = &domain.Place{ID: b.Place.ID}
		}
		s.Beverages = append(s.Beverages, row)
	}
	s.Counters[domain.EntityFood] = c.Foods.Store().Counter()
	s.Counters[domain.EntityPlace] = c.Places.Store().Counter()
	s.Counters[domain.EntityBeverage] = c.Beverages.Store().Counter()
	return s
}

// ImportState replaces the catalog state with the snapshot. Each counter
// resumes from the larger of the recorded counter and the highest imported
// identity.
func (c *Catalog) ImportState(s Snapshot) {
	c.Foods.Store().Load(pointers(s.Foods), counterFor(s, domain.EntityFood, FoodKind.ID, s.Foods))
	c.Places.Store().Load(pointers(s.Places), counterFor(s, domain.EntityPlace, PlaceKind.ID, s.Places))
	c.Beverages.Store().Load(pointers(s.Beverages), counterFor(s, domain.EntityBeverage, BeverageKind.ID, s.Beverages))
}

func pointers[T any](values []T) []*T {
	out := make([]*T, len(values))
	for i := range values {
		out[i] = &values[i]
	}
	return out
}

func counterFor[T any](s Snapshot, kind domain.EntityType, id func(*T) int64, rows []T) int64 {
	var highest int64
	for i := range rows {
		if v := id(&rows[i]); v > highest {
			highest = v
		}
	}
	return max(s.Counters[kind], highest)
}
