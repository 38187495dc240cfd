// Package fixture loads and saves catalog contents as YAML documents in
// which beverages refer to their food and place by name.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"pantry/pkg/domain"

	"gopkg.in/yaml.v3"
)

// ErrInvalid reports a document that cannot be seeded.
var ErrInvalid = errors.New("fixture: invalid document")

// Named is a food or place entry.
type Named struct {
	Name string `yaml:"name"`
}

// BeverageEntry is a beverage with optional food and place references.
type BeverageEntry struct {
	Name  string `yaml:"name"`
	Food  string `yaml:"food,omitempty"`
	Place string `yaml:"place,omitempty"`
}

// Document is the YAML fixture layout.
type Document struct {
	Foods     []Named         `yaml:"foods"`
	Places    []Named         `yaml:"places"`
	Beverages []BeverageEntry `yaml:"beverages"`
}

// Decode parses and validates a document. Unknown fields are rejected.
func Decode(r io.Reader) (Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return Document{}, fmt.Errorf("decode fixture: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Encode writes doc as YAML.
func Encode(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}
	return enc.Close()
}

// Validate checks that names are present and unique per kind and that every
// beverage reference resolves.
func (d Document) Validate() error {
	foods, err := nameSet("food", d.Foods)
	if err != nil {
		return err
	}
	places, err := nameSet("place", d.Places)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(d.Beverages))
	for i, b := range d.Beverages {
		if b.Name == "" {
			return fmt.Errorf("%w: beverage %d has no name", ErrInvalid, i)
		}
		if _, dup := seen[b.Name]; dup {
			return fmt.Errorf("%w: duplicate beverage %q", ErrInvalid, b.Name)
		}
		seen[b.Name] = struct{}{}
		if _, ok := foods[b.Food]; b.Food != "" && !ok {
			return fmt.Errorf("%w: beverage %q references unknown food %q", ErrInvalid, b.Name, b.Food)
		}
		if _, ok := places[b.Place]; b.Place != "" && !ok {
			return fmt.Errorf("%w: beverage %q references unknown place %q", ErrInvalid, b.Name, b.Place)
		}
	}
	return nil
}

func nameSet(kind string, entries []Named) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("%w: %s %d has no name", ErrInvalid, kind, i)
		}
		if _, dup := set[e.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate %s %q", ErrInvalid, kind, e.Name)
		}
		set[e.Name] = struct{}{}
	}
	return set, nil
}

// Result maps fixture names to the identities assigned while seeding.
type Result struct {
	Foods     map[string]int64
	Places    map[string]int64
	Beverages map[string]int64
}

// Seed saves every entry of doc through repos. Foods and places are saved
// first so beverages cascade onto already persisted rows.
func Seed(ctx context.Context, repos domain.Repositories, doc Document) (Result, error) {
	if err := doc.Validate(); err != nil {
		return Result{}, err
	}
	res := Result{
		Foods:     make(map[string]int64, len(doc.Foods)),
		Places:    make(map[string]int64, len(doc.Places)),
		Beverages: make(map[string]int64, len(doc.Beverages)),
	}
	foods := make([]*domain.Food, len(doc.Foods))
	for i, f := range doc.Foods {
		foods[i] = &domain.Food{Name: f.Name}
	}
	if _, err := repos.Foods.SaveAll(ctx, foods); err != nil {
		return Result{}, fmt.Errorf("seed foods: %w", err)
	}
	places := make([]*domain.Place, len(doc.Places))
	for i, p := range doc.Places {
		places[i] = &domain.Place{Name: p.Name}
	}
	if _, err := repos.Places.SaveAll(ctx, places); err != nil {
		return Result{}, fmt.Errorf("seed places: %w", err)
	}
	foodByName := make(map[string]*domain.Food, len(foods))
	for _, f := range foods {
		foodByName[f.Name] = f
		res.Foods[f.Name] = f.ID
	}
	placeByName := make(map[string]*domain.Place, len(places))
	for _, p := range places {
		placeByName[p.Name] = p
		res.Places[p.Name] = p.ID
	}
	beverages := make([]*domain.Beverage, len(doc.Beverages))
	for i, b := range doc.Beverages {
		beverages[i] = &domain.Beverage{Name: b.Name, Food: foodByName[b.Food], Place: placeByName[b.Place]}
	}
	if _, err := repos.Beverages.SaveAll(ctx, beverages); err != nil {
		return Result{}, fmt.Errorf("seed beverages: %w", err)
	}
	for _, b := range beverages {
		res.Beverages[b.Name] = b.ID
	}
	return res, nil
}

// Export reads the catalog back into a document. It fails when names are not
// unique, because references could not be resolved on the way back in.
func Export(ctx context.Context, repos domain.Repositories) (Document, error) {
	foods, err := repos.Foods.FindAll(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("export foods: %w", err)
	}
	places, err := repos.Places.FindAll(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("export places: %w", err)
	}
	beverages, err := repos.Beverages.FindAll(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("export beverages: %w", err)
	}
	doc := Document{
		Foods:     make([]Named, 0, len(foods)),
		Places:    make([]Named, 0, len(places)),
		Beverages: make([]BeverageEntry, 0, len(beverages)),
	}
	for _, f := range foods {
		doc.Foods = append(doc.Foods, Named{Name: f.Name})
	}
	for _, p := range places {
		doc.Places = append(doc.Places, Named{Name: p.Name})
	}
	for _, b := range beverages {
		entry := BeverageEntry{Name: b.Name}
		if b.Food != nil {
			entry.Food = b.Food.Name
		}
		if b.Place != nil {
			entry.Place = b.Place.Name
		}
		doc.Beverages = append(doc.Beverages, entry)
	}
	if err := doc.Validate(); err != nil {
		return Document{}, fmt.Errorf("export: %w", err)
	}
	return doc, nil
}
