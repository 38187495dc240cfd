package core

import (
	"context"
	"errors"
	"fmt"
	"pantry/pkg/domain"
)

// ErrEmptyName reports a catalog entry without a name.
var ErrEmptyName = errors.New("core: name must not be empty")

// Service exposes catalog operations over a set of repositories.
type Service struct {
	repos  domain.Repositories
	logger Logger
}

// NewService constructs a service over repos. A nil logger discards output.
func NewService(repos domain.Repositories, logger Logger) *Service {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Service{repos: repos, logger: logger}
}

// Repositories returns the repositories the service writes through.
func (s *Service) Repositories() domain.Repositories {
	return s.repos
}

// AddPairing stores a beverage served with the named food at the named place.
// Existing foods and places are reused by name; missing ones are created by
// the beverage save. Empty food or place names leave the association unset.
func (s *Service) AddPairing(ctx context.Context, beverage, food, place string) (*domain.Beverage, error) {
	if beverage == "" {
		return nil, ErrEmptyName
	}
	b := &domain.Beverage{Name: beverage}
	if food != "" {
		f, err := findByName[domain.Food](ctx, s.repos.Foods, food, func(f *domain.Food) string { return f.Name })
		if err != nil {
			return nil, err
		}
		if f == nil {
			f = &domain.Food{Name: food}
		}
		b.Food = f
	}
	if place != "" {
		p, err := findByName[domain.Place](ctx, s.repos.Places, place, func(p *domain.Place) string { return p.Name })
		if err != nil {
			return nil, err
		}
		if p == nil {
			p = &domain.Place{Name: place}
		}
		b.Place = p
	}
	saved, err := s.repos.Beverages.Save(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("add pairing %q: %w", beverage, err)
	}
	s.logger.Info("pairing added", "beverage", saved.ID, "food", saved.FoodID(), "place", saved.PlaceID())
	return saved, nil
}

// RenameFood changes the name of a stored food.
func (s *Service) RenameFood(ctx context.Context, id int64, name string) (*domain.Food, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	f, err := s.repos.Foods.GetReferenceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	f.Name = name
	saved, err := s.repos.Foods.Save(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("rename food %d: %w", id, err)
	}
	s.logger.Debug("food renamed", "food", id, "name", name)
	return saved, nil
}

// PairingsAt lists the beverages served at a place.
func (s *Service) PairingsAt(ctx context.Context, placeID int64) ([]*domain.Beverage, error) {
	return s.repos.Beverages.ListByPlaceID(ctx, placeID)
}

// PairingsWith lists the beverages paired with a food.
func (s *Service) PairingsWith(ctx context.Context, foodID int64) ([]*domain.Beverage, error) {
	return s.repos.Beverages.ListByFoodID(ctx, foodID)
}

// Menu returns one page of beverages with their associations resolved.
func (s *Service) Menu(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Beverage], error) {
	return s.repos.Beverages.FindAllPage(ctx, req)
}

func findByName[T any](ctx context.Context, repo domain.Repository[T, int64], name string, nameOf func(*T) string) (*T, error) {
	all, err := repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range all {
		if nameOf(e) == name {
			return e, nil
		}
	}
	return nil, nil
}
