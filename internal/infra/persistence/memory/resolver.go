package memory

import (
	"context"
	"fmt"
	"pantry/pkg/domain"
)

// Association describes one embedded reference held by an owner entity T.
type Association[T any] struct {
	Name string
	// Cascade saves the association through its own repository and points
	// owner at the persisted instance.
	Cascade func(ctx context.Context, owner *T) error
	// Rehydrate replaces the embedded association with the current state of
	// its authoritative store.
	Rehydrate func(ctx context.Context, owner *T) error
}

// Ref builds an Association for a pointer field of T referencing entities of
// kind A persisted by repo. A nil association is left untouched.
func Ref[T, A any, K comparable](name string, repo domain.Repository[A, K], get func(*T) *A, set func(*T, *A), id func(*A) K) Association[T] {
	return Association[T]{
		Name: name,
		Cascade: func(ctx context.Context, owner *T) error {
			a := get(owner)
			if a == nil {
				return nil
			}
			saved, err := repo.Save(ctx, a)
			if err != nil {
				return fmt.Errorf("cascade %s: %w", name, err)
			}
			set(owner, saved)
			return nil
		},
		Rehydrate: func(ctx context.Context, owner *T) error {
			a := get(owner)
			if a == nil {
				return nil
			}
			fresh, err := repo.GetReferenceByID(ctx, id(a))
			if err != nil {
				return fmt.Errorf("rehydrate %s: %w", name, err)
			}
			set(owner, fresh)
			return nil
		},
	}
}

// Resolver wraps the repository of a composite kind. Saves cascade into the
// association stores first; reads rehydrate every association from its own
// store instead of trusting the snapshot embedded at save time.
type Resolver[T any, K comparable] struct {
	*Repository[T, K]
	associations []Association[T]
}

// NewResolver decorates base with the given associations.
func NewResolver[T any, K comparable](base *Repository[T, K], associations ...Association[T]) *Resolver[T, K] {
	return &Resolver[T, K]{Repository: base, associations: associations}
}

// Save cascades every association, then stores entity. entity is updated in
// place with its identity and the persisted associations.
func (r *Resolver[T, K]) Save(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, domain.NullArgument("entity")
	}
	if err := r.cascade(ctx, entity); err != nil {
		return nil, err
	}
	return r.Repository.Save(ctx, entity)
}

// SaveAll saves every entity through Save in input order.
func (r *Resolver[T, K]) SaveAll(ctx context.Context, entities []*T) ([]*T, error) {
	if err := checkEntities(entities); err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(entities))
	for _, e := range entities {
		saved, err := r.Save(ctx, e)
		if err != nil {
			return out, err
		}
		out = append(out, saved)
	}
	return out, nil
}

// SaveAndFlush is Save.
func (r *Resolver[T, K]) SaveAndFlush(ctx context.Context, entity *T) (*T, error) {
	return r.Save(ctx, entity)
}

// SaveAllAndFlush is SaveAll.
func (r *Resolver[T, K]) SaveAllAndFlush(ctx context.Context, entities []*T) ([]*T, error) {
	return r.SaveAll(ctx, entities)
}

// FindByID returns the entity with fresh associations, or false when absent.
func (r *Resolver[T, K]) FindByID(ctx context.Context, id K) (*T, bool, error) {
	e, ok, err := r.Repository.FindByID(ctx, id)
	if err != nil || !ok {
		return nil, false, err
	}
	if err := r.Resolve(ctx, e); err != nil {
		return nil, false, err
	}
	return e, true, nil
}

// GetReferenceByID returns the entity with fresh associations or a domain.NotFoundError.
func (r *Resolver[T, K]) GetReferenceByID(ctx context.Context, id K) (*T, error) {
	e, err := r.Repository.GetReferenceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.Resolve(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// FindAll returns every entity with fresh associations.
func (r *Resolver[T, K]) FindAll(ctx context.Context) ([]*T, error) {
	all, err := r.Repository.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return r.ResolveAll(ctx, all)
}

// FindAllPage returns one page with fresh associations.
func (r *Resolver[T, K]) FindAllPage(ctx context.Context, req domain.PageRequest) (domain.Page[T], error) {
	page, err := r.Repository.FindAllPage(ctx, req)
	if err != nil {
		return page, err
	}
	if page.Content, err = r.ResolveAll(ctx, page.Content); err != nil {
		return domain.Page[T]{}, err
	}
	return page, nil
}

// FindAllByID returns the matching entities with fresh associations.
func (r *Resolver[T, K]) FindAllByID(ctx context.Context, ids []K) ([]*T, error) {
	found, err := r.Repository.FindAllByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	return r.ResolveAll(ctx, found)
}

// Resolve rehydrates every association of entity in place.
func (r *Resolver[T, K]) Resolve(ctx context.Context, entity *T) error {
	for _, a := range r.associations {
		if err := a.Rehydrate(ctx, entity); err != nil {
			return fmt.Errorf("%s %v: %w", r.store.Kind(), r.store.kind.ID(entity), err)
		}
	}
	return nil
}

// ResolveAll rehydrates a slice of entities in place and returns it.
func (r *Resolver[T, K]) ResolveAll(ctx context.Context, entities []*T) ([]*T, error) {
	for _, e := range entities {
		if err := r.Resolve(ctx, e); err != nil {
			return nil, err
		}
	}
	return entities, nil
}

func (r *Resolver[T, K]) cascade(ctx context.Context, entity *T) error {
	for _, a := range r.associations {
		if err := a.Cascade(ctx, entity); err != nil {
			return fmt.Errorf("%s: %w", r.store.Kind(), err)
		}
	}
	return nil
}
