package memory

import (
	"context"
	"pantry/pkg/domain"
	"strconv"
)

// Repository implements domain.Repository over a shared EntityStore.
type Repository[T any, K comparable] struct {
	store *EntityStore[T, K]
}

// NewRepository binds a repository handle to the registry's store for kind.
func NewRepository[T any, K comparable](r *Registry, kind Kind[T, K]) (*Repository[T, K], error) {
	store, err := StoreFor(r, kind)
	if err != nil {
		return nil, err
	}
	return &Repository[T, K]{store: store}, nil
}

// Store exposes the backing store shared with every handle over the same kind.
func (r *Repository[T, K]) Store() *EntityStore[T, K] { return r.store }

// Save assigns a key to a new entity (writing it back into entity) or
// replaces the persisted entity with the same identity.
func (r *Repository[T, K]) Save(_ context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, domain.NullArgument("entity")
	}
	return r.save(entity)
}

func (r *Repository[T, K]) save(entity *T) (*T, error) {
	if r.store.IsNew(entity) {
		return r.store.Insert(entity)
	}
	r.store.Upsert(entity)
	return r.store.kind.clone(entity), nil
}

// SaveAll saves every entity in input order. A nil slice or nil member fails
// before anything is written.
func (r *Repository[T, K]) SaveAll(_ context.Context, entities []*T) ([]*T, error) {
	if err := checkEntities(entities); err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(entities))
	for _, e := range entities {
		saved, err := r.save(e)
		if err != nil {
			return out, err
		}
		out = append(out, saved)
	}
	return out, nil
}

// SaveAndFlush is Save; the memory store has nothing to flush.
func (r *Repository[T, K]) SaveAndFlush(ctx context.Context, entity *T) (*T, error) {
	return r.Save(ctx, entity)
}

// SaveAllAndFlush is SaveAll.
func (r *Repository[T, K]) SaveAllAndFlush(ctx context.Context, entities []*T) ([]*T, error) {
	return r.SaveAll(ctx, entities)
}

// Flush is a no-op.
func (r *Repository[T, K]) Flush(context.Context) error { return nil }

// FindByID returns the entity with identity id, or false when absent.
func (r *Repository[T, K]) FindByID(_ context.Context, id K) (*T, bool, error) {
	e, ok := r.store.Find(id)
	return e, ok, nil
}

// ExistsByID reports whether an entity with identity id is stored.
func (r *Repository[T, K]) ExistsByID(_ context.Context, id K) (bool, error) {
	return r.store.Contains(id), nil
}

// GetReferenceByID returns the entity with identity id or a domain.NotFoundError.
func (r *Repository[T, K]) GetReferenceByID(_ context.Context, id K) (*T, error) {
	e, ok := r.store.Find(id)
	if !ok {
		return nil, domain.NotFoundError{Entity: r.store.Kind(), ID: id}
	}
	return e, nil
}

// FindAll returns every entity in store order.
func (r *Repository[T, K]) FindAll(context.Context) ([]*T, error) {
	return r.store.List(), nil
}

// FindAllPage returns the [offset, offset+size) window of FindAll.
func (r *Repository[T, K]) FindAllPage(_ context.Context, req domain.PageRequest) (domain.Page[T], error) {
	if err := req.Validate(); err != nil {
		return domain.Page[T]{}, err
	}
	return domain.SlicePage(r.store.List(), req), nil
}

// FindAllByID returns the stored entities whose identity is in ids, in store order.
func (r *Repository[T, K]) FindAllByID(_ context.Context, ids []K) ([]*T, error) {
	if ids == nil {
		return nil, domain.NullArgument("ids")
	}
	set := keySet(ids)
	var out []*T
	for _, e := range r.store.List() {
		if _, ok := set[r.store.kind.ID(e)]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// Count returns the number of stored entities.
func (r *Repository[T, K]) Count(context.Context) (int64, error) {
	return int64(r.store.Count()), nil
}

// FindAllSorted is not emulated.
func (r *Repository[T, K]) FindAllSorted(context.Context, domain.Sort) ([]*T, error) {
	return nil, domain.Unsupported("find all sorted")
}

// FindAllByExample is not emulated.
func (r *Repository[T, K]) FindAllByExample(context.Context, domain.Example[T]) ([]*T, error) {
	return nil, domain.Unsupported("find all by example")
}

// FindOneByExample is not emulated.
func (r *Repository[T, K]) FindOneByExample(context.Context, domain.Example[T]) (*T, bool, error) {
	return nil, false, domain.Unsupported("find one by example")
}

// CountByExample is not emulated.
func (r *Repository[T, K]) CountByExample(context.Context, domain.Example[T]) (int64, error) {
	return 0, domain.Unsupported("count by example")
}

// ExistsByExample is not emulated.
func (r *Repository[T, K]) ExistsByExample(context.Context, domain.Example[T]) (bool, error) {
	return false, domain.Unsupported("exists by example")
}

// DeleteByID removes the entity with identity id if present.
func (r *Repository[T, K]) DeleteByID(_ context.Context, id K) error {
	r.store.RemoveWhere(func(e *T) bool { return r.store.kind.ID(e) == id })
	return nil
}

// Delete removes the stored entity sharing entity's identity.
func (r *Repository[T, K]) Delete(ctx context.Context, entity *T) error {
	if entity == nil {
		return domain.NullArgument("entity")
	}
	return r.DeleteByID(ctx, r.store.kind.ID(entity))
}

// DeleteAllByID removes every entity whose identity is in ids.
func (r *Repository[T, K]) DeleteAllByID(ctx context.Context, ids []K) error {
	return r.DeleteAllByIDInBatch(ctx, ids)
}

// DeleteAllByIDInBatch removes every entity whose identity is in ids in one pass.
func (r *Repository[T, K]) DeleteAllByIDInBatch(_ context.Context, ids []K) error {
	if ids == nil {
		return domain.NullArgument("ids")
	}
	set := keySet(ids)
	r.store.RemoveWhere(func(e *T) bool {
		_, ok := set[r.store.kind.ID(e)]
		return ok
	})
	return nil
}

// DeleteAllInBatch removes every stored entity sharing an identity with entities.
func (r *Repository[T, K]) DeleteAllInBatch(ctx context.Context, entities []*T) error {
	if err := checkEntities(entities); err != nil {
		return err
	}
	ids := make([]K, 0, len(entities))
	for _, e := range entities {
		ids = append(ids, r.store.kind.ID(e))
	}
	return r.DeleteAllByIDInBatch(ctx, ids)
}

// DeleteAll clears the store.
func (r *Repository[T, K]) DeleteAll(context.Context) error {
	r.store.Clear()
	return nil
}

func checkEntities[T any](entities []*T) error {
	if entities == nil {
		return domain.NullArgument("entities")
	}
	for i, e := range entities {
		if e == nil {
			return domain.NullArgument("entities[" + strconv.Itoa(i) + "]")
		}
	}
	return nil
}

func keySet[K comparable](ids []K) map[K]struct{} {
	set := make(map[K]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
