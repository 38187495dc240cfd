package memory

import (
	"fmt"
	"pantry/pkg/domain"
	"sort"
	"sync"
)

type managedStore interface {
	Kind() domain.EntityType
	Count() int
	Clear()
	Reset()
}

// Registry owns one EntityStore per entity kind. Every repository handle built
// from the same Registry binds to the same store for its kind.
type Registry struct {
	opts   []Option
	logger Logger

	mu     sync.Mutex
	stores map[domain.EntityType]managedStore
}

// NewRegistry returns an empty registry. Options apply to every store it creates.
func NewRegistry(opts ...Option) *Registry {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Registry{
		opts:   opts,
		logger: cfg.logger,
		stores: make(map[domain.EntityType]managedStore),
	}
}

var shared = sync.OnceValue(func() *Registry { return NewRegistry() })

// Shared returns the process-wide registry.
func Shared() *Registry { return shared() }

// StoreFor returns the store registered for kind, creating it on first use.
// Requesting a kind name already bound to different entity or key types fails.
func StoreFor[T any, K comparable](r *Registry, kind Kind[T, K]) (*EntityStore[T, K], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.stores[kind.Name]; ok {
		store, ok := existing.(*EntityStore[T, K])
		if !ok {
			return nil, fmt.Errorf("memory: kind %s already registered with %T", kind.Name, existing)
		}
		return store, nil
	}
	store, err := NewEntityStore(kind, r.opts...)
	if err != nil {
		return nil, err
	}
	r.stores[kind.Name] = store
	return store, nil
}

// Kinds lists the registered kinds in name order.
func (r *Registry) Kinds() []domain.EntityType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EntityType, 0, len(r.stores))
	for k := range r.stores {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Counts returns the number of live entities per registered kind.
func (r *Registry) Counts() map[domain.EntityType]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[domain.EntityType]int, len(r.stores))
	for k, s := range r.stores {
		out[k] = s.Count()
	}
	return out
}

// ClearAll empties every store and keeps the key counters running. It is the
// teardown hook run between independent test cases.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, s := range r.stores {
		s.Clear()
		r.logger.Debug("memory: cleared store", "kind", k)
	}
}

// ResetAll empties every store and restarts its key counter.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, s := range r.stores {
		s.Reset()
		r.logger.Debug("memory: reset store", "kind", k)
	}
}
