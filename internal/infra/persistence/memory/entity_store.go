package memory

import (
	"pantry/pkg/domain"
	"sync"
)

// EntityStore is the shared backing collection for one entity kind: the live
// entities in insertion/replacement order, a monotonic key counter, and the
// set of keys already issued. Identities are unique among live entries.
type EntityStore[T any, K comparable] struct {
	kind   Kind[T, K]
	keys   *keyAssigner[K]
	logger Logger

	mu      sync.RWMutex
	entries []*T
	issued  map[K]struct{}
}

// NewEntityStore builds a store for kind. It fails with
// domain.ErrUnsupportedIdentityType when K is not int64, int32 or string.
func NewEntityStore[T any, K comparable](kind Kind[T, K], opts ...Option) (*EntityStore[T, K], error) {
	if err := kind.validate(); err != nil {
		return nil, err
	}
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	keys, err := newKeyAssigner[K](cfg.token)
	if err != nil {
		return nil, err
	}
	return &EntityStore[T, K]{
		kind:   kind,
		keys:   keys,
		logger: cfg.logger,
		issued: make(map[K]struct{}),
	}, nil
}

// Kind returns the entity kind held by the store.
func (s *EntityStore[T, K]) Kind() domain.EntityType { return s.kind.Name }

// List returns copies of the live entities in insertion/replacement order.
func (s *EntityStore[T, K]) List() []*T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*T, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, s.kind.clone(e))
	}
	return out
}

// Count returns the number of live entities.
func (s *EntityStore[T, K]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Find returns a copy of the entity with identity id.
func (s *EntityStore[T, K]) Find(id K) (*T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.kind.clone(s.entries[i]), true
	}
	return nil, false
}

// Contains reports whether an entity with identity id is live.
func (s *EntityStore[T, K]) Contains(id K) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id) >= 0
}

// IsNew reports whether e still carries the unset identity.
func (s *EntityStore[T, K]) IsNew(e *T) bool {
	return s.keys.isNew(s.kind.ID(e))
}

// Clear drops every entity. The key counter keeps running so identities are
// never reused within the store's lifetime.
func (s *EntityStore[T, K]) Clear() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}

// Reset drops every entity and restarts the key counter and issued set.
func (s *EntityStore[T, K]) Reset() {
	s.mu.Lock()
	s.entries = nil
	s.issued = make(map[K]struct{})
	s.keys.restore(0)
	s.mu.Unlock()
}

// Upsert replaces the entity sharing e's identity, or appends e. A replaced
// entity moves to the end of the list. The identity is recorded as issued and
// an integer counter advances past it, so Insert never mints it again.
func (s *EntityStore[T, K]) Upsert(e *T) {
	stored := s.kind.clone(e)
	id := s.kind.ID(stored)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys.observe(id)
	s.issued[id] = struct{}{}
	s.upsertLocked(stored)
}

// Insert assigns a fresh key to e, writes it back into e, and stores a copy.
func (s *EntityStore[T, K]) Insert(e *T) (*T, error) {
	key, err := s.keys.assign()
	if err != nil {
		return nil, err
	}
	s.kind.SetID(e, key)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.issued[key]; seen {
		// Only a custom token source can repeat a key.
		s.logger.Warn("memory: evicting entity holding reissued key", "kind", s.kind.Name, "id", key)
		s.removeLocked(func(x *T) bool { return s.kind.ID(x) == key })
	} else {
		s.issued[key] = struct{}{}
	}
	stored := s.kind.clone(e)
	s.upsertLocked(stored)
	return s.kind.clone(stored), nil
}

// RemoveWhere deletes every entity matching pred and returns how many were removed.
func (s *EntityStore[T, K]) RemoveWhere(pred func(*T) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(pred)
}

// Counter returns the last key handed out by an integer counter.
func (s *EntityStore[T, K]) Counter() int64 { return s.keys.current() }

// Load replaces the store contents with entries and restores the counter.
// Identities of the loaded entries are recorded as issued.
func (s *EntityStore[T, K]) Load(entries []*T, counter int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.issued = make(map[K]struct{}, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		stored := s.kind.clone(e)
		s.upsertLocked(stored)
		s.issued[s.kind.ID(stored)] = struct{}{}
	}
	s.keys.restore(counter)
}

func (s *EntityStore[T, K]) indexOf(id K) int {
	for i, e := range s.entries {
		if s.kind.ID(e) == id {
			return i
		}
	}
	return -1
}

func (s *EntityStore[T, K]) upsertLocked(e *T) {
	id := s.kind.ID(e)
	s.removeLocked(func(x *T) bool { return s.kind.ID(x) == id })
	s.entries = append(s.entries, e)
}

func (s *EntityStore[T, K]) removeLocked(pred func(*T) bool) int {
	kept := s.entries[:0]
	removed := 0
	for _, e := range s.entries {
		if pred(e) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(s.entries); i++ {
		s.entries[i] = nil
	}
	s.entries = kept
	return removed
}
