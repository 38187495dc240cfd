// Package memory provides an in-memory implementation of the repository
// contract used for tests and ephemeral environments.
//
// Every entity kind owns one EntityStore per Registry. Repository handles
// obtained from the same Registry share that store, so a write through one
// handle is visible through every other handle on the next read.
package memory

import (
	"errors"
	"fmt"
	"math"
	"pantry/pkg/domain"
	"sync/atomic"

	"github.com/google/uuid"
)

// Kind describes how the store reads and writes the identity of T. It
// replaces per-call reflection: accessors are fixed when the store is built.
type Kind[T any, K comparable] struct {
	Name  domain.EntityType
	ID    func(*T) K
	SetID func(*T, K)
	// Clone copies an entity on its way in and out of the store. Defaults to a
	// shallow copy.
	Clone func(*T) *T
}

func (k Kind[T, K]) clone(e *T) *T {
	if e == nil {
		return nil
	}
	if k.Clone != nil {
		return k.Clone(e)
	}
	c := *e
	return &c
}

func (k Kind[T, K]) validate() error {
	if k.Name == "" {
		return fmt.Errorf("memory: kind name required")
	}
	if k.ID == nil || k.SetID == nil {
		return fmt.Errorf("memory: kind %s requires identity accessors", k.Name)
	}
	return nil
}

type keyType int

const (
	keyInt64 keyType = iota + 1
	keyInt32
	keyString
)

// ErrKeySpaceExhausted is returned when an int32 counter would overflow.
var ErrKeySpaceExhausted = errors.New("memory: key space exhausted")

func resolveKeyType[K comparable]() (keyType, error) {
	var zero K
	switch any(zero).(type) {
	case int64:
		return keyInt64, nil
	case int32:
		return keyInt32, nil
	case string:
		return keyString, nil
	default:
		return 0, fmt.Errorf("%w: %T", domain.ErrUnsupportedIdentityType, zero)
	}
}

// keyAssigner mints surrogate keys for new entities of one kind.
type keyAssigner[K comparable] struct {
	typ     keyType
	counter atomic.Int64
	token   func() string
}

func newKeyAssigner[K comparable](token func() string) (*keyAssigner[K], error) {
	typ, err := resolveKeyType[K]()
	if err != nil {
		return nil, err
	}
	if token == nil {
		token = uuid.NewString
	}
	return &keyAssigner[K]{typ: typ, token: token}, nil
}

// isNew reports whether id is the unset sentinel (0 or "").
func (a *keyAssigner[K]) isNew(id K) bool {
	var zero K
	return id == zero
}

func (a *keyAssigner[K]) assign() (K, error) {
	var zero K
	var key any
	switch a.typ {
	case keyInt64:
		key = a.counter.Add(1)
	case keyInt32:
		n := a.counter.Add(1)
		if n > math.MaxInt32 {
			return zero, fmt.Errorf("%w: int32 counter at %d", ErrKeySpaceExhausted, n)
		}
		key = int32(n)
	case keyString:
		key = a.token()
	default:
		return zero, domain.ErrUnsupportedIdentityType
	}
	return key.(K), nil
}

// observe moves an integer counter past an explicitly chosen key so later
// mints never reuse it. String keys are left alone.
func (a *keyAssigner[K]) observe(id K) {
	var n int64
	switch v := any(id).(type) {
	case int64:
		n = v
	case int32:
		n = int64(v)
	default:
		return
	}
	for {
		cur := a.counter.Load()
		if n <= cur || a.counter.CompareAndSwap(cur, n) {
			return
		}
	}
}

func (a *keyAssigner[K]) current() int64 { return a.counter.Load() }

func (a *keyAssigner[K]) restore(n int64) { a.counter.Store(n) }
