package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNullArgument reports a required entity, id collection, or batch member that is nil.
	ErrNullArgument = errors.New("repository: argument must not be nil")
	// ErrNotFound reports a reference lookup for an identity that is not stored.
	ErrNotFound = errors.New("repository: not found")
	// ErrUnsupportedOperation reports query-by-example and sort-based queries.
	ErrUnsupportedOperation = errors.New("repository: operation not supported")
	// ErrUnsupportedIdentityType reports an identity type outside int64, int32 and string.
	ErrUnsupportedIdentityType = errors.New("repository: unsupported identity type")
	// ErrInvalidPage reports a malformed page request.
	ErrInvalidPage = errors.New("repository: invalid page request")
)

// NotFoundError is returned by GetReferenceByID when no entity has the identity.
type NotFoundError struct {
	Entity EntityType
	ID     any
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

// Unwrap lets errors.Is match ErrNotFound.
func (e NotFoundError) Unwrap() error { return ErrNotFound }

// NullArgument builds an ErrNullArgument naming the offending argument.
func NullArgument(what string) error {
	return fmt.Errorf("%w: %s", ErrNullArgument, what)
}

// Unsupported builds an ErrUnsupportedOperation naming the rejected operation.
func Unsupported(op string) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedOperation, op)
}
