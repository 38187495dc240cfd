package sqlstore

import (
	"context"
	"database/sql"
	"pantry/pkg/domain"
	"strings"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	execer
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Table maps an entity type onto a table keyed by an int64 "id" column.
type Table[T any] struct {
	Name    string
	Kind    domain.EntityType
	Columns []string
	ID      func(*T) int64
	SetID   func(*T, int64)
	Clone   func(*T) *T
	// Values returns the non-key column values in Columns order.
	Values func(*T) []any
	// Scan reads one row laid out as id followed by Columns.
	Scan func(scan func(dest ...any) error) (*T, error)

	// before runs inside the write transaction ahead of the row write.
	before func(ctx context.Context, q querier, e *T) error
	// after runs on every entity read back from the table.
	after func(ctx context.Context, q querier, e *T) error
}

func (t Table[T]) selectList() string {
	return "id, " + strings.Join(t.Columns, ", ")
}

func (t Table[T]) clone(e *T) *T {
	if t.Clone != nil {
		return t.Clone(e)
	}
	c := *e
	return &c
}
