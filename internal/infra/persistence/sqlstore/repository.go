package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"pantry/pkg/domain"
	"strconv"
	"strings"
)

// Repository implements domain.Repository[T, int64] over one table. Writes
// run in a transaction; reads go straight to the pool.
type Repository[T any] struct {
	db      *sql.DB
	dialect Dialect
	table   Table[T]
}

// NewRepository binds table to db using dialect.
func NewRepository[T any](db *sql.DB, dialect Dialect, table Table[T]) *Repository[T] {
	return &Repository[T]{db: db, dialect: dialect, table: table}
}

// Save inserts an entity with the zero identity (writing the database
// assigned key back into entity) or upserts one that already has a key.
func (r *Repository[T]) Save(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, domain.NullArgument("entity")
	}
	err := r.inTx(ctx, func(q querier) error { return r.save(ctx, q, entity) })
	if err != nil {
		return nil, err
	}
	return r.table.clone(entity), nil
}

// SaveAll saves every entity in input order inside one transaction.
func (r *Repository[T]) SaveAll(ctx context.Context, entities []*T) ([]*T, error) {
	if err := checkEntities(entities); err != nil {
		return nil, err
	}
	err := r.inTx(ctx, func(q querier) error {
		for _, e := range entities {
			if err := r.save(ctx, q, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(entities))
	for _, e := range entities {
		out = append(out, r.table.clone(e))
	}
	return out, nil
}

// SaveAndFlush is Save; every write commits before returning.
func (r *Repository[T]) SaveAndFlush(ctx context.Context, entity *T) (*T, error) {
	return r.Save(ctx, entity)
}

// SaveAllAndFlush is SaveAll.
func (r *Repository[T]) SaveAllAndFlush(ctx context.Context, entities []*T) ([]*T, error) {
	return r.SaveAll(ctx, entities)
}

// Flush is a no-op.
func (r *Repository[T]) Flush(context.Context) error { return nil }

// FindByID returns the entity with identity id, or false when absent.
func (r *Repository[T]) FindByID(ctx context.Context, id int64) (*T, bool, error) {
	return r.get(ctx, r.db, id)
}

// ExistsByID reports whether a row with identity id exists.
func (r *Repository[T]) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT 1 FROM %s WHERE id = %s", r.table.Name, r.dialect.Bind(1)), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s exists: %w", r.table.Name, err)
	}
	return true, nil
}

// GetReferenceByID returns the entity with identity id or a domain.NotFoundError.
func (r *Repository[T]) GetReferenceByID(ctx context.Context, id int64) (*T, error) {
	return r.reference(ctx, r.db, id)
}

// FindAll returns every row in key order.
func (r *Repository[T]) FindAll(ctx context.Context) ([]*T, error) {
	return r.list(ctx, r.db, "", "")
}

// FindAllPage returns the [offset, offset+size) window of FindAll.
func (r *Repository[T]) FindAllPage(ctx context.Context, req domain.PageRequest) (domain.Page[T], error) {
	if err := req.Validate(); err != nil {
		return domain.Page[T]{}, err
	}
	total, err := r.Count(ctx)
	if err != nil {
		return domain.Page[T]{}, err
	}
	tail := fmt.Sprintf("LIMIT %s OFFSET %s", r.dialect.Bind(1), r.dialect.Bind(2))
	content, err := r.list(ctx, r.db, "", tail, req.Size, req.Offset())
	if err != nil {
		return domain.Page[T]{}, err
	}
	if content == nil {
		content = []*T{}
	}
	return domain.Page[T]{Content: content, Request: req, Total: total}, nil
}

// FindAllByID returns the rows whose identity is in ids, in key order.
func (r *Repository[T]) FindAllByID(ctx context.Context, ids []int64) ([]*T, error) {
	if ids == nil {
		return nil, domain.NullArgument("ids")
	}
	if len(ids) == 0 {
		return nil, nil
	}
	where := fmt.Sprintf("WHERE id IN (%s)", r.dialect.binds(1, len(ids)))
	return r.list(ctx, r.db, where, "", anys(ids)...)
}

// Count returns the number of rows.
func (r *Repository[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+r.table.Name).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s count: %w", r.table.Name, err)
	}
	return n, nil
}

// FindAllSorted is not supported.
func (r *Repository[T]) FindAllSorted(context.Context, domain.Sort) ([]*T, error) {
	return nil, domain.Unsupported("find all sorted")
}

// FindAllByExample is not supported.
func (r *Repository[T]) FindAllByExample(context.Context, domain.Example[T]) ([]*T, error) {
	return nil, domain.Unsupported("find all by example")
}

// FindOneByExample is not supported.
func (r *Repository[T]) FindOneByExample(context.Context, domain.Example[T]) (*T, bool, error) {
	return nil, false, domain.Unsupported("find one by example")
}

// CountByExample is not supported.
func (r *Repository[T]) CountByExample(context.Context, domain.Example[T]) (int64, error) {
	return 0, domain.Unsupported("count by example")
}

// ExistsByExample is not supported.
func (r *Repository[T]) ExistsByExample(context.Context, domain.Example[T]) (bool, error) {
	return false, domain.Unsupported("exists by example")
}

// DeleteByID removes the row with identity id if present.
func (r *Repository[T]) DeleteByID(ctx context.Context, id int64) error {
	return r.exec(ctx, "delete", fmt.Sprintf("DELETE FROM %s WHERE id = %s", r.table.Name, r.dialect.Bind(1)), id)
}

// Delete removes the row sharing entity's identity.
func (r *Repository[T]) Delete(ctx context.Context, entity *T) error {
	if entity == nil {
		return domain.NullArgument("entity")
	}
	return r.DeleteByID(ctx, r.table.ID(entity))
}

// DeleteAllByID removes every row whose identity is in ids.
func (r *Repository[T]) DeleteAllByID(ctx context.Context, ids []int64) error {
	return r.DeleteAllByIDInBatch(ctx, ids)
}

// DeleteAllByIDInBatch removes every row whose identity is in ids with one statement.
func (r *Repository[T]) DeleteAllByIDInBatch(ctx context.Context, ids []int64) error {
	if ids == nil {
		return domain.NullArgument("ids")
	}
	if len(ids) == 0 {
		return nil
	}
	stmt := fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", r.table.Name, r.dialect.binds(1, len(ids)))
	return r.exec(ctx, "delete batch", stmt, anys(ids)...)
}

// DeleteAllInBatch removes every row sharing an identity with entities.
func (r *Repository[T]) DeleteAllInBatch(ctx context.Context, entities []*T) error {
	if err := checkEntities(entities); err != nil {
		return err
	}
	ids := make([]int64, 0, len(entities))
	for _, e := range entities {
		ids = append(ids, r.table.ID(e))
	}
	return r.DeleteAllByIDInBatch(ctx, ids)
}

// DeleteAll removes every row. Key sequences keep counting.
func (r *Repository[T]) DeleteAll(ctx context.Context) error {
	return r.exec(ctx, "delete all", "DELETE FROM "+r.table.Name)
}

func (r *Repository[T]) save(ctx context.Context, q querier, e *T) error {
	if r.table.before != nil {
		if err := r.table.before(ctx, q, e); err != nil {
			return fmt.Errorf("%s: %w", r.table.Kind, err)
		}
	}
	if r.table.ID(e) == 0 {
		return r.insert(ctx, q, e)
	}
	return r.upsert(ctx, q, e)
}

func (r *Repository[T]) insert(ctx context.Context, q querier, e *T) error {
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		r.table.Name, strings.Join(r.table.Columns, ", "), r.dialect.binds(1, len(r.table.Columns)))
	var id int64
	if err := q.QueryRowContext(ctx, stmt, r.table.Values(e)...).Scan(&id); err != nil {
		return fmt.Errorf("%s insert: %w", r.table.Name, err)
	}
	r.table.SetID(e, id)
	return nil
}

func (r *Repository[T]) upsert(ctx context.Context, q querier, e *T) error {
	sets := make([]string, len(r.table.Columns))
	for i, c := range r.table.Columns {
		sets[i] = fmt.Sprintf("%s = excluded.%s", c, c)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s",
		r.table.Name, r.table.selectList(), r.dialect.binds(1, len(r.table.Columns)+1), strings.Join(sets, ", "))
	id := r.table.ID(e)
	args := append([]any{id}, r.table.Values(e)...)
	if _, err := q.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("%s upsert %d: %w", r.table.Name, id, err)
	}
	if r.dialect.Resync != nil {
		if _, err := q.ExecContext(ctx, r.dialect.Resync(r.table.Name), id); err != nil {
			return fmt.Errorf("%s resync sequence: %w", r.table.Name, err)
		}
	}
	return nil
}

func (r *Repository[T]) get(ctx context.Context, q querier, id int64) (*T, bool, error) {
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE id = %s", r.table.selectList(), r.table.Name, r.dialect.Bind(1))
	e, err := r.table.Scan(q.QueryRowContext(ctx, stmt, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s get %d: %w", r.table.Name, id, err)
	}
	if err := r.resolve(ctx, q, e); err != nil {
		return nil, false, err
	}
	return e, true, nil
}

func (r *Repository[T]) reference(ctx context.Context, q querier, id int64) (*T, error) {
	e, ok, err := r.get(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NotFoundError{Entity: r.table.Kind, ID: id}
	}
	return e, nil
}

// list selects rows in key order. where and limit are optional clauses whose
// placeholders are bound to args in order.
func (r *Repository[T]) list(ctx context.Context, q querier, where, limit string, args ...any) ([]*T, error) {
	stmt := fmt.Sprintf("SELECT %s FROM %s", r.table.selectList(), r.table.Name)
	if where != "" {
		stmt += " " + where
	}
	stmt += " ORDER BY id"
	if limit != "" {
		stmt += " " + limit
	}
	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%s select: %w", r.table.Name, err)
	}
	var out []*T
	for rows.Next() {
		e, err := r.table.Scan(rows.Scan)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("%s scan: %w", r.table.Name, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("%s iterate: %w", r.table.Name, err)
	}
	// Rows must be released before resolving: SQLite runs on one connection.
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("%s close rows: %w", r.table.Name, err)
	}
	for _, e := range out {
		if err := r.resolve(ctx, q, e); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repository[T]) resolve(ctx context.Context, q querier, e *T) error {
	if r.table.after == nil {
		return nil
	}
	if err := r.table.after(ctx, q, e); err != nil {
		return fmt.Errorf("%s %d: %w", r.table.Kind, r.table.ID(e), err)
	}
	return nil
}

func (r *Repository[T]) exec(ctx context.Context, op, stmt string, args ...any) error {
	if _, err := r.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("%s %s: %w", r.table.Name, op, err)
	}
	return nil
}

func (r *Repository[T]) inTx(ctx context.Context, fn func(querier) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s begin tx: %w", r.table.Name, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s commit: %w", r.table.Name, err)
	}
	committed = true
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

func anys(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
