// Package testutil provides an in-memory stub database that understands the
// statements issued by the postgres catalog, for tests without a server.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// StubConn records statements and keeps table rows keyed by column name.
// Foreign keys and transactions are not emulated: rollback keeps writes.
type StubConn struct {
	mu sync.Mutex

	Execs      []string
	Tables     map[string][]map[string]any
	Sequences  map[string]int64
	FailExec   bool
	FailPing   bool
	FailBegin  bool
	FailCommit bool
	FailTables map[string]bool
}

// NewStubDB registers a sql.DB backed by a fresh stub connection.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{
		Tables:    make(map[string][]map[string]any),
		Sequences: make(map[string]int64),
	}
	name := fmt.Sprintf("stubpg%d", time.Now().UnixNano())
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

type stubDriver struct {
	conn *StubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) {
	return d.conn, nil
}

// Prepare implements driver.Conn.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// Ping implements driver.Pinger.
func (c *StubConn) Ping(context.Context) error {
	if c.FailPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

// BeginTx implements driver.ConnBeginTx.
func (c *StubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, fmt.Errorf("begin fail")
	}
	return &stubTx{conn: c}, nil
}

// ExecContext implements driver.ExecerContext.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	query = normalize(query)
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, fmt.Errorf("exec fail")
	}
	upper := strings.ToUpper(query)
	switch {
	case strings.HasPrefix(upper, "INSERT INTO"):
		table, cols, err := parseInsert(query)
		if err != nil {
			return nil, err
		}
		if err := c.checkTable(table); err != nil {
			return nil, err
		}
		if len(cols) != len(args) {
			return nil, fmt.Errorf("column/arg mismatch for %s", table)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = args[i].Value
		}
		if strings.Contains(upper, "ON CONFLICT") {
			c.Tables[table] = without(c.Tables[table], func(existing map[string]any) bool {
				return existing["id"] == row["id"]
			})
		}
		c.Tables[table] = append(c.Tables[table], row)
		return driver.RowsAffected(1), nil
	case strings.HasPrefix(upper, "DELETE FROM"):
		table, where := splitFrom(query[len("DELETE FROM "):])
		if err := c.checkTable(table); err != nil {
			return nil, err
		}
		match, err := parseWhere(where, args)
		if err != nil {
			return nil, err
		}
		before := len(c.Tables[table])
		c.Tables[table] = without(c.Tables[table], match)
		return driver.RowsAffected(int64(before - len(c.Tables[table]))), nil
	case strings.HasPrefix(upper, "SELECT SETVAL("):
		table, err := quoted(query)
		if err != nil {
			return nil, err
		}
		if len(args) == 1 {
			if v, ok := args[0].Value.(int64); ok && v > c.Sequences[table] {
				c.Sequences[table] = v
			}
		}
		return driver.RowsAffected(1), nil
	}
	return driver.RowsAffected(0), nil
}

// QueryContext implements driver.QueryerContext.
func (c *StubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	query = normalize(query)
	upper := strings.ToUpper(query)
	if strings.HasPrefix(upper, "INSERT INTO") && strings.HasSuffix(upper, "RETURNING ID") {
		return c.insertReturning(query, args)
	}
	if !strings.HasPrefix(upper, "SELECT ") {
		return nil, fmt.Errorf("cannot parse query: %s", query)
	}
	fromIdx := strings.Index(upper, " FROM ")
	if fromIdx == -1 {
		return nil, fmt.Errorf("cannot parse select: %s", query)
	}
	cols := splitColumns(query[len("SELECT "):fromIdx])
	table, rest := splitFrom(query[fromIdx+len(" FROM "):])
	if err := c.checkTable(table); err != nil {
		return nil, err
	}
	if len(cols) == 1 && strings.EqualFold(cols[0], "count(*)") {
		return &stubRows{cols: cols, rows: [][]driver.Value{{int64(len(c.Tables[table]))}}}, nil
	}

	where, limit := rest, ""
	if i := strings.Index(strings.ToUpper(rest), "ORDER BY ID"); i >= 0 {
		where, limit = strings.TrimSpace(rest[:i]), strings.TrimSpace(rest[i+len("ORDER BY ID"):])
	}
	match, err := parseWhere(where, args)
	if err != nil {
		return nil, err
	}
	var selected []map[string]any
	for _, row := range c.Tables[table] {
		if match(row) {
			selected = append(selected, row)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool { return asInt(selected[i]["id"]) < asInt(selected[j]["id"]) })
	if selected, err = window(selected, limit, args); err != nil {
		return nil, err
	}
	values := make([][]driver.Value, 0, len(selected))
	for _, row := range selected {
		vals := make([]driver.Value, len(cols))
		for i, col := range cols {
			if col == "1" {
				vals[i] = int64(1)
				continue
			}
			vals[i] = row[col]
		}
		values = append(values, vals)
	}
	return &stubRows{cols: cols, rows: values}, nil
}

func (c *StubConn) insertReturning(query string, args []driver.NamedValue) (driver.Rows, error) {
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, fmt.Errorf("exec fail")
	}
	table, cols, err := parseInsert(query)
	if err != nil {
		return nil, err
	}
	if err := c.checkTable(table); err != nil {
		return nil, err
	}
	if len(cols) != len(args) {
		return nil, fmt.Errorf("column/arg mismatch for %s", table)
	}
	c.Sequences[table]++
	id := c.Sequences[table]
	row := map[string]any{"id": id}
	for i, col := range cols {
		row[col] = args[i].Value
	}
	c.Tables[table] = append(c.Tables[table], row)
	return &stubRows{cols: []string{"id"}, rows: [][]driver.Value{{id}}}, nil
}

func (c *StubConn) checkTable(table string) error {
	if c.FailTables != nil && c.FailTables[table] {
		return fmt.Errorf("exec fail for %s", table)
	}
	return nil
}

type stubTx struct {
	conn *StubConn
}

func (t *stubTx) Commit() error {
	if t.conn.FailCommit {
		return fmt.Errorf("commit fail")
	}
	return nil
}

func (t *stubTx) Rollback() error { return nil }

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}

func normalize(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

func parseInsert(query string) (string, []string, error) {
	up := strings.ToUpper(query)
	intoIdx := strings.Index(up, "INTO ")
	if intoIdx == -1 {
		return "", nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	rest := strings.TrimSpace(query[intoIdx+len("INTO "):])
	open := strings.Index(rest, "(")
	closeIdx := strings.Index(rest, ")")
	if open == -1 || closeIdx == -1 || closeIdx <= open {
		return "", nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	table := strings.ToLower(strings.TrimSpace(rest[:open]))
	return table, splitColumns(rest[open+1 : closeIdx]), nil
}

// splitFrom separates the table name from the clauses following it.
func splitFrom(s string) (string, string) {
	fields := strings.SplitN(strings.TrimSpace(s), " ", 2)
	table := strings.ToLower(fields[0])
	if len(fields) == 1 {
		return table, ""
	}
	return table, strings.TrimSpace(fields[1])
}

// parseWhere understands "", "WHERE col = $n" and "WHERE id IN ($a, $b, ...)".
func parseWhere(where string, args []driver.NamedValue) (func(map[string]any) bool, error) {
	if where == "" {
		return func(map[string]any) bool { return true }, nil
	}
	upper := strings.ToUpper(where)
	if !strings.HasPrefix(upper, "WHERE ") {
		return nil, fmt.Errorf("cannot parse predicate: %s", where)
	}
	pred := strings.TrimSpace(where[len("WHERE "):])
	if i := strings.Index(strings.ToUpper(pred), " IN ("); i >= 0 {
		col := strings.ToLower(strings.TrimSpace(pred[:i]))
		list := strings.TrimSuffix(strings.TrimSpace(pred[i+len(" IN ("):]), ")")
		set := map[int64]bool{}
		for _, ph := range splitColumns(list) {
			v, err := arg(ph, args)
			if err != nil {
				return nil, err
			}
			set[asInt(v)] = true
		}
		return func(row map[string]any) bool { return set[asInt(row[col])] }, nil
	}
	parts := strings.SplitN(pred, "=", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("cannot parse predicate: %s", where)
	}
	col := strings.ToLower(strings.TrimSpace(parts[0]))
	v, err := arg(strings.TrimSpace(parts[1]), args)
	if err != nil {
		return nil, err
	}
	return func(row map[string]any) bool {
		return row[col] != nil && asInt(row[col]) == asInt(v)
	}, nil
}

func window(rows []map[string]any, clause string, args []driver.NamedValue) ([]map[string]any, error) {
	if clause == "" {
		return rows, nil
	}
	fields := strings.Fields(clause)
	if len(fields) != 4 || !strings.EqualFold(fields[0], "LIMIT") || !strings.EqualFold(fields[2], "OFFSET") {
		return nil, fmt.Errorf("cannot parse window: %s", clause)
	}
	limit, err := arg(fields[1], args)
	if err != nil {
		return nil, err
	}
	offset, err := arg(fields[3], args)
	if err != nil {
		return nil, err
	}
	total := int64(len(rows))
	start := min(max(asInt(offset), 0), total)
	end := start + min(max(asInt(limit), 0), total-start)
	return rows[start:end], nil
}

func arg(placeholder string, args []driver.NamedValue) (any, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(placeholder, "$"))
	if err != nil || n < 1 || n > len(args) {
		return nil, fmt.Errorf("bad placeholder %q", placeholder)
	}
	return args[n-1].Value, nil
}

func quoted(query string) (string, error) {
	start := strings.Index(query, "'")
	if start == -1 {
		return "", fmt.Errorf("cannot parse setval: %s", query)
	}
	end := strings.Index(query[start+1:], "'")
	if end == -1 {
		return "", fmt.Errorf("cannot parse setval: %s", query)
	}
	return strings.ToLower(query[start+1 : start+1+end]), nil
}

func without(rows []map[string]any, drop func(map[string]any) bool) []map[string]any {
	out := rows[:0:0]
	for _, row := range rows {
		if !drop(row) {
			out = append(out, row)
		}
	}
	return out
}

func asInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	}
	return 0
}

func splitColumns(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.ToLower(strings.TrimSpace(part)))
	}
	return out
}
