// Package sqlstore implements the domain repositories over database/sql. The
// SQLite and Postgres backends differ only in the Dialect they pass in.
package sqlstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Dialect captures the statement differences between SQL backends.
type Dialect struct {
	Name string
	// Bind returns the placeholder for the n-th (1-based) statement argument.
	Bind func(n int) string
	// Schema lists the idempotent DDL statements creating the catalog tables.
	Schema []string
	// Resync, when set, returns a statement taking one argument (an explicit
	// key just written to table) that moves the table's key sequence past it.
	Resync func(table string) string
}

// SQLite binds with "?" and relies on AUTOINCREMENT, which already tracks
// explicitly written keys and never reuses deleted ones.
var SQLite = Dialect{
	Name: "sqlite",
	Bind: func(int) string { return "?" },
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS foods (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS places (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS beverages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL DEFAULT '',
			food_id INTEGER REFERENCES foods(id),
			place_id INTEGER REFERENCES places(id)
		)`,
		`CREATE INDEX IF NOT EXISTS beverages_food_id ON beverages(food_id)`,
		`CREATE INDEX IF NOT EXISTS beverages_place_id ON beverages(place_id)`,
	},
}

// Postgres binds with "$n" and uses identity columns.
var Postgres = Dialect{
	Name: "postgres",
	Bind: func(n int) string { return "$" + strconv.Itoa(n) },
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS foods (
			id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			name TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS places (
			id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			name TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS beverages (
			id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			food_id BIGINT REFERENCES foods(id),
			place_id BIGINT REFERENCES places(id)
		)`,
		`CREATE INDEX IF NOT EXISTS beverages_food_id ON beverages(food_id)`,
		`CREATE INDEX IF NOT EXISTS beverages_place_id ON beverages(place_id)`,
	},
	// nextval-1 is the current high-water mark, so the sequence never moves
	// backwards and only advances when the explicit key is beyond it. setval
	// rejects values below 1.
	Resync: func(table string) string {
		seq := fmt.Sprintf("pg_get_serial_sequence('%s', 'id')", table)
		return fmt.Sprintf("SELECT setval(%s, GREATEST(nextval(%s) - 1, $1::bigint, 1))", seq, seq)
	},
}

// binds renders count placeholders starting at argument start.
func (d Dialect) binds(start, count int) string {
	parts := make([]string, count)
	for i := range parts {
		parts[i] = d.Bind(start + i)
	}
	return strings.Join(parts, ", ")
}

// ApplySchema runs the dialect DDL against e.
func (d Dialect) ApplySchema(ctx context.Context, e execer) error {
	for _, stmt := range d.Schema {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := e.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: apply schema: %w", d.Name, err)
		}
	}
	return nil
}
