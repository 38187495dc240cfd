package testutil

import (
	"context"
	"testing"
)

func TestStubDBStoresAndQueriesRows(t *testing.T) {
	ctx := context.Background()
	db, conn := NewStubDB()
	t.Cleanup(func() { _ = db.Close() })

	var id int64
	if err := db.QueryRowContext(ctx, "INSERT INTO foods (name) VALUES ($1) RETURNING id", "bread").Scan(&id); err != nil {
		t.Fatalf("insert returning: %v", err)
	}
	if id != 1 || len(conn.Tables["foods"]) != 1 {
		t.Fatalf("expected first row with id 1, got %d rows=%v", id, conn.Tables["foods"])
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO foods (id, name) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET name = excluded.name", int64(1), "cake"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	var name string
	if err := db.QueryRowContext(ctx, "SELECT id, name FROM foods WHERE id = $1", int64(1)).Scan(&id, &name); err != nil {
		t.Fatalf("select: %v", err)
	}
	if name != "cake" || len(conn.Tables["foods"]) != 1 {
		t.Fatalf("upsert did not replace row: %s %v", name, conn.Tables["foods"])
	}

	if _, err := db.ExecContext(ctx, "SELECT setval(pg_get_serial_sequence('foods', 'id'), $1)", int64(9)); err != nil {
		t.Fatalf("setval: %v", err)
	}
	if err := db.QueryRowContext(ctx, "INSERT INTO foods (name) VALUES ($1) RETURNING id", "pie").Scan(&id); err != nil {
		t.Fatalf("insert after setval: %v", err)
	}
	if id != 10 {
		t.Fatalf("expected sequence to continue at 10, got %d", id)
	}

	rows, err := db.QueryContext(ctx, "SELECT id, name FROM foods ORDER BY id LIMIT $1 OFFSET $2", 1, int64(1))
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	var got []string
	for rows.Next() {
		if err := rows.Scan(&id, &name); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, name)
	}
	_ = rows.Close()
	if len(got) != 1 || got[0] != "pie" {
		t.Fatalf("unexpected window %v", got)
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM foods WHERE id IN ($1, $2)", int64(1), int64(10)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var n int64
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM foods").Scan(&n); err != nil || n != 0 {
		t.Fatalf("expected empty table, n=%d err=%v", n, err)
	}
}

func TestStubFailureSwitches(t *testing.T) {
	ctx := context.Background()
	db, conn := NewStubDB()
	t.Cleanup(func() { _ = db.Close() })

	conn.FailPing = true
	if err := db.PingContext(ctx); err == nil {
		t.Fatalf("expected ping failure")
	}
	conn.FailPing = false
	conn.FailTables = map[string]bool{"places": true}
	if _, err := db.ExecContext(ctx, "DELETE FROM places"); err == nil {
		t.Fatalf("expected table failure")
	}
	conn.FailExec = true
	if _, err := db.ExecContext(ctx, "CREATE TABLE x (id BIGINT)"); err == nil {
		t.Fatalf("expected exec failure")
	}
	if len(conn.Execs) != 2 {
		t.Fatalf("expected statements recorded, got %v", conn.Execs)
	}
}
