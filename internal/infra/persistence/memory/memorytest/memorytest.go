// Package memorytest wires memory registries into tests with teardown hooks.
package memorytest

import (
	"pantry/internal/infra/persistence/memory"
	"testing"
)

// Registry returns a fresh registry whose stores are cleared when t finishes.
func Registry(t testing.TB, opts ...memory.Option) *memory.Registry {
	t.Helper()
	r := memory.NewRegistry(opts...)
	t.Cleanup(r.ClearAll)
	return r
}

// Catalog returns catalog repositories over a fresh registry.
func Catalog(t testing.TB, opts ...memory.Option) *memory.Catalog {
	t.Helper()
	c, err := memory.NewCatalog(Registry(t, opts...))
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	return c
}

// Shared returns catalog repositories over the process-wide registry and
// clears every store when t finishes.
func Shared(t testing.TB) *memory.Catalog {
	t.Helper()
	r := memory.Shared()
	t.Cleanup(r.ClearAll)
	c, err := memory.NewCatalog(r)
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	return c
}

// Checkpoint records the catalog state now and restores it when t finishes.
func Checkpoint(t testing.TB, c *memory.Catalog) memory.Snapshot {
	t.Helper()
	snap := c.ExportState()
	t.Cleanup(func() { c.ImportState(snap) })
	return snap
}
