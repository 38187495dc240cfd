package memory

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"pantry/internal/blob/core"
)

func TestStoreCopiesOnTheWayOut(t *testing.T) {
	ctx := context.Background()
	s := New()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	md := map[string]string{"k": "v"}
	if _, err := s.Put(ctx, "key", strings.NewReader("data"), core.PutOptions{Metadata: md}); err != nil {
		t.Fatalf("put: %v", err)
	}
	md["k"] = "mutated"

	info, rc, err := s.Get(ctx, "key")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	if info.Metadata["k"] != "v" || !info.LastModified.Equal(fixed) {
		t.Fatalf("unexpected info %+v", info)
	}
	info.Metadata["k"] = "changed"
	again, _ := s.Head(ctx, "key")
	if again.Metadata["k"] != "v" {
		t.Fatalf("head aliased metadata")
	}
	b, _ := io.ReadAll(rc)
	if string(b) != "data" || info.ETag == "" {
		t.Fatalf("unexpected body %q etag %q", b, info.ETag)
	}
	if _, err := s.Put(ctx, " ", strings.NewReader(""), core.PutOptions{}); err == nil {
		t.Fatalf("expected empty key error")
	}
}
