package fixture_test

import (
	"context"
	"errors"
	"pantry/internal/blob"
	"pantry/internal/fixture"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestArchiveRoundTrip(t *testing.T) {
	stores := map[string]blob.Store{
		"memory": blob.NewMemory(),
		"s3":     blob.NewMockS3ForTests(),
	}
	doc := fixture.Document{
		Foods:     []fixture.Named{{Name: "bread"}},
		Places:    []fixture.Named{{Name: "bar"}},
		Beverages: []fixture.BeverageEntry{{Name: "beer", Food: "bread", Place: "bar"}},
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			a := fixture.NewArchive(store, "")
			info, err := a.Put(ctx, "weekly", doc, false)
			if err != nil {
				t.Fatalf("put: %v", err)
			}
			if info.Key != "fixtures/weekly.yaml" {
				t.Fatalf("unexpected key %q", info.Key)
			}
			head, err := store.Head(ctx, info.Key)
			if err != nil {
				t.Fatalf("head: %v", err)
			}
			if head.ContentType != "application/yaml" || head.Metadata["beverages"] != "1" {
				t.Fatalf("unexpected info %+v", head)
			}
			if _, err := a.Put(ctx, "weekly", doc, false); !errors.Is(err, blob.ErrExists) {
				t.Fatalf("expected ErrExists, got %v", err)
			}
			if _, err := a.Put(ctx, "weekly", doc, true); err != nil {
				t.Fatalf("overwrite: %v", err)
			}

			got, err := a.Get(ctx, "weekly")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if diff := cmp.Diff(doc, got); diff != "" {
				t.Fatalf("archive mismatch (-want +got):\n%s", diff)
			}

			if _, err := store.Put(ctx, "fixtures/notes.txt", strings.NewReader("n"), blob.PutOptions{}); err != nil {
				t.Fatalf("put unrelated: %v", err)
			}
			names, err := a.List(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if diff := cmp.Diff([]string{"weekly"}, names); diff != "" {
				t.Fatalf("list mismatch (-want +got):\n%s", diff)
			}

			removed, err := a.Delete(ctx, "weekly")
			if err != nil || !removed {
				t.Fatalf("delete: %v %v", removed, err)
			}
			if _, err := a.Get(ctx, "weekly"); !errors.Is(err, blob.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestArchiveRejectsUnsafeNames(t *testing.T) {
	a := fixture.NewArchive(blob.NewMemory(), "seed")
	for _, name := range []string{"", "a/b", "..", `a\b`} {
		if _, err := a.Get(context.Background(), name); err == nil {
			t.Fatalf("expected error for %q", name)
		}
	}
}
