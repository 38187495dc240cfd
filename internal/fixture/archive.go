package fixture

import (
	"bytes"
	"context"
	"fmt"
	"pantry/internal/blob"
	"path"
	"strconv"
	"strings"
)

const (
	// DefaultPrefix is the key prefix used when NewArchive receives none.
	DefaultPrefix = "fixtures/"
	contentType   = "application/yaml"
	extension     = ".yaml"
)

// Archive stores named fixture documents in a blob store.
type Archive struct {
	store  blob.Store
	prefix string
}

// NewArchive returns an archive writing under prefix in store.
func NewArchive(store blob.Store, prefix string) *Archive {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Archive{store: store, prefix: prefix}
}

func (a *Archive) key(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid archive name %q", name)
	}
	return path.Join(a.prefix, name+extension), nil
}

// Put encodes doc and stores it under name. Existing archives are kept
// unless overwrite is set.
func (a *Archive) Put(ctx context.Context, name string, doc Document, overwrite bool) (blob.Info, error) {
	key, err := a.key(name)
	if err != nil {
		return blob.Info{}, err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return blob.Info{}, err
	}
	info, err := a.store.Put(ctx, key, &buf, blob.PutOptions{
		ContentType: contentType,
		Overwrite:   overwrite,
		Metadata: map[string]string{
			"foods":     strconv.Itoa(len(doc.Foods)),
			"places":    strconv.Itoa(len(doc.Places)),
			"beverages": strconv.Itoa(len(doc.Beverages)),
		},
	})
	if err != nil {
		return blob.Info{}, fmt.Errorf("archive %s: %w", name, err)
	}
	return info, nil
}

// Get loads and validates the archive stored under name.
func (a *Archive) Get(ctx context.Context, name string) (Document, error) {
	key, err := a.key(name)
	if err != nil {
		return Document{}, err
	}
	_, rc, err := a.store.Get(ctx, key)
	if err != nil {
		return Document{}, fmt.Errorf("archive %s: %w", name, err)
	}
	defer func() { _ = rc.Close() }()
	return Decode(rc)
}

// List returns the archive names in key order.
func (a *Archive) List(ctx context.Context) ([]string, error) {
	infos, err := a.store.List(ctx, a.prefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		rest := strings.TrimPrefix(info.Key, a.prefix)
		if strings.Contains(rest, "/") || !strings.HasSuffix(rest, extension) {
			continue
		}
		names = append(names, strings.TrimSuffix(rest, extension))
	}
	return names, nil
}

// Delete removes the archive stored under name.
func (a *Archive) Delete(ctx context.Context, name string) (bool, error) {
	key, err := a.key(name)
	if err != nil {
		return false, err
	}
	return a.store.Delete(ctx, key)
}
