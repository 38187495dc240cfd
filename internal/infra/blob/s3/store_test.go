package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"pantry/internal/blob/core"
)

func TestDecodeChunked(t *testing.T) {
	got, err := decodeChunked([]byte("5;chunk-signature=abc\r\nhello\r\n6\r\n world\r\n0\r\nx-amz-checksum-crc32:AAAA\r\n\r\n"))
	if err != nil || string(got) != "hello world" {
		t.Fatalf("decode: %q %v", got, err)
	}
	for _, bad := range []string{"zz\r\nx", "5\r\nhi", "nope"} {
		if _, err := decodeChunked([]byte(bad)); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestMockRoundTripsMetadata(t *testing.T) {
	ctx := context.Background()
	s := NewMockForTests()
	_, err := s.Put(ctx, "a/b.yaml", strings.NewReader("x: 1\n"), core.PutOptions{
		ContentType: "application/yaml",
		Metadata:    map[string]string{"source": "seed"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	info, rc, err := s.Get(ctx, "a/b.yaml")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "x: 1\n" || info.ContentType != "application/yaml" || info.Metadata["source"] != "seed" {
		t.Fatalf("unexpected object %+v %q", info, body)
	}
	if _, err := s.Head(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
	s, err := New(context.Background(), Config{
		Bucket:          "b",
		Endpoint:        "http://localhost:9000",
		PathStyle:       true,
		AccessKeyID:     "id",
		SecretAccessKey: "secret",
	})
	if err != nil || s.Driver() != core.DriverS3 {
		t.Fatalf("new: %v %v", s, err)
	}
}
