package objectstore

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestURL(t *testing.T) {
	got := URL("b", "ap-northeast-2", "k")
	if want := "https://b.s3.ap-northeast-2.amazonaws.com/k"; got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}
}

func TestCacheBustedURL(t *testing.T) {
	ts := time.UnixMilli(1712345678901)
	got := CacheBustedURL("b", "ap-northeast-2", "public/cat/ep.jpg", ts)

	base, query, ok := strings.Cut(got, "?t=")
	if !ok {
		t.Fatalf("missing ?t= in %q", got)
	}
	if base != "https://b.s3.ap-northeast-2.amazonaws.com/public/cat/ep.jpg" {
		t.Errorf("base = %q", base)
	}
	n, err := strconv.ParseInt(query, 10, 64)
	if err != nil {
		t.Fatalf("timestamp %q is not numeric: %v", query, err)
	}
	if n != ts.UnixMilli() {
		t.Errorf("timestamp = %d, want %d", n, ts.UnixMilli())
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	if _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) err = %v, want ErrNotFound", err)
	}

	if err := m.Put(ctx, "public/a/ep.png", []byte("one"), "image/png"); err != nil {
		t.Fatal(err)
	}
	if err := m.Put(ctx, "public/a/ep.png", []byte("two"), "image/png"); err != nil {
		t.Fatal(err)
	}
	if err := m.Put(ctx, "public/b/ep.png", []byte("x"), "image/png"); err != nil {
		t.Fatal(err)
	}

	data, err := m.Get(ctx, "public/a/ep.png")
	if err != nil || string(data) != "two" {
		t.Fatalf("Get = %q, %v; want two", data, err)
	}
	if n := m.Writes("public/a/ep.png"); n != 2 {
		t.Errorf("Writes = %d, want 2", n)
	}
	if ct := m.ContentType("public/a/ep.png"); ct != "image/png" {
		t.Errorf("ContentType = %q", ct)
	}

	keys, _ := m.List(ctx, "public/a/")
	if len(keys) != 1 || keys[0] != "public/a/ep.png" {
		t.Errorf("List = %v", keys)
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewMemoryStore().Put(ctx, "k", nil, ""); !errors.Is(err, context.Canceled) {
		t.Errorf("Put err = %v, want context.Canceled", err)
	}
}
