package store

import (
	"context"
	"testing"
)

func TestMemStoreNotFoundVsError(t *testing.T) {
	m := NewMem()
	ctx := context.Background()

	if _, err := m.GetBytes(ctx, "b1", "x"); err == nil {
		t.Fatalf("expected not-found error for unensured bucket")
	}

	if err := m.EnsureBucket(ctx, "b1"); err != nil {
		t.Fatalf("ensure bucket: %v", err)
	}
	if _, err := m.GetBytes(ctx, "b1", "missing"); err == nil {
		t.Fatalf("expected not-found error for missing key")
	}

	if err := m.PutBytes(ctx, "b1", "k", []byte("v"), "text/plain"); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := m.GetBytes(ctx, "b1", "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("get: %v %q", err, got)
	}
}

func TestMemStorePrefixListAndDelete(t *testing.T) {
	m := NewMem()
	ctx := context.Background()
	_ = m.EnsureBucket(ctx, "b1")

	for _, k := range []string{"staged/i1/slice-1.parquet", "staged/i1/slice-2.parquet", "indexes/i1/manifest.json"} {
		_ = m.PutBytes(ctx, "b1", k, []byte("x"), "application/octet-stream")
	}

	keys, err := m.ListPrefix(ctx, "b1", StagedPrefix("i1"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 staged keys, got %d (%v)", len(keys), keys)
	}

	if err := m.DeletePrefix(ctx, "b1", StagedPrefix("i1")); err != nil {
		t.Fatalf("delete prefix: %v", err)
	}
	keys, _ = m.ListPrefix(ctx, "b1", StagedPrefix("i1"))
	if len(keys) != 0 {
		t.Fatalf("expected staged prefix empty after delete, got %v", keys)
	}

	keys, _ = m.ListPrefix(ctx, "b1", IndexPrefix("i1"))
	if len(keys) != 1 {
		t.Fatalf("expected manifest to survive staged deletion, got %v", keys)
	}
}
