package control

import (
	"context"
	"testing"

	"github.com/annstore/vecdb/cmn"
	"github.com/annstore/vecdb/meta"
	"github.com/annstore/vecdb/store"
)

func TestCreateBucketIsIdempotent(t *testing.T) {
	ctx := context.Background()
	p := New(store.NewMem())
	b1, err := p.CreateBucket(ctx, "my-bucket")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b2, err := p.CreateBucket(ctx, "my-bucket")
	if err != nil {
		t.Fatalf("recreate: %v", err)
	}
	if b1.Created != b2.Created {
		t.Fatalf("expected idempotent recreate to return the original doc, got %+v vs %+v", b1, b2)
	}
}

func TestCreateBucketRejectsBadName(t *testing.T) {
	p := New(store.NewMem())
	if _, err := p.CreateBucket(context.Background(), "AB"); err == nil {
		t.Fatalf("expected validation error for a too-short uppercase name")
	}
}

func TestDeleteBucketSweepsContents(t *testing.T) {
	ctx := context.Background()
	s := store.NewMem()
	p := New(s)
	if _, err := p.CreateBucket(ctx, "my-bucket"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := p.CreateIndex(ctx, "my-bucket", CreateIndexRequest{
		Name: "idx", Dimension: 3, DataType: "float32", DistanceMetric: meta.MetricCosine,
	}); err != nil {
		t.Fatalf("create index: %v", err)
	}
	if err := p.DeleteBucket(ctx, "my-bucket"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := p.GetBucket(ctx, "my-bucket"); cmn.AsError(err).Kind != cmn.KindNotFound {
		t.Fatalf("expected not-found after delete, got %v", err)
	}
}

func TestCreateIndexConflictsUnderDifferingParams(t *testing.T) {
	ctx := context.Background()
	s := store.NewMem()
	p := New(s)
	_, _ = p.CreateBucket(ctx, "my-bucket")

	req := CreateIndexRequest{Name: "idx", Dimension: 3, DataType: "float32", DistanceMetric: meta.MetricCosine}
	if _, err := p.CreateIndex(ctx, "my-bucket", req); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := p.CreateIndex(ctx, "my-bucket", req); err != nil {
		t.Fatalf("idempotent recreate: %v", err)
	}

	req.Dimension = 4
	if _, err := p.CreateIndex(ctx, "my-bucket", req); cmn.AsError(err).Kind != cmn.KindConflict {
		t.Fatalf("expected conflict on differing dimension, got %v", err)
	}
}

func TestListIndexesReturnsCreatedNames(t *testing.T) {
	ctx := context.Background()
	s := store.NewMem()
	p := New(s)
	_, _ = p.CreateBucket(ctx, "my-bucket")
	_, _ = p.CreateIndex(ctx, "my-bucket", CreateIndexRequest{Name: "a", Dimension: 2, DataType: "float32", DistanceMetric: meta.MetricCosine})
	_, _ = p.CreateIndex(ctx, "my-bucket", CreateIndexRequest{Name: "b", Dimension: 2, DataType: "float32", DistanceMetric: meta.MetricCosine})

	names, err := p.ListIndexes(ctx, "my-bucket")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 index names, got %v", names)
	}
}

func TestDeleteIndexRemovesItsPrefix(t *testing.T) {
	ctx := context.Background()
	s := store.NewMem()
	p := New(s)
	_, _ = p.CreateBucket(ctx, "my-bucket")
	_, _ = p.CreateIndex(ctx, "my-bucket", CreateIndexRequest{Name: "idx", Dimension: 2, DataType: "float32", DistanceMetric: meta.MetricCosine})

	if err := p.DeleteIndex(ctx, "my-bucket", "idx"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := p.GetIndex(ctx, "my-bucket", "idx"); cmn.AsError(err).Kind != cmn.KindNotFound {
		t.Fatalf("expected not-found after delete, got %v", err)
	}
}
