package builder

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/annstore/vecdb/cmn"
	"github.com/annstore/vecdb/idmap"
	"github.com/annstore/vecdb/meta"
	"github.com/annstore/vecdb/slice"
	"github.com/annstore/vecdb/store"
)

func testConfig() *cmn.Config {
	c := cmn.DefaultConfig()
	c.Hybrid.Threshold = 1000
	c.Builder.LeaseTTL = time.Minute
	return c
}

func stageSlice(t *testing.T, s store.Adapter, vectorBucket, index string, unixMilli int64, rows []slice.Row) {
	t.Helper()
	var buf bytes.Buffer
	if err := slice.Encode(&buf, rows, slice.FormatJSONL); err != nil {
		t.Fatalf("encode slice: %v", err)
	}
	key := store.StagedSliceKey(index, unixMilli, slice.FormatJSONL.Ext())
	if err := s.PutBytes(context.Background(), vectorBucket, key, buf.Bytes(), "application/octet-stream"); err != nil {
		t.Fatalf("stage slice: %v", err)
	}
}

func TestBuildConsolidatesStagedSlicesAndCommitsManifest(t *testing.T) {
	ctx := context.Background()
	s := store.NewMem()
	const bucket = "b"
	_ = s.EnsureBucket(ctx, bucket)

	idx := &meta.IndexConfig{Name: "idx", Dimension: 3, DistanceMetric: meta.MetricEuclidean, Policy: meta.PolicyGraph}

	stageSlice(t, s, bucket, idx.Name, 1000, []slice.Row{
		{Key: "a", Vector: []float32{1, 0, 0}, MetadataJSON: `{"color":"red"}`},
		{Key: "b", Vector: []float32{0, 1, 0}, MetadataJSON: `{"color":"blue"}`},
	})
	stageSlice(t, s, bucket, idx.Name, 2000, []slice.Row{
		{Key: "c", Vector: []float32{0, 0, 1}, MetadataJSON: `{}`},
	})

	res, err := Build(ctx, s, bucket, idx, testConfig(), "owner-1")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.NoOp {
		t.Fatalf("expected a real build, got no-op")
	}
	if res.SlicesConsolidated != 2 || res.VectorsAppended != 3 || res.TotalAlive != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Algo != meta.AlgoGraph {
		t.Fatalf("expected graph algo under the configured threshold, got %v", res.Algo)
	}

	var manifest meta.Manifest
	if err := s.GetJSON(ctx, bucket, store.ManifestKey(idx.Name), &manifest); err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if manifest.Vectors != 3 || manifest.Algo != meta.AlgoGraph {
		t.Fatalf("unexpected manifest: %+v", manifest)
	}

	remaining, err := s.ListPrefix(ctx, bucket, store.StagedPrefix(idx.Name))
	if err != nil {
		t.Fatalf("list staged: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected staged slices to be deleted after commit, got %v", remaining)
	}

	m, err := idmap.Load(ctx, s, bucket, idx.Name, idmapExt)
	if err != nil {
		t.Fatalf("load idmap: %v", err)
	}
	if m.Schema["color"] != meta.ColString {
		t.Fatalf("expected schema to evolve a typed column for color, got %+v", m.Schema)
	}
	row, ok := m.Lookup("a")
	if !ok {
		t.Fatalf("expected row a to be present")
	}
	if row.TypedColumns["color"] != "red" {
		t.Fatalf("expected typed column split for key a, got %+v", row.TypedColumns)
	}
}

func TestBuildIsNoOpWithoutStagedSlices(t *testing.T) {
	ctx := context.Background()
	s := store.NewMem()
	const bucket = "b"
	_ = s.EnsureBucket(ctx, bucket)
	idx := &meta.IndexConfig{Name: "idx", Dimension: 3, DistanceMetric: meta.MetricEuclidean, Policy: meta.PolicyGraph}

	res, err := Build(ctx, s, bucket, idx, testConfig(), "owner-1")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !res.NoOp {
		t.Fatalf("expected no-op result, got %+v", res)
	}
}

func TestBuildRejectsConcurrentLease(t *testing.T) {
	ctx := context.Background()
	s := store.NewMem()
	const bucket = "b"
	_ = s.EnsureBucket(ctx, bucket)
	idx := &meta.IndexConfig{Name: "idx", Dimension: 3, DistanceMetric: meta.MetricEuclidean, Policy: meta.PolicyGraph}
	stageSlice(t, s, bucket, idx.Name, 1000, []slice.Row{{Key: "a", Vector: []float32{1, 0, 0}, MetadataJSON: "{}"}})

	if err := acquireLease(ctx, s, bucket, idx.Name, "other-owner", time.Minute); err != nil {
		t.Fatalf("seed lease: %v", err)
	}
	_, err := Build(ctx, s, bucket, idx, testConfig(), "me")
	if err == nil {
		t.Fatalf("expected lease contention error")
	}
	if cmn.AsError(err).Kind != cmn.KindDependency {
		t.Fatalf("expected Dependency kind, got %v", cmn.AsError(err).Kind)
	}
}

func TestBuildSwitchesToIVFPQAboveHybridThreshold(t *testing.T) {
	ctx := context.Background()
	s := store.NewMem()
	const bucket = "b"
	_ = s.EnsureBucket(ctx, bucket)
	idx := &meta.IndexConfig{Name: "idx", Dimension: 4, DistanceMetric: meta.MetricEuclidean, Policy: meta.PolicyHybrid}

	rows := make([]slice.Row, 0, 20)
	for i := 0; i < 20; i++ {
		rows = append(rows, slice.Row{Key: keyOf(i), Vector: []float32{float32(i), 0, 0, 0}, MetadataJSON: "{}"})
	}
	stageSlice(t, s, bucket, idx.Name, 1000, rows)

	cfg := testConfig()
	cfg.Hybrid.Threshold = 10
	cfg.IVFPQ.NList = 2
	cfg.IVFPQ.M = 2
	cfg.IVFPQ.NBits = 2

	res, err := Build(ctx, s, bucket, idx, cfg, "owner-1")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.Algo != meta.AlgoIVFPQ {
		t.Fatalf("expected ivfpq above threshold, got %v", res.Algo)
	}
}

func keyOf(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	return string(letters[i%len(letters)]) + string(letters[(i/len(letters))%len(letters)])
}
