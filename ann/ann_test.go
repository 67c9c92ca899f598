package ann

import (
	"bytes"
	"testing"

	"github.com/annstore/vecdb/meta"
)

func TestGraphSearchReturnsExactMatchFirst(t *testing.T) {
	g := NewGraph(3, meta.MetricCosine, 16, 200)
	vecs := [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0.9, 0.1, 0}}
	ids := []int64{0, 1, 2, 3}
	if err := g.Build(vecs, ids); err != nil {
		t.Fatalf("build: %v", err)
	}
	got, err := g.Search([]float32{1, 0, 0}, 2, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].ID != 0 {
		t.Fatalf("expected exact match id 0 first, got %+v", got)
	}
	if got[0].Distance > 1e-4 {
		t.Fatalf("expected ~0 distance for exact match, got %v", got[0].Distance)
	}
}

func TestGraphEmptyIndexReturnsEmpty(t *testing.T) {
	g := NewGraph(3, meta.MetricEuclidean, 16, 200)
	got, err := g.Search([]float32{1, 0, 0}, 5, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}

func TestGraphTopKLargerThanDatasetPadsWithSentinel(t *testing.T) {
	g := NewGraph(2, meta.MetricEuclidean, 16, 200)
	if err := g.Build([][]float32{{0, 0}, {1, 1}}, []int64{10, 20}); err != nil {
		t.Fatalf("build: %v", err)
	}
	got, err := g.Search([]float32{0, 0}, 5, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected exactly 5 padded results, got %d", len(got))
	}
	live := 0
	for _, c := range got {
		if c.ID != -1 {
			live++
		}
	}
	if live != 2 {
		t.Fatalf("expected 2 live results, got %d", live)
	}
}

func TestGraphSaveLoadRoundTrip(t *testing.T) {
	g := NewGraph(3, meta.MetricCosine, 16, 200)
	_ = g.Build([][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, []int64{0, 1, 2})

	var buf bytes.Buffer
	if err := g.Save(&buf); err != nil {
		t.Fatalf("save: %v", err)
	}
	g2 := NewGraph(3, meta.MetricCosine, 16, 200)
	if err := g2.Load(&buf); err != nil {
		t.Fatalf("load: %v", err)
	}
	if g2.Count() != 3 {
		t.Fatalf("expected 3 nodes after reload, got %d", g2.Count())
	}
	got, err := g2.Search([]float32{1, 0, 0}, 1, 0)
	if err != nil {
		t.Fatalf("search after reload: %v", err)
	}
	if got[0].ID != 0 {
		t.Fatalf("expected id 0 after reload, got %+v", got)
	}
}

func TestIVFPQSearchReturnsApproxNearest(t *testing.T) {
	q := NewIVFPQ(8, meta.MetricEuclidean, 4, 4, 4)
	vecs := make([][]float32, 0, 40)
	ids := make([]int64, 0, 40)
	// four well-separated clusters so coarse quantization is unambiguous.
	centers := [][]float32{
		{0, 0, 0, 0, 0, 0, 0, 0},
		{10, 10, 10, 10, 10, 10, 10, 10},
		{-10, -10, 0, 0, 0, 0, 0, 0},
		{0, 0, -10, -10, 0, 0, 0, 0},
	}
	id := int64(0)
	for _, c := range centers {
		for j := 0; j < 10; j++ {
			v := make([]float32, 8)
			copy(v, c)
			v[0] += float32(j) * 0.01
			vecs = append(vecs, v)
			ids = append(ids, id)
			id++
		}
	}
	if err := q.Build(vecs, ids); err != nil {
		t.Fatalf("build: %v", err)
	}
	got, err := q.Search(centers[1], 3, 4)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	for _, c := range got {
		if c.ID < 10 || c.ID >= 20 {
			t.Fatalf("expected nearest neighbors from cluster 2 (ids 10-19), got id %d", c.ID)
		}
	}
}

func TestIVFPQEmptyIndexReturnsEmpty(t *testing.T) {
	q := NewIVFPQ(4, meta.MetricEuclidean, 8, 2, 4)
	got, err := q.Search([]float32{1, 2, 3, 4}, 5, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result on untrained/empty backend, got %+v", got)
	}
}

func TestIVFPQSaveLoadRoundTrip(t *testing.T) {
	q := NewIVFPQ(4, meta.MetricEuclidean, 2, 2, 4)
	vecs := [][]float32{{0, 0, 0, 0}, {1, 1, 1, 1}, {5, 5, 5, 5}, {6, 6, 6, 6}}
	ids := []int64{0, 1, 2, 3}
	if err := q.Build(vecs, ids); err != nil {
		t.Fatalf("build: %v", err)
	}
	var buf bytes.Buffer
	if err := q.Save(&buf); err != nil {
		t.Fatalf("save: %v", err)
	}
	q2 := NewIVFPQ(4, meta.MetricEuclidean, 2, 2, 4)
	if err := q2.Load(&buf); err != nil {
		t.Fatalf("load: %v", err)
	}
	if q2.Count() != 4 {
		t.Fatalf("expected 4 vectors after reload, got %d", q2.Count())
	}
}

func TestSelectAlgoHybridPolicy(t *testing.T) {
	if got := SelectAlgo(meta.PolicyHybrid, 50, 100); got != meta.AlgoGraph {
		t.Fatalf("expected graph below threshold, got %v", got)
	}
	if got := SelectAlgo(meta.PolicyHybrid, 150, 100); got != meta.AlgoIVFPQ {
		t.Fatalf("expected ivfpq above threshold, got %v", got)
	}
	if got := SelectAlgo(meta.PolicyGraph, 1_000_000, 100); got != meta.AlgoGraph {
		t.Fatalf("expected fixed graph policy to ignore threshold")
	}
}
