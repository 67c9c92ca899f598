// Package ann implements the two ANN Backends of §4.5: a graph backend
// (HNSW-style) and an inverted-file + product-quantization backend
// (IVF-PQ), behind the common Backend contract the builder and query
// engine depend on. Grounded on the algorithmic description in
// original_source/src/app/index/faiss_backends.py (hnswlib/faiss call
// shapes); no vector-search library appears anywhere in the retrieved
// pack, so both backends are implemented directly in Go rather than
// wrapping a fabricated binding.
package ann

import (
	"io"

	"github.com/annstore/vecdb/meta"
)

// Candidate is one backend search hit: smaller-is-better regardless of
// metric (§4.5).
type Candidate struct {
	ID       int64
	Distance float32
}

// Backend is the uniform contract both ANN implementations satisfy
// (§4.5). Search must return exactly topK candidates, padding with
// sentinel id -1 when fewer vectors exist; ties are broken by ascending
// id, and an empty index returns an empty slice rather than an error.
type Backend interface {
	// Build trains (if applicable) and populates the backend from scratch.
	Build(vectors [][]float32, ids []int64) error
	// Add extends an already-built (or already-trained) backend.
	Add(vectors [][]float32, ids []int64) error
	// Search runs an ANN query. nprobe is ignored by backends that don't
	// use a coarse quantizer (the graph backend).
	Search(query []float32, topK, nprobe int) ([]Candidate, error)
	// Count reports how many labels the backend currently holds (§4.6
	// step 7's backend_vectors/idmap_rows comparison).
	Count() int
	Save(w io.Writer) error
	Load(r io.Reader) error
}

// sentinelID pads a short result set (§4.5 "Edge cases").
const sentinelID = -1

// padCandidates grows got to exactly topK entries using the sentinel id,
// or truncates if somehow longer.
func padCandidates(got []Candidate, topK int) []Candidate {
	if len(got) >= topK {
		return got[:topK]
	}
	out := make([]Candidate, topK)
	copy(out, got)
	for i := len(got); i < topK; i++ {
		out[i] = Candidate{ID: sentinelID}
	}
	return out
}

// New constructs the backend named by algo, empty and ready for
// Build/Load, with the given dimension/metric/params (§4.5, §4.6 step 5).
func New(algo meta.Algo, dim int, metric meta.DistanceMetric, params meta.BackendParams) Backend {
	switch algo {
	case meta.AlgoIVFPQ:
		return NewIVFPQ(dim, metric, params.NList, params.PQM, params.NBits)
	default:
		return NewGraph(dim, metric, params.M, params.EfConstruction)
	}
}

// Ext returns the file extension a backend blob is stored under (§6).
func Ext(algo meta.Algo) string {
	if algo == meta.AlgoIVFPQ {
		return "faiss"
	}
	return "hnsw"
}
