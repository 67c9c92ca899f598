package ann

import (
	"encoding/gob"
	"io"
	"math/rand"
	"sort"

	"github.com/annstore/vecdb/cmn"
	"github.com/annstore/vecdb/meta"
)

const kmeansIters = 15

// IVFPQ is the inverted-file + product-quantization backend (§4.5
// "IVF-PQ backend"): a coarse quantizer (nlist centroids via k-means)
// plus product quantization (m sub-quantizers of nbits each). Training
// is required before the first Add; subsequent adds reuse the trained
// quantizers. Grounded on faiss_backends.py's IndexIVFPQ wrapper: the
// same train/add/search shape, residual encoding, and asymmetric
// distance lookup at query time, since faiss itself is not in the
// retrieved pack.
type IVFPQ struct {
	Dim    int
	Metric meta.DistanceMetric
	NList  int
	M      int // number of sub-quantizers
	NBits  int // bits per sub-quantizer code, capped at 8 (one byte per code)

	SubDim      int
	Centroids   [][]float32   // NList x Dim: coarse quantizer
	PQCentroids [][][]float32 // M x (1<<NBits) x SubDim: product quantizer

	Trained bool
	Lists   []invList // one per coarse cell

	defaultNProbe int
	rnd           *rand.Rand
}

type invList struct {
	IDs   []int64
	Codes [][]byte // one []byte of length M per vector
}

// NewIVFPQ constructs an empty, untrained IVF-PQ backend.
func NewIVFPQ(dim int, metric meta.DistanceMetric, nlist, m, nbits int) *IVFPQ {
	if nlist <= 0 {
		nlist = 1024
	}
	if m <= 0 {
		m = 16
	}
	if nbits <= 0 || nbits > 8 {
		nbits = 8 // byte-sized codes; §4.5 names nbits as a tunable but every
		// corpus/faiss default observed is 8, and a single byte per
		// sub-quantizer code keeps the inverted-list encoding simple.
	}
	return &IVFPQ{
		Dim: dim, Metric: metric, NList: nlist, M: m, NBits: nbits,
		defaultNProbe: 8, // §4.5 "Default nprobe=8"
		rnd:           rand.New(rand.NewSource(1)),
	}
}

var _ Backend = (*IVFPQ)(nil)

func (q *IVFPQ) Count() int {
	n := 0
	for _, l := range q.Lists {
		n += len(l.IDs)
	}
	return n
}

func (q *IVFPQ) prep(vectors [][]float32) [][]float32 {
	if q.Metric != meta.MetricCosine {
		return vectors
	}
	out := make([][]float32, len(vectors))
	for i, v := range vectors {
		out[i] = normalize(v)
	}
	return out
}

// Train fits the coarse quantizer and the M product sub-quantizers on
// vectors (§4.5 "Training is required before the first add").
func (q *IVFPQ) Train(vectors [][]float32) error {
	if len(vectors) == 0 {
		return cmn.ErrValidation("ivfpq train: empty training set")
	}
	if q.SubDim == 0 {
		if q.Dim%q.M != 0 {
			// Fall back to the largest divisor <= configured M so every
			// sub-vector has equal width; faiss requires dim % m == 0 too.
			for m := q.M; m > 1; m-- {
				if q.Dim%m == 0 {
					q.M = m
					break
				}
			}
			if q.Dim%q.M != 0 {
				q.M = 1
			}
		}
		q.SubDim = q.Dim / q.M
	}

	prepped := q.prep(vectors)
	q.Centroids = kmeans(prepped, q.NList, kmeansIters, q.rnd)
	q.NList = len(q.Centroids)

	nCentroids := 1 << uint(q.NBits)
	q.PQCentroids = make([][][]float32, q.M)
	for j := 0; j < q.M; j++ {
		residualsSub := make([][]float32, 0, len(prepped))
		for _, v := range prepped {
			cidx, _ := nearestCentroid(v, q.Centroids)
			residual := subResidual(v, q.Centroids[cidx], j, q.SubDim)
			residualsSub = append(residualsSub, residual)
		}
		k := nCentroids
		if k > len(residualsSub) {
			k = len(residualsSub)
		}
		q.PQCentroids[j] = kmeans(residualsSub, k, kmeansIters, q.rnd)
	}
	q.Lists = make([]invList, q.NList)
	q.Trained = true
	return nil
}

func subResidual(v, centroid []float32, sub, subDim int) []float32 {
	out := make([]float32, subDim)
	off := sub * subDim
	for i := 0; i < subDim; i++ {
		out[i] = v[off+i] - centroid[off+i]
	}
	return out
}

func (q *IVFPQ) Build(vectors [][]float32, ids []int64) error {
	q.Lists = nil
	q.Trained = false
	if err := q.Train(vectors); err != nil {
		return err
	}
	return q.addTrained(vectors, ids)
}

func (q *IVFPQ) Add(vectors [][]float32, ids []int64) error {
	if !q.Trained {
		if err := q.Train(vectors); err != nil {
			return err
		}
	}
	return q.addTrained(vectors, ids)
}

func (q *IVFPQ) addTrained(vectors [][]float32, ids []int64) error {
	if len(vectors) != len(ids) {
		return cmn.ErrInternal("ivfpq add: %d vectors but %d ids", len(vectors), len(ids))
	}
	prepped := q.prep(vectors)
	for i, v := range prepped {
		if len(v) != q.Dim {
			return cmn.ErrValidation("ivfpq add: vector dimension %d != index dimension %d", len(v), q.Dim)
		}
		cidx, _ := nearestCentroid(v, q.Centroids)
		code := q.encode(v, cidx)
		q.Lists[cidx].IDs = append(q.Lists[cidx].IDs, ids[i])
		q.Lists[cidx].Codes = append(q.Lists[cidx].Codes, code)
	}
	return nil
}

func (q *IVFPQ) encode(v []float32, coarseIdx int) []byte {
	code := make([]byte, q.M)
	for j := 0; j < q.M; j++ {
		residual := subResidual(v, q.Centroids[coarseIdx], j, q.SubDim)
		idx, _ := nearestCentroid(residual, q.PQCentroids[j])
		code[j] = byte(idx)
	}
	return code
}

// Search scans the nprobe nearest coarse cells using asymmetric-distance
// lookup tables (§4.5 "Search: compute nprobe nearest coarse cells, scan
// their inverted lists using asymmetric-distance lookup tables").
func (q *IVFPQ) Search(query []float32, topK, nprobe int) ([]Candidate, error) {
	if len(query) != q.Dim {
		return nil, cmn.ErrValidation("query dimension %d != index dimension %d", len(query), q.Dim)
	}
	if !q.Trained || q.Count() == 0 {
		return []Candidate{}, nil
	}
	if nprobe <= 0 {
		nprobe = q.defaultNProbe
	}
	if nprobe > q.NList {
		nprobe = q.NList
	}

	qv := query
	if q.Metric == meta.MetricCosine {
		qv = normalize(query)
	}

	type cell struct {
		idx  int
		dist float32
	}
	cells := make([]cell, q.NList)
	for i, c := range q.Centroids {
		cells[i] = cell{i, squaredL2(qv, c)}
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].dist < cells[j].dist })
	if len(cells) > nprobe {
		cells = cells[:nprobe]
	}

	var out []Candidate
	for _, c := range cells {
		list := q.Lists[c.idx]
		if len(list.IDs) == 0 {
			continue
		}
		// Precompute the per-subquantizer distance table once per cell.
		table := make([][]float32, q.M)
		for j := 0; j < q.M; j++ {
			residualQ := subResidual(qv, q.Centroids[c.idx], j, q.SubDim)
			table[j] = make([]float32, len(q.PQCentroids[j]))
			for ci, pc := range q.PQCentroids[j] {
				if q.Metric == meta.MetricCosine {
					table[j][ci] = dot(residualQ, pc)
				} else {
					table[j][ci] = squaredL2(residualQ, pc)
				}
			}
		}
		coarseDot := float32(0)
		if q.Metric == meta.MetricCosine {
			coarseDot = dot(qv, q.Centroids[c.idx])
		}
		for i, id := range list.IDs {
			code := list.Codes[i]
			var acc float32
			for j := 0; j < q.M; j++ {
				acc += table[j][code[j]]
			}
			var d float32
			if q.Metric == meta.MetricCosine {
				d = 1 - (coarseDot + acc)
			} else {
				d = acc // approximates squared L2 between query and reconstruction
			}
			out = append(out, Candidate{ID: id, Distance: d})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].ID < out[j].ID // §4.5 "Ties in distance are broken by ascending id"
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return padCandidates(out, topK), nil
}

type ivfpqWire struct {
	Dim, NList, M, NBits, SubDim int
	Metric                       meta.DistanceMetric
	Centroids                    [][]float32
	PQCentroids                  [][][]float32
	Trained                      bool
	Lists                        []invList
	DefaultNProbe                int
}

func (q *IVFPQ) Save(w io.Writer) error {
	return gob.NewEncoder(w).Encode(ivfpqWire{
		Dim: q.Dim, NList: q.NList, M: q.M, NBits: q.NBits, SubDim: q.SubDim,
		Metric: q.Metric, Centroids: q.Centroids, PQCentroids: q.PQCentroids,
		Trained: q.Trained, Lists: q.Lists, DefaultNProbe: q.defaultNProbe,
	})
}

func (q *IVFPQ) Load(r io.Reader) error {
	var w ivfpqWire
	if err := gob.NewDecoder(r).Decode(&w); err != nil {
		return cmn.ErrDependency(err, "decode ivfpq backend blob")
	}
	q.Dim, q.NList, q.M, q.NBits, q.SubDim = w.Dim, w.NList, w.M, w.NBits, w.SubDim
	q.Metric, q.Centroids, q.PQCentroids = w.Metric, w.Centroids, w.PQCentroids
	q.Trained, q.Lists, q.defaultNProbe = w.Trained, w.Lists, w.DefaultNProbe
	if q.rnd == nil {
		q.rnd = rand.New(rand.NewSource(1))
	}
	return nil
}
