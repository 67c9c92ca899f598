package ann

import (
	"container/heap"
	"encoding/gob"
	"io"
	"math"
	"math/rand"
	"sort"

	"github.com/annstore/vecdb/cmn"
	"github.com/annstore/vecdb/meta"
)

// Graph is the HNSW-style graph backend (§4.5 "Graph backend"): a
// layered proximity graph with configurable out-degree M and
// build-time candidate pool efConstruction. It does not support
// predicate pushdown; the query engine always postfilters its results.
type Graph struct {
	Dim            int
	Metric         meta.DistanceMetric
	M              int
	EfConstruction int

	Nodes      []graphNode
	EntryPoint int // index into Nodes, -1 if empty
	MaxLevel   int

	idToIdx map[int64]int
	rnd     *rand.Rand
}

type graphNode struct {
	ID        int64
	Vec       []float32
	Neighbors [][]int32 // per level: neighbor indices into Nodes
}

// NewGraph constructs an empty graph backend ready for Build/Add/Load.
func NewGraph(dim int, metric meta.DistanceMetric, m, efConstruction int) *Graph {
	if m <= 0 {
		m = 16
	}
	if efConstruction <= 0 {
		efConstruction = 200
	}
	return &Graph{
		Dim: dim, Metric: metric, M: m, EfConstruction: efConstruction,
		EntryPoint: -1,
		idToIdx:    make(map[int64]int),
		rnd:        rand.New(rand.NewSource(1)),
	}
}

var _ Backend = (*Graph)(nil)

func (g *Graph) Count() int { return len(g.Nodes) }

// Build is add over an empty graph (§4.5: "Build is additive ... build is
// add over an empty graph").
func (g *Graph) Build(vectors [][]float32, ids []int64) error {
	g.Nodes = nil
	g.EntryPoint = -1
	g.MaxLevel = 0
	g.idToIdx = make(map[int64]int)
	return g.Add(vectors, ids)
}

func (g *Graph) Add(vectors [][]float32, ids []int64) error {
	if len(vectors) != len(ids) {
		return cmn.ErrInternal("graph add: %d vectors but %d ids", len(vectors), len(ids))
	}
	for i, v := range vectors {
		if len(v) != g.Dim {
			return cmn.ErrValidation("graph add: vector dimension %d != index dimension %d", len(v), g.Dim)
		}
		vec := v
		if g.Metric == meta.MetricCosine {
			vec = normalize(v)
		}
		g.insert(ids[i], vec)
	}
	return nil
}

func (g *Graph) level() int {
	// Standard HNSW exponential level assignment with mL = 1/ln(M).
	mL := 1.0 / math.Log(float64(g.M))
	lvl := int(math.Floor(-math.Log(g.rnd.Float64()+1e-12) * mL))
	return lvl
}

func (g *Graph) insert(id int64, vec []float32) {
	idx := len(g.Nodes)
	lvl := g.level()
	g.Nodes = append(g.Nodes, graphNode{ID: id, Vec: vec, Neighbors: make([][]int32, lvl+1)})
	g.idToIdx[id] = idx

	if g.EntryPoint == -1 {
		g.EntryPoint = idx
		g.MaxLevel = lvl
		return
	}

	ep := g.EntryPoint
	for l := g.MaxLevel; l > lvl; l-- {
		ep = g.greedyDescend(vec, ep, l)
	}
	for l := minInt(lvl, g.MaxLevel); l >= 0; l-- {
		cands := g.searchLayer(vec, ep, g.EfConstruction, l)
		neighbors := selectNeighbors(cands, g.M)
		g.Nodes[idx].Neighbors[l] = neighbors
		for _, n := range neighbors {
			g.connect(int(n), int32(idx), l)
		}
		if len(cands) > 0 {
			ep = int(cands[0].id)
		}
	}
	if lvl > g.MaxLevel {
		g.MaxLevel = lvl
		g.EntryPoint = idx
	}
}

// connect adds a one-way link from -> to at level l (insert sets the new
// node's own neighbor list directly and calls this for each reverse link),
// pruning the
// neighbor list back down to maxDeg (2*M at layer 0, M above) if it grows
// too large, keeping the closest maxDeg neighbors.
func (g *Graph) connect(from int, to int32, level int) {
	if level >= len(g.Nodes[from].Neighbors) {
		grown := make([][]int32, level+1)
		copy(grown, g.Nodes[from].Neighbors)
		g.Nodes[from].Neighbors = grown
	}
	g.Nodes[from].Neighbors[level] = append(g.Nodes[from].Neighbors[level], to)

	maxDeg := g.M
	if level == 0 {
		maxDeg = 2 * g.M
	}
	if len(g.Nodes[from].Neighbors[level]) <= maxDeg {
		return
	}
	fromVec := g.Nodes[from].Vec
	type scored struct {
		idx  int32
		dist float32
	}
	ns := g.Nodes[from].Neighbors[level]
	scoredList := make([]scored, len(ns))
	for i, n := range ns {
		scoredList[i] = scored{n, distance(fromVec, g.Nodes[n].Vec, g.Metric)}
	}
	sort.Slice(scoredList, func(i, j int) bool { return scoredList[i].dist < scoredList[j].dist })
	pruned := make([]int32, maxDeg)
	for i := 0; i < maxDeg; i++ {
		pruned[i] = scoredList[i].idx
	}
	g.Nodes[from].Neighbors[level] = pruned
}

// greedyDescend finds the single nearest node to vec reachable from ep at
// level l, used to step down through the upper layers before the
// ef-bounded search at the target level (and at query time).
func (g *Graph) greedyDescend(vec []float32, ep, level int) int {
	best := ep
	bestDist := distance(vec, g.Nodes[ep].Vec, g.Metric)
	improved := true
	for improved {
		improved = false
		if level >= len(g.Nodes[best].Neighbors) {
			continue
		}
		for _, n := range g.Nodes[best].Neighbors[level] {
			d := distance(vec, g.Nodes[n].Vec, g.Metric)
			if d < bestDist {
				best, bestDist = int(n), d
				improved = true
			}
		}
	}
	return best
}

type candidate struct {
	id   int32
	dist float32
}

type candHeap []candidate // min-heap by dist

func (h candHeap) Len() int            { return len(h) }
func (h candHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h candHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *candHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *candHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

type maxCandHeap []candidate // max-heap by dist, for bounding the result set

func (h maxCandHeap) Len() int            { return len(h) }
func (h maxCandHeap) Less(i, j int) bool  { return h[i].dist > h[j].dist }
func (h maxCandHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxCandHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *maxCandHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// searchLayer returns up to ef candidates near vec at the given level,
// sorted ascending by distance, starting the search from ep.
func (g *Graph) searchLayer(vec []float32, ep, ef, level int) []candidate {
	visited := map[int32]bool{int32(ep): true}
	d0 := distance(vec, g.Nodes[ep].Vec, g.Metric)

	candidates := &candHeap{{int32(ep), d0}}
	heap.Init(candidates)
	results := &maxCandHeap{{int32(ep), d0}}
	heap.Init(results)

	for candidates.Len() > 0 {
		c := heap.Pop(candidates).(candidate)
		if results.Len() >= ef && c.dist > (*results)[0].dist {
			break
		}
		if level >= len(g.Nodes[c.id].Neighbors) {
			continue
		}
		for _, n := range g.Nodes[c.id].Neighbors[level] {
			if visited[n] {
				continue
			}
			visited[n] = true
			d := distance(vec, g.Nodes[n].Vec, g.Metric)
			if results.Len() < ef || d < (*results)[0].dist {
				heap.Push(candidates, candidate{n, d})
				heap.Push(results, candidate{n, d})
				if results.Len() > ef {
					heap.Pop(results)
				}
			}
		}
	}
	out := make([]candidate, results.Len())
	copy(out, *results)
	sort.Slice(out, func(i, j int) bool {
		if out[i].dist != out[j].dist {
			return out[i].dist < out[j].dist
		}
		return g.Nodes[out[i].id].ID < g.Nodes[out[j].id].ID // tie-break ascending id, §4.5
	})
	return out
}

// selectNeighbors picks the m closest of cands (already distance-sorted).
func selectNeighbors(cands []candidate, m int) []int32 {
	if len(cands) > m {
		cands = cands[:m]
	}
	out := make([]int32, len(cands))
	for i, c := range cands {
		out[i] = c.id
	}
	return out
}

// Search runs a query (§4.5: "Queries set ef = max(topK*2, 32)").
func (g *Graph) Search(query []float32, topK, _ int) ([]Candidate, error) {
	if len(query) != g.Dim {
		return nil, cmn.ErrValidation("query dimension %d != index dimension %d", len(query), g.Dim)
	}
	if g.EntryPoint == -1 || len(g.Nodes) == 0 {
		return []Candidate{}, nil // §4.5 "empty index, search returns the empty list without error"
	}
	q := query
	if g.Metric == meta.MetricCosine {
		q = normalize(query)
	}
	ef := topK * 2
	if ef < 32 {
		ef = 32
	}

	ep := g.EntryPoint
	for l := g.MaxLevel; l > 0; l-- {
		ep = g.greedyDescend(q, ep, l)
	}
	cands := g.searchLayer(q, ep, ef, 0)

	out := make([]Candidate, 0, topK)
	for _, c := range cands {
		if len(out) == topK {
			break
		}
		out = append(out, Candidate{ID: g.Nodes[c.id].ID, Distance: c.dist})
	}
	// §4.5 "the backend returns exactly topK candidates (padded with
	// sentinel -1 ids if fewer are available)"; the query engine is the
	// one that turns a short/padded result into "all live rows".
	return padCandidates(out, topK), nil
}

type graphWire struct {
	Dim, M, EfConstruction, EntryPoint, MaxLevel int
	Metric                                       meta.DistanceMetric
	Nodes                                        []graphNode
}

func (g *Graph) Save(w io.Writer) error {
	return gob.NewEncoder(w).Encode(graphWire{
		Dim: g.Dim, M: g.M, EfConstruction: g.EfConstruction,
		EntryPoint: g.EntryPoint, MaxLevel: g.MaxLevel,
		Metric: g.Metric, Nodes: g.Nodes,
	})
}

func (g *Graph) Load(r io.Reader) error {
	var w graphWire
	if err := gob.NewDecoder(r).Decode(&w); err != nil {
		return cmn.ErrDependency(err, "decode graph backend blob")
	}
	g.Dim, g.M, g.EfConstruction = w.Dim, w.M, w.EfConstruction
	g.EntryPoint, g.MaxLevel, g.Metric = w.EntryPoint, w.MaxLevel, w.Metric
	g.Nodes = w.Nodes
	g.idToIdx = make(map[int64]int, len(g.Nodes))
	for i, n := range g.Nodes {
		g.idToIdx[n.ID] = i
	}
	if g.rnd == nil {
		g.rnd = rand.New(rand.NewSource(1))
	}
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
