// Package query implements the Query Engine (§4.7): similarity search
// against a built index, with filters applied as an in-process postfilter
// and a bounded, single-flighted backend cache so repeat
// queries against an unchanged manifest skip backend deserialization.
package query

import (
	"bytes"
	"context"

	"github.com/annstore/vecdb/ann"
	"github.com/annstore/vecdb/cmn"
	"github.com/annstore/vecdb/idmap"
	"github.com/annstore/vecdb/meta"
	"github.com/annstore/vecdb/schema"
	"github.com/annstore/vecdb/stats"
	"github.com/annstore/vecdb/store"
)

// Request is one query engine invocation (§4.7 "Inputs").
type Request struct {
	VectorBucket   string
	Index          string
	QueryVector    []float32
	TopK           int
	NProbe         int
	Filter         *meta.Filter
	ReturnData     bool
	ReturnMetadata bool
	ReturnDistance bool
}

// Engine is the query engine, holding the shared backend cache across
// requests (§5 "cache is bounded by count (LRU)").
type Engine struct {
	Store     store.Adapter
	Cache     *BackendCache
	OverFetch int            // §4.7 step 4 default multiplier
	Stats     *stats.Registry // optional; nil disables metric emission
}

func NewEngine(s store.Adapter, cache *BackendCache, overFetch int) *Engine {
	if overFetch <= 0 {
		overFetch = 4
	}
	return &Engine{Store: s, Cache: cache, OverFetch: overFetch}
}

// Search runs the full §4.7 algorithm and returns ranked, projected
// results.
func (e *Engine) Search(ctx context.Context, idxCfg *meta.IndexConfig, req Request) ([]meta.Result, error) {
	if len(req.QueryVector) != idxCfg.Dimension {
		return nil, cmn.ErrValidation("query vector dimension %d != index dimension %d", len(req.QueryVector), idxCfg.Dimension)
	}
	if req.TopK <= 0 {
		req.TopK = 1
	}

	// Step 1: read the manifest; absent or empty means no results.
	var manifest meta.Manifest
	if err := e.Store.GetJSON(ctx, req.VectorBucket, store.ManifestKey(req.Index), &manifest); err != nil {
		if cmn.AsError(err).Kind == cmn.KindNotFound {
			return []meta.Result{}, nil
		}
		return nil, err
	}
	if manifest.Vectors == 0 {
		return []meta.Result{}, nil
	}

	// Step 2: load the backend from cache, keyed by (bucket, index, etag).
	cacheKey := req.VectorBucket + "/" + req.Index
	etag := manifest.ETag
	if etag == "" {
		etag = manifestFingerprint(manifest)
	}
	missed := false
	backend, err := e.Cache.Load(cacheKey, etag, func() (ann.Backend, error) {
		missed = true
		blob, err := e.Store.GetBytes(ctx, req.VectorBucket, store.BackendBlobKey(req.Index, ann.Ext(manifest.Algo)))
		if err != nil {
			return nil, err
		}
		b := ann.New(manifest.Algo, manifest.Dimension, manifest.Metric, manifest.Params)
		if err := b.Load(bytes.NewReader(blob)); err != nil {
			return nil, err
		}
		return b, nil
	})
	if e.Stats != nil {
		result := "hit"
		if missed {
			result = "miss"
		}
		e.Stats.BackendCache.WithLabelValues(req.VectorBucket, req.Index, result).Inc()
	}
	if err != nil {
		return nil, err
	}

	// idmap + schema registry are needed to evaluate pushdown-eligibility
	// and to join ids back to rows regardless of which path is taken.
	m, err := idmap.Load(ctx, e.Store, req.VectorBucket, req.Index, "json")
	if err != nil {
		return nil, err
	}

	// Steps 3-4: neither ANN backend in this repo maintains a queryable
	// WHERE-clause index alongside its graph/cells, so "the configured
	// backend supports predicate pushdown" is never true here — every
	// filtered search takes step 4's over-fetch-then-postfilter path.
	fetchK := req.TopK
	if req.Filter != nil {
		fetchK = req.TopK * e.OverFetch
	}

	candidates, err := backend.Search(req.QueryVector, fetchK, req.NProbe)
	if err != nil {
		return nil, err
	}

	results := make([]meta.Result, 0, req.TopK)
	for _, c := range candidates {
		if c.ID < 0 {
			continue // sentinel padding
		}
		row, alive := m.ByID(c.ID)
		if !alive {
			continue // tombstoned since the backend was built
		}
		merged := rowMetadata(row)
		if req.Filter != nil && !schema.Evaluate(req.Filter, merged) {
			continue
		}
		res := meta.Result{Key: row.Key}
		if req.ReturnDistance {
			res.Distance = c.Distance
		}
		if req.ReturnData {
			res.Vector = row.Vector
		}
		if req.ReturnMetadata {
			res.Metadata = merged
		}
		results = append(results, res)
		if len(results) == req.TopK {
			break
		}
	}

	// No re-sort needed: backend.Search already returns candidates in
	// ascending-distance order, and the loop above only filters/truncates,
	// preserving that order (§4.7 step 6).
	return results, nil
}

func rowMetadata(row idmap.Row) map[string]interface{} {
	var overlay map[string]interface{}
	if row.MetadataJSON != "" {
		_ = json.Unmarshal([]byte(row.MetadataJSON), &overlay)
	}
	return schema.Merge(overlay, row.TypedColumns)
}

// manifestFingerprint derives a cache-key-stable etag when the store
// didn't supply its own ETag (no adapter in this module does). BlobChecksum
// carries the actual backend blob identity, so two builds that happen to
// agree on algo/metric/dimension/alive-count (e.g. overwrite-a-key-then-
// rebuild, where the alive count doesn't change) still produce distinct
// fingerprints and never collide in the bounded backend cache.
func manifestFingerprint(m meta.Manifest) string {
	return string(m.Algo) + "|" + string(m.Metric) + "|" + itoa(m.Vectors) + "|" + itoa(m.Dimension) + "|" + m.BlobChecksum
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
