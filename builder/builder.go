// Package builder implements the Index Builder (§4.6): the periodic (or
// on-demand) consolidation job that folds staged slices into a rebuilt
// idmap and ANN backend, then commits the new manifest. Grounded on
// original_source/src/app/index/indexer.py's process_new_slices, with
// the advisory leasing idiom (builder/lock.go) layered on top since the
// object store offers no locking primitive of its own.
package builder

import (
	"bytes"
	"context"
	"time"

	"github.com/annstore/vecdb/ann"
	"github.com/annstore/vecdb/cmn"
	"github.com/annstore/vecdb/cmn/cos"
	"github.com/annstore/vecdb/idmap"
	"github.com/annstore/vecdb/meta"
	"github.com/annstore/vecdb/schema"
	"github.com/annstore/vecdb/slice"
	"github.com/annstore/vecdb/stats"
	"github.com/annstore/vecdb/store"
	"github.com/golang/glog"
)

// Result summarizes one consolidation run (§4.6 "Result").
type Result struct {
	SlicesConsolidated int
	VectorsAppended    int
	TotalAlive         int
	Algo               meta.Algo
	NoOp               bool // true when there were no staged slices to consolidate
}

// Build runs one full consolidation cycle for index under vectorBucket
// (§4.6 steps 1-9). owner identifies the caller for lease contention
// messages; cfg is the live config snapshot (lease TTL, hybrid threshold,
// per-algo build params).
func Build(ctx context.Context, s store.Adapter, vectorBucket string, idxCfg *meta.IndexConfig, cfg *cmn.Config, owner string) (Result, error) {
	index := idxCfg.Name

	if err := acquireLease(ctx, s, vectorBucket, index, owner, cfg.Builder.LeaseTTL); err != nil {
		return Result{}, err
	}
	defer releaseLease(ctx, s, vectorBucket, index, owner)

	// Step 1: enumerate staged slices in lex (= ingest timestamp) order.
	stagedKeys, err := s.ListPrefix(ctx, vectorBucket, store.StagedPrefix(index))
	if err != nil {
		return Result{}, err
	}
	if len(stagedKeys) == 0 {
		return Result{NoOp: true}, nil
	}

	// Step 2: load the current idmap (or treat as empty if absent).
	m, err := idmap.Load(ctx, s, vectorBucket, index, idmapExt)
	if err != nil {
		return Result{}, err
	}

	reg := &schema.Registry{Columns: m.Schema}
	if reg.Columns == nil {
		reg.Columns = make(map[string]meta.ColumnType)
	}

	// Step 3: decode every staged slice and append to the idmap, evolving
	// the schema as new metadata keys are observed (§4.6 step 3, §4.4).
	vectorsAppended := 0
	for _, key := range stagedKeys {
		raw, err := s.GetBytes(ctx, vectorBucket, key)
		if err != nil {
			return Result{}, err
		}
		rows, err := slice.Decode(bytes.NewReader(raw))
		if err != nil {
			return Result{}, cmn.ErrDependency(err, "decode staged slice %s", key)
		}
		if len(rows) == 0 {
			continue
		}

		metas := make([]map[string]interface{}, len(rows))
		for i, r := range rows {
			var md map[string]interface{}
			if r.MetadataJSON != "" {
				if err := json.Unmarshal([]byte(r.MetadataJSON), &md); err != nil {
					return Result{}, cmn.ErrDependency(err, "corrupt metadata json for key %q in %s", r.Key, key)
				}
			}
			metas[i] = md
		}
		reg.EvolveBatch(idxCfg, metas)

		prepared := make([]idmap.PreparedRow, len(rows))
		for i, r := range rows {
			typed, overlay := reg.Split(idxCfg, metas[i])
			overlayJSON, err := json.Marshal(overlay)
			if err != nil {
				return Result{}, cmn.ErrInternal("re-marshal metadata overlay for key %q: %v", r.Key, err)
			}
			prepared[i] = idmap.PreparedRow{
				Key:          r.Key,
				Vector:       r.Vector,
				MetadataJSON: string(overlayJSON),
				TypedColumns: typed,
			}
		}
		if err := m.AppendPrepared(prepared, idxCfg.Dimension); err != nil {
			return Result{}, err
		}
		vectorsAppended += len(rows)
	}
	m.Schema = reg.Columns

	// Step 4: persist the idmap under its canonical key before touching the
	// backend, so a crash here still leaves a consistent (idmap, old
	// manifest) pair — the old manifest's backend simply won't have the
	// newest rows yet, which is §4.6's documented lag, not corruption.
	if err := m.Save(ctx, s, vectorBucket, index, idmapExt); err != nil {
		return Result{}, err
	}

	// Step 5: decide the algorithm and (re)build the backend from every
	// alive row in the (now up to date) idmap — consolidation always
	// rebuilds from scratch rather than incrementally adding, since a
	// hybrid policy may need to switch algorithms at this exact build
	// (§4.5 "the switch only takes effect at the next build").
	alive := aliveRows(m)
	algo := ann.SelectAlgo(idxCfg.Policy, len(alive), cfg.Hybrid.Threshold)
	params := backendParams(algo, cfg)

	backend := ann.New(algo, idxCfg.Dimension, idxCfg.DistanceMetric, params)
	vectors := make([][]float32, len(alive))
	ids := make([]int64, len(alive))
	for i, r := range alive {
		vectors[i] = r.Vector
		ids[i] = r.ID
	}
	if len(vectors) > 0 {
		if err := backend.Build(vectors, ids); err != nil {
			return Result{}, err
		}
	}

	// §4.6 step 7's consistency check, enforced before commit rather than
	// trusted blindly: the backend must hold exactly the alive idmap rows.
	if backend.Count() != len(alive) {
		return Result{}, cmn.ErrInternal("backend holds %d vectors but idmap has %d alive rows", backend.Count(), len(alive))
	}

	// Step 6: save the backend blob under its canonical key.
	var blob bytes.Buffer
	if err := backend.Save(&blob); err != nil {
		return Result{}, err
	}
	blobKey := store.BackendBlobKey(index, ann.Ext(algo))
	if err := s.PutBytes(ctx, vectorBucket, blobKey, blob.Bytes(), "application/octet-stream"); err != nil {
		return Result{}, err
	}

	// Step 8: write the manifest last — the single externally-visible
	// commit point (§3, §4.6 step 4/8).
	manifest := meta.Manifest{
		Algo:         algo,
		Dimension:    idxCfg.Dimension,
		Metric:       idxCfg.DistanceMetric,
		Vectors:      len(alive),
		Params:       params,
		BlobChecksum: cos.ChecksumBytes(blob.Bytes()).Value(),
	}
	if err := s.PutJSON(ctx, vectorBucket, store.ManifestKey(index), manifest); err != nil {
		return Result{}, err
	}

	// Step 9: only now delete the processed staged slices. If the job dies
	// before this point, re-running Build is idempotent: the same slices
	// are re-decoded and re-appended, but idmap.AppendPrepared's
	// tombstone-on-existing-key rule means a duplicate append for the same
	// key just replaces the row rather than double-counting it.
	for _, key := range stagedKeys {
		if err := s.DeleteObject(ctx, vectorBucket, key); err != nil {
			glog.Warningf("builder: index %q: failed to delete consolidated slice %s: %v", index, key, err)
		}
	}

	return Result{
		SlicesConsolidated: len(stagedKeys),
		VectorsAppended:    vectorsAppended,
		TotalAlive:         len(alive),
		Algo:               algo,
	}, nil
}

// BuildWithStats wraps Build with run/duration/lease-contention metrics
// (§4.6 "Result", §5's "contention is a retryable error"), for callers
// that hold a *stats.Registry, such as vecdbctl's ad-hoc build command.
// reg may be nil, in which case this is
// exactly Build.
func BuildWithStats(ctx context.Context, s store.Adapter, vectorBucket string, idxCfg *meta.IndexConfig, cfg *cmn.Config, owner string, reg *stats.Registry) (Result, error) {
	if reg == nil {
		return Build(ctx, s, vectorBucket, idxCfg, cfg, owner)
	}
	start := time.Now()
	res, err := Build(ctx, s, vectorBucket, idxCfg, cfg, owner)
	reg.BuildDuration.WithLabelValues(vectorBucket, idxCfg.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		if cmn.AsError(err).Kind == cmn.KindDependency {
			reg.LeaseContend.WithLabelValues(vectorBucket, idxCfg.Name).Inc()
		}
		reg.BuildRuns.WithLabelValues(vectorBucket, idxCfg.Name, "error").Inc()
		return res, err
	}
	outcome := "ok"
	if res.NoOp {
		outcome = "noop"
	}
	reg.BuildRuns.WithLabelValues(vectorBucket, idxCfg.Name, outcome).Inc()
	return res, nil
}

const idmapExt = "json"

func aliveRows(m *idmap.Map) []idmap.Row {
	out := make([]idmap.Row, 0, m.AliveCount())
	for _, r := range m.Rows {
		if r.Alive {
			out = append(out, r)
		}
	}
	return out
}

func backendParams(algo meta.Algo, cfg *cmn.Config) meta.BackendParams {
	if algo == meta.AlgoIVFPQ {
		return meta.BackendParams{NList: cfg.IVFPQ.NList, PQM: cfg.IVFPQ.M, NBits: cfg.IVFPQ.NBits}
	}
	return meta.BackendParams{M: cfg.HNSW.M, EfConstruction: cfg.HNSW.EfConstruction}
}
