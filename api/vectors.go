package api

import (
	"bytes"
	"net/http"
	"time"

	"github.com/annstore/vecdb/cmn"
	"github.com/annstore/vecdb/idmap"
	"github.com/annstore/vecdb/query"
	"github.com/annstore/vecdb/schema"
	"github.com/annstore/vecdb/slice"
	"github.com/annstore/vecdb/stats"
	"github.com/annstore/vecdb/store"
)

// rowMetadata reconstructs the client-facing metadata object from an id
// map row, the same typed-overlay-JSON merge the query engine performs
// (§4.7 step 5) — get/list need it too since they read the idmap directly.
func rowMetadata(row idmap.Row) map[string]interface{} {
	var overlay map[string]interface{}
	if row.MetadataJSON != "" {
		_ = json.Unmarshal([]byte(row.MetadataJSON), &overlay)
	}
	return schema.Merge(overlay, row.TypedColumns)
}

// idmapExt is the id map file extension, matching the literal builder and
// query already use at their own store.IdMapKey call sites.
const idmapExt = "json"

// putVectors stages a write batch as a new slice file (§4.2); the builder
// picks it up on its next consolidation run. A size-0 batch writes nothing
// and triggers no build, per §8's boundary behavior.
func (s *Server) putVectors(w http.ResponseWriter, r *http.Request, body map[string]interface{}, bucket, index string) {
	rows, err := bodyVectorRows(body, "vectors")
	if err != nil {
		writeError(w, err)
		return
	}
	if len(rows) == 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{"accepted": 0})
		return
	}
	if err := cmn.ValidateBatchSize(len(rows)); err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	idxCfg, err := s.Control.GetIndex(ctx, bucket, index)
	if err != nil {
		writeError(w, err)
		return
	}

	sliceRows := make([]slice.Row, len(rows))
	for i, v := range rows {
		if err := cmn.ValidateKey(v.Key); err != nil {
			writeError(w, err)
			return
		}
		if len(v.Vector) != idxCfg.Dimension {
			writeError(w, cmn.ErrValidation("vector for key %q has dimension %d, index dimension is %d", v.Key, len(v.Vector), idxCfg.Dimension))
			return
		}
		sr, err := slice.FromVectorRow(v)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := cmn.ValidateMetadataSize(len(sr.MetadataJSON)); err != nil {
			writeError(w, err)
			return
		}
		sliceRows[i] = sr
	}

	format := slice.Format(s.Cfg.Slice.Format)
	var buf bytes.Buffer
	if err := slice.Encode(&buf, sliceRows, format); err != nil {
		writeError(w, err)
		return
	}
	key := store.StagedSliceKey(index, slice.SliceKeyTimestamp(time.Now()), format.Ext())
	if err := s.Store.PutBytes(ctx, bucket, key, buf.Bytes(), "application/octet-stream"); err != nil {
		writeError(w, err)
		return
	}

	if s.Stats != nil {
		s.Stats.PutVectors.WithLabelValues(bucket, index).Add(float64(len(rows)))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"accepted": len(rows)})
}

// getVectors reads rows directly from the id map (§4.3), bypassing the
// query engine and its backend cache entirely: a get-by-key is not a
// similarity search.
func (s *Server) getVectors(w http.ResponseWriter, r *http.Request, body map[string]interface{}, bucket, index string) {
	keys := bodyStringSlice(body, "keys")
	if err := cmn.ValidateGetKeysCount(len(keys)); err != nil {
		writeError(w, err)
		return
	}
	returnData := bodyBool(body, "returnData", true)
	returnMetadata := bodyBool(body, "returnMetadata", true)

	m, err := idmap.Load(r.Context(), s.Store, bucket, index, idmapExt)
	if err != nil {
		writeError(w, err)
		return
	}
	rows := make([]wireVectorRow, 0, len(keys))
	for _, k := range keys {
		row, ok := m.Lookup(k)
		if !ok || !row.Alive {
			continue
		}
		wr := wireVectorRow{Key: row.Key}
		if returnData {
			wr.Data = &wireVector{Float32: row.Vector}
		}
		if returnMetadata {
			wr.Metadata = rowMetadata(row)
		}
		rows = append(rows, wr)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"vectors": rows})
}

// listVectors pages through the id map's alive rows in key order (§4.3
// "Slice for listing").
func (s *Server) listVectors(w http.ResponseWriter, r *http.Request, body map[string]interface{}, bucket, index string) {
	cursor := bodyString(body, "nextToken")
	limit := bodyInt(body, "maxResults", 100)

	m, err := idmap.Load(r.Context(), s.Store, bucket, index, idmapExt)
	if err != nil {
		writeError(w, err)
		return
	}
	page, next := m.List(cursor, limit)
	keys := make([]string, len(page))
	for i, row := range page {
		keys[i] = row.Key
	}
	resp := map[string]interface{}{"keys": keys}
	if next != "" {
		resp["nextToken"] = next
	}
	writeJSON(w, http.StatusOK, resp)
}

// deleteVectors tombstones keys directly against the id map and persists
// it immediately (§4.3 "Tombstone by keys"). This does not go through the
// builder's advisory lease: it is a single idmap mutation, not a backend
// rebuild, and the builder's own tombstone-on-duplicate-key handling
// already absorbs a delete that races a consolidation in progress.
func (s *Server) deleteVectors(w http.ResponseWriter, r *http.Request, body map[string]interface{}, bucket, index string) {
	keys := bodyStringSlice(body, "keys")
	ctx := r.Context()

	m, err := idmap.Load(ctx, s.Store, bucket, index, idmapExt)
	if err != nil {
		writeError(w, err)
		return
	}
	n := m.Tombstone(keys)
	if n > 0 {
		if err := m.Save(ctx, s.Store, bucket, index, idmapExt); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": n})
}

// queryVectors runs a similarity search through the query engine (§4.7).
func (s *Server) queryVectors(w http.ResponseWriter, r *http.Request, body map[string]interface{}, bucket, index string) {
	vec, err := bodyVector(body, "queryVector")
	if err != nil {
		writeError(w, err)
		return
	}
	topK := bodyInt(body, "topK", 10)
	if err := cmn.ValidateTopK(topK); err != nil {
		writeError(w, err)
		return
	}
	filter, err := bodyFilter(body, "filter")
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	idxCfg, err := s.Control.GetIndex(ctx, bucket, index)
	if err != nil {
		writeError(w, err)
		return
	}

	returnDistance := bodyBool(body, "returnDistance", true)
	returnData := bodyBool(body, "returnData", false)
	req := query.Request{
		VectorBucket:   bucket,
		Index:          index,
		QueryVector:    vec,
		TopK:           topK,
		NProbe:         bodyInt(body, "nProbe", 0),
		Filter:         filter,
		ReturnData:     returnData,
		ReturnMetadata: bodyBool(body, "returnMetadata", false),
		ReturnDistance: returnDistance,
	}

	if s.Stats != nil {
		defer stats.Timer(s.Stats.QueryDuration, bucket, index)()
	}

	results, err := s.Query.Search(ctx, &idxCfg, req)
	if err != nil {
		if s.Stats != nil {
			s.Stats.QueryVectors.WithLabelValues(bucket, index, "error").Inc()
		}
		writeError(w, err)
		return
	}
	if s.Stats != nil {
		s.Stats.QueryVectors.WithLabelValues(bucket, index, "ok").Inc()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": toWireResults(results, returnDistance, returnData)})
}
