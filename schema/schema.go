// Package schema implements the Metadata Schema Engine (§4.4): per-index
// typed-column registry with safe evolution, and the filter-expression ->
// WHERE-clause translator with a JSON-extract fallback.
package schema

import (
	"github.com/annstore/vecdb/meta"
)

// Registry is the per-index typed-column schema: a nullable column per
// inferred metadata key, excluding anything declared non-filterable at
// index creation (§4.4).
type Registry struct {
	Columns map[string]meta.ColumnType
}

func NewRegistry() *Registry {
	return &Registry{Columns: make(map[string]meta.ColumnType)}
}

// InferType returns the physical type of v, or "" if v is nil/unsupported
// (§4.4: "infer a per-field physical type ... from the first non-null
// value encountered").
func InferType(v interface{}) meta.ColumnType {
	switch v.(type) {
	case nil:
		return ""
	case bool:
		return meta.ColBool
	case int, int32, int64:
		return meta.ColInt64
	case float32, float64:
		return meta.ColFloat64
	case string:
		return meta.ColString
	default:
		return ""
	}
}

// EvolveBatch scans a batch of metadata maps and adds any newly-observed
// filterable key as a nullable column. Adding a column that already
// exists is a no-op — observed-and-re-read reconciliation, not an error —
// so concurrent callers racing to add the same column never fail (§4.4,
// and the single-writer-per-index Open Question decision in DESIGN.md:
// this reconciliation is kept anyway as defense since the object store
// offers no compare-and-swap to rely on instead).
func (r *Registry) EvolveBatch(cfg *meta.IndexConfig, rows []map[string]interface{}) {
	for _, row := range rows {
		for k, v := range row {
			if cfg.IsNonFilterable(k) {
				continue
			}
			if _, exists := r.Columns[k]; exists {
				continue
			}
			t := InferType(v)
			if t == "" {
				continue // first value seen was null; wait for a typed value
			}
			r.Columns[k] = t
		}
	}
}

// AddNullableColumn is the explicit primitive called out in spec.md §9 as
// the right shape for schema evolution. EvolveBatch applies the same
// add-only-if-absent rule inline.
func (r *Registry) AddNullableColumn(name string, t meta.ColumnType) {
	if _, exists := r.Columns[name]; exists {
		return
	}
	r.Columns[name] = t
}

// IsTypedColumn reports whether key is a registered filterable column.
func (r *Registry) IsTypedColumn(key string) bool {
	_, ok := r.Columns[key]
	return ok
}

// Split partitions a vector row's metadata into typed-column cells and the
// JSON overlay (§3 "Vector row": "Metadata is split on write"). Keys that
// map to a registered column become typed cells (and are NOT duplicated
// into the JSON blob); everything else goes into the JSON blob.
func (r *Registry) Split(cfg *meta.IndexConfig, metadata map[string]interface{}) (typed map[string]interface{}, jsonOverlay map[string]interface{}) {
	typed = make(map[string]interface{})
	jsonOverlay = make(map[string]interface{})
	for k, v := range metadata {
		if !cfg.IsNonFilterable(k) && r.IsTypedColumn(k) {
			typed[k] = v
		} else {
			jsonOverlay[k] = v
		}
	}
	return typed, jsonOverlay
}

// Merge reconstructs the client-facing metadata object: typed columns
// overlay JSON keys of the same name (§4.7 step 5: "typed columns overlay
// JSON keys of the same name").
func Merge(jsonOverlay map[string]interface{}, typed map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(jsonOverlay)+len(typed))
	for k, v := range jsonOverlay {
		out[k] = v
	}
	for k, v := range typed {
		out[k] = v
	}
	return out
}
