// Package meta defines the durable document types shared across the store,
// schema, builder, and query packages: bucket and index configuration, the
// build manifest, vector rows, and the filter expression tree. Keeping these
// in their own package avoids an import cycle between the packages that
// produce them (control, builder) and the ones that consume them (query,
// schema).
package meta

import "time"

// Bucket mirrors _meta/bucket.json (spec §6).
type Bucket struct {
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
	Engine  string    `json:"engine"`
	Version int       `json:"version"`
}

const EngineTag = "vecdb"
const BucketDocVersion = 1

// DistanceMetric is the closed set from §3.
type DistanceMetric string

const (
	MetricCosine     DistanceMetric = "cosine"
	MetricEuclidean  DistanceMetric = "euclidean"
	MetricDotProduct DistanceMetric = "dot_product"
)

// Algo names the ANN backend an index currently uses, recorded by the
// builder in the manifest (§4.5/§4.6).
type Algo string

const (
	AlgoGraph Algo = "graph"
	AlgoIVFPQ Algo = "ivfpq"
)

// Policy is the index-config-level choice of §4.5: a fixed algorithm, or
// "hybrid" (builder decides per vector count at build time).
type Policy string

const (
	PolicyGraph  Policy = "graph"
	PolicyIVFPQ  Policy = "ivfpq"
	PolicyHybrid Policy = "hybrid"
)

// IndexConfig mirrors indexes/<name>/_index_config.json. Immutable after
// create per §3.
type IndexConfig struct {
	Name                      string         `json:"name"`
	Dimension                 int            `json:"dimension"`
	DataType                  string         `json:"dataType"`
	DistanceMetric            DistanceMetric `json:"distanceMetric"`
	Policy                    Policy         `json:"policy"`
	NonFilterableMetadataKeys []string       `json:"nonFilterableMetadataKeys,omitempty"`
	Created                   time.Time      `json:"created"`
}

// SameParams reports whether two configs describe the same index for the
// purposes of §4.8's create-is-idempotent-under-same-parameters rule.
func (c *IndexConfig) SameParams(o *IndexConfig) bool {
	if c.Dimension != o.Dimension || c.DataType != o.DataType ||
		c.DistanceMetric != o.DistanceMetric || c.Policy != o.Policy {
		return false
	}
	if len(c.NonFilterableMetadataKeys) != len(o.NonFilterableMetadataKeys) {
		return false
	}
	seen := make(map[string]bool, len(c.NonFilterableMetadataKeys))
	for _, k := range c.NonFilterableMetadataKeys {
		seen[k] = true
	}
	for _, k := range o.NonFilterableMetadataKeys {
		if !seen[k] {
			return false
		}
	}
	return true
}

// IsNonFilterable reports whether key was declared non-filterable at create
// time and must therefore never be promoted to a typed column (§4.4).
func (c *IndexConfig) IsNonFilterable(key string) bool {
	for _, k := range c.NonFilterableMetadataKeys {
		if k == key {
			return true
		}
	}
	return false
}

// ColumnType is one of the four physical types the schema engine infers
// (§4.4).
type ColumnType string

const (
	ColBool    ColumnType = "bool"
	ColInt64   ColumnType = "int64"
	ColFloat64 ColumnType = "float64"
	ColString  ColumnType = "string"
)

// Manifest mirrors indexes/<name>/manifest.json, written last in a build
// (§3, §4.6): its replacement is the single externally-visible commit point.
type Manifest struct {
	Algo      Algo           `json:"algo"`
	Dimension int            `json:"dimension"`
	Metric    DistanceMetric `json:"metric"`
	Vectors   int            `json:"vectors"`
	Params    BackendParams  `json:"params"`
	// BlobChecksum is the backend blob's xxhash (cmn/cos.ChecksumBytes),
	// recorded so two builds that happen to agree on every other field
	// (same algo/metric/dimension/alive-count) still carry distinct
	// identity when the blob content itself differs, e.g. an
	// overwrite-a-key-then-rebuild that leaves the alive count unchanged.
	BlobChecksum string `json:"blobChecksum,omitempty"`
	// ETag identifies this manifest+backend pairing for the query engine's
	// backend cache key (§4.7 step 2). It is not serialized, and no store
	// adapter in this module fills it in, so the query engine falls back to
	// its manifest fingerprint.
	ETag string `json:"-"`
}

// BackendParams carries whichever ANN backend's build parameters apply,
// depending on Manifest.Algo.
type BackendParams struct {
	// HNSW
	M              int `json:"m,omitempty"`
	EfConstruction int `json:"efConstruction,omitempty"`
	// IVF-PQ
	NList int `json:"nlist,omitempty"`
	PQM   int `json:"pqM,omitempty"`
	NBits int `json:"nbits,omitempty"`
}

// VectorRow is the client-facing unit of write/read (§3 "Vector row").
type VectorRow struct {
	Key      string                 `json:"key"`
	Vector   []float32              `json:"vector"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Result is one ranked hit returned by the query engine (§4.7 step 6).
type Result struct {
	Key      string                 `json:"key"`
	Distance float32                `json:"distance,omitempty"`
	Vector   []float32              `json:"data,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
