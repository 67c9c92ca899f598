// Package cmn provides common constants, configuration, and validation
// shared by every higher-level package.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"os"
	"strconv"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/annstore/vecdb/cmn/debug"
)

// Config is the service-wide configuration snapshot. It is loaded once at
// startup from environment variables (§6: "recognized options") and is
// otherwise immutable; callers that need to react to a change re-read
// it from the GCO (global config owner) rather than caching a pointer across
// a long-lived goroutine.
type Config struct {
	Store   StoreConf   `json:"store"`
	Slice   SliceConf   `json:"slice"`
	Hybrid  HybridConf  `json:"hybrid"`
	HNSW    HNSWConf    `json:"hnsw"`
	IVFPQ   IVFPQConf   `json:"ivfpq"`
	Limits  LimitsConf  `json:"limits"`
	Builder BuilderConf `json:"builder"`
}

type StoreConf struct {
	EndpointURL  string `json:"endpoint_url"`
	AccessKey    string `json:"access_key"`
	SecretKey    string `json:"secret_key"`
	Region       string `json:"region"`
	BucketPrefix string `json:"bucket_prefix"` // default "vb-"
	UseHTTPS     bool   `json:"use_https"`
	SkipVerify   bool   `json:"skip_verify"`
}

type SliceConf struct {
	Format string `json:"format"` // "parquet" (columnar) | "jsonl"
}

// HybridConf configures the §4.5 algorithm-selection policy. Threshold is
// the vector count at or above which the builder switches a "hybrid" index from
// the graph backend to IVF-PQ at the next build.
type HybridConf struct {
	Threshold int `json:"threshold"`
}

type HNSWConf struct {
	M              int `json:"m"`
	EfConstruction int `json:"ef_construction"`
}

type IVFPQConf struct {
	NList int `json:"nlist"`
	M     int `json:"m"`
	NBits int `json:"nbits"`
}

type LimitsConf struct {
	MaxDimension  int `json:"max_dimension"`
	MaxBatch      int `json:"max_batch"`
	MaxTopK       int `json:"max_topk"`
	MaxKeyLen     int `json:"max_key_len"`
	MaxMetaBytes  int `json:"max_meta_bytes"`
	MaxGetKeys    int `json:"max_get_keys"`
}

type BuilderConf struct {
	LeaseTTL   time.Duration `json:"lease_ttl"`
	OverFetch  int           `json:"over_fetch"` // postfilter candidate multiplier, §4.7 step 4
	SyncOnWrite bool         `json:"sync_on_write"`
}

func DefaultConfig() *Config {
	return &Config{
		Store: StoreConf{
			BucketPrefix: "vb-",
			Region:       "us-east-1",
		},
		Slice: SliceConf{Format: "parquet"},
		Hybrid: HybridConf{
			Threshold: 100_000, // see SPEC_FULL.md §5.1: highest of the three values observed upstream
		},
		HNSW:  HNSWConf{M: 16, EfConstruction: 200},
		IVFPQ: IVFPQConf{NList: 1024, M: 16, NBits: 8},
		Limits: LimitsConf{
			MaxDimension: 4096,
			MaxBatch:     500,
			MaxTopK:      30,
			MaxKeyLen:    512,
			MaxMetaBytes: 40 * 1024,
			MaxGetKeys:   100,
		},
		Builder: BuilderConf{
			LeaseTTL:    30 * time.Second,
			OverFetch:   4,
			SyncOnWrite: true,
		},
	}
}

// LoadConfigFromEnv overlays environment variables onto the default config,
// matching §6's "Environment configuration (recognized options and effects)".
func LoadConfigFromEnv() *Config {
	c := DefaultConfig()
	if v := os.Getenv("VDB_S3_ENDPOINT_URL"); v != "" {
		c.Store.EndpointURL = v
	}
	if v := os.Getenv("VDB_S3_ACCESS_KEY"); v != "" {
		c.Store.AccessKey = v
	}
	if v := os.Getenv("VDB_S3_SECRET_KEY"); v != "" {
		c.Store.SecretKey = v
	}
	if v := os.Getenv("VDB_S3_REGION"); v != "" {
		c.Store.Region = v
	}
	if v := os.Getenv("VDB_BUCKET_PREFIX"); v != "" {
		c.Store.BucketPrefix = v
	}
	if v := os.Getenv("VDB_SLICE_FORMAT"); v != "" {
		c.Slice.Format = v
	}
	if v := os.Getenv("VDB_HYBRID_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Hybrid.Threshold = n
		}
	}
	if v := os.Getenv("VDB_HNSW_M"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HNSW.M = n
		}
	}
	if v := os.Getenv("VDB_HNSW_EF_CONSTRUCTION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HNSW.EfConstruction = n
		}
	}
	if v := os.Getenv("VDB_IVFPQ_NLIST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.IVFPQ.NList = n
		}
	}
	if v := os.Getenv("VDB_IVFPQ_M"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.IVFPQ.M = n
		}
	}
	if v := os.Getenv("VDB_IVFPQ_NBITS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.IVFPQ.NBits = n
		}
	}
	if v := os.Getenv("VDB_MAX_BATCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Limits.MaxBatch = n
		}
	}
	if v := os.Getenv("VDB_MAX_TOPK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Limits.MaxTopK = n
		}
	}
	if v := os.Getenv("VDB_MAX_DIM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Limits.MaxDimension = n
		}
	}
	return c
}

// globalConfigOwner (GCO) holds config behind an atomically-swapped
// pointer so readers never need a lock and a reload never races a reader
// mid-read.
type globalConfigOwner struct {
	ptr unsafe.Pointer // *Config
}

var GCO = &globalConfigOwner{}

func (gco *globalConfigOwner) Get() *Config {
	p := (*Config)(atomic.LoadPointer(&gco.ptr))
	debug.Assert(p != nil, "config not initialized")
	return p
}

func (gco *globalConfigOwner) Put(c *Config) {
	atomic.StorePointer(&gco.ptr, unsafe.Pointer(c))
}

func init() {
	GCO.Put(DefaultConfig())
}
