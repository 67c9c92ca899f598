// Package control implements the Control Plane (§4.8): bucket and index
// lifecycle, enforced against the limits in cmn/validate.go.
package control

import (
	"context"
	"time"

	"github.com/annstore/vecdb/cmn"
	"github.com/annstore/vecdb/meta"
	"github.com/annstore/vecdb/store"
	"github.com/golang/glog"
)

// Plane is the control plane, holding only the object-store adapter: all
// state lives in the store, per §4.1/§6.
type Plane struct {
	Store store.Adapter
}

func New(s store.Adapter) *Plane {
	return &Plane{Store: s}
}

// CreateBucket is idempotent: creating the same name twice is a no-op
// (§4.8 "Lifecycle", and there are no per-bucket parameters to conflict
// over beyond the name itself).
func (p *Plane) CreateBucket(ctx context.Context, name string) (meta.Bucket, error) {
	if err := cmn.ValidateBucketName(name); err != nil {
		return meta.Bucket{}, err
	}
	var existing meta.Bucket
	if err := p.Store.GetJSON(ctx, name, store.BucketMetaKey, &existing); err == nil {
		return existing, nil
	} else if cmn.AsError(err).Kind != cmn.KindNotFound {
		return meta.Bucket{}, err
	}

	if err := p.Store.EnsureBucket(ctx, name); err != nil {
		return meta.Bucket{}, err
	}
	b := meta.Bucket{Name: name, Created: now(), Engine: meta.EngineTag, Version: meta.BucketDocVersion}
	if err := p.Store.PutJSON(ctx, name, store.BucketMetaKey, b); err != nil {
		return meta.Bucket{}, err
	}
	glog.Infof("control: created vector bucket %q", name)
	return b, nil
}

func (p *Plane) GetBucket(ctx context.Context, name string) (meta.Bucket, error) {
	var b meta.Bucket
	if err := p.Store.GetJSON(ctx, name, store.BucketMetaKey, &b); err != nil {
		if cmn.AsError(err).Kind == cmn.KindNotFound {
			return meta.Bucket{}, cmn.ErrNotFound("vector bucket", name)
		}
		return meta.Bucket{}, err
	}
	return b, nil
}

func (p *Plane) ListBuckets(ctx context.Context) ([]string, error) {
	return p.Store.ListVectorBuckets(ctx)
}

// DeleteBucket sweeps the bucket's logical contents (§4.8 "Delete is a
// prefix sweep"). An in-flight reader may observe not-found mid-delete,
// which is an accepted race per §4.8, not something this call guards
// against.
func (p *Plane) DeleteBucket(ctx context.Context, name string) error {
	if _, err := p.GetBucket(ctx, name); err != nil {
		return err
	}
	return p.Store.DeleteVectorBucket(ctx, name)
}

// CreateIndexRequest carries the caller-supplied index parameters.
type CreateIndexRequest struct {
	Name                      string
	Dimension                 int
	DataType                  string
	DistanceMetric            meta.DistanceMetric
	Policy                    meta.Policy
	NonFilterableMetadataKeys []string
}

// CreateIndex validates the request, then is idempotent under identical
// parameters and conflicts under differing ones (§4.8 "Lifecycle").
func (p *Plane) CreateIndex(ctx context.Context, vectorBucket string, req CreateIndexRequest) (meta.IndexConfig, error) {
	if err := cmn.ValidateIndexName(req.Name); err != nil {
		return meta.IndexConfig{}, err
	}
	if err := cmn.ValidateDimension(req.Dimension); err != nil {
		return meta.IndexConfig{}, err
	}
	if err := cmn.ValidateDataType(req.DataType); err != nil {
		return meta.IndexConfig{}, err
	}
	if err := cmn.ValidateDistanceMetric(string(req.DistanceMetric)); err != nil {
		return meta.IndexConfig{}, err
	}
	if req.Policy == "" {
		req.Policy = meta.PolicyHybrid
	}

	candidate := meta.IndexConfig{
		Name: req.Name, Dimension: req.Dimension, DataType: req.DataType,
		DistanceMetric: req.DistanceMetric, Policy: req.Policy,
		NonFilterableMetadataKeys: req.NonFilterableMetadataKeys,
	}

	var existing meta.IndexConfig
	err := p.Store.GetJSON(ctx, vectorBucket, store.IndexConfigKey(req.Name), &existing)
	switch {
	case err == nil:
		if !existing.SameParams(&candidate) {
			return meta.IndexConfig{}, cmn.ErrConflict("index", req.Name)
		}
		return existing, nil
	case cmn.AsError(err).Kind != cmn.KindNotFound:
		return meta.IndexConfig{}, err
	}

	candidate.Created = now()
	if err := p.Store.PutJSON(ctx, vectorBucket, store.IndexConfigKey(req.Name), candidate); err != nil {
		return meta.IndexConfig{}, err
	}
	glog.Infof("control: created index %q in bucket %q (dim=%d metric=%s policy=%s)", req.Name, vectorBucket, req.Dimension, req.DistanceMetric, req.Policy)
	return candidate, nil
}

func (p *Plane) GetIndex(ctx context.Context, vectorBucket, name string) (meta.IndexConfig, error) {
	var cfg meta.IndexConfig
	if err := p.Store.GetJSON(ctx, vectorBucket, store.IndexConfigKey(name), &cfg); err != nil {
		if cmn.AsError(err).Kind == cmn.KindNotFound {
			return meta.IndexConfig{}, cmn.ErrNotFound("index", name)
		}
		return meta.IndexConfig{}, err
	}
	return cfg, nil
}

// ListIndexes scans the indexes/ prefix for _index_config.json siblings.
func (p *Plane) ListIndexes(ctx context.Context, vectorBucket string) ([]string, error) {
	keys, err := p.Store.ListPrefix(ctx, vectorBucket, "indexes/")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, k := range keys {
		if name, ok := indexNameFromConfigKey(k); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

func (p *Plane) DeleteIndex(ctx context.Context, vectorBucket, name string) error {
	if _, err := p.GetIndex(ctx, vectorBucket, name); err != nil {
		return err
	}
	return p.Store.DeletePrefix(ctx, vectorBucket, store.IndexPrefix(name))
}

func indexNameFromConfigKey(key string) (string, bool) {
	const prefix, suffix = "indexes/", "/_index_config.json"
	if len(key) <= len(prefix)+len(suffix) {
		return "", false
	}
	if key[:len(prefix)] != prefix {
		return "", false
	}
	if key[len(key)-len(suffix):] != suffix {
		return "", false
	}
	return key[len(prefix) : len(key)-len(suffix)], true
}

// now is a seam so tests can't depend on wall-clock time for determinism
// beyond what's already exercised; production always uses time.Now.
var now = time.Now
