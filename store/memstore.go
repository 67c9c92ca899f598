package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/annstore/vecdb/cmn"
)

// Mem is an in-memory Adapter used by tests throughout the rest of the
// module, so that builder/query/control/schema tests don't require a live
// S3-compatible endpoint. It implements the identical not-found-vs-error
// and prefix-delete-batching contract as Store.
type Mem struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte // vectorBucket -> key -> body
}

var _ Adapter = (*Mem)(nil)

func NewMem() *Mem {
	return &Mem{buckets: make(map[string]map[string][]byte)}
}

func (m *Mem) EnsureBucket(_ context.Context, vectorBucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[vectorBucket]; !ok {
		m.buckets[vectorBucket] = make(map[string][]byte)
	}
	return nil
}

func (m *Mem) PutBytes(_ context.Context, vectorBucket, key string, body []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[vectorBucket]
	if !ok {
		return cmn.ErrNotFound("bucket", vectorBucket)
	}
	cp := make([]byte, len(body))
	copy(cp, body)
	b[key] = cp
	return nil
}

func (m *Mem) GetBytes(_ context.Context, vectorBucket, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.buckets[vectorBucket]
	if !ok {
		return nil, cmn.ErrNotFound("bucket", vectorBucket)
	}
	v, ok := b[key]
	if !ok {
		return nil, cmn.ErrNotFound("object", key)
	}
	return v, nil
}

func (m *Mem) PutJSON(ctx context.Context, vectorBucket, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return cmn.ErrInternal("marshal %s: %v", key, err)
	}
	return m.PutBytes(ctx, vectorBucket, key, raw, cmn.MIMEJSON)
}

func (m *Mem) GetJSON(ctx context.Context, vectorBucket, key string, v interface{}) error {
	raw, err := m.GetBytes(ctx, vectorBucket, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func (m *Mem) ListPrefix(_ context.Context, vectorBucket, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.buckets[vectorBucket]
	if !ok {
		return nil, cmn.ErrNotFound("bucket", vectorBucket)
	}
	var keys []string
	for k := range b {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Mem) DeletePrefix(ctx context.Context, vectorBucket, prefix string) error {
	keys, err := m.ListPrefix(ctx, vectorBucket, prefix)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.buckets[vectorBucket]
	for _, k := range keys {
		delete(b, k)
	}
	return nil
}

func (m *Mem) DeleteObject(_ context.Context, vectorBucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.buckets[vectorBucket]; ok {
		delete(b, key)
	}
	return nil
}

func (m *Mem) ListVectorBuckets(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var names []string
	for n := range m.buckets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Mem) DeleteVectorBucket(_ context.Context, vectorBucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buckets, vectorBucket)
	return nil
}
