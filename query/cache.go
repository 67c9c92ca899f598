package query

import (
	"container/list"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/annstore/vecdb/ann"
)

// backendEntry is one cached, deserialized ANN backend, keyed by the
// manifest etag that produced it (§4.7 step 2, §5 "Readers see a
// snapshot ... until it is evicted from cache").
type backendEntry struct {
	etag    string
	backend ann.Backend
}

// BackendCache is the bounded, count-limited LRU the query engine keeps
// so repeat queries against the same (bucket, index, manifest) triple
// don't re-deserialize the backend blob every call. Fill is
// single-flighted: concurrent misses for the same key collapse into one
// load (§5 "Locking": "writers (cache fill on miss) single-flight").
type BackendCache struct {
	mu       sync.Mutex
	cap      int
	ll       *list.List // front = most recently used
	elements map[string]*list.Element
	group    singleflight.Group
}

type cacheNode struct {
	key   string
	entry backendEntry
}

func NewBackendCache(capacity int) *BackendCache {
	if capacity <= 0 {
		capacity = 64
	}
	return &BackendCache{
		cap:      capacity,
		ll:       list.New(),
		elements: make(map[string]*list.Element),
	}
}

// get returns the cached backend for key if its etag matches; a mismatch
// (manifest moved on) is treated as a miss so the caller reloads.
func (c *BackendCache) get(key, etag string) (ann.Backend, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.elements[key]
	if !ok {
		return nil, false
	}
	node := el.Value.(*cacheNode)
	if node.entry.etag != etag {
		c.ll.Remove(el)
		delete(c.elements, key)
		return nil, false
	}
	c.ll.MoveToFront(el)
	return node.entry.backend, true
}

func (c *BackendCache) put(key, etag string, backend ann.Backend) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.elements[key]; ok {
		el.Value.(*cacheNode).entry = backendEntry{etag: etag, backend: backend}
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&cacheNode{key: key, entry: backendEntry{etag: etag, backend: backend}})
	c.elements[key] = el
	for c.ll.Len() > c.cap {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.elements, oldest.Value.(*cacheNode).key)
	}
}

// Load returns the cached backend for key/etag, or calls fill exactly
// once per key among concurrently-racing callers to populate it.
func (c *BackendCache) Load(key, etag string, fill func() (ann.Backend, error)) (ann.Backend, error) {
	if b, ok := c.get(key, etag); ok {
		return b, nil
	}
	v, err, _ := c.group.Do(key+"@"+etag, func() (interface{}, error) {
		if b, ok := c.get(key, etag); ok {
			return b, nil
		}
		b, err := fill()
		if err != nil {
			return nil, err
		}
		c.put(key, etag, b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(ann.Backend), nil
}
