package querysql

import (
	"container/list"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/filtersql/internal/queryir"
)

// Cache memoizes compilations, keyed by filter fingerprint, dialect, and options.
//
// Compile is pure, so a fingerprint hit returns byte-identical SQL. Concurrent
// misses for the same key share one compilation. Errors are not cached.
type Cache struct {
	size  int
	group singleflight.Group

	mu      sync.Mutex
	order   *list.List // front = most recently used
	entries map[string]*list.Element
	hits    uint64
	misses  uint64
}

type cacheEntry struct {
	key    string
	result Result
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

// NewCache returns a cache holding at most size results (least recently used
// evicted first). size <= 0 disables eviction.
func NewCache(size int) *Cache {
	return &Cache{
		size:    size,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

// Compile is Compile with memoization.
func (c *Cache) Compile(node queryir.Node, d Dialect, opts ...Option) (Result, error) {
	if d == nil {
		return Result{}, fmt.Errorf("compile filter: nil dialect")
	}
	fp, err := queryir.Fingerprint(node)
	if err != nil {
		return Result{}, err
	}
	key := fp + "|" + d.Name() + "|" + buildOptions(opts).key()

	if r, ok := c.get(key); ok {
		return r, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		r, err := Compile(node, d, opts...)
		if err != nil {
			return nil, err
		}
		c.put(key, r)
		return r, nil
	})
	if err != nil {
		return Result{}, err
	}
	return clone(v.(Result)), nil
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: c.order.Len(), Hits: c.hits, Misses: c.misses}
}

func (c *Cache) get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return Result{}, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return clone(el.Value.(*cacheEntry).result), true
}

func (c *Cache) put(key string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, result: clone(r)})

	for c.size > 0 && c.order.Len() > c.size {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

// clone copies Values so callers cannot mutate cached parameters.
func clone(r Result) Result {
	return Result{SQL: r.SQL, Values: slices.Clone(r.Values)}
}
