package index

import (
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

const indexKey = "index"

// Cache lazily builds an Index from a taxonomy source and keeps it until it
// is invalidated or its TTL elapses. Dropping the cached index is always
// safe; the next read rebuilds it.
type Cache struct {
	source func() types.Taxonomy
	now    func() time.Time
	ttl    time.Duration
	items  *gocache.Cache
	group  singleflight.Group
	builds atomic.Int64

	// mu orders Invalidate against installing a freshly built index.
	mu  sync.Mutex
	gen uint64
}

// NewCache creates a cache over source. The go-cache janitor is disabled;
// expiry is checked on read.
func NewCache(source func() types.Taxonomy, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = types.DefaultCacheTTL
	}
	return &Cache{
		source: source,
		now:    time.Now,
		ttl:    ttl,
		items:  gocache.New(ttl, 0),
	}
}

// Get returns the current index, rebuilding it when absent or expired.
// Concurrent rebuilds are collapsed into one tree walk. A build that was
// overtaken by Invalidate is discarded and the read retried.
func (c *Cache) Get() *Index {
	for {
		if v, ok := c.items.Get(indexKey); ok {
			return v.(*Index)
		}
		v, _, _ := c.group.Do(indexKey, func() (any, error) {
			if v, ok := c.items.Get(indexKey); ok {
				return v, nil
			}
			gen := c.generation()
			idx := Build(c.source(), c.now())
			c.builds.Add(1)

			c.mu.Lock()
			defer c.mu.Unlock()
			if c.gen != gen {
				return (*Index)(nil), nil
			}
			c.items.Set(indexKey, idx, c.ttl)
			return idx, nil
		})
		if idx := v.(*Index); idx != nil {
			return idx
		}
	}
}

func (c *Cache) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Invalidate drops the cached index. A rebuild already in flight will not
// install its result.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.items.Delete(indexKey)
}

// Builds reports how many times the index has been rebuilt.
func (c *Cache) Builds() int64 {
	return c.builds.Load()
}

// Cluster looks up a cluster by ID.
func (c *Cache) Cluster(id string) (types.Cluster, bool) {
	cl, ok := c.Get().Clusters.Get(id)
	if !ok {
		return types.Cluster{}, false
	}
	return cl.Clone(), true
}

// Vector looks up a vector by ID.
func (c *Cache) Vector(id string) (types.Vector, bool) {
	v, ok := c.Get().Vectors.Get(id)
	if !ok {
		return types.Vector{}, false
	}
	return v.Clone(), true
}

// Theme looks up a theme by ID.
func (c *Cache) Theme(id string) (types.Theme, bool) {
	th, ok := c.Get().Themes.Get(id)
	if !ok {
		return types.Theme{}, false
	}
	return th.Clone(), true
}

// ThemesByVector returns the themes listed under a vector, in order.
func (c *Cache) ThemesByVector(vectorID string) ([]types.Theme, bool) {
	idx := c.Get()
	ids, ok := idx.ThemesByVector[vectorID]
	if !ok {
		return nil, false
	}
	out := make([]types.Theme, 0, len(ids))
	for _, id := range ids {
		if th, ok := idx.Themes.Get(id); ok {
			out = append(out, th.Clone())
		}
	}
	return out, true
}

// VectorsByCluster returns the vectors of a cluster, in order.
func (c *Cache) VectorsByCluster(clusterID string) ([]types.Vector, bool) {
	idx := c.Get()
	ids, ok := idx.VectorsByCluster[clusterID]
	if !ok {
		return nil, false
	}
	out := make([]types.Vector, 0, len(ids))
	for _, id := range ids {
		if v, ok := idx.Vectors.Get(id); ok {
			out = append(out, v.Clone())
		}
	}
	return out, true
}

// Themes returns every theme in index order.
func (c *Cache) Themes() []types.Theme {
	return c.Get().ThemeList()
}
