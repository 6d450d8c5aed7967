// Package tiles proxies and caches raster basemap tiles for the public map.
package tiles

import (
	"container/list"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Coord addresses one XYZ tile.
type Coord struct {
	Z, X, Y int
}

func (c Coord) String() string {
	return fmt.Sprintf("%d/%d/%d", c.Z, c.X, c.Y)
}

// Valid reports whether c lies inside the tile pyramid up to maxZoom.
func (c Coord) Valid(maxZoom int) bool {
	if c.Z < 0 || c.Z > maxZoom {
		return false
	}
	n := 1 << c.Z
	return c.X >= 0 && c.X < n && c.Y >= 0 && c.Y < n
}

// Cache is a size-bounded LRU of tile bodies with a time-to-live.
type Cache struct {
	maxEntries int
	ttl        time.Duration
	now        func() time.Time

	mu      sync.Mutex
	lru     *list.List // front = most recently used
	entries map[Coord]*list.Element

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	coord   Coord
	data    []byte
	expires time.Time
}

// Stats reports cache effectiveness.
type Stats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// NewCache returns a cache holding at most maxEntries tiles for ttl each.
func NewCache(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Cache{
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
		lru:        list.New(),
		entries:    make(map[Coord]*list.Element),
	}
}

// Get returns the cached body for c, or nil on a miss or expiry.
func (c *Cache) Get(coord Coord) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[coord]
	if !ok {
		c.misses.Add(1)
		return nil
	}
	e := el.Value.(*cacheEntry)
	if c.now().After(e.expires) {
		c.remove(el)
		c.misses.Add(1)
		return nil
	}
	c.lru.MoveToFront(el)
	c.hits.Add(1)
	return e.data
}

// Put stores data for c, evicting the least recently used tile when full.
func (c *Cache) Put(coord Coord, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if el, ok := c.entries[coord]; ok {
		e := el.Value.(*cacheEntry)
		e.data, e.expires = data, expires
		c.lru.MoveToFront(el)
		return
	}
	for c.lru.Len() >= c.maxEntries {
		c.remove(c.lru.Back())
	}
	c.entries[coord] = c.lru.PushFront(&cacheEntry{coord: coord, data: data, expires: expires})
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	n := c.lru.Len()
	c.mu.Unlock()

	s := Stats{Entries: n, MaxEntries: c.maxEntries, Hits: c.hits.Load(), Misses: c.misses.Load()}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

func (c *Cache) remove(el *list.Element) {
	e := c.lru.Remove(el).(*cacheEntry)
	delete(c.entries, e.coord)
}
