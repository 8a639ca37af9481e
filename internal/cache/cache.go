// Package cache is the client's query cache. Screens read through it and
// mutations invalidate it; an invalidated entry is kept but marked stale so
// the next screen focus refetches.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/example/ride-customer/internal/observability"
)

// Key addresses a cached query. An empty ID on a Key passed to Invalidate
// matches every entry under Root.
type Key struct {
	Root string
	ID   string
}

const (
	rootRide    = "ride"
	rootDriver  = "driver"
	rootProfile = "profile"
)

var (
	RideListKey        = Key{Root: rootRide}
	DriverDirectoryKey = Key{Root: rootDriver}
	ProfileKey         = Key{Root: rootProfile}
)

func RideDetailKey(id string) Key { return Key{Root: rootRide, ID: id} }

type Entry struct {
	Data      any
	FetchedAt time.Time
	Stale     bool
}

type Cache struct {
	mu         sync.RWMutex
	store      map[Key]Entry
	staleAfter time.Duration
	now        func() time.Time

	// epoch counts invalidations; marks holds the epoch at which each
	// prefix was last invalidated.
	epoch uint64
	marks map[Key]uint64
}

// New creates a cache. Entries older than staleAfter count as stale; zero
// keeps them fresh until invalidated.
func New(staleAfter time.Duration) *Cache {
	return &Cache{store: make(map[Key]Entry), marks: make(map[Key]uint64), staleAfter: staleAfter, now: time.Now}
}

func (c *Cache) Get(k Key) (Entry, bool) {
	c.mu.RLock()
	e, ok := c.store[k]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}
	if c.staleAfter > 0 && c.now().Sub(e.FetchedAt) > c.staleAfter {
		e.Stale = true
	}
	return e, true
}

// Set stores data as fresh. Concurrent fetches for the same key race and
// the last one to land wins.
func (c *Cache) Set(k Key, data any) {
	c.mu.Lock()
	c.store[k] = Entry{Data: data, FetchedAt: c.now()}
	c.mu.Unlock()
}

// generation is the invalidation epoch a fetch starts from.
func (c *Cache) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch
}

// setSince stores data fetched from generation gen. If k was invalidated
// after gen the entry lands already stale.
func (c *Cache) setSince(k Key, data any, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stale := c.marks[Key{Root: k.Root}] > gen || (k.ID != "" && c.marks[k] > gen)
	c.store[k] = Entry{Data: data, FetchedAt: c.now(), Stale: stale}
}

// Invalidate marks matching entries stale and returns how many it touched.
func (c *Cache) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.marks[prefix] = c.epoch
	n := 0
	for k, e := range c.store {
		if k.Root != prefix.Root || (prefix.ID != "" && k.ID != prefix.ID) {
			continue
		}
		e.Stale = true
		c.store[k] = e
		n++
	}
	return n
}

// InvalidateRides marks the ride list and every ride detail stale.
func (c *Cache) InvalidateRides() int { return c.Invalidate(Key{Root: rootRide}) }

// Query serves a fresh entry for k or runs fetch and stores its result.
func Query[T any](ctx context.Context, c *Cache, k Key, fetch func(context.Context) (T, error)) (T, error) {
	if e, ok := c.Get(k); ok {
		if v, typed := e.Data.(T); typed && !e.Stale {
			observability.CacheLookups.WithLabelValues("hit").Inc()
			return v, nil
		}
		observability.CacheLookups.WithLabelValues("stale").Inc()
	} else {
		observability.CacheLookups.WithLabelValues("miss").Inc()
	}
	return Fetch(ctx, c, k, fetch)
}

// Fetch always runs fetch; a successful result replaces the entry. An
// invalidation that lands while fetch runs leaves the new entry stale.
func Fetch[T any](ctx context.Context, c *Cache, k Key, fetch func(context.Context) (T, error)) (T, error) {
	gen := c.generation()
	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.setSince(k, v, gen)
	return v, nil
}
