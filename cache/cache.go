// Package cache is a process-local key/value cache with per-entry TTLs,
// prefix invalidation and a periodic sweep of expired entries.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Defaults used when no TTL or sweep interval is given.
const (
	DefaultTTL           = 5 * time.Minute
	DefaultSweepInterval = 10 * time.Minute
)

type entry struct {
	value     any
	writtenAt time.Time
	expiresAt time.Time
}

// expired reports whether the entry is logically absent at now. An entry is
// still live at the exact instant it expires.
func (e entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// Stats is a snapshot of cache activity.
type Stats struct {
	Entries   int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Cache is safe for concurrent use. The zero value is not usable; call New.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time

	hits, misses, evictions uint64

	group singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithDefaultTTL sets the TTL used by Set when it is given ttl <= 0.
func WithDefaultTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New returns an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Set stores value under key, replacing any previous entry. A ttl <= 0 uses
// the cache's default TTL.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.mu.Lock()
	now := c.now()
	c.entries[key] = entry{value: value, writtenAt: now, expiresAt: now.Add(ttl)}
	c.mu.Unlock()
}

// Get returns the live value for key. An expired entry is removed and
// reported as missing.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lookup(key)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// Has reports whether key holds a live entry. Like Get, it evicts an
// expired entry.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.lookup(key)
	return ok
}

func (c *Cache) lookup(key string) (any, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		c.evictions++
		return nil, false
	}
	return e.value, true
}

// Delete removes key. Removing a missing key is a no-op.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

// InvalidatePrefix removes every key that starts with prefix and returns how
// many were removed.
func (c *Cache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Sweep removes every expired entry and returns how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			n++
		}
	}
	c.evictions += uint64(n)
	return n
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:   len(c.entries),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// StartSweeper runs Sweep every interval until the returned stop function is
// called. An interval <= 0 uses DefaultSweepInterval. Stop is idempotent.
func (c *Cache) StartSweeper(interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				c.Sweep()
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// Fetch returns the cached value for key, or calls fetch, caches its result
// for ttl and returns it. Errors are returned and not cached. Concurrent
// misses for the same key each call fetch. An entry of another type counts
// as a miss and is overwritten.
func Fetch[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if t, ok := getAs[T](c, key); ok {
		return t, nil
	}
	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(key, v, ttl)
	return v, nil
}

// FetchShared is Fetch with concurrent misses for one key collapsed into a
// single call to fetch. Waiting callers receive the same value or error.
//
// fetch receives ctx without its cancellation: the result is shared with
// every waiting caller, not only the one whose request started the flight.
func FetchShared[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if t, ok := getAs[T](c, key); ok {
		return t, nil
	}
	shared := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.peek(key); ok {
			if t, ok := v.(T); ok {
				return t, nil
			}
		}
		v, err := fetch(shared)
		if err != nil {
			return nil, err
		}
		c.Set(key, v, ttl)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if t, ok := v.(T); ok {
		return t, nil
	}
	// A caller of another type led the flight for this key.
	return Fetch(ctx, c, key, ttl, fetch)
}

// getAs is Get restricted to values of type T.
func getAs[T any](c *Cache, key string) (T, bool) {
	if v, ok := c.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// peek is lookup without touching the hit/miss counters.
func (c *Cache) peek(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(key)
}
