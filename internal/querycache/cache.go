// Package querycache is the client's shared server-state cache. Entries are
// addressed by hierarchical keys so a mutation can invalidate a whole family
// ("every projects page") at once.
//
// A fetch writes its result only if its key was not invalidated while the
// request was outstanding, so an answer computed before a mutation never
// overwrites the state the mutation forced to be reloaded. Concurrent fetches
// of the same key share one request.
package querycache

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Key identifies one cached query, e.g. "projects/0/6/alpha".
type Key string

// NewKey joins escaped segments into a Key.
func NewKey(parts ...any) Key {
	segs := make([]string, len(parts))
	for i, p := range parts {
		segs[i] = url.PathEscape(fmt.Sprint(p))
	}
	return Key(strings.Join(segs, "/"))
}

// HasPrefix reports whether k equals prefix or lies beneath it.
func (k Key) HasPrefix(prefix Key) bool {
	return k == prefix || strings.HasPrefix(string(k), string(prefix)+"/")
}

type entry struct {
	value     any
	fetchedAt time.Time
}

// Cache stores query results in memory for the life of the process.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]entry
	// gens counts invalidations per key; a fetch started at generation g may
	// only store its result while the key is still at g.
	gens   map[Key]uint64
	group  singleflight.Group
	logger *slog.Logger
}

// New returns an empty cache.
func New(logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		entries: map[Key]entry{},
		gens:    map[Key]uint64{},
		logger:  logger,
	}
}

// Fetch returns the cached value for key or runs fn to load it.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn func(context.Context) (T, error)) (T, error) {
	if v, ok := c.lookup(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	gen := c.begin(key)
	v, err, shared := c.group.Do(string(key)+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		val, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, gen, val)
		return val, nil
	})
	if shared {
		c.logger.Debug("query coalesced", slog.String("key", string(key)))
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Peek returns the cached value without fetching.
func Peek[T any](c *Cache, key Key) (T, bool) {
	v, ok := c.lookup(key)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// Invalidate drops every entry at or beneath prefix and marks in-flight
// fetches for those keys as outdated. It returns how many entries were dropped.
func (c *Cache) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.gens {
		if k.HasPrefix(prefix) {
			c.gens[k]++
		}
	}
	dropped := 0
	for k := range c.entries {
		if k.HasPrefix(prefix) {
			delete(c.entries, k)
			dropped++
		}
	}
	c.logger.Debug("queries invalidated", slog.String("prefix", string(prefix)), slog.Int("dropped", dropped))
	return dropped
}

// Clear empties the cache, as a sign-out does.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.gens {
		c.gens[k]++
	}
	c.entries = map[Key]entry{}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// FetchedAt reports when key was last stored.
func (c *Cache) FetchedAt(key Key) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e.fetchedAt, ok
}

func (c *Cache) lookup(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e.value, ok
}

func (c *Cache) begin(key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen, ok := c.gens[key]
	if !ok {
		c.gens[key] = 0
	}
	return gen
}

func (c *Cache) store(key Key, gen uint64, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[key] != gen {
		c.logger.Debug("dropping outdated query result", slog.String("key", string(key)))
		return
	}
	c.entries[key] = entry{value: value, fetchedAt: time.Now()}
}
