package search

import (
	"context"
	"sync"
	"time"

	"winelens/internal/textnorm"
)

const (
	defaultCacheTTL    = 10 * time.Minute
	defaultMinInterval = 100 * time.Millisecond
)

type cacheEntry struct {
	hits    []Hit
	expires time.Time
}

// Cached wraps a Searcher with a TTL cache and a minimum spacing between
// calls. Empty answers are cached too, so a candidate the service does not
// know is not re-sent on every frame.
type Cached struct {
	next        Searcher
	ttl         time.Duration
	minInterval time.Duration
	now         func() time.Time

	mu       sync.Mutex
	single   map[string]cacheEntry
	batch    map[string]cacheEntry
	lastCall time.Time
}

var _ Searcher = (*Cached)(nil)

// CacheOption configures a Cached searcher.
type CacheOption func(*Cached)

// WithTTL sets how long answers are reused.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cached) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMinInterval sets the minimum spacing between upstream calls. Zero
// disables spacing.
func WithMinInterval(interval time.Duration) CacheOption {
	return func(c *Cached) {
		if interval >= 0 {
			c.minInterval = interval
		}
	}
}

// NewCached wraps next.
func NewCached(next Searcher, opts ...CacheOption) *Cached {
	c := &Cached{
		next:        next,
		ttl:         defaultCacheTTL,
		minInterval: defaultMinInterval,
		now:         time.Now,
		single:      make(map[string]cacheEntry),
		batch:       make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cached) Search(ctx context.Context, query string, filters Filters) ([]Hit, error) {
	key := textnorm.Normalize(query) + "|" + filters.CacheKey()
	if hits, ok := c.lookup(c.single, key); ok {
		return hits, nil
	}
	if err := c.pace(ctx); err != nil {
		return nil, err
	}
	hits, err := c.next.Search(ctx, query, filters)
	if err != nil {
		return nil, err
	}
	c.store(c.single, key, hits)
	return hits, nil
}

func (c *Cached) BatchSearch(ctx context.Context, queries []string) (map[string]Hit, error) {
	out := make(map[string]Hit, len(queries))
	var missing []string
	for _, q := range queries {
		hits, ok := c.lookup(c.batch, textnorm.Normalize(q))
		switch {
		case !ok:
			missing = append(missing, q)
		case len(hits) > 0:
			out[q] = hits[0]
		}
	}
	if len(missing) == 0 {
		return out, nil
	}
	if err := c.pace(ctx); err != nil {
		return nil, err
	}
	fresh, err := c.next.BatchSearch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, q := range missing {
		hit, ok := fresh[q]
		var hits []Hit
		if ok {
			hits = []Hit{hit}
			out[q] = hit
		}
		c.store(c.batch, textnorm.Normalize(q), hits)
	}
	return out, nil
}

func (c *Cached) lookup(m map[string]cacheEntry, key string) ([]Hit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := m[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.expires) {
		delete(m, key)
		return nil, false
	}
	return entry.hits, true
}

func (c *Cached) store(m map[string]cacheEntry, key string, hits []Hit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m[key] = cacheEntry{hits: hits, expires: c.now().Add(c.ttl)}
}

// pace waits until minInterval has passed since the previous upstream call.
func (c *Cached) pace(ctx context.Context) error {
	if c.minInterval <= 0 {
		return nil
	}
	c.mu.Lock()
	now := c.now()
	next := c.lastCall.Add(c.minInterval)
	if next.Before(now) {
		next = now
	}
	c.lastCall = next
	c.mu.Unlock()

	wait := next.Sub(now)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
