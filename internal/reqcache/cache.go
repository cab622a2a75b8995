// Package reqcache implements the validator's per-request term-lookup
// cache (§4.5.3 use_cache/cache_missed, §5 "created fresh and released
// at request end... never shared", §9 "Avoid any long-lived
// process-wide mutable state").
//
// Adapted from the teacher's pkg/cache.QueryCache, which is a
// size-bounded, TTL'd, process-wide LRU for parsed query plans. A
// validation request needs none of that: it lives for one call, is
// bounded only by the number of unique references touched in that call
// (§5 "Cache size is bounded by the number of unique references within
// a single request"), and must distinguish "not yet looked up" from
// "looked up and confirmed absent" when cache_missed is enabled — so
// the LRU/TTL machinery is dropped in favor of a plain map plus an
// explicit negative-cache flag.
package reqcache

// Cache is a task-local, unbounded-within-a-request lookup cache keyed
// by a resolved reference (typically a term _gid or a resolve_field
// value). It is never shared across requests or goroutines.
type Cache[T any] struct {
	cacheMissed bool
	hits        map[string]T
	misses      map[string]struct{}
	stats       Stats
}

// Stats records cache effectiveness for observability, mirroring the
// teacher's hit/miss counters.
type Stats struct {
	Hits   int
	Misses int
}

// New creates an empty cache. When cacheMissed is true, Remember also
// records negative lookups so a repeated miss short-circuits without
// re-querying the store.
func New[T any](cacheMissed bool) *Cache[T] {
	return &Cache[T]{
		cacheMissed: cacheMissed,
		hits:        make(map[string]T),
		misses:      make(map[string]struct{}),
	}
}

// Get reports a prior hit (value, true, true), a remembered miss
// (zero, false, true), or "unknown, go look it up" (zero, false, false).
func (c *Cache[T]) Get(key string) (value T, found bool, known bool) {
	if v, ok := c.hits[key]; ok {
		c.stats.Hits++
		return v, true, true
	}
	if _, ok := c.misses[key]; ok {
		c.stats.Hits++
		var zero T
		return zero, false, true
	}
	c.stats.Misses++
	return *new(T), false, false
}

// Remember stores the outcome of a lookup that just happened. found
// false is only retained when this cache was constructed with
// cacheMissed true.
func (c *Cache[T]) Remember(key string, value T, found bool) {
	if found {
		c.hits[key] = value
		return
	}
	if c.cacheMissed {
		c.misses[key] = struct{}{}
	}
}

// StatsSnapshot returns the accumulated hit/miss counts for this request.
func (c *Cache[T]) StatsSnapshot() Stats { return c.stats }
