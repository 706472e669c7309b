package expr

import (
	"math"
	"sort"
	"sync"
)

// scriptCache is a compiled-expression LRU keyed on raw expression text.
// Eviction is bulk rather than classic single-entry LRU: once the cache
// hits maxSize, it drops the oldest ceil(maxSize * evictFraction) entries
// in one pass, trading eviction precision for far fewer lock-held
// maintenance ops under high cache churn.
type scriptCache struct {
	mu            sync.Mutex
	maxSize       int
	evictFraction float64
	entries       map[string]*cacheEntry
	seq           int64
}

type cacheEntry struct {
	prog     *program
	lastUsed int64
}

func newScriptCache(maxSize int, evictFraction float64) *scriptCache {
	if maxSize <= 0 {
		maxSize = 500
	}
	if evictFraction <= 0 || evictFraction > 1 {
		evictFraction = 0.2
	}
	return &scriptCache{
		maxSize:       maxSize,
		evictFraction: evictFraction,
		entries:       make(map[string]*cacheEntry),
	}
}

// compile returns a cached program for src, parsing and inserting it on a
// miss.
func (c *scriptCache) compile(src string) (*program, error) {
	return c.compileWithKey(src, src)
}

// compileWithKey is compile but keyed on key instead of the expression
// text itself, so callers can fold extra cache-key material (e.g. sorted
// context keys) into key while still parsing expression on a miss.
func (c *scriptCache) compileWithKey(key, expression string) (*program, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.seq++
		e.lastUsed = c.seq
		prog := e.prog
		c.mu.Unlock()
		return prog, nil
	}
	c.mu.Unlock()

	prog, err := parse(expression)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.seq++
		e.lastUsed = c.seq
		return e.prog, nil
	}
	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.seq++
	c.entries[key] = &cacheEntry{prog: prog, lastUsed: c.seq}
	return prog, nil
}

// evictOldest drops the oldest ceil(maxSize * evictFraction) entries.
// Caller must hold c.mu.
func (c *scriptCache) evictOldest() {
	n := int(math.Ceil(float64(c.maxSize) * c.evictFraction))
	if n <= 0 {
		n = 1
	}
	if n > len(c.entries) {
		n = len(c.entries)
	}
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.entries[keys[i]].lastUsed < c.entries[keys[j]].lastUsed
	})
	for _, k := range keys[:n] {
		delete(c.entries, k)
	}
}

func (c *scriptCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
