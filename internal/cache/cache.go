package cache

import (
	"strings"
	"sync"
)

// Cache memoizes name → board ID lookups for the lifetime of the process.
// There is no eviction and no delete.
type Cache struct {
	mu  sync.RWMutex
	ids map[string]int
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{ids: make(map[string]int)}
}

// Get returns the ID stored under key, if any.
func (c *Cache) Get(key string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.ids[key]
	return id, ok
}

// Set stores id under key, overwriting any previous value.
func (c *Cache) Set(key string, id int) {
	c.mu.Lock()
	c.ids[key] = id
	c.mu.Unlock()
}

// Key normalizes free text into a cache key: trimmed, inner whitespace
// collapsed, lower-cased.
func Key(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
