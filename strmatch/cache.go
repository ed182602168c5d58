package strmatch

import "sync"

type cacheKey struct {
	pattern       string
	isRegex       bool
	caseSensitive bool
}

// Cache interns matchers so that identical patterns compiled during one
// load share a single Matcher. It belongs to the compilation phase: compiled
// rules keep the matchers and drop the cache.
type Cache struct {
	config Config

	mu       sync.Mutex
	matchers map[cacheKey]*Matcher
	hits     int
}

// NewCache creates an empty cache using config for new matchers.
func NewCache(config Config) *Cache {
	return &Cache{config: config, matchers: make(map[cacheKey]*Matcher)}
}

// Get returns the interned matcher for the key, compiling it on first use.
func (c *Cache) Get(pattern string, isRegex, caseSensitive bool) (*Matcher, error) {
	key := cacheKey{pattern, isRegex, caseSensitive}
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.matchers[key]; ok {
		c.hits++
		return m, nil
	}
	m, err := NewWithConfig(pattern, isRegex, caseSensitive, c.config)
	if err != nil {
		return nil, err
	}
	c.matchers[key] = m
	return m, nil
}

// Config returns the configuration matchers are compiled with.
func (c *Cache) Config() Config { return c.config }

// Stats returns the number of distinct matchers and the number of cache
// hits so far.
func (c *Cache) Stats() (size, hits int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.matchers), c.hits
}
