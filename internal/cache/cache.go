// Package cache keeps per-file results between extraction runs so that
// unchanged files are not scanned again.
package cache

import (
	"sync"

	"i18nextract/internal/textutil"

	"github.com/rs/zerolog/log"
)

type item[V any] struct {
	hash  string
	value V
}

// Cache maps a file path to the value computed from one version of its
// content. A lookup with different content misses.
type Cache[V any] struct {
	mu     sync.RWMutex
	memory map[string]item[V]
	hits   int
	misses int
}

// New creates an empty cache.
func New[V any]() *Cache[V] {
	return &Cache[V]{memory: make(map[string]item[V])}
}

// Get returns the value stored for path if content is unchanged.
func (c *Cache[V]) Get(path string, content []byte) (V, bool) {
	hash := textutil.Hash(string(content))

	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.memory[path]
	if !ok || it.hash != hash {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	return it.value, true
}

// Set stores the value computed from content.
func (c *Cache[V]) Set(path string, content []byte, v V) {
	hash := textutil.Hash(string(content))

	c.mu.Lock()
	c.memory[path] = item[V]{hash: hash, value: v}
	c.mu.Unlock()
}

// Retain drops every path not in keep and resets the hit counters.
func (c *Cache[V]) Retain(keep []string) {
	want := make(map[string]bool, len(keep))
	for _, p := range keep {
		want[p] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for p := range c.memory {
		if !want[p] {
			delete(c.memory, p)
			dropped++
		}
	}
	log.Debug().
		Int("hits", c.hits).
		Int("misses", c.misses).
		Int("dropped", dropped).
		Msg("Scan cache updated")
	c.hits, c.misses = 0, 0
}

// Len returns the number of cached paths.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memory)
}
