// Package cache memoizes reconstructed document content per
// (document, patch) pair. Entries are never authoritative: the cache
// can be cleared at any time without changing reconstruction results.
package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Key identifies reconstructed content by document and the patch that
// produced it.
type Key struct {
	DocumentID string
	PatchID    string
}

// Cache stores reconstructed content bytes. With a positive capacity
// it evicts least-recently-used entries; otherwise it grows unbounded
// for the lifetime of the process.
type Cache struct {
	mu      sync.RWMutex
	data    map[Key][]byte
	bounded *lru.Cache[Key, []byte]
}

// New creates a Cache. capacity <= 0 means unbounded.
func New(capacity int) *Cache {
	c := &Cache{}
	if capacity > 0 {
		c.bounded, _ = lru.New[Key, []byte](capacity)
		return c
	}
	c.data = make(map[Key][]byte)
	return c
}

// Get returns a copy of the cached content for key.
func (c *Cache) Get(key Key) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var content []byte
	var ok bool
	if c.bounded != nil {
		content, ok = c.bounded.Get(key)
	} else {
		content, ok = c.data[key]
	}
	if !ok {
		return nil, false
	}
	out := make([]byte, len(content))
	copy(out, content)
	return out, true
}

// Put stores a copy of content under key.
func (c *Cache) Put(key Key, content []byte) {
	stored := make([]byte, len(content))
	copy(stored, content)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bounded != nil {
		c.bounded.Add(key, stored)
		return
	}
	c.data[key] = stored
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bounded != nil {
		c.bounded.Purge()
		return
	}
	c.data = make(map[Key][]byte)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.bounded != nil {
		return c.bounded.Len()
	}
	return len(c.data)
}
