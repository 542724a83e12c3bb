package handlers

import (
	"sync"
	"time"

	"github.com/secflow/secflow/internal/topology"
)

type layoutEntry struct {
	frame     topology.Frame
	expiresAt time.Time
}

// layoutCache holds settled topology layouts for a short TTL so repeated
// requests for the same scan do not rerun the simulation.
type layoutCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]layoutEntry
}

func newLayoutCache(ttl time.Duration) *layoutCache {
	return &layoutCache{ttl: ttl, now: time.Now, entries: make(map[string]layoutEntry)}
}

func (c *layoutCache) Get(key string) (topology.Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return topology.Frame{}, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return topology.Frame{}, false
	}
	return e.frame, true
}

func (c *layoutCache) Set(key string, frame topology.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = layoutEntry{frame: frame, expiresAt: now.Add(c.ttl)}
}
