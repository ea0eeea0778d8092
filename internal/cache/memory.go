package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	snap      Snapshot
	expiresAt time.Time
}

// MemoryCache is an in-process implementation used in development and tests,
// and as the fallback when no Redis address is configured. Entries expire
// lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates an in-memory approval status cache
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, requestID, permission string) (*Snapshot, bool) {
	key := approvalKey(requestID, permission)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}

	snap := e.snap
	return &snap, true
}

func (c *MemoryCache) Put(_ context.Context, requestID, permission string, snap *Snapshot) {
	if snap == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[approvalKey(requestID, permission)] = memoryEntry{
		snap:      *snap,
		expiresAt: c.now().Add(c.ttl),
	}
}

func (c *MemoryCache) Invalidate(_ context.Context, requestID string, permissions []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range permissions {
		delete(c.entries, approvalKey(requestID, p))
	}
}
