package relevance

import (
	"context"
	"sync"
)

// Cache stores verdicts by fingerprint. Implementations must be safe for
// concurrent use: one cache is shared by every document pipeline of a process.
// There is no eviction contract; a backing store may apply its own TTL.
type Cache interface {
	Exists(ctx context.Context, fp Fingerprint) (bool, error)
	Get(ctx context.Context, fp Fingerprint) (verdict bool, found bool, err error)
	Set(ctx context.Context, fp Fingerprint, verdict bool) error
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu       sync.RWMutex
	verdicts map[Fingerprint]bool
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{verdicts: make(map[Fingerprint]bool)}
}

func (c *MemoryCache) Exists(_ context.Context, fp Fingerprint) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.verdicts[fp]
	return ok, nil
}

func (c *MemoryCache) Get(_ context.Context, fp Fingerprint) (bool, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.verdicts[fp]
	return v, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, fp Fingerprint, verdict bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verdicts[fp] = verdict
	return nil
}

// Len returns the number of cached verdicts.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.verdicts)
}
