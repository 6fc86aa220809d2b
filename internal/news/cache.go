// Package news merges stored people movements and fetched funding items
// into the flat table the API serves, and runs the background refresh
// loops that keep both sides current.
package news

import (
	"sync"
	"time"

	"github.com/adityamenon/newsdesk/internal/models"
)

// FundingCache holds the latest funding-feed snapshot. It starts cold;
// the first successful rebuild makes it warm. Rebuilds replace the
// snapshot wholesale — there is no partial merge.
type FundingCache struct {
	mu      sync.RWMutex
	items   []models.FundingItem
	builtAt time.Time
	warm    bool
}

// NewFundingCache returns a cold cache.
func NewFundingCache() *FundingCache {
	return &FundingCache{}
}

// Snapshot returns a copy of the cached items and whether the cache is
// warm. A cold cache returns (nil, false).
func (c *FundingCache) Snapshot() ([]models.FundingItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.warm {
		return nil, false
	}
	out := make([]models.FundingItem, len(c.items))
	copy(out, c.items)
	return out, true
}

// Set replaces the snapshot and marks the cache warm.
func (c *FundingCache) Set(items []models.FundingItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	c.builtAt = time.Now().UTC()
	c.warm = true
}

// BuiltAt returns when the snapshot was last rebuilt, and false while
// the cache is still cold.
func (c *FundingCache) BuiltAt() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.builtAt, c.warm
}
