// Package cache wraps the aggregator with a time-boxed in-memory cache keyed
// by fetch scope and an optional on-disk snapshot that can substitute for a
// live fetch.
package cache

import (
	"sync"
	"time"

	"github.com/cfech/github-dashboard/internal/models"
)

type entry struct {
	result   *models.AggregateResult
	activity []models.ActivityItem
	storedAt time.Time
}

// Cache is a TTL-bounded map of complete dashboard datasets keyed by scope.
// Concurrent reads and inserts are safe; two racing callers may compute the
// same entry redundantly, in which case the last writer wins.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// New creates a cache whose entries expire after ttl.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached dataset for key if one exists and has not expired.
func (c *Cache) Get(key string) (*models.AggregateResult, []models.ActivityItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.storedAt) >= c.ttl {
		return nil, nil, false
	}
	return e.result, e.activity, true
}

// Set stores a complete dataset for key, replacing any prior entry.
func (c *Cache) Set(key string, result *models.AggregateResult, activity []models.ActivityItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		result:   result,
		activity: activity,
		storedAt: c.now(),
	}
}
