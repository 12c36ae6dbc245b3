package showcase

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// Cache is an in-memory cache of fetched repositories with TTL. The preview
// server rebuilds on every content change; the cache keeps those rebuilds
// from hitting the API each time.
type Cache struct {
	mu      sync.RWMutex
	repos   []Repo
	key     string
	fetched time.Time
	ttl     time.Duration
	fetcher Fetcher
	now     func() time.Time
}

// NewCache creates a Cache backed by the given Fetcher.
func NewCache(f Fetcher, ttl time.Duration) *Cache {
	return &Cache{fetcher: f, ttl: ttl, now: time.Now}
}

func (c *Cache) valid(key string) bool {
	return c.repos != nil && c.key == key && c.now().Sub(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh fetch.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.repos = nil
	c.mu.Unlock()
}

// FetchAll returns cached repositories when the same names were fetched
// within the TTL. It tries a read lock first and only takes the write lock
// when a fetch is needed.
func (c *Cache) FetchAll(ctx context.Context, names []string) ([]Repo, error) {
	key := strings.Join(names, "\n")

	c.mu.RLock()
	if c.valid(key) {
		repos := c.repos
		c.mu.RUnlock()
		return slices.Clone(repos), nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid(key) {
		return slices.Clone(c.repos), nil
	}
	repos, err := c.fetcher.FetchAll(ctx, names)
	if err != nil {
		return nil, err
	}
	c.repos = repos
	c.key = key
	c.fetched = c.now()
	return slices.Clone(repos), nil
}
