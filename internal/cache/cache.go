package cache

import (
	"context"
	"sync"
	"time"

	"github.com/kjstillabower/weather-query-service/internal/models"
)

// Cache is a TTL-bounded store mapping a query fingerprint to a previously
// fetched reading. Get treats an entry older than the configured duration
// as absent (logical expiry); the backing row may still physically exist.
// Set has upsert semantics: a write for an existing fingerprint replaces
// the prior entry and its timestamp. Implementations must be safe under
// concurrent use; concurrent Sets for the same fingerprint may race with
// the last write winning.
type Cache interface {
	Get(ctx context.Context, fingerprint string) (models.Reading, bool, error)
	Set(ctx context.Context, fingerprint string, reading models.Reading, writtenAt time.Time) error
}

// InMemoryCache implements Cache with a mutex-guarded map. Used for dev
// and tests; production deployments pick the postgres or memcached backend.
type InMemoryCache struct {
	mu       sync.Mutex
	duration time.Duration
	data     map[string]entry
}

type entry struct {
	reading   models.Reading
	writtenAt time.Time
}

// NewInMemoryCache returns an empty cache whose entries logically expire
// after duration.
func NewInMemoryCache(duration time.Duration) *InMemoryCache {
	return &InMemoryCache{
		duration: duration,
		data:     make(map[string]entry),
	}
}

// Get returns the reading for fingerprint if present and younger than the
// cache duration. Expired entries are dropped on access.
func (c *InMemoryCache) Get(ctx context.Context, fingerprint string) (models.Reading, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[fingerprint]
	if !ok {
		return models.Reading{}, false, nil
	}
	if time.Since(e.writtenAt) >= c.duration {
		delete(c.data, fingerprint)
		return models.Reading{}, false, nil
	}
	return e.reading, true, nil
}

// Set stores the reading under fingerprint, replacing any prior entry.
func (c *InMemoryCache) Set(ctx context.Context, fingerprint string, reading models.Reading, writtenAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[fingerprint] = entry{reading: reading, writtenAt: writtenAt}
	return nil
}
