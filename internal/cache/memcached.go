package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/kjstillabower/weather-query-service/internal/models"
)

const keyPrefix = "weather:"

// MemcachedCache implements Cache on memcached for deployments that already
// run it. Expiry is delegated to the server, so unlike the postgres backend
// there is no stale row left behind.
type MemcachedCache struct {
	client   *memcache.Client
	duration time.Duration
}

// NewMemcachedCache creates a MemcachedCache. addrs is a comma-separated
// server list (e.g. "localhost:11211" or "host1:11211,host2:11211").
func NewMemcachedCache(addrs string, duration time.Duration, timeout time.Duration) *MemcachedCache {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	return &MemcachedCache{client: client, duration: duration}
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// Get returns the cached reading for fingerprint, missing on
// memcache.ErrCacheMiss and erroring on anything else.
func (c *MemcachedCache) Get(ctx context.Context, fingerprint string) (models.Reading, bool, error) {
	if ctx.Err() != nil {
		return models.Reading{}, false, ctx.Err()
	}
	item, err := c.client.Get(keyPrefix + fingerprint)
	if err != nil {
		if err == memcache.ErrCacheMiss {
			return models.Reading{}, false, nil
		}
		return models.Reading{}, false, err
	}
	var r models.Reading
	if err := json.Unmarshal(item.Value, &r); err != nil {
		return models.Reading{}, false, err
	}
	return r, true, nil
}

// Set stores the reading with an expiration of the cache duration less the
// entry's age. A writtenAt already past the duration stores nothing.
func (c *MemcachedCache) Set(ctx context.Context, fingerprint string, reading models.Reading, writtenAt time.Time) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	remaining := c.duration - time.Since(writtenAt)
	if remaining <= 0 {
		return nil
	}
	raw, err := json.Marshal(reading)
	if err != nil {
		return err
	}
	expSec := int32(remaining.Seconds())
	if expSec < 1 {
		expSec = 1
	}
	return c.client.Set(&memcache.Item{
		Key:        keyPrefix + fingerprint,
		Value:      raw,
		Expiration: expSec,
	})
}

// Ping checks if memcached is reachable. Used for health checks.
func (c *MemcachedCache) Ping() error {
	return c.client.Ping()
}

// Close closes the client connections. Call during shutdown.
func (c *MemcachedCache) Close() error {
	return c.client.Close()
}
