package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kjstillabower/weather-query-service/internal/database"
	"github.com/kjstillabower/weather-query-service/internal/models"
)

// PostgresCache implements Cache on the temperature_cache table. Expiry is
// enforced at read time by an age predicate, so stale rows linger until the
// next write for the same fingerprint replaces them.
type PostgresCache struct {
	db       *database.DB
	duration time.Duration
}

// NewPostgresCache returns a cache reading and writing temperature_cache.
// The caller owns the database handle.
func NewPostgresCache(db *database.DB, duration time.Duration) *PostgresCache {
	return &PostgresCache{db: db, duration: duration}
}

// Get returns the cached reading for fingerprint if a row exists whose
// written_at is within the cache duration of now.
func (c *PostgresCache) Get(ctx context.Context, fingerprint string) (models.Reading, bool, error) {
	const query = `
		SELECT celsius, fahrenheit
		FROM temperature_cache
		WHERE key = $1 AND written_at > $2
	`

	cutoff := time.Now().Add(-c.duration)
	var r models.Reading
	err := c.db.QueryRowContext(ctx, query, fingerprint, cutoff).Scan(&r.Celsius, &r.Fahrenheit)
	if err == sql.ErrNoRows {
		return models.Reading{}, false, nil
	}
	if err != nil {
		return models.Reading{}, false, fmt.Errorf("cache get: %w", err)
	}
	return r, true, nil
}

// Set upserts the reading for fingerprint. An existing row is replaced
// wholesale, timestamp included, so a refetch restarts the entry's clock.
func (c *PostgresCache) Set(ctx context.Context, fingerprint string, reading models.Reading, writtenAt time.Time) error {
	const query = `
		INSERT INTO temperature_cache (key, celsius, fahrenheit, written_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET celsius = EXCLUDED.celsius,
		    fahrenheit = EXCLUDED.fahrenheit,
		    written_at = EXCLUDED.written_at
	`

	if _, err := c.db.ExecContext(ctx, query, fingerprint, reading.Celsius, reading.Fahrenheit, writtenAt); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
