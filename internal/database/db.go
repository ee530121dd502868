package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// DB wraps the database connection.
type DB struct {
	*sql.DB
}

// Connect opens a Postgres connection, verifies it with a ping, and applies
// pool limits.
func Connect(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &DB{db}, nil
}

// EnsureSchema converges the cache table at startup. Schema ownership is
// operational, but creating the table when absent keeps fresh environments
// working without a separate migration step.
func (db *DB) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS temperature_cache (
			key        TEXT PRIMARY KEY,
			celsius    DOUBLE PRECISION NOT NULL,
			fahrenheit DOUBLE PRECISION NOT NULL,
			written_at TIMESTAMPTZ NOT NULL
		)
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
