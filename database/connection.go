package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Startup ping bound so a dead database fails the pipeline start fast
// instead of hanging it.
const pingTimeout = 5 * time.Second

// DB wraps the pgx pool shared by the repositories.
type DB struct {
	*pgxpool.Pool
}

// NewConnection opens a connection pool and verifies it with a bounded
// ping. The ingestion daemon only touches the database once per run
// (one upsert batch, one prune), so maxConns caps the pool well below
// pgxpool's default; maxConns <= 0 keeps the default sizing.
func NewConnection(ctx context.Context, databaseURL string, maxConns int32) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	db.Pool.Close()
}
