package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing for the request path plus the sweep job. The sweep shares
// the pool, so a couple of connections stay warm even when idle.
const (
	poolMaxConns        = 10
	poolMinConns        = 2
	poolMaxConnLifetime = time.Hour
)

// NewPostgresPool configures and returns a PostgreSQL connection pool.
func NewPostgresPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is required")
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	// URL-level pool params win when present.
	if !strings.Contains(url, "pool_max_conns") {
		cfg.MaxConns = poolMaxConns
	}
	if !strings.Contains(url, "pool_min_conns") {
		cfg.MinConns = poolMinConns
	}
	cfg.MaxConnLifetime = poolMaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}
