// Package store owns the database connections: a pgx pool for Postgres and a
// mongo client for MongoDB.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Options controls connection-pool behaviour. Zero fields keep the driver
// defaults.
type Options struct {
	MaxConns               int32
	MinConns               int32
	MaxConnIdleTime        time.Duration
	MaxConnLifetime        time.Duration
	ConnTimeout            time.Duration
	StatementCacheCapacity int
	Logger                 *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// withConnTimeout bounds ctx by ConnTimeout when one is configured.
func (o Options) withConnTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.ConnTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, o.ConnTimeout)
}

// poolConfig parses dbURL and layers the non-zero options on top. A positive
// StatementCacheCapacity selects cached prepared statements of that size;
// otherwise pgx keeps its own exec mode and cache.
func (o Options) poolConfig(dbURL string) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}
	if o.MaxConns > 0 {
		cfg.MaxConns = o.MaxConns
	}
	if o.MinConns > 0 {
		cfg.MinConns = o.MinConns
	}
	if o.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = o.MaxConnIdleTime
	}
	if o.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = o.MaxConnLifetime
	}
	if o.StatementCacheCapacity > 0 {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
		cfg.ConnConfig.StatementCacheCapacity = o.StatementCacheCapacity
	}
	return cfg, nil
}

// Store is the Postgres side of persistence. Repositories reach the pool
// through Pool; metrics read it through Stats.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	opts   Options
}

// New opens a pool against dbURL and pings it before returning.
func New(ctx context.Context, dbURL string, opts Options) (*Store, error) {
	logger := opts.logger()

	cfg, err := opts.poolConfig(dbURL)
	if err != nil {
		return nil, err
	}

	connCtx, cancel := opts.withConnTimeout(ctx)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(connCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("store: postgres pool ready",
		zap.String("host", cfg.ConnConfig.Host),
		zap.String("database", cfg.ConnConfig.Database),
		zap.Int32("max_conns", cfg.MaxConns),
		zap.Int32("min_conns", cfg.MinConns),
		zap.Int("stmt_cache", cfg.ConnConfig.StatementCacheCapacity),
	)
	return &Store{pool: pool, logger: logger, opts: opts}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.logger.Info("store: closing postgres pool")
	s.pool.Close()
}

// HealthCheck pings Postgres within the configured connect timeout.
func (s *Store) HealthCheck(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("store not initialized")
	}
	checkCtx, cancel := s.opts.withConnTimeout(ctx)
	defer cancel()
	return s.pool.Ping(checkCtx)
}

// Pool exposes the pgx pool to the Postgres repositories.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Stats feeds the pool collector in the metrics package.
func (s *Store) Stats() *pgxpool.Stat {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Stat()
}
