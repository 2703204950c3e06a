// Package backend opens the store selected by DB_DRIVER and binds the
// repositories to it. The server and the seed tool share it.
package backend

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Clark-Hu/myflix-api/db/migrations"
	"github.com/Clark-Hu/myflix-api/internal/config"
	"github.com/Clark-Hu/myflix-api/internal/repository"
	"github.com/Clark-Hu/myflix-api/internal/repository/mongorepo"
	"github.com/Clark-Hu/myflix-api/internal/store"
)

// HealthChecker pings the underlying database.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Backend is an open store plus the repositories reading from it.
type Backend struct {
	Repo   *repository.Repository
	Health HealthChecker
	// PoolStats is nil unless the Postgres driver is active.
	PoolStats func() *pgxpool.Stat

	close func()
}

// Close releases the store. It is safe on a zero Backend.
func (b *Backend) Close() {
	if b != nil && b.close != nil {
		b.close()
	}
}

// Open connects to the configured driver. With DB_MIGRATE set, Postgres
// migrations run before Open returns; Mongo indexes are always ensured.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := storeOptions(cfg, logger)

	switch cfg.DBDriver {
	case config.DriverPostgres:
		if cfg.DBMigrate {
			if err := store.Migrate(cfg.DBURL, migrationSource(cfg), logger); err != nil {
				return nil, err
			}
		}
		st, err := store.New(ctx, cfg.DBURL, opts)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Repo:      repository.New(st),
			Health:    st,
			PoolStats: st.Stats,
			close:     st.Close,
		}, nil

	case config.DriverMongo:
		st, err := store.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, opts)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
		return &Backend{
			Repo:   mongorepo.New(st.Database()),
			Health: st,
			close:  st.Close,
		}, nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
}

func storeOptions(cfg config.Config, logger *zap.Logger) store.Options {
	return store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	}
}

// migrationSource prefers DB_MIGRATIONS_DIR and falls back to the schema
// compiled into the binary.
func migrationSource(cfg config.Config) fs.FS {
	if cfg.MigrationsDir != "" {
		return os.DirFS(cfg.MigrationsDir)
	}
	return migrations.FS
}
