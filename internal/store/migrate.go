package store

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// Migrator applies the versioned SQL files in a migrations filesystem and
// records the applied version in the schema_migrations table.
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// NewMigrator binds the NNNN_name.{up,down}.sql files at the root of
// migrations to the Postgres database at dbURL.
func NewMigrator(dbURL string, migrations fs.FS, logger *zap.Logger) (*Migrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	src, err := iofs.New(migrations, ".")
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(dbURL))
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("init migrator: %w", err)
	}
	m.Log = migrateLogger{logger.Sugar()}
	return &Migrator{m: m, logger: logger}, nil
}

// Up applies every pending migration.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return m.logVersion("up")
}

// Down reverts every applied migration.
func (m *Migrator) Down() error {
	if err := m.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return m.logVersion("down")
}

// Version reports the applied schema version; ok is false on an empty schema.
func (m *Migrator) Version() (version uint, ok bool, err error) {
	version, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return version, true, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, true, nil
}

// Close releases the source and the migrator's own database connection.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

func (m *Migrator) logVersion(direction string) error {
	version, ok, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("store: migrations applied",
		zap.String("direction", direction),
		zap.Uint("version", version),
		zap.Bool("has_version", ok),
	)
	return nil
}

// Migrate brings the schema at dbURL up to the newest version in migrations.
func Migrate(dbURL string, migrations fs.FS, logger *zap.Logger) error {
	m, err := NewMigrator(dbURL, migrations, logger)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

// migrateURL rewrites a postgres:// URL to the pgx5:// scheme the migrate
// driver registers under.
func migrateURL(dbURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dbURL, scheme) {
			return "pgx5://" + strings.TrimPrefix(dbURL, scheme)
		}
	}
	return dbURL
}

type migrateLogger struct {
	l *zap.SugaredLogger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.l.Debugf(strings.TrimSpace(format), v...)
}

func (l migrateLogger) Verbose() bool {
	return false
}
