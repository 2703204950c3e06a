package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Supported values for DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port              string
	DBDriver          string
	DBURL             string
	DBMigrate         bool
	MigrationsDir     string
	MongoURI          string
	MongoDatabase     string
	JWTSecret         string
	JWTIssuer         string
	JWTTTLHours       int
	StaticDir         string
	LogLevel          string
	LogFormat         string
	ReadTimeoutSecs   int
	WriteTimeoutSecs  int
	IdleTimeoutSecs   int
	DBMaxConns        int
	DBMinConns        int
	DBMaxIdleSecs     int
	DBMaxLifeSecs     int
	DBConnTimeoutSecs int
	DBStatementCache  int
}

// Load reads configuration from environment variables, applying defaults and validation.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		Port:              v.GetString("PORT"),
		DBDriver:          strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
		DBURL:             v.GetString("DB_URL"),
		DBMigrate:         v.GetBool("DB_MIGRATE"),
		MigrationsDir:     v.GetString("DB_MIGRATIONS_DIR"),
		MongoURI:          v.GetString("MONGO_URI"),
		MongoDatabase:     v.GetString("MONGO_DATABASE"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		JWTIssuer:         v.GetString("JWT_ISSUER"),
		JWTTTLHours:       v.GetInt("JWT_TTL_HOURS"),
		StaticDir:         v.GetString("STATIC_DIR"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFormat:         v.GetString("LOG_FORMAT"),
		ReadTimeoutSecs:   v.GetInt("SERVER_READ_TIMEOUT"),
		WriteTimeoutSecs:  v.GetInt("SERVER_WRITE_TIMEOUT"),
		IdleTimeoutSecs:   v.GetInt("SERVER_IDLE_TIMEOUT"),
		DBMaxConns:        v.GetInt("DB_MAX_CONNS"),
		DBMinConns:        v.GetInt("DB_MIN_CONNS"),
		DBMaxIdleSecs:     v.GetInt("DB_MAX_CONN_IDLE_SECS"),
		DBMaxLifeSecs:     v.GetInt("DB_MAX_CONN_LIFETIME_SECS"),
		DBConnTimeoutSecs: v.GetInt("DB_CONN_TIMEOUT_SECS"),
		DBStatementCache:  v.GetInt("DB_STATEMENT_CACHE_CAPACITY"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_MIGRATE", false)
	v.SetDefault("MONGO_DATABASE", "finalDB")
	v.SetDefault("JWT_ISSUER", "myflix-api")
	v.SetDefault("JWT_TTL_HOURS", 7*24)
	v.SetDefault("STATIC_DIR", "public")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	v.SetDefault("SERVER_IDLE_TIMEOUT", 60)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_MAX_CONN_IDLE_SECS", 300)
	v.SetDefault("DB_MAX_CONN_LIFETIME_SECS", 3600)
	v.SetDefault("DB_CONN_TIMEOUT_SECS", 10)
	// 0 leaves pgx on its default exec mode and cache size.
	v.SetDefault("DB_STATEMENT_CACHE_CAPACITY", 256)
}

func (cfg Config) validate() error {
	switch cfg.DBDriver {
	case DriverPostgres:
		if cfg.DBURL == "" {
			return fmt.Errorf("DB_URL is required")
		}
	case DriverMongo:
		if cfg.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required")
		}
		if cfg.MongoDatabase == "" {
			return fmt.Errorf("MONGO_DATABASE is required")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q", DriverPostgres, DriverMongo)
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.JWTTTLHours <= 0 {
		return fmt.Errorf("JWT_TTL_HOURS must be positive")
	}
	if cfg.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	switch cfg.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}
