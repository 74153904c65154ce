package catalog

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Config selects and configures a catalog store
type Config struct {
	// Driver is one of memory, sqlite3, postgres, pgx or redis
	Driver string
	// DSN is the data source name for the SQL drivers
	DSN string

	Redis RedisConfig
}

// Open creates the store named by cfg.Driver. SQL stores have their table
// created before they are returned.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Driver {
	case "", "memory":
		logger.Debug("using in-memory catalog")
		return NewMemoryStore(), nil

	case "redis":
		store, err := NewRedisStoreWithConfig(cfg.Redis)
		if err != nil {
			return nil, err
		}
		logger.Debug("connected to redis catalog", zap.String("addr", cfg.Redis.Addr))
		return store, nil

	case "sqlite3", "postgres", "pgx":
		dialect, err := DialectFor(cfg.Driver)
		if err != nil {
			return nil, err
		}
		if cfg.DSN == "" {
			return nil, fmt.Errorf("catalog driver %s requires a dsn", cfg.Driver)
		}

		db, err := sql.Open(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to catalog database: %w", err)
		}

		store := NewSQLStore(db, dialect)
		if err := store.Initialize(ctx); err != nil {
			db.Close()
			return nil, err
		}
		logger.Debug("opened sql catalog", zap.String("driver", cfg.Driver))
		return store, nil

	default:
		return nil, fmt.Errorf("unknown catalog driver %q", cfg.Driver)
	}
}
