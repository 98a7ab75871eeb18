package authkit

import (
	"context"
	"fmt"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/auth/memory"
	"github.com/kbukum/authkit/database"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/mongo"
	"github.com/kbukum/authkit/postgres"
	"github.com/kbukum/authkit/redis"
)

// CloseFunc releases a store's connections.
type CloseFunc func(ctx context.Context) error

func noopClose(context.Context) error { return nil }

// OpenStore connects the store selected by cfg.Driver. The returned
// CloseFunc is never nil.
func OpenStore(ctx context.Context, cfg StoreConfig, log *logger.Logger) (auth.UserStore, CloseFunc, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, noopClose, err
	}
	if log == nil {
		log = logger.Get(logger.ComponentStore)
	}
	log = log.WithFields(logger.Fields(logger.FieldDriver, cfg.Driver))

	switch cfg.Driver {
	case DriverMemory:
		return memory.New(), noopClose, nil

	case DriverSQLite:
		s, err := database.OpenUserStore(ctx, cfg.SQLite, log)
		if err != nil {
			return nil, noopClose, err
		}
		return s, func(context.Context) error { return s.Close() }, nil

	case DriverPostgres:
		s, err := postgres.OpenUserStore(ctx, cfg.Postgres, log)
		if err != nil {
			return nil, noopClose, err
		}
		return s, func(context.Context) error { s.Close(); return nil }, nil

	case DriverRedis:
		client, err := redis.New(cfg.Redis, log)
		if err != nil {
			return nil, noopClose, err
		}
		s := redis.NewUserStore(client)
		return s, func(context.Context) error { return s.Close() }, nil

	case DriverMongo:
		s, err := mongo.OpenUserStore(ctx, cfg.Mongo, log)
		if err != nil {
			return nil, noopClose, err
		}
		return s, s.Close, nil
	}
	return nil, noopClose, fmt.Errorf("unsupported store driver %q", cfg.Driver)
}
