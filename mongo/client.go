package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/kbukum/authkit/logger"
)

// ErrFailedToConnect is returned when every connection attempt failed.
var ErrFailedToConnect = errors.New("failed to connect to mongo")

// Connect creates a client and verifies it with a ping, retrying up to
// cfg.MaxRetries times.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*mongo.Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Get(logger.ComponentStore)
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(mustDuration(cfg.ConnectTimeout)).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxConnIdleTime(mustDuration(cfg.MaxConnIdleTime)).
		SetRetryWrites(true).
		SetRetryReads(true)

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		client, err := mongo.Connect(opts)
		if err == nil {
			if err = client.Ping(ctx, nil); err == nil {
				log.Info("Mongo connection established", map[string]interface{}{
					"attempt":  attempt,
					"database": cfg.Database,
				})
				return client, nil
			}
			_ = client.Disconnect(context.WithoutCancel(ctx))
		}
		lastErr = err

		if attempt < cfg.MaxRetries {
			log.Warn("Mongo connection attempt failed, retrying", map[string]interface{}{
				"attempt": attempt,
				"error":   err.Error(),
			})
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("mongo connection canceled: %w", ctx.Err())
			case <-time.After(mustDuration(cfg.RetryInterval)):
			}
		}
	}
	return nil, errors.Join(ErrFailedToConnect, lastErr)
}

// OpenUserStore connects, ensures indexes and returns a store over
// cfg.Database and cfg.Collection.
func OpenUserStore(ctx context.Context, cfg Config, log *logger.Logger, opts ...StoreOption) (*UserStore, error) {
	cfg.ApplyDefaults()
	client, err := Connect(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	s := NewUserStore(client.Database(cfg.Database).Collection(cfg.Collection), opts...)
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}
	return s, nil
}
