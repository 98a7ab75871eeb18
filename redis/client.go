package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/authkit/logger"
)

// Client is a go-redis client carrying its Config and a store logger.
type Client struct {
	rdb *goredis.Client
	log *logger.Logger
	cfg Config

	closeOnce sync.Once
	closeErr  error
}

// New creates a client. No connection is made until the first command;
// use Ping to check reachability.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("redis config: %w", err)
	}
	if log == nil {
		log = logger.Get(logger.ComponentStore)
	}
	log = log.WithFields(logger.Fields(logger.FieldDriver, "redis"))

	log.Info("Redis client created", map[string]interface{}{
		"addr":       cfg.Addr,
		"db":         cfg.DB,
		"pool_size":  cfg.PoolSize,
		"key_prefix": cfg.KeyPrefix,
	})
	return &Client{rdb: goredis.NewClient(cfg.options()), log: log, cfg: cfg}, nil
}

// Ping checks that the server answers.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Get returns the value at key, or goredis.Nil when absent.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.rdb.Get(ctx, key).Result()
}

// Set stores value at key. A zero ttl means no expiry.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Del removes keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// Config returns the defaulted configuration.
func (c *Client) Config() Config { return c.cfg }

// Unwrap returns the go-redis client, e.g. for WATCH transactions.
func (c *Client) Unwrap() *goredis.Client { return c.rdb }

// Close releases the connection pool. Later calls return the first result.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		c.log.Info("Closing Redis connection")
		c.closeErr = c.rdb.Close()
	})
	return c.closeErr
}
