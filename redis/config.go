package redis

import (
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Config holds the Redis connection and user store settings. Durations are
// strings such as "3s" or "512ms".
type Config struct {
	Addr     string `mapstructure:"addr"` // host:port
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	PoolSize        int    `mapstructure:"pool_size"`
	MinIdleConns    int    `mapstructure:"min_idle_conns"`
	PoolTimeout     string `mapstructure:"pool_timeout"`
	ConnMaxIdleTime string `mapstructure:"idle_timeout"`
	ConnMaxLifetime string `mapstructure:"max_conn_age"` // empty means no limit

	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`

	// MaxRetries is the per-command retry budget of the go-redis client.
	MaxRetries      int    `mapstructure:"max_retries"`
	MinRetryBackoff string `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff string `mapstructure:"max_retry_backoff"`

	// KeyPrefix namespaces every key written by the user store.
	KeyPrefix string `mapstructure:"key_prefix"`

	// MaxTxRetries bounds WATCH/MULTI retries when an update is contended.
	MaxTxRetries int `mapstructure:"max_tx_retries"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	setDefault := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns <= 0 {
		c.MinIdleConns = 2
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.MaxTxRetries <= 0 {
		c.MaxTxRetries = 10
	}
	setDefault(&c.MinRetryBackoff, "8ms")
	setDefault(&c.MaxRetryBackoff, "512ms")
	setDefault(&c.DialTimeout, "5s")
	setDefault(&c.ReadTimeout, "3s")
	setDefault(&c.WriteTimeout, "3s")
	setDefault(&c.KeyPrefix, "authkit")
}

// durations maps config keys to their values. Empty values are allowed.
func (c *Config) durations() map[string]string {
	return map[string]string{
		"dial_timeout":      c.DialTimeout,
		"read_timeout":      c.ReadTimeout,
		"write_timeout":     c.WriteTimeout,
		"min_retry_backoff": c.MinRetryBackoff,
		"max_retry_backoff": c.MaxRetryBackoff,
		"idle_timeout":      c.ConnMaxIdleTime,
		"pool_timeout":      c.PoolTimeout,
		"max_conn_age":      c.ConnMaxLifetime,
	}
}

// Validate checks required fields and duration syntax.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("redis addr is required")
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("pool_size must be > 0")
	}
	if c.KeyPrefix == "" {
		return fmt.Errorf("key_prefix is required")
	}
	for name, v := range c.durations() {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, v, err)
		}
	}
	return nil
}

// options translates a validated Config to go-redis options.
func (c *Config) options() *goredis.Options {
	d := func(s string) time.Duration {
		v, _ := time.ParseDuration(s)
		return v
	}
	return &goredis.Options{
		Addr:            c.Addr,
		Password:        c.Password,
		DB:              c.DB,
		PoolSize:        c.PoolSize,
		MinIdleConns:    c.MinIdleConns,
		PoolTimeout:     d(c.PoolTimeout),
		ConnMaxIdleTime: d(c.ConnMaxIdleTime),
		ConnMaxLifetime: d(c.ConnMaxLifetime),
		DialTimeout:     d(c.DialTimeout),
		ReadTimeout:     d(c.ReadTimeout),
		WriteTimeout:    d(c.WriteTimeout),
		MaxRetries:      c.MaxRetries,
		MinRetryBackoff: d(c.MinRetryBackoff),
		MaxRetryBackoff: d(c.MaxRetryBackoff),
	}
}
