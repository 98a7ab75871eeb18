package mongo

import (
	"fmt"
	"time"
)

// Config holds MongoDB connection configuration.
type Config struct {
	// URI is the connection string, e.g. "mongodb://localhost:27017".
	URI string `mapstructure:"uri"`

	// Database is the database holding the users collection.
	Database string `mapstructure:"database"`

	// Collection is the users collection name.
	Collection string `mapstructure:"collection"`

	// ConnectTimeout bounds establishing a connection (e.g. "10s").
	ConnectTimeout string `mapstructure:"connect_timeout"`

	// MaxPoolSize is the maximum number of pooled connections.
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`

	// MinPoolSize is the minimum number of pooled connections.
	MinPoolSize uint64 `mapstructure:"min_pool_size"`

	// MaxConnIdleTime is how long a pooled connection may stay idle (e.g. "5m").
	MaxConnIdleTime string `mapstructure:"max_conn_idle_time"`

	// MaxRetries is the number of connection attempts before giving up.
	MaxRetries int `mapstructure:"max_retries"`

	// RetryInterval is the wait between connection attempts (e.g. "2s").
	RetryInterval string `mapstructure:"retry_interval"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Database == "" {
		c.Database = "authkit"
	}
	if c.Collection == "" {
		c.Collection = "users"
	}
	if c.ConnectTimeout == "" {
		c.ConnectTimeout = "10s"
	}
	if c.MaxPoolSize == 0 {
		c.MaxPoolSize = 100
	}
	if c.MinPoolSize == 0 {
		c.MinPoolSize = 1
	}
	if c.MaxConnIdleTime == "" {
		c.MaxConnIdleTime = "5m"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryInterval == "" {
		c.RetryInterval = "2s"
	}
}

// Validate checks that required fields are present and parseable.
func (c *Config) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("mongo uri is required")
	}
	if c.Database == "" || c.Collection == "" {
		return fmt.Errorf("mongo database and collection are required")
	}
	if c.MinPoolSize > c.MaxPoolSize {
		return fmt.Errorf("min_pool_size (%d) must be <= max_pool_size (%d)", c.MinPoolSize, c.MaxPoolSize)
	}
	for name, v := range map[string]string{
		"connect_timeout":    c.ConnectTimeout,
		"max_conn_idle_time": c.MaxConnIdleTime,
		"retry_interval":     c.RetryInterval,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, v, err)
		}
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max_retries must be > 0")
	}
	return nil
}

func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
