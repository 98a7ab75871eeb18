package postgres

import (
	"fmt"
	"time"
)

// Config holds PostgreSQL pool configuration.
type Config struct {
	// DSN is a libpq keyword/value string or a postgres:// URL.
	DSN string `mapstructure:"dsn"`

	// MaxConns is the maximum pool size.
	MaxConns int32 `mapstructure:"max_conns"`

	// MinConns is the number of connections kept open when idle.
	MinConns int32 `mapstructure:"min_conns"`

	// MaxConnLifetime is the maximum time a connection may be reused (e.g. "30m").
	MaxConnLifetime string `mapstructure:"max_conn_lifetime"`

	// MaxConnIdleTime is the maximum time a connection may sit idle (e.g. "10m").
	MaxConnIdleTime string `mapstructure:"max_conn_idle_time"`

	// HealthCheckPeriod is the interval between pool health checks (e.g. "1m").
	HealthCheckPeriod string `mapstructure:"health_check_period"`

	// MaxRetries is the number of connection attempts before giving up.
	MaxRetries int `mapstructure:"max_retries"`

	// RetryInterval is the base backoff between attempts; attempt n waits n times it.
	RetryInterval string `mapstructure:"retry_interval"`

	// AutoMigrate creates the users table on startup.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.MaxConns <= 0 {
		c.MaxConns = 10
	}
	if c.MinConns <= 0 {
		c.MinConns = 2
	}
	if c.MaxConnLifetime == "" {
		c.MaxConnLifetime = "30m"
	}
	if c.MaxConnIdleTime == "" {
		c.MaxConnIdleTime = "10m"
	}
	if c.HealthCheckPeriod == "" {
		c.HealthCheckPeriod = "1m"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryInterval == "" {
		c.RetryInterval = "1s"
	}
}

// Validate checks that required fields are present and parseable.
func (c *Config) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("postgres dsn is required")
	}
	if c.MaxConns <= 0 {
		return fmt.Errorf("max_conns must be > 0")
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("min_conns (%d) must be <= max_conns (%d)", c.MinConns, c.MaxConns)
	}
	for name, v := range map[string]string{
		"max_conn_lifetime":   c.MaxConnLifetime,
		"max_conn_idle_time":  c.MaxConnIdleTime,
		"health_check_period": c.HealthCheckPeriod,
		"retry_interval":      c.RetryInterval,
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
