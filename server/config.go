package server

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/authkit/server/middleware"
)

// Config holds HTTP server configuration. Durations decode from strings such
// as "15s".
type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	BasePath string `mapstructure:"base_path"`

	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`

	// MaxBodySize caps request bodies, e.g. "1MB".
	MaxBodySize string                `mapstructure:"max_body_size"`
	CORS        middleware.CORSConfig `mapstructure:"cors"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.BasePath == "" {
		c.BasePath = "/api/auth"
	}
	for _, d := range []struct {
		field *time.Duration
		value time.Duration
	}{
		{&c.ReadTimeout, 15 * time.Second},
		{&c.WriteTimeout, 15 * time.Second},
		{&c.IdleTimeout, 60 * time.Second},
	} {
		if *d.field == 0 {
			*d.field = d.value
		}
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "1MB"
	}
	c.CORS.ApplyDefaults()
}

// Validate rejects out-of-range ports, negative timeouts and relative base
// paths.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 {
		return fmt.Errorf("server timeouts must be non-negative")
	}
	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("server.base_path must start with / (got: %s)", c.BasePath)
	}
	return nil
}

// Addr returns host:port.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
