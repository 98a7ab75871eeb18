package authkit

import (
	"fmt"

	"github.com/kbukum/authkit/auth/jwt"
	"github.com/kbukum/authkit/auth/password"
	"github.com/kbukum/authkit/database"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/mongo"
	"github.com/kbukum/authkit/observability"
	"github.com/kbukum/authkit/postgres"
	"github.com/kbukum/authkit/redis"
	"github.com/kbukum/authkit/server"
)

// Store drivers accepted by StoreConfig.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMongo    = "mongo"
)

// Drivers lists every supported store driver.
var Drivers = []string{DriverMemory, DriverSQLite, DriverPostgres, DriverRedis, DriverMongo}

// Config composes everything needed to run authkit. It is loadable from
// YAML and environment variables via mapstructure tags.
type Config struct {
	JWT           jwt.Config           `yaml:"jwt" mapstructure:"jwt"`
	Password      password.Config      `yaml:"password" mapstructure:"password"`
	Store         StoreConfig          `yaml:"store" mapstructure:"store"`
	Logging       logger.Config        `yaml:"logging" mapstructure:"logging"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// StoreConfig selects and configures the user store. Only the section
// matching Driver is defaulted and validated.
type StoreConfig struct {
	Driver   string          `yaml:"driver" mapstructure:"driver"`
	SQLite   database.Config `yaml:"sqlite" mapstructure:"sqlite"`
	Postgres postgres.Config `yaml:"postgres" mapstructure:"postgres"`
	Redis    redis.Config    `yaml:"redis" mapstructure:"redis"`
	Mongo    mongo.Config    `yaml:"mongo" mapstructure:"mongo"`
}

// ApplyDefaults fills zero values across every section.
func (c *Config) ApplyDefaults() {
	c.JWT.ApplyDefaults()
	c.Password.ApplyDefaults()
	c.Store.ApplyDefaults()
	c.Logging.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.JWT.Validate(); err != nil {
		return fmt.Errorf("auth.jwt: %w", err)
	}
	if err := c.Password.Validate(); err != nil {
		return fmt.Errorf("auth.password: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("auth.store: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("auth.logging: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("auth.server: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("auth.observability: %w", err)
	}
	return nil
}

// ApplyDefaults defaults the driver to memory and fills the selected
// driver's section.
func (c *StoreConfig) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	switch c.Driver {
	case DriverSQLite:
		c.SQLite.ApplyDefaults()
	case DriverPostgres:
		c.Postgres.ApplyDefaults()
	case DriverRedis:
		c.Redis.ApplyDefaults()
	case DriverMongo:
		c.Mongo.ApplyDefaults()
	}
}

// Validate checks the driver name and its section.
func (c *StoreConfig) Validate() error {
	switch c.Driver {
	case DriverMemory:
		return nil
	case DriverSQLite:
		return c.SQLite.Validate()
	case DriverPostgres:
		return c.Postgres.Validate()
	case DriverRedis:
		return c.Redis.Validate()
	case DriverMongo:
		return c.Mongo.Validate()
	}
	return fmt.Errorf("driver must be one of %v (got: %s)", Drivers, c.Driver)
}

// Describe returns a one-line summary for startup logs. Secrets are omitted.
func (c *Config) Describe() string {
	return fmt.Sprintf("jwt=%s ttl=%s password=%s store=%s", c.JWT.Method, c.JWT.TTL, c.Password.Algorithm, c.Store.Driver)
}
