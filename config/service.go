package config

import (
	"fmt"
	"slices"
)

// Environments accepted by ServiceConfig.
var Environments = []string{"development", "staging", "production"}

// ServiceConfig holds the identity fields every authkit binary shares.
// Embed it with mapstructure squash:
//
//	type ServerConfig struct {
//	    config.ServiceConfig `mapstructure:",squash"`
//	    Auth authkit.Config  `mapstructure:"auth"`
//	}
type ServiceConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`
}

// ApplyDefaults fills zero values. Development implies debug.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
}

// Validate checks the shared fields.
func (c *ServiceConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	if !slices.Contains(Environments, c.Environment) {
		return fmt.Errorf("config.environment must be one of %v (got: %s)", Environments, c.Environment)
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *ServiceConfig) IsProduction() bool { return c.Environment == "production" }
