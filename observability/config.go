package observability

import (
	"fmt"
	"time"
)

// Config configures tracing and metrics export. Loadable via mapstructure.
type Config struct {
	// Enabled turns on OTLP export. When false, spans and metrics go to the
	// global no-op providers.
	Enabled bool `mapstructure:"enabled"`

	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	Environment    string `mapstructure:"environment"`

	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`

	// SampleRate is the trace sampling rate (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate"`

	// MetricInterval is the metric export interval.
	MetricInterval time.Duration `mapstructure:"metric_interval"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "authkit"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "dev"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.MetricInterval == 0 {
		c.MetricInterval = 15 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("observability.sample_rate must be between 0 and 1 (got: %v)", c.SampleRate)
	}
	if c.Enabled && c.Endpoint == "" {
		return fmt.Errorf("observability.endpoint is required when enabled")
	}
	return nil
}
