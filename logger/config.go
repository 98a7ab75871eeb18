package logger

import (
	"fmt"
	"slices"
)

// Config contains logging configuration.
type Config struct {
	Level     string `yaml:"level" mapstructure:"level"`
	Format    string `yaml:"format" mapstructure:"format"`
	Output    string `yaml:"output" mapstructure:"output"` // stdout, stderr, discard
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool   `yaml:"caller" mapstructure:"caller"`
}

// ApplyDefaults applies default values to logging configuration.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
	c.Timestamp = true
}

// Validate validates logging configuration.
func (c *Config) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error", "fatal", "trace", "disabled"}
	if !slices.Contains(validLevels, c.Level) {
		return fmt.Errorf("logging.level must be one of %v (got: %s)", validLevels, c.Level)
	}
	validFormats := []string{FormatJSON, FormatConsole, FormatPretty}
	if !slices.Contains(validFormats, c.Format) {
		return fmt.Errorf("logging.format must be one of %v (got: %s)", validFormats, c.Format)
	}
	validOutputs := []string{"stdout", "stderr", "discard"}
	if !slices.Contains(validOutputs, c.Output) {
		return fmt.Errorf("logging.output must be one of %v (got: %s)", validOutputs, c.Output)
	}
	return nil
}
