package redis

import (
	"testing"
	"time"
)

func TestConfig_DefaultsAndOptions(t *testing.T) {
	cfg := Config{Addr: "localhost:6379", ConnMaxLifetime: "30m"}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	if cfg.KeyPrefix != "authkit" || cfg.MaxTxRetries != 10 || cfg.PoolSize != 10 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	opts := cfg.options()
	if opts.Addr != "localhost:6379" || opts.PoolSize != 10 {
		t.Errorf("unexpected options: %+v", opts)
	}
	if opts.ReadTimeout != 3*time.Second || opts.MaxRetryBackoff != 512*time.Millisecond {
		t.Errorf("durations not translated: read=%v backoff=%v", opts.ReadTimeout, opts.MaxRetryBackoff)
	}
	if opts.ConnMaxLifetime != 30*time.Minute || opts.PoolTimeout != 0 {
		t.Errorf("optional durations not translated: lifetime=%v pool=%v", opts.ConnMaxLifetime, opts.PoolTimeout)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing addr", func(c *Config) { c.Addr = "" }},
		{"bad dial timeout", func(c *Config) { c.DialTimeout = "soon" }},
		{"bad optional duration", func(c *Config) { c.PoolTimeout = "4 seconds" }},
		{"empty prefix", func(c *Config) { c.KeyPrefix = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Addr: "localhost:6379"}
			cfg.ApplyDefaults()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	client, _ := newTestClient(t)
	if err := client.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
