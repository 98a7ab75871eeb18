package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

type testConfig struct {
	ServiceConfig `mapstructure:",squash"`
	Auth          struct {
		JWT struct {
			Secret string        `mapstructure:"secret"`
			TTL    time.Duration `mapstructure:"ttl"`
		} `mapstructure:"jwt"`
		Store struct {
			Driver string `mapstructure:"driver"`
		} `mapstructure:"store"`
	} `mapstructure:"auth"`
}

func (c *testConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Auth.Store.Driver == "" {
		c.Auth.Store.Driver = "memory"
	}
}

func (c *testConfig) Validate() error { return c.ServiceConfig.Validate() }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Version != "dev" {
			t.Errorf("expected version 'dev', got %q", cfg.Version)
		}
	})

	t.Run("production keeps debug off", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if !cfg.IsProduction() {
			t.Error("expected IsProduction")
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "staging"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "qa"}, "config.environment must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
name: authkit-server
environment: staging
auth:
  jwt:
    secret: from-file
    ttl: 1h
`)

	var cfg testConfig
	if err := LoadConfig("authkit-server", &cfg, WithConfigFile(path), WithEnvPrefix("AUTHKIT_TEST_NONE")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "authkit-server" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config %+v", cfg.ServiceConfig)
	}
	if cfg.Auth.JWT.Secret != "from-file" {
		t.Errorf("expected secret from file, got %q", cfg.Auth.JWT.Secret)
	}
	if cfg.Auth.JWT.TTL != time.Hour {
		t.Errorf("expected ttl 1h, got %v", cfg.Auth.JWT.TTL)
	}
	if cfg.Auth.Store.Driver != "memory" {
		t.Errorf("expected defaults applied, got driver %q", cfg.Auth.Store.Driver)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "name: svc\nauth:\n  jwt:\n    secret: from-file\n")
	t.Setenv("AUTHKIT_AUTH_JWT_SECRET", "from-env")
	t.Setenv("AUTHKIT_AUTH_STORE_DRIVER", "redis")

	var cfg testConfig
	if err := LoadConfig("svc", &cfg, WithConfigFile(path), WithEnvPrefix("AUTHKIT")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Auth.JWT.Secret != "from-env" {
		t.Errorf("expected env to win, got %q", cfg.Auth.JWT.Secret)
	}
	if cfg.Auth.Store.Driver != "redis" {
		t.Errorf("expected driver from env, got %q", cfg.Auth.Store.Driver)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yml", "name: svc\n")
	envPath := writeFile(t, dir, ".env", "AUTHKIT_DOTENV_AUTH_JWT_SECRET=from-dotenv\n")
	t.Cleanup(func() { os.Unsetenv("AUTHKIT_DOTENV_AUTH_JWT_SECRET") })

	var cfg testConfig
	err := LoadConfig("svc", &cfg, WithConfigFile(cfgPath), WithEnvFile(envPath), WithEnvPrefix("AUTHKIT_DOTENV"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Auth.JWT.Secret != "from-dotenv" {
		t.Errorf("expected secret from .env, got %q", cfg.Auth.JWT.Secret)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("svc", &cfg, WithConfigFile("/nonexistent/config.yml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestLoadConfigValidationFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "environment: production\n")

	var cfg testConfig
	err := LoadConfig("svc", &cfg, WithConfigFile(path), WithEnvPrefix("AUTHKIT_TEST_NONE"))
	if err == nil || !strings.Contains(err.Error(), "config.name is required") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/authkit-server/config.yml": true,
		"./.env":                          true,
	}}
	files := Resolve("authkit-server", LoaderConfig{FileSystem: fs})
	if files.ConfigFile != "./cmd/authkit-server/config.yml" {
		t.Errorf("expected ./cmd/authkit-server/config.yml, got %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("expected ./.env, got %q", files.EnvFile)
	}

	explicit := Resolve("authkit-server", LoaderConfig{FileSystem: fs, ConfigFile: "custom.yml"})
	if explicit.ConfigFile != "custom.yml" {
		t.Errorf("explicit path should win, got %q", explicit.ConfigFile)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool   { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestKeyVariants(t *testing.T) {
	got := keyVariants("JWT_ACCESS_TTL")
	want := []string{"jwt_access_ttl", "jwt.access.ttl", "jwt.access_ttl"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("keyVariants = %v, want %v", got, want)
	}
	if got := keyVariants("DEBUG"); !reflect.DeepEqual(got, []string{"debug"}) {
		t.Errorf("single part = %v", got)
	}
}

func TestOptions(t *testing.T) {
	var lc LoaderConfig
	WithFileSystem(&mockFS{})(&lc)
	WithConfigFile("/etc/authkit.yml")(&lc)
	WithEnvFile("/etc/authkit.env")(&lc)
	WithEnvPrefix("authkit_")(&lc)

	if lc.FileSystem == nil || lc.ConfigFile != "/etc/authkit.yml" || lc.EnvFile != "/etc/authkit.env" {
		t.Errorf("options not applied: %+v", lc)
	}
	if lc.EnvPrefix != "AUTHKIT" {
		t.Errorf("expected normalized prefix AUTHKIT, got %q", lc.EnvPrefix)
	}
}
