package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem abstracts the file operations the loader needs so tests can
// fake them.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// OSFileSystem implements FileSystem on the real filesystem.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LoadEnv loads a .env file without overriding variables already set.
func (OSFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Defaulter is implemented by configs that fill zero values.
type Defaulter interface {
	ApplyDefaults()
}

// Validator is implemented by configs that check themselves.
type Validator interface {
	Validate() error
}

// LoaderConfig holds the loader's dependencies and overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // explicit config file, skips the search
	EnvFile    string // explicit .env file, skips the search
	EnvPrefix  string // only variables with this prefix are bound
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix restricts environment binding to variables named
// PREFIX_<KEY>. The prefix is stripped before mapping to config keys.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = strings.TrimSuffix(strings.ToUpper(prefix), "_") }
}

// ResolvedFiles contains the config and env files the loader will read.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// Resolve returns the explicit paths when given, otherwise the first
// existing candidate for the service.
func Resolve(serviceName string, lc LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: lc.ConfigFile, EnvFile: lc.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = firstExisting(lc.FileSystem, configCandidates(serviceName))
	}
	if files.EnvFile == "" {
		files.EnvFile = firstExisting(lc.FileSystem, envCandidates(serviceName))
	}
	return files
}

func configCandidates(serviceName string) []string {
	var paths []string
	for _, dir := range []string{".", "..", "../.."} {
		paths = append(paths, fmt.Sprintf("%s/cmd/%s/config.yml", dir, serviceName))
	}
	return append(paths, "./config/config.yml", "./config.yml")
}

func envCandidates(serviceName string) []string {
	var paths []string
	for _, name := range []string{".env." + serviceName, ".env"} {
		for _, dir := range []string{"./cmd/" + serviceName, ".", "..", "../.."} {
			paths = append(paths, dir+"/"+name)
		}
	}
	return paths
}

func firstExisting(fs FileSystem, paths []string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// LoadConfig fills cfg for a service. Sources, lowest precedence first:
// the YAML config file, the .env file, then the process environment.
// When cfg implements Defaulter and Validator they run after unmarshaling.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = OSFileSystem{}
	}
	files := Resolve(serviceName, lc)

	v := viper.New()
	if files.ConfigFile != "" {
		if !lc.FileSystem.Exists(files.ConfigFile) {
			if lc.ConfigFile != "" {
				return fmt.Errorf("config file %s not found", files.ConfigFile)
			}
		} else {
			v.SetConfigFile(files.ConfigFile)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file %s: %w", files.ConfigFile, err)
			}
		}
	}

	// godotenv never overrides existing variables, so the process
	// environment wins over the .env file.
	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", files.EnvFile, err)
		}
	}
	bindEnv(v, lc.EnvPrefix, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for service %s: %w", serviceName, err)
	}

	if d, ok := cfg.(Defaulter); ok {
		d.ApplyDefaults()
	}
	if val, ok := cfg.(Validator); ok {
		if err := val.Validate(); err != nil {
			return errors.Join(fmt.Errorf("invalid config for service %s", serviceName), err)
		}
	}
	return nil
}

// bindEnv sets every key variant of each matching variable so nested keys
// containing underscores (jwt.access_token_ttl) resolve.
func bindEnv(v *viper.Viper, prefix string, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if prefix != "" {
			rest, found := strings.CutPrefix(key, prefix+"_")
			if !found || rest == "" {
				continue
			}
			key = rest
		}
		for _, variant := range keyVariants(key) {
			v.Set(variant, value)
		}
	}
}

// keyVariants maps an environment name to candidate config keys:
//
//	JWT_ACCESS_TOKEN_TTL -> jwt_access_token_ttl, jwt.access.token.ttl,
//	                        jwt.access_token_ttl, jwt.access.token_ttl, ...
func keyVariants(envKey string) []string {
	lower := strings.ToLower(envKey)
	parts := strings.Split(lower, "_")
	if len(parts) == 1 {
		return []string{lower}
	}

	seen := map[string]bool{}
	var out []string
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	add(lower)
	add(strings.Join(parts, "."))
	for i := 1; i < len(parts); i++ {
		add(strings.Join(parts[:i], ".") + "." + strings.Join(parts[i:], "_"))
	}
	return out
}
