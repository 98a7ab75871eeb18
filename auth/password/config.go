package password

import "fmt"

// Algorithm names a password hashing scheme.
type Algorithm string

const (
	// AlgorithmBcrypt is bcrypt, the default.
	AlgorithmBcrypt Algorithm = "bcrypt"

	// AlgorithmArgon2id is argon2id.
	AlgorithmArgon2id Algorithm = "argon2id"
)

// Config selects the algorithm for new hashes and its cost parameters.
// Hashes made by the other algorithm still verify.
type Config struct {
	Algorithm Algorithm `mapstructure:"algorithm"`

	// BcryptCost is the bcrypt work factor, 4 to 31 (default: 12).
	BcryptCost int `mapstructure:"bcrypt_cost"`

	Argon2Time    uint32 `mapstructure:"argon2_time"`    // passes (default: 1)
	Argon2Memory  uint32 `mapstructure:"argon2_memory"`  // KiB (default: 65536)
	Argon2Threads uint8  `mapstructure:"argon2_threads"` // default: 4
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = AlgorithmBcrypt
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = DefaultBcryptCost
	}
	if c.Argon2Time == 0 {
		c.Argon2Time = 1
	}
	if c.Argon2Memory == 0 {
		c.Argon2Memory = 64 * 1024
	}
	if c.Argon2Threads == 0 {
		c.Argon2Threads = 4
	}
}

// Validate checks the algorithm and cost ranges.
func (c *Config) Validate() error {
	switch c.Algorithm {
	case AlgorithmBcrypt, AlgorithmArgon2id:
	default:
		return fmt.Errorf("algorithm must be bcrypt or argon2id (got: %s)", c.Algorithm)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("bcrypt_cost must be between 4 and 31 (got: %d)", c.BcryptCost)
	}
	// argon2 requires at least 8 KiB per lane.
	if c.Argon2Memory < 8*uint32(c.Argon2Threads) {
		return fmt.Errorf("argon2_memory must be at least %d KiB for %d threads", 8*uint32(c.Argon2Threads), c.Argon2Threads)
	}
	return nil
}

// NewHasher builds a Multi from cfg. cfg is defaulted; callers that need
// errors for bad values should call Validate first.
func NewHasher(cfg Config) *Multi {
	cfg.ApplyDefaults()
	if cfg.Algorithm != AlgorithmArgon2id {
		cfg.Algorithm = AlgorithmBcrypt
	}
	m, _ := NewMulti(cfg.Algorithm,
		NewBcryptHasher(WithCost(cfg.BcryptCost)),
		NewArgon2Hasher(
			WithArgon2Time(cfg.Argon2Time),
			WithArgon2Memory(cfg.Argon2Memory),
			WithArgon2Threads(cfg.Argon2Threads),
		),
	)
	return m
}
