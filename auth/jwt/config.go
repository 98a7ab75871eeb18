package jwt

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SigningMethod defines supported JWT signing algorithms.
type SigningMethod string

const (
	HS256 SigningMethod = "HS256"
	HS384 SigningMethod = "HS384"
	HS512 SigningMethod = "HS512"
	RS256 SigningMethod = "RS256"
	RS384 SigningMethod = "RS384"
	RS512 SigningMethod = "RS512"
	ES256 SigningMethod = "ES256"
	ES384 SigningMethod = "ES384"
	ES512 SigningMethod = "ES512"
)

// DefaultTTL is the credential lifetime when none is configured.
const DefaultTTL = 7 * 24 * time.Hour

// Config configures the JWT token strategy.
type Config struct {
	// Secret is the HMAC signing key (required for HS* methods).
	Secret string `mapstructure:"secret"`

	// PrivateKey is the RSA or ECDSA private key (required for RS*/ES* methods).
	PrivateKey any `mapstructure:"-"`

	// PublicKey is the RSA or ECDSA public key for verification.
	// If not set, it is derived from PrivateKey.
	PublicKey any `mapstructure:"-"`

	// Method is the signing algorithm (default: HS256).
	Method SigningMethod `mapstructure:"method"`

	// Issuer is the "iss" claim; when set, verification requires it.
	Issuer string `mapstructure:"issuer"`

	// Audience is the "aud" claim; when set, verification requires the first entry.
	Audience []string `mapstructure:"audience"`

	// TTL is the credential lifetime (default: 7 days).
	TTL time.Duration `mapstructure:"ttl"`

	// Now overrides the clock used for issuance and verification.
	Now func() time.Time `mapstructure:"-"`
}

type keyFamily int

const (
	familyHMAC keyFamily = iota
	familyRSA
	familyECDSA
)

var methods = map[SigningMethod]struct {
	alg    gojwt.SigningMethod
	family keyFamily
}{
	HS256: {gojwt.SigningMethodHS256, familyHMAC},
	HS384: {gojwt.SigningMethodHS384, familyHMAC},
	HS512: {gojwt.SigningMethodHS512, familyHMAC},
	RS256: {gojwt.SigningMethodRS256, familyRSA},
	RS384: {gojwt.SigningMethodRS384, familyRSA},
	RS512: {gojwt.SigningMethodRS512, familyRSA},
	ES256: {gojwt.SigningMethodES256, familyECDSA},
	ES384: {gojwt.SigningMethodES384, familyECDSA},
	ES512: {gojwt.SigningMethodES512, familyECDSA},
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Method == "" {
		c.Method = HS256
	}
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Validate checks that the configured key matches the signing method.
func (c *Config) Validate() error {
	if c.TTL < 0 {
		return errors.New("jwt: ttl must not be negative")
	}
	m, ok := methods[c.Method]
	if !ok {
		return fmt.Errorf("jwt: unsupported signing method %q", c.Method)
	}
	switch m.family {
	case familyHMAC:
		if c.Secret == "" {
			return errors.New("jwt: secret is required for HMAC signing methods")
		}
	case familyRSA:
		if _, ok := c.PrivateKey.(*rsa.PrivateKey); !ok {
			return fmt.Errorf("jwt: %s requires an *rsa.PrivateKey", c.Method)
		}
	case familyECDSA:
		if _, ok := c.PrivateKey.(*ecdsa.PrivateKey); !ok {
			return fmt.Errorf("jwt: %s requires an *ecdsa.PrivateKey", c.Method)
		}
	}
	return nil
}

func (c *Config) signingMethod() gojwt.SigningMethod {
	if m, ok := methods[c.Method]; ok {
		return m.alg
	}
	return gojwt.SigningMethodHS256
}

func (c *Config) signKey() any {
	if methods[c.Method].family == familyHMAC {
		return []byte(c.Secret)
	}
	return c.PrivateKey
}

// verifyKey prefers PublicKey and otherwise derives it from PrivateKey.
func (c *Config) verifyKey() any {
	if methods[c.Method].family == familyHMAC {
		return []byte(c.Secret)
	}
	if c.PublicKey != nil {
		return c.PublicKey
	}
	if signer, ok := c.PrivateKey.(crypto.Signer); ok {
		return signer.Public()
	}
	return c.PrivateKey
}
