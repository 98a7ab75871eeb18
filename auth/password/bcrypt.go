package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 12

// MaxBcryptLength is the longest input, in bytes, bcrypt considers.
const MaxBcryptLength = 72

// ErrTooLong is returned by BcryptHasher.Hash for inputs bcrypt would
// silently truncate.
var ErrTooLong = fmt.Errorf("password: maximum length is %d bytes", MaxBcryptLength)

// BcryptHasher implements Hasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// BcryptOption configures a BcryptHasher.
type BcryptOption func(*BcryptHasher)

// WithCost sets the work factor. Values outside bcrypt's range are ignored.
func WithCost(cost int) BcryptOption {
	return func(h *BcryptHasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

// NewBcryptHasher creates a bcrypt hasher with cost 12 unless overridden.
func NewBcryptHasher(opts ...BcryptOption) *BcryptHasher {
	h := &BcryptHasher{cost: DefaultBcryptCost}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Cost returns the configured work factor.
func (h *BcryptHasher) Cost() int { return h.cost }

// Hash implements Hasher.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if len(password) > MaxBcryptLength {
		return "", ErrTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(hash), nil
}

// Verify implements Hasher. The cost is read from hash.
func (h *BcryptHasher) Verify(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrMismatch
	default:
		return fmt.Errorf("password: verify: %w", err)
	}
}

// NeedsRehash reports whether hash was made with a lower cost than the
// configured one. Stronger hashes are left alone.
func (h *BcryptHasher) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost < h.cost
}
