package password

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMismatch is returned by Verify when the password does not match.
	ErrMismatch = errors.New("password: invalid password")

	// ErrUnknownFormat is returned when a stored hash matches no supported
	// algorithm.
	ErrUnknownFormat = errors.New("password: unrecognized hash format")
)

// Hasher hashes and verifies passwords.
type Hasher interface {
	// Hash returns a salted one-way hash of password.
	Hash(password string) (string, error)

	// Verify returns nil on match, ErrMismatch on mismatch, or another error
	// when hash cannot be processed.
	Verify(password, hash string) error
}

// Rehasher is implemented by hashers that can tell a stored hash was made
// with other parameters than they would use now.
type Rehasher interface {
	NeedsRehash(hash string) bool
}

// Identify reports which algorithm produced hash, or "" when none does.
func Identify(hash string) Algorithm {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		return AlgorithmArgon2id
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return AlgorithmBcrypt
	}
	return ""
}

// Multi hashes with one algorithm and verifies hashes of every supported
// algorithm.
type Multi struct {
	algorithm Algorithm
	bcrypt    *BcryptHasher
	argon2    *Argon2Hasher
}

var (
	_ Hasher   = (*Multi)(nil)
	_ Rehasher = (*Multi)(nil)
)

// NewMulti creates a Multi hashing with algorithm.
func NewMulti(algorithm Algorithm, bcryptHasher *BcryptHasher, argon2Hasher *Argon2Hasher) (*Multi, error) {
	if algorithm != AlgorithmBcrypt && algorithm != AlgorithmArgon2id {
		return nil, fmt.Errorf("password: unsupported algorithm %q", algorithm)
	}
	if bcryptHasher == nil {
		bcryptHasher = NewBcryptHasher()
	}
	if argon2Hasher == nil {
		argon2Hasher = NewArgon2Hasher()
	}
	return &Multi{algorithm: algorithm, bcrypt: bcryptHasher, argon2: argon2Hasher}, nil
}

// Algorithm returns the algorithm new hashes are made with.
func (m *Multi) Algorithm() Algorithm { return m.algorithm }

func (m *Multi) primary() Hasher {
	if m.algorithm == AlgorithmArgon2id {
		return m.argon2
	}
	return m.bcrypt
}

// Hash implements Hasher.
func (m *Multi) Hash(password string) (string, error) {
	return m.primary().Hash(password)
}

// Verify implements Hasher, dispatching on the hash prefix.
func (m *Multi) Verify(password, hash string) error {
	switch Identify(hash) {
	case AlgorithmBcrypt:
		return m.bcrypt.Verify(password, hash)
	case AlgorithmArgon2id:
		return m.argon2.Verify(password, hash)
	}
	return ErrUnknownFormat
}

// NeedsRehash reports whether hash was made with another algorithm or
// other parameters than Hash would use.
func (m *Multi) NeedsRehash(hash string) bool {
	if Identify(hash) != m.algorithm {
		return true
	}
	if r, ok := m.primary().(Rehasher); ok {
		return r.NeedsRehash(hash)
	}
	return false
}
