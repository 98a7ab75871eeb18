package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

// argon2Params are the tunables encoded into every argon2id hash.
type argon2Params struct {
	time    uint32
	memory  uint32
	threads uint8
}

// Argon2Hasher implements Hasher using argon2id. Hashes use the PHC string
// format: $argon2id$v=19$m=MEMORY,t=TIME,p=THREADS$SALT$HASH.
type Argon2Hasher struct {
	params  argon2Params
	keyLen  uint32
	saltLen int
}

// Argon2Option configures an Argon2Hasher.
type Argon2Option func(*Argon2Hasher)

// WithArgon2Time sets the number of passes (default: 1).
func WithArgon2Time(t uint32) Argon2Option {
	return func(h *Argon2Hasher) { h.params.time = t }
}

// WithArgon2Memory sets the memory cost in KiB (default: 64 MiB).
func WithArgon2Memory(m uint32) Argon2Option {
	return func(h *Argon2Hasher) { h.params.memory = m }
}

// WithArgon2Threads sets the parallelism (default: 4).
func WithArgon2Threads(t uint8) Argon2Option {
	return func(h *Argon2Hasher) { h.params.threads = t }
}

// NewArgon2Hasher creates an argon2id hasher with time=1, memory=64MiB and
// threads=4 unless overridden.
func NewArgon2Hasher(opts ...Argon2Option) *Argon2Hasher {
	h := &Argon2Hasher{
		params:  argon2Params{time: 1, memory: 64 * 1024, threads: 4},
		keyLen:  32,
		saltLen: 16,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash implements Hasher.
func (h *Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("password: generate salt: %w", err)
	}
	p := h.params
	key := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, h.keyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify implements Hasher. Parameters are read from hash.
func (h *Argon2Hasher) Verify(password, hash string) error {
	p, salt, want, err := decodeArgon2(hash)
	if err != nil {
		return err
	}
	got := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, uint32(len(want)))
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrMismatch
	}
	return nil
}

// NeedsRehash reports whether hash was made with weaker parameters than the
// configured ones. Thread count does not affect strength and is ignored.
func (h *Argon2Hasher) NeedsRehash(hash string) bool {
	p, _, key, err := decodeArgon2(hash)
	if err != nil {
		return true
	}
	return p.memory < h.params.memory || p.time < h.params.time || uint32(len(key)) < h.keyLen
}

func decodeArgon2(hash string) (argon2Params, []byte, []byte, error) {
	var p argon2Params
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, errors.New("password: invalid argon2id hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, fmt.Errorf("password: parse argon2id version: %w", err)
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("password: unsupported argon2id version %d", version)
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, fmt.Errorf("password: parse argon2id params: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("password: decode salt: %w", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, fmt.Errorf("password: decode hash: %w", err)
	}
	return p, salt, key, nil
}
