package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// TypedStore keeps values of type C as JSON strings under "<prefix>:<key>".
type TypedStore[C any] struct {
	client *Client
	prefix string
}

// NewTypedStore creates a TypedStore on client. An empty prefix leaves keys
// untouched.
func NewTypedStore[C any](client *Client, prefix string) *TypedStore[C] {
	return &TypedStore[C]{client: client, prefix: prefix}
}

// Key returns the full Redis key for key.
func (s *TypedStore[C]) Key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

// Load returns (nil, nil) for a missing key.
func (s *TypedStore[C]) Load(ctx context.Context, key string) (*C, error) {
	raw, err := s.client.Get(ctx, s.Key(key))
	switch {
	case errors.Is(err, goredis.Nil):
		return nil, nil
	case err != nil:
		return nil, s.wrap("load", key, err)
	}
	return s.Decode(raw)
}

// Save stores val under key. A zero ttl keeps it until deleted.
func (s *TypedStore[C]) Save(ctx context.Context, key string, val *C, ttl time.Duration) error {
	data, err := s.Encode(val)
	if err != nil {
		return err
	}
	return s.wrap("save", key, s.client.Set(ctx, s.Key(key), data, ttl))
}

// Delete removes key. Deleting a missing key is not an error.
func (s *TypedStore[C]) Delete(ctx context.Context, key string) error {
	return s.wrap("delete", key, s.client.Del(ctx, s.Key(key)))
}

// Encode is exposed for callers building their own MULTI/EXEC pipelines.
func (s *TypedStore[C]) Encode(val *C) (string, error) {
	data, err := json.Marshal(val)
	if err != nil {
		return "", fmt.Errorf("redis: encode %s: %w", s.prefix, err)
	}
	return string(data), nil
}

// Decode is the inverse of Encode.
func (s *TypedStore[C]) Decode(raw string) (*C, error) {
	val := new(C)
	if err := json.Unmarshal([]byte(raw), val); err != nil {
		return nil, fmt.Errorf("redis: decode %s: %w", s.prefix, err)
	}
	return val, nil
}

func (s *TypedStore[C]) wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("redis: %s %q: %w", op, s.Key(key), err)
}
