package authkit

import (
	"fmt"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/auth/jwt"
	"github.com/kbukum/authkit/auth/memory"
	"github.com/kbukum/authkit/auth/password"
)

type options struct {
	store    auth.UserStore
	strategy auth.TokenStrategy
	engine   []auth.Option
}

// Option customizes New.
type Option func(*options)

// WithStore replaces the default in-memory store.
func WithStore(s auth.UserStore) Option {
	return func(o *options) { o.store = s }
}

// WithStrategy replaces the JWT strategy built from Config.JWT.
func WithStrategy(s auth.TokenStrategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithEngineOptions forwards options to auth.NewEngine. They run after the
// config-derived hasher, so WithHasher here wins.
func WithEngineOptions(opts ...auth.Option) Option {
	return func(o *options) { o.engine = append(o.engine, opts...) }
}

// New builds an Engine from cfg with an in-memory store, a JWT strategy
// from cfg.JWT and a hasher from cfg.Password:
//
//	engine, err := authkit.New(authkit.Config{JWT: jwt.Config{Secret: secret}})
//
// Use OpenStore with WithStore for a persistent store.
func New(cfg Config, opts ...Option) (*auth.Engine, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.store == nil {
		o.store = memory.New()
	}
	if o.strategy == nil {
		strategy, err := jwt.NewStrategy(cfg.JWT)
		if err != nil {
			return nil, fmt.Errorf("authkit: %w", err)
		}
		o.strategy = strategy
	}

	cfg.Password.ApplyDefaults()
	if err := cfg.Password.Validate(); err != nil {
		return nil, fmt.Errorf("authkit: password: %w", err)
	}
	engineOpts := append([]auth.Option{auth.WithHasher(password.NewHasher(cfg.Password))}, o.engine...)

	return auth.NewEngine(o.store, o.strategy, engineOpts...)
}
