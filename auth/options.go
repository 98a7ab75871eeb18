package auth

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/authkit/auth/password"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/observability"
	"github.com/kbukum/authkit/validation"
)

// CustomValidator is a cross-field check run against the raw registration
// input before any per-field rule. A non-empty result rejects the input.
type CustomValidator func(ctx context.Context, input map[string]any) validation.FieldErrors

// ValidationConfig customizes registration input rules. Login input is not
// affected.
type ValidationConfig struct {
	// Email replaces the default syntactic email rule.
	Email validation.Rule

	// Password replaces the default minimum-length rule.
	Password validation.Rule

	// Fields declares additional attributes and their rules. Undeclared
	// attributes pass through unvalidated.
	Fields validation.Rules

	// Custom runs first; when it fails, per-field rules are skipped.
	Custom CustomValidator
}

// DefaultPasswordMinLength is the default minimum password length.
const DefaultPasswordMinLength = 6

// rules returns the effective registration rule set: defaults merged with
// overrides by field name.
func (c ValidationConfig) rules() validation.Rules {
	base := validation.Rules{
		FieldEmail:    validation.Email(),
		FieldPassword: validation.MinLength(DefaultPasswordMinLength),
	}
	overrides := validation.Rules{
		FieldEmail:    c.Email,
		FieldPassword: c.Password,
	}
	return base.Merge(c.Fields).Merge(overrides)
}

// Hooks are optional lifecycle callbacks. Each is awaited in-line and
// receives the stored record, password hash included. A returned error fails
// the surrounding operation.
type Hooks struct {
	OnRegister func(ctx context.Context, user *User) error
	OnLogin    func(ctx context.Context, user *User) error
	OnLogout   func(ctx context.Context, user *User) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithHasher sets the password hasher (default: bcrypt, cost 12).
func WithHasher(h password.Hasher) Option {
	return func(e *Engine) {
		if h != nil {
			e.hasher = h
		}
	}
}

// WithValidation sets registration rule overrides. The config is copied.
func WithValidation(cfg ValidationConfig) Option {
	return func(e *Engine) {
		e.rules = cfg.rules()
		e.custom = cfg.Custom
	}
}

// WithHooks sets lifecycle callbacks.
func WithHooks(h Hooks) Option {
	return func(e *Engine) { e.hooks = h }
}

// WithLogger sets the engine logger (default: the "auth" component logger).
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithTracer sets the tracer used for operation spans (default: global provider).
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithMetrics enables operation metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}
