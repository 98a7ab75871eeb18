package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/authkit/auth/password"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/observability"
	"github.com/kbukum/authkit/validation"
)

// Engine orchestrates registration, login and credential verification over a
// UserStore and a TokenStrategy. It is safe for concurrent use.
//
// Every User leaving the Engine is sanitized: the password hash is cleared.
type Engine struct {
	store    UserStore
	strategy TokenStrategy
	hasher   password.Hasher
	rules    validation.Rules
	custom   CustomValidator
	hooks    Hooks

	log     *logger.Logger
	tracer  trace.Tracer
	metrics *observability.Metrics
}

// NewEngine creates an Engine. store and strategy are required.
func NewEngine(store UserStore, strategy TokenStrategy, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("auth: user store is required")
	}
	if strategy == nil {
		return nil, errors.New("auth: token strategy is required")
	}

	e := &Engine{
		store:    store,
		strategy: strategy,
		hasher:   password.NewBcryptHasher(),
		rules:    ValidationConfig{}.rules(),
		log:      logger.Get(logger.ComponentAuth),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Store returns the underlying user store.
func (e *Engine) Store() UserStore { return e.store }

// Ping checks the store when it supports health checks.
func (e *Engine) Ping(ctx context.Context) error {
	if p, ok := e.store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Register validates input, creates the user and issues a credential.
//
// input holds "email", "password" and any extra attributes. Declared extra
// fields are validated; undeclared ones are stored as given.
func (e *Engine) Register(ctx context.Context, input map[string]any) *Result {
	ctx, op := observability.StartOperation(ctx, e.tracer, e.metrics, observability.SpanRegister)
	res, err := e.register(ctx, input)
	if err != nil {
		res = Failed(MsgRegistrationFailed + err.Error())
	}
	e.finish(ctx, op, res, err)
	return res
}

func (e *Engine) register(ctx context.Context, input map[string]any) (*Result, error) {
	if e.custom != nil {
		if errs := e.custom(ctx, input); len(errs) > 0 {
			return FailedWith(MsgValidationFailed, errs), nil
		}
	}

	data, errs := validation.Validate(input, e.rules)
	if errs != nil {
		return FailedWith(errs.First(), errs), nil
	}

	email := stringValue(data[FieldEmail])
	existing, err := e.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return duplicateEmail(), nil
	}

	hash, err := e.hasher.Hash(stringValue(data[FieldPassword]))
	if errors.Is(err, password.ErrTooLong) {
		msg := fmt.Sprintf("Must be %d bytes or less", password.MaxBcryptLength)
		return FailedWith(msg, map[string]string{FieldPassword: msg}), nil
	}
	if err != nil {
		return nil, err
	}

	user, err := e.store.CreateUser(ctx, &User{
		Email:        email,
		PasswordHash: hash,
		Fields:       extraFields(data),
	})
	if errors.Is(err, ErrDuplicateEmail) {
		return duplicateEmail(), nil
	}
	if err != nil {
		return nil, err
	}

	if e.hooks.OnRegister != nil {
		if err := e.hooks.OnRegister(ctx, user); err != nil {
			return nil, err
		}
	}

	token, err := e.strategy.GenerateToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return Succeeded(e.Sanitize(user), token), nil
}

// Login checks credentials against the store and issues a credential.
// An unknown email and a wrong password produce identical results.
func (e *Engine) Login(ctx context.Context, creds Credentials) *Result {
	ctx, op := observability.StartOperation(ctx, e.tracer, e.metrics, observability.SpanLogin)
	res, err := e.login(ctx, creds)
	if err != nil {
		res = Failed(MsgLoginFailed + err.Error())
	}
	e.finish(ctx, op, res, err)
	return res
}

// LoginInput is Login for decoded request bodies. Non-string values are
// treated as absent.
func (e *Engine) LoginInput(ctx context.Context, input map[string]any) *Result {
	email, _ := input[FieldEmail].(string)
	pass, _ := input[FieldPassword].(string)
	return e.Login(ctx, Credentials{Email: email, Password: pass})
}

func (e *Engine) login(ctx context.Context, creds Credentials) (*Result, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if errs := validation.ValidateStruct(creds); errs != nil {
		return FailedWith(errs.First(), errs), nil
	}

	user, err := e.store.FindUserByEmail(ctx, creds.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" {
		return invalidCredentials(), nil
	}

	err = e.hasher.Verify(creds.Password, user.PasswordHash)
	if errors.Is(err, password.ErrMismatch) {
		return invalidCredentials(), nil
	}
	if err != nil {
		return nil, err
	}
	if r, ok := e.hasher.(password.Rehasher); ok && r.NeedsRehash(user.PasswordHash) {
		e.rehash(ctx, user.ID, creds.Password)
	}

	if e.hooks.OnLogin != nil {
		if err := e.hooks.OnLogin(ctx, user); err != nil {
			return nil, err
		}
	}

	token, err := e.strategy.GenerateToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return Succeeded(e.Sanitize(user), token), nil
}

// rehash stores a fresh hash for a user whose hash predates the current
// hasher settings. Failures are logged and do not fail the login.
func (e *Engine) rehash(ctx context.Context, userID, plain string) {
	log := e.log.WithContext(ctx)
	hash, err := e.hasher.Hash(plain)
	if err == nil {
		_, err = e.store.UpdateUser(ctx, userID, UserUpdate{PasswordHash: &hash})
	}
	if err != nil {
		log.Warn("password rehash failed", logger.Fields(logger.FieldUserID, userID, logger.FieldError, err.Error()))
		return
	}
	log.Debug("password hash upgraded", logger.Fields(logger.FieldUserID, userID))
}

// VerifyToken delegates to the token strategy.
func (e *Engine) VerifyToken(ctx context.Context, token string) *Result {
	ctx, op := observability.StartOperation(ctx, e.tracer, e.metrics, observability.SpanVerifyToken)
	res := e.strategy.Verify(ctx, token)
	if res == nil {
		res = Failed(MsgTokenVerifyFailed)
	}
	e.finish(ctx, op, res, nil)
	return res
}

// Authenticate delegates direct credential checks to the token strategy.
func (e *Engine) Authenticate(ctx context.Context, credentials map[string]any) *Result {
	ctx, op := observability.StartOperation(ctx, e.tracer, e.metrics, observability.SpanAuthenticate)
	res := e.strategy.Authenticate(ctx, credentials)
	if res == nil {
		res = Failed(MsgInvalidCredentials)
	}
	res.User = e.Sanitize(res.User)
	e.finish(ctx, op, res, nil)
	return res
}

// GetUser returns the sanitized user, or nil when no user has that id.
func (e *Engine) GetUser(ctx context.Context, id string) (*User, error) {
	ctx, op := observability.StartOperation(ctx, e.tracer, e.metrics, observability.SpanGetUser)
	user, err := e.store.FindUserByID(ctx, id)
	e.finishErr(ctx, op, id, err)
	if err != nil {
		return nil, err
	}
	return e.Sanitize(user), nil
}

// UpdateUser applies update and returns the sanitized result. A missing id
// surfaces as ErrUserNotFound.
func (e *Engine) UpdateUser(ctx context.Context, id string, update UserUpdate) (*User, error) {
	ctx, op := observability.StartOperation(ctx, e.tracer, e.metrics, observability.SpanUpdateUser)
	user, err := e.store.UpdateUser(ctx, id, update)
	e.finishErr(ctx, op, id, err)
	if err != nil {
		return nil, err
	}
	return e.Sanitize(user), nil
}

// DeleteUser removes the user. Deleting a missing id is not an error.
func (e *Engine) DeleteUser(ctx context.Context, id string) error {
	ctx, op := observability.StartOperation(ctx, e.tracer, e.metrics, observability.SpanDeleteUser)
	err := e.store.DeleteUser(ctx, id)
	e.finishErr(ctx, op, id, err)
	return err
}

// Logout runs the OnLogout hook. Credentials are not revoked.
func (e *Engine) Logout(ctx context.Context, user *User) error {
	ctx, op := observability.StartOperation(ctx, e.tracer, e.metrics, observability.SpanLogout)
	var err error
	if e.hooks.OnLogout != nil {
		err = e.hooks.OnLogout(ctx, user)
	}
	var id string
	if user != nil {
		id = user.ID
	}
	e.finishErr(ctx, op, id, err)
	return err
}

// Sanitize returns a copy of user without the password hash.
func (e *Engine) Sanitize(user *User) *User {
	if user == nil {
		return nil
	}
	out := user.Clone()
	out.PasswordHash = ""
	if out.Fields != nil {
		delete(out.Fields, FieldPassword)
	}
	return out
}

// finish closes a Result-returning operation. err marks an infrastructure
// failure; an unsuccessful res without err is a client-caused rejection.
func (e *Engine) finish(ctx context.Context, op *observability.Operation, res *Result, err error) {
	log := e.log.WithContext(ctx)
	fields := logger.Fields(logger.FieldOperation, op.Name, logger.FieldDuration, op.Duration().Milliseconds())

	outcome := observability.OutcomeSuccess
	switch {
	case err != nil:
		outcome = observability.OutcomeError
		fields[logger.FieldError] = err.Error()
		log.Error("auth operation failed", fields)
	case !res.Success:
		outcome = observability.OutcomeRejected
		fields[logger.FieldReason] = res.Error
		log.Warn("auth operation rejected", fields)
	default:
		if res.User != nil {
			op.SetUserID(res.User.ID)
			fields[logger.FieldUserID] = res.User.ID
		}
		log.Info("auth operation succeeded", fields)
	}
	op.End(ctx, outcome, err)
}

// finishErr closes an error-returning operation.
func (e *Engine) finishErr(ctx context.Context, op *observability.Operation, userID string, err error) {
	op.SetUserID(userID)
	log := e.log.WithContext(ctx)
	fields := logger.Fields(logger.FieldOperation, op.Name, logger.FieldUserID, userID)

	outcome := observability.OutcomeSuccess
	switch {
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrDuplicateEmail):
		outcome = observability.OutcomeRejected
		fields[logger.FieldReason] = err.Error()
		log.Warn("auth operation rejected", fields)
	case err != nil:
		outcome = observability.OutcomeError
		fields[logger.FieldError] = err.Error()
		log.Error("auth operation failed", fields)
	default:
		log.Debug("auth operation succeeded", fields)
	}
	op.End(ctx, outcome, err)
}

// extraFields returns validated attributes minus the core keys.
func extraFields(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if IsReservedField(k) {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
