package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/auth/jwt"
	"github.com/kbukum/authkit/auth/memory"
	"github.com/kbukum/authkit/auth/password"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/observability"
	"github.com/kbukum/authkit/validation"
)

func newEngine(t *testing.T, store auth.UserStore, opts ...auth.Option) *auth.Engine {
	t.Helper()
	strategy, err := jwt.NewStrategy(jwt.Config{Secret: "test-secret"})
	require.NoError(t, err)

	base := []auth.Option{
		auth.WithHasher(password.NewBcryptHasher(password.WithCost(4))),
		auth.WithLogger(logger.NewNop()),
	}
	e, err := auth.NewEngine(store, strategy, append(base, opts...)...)
	require.NoError(t, err)
	return e
}

func registerInput(email, pass string) map[string]any {
	return map[string]any{"email": email, "password": pass}
}

func TestNewEngineRequiresCollaborators(t *testing.T) {
	strategy, err := jwt.NewStrategy(jwt.Config{Secret: "x"})
	require.NoError(t, err)

	_, err = auth.NewEngine(nil, strategy)
	assert.Error(t, err)
	_, err = auth.NewEngine(memory.New(), nil)
	assert.Error(t, err)
}

func TestRegisterLoginVerifyScenario(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	e := newEngine(t, store)

	res := e.Register(ctx, registerInput("a@b.com", "secret1"))
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "a@b.com", res.User.Email)
	assert.Empty(t, res.User.PasswordHash)
	assert.NotEmpty(t, res.Token)
	assert.Empty(t, res.Error)
	assert.Nil(t, res.Errors)

	body, err := json.Marshal(res.User)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), "$2a$")

	verified := e.VerifyToken(ctx, res.Token)
	require.True(t, verified.Success, verified.Error)
	assert.Equal(t, res.User.ID, verified.User.ID)

	dup := e.Register(ctx, registerInput("a@b.com", "secret1"))
	assert.False(t, dup.Success)
	assert.Equal(t, auth.MsgUserExists, dup.Error)
	assert.Equal(t, "This email is already registered", dup.Errors["email"])
	assert.Equal(t, 1, store.Len(), "duplicate registration must not create a record")

	wrong := e.Login(ctx, auth.Credentials{Email: "a@b.com", Password: "wrong"})
	assert.False(t, wrong.Success)
	assert.Equal(t, "Invalid credentials", wrong.Error)
	assert.Equal(t, map[string]string{"general": "Invalid email or password"}, wrong.Errors)

	ok := e.Login(ctx, auth.Credentials{Email: "a@b.com", Password: "secret1"})
	require.True(t, ok.Success, ok.Error)
	assert.NotEmpty(t, ok.Token)
	assert.Empty(t, ok.User.PasswordHash)

	again := e.VerifyToken(ctx, ok.Token)
	require.True(t, again.Success)
	assert.Equal(t, res.User.ID, again.User.ID)
}

func TestRegisterDuplicateIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	e := newEngine(t, store)

	require.True(t, e.Register(ctx, registerInput("Mixed@Case.com", "secret1")).Success)
	dup := e.Register(ctx, registerInput("mixed@case.COM", "secret1"))
	assert.False(t, dup.Success)
	assert.Equal(t, auth.MsgEmailRegistered, dup.Errors["email"])
	assert.Equal(t, 1, store.Len())
}

func TestLoginEnumerationResistance(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, memory.New())
	require.True(t, e.Register(ctx, registerInput("a@b.com", "secret1")).Success)

	wrongPassword := e.Login(ctx, auth.Credentials{Email: "a@b.com", Password: "nope"})
	unknownEmail := e.Login(ctx, auth.Credentials{Email: "ghost@b.com", Password: "nope"})

	assert.Equal(t, wrongPassword, unknownEmail)
	a, err := json.Marshal(wrongPassword)
	require.NoError(t, err)
	b, err := json.Marshal(unknownEmail)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.JSONEq(t, `{"success":false,"error":"Invalid credentials","errors":{"general":"Invalid email or password"}}`, string(a))
}

func TestLoginUserWithoutPasswordHash(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_, err := store.CreateUser(ctx, &auth.User{Email: "sso@b.com"})
	require.NoError(t, err)

	res := newEngine(t, store).Login(ctx, auth.Credentials{Email: "sso@b.com", Password: "anything"})
	assert.False(t, res.Success)
	assert.Equal(t, auth.MsgInvalidCredentials, res.Error)
	assert.Equal(t, auth.MsgInvalidEmailOrPass, res.Errors["general"])
}

func TestLoginUpgradesStaleHash(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.True(t, newEngine(t, store).Register(ctx, registerInput("a@b.com", "secret1")).Success)

	argon := password.NewHasher(password.Config{
		Algorithm:     password.AlgorithmArgon2id,
		Argon2Memory:  1024,
		Argon2Threads: 1,
	})
	e := newEngine(t, store, auth.WithHasher(argon))

	require.True(t, e.Login(ctx, auth.Credentials{Email: "a@b.com", Password: "secret1"}).Success)
	stored, err := store.FindUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, password.AlgorithmArgon2id, password.Identify(stored.PasswordHash))

	assert.True(t, e.Login(ctx, auth.Credentials{Email: "a@b.com", Password: "secret1"}).Success)
	assert.False(t, e.Login(ctx, auth.Credentials{Email: "a@b.com", Password: "wrong"}).Success)
}

func TestLoginKeepsStrongerHash(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	strong := newEngine(t, store, auth.WithHasher(password.NewBcryptHasher(password.WithCost(6))))
	require.True(t, strong.Register(ctx, registerInput("a@b.com", "secret1")).Success)
	before, err := store.FindUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)

	require.True(t, newEngine(t, store).Login(ctx, auth.Credentials{Email: "a@b.com", Password: "secret1"}).Success)
	after, err := store.FindUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
}

func TestLoginFixedSchema(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, memory.New(), auth.WithValidation(auth.ValidationConfig{
		Email: validation.NonEmpty("anything goes"),
	}))

	tests := []struct {
		name   string
		creds  auth.Credentials
		field  string
		errMsg string
	}{
		{"invalid email", auth.Credentials{Email: "not-an-email", Password: "x"}, "email", validation.MsgInvalidEmail},
		{"missing email", auth.Credentials{Password: "x"}, "email", validation.MsgRequired},
		{"missing password", auth.Credentials{Email: "a@b.com"}, "password", validation.MsgRequired},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := e.Login(ctx, tc.creds)
			assert.False(t, res.Success)
			assert.Equal(t, tc.errMsg, res.Errors[tc.field])
			assert.Equal(t, tc.errMsg, res.Error)
		})
	}
}

func TestLoginInput(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, memory.New())
	require.True(t, e.Register(ctx, registerInput("a@b.com", "secret1")).Success)

	res := e.LoginInput(ctx, map[string]any{"email": " a@b.com ", "password": "secret1"})
	assert.True(t, res.Success, res.Error)

	res = e.LoginInput(ctx, map[string]any{"email": "a@b.com", "password": 123456})
	assert.False(t, res.Success)
	assert.Equal(t, validation.MsgRequired, res.Errors["password"])
}

func TestRegisterValidationFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	e := newEngine(t, store)

	res := e.Register(ctx, registerInput("bad", "123"))
	assert.False(t, res.Success)
	assert.Equal(t, validation.MsgInvalidEmail, res.Errors["email"])
	assert.Equal(t, "Must be at least 6 characters", res.Errors["password"])
	assert.Contains(t, []string{res.Errors["email"], res.Errors["password"]}, res.Error)
	assert.Zero(t, store.Len())

	res = e.Register(ctx, map[string]any{})
	assert.False(t, res.Success)
	assert.Len(t, res.Errors, 2)
}

func TestRegisterPasswordTooLongForBcrypt(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	e := newEngine(t, store)

	res := e.Register(ctx, registerInput("a@b.com", strings.Repeat("x", 80)))
	assert.False(t, res.Success)
	assert.Equal(t, "Must be 72 bytes or less", res.Errors["password"])
	assert.Equal(t, res.Errors["password"], res.Error)
	assert.NotContains(t, res.Error, auth.MsgRegistrationFailed)
	assert.Zero(t, store.Len())
}

func TestRegisterCustomFieldMinimum(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	e := newEngine(t, store, auth.WithValidation(auth.ValidationConfig{
		Fields: validation.Rules{"age": validation.Min(18)},
	}))

	input := registerInput("kid@b.com", "secret1")
	input["age"] = 15
	res := e.Register(ctx, input)
	assert.False(t, res.Success)
	assert.Equal(t, "Must be at least 18", res.Errors["age"])
	assert.Equal(t, "Must be at least 18", res.Error)
	assert.Zero(t, store.Len(), "rejected registration must not create a user")

	input = registerInput("adult@b.com", "secret1")
	input["age"] = 21
	input["nickname"] = "neo"
	res = e.Register(ctx, input)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 21, res.User.Fields["age"])
	assert.Equal(t, "neo", res.User.Fields["nickname"], "undeclared fields pass through")
	assert.NotContains(t, res.User.Fields, "email")
	assert.NotContains(t, res.User.Fields, "password")
}

func TestRegisterOverridesReplaceDefaults(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, memory.New(), auth.WithValidation(auth.ValidationConfig{
		Password: validation.MinLength(10),
	}))

	res := e.Register(ctx, registerInput("a@b.com", "secret1"))
	assert.False(t, res.Success)
	assert.Equal(t, "Must be at least 10 characters", res.Errors["password"])

	res = e.Register(ctx, registerInput("a@b.com", "long-enough-secret"))
	assert.True(t, res.Success, res.Error)
}

func TestRegisterCustomValidatorShortCircuits(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	called := 0
	e := newEngine(t, store, auth.WithValidation(auth.ValidationConfig{
		Custom: func(_ context.Context, input map[string]any) validation.FieldErrors {
			called++
			if input["password"] != input["confirmPassword"] {
				return validation.FieldErrors{"confirmPassword": "Passwords do not match"}
			}
			return nil
		},
	}))

	input := registerInput("not-an-email", "x")
	input["confirmPassword"] = "y"
	res := e.Register(ctx, input)
	assert.False(t, res.Success)
	assert.Equal(t, auth.MsgValidationFailed, res.Error)
	assert.Equal(t, map[string]string{"confirmPassword": "Passwords do not match"}, res.Errors)
	assert.Equal(t, 1, called)

	input = registerInput("a@b.com", "secret1")
	input["confirmPassword"] = "secret1"
	assert.True(t, e.Register(ctx, input).Success)
}

// faultyStore injects failures around a real store.
type faultyStore struct {
	auth.UserStore
	findErr      error
	createErr    error
	hideExisting bool
}

func (s *faultyStore) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.hideExisting {
		return nil, nil
	}
	return s.UserStore.FindUserByEmail(ctx, email)
}

func (s *faultyStore) CreateUser(ctx context.Context, u *auth.User) (*auth.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.UserStore.CreateUser(ctx, u)
}

func TestRegisterStorageFailure(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, &faultyStore{UserStore: memory.New(), createErr: errors.New("disk full")})

	res := e.Register(ctx, registerInput("a@b.com", "secret1"))
	assert.False(t, res.Success)
	assert.Equal(t, "Registration failed: disk full", res.Error)
	assert.Nil(t, res.Errors)
}

func TestLoginStorageFailure(t *testing.T) {
	e := newEngine(t, &faultyStore{UserStore: memory.New(), findErr: errors.New("connection refused")})

	res := e.Login(context.Background(), auth.Credentials{Email: "a@b.com", Password: "secret1"})
	assert.False(t, res.Success)
	assert.Equal(t, "Login failed: connection refused", res.Error)
}

func TestRegisterLostRaceMapsToDuplicate(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	_, err := inner.CreateUser(ctx, &auth.User{Email: "a@b.com", PasswordHash: "x"})
	require.NoError(t, err)

	e := newEngine(t, &faultyStore{UserStore: inner, hideExisting: true})
	res := e.Register(ctx, registerInput("a@b.com", "secret1"))
	assert.False(t, res.Success)
	assert.Equal(t, auth.MsgUserExists, res.Error)
	assert.Equal(t, auth.MsgEmailRegistered, res.Errors["email"])
	assert.Equal(t, 1, inner.Len())
}

func TestConcurrentRegistrationSameEmail(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	e := newEngine(t, store)

	const workers = 6
	results := make([]*auth.Result, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = e.Register(ctx, registerInput("race@b.com", "secret1"))
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, res := range results {
		if res.Success {
			succeeded++
			continue
		}
		assert.Equal(t, auth.MsgUserExists, res.Error)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, store.Len())
}

func TestHooks(t *testing.T) {
	ctx := context.Background()
	var registered, loggedIn, loggedOut *auth.User
	e := newEngine(t, memory.New(), auth.WithHooks(auth.Hooks{
		OnRegister: func(_ context.Context, u *auth.User) error { registered = u; return nil },
		OnLogin:    func(_ context.Context, u *auth.User) error { loggedIn = u; return nil },
		OnLogout:   func(_ context.Context, u *auth.User) error { loggedOut = u; return nil },
	}))

	res := e.Register(ctx, registerInput("a@b.com", "secret1"))
	require.True(t, res.Success)
	require.NotNil(t, registered)
	assert.NotEmpty(t, registered.PasswordHash, "hooks receive the unsanitized record")
	assert.Empty(t, res.User.PasswordHash)

	require.True(t, e.Login(ctx, auth.Credentials{Email: "a@b.com", Password: "secret1"}).Success)
	require.NotNil(t, loggedIn)
	assert.Equal(t, res.User.ID, loggedIn.ID)

	require.NoError(t, e.Logout(ctx, res.User))
	assert.Equal(t, res.User, loggedOut)
}

func TestHookFailurePropagates(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("welcome email failed")

	e := newEngine(t, memory.New(), auth.WithHooks(auth.Hooks{
		OnRegister: func(context.Context, *auth.User) error { return boom },
	}))
	res := e.Register(ctx, registerInput("a@b.com", "secret1"))
	assert.False(t, res.Success)
	assert.Equal(t, "Registration failed: welcome email failed", res.Error)
	assert.Empty(t, res.Token)

	e = newEngine(t, memory.New(), auth.WithHooks(auth.Hooks{
		OnLogin:  func(context.Context, *auth.User) error { return boom },
		OnLogout: func(context.Context, *auth.User) error { return boom },
	}))
	require.True(t, e.Register(ctx, registerInput("a@b.com", "secret1")).Success)
	res = e.Login(ctx, auth.Credentials{Email: "a@b.com", Password: "secret1"})
	assert.Equal(t, "Login failed: welcome email failed", res.Error)
	assert.ErrorIs(t, e.Logout(ctx, &auth.User{ID: "x"}), boom)
}

func TestLogoutWithoutHook(t *testing.T) {
	e := newEngine(t, memory.New())
	assert.NoError(t, e.Logout(context.Background(), nil))
}

func TestGetUser(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, memory.New())
	res := e.Register(ctx, registerInput("a@b.com", "secret1"))
	require.True(t, res.Success)

	first, err := e.GetUser(ctx, res.User.ID)
	require.NoError(t, err)
	second, err := e.GetUser(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Empty(t, first.PasswordHash)

	missing, err := e.GetUser(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateAndDeleteUser(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, memory.New())
	res := e.Register(ctx, registerInput("a@b.com", "secret1"))
	require.True(t, res.Success)

	email := "new@b.com"
	updated, err := e.UpdateUser(ctx, res.User.ID, auth.UserUpdate{
		Email:  &email,
		Fields: map[string]any{"nickname": "neo"},
	})
	require.NoError(t, err)
	assert.Equal(t, email, updated.Email)
	assert.Equal(t, "neo", updated.Fields["nickname"])
	assert.Empty(t, updated.PasswordHash)

	assert.True(t, e.Login(ctx, auth.Credentials{Email: "new@b.com", Password: "secret1"}).Success)

	_, err = e.UpdateUser(ctx, "missing", auth.UserUpdate{})
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	require.NoError(t, e.DeleteUser(ctx, res.User.ID))
	gone, err := e.GetUser(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	assert.NoError(t, e.DeleteUser(ctx, res.User.ID), "deleting twice is a no-op")
}

func TestSanitize(t *testing.T) {
	e := newEngine(t, memory.New())
	assert.Nil(t, e.Sanitize(nil))

	u := &auth.User{ID: "1", PasswordHash: "hash", Fields: map[string]any{"password": "x", "nickname": "neo"}}
	out := e.Sanitize(u)
	assert.Empty(t, out.PasswordHash)
	assert.NotContains(t, out.Fields, "password")
	assert.Equal(t, "neo", out.Fields["nickname"])
	assert.Equal(t, "hash", u.PasswordHash, "input must not be modified")
	assert.Contains(t, u.Fields, "password")
}

func TestAuthenticateDelegatesToStrategy(t *testing.T) {
	e := newEngine(t, memory.New())
	res := e.Authenticate(context.Background(), map[string]any{"email": "a@b.com"})
	assert.False(t, res.Success)
	assert.Equal(t, jwt.MsgAuthenticateUnsupported, res.Error)
}

func TestVerifyTokenFailures(t *testing.T) {
	e := newEngine(t, memory.New())
	res := e.VerifyToken(context.Background(), "garbage")
	assert.False(t, res.Success)
	assert.Equal(t, auth.MsgInvalidToken, res.Error)
}

func TestSecretsNeverLogged(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, &logger.Config{Level: "debug", Format: logger.FormatJSON}, "authkit")
	e := newEngine(t, memory.New(), auth.WithLogger(log))

	reg := e.Register(ctx, registerInput("a@b.com", "supersecret1"))
	require.True(t, reg.Success)
	login := e.Login(ctx, auth.Credentials{Email: "a@b.com", Password: "supersecret1"})
	require.True(t, login.Success)
	e.Login(ctx, auth.Credentials{Email: "a@b.com", Password: "wrongsecret"})

	out := buf.String()
	assert.NotEmpty(t, out)
	assert.NotContains(t, out, "supersecret1")
	assert.NotContains(t, out, "wrongsecret")
	assert.NotContains(t, out, reg.Token)
	assert.NotContains(t, out, login.Token)
	assert.NotContains(t, out, "$2a$")
}

func TestOperationsAreTraced(t *testing.T) {
	ctx := context.Background()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(ctx)

	e := newEngine(t, memory.New(), auth.WithTracer(tp.Tracer("test")))
	require.True(t, e.Register(ctx, registerInput("a@b.com", "secret1")).Success)
	e.Login(ctx, auth.Credentials{Email: "a@b.com", Password: "wrong"})

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, observability.SpanRegister, spans[0].Name())
	assert.Equal(t, observability.SpanLogin, spans[1].Name())

	outcome := func(s sdktrace.ReadOnlySpan) string {
		for _, a := range s.Attributes() {
			if string(a.Key) == observability.AttrOutcome {
				return a.Value.AsString()
			}
		}
		return ""
	}
	assert.Equal(t, observability.OutcomeSuccess, outcome(spans[0]))
	assert.Equal(t, observability.OutcomeRejected, outcome(spans[1]))
}
