// Package jwt provides the default auth.TokenStrategy: signed, stateless JWTs.
//
// The claim set carries sub (user id), email, and every non-secret user
// attribute; the password hash is never embedded. Expiration is enforced at
// verification time.
//
// Usage:
//
//	strategy, err := jwt.NewStrategy(jwt.Config{Secret: "change-me", TTL: 24 * time.Hour})
//	token, err := strategy.GenerateToken(ctx, user)
//	res := strategy.Verify(ctx, token) // res.User.ID == user.ID
package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/authkit/auth"
)

// MsgAuthenticateUnsupported is the fixed failure returned by Authenticate.
const MsgAuthenticateUnsupported = "JWT strategy does not support direct authentication. Use login instead."

// Registered claim names. User attributes with these names are not copied
// into the token.
const (
	claimSubject   = "sub"
	claimIssuedAt  = "iat"
	claimExpiresAt = "exp"
	claimNotBefore = "nbf"
	claimIssuer    = "iss"
	claimAudience  = "aud"
	claimID        = "jti"
)

// Strategy issues and verifies JWT credentials.
type Strategy struct {
	cfg Config
}

var _ auth.TokenStrategy = (*Strategy)(nil)

// NewStrategy creates a JWT strategy. Defaults are applied before validation.
func NewStrategy(cfg Config) (*Strategy, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Strategy{cfg: cfg}, nil
}

// TTL returns the configured credential lifetime.
func (s *Strategy) TTL() time.Duration { return s.cfg.TTL }

// Method returns the configured signing algorithm.
func (s *Strategy) Method() SigningMethod { return s.cfg.Method }

// GenerateToken signs a credential for user, valid from now for the
// configured TTL.
func (s *Strategy) GenerateToken(_ context.Context, user *auth.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", errors.New("jwt: user id is required")
	}

	claims := gojwt.MapClaims{}
	for k, v := range user.Fields {
		if isRegisteredClaim(k) || k == auth.FieldPassword {
			continue
		}
		claims[k] = v
	}
	claims[claimSubject] = user.ID
	claims[auth.FieldEmail] = user.Email
	if !user.CreatedAt.IsZero() {
		claims[auth.FieldCreatedAt] = user.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if !user.UpdatedAt.IsZero() {
		claims[auth.FieldUpdatedAt] = user.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}

	now := s.cfg.Now()
	claims[claimIssuedAt] = gojwt.NewNumericDate(now)
	claims[claimExpiresAt] = gojwt.NewNumericDate(now.Add(s.cfg.TTL))
	if s.cfg.Issuer != "" {
		claims[claimIssuer] = s.cfg.Issuer
	}
	if len(s.cfg.Audience) > 0 {
		claims[claimAudience] = gojwt.ClaimStrings(s.cfg.Audience)
	}

	token := gojwt.NewWithClaims(s.cfg.signingMethod(), claims)
	signed, err := token.SignedString(s.cfg.signKey())
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// Verify validates signature, expiry and, when configured, issuer and
// audience. Failures are reported as "Invalid token", "Token expired" or
// "Token verification failed".
func (s *Strategy) Verify(_ context.Context, tokenString string) *auth.Result {
	claims := gojwt.MapClaims{}
	token, err := gojwt.ParseWithClaims(tokenString, claims, s.keyFunc, s.parserOptions()...)
	if err != nil {
		return auth.Failed(classify(err))
	}
	if !token.Valid {
		return auth.Failed(auth.MsgInvalidToken)
	}

	user, err := userFromClaims(claims)
	if err != nil {
		return auth.Failed(auth.MsgInvalidToken)
	}
	return auth.Succeeded(user, "")
}

// Authenticate is not supported: JWTs are issued by the login flow.
func (s *Strategy) Authenticate(context.Context, map[string]any) *auth.Result {
	return auth.Failed(MsgAuthenticateUnsupported)
}

func classify(err error) string {
	switch {
	case errors.Is(err, gojwt.ErrTokenExpired):
		return auth.MsgTokenExpired
	case errors.Is(err, gojwt.ErrTokenMalformed),
		errors.Is(err, gojwt.ErrTokenSignatureInvalid),
		errors.Is(err, gojwt.ErrTokenUnverifiable):
		return auth.MsgInvalidToken
	default:
		return auth.MsgTokenVerifyFailed
	}
}

func userFromClaims(claims gojwt.MapClaims) (*auth.User, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.New("jwt: missing subject")
	}

	user := &auth.User{ID: sub}
	for k, v := range claims {
		switch {
		case isRegisteredClaim(k):
		case k == auth.FieldEmail:
			user.Email, _ = v.(string)
		case k == auth.FieldCreatedAt:
			user.CreatedAt = parseClaimTime(v)
		case k == auth.FieldUpdatedAt:
			user.UpdatedAt = parseClaimTime(v)
		case k == auth.FieldID:
		default:
			if user.Fields == nil {
				user.Fields = make(map[string]any)
			}
			user.Fields[k] = v
		}
	}
	return user, nil
}

func parseClaimTime(v any) time.Time {
	s, _ := v.(string)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isRegisteredClaim(name string) bool {
	switch name {
	case claimSubject, claimIssuedAt, claimExpiresAt, claimNotBefore, claimIssuer, claimAudience, claimID:
		return true
	}
	return false
}

// keyFunc is the jwt.Keyfunc used during token parsing.
func (s *Strategy) keyFunc(token *gojwt.Token) (any, error) {
	expected := s.cfg.signingMethod()
	if token.Method.Alg() != expected.Alg() {
		return nil, fmt.Errorf("jwt: unexpected signing method: %s", token.Method.Alg())
	}
	return s.cfg.verifyKey(), nil
}

// parserOptions returns jwt.ParserOption based on config.
func (s *Strategy) parserOptions() []gojwt.ParserOption {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{s.cfg.signingMethod().Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(s.cfg.Now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.cfg.Issuer))
	}
	if len(s.cfg.Audience) > 0 {
		opts = append(opts, gojwt.WithAudience(s.cfg.Audience[0]))
	}
	return opts
}
