// Package authctx carries the authenticated user through a request context.
//
// Middleware stores the verified identity; handlers read it back:
//
//	ctx = authctx.SetUser(ctx, res.User)
//
//	user, ok := authctx.User(ctx)
//	user := authctx.MustUser(ctx) // panics if missing
package authctx

import (
	"context"
	"errors"

	"github.com/kbukum/authkit/auth"
)

// contextKey is an unexported type to prevent collisions with other packages.
type contextKey int

const (
	userKey contextKey = iota
	tokenKey
)

// ErrNoUser is returned when no authenticated user is in the context.
var ErrNoUser = errors.New("authctx: no authenticated user in context")

// SetUser stores the authenticated user in the context. A nil user leaves
// ctx unchanged.
func SetUser(ctx context.Context, user *auth.User) context.Context {
	if user == nil {
		return ctx
	}
	return context.WithValue(ctx, userKey, user)
}

// User returns the authenticated user and true, or nil and false.
func User(ctx context.Context) (*auth.User, bool) {
	user, ok := ctx.Value(userKey).(*auth.User)
	return user, ok && user != nil
}

// MustUser returns the authenticated user.
// Panics if missing; use behind RequireAuth only.
func MustUser(ctx context.Context) *auth.User {
	user, ok := User(ctx)
	if !ok {
		panic("authctx: user not found in context")
	}
	return user
}

// UserOrError returns the authenticated user or ErrNoUser.
func UserOrError(ctx context.Context) (*auth.User, error) {
	user, ok := User(ctx)
	if !ok {
		return nil, ErrNoUser
	}
	return user, nil
}

// SetToken stores the raw bearer credential the user was resolved from.
func SetToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// Token returns the bearer credential stored by SetToken.
func Token(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok && token != ""
}
