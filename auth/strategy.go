package auth

import "context"

// TokenStrategy turns a user into a bearer credential and back.
// Strategies are selected when the Engine is built, independent of storage.
//
// Implementations:
//   - jwt.Strategy: signed, stateless JWTs (default)
//   - projects can supply opaque, API-key or other schemes
type TokenStrategy interface {
	// GenerateToken issues a credential bound to user.
	GenerateToken(ctx context.Context, user *User) (string, error)

	// Verify checks a credential and resolves it to a user.
	Verify(ctx context.Context, token string) *Result

	// Authenticate validates credentials directly. Token-only strategies
	// return a fixed failure.
	Authenticate(ctx context.Context, credentials map[string]any) *Result
}

// Verifier resolves a bearer credential to a Result. Middleware depends on
// this rather than on the Engine so it can be driven by any strategy.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) *Result
}

// VerifierFunc adapts an ordinary function to the Verifier interface.
//
//	mw := middleware.RequireAuth(auth.VerifierFunc(func(ctx context.Context, tok string) *auth.Result {
//	    return myCheck(ctx, tok)
//	}))
type VerifierFunc func(ctx context.Context, token string) *Result

// VerifyToken implements Verifier.
func (f VerifierFunc) VerifyToken(ctx context.Context, token string) *Result {
	return f(ctx, token)
}
