package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/auth/authctx"
	"github.com/kbukum/authkit/logger"
)

// ContextKeyUser is the gin context key holding the authenticated *auth.User.
const ContextKeyUser = "user"

// Messages written by the required-auth variants.
const (
	MsgHeaderRequired = "Authorization header required"
	MsgHeaderInvalid  = "Invalid authorization header format"
)

// BearerToken extracts the credential from an "Authorization: Bearer <token>"
// header value. The scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// authenticate resolves the request's credential. It returns the failure
// message when no identity could be established.
func authenticate(r *http.Request, v auth.Verifier) (*auth.Result, string, string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, "", MsgHeaderRequired
	}
	token, ok := BearerToken(header)
	if !ok {
		return nil, "", MsgHeaderInvalid
	}
	res := v.VerifyToken(r.Context(), token)
	if res == nil || !res.Success || res.User == nil {
		msg := auth.MsgInvalidToken
		if res != nil && res.Error != "" {
			msg = res.Error
		}
		return nil, token, msg
	}
	return res, token, ""
}

// withIdentity attaches the user and token for handlers, and the user id for
// context-aware loggers.
func withIdentity(r *http.Request, res *auth.Result, token string) *http.Request {
	ctx := authctx.SetUser(r.Context(), res.User)
	ctx = authctx.SetToken(ctx, token)
	if res.User != nil {
		ctx = logger.ContextWithUserID(ctx, res.User.ID)
	}
	return r.WithContext(ctx)
}

// RequireAuth returns a Gin middleware that rejects requests without a valid
// bearer credential with 401 and {success:false, error:<message>}.
func RequireAuth(v auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, token, msg := authenticate(c.Request, v)
		if res == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, auth.Failed(msg))
			return
		}
		c.Request = withIdentity(c.Request, res, token)
		c.Set(ContextKeyUser, res.User)
		c.Next()
	}
}

// OptionalAuth returns a Gin middleware that attaches the identity when a
// valid credential is present and otherwise continues unauthenticated.
func OptionalAuth(v auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if res, token, _ := authenticate(c.Request, v); res != nil {
			c.Request = withIdentity(c.Request, res, token)
			c.Set(ContextKeyUser, res.User)
		}
		c.Next()
	}
}

// RequireAuthHTTP is the net/http form of RequireAuth, usable with chi or
// any http.Handler.
func RequireAuthHTTP(v auth.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, token, msg := authenticate(r, v)
			if res == nil {
				WriteJSON(w, http.StatusUnauthorized, auth.Failed(msg))
				return
			}
			next.ServeHTTP(w, withIdentity(r, res, token))
		})
	}
}

// OptionalAuthHTTP is the net/http form of OptionalAuth.
func OptionalAuthHTTP(v auth.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if res, token, _ := authenticate(r, v); res != nil {
				r = withIdentity(r, res, token)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GinUser returns the user attached by RequireAuth or OptionalAuth.
func GinUser(c *gin.Context) (*auth.User, bool) {
	return authctx.User(c.Request.Context())
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
