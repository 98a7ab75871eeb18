package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware wraps an http.Handler. Ambient middleware is applied at the
// server handler level so it covers gin routes and any other mounted
// handler alike.
type Middleware func(http.Handler) http.Handler

// Chain composes middleware. The first in the list is the outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// GinWrap adapts a Middleware for a single gin route or group. The gin
// chain is aborted when the middleware does not call through.
func GinWrap(mw Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		called := false
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			called = true
			c.Request = r
			c.Next()
		})
		mw(next).ServeHTTP(c.Writer, c.Request)
		if !called {
			c.Abort()
		}
	}
}
