package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kbukum/authkit/logger"
)

// HeaderRequestID carries the request identifier in both directions.
const HeaderRequestID = "X-Request-Id"

// RequestID ensures every request has an X-Request-Id, echoes it on the
// response and stores it in the context for log correlation.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
				r.Header.Set(HeaderRequestID, id)
			}
			w.Header().Set(HeaderRequestID, id)
			next.ServeHTTP(w, r.WithContext(logger.ContextWithRequestID(r.Context(), id)))
		})
	}
}
