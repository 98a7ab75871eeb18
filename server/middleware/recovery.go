package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/logger"
)

// Recovery returns middleware that turns a panic into a 500 AppError
// response and logs the stack. When the handler already started its
// response only the log line is written.
func Recovery(log *logger.Logger) Middleware {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := record(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.WithContext(r.Context()).Error("Panic recovered", map[string]interface{}{
					"error":  fmt.Sprintf("%v", rec),
					"stack":  string(debug.Stack()),
					"path":   r.URL.Path,
					"method": r.Method,
				})
				if rw.written {
					return
				}
				appErr := apperrors.Internal(fmt.Errorf("panic: %v", rec))
				WriteJSON(rw, appErr.StatusCode(), appErr.ToResponse())
			}()
			next.ServeHTTP(rw, r)
		})
	}
}
