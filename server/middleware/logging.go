package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/observability"
)

// RequestLogger returns middleware that logs every request with method,
// path, status code and duration. Health-check paths are skipped.
func RequestLogger(log *logger.Logger) Middleware {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isHealthEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)
			duration := time.Since(start)

			fields := map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.status,
				"bytes":       rec.bytes,
				"duration_ms": duration.Milliseconds(),
			}
			if duration > 500*time.Millisecond {
				fields["slow"] = true
			}
			logByStatus(log.WithContext(r.Context()), fields, rec.status)
		})
	}
}

// RequestMetrics records each request's count and latency. A nil Metrics
// disables recording.
func RequestMetrics(m *observability.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)
			m.RecordRequest(r.Context(), r.Method, r.URL.Path, rec.status, time.Since(start))
		})
	}
}

func isHealthEndpoint(path string) bool {
	for _, suffix := range []string{"/health", "/alive", "/ready", "/metrics"} {
		if path == suffix || (strings.HasPrefix(path, "/api") && strings.HasSuffix(path, suffix)) {
			return true
		}
	}
	return false
}

// logByStatus logs at error for 5xx, warn for 4xx and debug otherwise.
func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("Request completed", fields)
	case status >= 400:
		log.Warn("Request completed", fields)
	default:
		log.Debug("Request completed", fields)
	}
}
