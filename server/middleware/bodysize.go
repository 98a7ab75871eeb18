package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

const defaultMaxBodySize = 1 << 20 // 1MB

// BodySizeLimit returns middleware that caps the request body at the given
// size ("64KB", "1MB"). Unparseable sizes fall back to 1MB.
func BodySizeLimit(maxSize string) Middleware {
	size := ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}

// ParseSize parses sizes with an optional KB, MB or GB suffix.
func ParseSize(s string, defaultBytes int64) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	multiplier := int64(1)
	for suffix, m := range map[string]int64{"GB": 1 << 30, "MB": 1 << 20, "KB": 1 << 10} {
		if strings.HasSuffix(s, suffix) {
			multiplier = m
			s = strings.TrimSuffix(s, suffix)
			break
		}
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return defaultBytes
	}
	return n * multiplier
}
