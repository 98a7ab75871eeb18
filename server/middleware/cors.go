package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig holds CORS middleware configuration.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	// MaxAge is how long browsers may cache a preflight, in seconds.
	MaxAge int `mapstructure:"max_age"`
}

// ApplyDefaults allows any origin to call the auth endpoints with a bearer
// header.
func (c *CORSConfig) ApplyDefaults() {
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	}
}

// CORS sets CORS headers for allowed origins and answers preflight requests
// (OPTIONS carrying Access-Control-Request-Method) with 204. The header
// values are computed once from cfg.
func CORS(cfg *CORSConfig) Middleware {
	anyOrigin := slices.Contains(cfg.AllowedOrigins, "*")
	origins := slices.Clone(cfg.AllowedOrigins)
	static := http.Header{}
	if len(cfg.AllowedMethods) > 0 {
		static.Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowedMethods, ", "))
	}
	if len(cfg.AllowedHeaders) > 0 {
		static.Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowedHeaders, ", "))
	}
	if cfg.AllowCredentials {
		static.Set("Access-Control-Allow-Credentials", "true")
	}
	if cfg.MaxAge > 0 {
		static.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")
			origin := r.Header.Get("Origin")
			if origin != "" && (anyOrigin || slices.Contains(origins, origin)) {
				h.Set("Access-Control-Allow-Origin", origin)
				for k, v := range static {
					h[k] = v
				}
			}
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
