package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/auth/jwt"
	"github.com/kbukum/authkit/auth/memory"
	"github.com/kbukum/authkit/auth/password"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/observability"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	strategy, err := jwt.NewStrategy(jwt.Config{Secret: "server-secret"})
	require.NoError(t, err)
	engine, err := auth.NewEngine(memory.New(), strategy,
		auth.WithHasher(password.NewBcryptHasher(password.WithCost(4))),
		auth.WithLogger(logger.NewNop()),
	)
	require.NoError(t, err)

	s := New(cfg, logger.NewNop())
	s.ApplyMiddleware(nil)
	s.RegisterDefaultEndpoints("authkit", func(ctx context.Context) []observability.Health {
		return []observability.Health{observability.CheckPing(ctx, "store", engine.Ping)}
	})
	s.RegisterAuthRoutes(engine)
	return s
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/auth", cfg.BasePath)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.NoError(t, cfg.Validate())

	bad := []Config{
		{Port: 70000},
		{Port: 80, ReadTimeout: -1},
		{Port: 80, BasePath: "api"},
	}
	for _, c := range bad {
		assert.Error(t, c.Validate(), "%+v", c)
	}
}

func TestServer_RoutesAndMiddleware(t *testing.T) {
	s := newTestServer(t, Config{})
	h := s.Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email":"trinity@zion.io","password":"secret1"}`))
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), `"code":"NOT_FOUND"`)
}

func TestServer_StartStop(t *testing.T) {
	s := newTestServer(t, Config{Host: "127.0.0.1", Port: 0})
	// Port 0 is replaced by the default, so bind an ephemeral port directly.
	s.httpServer.Addr = "127.0.0.1:0"

	require.NoError(t, s.Start(context.Background()))
	resp, err := http.Get("http://" + s.Addr() + "/alive")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Stop(context.Background()))
}
