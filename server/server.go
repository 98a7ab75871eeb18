package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/observability"
	"github.com/kbukum/authkit/server/endpoint"
	"github.com/kbukum/authkit/server/middleware"
)

// Server is an HTTP server backed by gin. Ambient middleware wraps the whole
// handler so it also covers handlers mounted with Handle.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	mux        *http.ServeMux
	config     Config
	log        *logger.Logger
	middleware []middleware.Middleware
	listener   net.Listener
}

// New creates a Server. Call ApplyMiddleware and register routes before
// Start.
func New(cfg Config, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logger.Get(logger.ComponentServer)
	}

	engine := gin.New()
	engine.NoRoute(NoRoute)
	mux := http.NewServeMux()
	mux.Handle("/", engine)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr(),
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		engine: engine,
		mux:    mux,
		config: cfg,
		log:    log,
	}
}

// GinEngine returns the gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine { return s.engine }

// Handle mounts an http.Handler beside gin, e.g. a chi router.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
	s.log.Debug("Handler mounted", map[string]interface{}{"pattern": pattern})
}

// Use appends server-level middleware. The first added is the outermost.
func (s *Server) Use(mw ...middleware.Middleware) {
	s.middleware = append(s.middleware, mw...)
}

// ApplyMiddleware installs the standard stack: recovery, request id,
// metrics, request logging, CORS and the body size limit.
func (s *Server) ApplyMiddleware(metrics *observability.Metrics) {
	s.Use(
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.RequestMetrics(metrics),
		middleware.RequestLogger(logger.Get(logger.ComponentHTTP)),
		middleware.CORS(&s.config.CORS),
		middleware.BodySizeLimit(s.config.MaxBodySize),
	)
}

// RegisterAuthRoutes mounts the auth routes under the configured base path.
func (s *Server) RegisterAuthRoutes(engine endpoint.Authenticator) {
	endpoint.RegisterAuthRoutes(s.engine.Group(s.config.BasePath), engine)
}

// RegisterDefaultEndpoints registers /health, /alive and /info.
func (s *Server) RegisterDefaultEndpoints(serviceName string, checker endpoint.HealthChecker) {
	s.engine.GET("/health", endpoint.HealthWithChecker(serviceName, checker))
	s.engine.GET("/alive", endpoint.Liveness(serviceName))
	s.engine.GET("/info", endpoint.Info(serviceName))
}

// Handler returns the fully wrapped root handler with h2c support.
func (s *Server) Handler() http.Handler {
	h := middleware.Chain(s.middleware...)(s.mux)
	return h2c.NewHandler(h, &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          s.config.IdleTimeout,
	})
}

// Start binds the port and serves in the background. It returns once the
// listener is bound.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer.Handler = s.Handler()
	s.httpServer.BaseContext = func(net.Listener) context.Context {
		return context.WithoutCancel(ctx)
	}

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.listener = listener

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Server error", map[string]interface{}{"error": err.Error()})
		}
	}()

	s.log.Info("HTTP server started", map[string]interface{}{"addr": listener.Addr().String()})
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.log.Info("HTTP server shut down")
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}
