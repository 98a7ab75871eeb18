package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/auth/authctx"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/server/middleware"
)

// Messages written by the auth routes.
const (
	MsgNotAuthenticated = "Not authenticated"
	MsgInvalidBody      = "Invalid request body"
)

// Authenticator is the subset of *auth.Engine the routes need.
type Authenticator interface {
	auth.Verifier
	Register(ctx context.Context, input map[string]any) *auth.Result
	LoginInput(ctx context.Context, input map[string]any) *auth.Result
	Logout(ctx context.Context, user *auth.User) error
	Sanitize(user *auth.User) *auth.User
	Ping(ctx context.Context) error
}

var _ Authenticator = (*auth.Engine)(nil)

// reply is a status plus JSON body produced by a route, independent of the
// router that serves it.
type reply struct {
	status int
	body   any
}

type routes struct {
	engine Authenticator
	log    *logger.Logger
}

func newRoutes(engine Authenticator) *routes {
	return &routes{engine: engine, log: logger.Get(logger.ComponentHTTP)}
}

// decodeInput reads a JSON object body. An empty body is an empty object.
func decodeInput(body io.Reader) (map[string]any, error) {
	input := map[string]any{}
	if body == nil {
		return input, nil
	}
	err := json.NewDecoder(body).Decode(&input)
	if errors.Is(err, io.EOF) {
		return map[string]any{}, nil
	}
	if input == nil {
		input = map[string]any{}
	}
	return input, err
}

func (rt *routes) register(ctx context.Context, body io.Reader) reply {
	input, err := decodeInput(body)
	if err != nil {
		return reply{http.StatusBadRequest, auth.Failed(MsgInvalidBody)}
	}
	res := rt.engine.Register(ctx, input)
	if !res.Success {
		return reply{http.StatusBadRequest, res}
	}
	return reply{http.StatusCreated, res}
}

func (rt *routes) login(ctx context.Context, body io.Reader) reply {
	input, err := decodeInput(body)
	if err != nil {
		return reply{http.StatusBadRequest, auth.Failed(MsgInvalidBody)}
	}
	res := rt.engine.LoginInput(ctx, input)
	if !res.Success {
		return reply{http.StatusUnauthorized, res}
	}
	return reply{http.StatusOK, res}
}

// logout always succeeds from the client's view; hook failures are logged.
func (rt *routes) logout(ctx context.Context) reply {
	if user, ok := authctx.User(ctx); ok {
		if err := rt.engine.Logout(ctx, user); err != nil {
			rt.log.WithContext(ctx).Warn("Logout hook failed",
				logger.Fields(logger.FieldUserID, user.ID, logger.FieldError, err.Error()))
		}
	}
	return reply{http.StatusOK, auth.Result{Success: true}}
}

func (rt *routes) me(ctx context.Context) reply {
	user, ok := authctx.User(ctx)
	if !ok {
		return reply{http.StatusUnauthorized, auth.Failed(MsgNotAuthenticated)}
	}
	return reply{http.StatusOK, auth.Result{Success: true, User: rt.engine.Sanitize(user)}}
}

func (rt *routes) ginHandler(fn func(c *gin.Context) reply) gin.HandlerFunc {
	return func(c *gin.Context) {
		r := fn(c)
		c.JSON(r.status, r.body)
	}
}

func (rt *routes) httpHandler(fn func(r *http.Request) reply) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := fn(r)
		middleware.WriteJSON(w, out.status, out.body)
	}
}

// RegisterAuthRoutes mounts the auth routes on a gin router:
//
//	POST /register  201 | 400
//	POST /login     200 | 401
//	POST /logout    200
//	GET  /me        200 | 401
//	GET  /health    200 | 503
func RegisterAuthRoutes(r gin.IRouter, engine Authenticator) {
	rt := newRoutes(engine)
	identify := middleware.OptionalAuth(engine)

	r.POST("/register", rt.ginHandler(func(c *gin.Context) reply { return rt.register(c.Request.Context(), c.Request.Body) }))
	r.POST("/login", rt.ginHandler(func(c *gin.Context) reply { return rt.login(c.Request.Context(), c.Request.Body) }))
	r.POST("/logout", identify, rt.ginHandler(func(c *gin.Context) reply { return rt.logout(c.Request.Context()) }))
	r.GET("/me", identify, rt.ginHandler(func(c *gin.Context) reply { return rt.me(c.Request.Context()) }))
	r.GET("/health", Health("auth", engine.Ping))
}

// AuthRouter returns the same routes as a chi router, for mounting with
// r.Mount("/api/auth", endpoint.AuthRouter(engine)).
func AuthRouter(engine Authenticator) chi.Router {
	rt := newRoutes(engine)
	r := chi.NewRouter()

	r.Post("/register", rt.httpHandler(func(r *http.Request) reply { return rt.register(r.Context(), r.Body) }))
	r.Post("/login", rt.httpHandler(func(r *http.Request) reply { return rt.login(r.Context(), r.Body) }))
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuthHTTP(engine))
		r.Post("/logout", rt.httpHandler(func(r *http.Request) reply { return rt.logout(r.Context()) }))
		r.Get("/me", rt.httpHandler(func(r *http.Request) reply { return rt.me(r.Context()) }))
	})
	r.Get("/health", HealthHTTP("auth", engine.Ping))
	return r
}
