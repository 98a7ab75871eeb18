package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/authkit/errors"
)

// RespondWithError writes err as an AppError envelope. Errors that are not
// AppErrors become a generic 500 so internals never leak.
func RespondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal(err)
	}
	c.AbortWithStatusJSON(appErr.StatusCode(), appErr.ToResponse())
}

// NoRoute answers unknown paths with a NOT_FOUND envelope.
func NoRoute(c *gin.Context) {
	RespondWithError(c, apperrors.New(apperrors.ErrCodeNotFound, "Route not found", http.StatusNotFound).
		WithDetail("path", c.Request.URL.Path))
}
