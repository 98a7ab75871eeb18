package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authkit/version"
)

var startTime = time.Now()

// Info returns a handler reporting build information and uptime.
func Info(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := version.Get()
		c.JSON(http.StatusOK, gin.H{
			"service":    serviceName,
			"version":    v.Version,
			"git_commit": v.GitCommit,
			"build_time": v.BuildTime,
			"go_version": v.GoVersion,
			"is_dirty":   v.IsDirty,
			"uptime":     time.Since(startTime).Round(time.Second).String(),
		})
	}
}
