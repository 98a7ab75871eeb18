package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authkit/observability"
	"github.com/kbukum/authkit/server/middleware"
)

// HealthChecker reports the health of the service's components.
type HealthChecker func(ctx context.Context) []observability.Health

// PingChecker builds a HealthChecker from a single named ping.
func PingChecker(name string, ping func(context.Context) error) HealthChecker {
	return func(ctx context.Context) []observability.Health {
		return []observability.Health{observability.CheckPing(ctx, name, ping)}
	}
}

type healthResponse struct {
	*observability.ServiceHealth
	Timestamp string `json:"timestamp"`
}

func checkHealth(ctx context.Context, serviceName string, checker HealthChecker) (int, healthResponse) {
	sh := observability.NewServiceHealth(serviceName, "")
	if checker != nil {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		for _, h := range checker(checkCtx) {
			sh.AddComponent(h)
		}
	}
	status := http.StatusOK
	if sh.Status == observability.HealthStatusDown {
		status = http.StatusServiceUnavailable
	}
	return status, healthResponse{ServiceHealth: sh, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

// Health returns a gin handler that pings the store and answers 503 when it
// is down.
func Health(serviceName string, ping func(context.Context) error) gin.HandlerFunc {
	return HealthWithChecker(serviceName, PingChecker("store", ping))
}

// HealthWithChecker returns a gin handler aggregating checker's components.
func HealthWithChecker(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, body := checkHealth(c.Request.Context(), serviceName, checker)
		c.JSON(status, body)
	}
}

// HealthHTTP answers with the store ping result for net/http routers.
func HealthHTTP(serviceName string, ping func(context.Context) error) http.HandlerFunc {
	checker := PingChecker("store", ping)
	return func(w http.ResponseWriter, r *http.Request) {
		status, body := checkHealth(r.Context(), serviceName, checker)
		middleware.WriteJSON(w, status, body)
	}
}

// Liveness answers 200 while the process can serve HTTP.
func Liveness(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"service":   serviceName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
