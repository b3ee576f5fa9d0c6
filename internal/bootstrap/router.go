package bootstrap

import (
	"context"
	"net/http"
	"time"

	"go-leave-assistant/internal/config"
	"go-leave-assistant/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const healthTimeout = 2 * time.Second

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// NewEngine builds the gin engine with the process-wide middleware chain
// and the /health and /metrics endpoints.
func NewEngine(cfg *config.Config, checks map[string]HealthCheck) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Metrics(),
		middleware.RateLimitByIP(rate.Limit(cfg.RateLimitRPS*10), cfg.RateLimitBurst*10),
	)

	r.GET("/health", Health(checks))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// Health runs every check concurrently and answers 503 naming the
// dependencies that failed.
func Health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		results := make(map[string]string, len(checks))
		statuses := make([]string, 0, len(checks))
		names := make([]string, 0, len(checks))
		for name := range checks {
			names = append(names, name)
			statuses = append(statuses, "ok")
		}

		var g errgroup.Group
		for i, name := range names {
			check := checks[name]
			g.Go(func() error {
				if err := check(ctx); err != nil {
					statuses[i] = err.Error()
					return err
				}
				return nil
			})
		}
		err := g.Wait()

		for i, name := range names {
			results[name] = statuses[i]
		}
		status := http.StatusOK
		state := "ok"
		if err != nil {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "checks": results})
	}
}
