package middleware

import (
	"go-leave-assistant/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextLogger stores a logger tagged with the request id and, once
// AuthMiddleware has run, the employee and role.
func ContextLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		fields := []zap.Field{zap.String("request_id", contextutil.GetRequestID(ctx))}
		if id := contextutil.GetEmployeeID(ctx); id != "" {
			fields = append(fields,
				zap.String("employee_id", id),
				zap.String("role", c.GetString("role")),
			)
		}
		c.Request = c.Request.WithContext(contextutil.WithLogger(ctx, logger.With(fields...)))
		c.Next()
	}
}
