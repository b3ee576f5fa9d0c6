package leave

import (
	"go-leave-assistant/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	idempotency gin.HandlerFunc,
) {
	apps := r.Group("/leave/applications")
	{
		apps.GET("", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.ListMine)
		apps.GET("/pending", middleware.RBACAuthorize(rbacService, "leave", "read_pending"), handler.ListPending)
		apps.GET("/:id", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetByID)
		apps.POST("/:id/approve", middleware.RBACAuthorize(rbacService, "leave", "approve"), idempotency, handler.Approve)
		apps.POST("/:id/reject", middleware.RBACAuthorize(rbacService, "leave", "reject"), idempotency, handler.Reject)
		apps.POST("/:id/cancel", middleware.RBACAuthorize(rbacService, "leave", "cancel"), idempotency, handler.Cancel)
	}
}
