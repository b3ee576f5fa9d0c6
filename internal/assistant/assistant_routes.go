package assistant

import (
	"go-leave-assistant/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	perUser gin.HandlerFunc,
	idempotency gin.HandlerFunc,
) {
	r.POST("/chat",
		middleware.RBACAuthorize(rbacService, "chat", "create"),
		perUser,
		idempotency,
		handler.Chat,
	)
}
