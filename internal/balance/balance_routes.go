package balance

import (
	"go-leave-assistant/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
) {
	balances := r.Group("/leave/balances")
	{
		balances.GET("", middleware.RBACAuthorize(rbacService, "balance", "read"), handler.GetBalances)
	}
}
