package orders

import (
	"racereg/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupOrderRoutes configures all order-related routes
func SetupOrderRoutes(rg *gin.RouterGroup, controller *Controller) {
	// Public purchase flow
	orders := rg.Group("/orders")
	{
		orders.POST("", controller.Purchase)           // POST /api/v1/orders
		orders.GET("/:number", controller.GetOrder)    // GET /api/v1/orders/:number
	}

	// Committee order management. Pack pickup is also open to desk staff;
	// everything else is admin-only.
	committee := rg.Group("/admin/orders")
	committee.Use(middleware.JWTAuth())
	{
		committee.GET("", middleware.RequireAdmin(), controller.ListOrders)
		committee.POST("/:number/mark-paid", middleware.RequireAdmin(), controller.MarkPaid)
		committee.POST("/:number/cancel", middleware.RequireAdmin(), controller.CancelOrder)
		committee.POST("/:number/pack-pickup", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleStaff), controller.MarkPackCollected)
		committee.DELETE("/:number/pack-pickup", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleStaff), controller.RevertPackCollected)
	}
}
