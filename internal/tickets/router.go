package tickets

import (
	"racereg/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupTicketRoutes configures all ticket-category routes
func SetupTicketRoutes(rg *gin.RouterGroup, controller *Controller) {
	// Public browsing routes
	tickets := rg.Group("/tickets")
	{
		tickets.GET("", controller.ListCategories)    // GET /api/v1/tickets
		tickets.GET("/:id", controller.GetCategory)   // GET /api/v1/tickets/:id
	}

	// Admin management routes
	admin := rg.Group("/admin/tickets")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		admin.POST("", controller.CreateCategory)     // POST /api/v1/admin/tickets
		admin.PUT("/:id", controller.UpdateCategory)  // PUT /api/v1/admin/tickets/:id
	}
}
