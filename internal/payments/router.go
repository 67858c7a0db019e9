package payments

import (
	"github.com/gin-gonic/gin"
)

// SetupPaymentRoutes configures payment reconciliation routes
func SetupPaymentRoutes(rg *gin.RouterGroup, controller *Controller) {
	payments := rg.Group("/payments")
	{
		// Gateway push notifications; authenticated by signature, not JWT.
		payments.POST("/notifications", controller.HandleNotification)

		// Client- or operator-triggered active status pull.
		payments.POST("/orders/:number/check", controller.CheckStatus)
	}
}
