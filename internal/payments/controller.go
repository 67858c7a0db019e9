package payments

import (
	"errors"
	"net/http"
	"time"

	"racereg/internal/orders"
	"racereg/internal/shared/utils/response"
	"racereg/pkg/logger"

	"github.com/gin-gonic/gin"
	"log/slog"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// HandleNotification handles POST /api/v1/payments/notifications
//
// The gateway retries until it sees a success response, so every durably
// processed report answers 200, including unknown orders and duplicates.
// Only signature failures and transient errors ask for a retry.
func (c *Controller) HandleNotification(ctx *gin.Context) {
	var report StatusReport
	if err := ctx.ShouldBindJSON(&report); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid notification payload", nil, err.Error())
		return
	}

	if err := c.service.VerifySignature(&report); err != nil {
		logger.GetDefault().Warn("rejected notification with bad signature",
			slog.String("order_number", report.OrderNumber),
		)
		response.RespondJSON(ctx, "error", http.StatusForbidden, "Invalid signature", nil, nil)
		return
	}

	result, err := c.service.Apply(ctx.Request.Context(), &report, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrOrderNotFound):
			// Unknown order: acknowledge so the gateway stops retrying,
			// but take no state action.
			response.RespondJSON(ctx, "success", http.StatusOK, "Notification acknowledged", nil, nil)
		case errors.Is(err, orders.ErrInvalidTransition):
			// Out-of-order report against a terminal order. Durably
			// processed as far as the gateway is concerned.
			logger.GetDefault().Warn("ignored gateway report with invalid transition",
				slog.String("order_number", report.OrderNumber),
				slog.String("transaction_status", report.TransactionStatus),
			)
			response.RespondJSON(ctx, "success", http.StatusOK, "Notification acknowledged", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to process notification", nil, err.Error())
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Notification processed", result, nil)
}

// CheckStatus handles POST /api/v1/payments/orders/:number/check
func (c *Controller) CheckStatus(ctx *gin.Context) {
	result, err := c.service.CheckStatus(ctx.Request.Context(), ctx.Param("number"), time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrOrderNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Order not found", nil, nil)
		case errors.Is(err, ErrGatewayUnavailable):
			response.RespondJSON(ctx, "error", http.StatusBadGateway, "Payment gateway unavailable, retry later", nil, nil)
		case errors.Is(err, orders.ErrInvalidTransition):
			response.RespondJSON(ctx, "error", http.StatusUnprocessableEntity, "Reported status not applicable to order", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to check payment status", nil, err.Error())
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payment status reconciled", result, nil)
}
