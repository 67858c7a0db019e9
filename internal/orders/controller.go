package orders

import (
	"errors"
	"net/http"
	"time"

	"racereg/internal/shared/utils/response"
	"racereg/internal/tickets"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// Purchase handles POST /api/v1/orders
func (c *Controller) Purchase(ctx *gin.Context) {
	var req PurchaseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := c.service.Purchase(ctx.Request.Context(), req, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, tickets.ErrInsufficientStock):
			response.RespondJSON(ctx, "error", http.StatusConflict, "Not enough tickets available", nil, nil)
		case errors.Is(err, tickets.ErrSaleNotActive):
			response.RespondJSON(ctx, "error", http.StatusUnprocessableEntity, "Ticket sales are not open", nil, nil)
		case errors.Is(err, tickets.ErrCategoryNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Ticket category not found", nil, nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusBadGateway, "Failed to process purchase", nil, err.Error())
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Order created successfully", result, nil)
}

// GetOrder handles GET /api/v1/orders/:number
func (c *Controller) GetOrder(ctx *gin.Context) {
	order, err := c.service.GetOrderByNumber(ctx.Request.Context(), ctx.Param("number"))
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Order not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get order", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Order retrieved successfully", order.ToResponse(), nil)
}

// ListOrders handles GET /api/v1/admin/orders
func (c *Controller) ListOrders(ctx *gin.Context) {
	var query OrderListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	orders, totalCount, err := c.service.ListOrders(ctx.Request.Context(), query)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list orders", nil, err.Error())
		return
	}

	responses := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, orders[i].ToResponse())
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Orders retrieved successfully", gin.H{
		"orders":      responses,
		"total_count": totalCount,
		"page":        query.Page,
		"limit":       query.Limit,
	}, nil)
}

// MarkPaid handles POST /api/v1/admin/orders/:number/mark-paid
//
// Trusted internal override forcing a paid transition outside the gateway
// path; idempotence and bib allocation behave exactly as in reconciliation.
func (c *Controller) MarkPaid(ctx *gin.Context) {
	var req MarkPaidRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	method := req.PaymentMethod
	if method == "" {
		method = "manual"
	}

	order, changed, err := c.service.MarkPaid(ctx.Request.Context(), ctx.Param("number"), method, req.PaymentReference, time.Now().UTC())
	if err != nil {
		c.respondTransitionError(ctx, err)
		return
	}

	message := "Order marked as paid"
	if !changed {
		message = "Order was already paid"
	}
	response.RespondJSON(ctx, "success", http.StatusOK, message, order.ToResponse(), nil)
}

// CancelOrder handles POST /api/v1/admin/orders/:number/cancel
func (c *Controller) CancelOrder(ctx *gin.Context) {
	order, changed, err := c.service.Cancel(ctx.Request.Context(), ctx.Param("number"), time.Now().UTC())
	if err != nil {
		c.respondTransitionError(ctx, err)
		return
	}

	message := "Order cancelled successfully"
	if !changed {
		message = "Order was already cancelled"
	}
	response.RespondJSON(ctx, "success", http.StatusOK, message, order.ToResponse(), nil)
}

// MarkPackCollected handles POST /api/v1/admin/orders/:number/pack-pickup
func (c *Controller) MarkPackCollected(ctx *gin.Context) {
	var req PackPickupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	order, err := c.service.MarkPackCollected(ctx.Request.Context(), ctx.Param("number"), req.Collector, time.Now().UTC())
	if err != nil {
		c.respondTransitionError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Race pack marked as collected", order.ToResponse(), nil)
}

// RevertPackCollected handles DELETE /api/v1/admin/orders/:number/pack-pickup
func (c *Controller) RevertPackCollected(ctx *gin.Context) {
	order, err := c.service.RevertPackCollected(ctx.Request.Context(), ctx.Param("number"))
	if err != nil {
		c.respondTransitionError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Race pack pickup reverted", order.ToResponse(), nil)
}

func (c *Controller) respondTransitionError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrOrderNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Order not found", nil, nil)
	case errors.Is(err, ErrInvalidTransition):
		response.RespondJSON(ctx, "error", http.StatusUnprocessableEntity, "Transition not allowed for order status", nil, nil)
	default:
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to update order", nil, err.Error())
	}
}
