package tickets

import (
	"errors"
	"net/http"
	"time"

	"racereg/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// ListCategories handles GET /api/v1/tickets
func (c *Controller) ListCategories(ctx *gin.Context) {
	categories, err := c.service.ListCategories(ctx.Request.Context(), time.Now().UTC())
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list ticket categories", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Ticket categories retrieved successfully", gin.H{
		"categories": categories,
		"count":      len(categories),
	}, nil)
}

// GetCategory handles GET /api/v1/tickets/:id
func (c *Controller) GetCategory(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid category ID", nil, nil)
		return
	}

	category, err := c.service.GetCategory(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Ticket category not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get ticket category", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Ticket category retrieved successfully",
		category.ToResponse(time.Now().UTC()), nil)
}

// CreateCategory handles POST /api/v1/admin/tickets
func (c *Controller) CreateCategory(ctx *gin.Context) {
	var req CreateCategoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	category, err := c.service.CreateCategory(ctx.Request.Context(), req)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to create ticket category", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Ticket category created successfully",
		category.ToResponse(time.Now().UTC()), nil)
}

// UpdateCategory handles PUT /api/v1/admin/tickets/:id
func (c *Controller) UpdateCategory(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid category ID", nil, nil)
		return
	}

	var req UpdateCategoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	category, err := c.service.UpdateCategory(ctx.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Ticket category not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to update ticket category", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Ticket category updated successfully",
		category.ToResponse(time.Now().UTC()), nil)
}
