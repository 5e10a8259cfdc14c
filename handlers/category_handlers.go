package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Puneet-Vishnoi/order-book/models"
	"github.com/Puneet-Vishnoi/order-book/service"
	"github.com/Puneet-Vishnoi/order-book/utils"
)

type CategoryHandler struct {
	Service   *service.CategoryService
	Validator *validator.Validate
	Logger    *zap.Logger
}

func NewCategoryHandler(s *service.CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		Service:   s,
		Validator: utils.GetValidator(),
		Logger:    logger,
	}
}

// GET /categories
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.Service.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// GET /categories/:id
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := parseID(c, "category")
	if !ok {
		return
	}
	category, err := h.Service.GetCategory(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// POST /categories
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"validation_errors": formatValidationError(err)})
		return
	}

	category, err := h.Service.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/categories/%d", category.ID))
	c.JSON(http.StatusCreated, category)
}

// PUT /categories/:id
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "category")
	if !ok {
		return
	}

	var req models.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"validation_errors": formatValidationError(err)})
		return
	}

	if _, err := h.Service.UpdateCategory(c.Request.Context(), id, req.Name); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /categories/:id
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "category")
	if !ok {
		return
	}

	found, err := h.Service.DeleteCategory(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("category with ID %d not found", id)})
		return
	}
	c.Status(http.StatusNoContent)
}
