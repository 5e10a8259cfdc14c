package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Puneet-Vishnoi/order-book/models"
	"github.com/Puneet-Vishnoi/order-book/service"
	"github.com/Puneet-Vishnoi/order-book/utils"
)

type OrderHandler struct {
	Service    *service.OrderService
	Categories *service.CategoryService
	Validator  *validator.Validate
	Logger     *zap.Logger
}

func NewOrderHandler(s *service.OrderService, categories *service.CategoryService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		Service:    s,
		Categories: categories,
		Validator:  utils.GetValidator(),
		Logger:     logger,
	}
}

func formatValidationError(err error) map[string]string {
	errs := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["request"] = err.Error()
		return errs
	}
	for _, e := range verrs {
		errs[e.Field()] = "failed on tag '" + e.Tag() + "'"
	}
	return errs
}

// writeError maps service errors onto HTTP statuses.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var storeErr *service.StoreError
	switch {
	case service.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrCannotDetermineMarketPrice):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrEmptyName):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &storeErr):
		logger.Error("store failure", zap.String("op", storeErr.Op), zap.Error(storeErr.Err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
	default:
		logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func parseID(c *gin.Context, what string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + what + " ID"})
		return 0, false
	}
	return id, true
}

// POST /orders
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req models.PlaceOrderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.Validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"validation_errors": formatValidationError(err)})
		return
	}

	category, err := h.Categories.GetCategory(c.Request.Context(), req.CategoryID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}

	outcome, err := h.Service.PlaceOrder(c.Request.Context(), req.Action, req.LimitPrice, req.Quantity, *category)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}

	resp := models.PlaceOrderResponse{Outcome: outcome.Kind, Results: outcome.Results}
	switch outcome.Kind {
	case models.OutcomeMatched:
		c.JSON(http.StatusOK, resp)
	case models.OutcomeCreated:
		order := models.NewOrderResponse(outcome.Order, category.Name)
		resp.Order = &order
		c.Header("Location", fmt.Sprintf("/api/orders/%d", order.ID))
		c.JSON(http.StatusCreated, resp)
	case models.OutcomeUpdated:
		order := models.NewOrderResponse(outcome.Order, category.Name)
		resp.Order = &order
		c.Header("Location", fmt.Sprintf("/api/orders/%d", order.ID))
		c.JSON(http.StatusAccepted, resp)
	}
}

// GET /orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	resp, err := h.Service.ListOrders(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}
	resp, err := h.Service.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DELETE /orders/:id
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}
	resp, err := h.Service.DeleteOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GET /orderbook?category_id=N
func (h *OrderHandler) GetOrderBook(c *gin.Context) {
	categoryID, err := strconv.ParseInt(c.Query("category_id"), 10, 64)
	if err != nil || categoryID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid 'category_id' query parameter"})
		return
	}

	category, err := h.Categories.GetCategory(c.Request.Context(), categoryID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}

	resp, err := h.Service.GetOrderBook(c.Request.Context(), *category)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
