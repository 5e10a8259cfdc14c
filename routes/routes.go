package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Puneet-Vishnoi/order-book/handlers"
	"github.com/Puneet-Vishnoi/order-book/service"
)

// RegisterRoutes mounts the API on router. gatherer may be nil, in which case
// /metrics is not served.
func RegisterRoutes(
	router *gin.Engine,
	orders *service.OrderService,
	categories *service.CategoryService,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) {
	orderHandler := handlers.NewOrderHandler(orders, categories, logger)
	categoryHandler := handlers.NewCategoryHandler(categories, logger)

	router.Use(handlers.RequestID(), handlers.Logger(logger))

	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "Order Book API Server!") })
	router.GET("/health", func(c *gin.Context) {
		if err := orders.Ready(c.Request.Context()); err != nil {
			logger.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		api.GET("/categories", categoryHandler.ListCategories)
		api.GET("/categories/:id", categoryHandler.GetCategory)
		api.POST("/categories", categoryHandler.CreateCategory)
		api.PUT("/categories/:id", categoryHandler.UpdateCategory)
		api.DELETE("/categories/:id", categoryHandler.DeleteCategory)

		api.GET("/orders", orderHandler.ListOrders)
		api.GET("/orders/:id", orderHandler.GetOrder)
		api.POST("/orders", orderHandler.PlaceOrder)
		api.DELETE("/orders/:id", orderHandler.DeleteOrder)

		api.GET("/orderbook", orderHandler.GetOrderBook)
	}
}
