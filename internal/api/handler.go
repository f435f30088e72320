package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront-order-service/internal/models"
	"storefront-order-service/internal/service"
	"storefront-order-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type orderService interface {
	PlaceOrder(ctx context.Context, req *service.PlaceOrderRequest) (*service.PlacedOrder, error)
	GetOrder(ctx context.Context, orderID int64) (*models.Order, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error)
}

type checkoutCoordinator interface {
	Checkout(ctx context.Context, userID int64, items []models.CartItem) *service.CheckoutResult
}

type cartStore interface {
	Items(ctx context.Context, userID int64) ([]models.CartItem, error)
	Add(ctx context.Context, userID int64, item models.CartItem) error
	Remove(ctx context.Context, userID, productID int64) error
	Clear(ctx context.Context, userID int64) error
}

// Handler contains HTTP handlers
type Handler struct {
	orders   orderService
	checkout checkoutCoordinator
	cart     cartStore
}

// NewHandler creates a new HTTP handler
func NewHandler(orders orderService, checkout checkoutCoordinator, cart cartStore) *Handler {
	return &Handler{
		orders:   orders,
		checkout: checkout,
		cart:     cart,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.placeOrder)
		v1.GET("/orders/:id", h.getOrder)
		v1.GET("/users/:id/orders", h.getUserOrders)

		v1.POST("/checkout", h.runCheckout)

		v1.GET("/carts/:userID", h.getCart)
		v1.POST("/carts/:userID/items", h.addCartItem)
		v1.DELETE("/carts/:userID/items/:productID", h.removeCartItem)
		v1.DELETE("/carts/:userID", h.clearCart)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// placeOrder handles single-item order placement. Dispositions: 201 for
// confirmed or degraded acceptance, 409 for insufficient stock, 404 for an
// unknown product, 400 for validation failures.
func (h *Handler) placeOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	placed, err := h.orders.PlaceOrder(c.Request.Context(), &req)
	if err != nil {
		var placementErr *service.PlacementError
		if errors.As(err, &placementErr) {
			c.JSON(placementErr.HTTPStatus, gin.H{"error": placementErr.Reason})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to place order",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, placed)
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Order not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// getUserOrders lists a user's orders
func (h *Handler) getUserOrders(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	orders, err := h.orders.GetOrdersByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list orders",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

type checkoutRequest struct {
	UserID int64             `json:"user_id" binding:"required"`
	Items  []models.CartItem `json:"items"`
}

// runCheckout handles the multi-item checkout. When no items are supplied,
// the user's pending cart is checked out.
func (h *Handler) runCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	items := req.Items
	if len(items) == 0 {
		var err error
		items, err = h.cart.Items(c.Request.Context(), req.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to load cart",
				"details": err.Error(),
			})
			return
		}
	}

	result := h.checkout.Checkout(c.Request.Context(), req.UserID, items)
	c.JSON(http.StatusOK, result)
}

// getCart returns the user's pending cart
func (h *Handler) getCart(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	items, err := h.cart.Items(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load cart",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// addCartItem appends a line item to the user's cart
func (h *Handler) addCartItem(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var item models.CartItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	if item.ProductID <= 0 || item.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id and quantity must be positive"})
		return
	}

	if err := h.cart.Add(c.Request.Context(), userID, item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to add cart item",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// removeCartItem drops a product from the user's cart
func (h *Handler) removeCartItem(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	productID, err := strconv.ParseInt(c.Param("productID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	if err := h.cart.Remove(c.Request.Context(), userID, productID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to remove cart item",
			"details": err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// clearCart drops the user's entire cart
func (h *Handler) clearCart(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if err := h.cart.Clear(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to clear cart",
			"details": err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
