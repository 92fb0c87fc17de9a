package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hyunwoogil/restaurant-order-service/internal/services"
	"github.com/hyunwoogil/restaurant-order-service/internal/views"
	"github.com/hyunwoogil/restaurant-order-service/pkg"
	"go.uber.org/zap"
)

type OrderHandler struct {
	logger  *zap.Logger
	service services.OrderService
	limiter *pkg.DistributedLimiter
}

func NewOrderHandler(logger *zap.Logger, svc services.OrderService, limiter *pkg.DistributedLimiter) *OrderHandler {
	return &OrderHandler{logger: logger, service: svc, limiter: limiter}
}

// RegisterRoutes registers the customer-facing order routes.
func (h *OrderHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/orders", h.CreateOrder)
	r.GET("/orders", h.ListOrders)
	r.GET("/orders/:id", h.GetOrder)
	r.POST("/orders/:id/cancel", h.CancelOrder)
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	traceID, ok := mustTraceID(c, h.logger)
	if !ok {
		return
	}

	if !h.limiter.Allow(c.Request.Context()) {
		c.JSON(http.StatusTooManyRequests, pkg.ErrorResponse{
			Code:    "APP_RATE_LIMITED",
			Message: pkg.ErrRateLimitExceeded.Error(),
		})
		return
	}

	var req views.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	summary, err := h.service.CreateOrder(c.Request.Context(), traceID, req)
	if err != nil {
		respondError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

// ListOrders is the customer-side order history: filtered by customerId,
// newest first. The admin console has its own listing with a status filter.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	traceID, ok := mustTraceID(c, h.logger)
	if !ok {
		return
	}

	var customerID *string
	if v := c.Query("customerId"); v != "" {
		customerID = &v
	}

	orders, err := h.service.ListOrders(c.Request.Context(), traceID, customerID, nil, queryLimit(c))
	if err != nil {
		respondError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	traceID, ok := mustTraceID(c, h.logger)
	if !ok {
		return
	}

	detail, err := h.service.GetOrder(c.Request.Context(), traceID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	traceID, ok := mustTraceID(c, h.logger)
	if !ok {
		return
	}

	var customerID *string
	if v := c.Query("customerId"); v != "" {
		customerID = &v
	}

	resp, err := h.service.Cancel(c.Request.Context(), traceID, c.Param("id"), customerID)
	if err != nil {
		respondError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
