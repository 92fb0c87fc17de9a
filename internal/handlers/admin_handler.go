package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hyunwoogil/restaurant-order-service/internal/services"
	"github.com/hyunwoogil/restaurant-order-service/internal/views"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// AdminHandler serves the owner console: order intake, status transitions and
// the notification log.
type AdminHandler struct {
	logger        *zap.Logger
	orders        services.OrderService
	notifications services.NotificationService
	dispatchLimit int
}

func NewAdminHandler(logger *zap.Logger, orders services.OrderService, notifications services.NotificationService, dispatchLimit int) *AdminHandler {
	return &AdminHandler{
		logger:        logger,
		orders:        orders,
		notifications: notifications,
		dispatchLimit: dispatchLimit,
	}
}

func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/admin/orders", h.ListOrders)
	r.POST("/admin/orders/:id/accept", h.AcceptOrder)
	r.POST("/admin/orders/:id/complete", h.CompleteOrder)
	r.GET("/admin/notifications", h.ListNotifications)
	r.POST("/admin/notifications/dispatch", h.DispatchNotifications)
}

func (h *AdminHandler) ListOrders(c *gin.Context) {
	traceID, ok := mustTraceID(c, h.logger)
	if !ok {
		return
	}

	var customerID, status *string
	if v := c.Query("customerId"); v != "" {
		customerID = &v
	}
	if v := c.Query("status"); v != "" {
		status = &v
	}

	orders, err := h.orders.ListOrders(c.Request.Context(), traceID, customerID, status, queryLimit(c))
	if err != nil {
		respondError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *AdminHandler) AcceptOrder(c *gin.Context) {
	traceID, ok := mustTraceID(c, h.logger)
	if !ok {
		return
	}

	var req views.AcceptOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.orders.Accept(c.Request.Context(), traceID, c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) CompleteOrder(c *gin.Context) {
	traceID, ok := mustTraceID(c, h.logger)
	if !ok {
		return
	}

	var req views.CompleteOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.orders.Complete(c.Request.Context(), traceID, c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) ListNotifications(c *gin.Context) {
	traceID, ok := mustTraceID(c, h.logger)
	if !ok {
		return
	}

	var orderID *string
	if v := c.Query("orderId"); v != "" {
		orderID = &v
	}

	records, err := h.notifications.List(c.Request.Context(), traceID, orderID, queryLimit(c))
	if err != nil {
		respondError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": records})
}

// DispatchNotifications runs one sweep over queued records. Exposed for
// operators; a cron or scheduler normally drives it.
func (h *AdminHandler) DispatchNotifications(c *gin.Context) {
	traceID, ok := mustTraceID(c, h.logger)
	if !ok {
		return
	}

	limit := h.dispatchLimit
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxListLimit {
			limit = n
		}
	}

	summary, err := h.notifications.DispatchPending(c.Request.Context(), traceID, limit)
	if err != nil {
		respondError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func queryLimit(c *gin.Context) int {
	limit := defaultListLimit
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxListLimit {
			limit = n
		}
	}
	return limit
}
