package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hyunwoogil/restaurant-order-service/internal/services"
	"github.com/hyunwoogil/restaurant-order-service/internal/views"
	"go.uber.org/zap"
)

type DeviceHandler struct {
	logger  *zap.Logger
	service services.DeviceService
}

func NewDeviceHandler(logger *zap.Logger, svc services.DeviceService) *DeviceHandler {
	return &DeviceHandler{logger: logger, service: svc}
}

func (h *DeviceHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/devices/register", h.Register)
	r.POST("/devices/unregister", h.Unregister)
}

func (h *DeviceHandler) Register(c *gin.Context) {
	traceID, ok := mustTraceID(c, h.logger)
	if !ok {
		return
	}

	var req views.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	device, err := h.service.Register(c.Request.Context(), traceID, req)
	if err != nil {
		respondError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusOK, device)
}

func (h *DeviceHandler) Unregister(c *gin.Context) {
	traceID, ok := mustTraceID(c, h.logger)
	if !ok {
		return
	}

	var req views.UnregisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.service.Unregister(c.Request.Context(), traceID, req); err != nil {
		respondError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
