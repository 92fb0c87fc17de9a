package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hyunwoogil/restaurant-order-service/internal/services"
	"go.uber.org/zap"
)

type MenuHandler struct {
	logger  *zap.Logger
	service services.MenuService
}

func NewMenuHandler(logger *zap.Logger, svc services.MenuService) *MenuHandler {
	return &MenuHandler{logger: logger, service: svc}
}

func (h *MenuHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/menu", h.GetMenu)
	r.GET("/menu/items/:id", h.GetItem)
}

func (h *MenuHandler) GetMenu(c *gin.Context) {
	traceID, ok := mustTraceID(c, h.logger)
	if !ok {
		return
	}

	menu, err := h.service.GetMenu(c.Request.Context(), traceID)
	if err != nil {
		respondError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusOK, menu)
}

func (h *MenuHandler) GetItem(c *gin.Context) {
	traceID, ok := mustTraceID(c, h.logger)
	if !ok {
		return
	}

	item, err := h.service.GetItem(c.Request.Context(), traceID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
