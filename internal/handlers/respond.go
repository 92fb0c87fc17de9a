package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hyunwoogil/restaurant-order-service/pkg"
	"github.com/hyunwoogil/restaurant-order-service/pkg/utils"
	"go.uber.org/zap"
)

// respondError maps a service error onto the standard error envelope.
func respondError(c *gin.Context, logger *zap.Logger, traceID string, err error) {
	resp := pkg.ToErrorResponse(logger, traceID, err)
	c.JSON(resp.Status, resp)
}

// mustTraceID fetches the request trace id set by the TraceID middleware.
// A missing id means the middleware chain is misconfigured.
func mustTraceID(c *gin.Context, logger *zap.Logger) (string, bool) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		logger.Error("trace id missing from request context", zap.Error(err))
		c.JSON(http.StatusInternalServerError, pkg.ErrorResponse{
			Code:    pkg.ErrServerCode.Code,
			Message: pkg.ErrServerCode.Message,
		})
		return "", false
	}
	return traceID, true
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, pkg.ErrorResponse{
		Code:    pkg.ErrInvalidInputCode.Code,
		Message: "invalid request body",
		Details: err.Error(),
	})
}
