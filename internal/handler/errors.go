package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inspection-service/internal/apperr"
	"inspection-service/internal/middleware"
)

// respondError writes the error envelope. Server-side failures are logged
// with their cause; client errors are not.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	if status := apperr.HTTPStatus(err); status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(middleware.RequestIDKey)),
			zap.Error(err))
	}
	middleware.Abort(c, err)
}
