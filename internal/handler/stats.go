package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inspection-service/internal/middleware"
	"inspection-service/internal/service"
)

type StatsHandler interface {
	GetStats(c *gin.Context)
}

type statsHandler struct {
	stats  service.StatsService
	logger *zap.Logger
}

func NewStatsHandler(stats service.StatsService, logger *zap.Logger) StatsHandler {
	return &statsHandler{stats: stats, logger: logger}
}

// GetStats handles GET /api/v1/stats/:user_id?days=N
func (h *statsHandler) GetStats(c *gin.Context) {
	userID, err := middleware.ResolveUserID(c, c.Param("user_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	days, err := intQuery(c, "days", service.DefaultStatsDays)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	window, err := h.stats.Stats(c.Request.Context(), userID, days)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, window)
}
