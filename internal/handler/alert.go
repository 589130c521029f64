package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inspection-service/internal/apperr"
	"inspection-service/internal/middleware"
	"inspection-service/internal/models"
	"inspection-service/internal/service"
)

type AlertHandler interface {
	ListAlerts(c *gin.Context)
	GetAlert(c *gin.Context)
	UpdateAlertAction(c *gin.Context)
}

type alertHandler struct {
	alerts service.AlertService
	logger *zap.Logger
}

func NewAlertHandler(alerts service.AlertService, logger *zap.Logger) AlertHandler {
	return &alertHandler{alerts: alerts, logger: logger}
}

type listAlertsResponse struct {
	Alerts []*models.Alert `json:"alerts"`
	Count  int             `json:"count"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type updateActionRequest struct {
	Action string `json:"action"`
}

// ListAlerts handles GET /api/v1/alerts
// Query parameters:
// - user_id: owner of the alerts (taken from the token when authenticated)
// - alert_type: spam or dlp (optional)
// - source: sms, email, telegram or manual (optional)
// - limit, offset: paging, newest first
func (h *alertHandler) ListAlerts(c *gin.Context) {
	userID, err := middleware.ResolveUserID(c, c.Query("user_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	filter := models.AlertFilter{
		AlertType: models.Kind(c.Query("alert_type")),
		Source:    models.Source(c.Query("source")),
	}

	alerts, err := h.alerts.List(c.Request.Context(), userID, filter, limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, listAlertsResponse{Alerts: alerts, Count: len(alerts), Limit: service.ListLimit(limit), Offset: offset})
}

// GetAlert handles GET /api/v1/alerts/:id
func (h *alertHandler) GetAlert(c *gin.Context) {
	id, userID, ok := h.alertRef(c)
	if !ok {
		return
	}

	alert, err := h.alerts.Get(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, alert)
}

// UpdateAlertAction handles PUT /api/v1/alerts/:id
func (h *alertHandler) UpdateAlertAction(c *gin.Context) {
	id, userID, ok := h.alertRef(c)
	if !ok {
		return
	}

	var body updateActionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, h.logger, apperr.InvalidInput("body", "must be a JSON object"))
		return
	}
	if body.Action == "" {
		respondError(c, h.logger, apperr.InvalidInput("action", "is required"))
		return
	}

	alert, err := h.alerts.UpdateAction(c.Request.Context(), id, userID, models.Action(body.Action))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, alert)
}

func (h *alertHandler) alertRef(c *gin.Context) (int64, string, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, h.logger, apperr.InvalidInput("id", "must be a positive integer"))
		return 0, "", false
	}

	userID, err := middleware.ResolveUserID(c, c.Query("user_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return 0, "", false
	}
	return id, userID, true
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.InvalidInput(name, "must be an integer")
	}
	return v, nil
}
