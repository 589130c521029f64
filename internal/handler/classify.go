package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inspection-service/internal/apperr"
	"inspection-service/internal/middleware"
	"inspection-service/internal/models"
	"inspection-service/internal/service"
)

const idempotencyKeyHeader = "Idempotency-Key"

type ClassifyHandler interface {
	Classify(c *gin.Context)
	CheckSpam(c *gin.Context)
	CheckDLP(c *gin.Context)
}

type classifyHandler struct {
	inspector service.Inspector
	logger    *zap.Logger
}

func NewClassifyHandler(inspector service.Inspector, logger *zap.Logger) ClassifyHandler {
	return &classifyHandler{inspector: inspector, logger: logger}
}

// classifyRequest accepts the field spellings of the spam, DLP and generic
// endpoints: text or message, and sender_or_recipient, sender or recipient.
type classifyRequest struct {
	Text              string `json:"text"`
	Message           string `json:"message"`
	Kind              string `json:"kind"`
	Source            string `json:"source"`
	Direction         string `json:"direction"`
	SenderOrRecipient string `json:"sender_or_recipient"`
	Sender            string `json:"sender"`
	Recipient         string `json:"recipient"`
	UserID            string `json:"user_id"`
	IdempotencyKey    string `json:"idempotency_key"`
}

// Classify handles POST /api/v1/classify
func (h *classifyHandler) Classify(c *gin.Context) {
	h.inspect(c, "")
}

// CheckSpam handles POST /api/v1/spam/check
func (h *classifyHandler) CheckSpam(c *gin.Context) {
	h.inspect(c, models.KindSpam)
}

// CheckDLP handles POST /api/v1/dlp/check
func (h *classifyHandler) CheckDLP(c *gin.Context) {
	h.inspect(c, models.KindDLP)
}

func (h *classifyHandler) inspect(c *gin.Context, kind models.Kind) {
	var body classifyRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, h.logger, apperr.InvalidInput("body", "must be a JSON object"))
		return
	}

	if kind == "" {
		kind = models.Kind(body.Kind)
	} else if body.Kind != "" && models.Kind(body.Kind) != kind {
		respondError(c, h.logger, apperr.InvalidArgument("kind", body.Kind, string(kind)))
		return
	}

	userID, err := middleware.ResolveUserID(c, body.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	req := service.InspectRequest{
		UserID:            userID,
		Text:              firstNonEmpty(body.Text, body.Message),
		Kind:              kind,
		Source:            models.Source(body.Source),
		Direction:         models.Direction(body.Direction),
		SenderOrRecipient: firstNonEmpty(body.SenderOrRecipient, body.Sender, body.Recipient),
		IdempotencyKey:    firstNonEmpty(body.IdempotencyKey, c.GetHeader(idempotencyKeyHeader)),
	}

	resp, err := h.inspector.Inspect(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
