package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether a dependency answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BreakerState reports a circuit breaker's state, e.g. "closed".
type BreakerState interface {
	State() string
}

type HealthHandler interface {
	Health(c *gin.Context)
}

type healthHandler struct {
	store  Pinger
	model  BreakerState // nil when the spam model is disabled
	logger *zap.Logger
}

func NewHealthHandler(store Pinger, model BreakerState, logger *zap.Logger) HealthHandler {
	return &healthHandler{store: store, model: model, logger: logger}
}

// Health handles GET /health
func (h *healthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	body := gin.H{"status": "ok", "store": "ok"}
	status := http.StatusOK

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Health check: store unreachable", zap.Error(err))
		body["status"] = "degraded"
		body["store"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	if h.model != nil {
		body["spam_model"] = h.model.State()
	} else {
		body["spam_model"] = "disabled"
	}

	c.JSON(status, body)
}
