package handler

import (
	"context"
	"net/http"
	"time"

	restTypes "github.com/biasnet/influence/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// HealthHandler reports whether the database is reachable.
type HealthHandler struct {
	ping   func(context.Context) error
	logger *zap.Logger
}

// NewHealthHandler creates a new health handler around ping.
func NewHealthHandler(ping func(context.Context) error, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		ping:   ping,
		logger: logger.Named("health_handler"),
	}
}

// Check handles GET /healthz.
func (h *HealthHandler) Check(w http.ResponseWriter, req bunrouter.Request) error {
	ctx, cancel := context.WithTimeout(req.Context(), healthTimeout)
	defer cancel()

	if err := h.ping(ctx); err != nil {
		h.logger.Warn("Health check failed", zap.Error(err))
		return writeJSON(w, http.StatusServiceUnavailable, restTypes.HealthResponse{Status: "unavailable"})
	}

	return writeJSON(w, http.StatusOK, restTypes.HealthResponse{Status: "ok"})
}
