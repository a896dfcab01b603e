package handlers

import (
	"context"
	"net/http"
	"time"

	"dashworker/infrastructure/store"
	"dashworker/pkg/common"

	"go.uber.org/zap"
)

const healthProbeTimeout = 5 * time.Second

// HealthHandler reports whether the worker and its backing store are up.
type HealthHandler struct {
	store  *store.Client
	logger *zap.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(storeClient *store.Client, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		store:  storeClient,
		logger: logger,
	}
}

// Check handles GET /health. A failing store probe reports degraded rather
// than down: the process itself is still serving.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Health probe failed", zap.Error(err))
		common.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
		})
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
