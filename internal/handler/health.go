package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/MartinaC181/MiGymApp-sub000/internal/kvstore"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	store   kvstore.Store
	backend string
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store kvstore.Store, backend string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, backend: backend, logger: logger}
}

// HealthResponse represents the health status response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health handles GET /healthz - simple liveness check
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready handles GET /readyz - returns 200 only when the store answers
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	status, code := "ready", http.StatusOK
	if err := kvstore.Ping(ctx, h.store); err != nil {
		checks["store"] = "error: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
		h.logger.Warn("readiness check failed",
			slog.String("backend", h.backend),
			slog.String("error", err.Error()),
		)
	} else {
		checks["store"] = "ok"
	}
	checks["backend"] = h.backend

	writeJSON(w, code, ReadinessResponse{Status: status, Checks: checks})
}
