package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// HealthHandler reports whether the session backend answers
type HealthHandler struct {
	guard  Guard
	logger *slog.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(guard Guard, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{guard: guard, logger: logger}
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Health handles GET /healthz
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	status := http.StatusOK

	if _, err := h.guard.IsAuthenticated(r.Context()); err != nil {
		h.logger.Warn("health check failed", slog.String("error", err.Error()))
		resp = healthResponse{Status: "unavailable", Error: "session backend unavailable"}
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
