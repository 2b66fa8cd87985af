package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loquor/internal/common"
)

// HealthHandler serves liveness and version endpoints
type HealthHandler struct {
	logger arbor.ILogger
}

// NewHealthHandler creates a health handler
func NewHealthHandler(logger arbor.ILogger) *HealthHandler {
	return &HealthHandler{logger: logger}
}

// HealthHandler responds to GET /health and GET /api/health
func (h *HealthHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// VersionHandler responds to GET /api/version
func (h *HealthHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
	})
}
