package server

import (
	"net/http"

	"github.com/edgeflag/edgeflag/internal/api"
)

// handleHealth returns a simple health check response.
func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}
