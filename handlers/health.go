package handlers

import "net/http"

// readiness reports whether the startup enrichment pass has completed.
type readiness interface {
	Ready() bool
}

// HealthHandler reports liveness plus enrichment readiness. The server
// accepts traffic before the first enrichment pass finishes; clients that
// care can poll this endpoint.
type HealthHandler struct {
	Enrichment readiness
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(enrichment readiness) *HealthHandler {
	return &HealthHandler{Enrichment: enrichment}
}

// GetHealth handles GET /health.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	enrichment := "pending"
	if h.Enrichment != nil && h.Enrichment.Ready() {
		enrichment = "ready"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"enrichment": enrichment,
	})
}
