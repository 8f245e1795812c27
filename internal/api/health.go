package api

import (
	"net/http"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	health := map[string]string{
		"status":   "healthy",
		"database": "ok",
		"index":    "ok",
	}

	if err := s.db.Ping(r.Context()); err != nil {
		s.logger.Error("health check: database ping failed", "error", err)
		health["status"] = "degraded"
		health["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	}

	// An intentionally unconfigured index is not a failure; search just
	// returns empty results.
	if !s.vectors.IndexConfigured() {
		health["index"] = "unconfigured"
	}

	s.writeJSON(w, status, health)
}
