package api

import (
	"context"
	"net/http"
	"time"
)

// handleHealth reports process liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

// handleReady reports readiness: the database must answer a ping within a
// short deadline. Without a Pinger configured it degrades to liveness.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Pinger == nil {
		writeData(w, http.StatusOK, map[string]string{"status": "ready"}, s.logger)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.cfg.Pinger.Ping(ctx); err != nil {
		s.logger.Warn("readiness check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "database unavailable", s.logger)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ready"}, s.logger)
}
