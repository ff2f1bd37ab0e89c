package api

import (
	"net/http"

	"github.com/civicstack/civickb/internal/ingest"
)

// handleIngest forwards a crawl submission to the external crawler webhook.
//
// Upstream failures are a normal outcome here: the response is 200 with
// success=false and the failure reason in the envelope, never a 5xx. A
// returned error from the gateway means invalid input and maps to 400.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var sub ingest.Submission
	if err := decodeJSON(w, r, &sub); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), s.logger)
		return
	}

	res, err := s.cfg.Ingest.Submit(r.Context(), sub)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), s.logger)
		return
	}

	if !res.Success {
		writeJSON(w, http.StatusOK, Envelope{
			Success: false,
			Data:    res,
			Error:   res.Error,
		}, s.logger)
		return
	}
	writeData(w, http.StatusOK, res, s.logger)
}
