package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/civicstack/civickb/internal/assistant"
	"github.com/civicstack/civickb/internal/knowledge"
	"github.com/civicstack/civickb/internal/tool"
)

// maxRequestBytes caps how much of a request body is read.
const maxRequestBytes = 4 << 20 // 4 MiB

// statusFor maps domain errors to HTTP status codes. Anything unrecognized is
// an internal error; the raw message is logged but not leaked to the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, knowledge.ErrEntryNotFound),
		errors.Is(err, knowledge.ErrAssistantNotFound),
		errors.Is(err, assistant.ErrNotFound),
		errors.Is(err, tool.ErrToolNotFound),
		errors.Is(err, tool.ErrAssistantNotFound),
		errors.Is(err, tool.ErrAssignmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, tool.ErrDuplicateToolName),
		errors.Is(err, tool.ErrDuplicateAssignment):
		return http.StatusConflict
	case errors.Is(err, knowledge.ErrEmptyFilter),
		errors.Is(err, knowledge.ErrEmptyUpdate),
		errors.Is(err, tool.ErrInvalidConfig):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the envelope for a domain error. Internal errors are
// masked; everything else surfaces its message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
		msg = "internal server error"
	}
	writeError(w, status, msg, s.logger)
}

// decodeJSON decodes the request body into dst with a size cap and strict
// content handling. Returns a client-facing error message on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is required")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return fmt.Errorf("invalid JSON body: %v", err)
	}
	return nil
}
