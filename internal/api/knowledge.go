package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/civicstack/civickb/internal/knowledge"
)

// handleCreateKnowledge registers one or more entries. The body is either a
// single object or an array of objects; both return 201 with the created
// entries. Array creation is not transactional — on a mid-batch failure the
// earlier entries stay and the error names the failing element.
func (s *Server) handleCreateKnowledge(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit), s.logger)
			return
		}
		writeError(w, http.StatusBadRequest, "reading request body", s.logger)
		return
	}

	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		writeError(w, http.StatusBadRequest, "request body is required", s.logger)
		return
	}

	var batch []knowledge.CreateParams
	if trimmed[0] == '[' {
		if err := json.Unmarshal(body, &batch); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err), s.logger)
			return
		}
	} else {
		var single knowledge.CreateParams
		if err := json.Unmarshal(body, &single); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err), s.logger)
			return
		}
		batch = []knowledge.CreateParams{single}
	}
	if len(batch) == 0 {
		writeError(w, http.StatusBadRequest, "at least one entry is required", s.logger)
		return
	}

	for i, p := range batch {
		if p.FileType != "" && !p.FileType.Known() {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("entry %d: unknown file type %q", i, p.FileType), s.logger)
			return
		}
		if p.Frequency != "" && !p.Frequency.Known() {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("entry %d: unknown frequency %q", i, p.Frequency), s.logger)
			return
		}
	}

	created := make([]knowledge.Entry, 0, len(batch))
	for i, p := range batch {
		e, err := s.cfg.Knowledge.Create(r.Context(), p)
		if err != nil {
			s.respondError(w, r, fmt.Errorf("entry %d: %w", i, err))
			return
		}
		created = append(created, e)
	}

	if trimmed[0] == '[' {
		writeData(w, http.StatusCreated, created, s.logger)
		return
	}
	writeData(w, http.StatusCreated, created[0], s.logger)
}

// handleGetKnowledge returns one entry by id.
func (s *Server) handleGetKnowledge(w http.ResponseWriter, r *http.Request) {
	e, err := s.cfg.Knowledge.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, e, s.logger)
}

// handleListKnowledge lists entries. With ?assistant_id= it returns that
// assistant's entries; otherwise one page of the whole collection
// (?limit=, ?offset=).
func (s *Server) handleListKnowledge(w http.ResponseWriter, r *http.Request) {
	if assistantID := r.URL.Query().Get("assistant_id"); assistantID != "" {
		entries, err := s.cfg.Knowledge.ListByAssistant(r.Context(), assistantID)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, entries, s.logger)
		return
	}

	limit := queryInt32(r, "limit", 50)
	offset := queryInt32(r, "offset", 0)
	entries, err := s.cfg.Knowledge.List(r.Context(), limit, offset)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, entries, s.logger)
}

// bulkUpdateRequest is the body of PUT /api/v1/knowledge.
type bulkUpdateRequest struct {
	Filter knowledge.Filter `json:"filter"`
	Update knowledge.Update `json:"update"`
}

// handleBulkUpdateKnowledge applies one sparse update to every entry matching
// the filter and reports matched/updated accounting.
func (s *Server) handleBulkUpdateKnowledge(w http.ResponseWriter, r *http.Request) {
	var req bulkUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), s.logger)
		return
	}
	if req.Filter.Status != nil && !req.Filter.Status.Known() {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unknown status %q", *req.Filter.Status), s.logger)
		return
	}
	if req.Update.Status != nil && !req.Update.Status.Known() {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unknown status %q", *req.Update.Status), s.logger)
		return
	}

	res, err := s.cfg.Knowledge.BulkUpdate(r.Context(), req.Filter, req.Update)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, res, s.logger)
}

// handlePatchKnowledge applies a sparse update to one entry by id.
func (s *Server) handlePatchKnowledge(w http.ResponseWriter, r *http.Request) {
	var u knowledge.Update
	if err := decodeJSON(w, r, &u); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), s.logger)
		return
	}
	if u.Status != nil && !u.Status.Known() {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unknown status %q", *u.Status), s.logger)
		return
	}

	e, err := s.cfg.Knowledge.Patch(r.Context(), r.PathValue("id"), u)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, e, s.logger)
}

// handleUpdateKnowledgeStatus records a crawler status report for one entry.
func (s *Server) handleUpdateKnowledgeStatus(w http.ResponseWriter, r *http.Request) {
	var u knowledge.StatusUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), s.logger)
		return
	}
	if !u.Status.Known() {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unknown status %q", u.Status), s.logger)
		return
	}

	if err := s.cfg.Knowledge.UpdateStatus(r.Context(), r.PathValue("id"), u); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "status updated", s.logger)
}

// handleToggleKnowledge flips the entry's isActive flag.
func (s *Server) handleToggleKnowledge(w http.ResponseWriter, r *http.Request) {
	e, err := s.cfg.Knowledge.ToggleActive(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, e, s.logger)
}

// handleDeleteKnowledge deletes one entry. ?soft=true marks it deleted and
// inactive while keeping the row queryable; otherwise the row is removed.
func (s *Server) handleDeleteKnowledge(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if r.URL.Query().Get("soft") == "true" {
		if err := s.cfg.Knowledge.SoftDelete(r.Context(), id); err != nil {
			s.respondError(w, r, err)
			return
		}
		writeMessage(w, http.StatusOK, "entry soft-deleted", s.logger)
		return
	}

	if err := s.cfg.Knowledge.HardDelete(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "entry deleted", s.logger)
}

// confirmRequest guards destructive collection-wide operations.
type confirmRequest struct {
	Confirm bool `json:"confirm"`
}

// deletedResponse reports how many rows a purge removed.
type deletedResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}

// handleDeleteKnowledgeCollection purges entries in bulk.
// ?assistant_id= removes that assistant's whole knowledge base.
// ?all=true removes everything and requires {"confirm": true} in the body.
func (s *Server) handleDeleteKnowledgeCollection(w http.ResponseWriter, r *http.Request) {
	if assistantID := r.URL.Query().Get("assistant_id"); assistantID != "" {
		n, err := s.cfg.Knowledge.HardDeleteByAssistant(r.Context(), assistantID)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, deletedResponse{DeletedCount: n}, s.logger)
		return
	}

	if r.URL.Query().Get("all") != "true" {
		writeError(w, http.StatusBadRequest,
			"either assistant_id or all=true is required", s.logger)
		return
	}

	var req confirmRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), s.logger)
		return
	}
	if !req.Confirm {
		writeError(w, http.StatusBadRequest,
			"deleting the whole collection requires confirm=true", s.logger)
		return
	}

	n, err := s.cfg.Knowledge.HardDeleteAll(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, deletedResponse{DeletedCount: n}, s.logger)
}

// queryInt32 parses an int32 query parameter, falling back on absence or
// malformed input.
func queryInt32(r *http.Request, key string, fallback int32) int32 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(v)
}
