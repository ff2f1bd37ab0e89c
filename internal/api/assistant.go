package api

import (
	"net/http"

	"github.com/civicstack/civickb/internal/assistant"
)

// handleCreateAssistant registers a new assistant.
func (s *Server) handleCreateAssistant(w http.ResponseWriter, r *http.Request) {
	var p assistant.CreateParams
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), s.logger)
		return
	}
	if p.Name == "" {
		writeError(w, http.StatusBadRequest, "assistant name is required", s.logger)
		return
	}

	a, err := s.cfg.Assistants.Create(r.Context(), p)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, a, s.logger)
}

// handleGetAssistant returns one assistant by id.
func (s *Server) handleGetAssistant(w http.ResponseWriter, r *http.Request) {
	a, err := s.cfg.Assistants.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, a, s.logger)
}

// handleListAssistants returns every assistant.
func (s *Server) handleListAssistants(w http.ResponseWriter, r *http.Request) {
	assistants, err := s.cfg.Assistants.List(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, assistants, s.logger)
}

// handleDeleteAssistant removes the assistant. Its knowledge entries and tool
// assignments stay; purge them explicitly via their own endpoints.
func (s *Server) handleDeleteAssistant(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Assistants.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "assistant deleted", s.logger)
}

// handleListAssistantKnowledge returns the assistant's knowledge entries.
func (s *Server) handleListAssistantKnowledge(w http.ResponseWriter, r *http.Request) {
	entries, err := s.cfg.Knowledge.ListByAssistant(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, entries, s.logger)
}
