package api

import (
	"net/http"

	"github.com/civicstack/civickb/internal/tool"
)

// createToolRequest is the body of POST /api/v1/tools.
type createToolRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// handleCreateTool registers a tool in the catalog.
func (s *Server) handleCreateTool(w http.ResponseWriter, r *http.Request) {
	var req createToolRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), s.logger)
		return
	}

	t, err := s.cfg.Tools.CreateTool(r.Context(), req.Name, req.Description, req.Type)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, t, s.logger)
}

// handleGetTool returns one tool by id.
func (s *Server) handleGetTool(w http.ResponseWriter, r *http.Request) {
	t, err := s.cfg.Tools.GetTool(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, t, s.logger)
}

// handleListTools returns the whole catalog.
func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	tools, err := s.cfg.Tools.ListTools(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, tools, s.logger)
}

// handleUpdateTool patches a tool's name/description/type.
func (s *Server) handleUpdateTool(w http.ResponseWriter, r *http.Request) {
	var p tool.ToolPatch
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), s.logger)
		return
	}

	id := r.PathValue("id")
	if err := s.cfg.Tools.UpdateTool(r.Context(), id, p); err != nil {
		s.respondError(w, r, err)
		return
	}

	t, err := s.cfg.Tools.GetTool(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, t, s.logger)
}

// handleDeleteTool removes a tool from the catalog. Existing assignments are
// left in place and filtered out of listings.
func (s *Server) handleDeleteTool(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Tools.DeleteTool(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "tool deleted", s.logger)
}

// assignToolRequest is the body of POST /api/v1/assistants/{id}/tools.
type assignToolRequest struct {
	ToolID string      `json:"toolId"`
	Config tool.Config `json:"config"`
}

// handleAssignTool attaches a tool to the assistant with a typed
// configuration.
func (s *Server) handleAssignTool(w http.ResponseWriter, r *http.Request) {
	var req assignToolRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), s.logger)
		return
	}
	if req.ToolID == "" {
		writeError(w, http.StatusBadRequest, "toolId is required", s.logger)
		return
	}

	a, err := s.cfg.Tools.Assign(r.Context(), r.PathValue("id"), req.ToolID, req.Config)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, a, s.logger)
}

// handleListAssistantTools returns the assistant's assignments joined with
// their tool summaries.
func (s *Server) handleListAssistantTools(w http.ResponseWriter, r *http.Request) {
	views, err := s.cfg.Tools.ListByAssistant(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, views, s.logger)
}

// handleUpdateAssignment patches an assignment's configuration.
func (s *Server) handleUpdateAssignment(w http.ResponseWriter, r *http.Request) {
	var p tool.ConfigPatch
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), s.logger)
		return
	}

	a, err := s.cfg.Tools.UpdateConfig(r.Context(), r.PathValue("id"), p)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, a, s.logger)
}

// handleRemoveAssignment detaches an assignment.
func (s *Server) handleRemoveAssignment(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Tools.Remove(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "assignment removed", s.logger)
}
