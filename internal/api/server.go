// Package api exposes the knowledge lifecycle, tool assignment and ingestion
// subsystems over HTTP/JSON. Every response uses a uniform envelope
// {success, data?, message?, error?}.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/civicstack/civickb/internal/assistant"
	"github.com/civicstack/civickb/internal/ingest"
	"github.com/civicstack/civickb/internal/knowledge"
	"github.com/civicstack/civickb/internal/tool"
)

// Default rate limit: 10 req/s refill with a configurable burst.
const defaultRateLimit = 10.0

// ServerConfig carries the dependencies for the HTTP server.
type ServerConfig struct {
	Logger     *slog.Logger
	Knowledge  *knowledge.Store
	Tools      *tool.Engine
	Assistants *assistant.Registry
	Ingest     *ingest.Gateway

	// Pinger reports database liveness for the readiness probe. Optional;
	// when nil the /ready endpoint only confirms the process is up.
	Pinger Pinger

	// TrustProxy enables X-Real-IP / X-Forwarded-For for rate limit keys.
	TrustProxy bool
	// RateBurst is the per-IP token bucket size; <=0 disables rate limiting.
	RateBurst int
}

// Pinger is the readiness-check subset of *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the knowledge platform API.
type Server struct {
	cfg     ServerConfig
	logger  *slog.Logger
	handler http.Handler
}

// NewServer creates a Server and builds its route table.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Server{cfg: cfg, logger: cfg.Logger}
	s.handler = s.routes()
	return s
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// routes builds the route table and wraps it in the middleware chain:
// recovery → request id → logging → rate limit → mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)

	// Knowledge entries.
	mux.HandleFunc("POST /api/v1/knowledge", s.handleCreateKnowledge)
	mux.HandleFunc("GET /api/v1/knowledge", s.handleListKnowledge)
	mux.HandleFunc("PUT /api/v1/knowledge", s.handleBulkUpdateKnowledge)
	mux.HandleFunc("DELETE /api/v1/knowledge", s.handleDeleteKnowledgeCollection)
	mux.HandleFunc("GET /api/v1/knowledge/{id}", s.handleGetKnowledge)
	mux.HandleFunc("PUT /api/v1/knowledge/{id}", s.handlePatchKnowledge)
	mux.HandleFunc("PUT /api/v1/knowledge/{id}/status", s.handleUpdateKnowledgeStatus)
	mux.HandleFunc("PUT /api/v1/knowledge/{id}/toggle", s.handleToggleKnowledge)
	mux.HandleFunc("DELETE /api/v1/knowledge/{id}", s.handleDeleteKnowledge)

	// Tool catalog.
	mux.HandleFunc("POST /api/v1/tools", s.handleCreateTool)
	mux.HandleFunc("GET /api/v1/tools", s.handleListTools)
	mux.HandleFunc("GET /api/v1/tools/{id}", s.handleGetTool)
	mux.HandleFunc("PUT /api/v1/tools/{id}", s.handleUpdateTool)
	mux.HandleFunc("DELETE /api/v1/tools/{id}", s.handleDeleteTool)

	// Assistants and their tool assignments.
	mux.HandleFunc("POST /api/v1/assistants", s.handleCreateAssistant)
	mux.HandleFunc("GET /api/v1/assistants", s.handleListAssistants)
	mux.HandleFunc("GET /api/v1/assistants/{id}", s.handleGetAssistant)
	mux.HandleFunc("DELETE /api/v1/assistants/{id}", s.handleDeleteAssistant)
	mux.HandleFunc("POST /api/v1/assistants/{id}/tools", s.handleAssignTool)
	mux.HandleFunc("GET /api/v1/assistants/{id}/tools", s.handleListAssistantTools)
	mux.HandleFunc("GET /api/v1/assistants/{id}/knowledge", s.handleListAssistantKnowledge)
	mux.HandleFunc("PATCH /api/v1/assignments/{id}", s.handleUpdateAssignment)
	mux.HandleFunc("DELETE /api/v1/assignments/{id}", s.handleRemoveAssignment)

	// Ingestion gateway.
	mux.HandleFunc("POST /api/v1/ingest", s.handleIngest)

	var h http.Handler = mux
	if s.cfg.RateBurst > 0 {
		rl := newRateLimiter(defaultRateLimit, s.cfg.RateBurst)
		h = rateLimitMiddleware(rl, s.cfg.TrustProxy, s.logger)(h)
	}
	h = loggingMiddleware(s.logger)(h)
	h = requestIDMiddleware()(h)
	h = recoveryMiddleware(s.logger)(h)
	return h
}
