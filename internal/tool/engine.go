// Package tool manages the tool catalog and the polymorphic assignment of
// tools (vector-search / web-crawl / web-search) to assistants.
package tool

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Querier defines the database operations on tools and assignments.
// Interfaces are defined by the consumer, not the provider; Engine depends
// on this abstraction so unit tests can substitute an in-memory fake.
//
// Implementations must return ErrToolNotFound / ErrAssignmentNotFound
// (possibly wrapped) when the targeted id does not exist.
type Querier interface {
	InsertTool(ctx context.Context, t Tool) error
	GetTool(ctx context.Context, id string) (Tool, error)
	GetToolByName(ctx context.Context, name string) (Tool, error)
	ListTools(ctx context.Context) ([]Tool, error)
	UpdateTool(ctx context.Context, id string, p ToolPatch, updatedAt int64) error
	DeleteTool(ctx context.Context, id string) error

	InsertAssignment(ctx context.Context, a Assignment) error
	GetAssignment(ctx context.Context, id string) (Assignment, error)
	ListAssignmentsByPair(ctx context.Context, assistantID, toolID string) ([]Assignment, error)
	ListAssignmentsByAssistant(ctx context.Context, assistantID string) ([]Assignment, error)
	UpdateAssignmentConfig(ctx context.Context, id string, c Config, updatedAt int64) error
	DeleteAssignment(ctx context.Context, id string) error
}

// AssistantDirectory resolves assistant ids.
type AssistantDirectory interface {
	AssistantExists(ctx context.Context, id string) (bool, error)
}

// Engine validates and persists tool definitions and their assignments.
//
// Engine is safe for concurrent use. The uniqueness check in Assign is
// read-then-insert and not serialized here; for qdrant assignments a partial
// unique index in the schema backstops the narrow race window.
type Engine struct {
	queries    Querier
	assistants AssistantDirectory
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a tool Engine.
func NewEngine(querier Querier, assistants AssistantDirectory, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		queries:    querier,
		assistants: assistants,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateTool registers a new tool. Name must be unique across all tools.
func (e *Engine) CreateTool(ctx context.Context, name, description, toolType string) (Tool, error) {
	if name == "" {
		return Tool{}, fmt.Errorf("%w: tool name is required", ErrInvalidConfig)
	}
	if toolType == "" {
		return Tool{}, fmt.Errorf("%w: tool type is required", ErrInvalidConfig)
	}

	if _, err := e.queries.GetToolByName(ctx, name); err == nil {
		return Tool{}, fmt.Errorf("%w: %q", ErrDuplicateToolName, name)
	} else if !IsNotFound(err) {
		return Tool{}, fmt.Errorf("checking tool name: %w", err)
	}

	now := e.now().UnixMilli()
	t := Tool{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Type:        toolType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.queries.InsertTool(ctx, t); err != nil {
		return Tool{}, fmt.Errorf("inserting tool: %w", err)
	}

	e.logger.Debug("created tool", "id", t.ID, "name", t.Name, "type", t.Type)
	return t, nil
}

// GetTool returns one tool by id.
func (e *Engine) GetTool(ctx context.Context, id string) (Tool, error) {
	t, err := e.queries.GetTool(ctx, id)
	if err != nil {
		return Tool{}, fmt.Errorf("getting tool %q: %w", id, err)
	}
	return t, nil
}

// ListTools returns the whole catalog.
func (e *Engine) ListTools(ctx context.Context) ([]Tool, error) {
	tools, err := e.queries.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tools: %w", err)
	}
	return tools, nil
}

// UpdateTool patches a tool. A renamed tool must keep the name unique.
func (e *Engine) UpdateTool(ctx context.Context, id string, p ToolPatch) error {
	if p.Name != nil {
		existing, err := e.queries.GetToolByName(ctx, *p.Name)
		if err == nil && existing.ID != id {
			return fmt.Errorf("%w: %q", ErrDuplicateToolName, *p.Name)
		}
		if err != nil && !IsNotFound(err) {
			return fmt.Errorf("checking tool name: %w", err)
		}
	}
	if err := e.queries.UpdateTool(ctx, id, p, e.now().UnixMilli()); err != nil {
		return fmt.Errorf("updating tool %q: %w", id, err)
	}
	return nil
}

// DeleteTool removes a tool from the catalog. Assignments referencing the
// tool are NOT cascaded; ListByAssistant drops them from its results.
func (e *Engine) DeleteTool(ctx context.Context, id string) error {
	if err := e.queries.DeleteTool(ctx, id); err != nil {
		return fmt.Errorf("deleting tool %q: %w", id, err)
	}

	e.logger.Debug("deleted tool", "id", id)
	return nil
}

// Assign attaches a tool to an assistant with a typed configuration.
//
// Validation order: assistant and tool must resolve; then the type-specific
// required field is checked; then the type-specific uniqueness rule. Only
// fields relevant to the tool's type are persisted.
func (e *Engine) Assign(ctx context.Context, assistantID, toolID string, cfg Config) (Assignment, error) {
	ok, err := e.assistants.AssistantExists(ctx, assistantID)
	if err != nil {
		return Assignment{}, fmt.Errorf("resolving assistant %q: %w", assistantID, err)
	}
	if !ok {
		return Assignment{}, fmt.Errorf("%w: %q", ErrAssistantNotFound, assistantID)
	}

	t, err := e.queries.GetTool(ctx, toolID)
	if err != nil {
		return Assignment{}, fmt.Errorf("resolving tool %q: %w", toolID, err)
	}

	if err := validateConfig(t.Type, cfg); err != nil {
		return Assignment{}, err
	}

	if err := e.checkUnique(ctx, assistantID, t, cfg); err != nil {
		return Assignment{}, err
	}

	now := e.now().UnixMilli()
	a := Assignment{
		ID:          uuid.NewString(),
		AssistantID: assistantID,
		ToolID:      toolID,
		Config:      cfg.forType(t.Type),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.queries.InsertAssignment(ctx, a); err != nil {
		return Assignment{}, fmt.Errorf("inserting assignment: %w", err)
	}

	e.logger.Debug("assigned tool",
		"assignment_id", a.ID, "assistant_id", assistantID,
		"tool_id", toolID, "tool_type", t.Type)
	return a, nil
}

// validateConfig enforces the type-specific required field.
// Optional fields pass through unvalidated (serialized filter syntax is the
// caller's responsibility). Unknown types carry no required fields.
func validateConfig(toolType string, cfg Config) error {
	switch toolType {
	case TypeQdrant:
		if cfg.CollectionName == "" {
			return fmt.Errorf("%w: Collection name is required", ErrInvalidConfig)
		}
	case TypeWeb:
		if len(cfg.URLs) == 0 {
			return fmt.Errorf("%w: At least one URL is required", ErrInvalidConfig)
		}
	case TypeSearch:
		if cfg.DefaultQuery == "" {
			return fmt.Errorf("%w: Default query is required", ErrInvalidConfig)
		}
	}
	return nil
}

// checkUnique enforces the per-type uniqueness rule. A qdrant tool may be
// attached to the same assistant multiple times under different collections;
// every other type allows at most one assignment per (assistant, tool) pair.
func (e *Engine) checkUnique(ctx context.Context, assistantID string, t Tool, cfg Config) error {
	existing, err := e.queries.ListAssignmentsByPair(ctx, assistantID, t.ID)
	if err != nil {
		return fmt.Errorf("checking existing assignments: %w", err)
	}

	if t.Type == TypeQdrant {
		for _, a := range existing {
			if a.Config.CollectionName == cfg.CollectionName {
				return fmt.Errorf("%w: collection %q", ErrDuplicateAssignment, cfg.CollectionName)
			}
		}
		return nil
	}

	if len(existing) > 0 {
		return fmt.Errorf("%w: tool %q", ErrDuplicateAssignment, t.Name)
	}
	return nil
}

// Remove detaches an assignment by id. The underlying tool and assistant are
// untouched.
func (e *Engine) Remove(ctx context.Context, assignmentID string) error {
	if err := e.queries.DeleteAssignment(ctx, assignmentID); err != nil {
		return fmt.Errorf("removing assignment %q: %w", assignmentID, err)
	}

	e.logger.Debug("removed assignment", "id", assignmentID)
	return nil
}

// UpdateConfig patches a subset of the variant fields.
//
// The type-required-field rule from Assign is deliberately not re-run here:
// a patch can clear the only required field for the tool's type (known gap,
// kept for compatibility with the existing behavior).
func (e *Engine) UpdateConfig(ctx context.Context, assignmentID string, p ConfigPatch) (Assignment, error) {
	if p.IsEmpty() {
		return Assignment{}, fmt.Errorf("%w: at least one config field is required", ErrInvalidConfig)
	}

	a, err := e.queries.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Assignment{}, fmt.Errorf("getting assignment %q: %w", assignmentID, err)
	}

	a.Config = p.apply(a.Config)
	now := e.now().UnixMilli()
	if err := e.queries.UpdateAssignmentConfig(ctx, assignmentID, a.Config, now); err != nil {
		return Assignment{}, fmt.Errorf("updating assignment %q: %w", assignmentID, err)
	}
	a.UpdatedAt = now

	return a, nil
}

// ListByAssistant returns each assignment joined with its tool summary.
// Assignments whose tool has since been deleted are dropped from the result;
// the orphan count is logged as a diagnostic rather than surfaced as an error.
func (e *Engine) ListByAssistant(ctx context.Context, assistantID string) ([]AssignmentView, error) {
	assignments, err := e.queries.ListAssignmentsByAssistant(ctx, assistantID)
	if err != nil {
		return nil, fmt.Errorf("listing assignments for assistant %q: %w", assistantID, err)
	}

	views := make([]AssignmentView, 0, len(assignments))
	orphans := 0
	for _, a := range assignments {
		t, err := e.queries.GetTool(ctx, a.ToolID)
		if err != nil {
			if IsNotFound(err) {
				orphans++
				continue
			}
			return nil, fmt.Errorf("resolving tool %q: %w", a.ToolID, err)
		}
		views = append(views, AssignmentView{
			Assignment: a,
			Tool: Summary{
				Name:        t.Name,
				Description: t.Description,
				Type:        t.Type,
			},
		})
	}

	if orphans > 0 {
		e.logger.Debug("dropped orphaned assignments from listing",
			"assistant_id", assistantID, "orphan_count", orphans)
	}
	return views, nil
}
