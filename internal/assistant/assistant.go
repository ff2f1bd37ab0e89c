// Package assistant provides the assistant registry consumed by the
// knowledge and tool subsystems.
//
// The registry is read-mostly from this codebase's perspective: creation
// paths elsewhere only need existence checks. Deleting an assistant does NOT
// cascade into its knowledge entries — callers that want the knowledge base
// gone invoke knowledge.Store.HardDeleteByAssistant explicitly.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound indicates the requested assistant does not exist.
var ErrNotFound = errors.New("assistant not found")

// Visibility values for an assistant.
const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
	VisibilityCustom  = "custom"
)

// Assistant is a configured AI persona belonging to an organization.
type Assistant struct {
	ID             string  `json:"id"`
	OrganizationID *string `json:"organizationId,omitempty"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	ModelName      string  `json:"modelName"`
	SystemPrompt   string  `json:"systemPrompt"`
	Visibility     string  `json:"visibility"`
	CreatedAt      int64   `json:"createdAt"`
	UpdatedAt      int64   `json:"updatedAt"`
}

// CreateParams carries caller-supplied fields for a new assistant.
type CreateParams struct {
	OrganizationID *string `json:"organizationId,omitempty"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	ModelName      string  `json:"modelName"`
	SystemPrompt   string  `json:"systemPrompt"`
	Visibility     string  `json:"visibility"`
}

// pgQuerier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const assistantCols = `id, organization_id, name, description, model_name,
	system_prompt, visibility, created_at, updated_at`

// Registry manages assistant rows.
//
// Registry is safe for concurrent use by multiple goroutines.
type Registry struct {
	db     pgQuerier
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry creates a Registry. db is typically *pgxpool.Pool.
func NewRegistry(db pgQuerier, logger *slog.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{db: db, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create inserts a new assistant and returns it.
func (r *Registry) Create(ctx context.Context, p CreateParams) (Assistant, error) {
	if p.Name == "" {
		return Assistant{}, fmt.Errorf("assistant name is required")
	}
	if p.Visibility == "" {
		p.Visibility = VisibilityPrivate
	}

	now := r.now().UnixMilli()
	a := Assistant{
		ID:             uuid.NewString(),
		OrganizationID: p.OrganizationID,
		Name:           p.Name,
		Description:    p.Description,
		ModelName:      p.ModelName,
		SystemPrompt:   p.SystemPrompt,
		Visibility:     p.Visibility,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := r.db.Exec(ctx, `INSERT INTO assistants (`+assistantCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.OrganizationID, a.Name, a.Description, a.ModelName,
		a.SystemPrompt, a.Visibility, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return Assistant{}, fmt.Errorf("insert assistant: %w", err)
	}

	r.logger.Debug("created assistant", "id", a.ID, "name", a.Name)
	return a, nil
}

// Get returns one assistant by id, ErrNotFound if absent.
func (r *Registry) Get(ctx context.Context, id string) (Assistant, error) {
	var a Assistant
	err := r.db.QueryRow(ctx,
		`SELECT `+assistantCols+` FROM assistants WHERE id = $1`, id).Scan(
		&a.ID, &a.OrganizationID, &a.Name, &a.Description, &a.ModelName,
		&a.SystemPrompt, &a.Visibility, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Assistant{}, fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		return Assistant{}, fmt.Errorf("select assistant: %w", err)
	}
	return a, nil
}

// AssistantExists reports whether the id resolves.
// Satisfies knowledge.AssistantDirectory and tool.AssistantDirectory.
func (r *Registry) AssistantExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM assistants WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking assistant existence: %w", err)
	}
	return exists, nil
}

// List returns every assistant ordered by creation time.
func (r *Registry) List(ctx context.Context) ([]Assistant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+assistantCols+` FROM assistants ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("select assistants: %w", err)
	}
	defer rows.Close()

	var assistants []Assistant
	for rows.Next() {
		var a Assistant
		if err := rows.Scan(
			&a.ID, &a.OrganizationID, &a.Name, &a.Description, &a.ModelName,
			&a.SystemPrompt, &a.Visibility, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan assistant: %w", err)
		}
		assistants = append(assistants, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assistants: %w", err)
	}
	return assistants, nil
}

// Delete removes the assistant row. The assistant's knowledge entries and
// tool assignments are left in place; purging them is a separate, explicit
// call on their own stores.
func (r *Registry) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM assistants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete assistant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	r.logger.Debug("deleted assistant", "id", id)
	return nil
}
