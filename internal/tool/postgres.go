package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgQuerier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const toolCols = `id, name, description, type, created_at, updated_at`
const assignmentCols = `id, assistant_id, tool_id, config, created_at, updated_at`

// PostgresQuerier implements Querier against PostgreSQL.
// Assignment configs are stored as a JSONB column.
type PostgresQuerier struct {
	db pgQuerier
}

// NewPostgresQuerier creates a PostgresQuerier. db is typically *pgxpool.Pool.
func NewPostgresQuerier(db pgQuerier) *PostgresQuerier {
	return &PostgresQuerier{db: db}
}

var _ Querier = (*PostgresQuerier)(nil)

// InsertTool inserts a tool row.
func (q *PostgresQuerier) InsertTool(ctx context.Context, t Tool) error {
	_, err := q.db.Exec(ctx, `INSERT INTO tools (`+toolCols+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Name, t.Description, t.Type, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert tool: %w", err)
	}
	return nil
}

// GetTool returns one tool by id.
func (q *PostgresQuerier) GetTool(ctx context.Context, id string) (Tool, error) {
	return q.getToolWhere(ctx, `id = $1`, id)
}

// GetToolByName returns one tool by its unique name.
func (q *PostgresQuerier) GetToolByName(ctx context.Context, name string) (Tool, error) {
	return q.getToolWhere(ctx, `name = $1`, name)
}

func (q *PostgresQuerier) getToolWhere(ctx context.Context, cond string, arg any) (Tool, error) {
	var t Tool
	err := q.db.QueryRow(ctx,
		`SELECT `+toolCols+` FROM tools WHERE `+cond, arg).Scan(
		&t.ID, &t.Name, &t.Description, &t.Type, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tool{}, ErrToolNotFound
		}
		return Tool{}, fmt.Errorf("select tool: %w", err)
	}
	return t, nil
}

// ListTools returns the whole catalog ordered by name.
func (q *PostgresQuerier) ListTools(ctx context.Context) ([]Tool, error) {
	rows, err := q.db.Query(ctx, `SELECT `+toolCols+` FROM tools ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select tools: %w", err)
	}
	defer rows.Close()

	var tools []Tool
	for rows.Next() {
		var t Tool
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Type, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tool: %w", err)
		}
		tools = append(tools, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tools: %w", err)
	}
	return tools, nil
}

// UpdateTool patches a tool row.
func (q *PostgresQuerier) UpdateTool(ctx context.Context, id string, p ToolPatch, updatedAt int64) error {
	set := "updated_at = $1"
	args := []any{updatedAt}
	add := func(col string, val any) {
		args = append(args, val)
		set += fmt.Sprintf(", %s = $%d", col, len(args))
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Type != nil {
		add("type", *p.Type)
	}
	args = append(args, id)

	tag, err := q.db.Exec(ctx,
		fmt.Sprintf(`UPDATE tools SET %s WHERE id = $%d`, set, len(args)), args...)
	if err != nil {
		return fmt.Errorf("update tool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrToolNotFound
	}
	return nil
}

// DeleteTool removes a tool row. Assignments are left in place.
func (q *PostgresQuerier) DeleteTool(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM tools WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrToolNotFound
	}
	return nil
}

// InsertAssignment inserts an assignment row with its JSONB config.
func (q *PostgresQuerier) InsertAssignment(ctx context.Context, a Assignment) error {
	cfg, err := json.Marshal(a.Config)
	if err != nil {
		return fmt.Errorf("marshal assignment config: %w", err)
	}
	_, err = q.db.Exec(ctx, `INSERT INTO assistant_tools (`+assignmentCols+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.AssistantID, a.ToolID, cfg, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

// GetAssignment returns one assignment by id.
func (q *PostgresQuerier) GetAssignment(ctx context.Context, id string) (Assignment, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+assignmentCols+` FROM assistant_tools WHERE id = $1`, id)
	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Assignment{}, ErrAssignmentNotFound
		}
		return Assignment{}, fmt.Errorf("select assignment: %w", err)
	}
	return a, nil
}

// ListAssignmentsByPair lists assignments for one (assistant, tool) pair.
func (q *PostgresQuerier) ListAssignmentsByPair(ctx context.Context, assistantID, toolID string) ([]Assignment, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+assignmentCols+` FROM assistant_tools
		 WHERE assistant_id = $1 AND tool_id = $2 ORDER BY created_at`,
		assistantID, toolID)
	if err != nil {
		return nil, fmt.Errorf("select assignments by pair: %w", err)
	}
	defer rows.Close()
	return scanAssignments(rows)
}

// ListAssignmentsByAssistant lists every assignment for the assistant.
func (q *PostgresQuerier) ListAssignmentsByAssistant(ctx context.Context, assistantID string) ([]Assignment, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+assignmentCols+` FROM assistant_tools
		 WHERE assistant_id = $1 ORDER BY created_at`, assistantID)
	if err != nil {
		return nil, fmt.Errorf("select assignments by assistant: %w", err)
	}
	defer rows.Close()
	return scanAssignments(rows)
}

// UpdateAssignmentConfig replaces the JSONB config of one assignment.
func (q *PostgresQuerier) UpdateAssignmentConfig(ctx context.Context, id string, c Config, updatedAt int64) error {
	cfg, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal assignment config: %w", err)
	}
	tag, err := q.db.Exec(ctx,
		`UPDATE assistant_tools SET config = $1, updated_at = $2 WHERE id = $3`,
		cfg, updatedAt, id)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

// DeleteAssignment removes one assignment row.
func (q *PostgresQuerier) DeleteAssignment(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM assistant_tools WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

// scanAssignment scans one row in assignmentCols order.
func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	var cfg []byte
	if err := row.Scan(&a.ID, &a.AssistantID, &a.ToolID, &cfg, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Assignment{}, err
	}
	if len(cfg) > 0 {
		if err := json.Unmarshal(cfg, &a.Config); err != nil {
			return Assignment{}, fmt.Errorf("unmarshal assignment config: %w", err)
		}
	}
	return a, nil
}

// scanAssignments drains rows into a slice.
func scanAssignments(rows pgx.Rows) ([]Assignment, error) {
	var assignments []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}
	return assignments, nil
}
