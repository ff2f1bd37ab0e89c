package knowledge

import (
	"context"
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

// entryCols is the standard SELECT column list for scanEntries.
const entryCols = `id, assistant_id, organization_id, department,
	title, description, source_url, task_id, item_external_id, uploaded_by,
	file_type, file_size, include_img, include_doc,
	status, processing_error, content_hash, chunk_count, frequency, is_active,
	page_count, word_count, language, created_at, updated_at`

// PostgresQuerier implements Querier against PostgreSQL with hand-written SQL.
type PostgresQuerier struct {
	db pgQuerier
}

// NewPostgresQuerier creates a PostgresQuerier. db is typically *pgxpool.Pool.
func NewPostgresQuerier(db pgQuerier) *PostgresQuerier {
	return &PostgresQuerier{db: db}
}

var _ Querier = (*PostgresQuerier)(nil)

// InsertEntry inserts a fully populated entry row.
func (q *PostgresQuerier) InsertEntry(ctx context.Context, e Entry) error {
	_, err := q.db.Exec(ctx, `INSERT INTO knowledge_entries (`+entryCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
		e.ID, e.AssistantID, e.OrganizationID, e.Department,
		e.Title, e.Description, e.SourceURL, e.TaskID, e.ItemExternalID, e.UploadedBy,
		e.FileType, e.FileSize, e.IncludeImg, e.IncludeDoc,
		e.Status, e.ProcessingError, e.ContentHash, e.ChunkCount, e.Frequency, e.IsActive,
		e.PageCount, e.WordCount, e.Language, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert knowledge_entries: %w", err)
	}
	return nil
}

// GetEntry returns one entry by id.
func (q *PostgresQuerier) GetEntry(ctx context.Context, id string) (Entry, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+entryCols+` FROM knowledge_entries WHERE id = $1`, id)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, fmt.Errorf("select knowledge_entries: %w", err)
	}
	return e, nil
}

// PatchEntry applies the supplied update fields plus updated_at to one row.
// Returns ErrEntryNotFound when the id does not exist.
func (q *PostgresQuerier) PatchEntry(ctx context.Context, id string, u Update, updatedAt int64) error {
	set, args := buildPatch(u, updatedAt)
	args = append(args, id)
	sql := fmt.Sprintf(`UPDATE knowledge_entries SET %s WHERE id = $%d`, set, len(args))

	tag, err := q.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update knowledge_entries: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// buildPatch builds the SET clause for PatchEntry from the supplied fields.
// Column names are fixed literals; only values are parameterized.
func buildPatch(u Update, updatedAt int64) (string, []any) {
	set := "updated_at = $1"
	args := []any{updatedAt}

	add := func(col string, val any) {
		args = append(args, val)
		set += fmt.Sprintf(", %s = $%d", col, len(args))
	}

	if u.OrganizationID != nil {
		add("organization_id", *u.OrganizationID)
	}
	if u.AssistantID != nil {
		add("assistant_id", *u.AssistantID)
	}
	if u.SourceURL != nil {
		add("source_url", *u.SourceURL)
	}
	if u.TaskID != nil {
		add("task_id", *u.TaskID)
	}
	if u.UploadedBy != nil {
		add("uploaded_by", *u.UploadedBy)
	}
	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.ItemExternalID != nil {
		add("item_external_id", *u.ItemExternalID)
	}
	if u.IncludeImg != nil {
		add("include_img", *u.IncludeImg)
	}
	if u.IncludeDoc != nil {
		add("include_doc", *u.IncludeDoc)
	}
	if u.FileType != nil {
		add("file_type", *u.FileType)
	}
	if u.FileSize != nil {
		add("file_size", *u.FileSize)
	}
	if u.IsActive != nil {
		add("is_active", *u.IsActive)
	}
	if u.Status != nil {
		add("status", *u.Status)
	}
	// Postgres rejects two assignments to the same column; when clearing,
	// the supplied value is ignored (clear wins, as in Update.Apply).
	if u.ProcessingError != nil && !u.ClearProcessingError {
		add("processing_error", *u.ProcessingError)
	}
	if u.ContentHash != nil {
		add("content_hash", *u.ContentHash)
	}
	if u.Frequency != nil {
		add("frequency", *u.Frequency)
	}
	if u.ChunkCount != nil {
		add("chunk_count", *u.ChunkCount)
	}
	if u.Department != nil {
		add("department", *u.Department)
	}
	if u.ClearProcessingError {
		set += ", processing_error = NULL"
	}

	return set, args
}

// DeleteEntry removes one row permanently.
func (q *PostgresQuerier) DeleteEntry(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM knowledge_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete knowledge_entries: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// DeleteEntriesByAssistant removes every row for the assistant.
func (q *PostgresQuerier) DeleteEntriesByAssistant(ctx context.Context, assistantID string) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM knowledge_entries WHERE assistant_id = $1`, assistantID)
	if err != nil {
		return 0, fmt.Errorf("delete knowledge_entries by assistant: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteAllEntries removes every row in the collection.
func (q *PostgresQuerier) DeleteAllEntries(ctx context.Context) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM knowledge_entries`)
	if err != nil {
		return 0, fmt.Errorf("delete all knowledge_entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListEntriesByAssistant lists candidates via the assistant_id index.
func (q *PostgresQuerier) ListEntriesByAssistant(ctx context.Context, assistantID string) ([]Entry, error) {
	return q.listWhere(ctx, `assistant_id = $1`, assistantID)
}

// ListEntriesByOrganization lists candidates via the organization_id index.
func (q *PostgresQuerier) ListEntriesByOrganization(ctx context.Context, organizationID string) ([]Entry, error) {
	return q.listWhere(ctx, `organization_id = $1`, organizationID)
}

// ListEntriesBySourceURL lists candidates via the source_url index.
func (q *PostgresQuerier) ListEntriesBySourceURL(ctx context.Context, sourceURL string) ([]Entry, error) {
	return q.listWhere(ctx, `source_url = $1`, sourceURL)
}

// ListEntriesByStatus lists candidates via the status index.
func (q *PostgresQuerier) ListEntriesByStatus(ctx context.Context, status Status) ([]Entry, error) {
	return q.listWhere(ctx, `status = $1`, string(status))
}

// ListEntriesByUploader lists candidates via the uploaded_by index.
func (q *PostgresQuerier) ListEntriesByUploader(ctx context.Context, uploadedBy string) ([]Entry, error) {
	return q.listWhere(ctx, `uploaded_by = $1`, uploadedBy)
}

// ListEntriesPage scans the whole collection one page at a time.
// Ordered by id so that pagination is stable across pages.
func (q *PostgresQuerier) ListEntriesPage(ctx context.Context, limit, offset int32) ([]Entry, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+entryCols+` FROM knowledge_entries ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("select knowledge_entries page: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// listWhere runs a single-condition candidate query.
func (q *PostgresQuerier) listWhere(ctx context.Context, cond string, arg any) ([]Entry, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+entryCols+` FROM knowledge_entries WHERE `+cond+` ORDER BY created_at`, arg)
	if err != nil {
		return nil, fmt.Errorf("select knowledge_entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// scanEntry scans one row in entryCols order.
func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(
		&e.ID, &e.AssistantID, &e.OrganizationID, &e.Department,
		&e.Title, &e.Description, &e.SourceURL, &e.TaskID, &e.ItemExternalID, &e.UploadedBy,
		&e.FileType, &e.FileSize, &e.IncludeImg, &e.IncludeDoc,
		&e.Status, &e.ProcessingError, &e.ContentHash, &e.ChunkCount, &e.Frequency, &e.IsActive,
		&e.PageCount, &e.WordCount, &e.Language, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

// scanEntries drains rows into a slice.
func scanEntries(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan knowledge entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate knowledge entries: %w", err)
	}
	return entries, nil
}
