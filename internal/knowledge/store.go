package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Querier defines the database operations on knowledge entries.
// Interfaces are defined by the consumer, not the provider; Store depends on
// this abstraction so unit tests can substitute an in-memory implementation.
//
// Implementations must return ErrEntryNotFound (possibly wrapped) from
// GetEntry, PatchEntry and DeleteEntry when the id does not exist.
type Querier interface {
	InsertEntry(ctx context.Context, e Entry) error
	GetEntry(ctx context.Context, id string) (Entry, error)
	PatchEntry(ctx context.Context, id string, u Update, updatedAt int64) error
	DeleteEntry(ctx context.Context, id string) error
	DeleteEntriesByAssistant(ctx context.Context, assistantID string) (int64, error)
	DeleteAllEntries(ctx context.Context) (int64, error)

	// Indexed candidate lookups for the bulk engine. Each narrows by one
	// equality; residual filtering happens in the engine.
	ListEntriesByAssistant(ctx context.Context, assistantID string) ([]Entry, error)
	ListEntriesByOrganization(ctx context.Context, organizationID string) ([]Entry, error)
	ListEntriesBySourceURL(ctx context.Context, sourceURL string) ([]Entry, error)
	ListEntriesByStatus(ctx context.Context, status Status) ([]Entry, error)
	ListEntriesByUploader(ctx context.Context, uploadedBy string) ([]Entry, error)

	// ListEntriesPage scans the whole collection in pages (unindexed fallback).
	ListEntriesPage(ctx context.Context, limit, offset int32) ([]Entry, error)
}

// AssistantDirectory resolves assistant ids. Every creation path and any
// bulk filter naming an assistant checks existence through it first.
type AssistantDirectory interface {
	AssistantExists(ctx context.Context, id string) (bool, error)
}

// Store owns the ingestion lifecycle of knowledge entries: creation,
// status progression reported by the external crawler, soft/hard deletion
// and the bulk filtered update engine (bulk.go).
//
// Store is safe for concurrent use by multiple goroutines. Concurrent
// mutations of the same entry are not ordered here — last write wins at the
// database's natural ordering; there is no optimistic-concurrency token.
type Store struct {
	queries    Querier
	assistants AssistantDirectory
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used to stamp createdAt/updatedAt.
// Tests use this to assert timestamp monotonicity deterministically.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a knowledge Store.
func New(querier Querier, assistants AssistantDirectory, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		queries:    querier,
		assistants: assistants,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// nowMillis returns the current time as epoch milliseconds.
func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

// checkAssistant verifies the assistant id resolves.
func (s *Store) checkAssistant(ctx context.Context, assistantID string) error {
	ok, err := s.assistants.AssistantExists(ctx, assistantID)
	if err != nil {
		return fmt.Errorf("resolving assistant %q: %w", assistantID, err)
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrAssistantNotFound, assistantID)
	}
	return nil
}

// Create inserts a new entry in pending state and returns it.
// The referenced assistant must exist; ErrAssistantNotFound otherwise.
// Defaults: status=pending, isActive=true, frequency=never, fileType=document.
func (s *Store) Create(ctx context.Context, p CreateParams) (Entry, error) {
	if p.AssistantID == "" {
		return Entry{}, fmt.Errorf("%w: assistant id is required", ErrAssistantNotFound)
	}
	if err := s.checkAssistant(ctx, p.AssistantID); err != nil {
		return Entry{}, err
	}

	now := s.nowMillis()
	e := Entry{
		ID:             uuid.NewString(),
		AssistantID:    p.AssistantID,
		OrganizationID: p.OrganizationID,
		Department:     p.Department,
		Title:          p.Title,
		Description:    p.Description,
		SourceURL:      p.SourceURL,
		TaskID:         p.TaskID,
		ItemExternalID: p.ItemExternalID,
		UploadedBy:     p.UploadedBy,
		FileType:       p.FileType,
		FileSize:       p.FileSize,
		IncludeImg:     p.IncludeImg,
		IncludeDoc:     p.IncludeDoc,
		Status:         StatusPending,
		ContentHash:    p.ContentHash,
		Frequency:      p.Frequency,
		IsActive:       true,
		PageCount:      p.PageCount,
		WordCount:      p.WordCount,
		Language:       p.Language,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if e.FileType == "" {
		e.FileType = FileTypeDocument
	}
	if e.Frequency == "" {
		e.Frequency = FrequencyNever
	}

	if err := s.queries.InsertEntry(ctx, e); err != nil {
		return Entry{}, fmt.Errorf("inserting entry: %w", err)
	}

	s.logger.Debug("created knowledge entry",
		"id", e.ID, "assistant_id", e.AssistantID, "file_type", e.FileType)
	return e, nil
}

// Get returns the entry by id, ErrEntryNotFound if absent.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	e, err := s.queries.GetEntry(ctx, id)
	if err != nil {
		return Entry{}, fmt.Errorf("getting entry %q: %w", id, err)
	}
	return e, nil
}

// ListByAssistant returns every entry for the assistant (soft-deleted rows
// included — they remain queryable by design).
func (s *Store) ListByAssistant(ctx context.Context, assistantID string) ([]Entry, error) {
	entries, err := s.queries.ListEntriesByAssistant(ctx, assistantID)
	if err != nil {
		return nil, fmt.Errorf("listing entries for assistant %q: %w", assistantID, err)
	}
	return entries, nil
}

// List returns one page of the whole collection.
func (s *Store) List(ctx context.Context, limit, offset int32) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	entries, err := s.queries.ListEntriesPage(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return entries, nil
}

// UpdateStatus records a status report from the external crawler and stamps
// updatedAt. ProcessingError and ChunkCount are stored only when supplied;
// an earlier error is NOT cleared by a later success report.
// Returns ErrEntryNotFound if the entry does not exist.
func (s *Store) UpdateStatus(ctx context.Context, id string, u StatusUpdate) error {
	status := u.Status
	patch := Update{
		Status:          &status,
		ProcessingError: u.ProcessingError,
		ChunkCount:      u.ChunkCount,
	}
	if err := s.queries.PatchEntry(ctx, id, patch, s.nowMillis()); err != nil {
		return fmt.Errorf("updating status of entry %q: %w", id, err)
	}

	s.logger.Debug("updated entry status", "id", id, "status", status)
	return nil
}

// Patch applies a sparse update to one entry and returns the updated row.
// At least one field must be set. If the update reassigns the entry to a
// different assistant, that assistant must exist.
func (s *Store) Patch(ctx context.Context, id string, u Update) (Entry, error) {
	if u.IsEmpty() {
		return Entry{}, ErrEmptyUpdate
	}
	if u.AssistantID != nil {
		if err := s.checkAssistant(ctx, *u.AssistantID); err != nil {
			return Entry{}, err
		}
	}

	if err := s.queries.PatchEntry(ctx, id, u, s.nowMillis()); err != nil {
		return Entry{}, fmt.Errorf("patching entry %q: %w", id, err)
	}
	return s.Get(ctx, id)
}

// SoftDelete marks the entry deleted and inactive; the row remains queryable.
// Safe to call repeatedly — it converges to the same state every time.
func (s *Store) SoftDelete(ctx context.Context, id string) error {
	status := StatusDeleted
	inactive := false
	patch := Update{Status: &status, IsActive: &inactive}
	if err := s.queries.PatchEntry(ctx, id, patch, s.nowMillis()); err != nil {
		return fmt.Errorf("soft-deleting entry %q: %w", id, err)
	}

	s.logger.Debug("soft-deleted entry", "id", id)
	return nil
}

// HardDelete removes the row permanently. ErrEntryNotFound if absent,
// including on a second call for the same id.
func (s *Store) HardDelete(ctx context.Context, id string) error {
	if err := s.queries.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("deleting entry %q: %w", id, err)
	}

	s.logger.Debug("hard-deleted entry", "id", id)
	return nil
}

// HardDeleteByAssistant removes every entry referencing the assistant and
// returns the count. This is the only cascade-style operation in the
// subsystem; deleting an assistant elsewhere does not trigger it — callers
// must invoke it explicitly.
func (s *Store) HardDeleteByAssistant(ctx context.Context, assistantID string) (int64, error) {
	n, err := s.queries.DeleteEntriesByAssistant(ctx, assistantID)
	if err != nil {
		return 0, fmt.Errorf("deleting entries for assistant %q: %w", assistantID, err)
	}

	s.logger.Info("purged assistant knowledge base",
		"assistant_id", assistantID, "deleted_count", n)
	return n, nil
}

// HardDeleteAll removes every entry in the collection and returns the count.
// Exposed only behind an explicit confirmation at the API layer.
func (s *Store) HardDeleteAll(ctx context.Context) (int64, error) {
	n, err := s.queries.DeleteAllEntries(ctx)
	if err != nil {
		return 0, fmt.Errorf("deleting all entries: %w", err)
	}

	s.logger.Warn("deleted entire knowledge collection", "deleted_count", n)
	return n, nil
}

// ToggleActive flips the isActive flag, independent of status.
func (s *Store) ToggleActive(ctx context.Context, id string) (Entry, error) {
	e, err := s.queries.GetEntry(ctx, id)
	if err != nil {
		return Entry{}, fmt.Errorf("getting entry %q: %w", id, err)
	}

	active := !e.IsActive
	patch := Update{IsActive: &active}
	now := s.nowMillis()
	if err := s.queries.PatchEntry(ctx, id, patch, now); err != nil {
		return Entry{}, fmt.Errorf("toggling entry %q: %w", id, err)
	}

	e.IsActive = active
	e.UpdatedAt = now
	return e, nil
}

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntryNotFound) || errors.Is(err, ErrAssistantNotFound)
}
