package knowledge

import (
	"context"
	"fmt"
)

// scanPageSize is the page size for the unindexed full-scan fallback.
const scanPageSize = 500

// BulkResult reports the outcome of a bulk filtered update.
// MatchedCount is computed before patching; UpdatedCount reflects rows that
// were actually patched and can be lower when individual patches fail.
type BulkResult struct {
	MatchedCount int      `json:"matchedCount"`
	UpdatedCount int      `json:"updatedCount"`
	UpdatedIDs   []string `json:"updatedIds"`
}

// BulkUpdate applies one sparse update to every entry matching the filter.
//
// Candidate selection uses the first recognized high-selectivity field
// (assistantId → organizationId → sourceUrl → status → uploadedBy, else a
// paginated full scan); the index only narrows the candidate set — every
// supplied filter field is then applied as an exact AND-match.
//
// Each matched row is patched individually: the underlying store has no
// cross-row transaction, so a batch is never all-or-nothing. Per-row patch
// failures are logged and skipped; the failed row is counted in MatchedCount
// but omitted from UpdatedIDs.
func (s *Store) BulkUpdate(ctx context.Context, f Filter, u Update) (BulkResult, error) {
	if f.IsEmpty() {
		return BulkResult{}, ErrEmptyFilter
	}
	if u.IsEmpty() {
		return BulkResult{}, ErrEmptyUpdate
	}

	if f.AssistantID != nil {
		if err := s.checkAssistant(ctx, *f.AssistantID); err != nil {
			return BulkResult{}, err
		}
	}

	idx := f.selectIndex()
	candidates, err := s.candidates(ctx, idx, f)
	if err != nil {
		return BulkResult{}, err
	}

	var matched []Entry
	for _, e := range candidates {
		if f.Matches(e) {
			matched = append(matched, e)
		}
	}

	s.logger.Debug("bulk update matched",
		"index", idx.String(),
		"candidates", len(candidates),
		"matched", len(matched),
	)

	result := BulkResult{
		MatchedCount: len(matched),
		UpdatedIDs:   make([]string, 0, len(matched)),
	}
	for _, e := range matched {
		if err := s.queries.PatchEntry(ctx, e.ID, u, s.nowMillis()); err != nil {
			// Partial-failure tolerance: the batch continues and the row is
			// omitted from UpdatedIDs.
			s.logger.Warn("bulk update: patch failed, skipping row",
				"id", e.ID, "error", err)
			continue
		}
		result.UpdatedIDs = append(result.UpdatedIDs, e.ID)
	}
	result.UpdatedCount = len(result.UpdatedIDs)

	return result, nil
}

// candidates fetches the candidate set for the selected index.
func (s *Store) candidates(ctx context.Context, idx entryIndex, f Filter) ([]Entry, error) {
	switch idx {
	case indexAssistant:
		entries, err := s.queries.ListEntriesByAssistant(ctx, *f.AssistantID)
		if err != nil {
			return nil, fmt.Errorf("listing candidates by assistant: %w", err)
		}
		return entries, nil
	case indexOrganization:
		entries, err := s.queries.ListEntriesByOrganization(ctx, *f.OrganizationID)
		if err != nil {
			return nil, fmt.Errorf("listing candidates by organization: %w", err)
		}
		return entries, nil
	case indexSourceURL:
		entries, err := s.queries.ListEntriesBySourceURL(ctx, *f.SourceURL)
		if err != nil {
			return nil, fmt.Errorf("listing candidates by source url: %w", err)
		}
		return entries, nil
	case indexStatus:
		entries, err := s.queries.ListEntriesByStatus(ctx, *f.Status)
		if err != nil {
			return nil, fmt.Errorf("listing candidates by status: %w", err)
		}
		return entries, nil
	case indexUploader:
		entries, err := s.queries.ListEntriesByUploader(ctx, *f.UploadedBy)
		if err != nil {
			return nil, fmt.Errorf("listing candidates by uploader: %w", err)
		}
		return entries, nil
	default:
		return s.scanAll(ctx)
	}
}

// scanAll pages through the whole collection.
func (s *Store) scanAll(ctx context.Context) ([]Entry, error) {
	var all []Entry
	for offset := int32(0); ; offset += scanPageSize {
		page, err := s.queries.ListEntriesPage(ctx, scanPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("scanning entries at offset %d: %w", offset, err)
		}
		all = append(all, page...)
		if len(page) < scanPageSize {
			return all, nil
		}
	}
}
