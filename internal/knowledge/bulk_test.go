package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkUpdateRejectsEmptyFilter(t *testing.T) {
	s, _ := newTestStore(t, "asst-1")

	_, err := s.BulkUpdate(context.Background(), Filter{}, Update{Title: strPtr("x")})
	assert.ErrorIs(t, err, ErrEmptyFilter)
}

func TestBulkUpdateRejectsEmptyUpdate(t *testing.T) {
	s, _ := newTestStore(t, "asst-1")

	_, err := s.BulkUpdate(context.Background(),
		Filter{AssistantID: strPtr("asst-1")}, Update{})
	assert.ErrorIs(t, err, ErrEmptyUpdate)
}

func TestBulkUpdateUnknownAssistantInFilter(t *testing.T) {
	s, _ := newTestStore(t, "asst-1")

	_, err := s.BulkUpdate(context.Background(),
		Filter{AssistantID: strPtr("ghost")}, Update{Title: strPtr("x")})
	assert.ErrorIs(t, err, ErrAssistantNotFound)
}

func TestBulkUpdateUsesIndexSelectionOrder(t *testing.T) {
	tests := []struct {
		name       string
		filter     Filter
		wantMethod string
	}{
		{"assistant first", Filter{
			AssistantID: strPtr("asst-1"),
			Status:      statusPtr(StatusPending),
		}, "by_assistant"},
		{"organization second", Filter{
			OrganizationID: strPtr("org-1"),
			Status:         statusPtr(StatusPending),
		}, "by_organization"},
		{"source url third", Filter{
			SourceURL: strPtr("https://example.gov/a"),
			Status:    statusPtr(StatusPending),
		}, "by_source_url"},
		{"status fourth", Filter{
			Status:     statusPtr(StatusPending),
			UploadedBy: strPtr("user-1"),
		}, "by_status"},
		{"uploader fifth", Filter{UploadedBy: strPtr("user-1")}, "by_uploader"},
		{"full scan fallback", Filter{Title: strPtr("anything")}, "full_scan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, q := newTestStore(t, "asst-1")
			_, err := s.BulkUpdate(context.Background(), tt.filter, Update{IsActive: boolPtr(false)})
			require.NoError(t, err)
			assert.Equal(t, tt.wantMethod, q.lastListMethod)
		})
	}
}

func TestBulkUpdateResidualFiltering(t *testing.T) {
	s, _ := newTestStore(t, "asst-1")
	ctx := context.Background()

	// Three entries for the same assistant; only one matches the residual
	// uploadedBy constraint.
	for _, uploader := range []string{"alice", "alice", "bob"} {
		_, err := s.Create(ctx, CreateParams{
			AssistantID: "asst-1",
			Title:       "doc",
			UploadedBy:  uploader,
		})
		require.NoError(t, err)
	}

	res, err := s.BulkUpdate(ctx,
		Filter{AssistantID: strPtr("asst-1"), UploadedBy: strPtr("bob")},
		Update{IsActive: boolPtr(false)},
	)
	require.NoError(t, err)
	assert.Equal(t, 1, res.MatchedCount)
	assert.Equal(t, 1, res.UpdatedCount)
	assert.Len(t, res.UpdatedIDs, 1)
}

func TestBulkUpdateAppliesToAllMatches(t *testing.T) {
	s, q := newTestStore(t, "asst-1", "asst-2")
	ctx := context.Background()

	var targetIDs []string
	for range 3 {
		e, err := s.Create(ctx, CreateParams{AssistantID: "asst-1", Title: "doc"})
		require.NoError(t, err)
		targetIDs = append(targetIDs, e.ID)
	}
	other, err := s.Create(ctx, CreateParams{AssistantID: "asst-2", Title: "doc"})
	require.NoError(t, err)

	status := StatusProcessing
	res, err := s.BulkUpdate(ctx,
		Filter{AssistantID: strPtr("asst-1")},
		Update{Status: &status},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, res.MatchedCount)
	assert.Equal(t, 3, res.UpdatedCount)
	assert.ElementsMatch(t, targetIDs, res.UpdatedIDs)

	for _, id := range targetIDs {
		got, err := q.GetEntry(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, StatusProcessing, got.Status)
	}
	// The other assistant's entry is untouched.
	untouched, err := q.GetEntry(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, untouched.Status)
}

func TestBulkUpdatePartialFailureAccounting(t *testing.T) {
	s, q := newTestStore(t, "asst-1")
	ctx := context.Background()

	var ids []string
	for range 5 {
		e, err := s.Create(ctx, CreateParams{AssistantID: "asst-1", Title: "doc"})
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}

	// Two rows fail to patch; the batch continues through the rest.
	q.failPatchIDs[ids[1]] = true
	q.failPatchIDs[ids[3]] = true

	res, err := s.BulkUpdate(ctx,
		Filter{AssistantID: strPtr("asst-1")},
		Update{IsActive: boolPtr(false)},
	)
	require.NoError(t, err)
	assert.Equal(t, 5, res.MatchedCount)
	assert.Equal(t, 3, res.UpdatedCount)
	assert.NotContains(t, res.UpdatedIDs, ids[1])
	assert.NotContains(t, res.UpdatedIDs, ids[3])
}

func TestBulkUpdateNoMatches(t *testing.T) {
	s, _ := newTestStore(t, "asst-1")
	ctx := context.Background()

	_, err := s.Create(ctx, CreateParams{AssistantID: "asst-1", Title: "doc"})
	require.NoError(t, err)

	res, err := s.BulkUpdate(ctx,
		Filter{AssistantID: strPtr("asst-1"), Title: strPtr("does not exist")},
		Update{IsActive: boolPtr(false)},
	)
	require.NoError(t, err)
	assert.Equal(t, 0, res.MatchedCount)
	assert.Equal(t, 0, res.UpdatedCount)
	assert.Empty(t, res.UpdatedIDs)
}

func TestBulkUpdateFullScanPagination(t *testing.T) {
	s, q := newTestStore(t, "asst-1")
	ctx := context.Background()

	// More rows than one scan page to exercise the pagination loop.
	total := scanPageSize + 7
	for range total {
		_, err := s.Create(ctx, CreateParams{AssistantID: "asst-1", Title: "bulk"})
		require.NoError(t, err)
	}

	res, err := s.BulkUpdate(ctx,
		Filter{Title: strPtr("bulk")},
		Update{Frequency: freqPtr(FrequencyDaily)},
	)
	require.NoError(t, err)
	assert.Equal(t, "full_scan", q.lastListMethod)
	assert.Equal(t, total, res.MatchedCount)
	assert.Equal(t, total, res.UpdatedCount)
}

func freqPtr(f Frequency) *Frequency { return &f }
