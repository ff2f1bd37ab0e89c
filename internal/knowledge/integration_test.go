package knowledge_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicstack/civickb/internal/assistant"
	"github.com/civicstack/civickb/internal/knowledge"
	"github.com/civicstack/civickb/internal/log"
	"github.com/civicstack/civickb/internal/testutil"
)

// TestPostgresLifecycle exercises the store against a real PostgreSQL
// instance: creation, status progression, sparse patching with error
// clearing, bulk filtered updates and both deletion modes.
func TestPostgresLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	logger := log.NewNop()

	registry := assistant.NewRegistry(testDB.Pool, logger)
	store := knowledge.New(knowledge.NewPostgresQuerier(testDB.Pool), registry, logger)

	asst, err := registry.Create(ctx, assistant.CreateParams{Name: "city-helper"})
	require.NoError(t, err)

	t.Run("create and fetch", func(t *testing.T) {
		e, err := store.Create(ctx, knowledge.CreateParams{
			AssistantID: asst.ID,
			Title:       "Garbage collection schedule",
			SourceURL:   "https://example.gov/garbage",
			UploadedBy:  "clerk-1",
			FileType:    knowledge.FileTypeLink,
		})
		require.NoError(t, err)
		assert.Equal(t, knowledge.StatusPending, e.Status)

		got, err := store.Get(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, e.ID, got.ID)
		assert.Equal(t, knowledge.FileTypeLink, got.FileType)
		assert.True(t, got.IsActive)
	})

	t.Run("status progression keeps processing error", func(t *testing.T) {
		e, err := store.Create(ctx, knowledge.CreateParams{
			AssistantID: asst.ID,
			Title:       "Flaky source",
			SourceURL:   "https://example.gov/flaky",
		})
		require.NoError(t, err)

		procErr := "connection reset"
		require.NoError(t, store.UpdateStatus(ctx, e.ID, knowledge.StatusUpdate{
			Status:          knowledge.StatusFailed,
			ProcessingError: &procErr,
		}))

		chunks := int32(9)
		require.NoError(t, store.UpdateStatus(ctx, e.ID, knowledge.StatusUpdate{
			Status:     knowledge.StatusCompleted,
			ChunkCount: &chunks,
		}))

		got, err := store.Get(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, knowledge.StatusCompleted, got.Status)
		require.NotNil(t, got.ProcessingError)
		assert.Equal(t, procErr, *got.ProcessingError)

		// Explicit clearing via patch.
		cleared, err := store.Patch(ctx, e.ID, knowledge.Update{ClearProcessingError: true})
		require.NoError(t, err)
		assert.Nil(t, cleared.ProcessingError)
	})

	t.Run("bulk update with residual filter", func(t *testing.T) {
		for _, uploader := range []string{"alice", "alice", "bob"} {
			_, err := store.Create(ctx, knowledge.CreateParams{
				AssistantID: asst.ID,
				Title:       "bulk-target",
				SourceURL:   "https://example.gov/bulk",
				UploadedBy:  uploader,
			})
			require.NoError(t, err)
		}

		alice := "alice"
		inactive := false
		res, err := store.BulkUpdate(ctx,
			knowledge.Filter{AssistantID: &asst.ID, UploadedBy: &alice},
			knowledge.Update{IsActive: &inactive},
		)
		require.NoError(t, err)
		assert.Equal(t, 2, res.MatchedCount)
		assert.Equal(t, 2, res.UpdatedCount)

		for _, id := range res.UpdatedIDs {
			got, err := store.Get(ctx, id)
			require.NoError(t, err)
			assert.False(t, got.IsActive)
		}
	})

	t.Run("soft delete keeps row", func(t *testing.T) {
		e, err := store.Create(ctx, knowledge.CreateParams{
			AssistantID: asst.ID,
			Title:       "soft",
		})
		require.NoError(t, err)

		require.NoError(t, store.SoftDelete(ctx, e.ID))
		got, err := store.Get(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, knowledge.StatusDeleted, got.Status)
		assert.False(t, got.IsActive)
	})

	t.Run("hard delete removes row", func(t *testing.T) {
		e, err := store.Create(ctx, knowledge.CreateParams{
			AssistantID: asst.ID,
			Title:       "hard",
		})
		require.NoError(t, err)

		require.NoError(t, store.HardDelete(ctx, e.ID))
		_, err = store.Get(ctx, e.ID)
		assert.ErrorIs(t, err, knowledge.ErrEntryNotFound)

		err = store.HardDelete(ctx, e.ID)
		assert.ErrorIs(t, err, knowledge.ErrEntryNotFound)
	})

	t.Run("purge assistant knowledge base", func(t *testing.T) {
		other, err := registry.Create(ctx, assistant.CreateParams{Name: "parks-helper"})
		require.NoError(t, err)
		for range 2 {
			_, err := store.Create(ctx, knowledge.CreateParams{
				AssistantID: other.ID,
				Title:       "purge-me",
			})
			require.NoError(t, err)
		}

		n, err := store.HardDeleteByAssistant(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		entries, err := store.ListByAssistant(ctx, other.ID)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
