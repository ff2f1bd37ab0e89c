package tool_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicstack/civickb/internal/assistant"
	"github.com/civicstack/civickb/internal/log"
	"github.com/civicstack/civickb/internal/testutil"
	"github.com/civicstack/civickb/internal/tool"
)

// TestPostgresAssignments exercises the engine against a real PostgreSQL
// instance: JSONB config round-trips, per-type uniqueness and the schema's
// partial unique index on qdrant collections.
func TestPostgresAssignments(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	logger := log.NewNop()

	registry := assistant.NewRegistry(testDB.Pool, logger)
	engine := tool.NewEngine(tool.NewPostgresQuerier(testDB.Pool), registry, logger)

	asst, err := registry.Create(ctx, assistant.CreateParams{Name: "city-helper"})
	require.NoError(t, err)

	qdrant, err := engine.CreateTool(ctx, "kb-search", "vector retrieval", tool.TypeQdrant)
	require.NoError(t, err)

	t.Run("config round-trips through JSONB", func(t *testing.T) {
		limit := 7
		filter := `{"department":"permits"}`
		a, err := engine.Assign(ctx, asst.ID, qdrant.ID, tool.Config{
			CollectionName: "permits",
			DefaultLimit:   &limit,
			DefaultFilter:  &filter,
		})
		require.NoError(t, err)

		views, err := engine.ListByAssistant(ctx, asst.ID)
		require.NoError(t, err)
		require.Len(t, views, 1)
		got := views[0]
		assert.Equal(t, a.ID, got.ID)
		assert.Equal(t, "permits", got.Config.CollectionName)
		require.NotNil(t, got.Config.DefaultLimit)
		assert.Equal(t, 7, *got.Config.DefaultLimit)
		require.NotNil(t, got.Config.DefaultFilter)
		assert.Equal(t, filter, *got.Config.DefaultFilter)
		assert.Equal(t, "kb-search", got.Tool.Name)
	})

	t.Run("qdrant collections are unique per pair", func(t *testing.T) {
		_, err := engine.Assign(ctx, asst.ID, qdrant.ID, tool.Config{CollectionName: "zoning"})
		require.NoError(t, err)

		_, err = engine.Assign(ctx, asst.ID, qdrant.ID, tool.Config{CollectionName: "zoning"})
		assert.ErrorIs(t, err, tool.ErrDuplicateAssignment)
	})

	t.Run("config patch persists", func(t *testing.T) {
		views, err := engine.ListByAssistant(ctx, asst.ID)
		require.NoError(t, err)
		require.NotEmpty(t, views)
		target := views[0]

		newLimit := 3
		updated, err := engine.UpdateConfig(ctx, target.ID, tool.ConfigPatch{DefaultLimit: &newLimit})
		require.NoError(t, err)
		require.NotNil(t, updated.Config.DefaultLimit)
		assert.Equal(t, 3, *updated.Config.DefaultLimit)

		after, err := engine.ListByAssistant(ctx, asst.ID)
		require.NoError(t, err)
		for _, v := range after {
			if v.ID == target.ID {
				require.NotNil(t, v.Config.DefaultLimit)
				assert.Equal(t, 3, *v.Config.DefaultLimit)
			}
		}
	})
}
