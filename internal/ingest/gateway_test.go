package ingest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicstack/civickb/internal/log"
)

func TestSubmitSuccess(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"queued":true}`))
	}))
	defer srv.Close()

	g := New(srv.URL, 5*time.Second, log.NewNop())
	res, err := g.Submit(context.Background(), Submission{
		AssistantID:    "asst-1",
		SourceURL:      "https://example.gov/docs",
		CollectionName: "permits",
		UploadedBy:     "clerk-1",
		TaskID:         "task-9",
		IncludeImg:     true,
		Frequency:      "weekly",
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "task-9", res.TaskID)
	assert.JSONEq(t, `{"queued":true}`, string(res.Data))
	assert.Empty(t, res.Error)

	// Wire contract: snake_case throughout, except collectionName.
	assert.Equal(t, "asst-1", captured["assistant_id"])
	assert.Equal(t, "https://example.gov/docs", captured["source_url"])
	assert.Equal(t, "permits", captured["collectionName"])
	assert.Equal(t, "clerk-1", captured["uploaded_by"])
	assert.Equal(t, "task-9", captured["task_id"])
	assert.Equal(t, true, captured["include_img"])
	assert.Equal(t, "weekly", captured["frequency"])
	_, hasCamelSource := captured["sourceUrl"]
	assert.False(t, hasCamelSource)
}

func TestSubmitGeneratesTaskID(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := New(srv.URL, 5*time.Second, log.NewNop())
	res, err := g.Submit(context.Background(), Submission{
		AssistantID: "asst-1",
		SourceURL:   "https://example.gov/docs",
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.NotEmpty(t, res.TaskID)
	assert.Equal(t, res.TaskID, captured["task_id"])
}

func TestSubmitUpstreamRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	g := New(srv.URL, 5*time.Second, log.NewNop())
	res, err := g.Submit(context.Background(), Submission{
		AssistantID: "asst-1",
		SourceURL:   "https://example.gov/docs",
		TaskID:      "task-1",
	})

	// Upstream failure is a Result, not an error.
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "task-1", res.TaskID)
	assert.Contains(t, res.Error, "502")
}

func TestSubmitUpstreamUnreachable(t *testing.T) {
	// A server that is already closed yields a transport error.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	g := New(srv.URL, 2*time.Second, log.NewNop())
	res, err := g.Submit(context.Background(), Submission{
		AssistantID: "asst-1",
		SourceURL:   "https://example.gov/docs",
		TaskID:      "task-1",
	})

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "unreachable")
}

func TestSubmitValidatesInput(t *testing.T) {
	g := New("http://localhost:0", time.Second, log.NewNop())

	_, err := g.Submit(context.Background(), Submission{SourceURL: "https://x.example"})
	assert.ErrorContains(t, err, "assistant id")

	_, err = g.Submit(context.Background(), Submission{AssistantID: "a"})
	assert.ErrorContains(t, err, "source url")
}

func TestNewDefaultsTimeout(t *testing.T) {
	g := New("http://localhost:0", 0, nil)
	assert.Equal(t, 30*time.Second, g.client.Timeout)
}
