package knowledge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicstack/civickb/internal/log"
)

// fakeQuerier is an in-memory Querier for unit tests. It records which
// candidate-list method served a bulk update and can be told to fail patches
// for specific ids.
type fakeQuerier struct {
	mu      sync.Mutex
	entries map[string]Entry

	lastListMethod string
	failPatchIDs   map[string]bool
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{
		entries:      make(map[string]Entry),
		failPatchIDs: make(map[string]bool),
	}
}

func (f *fakeQuerier) InsertEntry(_ context.Context, e Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[e.ID] = e
	return nil
}

func (f *fakeQuerier) GetEntry(_ context.Context, id string) (Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	return e, nil
}

func (f *fakeQuerier) PatchEntry(_ context.Context, id string, u Update, updatedAt int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPatchIDs[id] {
		return fmt.Errorf("simulated patch failure for %s", id)
	}
	e, ok := f.entries[id]
	if !ok {
		return ErrEntryNotFound
	}
	e = u.Apply(e)
	e.UpdatedAt = updatedAt
	f.entries[id] = e
	return nil
}

func (f *fakeQuerier) DeleteEntry(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[id]; !ok {
		return ErrEntryNotFound
	}
	delete(f.entries, id)
	return nil
}

func (f *fakeQuerier) DeleteEntriesByAssistant(_ context.Context, assistantID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, e := range f.entries {
		if e.AssistantID == assistantID {
			delete(f.entries, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeQuerier) DeleteAllEntries(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.entries))
	f.entries = make(map[string]Entry)
	return n, nil
}

func (f *fakeQuerier) list(method string, match func(Entry) bool) []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastListMethod = method
	var out []Entry
	for _, e := range f.entries {
		if match(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeQuerier) ListEntriesByAssistant(_ context.Context, assistantID string) ([]Entry, error) {
	return f.list("by_assistant", func(e Entry) bool { return e.AssistantID == assistantID }), nil
}

func (f *fakeQuerier) ListEntriesByOrganization(_ context.Context, organizationID string) ([]Entry, error) {
	return f.list("by_organization", func(e Entry) bool {
		return e.OrganizationID != nil && *e.OrganizationID == organizationID
	}), nil
}

func (f *fakeQuerier) ListEntriesBySourceURL(_ context.Context, sourceURL string) ([]Entry, error) {
	return f.list("by_source_url", func(e Entry) bool { return e.SourceURL == sourceURL }), nil
}

func (f *fakeQuerier) ListEntriesByStatus(_ context.Context, status Status) ([]Entry, error) {
	return f.list("by_status", func(e Entry) bool { return e.Status == status }), nil
}

func (f *fakeQuerier) ListEntriesByUploader(_ context.Context, uploadedBy string) ([]Entry, error) {
	return f.list("by_uploader", func(e Entry) bool { return e.UploadedBy == uploadedBy }), nil
}

func (f *fakeQuerier) ListEntriesPage(_ context.Context, limit, offset int32) ([]Entry, error) {
	all := f.list("full_scan", func(Entry) bool { return true })
	if int(offset) >= len(all) {
		return nil, nil
	}
	end := int(offset) + int(limit)
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// fakeDirectory resolves a fixed set of assistant ids.
type fakeDirectory struct {
	ids map[string]bool
}

func (d *fakeDirectory) AssistantExists(_ context.Context, id string) (bool, error) {
	return d.ids[id], nil
}

// fakeClock yields strictly increasing times, one millisecond per call.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func newTestStore(t *testing.T, assistantIDs ...string) (*Store, *fakeQuerier) {
	t.Helper()
	q := newFakeQuerier()
	ids := make(map[string]bool, len(assistantIDs))
	for _, id := range assistantIDs {
		ids[id] = true
	}
	clock := newFakeClock()
	s := New(q, &fakeDirectory{ids: ids}, log.NewNop(), WithClock(clock.Now))
	return s, q
}

func TestCreateDefaults(t *testing.T) {
	s, _ := newTestStore(t, "asst-1")
	ctx := context.Background()

	e, err := s.Create(ctx, CreateParams{
		AssistantID: "asst-1",
		Title:       "City waste schedule",
		SourceURL:   "https://example.gov/waste",
		UploadedBy:  "user-1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, StatusPending, e.Status)
	assert.True(t, e.IsActive)
	assert.Equal(t, FrequencyNever, e.Frequency)
	assert.Equal(t, FileTypeDocument, e.FileType)
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)
	assert.Nil(t, e.ProcessingError)
}

func TestCreateUnknownAssistant(t *testing.T) {
	s, _ := newTestStore(t, "asst-1")

	_, err := s.Create(context.Background(), CreateParams{
		AssistantID: "missing",
		Title:       "x",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAssistantNotFound)
}

func TestCreateRequiresAssistantID(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Create(context.Background(), CreateParams{Title: "x"})
	assert.ErrorIs(t, err, ErrAssistantNotFound)
}

func TestGetNotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Get(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestUpdateStatusKeepsEarlierError(t *testing.T) {
	s, q := newTestStore(t, "asst-1")
	ctx := context.Background()

	e, err := s.Create(ctx, CreateParams{AssistantID: "asst-1", Title: "t"})
	require.NoError(t, err)

	procErr := "fetch timed out"
	require.NoError(t, s.UpdateStatus(ctx, e.ID, StatusUpdate{
		Status:          StatusFailed,
		ProcessingError: &procErr,
	}))

	// A later success report must not clear the stored error.
	chunks := int32(12)
	require.NoError(t, s.UpdateStatus(ctx, e.ID, StatusUpdate{
		Status:     StatusCompleted,
		ChunkCount: &chunks,
	}))

	got, err := q.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	require.NotNil(t, got.ProcessingError)
	assert.Equal(t, procErr, *got.ProcessingError)
	require.NotNil(t, got.ChunkCount)
	assert.Equal(t, chunks, *got.ChunkCount)
}

func TestUpdateStatusNotFound(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.UpdateStatus(context.Background(), "ghost", StatusUpdate{Status: StatusProcessing})
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestUpdatedAtMonotonic(t *testing.T) {
	s, q := newTestStore(t, "asst-1")
	ctx := context.Background()

	e, err := s.Create(ctx, CreateParams{AssistantID: "asst-1", Title: "t"})
	require.NoError(t, err)

	prev := e.UpdatedAt
	for _, status := range []Status{StatusProcessing, StatusCompleted} {
		require.NoError(t, s.UpdateStatus(ctx, e.ID, StatusUpdate{Status: status}))
		got, err := q.GetEntry(ctx, e.ID)
		require.NoError(t, err)
		assert.Greater(t, got.UpdatedAt, prev)
		prev = got.UpdatedAt
	}
}

func TestSoftDeleteIdempotent(t *testing.T) {
	s, q := newTestStore(t, "asst-1")
	ctx := context.Background()

	e, err := s.Create(ctx, CreateParams{AssistantID: "asst-1", Title: "t"})
	require.NoError(t, err)

	require.NoError(t, s.SoftDelete(ctx, e.ID))
	require.NoError(t, s.SoftDelete(ctx, e.ID))

	got, err := q.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDeleted, got.Status)
	assert.False(t, got.IsActive)

	// Soft-deleted rows stay queryable.
	fetched, err := s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, fetched.ID)
}

func TestHardDeleteTwice(t *testing.T) {
	s, _ := newTestStore(t, "asst-1")
	ctx := context.Background()

	e, err := s.Create(ctx, CreateParams{AssistantID: "asst-1", Title: "t"})
	require.NoError(t, err)

	require.NoError(t, s.HardDelete(ctx, e.ID))
	err = s.HardDelete(ctx, e.ID)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestHardDeleteByAssistant(t *testing.T) {
	s, _ := newTestStore(t, "asst-1", "asst-2")
	ctx := context.Background()

	for range 3 {
		_, err := s.Create(ctx, CreateParams{AssistantID: "asst-1", Title: "a"})
		require.NoError(t, err)
	}
	keep, err := s.Create(ctx, CreateParams{AssistantID: "asst-2", Title: "b"})
	require.NoError(t, err)

	n, err := s.HardDeleteByAssistant(ctx, "asst-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = s.Get(ctx, keep.ID)
	assert.NoError(t, err)
}

func TestHardDeleteAll(t *testing.T) {
	s, _ := newTestStore(t, "asst-1")
	ctx := context.Background()

	for range 4 {
		_, err := s.Create(ctx, CreateParams{AssistantID: "asst-1", Title: "a"})
		require.NoError(t, err)
	}

	n, err := s.HardDeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	entries, err := s.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestToggleActive(t *testing.T) {
	s, _ := newTestStore(t, "asst-1")
	ctx := context.Background()

	e, err := s.Create(ctx, CreateParams{AssistantID: "asst-1", Title: "t"})
	require.NoError(t, err)
	require.True(t, e.IsActive)

	off, err := s.ToggleActive(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, off.IsActive)
	assert.Greater(t, off.UpdatedAt, e.UpdatedAt)

	on, err := s.ToggleActive(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, on.IsActive)

	// Toggling is independent of lifecycle status.
	require.NoError(t, s.SoftDelete(ctx, e.ID))
	back, err := s.ToggleActive(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, back.IsActive)
	assert.Equal(t, StatusDeleted, back.Status)
}

func TestPatchEmptyUpdate(t *testing.T) {
	s, _ := newTestStore(t, "asst-1")

	_, err := s.Patch(context.Background(), "any", Update{})
	assert.ErrorIs(t, err, ErrEmptyUpdate)
}

func TestPatchReassignChecksAssistant(t *testing.T) {
	s, _ := newTestStore(t, "asst-1")
	ctx := context.Background()

	e, err := s.Create(ctx, CreateParams{AssistantID: "asst-1", Title: "t"})
	require.NoError(t, err)

	ghost := "nope"
	_, err = s.Patch(ctx, e.ID, Update{AssistantID: &ghost})
	assert.ErrorIs(t, err, ErrAssistantNotFound)
}

func TestPatchClearProcessingError(t *testing.T) {
	s, q := newTestStore(t, "asst-1")
	ctx := context.Background()

	e, err := s.Create(ctx, CreateParams{AssistantID: "asst-1", Title: "t"})
	require.NoError(t, err)

	procErr := "boom"
	require.NoError(t, s.UpdateStatus(ctx, e.ID, StatusUpdate{
		Status: StatusFailed, ProcessingError: &procErr,
	}))

	got, err := s.Patch(ctx, e.ID, Update{ClearProcessingError: true})
	require.NoError(t, err)
	assert.Nil(t, got.ProcessingError)

	stored, err := q.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ProcessingError)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrEntryNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", ErrAssistantNotFound)))
	assert.False(t, IsNotFound(errors.New("other")))
	assert.False(t, IsNotFound(nil))
}
