package knowledge

// Status is the processing lifecycle state of a knowledge entry.
//
// The expected progression is pending → processing → completed/failed/not
// found, with soft delete possible from any state. The store does not reject
// unusual transitions — the external crawler owns progression and may replay
// updates; a terminal entry is superseded by creating a new one.
type Status string

// Knowledge entry lifecycle states.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusDeleted    Status = "deleted"
	StatusNotFound   Status = "not found"
)

// Known reports whether s is one of the defined lifecycle states.
func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusDeleted, StatusNotFound:
		return true
	}
	return false
}

// FileType classifies the ingested source.
type FileType string

// Source classifications.
const (
	FileTypeDocument FileType = "document"
	FileTypeLink     FileType = "link"
	FileTypeSitemap  FileType = "sitemap"
	FileTypeText     FileType = "text"
)

// Known reports whether t is one of the defined source classifications.
func (t FileType) Known() bool {
	switch t {
	case FileTypeDocument, FileTypeLink, FileTypeSitemap, FileTypeText:
		return true
	}
	return false
}

// Frequency is the re-crawl cadence for an entry.
type Frequency string

// Re-crawl cadences.
const (
	FrequencyNever   Frequency = "never"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Known reports whether f is one of the defined cadences.
func (f Frequency) Known() bool {
	switch f {
	case FrequencyNever, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Entry is one ingested source (document/link/sitemap/text) feeding an
// assistant's retrieval tool.
//
// CreatedAt and UpdatedAt are epoch milliseconds stamped by the store,
// independent of any storage-level row timestamps. UpdatedAt is refreshed on
// every mutation. IsActive is an admin toggle independent of Status; the soft
// delete operation is the only place that couples the two
// (status=deleted implies is_active=false).
type Entry struct {
	ID             string  `json:"id"`
	AssistantID    string  `json:"assistantId"`
	OrganizationID *string `json:"organizationId,omitempty"`
	Department     *string `json:"department,omitempty"`

	Title          string  `json:"title"`
	Description    *string `json:"description,omitempty"`
	SourceURL      string  `json:"sourceUrl"`
	TaskID         string  `json:"taskId"`
	ItemExternalID string  `json:"itemExternalId"`
	UploadedBy     string  `json:"uploadedBy"`

	FileType   FileType `json:"fileType"`
	FileSize   string   `json:"fileSize"`
	IncludeImg bool     `json:"includeImg"`
	IncludeDoc bool     `json:"includeDoc"`

	Status          Status    `json:"status"`
	ProcessingError *string   `json:"processingError,omitempty"`
	ContentHash     string    `json:"contentHash"`
	ChunkCount      *int32    `json:"chunkCount,omitempty"`
	Frequency       Frequency `json:"frequency"`
	IsActive        bool      `json:"isActive"`

	PageCount *int32  `json:"pageCount,omitempty"`
	WordCount *int32  `json:"wordCount,omitempty"`
	Language  *string `json:"language,omitempty"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// CreateParams carries caller-supplied fields for a new entry.
// Zero values default downstream: status=pending, isActive=true,
// frequency=never, fileType=document.
type CreateParams struct {
	AssistantID    string    `json:"assistantId"`
	OrganizationID *string   `json:"organizationId,omitempty"`
	Department     *string   `json:"department,omitempty"`
	Title          string    `json:"title"`
	Description    *string   `json:"description,omitempty"`
	SourceURL      string    `json:"sourceUrl"`
	TaskID         string    `json:"taskId"`
	ItemExternalID string    `json:"itemExternalId"`
	UploadedBy     string    `json:"uploadedBy"`
	FileType       FileType  `json:"fileType"`
	FileSize       string    `json:"fileSize"`
	IncludeImg     bool      `json:"includeImg"`
	IncludeDoc     bool      `json:"includeDoc"`
	ContentHash    string    `json:"contentHash"`
	Frequency      Frequency `json:"frequency"`
	PageCount      *int32    `json:"pageCount,omitempty"`
	WordCount      *int32    `json:"wordCount,omitempty"`
	Language       *string   `json:"language,omitempty"`
}

// StatusUpdate carries the fields of an external status report.
// ProcessingError and ChunkCount are stored only when supplied; in particular
// a completed report does NOT clear an earlier processing error — callers
// that want it gone must clear it explicitly via a bulk update.
type StatusUpdate struct {
	Status          Status  `json:"status"`
	ProcessingError *string `json:"processingError,omitempty"`
	ChunkCount      *int32  `json:"chunkCount,omitempty"`
}
