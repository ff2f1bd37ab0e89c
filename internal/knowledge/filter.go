package knowledge

// Filter selects knowledge entries by exact AND-match over every supplied
// field. Every field is optional; a nil field is not a constraint. At least
// one field must be set for a bulk update.
type Filter struct {
	OrganizationID  *string    `json:"organizationId,omitempty"`
	AssistantID     *string    `json:"assistantId,omitempty"`
	SourceURL       *string    `json:"sourceUrl,omitempty"`
	TaskID          *string    `json:"taskId,omitempty"`
	UploadedBy      *string    `json:"uploadedBy,omitempty"`
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	ItemExternalID  *string    `json:"itemExternalId,omitempty"`
	IncludeImg      *bool      `json:"includeImg,omitempty"`
	IncludeDoc      *bool      `json:"includeDoc,omitempty"`
	FileType        *FileType  `json:"fileType,omitempty"`
	FileSize        *string    `json:"fileSize,omitempty"`
	IsActive        *bool      `json:"isActive,omitempty"`
	Status          *Status    `json:"status,omitempty"`
	ProcessingError *string    `json:"processingError,omitempty"`
	ContentHash     *string    `json:"contentHash,omitempty"`
	Frequency       *Frequency `json:"frequency,omitempty"`
	ChunkCount      *int32     `json:"chunkCount,omitempty"`
	Department      *string    `json:"department,omitempty"`
}

// fieldPredicate is one (field name, exact-match check) pair built from a
// supplied filter field. Building an explicit list keeps the AND semantics
// mechanically checkable instead of hiding constraints behind nil checks.
type fieldPredicate struct {
	name  string
	match func(Entry) bool
}

// eqPtr matches an optional entry field against a required filter value:
// the entry field must be present and equal.
func eqPtr[T comparable](got *T, want T) bool {
	return got != nil && *got == want
}

// predicates returns one predicate per supplied filter field.
func (f Filter) predicates() []fieldPredicate {
	var preds []fieldPredicate
	add := func(name string, match func(Entry) bool) {
		preds = append(preds, fieldPredicate{name: name, match: match})
	}

	if f.OrganizationID != nil {
		add("organizationId", func(e Entry) bool { return eqPtr(e.OrganizationID, *f.OrganizationID) })
	}
	if f.AssistantID != nil {
		add("assistantId", func(e Entry) bool { return e.AssistantID == *f.AssistantID })
	}
	if f.SourceURL != nil {
		add("sourceUrl", func(e Entry) bool { return e.SourceURL == *f.SourceURL })
	}
	if f.TaskID != nil {
		add("taskId", func(e Entry) bool { return e.TaskID == *f.TaskID })
	}
	if f.UploadedBy != nil {
		add("uploadedBy", func(e Entry) bool { return e.UploadedBy == *f.UploadedBy })
	}
	if f.Title != nil {
		add("title", func(e Entry) bool { return e.Title == *f.Title })
	}
	if f.Description != nil {
		add("description", func(e Entry) bool { return eqPtr(e.Description, *f.Description) })
	}
	if f.ItemExternalID != nil {
		add("itemExternalId", func(e Entry) bool { return e.ItemExternalID == *f.ItemExternalID })
	}
	if f.IncludeImg != nil {
		add("includeImg", func(e Entry) bool { return e.IncludeImg == *f.IncludeImg })
	}
	if f.IncludeDoc != nil {
		add("includeDoc", func(e Entry) bool { return e.IncludeDoc == *f.IncludeDoc })
	}
	if f.FileType != nil {
		add("fileType", func(e Entry) bool { return e.FileType == *f.FileType })
	}
	if f.FileSize != nil {
		add("fileSize", func(e Entry) bool { return e.FileSize == *f.FileSize })
	}
	if f.IsActive != nil {
		add("isActive", func(e Entry) bool { return e.IsActive == *f.IsActive })
	}
	if f.Status != nil {
		add("status", func(e Entry) bool { return e.Status == *f.Status })
	}
	if f.ProcessingError != nil {
		add("processingError", func(e Entry) bool { return eqPtr(e.ProcessingError, *f.ProcessingError) })
	}
	if f.ContentHash != nil {
		add("contentHash", func(e Entry) bool { return e.ContentHash == *f.ContentHash })
	}
	if f.Frequency != nil {
		add("frequency", func(e Entry) bool { return e.Frequency == *f.Frequency })
	}
	if f.ChunkCount != nil {
		add("chunkCount", func(e Entry) bool { return eqPtr(e.ChunkCount, *f.ChunkCount) })
	}
	if f.Department != nil {
		add("department", func(e Entry) bool { return eqPtr(e.Department, *f.Department) })
	}

	return preds
}

// IsEmpty reports whether no filter field is set.
func (f Filter) IsEmpty() bool {
	return len(f.predicates()) == 0
}

// Matches reports whether the entry satisfies every supplied filter field.
func (f Filter) Matches(e Entry) bool {
	for _, p := range f.predicates() {
		if !p.match(e) {
			return false
		}
	}
	return true
}

// entryIndex identifies which index narrows the candidate set for a filter.
type entryIndex int

// Index selection order, most selective first. Only the first supplied field
// drives the index lookup; every supplied field is still applied as a
// residual exact-match filter afterwards.
const (
	indexNone entryIndex = iota
	indexAssistant
	indexOrganization
	indexSourceURL
	indexStatus
	indexUploader
)

// String names the index for logging.
func (i entryIndex) String() string {
	switch i {
	case indexAssistant:
		return "by_assistant"
	case indexOrganization:
		return "by_organization"
	case indexSourceURL:
		return "by_source_url"
	case indexStatus:
		return "by_status"
	case indexUploader:
		return "by_uploader"
	default:
		return "full_scan"
	}
}

// selectIndex picks the index for the candidate lookup.
func (f Filter) selectIndex() entryIndex {
	switch {
	case f.AssistantID != nil:
		return indexAssistant
	case f.OrganizationID != nil:
		return indexOrganization
	case f.SourceURL != nil:
		return indexSourceURL
	case f.Status != nil:
		return indexStatus
	case f.UploadedBy != nil:
		return indexUploader
	default:
		return indexNone
	}
}

// Update is a sparse patch over the same field set as Filter. Only supplied
// fields are applied; unspecified fields are untouched. UpdatedAt is always
// stamped by the store, never by the caller.
//
// ClearProcessingError removes a stored processing error; a nil
// ProcessingError alone means "leave as is", so clearing needs its own flag.
type Update struct {
	OrganizationID  *string    `json:"organizationId,omitempty"`
	AssistantID     *string    `json:"assistantId,omitempty"`
	SourceURL       *string    `json:"sourceUrl,omitempty"`
	TaskID          *string    `json:"taskId,omitempty"`
	UploadedBy      *string    `json:"uploadedBy,omitempty"`
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	ItemExternalID  *string    `json:"itemExternalId,omitempty"`
	IncludeImg      *bool      `json:"includeImg,omitempty"`
	IncludeDoc      *bool      `json:"includeDoc,omitempty"`
	FileType        *FileType  `json:"fileType,omitempty"`
	FileSize        *string    `json:"fileSize,omitempty"`
	IsActive        *bool      `json:"isActive,omitempty"`
	Status          *Status    `json:"status,omitempty"`
	ProcessingError *string    `json:"processingError,omitempty"`
	ContentHash     *string    `json:"contentHash,omitempty"`
	Frequency       *Frequency `json:"frequency,omitempty"`
	ChunkCount      *int32     `json:"chunkCount,omitempty"`
	Department      *string    `json:"department,omitempty"`

	ClearProcessingError bool `json:"clearProcessingError,omitempty"`
}

// IsEmpty reports whether no update field is set.
func (u Update) IsEmpty() bool {
	return u.OrganizationID == nil &&
		u.AssistantID == nil &&
		u.SourceURL == nil &&
		u.TaskID == nil &&
		u.UploadedBy == nil &&
		u.Title == nil &&
		u.Description == nil &&
		u.ItemExternalID == nil &&
		u.IncludeImg == nil &&
		u.IncludeDoc == nil &&
		u.FileType == nil &&
		u.FileSize == nil &&
		u.IsActive == nil &&
		u.Status == nil &&
		u.ProcessingError == nil &&
		u.ContentHash == nil &&
		u.Frequency == nil &&
		u.ChunkCount == nil &&
		u.Department == nil &&
		!u.ClearProcessingError
}

// Apply returns a copy of e with the supplied update fields set.
// Used by in-memory fakes and by tests to state expected outcomes; the
// Postgres querier applies the same semantics in SQL.
func (u Update) Apply(e Entry) Entry {
	if u.OrganizationID != nil {
		v := *u.OrganizationID
		e.OrganizationID = &v
	}
	if u.AssistantID != nil {
		e.AssistantID = *u.AssistantID
	}
	if u.SourceURL != nil {
		e.SourceURL = *u.SourceURL
	}
	if u.TaskID != nil {
		e.TaskID = *u.TaskID
	}
	if u.UploadedBy != nil {
		e.UploadedBy = *u.UploadedBy
	}
	if u.Title != nil {
		e.Title = *u.Title
	}
	if u.Description != nil {
		v := *u.Description
		e.Description = &v
	}
	if u.ItemExternalID != nil {
		e.ItemExternalID = *u.ItemExternalID
	}
	if u.IncludeImg != nil {
		e.IncludeImg = *u.IncludeImg
	}
	if u.IncludeDoc != nil {
		e.IncludeDoc = *u.IncludeDoc
	}
	if u.FileType != nil {
		e.FileType = *u.FileType
	}
	if u.FileSize != nil {
		e.FileSize = *u.FileSize
	}
	if u.IsActive != nil {
		e.IsActive = *u.IsActive
	}
	if u.Status != nil {
		e.Status = *u.Status
	}
	if u.ProcessingError != nil {
		v := *u.ProcessingError
		e.ProcessingError = &v
	}
	if u.ContentHash != nil {
		e.ContentHash = *u.ContentHash
	}
	if u.Frequency != nil {
		e.Frequency = *u.Frequency
	}
	if u.ChunkCount != nil {
		v := *u.ChunkCount
		e.ChunkCount = &v
	}
	if u.Department != nil {
		v := *u.Department
		e.Department = &v
	}
	if u.ClearProcessingError {
		e.ProcessingError = nil
	}
	return e
}
