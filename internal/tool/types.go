package tool

// Tool type identifiers that drive assignment validation. Type is an open
// string — unknown types are accepted as pass-through configurations — but
// these three variants get required-field and uniqueness rules.
const (
	TypeQdrant = "qdrant"
	TypeWeb    = "web"
	TypeSearch = "search"
)

// Defaults applied by consumers (the chat layer) when the optional fields
// are absent. They are deliberately NOT persisted — absence means "unset".
const (
	DefaultCrawlDepth   = 1
	DefaultSearchEngine = "google"
	DefaultMaxResults   = 10
)

// Tool is a named, typed capability that can be attached to an assistant.
type Tool struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	CreatedAt   int64  `json:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt"`
}

// ToolPatch is a sparse update for a tool.
type ToolPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Type        *string `json:"type,omitempty"`
}

// Config is the polymorphic per-assignment configuration, a tagged union
// keyed by the tool's type. Exactly the fields of one variant are meaningful;
// Assign persists only the fields relevant to the resolved type.
//
// Persisted as a JSONB column; the json tags are the storage contract
// (the qdrant uniqueness index reads config->>'collection_name').
type Config struct {
	// qdrant variant
	CollectionName string  `json:"collection_name,omitempty"`
	DefaultLimit   *int    `json:"default_limit,omitempty"`
	DefaultFilter  *string `json:"default_filter,omitempty"`

	// web variant
	URLs       []string `json:"urls,omitempty"`
	CrawlDepth *int     `json:"crawl_depth,omitempty"`

	// search variant
	DefaultQuery string  `json:"default_query,omitempty"`
	SearchEngine *string `json:"search_engine,omitempty"`
	MaxResults   *int    `json:"max_results,omitempty"`
}

// forType returns a copy of c holding only the fields relevant to the tool
// type. Unknown types pass the configuration through untouched.
func (c Config) forType(toolType string) Config {
	switch toolType {
	case TypeQdrant:
		return Config{
			CollectionName: c.CollectionName,
			DefaultLimit:   c.DefaultLimit,
			DefaultFilter:  c.DefaultFilter,
		}
	case TypeWeb:
		return Config{
			URLs:       c.URLs,
			CrawlDepth: c.CrawlDepth,
		}
	case TypeSearch:
		return Config{
			DefaultQuery: c.DefaultQuery,
			SearchEngine: c.SearchEngine,
			MaxResults:   c.MaxResults,
		}
	default:
		return c
	}
}

// ConfigPatch is a sparse update over the variant fields. Applied without
// re-running the per-type required-field validation — a patch can clear the
// only required field for a type; see Engine.UpdateConfig.
type ConfigPatch struct {
	CollectionName *string  `json:"collection_name,omitempty"`
	DefaultLimit   *int     `json:"default_limit,omitempty"`
	DefaultFilter  *string  `json:"default_filter,omitempty"`
	URLs           []string `json:"urls,omitempty"`
	CrawlDepth     *int     `json:"crawl_depth,omitempty"`
	DefaultQuery   *string  `json:"default_query,omitempty"`
	SearchEngine   *string  `json:"search_engine,omitempty"`
	MaxResults     *int     `json:"max_results,omitempty"`
}

// IsEmpty reports whether no patch field is set.
func (p ConfigPatch) IsEmpty() bool {
	return p.CollectionName == nil &&
		p.DefaultLimit == nil &&
		p.DefaultFilter == nil &&
		p.URLs == nil &&
		p.CrawlDepth == nil &&
		p.DefaultQuery == nil &&
		p.SearchEngine == nil &&
		p.MaxResults == nil
}

// apply returns a copy of c with the supplied patch fields set.
func (p ConfigPatch) apply(c Config) Config {
	if p.CollectionName != nil {
		c.CollectionName = *p.CollectionName
	}
	if p.DefaultLimit != nil {
		v := *p.DefaultLimit
		c.DefaultLimit = &v
	}
	if p.DefaultFilter != nil {
		v := *p.DefaultFilter
		c.DefaultFilter = &v
	}
	if p.URLs != nil {
		c.URLs = append([]string(nil), p.URLs...)
	}
	if p.CrawlDepth != nil {
		v := *p.CrawlDepth
		c.CrawlDepth = &v
	}
	if p.DefaultQuery != nil {
		c.DefaultQuery = *p.DefaultQuery
	}
	if p.SearchEngine != nil {
		v := *p.SearchEngine
		c.SearchEngine = &v
	}
	if p.MaxResults != nil {
		v := *p.MaxResults
		c.MaxResults = &v
	}
	return c
}

// Assignment binds one tool to one assistant with its typed configuration.
type Assignment struct {
	ID          string `json:"id"`
	AssistantID string `json:"assistantId"`
	ToolID      string `json:"toolId"`
	Config      Config `json:"config"`
	CreatedAt   int64  `json:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt"`
}

// Summary is the tool subset joined into assignment listings.
type Summary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// AssignmentView is an assignment joined with its tool summary.
type AssignmentView struct {
	Assignment
	Tool Summary `json:"tool"`
}
