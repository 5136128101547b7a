package mcp

import (
	"github.com/openarchive/unisearch/internal/analytics"
	"github.com/openarchive/unisearch/internal/service"
)

// SearchArchiveInput defines the input schema for the search_archive tool.
type SearchArchiveInput struct {
	Query         string  `json:"query" jsonschema:"the search query, supports AND OR NOT operators and quoted phrases"`
	Fields        string  `json:"fields,omitempty" jsonschema:"sources to search: all, entities, documents or news (default all)"`
	Fuzzy         *bool   `json:"fuzzy,omitempty" jsonschema:"enable fuzzy matching (default from server config)"`
	MinSimilarity float64 `json:"min_similarity,omitempty" jsonschema:"minimum result score 0.0-1.0"`
	DocType       string  `json:"doc_type,omitempty" jsonschema:"filter documents by type"`
	Source        string  `json:"source,omitempty" jsonschema:"filter by source or publication"`
	DateStart     string  `json:"date_start,omitempty" jsonschema:"earliest date, format 2006-01-02"`
	DateEnd       string  `json:"date_end,omitempty" jsonschema:"latest date, format 2006-01-02"`
	Limit         int     `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	Offset        int     `json:"offset,omitempty" jsonschema:"number of results to skip"`
}

// SearchArchiveOutput defines the output schema for the search_archive tool.
type SearchArchiveOutput struct {
	Results      []service.ResultItem      `json:"results"`
	TotalResults int                       `json:"total_results"`
	Facets       map[string]map[string]int `json:"facets"`
	Suggestions  []string                  `json:"suggestions,omitempty"`
	SearchTimeMS int64                     `json:"search_time_ms"`
}

// SuggestInput defines the input schema for the suggest tool.
type SuggestInput struct {
	Query string `json:"query" jsonschema:"the prefix to complete, at least 2 characters"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of suggestions, default 10, max 50"`
}

// SuggestionOutput is one autocomplete suggestion.
type SuggestionOutput struct {
	Text  string  `json:"text"`
	Type  string  `json:"type"`
	Score float64 `json:"score"`
}

// SuggestOutput defines the output schema for the suggest tool.
type SuggestOutput struct {
	Suggestions []SuggestionOutput `json:"suggestions"`
}

// SearchAnalyticsInput defines the input schema for the search_analytics
// tool (no parameters).
type SearchAnalyticsInput struct{}

// SearchAnalyticsOutput defines the output schema for the
// search_analytics tool.
type SearchAnalyticsOutput struct {
	TotalSearches  int64                   `json:"total_searches"`
	PopularQueries map[string]int64        `json:"popular_queries"`
	RecentSearches []analytics.SearchEvent `json:"recent_searches"`
	Since          string                  `json:"since"`
}

// ClearAnalyticsInput defines the input schema for the clear_analytics
// tool (no parameters).
type ClearAnalyticsInput struct{}

// ClearAnalyticsOutput defines the output schema for the clear_analytics
// tool.
type ClearAnalyticsOutput struct {
	Cleared bool `json:"cleared"`
}

// IndexStatusInput defines the input schema for the index_status tool
// (no parameters).
type IndexStatusInput struct{}

// IndexStatusOutput defines the output schema for the index_status tool.
type IndexStatusOutput struct {
	Ready        bool           `json:"ready"`
	Generation   uint64         `json:"generation"`
	BuiltAt      string         `json:"built_at,omitempty"`
	TotalRecords int            `json:"total_records"`
	BySource     map[string]int `json:"by_source,omitempty"`
}
