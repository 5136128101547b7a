// Package service is the facade the server and CLI layers consume: it
// binds the query parser, the search engine, the suggester and the
// analytics tracker into the boundary-level operations.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/openarchive/unisearch/internal/analytics"
	"github.com/openarchive/unisearch/internal/index"
	"github.com/openarchive/unisearch/internal/search"
)

// dateLayout is the boundary format for date range parameters.
const dateLayout = "2006-01-02"

// relatedSuggestionLimit caps related-query suggestions on a search
// response.
const relatedSuggestionLimit = 5

// SearchRequest is one boundary-level search call.
type SearchRequest struct {
	// Query is the raw query text, possibly with AND/OR/NOT operators
	// and quoted phrases.
	Query string

	// Fields selects the sources: all, entities, documents or news.
	// Empty means all.
	Fields string

	// Fuzzy toggles edit-distance matching; nil uses the configured
	// default.
	Fuzzy *bool

	// MinSimilarity overrides the configured score cutoff when > 0.
	MinSimilarity float64

	// DocType and Source filter by attribute equality when non-empty.
	DocType string
	Source  string

	// DateStart and DateEnd bound record timestamps, format 2006-01-02.
	// Unparseable values are ignored.
	DateStart string
	DateEnd   string

	Limit  int
	Offset int
}

// ResultItem is one search hit shaped for the boundary.
type ResultItem struct {
	ID            string            `json:"id"`
	SourceType    string            `json:"source_type"`
	Title         string            `json:"title"`
	SecondaryText []string          `json:"secondary_text,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	Date          string            `json:"date,omitempty"`
	Score         float64           `json:"score"`
	MatchedFields []string          `json:"matched_fields,omitempty"`
}

// SearchResponse is the boundary-level search result.
type SearchResponse struct {
	Results      []ResultItem  `json:"results"`
	TotalResults int           `json:"total_results"`
	Facets       search.Facets `json:"facets"`
	Suggestions  []string      `json:"suggestions,omitempty"`
	SearchTimeMS int64         `json:"search_time_ms"`
}

// Config carries the service-level search defaults.
type Config struct {
	// FuzzyEnabled is the default when a request leaves fuzzy unset.
	FuzzyEnabled bool
}

// Service wires the engine, suggester and tracker behind the exposed
// operations. The tracker may be nil, disabling analytics.
type Service struct {
	engine    *search.Engine
	suggester *search.Suggester
	tracker   *analytics.Tracker
	index     *index.Index
	config    Config
}

// New creates the service facade.
func New(engine *search.Engine, suggester *search.Suggester, tracker *analytics.Tracker, ix *index.Index, cfg Config) *Service {
	return &Service{
		engine:    engine,
		suggester: suggester,
		tracker:   tracker,
		index:     ix,
		config:    cfg,
	}
}

// Search runs one search: parse, match, rank, record. The analytics
// update is fire-and-forget and can never fail the response.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	start := time.Now()

	sources, err := index.ParseFields(req.Fields)
	if err != nil {
		return nil, err
	}

	fuzzy := s.config.FuzzyEnabled
	if req.Fuzzy != nil {
		fuzzy = *req.Fuzzy
	}

	opts := search.Options{
		Sources:       sources,
		Filters:       s.buildFilters(req),
		Fuzzy:         fuzzy,
		MinSimilarity: req.MinSimilarity,
		Limit:         req.Limit,
		Offset:        req.Offset,
	}

	query := search.Parse(req.Query)
	result, err := s.engine.Search(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	if s.tracker != nil {
		s.tracker.Record(req.Query, fieldsLabel(req.Fields))
	}

	resp := &SearchResponse{
		Results:      make([]ResultItem, 0, len(result.Matches)),
		TotalResults: result.Total,
		Facets:       result.Facets,
		Suggestions:  s.relatedQueries(query),
		SearchTimeMS: time.Since(start).Milliseconds(),
	}
	for _, m := range result.Matches {
		resp.Results = append(resp.Results, toResultItem(m))
	}
	return resp, nil
}

// buildFilters maps request parameters onto index filters. Bad date
// values degrade gracefully rather than failing the request.
func (s *Service) buildFilters(req SearchRequest) index.Filters {
	f := index.Filters{}

	attrs := map[string]string{}
	if req.DocType != "" {
		attrs[index.AttrDocType] = req.DocType
	}
	if req.Source != "" {
		attrs[index.AttrSource] = req.Source
	}
	if len(attrs) > 0 {
		f.Attributes = attrs
	}

	f.DateStart = parseBoundaryDate(req.DateStart, false)
	f.DateEnd = parseBoundaryDate(req.DateEnd, true)
	return f
}

// parseBoundaryDate parses a request date; end dates cover the whole
// day. Unparseable input is ignored with a warning.
func parseBoundaryDate(value string, endOfDay bool) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		slog.Warn("ignoring unparseable date filter",
			slog.String("value", value))
		return nil
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t
}

// fieldsLabel normalizes the fields parameter for analytics.
func fieldsLabel(fields string) string {
	fields = strings.ToLower(strings.TrimSpace(fields))
	if fields == "" {
		return "all"
	}
	return fields
}

// relatedQueries offers popular past queries sharing a term with the
// current one.
func (s *Service) relatedQueries(query search.ParsedQuery) []string {
	if s.tracker == nil || !query.HasPositiveTerms() {
		return nil
	}

	terms := query.Terms()
	var out []string
	for _, pq := range s.tracker.Popular(50) {
		if len(out) == relatedSuggestionLimit {
			break
		}
		if sameQuery(pq.Text, terms) {
			continue
		}
		for _, term := range terms {
			if strings.Contains(pq.Text, term) {
				out = append(out, pq.Text)
				break
			}
		}
	}
	return out
}

// sameQuery reports whether a popular query is just the current query.
func sameQuery(popular string, terms []string) bool {
	return popular == strings.Join(terms, " ")
}

func toResultItem(m *search.ScoredMatch) ResultItem {
	item := ResultItem{
		ID:            m.Record.ID,
		SourceType:    string(m.Record.Source),
		Title:         m.Record.PrimaryText,
		SecondaryText: m.Record.SecondaryTexts,
		Attributes:    m.Record.Attributes,
		Score:         m.Score,
		MatchedFields: m.MatchedFields,
	}
	if m.Record.Timestamp != nil {
		item.Date = m.Record.Timestamp.Format(dateLayout)
	}
	return item
}

// Suggest returns autocomplete completions for a prefix.
func (s *Service) Suggest(ctx context.Context, prefix string, limit int) ([]search.Suggestion, error) {
	return s.suggester.Suggest(prefix, limit)
}

// AnalyticsSnapshot returns a read-only copy of the analytics state.
func (s *Service) AnalyticsSnapshot() analytics.State {
	if s.tracker == nil {
		return analytics.State{}
	}
	return s.tracker.Snapshot()
}

// AnalyticsClear resets the analytics state.
func (s *Service) AnalyticsClear() {
	if s.tracker != nil {
		s.tracker.Clear()
	}
}

// IndexStats reports the installed snapshot's counts.
func (s *Service) IndexStats() (index.Stats, error) {
	return s.index.Stats()
}
