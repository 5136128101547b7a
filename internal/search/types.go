// Package search implements the unified search engine: query parsing,
// similarity scoring, cross-source matching and ranking, autocomplete
// suggestions, and the service facade consumed by the server layer.
package search

import (
	"context"

	"github.com/openarchive/unisearch/internal/index"
)

// Matched field labels reported on ScoredMatch.
const (
	FieldPrimary   = "primary_text"
	FieldSecondary = "secondary_text"
)

// FacetSourceType is the pseudo facet key counting results per source.
const FacetSourceType = "source_type"

// FacetUnknownValue buckets results that lack a facet attribute, so facet
// counts for every key always sum to the total result count.
const FacetUnknownValue = "unknown"

// ScoredMatch is one candidate result with its ranking score.
type ScoredMatch struct {
	// Record is the matched record from the index snapshot.
	Record *index.Record

	// Score is the combined similarity score (0.0-1.0).
	Score float64

	// MatchedFields names the text fields that contributed to the score.
	MatchedFields []string
}

// Facets maps facet key -> observed value -> count over the full
// pre-pagination result set.
type Facets map[string]map[string]int

// Result is the ranked output of one engine search.
type Result struct {
	// Matches is the requested page, ordered by score descending with
	// deterministic tie-breaks.
	Matches []*ScoredMatch

	// Facets counts attribute values across the full result set.
	Facets Facets

	// Total is the pre-pagination result count.
	Total int
}

// Options configures one engine search.
type Options struct {
	// Sources restricts matching to these source types.
	Sources []index.SourceType

	// Filters narrows candidates by attribute equality and date range.
	Filters index.Filters

	// Fuzzy enables edit-distance matching; when false only exact and
	// substring containment count.
	Fuzzy bool

	// MinSimilarity discards results scoring below it.
	MinSimilarity float64

	// Limit is the page size; Offset the number of results skipped.
	Limit  int
	Offset int
}

// EngineConfig holds ranking defaults applied when Options leave them zero.
type EngineConfig struct {
	// FuzzyThreshold is the scorer's fuzzy acceptance cutoff.
	FuzzyThreshold float64

	// MinSimilarity is the default result score cutoff.
	MinSimilarity float64

	// DefaultLimit is the page size used when none is requested.
	DefaultLimit int

	// MaxLimit caps requested page sizes.
	MaxLimit int
}

// DefaultEngineConfig returns the standard ranking configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		FuzzyThreshold: DefaultFuzzyThreshold,
		MinSimilarity:  0.3,
		DefaultLimit:   10,
		MaxLimit:       100,
	}
}

// CandidateSource supplies extra ranked candidates to merge into document
// search results. The engine treats it as opaque: candidates are resolved
// against the index, filtered like any other record, and merged keeping
// the maximum score per record. The semantic/vector search service plugs
// in here.
type CandidateSource interface {
	// Name identifies the source in logs.
	Name() string

	// Candidates returns ranked matches for the raw query. Scores must be
	// normalized to 0.0-1.0.
	Candidates(ctx context.Context, query string, limit int) ([]Candidate, error)
}

// Candidate is one external suggestion of a possibly-relevant record.
type Candidate struct {
	Source index.SourceType
	ID     string
	Score  float64
}
