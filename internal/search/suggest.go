package search

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	archerr "github.com/openarchive/unisearch/internal/errors"
	"github.com/openarchive/unisearch/internal/index"
)

// Suggestion kinds, in dedupe priority order.
const (
	KindEntity       = "entity"
	KindEntityAlias  = "entity_alias"
	KindPopularQuery = "popular_query"
)

// MaxSuggestLimit caps the suggestion count regardless of the request.
const MaxSuggestLimit = 50

// minPrefixRunes is the shortest prefix that produces suggestions.
const minPrefixRunes = 2

// prefixScore ranks true prefix matches above every similarity match.
const prefixScore = 1.0

// Suggestion is one autocomplete candidate.
type Suggestion struct {
	// Text is the suggested completion.
	Text string `json:"text"`

	// Kind states where the suggestion came from: an entity name, a known
	// alias, or a popular past query.
	Kind string `json:"kind"`

	// Score ranks the suggestion (0.0-1.0).
	Score float64 `json:"score"`

	// RecordID points at the owning entity for name and alias suggestions.
	RecordID string `json:"record_id,omitempty"`
}

// PopularQuery is one past query with its observed frequency.
type PopularQuery struct {
	Text  string
	Count int
}

// PopularSource supplies popular past queries for suggestion ranking.
// The analytics tracker implements it; Version changes whenever recorded
// data changes, invalidating cached suggestion lists.
type PopularSource interface {
	Popular(limit int) []PopularQuery
	Version() uint64
}

// Suggester produces ranked autocomplete suggestions from entity names,
// aliases and popular queries. Results are cached per (prefix, limit,
// index generation, analytics version), so a cache entry can never
// outlive the data it was computed from.
type Suggester struct {
	index    *index.Index
	popular  PopularSource
	scorer   *Scorer
	maxLimit int
	cache    *lru.Cache[string, []Suggestion]
}

// SuggesterOption configures optional suggester behavior.
type SuggesterOption func(*Suggester)

// WithSuggestLimit lowers the suggestion cap below the hard maximum.
// Values outside (0, MaxSuggestLimit] are ignored.
func WithSuggestLimit(n int) SuggesterOption {
	return func(s *Suggester) {
		if n > 0 && n <= MaxSuggestLimit {
			s.maxLimit = n
		}
	}
}

// NewSuggester creates a suggester. popular may be nil when analytics is
// disabled; cacheSize <= 0 disables the cache.
func NewSuggester(ix *index.Index, popular PopularSource, scorer *Scorer, cacheSize int, opts ...SuggesterOption) (*Suggester, error) {
	if ix == nil {
		return nil, archerr.InternalError("record index is required", nil)
	}
	if scorer == nil {
		scorer = NewScorer(DefaultFuzzyThreshold)
	}

	s := &Suggester{index: ix, popular: popular, scorer: scorer, maxLimit: MaxSuggestLimit}
	for _, opt := range opts {
		opt(s)
	}
	if cacheSize > 0 {
		cache, err := lru.New[string, []Suggestion](cacheSize)
		if err != nil {
			return nil, archerr.InternalError("suggestion cache", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Suggest returns up to limit ranked completions for the prefix.
// Prefixes shorter than two runes return nothing.
func (s *Suggester) Suggest(prefix string, limit int) ([]Suggestion, error) {
	prefix = normalize(prefix)
	if utf8.RuneCountInString(prefix) < minPrefixRunes {
		return []Suggestion{}, nil
	}
	if limit <= 0 || limit > s.maxLimit {
		limit = s.maxLimit
	}

	key := s.cacheKey(prefix, limit)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cloneSuggestions(cached), nil
		}
	}

	suggestions, err := s.compute(prefix, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Add(key, suggestions)
		// Callers get their own slice; the cached one stays pristine.
		return cloneSuggestions(suggestions), nil
	}
	return suggestions, nil
}

func cloneSuggestions(suggestions []Suggestion) []Suggestion {
	return append([]Suggestion(nil), suggestions...)
}

// cacheKey binds a cached result to the exact data it was computed from.
func (s *Suggester) cacheKey(prefix string, limit int) string {
	var version uint64
	if s.popular != nil {
		version = s.popular.Version()
	}
	return fmt.Sprintf("%s|%d|%d|%d", prefix, limit, s.index.Generation(), version)
}

func (s *Suggester) compute(prefix string, limit int) ([]Suggestion, error) {
	names, err := s.index.Names([]index.SourceType{index.SourceEntity})
	if err != nil {
		return nil, err
	}

	var out []Suggestion
	for _, n := range names {
		score := s.score(prefix, n.Text)
		if score == 0 {
			continue
		}
		kind := KindEntity
		if n.Alias {
			kind = KindEntityAlias
		}
		out = append(out, Suggestion{
			Text:     n.Text,
			Kind:     kind,
			Score:    score,
			RecordID: n.RecordID,
		})
	}

	if s.popular != nil {
		out = append(out, s.popularSuggestions(prefix)...)
	}

	out = rankSuggestions(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// score ranks one candidate: a true prefix match always wins, anything
// else falls back to fuzzy similarity.
func (s *Suggester) score(prefix, candidate string) float64 {
	normalized := normalize(candidate)
	if strings.HasPrefix(normalized, prefix) {
		return prefixScore
	}
	return s.scorer.Similarity(prefix, normalized)
}

// popularSuggestions ranks matching past queries, scaled by how often
// each was seen relative to the most popular match.
func (s *Suggester) popularSuggestions(prefix string) []Suggestion {
	queries := s.popular.Popular(MaxSuggestLimit)

	maxCount := 0
	type scored struct {
		query PopularQuery
		base  float64
	}
	var matched []scored
	for _, pq := range queries {
		base := s.score(prefix, pq.Text)
		if base == 0 {
			continue
		}
		matched = append(matched, scored{query: pq, base: base})
		if pq.Count > maxCount {
			maxCount = pq.Count
		}
	}

	out := make([]Suggestion, 0, len(matched))
	for _, m := range matched {
		weight := 1.0
		if maxCount > 0 {
			weight = 0.5 + 0.5*float64(m.query.Count)/float64(maxCount)
		}
		out = append(out, Suggestion{
			Text:  normalize(m.query.Text),
			Kind:  KindPopularQuery,
			Score: m.base * weight,
		})
	}
	return out
}

// rankSuggestions sorts by score descending then text, and drops later
// duplicates of the same text.
func rankSuggestions(suggestions []Suggestion) []Suggestion {
	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Text < suggestions[j].Text
	})

	seen := make(map[string]bool, len(suggestions))
	out := suggestions[:0]
	for _, sug := range suggestions {
		key := normalize(sug.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, sug)
	}
	return out
}
