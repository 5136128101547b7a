package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	archerr "github.com/openarchive/unisearch/internal/errors"
	"github.com/openarchive/unisearch/internal/index"
)

// Engine evaluates parsed queries against the record index across all
// requested sources, scores and orders results, and computes facets.
// Searches are pure computations over an immutable snapshot: the engine
// holds no per-request state and runs fully in parallel.
type Engine struct {
	index  *index.Index
	scorer *Scorer
	config EngineConfig
	extra  []CandidateSource
}

// EngineOption configures the search engine.
type EngineOption func(*Engine)

// WithCandidateSource registers an external candidate source whose results
// are merged into document searches (e.g. a semantic search service or an
// auxiliary keyword index).
func WithCandidateSource(cs CandidateSource) EngineOption {
	return func(e *Engine) {
		if cs != nil {
			e.extra = append(e.extra, cs)
		}
	}
}

// NewEngine creates a search engine over the given index.
func NewEngine(ix *index.Index, cfg EngineConfig, opts ...EngineOption) (*Engine, error) {
	if ix == nil {
		return nil, archerr.InternalError("record index is required", nil)
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultEngineConfig().DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = DefaultEngineConfig().MaxLimit
	}

	e := &Engine{
		index:  ix,
		scorer: NewScorer(cfg.FuzzyThreshold),
		config: cfg,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Scorer exposes the engine's similarity scorer for collaborators
// (the suggester shares it).
func (e *Engine) Scorer() *Scorer {
	return e.scorer
}

// Search evaluates the parsed query and returns the ranked page, facets
// over the full result set, and the pre-pagination total.
//
// An empty query lists the most recent records (explicit policy). A query
// holding only must-not terms is rejected unless filters narrow the
// candidate set first.
func (e *Engine) Search(ctx context.Context, q ParsedQuery, opts Options) (*Result, error) {
	start := time.Now()
	opts = e.applyDefaults(opts)

	if len(opts.Sources) == 0 {
		opts.Sources = index.AllSources
	}

	if !q.HasPositiveTerms() && len(q.MustNot) > 0 && opts.Filters.Empty() {
		return nil, archerr.InvalidQuery("query contains only NOT terms; add a positive term or a filter")
	}

	var matches []*ScoredMatch
	var err error
	switch {
	case q.IsEmpty():
		matches, err = e.listRecent(opts)
	default:
		matches, err = e.matchAll(ctx, q, opts)
	}
	if err != nil {
		return nil, err
	}

	if len(e.extra) > 0 && q.HasPositiveTerms() {
		matches = e.mergeExternal(ctx, q, opts, matches)
		e.sortMatches(matches)
	}

	total := len(matches)
	facets := computeFacets(matches)
	page := paginate(matches, opts.Offset, opts.Limit)

	slog.Debug("search_ranked",
		slog.Int("total", total),
		slog.Int("page", len(page)),
		slog.Duration("elapsed", time.Since(start)))

	return &Result{Matches: page, Facets: facets, Total: total}, nil
}

// applyDefaults fills zero option values from the engine config.
func (e *Engine) applyDefaults(opts Options) Options {
	if opts.Limit <= 0 {
		opts.Limit = e.config.DefaultLimit
	}
	if opts.Limit > e.config.MaxLimit {
		opts.Limit = e.config.MaxLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	if opts.MinSimilarity <= 0 {
		opts.MinSimilarity = e.config.MinSimilarity
	}
	return opts
}

// listRecent implements the empty-query policy: every filtered record,
// newest first, scored 1.0.
func (e *Engine) listRecent(opts Options) ([]*ScoredMatch, error) {
	records, err := e.index.MostRecent(opts.Sources, opts.Filters)
	if err != nil {
		return nil, err
	}

	matches := make([]*ScoredMatch, len(records))
	for i, r := range records {
		matches[i] = &ScoredMatch{Record: r, Score: 1.0}
	}
	return matches, nil
}

// matchAll fans out across the requested sources in parallel and gathers
// scored matches. Each source scans independently over the same snapshot,
// so no locking is needed.
func (e *Engine) matchAll(ctx context.Context, q ParsedQuery, opts Options) ([]*ScoredMatch, error) {
	perSource := make([][]*ScoredMatch, len(opts.Sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range opts.Sources {
		g.Go(func() error {
			records, err := e.index.RecordsFor([]index.SourceType{src}, opts.Filters)
			if err != nil {
				return err
			}

			var out []*ScoredMatch
			for _, r := range records {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if m, ok := e.scoreRecord(r, q, opts); ok {
					out = append(out, m)
				}
			}
			perSource[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var matches []*ScoredMatch
	for _, ms := range perSource {
		matches = append(matches, ms...)
	}
	e.sortMatches(matches)
	return matches, nil
}

// scoreRecord evaluates one record against the query. Returns false when
// the record is rejected by must/must-not semantics or the score cutoff.
func (e *Engine) scoreRecord(r *index.Record, q ParsedQuery, opts Options) (*ScoredMatch, bool) {
	texts := r.Texts()

	// Any must-not term matching any field excludes the record outright.
	for _, term := range q.MustNot {
		if score, _ := e.bestField(term, texts, opts.Fuzzy); score > 0 {
			return nil, false
		}
	}

	// Must-not-only queries act as filtered listings: surviving records
	// get the neutral listing score.
	if !q.HasPositiveTerms() {
		return &ScoredMatch{Record: r, Score: 1.0}, true
	}

	var score float64
	fields := make(map[string]bool)

	if len(q.Must) > 0 {
		// Every must term has to hit at least one field; the record
		// score is the best per-term score.
		for _, term := range q.Must {
			best, field := e.bestField(term, texts, opts.Fuzzy)
			if best == 0 {
				return nil, false
			}
			if best > score {
				score = best
			}
			fields[field] = true
		}
	}

	if len(q.Should) > 0 {
		var bestShould float64
		var bestShouldField string
		for _, term := range q.Should {
			if best, field := e.bestField(term, texts, opts.Fuzzy); best > bestShould {
				bestShould = best
				bestShouldField = field
			}
		}

		switch {
		case len(q.Must) == 0:
			// Should-only query: at least one should term must match.
			if bestShould == 0 {
				return nil, false
			}
			score = bestShould
			fields[bestShouldField] = true
		case bestShould > 0:
			// Additive boost, capped at 1.0.
			score = min(1.0, score+bestShould)
			fields[bestShouldField] = true
		}
	}

	if score < opts.MinSimilarity {
		return nil, false
	}

	return &ScoredMatch{
		Record:        r,
		Score:         score,
		MatchedFields: sortedKeys(fields),
	}, true
}

// bestField returns the best similarity of term against any text field
// and the label of the winning field.
func (e *Engine) bestField(term string, texts []string, fuzzy bool) (float64, string) {
	var best float64
	var field string
	for i, text := range texts {
		var s float64
		if fuzzy {
			s = e.scorer.Similarity(term, text)
		} else {
			s = e.scorer.Exact(term, text)
		}
		if s > best {
			best = s
			if i == 0 {
				field = FieldPrimary
			} else {
				field = FieldSecondary
			}
		}
		if best == 1.0 {
			break
		}
	}
	return best, field
}

// mergeExternal resolves candidates from registered sources against the
// snapshot, applies filters and must-not pruning, and merges them keeping
// the maximum score per record. External sources never fail a search.
func (e *Engine) mergeExternal(ctx context.Context, q ParsedQuery, opts Options, matches []*ScoredMatch) []*ScoredMatch {
	wantSource := make(map[index.SourceType]bool, len(opts.Sources))
	for _, src := range opts.Sources {
		wantSource[src] = true
	}

	byKey := make(map[string]*ScoredMatch, len(matches))
	for _, m := range matches {
		byKey[m.Record.Key()] = m
	}

	raw := strings.Join(q.Terms(), " ")
	for _, cs := range e.extra {
		candidates, err := cs.Candidates(ctx, raw, e.config.MaxLimit)
		if err != nil {
			slog.Warn("candidate source failed, continuing without it",
				slog.String("source", cs.Name()),
				slog.String("error", err.Error()))
			continue
		}

		for _, c := range candidates {
			if !wantSource[c.Source] || c.Score < opts.MinSimilarity {
				continue
			}
			r, ok := e.index.Get(c.Source, c.ID)
			if !ok || !e.index.MatchesFilters(r, opts.Filters) {
				continue
			}
			if excluded(e.scorer, r, q.MustNot, opts.Fuzzy) {
				continue
			}

			if existing, ok := byKey[r.Key()]; ok {
				if c.Score > existing.Score {
					existing.Score = c.Score
				}
				continue
			}
			m := &ScoredMatch{Record: r, Score: c.Score}
			byKey[r.Key()] = m
			matches = append(matches, m)
		}
	}
	return matches
}

// excluded reports whether any must-not term matches any record field.
func excluded(scorer *Scorer, r *index.Record, mustNot []string, fuzzy bool) bool {
	for _, term := range mustNot {
		for _, text := range r.Texts() {
			var s float64
			if fuzzy {
				s = scorer.Similarity(term, text)
			} else {
				s = scorer.Exact(term, text)
			}
			if s > 0 {
				return true
			}
		}
	}
	return false
}

// sortMatches orders by score descending, then source priority
// (entity > document > news), then ID. Fully deterministic.
func (e *Engine) sortMatches(matches []*ScoredMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		ap, bp := a.Record.Source.Priority(), b.Record.Source.Priority()
		if ap != bp {
			return ap < bp
		}
		return a.Record.ID < b.Record.ID
	})
}

// computeFacets counts attribute values over the full result set. Records
// missing a facet attribute count under "unknown" so every key's counts
// sum to the total.
func computeFacets(matches []*ScoredMatch) Facets {
	facets := make(Facets, len(index.FacetAttributeKeys)+1)
	for _, key := range index.FacetAttributeKeys {
		facets[key] = make(map[string]int)
	}
	facets[FacetSourceType] = make(map[string]int)

	for _, m := range matches {
		facets[FacetSourceType][string(m.Record.Source)]++
		for _, key := range index.FacetAttributeKeys {
			value, ok := m.Record.Attributes[key]
			if !ok || value == "" {
				value = FacetUnknownValue
			}
			facets[key][value]++
		}
	}
	return facets
}

// paginate applies offset/limit to the sorted result set.
func paginate(matches []*ScoredMatch, offset, limit int) []*ScoredMatch {
	if offset >= len(matches) {
		return []*ScoredMatch{}
	}
	end := offset + limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[offset:end]
}

// sortedKeys returns map keys in stable order.
func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
