package index

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	archerr "github.com/openarchive/unisearch/internal/errors"
)

// snapshot is one immutable generation of the record index.
// All lookup structures point at the same Record values; nothing in a
// snapshot is mutated after install.
type snapshot struct {
	generation uint64
	builtAt    time.Time

	bySource map[SourceType][]*Record

	// byAttr indexes records per source by attribute key and value, so
	// equality filters avoid a full scan.
	byAttr map[SourceType]map[string]map[string][]*Record

	// byTime holds only records carrying a timestamp, sorted ascending,
	// so date ranges narrow via binary search.
	byTime map[SourceType][]*Record

	// attrKeys is the set of attribute keys observed anywhere in the
	// snapshot. Filter keys outside this set are ignored.
	attrKeys map[string]struct{}

	byID map[string]*Record

	names []NameEntry
	total int
}

// Stats summarizes the installed snapshot.
type Stats struct {
	Generation uint64             `json:"generation"`
	BuiltAt    time.Time          `json:"built_at"`
	Total      int                `json:"total_records"`
	BySource   map[SourceType]int `json:"by_source"`
}

// Index owns the current snapshot and rebuilds it from providers.
// Reads are lock-free; Rebuild serializes against itself only.
type Index struct {
	providers []Provider
	current   atomic.Pointer[snapshot]

	rebuildMu  sync.Mutex
	generation atomic.Uint64
}

// New creates an index over the given providers. No snapshot exists until
// the first Rebuild; reads before that fail with ErrCodeIndexUnavailable.
func New(providers ...Provider) *Index {
	return &Index{providers: providers}
}

// Ready reports whether a snapshot has been installed.
func (ix *Index) Ready() bool {
	return ix.current.Load() != nil
}

// Generation returns the installed snapshot's generation, 0 if none.
func (ix *Index) Generation() uint64 {
	if s := ix.current.Load(); s != nil {
		return s.generation
	}
	return 0
}

// Stats returns counts for the installed snapshot.
func (ix *Index) Stats() (Stats, error) {
	s := ix.current.Load()
	if s == nil {
		return Stats{}, archerr.IndexUnavailable()
	}
	by := make(map[SourceType]int, len(s.bySource))
	for src, recs := range s.bySource {
		by[src] = len(recs)
	}
	return Stats{
		Generation: s.generation,
		BuiltAt:    s.builtAt,
		Total:      s.total,
		BySource:   by,
	}, nil
}

// Rebuild pulls fresh projections from every provider, builds the lookup
// structures, and installs the result with a single pointer swap.
func (ix *Index) Rebuild(ctx context.Context) error {
	ix.rebuildMu.Lock()
	defer ix.rebuildMu.Unlock()

	start := time.Now()
	next := &snapshot{
		generation: ix.generation.Load() + 1,
		builtAt:    start,
		bySource:   make(map[SourceType][]*Record),
		byAttr:     make(map[SourceType]map[string]map[string][]*Record),
		byTime:     make(map[SourceType][]*Record),
		attrKeys:   make(map[string]struct{}),
		byID:       make(map[string]*Record),
	}

	for _, p := range ix.providers {
		records, err := p.Records(ctx)
		if err != nil {
			return fmt.Errorf("provider %s: %w", p.Source(), err)
		}
		for _, r := range records {
			if r.ID == "" || !r.Source.Valid() {
				slog.Warn("skipping malformed record",
					slog.String("id", r.ID),
					slog.String("source", string(r.Source)))
				continue
			}
			next.add(r)
		}
	}

	next.finish()

	ix.current.Store(next)
	ix.generation.Store(next.generation)

	slog.Info("index_rebuilt",
		slog.Uint64("generation", next.generation),
		slog.Int("records", next.total),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// add places one record into every lookup structure.
func (s *snapshot) add(r *Record) {
	s.bySource[r.Source] = append(s.bySource[r.Source], r)
	s.byID[r.Key()] = r
	s.total++

	for k, v := range r.Attributes {
		s.attrKeys[k] = struct{}{}
		perSource, ok := s.byAttr[r.Source]
		if !ok {
			perSource = make(map[string]map[string][]*Record)
			s.byAttr[r.Source] = perSource
		}
		perKey, ok := perSource[k]
		if !ok {
			perKey = make(map[string][]*Record)
			perSource[k] = perKey
		}
		perKey[v] = append(perKey[v], r)
	}

	if r.Timestamp != nil {
		s.byTime[r.Source] = append(s.byTime[r.Source], r)
	}

	if r.PrimaryText != "" {
		s.names = append(s.names, NameEntry{
			Text:     r.PrimaryText,
			Source:   r.Source,
			RecordID: r.ID,
		})
	}
	// Aliases come from entity secondary texts; other sources carry
	// filenames and excerpts there, which are not name candidates.
	if r.Source == SourceEntity {
		for _, alias := range r.SecondaryTexts {
			if alias == "" {
				continue
			}
			s.names = append(s.names, NameEntry{
				Text:     alias,
				Source:   r.Source,
				RecordID: r.ID,
				Alias:    true,
			})
		}
	}
}

// finish sorts lookup structures once all records are added.
func (s *snapshot) finish() {
	for src := range s.bySource {
		recs := s.bySource[src]
		sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	}
	for src := range s.byTime {
		recs := s.byTime[src]
		sort.Slice(recs, func(i, j int) bool {
			if !recs[i].Timestamp.Equal(*recs[j].Timestamp) {
				return recs[i].Timestamp.Before(*recs[j].Timestamp)
			}
			return recs[i].ID < recs[j].ID
		})
	}
	sort.Slice(s.names, func(i, j int) bool { return s.names[i].Text < s.names[j].Text })
}

// RecordsFor returns the records of the requested sources that pass the
// filters. Unknown attribute keys in the filter are ignored. The returned
// slice is freshly allocated but the records themselves are shared with the
// snapshot and must not be mutated.
func (ix *Index) RecordsFor(sources []SourceType, f Filters) ([]*Record, error) {
	s := ix.current.Load()
	if s == nil {
		return nil, archerr.IndexUnavailable()
	}

	var out []*Record
	for _, src := range sources {
		out = append(out, s.recordsFor(src, f)...)
	}
	return out, nil
}

// recordsFor scans one source, picking the cheapest access path available.
func (s *snapshot) recordsFor(src SourceType, f Filters) []*Record {
	// Choose the most selective known attribute constraint as the access
	// path; remaining constraints are verified per record.
	var base []*Record
	var usedAttr string
	if perSource, ok := s.byAttr[src]; ok {
		for k, v := range f.Attributes {
			if _, known := s.attrKeys[k]; !known {
				continue
			}
			perKey, ok := perSource[k]
			if !ok {
				// Key exists elsewhere in the snapshot but not for this
				// source: no record here can satisfy an equality on it.
				return nil
			}
			candidates := perKey[v]
			if base == nil || len(candidates) < len(base) {
				base = candidates
				usedAttr = k
			}
		}
	} else if len(f.Attributes) > 0 {
		for k := range f.Attributes {
			if _, known := s.attrKeys[k]; known {
				// Known key, source has no attributes at all.
				return nil
			}
		}
	}

	if base == nil {
		if f.hasDateRange() {
			base = s.timeSlice(src, f.DateStart, f.DateEnd)
		} else {
			base = s.bySource[src]
		}
	}

	var out []*Record
	for _, r := range base {
		if s.matches(r, f, usedAttr) {
			out = append(out, r)
		}
	}
	return out
}

// timeSlice narrows the timestamp-sorted slice to [start, end] via binary
// search. Records without timestamps are excluded by construction.
func (s *snapshot) timeSlice(src SourceType, start, end *time.Time) []*Record {
	recs := s.byTime[src]
	lo, hi := 0, len(recs)
	if start != nil {
		lo = sort.Search(len(recs), func(i int) bool {
			return !recs[i].Timestamp.Before(*start)
		})
	}
	if end != nil {
		hi = sort.Search(len(recs), func(i int) bool {
			return recs[i].Timestamp.After(*end)
		})
	}
	if lo >= hi {
		return nil
	}
	return recs[lo:hi]
}

// matches verifies every filter constraint against one record.
// skipAttr names the attribute already satisfied by the access path.
func (s *snapshot) matches(r *Record, f Filters, skipAttr string) bool {
	for k, v := range f.Attributes {
		if k == skipAttr {
			continue
		}
		if _, known := s.attrKeys[k]; !known {
			continue // unknown keys degrade gracefully
		}
		if r.Attributes[k] != v {
			return false
		}
	}

	if f.hasDateRange() {
		if r.Timestamp == nil {
			return false
		}
		if f.DateStart != nil && r.Timestamp.Before(*f.DateStart) {
			return false
		}
		if f.DateEnd != nil && r.Timestamp.After(*f.DateEnd) {
			return false
		}
	}
	return true
}

// Get returns the record with the given source and ID from the installed
// snapshot, or false when no snapshot exists or the record is unknown.
func (ix *Index) Get(src SourceType, id string) (*Record, bool) {
	s := ix.current.Load()
	if s == nil {
		return nil, false
	}
	r, ok := s.byID[string(src)+"/"+id]
	return r, ok
}

// MatchesFilters reports whether the record passes the filters under the
// installed snapshot's known-key semantics. Used when merging externally
// supplied candidates.
func (ix *Index) MatchesFilters(r *Record, f Filters) bool {
	s := ix.current.Load()
	if s == nil {
		return false
	}
	return s.matches(r, f, "")
}

// Names returns autocomplete candidates for the requested sources.
func (ix *Index) Names(sources []SourceType) ([]NameEntry, error) {
	s := ix.current.Load()
	if s == nil {
		return nil, archerr.IndexUnavailable()
	}

	want := make(map[SourceType]bool, len(sources))
	for _, src := range sources {
		want[src] = true
	}

	var out []NameEntry
	for _, n := range s.names {
		if want[n.Source] {
			out = append(out, n)
		}
	}
	return out, nil
}

// MostRecent returns filtered records ordered newest first; records without
// timestamps follow, ordered by source priority then ID. This backs the
// empty-query listing policy.
func (ix *Index) MostRecent(sources []SourceType, f Filters) ([]*Record, error) {
	recs, err := ix.RecordsFor(sources, f)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		switch {
		case a.Timestamp != nil && b.Timestamp != nil:
			if !a.Timestamp.Equal(*b.Timestamp) {
				return a.Timestamp.After(*b.Timestamp)
			}
		case a.Timestamp != nil:
			return true
		case b.Timestamp != nil:
			return false
		}
		if a.Source.Priority() != b.Source.Priority() {
			return a.Source.Priority() < b.Source.Priority()
		}
		return a.ID < b.ID
	})
	return recs, nil
}
