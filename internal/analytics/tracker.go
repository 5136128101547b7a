// Package analytics records search activity: a total counter, a bounded
// popularity table, and a recent-search log. All data stays local.
package analytics

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/openarchive/unisearch/internal/search"
)

// SearchEvent is one recorded search.
type SearchEvent struct {
	// Query is the raw query text as the caller sent it.
	Query string `json:"query"`

	// Fields is the source selection the search was scoped to.
	Fields string `json:"fields"`

	// Timestamp is when the search was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// State is an immutable snapshot of the tracker.
type State struct {
	// TotalSearches counts every recorded search since the last clear.
	TotalSearches int64 `json:"total_searches"`

	// PopularQueries maps normalized query text to occurrence count.
	// Bounded: the least recently used queries are evicted at capacity.
	PopularQueries map[string]int64 `json:"popular_queries"`

	// RecentSearches holds the newest events first, bounded by the
	// configured recent capacity.
	RecentSearches []SearchEvent `json:"recent_searches"`

	// Since is when tracking started or was last cleared.
	Since time.Time `json:"since"`
}

// Config bounds the tracker's in-memory state.
type Config struct {
	// RecentCapacity bounds the recent-search log.
	RecentCapacity int

	// PopularCapacity bounds the popularity table.
	PopularCapacity int

	// FlushInterval is how often state is flushed to the store.
	// Zero disables the flush loop.
	FlushInterval time.Duration
}

// DefaultConfig returns the standard tracker bounds.
func DefaultConfig() Config {
	return Config{
		RecentCapacity:  100,
		PopularCapacity: 500,
		FlushInterval:   60 * time.Second,
	}
}

// Tracker is the process-wide search analytics state. Record is safe
// under concurrent invocation and never fails a search: concurrent calls
// never lose increments or corrupt the recent log.
type Tracker struct {
	mu sync.RWMutex

	total   int64
	popular *lru.Cache[string, int64]
	recent  *Ring[SearchEvent]
	since   time.Time

	// version changes on every mutation; the suggester keys its cache
	// on it so stale suggestion lists are never served.
	version atomic.Uint64

	store       Store
	config      Config
	flushTicker *time.Ticker
	stopCh      chan struct{}
	closed      bool
}

// NewTracker creates a tracker. store may be nil, keeping state purely in
// memory. When a store is given and holds a previous snapshot, tracking
// resumes from it.
func NewTracker(store Store, cfg Config) (*Tracker, error) {
	if cfg.RecentCapacity <= 0 {
		cfg.RecentCapacity = DefaultConfig().RecentCapacity
	}
	if cfg.PopularCapacity <= 0 {
		cfg.PopularCapacity = DefaultConfig().PopularCapacity
	}

	popular, err := lru.New[string, int64](cfg.PopularCapacity)
	if err != nil {
		return nil, err
	}

	t := &Tracker{
		popular: popular,
		recent:  NewRing[SearchEvent](cfg.RecentCapacity),
		since:   time.Now(),
		store:   store,
		config:  cfg,
		stopCh:  make(chan struct{}),
	}

	if store != nil {
		if err := t.restore(); err != nil {
			slog.Warn("analytics restore failed, starting fresh",
				slog.String("error", err.Error()))
		}
	}

	if cfg.FlushInterval > 0 && store != nil {
		t.flushTicker = time.NewTicker(cfg.FlushInterval)
		go t.flushLoop()
	}

	return t, nil
}

func (t *Tracker) flushLoop() {
	for {
		select {
		case <-t.flushTicker.C:
			if err := t.Flush(); err != nil {
				slog.Warn("analytics flush failed",
					slog.String("error", err.Error()))
			}
		case <-t.stopCh:
			return
		}
	}
}

// restore loads the last persisted snapshot into memory.
func (t *Tracker) restore() error {
	state, err := t.store.Load()
	if err != nil {
		return err
	}
	if state == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.total = state.TotalSearches
	for query, count := range state.PopularQueries {
		t.popular.Add(query, count)
	}
	// Persisted order is newest first; the ring wants oldest first.
	for i := len(state.RecentSearches) - 1; i >= 0; i-- {
		t.recent.Add(state.RecentSearches[i])
	}
	if !state.Since.IsZero() {
		t.since = state.Since
	}
	t.version.Add(1)

	slog.Info("analytics_restored",
		slog.Int64("total_searches", state.TotalSearches),
		slog.Int("recent", len(state.RecentSearches)))
	return nil
}

// Record captures one search. Fire-and-forget: it never blocks on I/O
// and never returns an error to the search path.
func (t *Tracker) Record(query, fields string) {
	normalized := strings.ToLower(strings.TrimSpace(query))

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}

	t.total++
	if normalized != "" {
		count, _ := t.popular.Get(normalized)
		t.popular.Add(normalized, count+1)
	}
	t.recent.Add(SearchEvent{
		Query:     query,
		Fields:    fields,
		Timestamp: time.Now(),
	})
	t.version.Add(1)
}

// Snapshot returns a read-only copy of the current state, recent
// searches newest first.
func (t *Tracker) Snapshot() State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() State {
	popular := make(map[string]int64, t.popular.Len())
	for _, query := range t.popular.Keys() {
		if count, ok := t.popular.Peek(query); ok {
			popular[query] = count
		}
	}

	items := t.recent.Items()
	recent := make([]SearchEvent, len(items))
	for i, e := range items {
		recent[len(items)-1-i] = e
	}

	return State{
		TotalSearches:  t.total,
		PopularQueries: popular,
		RecentSearches: recent,
		Since:          t.since,
	}
}

// Clear resets the counter, the popularity table and the recent log in
// one atomic transition.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total = 0
	t.popular.Purge()
	t.recent.Clear()
	t.since = time.Now()
	t.version.Add(1)
}

// Popular returns the most frequent queries, count descending then text.
// Implements search.PopularSource.
func (t *Tracker) Popular(limit int) []search.PopularQuery {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]search.PopularQuery, 0, t.popular.Len())
	for _, query := range t.popular.Keys() {
		if count, ok := t.popular.Peek(query); ok {
			out = append(out, search.PopularQuery{Text: query, Count: int(count)})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Text < out[j].Text
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Version returns a counter that changes on every mutation.
// Implements search.PopularSource.
func (t *Tracker) Version() uint64 {
	return t.version.Load()
}

// Flush persists the current snapshot. A nil store makes it a no-op.
func (t *Tracker) Flush() error {
	if t.store == nil {
		return nil
	}
	return t.store.Save(t.Snapshot())
}

// Close stops the flush loop and writes a final snapshot.
func (t *Tracker) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	if t.flushTicker != nil {
		t.flushTicker.Stop()
		close(t.stopCh)
	}
	return t.Flush()
}
