package analytics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()

	cfg := DefaultConfig()
	cfg.FlushInterval = 0
	tracker, err := NewTracker(nil, cfg)
	require.NoError(t, err)
	return tracker
}

func TestTracker_RecordUpdatesState(t *testing.T) {
	tracker := newTestTracker(t)

	tracker.Record("Maxwell deposition", "documents")
	tracker.Record("maxwell deposition", "all")
	tracker.Record("epstein island", "all")

	state := tracker.Snapshot()
	assert.Equal(t, int64(3), state.TotalSearches)
	// Popularity keys are normalized, so case variants aggregate.
	assert.Equal(t, int64(2), state.PopularQueries["maxwell deposition"])
	assert.Equal(t, int64(1), state.PopularQueries["epstein island"])
}

func TestTracker_RecentSearchesNewestFirst(t *testing.T) {
	tracker := newTestTracker(t)

	tracker.Record("first", "all")
	tracker.Record("second", "all")
	tracker.Record("third", "entities")

	state := tracker.Snapshot()
	require.Len(t, state.RecentSearches, 3)
	assert.Equal(t, "third", state.RecentSearches[0].Query)
	assert.Equal(t, "entities", state.RecentSearches[0].Fields)
	assert.Equal(t, "first", state.RecentSearches[2].Query)
	assert.False(t, state.RecentSearches[0].Timestamp.IsZero())
}

func TestTracker_RecentLogIsBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FlushInterval = 0
	cfg.RecentCapacity = 5
	tracker, err := NewTracker(nil, cfg)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		tracker.Record(string(rune('a'+i)), "all")
	}

	state := tracker.Snapshot()
	require.Len(t, state.RecentSearches, 5)
	assert.Equal(t, "j", state.RecentSearches[0].Query)
	assert.Equal(t, "f", state.RecentSearches[4].Query)
	assert.Equal(t, int64(10), state.TotalSearches)
}

func TestTracker_EmptyQueryCountsButIsNotPopular(t *testing.T) {
	tracker := newTestTracker(t)

	tracker.Record("   ", "all")

	state := tracker.Snapshot()
	assert.Equal(t, int64(1), state.TotalSearches)
	assert.Empty(t, state.PopularQueries)
}

func TestTracker_ClearResetsEverythingAtomically(t *testing.T) {
	tracker := newTestTracker(t)
	tracker.Record("maxwell", "all")
	tracker.Record("epstein", "all")
	before := tracker.Snapshot().Since

	tracker.Clear()

	state := tracker.Snapshot()
	assert.Zero(t, state.TotalSearches)
	assert.Empty(t, state.PopularQueries)
	assert.Empty(t, state.RecentSearches)
	assert.False(t, state.Since.Before(before))
}

func TestTracker_ConcurrentRecordLosesNoUpdates(t *testing.T) {
	tracker := newTestTracker(t)

	const goroutines = 50
	const perGoroutine = 20

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				tracker.Record("maxwell", "all")
			}
		}()
	}
	wg.Wait()

	state := tracker.Snapshot()
	assert.Equal(t, int64(goroutines*perGoroutine), state.TotalSearches)
	assert.Equal(t, int64(goroutines*perGoroutine), state.PopularQueries["maxwell"])
}

func TestTracker_PopularOrdering(t *testing.T) {
	tracker := newTestTracker(t)
	for i := 0; i < 3; i++ {
		tracker.Record("maxwell", "all")
	}
	tracker.Record("epstein", "all")
	tracker.Record("andrew", "all")

	popular := tracker.Popular(10)

	require.Len(t, popular, 3)
	assert.Equal(t, "maxwell", popular[0].Text)
	assert.Equal(t, 3, popular[0].Count)
	// Equal counts order by text.
	assert.Equal(t, "andrew", popular[1].Text)
	assert.Equal(t, "epstein", popular[2].Text)
}

func TestTracker_PopularLimit(t *testing.T) {
	tracker := newTestTracker(t)
	tracker.Record("a1", "all")
	tracker.Record("b2", "all")
	tracker.Record("c3", "all")

	assert.Len(t, tracker.Popular(2), 2)
}

func TestTracker_VersionChangesOnMutation(t *testing.T) {
	tracker := newTestTracker(t)
	v0 := tracker.Version()

	tracker.Record("maxwell", "all")
	v1 := tracker.Version()
	assert.NotEqual(t, v0, v1)

	tracker.Clear()
	assert.NotEqual(t, v1, tracker.Version())
}

func TestTracker_SnapshotIsACopy(t *testing.T) {
	tracker := newTestTracker(t)
	tracker.Record("maxwell", "all")

	state := tracker.Snapshot()
	state.PopularQueries["injected"] = 99

	assert.NotContains(t, tracker.Snapshot().PopularQueries, "injected")
}

func TestTracker_CloseIsIdempotent(t *testing.T) {
	tracker := newTestTracker(t)

	require.NoError(t, tracker.Close())
	require.NoError(t, tracker.Close())

	// Records after close are dropped.
	tracker.Record("maxwell", "all")
	assert.Zero(t, tracker.Snapshot().TotalSearches)
}

func TestRing_FIFOAndEviction(t *testing.T) {
	r := NewRing[int](3)

	assert.Empty(t, r.Items())

	r.Add(1)
	r.Add(2)
	assert.Equal(t, []int{1, 2}, r.Items())
	assert.Equal(t, 2, r.Size())

	r.Add(3)
	r.Add(4)
	assert.Equal(t, []int{2, 3, 4}, r.Items())

	r.Clear()
	assert.Empty(t, r.Items())
	assert.Zero(t, r.Size())
}

func TestTracker_RestoreFromStore(t *testing.T) {
	saved := State{
		TotalSearches:  7,
		PopularQueries: map[string]int64{"maxwell": 5, "epstein": 2},
		RecentSearches: []SearchEvent{
			{Query: "newest", Fields: "all", Timestamp: time.Now()},
			{Query: "oldest", Fields: "all", Timestamp: time.Now().Add(-time.Hour)},
		},
		Since: time.Now().Add(-24 * time.Hour),
	}

	cfg := DefaultConfig()
	cfg.FlushInterval = 0
	tracker, err := NewTracker(&memoryStore{state: &saved}, cfg)
	require.NoError(t, err)

	state := tracker.Snapshot()
	assert.Equal(t, int64(7), state.TotalSearches)
	assert.Equal(t, int64(5), state.PopularQueries["maxwell"])
	require.Len(t, state.RecentSearches, 2)
	assert.Equal(t, "newest", state.RecentSearches[0].Query)
	assert.WithinDuration(t, saved.Since, state.Since, time.Second)
}

func TestTracker_FlushWritesSnapshot(t *testing.T) {
	store := &memoryStore{}
	cfg := DefaultConfig()
	cfg.FlushInterval = 0
	tracker, err := NewTracker(store, cfg)
	require.NoError(t, err)

	tracker.Record("maxwell", "all")
	require.NoError(t, tracker.Flush())

	require.NotNil(t, store.state)
	assert.Equal(t, int64(1), store.state.TotalSearches)
}

// memoryStore is an in-memory Store for tracker tests.
type memoryStore struct {
	mu    sync.Mutex
	state *State
}

func (m *memoryStore) Save(state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = &state
	return nil
}

func (m *memoryStore) Load() (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

func (m *memoryStore) Close() error { return nil }
