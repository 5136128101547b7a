package index

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	archerr "github.com/openarchive/unisearch/internal/errors"
)

// --- Test Helpers ---

func ts(value string) *time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return &t
}

func staticProvider(source SourceType, records ...*Record) Provider {
	return ProviderFunc{
		SourceType: source,
		Fn: func(ctx context.Context) ([]*Record, error) {
			return records, nil
		},
	}
}

func testIndex(t *testing.T) *Index {
	t.Helper()

	entities := staticProvider(SourceEntity,
		&Record{
			ID: "e1", Source: SourceEntity,
			PrimaryText:    "Ghislaine Maxwell",
			SecondaryTexts: []string{"G. Maxwell"},
			Attributes:     map[string]string{AttrEntityType: "person"},
		},
		&Record{
			ID: "e2", Source: SourceEntity,
			PrimaryText: "Robert Maxwell",
			Attributes:  map[string]string{AttrEntityType: "person"},
		},
	)
	docs := staticProvider(SourceDocument,
		&Record{
			ID: "d1", Source: SourceDocument,
			PrimaryText:    "Flight logs 1997",
			SecondaryTexts: []string{"flight-logs.pdf"},
			Attributes:     map[string]string{AttrDocType: "pdf", AttrSource: "court"},
			Timestamp:      ts("1997-03-01"),
		},
		&Record{
			ID: "d2", Source: SourceDocument,
			PrimaryText: "Deposition transcript",
			Attributes:  map[string]string{AttrDocType: "transcript", AttrSource: "court"},
			Timestamp:   ts("2016-05-20"),
		},
		&Record{
			ID: "d3", Source: SourceDocument,
			PrimaryText: "Address book scan",
			Attributes:  map[string]string{AttrDocType: "pdf", AttrSource: "fbi"},
			// No timestamp: excluded by any date filter.
		},
	)
	news := staticProvider(SourceNews,
		&Record{
			ID: "n1", Source: SourceNews,
			PrimaryText: "New filings unsealed",
			Attributes:  map[string]string{AttrSource: "miami-herald"},
			Timestamp:   ts("2019-07-06"),
		},
	)

	ix := New(entities, docs, news)
	require.NoError(t, ix.Rebuild(context.Background()))
	return ix
}

// --- Snapshot lifecycle ---

func TestIndex_UnavailableBeforeFirstRebuild(t *testing.T) {
	ix := New(staticProvider(SourceEntity))

	assert.False(t, ix.Ready())

	_, err := ix.RecordsFor(AllSources, Filters{})
	require.Error(t, err)
	assert.Equal(t, archerr.ErrCodeIndexUnavailable, archerr.GetCode(err))
}

func TestRebuild_InstallsNewGeneration(t *testing.T) {
	ix := testIndex(t)
	assert.Equal(t, uint64(1), ix.Generation())

	require.NoError(t, ix.Rebuild(context.Background()))
	assert.Equal(t, uint64(2), ix.Generation())
}

func TestRebuild_SnapshotIsolation(t *testing.T) {
	// Records visible to an in-flight read must not change when a new
	// snapshot is installed.
	var generation int
	provider := ProviderFunc{
		SourceType: SourceEntity,
		Fn: func(ctx context.Context) ([]*Record, error) {
			generation++
			return []*Record{{
				ID: "e1", Source: SourceEntity,
				PrimaryText: fmt.Sprintf("Name gen %d", generation),
			}}, nil
		},
	}

	ix := New(provider)
	require.NoError(t, ix.Rebuild(context.Background()))

	before, err := ix.RecordsFor(AllSources, Filters{})
	require.NoError(t, err)
	require.Len(t, before, 1)

	require.NoError(t, ix.Rebuild(context.Background()))

	assert.Equal(t, "Name gen 1", before[0].PrimaryText)

	after, err := ix.RecordsFor(AllSources, Filters{})
	require.NoError(t, err)
	assert.Equal(t, "Name gen 2", after[0].PrimaryText)
}

func TestRebuild_SkipsMalformedRecords(t *testing.T) {
	provider := staticProvider(SourceEntity,
		&Record{ID: "", Source: SourceEntity, PrimaryText: "no id"},
		&Record{ID: "ok", Source: SourceEntity, PrimaryText: "fine"},
	)
	ix := New(provider)
	require.NoError(t, ix.Rebuild(context.Background()))

	recs, err := ix.RecordsFor(AllSources, Filters{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "ok", recs[0].ID)
}

// --- Filtering ---

func TestRecordsFor_SourceSelection(t *testing.T) {
	ix := testIndex(t)

	recs, err := ix.RecordsFor([]SourceType{SourceDocument}, Filters{})
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	recs, err = ix.RecordsFor(AllSources, Filters{})
	require.NoError(t, err)
	assert.Len(t, recs, 6)
}

func TestRecordsFor_AttributeEquality(t *testing.T) {
	ix := testIndex(t)

	recs, err := ix.RecordsFor([]SourceType{SourceDocument}, Filters{
		Attributes: map[string]string{AttrDocType: "pdf"},
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Equal(t, "pdf", r.Attributes[AttrDocType])
	}
}

func TestRecordsFor_MultipleAttributes(t *testing.T) {
	ix := testIndex(t)

	recs, err := ix.RecordsFor([]SourceType{SourceDocument}, Filters{
		Attributes: map[string]string{AttrDocType: "pdf", AttrSource: "court"},
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "d1", recs[0].ID)
}

func TestRecordsFor_UnknownAttributeKeyIgnored(t *testing.T) {
	ix := testIndex(t)

	// Unknown keys degrade gracefully: the constraint is dropped.
	recs, err := ix.RecordsFor([]SourceType{SourceDocument}, Filters{
		Attributes: map[string]string{"nonsense_key": "whatever"},
	})
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestRecordsFor_KnownKeyAbsentFromSource(t *testing.T) {
	ix := testIndex(t)

	// entity_type is a known key, but no news record carries it.
	recs, err := ix.RecordsFor([]SourceType{SourceNews}, Filters{
		Attributes: map[string]string{AttrEntityType: "person"},
	})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRecordsFor_DateRange(t *testing.T) {
	ix := testIndex(t)

	recs, err := ix.RecordsFor([]SourceType{SourceDocument}, Filters{
		DateStart: ts("2000-01-01"),
		DateEnd:   ts("2020-01-01"),
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "d2", recs[0].ID)
}

func TestRecordsFor_DateRangeExcludesMissingTimestamps(t *testing.T) {
	ix := testIndex(t)

	// Wide-open range still excludes d3, which has no timestamp.
	recs, err := ix.RecordsFor([]SourceType{SourceDocument}, Filters{
		DateStart: ts("1900-01-01"),
	})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	for _, r := range recs {
		assert.NotNil(t, r.Timestamp)
	}
}

func TestRecordsFor_AttributeAndDateCombined(t *testing.T) {
	ix := testIndex(t)

	recs, err := ix.RecordsFor([]SourceType{SourceDocument}, Filters{
		Attributes: map[string]string{AttrSource: "court"},
		DateStart:  ts("2000-01-01"),
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "d2", recs[0].ID)
}

// --- Names and recency ---

func TestNames_IncludesAliasesForEntities(t *testing.T) {
	ix := testIndex(t)

	names, err := ix.Names([]SourceType{SourceEntity})
	require.NoError(t, err)
	require.Len(t, names, 3)

	var aliases int
	for _, n := range names {
		if n.Alias {
			aliases++
			assert.Equal(t, "G. Maxwell", n.Text)
		}
	}
	assert.Equal(t, 1, aliases)
}

func TestNames_DocumentSecondaryTextsAreNotNames(t *testing.T) {
	ix := testIndex(t)

	names, err := ix.Names([]SourceType{SourceDocument})
	require.NoError(t, err)
	for _, n := range names {
		assert.False(t, n.Alias)
		assert.NotEqual(t, "flight-logs.pdf", n.Text)
	}
}

func TestMostRecent_NewestFirstThenPriority(t *testing.T) {
	ix := testIndex(t)

	recs, err := ix.MostRecent(AllSources, Filters{})
	require.NoError(t, err)
	require.Len(t, recs, 6)

	// Timestamped records newest first.
	assert.Equal(t, "n1", recs[0].ID) // 2019
	assert.Equal(t, "d2", recs[1].ID) // 2016
	assert.Equal(t, "d1", recs[2].ID) // 1997

	// Untimestamped follow, entity priority before document.
	assert.Equal(t, SourceEntity, recs[3].Source)
	assert.Equal(t, SourceEntity, recs[4].Source)
	assert.Equal(t, "d3", recs[5].ID)
}

func TestStats(t *testing.T) {
	ix := testIndex(t)

	stats, err := ix.Stats()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.Generation)
	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 2, stats.BySource[SourceEntity])
	assert.Equal(t, 3, stats.BySource[SourceDocument])
	assert.Equal(t, 1, stats.BySource[SourceNews])
}

// --- Fields parsing ---

func TestParseFields(t *testing.T) {
	tests := []struct {
		input   string
		want    []SourceType
		wantErr bool
	}{
		{"all", AllSources, false},
		{"", AllSources, false},
		{"entities", []SourceType{SourceEntity}, false},
		{"documents", []SourceType{SourceDocument}, false},
		{"news", []SourceType{SourceNews}, false},
		{"News", []SourceType{SourceNews}, false},
		{"imagery", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFields(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, archerr.ErrCodeUnknownSource, archerr.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
