package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarchive/unisearch/internal/analytics"
	archerr "github.com/openarchive/unisearch/internal/errors"
	"github.com/openarchive/unisearch/internal/index"
	"github.com/openarchive/unisearch/internal/search"
)

func ts(value string) *time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return &t
}

func testService(t *testing.T) *Service {
	t.Helper()

	entities := index.ProviderFunc{
		SourceType: index.SourceEntity,
		Fn: func(ctx context.Context) ([]*index.Record, error) {
			return []*index.Record{
				{
					ID: "e1", Source: index.SourceEntity,
					PrimaryText:    "Ghislaine Maxwell",
					SecondaryTexts: []string{"G. Maxwell"},
					Attributes:     map[string]string{index.AttrEntityType: "person"},
				},
			}, nil
		},
	}
	docs := index.ProviderFunc{
		SourceType: index.SourceDocument,
		Fn: func(ctx context.Context) ([]*index.Record, error) {
			return []*index.Record{
				{
					ID: "d1", Source: index.SourceDocument,
					PrimaryText: "Maxwell deposition transcript",
					Attributes:  map[string]string{index.AttrDocType: "pdf", index.AttrSource: "court"},
					Timestamp:   ts("2016-05-20"),
				},
				{
					ID: "d2", Source: index.SourceDocument,
					PrimaryText: "Epstein flight logs",
					Attributes:  map[string]string{index.AttrDocType: "pdf", index.AttrSource: "fbi"},
					Timestamp:   ts("1997-03-01"),
				},
			}, nil
		},
	}

	ix := index.New(entities, docs)
	require.NoError(t, ix.Rebuild(context.Background()))

	engine, err := search.NewEngine(ix, search.DefaultEngineConfig())
	require.NoError(t, err)

	cfg := analytics.DefaultConfig()
	cfg.FlushInterval = 0
	tracker, err := analytics.NewTracker(nil, cfg)
	require.NoError(t, err)

	suggester, err := search.NewSuggester(ix, tracker, engine.Scorer(), 16)
	require.NoError(t, err)

	return New(engine, suggester, tracker, ix, Config{FuzzyEnabled: true})
}

func TestService_SearchReturnsShapedResults(t *testing.T) {
	svc := testService(t)

	resp, err := svc.Search(context.Background(), SearchRequest{Query: "maxwell"})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.TotalResults)
	require.Len(t, resp.Results, 2)

	first := resp.Results[0]
	assert.Equal(t, "e1", first.ID)
	assert.Equal(t, "entity", first.SourceType)
	assert.Equal(t, "Ghislaine Maxwell", first.Title)
	assert.NotZero(t, first.Score)

	second := resp.Results[1]
	assert.Equal(t, "d1", second.ID)
	assert.Equal(t, "2016-05-20", second.Date)

	assert.NotNil(t, resp.Facets)
	assert.GreaterOrEqual(t, resp.SearchTimeMS, int64(0))
}

func TestService_SearchRejectsUnknownFields(t *testing.T) {
	svc := testService(t)

	_, err := svc.Search(context.Background(), SearchRequest{Query: "maxwell", Fields: "emails"})

	require.Error(t, err)
	assert.Equal(t, archerr.ErrCodeUnknownSource, archerr.GetCode(err))
}

func TestService_SearchRecordsAnalytics(t *testing.T) {
	svc := testService(t)

	_, err := svc.Search(context.Background(), SearchRequest{Query: "maxwell", Fields: "documents"})
	require.NoError(t, err)

	state := svc.AnalyticsSnapshot()
	assert.Equal(t, int64(1), state.TotalSearches)
	require.Len(t, state.RecentSearches, 1)
	assert.Equal(t, "maxwell", state.RecentSearches[0].Query)
	assert.Equal(t, "documents", state.RecentSearches[0].Fields)
}

func TestService_SearchAttributeAndDateFilters(t *testing.T) {
	svc := testService(t)

	resp, err := svc.Search(context.Background(), SearchRequest{
		Query:     "flight",
		Fields:    "documents",
		Source:    "fbi",
		DateStart: "1997-01-01",
		DateEnd:   "1997-12-31",
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "d2", resp.Results[0].ID)
}

func TestService_SearchDateFilter(t *testing.T) {
	svc := testService(t)

	resp, err := svc.Search(context.Background(), SearchRequest{
		Query:     "maxwell",
		Fields:    "documents",
		DateStart: "2016-01-01",
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "d1", resp.Results[0].ID)
}

func TestService_SearchIgnoresBadDates(t *testing.T) {
	svc := testService(t)

	resp, err := svc.Search(context.Background(), SearchRequest{
		Query:     "maxwell",
		DateStart: "not-a-date",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.TotalResults)
}

func TestService_SearchFuzzyOverride(t *testing.T) {
	svc := testService(t)

	exact := false
	resp, err := svc.Search(context.Background(), SearchRequest{
		Query: "Ghisline",
		Fuzzy: &exact,
	})
	require.NoError(t, err)
	assert.Zero(t, resp.TotalResults)

	resp, err = svc.Search(context.Background(), SearchRequest{Query: "Ghisline"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalResults)
}

func TestService_RelatedSuggestionsFromPopularQueries(t *testing.T) {
	svc := testService(t)

	// Seed popularity with queries sharing the "maxwell" term.
	for i := 0; i < 3; i++ {
		_, err := svc.Search(context.Background(), SearchRequest{Query: "maxwell deposition"})
		require.NoError(t, err)
	}

	resp, err := svc.Search(context.Background(), SearchRequest{Query: "maxwell"})
	require.NoError(t, err)

	assert.Contains(t, resp.Suggestions, "maxwell deposition")
	assert.NotContains(t, resp.Suggestions, "maxwell")
}

func TestService_Suggest(t *testing.T) {
	svc := testService(t)

	suggestions, err := svc.Suggest(context.Background(), "ghis", 10)
	require.NoError(t, err)

	require.NotEmpty(t, suggestions)
	assert.Equal(t, "Ghislaine Maxwell", suggestions[0].Text)
}

func TestService_AnalyticsClear(t *testing.T) {
	svc := testService(t)
	_, err := svc.Search(context.Background(), SearchRequest{Query: "maxwell"})
	require.NoError(t, err)

	svc.AnalyticsClear()

	state := svc.AnalyticsSnapshot()
	assert.Zero(t, state.TotalSearches)
	assert.Empty(t, state.RecentSearches)
}

func TestService_IndexStats(t *testing.T) {
	svc := testService(t)

	stats, err := svc.IndexStats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
}
