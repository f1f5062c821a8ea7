package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/stock-discovery/internal/modules/catalog"
	"github.com/aristath/stock-discovery/internal/modules/keywords"
	"github.com/aristath/stock-discovery/internal/modules/relevance"
	"github.com/aristath/stock-discovery/internal/modules/scoring"
)

func testSecurities() []catalog.Security {
	return []catalog.Security{
		{
			Market:      "US",
			Symbol:      "UAVS",
			Name:        "AgEagle Aerial Systems Inc",
			Sector:      "Aerospace & Defense",
			Industry:    "Drones",
			SearchTerms: []string{"drone", "uav"},
			Currency:    "USD",
			MarketCap:   50_000_000,
		},
		{
			Market:      "US",
			Symbol:      "AVAV",
			Name:        "AeroVironment Inc",
			Sector:      "Aerospace & Defense",
			Industry:    "Drones",
			SearchTerms: []string{"drone"},
			Currency:    "USD",
			MarketCap:   8_000_000_000,
		},
		{
			Market:      "US",
			Symbol:      "TSLA",
			Name:        "Tesla Inc",
			Sector:      "Consumer Cyclical",
			Industry:    "Auto Manufacturers",
			SearchTerms: []string{"electric vehicle", "ev"},
			Currency:    "USD",
			MarketCap:   800_000_000_000,
		},
	}
}

type pipelineFixture struct {
	pipeline *Pipeline
	catalog  *catalog.Catalog
	searcher Searcher
}

func newPipelineFixture(t *testing.T, opts ...PipelineOption) *pipelineFixture {
	t.Helper()
	log := zerolog.Nop()

	cat := catalog.New(log)
	require.NoError(t, cat.Build(testSecurities()))

	boosts := relevance.NewBoostTable()
	boosts.Replace(map[string][]string{"UAVS": {"drone", "uav", "무인기"}})

	searcher := relevance.NewEngine(cat, boosts, log)
	expander := keywords.NewExpander(keywords.NewTaxonomy(keywords.DefaultTaxonomy()), log)
	scorer := scoring.NewEngine(boosts, log)

	return &pipelineFixture{
		pipeline: NewPipeline(cat, expander, searcher, scorer, nil, log, opts...),
		catalog:  cat,
		searcher: searcher,
	}
}

func TestDiscoverValidation(t *testing.T) {
	fix := newPipelineFixture(t)

	tooMany := make([]string, 11)
	for i := range tooMany {
		tooMany[i] = "kw"
	}

	tests := []struct {
		name  string
		seeds []string
	}{
		{"empty seed list", nil},
		{"blank seed", []string{"drone", "   "}},
		{"duplicate fine but blank fails", []string{"AI", "AI", "  "}},
		{"too many seeds", tooMany},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fix.pipeline.Discover(context.Background(), tt.seeds, Options{})
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestDiscoverDuplicateSeedsAllowed(t *testing.T) {
	fix := newPipelineFixture(t)

	session, err := fix.pipeline.Discover(context.Background(), []string{"drone", "drone"}, Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Candidates)
}

func TestDiscoverCatalogUnavailable(t *testing.T) {
	log := zerolog.Nop()
	cat := catalog.New(log) // never built
	boosts := relevance.NewBoostTable()
	pipeline := NewPipeline(
		cat,
		keywords.NewExpander(keywords.NewTaxonomy(keywords.DefaultTaxonomy()), log),
		relevance.NewEngine(cat, boosts, log),
		scoring.NewEngine(boosts, log),
		nil,
		log,
		WithReadyTimeout(50*time.Millisecond),
	)

	_, err := pipeline.Discover(context.Background(), []string{"drone"}, Options{})
	var unavailableErr *CatalogUnavailableError
	require.ErrorAs(t, err, &unavailableErr)
}

func TestDiscoverDroneQuery(t *testing.T) {
	fix := newPipelineFixture(t)

	session, err := fix.pipeline.Discover(context.Background(), []string{"drone"}, Options{})
	require.NoError(t, err)

	symbols := make([]string, len(session.Candidates))
	for i, c := range session.Candidates {
		symbols[i] = c.Symbol
	}
	assert.Contains(t, symbols, "UAVS")
	assert.Contains(t, symbols, "AVAV")
	assert.NotContains(t, symbols, "TSLA")

	// The boosted symbol outranks its peer.
	assert.Equal(t, "UAVS", session.Candidates[0].Symbol)

	// Taxonomy synonyms made it into the expansion.
	assert.Contains(t, session.Expansion.Expanded, "UAV")
	assert.False(t, session.Expansion.Enhanced)
	assert.Empty(t, session.Metadata.PartialFailures)
}

func TestDiscoverMergesAcrossKeywords(t *testing.T) {
	fix := newPipelineFixture(t)

	session, err := fix.pipeline.Discover(context.Background(), []string{"drone"}, Options{})
	require.NoError(t, err)

	var uavs *ScoredCandidate
	for i := range session.Candidates {
		if session.Candidates[i].Symbol == "UAVS" {
			uavs = &session.Candidates[i]
		}
	}
	require.NotNil(t, uavs)

	// UAVS is hit by both "drone" and "uav" searches; matched terms
	// from every contributing keyword are unioned.
	joined := strings.ToLower(strings.Join(uavs.MatchedTerms, " "))
	assert.Contains(t, joined, "drone")
	assert.Contains(t, joined, "uav")
}

func TestDiscoverDeterministicOutput(t *testing.T) {
	fix := newPipelineFixture(t)
	ctx := context.Background()
	seeds := []string{"drone"}

	first, err := fix.pipeline.Discover(ctx, seeds, Options{})
	require.NoError(t, err)

	fix.pipeline.InvalidateCache()
	second, err := fix.pipeline.Discover(ctx, seeds, Options{})
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first.Candidates)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second.Candidates)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
	assert.Equal(t, first.Insights, second.Insights)
}

func TestDiscoverCacheHit(t *testing.T) {
	fix := newPipelineFixture(t)
	ctx := context.Background()

	first, err := fix.pipeline.Discover(ctx, []string{"drone"}, Options{})
	require.NoError(t, err)
	assert.False(t, first.Metadata.Cached)

	second, err := fix.pipeline.Discover(ctx, []string{"drone"}, Options{})
	require.NoError(t, err)
	assert.True(t, second.Metadata.Cached)
	assert.Equal(t, first.ID, second.ID)

	// Different options miss the cache.
	third, err := fix.pipeline.Discover(ctx, []string{"drone"}, Options{MaxResults: 1})
	require.NoError(t, err)
	assert.False(t, third.Metadata.Cached)
}

func TestDiscoverDistinctSeedListsNeverShareCache(t *testing.T) {
	fix := newPipelineFixture(t)
	ctx := context.Background()

	first, err := fix.pipeline.Discover(ctx, []string{"drone|x"}, Options{})
	require.NoError(t, err)

	second, err := fix.pipeline.Discover(ctx, []string{"drone", "x"}, Options{})
	require.NoError(t, err)
	assert.False(t, second.Metadata.Cached)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, []string{"drone", "x"}, second.Query)
}

func TestDiscoverCacheInvalidatedOnRebuild(t *testing.T) {
	fix := newPipelineFixture(t)
	ctx := context.Background()

	_, err := fix.pipeline.Discover(ctx, []string{"drone"}, Options{})
	require.NoError(t, err)

	require.NoError(t, fix.catalog.Build(testSecurities()))

	session, err := fix.pipeline.Discover(ctx, []string{"drone"}, Options{})
	require.NoError(t, err)
	assert.False(t, session.Metadata.Cached)
}

type flakySearcher struct {
	inner    Searcher
	failTerm string
}

func (s *flakySearcher) Search(q relevance.Query) ([]relevance.Candidate, error) {
	if strings.EqualFold(q.Text, s.failTerm) {
		return nil, errors.New("search backend unavailable")
	}
	return s.inner.Search(q)
}

func TestDiscoverPartialSearchFailure(t *testing.T) {
	fix := newPipelineFixture(t)
	log := zerolog.Nop()
	boosts := relevance.NewBoostTable()
	pipeline := NewPipeline(
		fix.catalog,
		keywords.NewExpander(keywords.NewTaxonomy(keywords.DefaultTaxonomy()), log),
		&flakySearcher{inner: fix.searcher, failTerm: "uav"},
		scoring.NewEngine(boosts, log),
		nil,
		log,
	)

	session, err := pipeline.Discover(context.Background(), []string{"drone"}, Options{})
	require.NoError(t, err)

	// The failing term carries its first-seen casing ("UAV", from the
	// taxonomy synonym) into the failure record.
	require.Len(t, session.Metadata.PartialFailures, 1)
	assert.Contains(t, strings.ToLower(session.Metadata.PartialFailures[0]), "uav")

	// The surviving keyword searches still produce results.
	symbols := make([]string, len(session.Candidates))
	for i, c := range session.Candidates {
		symbols[i] = c.Symbol
	}
	assert.Contains(t, symbols, "UAVS")
	assert.Contains(t, symbols, "AVAV")
}

func TestDiscoverMaxResultsTruncation(t *testing.T) {
	fix := newPipelineFixture(t)

	session, err := fix.pipeline.Discover(context.Background(), []string{"drone"}, Options{MaxResults: 1})
	require.NoError(t, err)
	require.Len(t, session.Candidates, 1)
	assert.Equal(t, "UAVS", session.Candidates[0].Symbol)
	assert.Equal(t, 2, session.Metadata.TotalMatched)
}

func TestDiscoverMinRelevanceFloor(t *testing.T) {
	fix := newPipelineFixture(t)

	session, err := fix.pipeline.Discover(context.Background(), []string{"drone"}, Options{MinRelevance: 10_000})
	require.NoError(t, err)
	assert.Empty(t, session.Candidates)
	assert.Equal(t, "No securities matched the query.", session.Insights.Summary)
}

func TestDiscoverMarketFilter(t *testing.T) {
	fix := newPipelineFixture(t)

	session, err := fix.pipeline.Discover(context.Background(), []string{"drone"}, Options{Markets: []string{"KR"}})
	require.NoError(t, err)
	assert.Empty(t, session.Candidates)
}

func TestSortCandidates(t *testing.T) {
	base := []ScoredCandidate{
		{Symbol: "A", Relevance: 100, MarketCap: 10, Scores: scoring.CompositeScores{MemeScore: 20, QuantScore: 80, KeywordMatches: 1}, order: 0},
		{Symbol: "B", Relevance: 50, MarketCap: 30, Scores: scoring.CompositeScores{MemeScore: 90, QuantScore: 40, KeywordMatches: 3}, order: 1},
		{Symbol: "C", Relevance: 50, MarketCap: 20, Scores: scoring.CompositeScores{MemeScore: 90, QuantScore: 60, KeywordMatches: 2}, order: 2},
	}

	tests := []struct {
		sortBy string
		want   []string
	}{
		{SortByRelevance, []string{"A", "B", "C"}},
		{"", []string{"A", "B", "C"}},
		{SortByMemeScore, []string{"B", "C", "A"}}, // B/C tie on meme, relevance ties, order breaks
		{SortByQuantScore, []string{"A", "C", "B"}},
		{SortByMarketCap, []string{"B", "C", "A"}},
		{SortByKeywordMatches, []string{"B", "C", "A"}},
	}

	for _, tt := range tests {
		t.Run("sort_"+tt.sortBy, func(t *testing.T) {
			candidates := append([]ScoredCandidate(nil), base...)
			sortCandidates(candidates, tt.sortBy)
			got := make([]string, len(candidates))
			for i, c := range candidates {
				got[i] = c.Symbol
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSortByPricePutsMissingPriceLast(t *testing.T) {
	price := func(v float64) *scoring.PriceQuote { return &scoring.PriceQuote{Price: v, Currency: "USD"} }
	candidates := []ScoredCandidate{
		{Symbol: "NOPRICE", Relevance: 100, order: 0},
		{Symbol: "CHEAP", Relevance: 50, Price: price(3), order: 1},
		{Symbol: "RICH", Relevance: 50, Price: price(300), order: 2},
	}
	sortCandidates(candidates, SortByPrice)
	assert.Equal(t, "RICH", candidates[0].Symbol)
	assert.Equal(t, "CHEAP", candidates[1].Symbol)
	assert.Equal(t, "NOPRICE", candidates[2].Symbol)
}

func TestUnionKeywords(t *testing.T) {
	got := unionKeywords([]string{"Drone", "AI"}, []string{"drone", "UAV", "ai", "uav"})
	assert.Equal(t, []string{"Drone", "AI", "UAV"}, got)
}
