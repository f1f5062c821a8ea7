package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecords() []Security {
	return []Security{
		{
			Market:      "US",
			Symbol:      "UAVS",
			Name:        "AgEagle Aerial Systems Inc",
			Sector:      "Industrials",
			Industry:    "Aerospace & Defense",
			SearchTerms: []string{"drone", "uav", "aerial"},
			Currency:    "USD",
			MarketCap:   80_000_000,
		},
		{
			Market:         "US",
			Symbol:         "AVAV",
			Name:           "AeroVironment Inc",
			LocalizedNames: map[string]string{"ko": "에어로바이런먼트"},
			Sector:         "Industrials",
			Industry:       "Aerospace & Defense",
			SearchTerms:    []string{"drone", "uav", "defense"},
			Currency:       "USD",
			MarketCap:      5_000_000_000,
		},
		{
			Market:      "KR",
			Symbol:      "UAVS",
			Name:        "UAVS Korea Co Ltd",
			Sector:      "Industrials",
			SearchTerms: []string{"drone"},
			Currency:    "KRW",
			MarketCap:   100_000_000_000,
		},
	}
}

func TestBuildAndLookup(t *testing.T) {
	c := New(zerolog.Nop())
	require.NoError(t, c.Build(testRecords()))

	snap, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Len())

	sec, ok := snap.LookupIn("US", "UAVS")
	require.True(t, ok)
	assert.Equal(t, "AgEagle Aerial Systems Inc", sec.Name)

	// lowercase identity is normalized on the way in
	sec, ok = snap.LookupIn("us", "uavs")
	require.True(t, ok)
	assert.Equal(t, "US", sec.Market)
}

func TestLookupAmbiguousSymbol(t *testing.T) {
	c := New(zerolog.Nop())
	require.NoError(t, c.Build(testRecords()))

	snap, err := c.Snapshot()
	require.NoError(t, err)

	// UAVS exists on US and KR markets, caller must disambiguate
	_, ok := snap.Lookup("UAVS")
	assert.False(t, ok)

	// AVAV is unique across markets
	sec, ok := snap.Lookup("AVAV")
	require.True(t, ok)
	assert.Equal(t, "US", sec.Market)
}

func TestBuildDoesNotMutateInputRecords(t *testing.T) {
	terms := []string{"Drone", " UAV "}
	records := []Security{
		{Market: "us", Symbol: "uavs", Name: "AgEagle Aerial Systems Inc", SearchTerms: terms, Currency: "USD"},
		{Market: "us", Symbol: "uavs", Name: "Duplicate", Currency: "USD"},
	}

	cat := New(zerolog.Nop())
	require.Error(t, cat.Build(records))

	// The failed build must leave the caller's records untouched.
	assert.Equal(t, []string{"Drone", " UAV "}, terms)
	assert.Equal(t, "us", records[0].Market)

	require.NoError(t, cat.Build(records[:1]))
	assert.Equal(t, []string{"Drone", " UAV "}, terms)
}

func TestBuildDuplicateKey(t *testing.T) {
	records := testRecords()
	records = append(records, Security{Market: "us", Symbol: "uavs", Name: "Duplicate"})

	c := New(zerolog.Nop())
	err := c.Build(records)
	require.Error(t, err)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, "US", buildErr.Market)
	assert.Equal(t, "UAVS", buildErr.Symbol)

	// failed build leaves the catalog unbuilt
	assert.False(t, c.Ready())
}

func TestBuildNegativeMarketCap(t *testing.T) {
	c := New(zerolog.Nop())
	err := c.Build([]Security{{Market: "US", Symbol: "XYZ", Name: "X", MarketCap: -1}})

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
}

func TestBuildKeepsPreviousSnapshotOnFailure(t *testing.T) {
	c := New(zerolog.Nop())
	require.NoError(t, c.Build(testRecords()))

	err := c.Build([]Security{
		{Market: "US", Symbol: "AAA", Name: "A"},
		{Market: "US", Symbol: "AAA", Name: "A again"},
	})
	require.Error(t, err)

	snap, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Len())
	assert.Equal(t, uint64(1), snap.Generation())
}

func TestCandidatesForTerm(t *testing.T) {
	c := New(zerolog.Nop())
	require.NoError(t, c.Build(testRecords()))

	snap, err := c.Snapshot()
	require.NoError(t, err)

	drones := snap.CandidatesForTerm("drone")
	require.Len(t, drones, 3)
	// insertion order preserved
	assert.Equal(t, "UAVS", drones[0].Symbol)
	assert.Equal(t, "AVAV", drones[1].Symbol)
	assert.Equal(t, "KR", drones[2].Market)

	// canonical name tokens are indexed
	assert.Len(t, snap.CandidatesForTerm("AeroVironment"), 1)
	// localized names are indexed
	assert.Len(t, snap.CandidatesForTerm("에어로바이런먼트"), 1)
	// unknown term
	assert.Empty(t, snap.CandidatesForTerm("blockchain"))
}

func TestReadiness(t *testing.T) {
	c := New(zerolog.Nop())
	assert.False(t, c.Ready())

	_, err := c.Snapshot()
	var notReady *NotReadyError
	require.ErrorAs(t, err, &notReady)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err = c.AwaitReady(ctx)
	require.ErrorAs(t, err, &notReady)

	require.NoError(t, c.Build(testRecords()))
	assert.True(t, c.Ready())
	assert.NoError(t, c.AwaitReady(context.Background()))
}

func TestGenerationIncrementsOnRebuild(t *testing.T) {
	c := New(zerolog.Nop())
	assert.Equal(t, uint64(0), c.Generation())

	require.NoError(t, c.Build(testRecords()))
	assert.Equal(t, uint64(1), c.Generation())

	require.NoError(t, c.Build(testRecords()[:1]))
	assert.Equal(t, uint64(2), c.Generation())
}
