package discovery

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/stock-discovery/internal/modules/scoring"
)

func exportSession() *Session {
	return &Session{
		Candidates: []ScoredCandidate{
			{
				Market:       "US",
				Symbol:       "UAVS",
				Name:         "AgEagle Aerial Systems Inc",
				MarketCap:    50_000_000,
				MatchedTerms: []string{"drone", "uav"},
				Scores:       scoring.CompositeScores{MemeScore: 70, QuantScore: 50, PennyStock: true},
				Price:        &scoring.PriceQuote{Price: 2.5, Currency: "USD"},
				Fundamentals: &scoring.Fundamentals{PE: 12, PB: 1.2, ROE: 0.08, DebtRatio: 0.4, RevenueGrowth: 0.2},
			},
			{
				Market:       "US",
				Symbol:       "AVAV",
				Name:         "AeroVironment Inc",
				MatchedTerms: []string{"drone"},
				Scores:       scoring.CompositeScores{MemeScore: 25, QuantScore: 50, DataQuality: "incomplete"},
			},
		},
	}
}

func TestExportFlattensCandidates(t *testing.T) {
	records := Export(exportSession())
	require.Len(t, records, 2)

	assert.Equal(t, "UAVS", records[0].Symbol)
	assert.Equal(t, "drone;uav", records[0].MatchedKeywords)
	require.NotNil(t, records[0].Price)
	assert.Equal(t, 2.5, *records[0].Price)
	require.NotNil(t, records[0].PER)
	assert.Equal(t, 12.0, *records[0].PER)
	assert.True(t, records[0].IsPennyStock)

	// Missing price and fundamentals stay nil, not zero.
	assert.Nil(t, records[1].Price)
	assert.Nil(t, records[1].PER)
	assert.Nil(t, records[1].RevenueGrowth)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, exportSession()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(exportHeader, ","), lines[0])
	assert.Contains(t, lines[1], "UAVS")
	assert.Contains(t, lines[1], "drone;uav")
	assert.Contains(t, lines[2], "AVAV")

	// Missing optional fields export as empty cells.
	fields := strings.Split(lines[2], ",")
	assert.Equal(t, "", fields[3]) // price
	assert.Equal(t, "", fields[7]) // per
}
