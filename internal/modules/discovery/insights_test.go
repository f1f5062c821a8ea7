package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/stock-discovery/internal/modules/scoring"
)

func TestInsightsEmpty(t *testing.T) {
	ins := buildInsights(nil, "")
	assert.Equal(t, "No securities matched the query.", ins.Summary)
	assert.Empty(t, ins.SectorDistribution)
	assert.Zero(t, ins.PennyStockCount)
}

func TestInsightsDistributionsAndAverages(t *testing.T) {
	candidates := []ScoredCandidate{
		{Market: "US", Sector: "Aerospace & Defense", Scores: scoring.CompositeScores{MemeScore: 40, QuantScore: 60}},
		{Market: "US", Sector: "Aerospace & Defense", Scores: scoring.CompositeScores{MemeScore: 60, QuantScore: 40, PennyStock: true}},
		{Market: "KR", Sector: "Technology", Scores: scoring.CompositeScores{MemeScore: 20, QuantScore: 80}},
	}

	ins := buildInsights(candidates, "")
	assert.Equal(t, map[string]int{"Aerospace & Defense": 2, "Technology": 1}, ins.SectorDistribution)
	assert.Equal(t, map[string]int{"US": 2, "KR": 1}, ins.MarketDistribution)
	assert.Equal(t, "Aerospace & Defense", ins.TopSector)
	assert.InDelta(t, 40.0, ins.AverageMemeScore, 1e-9)
	assert.InDelta(t, 60.0, ins.AverageQuantScore, 1e-9)
	assert.Equal(t, 1, ins.PennyStockCount)
	assert.Equal(t, "Found 3 securities across 2 markets, led by Aerospace & Defense (2).", ins.Summary)
}

func TestInsightsMissingSectorBucketed(t *testing.T) {
	ins := buildInsights([]ScoredCandidate{{Market: "US"}}, "")
	assert.Equal(t, map[string]int{"Unclassified": 1}, ins.SectorDistribution)
}

func TestRiskCommentary(t *testing.T) {
	tests := []struct {
		name       string
		profile    string
		avgMeme    float64
		pennyCount int
		want       string
	}{
		{"low interest", "", 10, 0, "Results show low speculative interest."},
		{"moderate", "", 45, 0, "Results show moderate speculative interest."},
		{"speculative with pennies", "", 75, 2, "Results skew speculative. 2 penny stocks present."},
		{"conservative warning", "conservative", 75, 0, "Results skew speculative. Consider tightening quant thresholds for a conservative profile."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, riskCommentary(tt.profile, tt.avgMeme, tt.pennyCount))
		})
	}
}

func TestDominantKeyTieBreaksLexicographically(t *testing.T) {
	assert.Equal(t, "Alpha", dominantKey(map[string]int{"Beta": 2, "Alpha": 2}))
}
