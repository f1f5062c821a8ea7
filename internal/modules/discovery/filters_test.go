package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/stock-discovery/internal/modules/scoring"
)

func candidate(symbol string, price float64, marketCap float64, scores scoring.CompositeScores) ScoredCandidate {
	c := ScoredCandidate{Symbol: symbol, MarketCap: marketCap, Scores: scores}
	if price > 0 {
		c.Price = &scoring.PriceQuote{Price: price, Currency: "USD"}
	}
	return c
}

func symbolsOf(candidates []ScoredCandidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Symbol
	}
	return out
}

func TestFilterMemeToggleWithPriceCap(t *testing.T) {
	candidates := []ScoredCandidate{
		candidate("LOWMEME", 3, 0, scoring.CompositeScores{MemeScore: 40}),
		candidate("HIMEME", 3, 0, scoring.CompositeScores{MemeScore: 70}),
		candidate("PRICEY", 50, 0, scoring.CompositeScores{MemeScore: 95}),
	}

	got := applyFilters(candidates, Options{MaxPrice: 5, ShowMemeStocks: true})
	assert.Equal(t, []string{"HIMEME"}, symbolsOf(got))
}

func TestFilterTogglesAreORed(t *testing.T) {
	candidates := []ScoredCandidate{
		candidate("MEME", 10, 0, scoring.CompositeScores{MemeScore: 80, QuantScore: 10}),
		candidate("QUANT", 10, 0, scoring.CompositeScores{MemeScore: 10, QuantScore: 80}),
		candidate("PENNY", 2, 0, scoring.CompositeScores{PennyStock: true, MemeScore: 10, QuantScore: 10}),
		candidate("NEITHER", 10, 0, scoring.CompositeScores{MemeScore: 10, QuantScore: 10}),
	}

	got := applyFilters(candidates, Options{ShowMemeStocks: true, ShowQuantPicks: true, ShowPennyStocks: true})
	assert.Equal(t, []string{"MEME", "QUANT", "PENNY"}, symbolsOf(got))
}

func TestFilterNoTogglesOnlyHardConstraints(t *testing.T) {
	candidates := []ScoredCandidate{
		candidate("SMALL", 10, 1_000_000, scoring.CompositeScores{}),
		candidate("LARGE", 10, 900_000_000_000, scoring.CompositeScores{}),
	}

	got := applyFilters(candidates, Options{MaxMarketCap: 1_000_000_000})
	assert.Equal(t, []string{"SMALL"}, symbolsOf(got))

	// No constraints at all passes everything through.
	got = applyFilters(candidates, Options{})
	assert.Len(t, got, 2)
}

func TestFilterPriceCapExcludesUnpricedCandidates(t *testing.T) {
	candidates := []ScoredCandidate{
		candidate("UNPRICED", 0, 0, scoring.CompositeScores{}),
		candidate("PRICED", 4, 0, scoring.CompositeScores{}),
	}

	got := applyFilters(candidates, Options{MaxPrice: 5})
	assert.Equal(t, []string{"PRICED"}, symbolsOf(got))
}

func TestFilterCustomToggleThresholds(t *testing.T) {
	candidates := []ScoredCandidate{
		candidate("A", 0, 0, scoring.CompositeScores{MemeScore: 55}),
		candidate("B", 0, 0, scoring.CompositeScores{MemeScore: 45}),
	}

	// Default threshold 60 excludes both; a lowered one admits A.
	assert.Empty(t, applyFilters(candidates, Options{ShowMemeStocks: true}))
	got := applyFilters(candidates, Options{ShowMemeStocks: true, MinMemeScore: 50})
	assert.Equal(t, []string{"A"}, symbolsOf(got))
}
