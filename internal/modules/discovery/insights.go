package discovery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aristath/stock-discovery/pkg/formulas"
)

// Insights is a deterministic, template-based summary of a session.
// Every string it contains is produced from fixed templates so tests
// can assert on exact output.
type Insights struct {
	Summary            string         `json:"summary"`
	SectorDistribution map[string]int `json:"sector_distribution"`
	MarketDistribution map[string]int `json:"market_distribution"`
	TopSector          string         `json:"top_sector,omitempty"`
	AverageMemeScore   float64        `json:"average_meme_score"`
	AverageQuantScore  float64        `json:"average_quant_score"`
	PennyStockCount    int            `json:"penny_stock_count"`
	RiskCommentary     string         `json:"risk_commentary"`
}

func buildInsights(candidates []ScoredCandidate, riskProfile string) Insights {
	ins := Insights{
		SectorDistribution: make(map[string]int),
		MarketDistribution: make(map[string]int),
	}
	if len(candidates) == 0 {
		ins.Summary = "No securities matched the query."
		ins.RiskCommentary = riskCommentary(riskProfile, 0, 0)
		return ins
	}

	memeScores := make([]float64, 0, len(candidates))
	quantScores := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		sector := c.Sector
		if sector == "" {
			sector = "Unclassified"
		}
		ins.SectorDistribution[sector]++
		ins.MarketDistribution[c.Market]++
		memeScores = append(memeScores, float64(c.Scores.MemeScore))
		quantScores = append(quantScores, float64(c.Scores.QuantScore))
		if c.Scores.PennyStock {
			ins.PennyStockCount++
		}
	}

	ins.AverageMemeScore = formulas.Mean(memeScores)
	ins.AverageQuantScore = formulas.Mean(quantScores)
	ins.TopSector = dominantKey(ins.SectorDistribution)

	ins.Summary = fmt.Sprintf("Found %d securities across %d markets, led by %s (%d).",
		len(candidates), len(ins.MarketDistribution), ins.TopSector,
		ins.SectorDistribution[ins.TopSector])
	ins.RiskCommentary = riskCommentary(riskProfile, ins.AverageMemeScore, ins.PennyStockCount)
	return ins
}

// dominantKey returns the key with the highest count; counts tie on the
// lexicographically smaller key so output is stable across runs.
func dominantKey(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best := ""
	bestCount := -1
	for _, k := range keys {
		if counts[k] > bestCount {
			best = k
			bestCount = counts[k]
		}
	}
	return best
}

func riskCommentary(riskProfile string, avgMeme float64, pennyCount int) string {
	var parts []string
	switch {
	case avgMeme >= 60:
		parts = append(parts, "Results skew speculative.")
	case avgMeme >= 30:
		parts = append(parts, "Results show moderate speculative interest.")
	default:
		parts = append(parts, "Results show low speculative interest.")
	}
	if pennyCount > 0 {
		parts = append(parts, fmt.Sprintf("%d penny stocks present.", pennyCount))
	}
	if strings.EqualFold(riskProfile, "conservative") && avgMeme >= 60 {
		parts = append(parts, "Consider tightening quant thresholds for a conservative profile.")
	}
	return strings.Join(parts, " ")
}
