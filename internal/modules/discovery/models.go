package discovery

import (
	"time"

	"github.com/aristath/stock-discovery/internal/modules/keywords"
	"github.com/aristath/stock-discovery/internal/modules/scoring"
)

// Sort keys accepted by Options.SortBy
const (
	SortByRelevance      = "relevance"
	SortByMemeScore      = "memeScore"
	SortByQuantScore     = "quantScore"
	SortByPrice          = "price"
	SortByMarketCap      = "marketCap"
	SortByKeywordMatches = "keywordMatchCount"
)

// Options control a single discovery call. The zero value asks for a
// relevance-sorted session with default limits and no filters.
type Options struct {
	Markets      []string `json:"markets,omitempty"`
	Sectors      []string `json:"sectors,omitempty"`
	MaxResults   int      `json:"max_results,omitempty"`   // 0 = pipeline default
	MinRelevance int      `json:"min_relevance,omitempty"` // raw relevance floor
	RiskProfile  string   `json:"risk_profile,omitempty"`

	// Hard constraints, AND'd. Zero means unconstrained.
	MaxPrice     float64 `json:"max_price,omitempty"`
	MaxMarketCap float64 `json:"max_market_cap,omitempty"`

	// Category toggles, OR'd: a candidate passes the toggle stage when
	// it satisfies any enabled toggle. No toggles enabled = all pass.
	ShowPennyStocks bool `json:"show_penny_stocks,omitempty"`
	ShowMemeStocks  bool `json:"show_meme_stocks,omitempty"`
	ShowQuantPicks  bool `json:"show_quant_picks,omitempty"`

	// Thresholds backing the meme/quant toggles. 0 = default (60).
	MinMemeScore  int `json:"min_meme_score,omitempty"`
	MinQuantScore int `json:"min_quant_score,omitempty"`

	SortBy           string `json:"sort_by,omitempty"` // one of the SortBy* keys
	IncludeBreakdown bool   `json:"include_breakdown,omitempty"`
}

// ScoredCandidate is one discovered security with its relevance and
// composite scores attached. Candidates are built once per session and
// never mutated afterwards.
type ScoredCandidate struct {
	Market       string   `json:"market"`
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	Sector       string   `json:"sector,omitempty"`
	Industry     string   `json:"industry,omitempty"`
	Currency     string   `json:"currency,omitempty"`
	MarketCap    float64  `json:"market_cap,omitempty"`
	Relevance    int      `json:"relevance"`
	MatchedTerms []string `json:"matched_terms"`

	Breakdown map[string]int `json:"breakdown,omitempty"`

	Scores       scoring.CompositeScores `json:"scores"`
	Fundamentals *scoring.Fundamentals   `json:"fundamentals,omitempty"`
	Price        *scoring.PriceQuote     `json:"price,omitempty"`

	// order is the catalog insertion position, the deterministic
	// tie-breaker for every sort.
	order int
}

// Metadata describes how a session was produced.
type Metadata struct {
	PartialFailures   []string      `json:"partial_failures,omitempty"`
	GeneratedAt       time.Time     `json:"generated_at"`
	Duration          time.Duration `json:"duration_ns"`
	Cached            bool          `json:"cached"`
	CatalogGeneration uint64        `json:"catalog_generation"`
	TotalMatched      int           `json:"total_matched"` // before filtering/truncation
}

// Session is the result of one discovery call. It is self-contained and
// JSON-serializable; nothing in it references live catalog state.
type Session struct {
	ID         string                   `json:"id"`
	Query      []string                 `json:"query"`
	Expansion  keywords.ExpansionResult `json:"expansion"`
	Candidates []ScoredCandidate        `json:"candidates"`
	Insights   Insights                 `json:"insights"`
	Metadata   Metadata                 `json:"metadata"`
}
