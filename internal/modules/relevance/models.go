package relevance

// Query describes a single search against the catalog
type Query struct {
	Text             string   `json:"text"`
	Markets          []string `json:"markets,omitempty"` // empty = all markets
	Sectors          []string `json:"sectors,omitempty"` // empty = all sectors
	Limit            int      `json:"limit,omitempty"`   // 0 = unlimited
	IncludeBreakdown bool     `json:"include_breakdown,omitempty"`
}

// Candidate is a security matched by a query, scored but without
// composite scores attached yet. It references the security by identity
// and never owns the record.
type Candidate struct {
	Market       string         `json:"market"`
	Symbol       string         `json:"symbol"`
	Score        int            `json:"score"`
	MatchedTerms []string       `json:"matched_terms"`
	Breakdown    map[string]int `json:"breakdown,omitempty"` // match type -> points, on request

	// Order is the record's catalog insertion position, used as the
	// deterministic tie-breaker by every downstream sort.
	Order int `json:"-"`
}

// Match type labels used in score breakdowns
const (
	MatchSymbolExact        = "symbol_exact"
	MatchSymbolPartial      = "symbol_partial"
	MatchNameExact          = "name_exact"
	MatchNamePartial        = "name_partial"
	MatchLocalizedPrimary   = "localized_primary"
	MatchLocalizedSecondary = "localized_secondary"
	MatchTermExact          = "term_exact"
	MatchTermPartial        = "term_partial"
	MatchBoost              = "priority_boost"
)
