package catalog

import (
	"context"
	"strings"
)

// Security represents a tradable instrument in the discovery universe.
// Identity is the (market, symbol) pair; the same symbol may exist on
// several markets as distinct entities.
type Security struct {
	Market         string            `json:"market"`
	Symbol         string            `json:"symbol"`
	Name           string            `json:"name"`
	LocalizedNames map[string]string `json:"localized_names,omitempty"` // locale -> name
	Sector         string            `json:"sector,omitempty"`
	Industry       string            `json:"industry,omitempty"`
	SearchTerms    []string          `json:"search_terms,omitempty"` // lower-cased
	Currency       string            `json:"currency,omitempty"`
	MarketCap      float64           `json:"market_cap"`
}

// Key returns the canonical identity key for the security
func (s Security) Key() string {
	return strings.ToUpper(s.Market) + ":" + strings.ToUpper(s.Symbol)
}

// Normalize upper-cases identity fields and lower-cases search terms.
// Terms are copied so the caller's slice is never mutated, even when a
// catalog build later fails.
func (s *Security) Normalize() {
	s.Market = strings.ToUpper(strings.TrimSpace(s.Market))
	s.Symbol = strings.ToUpper(strings.TrimSpace(s.Symbol))
	if len(s.SearchTerms) == 0 {
		return
	}
	terms := make([]string, len(s.SearchTerms))
	for i, term := range s.SearchTerms {
		terms[i] = strings.ToLower(strings.TrimSpace(term))
	}
	s.SearchTerms = terms
}

// DataSource loads the full security universe from an external system.
// Implementations are expected to be called periodically by the catalog
// refresh job.
type DataSource interface {
	Load(ctx context.Context) ([]Security, error)
}
