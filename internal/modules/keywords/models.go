package keywords

import "context"

// Context carries caller preferences that steer keyword expansion
type Context struct {
	RiskLevel        string   `json:"risk_level,omitempty"`        // conservative, balanced, aggressive
	PreferredMarkets []string `json:"preferred_markets,omitempty"` // e.g. US, KR
}

// ExpansionResult is the outcome of expanding a seed keyword set
type ExpansionResult struct {
	Original   []string            `json:"original"`             // ordered, as provided
	Expanded   []string            `json:"expanded"`             // deduped case-insensitively, capped
	Categories map[string][]string `json:"categories,omitempty"` // category -> keywords that matched it
	Enhanced   bool                `json:"enhanced"`             // true when the semantic service contributed
	Advisory   string              `json:"advisory,omitempty"`
}

// SemanticExpansion is the payload returned by an external semantic
// expansion service.
type SemanticExpansion struct {
	Keywords   []string            `json:"keywords"`
	Categories map[string][]string `json:"categories,omitempty"`
	Advisory   string              `json:"advisory,omitempty"`
}

// SemanticExpansionService enriches a keyword set using an external
// semantic model. Implementations may fail or time out; the expander
// always degrades to the static taxonomy in that case.
type SemanticExpansionService interface {
	Expand(ctx context.Context, seeds []string, ec Context) (*SemanticExpansion, error)
}
