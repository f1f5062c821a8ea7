package relevance

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-discovery/internal/modules/catalog"
)

// Scoring weights. These are part of the wire contract and must not
// drift: downstream consumers compare raw scores across deployments.
const (
	weightSymbolExact        = 100
	weightSymbolPartial      = 50
	weightNameExact          = 90
	weightNamePartial        = 40
	weightLocalizedPrimary   = 80
	weightLocalizedSecondary = 60
	weightTermExact          = 30
	weightTermPartial        = 10
	weightBoost              = 50
)

// DefaultPrimaryLocale is the locale whose localized-name matches score
// highest.
const DefaultPrimaryLocale = "ko"

// Engine ranks catalog securities against a free-text query using
// weighted multi-field matching.
type Engine struct {
	catalog       *catalog.Catalog
	boosts        *BoostTable
	primaryLocale string
	log           zerolog.Logger
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithPrimaryLocale overrides the primary localized-name locale
func WithPrimaryLocale(locale string) EngineOption {
	return func(e *Engine) {
		if locale != "" {
			e.primaryLocale = locale
		}
	}
}

// NewEngine creates a new relevance search engine
func NewEngine(cat *catalog.Catalog, boosts *BoostTable, log zerolog.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		catalog:       cat,
		boosts:        boosts,
		primaryLocale: DefaultPrimaryLocale,
		log:           log.With().Str("component", "relevance").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search scores every catalog security against the query and returns
// matches ordered by descending score, ties broken by catalog insertion
// order. A blank query returns an empty result, not an error.
func (e *Engine) Search(q Query) ([]Candidate, error) {
	snap, err := e.catalog.Snapshot()
	if err != nil {
		return nil, err
	}

	text := strings.ToLower(strings.TrimSpace(q.Text))
	if text == "" {
		return nil, nil
	}

	markets := toUpperSet(q.Markets)
	sectors := toLowerSet(q.Sectors)

	var candidates []Candidate
	for i, sec := range snap.All() {
		// Pre-filtering is a performance shortcut only: the predicate
		// depends on the record alone, so the result set is identical
		// to filtering after scoring.
		if len(markets) > 0 && !markets[sec.Market] {
			continue
		}
		if len(sectors) > 0 && !sectors[strings.ToLower(sec.Sector)] {
			continue
		}

		score, matched, breakdown := e.scoreSecurity(sec, text, q.IncludeBreakdown)
		if score <= 0 {
			continue
		}

		candidates = append(candidates, Candidate{
			Market:       sec.Market,
			Symbol:       sec.Symbol,
			Score:        score,
			MatchedTerms: matched,
			Breakdown:    breakdown,
			Order:        i,
		})
	}

	// Stable sort keeps catalog insertion order for equal scores
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Score > candidates[b].Score
	})

	// Truncation happens strictly after sorting
	if q.Limit > 0 && len(candidates) > q.Limit {
		candidates = candidates[:q.Limit]
	}

	return candidates, nil
}

// scoreSecurity applies the weight table to a single record
func (e *Engine) scoreSecurity(sec catalog.Security, query string, withBreakdown bool) (int, []string, map[string]int) {
	score := 0
	var matched []string
	matchedSeen := make(map[string]bool)
	var breakdown map[string]int
	if withBreakdown {
		breakdown = make(map[string]int)
	}

	award := func(points int, matchType, term string) {
		score += points
		if withBreakdown {
			breakdown[matchType] += points
		}
		key := strings.ToLower(term)
		if term != "" && !matchedSeen[key] {
			matchedSeen[key] = true
			matched = append(matched, term)
		}
	}

	symbol := strings.ToLower(sec.Symbol)
	if symbol == query {
		award(weightSymbolExact, MatchSymbolExact, sec.Symbol)
	} else if strings.Contains(symbol, query) {
		award(weightSymbolPartial, MatchSymbolPartial, sec.Symbol)
	}

	name := strings.ToLower(sec.Name)
	if name == query {
		award(weightNameExact, MatchNameExact, sec.Name)
	} else if strings.Contains(name, query) {
		award(weightNamePartial, MatchNamePartial, sec.Name)
	}

	// Localized names: primary locale scores highest, any other locale
	// scores once as a secondary match. Locales are visited in sorted
	// order so matched-term output is deterministic.
	secondaryAwarded := false
	for _, locale := range sortedKeys(sec.LocalizedNames) {
		localized := strings.ToLower(sec.LocalizedNames[locale])
		if localized == "" || !strings.Contains(localized, query) {
			continue
		}
		if locale == e.primaryLocale {
			award(weightLocalizedPrimary, MatchLocalizedPrimary, sec.LocalizedNames[locale])
		} else if !secondaryAwarded {
			secondaryAwarded = true
			award(weightLocalizedSecondary, MatchLocalizedSecondary, sec.LocalizedNames[locale])
		}
	}

	for _, term := range sec.SearchTerms {
		if term == query {
			award(weightTermExact, MatchTermExact, term)
		} else if strings.Contains(term, query) {
			award(weightTermPartial, MatchTermPartial, term)
		}
	}

	if e.boosts != nil && e.boosts.MatchesKeyword(sec.Symbol, query) {
		award(weightBoost, MatchBoost, query)
	}

	return score, matched, breakdown
}

func toUpperSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v != "" {
			set[v] = true
		}
	}
	return set
}

func toLowerSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = true
		}
	}
	return set
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
