package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/stock-discovery/internal/events"
	"github.com/aristath/stock-discovery/internal/modules/catalog"
	"github.com/aristath/stock-discovery/internal/modules/keywords"
	"github.com/aristath/stock-discovery/internal/modules/relevance"
	"github.com/aristath/stock-discovery/internal/modules/scoring"
)

const (
	minSeedKeywords = 1
	maxSeedKeywords = 10

	defaultMaxResults   = 20
	defaultReadyTimeout = 10 * time.Second
	defaultCacheTTL     = 60 * time.Second
)

// Expander produces the keyword expansion for a seed list.
type Expander interface {
	Expand(ctx context.Context, seeds []string, ec keywords.Context) keywords.ExpansionResult
}

// Searcher matches a single query against the catalog.
type Searcher interface {
	Search(q relevance.Query) ([]relevance.Candidate, error)
}

// Scorer attaches composite scores to one matched security.
type Scorer interface {
	Score(ctx context.Context, sec catalog.Security, cand relevance.Candidate, expansion keywords.ExpansionResult) scoring.Result
}

// Pipeline orchestrates expand, search, score, filter, sort and
// summarize. It is the sole public entry point for discovery; each call
// builds its own session and shares nothing mutable with other calls.
type Pipeline struct {
	catalog  *catalog.Catalog
	expander Expander
	searcher Searcher
	scorer   Scorer
	events   *events.Manager
	cache    *sessionCache
	log      zerolog.Logger

	maxResults   int
	readyTimeout time.Duration
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithMaxResults sets the default result cap used when a request does
// not supply one.
func WithMaxResults(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxResults = n
		}
	}
}

// WithReadyTimeout bounds how long a call waits for the catalog before
// failing with CatalogUnavailableError.
func WithReadyTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d > 0 {
			p.readyTimeout = d
		}
	}
}

// WithCacheTTL sets the session cache lifetime.
func WithCacheTTL(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d > 0 {
			p.cache = newSessionCache(d)
		}
	}
}

// NewPipeline creates a discovery pipeline
func NewPipeline(
	cat *catalog.Catalog,
	expander Expander,
	searcher Searcher,
	scorer Scorer,
	eventManager *events.Manager,
	log zerolog.Logger,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		catalog:      cat,
		expander:     expander,
		searcher:     searcher,
		scorer:       scorer,
		events:       eventManager,
		cache:        newSessionCache(defaultCacheTTL),
		log:          log.With().Str("module", "discovery").Logger(),
		maxResults:   defaultMaxResults,
		readyTimeout: defaultReadyTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// InvalidateCache drops all cached sessions. Called after every catalog
// rebuild.
func (p *Pipeline) InvalidateCache() {
	p.cache.invalidate()
}

// Discover runs the full pipeline for one seed keyword list.
func (p *Pipeline) Discover(ctx context.Context, seeds []string, opts Options) (*Session, error) {
	started := time.Now()

	if err := validateSeeds(seeds); err != nil {
		if p.events != nil {
			p.events.Emit(events.DiscoveryValidationHit, "discovery", map[string]interface{}{
				"reason": err.Error(),
			})
		}
		return nil, err
	}

	readyCtx, cancel := context.WithTimeout(ctx, p.readyTimeout)
	defer cancel()
	if err := p.catalog.AwaitReady(readyCtx); err != nil {
		return nil, &CatalogUnavailableError{Err: err}
	}
	snap, err := p.catalog.Snapshot()
	if err != nil {
		return nil, &CatalogUnavailableError{Err: err}
	}

	key := cacheKey(seeds, opts)
	if cached, ok := p.cache.get(key, snap.Generation()); ok {
		hit := *cached
		hit.Metadata.Cached = true
		hit.Metadata.Duration = time.Since(started)
		return &hit, nil
	}

	expansion := p.expander.Expand(ctx, seeds, keywords.Context{
		RiskLevel:        opts.RiskProfile,
		PreferredMarkets: opts.Markets,
	})

	merged, partialFailures := p.searchAll(expansion, opts)
	totalMatched := len(merged)

	candidates := p.scoreAll(ctx, snap, merged, expansion, opts)
	candidates = applyFilters(candidates, opts)
	sortCandidates(candidates, opts.SortBy)

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = p.maxResults
	}
	if len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}

	session := &Session{
		ID:         uuid.New().String(),
		Query:      append([]string(nil), seeds...),
		Expansion:  expansion,
		Candidates: candidates,
		Insights:   buildInsights(candidates, opts.RiskProfile),
		Metadata: Metadata{
			PartialFailures:   partialFailures,
			GeneratedAt:       time.Now().UTC(),
			Duration:          time.Since(started),
			CatalogGeneration: snap.Generation(),
			TotalMatched:      totalMatched,
		},
	}

	p.cache.put(key, snap.Generation(), session)

	if p.events != nil {
		p.events.Emit(events.DiscoveryCompleted, "discovery", map[string]interface{}{
			"session_id":       session.ID,
			"candidates":       len(session.Candidates),
			"partial_failures": len(partialFailures),
		})
	}
	p.log.Info().
		Int("candidates", len(session.Candidates)).
		Int("matched", totalMatched).
		Int("partial_failures", len(partialFailures)).
		Dur("duration", session.Metadata.Duration).
		Msg("Discovery session complete")

	return session, nil
}

// validateSeeds enforces the 1..10 non-blank seed contract. Duplicates
// are permitted; expansion dedupes them.
func validateSeeds(seeds []string) error {
	if len(seeds) < minSeedKeywords {
		return &ValidationError{Reason: "at least one seed keyword is required"}
	}
	if len(seeds) > maxSeedKeywords {
		return &ValidationError{Reason: fmt.Sprintf("at most %d seed keywords are allowed, got %d", maxSeedKeywords, len(seeds))}
	}
	for i, s := range seeds {
		if strings.TrimSpace(s) == "" {
			return &ValidationError{Reason: fmt.Sprintf("seed keyword %d is blank", i+1)}
		}
	}
	return nil
}

// searchAll runs one relevance search per keyword in original ∪
// expanded and merges the hits by security. A failed search is recorded
// in partialFailures and skipped; it never aborts the pipeline.
func (p *Pipeline) searchAll(expansion keywords.ExpansionResult, opts Options) ([]relevance.Candidate, []string) {
	terms := unionKeywords(expansion.Original, expansion.Expanded)

	var partialFailures []string
	byKey := make(map[string]*relevance.Candidate)
	var order []string

	for _, term := range terms {
		hits, err := p.searcher.Search(relevance.Query{
			Text:             term,
			Markets:          opts.Markets,
			Sectors:          opts.Sectors,
			IncludeBreakdown: opts.IncludeBreakdown,
		})
		if err != nil {
			partialFailures = append(partialFailures, fmt.Sprintf("%s: %v", term, err))
			if p.events != nil {
				p.events.Emit(events.PartialSearchFailure, "discovery", map[string]interface{}{
					"keyword": term,
					"error":   err.Error(),
				})
			}
			p.log.Warn().Str("keyword", term).Err(err).Msg("Keyword search failed, continuing")
			continue
		}
		for _, hit := range hits {
			key := hit.Market + ":" + hit.Symbol
			existing, ok := byKey[key]
			if !ok {
				c := hit
				c.MatchedTerms = append([]string(nil), hit.MatchedTerms...)
				byKey[key] = &c
				order = append(order, key)
				continue
			}
			if hit.Score > existing.Score {
				existing.Score = hit.Score
				existing.Breakdown = hit.Breakdown
			}
			existing.MatchedTerms = unionKeywords(existing.MatchedTerms, hit.MatchedTerms)
		}
	}

	merged := make([]relevance.Candidate, 0, len(byKey))
	for _, key := range order {
		merged = append(merged, *byKey[key])
	}
	return merged, partialFailures
}

// scoreAll resolves each merged candidate against the snapshot and
// attaches composite scores. The relevance floor is applied first so
// provider calls are not spent on candidates that cannot survive it.
func (p *Pipeline) scoreAll(ctx context.Context, snap *catalog.Snapshot, merged []relevance.Candidate, expansion keywords.ExpansionResult, opts Options) []ScoredCandidate {
	out := make([]ScoredCandidate, 0, len(merged))
	for _, cand := range merged {
		if opts.MinRelevance > 0 && cand.Score < opts.MinRelevance {
			continue
		}
		sec, ok := snap.LookupIn(cand.Market, cand.Symbol)
		if !ok {
			// Candidates come from the same snapshot, so this only
			// happens if a searcher double misbehaves.
			p.log.Warn().Str("market", cand.Market).Str("symbol", cand.Symbol).
				Msg("Candidate does not resolve in snapshot, dropping")
			continue
		}
		result := p.scorer.Score(ctx, sec, cand, expansion)
		out = append(out, ScoredCandidate{
			Market:       sec.Market,
			Symbol:       sec.Symbol,
			Name:         sec.Name,
			Sector:       sec.Sector,
			Industry:     sec.Industry,
			Currency:     sec.Currency,
			MarketCap:    sec.MarketCap,
			Relevance:    cand.Score,
			MatchedTerms: cand.MatchedTerms,
			Breakdown:    cand.Breakdown,
			Scores:       result.Scores,
			Fundamentals: result.Fundamentals,
			Price:        result.Price,
			order:        cand.Order,
		})
	}
	return out
}

// sortCandidates sorts descending by the requested key, falling back to
// relevance for unknown keys. Ties break on relevance, then catalog
// insertion order, keeping repeated calls byte-identical.
func sortCandidates(candidates []ScoredCandidate, sortBy string) {
	key := sortKeyFunc(sortBy)
	sort.SliceStable(candidates, func(i, j int) bool {
		ki, kj := key(candidates[i]), key(candidates[j])
		if ki != kj {
			return ki > kj
		}
		if candidates[i].Relevance != candidates[j].Relevance {
			return candidates[i].Relevance > candidates[j].Relevance
		}
		return candidates[i].order < candidates[j].order
	})
}

func sortKeyFunc(sortBy string) func(ScoredCandidate) float64 {
	switch sortBy {
	case SortByMemeScore:
		return func(c ScoredCandidate) float64 { return float64(c.Scores.MemeScore) }
	case SortByQuantScore:
		return func(c ScoredCandidate) float64 { return float64(c.Scores.QuantScore) }
	case SortByPrice:
		return func(c ScoredCandidate) float64 {
			if c.Price == nil {
				return -1
			}
			return c.Price.Price
		}
	case SortByMarketCap:
		return func(c ScoredCandidate) float64 { return c.MarketCap }
	case SortByKeywordMatches:
		return func(c ScoredCandidate) float64 { return float64(c.Scores.KeywordMatches) }
	default:
		return func(c ScoredCandidate) float64 { return float64(c.Relevance) }
	}
}

// unionKeywords merges two ordered keyword lists, deduplicating
// case-insensitively while keeping first-seen casing and order.
func unionKeywords(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, kw := range list {
			lower := strings.ToLower(kw)
			if seen[lower] {
				continue
			}
			seen[lower] = true
			out = append(out, kw)
		}
	}
	return out
}
