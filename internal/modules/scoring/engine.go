package scoring

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-discovery/internal/modules/catalog"
	"github.com/aristath/stock-discovery/internal/modules/keywords"
	"github.com/aristath/stock-discovery/internal/modules/relevance"
	"github.com/aristath/stock-discovery/pkg/formulas"
)

// Data quality labels
const (
	QualityComplete   = "complete"
	QualityIncomplete = "incomplete"
)

// Neutral quant score used when fundamentals are unavailable
const neutralQuantScore = 50

// Meme score contributions. Additive, clamped to [0,100] last.
const (
	memeBase           = 10
	memeCategoryBonus  = 15
	memePennyBonus     = 20
	memeBoostBonus     = 15
	memePerMatchBonus  = 5
	defaultProviderTTL = 5 * time.Second
)

// CompositeScores are the derived per-candidate scores
type CompositeScores struct {
	PennyStock     bool   `json:"penny_stock"`
	MemeScore      int    `json:"meme_score"`  // 0..100
	QuantScore     int    `json:"quant_score"` // 0..100
	KeywordMatches int    `json:"keyword_matches"`
	DataQuality    string `json:"data_quality"` // complete or incomplete
}

// Result bundles the composite scores with the provider data they were
// derived from, so callers can export fundamentals without refetching.
type Result struct {
	Scores       CompositeScores `json:"scores"`
	Fundamentals *Fundamentals   `json:"fundamentals,omitempty"`
	Price        *PriceQuote     `json:"price,omitempty"`
}

// Engine derives penny/meme/quant scores for candidates. Given identical
// inputs it produces identical outputs: all variability lives in the
// injected providers.
type Engine struct {
	fundamentals    FundamentalsProvider // nil = unavailable
	prices          LivePriceProvider    // nil = unavailable
	boosts          *relevance.BoostTable
	pennyThresholds map[string]float64
	speculative     map[string]bool
	timeout         time.Duration
	log             zerolog.Logger
}

// EngineOption configures a scoring engine
type EngineOption func(*Engine)

// WithFundamentalsProvider wires a fundamentals source
func WithFundamentalsProvider(p FundamentalsProvider) EngineOption {
	return func(e *Engine) { e.fundamentals = p }
}

// WithPriceProvider wires a live price source
func WithPriceProvider(p LivePriceProvider) EngineOption {
	return func(e *Engine) { e.prices = p }
}

// WithPennyThresholds overrides the per-currency penny thresholds
func WithPennyThresholds(thresholds map[string]float64) EngineOption {
	return func(e *Engine) {
		if len(thresholds) > 0 {
			e.pennyThresholds = thresholds
		}
	}
}

// WithSpeculativeCategories overrides the category names whose matches
// feed the meme score.
func WithSpeculativeCategories(categories ...string) EngineOption {
	return func(e *Engine) {
		e.speculative = make(map[string]bool, len(categories))
		for _, c := range categories {
			e.speculative[strings.ToLower(c)] = true
		}
	}
}

// WithProviderTimeout bounds each provider call
func WithProviderTimeout(timeout time.Duration) EngineOption {
	return func(e *Engine) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// NewEngine creates a composite scoring engine
func NewEngine(boosts *relevance.BoostTable, log zerolog.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		boosts: boosts,
		pennyThresholds: map[string]float64{
			"USD": 5.0,
			"EUR": 5.0,
			"KRW": 1000.0,
		},
		speculative: map[string]bool{"speculative": true, "volatile": true},
		timeout:     defaultProviderTTL,
		log:         log.With().Str("component", "scoring").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score derives composite scores for one candidate. Provider failures
// degrade to neutral defaults and incomplete data quality, never errors.
func (e *Engine) Score(ctx context.Context, sec catalog.Security, cand relevance.Candidate, expansion keywords.ExpansionResult) Result {
	price := e.fetchPrice(ctx, sec)
	fundamentals := e.fetchFundamentals(ctx, sec)

	penny := false
	if price != nil {
		penny = e.isPennyStock(*price, sec.Currency)
	}

	scores := CompositeScores{
		PennyStock:     penny,
		MemeScore:      e.memeScore(sec, cand, expansion, penny),
		QuantScore:     quantScore(fundamentals),
		KeywordMatches: len(cand.MatchedTerms),
		DataQuality:    QualityComplete,
	}
	if price == nil || fundamentals == nil {
		scores.DataQuality = QualityIncomplete
	}

	return Result{
		Scores:       scores,
		Fundamentals: fundamentals,
		Price:        price,
	}
}

// isPennyStock compares a quote to the configured per-currency threshold.
// An unconfigured currency never classifies as penny.
func (e *Engine) isPennyStock(quote PriceQuote, fallbackCurrency string) bool {
	currency := quote.Currency
	if currency == "" {
		currency = fallbackCurrency
	}
	threshold, ok := e.pennyThresholds[strings.ToUpper(currency)]
	if !ok {
		return false
	}
	return quote.Price > 0 && quote.Price <= threshold
}

// memeScore is additive over the speculative signal sources, clamped last
func (e *Engine) memeScore(sec catalog.Security, cand relevance.Candidate, expansion keywords.ExpansionResult, penny bool) int {
	score := memeBase

	matched := make(map[string]bool, len(cand.MatchedTerms))
	for _, term := range cand.MatchedTerms {
		matched[strings.ToLower(term)] = true
	}

	for category, kws := range expansion.Categories {
		if !e.speculative[strings.ToLower(category)] {
			continue
		}
		for _, kw := range kws {
			if matched[strings.ToLower(kw)] {
				score += memeCategoryBonus
				break
			}
		}
	}

	if penny {
		score += memePennyBonus
	}
	if e.boosts != nil && e.boosts.Contains(sec.Symbol) {
		score += memeBoostBonus
	}
	score += memePerMatchBonus * len(cand.MatchedTerms)

	return formulas.ClampInt(score, 0, 100)
}

// quantScore sums banded contributions from fundamentals. Absent
// fundamentals yield the neutral default rather than an error.
func quantScore(f *Fundamentals) int {
	if f == nil {
		return neutralQuantScore
	}

	score := 0

	switch {
	case f.PE > 0 && f.PE < 15:
		score += 20
	case f.PE > 0 && f.PE < 25:
		score += 10
	}

	switch {
	case f.PB > 0 && f.PB < 1.5:
		score += 20
	case f.PB > 0 && f.PB < 3:
		score += 10
	}

	switch {
	case f.ROE > 0.10:
		score += 20
	case f.ROE > 0.05:
		score += 10
	case f.ROE > 0:
		score += 5
	}

	switch {
	case f.DebtRatio >= 0 && f.DebtRatio < 0.30:
		score += 20
	case f.DebtRatio >= 0.30 && f.DebtRatio < 0.50:
		score += 10
	}

	switch {
	case f.RevenueGrowth > 0.15:
		score += 20
	case f.RevenueGrowth > 0.05:
		score += 10
	case f.RevenueGrowth > 0:
		score += 5
	}

	return formulas.ClampInt(score, 0, 100)
}

func (e *Engine) fetchPrice(ctx context.Context, sec catalog.Security) *PriceQuote {
	if e.prices == nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	quote, err := e.prices.Price(callCtx, sec.Market, sec.Symbol)
	if err != nil {
		e.log.Warn().Err(err).Str("symbol", sec.Symbol).Msg("Live price unavailable")
		return nil
	}
	return quote
}

func (e *Engine) fetchFundamentals(ctx context.Context, sec catalog.Security) *Fundamentals {
	if e.fundamentals == nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	fundamentals, err := e.fundamentals.Fundamentals(callCtx, sec.Market, sec.Symbol)
	if err != nil {
		e.log.Warn().Err(err).Str("symbol", sec.Symbol).Msg("Fundamentals unavailable")
		return nil
	}
	return fundamentals
}
