package scoring

import (
	"context"
	"hash/fnv"
	"math/rand"
)

// SeededDemoProvider is a deterministic stand-in for the fundamentals
// and live price providers, for demos and tests without market data
// access. Values are derived from the seed and the security identity,
// so repeated calls always agree. It must never be wired into a
// production engine.
type SeededDemoProvider struct {
	seed int64
}

// NewSeededDemoProvider creates a demo provider for the given seed
func NewSeededDemoProvider(seed int64) *SeededDemoProvider {
	return &SeededDemoProvider{seed: seed}
}

// Fundamentals returns deterministic pseudo-fundamentals.
// Implements FundamentalsProvider.
func (p *SeededDemoProvider) Fundamentals(_ context.Context, market, symbol string) (*Fundamentals, error) {
	rng := p.rng(market, symbol, "fundamentals")
	return &Fundamentals{
		PE:            5 + rng.Float64()*45,    // 5..50
		PB:            0.5 + rng.Float64()*5,   // 0.5..5.5
		ROE:           -0.05 + rng.Float64()*0.30, // -5%..25%
		DebtRatio:     rng.Float64() * 0.8,     // 0%..80%
		RevenueGrowth: -0.10 + rng.Float64()*0.40, // -10%..30%
	}, nil
}

// Price returns a deterministic pseudo-quote in USD.
// Implements LivePriceProvider.
func (p *SeededDemoProvider) Price(_ context.Context, market, symbol string) (*PriceQuote, error) {
	rng := p.rng(market, symbol, "price")
	return &PriceQuote{
		Price:    0.5 + rng.Float64()*99.5, // 0.5..100
		Currency: "USD",
	}, nil
}

func (p *SeededDemoProvider) rng(market, symbol, kind string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(market))
	h.Write([]byte(":"))
	h.Write([]byte(symbol))
	h.Write([]byte(":"))
	h.Write([]byte(kind))
	return rand.New(rand.NewSource(p.seed ^ int64(h.Sum64())))
}
