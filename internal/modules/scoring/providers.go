package scoring

import "context"

// Fundamentals holds the fundamental ratios used by the quant score.
// ROE, DebtRatio and RevenueGrowth are fractions (0.10 = 10%).
type Fundamentals struct {
	PE            float64 `json:"pe"`
	PB            float64 `json:"pb"`
	ROE           float64 `json:"roe"`
	DebtRatio     float64 `json:"debt_ratio"`
	RevenueGrowth float64 `json:"revenue_growth"`
}

// PriceQuote is a spot price with its trading currency
type PriceQuote struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// FundamentalsProvider supplies fundamental ratios for a security.
// A (nil, nil) return means data is unavailable; the scoring engine
// degrades to neutral defaults in that case.
type FundamentalsProvider interface {
	Fundamentals(ctx context.Context, market, symbol string) (*Fundamentals, error)
}

// LivePriceProvider supplies the latest spot price for a security.
// A (nil, nil) return means the price is unavailable.
type LivePriceProvider interface {
	Price(ctx context.Context, market, symbol string) (*PriceQuote, error)
}
