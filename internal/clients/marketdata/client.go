// Package marketdata provides an HTTP client for the market data
// microservice, implementing the scoring provider interfaces.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-discovery/internal/modules/scoring"
)

// Client fetches live prices and fundamentals over HTTP. Not-found
// responses map to (nil, nil) so the scoring engine degrades instead of
// erroring.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new market data client
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "marketdata").Logger(),
	}
}

type quoteResponse struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

type fundamentalsResponse struct {
	PE            float64 `json:"pe"`
	PB            float64 `json:"pb"`
	ROE           float64 `json:"roe"`
	DebtRatio     float64 `json:"debt_ratio"`
	RevenueGrowth float64 `json:"revenue_growth"`
}

// Price fetches the latest spot price for a security.
// Implements scoring.LivePriceProvider.
func (c *Client) Price(ctx context.Context, market, symbol string) (*scoring.PriceQuote, error) {
	var resp quoteResponse
	found, err := c.getJSON(ctx, "/api/quote", market, symbol, &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	return &scoring.PriceQuote{
		Price:    resp.Price,
		Currency: resp.Currency,
	}, nil
}

// Fundamentals fetches fundamental ratios for a security.
// Implements scoring.FundamentalsProvider.
func (c *Client) Fundamentals(ctx context.Context, market, symbol string) (*scoring.Fundamentals, error) {
	var resp fundamentalsResponse
	found, err := c.getJSON(ctx, "/api/fundamentals", market, symbol, &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	return &scoring.Fundamentals{
		PE:            resp.PE,
		PB:            resp.PB,
		ROE:           resp.ROE,
		DebtRatio:     resp.DebtRatio,
		RevenueGrowth: resp.RevenueGrowth,
	}, nil
}

// getJSON performs a GET request and decodes the JSON body. Returns
// found=false for 404 responses.
func (c *Client) getJSON(ctx context.Context, path, market, symbol string, out interface{}) (bool, error) {
	endpoint := fmt.Sprintf("%s%s?market=%s&symbol=%s",
		c.baseURL, path, url.QueryEscape(market), url.QueryEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.log.Debug().Str("path", path).Str("symbol", symbol).Msg("No data for symbol")
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}

	return true, nil
}

// Interface guards
var (
	_ scoring.LivePriceProvider    = (*Client)(nil)
	_ scoring.FundamentalsProvider = (*Client)(nil)
)
