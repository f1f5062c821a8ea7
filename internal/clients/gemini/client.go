// Package gemini provides the Gemini-backed semantic keyword expansion
// client.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/aristath/stock-discovery/internal/modules/keywords"
)

// DefaultModel is the Gemini model used for keyword expansion
const DefaultModel = "gemini-2.0-flash"

// Client calls Gemini to enrich keyword expansions. It implements
// keywords.SemanticExpansionService; the expander treats every failure
// as a signal to fall back to the static taxonomy.
type Client struct {
	client *genai.Client
	model  string
	log    zerolog.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// NewClient creates a new Gemini expansion client
func NewClient(ctx context.Context, apiKey string, log zerolog.Logger, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client: genaiClient,
		model:  DefaultModel,
		log:    log.With().Str("client", "gemini").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// expansionPayload is the JSON shape requested from the model
type expansionPayload struct {
	Keywords   []string            `json:"keywords"`
	Categories map[string][]string `json:"categories"`
	Advisory   string              `json:"advisory"`
}

// Expand asks Gemini for semantically related investment keywords.
// Implements keywords.SemanticExpansionService.
func (c *Client) Expand(ctx context.Context, seeds []string, ec keywords.Context) (*keywords.SemanticExpansion, error) {
	prompt := buildExpansionPrompt(seeds, ec)

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate expansion: %w", err)
	}

	text, err := extractText(result)
	if err != nil {
		return nil, err
	}

	var payload expansionPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse expansion response: %w", err)
	}

	c.log.Debug().
		Int("seeds", len(seeds)).
		Int("keywords", len(payload.Keywords)).
		Msg("Semantic expansion generated")

	return &keywords.SemanticExpansion{
		Keywords:   payload.Keywords,
		Categories: payload.Categories,
		Advisory:   payload.Advisory,
	}, nil
}

// buildExpansionPrompt creates the expansion prompt for the model
func buildExpansionPrompt(seeds []string, ec keywords.Context) string {
	var sb strings.Builder

	sb.WriteString("Expand the following investment theme keywords into closely related ")
	sb.WriteString("search keywords an equity screener would index, including common ")
	sb.WriteString("Korean and English forms.\n\n")
	sb.WriteString("Seed keywords: ")
	sb.WriteString(strings.Join(seeds, ", "))
	sb.WriteString("\n")

	if ec.RiskLevel != "" {
		sb.WriteString(fmt.Sprintf("Investor risk level: %s\n", ec.RiskLevel))
	}
	if len(ec.PreferredMarkets) > 0 {
		sb.WriteString(fmt.Sprintf("Preferred markets: %s\n", strings.Join(ec.PreferredMarkets, ", ")))
	}

	sb.WriteString(`
Respond with JSON only, in this exact shape:
{"keywords": ["..."], "categories": {"category-name": ["..."]}, "advisory": "one short sentence of caution or guidance"}`)

	return sb.String()
}

// extractText extracts the text from a generate content response
func extractText(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}

	return text, nil
}

// Ensure Client implements the expansion service interface
var _ keywords.SemanticExpansionService = (*Client)(nil)
