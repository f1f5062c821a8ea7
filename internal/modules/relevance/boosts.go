package relevance

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// BoostTable maps featured symbols to the keywords that trigger their
// priority boost. It is data driven so new featured securities need no
// code change, and is replaced wholesale on catalog refresh.
type BoostTable struct {
	mu      sync.RWMutex
	entries map[string][]string
}

// NewBoostTable creates an empty boost table
func NewBoostTable() *BoostTable {
	return &BoostTable{entries: make(map[string][]string)}
}

// Replace swaps in a new set of entries
func (b *BoostTable) Replace(entries map[string][]string) {
	normalized := make(map[string][]string, len(entries))
	for symbol, keywords := range entries {
		lowered := make([]string, 0, len(keywords))
		for _, kw := range keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				lowered = append(lowered, kw)
			}
		}
		normalized[strings.ToUpper(strings.TrimSpace(symbol))] = lowered
	}

	b.mu.Lock()
	b.entries = normalized
	b.mu.Unlock()
}

// MatchesKeyword reports whether the symbol's boost keywords include the
// given lower-cased keyword.
func (b *BoostTable) MatchesKeyword(symbol, keyword string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, kw := range b.entries[strings.ToUpper(symbol)] {
		if kw == keyword {
			return true
		}
	}
	return false
}

// Contains reports whether a symbol is featured in the boost table
func (b *BoostTable) Contains(symbol string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.entries[strings.ToUpper(symbol)]
	return ok
}

// Len returns the number of featured symbols
func (b *BoostTable) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// BoostRepository handles priority boost database operations
type BoostRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewBoostRepository creates a new boost repository
func NewBoostRepository(db *sql.DB, log zerolog.Logger) *BoostRepository {
	return &BoostRepository{
		db:  db,
		log: log.With().Str("repo", "boosts").Logger(),
	}
}

// Load returns all boost entries
func (r *BoostRepository) Load(ctx context.Context) (map[string][]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT symbol, keywords FROM priority_boosts")
	if err != nil {
		return nil, fmt.Errorf("failed to query priority boosts: %w", err)
	}
	defer rows.Close()

	entries := make(map[string][]string)
	for rows.Next() {
		var symbol, keywords string
		if err := rows.Scan(&symbol, &keywords); err != nil {
			return nil, fmt.Errorf("failed to scan boost entry: %w", err)
		}
		var parsed []string
		if err := json.Unmarshal([]byte(keywords), &parsed); err != nil {
			return nil, fmt.Errorf("invalid boost keywords for %s: %w", symbol, err)
		}
		entries[symbol] = parsed
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating boosts: %w", err)
	}

	return entries, nil
}

// Upsert inserts or replaces a boost entry
func (r *BoostRepository) Upsert(ctx context.Context, symbol string, keywords []string) error {
	encoded, err := json.Marshal(keywords)
	if err != nil {
		return fmt.Errorf("failed to encode boost keywords: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO priority_boosts (symbol, keywords) VALUES (?, ?)
		ON CONFLICT(symbol) DO UPDATE SET keywords = excluded.keywords
	`, strings.ToUpper(strings.TrimSpace(symbol)), string(encoded))
	if err != nil {
		return fmt.Errorf("failed to upsert boost entry: %w", err)
	}

	return nil
}

// SeedDefaults inserts the built-in featured symbols if the table is
// empty. Returns the number of entries written.
func (r *BoostRepository) SeedDefaults(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM priority_boosts").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count boosts: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	defaults := map[string][]string{
		"UAVS": {"drone", "uav", "무인기"},
	}

	for symbol, keywords := range defaults {
		if err := r.Upsert(ctx, symbol, keywords); err != nil {
			return 0, err
		}
	}

	r.log.Info().Int("entries", len(defaults)).Msg("Seeded default priority boosts")
	return len(defaults), nil
}
