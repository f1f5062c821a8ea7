package keywords

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// TaxonomyEntry maps a canonical keyword within a category to its
// synonym list.
type TaxonomyEntry struct {
	Category string   `json:"category"`
	Keyword  string   `json:"keyword"`
	Synonyms []string `json:"synonyms"`
}

// Taxonomy is the in-memory static expansion table: category ->
// canonical keyword -> synonyms. Loaded from the database so new
// categories and localizations need no code change.
type Taxonomy struct {
	entries []TaxonomyEntry
}

// NewTaxonomy creates a taxonomy from entries, preserving their order
func NewTaxonomy(entries []TaxonomyEntry) *Taxonomy {
	return &Taxonomy{entries: entries}
}

// Match returns the entries whose canonical keyword or synonyms match
// the given keyword, case-insensitively.
func (t *Taxonomy) Match(keyword string) []TaxonomyEntry {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	if needle == "" {
		return nil
	}

	var matched []TaxonomyEntry
	for _, entry := range t.entries {
		if strings.ToLower(entry.Keyword) == needle {
			matched = append(matched, entry)
			continue
		}
		for _, syn := range entry.Synonyms {
			if strings.ToLower(syn) == needle {
				matched = append(matched, entry)
				break
			}
		}
	}
	return matched
}

// Len returns the number of taxonomy entries
func (t *Taxonomy) Len() int {
	return len(t.entries)
}

// TaxonomyRepository handles keyword taxonomy database operations
type TaxonomyRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTaxonomyRepository creates a new taxonomy repository
func NewTaxonomyRepository(db *sql.DB, log zerolog.Logger) *TaxonomyRepository {
	return &TaxonomyRepository{
		db:  db,
		log: log.With().Str("repo", "taxonomy").Logger(),
	}
}

// Load returns the taxonomy in stable insertion order
func (r *TaxonomyRepository) Load(ctx context.Context) (*Taxonomy, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT category, keyword, synonyms FROM keyword_taxonomy ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query taxonomy: %w", err)
	}
	defer rows.Close()

	var entries []TaxonomyEntry
	for rows.Next() {
		var entry TaxonomyEntry
		var synonyms string
		if err := rows.Scan(&entry.Category, &entry.Keyword, &synonyms); err != nil {
			return nil, fmt.Errorf("failed to scan taxonomy entry: %w", err)
		}
		if err := json.Unmarshal([]byte(synonyms), &entry.Synonyms); err != nil {
			return nil, fmt.Errorf("invalid synonyms for %s/%s: %w", entry.Category, entry.Keyword, err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating taxonomy: %w", err)
	}

	return NewTaxonomy(entries), nil
}

// Upsert inserts or replaces a taxonomy entry
func (r *TaxonomyRepository) Upsert(ctx context.Context, entry TaxonomyEntry) error {
	synonyms, err := json.Marshal(entry.Synonyms)
	if err != nil {
		return fmt.Errorf("failed to encode synonyms: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO keyword_taxonomy (category, keyword, synonyms)
		VALUES (?, ?, ?)
		ON CONFLICT(category, keyword) DO UPDATE SET synonyms = excluded.synonyms
	`, entry.Category, strings.ToLower(entry.Keyword), string(synonyms))
	if err != nil {
		return fmt.Errorf("failed to upsert taxonomy entry: %w", err)
	}

	return nil
}

// SeedDefaults inserts the built-in investment taxonomy if the table is
// empty. Returns the number of entries written.
func (r *TaxonomyRepository) SeedDefaults(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM keyword_taxonomy").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count taxonomy: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	for _, entry := range DefaultTaxonomy() {
		if err := r.Upsert(ctx, entry); err != nil {
			return 0, err
		}
	}

	seeded := len(DefaultTaxonomy())
	r.log.Info().Int("entries", seeded).Msg("Seeded default keyword taxonomy")
	return seeded, nil
}

// DefaultTaxonomy is the built-in seed table. Categories tagged
// speculative or volatile feed the meme score.
func DefaultTaxonomy() []TaxonomyEntry {
	return []TaxonomyEntry{
		{Category: "drone-tech", Keyword: "drone", Synonyms: []string{"드론", "UAV", "무인기", "uas", "quadcopter"}},
		{Category: "artificial-intelligence", Keyword: "ai", Synonyms: []string{"인공지능", "machine learning", "deep learning", "LLM", "neural network"}},
		{Category: "electric-vehicles", Keyword: "ev", Synonyms: []string{"전기차", "electric vehicle", "battery", "charging", "lithium"}},
		{Category: "semiconductors", Keyword: "semiconductor", Synonyms: []string{"반도체", "chip", "foundry", "GPU", "memory"}},
		{Category: "biotech", Keyword: "biotech", Synonyms: []string{"바이오", "pharma", "gene therapy", "clinical trial"}},
		{Category: "renewable-energy", Keyword: "solar", Synonyms: []string{"태양광", "renewable", "wind power", "hydrogen", "clean energy"}},
		{Category: "space", Keyword: "space", Synonyms: []string{"우주", "satellite", "rocket", "launch"}},
		{Category: "speculative", Keyword: "meme", Synonyms: []string{"밈주식", "reddit", "short squeeze", "wallstreetbets"}},
		{Category: "volatile", Keyword: "crypto", Synonyms: []string{"암호화폐", "bitcoin", "blockchain", "mining"}},
		{Category: "defense", Keyword: "defense", Synonyms: []string{"방산", "military", "aerospace", "missile"}},
	}
}
