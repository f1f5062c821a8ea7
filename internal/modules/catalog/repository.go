package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// SecurityRepository handles security database operations. It is the
// default DataSource for the catalog refresh job.
type SecurityRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSecurityRepository creates a new security repository
func NewSecurityRepository(db *sql.DB, log zerolog.Logger) *SecurityRepository {
	return &SecurityRepository{
		db:  db,
		log: log.With().Str("repo", "security").Logger(),
	}
}

// Load returns the full security universe, in stable insertion order.
// Implements DataSource.
func (r *SecurityRepository) Load(ctx context.Context) ([]Security, error) {
	query := `SELECT market, symbol, name, localized_names, sector, industry,
		search_terms, currency, market_cap
		FROM securities ORDER BY rowid`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query securities: %w", err)
	}
	defer rows.Close()

	var securities []Security
	for rows.Next() {
		security, err := r.scanSecurity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan security: %w", err)
		}
		securities = append(securities, security)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating securities: %w", err)
	}

	return securities, nil
}

// GetByKey returns a security by its (market, symbol) identity
func (r *SecurityRepository) GetByKey(ctx context.Context, market, symbol string) (*Security, error) {
	query := `SELECT market, symbol, name, localized_names, sector, industry,
		search_terms, currency, market_cap
		FROM securities WHERE market = ? AND symbol = ?`

	rows, err := r.db.QueryContext(ctx, query,
		strings.ToUpper(strings.TrimSpace(market)),
		strings.ToUpper(strings.TrimSpace(symbol)))
	if err != nil {
		return nil, fmt.Errorf("failed to query security: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil // Security not found
	}

	security, err := r.scanSecurity(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan security: %w", err)
	}

	return &security, nil
}

// Count returns the number of stored securities
func (r *SecurityRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM securities").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count securities: %w", err)
	}
	return count, nil
}

// Upsert inserts or replaces a security
func (r *SecurityRepository) Upsert(ctx context.Context, security Security) error {
	security.Normalize()
	if security.Market == "" || security.Symbol == "" {
		return fmt.Errorf("market and symbol are required")
	}

	localizedJSON, err := json.Marshal(security.LocalizedNames)
	if err != nil {
		return fmt.Errorf("failed to encode localized names: %w", err)
	}
	termsJSON, err := json.Marshal(security.SearchTerms)
	if err != nil {
		return fmt.Errorf("failed to encode search terms: %w", err)
	}

	now := time.Now().Format(time.RFC3339)

	query := `
		INSERT INTO securities
		(market, symbol, name, localized_names, sector, industry, search_terms,
		 currency, market_cap, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(market, symbol) DO UPDATE SET
			name = excluded.name,
			localized_names = excluded.localized_names,
			sector = excluded.sector,
			industry = excluded.industry,
			search_terms = excluded.search_terms,
			currency = excluded.currency,
			market_cap = excluded.market_cap,
			updated_at = excluded.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		security.Market,
		security.Symbol,
		security.Name,
		string(localizedJSON),
		nullString(security.Sector),
		nullString(security.Industry),
		string(termsJSON),
		nullString(security.Currency),
		security.MarketCap,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert security: %w", err)
	}

	r.log.Debug().Str("market", security.Market).Str("symbol", security.Symbol).Msg("Security upserted")
	return nil
}

// scanSecurity scans a database row into a Security struct
func (r *SecurityRepository) scanSecurity(rows *sql.Rows) (Security, error) {
	var security Security
	var localizedNames, sector, industry, searchTerms, currency sql.NullString

	err := rows.Scan(
		&security.Market,
		&security.Symbol,
		&security.Name,
		&localizedNames,
		&sector,
		&industry,
		&searchTerms,
		&currency,
		&security.MarketCap,
	)
	if err != nil {
		return security, err
	}

	if localizedNames.Valid && localizedNames.String != "" {
		if err := json.Unmarshal([]byte(localizedNames.String), &security.LocalizedNames); err != nil {
			return security, fmt.Errorf("invalid localized_names for %s:%s: %w", security.Market, security.Symbol, err)
		}
	}
	if searchTerms.Valid && searchTerms.String != "" {
		if err := json.Unmarshal([]byte(searchTerms.String), &security.SearchTerms); err != nil {
			return security, fmt.Errorf("invalid search_terms for %s:%s: %w", security.Market, security.Symbol, err)
		}
	}
	if sector.Valid {
		security.Sector = sector.String
	}
	if industry.Valid {
		security.Industry = industry.String
	}
	if currency.Valid {
		security.Currency = currency.String
	}

	security.Normalize()
	return security, nil
}

// SeedDefaults inserts a small starter universe if the table is empty,
// so a fresh install can serve discovery queries before the first real
// data load. Returns the number of securities written.
func (r *SecurityRepository) SeedDefaults(ctx context.Context) (int, error) {
	count, err := r.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	for _, sec := range DefaultSecurities() {
		if err := r.Upsert(ctx, sec); err != nil {
			return 0, err
		}
	}

	seeded := len(DefaultSecurities())
	r.log.Info().Int("securities", seeded).Msg("Seeded default security universe")
	return seeded, nil
}

// DefaultSecurities is the built-in starter universe.
func DefaultSecurities() []Security {
	return []Security{
		{
			Market: "US", Symbol: "UAVS", Name: "AgEagle Aerial Systems Inc",
			LocalizedNames: map[string]string{"ko": "애그이글 에어리얼 시스템즈"},
			Sector:         "Industrials", Industry: "Aerospace & Defense",
			SearchTerms: []string{"drone", "uav", "aerial imaging"},
			Currency:    "USD", MarketCap: 50_000_000,
		},
		{
			Market: "US", Symbol: "AVAV", Name: "AeroVironment Inc",
			LocalizedNames: map[string]string{"ko": "에어로바이론먼트"},
			Sector:         "Industrials", Industry: "Aerospace & Defense",
			SearchTerms: []string{"drone", "uav", "defense"},
			Currency:    "USD", MarketCap: 8_000_000_000,
		},
		{
			Market: "US", Symbol: "NVDA", Name: "NVIDIA Corporation",
			LocalizedNames: map[string]string{"ko": "엔비디아"},
			Sector:         "Technology", Industry: "Semiconductors",
			SearchTerms: []string{"ai", "gpu", "semiconductor", "data center"},
			Currency:    "USD", MarketCap: 3_000_000_000_000,
		},
		{
			Market: "US", Symbol: "GME", Name: "GameStop Corp",
			LocalizedNames: map[string]string{"ko": "게임스탑"},
			Sector:         "Consumer Cyclical", Industry: "Specialty Retail",
			SearchTerms: []string{"meme", "gaming", "retail"},
			Currency:    "USD", MarketCap: 12_000_000_000,
		},
		{
			Market: "KR", Symbol: "005930", Name: "Samsung Electronics Co Ltd",
			LocalizedNames: map[string]string{"ko": "삼성전자"},
			Sector:         "Technology", Industry: "Consumer Electronics",
			SearchTerms: []string{"semiconductor", "smartphone", "메모리"},
			Currency:    "KRW", MarketCap: 400_000_000_000_000,
		},
		{
			Market: "KR", Symbol: "064350", Name: "Hyundai Rotem Co Ltd",
			LocalizedNames: map[string]string{"ko": "현대로템"},
			Sector:         "Industrials", Industry: "Railroads & Defense",
			SearchTerms: []string{"defense", "rail", "방산"},
			Currency:    "KRW", MarketCap: 30_000_000_000_000,
		},
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
