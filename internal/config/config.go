package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port               int
	DevMode            bool
	DatabasePath       string
	LogLevel           string
	MarketDataURL      string
	GeminiAPIKey       string
	GeminiModel        string
	SemanticTimeout    time.Duration
	ProviderTimeout    time.Duration
	ExpansionCap       int
	MaxResults         int
	CacheTTL           time.Duration
	CatalogRefreshCron string
	PrimaryLocale      string
	PennyThresholds    map[string]float64

	// DemoMode swaps the real market data providers for a seeded
	// deterministic double. Never enabled implicitly.
	DemoMode bool
	DemoSeed int64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnvAsInt("DISCOVERY_PORT", 8002),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		DatabasePath:       getEnv("DATABASE_PATH", "./data/discovery.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MarketDataURL:      getEnv("MARKET_DATA_URL", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		SemanticTimeout:    getEnvAsDuration("SEMANTIC_TIMEOUT_SECONDS", 5*time.Second),
		ProviderTimeout:    getEnvAsDuration("PROVIDER_TIMEOUT_SECONDS", 5*time.Second),
		ExpansionCap:       getEnvAsInt("EXPANSION_CAP", 15),
		MaxResults:         getEnvAsInt("MAX_RESULTS", 20),
		CacheTTL:           getEnvAsDuration("CACHE_TTL_SECONDS", 60*time.Second),
		CatalogRefreshCron: getEnv("CATALOG_REFRESH_CRON", "0 0 */6 * * *"),
		PrimaryLocale:      getEnv("PRIMARY_LOCALE", "ko"),
		PennyThresholds: map[string]float64{
			"USD": getEnvAsFloat("PENNY_THRESHOLD_USD", 5.0),
			"EUR": getEnvAsFloat("PENNY_THRESHOLD_EUR", 5.0),
			"KRW": getEnvAsFloat("PENNY_THRESHOLD_KRW", 1000.0),
		},
		DemoMode: getEnvAsBool("DEMO_MODE", false),
		DemoSeed: int64(getEnvAsInt("DEMO_SEED", 42)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.ExpansionCap <= 0 {
		return fmt.Errorf("EXPANSION_CAP must be positive")
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("MAX_RESULTS must be positive")
	}

	// Note: Gemini credentials optional, semantic expansion degrades to
	// the static taxonomy when absent.

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
