package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tradeJournal/internal/adapters/logger"
	"tradeJournal/internal/ledger"
)

// Config holds all application configuration.
type Config struct {
	// Database
	DBPath string

	// Logging
	LogLevel logger.LogLevel

	// HTTP
	HTTPAddr string

	// Ledger
	DefaultFeeTier string // Tier applied to trades created without one
	DayLocation    *time.Location

	// Market data (display only, never used for ledger arithmetic)
	MarketDataEnabled bool
	MarketQuoteAsset  string
	MarketDataTimeout time.Duration
	APIKey            string
	SecretKey         string
	IsTestnet         bool

	// Trigger watcher
	TriggerPollInterval time.Duration
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/trade_journal.db")

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))

	// HTTP
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":5000")

	// Ledger
	cfg.DefaultFeeTier = ledger.NormalizeTier(getEnv("DEFAULT_FEE_TIER", ledger.DefaultTier))
	if schedule := ledger.StandardSchedule(); !schedule.Has(cfg.DefaultFeeTier) {
		errs = append(errs, fmt.Sprintf("DEFAULT_FEE_TIER %q is not a known fee tier (known: %s)",
			cfg.DefaultFeeTier, strings.Join(schedule.Codes(), ", ")))
	}

	locName := getEnv("DAY_BOUNDARY_LOCATION", "Local")
	cfg.DayLocation, err = time.LoadLocation(locName)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid DAY_BOUNDARY_LOCATION: %v", err))
	}

	// Market data
	cfg.MarketDataEnabled = getEnvAsBool("MARKET_DATA_ENABLED", true)
	cfg.MarketQuoteAsset = strings.ToUpper(getEnv("MARKET_QUOTE_ASSET", "USDT"))
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", false)

	timeoutSeconds, err := getEnvAsIntRequired("MARKET_DATA_TIMEOUT_SECONDS", 10)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MARKET_DATA_TIMEOUT_SECONDS: %v", err))
	} else if timeoutSeconds <= 0 {
		errs = append(errs, "MARKET_DATA_TIMEOUT_SECONDS must be positive")
	}
	cfg.MarketDataTimeout = time.Duration(timeoutSeconds) * time.Second

	// Trigger watcher
	pollSeconds, err := getEnvAsIntRequired("TRIGGER_POLL_SECONDS", 30)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TRIGGER_POLL_SECONDS: %v", err))
	} else if pollSeconds <= 0 {
		errs = append(errs, "TRIGGER_POLL_SECONDS must be positive")
	}
	cfg.TriggerPollInterval = time.Duration(pollSeconds) * time.Second

	errs = append(errs, cfg.validate()...)

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

func (c *Config) validate() []string {
	var errs []string
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, "DB_PATH must be set")
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, "HTTP_ADDR must be set")
	}
	if c.MarketDataEnabled && c.MarketQuoteAsset == "" {
		errs = append(errs, "MARKET_QUOTE_ASSET must be set when market data is enabled")
	}
	return errs
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
