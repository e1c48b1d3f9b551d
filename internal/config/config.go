// Package config provides configuration management functionality.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	CacheDir     string // directory for persisted per-symbol price files
	StorePath    string // results file, read by the backend named in StoreBackend
	StoreBackend string // "buntdb" or "sqlite"
	LogLevel     string

	MaxTries int // optimizer search budget
	TopN     int // consensus vote size

	MinTrades   int
	MinSharpe   float64
	MaxDrawdown float64

	InitialCash    float64
	CommissionRate float64

	BinanceAPIKey    string
	BinanceAPISecret string

	OpenAIToken string
	OpenAIModel string

	TelegramToken string
	TelegramUsers []int
}

// Load reads configuration from the environment, with a .env file merged in
// when present. Every value has a usable default except external credentials.
func Load() (*Config, error) {
	// Missing .env is fine; the environment alone is a valid source
	_ = godotenv.Load()

	cfg := &Config{
		CacheDir:     getString("RULEGATE_CACHE_DIR", "data/cache"),
		StorePath:    getString("RULEGATE_STORE_PATH", "data/results.db"),
		StoreBackend: getString("RULEGATE_STORE_BACKEND", "buntdb"),
		LogLevel:     getString("RULEGATE_LOG_LEVEL", "info"),

		MaxTries: getInt("RULEGATE_MAX_TRIES", 100),
		TopN:     getInt("RULEGATE_TOP_N", 5),

		MinTrades:   getInt("RULEGATE_MIN_TRADES", 5),
		MinSharpe:   getFloat("RULEGATE_MIN_SHARPE", 0.5),
		MaxDrawdown: getFloat("RULEGATE_MAX_DRAWDOWN", 0.35),

		InitialCash:    getFloat("RULEGATE_INITIAL_CASH", 10_000),
		CommissionRate: getFloat("RULEGATE_COMMISSION_RATE", 0.001),

		BinanceAPIKey:    os.Getenv("BINANCE_API_KEY"),
		BinanceAPISecret: os.Getenv("BINANCE_API_SECRET"),

		OpenAIToken: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: os.Getenv("OPENAI_MODEL"),

		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		TelegramUsers: getIntList("TELEGRAM_USERS"),
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntList(key string) []int {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}

	var values []int
	for _, part := range strings.Split(raw, ",") {
		if parsed, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			values = append(values, parsed)
		}
	}
	return values
}
