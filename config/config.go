// Package config loads application configuration from environment variables
// with sensible defaults. Strategy and provider selection are validated by
// their factories at construction time, not here.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"paperquant/internal/provider"
	"paperquant/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	// Engine
	Symbols    []string
	Interval   time.Duration
	WindowCap  int
	LogLevel   string
	ListenAddr string

	// Provider
	Provider      string
	SimStartPrice float64
	SimDrift      float64
	SimVolatility float64
	SimSeed       int64
	EastmoneyURL  string
	EastmoneyTO   int // per-request timeout, milliseconds

	// Strategy
	Strategy     string
	MAShort      int
	MALong       int
	RSIPeriod    int
	RSIBuyBelow  float64
	RSISellAbove float64

	// Broker
	StartingCash float64
	OrderSize    int64
	JournalPath  string // "" disables the trade journal

	// Infrastructure
	MetricsAddr   string
	RedisAddr     string // "" disables the Redis event mirror
	RedisPassword string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Symbols:    splitList(getEnv("SYMBOLS", "AAPL")),
		Interval:   time.Duration(getEnvInt("INTERVAL_MS", 1000)) * time.Millisecond,
		WindowCap:  getEnvInt("PRICE_WINDOW_CAP", 5000),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		Provider:      getEnv("PROVIDER", provider.TypeSimulated),
		SimStartPrice: getEnvFloat("SIM_START_PRICE", 100.0),
		SimDrift:      getEnvFloat("SIM_DRIFT", 0.0),
		SimVolatility: getEnvFloat("SIM_VOLATILITY", 0.01),
		SimSeed:       int64(getEnvInt("SIM_SEED", 0)),
		EastmoneyURL:  getEnv("EASTMONEY_BASE_URL", ""),
		EastmoneyTO:   getEnvInt("EASTMONEY_TIMEOUT_MS", 5000),

		Strategy:     getEnv("STRATEGY", strategy.TypeMACrossover),
		MAShort:      getEnvInt("MA_SHORT_WINDOW", 10),
		MALong:       getEnvInt("MA_LONG_WINDOW", 30),
		RSIPeriod:    getEnvInt("RSI_PERIOD", 14),
		RSIBuyBelow:  getEnvFloat("RSI_BUY_BELOW", 30.0),
		RSISellAbove: getEnvFloat("RSI_SELL_ABOVE", 70.0),

		StartingCash: getEnvFloat("STARTING_CASH", 100000.0),
		OrderSize:    int64(getEnvInt("ORDER_SIZE", 10)),
		JournalPath:  getEnv("JOURNAL_PATH", "data/trades.db"),

		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
	}
}

// StrategyConfig assembles the typed strategy selection.
func (c *Config) StrategyConfig() strategy.Config {
	return strategy.Config{
		Type: c.Strategy,
		MACrossover: strategy.MACrossoverConfig{
			ShortWindow: c.MAShort,
			LongWindow:  c.MALong,
		},
		RSI: strategy.RSIConfig{
			Period:    c.RSIPeriod,
			BuyBelow:  c.RSIBuyBelow,
			SellAbove: c.RSISellAbove,
		},
	}
}

// ProviderConfig assembles the typed provider selection.
func (c *Config) ProviderConfig() provider.Config {
	return provider.Config{
		Type: c.Provider,
		Simulated: provider.SimulatedConfig{
			StartPrice: c.SimStartPrice,
			Drift:      c.SimDrift,
			Volatility: c.SimVolatility,
			Seed:       c.SimSeed,
		},
		Eastmoney: provider.EastmoneyConfig{
			BaseURL: c.EastmoneyURL,
			Timeout: c.EastmoneyTO,
		},
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer env var, using default", "key", key, "value", v)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("invalid float env var, using default", "key", key, "value", v)
		return fallback
	}
	return f
}
