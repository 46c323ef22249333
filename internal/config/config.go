package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default subgraph endpoints (Goldsky hosted).
const (
	DefaultOrderbookSubgraphURL = "https://api.goldsky.com/api/public/project_cl6mb8i9h0003e201j6li0diw/subgraphs/orderbook-subgraph/0.0.1/gn"
	DefaultPositionsSubgraphURL = "https://api.goldsky.com/api/public/project_cl6mb8i9h0003e201j6li0diw/subgraphs/positions-subgraph/0.0.7/gn"
)

// Config holds all configuration for the insights backend
type Config struct {
	// Subgraph configuration
	OrderbookSubgraphURL string
	PositionsSubgraphURL string

	// Sync configuration
	SyncBatchSize int
	MaxRetries    int
	RetryDelay    time.Duration

	// Scheduler intervals
	SyncInterval       time.Duration
	DiscoveryInterval  time.Duration
	ResolutionInterval time.Duration
	SweepInterval      time.Duration

	// Trading thresholds (dollars)
	WhaleTradeThreshold   float64
	WhaleAddressThreshold float64
	AlertScoreThreshold   int

	// WebSocket server configuration
	WSListenAddr string

	// Logging configuration
	LogLevel string

	// Metrics configuration
	MetricsPort string
}

// Load reads configuration from environment variables and validates it
func Load() (Config, error) {
	cfg := Config{
		OrderbookSubgraphURL: getEnv("ORDERBOOK_SUBGRAPH_URL", DefaultOrderbookSubgraphURL),
		PositionsSubgraphURL: getEnv("POSITIONS_SUBGRAPH_URL", DefaultPositionsSubgraphURL),
		WSListenAddr:         getEnv("WS_LISTEN_ADDR", ":8765"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		MetricsPort:          getEnv("METRICS_PORT", "9100"),
	}

	var err error
	cfg.SyncBatchSize, err = parseIntEnv("SYNC_BATCH_SIZE", 1000)
	if err != nil {
		return cfg, fmt.Errorf("invalid SYNC_BATCH_SIZE: %w", err)
	}

	cfg.MaxRetries, err = parseIntEnv("SYNC_MAX_RETRIES", 3)
	if err != nil {
		return cfg, fmt.Errorf("invalid SYNC_MAX_RETRIES: %w", err)
	}

	cfg.RetryDelay, err = parseDurationEnv("SYNC_RETRY_DELAY", 5*time.Second)
	if err != nil {
		return cfg, fmt.Errorf("invalid SYNC_RETRY_DELAY: %w", err)
	}

	cfg.SyncInterval, err = parseDurationEnv("SYNC_INTERVAL", 5*time.Minute)
	if err != nil {
		return cfg, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}

	cfg.DiscoveryInterval, err = parseDurationEnv("DISCOVERY_INTERVAL", 30*time.Minute)
	if err != nil {
		return cfg, fmt.Errorf("invalid DISCOVERY_INTERVAL: %w", err)
	}

	cfg.ResolutionInterval, err = parseDurationEnv("RESOLUTION_INTERVAL", time.Hour)
	if err != nil {
		return cfg, fmt.Errorf("invalid RESOLUTION_INTERVAL: %w", err)
	}

	cfg.SweepInterval, err = parseDurationEnv("SWEEP_INTERVAL", 30*time.Minute)
	if err != nil {
		return cfg, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}

	cfg.WhaleTradeThreshold, err = parseFloatEnv("WHALE_TRADE_THRESHOLD", 10000)
	if err != nil {
		return cfg, fmt.Errorf("invalid WHALE_TRADE_THRESHOLD: %w", err)
	}

	cfg.WhaleAddressThreshold, err = parseFloatEnv("WHALE_ADDRESS_THRESHOLD", 100000)
	if err != nil {
		return cfg, fmt.Errorf("invalid WHALE_ADDRESS_THRESHOLD: %w", err)
	}

	cfg.AlertScoreThreshold, err = parseIntEnv("ALERT_SCORE_THRESHOLD", 80)
	if err != nil {
		return cfg, fmt.Errorf("invalid ALERT_SCORE_THRESHOLD: %w", err)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks that the configuration is valid
func (c Config) validate() error {
	if c.OrderbookSubgraphURL == "" {
		return fmt.Errorf("ORDERBOOK_SUBGRAPH_URL is required")
	}

	if c.PositionsSubgraphURL == "" {
		return fmt.Errorf("POSITIONS_SUBGRAPH_URL is required")
	}

	if c.SyncBatchSize < 1 || c.SyncBatchSize > 1000 {
		return fmt.Errorf("SYNC_BATCH_SIZE must be between 1 and 1000")
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("SYNC_MAX_RETRIES must not be negative")
	}

	if c.SyncInterval < time.Minute {
		return fmt.Errorf("SYNC_INTERVAL must be at least 1 minute")
	}

	if c.WhaleTradeThreshold <= 0 {
		return fmt.Errorf("WHALE_TRADE_THRESHOLD must be positive")
	}

	if c.WhaleAddressThreshold <= 0 {
		return fmt.Errorf("WHALE_ADDRESS_THRESHOLD must be positive")
	}

	if c.AlertScoreThreshold < 0 || c.AlertScoreThreshold > 100 {
		return fmt.Errorf("ALERT_SCORE_THRESHOLD must be between 0 and 100")
	}

	validLogLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
		"panic": true,
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid LOG_LEVEL: %s (must be one of: trace, debug, info, warn, error, fatal, panic)", c.LogLevel)
	}

	return nil
}

// getEnv retrieves an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv parses an integer environment variable with a default value
func parseIntEnv(key string, defaultValue int) (int, error) {
	str := os.Getenv(key)
	if str == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(str)
}

// parseFloatEnv parses a float environment variable with a default value
func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	str := os.Getenv(key)
	if str == "" {
		return defaultValue, nil
	}
	return strconv.ParseFloat(str, 64)
}

// parseDurationEnv parses a duration environment variable with a default value
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	str := os.Getenv(key)
	if str == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(str)
}
