package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultOrderbookSubgraphURL, cfg.OrderbookSubgraphURL)
	assert.Equal(t, DefaultPositionsSubgraphURL, cfg.PositionsSubgraphURL)
	assert.Equal(t, 1000, cfg.SyncBatchSize)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.RetryDelay)
	assert.Equal(t, 5*time.Minute, cfg.SyncInterval)
	assert.Equal(t, 30*time.Minute, cfg.DiscoveryInterval)
	assert.Equal(t, time.Hour, cfg.ResolutionInterval)
	assert.Equal(t, float64(10000), cfg.WhaleTradeThreshold)
	assert.Equal(t, float64(100000), cfg.WhaleAddressThreshold)
	assert.Equal(t, 80, cfg.AlertScoreThreshold)
	assert.Equal(t, ":8765", cfg.WSListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "9100", cfg.MetricsPort)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SYNC_BATCH_SIZE", "500")
	t.Setenv("SYNC_RETRY_DELAY", "10s")
	t.Setenv("WHALE_TRADE_THRESHOLD", "25000")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.SyncBatchSize)
	assert.Equal(t, 10*time.Second, cfg.RetryDelay)
	assert.Equal(t, float64(25000), cfg.WhaleTradeThreshold)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]struct {
		key, value string
	}{
		"non-numeric batch size": {"SYNC_BATCH_SIZE", "lots"},
		"batch size too large":   {"SYNC_BATCH_SIZE", "5000"},
		"batch size zero":        {"SYNC_BATCH_SIZE", "0"},
		"negative retries":       {"SYNC_MAX_RETRIES", "-1"},
		"bad retry delay":        {"SYNC_RETRY_DELAY", "five seconds"},
		"sync interval too low":  {"SYNC_INTERVAL", "10s"},
		"bad whale threshold":    {"WHALE_TRADE_THRESHOLD", "-5"},
		"alert threshold high":   {"ALERT_SCORE_THRESHOLD", "150"},
		"unknown log level":      {"LOG_LEVEL", "verbose"},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(c.key, c.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
