package notifier

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/hon0319/polymarket-insights/internal/metrics"
	"github.com/rs/zerolog"
)

// DedupWindow suppresses repeat suspicious-address alerts for the same
// address.
const DedupWindow = 24 * time.Hour

// Alert message types
const (
	AlertWhaleTrade        = "whale_trade"
	AlertSuspiciousAddress = "suspicious_address"
)

// Broadcaster is the outbound side of the hub.
type Broadcaster interface {
	Broadcast(message []byte)
}

// WhaleTradeAlert is pushed for every whale-sized trade ingested.
type WhaleTradeAlert struct {
	Type      string  `json:"type"`
	TradeID   string  `json:"trade_id"`
	Address   string  `json:"address"`
	Market    string  `json:"market,omitempty"`
	Amount    float64 `json:"amount"`
	Side      string  `json:"side"`
	Timestamp int64   `json:"timestamp"`
}

// SuspiciousAddressAlert is pushed when a scoring sweep flags an
// address above the alert threshold.
type SuspiciousAddressAlert struct {
	Type    string `json:"type"`
	Address string `json:"address"`
	Score   int    `json:"score"`
}

// Notifier serializes alerts, applies per-address dedup and hands them
// to the hub.
type Notifier struct {
	hub            Broadcaster
	scoreThreshold int
	now            func() time.Time
	logger         zerolog.Logger

	mu        sync.Mutex
	lastAlert map[string]time.Time
}

// New creates a new notifier. scoreThreshold gates suspicious-address
// alerts; whale trade alerts are not thresholded here because the
// ingest path already marks whale trades.
func New(hub Broadcaster, scoreThreshold int, logger zerolog.Logger) *Notifier {
	return &Notifier{
		hub:            hub,
		scoreThreshold: scoreThreshold,
		now:            time.Now,
		lastAlert:      make(map[string]time.Time),
		logger:         logger.With().Str("component", "notifier").Logger(),
	}
}

// NotifyWhaleTrade broadcasts a whale trade alert.
func (n *Notifier) NotifyWhaleTrade(alert WhaleTradeAlert) {
	alert.Type = AlertWhaleTrade

	payload, err := json.Marshal(alert)
	if err != nil {
		n.logger.Error().Err(err).Msg("Failed to encode whale trade alert")
		return
	}

	n.hub.Broadcast(payload)
	metrics.RecordAlert(AlertWhaleTrade)
}

// NotifySuspiciousAddress broadcasts a suspicious address alert when
// the score meets the threshold and the address was not alerted within
// the dedup window. Returns true when an alert was sent.
func (n *Notifier) NotifySuspiciousAddress(address string, score int) bool {
	if score < n.scoreThreshold {
		return false
	}

	now := n.now()

	n.mu.Lock()
	if last, ok := n.lastAlert[address]; ok && now.Sub(last) < DedupWindow {
		n.mu.Unlock()
		return false
	}
	// Evict expired entries so the map stays bounded by addresses
	// alerted within the window.
	for addr, seen := range n.lastAlert {
		if now.Sub(seen) >= DedupWindow {
			delete(n.lastAlert, addr)
		}
	}
	n.lastAlert[address] = now
	n.mu.Unlock()

	payload, err := json.Marshal(SuspiciousAddressAlert{
		Type:    AlertSuspiciousAddress,
		Address: address,
		Score:   score,
	})
	if err != nil {
		n.logger.Error().Err(err).Msg("Failed to encode suspicious address alert")
		return false
	}

	n.hub.Broadcast(payload)
	metrics.RecordAlert(AlertSuspiciousAddress)

	n.logger.Info().
		Str("address", address).
		Int("score", score).
		Msg("Suspicious address alert sent")

	return true
}
