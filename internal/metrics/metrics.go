package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncBatchesTotal tracks processed sync batches by status
	SyncBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_sync_batches_total",
			Help: "The total number of sync batches processed",
		},
		[]string{"service", "status"},
	)

	// SyncEventsTotal tracks fill events pulled from the subgraph
	SyncEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_sync_events_total",
			Help: "The total number of fill events ingested",
		},
		[]string{"service"},
	)

	// SyncCursorTimestamp exposes the durable cursor per sync service
	SyncCursorTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "insights_sync_cursor_timestamp",
			Help: "Unix timestamp of the last successfully processed event",
		},
		[]string{"service"},
	)

	// SyncRunSeconds tracks full collection run durations
	SyncRunSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "insights_sync_run_seconds",
		Help:    "Time taken by a full sync run in seconds",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	// TradesUpserted tracks trade rows written by result
	TradesUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_trades_upserted_total",
			Help: "The total number of trade upserts",
		},
		[]string{"status"},
	)

	// AddressesScored tracks addresses processed by the scoring sweep
	AddressesScored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "insights_addresses_scored_total",
		Help: "The total number of addresses scored",
	})

	// SuspiciousAddresses exposes the current count of flagged addresses
	SuspiciousAddresses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "insights_suspicious_addresses",
		Help: "The number of addresses currently flagged as suspicious",
	})

	// SkippedLegs tracks aggregator legs dropped for integrity reasons
	SkippedLegs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_skipped_legs_total",
			Help: "The total number of address trade legs skipped",
		},
		[]string{"reason"},
	)

	// WSClients tracks connected websocket subscribers
	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "insights_ws_clients",
		Help: "The number of connected websocket clients",
	})

	// AlertsSent tracks notifications pushed to subscribers
	AlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_alerts_sent_total",
			Help: "The total number of alerts broadcast",
		},
		[]string{"type"},
	)
)

// RecordSyncBatch records a processed batch for a sync service
func RecordSyncBatch(service, status string) {
	SyncBatchesTotal.WithLabelValues(service, status).Inc()
}

// RecordSyncEvents records ingested fill events for a sync service
func RecordSyncEvents(service string, count int) {
	SyncEventsTotal.WithLabelValues(service).Add(float64(count))
}

// SetSyncCursor records the durable cursor position for a sync service
func SetSyncCursor(service string, timestamp int64) {
	SyncCursorTimestamp.WithLabelValues(service).Set(float64(timestamp))
}

// RecordTradeUpserts records trade writes with the given status
func RecordTradeUpserts(status string, count int) {
	TradesUpserted.WithLabelValues(status).Add(float64(count))
}

// RecordAddressesScored records addresses processed by the scoring sweep
func RecordAddressesScored(count int) {
	AddressesScored.Add(float64(count))
}

// SetSuspiciousAddresses records the current flagged address count
func SetSuspiciousAddresses(count int) {
	SuspiciousAddresses.Set(float64(count))
}

// RecordSkippedLeg records an aggregator leg dropped for the given reason
func RecordSkippedLeg(reason string) {
	SkippedLegs.WithLabelValues(reason).Inc()
}

// RecordAlert records a broadcast alert of the given type
func RecordAlert(alertType string) {
	AlertsSent.WithLabelValues(alertType).Inc()
}
