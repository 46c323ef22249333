// Package syncer implements the crash-resumable incremental
// synchronizer that pulls order fill events from the orderbook
// subgraph and persists them exactly-once as trades.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hon0319/polymarket-insights/internal/metrics"
	"github.com/hon0319/polymarket-insights/internal/models"
	"github.com/hon0319/polymarket-insights/internal/subgraph"
	"github.com/rs/zerolog"
)

// ServiceName keys the cursor row for the fill-event synchronizer.
const ServiceName = "orderbook_collector"

// Default configuration values
const (
	DefaultBatchSize  = 1000
	DefaultMaxRetries = 3
	DefaultRetryDelay = 5 * time.Second
)

// ErrNilSource is returned when no event source is provided
var ErrNilSource = errors.New("event source is required")

// EventSource pulls ordered fill events from the remote indexer.
type EventSource interface {
	OrderFilledEvents(ctx context.Context, startTimestamp int64, limit int) ([]subgraph.OrderFilledEvent, error)
}

// SleepFunc waits for the given duration or until the context is done.
// Injected so retry backoff is deterministic in tests.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Config holds the configuration for the synchronizer
type Config struct {
	BatchSize           int
	MaxRetries          int
	RetryDelay          time.Duration
	WhaleTradeThreshold float64
	ResolveSide         SideResolver // nil means AssetOrderSide
	Sleep               SleepFunc    // nil means real sleep

	// OnWhaleTrade is invoked for every whale-flagged trade after its
	// batch commits. Optional.
	OnWhaleTrade func(models.Trade)
}

// Service is the incremental event synchronizer. One run pulls batches
// from the stored cursor until it catches up, advancing the cursor
// after every durably committed batch.
type Service struct {
	source     EventSource
	trades     TradeStore
	cursor     CursorStore
	normalizer Normalizer
	batchSize  int
	maxRetries int
	retryDelay time.Duration
	sleep      SleepFunc
	onWhale    func(models.Trade)
	logger     zerolog.Logger
}

// New creates a new synchronizer service
func New(source EventSource, trades TradeStore, cursor CursorStore, cfg Config, logger zerolog.Logger) (*Service, error) {
	if source == nil {
		return nil, ErrNilSource
	}
	if trades == nil || cursor == nil {
		return nil, errors.New("trade and cursor stores are required")
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Sleep == nil {
		cfg.Sleep = defaultSleep
	}

	normalizer := NewNormalizer(cfg.WhaleTradeThreshold)
	if cfg.ResolveSide != nil {
		normalizer.ResolveSide = cfg.ResolveSide
	}

	return &Service{
		source:     source,
		trades:     trades,
		cursor:     cursor,
		normalizer: normalizer,
		batchSize:  cfg.BatchSize,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		sleep:      cfg.Sleep,
		onWhale:    cfg.OnWhaleTrade,
		logger:     logger.With().Str("component", "syncer").Logger(),
	}, nil
}

// Run executes one full collection pass: batches are pulled in
// ascending timestamp order from the stored cursor until a short or
// empty batch signals the stream is caught up. The cursor is persisted
// after every committed batch, so a crash mid-run resumes from the
// last good position and replays at most one already-committed batch,
// which the trade-id upsert absorbs.
func (s *Service) Run(ctx context.Context) error {
	start := time.Now()
	runLogger := s.logger.With().Str("run_id", uuid.NewString()).Logger()

	state, err := s.cursor.Get(ctx, ServiceName)
	if err != nil {
		return fmt.Errorf("failed to read cursor: %w", err)
	}

	if err := s.cursor.Set(ctx, ServiceName, state.LastTimestamp, state.TotalProcessed, state.LastBatchSize, models.SyncRunning, nil); err != nil {
		return fmt.Errorf("failed to mark sync running: %w", err)
	}

	runLogger.Info().
		Int64("cursor", state.LastTimestamp).
		Msg("Starting collection run")

	current := state.LastTimestamp
	lastGood := state.LastTimestamp
	total := state.TotalProcessed

	for {
		processed, batchLast, err := s.collectWithRetry(ctx, current)
		if err != nil {
			s.fail(ctx, runLogger, lastGood, total, err)
			return fmt.Errorf("collection failed at cursor %d: %w", current, err)
		}

		if processed == 0 {
			break
		}

		total += int64(processed)
		// The cursor is monotonically non-decreasing.
		if batchLast > lastGood {
			lastGood = batchLast
		}

		if err := s.cursor.Set(ctx, ServiceName, lastGood, total, processed, models.SyncRunning, nil); err != nil {
			s.fail(ctx, runLogger, lastGood, total, err)
			return fmt.Errorf("failed to advance cursor: %w", err)
		}

		metrics.RecordSyncBatch(ServiceName, "success")
		metrics.RecordSyncEvents(ServiceName, processed)
		metrics.SetSyncCursor(ServiceName, lastGood)

		runLogger.Debug().
			Int("events", processed).
			Int64("cursor", lastGood).
			Msg("Batch committed")

		// Next pull starts strictly after the last seen timestamp. The
		// unique trade-id upsert covers same-second boundary events.
		current = lastGood + 1

		if processed < s.batchSize {
			break
		}
	}

	if err := s.cursor.Set(ctx, ServiceName, lastGood, total, 0, models.SyncIdle, nil); err != nil {
		return fmt.Errorf("failed to finalize cursor: %w", err)
	}

	metrics.SyncRunSeconds.Observe(time.Since(start).Seconds())

	runLogger.Info().
		Int64("total_processed", total-state.TotalProcessed).
		Int64("cursor", lastGood).
		Dur("duration", time.Since(start)).
		Msg("Collection run completed")

	return nil
}

// collectWithRetry pulls one batch starting at startTimestamp,
// normalizes it and commits it. Transient source failures are retried
// with exponential backoff; persistence failures are not retried.
func (s *Service) collectWithRetry(ctx context.Context, startTimestamp int64) (int, int64, error) {
	var events []subgraph.OrderFilledEvent

	for attempt := 0; ; attempt++ {
		var err error
		events, err = s.source.OrderFilledEvents(ctx, startTimestamp, s.batchSize)
		if err == nil {
			break
		}

		if !subgraph.IsTransient(err) || attempt >= s.maxRetries-1 {
			metrics.RecordSyncBatch(ServiceName, "failed")
			return 0, startTimestamp, err
		}

		delay := s.retryDelay * (1 << attempt)
		s.logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_retries", s.maxRetries).
			Dur("backoff", delay).
			Msg("Source fetch failed, retrying")

		if err := s.sleep(ctx, delay); err != nil {
			return 0, startTimestamp, err
		}
	}

	if len(events) == 0 {
		return 0, startTimestamp, nil
	}

	// Advance on the max parsed timestamp, never the raw last event: a
	// malformed trailing timestamp must not drag the cursor to 0.
	last := startTimestamp
	trades := make([]models.Trade, 0, len(events))
	for _, ev := range events {
		if ts := ev.UnixTimestamp(); ts > last {
			last = ts
		}
		trade, err := s.normalizer.Trade(ev)
		if err != nil {
			// Per-record anomalies are absorbed here, never fatal.
			metrics.RecordTradeUpserts("skipped", 1)
			s.logger.Warn().Err(err).Str("event_id", ev.ID).Msg("Skipping malformed event")
			continue
		}
		trades = append(trades, trade)
	}

	if err := s.trades.UpsertTrades(ctx, trades); err != nil {
		metrics.RecordSyncBatch(ServiceName, "failed")
		metrics.RecordTradeUpserts("failed", len(trades))
		return 0, startTimestamp, err
	}
	metrics.RecordTradeUpserts("success", len(trades))

	if s.onWhale != nil {
		for _, trade := range trades {
			if trade.IsWhale {
				s.onWhale(trade)
			}
		}
	}

	return len(events), last, nil
}

// fail records the error state, leaving the cursor at its last
// successfully advanced value.
func (s *Service) fail(ctx context.Context, logger zerolog.Logger, lastGood, total int64, cause error) {
	msg := cause.Error()
	if err := s.cursor.Set(ctx, ServiceName, lastGood, total, 0, models.SyncError, &msg); err != nil {
		logger.Error().Err(err).Msg("Failed to record error state")
	}
	logger.Error().Err(cause).Int64("cursor", lastGood).Msg("Collection run failed")
}
