// Package aggregator derives per-address participation legs from
// normalized trades and maintains the rollup counters the scoring
// engine reads.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hon0319/polymarket-insights/internal/metrics"
	"github.com/hon0319/polymarket-insights/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const legInsertBatchSize = 500

// Config holds the aggregator thresholds
type Config struct {
	WhaleTradeThreshold   float64
	WhaleAddressThreshold float64
}

// Service runs address discovery, leg rebuilds and stat recomputes.
type Service struct {
	db     *gorm.DB
	cfg    Config
	logger zerolog.Logger
}

// NewService creates a new aggregator service
func NewService(db *gorm.DB, cfg Config, logger zerolog.Logger) (*Service, error) {
	if db == nil {
		return nil, errors.New("database connection is required")
	}
	return &Service{
		db:     db,
		cfg:    cfg,
		logger: logger.With().Str("component", "aggregator").Logger(),
	}, nil
}

// DiscoverAddresses extracts every distinct maker and taker address
// from the trades table and upserts it into addresses, stamping
// first-seen and last-active times from the trade history.
func (s *Service) DiscoverAddresses(ctx context.Context) (int, error) {
	var rows []struct {
		Address   string
		FirstSeen time.Time
		LastSeen  time.Time
	}

	err := s.db.WithContext(ctx).Raw(`
		SELECT address, MIN(timestamp) AS first_seen, MAX(timestamp) AS last_seen FROM (
			SELECT maker_address AS address, timestamp FROM trades
			UNION ALL
			SELECT taker_address AS address, timestamp FROM trades
		) AS participants
		WHERE address <> ''
		GROUP BY address
	`).Scan(&rows).Error
	if err != nil {
		return 0, fmt.Errorf("failed to extract addresses from trades: %w", err)
	}

	discovered := 0
	for _, row := range rows {
		var addr models.Address
		result := s.db.WithContext(ctx).Where("address = ?", row.Address).FirstOrCreate(&addr, models.Address{
			Address:      row.Address,
			FirstSeenAt:  row.FirstSeen,
			LastActiveAt: row.LastSeen,
		})
		if result.Error != nil {
			return discovered, fmt.Errorf("failed to upsert address %s: %w", row.Address, result.Error)
		}
		if result.RowsAffected > 0 {
			discovered++
		}
	}

	s.logger.Info().
		Int("total", len(rows)).
		Int("new", discovered).
		Msg("Address discovery completed")

	return discovered, nil
}

// RebuildAddressTrades regenerates the address_trades table from the
// trades table inside one transaction. Trades without a resolved
// market or with an unknown counterparty address are skipped and
// counted, never inserted with dangling keys.
func (s *Service) RebuildAddressTrades(ctx context.Context) (inserted, skipped int, err error) {
	addressIDs, err := s.addressMap(ctx)
	if err != nil {
		return 0, 0, err
	}

	var trades []models.Trade
	if err := s.db.WithContext(ctx).Order("timestamp ASC").Find(&trades).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to load trades: %w", err)
	}

	legs := make([]models.AddressTrade, 0, len(trades)*2)
	for _, trade := range trades {
		if trade.MarketID == nil {
			skipped++
			metrics.RecordSkippedLeg("missing_market")
			continue
		}

		makerID, makerOK := addressIDs[trade.MakerAddress]
		takerID, takerOK := addressIDs[trade.TakerAddress]
		if !makerOK || !takerOK {
			skipped++
			metrics.RecordSkippedLeg("unknown_address")
			continue
		}

		pair := Legs(trade, *trade.MarketID, makerID, takerID, s.cfg.WhaleTradeThreshold)
		legs = append(legs, pair[0], pair[1])
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.AddressTrade{}).Error; err != nil {
			return fmt.Errorf("failed to clear address trades: %w", err)
		}
		if len(legs) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&legs, legInsertBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert address trades: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, skipped, err
	}

	s.logger.Info().
		Int("trades", len(trades)).
		Int("legs", len(legs)).
		Int("skipped", skipped).
		Msg("Rebuilt address trades")

	return len(legs), skipped, nil
}

// RecomputeStats rebuilds every address's rollup counters from its
// legs. The recompute is a full rebuild per address and safe to run
// repeatedly.
func (s *Service) RecomputeStats(ctx context.Context) (int, error) {
	var addressIDs []uint
	if err := s.db.WithContext(ctx).Model(&models.Address{}).Pluck("id", &addressIDs).Error; err != nil {
		return 0, fmt.Errorf("failed to list addresses: %w", err)
	}

	updated := 0
	for _, id := range addressIDs {
		var legs []models.AddressTrade
		if err := s.db.WithContext(ctx).Where("address_id = ?", id).Find(&legs).Error; err != nil {
			return updated, fmt.Errorf("failed to load legs for address %d: %w", id, err)
		}

		agg := ComputeAggregate(legs)
		fields := map[string]interface{}{
			"total_trades":   agg.TotalTrades,
			"total_volume":   agg.TotalVolume,
			"avg_trade_size": agg.AvgTradeSize,
			"is_whale":       agg.TotalVolume >= s.cfg.WhaleAddressThreshold,
		}
		if agg.LastActiveAt > 0 {
			fields["last_active_at"] = time.Unix(agg.LastActiveAt, 0).UTC()
		}

		if err := s.db.WithContext(ctx).Model(&models.Address{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return updated, fmt.Errorf("failed to update stats for address %d: %w", id, err)
		}
		updated++
	}

	s.logger.Info().Int("addresses", updated).Msg("Recomputed address statistics")
	return updated, nil
}

func (s *Service) addressMap(ctx context.Context) (map[string]uint, error) {
	var rows []struct {
		ID      uint
		Address string
	}
	if err := s.db.WithContext(ctx).Model(&models.Address{}).Select("id", "address").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to build address map: %w", err)
	}

	m := make(map[string]uint, len(rows))
	for _, row := range rows {
		m[row.Address] = row.ID
	}
	return m, nil
}
