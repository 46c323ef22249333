package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/hon0319/polymarket-insights/internal/models"
	"gorm.io/gorm"
)

// Repo is the gorm-backed scoring Store.
type Repo struct {
	db *gorm.DB
}

// NewRepo creates a new scoring repository
func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Addresses(ctx context.Context) ([]models.Address, error) {
	var addresses []models.Address
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&addresses).Error; err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

func (r *Repo) TradeContexts(ctx context.Context, addressID uint) ([]TradeContext, error) {
	var rows []struct {
		Timestamp       time.Time
		MarketCreatedAt *time.Time
		EndDate         *time.Time
	}

	err := r.db.WithContext(ctx).
		Table("address_trades").
		Select("address_trades.timestamp", "markets.market_created_at", "markets.end_date").
		Joins("JOIN markets ON markets.id = address_trades.market_id").
		Where("address_trades.address_id = ?", addressID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load trade contexts: %w", err)
	}

	contexts := make([]TradeContext, 0, len(rows))
	for _, row := range rows {
		contexts = append(contexts, TradeContext{
			Timestamp:       row.Timestamp,
			MarketCreatedAt: row.MarketCreatedAt,
			MarketEndAt:     row.EndDate,
		})
	}
	return contexts, nil
}

func (r *Repo) DistinctMarketCount(ctx context.Context, addressID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AddressTrade{}).
		Where("address_id = ?", addressID).
		Distinct("market_id").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count distinct markets: %w", err)
	}
	return int(count), nil
}

func (r *Repo) ActiveMarketCount(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Market{}).
		Where("is_active = ?", true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count active markets: %w", err)
	}
	return int(count), nil
}

func (r *Repo) ApplyScores(ctx context.Context, updates []Update) error {
	if len(updates) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			err := tx.Model(&models.Address{}).Where("id = ?", u.AddressID).Updates(map[string]interface{}{
				"win_rate_score":      u.Breakdown.WinRate,
				"early_trading_score": u.Breakdown.EarlyTrading,
				"trade_size_score":    u.Breakdown.TradeSize,
				"timing_score":        u.Breakdown.Timing,
				"selectivity_score":   u.Breakdown.Selectivity,
				"suspicion_score":     u.Breakdown.Total,
				"is_suspicious":       u.Breakdown.IsSuspicious,
			}).Error
			if err != nil {
				return fmt.Errorf("failed to store score for address %d: %w", u.AddressID, err)
			}
		}
		return nil
	})
}
