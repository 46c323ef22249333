package syncer

import (
	"context"
	"fmt"

	"github.com/hon0319/polymarket-insights/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TradeStore persists normalized trades.
type TradeStore interface {
	// UpsertTrades writes a batch of trades atomically, keyed on the
	// trade id. Replayed rows update only denormalized fields, never
	// financial amounts.
	UpsertTrades(ctx context.Context, trades []models.Trade) error
}

// TradeRepo is the gorm-backed TradeStore.
type TradeRepo struct {
	db *gorm.DB
}

// NewTradeRepo creates a new TradeRepo
func NewTradeRepo(db *gorm.DB) *TradeRepo {
	return &TradeRepo{db: db}
}

func (r *TradeRepo) UpsertTrades(ctx context.Context, trades []models.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "trade_id"}},
		// Amount columns are deliberately absent: re-delivered events
		// must not change financial fields.
		DoUpdates: clause.AssignmentColumns([]string{
			"transaction_hash", "maker_address", "taker_address", "updated_at",
		}),
	}).Create(&trades).Error
	if err != nil {
		return fmt.Errorf("failed to upsert %d trades: %w", len(trades), err)
	}
	return nil
}
