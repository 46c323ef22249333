package aggregator

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/hon0319/polymarket-insights/internal/models"
)

// LegTxHash derives a deterministic per-leg hash from the trade id so
// the maker and taker legs of one trade never collide on the unique
// tx_hash constraint.
func LegTxHash(tradeID, leg string) string {
	sum := sha256.Sum256([]byte(tradeID + ":" + leg))
	return "0x" + hex.EncodeToString(sum[:])
}

// TakerLegSide maps the trade's outcome side to the taker's buy/sell
// action; the maker always takes the opposite economic position.
func TakerLegSide(side models.TradeSide) models.LegSide {
	if side == models.SideYes {
		return models.LegBuy
	}
	return models.LegSell
}

// MakerLegSide is the opposite of the taker mapping.
func MakerLegSide(side models.TradeSide) models.LegSide {
	if TakerLegSide(side) == models.LegBuy {
		return models.LegSell
	}
	return models.LegBuy
}

// Legs explodes a trade into its maker and taker participation legs.
// The caller resolves the market and address ids; trades that cannot
// be resolved are skipped upstream, never inserted with null keys.
func Legs(trade models.Trade, marketID, makerAddressID, takerAddressID uint, whaleTradeThreshold float64) [2]models.AddressTrade {
	makerAmount := models.ToUSD(trade.MakerAmount)
	takerAmount := models.ToUSD(trade.TakerAmount)

	return [2]models.AddressTrade{
		{
			AddressID: makerAddressID,
			MarketID:  marketID,
			TxHash:    LegTxHash(trade.TradeID, "maker"),
			Amount:    makerAmount,
			Price:     trade.Price,
			Side:      MakerLegSide(trade.Side),
			Timestamp: trade.Timestamp,
			IsWhale:   makerAmount >= whaleTradeThreshold,
		},
		{
			AddressID: takerAddressID,
			MarketID:  marketID,
			TxHash:    LegTxHash(trade.TradeID, "taker"),
			Amount:    takerAmount,
			Price:     trade.Price,
			Side:      TakerLegSide(trade.Side),
			Timestamp: trade.Timestamp,
			IsWhale:   takerAmount >= whaleTradeThreshold,
		},
	}
}

// Aggregate is a freshly recomputed set of per-address counters.
type Aggregate struct {
	TotalTrades  int
	TotalVolume  float64
	AvgTradeSize float64
	LastActiveAt int64 // unix seconds, 0 when the address has no legs
}

// ComputeAggregate rebuilds an address's counters from its full leg
// set. Rebuilding from source rows instead of accumulating deltas
// keeps replayed ingestion from drifting the totals.
func ComputeAggregate(legs []models.AddressTrade) Aggregate {
	agg := Aggregate{TotalTrades: len(legs)}
	if len(legs) == 0 {
		return agg
	}

	var sum float64
	for _, leg := range legs {
		sum += leg.Amount
		if leg.Side == models.LegBuy {
			agg.TotalVolume += leg.Amount
		}
		if ts := leg.Timestamp.Unix(); ts > agg.LastActiveAt {
			agg.LastActiveAt = ts
		}
	}
	agg.AvgTradeSize = sum / float64(len(legs))

	return agg
}
