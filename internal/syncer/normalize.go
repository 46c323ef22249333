package syncer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hon0319/polymarket-insights/internal/models"
	"github.com/hon0319/polymarket-insights/internal/subgraph"
)

// SideResolver maps a fill event's asset ids to an outcome side. It is
// a swappable strategy so the asset-id heuristic can be replaced by a
// market-aware resolver without touching the ingestion loop.
type SideResolver func(makerAssetID, takerAssetID string) models.TradeSide

// AssetOrderSide assumes the lower asset id is the YES token. This is
// an approximation; resolving against actual outcome-token identity
// requires market data the orderbook subgraph does not carry.
func AssetOrderSide(makerAssetID, takerAssetID string) models.TradeSide {
	if makerAssetID < takerAssetID {
		return models.SideYes
	}
	return models.SideNo
}

// Normalizer converts raw fill events into trade rows.
type Normalizer struct {
	ResolveSide         SideResolver
	WhaleTradeThreshold float64 // dollars
}

// NewNormalizer creates a Normalizer with the default side heuristic
func NewNormalizer(whaleTradeThreshold float64) Normalizer {
	return Normalizer{
		ResolveSide:         AssetOrderSide,
		WhaleTradeThreshold: whaleTradeThreshold,
	}
}

// Trade normalizes a single fill event. Addresses are lower-cased for
// case-insensitive identity; price is the taker/maker ratio in cents;
// amount is the quote-asset notional (taker amount filled).
func (n Normalizer) Trade(ev subgraph.OrderFilledEvent) (models.Trade, error) {
	if ev.ID == "" {
		return models.Trade{}, fmt.Errorf("event has no id")
	}

	ts := ev.UnixTimestamp()
	if ts <= 0 {
		return models.Trade{}, fmt.Errorf("event %s has invalid timestamp %q", ev.ID, ev.Timestamp)
	}

	makerAmount, err := strconv.ParseInt(ev.MakerAmountFilled, 10, 64)
	if err != nil {
		return models.Trade{}, fmt.Errorf("event %s has invalid makerAmountFilled %q", ev.ID, ev.MakerAmountFilled)
	}

	takerAmount, err := strconv.ParseInt(ev.TakerAmountFilled, 10, 64)
	if err != nil {
		return models.Trade{}, fmt.Errorf("event %s has invalid takerAmountFilled %q", ev.ID, ev.TakerAmountFilled)
	}

	fee := int64(0)
	if ev.Fee != "" {
		fee, err = strconv.ParseInt(ev.Fee, 10, 64)
		if err != nil {
			return models.Trade{}, fmt.Errorf("event %s has invalid fee %q", ev.ID, ev.Fee)
		}
	}

	price := 0
	if makerAmount > 0 {
		price = int(math.Round(float64(takerAmount) / float64(makerAmount) * 100))
	}

	return models.Trade{
		TradeID:         ev.ID,
		TransactionHash: ev.TransactionHash,
		Timestamp:       time.Unix(ts, 0).UTC(),
		MakerAddress:    strings.ToLower(ev.Maker),
		TakerAddress:    strings.ToLower(ev.Taker),
		MakerAssetID:    ev.MakerAssetID,
		TakerAssetID:    ev.TakerAssetID,
		MakerAmount:     makerAmount,
		TakerAmount:     takerAmount,
		Side:            n.ResolveSide(ev.MakerAssetID, ev.TakerAssetID),
		Price:           price,
		Amount:          takerAmount,
		Fee:             fee,
		IsWhale:         models.ToUSD(takerAmount) >= n.WhaleTradeThreshold,
	}, nil
}
