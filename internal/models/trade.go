package models

import (
	"time"

	"gorm.io/gorm"
)

// TradeSide is the outcome token side of a fill (YES/NO).
type TradeSide string

const (
	SideYes TradeSide = "YES"
	SideNo  TradeSide = "NO"
)

// LegSide is the buy/sell direction of a single address leg.
type LegSide string

const (
	LegBuy  LegSide = "buy"
	LegSell LegSide = "sell"
)

// USDCDecimals is the number of decimals of the quote asset. All raw
// amounts coming off the subgraph are integers in these base units.
const USDCDecimals = 1_000_000

// ToUSD converts a raw quote-asset amount to dollars.
func ToUSD(raw int64) float64 {
	return float64(raw) / float64(USDCDecimals)
}

// Trade is a normalized order-fill event. TradeID carries the
// source-assigned event id and is the idempotence key: re-ingesting the
// same event updates only denormalized fields, never amounts.
type Trade struct {
	gorm.Model
	TradeID         string    `gorm:"size:255;uniqueIndex;not null"`
	TransactionHash string    `gorm:"size:120;index"`
	Timestamp       time.Time `gorm:"index;not null"`
	MarketID        *uint     `gorm:"index"`
	MakerAddress    string    `gorm:"size:64;index;not null"`
	TakerAddress    string    `gorm:"size:64;index;not null"`
	MakerAssetID    string    `gorm:"size:255"`
	TakerAssetID    string    `gorm:"size:255"`
	MakerAmount     int64
	TakerAmount     int64
	Side            TradeSide `gorm:"size:3;not null"`
	Price           int       // cents
	Amount          int64     // quote-asset notional, raw base units
	Fee             int64
	IsWhale         bool `gorm:"default:false;not null"`
}

// AddressTrade is one participation leg of a trade from a single
// address's perspective. Every trade with a known market yields two
// legs (maker and taker) with distinct deterministic tx hashes.
type AddressTrade struct {
	gorm.Model
	AddressID uint      `gorm:"index;not null"`
	MarketID  uint      `gorm:"index;not null"`
	TxHash    string    `gorm:"size:80;uniqueIndex;not null"`
	Amount    float64   // dollars
	Price     int       // cents
	Side      LegSide   `gorm:"size:4;not null"`
	Timestamp time.Time `gorm:"index;not null"`
	IsWhale   bool      `gorm:"default:false;not null"`

	Address Address `gorm:"foreignKey:AddressID"`
	Market  Market  `gorm:"foreignKey:MarketID"`
}
