package models

import (
	"time"

	"gorm.io/gorm"
)

// Address aggregates the trading history of a single wallet. The
// counter fields are rebuilt from AddressTrade rows on every
// aggregation pass rather than incremented, so replays cannot drift.
type Address struct {
	gorm.Model
	Address      string    `gorm:"size:64;uniqueIndex;not null"`
	TotalTrades  int       `gorm:"default:0;not null"`
	TotalVolume  float64   `gorm:"default:0;not null"` // buy-side notional, dollars
	AvgTradeSize float64   `gorm:"default:0;not null"`
	WinCount     int       `gorm:"default:0;not null"`
	LossCount    int       `gorm:"default:0;not null"`
	SettledCount int       `gorm:"default:0;not null"`
	FirstSeenAt  time.Time
	LastActiveAt time.Time `gorm:"index"`
	IsWhale      bool      `gorm:"default:false;not null"`

	// Suspicion score breakdown, recomputed by the scoring sweep.
	WinRateScore      int  `gorm:"default:0;not null"`
	EarlyTradingScore int  `gorm:"default:0;not null"`
	TradeSizeScore    int  `gorm:"default:0;not null"`
	TimingScore       int  `gorm:"default:0;not null"`
	SelectivityScore  int  `gorm:"default:0;not null"`
	SuspicionScore    int  `gorm:"default:0;not null;index"`
	IsSuspicious      bool `gorm:"default:false;not null"`

	Trades []AddressTrade `gorm:"foreignKey:AddressID"`
}
