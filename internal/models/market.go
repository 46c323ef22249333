package models

import (
	"time"

	"gorm.io/gorm"
)

// Market is a prediction market. CreatedAt (from gorm.Model) tracks the
// local row, while MarketCreatedAt/EndDate carry the market lifecycle
// timestamps used by the early-trading and timing signals.
type Market struct {
	gorm.Model
	ConditionID     string `gorm:"size:255;uniqueIndex;not null"`
	Question        string `gorm:"type:text"`
	Category        string `gorm:"size:100"`
	MarketCreatedAt *time.Time
	EndDate         *time.Time `gorm:"index"`
	Resolved        bool       `gorm:"default:false;not null;index"`
	Outcome         *string    `gorm:"size:32"` // winning outcome label, nil until resolved
	IsActive        bool       `gorm:"default:true;not null"`
}

// MarketToken maps an outcome token id to its market. Fill events
// reference tokens, not markets, so this table is how trades get
// linked to a market row.
type MarketToken struct {
	gorm.Model
	TokenID  string `gorm:"size:128;uniqueIndex;not null"`
	MarketID uint   `gorm:"not null;index"`
}
