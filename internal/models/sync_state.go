package models

import (
	"time"

	"gorm.io/gorm"
)

// SyncStatus is the run state of a sync job.
type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncRunning SyncStatus = "running"
	SyncError   SyncStatus = "error"
)

// SyncState is the durable cursor of an incremental sync job, one row
// per service. LastTimestamp is monotonically non-decreasing across
// successful batches and is the sole resumption point after a crash.
type SyncState struct {
	gorm.Model
	ServiceName    string     `gorm:"size:100;uniqueIndex;not null"`
	LastTimestamp  int64      `gorm:"default:0;not null"` // unix seconds, inclusive lower bound for next pull
	Status         SyncStatus `gorm:"size:20;default:idle;not null"`
	ErrorMessage   *string    `gorm:"type:text"`
	TotalProcessed int64      `gorm:"default:0;not null"`
	LastBatchSize  int        `gorm:"default:0;not null"`
	LastSyncAt     time.Time
}
