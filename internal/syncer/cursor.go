package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hon0319/polymarket-insights/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CursorStore persists the durable resumption point of a sync job.
type CursorStore interface {
	// Get returns the cursor for a service, with LastTimestamp 0 when
	// no row exists yet.
	Get(ctx context.Context, serviceName string) (models.SyncState, error)
	// Set atomically upserts the cursor row keyed by serviceName. It
	// must be called only after the corresponding trade batch is
	// durably committed.
	Set(ctx context.Context, serviceName string, lastTimestamp, totalProcessed int64, batchSize int, status models.SyncStatus, errorMessage *string) error
}

// SyncStateRepo is the gorm-backed CursorStore.
type SyncStateRepo struct {
	db *gorm.DB
}

// NewSyncStateRepo creates a new SyncStateRepo
func NewSyncStateRepo(db *gorm.DB) *SyncStateRepo {
	return &SyncStateRepo{db: db}
}

func (r *SyncStateRepo) Get(ctx context.Context, serviceName string) (models.SyncState, error) {
	var state models.SyncState
	err := r.db.WithContext(ctx).Where("service_name = ?", serviceName).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.SyncState{ServiceName: serviceName, Status: models.SyncIdle}, nil
	}
	if err != nil {
		return models.SyncState{}, fmt.Errorf("failed to get sync state for %s: %w", serviceName, err)
	}
	return state, nil
}

func (r *SyncStateRepo) Set(ctx context.Context, serviceName string, lastTimestamp, totalProcessed int64, batchSize int, status models.SyncStatus, errorMessage *string) error {
	state := models.SyncState{
		ServiceName:    serviceName,
		LastTimestamp:  lastTimestamp,
		Status:         status,
		ErrorMessage:   errorMessage,
		TotalProcessed: totalProcessed,
		LastBatchSize:  batchSize,
		LastSyncAt:     time.Now().UTC(),
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "service_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_timestamp", "status", "error_message",
			"total_processed", "last_batch_size", "last_sync_at", "updated_at",
		}),
	}).Create(&state).Error
	if err != nil {
		return fmt.Errorf("failed to upsert sync state for %s: %w", serviceName, err)
	}
	return nil
}
