package database

import (
	"fmt"
	"os"
	"time"

	"github.com/hon0319/polymarket-insights/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect() (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	config := &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Silent),
		PrepareStmt: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	// Set connection pool limits
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Migrate database schema
	if err := migrateSchema(db); err != nil {
		return nil, err
	}

	return db, nil
}

func migrateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Market{},
		&models.MarketToken{},
		&models.Address{},
		&models.Trade{},
		&models.AddressTrade{},
		&models.SyncState{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Add composite indexes for common query patterns
	db.Exec("CREATE INDEX IF NOT EXISTS idx_address_trades_address_timestamp ON address_trades(address_id, timestamp)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_address_trades_market_side ON address_trades(market_id, side)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_trades_whale_timestamp ON trades(timestamp) WHERE is_whale = true")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_addresses_suspicious_score ON addresses(suspicion_score) WHERE is_suspicious = true")

	return nil
}
