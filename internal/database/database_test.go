package database

import (
	"os"
	"testing"

	"github.com/hon0319/polymarket-insights/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectWithMissingEnvVars(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("DB_PORT", "")

	db, err := Connect()
	assert.Error(t, err, "Connect should fail when environment variables are missing")
	assert.Nil(t, db)
}

func TestConnectAndMigrate(t *testing.T) {
	if os.Getenv("RUN_DB_TESTS") != "true" {
		t.Skip("Skipping database connection test. Set RUN_DB_TESTS=true to enable.")
	}

	db, err := Connect()
	require.NoError(t, err)

	for _, model := range []interface{}{
		&models.Market{},
		&models.MarketToken{},
		&models.Address{},
		&models.Trade{},
		&models.AddressTrade{},
		&models.SyncState{},
	} {
		assert.True(t, db.Migrator().HasTable(model), "expected migrated table for %T", model)
	}
}
