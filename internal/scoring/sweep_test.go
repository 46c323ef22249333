package scoring

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hon0319/polymarket-insights/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScoreStore struct {
	addresses     []models.Address
	activeMarkets int
	batches       [][]Update
	failOnBatch   int // 1-based, 0 disables
}

func (f *fakeScoreStore) Addresses(ctx context.Context) ([]models.Address, error) {
	return f.addresses, nil
}

func (f *fakeScoreStore) TradeContexts(ctx context.Context, addressID uint) ([]TradeContext, error) {
	return nil, nil
}

func (f *fakeScoreStore) DistinctMarketCount(ctx context.Context, addressID uint) (int, error) {
	return 1, nil
}

func (f *fakeScoreStore) ActiveMarketCount(ctx context.Context) (int, error) {
	return f.activeMarkets, nil
}

func (f *fakeScoreStore) ApplyScores(ctx context.Context, updates []Update) error {
	if f.failOnBatch > 0 && len(f.batches)+1 == f.failOnBatch {
		return errors.New("connection lost")
	}
	batch := make([]Update, len(updates))
	copy(batch, updates)
	f.batches = append(f.batches, batch)
	return nil
}

func makeAddresses(n int) []models.Address {
	addresses := make([]models.Address, 0, n)
	for i := 0; i < n; i++ {
		addr := models.Address{Address: fmt.Sprintf("0xaddr%03d", i)}
		addr.ID = uint(i + 1)
		addresses = append(addresses, addr)
	}
	return addresses
}

func TestSweepCommitsInSubBatches(t *testing.T) {
	store := &fakeScoreStore{addresses: makeAddresses(23), activeMarkets: 10}

	sweeper, err := NewSweeper(store, zerolog.Nop())
	require.NoError(t, err)

	scored, _, err := sweeper.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 23, scored)
	require.Len(t, store.batches, 3)
	assert.Len(t, store.batches[0], 10)
	assert.Len(t, store.batches[1], 10)
	assert.Len(t, store.batches[2], 3)
}

func TestSweepFailureKeepsCommittedBatches(t *testing.T) {
	store := &fakeScoreStore{addresses: makeAddresses(25), activeMarkets: 10, failOnBatch: 2}

	sweeper, err := NewSweeper(store, zerolog.Nop())
	require.NoError(t, err)

	scored, _, err := sweeper.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, 10, scored)
	assert.Len(t, store.batches, 1)
}

func TestSweepFlagsSuspiciousAddresses(t *testing.T) {
	suspicious := models.Address{
		Address:      "0xsuspect",
		WinCount:     8,
		LossCount:    2,
		SettledCount: 10,
		AvgTradeSize: 6000,
	}
	suspicious.ID = 1
	clean := models.Address{Address: "0xclean"}
	clean.ID = 2

	store := &fakeScoreStore{addresses: []models.Address{suspicious, clean}}

	sweeper, err := NewSweeper(store, zerolog.Nop())
	require.NoError(t, err)

	scored, flagged, err := sweeper.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, scored)
	assert.Equal(t, 1, flagged)

	require.Len(t, store.batches, 1)
	assert.True(t, store.batches[0][0].Breakdown.IsSuspicious)
	assert.False(t, store.batches[0][1].Breakdown.IsSuspicious)
}

func TestSweepSuspiciousCountReflectsOnlyCommittedBatches(t *testing.T) {
	// 12 addresses that all score suspicious; the second sub-batch
	// fails to commit, so only the first 10 may be counted.
	addresses := make([]models.Address, 0, 12)
	for i := 0; i < 12; i++ {
		addr := models.Address{
			Address:      fmt.Sprintf("0xsuspect%03d", i),
			WinCount:     8,
			LossCount:    2,
			SettledCount: 10,
			AvgTradeSize: 6000,
		}
		addr.ID = uint(i + 1)
		addresses = append(addresses, addr)
	}

	store := &fakeScoreStore{addresses: addresses, failOnBatch: 2}

	sweeper, err := NewSweeper(store, zerolog.Nop())
	require.NoError(t, err)

	scored, suspicious, err := sweeper.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, 10, scored)
	assert.Equal(t, 10, suspicious)
}

func TestSweepScoreCallbackFiresAfterCommit(t *testing.T) {
	store := &fakeScoreStore{addresses: makeAddresses(12), failOnBatch: 2}

	sweeper, err := NewSweeper(store, zerolog.Nop())
	require.NoError(t, err)

	var notified []string
	sweeper.OnScore(func(address string, total int) {
		notified = append(notified, address)
	})

	_, _, err = sweeper.Run(context.Background())
	require.Error(t, err)

	// Only the first committed sub-batch produced callbacks.
	assert.Len(t, notified, 10)
}

func TestNewSweeperRequiresStore(t *testing.T) {
	_, err := NewSweeper(nil, zerolog.Nop())
	assert.Error(t, err)
}
