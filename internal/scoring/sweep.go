package scoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/hon0319/polymarket-insights/internal/metrics"
	"github.com/hon0319/polymarket-insights/internal/models"
	"github.com/rs/zerolog"
)

// CommitBatchSize bounds how many addresses a sweep scores before
// committing, so a crash loses at most one sub-batch of updates.
const CommitBatchSize = 10

// Update carries one address's freshly computed breakdown back to the
// store.
type Update struct {
	AddressID uint
	Address   string
	Breakdown Breakdown
}

// Store supplies addresses and their scoring context and persists the
// results.
type Store interface {
	Addresses(ctx context.Context) ([]models.Address, error)
	TradeContexts(ctx context.Context, addressID uint) ([]TradeContext, error)
	DistinctMarketCount(ctx context.Context, addressID uint) (int, error)
	ActiveMarketCount(ctx context.Context) (int, error)
	// ApplyScores commits one sub-batch of updates atomically.
	ApplyScores(ctx context.Context, updates []Update) error
}

// Sweeper scores every known address in commit-bounded sub-batches.
type Sweeper struct {
	store   Store
	onScore func(address string, total int)
	logger  zerolog.Logger
}

// NewSweeper creates a new scoring sweeper
func NewSweeper(store Store, logger zerolog.Logger) (*Sweeper, error) {
	if store == nil {
		return nil, errors.New("scoring store is required")
	}
	return &Sweeper{
		store:  store,
		logger: logger.With().Str("component", "scoring").Logger(),
	}, nil
}

// OnScore registers a callback invoked with each address's committed
// total score, used for alert fan-out.
func (s *Sweeper) OnScore(fn func(address string, total int)) {
	s.onScore = fn
}

// Run scores all addresses. Updates commit every CommitBatchSize
// addresses; a failure mid-sweep keeps every previously committed
// sub-batch.
func (s *Sweeper) Run(ctx context.Context) (scored, suspicious int, err error) {
	addresses, err := s.store.Addresses(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load addresses: %w", err)
	}

	activeMarkets, err := s.store.ActiveMarketCount(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count active markets: %w", err)
	}

	pending := make([]Update, 0, CommitBatchSize)

	for _, addr := range addresses {
		input, err := s.buildInput(ctx, addr, activeMarkets)
		if err != nil {
			return scored, suspicious, err
		}

		breakdown := Score(input)
		pending = append(pending, Update{AddressID: addr.ID, Address: addr.Address, Breakdown: breakdown})

		if len(pending) >= CommitBatchSize {
			flagged, err := s.commit(ctx, pending)
			if err != nil {
				return scored, suspicious, err
			}
			scored += len(pending)
			suspicious += flagged
			pending = pending[:0]
		}
	}

	if len(pending) > 0 {
		flagged, err := s.commit(ctx, pending)
		if err != nil {
			return scored, suspicious, err
		}
		scored += len(pending)
		suspicious += flagged
	}

	metrics.SetSuspiciousAddresses(suspicious)

	s.logger.Info().
		Int("scored", scored).
		Int("suspicious", suspicious).
		Msg("Scoring sweep completed")

	return scored, suspicious, nil
}

// commit persists one sub-batch, then counts flagged addresses and
// fires the score callback, so both reflect only durably stored
// results.
func (s *Sweeper) commit(ctx context.Context, batch []Update) (int, error) {
	if err := s.store.ApplyScores(ctx, batch); err != nil {
		return 0, fmt.Errorf("failed to commit score batch: %w", err)
	}
	metrics.RecordAddressesScored(len(batch))

	flagged := 0
	for _, u := range batch {
		if u.Breakdown.IsSuspicious {
			flagged++
		}
		if s.onScore != nil {
			s.onScore(u.Address, u.Breakdown.Total)
		}
	}
	return flagged, nil
}

func (s *Sweeper) buildInput(ctx context.Context, addr models.Address, activeMarkets int) (Input, error) {
	contexts, err := s.store.TradeContexts(ctx, addr.ID)
	if err != nil {
		return Input{}, fmt.Errorf("failed to load trade contexts for address %d: %w", addr.ID, err)
	}

	distinct, err := s.store.DistinctMarketCount(ctx, addr.ID)
	if err != nil {
		return Input{}, fmt.Errorf("failed to count markets for address %d: %w", addr.ID, err)
	}

	return Input{
		TotalTrades:        addr.TotalTrades,
		AvgTradeSize:       addr.AvgTradeSize,
		WinCount:           addr.WinCount,
		LossCount:          addr.LossCount,
		SettledCount:       addr.SettledCount,
		Trades:             contexts,
		DistinctMarkets:    distinct,
		TotalActiveMarkets: activeMarkets,
	}, nil
}
