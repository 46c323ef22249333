package aggregator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hon0319/polymarket-insights/internal/models"
	"github.com/hon0319/polymarket-insights/internal/subgraph"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const marketPageSize = 1000

// MarketSource pulls market pages from the positions subgraph.
type MarketSource interface {
	Markets(ctx context.Context, skip, limit int) ([]subgraph.Market, error)
}

// SyncMarketResolutions pages through the positions subgraph and
// upserts every market by condition id, carrying resolution state and
// the lifecycle timestamps the scoring signals read.
func (s *Service) SyncMarketResolutions(ctx context.Context, source MarketSource) (int, error) {
	total := 0

	for skip := 0; ; skip += marketPageSize {
		page, err := source.Markets(ctx, skip, marketPageSize)
		if err != nil {
			return total, fmt.Errorf("failed to fetch markets at offset %d: %w", skip, err)
		}
		if len(page) == 0 {
			break
		}

		rows := make([]models.Market, 0, len(page))
		tokens := make(map[string][]string, len(page)) // condition id -> token ids
		for _, m := range page {
			if m.ConditionID == "" {
				continue
			}
			rows = append(rows, marketRow(m))
			if len(m.TokenIDs) > 0 {
				tokens[m.ConditionID] = m.TokenIDs
			}
		}

		if len(rows) > 0 {
			err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "condition_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"question", "market_created_at", "end_date",
					"resolved", "outcome", "updated_at",
				}),
			}).Create(&rows).Error
			if err != nil {
				return total, fmt.Errorf("failed to upsert markets: %w", err)
			}

			if err := s.upsertMarketTokens(ctx, tokens); err != nil {
				return total, err
			}
		}

		total += len(rows)
		if len(page) < marketPageSize {
			break
		}
	}

	s.logger.Info().Int("markets", total).Msg("Market resolution sync completed")
	return total, nil
}

// upsertMarketTokens records the outcome-token mapping for each market
// so trade rows can be linked by asset id.
func (s *Service) upsertMarketTokens(ctx context.Context, tokens map[string][]string) error {
	if len(tokens) == 0 {
		return nil
	}

	conditionIDs := make([]string, 0, len(tokens))
	for conditionID := range tokens {
		conditionIDs = append(conditionIDs, conditionID)
	}

	var markets []models.Market
	if err := s.db.WithContext(ctx).Where("condition_id IN ?", conditionIDs).Find(&markets).Error; err != nil {
		return fmt.Errorf("failed to resolve market ids for tokens: %w", err)
	}

	rows := make([]models.MarketToken, 0, len(tokens)*2)
	for _, market := range markets {
		for _, tokenID := range tokens[market.ConditionID] {
			if tokenID == "" || tokenID == "0" {
				continue
			}
			rows = append(rows, models.MarketToken{TokenID: tokenID, MarketID: market.ID})
		}
	}
	if len(rows) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"market_id", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to upsert market tokens: %w", err)
	}
	return nil
}

// LinkTradeMarkets fills market_id on trades whose maker or taker
// asset matches a known outcome token. Idempotent: already linked
// trades are untouched.
func (s *Service) LinkTradeMarkets(ctx context.Context) (int, error) {
	result := s.db.WithContext(ctx).Exec(`
		UPDATE trades SET market_id = mt.market_id
		FROM market_tokens mt
		WHERE trades.market_id IS NULL
		  AND (trades.maker_asset_id = mt.token_id OR trades.taker_asset_id = mt.token_id)
	`)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to link trades to markets: %w", result.Error)
	}

	linked := int(result.RowsAffected)
	if linked > 0 {
		s.logger.Info().Int("linked", linked).Msg("Linked trades to markets")
	}
	return linked, nil
}

func marketRow(m subgraph.Market) models.Market {
	row := models.Market{
		ConditionID: m.ConditionID,
		Question:    m.Question,
		Resolved:    m.Resolved,
		IsActive:    !m.Resolved,
	}

	if ts := m.CreatedAtUnix(); ts > 0 {
		created := time.Unix(ts, 0).UTC()
		row.MarketCreatedAt = &created
	}
	if ts := m.EndDateUnix(); ts > 0 {
		end := time.Unix(ts, 0).UTC()
		row.EndDate = &end
	}
	if outcome := normalizeOutcome(m.WinningOutcome()); outcome != "" {
		row.Outcome = &outcome
	}

	return row
}

// normalizeOutcome maps subgraph outcome labels onto the canonical
// YES/NO values; anything else is dropped so attribution stays binary.
func normalizeOutcome(label string) string {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "YES":
		return string(models.SideYes)
	case "NO":
		return string(models.SideNo)
	default:
		return ""
	}
}

// MarketResult classifies one address's net position in one settled
// market.
type MarketResult int

// Net position outcomes in a settled market
const (
	ResultNeutral MarketResult = iota
	ResultWin
	ResultLoss
)

// NetPositionResult decides whether a net position won its market. A
// net buyer wins when YES resolves, a net seller wins when NO resolves,
// and a flat position is neutral and does not settle.
func NetPositionResult(netBuy float64, outcome string) MarketResult {
	if netBuy == 0 {
		return ResultNeutral
	}

	wonYes := outcome == string(models.SideYes)
	if (netBuy > 0) == wonYes {
		return ResultWin
	}
	return ResultLoss
}

// RecomputeOutcomes rebuilds every address's win, loss and settled
// counters from its legs in resolved markets. Unresolved markets and
// flat positions contribute nothing.
func (s *Service) RecomputeOutcomes(ctx context.Context) (int, error) {
	var markets []models.Market
	err := s.db.WithContext(ctx).
		Where("resolved = ? AND outcome IS NOT NULL", true).
		Find(&markets).Error
	if err != nil {
		return 0, fmt.Errorf("failed to load resolved markets: %w", err)
	}

	type tally struct {
		wins, losses, settled int
	}
	tallies := make(map[uint]*tally)

	for _, market := range markets {
		var legs []models.AddressTrade
		if err := s.db.WithContext(ctx).Where("market_id = ?", market.ID).Find(&legs).Error; err != nil {
			return 0, fmt.Errorf("failed to load legs for market %d: %w", market.ID, err)
		}

		netBuy := make(map[uint]float64)
		for _, leg := range legs {
			if leg.Side == models.LegBuy {
				netBuy[leg.AddressID] += leg.Amount
			} else {
				netBuy[leg.AddressID] -= leg.Amount
			}
		}

		for addressID, net := range netBuy {
			t := tallies[addressID]
			if t == nil {
				t = &tally{}
				tallies[addressID] = t
			}

			switch NetPositionResult(net, *market.Outcome) {
			case ResultWin:
				t.wins++
				t.settled++
			case ResultLoss:
				t.losses++
				t.settled++
			}
		}
	}

	updated := 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Full rebuild: addresses without settled positions reset to zero.
		if err := tx.Model(&models.Address{}).
			Where("settled_count > 0 OR win_count > 0 OR loss_count > 0").
			Updates(map[string]interface{}{"win_count": 0, "loss_count": 0, "settled_count": 0}).Error; err != nil {
			return fmt.Errorf("failed to reset outcome counters: %w", err)
		}

		for addressID, t := range tallies {
			if t.settled == 0 {
				continue
			}
			err := tx.Model(&models.Address{}).Where("id = ?", addressID).Updates(map[string]interface{}{
				"win_count":     t.wins,
				"loss_count":    t.losses,
				"settled_count": t.settled,
			}).Error
			if err != nil {
				return fmt.Errorf("failed to update outcomes for address %d: %w", addressID, err)
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info().
		Int("resolved_markets", len(markets)).
		Int("addresses", updated).
		Msg("Recomputed settled outcomes")

	return updated, nil
}
