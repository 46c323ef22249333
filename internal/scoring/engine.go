// Package scoring computes the deterministic suspicion score for an
// address from its aggregated trading history. Five weighted signals
// sum to a 0-100 score; the computation is pure so identical inputs
// always produce identical breakdowns.
package scoring

import "time"

// Signal weights and the suspicion cutoff
const (
	MaxWinRateScore      = 30
	MaxEarlyTradingScore = 25
	MaxTradeSizeScore    = 20
	MaxTimingScore       = 15
	MaxSelectivityScore  = 10

	SuspicionThreshold = 50

	// MinSettledForWinRate gates the win-rate signal: below this many
	// settled positions the rate is statistical noise.
	MinSettledForWinRate = 5
	// MinTradesForHistorySignals gates the early-trading, timing and
	// selectivity signals on total trade count.
	MinTradesForHistorySignals = 10

	// earlyWindowFraction bounds the leading slice of a market's life
	// in which a trade counts as early.
	earlyWindowFraction = 0.2
)

// TradeContext is the per-trade slice of an address's history the
// time-based signals read. Market timestamps are nil when the market
// is unknown or its lifecycle dates were never synced.
type TradeContext struct {
	Timestamp       time.Time
	MarketCreatedAt *time.Time
	MarketEndAt     *time.Time
}

// Input is everything the scorer needs about one address.
type Input struct {
	TotalTrades  int
	AvgTradeSize float64
	WinCount     int
	LossCount    int
	SettledCount int

	Trades []TradeContext

	DistinctMarkets    int
	TotalActiveMarkets int
}

// Breakdown is the scored result with per-signal components.
type Breakdown struct {
	WinRate      int
	EarlyTrading int
	TradeSize    int
	Timing       int
	Selectivity  int
	Total        int
	IsSuspicious bool
}

// Score computes the full suspicion breakdown for one address. The
// three history signals gate on total trade count, win-rate on settled
// count; a gated signal contributes a defined zero, never an error.
func Score(in Input) Breakdown {
	b := Breakdown{
		WinRate:   winRateScore(in.WinCount, in.LossCount, in.SettledCount),
		TradeSize: tradeSizeScore(in.AvgTradeSize),
	}
	if in.TotalTrades >= MinTradesForHistorySignals {
		b.EarlyTrading = earlyTradingScore(in.Trades)
		b.Timing = timingScore(in.Trades)
		b.Selectivity = selectivityScore(in.DistinctMarkets, in.TotalActiveMarkets)
	}

	total := b.WinRate + b.EarlyTrading + b.TradeSize + b.Timing + b.Selectivity
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}

	b.Total = total
	b.IsSuspicious = total >= SuspicionThreshold
	return b
}

// winRateScore rewards sustained win rates over a minimum settled
// sample. Addresses below the sample gate score zero regardless of
// rate.
func winRateScore(wins, losses, settled int) int {
	if settled < MinSettledForWinRate || wins+losses == 0 {
		return 0
	}

	rate := float64(wins) / float64(wins+losses) * 100

	switch {
	case rate >= 75:
		return 30
	case rate >= 70:
		return 25
	case rate >= 65:
		return 20
	case rate >= 60:
		return 15
	case rate >= 55:
		return 10
	case rate >= 45:
		return 5
	default:
		return 0
	}
}

// earlyTradingScore rewards concentration of trades in the first fifth
// of a market's lifetime. Trades whose market lifecycle dates are
// unknown are excluded from both numerator and denominator.
func earlyTradingScore(trades []TradeContext) int {
	eligible := 0
	early := 0
	for _, t := range trades {
		if t.MarketCreatedAt == nil || t.MarketEndAt == nil {
			continue
		}
		lifetime := t.MarketEndAt.Sub(*t.MarketCreatedAt)
		if lifetime <= 0 {
			continue
		}
		eligible++

		position := t.Timestamp.Sub(*t.MarketCreatedAt).Seconds() / lifetime.Seconds()
		if position < earlyWindowFraction {
			early++
		}
	}

	if eligible == 0 {
		return 0
	}

	pct := float64(early) / float64(eligible) * 100

	switch {
	case pct >= 50:
		return 25
	case pct >= 40:
		return 20
	case pct >= 30:
		return 15
	case pct >= 20:
		return 10
	case pct >= 10:
		return 5
	default:
		return 0
	}
}

// tradeSizeScore scales with average position size in dollars.
func tradeSizeScore(avg float64) int {
	switch {
	case avg >= 5000:
		return 20
	case avg >= 1000:
		return 15
	case avg >= 500:
		return 10
	case avg >= 100:
		return 5
	default:
		return 0
	}
}

// timingScore is inverse: the closer the average trade sits to its
// market's end, the higher the score. Only trades placed before a
// known market end qualify; no qualifying trades scores zero.
func timingScore(trades []TradeContext) int {
	var totalHours float64
	qualifying := 0

	for _, t := range trades {
		if t.MarketEndAt == nil {
			continue
		}
		lead := t.MarketEndAt.Sub(t.Timestamp)
		if lead <= 0 {
			continue
		}
		totalHours += lead.Hours()
		qualifying++
	}

	if qualifying == 0 {
		return 0
	}

	avgHours := totalHours / float64(qualifying)

	switch {
	case avgHours <= 48:
		return 15
	case avgHours <= 72:
		return 12
	case avgHours <= 120:
		return 9
	case avgHours <= 168:
		return 6
	case avgHours <= 240:
		return 3
	default:
		return 0
	}
}

// selectivityScore is inverse: trading a narrow slice of the active
// market universe scores high, broad participation scores zero.
func selectivityScore(distinctMarkets, totalActiveMarkets int) int {
	if totalActiveMarkets <= 0 {
		return 0
	}

	pct := float64(distinctMarkets) / float64(totalActiveMarkets) * 100

	switch {
	case pct <= 10:
		return 10
	case pct <= 20:
		return 8
	case pct <= 30:
		return 6
	case pct <= 40:
		return 4
	case pct <= 50:
		return 2
	default:
		return 0
	}
}
