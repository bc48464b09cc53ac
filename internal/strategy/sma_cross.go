package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/FKdevelopers254/automatedbotrader/internal/domain"
)

// Default crossover windows.
const (
	FastWindow = 5
	SlowWindow = 10
)

// SMACross is a confirmed simple-moving-average crossover strategy.
// It is stateless: every call recomputes the averages from the series,
// so the same series always yields the same signal.
type SMACross struct {
	fast int
	slow int
}

// NewSMACross creates a crossover strategy. The fast window must be
// strictly shorter than the slow window; that is a wiring bug, so it panics.
func NewSMACross(fast, slow int) *SMACross {
	if fast <= 0 || fast >= slow {
		panic("strategy: fast window must be positive and less than slow window")
	}
	return &SMACross{fast: fast, slow: slow}
}

// Generate evaluates the crossover on closing prices.
//
// With at least slow+1 candles it requires a confirmed cross: the fast
// average must be strictly below the slow average at the previous candle
// and strictly above it at the latest one for a Buy (mirrored for Sell).
// Equality at either candle confirms nothing and yields NoAction.
// With exactly slow candles only the latest averages exist, so it falls
// back to a strict level comparison. Fewer candles produce NoAction.
func (s *SMACross) Generate(series *domain.CandleSeries) domain.Signal {
	n := series.Len()
	if n < s.slow {
		return domain.NoAction
	}

	closes := series.Closes()
	fastNow := sma(closes, n-1, s.fast)
	slowNow := sma(closes, n-1, s.slow)

	if n == s.slow {
		// No previous slow average exists yet.
		switch {
		case fastNow.GreaterThan(slowNow):
			return domain.Buy
		case fastNow.LessThan(slowNow):
			return domain.Sell
		default:
			return domain.NoAction
		}
	}

	fastPrev := sma(closes, n-2, s.fast)
	slowPrev := sma(closes, n-2, s.slow)

	if fastPrev.LessThan(slowPrev) && fastNow.GreaterThan(slowNow) {
		return domain.Buy
	}
	if fastPrev.GreaterThan(slowPrev) && fastNow.LessThan(slowNow) {
		return domain.Sell
	}
	return domain.NoAction
}

// sma averages the window closing at index end (inclusive).
func sma(closes []decimal.Decimal, end, window int) decimal.Decimal {
	sum := decimal.Zero
	for i := end - window + 1; i <= end; i++ {
		sum = sum.Add(closes[i])
	}
	return sum.Div(decimal.NewFromInt(int64(window)))
}
