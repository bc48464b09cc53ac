// Package risk evaluates open positions against protective exit thresholds.
package risk

import "github.com/shopspring/decimal"

// ExitKind classifies the outcome of a risk evaluation.
type ExitKind int

const (
	ExitNone ExitKind = iota
	ExitStopLoss
	ExitTakeProfit
)

func (k ExitKind) String() string {
	switch k {
	case ExitStopLoss:
		return "STOP_LOSS"
	case ExitTakeProfit:
		return "TAKE_PROFIT"
	default:
		return "NONE"
	}
}

// ExitSignal is a triggered protective exit. TriggerPrice is the
// threshold that fired, not the market price at evaluation time.
type ExitSignal struct {
	Kind         ExitKind
	TriggerPrice decimal.Decimal
}

// Monitor holds the protective thresholds as fractions of entry price,
// e.g. stop 0.02 and take 0.05 mean exit at -2% or +5%. A zero or
// negative fraction disables that side.
type Monitor struct {
	StopLossPct   decimal.Decimal
	TakeProfitPct decimal.Decimal
}

func NewMonitor(stopLossPct, takeProfitPct decimal.Decimal) *Monitor {
	return &Monitor{StopLossPct: stopLossPct, TakeProfitPct: takeProfitPct}
}

// Evaluate checks the current price of an open long position against
// both thresholds. The stop-loss is checked first; capital protection
// outranks profit taking.
func (m *Monitor) Evaluate(entryPrice, currentPrice decimal.Decimal) ExitSignal {
	one := decimal.NewFromInt(1)

	if m.StopLossPct.IsPositive() {
		stop := entryPrice.Mul(one.Sub(m.StopLossPct))
		if currentPrice.LessThanOrEqual(stop) {
			return ExitSignal{Kind: ExitStopLoss, TriggerPrice: stop}
		}
	}

	if m.TakeProfitPct.IsPositive() {
		take := entryPrice.Mul(one.Add(m.TakeProfitPct))
		if currentPrice.GreaterThanOrEqual(take) {
			return ExitSignal{Kind: ExitTakeProfit, TriggerPrice: take}
		}
	}

	return ExitSignal{Kind: ExitNone}
}
