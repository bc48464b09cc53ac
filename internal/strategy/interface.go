package strategy

import (
	"github.com/FKdevelopers254/automatedbotrader/internal/domain"
)

// Strategy turns a candle series into a trading signal.
// Implementations must be deterministic: the same series always
// produces the same signal.
type Strategy interface {
	Generate(series *domain.CandleSeries) domain.Signal
}
