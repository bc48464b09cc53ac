package strategy

import (
	"github.com/markcheno/go-talib"

	"github.com/FKdevelopers254/automatedbotrader/internal/domain"
)

// Indicator parameters for the per-cycle snapshot.
const (
	rsiPeriod  = 14
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
)

// IndicatorSnapshot carries supplementary indicator values computed
// alongside the crossover signal. It is informational only and never
// influences order decisions; reports and the journal record it.
type IndicatorSnapshot struct {
	Ready      bool // false when the series is too short
	RSI        float64
	MACD       float64
	MACDSignal float64
	MACDHist   float64
}

// Indicators computes the snapshot for a series. Indicator math runs in
// float64 because talib requires it; the values are diagnostics, not
// ledger amounts.
func Indicators(series *domain.CandleSeries) IndicatorSnapshot {
	closes := series.ClosesFloat64()

	// MACD has the longest warmup: slow EMA plus signal EMA.
	if len(closes) < macdSlow+macdSignal {
		return IndicatorSnapshot{}
	}

	rsi := talib.Rsi(closes, rsiPeriod)
	macd, signal, hist := talib.Macd(closes, macdFast, macdSlow, macdSignal)

	last := len(closes) - 1
	return IndicatorSnapshot{
		Ready:      true,
		RSI:        rsi[last],
		MACD:       macd[last],
		MACDSignal: signal[last],
		MACDHist:   hist[last],
	}
}
