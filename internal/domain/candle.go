package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MinSignalCandles is the minimum series length the signal generator
// needs before it can produce anything other than NoAction.
const MinSignalCandles = 10

// Candle represents one OHLCV record for a fixed time interval.
// All monetary values are decimals (KuCoin delivers them as strings).
type Candle struct {
	Time     time.Time       `json:"time"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	Volume   decimal.Decimal `json:"volume"`
	Turnover decimal.Decimal `json:"turnover"`
}

// Validate checks the OHLCV invariants of a single candle.
func (c Candle) Validate() error {
	if c.Low.GreaterThan(c.Open) || c.Low.GreaterThan(c.Close) {
		return fmt.Errorf("candle at %s: low %s above open/close", c.Time, c.Low)
	}
	if c.High.LessThan(c.Open) || c.High.LessThan(c.Close) {
		return fmt.Errorf("candle at %s: high %s below open/close", c.Time, c.High)
	}
	if c.Low.GreaterThan(c.High) {
		return fmt.Errorf("candle at %s: low %s above high %s", c.Time, c.Low, c.High)
	}
	if c.Volume.IsNegative() {
		return fmt.Errorf("candle at %s: negative volume %s", c.Time, c.Volume)
	}
	return nil
}

// CandleSeries is a validated, time-ordered (oldest first) sequence of
// candles. It is constructed fresh each cycle and read-only afterwards.
type CandleSeries struct {
	candles []Candle
}

// NewCandleSeries validates each candle and the strict timestamp ordering.
// An empty input is an error; callers represent "no data" with a nil series.
func NewCandleSeries(candles []Candle) (*CandleSeries, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("candle series must not be empty")
	}
	for i, c := range candles {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("candle %d: %w", i, err)
		}
		if i > 0 && !candles[i-1].Time.Before(c.Time) {
			return nil, fmt.Errorf("candle %d: timestamp %s not after %s",
				i, c.Time, candles[i-1].Time)
		}
	}
	s := &CandleSeries{candles: make([]Candle, len(candles))}
	copy(s.candles, candles)
	return s, nil
}

// Len returns the number of candles in the series.
func (s *CandleSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.candles)
}

// At returns the candle at index i (0 = oldest).
func (s *CandleSeries) At(i int) Candle {
	return s.candles[i]
}

// Last returns the most recent candle.
func (s *CandleSeries) Last() Candle {
	return s.candles[len(s.candles)-1]
}

// Closes returns the close prices, oldest first.
func (s *CandleSeries) Closes() []decimal.Decimal {
	if s == nil {
		return nil
	}
	closes := make([]decimal.Decimal, len(s.candles))
	for i, c := range s.candles {
		closes[i] = c.Close
	}
	return closes
}

// ClosesFloat64 returns the close prices as float64, oldest first.
// Only used at the indicator boundary (talib); the core never does
// money arithmetic on floats.
func (s *CandleSeries) ClosesFloat64() []float64 {
	if s == nil {
		return nil
	}
	closes := make([]float64, len(s.candles))
	for i, c := range s.candles {
		closes[i], _ = c.Close.Float64()
	}
	return closes
}
