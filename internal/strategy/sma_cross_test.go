package strategy_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FKdevelopers254/automatedbotrader/internal/domain"
	"github.com/FKdevelopers254/automatedbotrader/internal/strategy"
)

func series(t *testing.T, closes ...string) *domain.CandleSeries {
	t.Helper()
	candles := make([]domain.Candle, len(closes))
	for i, s := range closes {
		c, err := decimal.NewFromString(s)
		if err != nil {
			t.Fatalf("bad close %q: %v", s, err)
		}
		candles[i] = domain.Candle{
			Time:  time.Date(2024, 3, 1, 10, i, 0, 0, time.UTC),
			Open:  c, High: c, Low: c, Close: c,
		}
	}
	cs, err := domain.NewCandleSeries(candles)
	if err != nil {
		t.Fatalf("building series: %v", err)
	}
	return cs
}

func TestSMACross_Generate(t *testing.T) {
	strat := strategy.NewSMACross(strategy.FastWindow, strategy.SlowWindow)

	tests := []struct {
		name   string
		closes []string
		want   domain.Signal
	}{
		{
			name:   "too few candles",
			closes: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"},
			want:   domain.NoAction,
		},
		{
			// 10 candles: only the latest averages exist, so level
			// comparison applies. fast=avg(6..10)=8, slow=avg(1..10)=5.5.
			name:   "exact window rising closes",
			closes: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"},
			want:   domain.Buy,
		},
		{
			name:   "exact window falling closes",
			closes: []string{"10", "9", "8", "7", "6", "5", "4", "3", "2", "1"},
			want:   domain.Sell,
		},
		{
			name:   "exact window flat closes",
			closes: []string{"5", "5", "5", "5", "5", "5", "5", "5", "5", "5"},
			want:   domain.NoAction,
		},
		{
			// Prev: fast=103 < slow=105.5. Now: fast=108 > slow=107.5.
			name:   "confirmed buy cross",
			closes: []string{"110", "109", "108", "107", "106", "105", "104", "103", "102", "101", "130"},
			want:   domain.Buy,
		},
		{
			// Prev: fast=108 > slow=105.5. Now: fast=102.8 < slow=103.4.
			name:   "confirmed sell cross",
			closes: []string{"101", "102", "103", "104", "105", "106", "107", "108", "109", "110", "80"},
			want:   domain.Sell,
		},
		{
			// Averages merely touching at the previous candle confirm
			// no trend, even when the latest candle spikes.
			name:   "touching averages not a cross",
			closes: []string{"100", "100", "100", "100", "100", "100", "100", "100", "100", "100", "200"},
			want:   domain.NoAction,
		},
		{
			// Fast already above slow at the previous candle, so a
			// further rise is not a cross.
			name:   "already above no repeat buy",
			closes: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"},
			want:   domain.NoAction,
		},
		{
			name:   "flat series no cross",
			closes: []string{"5", "5", "5", "5", "5", "5", "5", "5", "5", "5", "5"},
			want:   domain.NoAction,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strat.Generate(series(t, tt.closes...))
			if got != tt.want {
				t.Errorf("Generate() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSMACross_Deterministic(t *testing.T) {
	strat := strategy.NewSMACross(strategy.FastWindow, strategy.SlowWindow)
	s := series(t, "110", "109", "108", "107", "106", "105", "104", "103", "102", "101", "130")

	first := strat.Generate(s)
	for i := 0; i < 3; i++ {
		if got := strat.Generate(s); got != first {
			t.Fatalf("repeat evaluation differed: %s vs %s", got, first)
		}
	}
}

func TestNewSMACross_BadWindows(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for fast >= slow")
		}
	}()
	strategy.NewSMACross(10, 5)
}

func TestIndicators(t *testing.T) {
	t.Run("short series not ready", func(t *testing.T) {
		snap := strategy.Indicators(series(t, "1", "2", "3", "4", "5", "6", "7", "8", "9", "10"))
		if snap.Ready {
			t.Error("expected not-ready snapshot for short series")
		}
	})

	t.Run("rising series", func(t *testing.T) {
		closes := make([]string, 40)
		for i := range closes {
			closes[i] = decimal.NewFromInt(int64(100 + i)).String()
		}
		snap := strategy.Indicators(series(t, closes...))
		if !snap.Ready {
			t.Fatal("expected ready snapshot")
		}
		// A monotonically rising series pins RSI at 100 and keeps the
		// fast EMA above the slow one.
		if snap.RSI < 99 {
			t.Errorf("expected RSI near 100, got %f", snap.RSI)
		}
		if snap.MACD <= 0 {
			t.Errorf("expected positive MACD, got %f", snap.MACD)
		}
	})
}
