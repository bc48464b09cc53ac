package risk

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestMonitor_Evaluate(t *testing.T) {
	// 2% stop, 5% take: entry 100 gives stop at 98, take at 105.
	m := NewMonitor(d("0.02"), d("0.05"))

	tests := []struct {
		name    string
		current string
		kind    ExitKind
		trigger string
	}{
		{"inside both thresholds", "101", ExitNone, ""},
		{"below stop", "97", ExitStopLoss, "98"},
		{"exactly at stop", "98", ExitStopLoss, "98"},
		{"just above stop", "98.00000001", ExitNone, ""},
		{"above take", "106", ExitTakeProfit, "105"},
		{"exactly at take", "105", ExitTakeProfit, "105"},
		{"just below take", "104.99999999", ExitNone, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Evaluate(d("100"), d(tt.current))
			if got.Kind != tt.kind {
				t.Fatalf("Evaluate(100, %s) kind = %s, want %s", tt.current, got.Kind, tt.kind)
			}
			if tt.kind != ExitNone && !got.TriggerPrice.Equal(d(tt.trigger)) {
				t.Errorf("trigger price = %s, want %s", got.TriggerPrice, tt.trigger)
			}
		})
	}
}

func TestMonitor_DisabledSides(t *testing.T) {
	t.Run("zero stop disables stop", func(t *testing.T) {
		m := NewMonitor(decimal.Zero, d("0.05"))
		if got := m.Evaluate(d("100"), d("1")); got.Kind != ExitNone {
			t.Errorf("disabled stop still fired: %s", got.Kind)
		}
	})

	t.Run("zero take disables take", func(t *testing.T) {
		m := NewMonitor(d("0.02"), decimal.Zero)
		if got := m.Evaluate(d("100"), d("1000")); got.Kind != ExitNone {
			t.Errorf("disabled take still fired: %s", got.Kind)
		}
	})

	t.Run("both disabled never exits", func(t *testing.T) {
		m := NewMonitor(decimal.Zero, decimal.Zero)
		if got := m.Evaluate(d("100"), d("0")); got.Kind != ExitNone {
			t.Errorf("expected no exit, got %s", got.Kind)
		}
	})
}
