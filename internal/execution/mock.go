package execution

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// MockPlacer records market orders instead of sending them. Tests use
// it to drive LiveExecutor without an exchange connection.
type MockPlacer struct {
	Orders []MockOrder
	Err    error // returned from every call when set
}

// MockOrder is one recorded PlaceMarketOrder call.
type MockOrder struct {
	Symbol string
	Side   string
	Size   decimal.Decimal
}

func (m *MockPlacer) PlaceMarketOrder(_ context.Context, symbol, side string, size decimal.Decimal) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.Orders = append(m.Orders, MockOrder{Symbol: symbol, Side: side, Size: size})
	return fmt.Sprintf("mock-%d", len(m.Orders)), nil
}
