package domain

import "github.com/shopspring/decimal"

// Position represents the single open exposure of the trading cycle.
// It is created on a filled Buy and destroyed on a filled Sell or a
// forced risk exit. At most one position per traded pair exists.
type Position struct {
	EntryPrice decimal.Decimal
	Quantity   decimal.Decimal
}

// NewPosition opens a position from a filled buy.
func NewPosition(entryPrice, quantity decimal.Decimal) *Position {
	return &Position{EntryPrice: entryPrice, Quantity: quantity}
}

// Add folds an additional buy fill into the position using a
// quantity-weighted average entry price.
func (p *Position) Add(price, quantity decimal.Decimal) {
	total := p.Quantity.Add(quantity)
	if total.IsZero() {
		return
	}
	weighted := p.EntryPrice.Mul(p.Quantity).Add(price.Mul(quantity))
	p.EntryPrice = weighted.Div(total)
	p.Quantity = total
}

// Reduce subtracts a sold quantity. It reports whether the position is
// now fully closed (sold quantity >= open quantity).
func (p *Position) Reduce(quantity decimal.Decimal) bool {
	if quantity.GreaterThanOrEqual(p.Quantity) {
		p.Quantity = decimal.Zero
		return true
	}
	p.Quantity = p.Quantity.Sub(quantity)
	return false
}
