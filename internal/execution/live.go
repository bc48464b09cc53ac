package execution

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/FKdevelopers254/automatedbotrader/internal/domain"
)

// OrderPlacer submits a market order to the exchange and returns the
// exchange-assigned order id.
type OrderPlacer interface {
	PlaceMarketOrder(ctx context.Context, symbol, side string, size decimal.Decimal) (string, error)
}

// LiveExecutor submits real market orders and mirrors the fills into
// the local ledger so the trading cycle sees a consistent view of
// balances between account refreshes.
type LiveExecutor struct {
	client OrderPlacer
	log    *slog.Logger
}

func NewLiveExecutor(client OrderPlacer, log *slog.Logger) *LiveExecutor {
	return &LiveExecutor{client: client, log: log}
}

func (e *LiveExecutor) Execute(ctx context.Context, signal domain.Signal, pair domain.Pair,
	quantity, price decimal.Decimal, ledger *domain.Ledger) (domain.TradeOutcome, error) {

	if signal == domain.NoAction {
		return domain.Skipped("no signal"), nil
	}
	if !quantity.IsPositive() || !price.IsPositive() {
		return domain.Rejected(domain.ReasonInvalidParams), nil
	}

	quote := quantity.Mul(price)

	// Check the local ledger before touching the exchange: an order we
	// already know cannot be covered must not be sent.
	switch signal {
	case domain.Buy:
		if ledger.Balance(pair.Quote).LessThan(quote) {
			return domain.Rejected(domain.ReasonInsufficientQuote), nil
		}
	case domain.Sell:
		if ledger.Balance(pair.Base).LessThan(quantity) {
			return domain.Rejected(domain.ReasonInsufficientBase), nil
		}
	}

	side := "buy"
	if signal == domain.Sell {
		side = "sell"
	}

	orderID, err := e.client.PlaceMarketOrder(ctx, pair.Symbol(), side, quantity)
	if err != nil {
		return domain.TradeOutcome{}, fmt.Errorf("placing %s order: %w", side, err)
	}

	// Settle locally at the reference price. The next account refresh
	// reconciles any difference from the actual fill price.
	switch signal {
	case domain.Buy:
		if err := ledger.Debit(pair.Quote, quote); err != nil {
			return domain.TradeOutcome{}, err
		}
		ledger.Credit(pair.Base, quantity)
	case domain.Sell:
		if err := ledger.Debit(pair.Base, quantity); err != nil {
			return domain.TradeOutcome{}, err
		}
		ledger.Credit(pair.Quote, quote)
	}

	ledger.VerifyInvariant()

	e.log.Info("live fill",
		"order_id", orderID,
		"side", signal,
		"pair", pair.Symbol(),
		"qty", quantity,
		"price", price)

	return domain.Filled(signal, quantity, price, quote), nil
}
