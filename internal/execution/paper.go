package execution

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/FKdevelopers254/automatedbotrader/internal/domain"
)

// PaperExecutor fills orders instantly at the given price against the
// in-memory ledger. No exchange traffic, no fees, no slippage.
type PaperExecutor struct {
	log *slog.Logger
}

func NewPaperExecutor(log *slog.Logger) *PaperExecutor {
	return &PaperExecutor{log: log}
}

// Execute settles a signal against the ledger.
//
// Buy debits quantity*price of the quote currency and credits quantity
// of the base. Sell mirrors it. An order the ledger cannot cover is
// rejected and the ledger is untouched. NoAction is skipped.
func (e *PaperExecutor) Execute(ctx context.Context, signal domain.Signal, pair domain.Pair,
	quantity, price decimal.Decimal, ledger *domain.Ledger) (domain.TradeOutcome, error) {

	if signal == domain.NoAction {
		return domain.Skipped("no signal"), nil
	}
	if !quantity.IsPositive() || !price.IsPositive() {
		return domain.Rejected(domain.ReasonInvalidParams), nil
	}

	quote := quantity.Mul(price)

	switch signal {
	case domain.Buy:
		if err := ledger.Debit(pair.Quote, quote); err != nil {
			if errors.Is(err, domain.ErrInsufficientFunds) {
				e.log.Warn("order rejected",
					"side", signal, "pair", pair.Symbol(), "reason", domain.ReasonInsufficientQuote)
				return domain.Rejected(domain.ReasonInsufficientQuote), nil
			}
			return domain.TradeOutcome{}, err
		}
		ledger.Credit(pair.Base, quantity)

	case domain.Sell:
		if err := ledger.Debit(pair.Base, quantity); err != nil {
			if errors.Is(err, domain.ErrInsufficientFunds) {
				e.log.Warn("order rejected",
					"side", signal, "pair", pair.Symbol(), "reason", domain.ReasonInsufficientBase)
				return domain.Rejected(domain.ReasonInsufficientBase), nil
			}
			return domain.TradeOutcome{}, err
		}
		ledger.Credit(pair.Quote, quote)
	}

	ledger.VerifyInvariant()

	e.log.Info("paper fill",
		"side", signal,
		"pair", pair.Symbol(),
		"qty", quantity,
		"price", price,
		"quote", quote)

	return domain.Filled(signal, quantity, price, quote), nil
}
