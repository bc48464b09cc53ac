package execution

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/FKdevelopers254/automatedbotrader/internal/domain"
)

// Executor settles a trading signal against the balance ledger.
// Implementations must be atomic per call: a rejected order leaves the
// ledger exactly as it was.
type Executor interface {
	Execute(ctx context.Context, signal domain.Signal, pair domain.Pair,
		quantity, price decimal.Decimal, ledger *domain.Ledger) (domain.TradeOutcome, error)
}
