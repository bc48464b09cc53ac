package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OutcomeKind discriminates the result of one executor invocation.
type OutcomeKind int

const (
	OutcomeSkipped OutcomeKind = iota
	OutcomeFilled
	OutcomeRejected
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeFilled:
		return "FILLED"
	case OutcomeRejected:
		return "REJECTED"
	default:
		return "SKIPPED"
	}
}

// Rejection reasons surfaced by the order executor.
const (
	ReasonInsufficientQuote = "insufficient quote balance"
	ReasonInsufficientBase  = "insufficient base balance"
	ReasonInvalidParams     = "invalid order parameters"
)

// TradeOutcome is the result of one order execution attempt.
// For fills, Quote holds the quote-currency cost of a buy or the
// proceeds of a sell.
type TradeOutcome struct {
	Kind     OutcomeKind
	Side     Signal
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Quote    decimal.Decimal
	Reason   string // rejection or skip reason, empty for fills
}

// Skipped marks a cycle step that executed nothing.
func Skipped(reason string) TradeOutcome {
	return TradeOutcome{Kind: OutcomeSkipped, Reason: reason}
}

// Rejected marks an order the executor refused without touching the ledger.
func Rejected(reason string) TradeOutcome {
	return TradeOutcome{Kind: OutcomeRejected, Reason: reason}
}

// Filled marks a settled order.
func Filled(side Signal, quantity, price, quote decimal.Decimal) TradeOutcome {
	return TradeOutcome{Kind: OutcomeFilled, Side: side, Quantity: quantity, Price: price, Quote: quote}
}

func (o TradeOutcome) String() string {
	switch o.Kind {
	case OutcomeFilled:
		return fmt.Sprintf("FILLED %s %s @ %s (quote %s)", o.Side, o.Quantity, o.Price, o.Quote)
	case OutcomeRejected:
		return "REJECTED: " + o.Reason
	default:
		return "SKIPPED: " + o.Reason
	}
}
