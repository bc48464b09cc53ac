package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInsufficientFunds is returned by Debit when the balance cannot
// cover the requested amount. It is an ordinary rejection, not a bug.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Ledger is the authoritative in-memory record of currency balances.
// Balances never go negative; a failed debit leaves the ledger untouched.
//
// The ledger itself is not locked: the trading cycle guarantees at most
// one in-flight cycle, so all mutations are strictly sequential.
type Ledger struct {
	balances map[string]decimal.Decimal
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[string]decimal.Decimal)}
}

// Balance returns the current balance for a currency (zero if unknown).
func (l *Ledger) Balance(currency string) decimal.Decimal {
	return l.balances[currency]
}

// Credit increases a balance. Zero amounts are permitted no-ops.
// A negative amount is an invariant violation (core bug) and panics.
func (l *Ledger) Credit(currency string, amount decimal.Decimal) {
	if amount.IsNegative() {
		panic(fmt.Sprintf("LEDGER_NEGATIVE_CREDIT: %s %s", currency, amount))
	}
	l.balances[currency] = l.balances[currency].Add(amount)
}

// Debit decreases a balance by exactly amount, or fails with
// ErrInsufficientFunds without changing anything.
// A negative amount is an invariant violation (core bug) and panics.
func (l *Ledger) Debit(currency string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		panic(fmt.Sprintf("LEDGER_NEGATIVE_DEBIT: %s %s", currency, amount))
	}
	balance := l.balances[currency]
	if amount.GreaterThan(balance) {
		return fmt.Errorf("debit %s %s exceeds balance %s: %w",
			currency, amount, balance, ErrInsufficientFunds)
	}
	l.balances[currency] = balance.Sub(amount)
	return nil
}

// Snapshot returns a copy of all balances for reporting.
func (l *Ledger) Snapshot() map[string]decimal.Decimal {
	snap := make(map[string]decimal.Decimal, len(l.balances))
	for currency, balance := range l.balances {
		snap[currency] = balance
	}
	return snap
}

// VerifyInvariant panics if any balance has gone negative.
// Under correct use this is unreachable; tests call it after every
// mutation sequence to assert the no-negative-balance property.
func (l *Ledger) VerifyInvariant() {
	for currency, balance := range l.balances {
		if balance.IsNegative() {
			panic(fmt.Sprintf("LEDGER_NEGATIVE_BALANCE: %s %s", currency, balance))
		}
	}
}
