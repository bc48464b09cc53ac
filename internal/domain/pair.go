package domain

import (
	"fmt"
	"strings"
)

// Pair identifies a traded market, e.g. BTC-USDT: base is the asset
// being bought/sold, quote is the currency it is priced in.
type Pair struct {
	Base  string
	Quote string
}

// ParsePair splits a KuCoin-style symbol ("BTC-USDT") into a Pair.
func ParsePair(symbol string) (Pair, error) {
	base, quote, ok := strings.Cut(symbol, "-")
	if !ok || base == "" || quote == "" {
		return Pair{}, fmt.Errorf("invalid trading pair %q (want BASE-QUOTE)", symbol)
	}
	return Pair{Base: base, Quote: quote}, nil
}

// Symbol returns the exchange representation, e.g. "BTC-USDT".
func (p Pair) Symbol() string {
	return p.Base + "-" + p.Quote
}
