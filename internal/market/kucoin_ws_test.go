package market

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTickerStream_OnMessage(t *testing.T) {
	ts := NewTickerStream(NewClient(testLogger()), btcUSDT(), testLogger())

	if _, ok := ts.LastPrice(); ok {
		t.Fatal("fresh stream must report no price")
	}

	tests := []struct {
		name string
		msg  string
	}{
		{"welcome frame ignored", `{"id":"1","type":"welcome"}`},
		{"ack frame ignored", `{"id":"2","type":"ack"}`},
		{"wrong topic ignored", `{"type":"message","topic":"/market/level2:BTC-USDT","data":{"price":"1"}}`},
		{"garbage ignored", `not json`},
		{"bad price ignored", `{"type":"message","topic":"/market/ticker:BTC-USDT","data":{"price":"n/a"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts.OnMessage(context.Background(), []byte(tt.msg))
			if _, ok := ts.LastPrice(); ok {
				t.Error("price must stay unset")
			}
		})
	}

	ts.OnMessage(context.Background(),
		[]byte(`{"type":"message","topic":"/market/ticker:BTC-USDT","subject":"trade.ticker","data":{"sequence":"1","price":"30123.45","size":"0.1"}}`))

	price, ok := ts.LastPrice()
	if !ok {
		t.Fatal("expected a price after ticker message")
	}
	if !price.Equal(decimal.RequireFromString("30123.45")) {
		t.Errorf("price = %s", price)
	}
}
