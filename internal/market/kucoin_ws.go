package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/FKdevelopers254/automatedbotrader/internal/domain"
	"github.com/FKdevelopers254/automatedbotrader/internal/infra"
)

// wsToken is the bullet-public handshake payload: KuCoin hands out a
// short-lived token plus the websocket endpoint to dial.
type wsToken struct {
	Token           string `json:"token"`
	InstanceServers []struct {
		Endpoint     string `json:"endpoint"`
		PingInterval int64  `json:"pingInterval"` // milliseconds
	} `json:"instanceServers"`
}

// wsEndpoint performs the bullet-public handshake.
func (c *Client) wsEndpoint(ctx context.Context) (url string, pingInterval time.Duration, err error) {
	var tok wsToken
	if err := c.do(ctx, http.MethodPost, "/api/v1/bullet-public", nil, false, &tok); err != nil {
		return "", 0, fmt.Errorf("bullet-public handshake: %w", err)
	}
	if len(tok.InstanceServers) == 0 {
		return "", 0, fmt.Errorf("bullet-public returned no instance servers")
	}

	srv := tok.InstanceServers[0]
	url = fmt.Sprintf("%s?token=%s&connectId=%d", srv.Endpoint, tok.Token, time.Now().UnixNano())
	return url, time.Duration(srv.PingInterval) * time.Millisecond, nil
}

// TickerStream keeps a live last-price cache for one pair over the
// KuCoin websocket. It reconnects itself; LastPrice reports whether a
// price has arrived yet so callers can fall back to REST.
type TickerStream struct {
	pair   domain.Pair
	client *Client
	base   *infra.BaseWSWorker
	log    *slog.Logger

	mu      sync.RWMutex
	price   decimal.Decimal
	updated time.Time
}

func NewTickerStream(client *Client, pair domain.Pair, log *slog.Logger) *TickerStream {
	ts := &TickerStream{pair: pair, client: client, log: log}
	ts.base = infra.NewBaseWSWorker(ts)
	ts.base.PingInterval = 15 * time.Second
	return ts
}

// Start launches the connection loop. It returns immediately.
func (ts *TickerStream) Start(ctx context.Context) { ts.base.Start(ctx) }

// Stop tears the connection down and waits for the loop to exit.
func (ts *TickerStream) Stop() { ts.base.Stop() }

// LastPrice returns the most recent ticker price. ok is false until
// the first message arrives.
func (ts *TickerStream) LastPrice() (price decimal.Decimal, ok bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.price, !ts.updated.IsZero()
}

func (ts *TickerStream) ID() string { return "KUCOIN-" + ts.pair.Symbol() }

// GetURL runs the token handshake. Returning an empty URL on failure
// makes the dial fail, which feeds the worker's backoff loop.
func (ts *TickerStream) GetURL() string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url, pingInterval, err := ts.client.wsEndpoint(ctx)
	if err != nil {
		ts.log.Warn("ws token handshake failed", "error", err)
		return ""
	}
	if pingInterval > 0 {
		ts.base.PingInterval = pingInterval
	}
	return url
}

func (ts *TickerStream) OnConnect(ctx context.Context, conn *websocket.Conn) error {
	sub := map[string]any{
		"id":             time.Now().UnixNano(),
		"type":           "subscribe",
		"topic":          "/market/ticker:" + ts.pair.Symbol(),
		"privateChannel": false,
		"response":       true,
	}
	b, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	return ts.base.Write(websocket.TextMessage, b)
}

// tickerMessage is a pushed /market/ticker update.
type tickerMessage struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
	Data  struct {
		Price json.Number `json:"price"`
	} `json:"data"`
}

func (ts *TickerStream) OnMessage(_ context.Context, msg []byte) {
	var m tickerMessage
	if err := json.Unmarshal(msg, &m); err != nil || m.Type != "message" {
		return
	}
	if !strings.HasPrefix(m.Topic, "/market/ticker:") {
		return
	}

	price, err := decimal.NewFromString(m.Data.Price.String())
	if err != nil || !price.IsPositive() {
		return
	}

	ts.mu.Lock()
	ts.price = price
	ts.updated = time.Now()
	ts.mu.Unlock()
}

func (ts *TickerStream) OnPing(_ context.Context, _ *websocket.Conn) error {
	ping := fmt.Sprintf(`{"id":%d,"type":"ping"}`, time.Now().UnixNano())
	return ts.base.Write(websocket.TextMessage, []byte(ping))
}

// StreamedSource is a market data source that answers price lookups
// from the live ticker stream when one is connected and falls back to
// the REST level-1 endpoint otherwise. Candles always come from REST.
type StreamedSource struct {
	*Client
	stream *TickerStream
}

func NewStreamedSource(client *Client, stream *TickerStream) *StreamedSource {
	return &StreamedSource{Client: client, stream: stream}
}

func (s *StreamedSource) FetchCurrentPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	if price, ok := s.stream.LastPrice(); ok {
		return price, nil
	}
	return s.Client.FetchCurrentPrice(ctx, pair)
}
