// Package market talks to the KuCoin spot API: candle history, level-1
// prices, account balances and market orders.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FKdevelopers254/automatedbotrader/internal/domain"
	"github.com/FKdevelopers254/automatedbotrader/internal/infra"
)

const DefaultBaseURL = "https://api.kucoin.com"

// successCode is KuCoin's application-level OK in the response envelope.
const successCode = "200000"

// Client is a KuCoin REST client. Public endpoints work without a
// signer; Accounts and PlaceMarketOrder require one.
type Client struct {
	baseURL string
	http    *http.Client
	signer  *Signer
	public  *infra.RateLimiter
	private *infra.RateLimiter
	breaker *infra.CircuitBreaker
	log     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint (tests).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithSigner enables the private endpoints.
func WithSigner(s *Signer) Option {
	return func(c *Client) { c.signer = s }
}

func NewClient(log *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		public:  infra.GetKucoinPublicLimiter(),
		private: infra.GetKucoinPrivateLimiter(),
		breaker: infra.NewCircuitBreaker(infra.DefaultCircuitBreakerConfig("kucoin-rest")),
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the outer shape of every KuCoin response.
type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// FetchCandles returns the kline history for a pair, oldest first.
// KuCoin serves rows newest first as string septuples
// [time, open, close, high, low, volume, turnover], so rows are
// reversed and re-ordered into Candle fields.
func (c *Client) FetchCandles(ctx context.Context, pair domain.Pair, interval string) (*domain.CandleSeries, error) {
	endpoint := fmt.Sprintf("/api/v1/market/candles?symbol=%s&type=%s", pair.Symbol(), interval)

	var rows [][]string
	if err := c.do(ctx, http.MethodGet, endpoint, nil, false, &rows); err != nil {
		return nil, fmt.Errorf("fetching candles for %s: %w", pair.Symbol(), err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no candles returned for %s", pair.Symbol())
	}

	candles := make([]domain.Candle, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		candle, err := parseKlineRow(rows[i])
		if err != nil {
			return nil, fmt.Errorf("parsing candle row %d: %w", i, err)
		}
		candles = append(candles, candle)
	}
	return domain.NewCandleSeries(candles)
}

func parseKlineRow(row []string) (domain.Candle, error) {
	if len(row) < 7 {
		return domain.Candle{}, fmt.Errorf("want 7 columns, got %d", len(row))
	}

	sec, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("bad timestamp %q: %w", row[0], err)
	}

	fields := make([]decimal.Decimal, 6)
	for i, raw := range row[1:7] {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("bad value %q: %w", raw, err)
		}
		fields[i] = v
	}

	candle := domain.Candle{
		Time:     time.Unix(sec, 0).UTC(),
		Open:     fields[0],
		Close:    fields[1],
		High:     fields[2],
		Low:      fields[3],
		Volume:   fields[4],
		Turnover: fields[5],
	}
	return candle, candle.Validate()
}

// FetchCurrentPrice returns the last trade price from the level-1
// orderbook snapshot.
func (c *Client) FetchCurrentPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	endpoint := "/api/v1/market/orderbook/level1?symbol=" + pair.Symbol()

	var data struct {
		Price string `json:"price"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, false, &data); err != nil {
		return decimal.Decimal{}, fmt.Errorf("fetching price for %s: %w", pair.Symbol(), err)
	}

	price, err := decimal.NewFromString(data.Price)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("bad price %q: %w", data.Price, err)
	}
	if !price.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("non-positive price %s for %s", price, pair.Symbol())
	}
	return price, nil
}

// Accounts returns the available balance of every trade account.
func (c *Client) Accounts(ctx context.Context) (map[string]decimal.Decimal, error) {
	var data []struct {
		Currency  string `json:"currency"`
		Type      string `json:"type"`
		Available string `json:"available"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/accounts", nil, true, &data); err != nil {
		return nil, fmt.Errorf("fetching accounts: %w", err)
	}

	balances := make(map[string]decimal.Decimal)
	for _, acc := range data {
		if acc.Type != "trade" {
			continue
		}
		available, err := decimal.NewFromString(acc.Available)
		if err != nil {
			return nil, fmt.Errorf("bad balance %q for %s: %w", acc.Available, acc.Currency, err)
		}
		balances[acc.Currency] = balances[acc.Currency].Add(available)
	}
	return balances, nil
}

// PlaceMarketOrder submits a base-currency-sized market order and
// returns the exchange order id.
func (c *Client) PlaceMarketOrder(ctx context.Context, symbol, side string, size decimal.Decimal) (string, error) {
	body := map[string]string{
		"clientOid": strconv.FormatInt(time.Now().UnixNano(), 10),
		"symbol":    symbol,
		"side":      side,
		"type":      "market",
		"size":      size.String(),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	var data struct {
		OrderID string `json:"orderId"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/orders", payload, true, &data); err != nil {
		return "", fmt.Errorf("placing %s %s order: %w", side, symbol, err)
	}

	c.log.Info("order accepted", "order_id", data.OrderID, "symbol", symbol, "side", side, "size", size)
	return data.OrderID, nil
}

// do runs one request through the rate limiter and circuit breaker,
// unwraps the envelope and decodes data into out.
func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, signed bool, out any) error {
	if !c.breaker.Allow() {
		return fmt.Errorf("kucoin circuit open, request dropped")
	}
	// Private endpoints carry heavier rate weights than market data.
	limiter := c.public
	if signed {
		limiter = c.private
	}
	if err := limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return err
	}

	req.Header.Set("User-Agent", infra.GetUserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if signed {
		if c.signer == nil {
			return fmt.Errorf("endpoint %s requires API credentials", endpoint)
		}
		for k, v := range c.signer.Headers(method, endpoint, string(body)) {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		c.breaker.RecordFailure()
		return err
	}
	if resp.StatusCode != http.StatusOK {
		c.breaker.RecordFailure()
		return fmt.Errorf("kucoin %s %s: status %d: %s", method, endpoint, resp.StatusCode, raw)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.breaker.RecordFailure()
		return fmt.Errorf("decoding response: %w", err)
	}
	if env.Code != successCode {
		c.breaker.RecordFailure()
		return fmt.Errorf("kucoin error %s: %s", env.Code, env.Msg)
	}

	c.breaker.RecordSuccess()
	if out == nil {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
