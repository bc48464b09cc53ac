package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FKdevelopers254/automatedbotrader/internal/domain"
	"github.com/FKdevelopers254/automatedbotrader/internal/execution"
	"github.com/FKdevelopers254/automatedbotrader/internal/risk"
	"github.com/FKdevelopers254/automatedbotrader/internal/strategy"
)

// ErrCycleInFlight is returned when RunCycle is called while a previous
// cycle is still executing. Cycles never run concurrently.
var ErrCycleInFlight = errors.New("trading cycle already in flight")

// MarketDataSource supplies the market view for one cycle.
type MarketDataSource interface {
	// FetchCandles returns the recent candle history for a pair,
	// oldest first.
	FetchCandles(ctx context.Context, pair domain.Pair, interval string) (*domain.CandleSeries, error)

	// FetchCurrentPrice returns the latest trade price for a pair.
	FetchCurrentPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}

// Reporter persists cycle results. Report failures are logged, never
// fatal: a broken journal must not stop trading.
type Reporter interface {
	RecordCycle(ctx context.Context, report CycleReport) error
}

// CycleState tracks where in its pipeline a cycle is.
type CycleState int

const (
	StateIdle CycleState = iota
	StateFetchingData
	StateSignalReady
	StateExecuting
	StateRiskCheck
)

func (s CycleState) String() string {
	switch s {
	case StateFetchingData:
		return "FETCHING_DATA"
	case StateSignalReady:
		return "SIGNAL_READY"
	case StateExecuting:
		return "EXECUTING"
	case StateRiskCheck:
		return "RISK_CHECK"
	default:
		return "IDLE"
	}
}

// Config holds the per-pair trading parameters of the cycle.
type Config struct {
	Pair          domain.Pair
	Interval      string          // candle interval, e.g. "1hour"
	TradeSize     decimal.Decimal // base-currency quantity per signal order
	StopLossPct   decimal.Decimal
	TakeProfitPct decimal.Decimal
}

// CycleReport is the full result of one RunCycle invocation.
type CycleReport struct {
	Timestamp   time.Time
	Price       decimal.Decimal
	Signal      domain.Signal
	Outcome     domain.TradeOutcome
	RiskExit    risk.ExitSignal
	RiskOutcome *domain.TradeOutcome // set only when a risk exit traded
	Balances    map[string]decimal.Decimal
	Indicators  strategy.IndicatorSnapshot
}

// TradingCycle orchestrates one full pass of the trading pipeline:
// fetch data, generate a signal, execute it, then check protective
// exits on the open position. One instance trades one pair.
//
// Cycles are strictly sequential. The caller may invoke RunCycle from
// a timer or a signal handler; overlapping invocations are rejected
// with ErrCycleInFlight rather than queued.
type TradingCycle struct {
	cfg      Config
	source   MarketDataSource
	strat    strategy.Strategy
	executor execution.Executor
	monitor  *risk.Monitor
	ledger   *domain.Ledger
	reporter Reporter
	log      *slog.Logger

	position *domain.Position
	state    CycleState
	inFlight atomic.Bool
}

// NewTradingCycle wires the pipeline. reporter may be nil.
func NewTradingCycle(cfg Config, source MarketDataSource, strat strategy.Strategy,
	executor execution.Executor, monitor *risk.Monitor, ledger *domain.Ledger,
	reporter Reporter, log *slog.Logger) *TradingCycle {

	return &TradingCycle{
		cfg:      cfg,
		source:   source,
		strat:    strat,
		executor: executor,
		monitor:  monitor,
		ledger:   ledger,
		reporter: reporter,
		log:      log,
		state:    StateIdle,
	}
}

// RestorePosition seeds the open position from persisted state.
// Call before the first RunCycle; it must not race a running cycle.
func (c *TradingCycle) RestorePosition(p *domain.Position) {
	c.position = p
}

// Position returns a copy of the open position, or nil when flat.
func (c *TradingCycle) Position() *domain.Position {
	if c.position == nil {
		return nil
	}
	p := *c.position
	return &p
}

// RunCycle executes exactly one trading cycle and returns its report.
// A cycle that cannot fetch market data degrades to a Skipped report
// without touching the ledger; the next invocation simply retries.
func (c *TradingCycle) RunCycle(ctx context.Context) (CycleReport, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return CycleReport{}, ErrCycleInFlight
	}
	defer c.inFlight.Store(false)
	defer c.setState(StateIdle)

	report := CycleReport{Timestamp: time.Now().UTC(), Signal: domain.NoAction}

	c.setState(StateFetchingData)
	series, err := c.source.FetchCandles(ctx, c.cfg.Pair, c.cfg.Interval)
	if err != nil {
		return c.degrade(ctx, report, err), nil
	}
	price, err := c.source.FetchCurrentPrice(ctx, c.cfg.Pair)
	if err != nil {
		return c.degrade(ctx, report, err), nil
	}
	report.Price = price

	c.setState(StateSignalReady)
	if series.Len() < domain.MinSignalCandles {
		c.log.Warn("not enough candles for a signal",
			"have", series.Len(), "need", domain.MinSignalCandles)
	} else {
		report.Signal = c.strat.Generate(series)
	}
	report.Indicators = strategy.Indicators(series)

	c.setState(StateExecuting)
	outcome, err := c.executor.Execute(ctx, report.Signal, c.cfg.Pair, c.cfg.TradeSize, price, c.ledger)
	if err != nil {
		return report, fmt.Errorf("executing %s: %w", report.Signal, err)
	}
	report.Outcome = outcome
	c.applyFill(outcome, price)

	c.setState(StateRiskCheck)
	if c.position != nil {
		exit := c.monitor.Evaluate(c.position.EntryPrice, price)
		report.RiskExit = exit
		if exit.Kind != risk.ExitNone {
			riskOutcome, err := c.forceExit(ctx, exit, price)
			if err != nil {
				return report, err
			}
			report.RiskOutcome = &riskOutcome
		}
	}

	report.Balances = c.ledger.Snapshot()
	c.record(ctx, report)

	c.log.Info("cycle complete",
		"pair", c.cfg.Pair.Symbol(),
		"price", price,
		"signal", report.Signal,
		"outcome", report.Outcome.Kind,
		"risk_exit", report.RiskExit.Kind)

	return report, nil
}

// applyFill updates position bookkeeping after a signal execution.
// Rejections and skips change nothing.
func (c *TradingCycle) applyFill(outcome domain.TradeOutcome, price decimal.Decimal) {
	if outcome.Kind != domain.OutcomeFilled {
		return
	}
	switch outcome.Side {
	case domain.Buy:
		if c.position == nil {
			c.position = domain.NewPosition(price, outcome.Quantity)
		} else {
			c.position.Add(price, outcome.Quantity)
		}
	case domain.Sell:
		if c.position != nil && c.position.Reduce(outcome.Quantity) {
			c.position = nil
		}
	}
}

// forceExit liquidates the full open position after a protective
// threshold fired. The position is cleared only if the sell fills;
// a rejection keeps it open for the next cycle to retry.
func (c *TradingCycle) forceExit(ctx context.Context, exit risk.ExitSignal, price decimal.Decimal) (domain.TradeOutcome, error) {
	c.log.Warn("protective exit triggered",
		"kind", exit.Kind,
		"trigger", exit.TriggerPrice,
		"entry", c.position.EntryPrice,
		"price", price,
		"qty", c.position.Quantity)

	outcome, err := c.executor.Execute(ctx, domain.Sell, c.cfg.Pair, c.position.Quantity, price, c.ledger)
	if err != nil {
		return domain.TradeOutcome{}, fmt.Errorf("executing %s exit: %w", exit.Kind, err)
	}
	if outcome.Kind == domain.OutcomeFilled {
		c.position = nil
	}
	return outcome, nil
}

// degrade turns a market data failure into a Skipped cycle. The ledger
// stays untouched and the process keeps running.
func (c *TradingCycle) degrade(ctx context.Context, report CycleReport, err error) CycleReport {
	c.log.Warn("market data unavailable, skipping cycle",
		"pair", c.cfg.Pair.Symbol(), "error", err)
	report.Outcome = domain.Skipped("no data")
	c.record(ctx, report)
	return report
}

func (c *TradingCycle) record(ctx context.Context, report CycleReport) {
	if c.reporter == nil {
		return
	}
	if err := c.reporter.RecordCycle(ctx, report); err != nil {
		c.log.Error("recording cycle failed", "error", err)
	}
}

func (c *TradingCycle) setState(s CycleState) {
	c.state = s
	c.log.Debug("cycle state", "state", s)
}
