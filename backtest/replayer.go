// Package backtest replays historical candles through the exact same
// trading cycle the live bot runs, so a strategy behaves identically
// in simulation and production.
package backtest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FKdevelopers254/automatedbotrader/internal/domain"
	"github.com/FKdevelopers254/automatedbotrader/internal/engine"
	"github.com/FKdevelopers254/automatedbotrader/internal/execution"
	"github.com/FKdevelopers254/automatedbotrader/internal/risk"
	"github.com/FKdevelopers254/automatedbotrader/internal/strategy"
)

// historySource serves a growing window of the candle history, so each
// replayed cycle sees exactly what a live cycle would have seen at that
// point in time.
type historySource struct {
	candles []domain.Candle
	cursor  int // number of candles visible
}

func (h *historySource) FetchCandles(_ context.Context, _ domain.Pair, _ string) (*domain.CandleSeries, error) {
	return domain.NewCandleSeries(h.candles[:h.cursor])
}

func (h *historySource) FetchCurrentPrice(_ context.Context, _ domain.Pair) (decimal.Decimal, error) {
	return h.candles[h.cursor-1].Close, nil
}

// Summary aggregates one replay run.
type Summary struct {
	Cycles      int
	Fills       int
	Rejections  int
	RiskExits   int
	FinalPrice  decimal.Decimal
	Balances    map[string]decimal.Decimal
	FinalEquity decimal.Decimal // quote balance + base valued at final price
}

// Replayer drives a paper trading cycle over a candle history.
type Replayer struct {
	cfg     engine.Config
	candles []domain.Candle
	ledger  *domain.Ledger
	log     *slog.Logger
}

// NewReplayer prepares a replay over candles (oldest first) with the
// given starting balances.
func NewReplayer(cfg engine.Config, candles []domain.Candle, balances map[string]decimal.Decimal, log *slog.Logger) (*Replayer, error) {
	if len(candles) < domain.MinSignalCandles {
		return nil, fmt.Errorf("need at least %d candles, got %d", domain.MinSignalCandles, len(candles))
	}

	ledger := domain.NewLedger()
	for currency, amount := range balances {
		ledger.Credit(currency, amount)
	}

	return &Replayer{cfg: cfg, candles: candles, ledger: ledger, log: log}, nil
}

// Run replays the history one candle at a time and returns the summary.
func (r *Replayer) Run(ctx context.Context) (Summary, error) {
	source := &historySource{candles: r.candles}
	cycle := engine.NewTradingCycle(r.cfg, source,
		strategy.NewSMACross(strategy.FastWindow, strategy.SlowWindow),
		execution.NewPaperExecutor(r.log),
		risk.NewMonitor(r.cfg.StopLossPct, r.cfg.TakeProfitPct),
		r.ledger, nil, r.log)

	summary := Summary{}
	for cursor := domain.MinSignalCandles; cursor <= len(r.candles); cursor++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		source.cursor = cursor

		report, err := cycle.RunCycle(ctx)
		if err != nil {
			return summary, fmt.Errorf("cycle at candle %d: %w", cursor, err)
		}

		summary.Cycles++
		countOutcome(&summary, report.Outcome)
		if report.RiskOutcome != nil {
			summary.RiskExits++
			countOutcome(&summary, *report.RiskOutcome)
		}
	}

	summary.FinalPrice = r.candles[len(r.candles)-1].Close
	summary.Balances = r.ledger.Snapshot()
	summary.FinalEquity = r.ledger.Balance(r.cfg.Pair.Quote).
		Add(r.ledger.Balance(r.cfg.Pair.Base).Mul(summary.FinalPrice))

	return summary, nil
}

func countOutcome(s *Summary, outcome domain.TradeOutcome) {
	switch outcome.Kind {
	case domain.OutcomeFilled:
		s.Fills++
	case domain.OutcomeRejected:
		s.Rejections++
	}
}

// LoadCandlesCSV reads a candle history file with a header row and
// columns time,open,high,low,close,volume. time is unix seconds.
func LoadCandlesCSV(path string) ([]domain.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 6

	// Skip header.
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var candles []domain.Candle
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		candle, err := parseCSVRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func parseCSVRecord(record []string) (domain.Candle, error) {
	var sec int64
	if _, err := fmt.Sscanf(record[0], "%d", &sec); err != nil {
		return domain.Candle{}, fmt.Errorf("bad time %q: %w", record[0], err)
	}

	fields := make([]decimal.Decimal, 5)
	for i, raw := range record[1:6] {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("bad value %q: %w", raw, err)
		}
		fields[i] = v
	}

	candle := domain.Candle{
		Time:   time.Unix(sec, 0).UTC(),
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: fields[4],
	}
	return candle, candle.Validate()
}
