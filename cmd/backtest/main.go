package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"

	"github.com/FKdevelopers254/automatedbotrader/backtest"
	"github.com/FKdevelopers254/automatedbotrader/internal/domain"
	"github.com/FKdevelopers254/automatedbotrader/internal/engine"
)

func main() {
	csvPath := flag.String("csv", "", "candle history file (time,open,high,low,close,volume)")
	pairArg := flag.String("pair", "BTC-USDT", "trading pair")
	tradeSize := flag.String("size", "0.01", "base quantity per trade")
	stopLoss := flag.String("sl", "0.02", "stop loss fraction, 0 disables")
	takeProfit := flag.String("tp", "0.05", "take profit fraction, 0 disables")
	quoteFunds := flag.String("funds", "10000", "starting quote balance")
	verbose := flag.Bool("v", false, "log every cycle")
	flag.Parse()

	if *csvPath == "" {
		fmt.Fprintln(os.Stderr, "usage: backtest -csv history.csv [-pair BTC-USDT] [-size 0.01] [-sl 0.02] [-tp 0.05]")
		os.Exit(2)
	}

	if err := run(*csvPath, *pairArg, *tradeSize, *stopLoss, *takeProfit, *quoteFunds, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "backtest:", err)
		os.Exit(1)
	}
}

func run(csvPath, pairArg, tradeSize, stopLoss, takeProfit, quoteFunds string, verbose bool) error {
	pair, err := domain.ParsePair(pairArg)
	if err != nil {
		return err
	}

	candles, err := backtest.LoadCandlesCSV(csvPath)
	if err != nil {
		return fmt.Errorf("loading %s: %w", csvPath, err)
	}

	cfg := engine.Config{
		Pair:          pair,
		Interval:      "backtest",
		TradeSize:     decimal.RequireFromString(tradeSize),
		StopLossPct:   decimal.RequireFromString(stopLoss),
		TakeProfitPct: decimal.RequireFromString(takeProfit),
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	balances := map[string]decimal.Decimal{
		pair.Quote: decimal.RequireFromString(quoteFunds),
	}

	replayer, err := backtest.NewReplayer(cfg, candles, balances, log)
	if err != nil {
		return err
	}

	summary, err := replayer.Run(context.Background())
	if err != nil {
		return err
	}

	start := decimal.RequireFromString(quoteFunds)
	pnl := summary.FinalEquity.Sub(start)

	fmt.Printf("candles:     %d\n", len(candles))
	fmt.Printf("cycles:      %d\n", summary.Cycles)
	fmt.Printf("fills:       %d\n", summary.Fills)
	fmt.Printf("rejections:  %d\n", summary.Rejections)
	fmt.Printf("risk exits:  %d\n", summary.RiskExits)
	fmt.Printf("final price: %s\n", summary.FinalPrice)
	for currency, amount := range summary.Balances {
		fmt.Printf("balance %-4s %s\n", currency, amount)
	}
	fmt.Printf("equity:      %s %s (%s)\n", summary.FinalEquity, pair.Quote, pnl)
	return nil
}
