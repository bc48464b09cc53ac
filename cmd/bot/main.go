package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FKdevelopers254/automatedbotrader/internal/app"
	"github.com/FKdevelopers254/automatedbotrader/internal/engine"
	"github.com/FKdevelopers254/automatedbotrader/internal/infra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(ctx); err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer bootstrap.Shutdown()

	infra.PrintBanner(bootstrap.Config)

	// Keep a live price cache warm between cycles.
	bootstrap.Stream.Start(ctx)

	log := bootstrap.Log
	interval := time.Duration(bootstrap.Config.Trading.PollIntervalSec) * time.Second
	log.Info("bot started", "poll_interval", interval)

	// First cycle immediately, then on the timer.
	runCycle(ctx, bootstrap, log)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return
		case <-ticker.C:
			runCycle(ctx, bootstrap, log)
		}
	}
}

func runCycle(ctx context.Context, bootstrap *app.Bootstrap, log *slog.Logger) {
	if ctx.Err() != nil {
		return
	}
	if _, err := bootstrap.RunOnce(ctx); err != nil {
		if errors.Is(err, engine.ErrCycleInFlight) {
			log.Warn("previous cycle still running, skipping tick")
			return
		}
		// A failed cycle is retried on the next tick; only log it.
		log.Error("cycle failed", "error", err)
	}
}
