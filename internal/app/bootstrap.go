// Package app wires configuration, storage, market access and the
// trading cycle into a runnable bot.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/FKdevelopers254/automatedbotrader/internal/domain"
	"github.com/FKdevelopers254/automatedbotrader/internal/engine"
	"github.com/FKdevelopers254/automatedbotrader/internal/execution"
	"github.com/FKdevelopers254/automatedbotrader/internal/infra"
	"github.com/FKdevelopers254/automatedbotrader/internal/market"
	"github.com/FKdevelopers254/automatedbotrader/internal/risk"
	"github.com/FKdevelopers254/automatedbotrader/internal/storage"
	"github.com/FKdevelopers254/automatedbotrader/internal/strategy"
)

// Bootstrap owns the startup sequence and the wired components.
type Bootstrap struct {
	Config  *infra.Config
	Log     *slog.Logger
	Cycle   *engine.TradingCycle
	Journal *storage.Journal
	States  *storage.StateStore
	Stream  *market.TickerStream

	ledger *domain.Ledger
	signer *market.Signer
	unlock func()
}

func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration and wires every component. On success
// the bot is ready for RunOnce / the scheduler loop.
func (b *Bootstrap) Initialize(ctx context.Context) error {
	// .env is a development convenience; absence is not an error.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded environment from .env")
	}

	cfg, err := infra.LoadConfig(infra.ResolveConfigPath())
	if err != nil {
		return err
	}
	b.Config = cfg

	b.Log = infra.NewLogger(cfg)
	slog.SetDefault(b.Log)

	pair, err := domain.ParsePair(cfg.Trading.Pair)
	if err != nil {
		return err
	}

	// Workspace layout: _workspace/data/<mode>/{journal.db,state.json}
	mode := strings.ToLower(cfg.Trading.Mode)
	workDir := infra.GetWorkspaceDir()
	dataDir := filepath.Join(workDir, "data", mode)
	if err := infra.EnsureDir(dataDir); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	unlock, err := infra.CreateLockFile(workDir)
	if err != nil {
		return err
	}
	b.unlock = unlock

	journalPath := cfg.Journal.Path
	if journalPath == "" {
		journalPath = filepath.Join(dataDir, "journal.db")
	}
	journal, err := storage.NewJournal(journalPath)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	b.Journal = journal
	b.Log.Info("journal ready", "path", journalPath)

	b.States = storage.NewStateStore(dataDir)

	// Market access. The signer only exists when credentials are set;
	// paper mode works fine against public endpoints alone.
	clientOpts := []market.Option{}
	if cfg.API.Kucoin.RestURL != "" {
		clientOpts = append(clientOpts, market.WithBaseURL(cfg.API.Kucoin.RestURL))
	}
	if cfg.API.Kucoin.Key != "" {
		b.signer = market.NewSigner(cfg.API.Kucoin.Key, cfg.API.Kucoin.Secret, cfg.API.Kucoin.Passphrase)
		clientOpts = append(clientOpts, market.WithSigner(b.signer))
	}
	client := market.NewClient(b.Log, clientOpts...)

	b.Stream = market.NewTickerStream(client, pair, b.Log)
	source := market.NewStreamedSource(client, b.Stream)

	ledger, position, err := b.seedLedger(ctx, cfg, client)
	if err != nil {
		return err
	}
	b.ledger = ledger

	executor, err := execution.NewExecutor(execution.Mode(cfg.Trading.Mode), client, b.Log)
	if err != nil {
		return err
	}

	engineCfg := engine.Config{
		Pair:          pair,
		Interval:      cfg.Trading.Interval,
		TradeSize:     decimal.RequireFromString(cfg.Trading.TradeSize),
		StopLossPct:   decimal.RequireFromString(cfg.Trading.StopLossPct),
		TakeProfitPct: decimal.RequireFromString(cfg.Trading.TakeProfitPct),
	}

	b.Cycle = engine.NewTradingCycle(engineCfg, source,
		strategy.NewSMACross(strategy.FastWindow, strategy.SlowWindow),
		executor,
		risk.NewMonitor(engineCfg.StopLossPct, engineCfg.TakeProfitPct),
		ledger, journal, b.Log)

	if position != nil {
		b.Cycle.RestorePosition(position)
		b.Log.Info("restored open position",
			"entry", position.EntryPrice, "qty", position.Quantity)
	}

	return nil
}

// seedLedger builds the starting ledger. Paper mode resumes from the
// persisted state when one exists, otherwise it seeds the configured
// balances. Live mode always reflects the real exchange account.
func (b *Bootstrap) seedLedger(ctx context.Context, cfg *infra.Config, client *market.Client) (*domain.Ledger, *domain.Position, error) {
	if cfg.Trading.Mode == "LIVE" {
		balances, err := client.Accounts(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("fetching live balances: %w", err)
		}
		ledger := domain.NewLedger()
		for currency, amount := range balances {
			ledger.Credit(currency, amount)
		}
		// The position still comes from local state: the exchange
		// knows balances, not our entry price.
		_, position, err := b.States.Load()
		if err != nil {
			return nil, nil, err
		}
		return ledger, position, nil
	}

	ledger, position, err := b.States.Load()
	if err != nil {
		return nil, nil, err
	}
	if ledger != nil {
		b.Log.Info("resuming paper balances from saved state")
		return ledger, position, nil
	}

	ledger = domain.NewLedger()
	for currency, raw := range cfg.Paper.Balances {
		ledger.Credit(currency, decimal.RequireFromString(raw))
	}
	return ledger, nil, nil
}

// RunOnce executes a single trading cycle and persists the resulting
// state for crash recovery.
func (b *Bootstrap) RunOnce(ctx context.Context) (engine.CycleReport, error) {
	report, err := b.Cycle.RunCycle(ctx)
	if err != nil {
		return report, err
	}
	if saveErr := b.States.Save(b.ledger, b.Cycle.Position()); saveErr != nil {
		b.Log.Error("saving state failed", "error", saveErr)
	}
	return report, nil
}

// Shutdown releases every resource in reverse initialization order.
func (b *Bootstrap) Shutdown() {
	if b.Stream != nil {
		b.Stream.Stop()
	}
	if b.Journal != nil {
		b.Journal.Close()
	}
	if b.signer != nil {
		b.signer.Wipe()
	}
	if b.unlock != nil {
		b.unlock()
	}
}
