package infra

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// GetUserAgent identifies this bot on outbound HTTP and websocket
// connections.
func GetUserAgent() string {
	return fmt.Sprintf("automatedbotrader/1.0 (%s; %s)", runtime.GOOS, runtime.GOARCH)
}

// Config holds the full application configuration. Secrets may live in
// the file for development but environment variables override them.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Trading struct {
		Mode            string `yaml:"mode"`     // PAPER or LIVE
		Pair            string `yaml:"pair"`     // e.g. BTC-USDT
		Interval        string `yaml:"interval"` // kline type, e.g. 1hour
		TradeSize       string `yaml:"trade_size"`
		StopLossPct     string `yaml:"stop_loss_pct"`
		TakeProfitPct   string `yaml:"take_profit_pct"`
		PollIntervalSec int    `yaml:"poll_interval_sec"`
	} `yaml:"trading"`

	API struct {
		Kucoin struct {
			RestURL    string `yaml:"rest_url"`
			Key        string `yaml:"key"`
			Secret     string `yaml:"secret"`
			Passphrase string `yaml:"passphrase"`
		} `yaml:"kucoin"`
	} `yaml:"api"`

	// Paper mode starting balances, currency -> amount.
	Paper struct {
		Balances map[string]string `yaml:"balances"`
	} `yaml:"paper"`

	Journal struct {
		Path string `yaml:"path"` // empty means <workspace>/journal.db
	} `yaml:"journal"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and validates the configuration file. Environment
// variables override file values before validation.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks every field the bot cannot run without.
func (c *Config) Validate() error {
	mode := strings.ToUpper(c.Trading.Mode)
	if mode != "PAPER" && mode != "LIVE" {
		return fmt.Errorf("trading.mode must be PAPER or LIVE, got %q", c.Trading.Mode)
	}
	c.Trading.Mode = mode

	if !strings.Contains(c.Trading.Pair, "-") {
		return fmt.Errorf("trading.pair must look like BASE-QUOTE, got %q", c.Trading.Pair)
	}
	if c.Trading.Interval == "" {
		return fmt.Errorf("trading.interval is required")
	}
	if c.Trading.PollIntervalSec <= 0 {
		return fmt.Errorf("trading.poll_interval_sec must be positive")
	}

	size, err := decimal.NewFromString(c.Trading.TradeSize)
	if err != nil || !size.IsPositive() {
		return fmt.Errorf("trading.trade_size must be a positive decimal, got %q", c.Trading.TradeSize)
	}
	for name, raw := range map[string]string{
		"trading.stop_loss_pct":   c.Trading.StopLossPct,
		"trading.take_profit_pct": c.Trading.TakeProfitPct,
	} {
		pct, err := decimal.NewFromString(raw)
		if err != nil || pct.IsNegative() || pct.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return fmt.Errorf("%s must be a decimal in [0, 1), got %q", name, raw)
		}
	}

	if mode == "LIVE" {
		k := c.API.Kucoin
		if k.Key == "" || k.Secret == "" || k.Passphrase == "" {
			return fmt.Errorf("LIVE mode requires KuCoin API credentials")
		}
	}

	for currency, raw := range c.Paper.Balances {
		amount, err := decimal.NewFromString(raw)
		if err != nil || amount.IsNegative() {
			return fmt.Errorf("paper.balances.%s must be a non-negative decimal, got %q", currency, raw)
		}
	}

	return nil
}

// overrideWithEnv applies environment variables over file values.
// Secrets belong in the environment, not in the file.
func overrideWithEnv(cfg *Config) {
	if cfg.API.Kucoin.Secret != "" {
		fmt.Println("WARNING: API secret found in config file.")
		fmt.Println("  Prefer environment variables: KUCOIN_KEY, KUCOIN_SECRET, KUCOIN_PASSPHRASE")
	}

	if key := os.Getenv("KUCOIN_KEY"); key != "" {
		cfg.API.Kucoin.Key = key
	}
	if secret := os.Getenv("KUCOIN_SECRET"); secret != "" {
		cfg.API.Kucoin.Secret = secret
	}
	if pass := os.Getenv("KUCOIN_PASSPHRASE"); pass != "" {
		cfg.API.Kucoin.Passphrase = pass
	}
	if mode := os.Getenv("TRADING_MODE"); mode != "" {
		cfg.Trading.Mode = mode
	}
}
