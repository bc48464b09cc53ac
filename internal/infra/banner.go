package infra

import (
	"fmt"
	"strings"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

// PrintBanner displays the startup banner with mode-specific warnings.
func PrintBanner(cfg *Config) {
	mode := strings.ToUpper(cfg.Trading.Mode)

	color := ColorCyan
	modeDesc := "INTERNAL SIMULATION"
	if mode == "LIVE" {
		color = ColorRed
		modeDesc = "REAL MONEY TRADING"
	}

	fmt.Println()
	fmt.Printf("%s###########################################################%s\n", color, ColorReset)
	fmt.Printf("%s#                                                         #%s\n", color, ColorReset)
	fmt.Printf("%s#              Automated Bot Trader                       #%s\n", color, ColorReset)
	fmt.Printf("%s#                                                         #%s\n", color, ColorReset)
	fmt.Printf("%s#   MODE:     %-35s #%s\n", color, mode, ColorReset)
	fmt.Printf("%s#   TYPE:     %-35s #%s\n", color, modeDesc, ColorReset)
	fmt.Printf("%s#   PAIR:     %-35s #%s\n", color, cfg.Trading.Pair, ColorReset)
	fmt.Printf("%s#   INTERVAL: %-35s #%s\n", color, cfg.Trading.Interval, ColorReset)
	fmt.Printf("%s#   VERSION:  %-35s #%s\n", color, cfg.App.Version, ColorReset)
	fmt.Printf("%s#                                                         #%s\n", color, ColorReset)

	if mode == "LIVE" {
		fmt.Printf("%s#   WARNING: YOU ARE TRADING WITH REAL MONEY              #%s\n", ColorRed, ColorReset)
		fmt.Printf("%s#   VERIFY YOUR STRATEGY IN PAPER MODE FIRST              #%s\n", ColorRed, ColorReset)
	}

	fmt.Printf("%s###########################################################%s\n", color, ColorReset)
	fmt.Println()
}
