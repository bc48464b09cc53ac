package execution

import (
	"fmt"
	"log/slog"
	"os"
)

// Mode selects the execution backend.
type Mode string

const (
	ModePaper Mode = "PAPER"
	ModeLive  Mode = "LIVE"
)

// NewExecutor builds the executor for a mode. Live mode requires both a
// connected exchange client and the CONFIRM_REAL_MONEY=true environment
// variable; starting live trading without the latch is a deployment
// mistake, so it fails fast.
func NewExecutor(mode Mode, client OrderPlacer, log *slog.Logger) (Executor, error) {
	switch mode {
	case ModePaper:
		return NewPaperExecutor(log), nil

	case ModeLive:
		if os.Getenv("CONFIRM_REAL_MONEY") != "true" {
			err := fmt.Errorf("SAFETY_GUARD: live trading requires CONFIRM_REAL_MONEY=true")
			log.Error(err.Error())
			panic(err)
		}
		if client == nil {
			return nil, fmt.Errorf("live mode requires an exchange client")
		}
		log.Warn("live trading enabled, orders will spend real funds")
		return NewLiveExecutor(client, log), nil

	default:
		return nil, fmt.Errorf("unknown execution mode: %s", mode)
	}
}
