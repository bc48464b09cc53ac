package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FKdevelopers254/automatedbotrader/internal/domain"
)

// PositionState is the persisted form of an open position.
type PositionState struct {
	EntryPrice string `json:"entry_price"`
	Quantity   string `json:"quantity"`
}

// BotState is a point-in-time capture of the trading state, written
// after every cycle so a restart can resume with the same position and
// paper balances instead of starting blind.
type BotState struct {
	SavedAtUnix int64             `json:"saved_at"`
	Balances    map[string]string `json:"balances"`
	Position    *PositionState    `json:"position,omitempty"`
}

// StateStore reads and writes the bot state file.
type StateStore struct {
	dir string
}

func NewStateStore(dir string) *StateStore {
	return &StateStore{dir: dir}
}

func (s *StateStore) path() string {
	return filepath.Join(s.dir, "state.json")
}

// Save writes the state atomically (temp file + rename) so a crash
// mid-write never corrupts the previous state.
func (s *StateStore) Save(ledger *domain.Ledger, position *domain.Position) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	state := BotState{
		SavedAtUnix: time.Now().Unix(),
		Balances:    make(map[string]string),
	}
	for currency, amount := range ledger.Snapshot() {
		state.Balances[currency] = amount.String()
	}
	if position != nil {
		state.Position = &PositionState{
			EntryPrice: position.EntryPrice.String(),
			Quantity:   position.Quantity.String(),
		}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	tmp := s.path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	return os.Rename(tmp, s.path())
}

// Load reads the persisted state. It returns (nil, nil, nil) when no
// state file exists yet.
func (s *StateStore) Load() (*domain.Ledger, *domain.Position, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("reading state: %w", err)
	}

	var state BotState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, nil, fmt.Errorf("unmarshaling state: %w", err)
	}

	ledger := domain.NewLedger()
	for currency, raw := range state.Balances {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("bad balance %q for %s: %w", raw, currency, err)
		}
		ledger.Credit(currency, amount)
	}

	var position *domain.Position
	if state.Position != nil {
		entry, err := decimal.NewFromString(state.Position.EntryPrice)
		if err != nil {
			return nil, nil, fmt.Errorf("bad entry price %q: %w", state.Position.EntryPrice, err)
		}
		qty, err := decimal.NewFromString(state.Position.Quantity)
		if err != nil {
			return nil, nil, fmt.Errorf("bad quantity %q: %w", state.Position.Quantity, err)
		}
		position = domain.NewPosition(entry, qty)
	}

	return ledger, position, nil
}
