// Package storage persists trading activity to SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"github.com/FKdevelopers254/automatedbotrader/internal/domain"
	"github.com/FKdevelopers254/automatedbotrader/internal/engine"
)

// Journal is an append-only SQLite record of every trading cycle and
// fill. It implements engine.Reporter.
type Journal struct {
	db *sql.DB
}

// NewJournal opens (or creates) the journal database in WAL mode.
func NewJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("setting pragma %s: %w", pragma, err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS cycles (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			ts        INTEGER NOT NULL,
			price     TEXT NOT NULL,
			signal    TEXT NOT NULL,
			outcome   TEXT NOT NULL,
			reason    TEXT NOT NULL DEFAULT '',
			risk_exit TEXT NOT NULL DEFAULT 'NONE',
			balances  TEXT NOT NULL,
			rsi       REAL,
			macd      REAL
		);
		CREATE TABLE IF NOT EXISTS fills (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id   INTEGER NOT NULL REFERENCES cycles(id),
			side       TEXT NOT NULL,
			qty        TEXT NOT NULL,
			price      TEXT NOT NULL,
			quote      TEXT NOT NULL,
			protective INTEGER NOT NULL DEFAULT 0
		);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// RecordCycle writes one cycle and its fills atomically.
func (j *Journal) RecordCycle(ctx context.Context, report engine.CycleReport) error {
	balances := make(map[string]string, len(report.Balances))
	for currency, amount := range report.Balances {
		balances[currency] = amount.String()
	}
	balancesJSON, err := json.Marshal(balances)
	if err != nil {
		return fmt.Errorf("marshaling balances: %w", err)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var rsi, macd any
	if report.Indicators.Ready {
		rsi = report.Indicators.RSI
		macd = report.Indicators.MACD
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO cycles (ts, price, signal, outcome, reason, risk_exit, balances, rsi, macd)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.Timestamp.UnixMicro(),
		report.Price.String(),
		report.Signal.String(),
		report.Outcome.Kind.String(),
		report.Outcome.Reason,
		report.RiskExit.Kind.String(),
		string(balancesJSON),
		rsi, macd,
	)
	if err != nil {
		return fmt.Errorf("inserting cycle: %w", err)
	}
	cycleID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if err := j.insertFill(ctx, tx, cycleID, report.Outcome, false); err != nil {
		return err
	}
	if report.RiskOutcome != nil {
		if err := j.insertFill(ctx, tx, cycleID, *report.RiskOutcome, true); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (j *Journal) insertFill(ctx context.Context, tx *sql.Tx, cycleID int64, outcome domain.TradeOutcome, protective bool) error {
	if outcome.Kind != domain.OutcomeFilled {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO fills (cycle_id, side, qty, price, quote, protective)
		VALUES (?, ?, ?, ?, ?, ?)`,
		cycleID,
		outcome.Side.String(),
		outcome.Quantity.String(),
		outcome.Price.String(),
		outcome.Quote.String(),
		protective,
	)
	if err != nil {
		return fmt.Errorf("inserting fill: %w", err)
	}
	return nil
}

// CycleRow is one journaled cycle, as stored.
type CycleRow struct {
	ID       int64
	TsMicros int64
	Price    string
	Signal   string
	Outcome  string
	Reason   string
	RiskExit string
	Balances map[string]string
}

// RecentCycles returns the newest n cycles, newest first.
func (j *Journal) RecentCycles(ctx context.Context, n int) ([]CycleRow, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, ts, price, signal, outcome, reason, risk_exit, balances
		FROM cycles ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying cycles: %w", err)
	}
	defer rows.Close()

	var out []CycleRow
	for rows.Next() {
		var row CycleRow
		var balancesJSON string
		if err := rows.Scan(&row.ID, &row.TsMicros, &row.Price, &row.Signal,
			&row.Outcome, &row.Reason, &row.RiskExit, &balancesJSON); err != nil {
			return nil, fmt.Errorf("scanning cycle: %w", err)
		}
		if err := json.Unmarshal([]byte(balancesJSON), &row.Balances); err != nil {
			return nil, fmt.Errorf("unmarshaling balances for cycle %d: %w", row.ID, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// FillCount returns the number of journaled fills.
func (j *Journal) FillCount(ctx context.Context) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fills").Scan(&n)
	return n, err
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
