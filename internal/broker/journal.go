package broker

import (
	"database/sql"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"paperquant/internal/model"
)

// Journal persists executed paper trades to SQLite for audit and read-back.
// The ledger itself only keeps the last order; the journal is the durable
// trail.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// NewJournal opens (or creates) the trade journal database.
func NewJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol     TEXT NOT NULL,
		side       TEXT NOT NULL,
		qty        INTEGER NOT NULL,
		price      REAL NOT NULL,
		reason     TEXT,
		filled_at  DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
	CREATE INDEX IF NOT EXISTS idx_trades_filled_at ON trades(filled_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("trade journal opened", "path", dbPath)
	return &Journal{db: db}, nil
}

// RecordFill appends one executed order. reason is the strategy's reason code
// for the signal that produced the fill.
func (j *Journal) RecordFill(order model.Order, reason string, filledAt time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(
		`INSERT INTO trades (symbol, side, qty, price, reason, filled_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		order.Symbol, string(order.Side), order.Qty, order.Price,
		reason, filledAt.UTC().Format(time.RFC3339),
	)
	return err
}

// TradeRecord is one journal row.
type TradeRecord struct {
	ID       int64   `json:"id"`
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Qty      int64   `json:"qty"`
	Price    float64 `json:"price"`
	Reason   string  `json:"reason"`
	FilledAt string  `json:"filled_at"`
}

// Trades returns the last N trades, newest first.
func (j *Journal) Trades(limit int) ([]TradeRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		`SELECT id, symbol, side, qty, price, reason, filled_at
		 FROM trades ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Side, &t.Qty, &t.Price, &t.Reason, &t.FilledAt); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// DB exposes the underlying handle for liveness checks.
func (j *Journal) DB() *sql.DB { return j.db }

// Close closes the journal database.
func (j *Journal) Close() error { return j.db.Close() }
