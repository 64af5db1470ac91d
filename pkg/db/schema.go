package db

import (
	"database/sql"
	"fmt"
)

const schema = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS accounts (
    user_id TEXT PRIMARY KEY,
    starting_capital REAL NOT NULL,
    current_equity REAL NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY(user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS daily_stats (
    user_id TEXT NOT NULL,
    date TEXT NOT NULL,
    daily_pnl REAL DEFAULT 0,
    trades INTEGER DEFAULT 0,
    PRIMARY KEY(user_id, date)
);

CREATE TABLE IF NOT EXISTS journal_trades (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    symbol TEXT NOT NULL,
    side TEXT NOT NULL,
    entry_price REAL NOT NULL,
    stop_loss REAL,
    exit_price REAL,
    size REAL NOT NULL,
    leverage REAL DEFAULT 1,
    pnl REAL DEFAULT 0,
    closed INTEGER DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    closed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_journal_trades_user ON journal_trades(user_id, created_at);

CREATE TABLE IF NOT EXISTS risk_settings (
    user_id TEXT PRIMARY KEY,
    daily_loss_limit_pct REAL,
    max_risk_per_trade_pct REAL,
    max_leverage REAL,
    enable_tilt_alerts INTEGER DEFAULT 1,
    audio_alerts INTEGER DEFAULT 0,
    mdl_percent REAL,
    ml_percent REAL,
    enforce_prop_firm_limits INTEGER DEFAULT 1,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS risk_profiles (
    name TEXT PRIMARY KEY,
    description TEXT,
    daily_loss_limit_pct REAL,
    max_risk_per_trade_pct REAL,
    max_leverage REAL,
    mdl_percent REAL,
    ml_percent REAL,
    enforce_prop_firm_limits INTEGER DEFAULT 1,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// ApplyMigrations bootstraps the schema; keep lightweight for fast startup.
func ApplyMigrations(d *Database) error {
	if d == nil || d.DB == nil {
		return fmt.Errorf("database is not initialized")
	}
	if _, err := d.DB.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	// Lightweight, idempotent migrations for older DB files.
	if err := ensureColumn(d.DB, "risk_settings", "enforce_prop_firm_limits", "INTEGER DEFAULT 1"); err != nil {
		return err
	}
	if err := ensureColumn(d.DB, "risk_settings", "mdl_percent", "REAL"); err != nil {
		return err
	}
	if err := ensureColumn(d.DB, "risk_settings", "ml_percent", "REAL"); err != nil {
		return err
	}
	if err := ensureColumn(d.DB, "journal_trades", "leverage", "REAL DEFAULT 1"); err != nil {
		return err
	}

	return nil
}

func ensureColumn(db *sql.DB, table, column, definition string) error {
	exists, err := columnExists(db, table, column)
	if err != nil {
		return fmt.Errorf("check column %s.%s: %w", table, column, err)
	}
	if exists {
		return nil
	}
	if _, err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return nil
}

func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
