package db

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// User represents an application user.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Account holds paper-trading capital per user. StartingCapital is immutable
// once written; CurrentEquity moves with realized trade outcomes.
type Account struct {
	UserID          string
	StartingCapital float64
	CurrentEquity   float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DailyStat aggregates realized P&L per user per calendar day (YYYY-MM-DD).
type DailyStat struct {
	UserID   string
	Date     string
	DailyPnL float64
	Trades   int
}

// JournalTrade is a row in the user's trade journal.
type JournalTrade struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Symbol     string     `json:"symbol"`
	Side       string     `json:"side"`
	EntryPrice float64    `json:"entry_price"`
	StopLoss   *float64   `json:"stop_loss,omitempty"`
	ExitPrice  *float64   `json:"exit_price,omitempty"`
	Size       float64    `json:"size"`
	Leverage   float64    `json:"leverage"`
	PnL        float64    `json:"pnl"`
	Closed     bool       `json:"closed"`
	CreatedAt  time.Time  `json:"created_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
}

// RiskSettingsRow is the persisted whole-record risk configuration. Nullable
// columns let old rows merge onto engine defaults at load.
type RiskSettingsRow struct {
	UserID                string
	DailyLossLimitPct     sql.NullFloat64
	MaxRiskPerTradePct    sql.NullFloat64
	MaxLeverage           sql.NullFloat64
	EnableTiltAlerts      sql.NullBool
	AudioAlerts           sql.NullBool
	MDLPercent            sql.NullFloat64
	MLPercent             sql.NullFloat64
	EnforcePropFirmLimits sql.NullBool
	UpdatedAt             time.Time
}

// SettingsRecord carries concrete settings values for a whole-record save.
type SettingsRecord struct {
	DailyLossLimitPct     float64
	MaxRiskPerTradePct    float64
	MaxLeverage           float64
	EnableTiltAlerts      bool
	AudioAlerts           bool
	MDLPercent            float64
	MLPercent             float64
	EnforcePropFirmLimits bool
}

// RiskProfileRow is a named settings preset.
type RiskProfileRow struct {
	Name                  string
	Description           string
	DailyLossLimitPct     float64
	MaxRiskPerTradePct    float64
	MaxLeverage           float64
	MDLPercent            float64
	MLPercent             float64
	EnforcePropFirmLimits bool
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// CreateUser inserts a new user row.
func (d *Database) CreateUser(ctx context.Context, u User) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP), COALESCE(?, CURRENT_TIMESTAMP))
	`, u.ID, strings.ToLower(u.Email), u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	return err
}

// GetUserByEmail returns a user by email or nil if not found.
func (d *Database) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := d.DB.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users WHERE email = ?
	`, strings.ToLower(email))
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// CreateAccount seeds a paper-trading account. Equity starts at capital.
func (d *Database) CreateAccount(ctx context.Context, userID string, startingCapital float64) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO accounts (user_id, starting_capital, current_equity)
		VALUES (?, ?, ?)
	`, userID, startingCapital, startingCapital)
	return err
}

// GetAccount returns a user's account or nil if none exists yet.
func (d *Database) GetAccount(ctx context.Context, userID string) (*Account, error) {
	row := d.DB.QueryRowContext(ctx, `
		SELECT user_id, starting_capital, current_equity, created_at, updated_at
		FROM accounts WHERE user_id = ?
	`, userID)
	var a Account
	if err := row.Scan(&a.UserID, &a.StartingCapital, &a.CurrentEquity, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// UpdateAccountEquity sets the current equity. Starting capital never changes.
func (d *Database) UpdateAccountEquity(ctx context.Context, userID string, equity float64) error {
	_, err := d.DB.ExecContext(ctx, `
		UPDATE accounts SET current_equity = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`, equity, userID)
	return err
}

// GetDailyStat returns the stat row for a user and day; a missing row reads as
// zero P&L.
func (d *Database) GetDailyStat(ctx context.Context, userID, date string) (DailyStat, error) {
	stat := DailyStat{UserID: userID, Date: date}
	row := d.DB.QueryRowContext(ctx, `
		SELECT daily_pnl, trades FROM daily_stats
		WHERE user_id = ? AND date = ?
	`, userID, date)
	if err := row.Scan(&stat.DailyPnL, &stat.Trades); err != nil {
		if err == sql.ErrNoRows {
			return stat, nil
		}
		return stat, err
	}
	return stat, nil
}

// ApplyDailyPnL accumulates a realized outcome into the day's stat row.
func (d *Database) ApplyDailyPnL(ctx context.Context, userID, date string, pnl float64) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO daily_stats (user_id, date, daily_pnl, trades)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(user_id, date) DO UPDATE SET
			daily_pnl = daily_pnl + ?,
			trades = trades + 1
	`, userID, date, pnl, pnl)
	return err
}

// CreateJournalTrade inserts a journal row.
func (d *Database) CreateJournalTrade(ctx context.Context, t JournalTrade) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO journal_trades (
			id, user_id, symbol, side, entry_price, stop_loss, exit_price,
			size, leverage, pnl, closed, created_at, closed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP), ?)
	`,
		t.ID, t.UserID, t.Symbol, t.Side, t.EntryPrice, t.StopLoss, t.ExitPrice,
		t.Size, t.Leverage, t.PnL, boolToInt(t.Closed), t.CreatedAt, t.ClosedAt,
	)
	return err
}

// ListJournalTrades returns the most recent journal rows for a user.
func (d *Database) ListJournalTrades(ctx context.Context, userID string, limit int) ([]JournalTrade, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, user_id, symbol, side, entry_price, stop_loss, exit_price,
		       size, leverage, pnl, closed, created_at, closed_at
		FROM journal_trades WHERE user_id = ?
		ORDER BY created_at DESC LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []JournalTrade
	for rows.Next() {
		var t JournalTrade
		var closed int
		if err := rows.Scan(&t.ID, &t.UserID, &t.Symbol, &t.Side, &t.EntryPrice, &t.StopLoss,
			&t.ExitPrice, &t.Size, &t.Leverage, &t.PnL, &closed, &t.CreatedAt, &t.ClosedAt); err != nil {
			return nil, err
		}
		t.Closed = closed == 1
		res = append(res, t)
	}
	return res, rows.Err()
}

// GetRiskSettings returns the persisted settings row or nil if the user has
// never saved one.
func (d *Database) GetRiskSettings(ctx context.Context, userID string) (*RiskSettingsRow, error) {
	row := d.DB.QueryRowContext(ctx, `
		SELECT user_id, daily_loss_limit_pct, max_risk_per_trade_pct, max_leverage,
		       enable_tilt_alerts, audio_alerts, mdl_percent, ml_percent,
		       enforce_prop_firm_limits, updated_at
		FROM risk_settings WHERE user_id = ?
	`, userID)
	var r RiskSettingsRow
	if err := row.Scan(&r.UserID, &r.DailyLossLimitPct, &r.MaxRiskPerTradePct, &r.MaxLeverage,
		&r.EnableTiltAlerts, &r.AudioAlerts, &r.MDLPercent, &r.MLPercent,
		&r.EnforcePropFirmLimits, &r.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// SaveRiskSettings upserts the whole settings record for a user.
func (d *Database) SaveRiskSettings(ctx context.Context, userID string, s SettingsRecord) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO risk_settings (
			user_id, daily_loss_limit_pct, max_risk_per_trade_pct, max_leverage,
			enable_tilt_alerts, audio_alerts, mdl_percent, ml_percent,
			enforce_prop_firm_limits, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			daily_loss_limit_pct = excluded.daily_loss_limit_pct,
			max_risk_per_trade_pct = excluded.max_risk_per_trade_pct,
			max_leverage = excluded.max_leverage,
			enable_tilt_alerts = excluded.enable_tilt_alerts,
			audio_alerts = excluded.audio_alerts,
			mdl_percent = excluded.mdl_percent,
			ml_percent = excluded.ml_percent,
			enforce_prop_firm_limits = excluded.enforce_prop_firm_limits,
			updated_at = CURRENT_TIMESTAMP
	`,
		userID, s.DailyLossLimitPct, s.MaxRiskPerTradePct, s.MaxLeverage,
		boolToInt(s.EnableTiltAlerts), boolToInt(s.AudioAlerts), s.MDLPercent, s.MLPercent,
		boolToInt(s.EnforcePropFirmLimits),
	)
	return err
}

// UpsertRiskProfile stores a named preset.
func (d *Database) UpsertRiskProfile(ctx context.Context, p RiskProfileRow) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO risk_profiles (
			name, description, daily_loss_limit_pct, max_risk_per_trade_pct,
			max_leverage, mdl_percent, ml_percent, enforce_prop_firm_limits, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			daily_loss_limit_pct = excluded.daily_loss_limit_pct,
			max_risk_per_trade_pct = excluded.max_risk_per_trade_pct,
			max_leverage = excluded.max_leverage,
			mdl_percent = excluded.mdl_percent,
			ml_percent = excluded.ml_percent,
			enforce_prop_firm_limits = excluded.enforce_prop_firm_limits,
			updated_at = CURRENT_TIMESTAMP
	`,
		p.Name, p.Description, p.DailyLossLimitPct, p.MaxRiskPerTradePct,
		p.MaxLeverage, p.MDLPercent, p.MLPercent, boolToInt(p.EnforcePropFirmLimits),
	)
	return err
}

// ListRiskProfiles returns all named presets.
func (d *Database) ListRiskProfiles(ctx context.Context) ([]RiskProfileRow, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT name, COALESCE(description, ''), daily_loss_limit_pct, max_risk_per_trade_pct,
		       max_leverage, mdl_percent, ml_percent, enforce_prop_firm_limits
		FROM risk_profiles ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []RiskProfileRow
	for rows.Next() {
		var p RiskProfileRow
		var enforce int
		if err := rows.Scan(&p.Name, &p.Description, &p.DailyLossLimitPct, &p.MaxRiskPerTradePct,
			&p.MaxLeverage, &p.MDLPercent, &p.MLPercent, &enforce); err != nil {
			return nil, err
		}
		p.EnforcePropFirmLimits = enforce == 1
		res = append(res, p)
	}
	return res, rows.Err()
}

// GetRiskProfile returns a preset by name or nil if unknown.
func (d *Database) GetRiskProfile(ctx context.Context, name string) (*RiskProfileRow, error) {
	row := d.DB.QueryRowContext(ctx, `
		SELECT name, COALESCE(description, ''), daily_loss_limit_pct, max_risk_per_trade_pct,
		       max_leverage, mdl_percent, ml_percent, enforce_prop_firm_limits
		FROM risk_profiles WHERE name = ?
	`, name)
	var p RiskProfileRow
	var enforce int
	if err := row.Scan(&p.Name, &p.Description, &p.DailyLossLimitPct, &p.MaxRiskPerTradePct,
		&p.MaxLeverage, &p.MDLPercent, &p.MLPercent, &enforce); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	p.EnforcePropFirmLimits = enforce == 1
	return &p, nil
}
