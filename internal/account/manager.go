// Package account owns the per-user serialization boundary around the risk
// engine: snapshot reads, admission checks, and equity commits for one
// account always run under the same lock, so no two decisions are made
// against a stale snapshot.
package account

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"risk-core/internal/events"
	"risk-core/internal/risk"
	"risk-core/pkg/db"
)

// Trade is a realized (or recorded open) journal entry committed to an account.
type Trade struct {
	ID         string
	Symbol     string
	Side       risk.Side
	EntryPrice float64
	StopLoss   *float64
	ExitPrice  *float64
	Size       float64
	Leverage   float64
	PnL        float64
	Closed     bool
}

// Manager holds one user's account state behind a single mutex. All exported
// methods are safe for concurrent use; the risk engine itself stays pure.
type Manager struct {
	userID string
	store  *db.Database // nil in pure in-memory mode
	bus    *events.Bus  // nil disables event publishing

	mu       sync.Mutex
	equity   risk.AccountEquity
	settings risk.Settings
	day      string
	dailyPnL float64
	closed   []risk.ClosedTrade
	status   risk.Status
}

// New loads (or seeds) a user's account state from the store.
func New(ctx context.Context, userID string, store *db.Database, bus *events.Bus, defaultCapital float64) (*Manager, error) {
	m := newManager(userID, store, bus)

	acct, err := store.GetAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if acct == nil {
		if err := store.CreateAccount(ctx, userID, defaultCapital); err != nil {
			return nil, fmt.Errorf("create account: %w", err)
		}
		acct = &db.Account{UserID: userID, StartingCapital: defaultCapital, CurrentEquity: defaultCapital}
	}
	m.equity = risk.AccountEquity{StartingCapital: acct.StartingCapital, CurrentEquity: acct.CurrentEquity}

	row, err := store.GetRiskSettings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load risk settings: %w", err)
	}
	m.settings = mergeSettings(row)

	m.day = today()
	stat, err := store.GetDailyStat(ctx, userID, m.day)
	if err != nil {
		return nil, fmt.Errorf("load daily stat: %w", err)
	}
	m.dailyPnL = stat.DailyPnL

	trades, err := store.ListJournalTrades(ctx, userID, 200)
	if err != nil {
		return nil, fmt.Errorf("load journal: %w", err)
	}
	for _, t := range trades {
		m.closed = append(m.closed, risk.ClosedTrade{
			Side:       risk.Side(t.Side),
			EntryPrice: t.EntryPrice,
			StopLoss:   t.StopLoss,
			Closed:     t.Closed,
		})
	}

	m.status = m.snapshotLocked().Status
	return m, nil
}

// NewInMemory creates a manager without persistence, for tests and dry runs.
func NewInMemory(userID string, eq risk.AccountEquity, settings risk.Settings, bus *events.Bus) *Manager {
	m := newManager(userID, nil, bus)
	m.equity = eq
	m.settings = settings
	m.day = today()
	m.status = m.snapshotLocked().Status
	return m
}

func newManager(userID string, store *db.Database, bus *events.Bus) *Manager {
	return &Manager{
		userID: userID,
		store:  store,
		bus:    bus,
	}
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// rollDayLocked zeroes the daily accumulator when the UTC day changes.
func (m *Manager) rollDayLocked() {
	if d := today(); d != m.day {
		log.Printf("account %s: daily rollover %s -> %s (prev pnl %.2f)", m.userID, m.day, d, m.dailyPnL)
		m.day = d
		m.dailyPnL = 0
	}
}

func (m *Manager) snapshotLocked() risk.Snapshot {
	return risk.BuildSnapshot(m.equity, m.dailyPnL, m.settings, m.closed)
}

// Snapshot recomputes the current risk snapshot.
func (m *Manager) Snapshot() risk.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollDayLocked()
	return m.snapshotLocked()
}

// Equity returns the current account equity values.
func (m *Manager) Equity() risk.AccountEquity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.equity
}

// Settings returns the user's effective risk settings.
func (m *Manager) Settings() risk.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// UpdateSettings replaces the whole settings record and persists it.
func (m *Manager) UpdateSettings(ctx context.Context, s risk.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store != nil {
		if err := m.store.SaveRiskSettings(ctx, m.userID, db.SettingsRecord{
			DailyLossLimitPct:     s.DailyLossLimitPct,
			MaxRiskPerTradePct:    s.MaxRiskPerTradePct,
			MaxLeverage:           s.MaxLeverage,
			EnableTiltAlerts:      s.EnableTiltAlerts,
			AudioAlerts:           s.AudioAlerts,
			MDLPercent:            s.MDLPercent,
			MLPercent:             s.MLPercent,
			EnforcePropFirmLimits: s.EnforcePropFirmLimits,
		}); err != nil {
			return fmt.Errorf("save risk settings: %w", err)
		}
	}
	m.settings = s

	if m.bus != nil {
		m.bus.Publish(events.EventSettingsUpdated, m.userID)
	}
	return nil
}

// EnforceTrade runs the admission gate against a snapshot taken under the
// same lock, closing the check-then-act gap for this account.
func (m *Manager) EnforceTrade(req risk.TradeEnforcementRequest) (risk.TradeEnforcementResult, risk.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollDayLocked()

	snap := m.snapshotLocked()
	res := risk.Enforce(req, snap, m.settings)

	if m.bus != nil {
		switch {
		case res.Blocked:
			m.bus.Publish(events.EventTradeBlocked, events.RiskAlert{
				UserID:   m.userID,
				Status:   string(snap.Status),
				Reason:   firstReason(res.Reasons),
				DailyPnL: snap.DailyPnL,
				Drawdown: snap.DrawdownPct,
			})
		case res.AdjustedSize < req.Size:
			m.bus.Publish(events.EventTradeResized, m.userID)
		default:
			m.bus.Publish(events.EventTradeAdmitted, m.userID)
		}
	}
	return res, snap
}

// RecordTrade commits a journal entry's equity effect and returns the
// snapshot after the commit. Closed trades move equity and the daily P&L;
// open entries only extend the journal.
func (m *Manager) RecordTrade(ctx context.Context, t Trade) (risk.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollDayLocked()

	newEquity := m.equity.CurrentEquity
	if t.Closed {
		newEquity += t.PnL
	}

	// Persist first; memory only moves once the store confirmed the commit,
	// so a failed write never leaves admission decisions running against
	// equity the database has not seen.
	if m.store != nil {
		var closedAt *time.Time
		if t.Closed {
			now := time.Now().UTC()
			closedAt = &now
		}
		leverage := t.Leverage
		if leverage == 0 {
			leverage = 1
		}
		if err := m.store.CreateJournalTrade(ctx, db.JournalTrade{
			ID:         t.ID,
			UserID:     m.userID,
			Symbol:     t.Symbol,
			Side:       string(t.Side),
			EntryPrice: t.EntryPrice,
			StopLoss:   t.StopLoss,
			ExitPrice:  t.ExitPrice,
			Size:       t.Size,
			Leverage:   leverage,
			PnL:        t.PnL,
			Closed:     t.Closed,
			ClosedAt:   closedAt,
		}); err != nil {
			return risk.Snapshot{}, fmt.Errorf("persist trade: %w", err)
		}
		if t.Closed {
			if err := m.store.ApplyDailyPnL(ctx, m.userID, m.day, t.PnL); err != nil {
				return risk.Snapshot{}, fmt.Errorf("persist daily pnl: %w", err)
			}
			if err := m.store.UpdateAccountEquity(ctx, m.userID, newEquity); err != nil {
				return risk.Snapshot{}, fmt.Errorf("persist equity: %w", err)
			}
		}
	}

	if t.Closed {
		m.equity.CurrentEquity = newEquity
		m.dailyPnL += t.PnL
	}

	m.closed = append(m.closed, risk.ClosedTrade{
		Side:       t.Side,
		EntryPrice: t.EntryPrice,
		StopLoss:   t.StopLoss,
		Closed:     t.Closed,
	})

	snap := m.snapshotLocked()
	m.publishTransitionLocked(snap)

	if m.bus != nil && t.Closed {
		m.bus.Publish(events.EventEquityUpdate, m.userID)
	}
	return snap, nil
}

// publishTransitionLocked emits a risk alert when the status degrades.
func (m *Manager) publishTransitionLocked(snap risk.Snapshot) {
	prev := m.status
	m.status = snap.Status
	if m.bus == nil || !m.settings.EnableTiltAlerts {
		return
	}
	if statusRank(snap.Status) > statusRank(prev) {
		m.bus.Publish(events.EventRiskAlert, events.RiskAlert{
			UserID:   m.userID,
			Status:   string(snap.Status),
			Reason:   snap.BreachReason,
			DailyPnL: snap.DailyPnL,
			Drawdown: snap.DrawdownPct,
		})
	}
}

func statusRank(s risk.Status) int {
	switch s {
	case risk.StatusTilt:
		return 2
	case risk.StatusWarn:
		return 1
	default:
		return 0
	}
}

func firstReason(reasons []string) string {
	if len(reasons) == 0 {
		return ""
	}
	return reasons[0]
}

// mergeSettings layers a persisted row over the engine defaults, so rows
// written before a column existed still read sensibly.
func mergeSettings(row *db.RiskSettingsRow) risk.Settings {
	s := risk.DefaultSettings()
	if row == nil {
		return s
	}
	if row.DailyLossLimitPct.Valid {
		s.DailyLossLimitPct = row.DailyLossLimitPct.Float64
	}
	if row.MaxRiskPerTradePct.Valid {
		s.MaxRiskPerTradePct = row.MaxRiskPerTradePct.Float64
	}
	if row.MaxLeverage.Valid {
		s.MaxLeverage = row.MaxLeverage.Float64
	}
	if row.EnableTiltAlerts.Valid {
		s.EnableTiltAlerts = row.EnableTiltAlerts.Bool
	}
	if row.AudioAlerts.Valid {
		s.AudioAlerts = row.AudioAlerts.Bool
	}
	if row.MDLPercent.Valid {
		s.MDLPercent = row.MDLPercent.Float64
	}
	if row.MLPercent.Valid {
		s.MLPercent = row.MLPercent.Float64
	}
	if row.EnforcePropFirmLimits.Valid {
		s.EnforcePropFirmLimits = row.EnforcePropFirmLimits.Bool
	}
	return s
}
