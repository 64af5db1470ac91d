package events

// Event enumerates high-level topics inside the risk core.
type Event string

const (
	EventRiskAlert       Event = "risk_alert"
	EventTradeAdmitted   Event = "trade.admitted"
	EventTradeResized    Event = "trade.resized"
	EventTradeBlocked    Event = "trade.blocked"
	EventSettingsUpdated Event = "settings.updated"
	EventEquityUpdate    Event = "equity.update"
)

// RiskAlert is published when an account's risk status degrades.
type RiskAlert struct {
	UserID   string  `json:"user_id"`
	Status   string  `json:"status"`
	Reason   string  `json:"reason,omitempty"`
	DailyPnL float64 `json:"daily_pnl"`
	Drawdown float64 `json:"drawdown_pct"`
}
