package risk

// Side identifies the direction of a trade.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Status classifies how much of the daily loss budget is consumed.
type Status string

const (
	StatusSafe Status = "safe"
	StatusWarn Status = "warn"
	StatusTilt Status = "tilt"
)

// MarginMode selects how margin is allocated for a position.
type MarginMode string

const (
	MarginIsolated MarginMode = "isolated"
	MarginCross    MarginMode = "cross"
)

// Settings holds the user-level risk configuration. It is loaded and saved as
// a whole record; missing fields merge onto DefaultSettings() at load time.
// Only explicit user updates mutate it — the engine never writes back.
type Settings struct {
	DailyLossLimitPct  float64 `json:"daily_loss_limit_pct"` // 0-100, % of equity
	MaxRiskPerTradePct float64 `json:"max_risk_per_trade_pct"`
	MaxLeverage        float64 `json:"max_leverage"`

	// Presentation-only toggles; no effect on admission decisions.
	EnableTiltAlerts bool `json:"enable_tilt_alerts"`
	AudioAlerts      bool `json:"audio_alerts"`

	// Prop-firm style ceilings, both % of starting capital.
	MDLPercent            float64 `json:"mdl_percent"` // Maximum Daily Loss
	MLPercent             float64 `json:"ml_percent"`  // Maximum Loss
	EnforcePropFirmLimits bool    `json:"enforce_prop_firm_limits"`
}

// DefaultSettings returns the documented default risk configuration.
func DefaultSettings() Settings {
	return Settings{
		DailyLossLimitPct:     3,
		MaxRiskPerTradePct:    1,
		MaxLeverage:           25,
		EnableTiltAlerts:      true,
		AudioAlerts:           false,
		MDLPercent:            5,
		MLPercent:             10,
		EnforcePropFirmLimits: true,
	}
}

// AccountEquity is the externally supplied account state. CurrentEquity may be
// negative transiently; sizing denominators clamp it to zero.
type AccountEquity struct {
	StartingCapital float64 `json:"starting_capital"`
	CurrentEquity   float64 `json:"current_equity"`
}

// ClosedTrade is the slice of journal history the engine reads: just enough to
// estimate a typical stop distance.
type ClosedTrade struct {
	Side       Side     `json:"side"`
	EntryPrice float64  `json:"entry_price"`
	StopLoss   *float64 `json:"stop_loss,omitempty"` // nil when no stop was recorded
	Closed     bool     `json:"closed"`
}

// Snapshot is a point-in-time derivation of risk state. It is recomputed from
// scratch on every read and never persisted.
type Snapshot struct {
	StartingCapital float64 `json:"starting_capital"`
	CurrentEquity   float64 `json:"current_equity"`

	DailyPnL    float64 `json:"daily_pnl"`
	DailyLimit  float64 `json:"daily_limit"`
	DrawdownPct float64 `json:"drawdown_pct"` // fraction of DailyLimit consumed
	Status      Status  `json:"status"`

	RecommendedSize         float64 `json:"recommended_size"`
	RecommendedStopDistance float64 `json:"recommended_stop_distance"`
	BreachReason            string  `json:"breach_reason,omitempty"`

	MDLLimit         float64 `json:"mdl_limit"`
	MLLimit          float64 `json:"ml_limit"`
	CurrentDailyLoss float64 `json:"current_daily_loss"`
	TotalLoss        float64 `json:"total_loss"`
	ExceedsMDL       bool    `json:"exceeds_mdl"`
	ExceedsML        bool    `json:"exceeds_ml"`
}

// PositionSizeRequest converts a fiat risk budget into an order size.
// PointValue and Leverage default to 1 when zero.
type PositionSizeRequest struct {
	RiskAmount    float64    `json:"risk_amount"`
	EntryPrice    float64    `json:"entry_price"`
	StopLossPrice float64    `json:"stop_loss_price"`
	PointValue    float64    `json:"point_value,omitempty"`
	Leverage      float64    `json:"leverage,omitempty"`
	MarginMode    MarginMode `json:"margin_mode,omitempty"`
}

// PositionSizeResult carries the sizing outputs. On invalid input all derived
// fields are zero, LiquidationPrice is omitted, and Errors lists every
// violation found.
type PositionSizeResult struct {
	PositionSize     float64  `json:"position_size"`
	OrderValue       float64  `json:"order_value"`
	MarginRequired   float64  `json:"margin_required"`
	LiquidationPrice float64  `json:"liquidation_price,omitempty"`
	Side             Side     `json:"side,omitempty"`
	IsValid          bool     `json:"is_valid"`
	Errors           []string `json:"errors"`
}

// TradeEnforcementRequest is a proposed trade presented to the admission gate.
// Numeric fields are assumed already validated by the route layer.
type TradeEnforcementRequest struct {
	Side           Side     `json:"side"`
	EntryPrice     float64  `json:"entry_price"`
	StopLoss       *float64 `json:"stop_loss,omitempty"`
	Size           float64  `json:"size"`
	Leverage       float64  `json:"leverage,omitempty"`        // 0 -> 1
	CurrentBalance *float64 `json:"current_balance,omitempty"` // nil -> account equity
}

// TradeEnforcementResult is the gate's decision. When Blocked is true the
// trade must not be submitted; AdjustedSize is advisory in that case and
// authoritative otherwise.
type TradeEnforcementResult struct {
	Blocked       bool     `json:"blocked"`
	Reasons       []string `json:"reasons"`
	AdjustedSize  float64  `json:"adjusted_size"`
	EnforcedStop  float64  `json:"enforced_stop"`
	PotentialLoss float64  `json:"potential_loss"`
}
