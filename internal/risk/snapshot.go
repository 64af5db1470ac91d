package risk

import (
	"fmt"
	"math"
)

// BuildSnapshot aggregates account equity, today's realized P&L, and the
// configured limits into a point-in-time risk status. It always recomputes
// from scratch; there is no incremental update path to go stale.
//
// closed seeds the recommended stop distance; only trades flagged closed are
// considered.
func BuildSnapshot(eq AccountEquity, dailyPnL float64, settings Settings, closed []ClosedTrade) Snapshot {
	snap := Snapshot{
		StartingCapital: eq.StartingCapital,
		CurrentEquity:   eq.CurrentEquity,
		DailyPnL:        dailyPnL,
		Status:          StatusSafe,
	}

	// The limit is computed on the better of current/starting equity so that
	// losing money today does not also shrink the ceiling being measured
	// against — that would be a feedback loop.
	baseEquity := math.Max(eq.CurrentEquity, eq.StartingCapital)
	snap.DailyLimit = baseEquity * settings.DailyLossLimitPct / 100
	if snap.DailyLimit > 0 {
		snap.DrawdownPct = math.Abs(dailyPnL) / snap.DailyLimit
	}

	snap.MDLLimit = eq.StartingCapital * settings.MDLPercent / 100
	snap.MLLimit = eq.StartingCapital * settings.MLPercent / 100
	snap.CurrentDailyLoss = math.Max(0, -dailyPnL)
	snap.TotalLoss = math.Max(0, eq.StartingCapital-eq.CurrentEquity)

	if settings.EnforcePropFirmLimits {
		snap.ExceedsMDL = snap.CurrentDailyLoss >= snap.MDLLimit && snap.MDLLimit > 0
		snap.ExceedsML = snap.TotalLoss >= snap.MLLimit && snap.MLLimit > 0
	}

	// Strict priority: ML/MDL are account-ending and must never be masked by
	// a lower-severity warn.
	switch {
	case snap.ExceedsML || snap.ExceedsMDL || snap.DrawdownPct >= 1.0:
		snap.Status = StatusTilt
	case snap.DrawdownPct >= 0.75:
		snap.Status = StatusWarn
	}

	switch {
	case snap.ExceedsML:
		snap.BreachReason = fmt.Sprintf(
			"Maximum Loss (ML) limit reached: $%.2f / $%.2f (%.0f%% of starting capital)",
			snap.TotalLoss, snap.MLLimit, settings.MLPercent)
	case snap.ExceedsMDL:
		snap.BreachReason = fmt.Sprintf(
			"Maximum Daily Loss (MDL) limit reached: $%.2f / $%.2f (%.0f%% of starting capital)",
			snap.CurrentDailyLoss, snap.MDLLimit, settings.MDLPercent)
	case snap.DrawdownPct >= 1.0:
		snap.BreachReason = fmt.Sprintf(
			"Daily loss limit hit: $%.2f / $%.2f (%.1f%% of equity)",
			math.Abs(dailyPnL), snap.DailyLimit, settings.DailyLossLimitPct)
	case snap.Status == StatusWarn:
		snap.BreachReason = fmt.Sprintf(
			"Approaching daily loss limit: $%.2f / $%.2f (%.1f%% of equity)",
			math.Abs(dailyPnL), snap.DailyLimit, settings.DailyLossLimitPct)
	}

	snap.RecommendedStopDistance = recommendedStopDistance(eq, closed)
	riskBudget := math.Max(0, eq.CurrentEquity) * settings.MaxRiskPerTradePct / 100
	if snap.RecommendedStopDistance > 0 {
		snap.RecommendedSize = riskBudget / snap.RecommendedStopDistance
	}

	return snap
}

// recommendedStopDistance averages the absolute stop distance across closed
// trades. Trades without a recorded stop contribute 0.5% of their entry price;
// with no history at all the fallback is 0.05% of current equity.
func recommendedStopDistance(eq AccountEquity, closed []ClosedTrade) float64 {
	var sum float64
	var n int
	for _, t := range closed {
		if !t.Closed {
			continue
		}
		if t.StopLoss != nil {
			sum += math.Abs(t.EntryPrice - *t.StopLoss)
		} else {
			sum += 0.005 * t.EntryPrice
		}
		n++
	}
	if n == 0 {
		return 0.0005 * math.Max(0, eq.CurrentEquity)
	}
	return sum / float64(n)
}
