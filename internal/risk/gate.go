package risk

import (
	"fmt"
	"math"
)

// defaultStopPct is applied when a proposed trade carries no stop: 1% away
// from entry on the loss side, which keeps the enforcement math away from a
// zero stop distance.
const defaultStopPct = 0.01

// nearCeilingPct pre-emptively blocks one step before the hard tilt ceiling.
const nearCeilingPct = 0.9

// Enforce decides whether a proposed trade may proceed, must be resized, or
// must be blocked, given the current snapshot and settings.
//
// Every predicate is evaluated — never short-circuited — so Reasons lists the
// complete set of ceilings the trader is up against, ordered from
// account-ending (ML) to cosmetic (risk trim). Inputs are assumed numerically
// sane; the route layer is the validation boundary.
func Enforce(req TradeEnforcementRequest, snap Snapshot, settings Settings) TradeEnforcementResult {
	res := TradeEnforcementResult{Reasons: []string{}}

	leverage := req.Leverage
	if leverage == 0 {
		leverage = 1
	}

	balance := snap.CurrentEquity
	if req.CurrentBalance != nil {
		balance = *req.CurrentBalance
	} else if balance <= 0 {
		balance = snap.StartingCapital
	}
	riskBudget := balance * settings.MaxRiskPerTradePct / 100

	if req.StopLoss != nil {
		res.EnforcedStop = *req.StopLoss
	} else if req.Side == SideShort {
		res.EnforcedStop = req.EntryPrice * (1 + defaultStopPct)
	} else {
		res.EnforcedStop = req.EntryPrice * (1 - defaultStopPct)
	}

	stopDistance := math.Abs(req.EntryPrice - res.EnforcedStop)
	res.PotentialLoss = stopDistance * req.Size * leverage

	adjusted := req.Size
	if stopDistance > 0 {
		adjusted = riskBudget / (stopDistance * leverage)
		if adjusted < 0 {
			adjusted = 0
		}
		if adjusted > req.Size {
			adjusted = req.Size
		}
	}

	blocksML := snap.ExceedsML
	blocksMDL := snap.ExceedsMDL
	blocksDaily := snap.Status == StatusTilt
	exceedsLeverage := leverage > settings.MaxLeverage
	nearCeiling := snap.DrawdownPct >= nearCeilingPct
	breachesRisk := res.PotentialLoss > riskBudget

	res.Blocked = blocksDaily || exceedsLeverage || nearCeiling || blocksMDL || blocksML

	if blocksML {
		res.Reasons = append(res.Reasons, fmt.Sprintf(
			"Maximum Loss (ML) limit reached: $%.2f / $%.2f (%.0f%% of starting capital)",
			snap.TotalLoss, snap.MLLimit, settings.MLPercent))
	}
	if blocksMDL {
		res.Reasons = append(res.Reasons, fmt.Sprintf(
			"Maximum Daily Loss (MDL) limit reached: $%.2f / $%.2f (%.0f%% of starting capital)",
			snap.CurrentDailyLoss, snap.MDLLimit, settings.MDLPercent))
	}
	if blocksDaily {
		res.Reasons = append(res.Reasons, fmt.Sprintf(
			"Daily loss limit exceeded: $%.2f / $%.2f",
			math.Abs(snap.DailyPnL), snap.DailyLimit))
	} else if nearCeiling {
		res.Reasons = append(res.Reasons, fmt.Sprintf(
			"Daily drawdown at %.0f%% of limit, new trades paused",
			snap.DrawdownPct*100))
	}
	if exceedsLeverage {
		res.Reasons = append(res.Reasons, fmt.Sprintf(
			"Leverage %.0fx exceeds maximum %.0fx", leverage, settings.MaxLeverage))
	}
	if breachesRisk {
		res.Reasons = append(res.Reasons, fmt.Sprintf(
			"Position size reduced: potential loss $%.2f exceeds risk budget $%.2f",
			res.PotentialLoss, riskBudget))
	}

	// Resize only when the budget is actually violated; a trade already
	// within budget keeps the caller's size verbatim.
	if breachesRisk {
		res.AdjustedSize = adjusted
	} else {
		res.AdjustedSize = req.Size
	}

	return res
}
