package risk

import "math"

// maintenanceFactor models maintenance-margin consumption at roughly 95% of
// nominal leverage capacity. The resulting liquidation price is a conservative
// estimate, not an exchange-exact value.
const maintenanceFactor = 0.95

// Size converts a fiat risk amount plus entry/stop prices into an order size,
// notional value, required margin, and an estimated liquidation price.
//
// All validation failures accumulate into Errors rather than short-circuiting,
// so the caller can surface every problem at once. The function is pure and
// idempotent: identical inputs always produce identical outputs.
func Size(req PositionSizeRequest) PositionSizeResult {
	res := PositionSizeResult{Errors: []string{}}

	leverage := req.Leverage
	if leverage == 0 {
		leverage = 1
	}
	pointValue := req.PointValue
	if pointValue <= 0 {
		pointValue = 1
	}

	if req.RiskAmount <= 0 {
		res.Errors = append(res.Errors, "risk amount must be positive")
	}
	if req.EntryPrice <= 0 {
		res.Errors = append(res.Errors, "entry price must be positive")
	}
	if req.StopLossPrice <= 0 {
		res.Errors = append(res.Errors, "stop loss price must be positive")
	}
	if leverage < 1 {
		res.Errors = append(res.Errors, "leverage must be at least 1")
	}
	if req.EntryPrice == req.StopLossPrice {
		res.Errors = append(res.Errors, "entry price and stop loss price must differ")
	}
	if len(res.Errors) > 0 {
		return res
	}

	// Risk is specified in fiat, never in unit count: the stop distance is
	// what converts the fiat budget into a tradable quantity.
	stopDistance := math.Abs(req.EntryPrice - req.StopLossPrice)
	res.PositionSize = req.RiskAmount / (stopDistance * pointValue)
	res.OrderValue = res.PositionSize * req.EntryPrice
	// Same margin formula for isolated and cross; cross additionally needs a
	// free-balance buffer, which is the admission gate's concern.
	res.MarginRequired = res.OrderValue / leverage

	// A stop sits on the loss side of entry, so entry above stop means long.
	if req.EntryPrice > req.StopLossPrice {
		res.Side = SideLong
		res.LiquidationPrice = req.EntryPrice * (1 - maintenanceFactor/leverage)
	} else {
		res.Side = SideShort
		res.LiquidationPrice = req.EntryPrice * (1 + maintenanceFactor/leverage)
	}

	res.IsValid = true
	return res
}
