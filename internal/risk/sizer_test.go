package risk

import (
	"math"
	"reflect"
	"testing"
)

func TestSizeRiskFirstFormula(t *testing.T) {
	res := Size(PositionSizeRequest{
		RiskAmount:    50,
		EntryPrice:    100,
		StopLossPrice: 98,
		PointValue:    1,
		Leverage:      1,
	})

	if !res.IsValid {
		t.Fatalf("expected valid result, got errors: %v", res.Errors)
	}
	if res.PositionSize != 25 {
		t.Fatalf("PositionSize=%v, expected exactly 25", res.PositionSize)
	}
	if res.OrderValue != 2500 {
		t.Fatalf("OrderValue=%v, expected 2500", res.OrderValue)
	}
	if res.MarginRequired != 2500 {
		t.Fatalf("MarginRequired=%v, expected 2500", res.MarginRequired)
	}
	if res.Side != SideLong {
		t.Fatalf("Side=%v, expected LONG", res.Side)
	}
}

func TestSizeDefaultsPointValueAndLeverage(t *testing.T) {
	res := Size(PositionSizeRequest{
		RiskAmount:    100,
		EntryPrice:    50,
		StopLossPrice: 45,
	})
	if !res.IsValid {
		t.Fatalf("expected valid result, got errors: %v", res.Errors)
	}
	if res.PositionSize != 20 {
		t.Fatalf("PositionSize=%v, expected 20 with default point value", res.PositionSize)
	}
	if res.MarginRequired != res.OrderValue {
		t.Fatalf("MarginRequired=%v, expected full notional at default 1x leverage", res.MarginRequired)
	}
}

func TestSizeInvalidInputs(t *testing.T) {
	tests := []struct {
		name       string
		req        PositionSizeRequest
		wantErrors int
	}{
		{
			name:       "entry equals stop",
			req:        PositionSizeRequest{RiskAmount: 50, EntryPrice: 100, StopLossPrice: 100},
			wantErrors: 1,
		},
		{
			name:       "negative risk",
			req:        PositionSizeRequest{RiskAmount: -5, EntryPrice: 100, StopLossPrice: 95},
			wantErrors: 1,
		},
		{
			name:       "sub-unit leverage",
			req:        PositionSizeRequest{RiskAmount: 50, EntryPrice: 100, StopLossPrice: 95, Leverage: 0.5},
			wantErrors: 1,
		},
		{
			name:       "everything wrong accumulates",
			req:        PositionSizeRequest{RiskAmount: 0, EntryPrice: 0, StopLossPrice: 0, Leverage: 0.5},
			wantErrors: 4, // risk, entry, stop, leverage (entry==stop is a fifth)
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Size(tt.req)
			if res.IsValid {
				t.Fatalf("expected invalid result")
			}
			if len(res.Errors) < tt.wantErrors {
				t.Fatalf("Errors=%v, expected at least %d entries", res.Errors, tt.wantErrors)
			}
			if res.PositionSize != 0 || res.OrderValue != 0 || res.MarginRequired != 0 {
				t.Fatalf("derived fields must be zero on invalid input: %+v", res)
			}
			if res.LiquidationPrice != 0 {
				t.Fatalf("LiquidationPrice must be omitted on invalid input, got %v", res.LiquidationPrice)
			}
		})
	}
}

func TestSizeMarginDecreasesWithLeverage(t *testing.T) {
	prev := math.Inf(1)
	for _, lev := range []float64{1, 2, 5, 10, 25, 100} {
		res := Size(PositionSizeRequest{
			RiskAmount:    50,
			EntryPrice:    100,
			StopLossPrice: 98,
			Leverage:      lev,
		})
		if !res.IsValid {
			t.Fatalf("leverage %v: unexpected errors %v", lev, res.Errors)
		}
		if res.MarginRequired >= prev {
			t.Fatalf("margin must strictly decrease in leverage: %v at %vx, previous %v",
				res.MarginRequired, lev, prev)
		}
		prev = res.MarginRequired
	}
}

func TestSizeLiquidationDirection(t *testing.T) {
	long := Size(PositionSizeRequest{RiskAmount: 50, EntryPrice: 100, StopLossPrice: 98, Leverage: 10})
	if long.Side != SideLong {
		t.Fatalf("Side=%v, expected LONG when stop is below entry", long.Side)
	}
	if long.LiquidationPrice >= 100 {
		t.Fatalf("long liquidation %v must sit below entry", long.LiquidationPrice)
	}

	short := Size(PositionSizeRequest{RiskAmount: 50, EntryPrice: 100, StopLossPrice: 102, Leverage: 10})
	if short.Side != SideShort {
		t.Fatalf("Side=%v, expected SHORT when stop is above entry", short.Side)
	}
	if short.LiquidationPrice <= 100 {
		t.Fatalf("short liquidation %v must sit above entry", short.LiquidationPrice)
	}
}

func TestSizeIdempotent(t *testing.T) {
	req := PositionSizeRequest{RiskAmount: 75.5, EntryPrice: 123.45, StopLossPrice: 120, Leverage: 5}
	first := Size(req)
	second := Size(req)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Size is not idempotent:\n%+v\n%+v", first, second)
	}
}
