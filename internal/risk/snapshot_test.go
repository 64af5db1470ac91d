package risk

import (
	"math"
	"reflect"
	"strings"
	"testing"
)

func f64(v float64) *float64 { return &v }

func TestBuildSnapshotStatusPriority(t *testing.T) {
	eq := AccountEquity{StartingCapital: 10000, CurrentEquity: 10000}
	settings := DefaultSettings() // daily 3% -> $300 limit

	tests := []struct {
		name       string
		dailyPnL   float64
		wantStatus Status
	}{
		{"flat day", 0, StatusSafe},
		{"small loss", -100, StatusSafe},
		{"warn at 75 percent", -225, StatusWarn},
		{"tilt at limit", -300, StatusTilt},
		{"tilt beyond limit", -310, StatusTilt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := BuildSnapshot(eq, tt.dailyPnL, settings, nil)
			if snap.Status != tt.wantStatus {
				t.Fatalf("Status=%v, expected %v (drawdown=%v)", snap.Status, tt.wantStatus, snap.DrawdownPct)
			}
		})
	}
}

func TestBuildSnapshotStatusMonotonic(t *testing.T) {
	eq := AccountEquity{StartingCapital: 10000, CurrentEquity: 10000}
	settings := DefaultSettings()

	rank := map[Status]int{StatusSafe: 0, StatusWarn: 1, StatusTilt: 2}
	prev := -1
	for loss := 0.0; loss <= 600; loss += 25 {
		snap := BuildSnapshot(eq, -loss, settings, nil)
		if rank[snap.Status] < prev {
			t.Fatalf("status regressed in severity at loss %v: %v", loss, snap.Status)
		}
		prev = rank[snap.Status]
		if snap.DrawdownPct >= 1 && snap.Status != StatusTilt {
			t.Fatalf("drawdown %v >= 1 must always be tilt, got %v", snap.DrawdownPct, snap.Status)
		}
	}
}

func TestBuildSnapshotDailyLimitUsesBetterEquity(t *testing.T) {
	settings := DefaultSettings()

	// Today's own losses must not shrink the percentage ceiling.
	drawnDown := BuildSnapshot(AccountEquity{StartingCapital: 10000, CurrentEquity: 9500}, -200, settings, nil)
	if drawnDown.DailyLimit != 300 {
		t.Fatalf("DailyLimit=%v, expected 300 from starting capital", drawnDown.DailyLimit)
	}

	// A grown account uses the larger current equity.
	grown := BuildSnapshot(AccountEquity{StartingCapital: 10000, CurrentEquity: 20000}, 0, settings, nil)
	if grown.DailyLimit != 600 {
		t.Fatalf("DailyLimit=%v, expected 600 from current equity", grown.DailyLimit)
	}
}

func TestBuildSnapshotMDLBreach(t *testing.T) {
	eq := AccountEquity{StartingCapital: 10000, CurrentEquity: 9480}
	snap := BuildSnapshot(eq, -520, DefaultSettings(), nil)

	if !snap.ExceedsMDL {
		t.Fatalf("expected ExceedsMDL with $520 daily loss against $500 limit")
	}
	if snap.Status != StatusTilt {
		t.Fatalf("Status=%v, expected tilt", snap.Status)
	}
	if !strings.Contains(snap.BreachReason, "$520.00 / $500.00") {
		t.Fatalf("BreachReason=%q, expected exact fiat figures", snap.BreachReason)
	}
}

func TestBuildSnapshotMLDominatesMDL(t *testing.T) {
	// Total loss 1200 >= ML limit 1000, daily loss 600 >= MDL limit 500.
	eq := AccountEquity{StartingCapital: 10000, CurrentEquity: 8800}
	snap := BuildSnapshot(eq, -600, DefaultSettings(), nil)

	if !snap.ExceedsML || !snap.ExceedsMDL {
		t.Fatalf("expected both ceilings breached: ML=%v MDL=%v", snap.ExceedsML, snap.ExceedsMDL)
	}
	if !strings.Contains(snap.BreachReason, "Maximum Loss (ML)") {
		t.Fatalf("BreachReason=%q, ML must dominate MDL in messaging", snap.BreachReason)
	}
	if strings.Contains(snap.BreachReason, "MDL") {
		t.Fatalf("BreachReason=%q must not reference MDL when ML is breached", snap.BreachReason)
	}
}

func TestBuildSnapshotPropFirmLimitsOff(t *testing.T) {
	settings := DefaultSettings()
	settings.EnforcePropFirmLimits = false

	eq := AccountEquity{StartingCapital: 10000, CurrentEquity: 8000}
	snap := BuildSnapshot(eq, -600, settings, nil)

	if snap.ExceedsMDL || snap.ExceedsML {
		t.Fatalf("ceilings must be forced false when enforcement is off: %+v", snap)
	}
	// The soft daily limit still applies.
	if snap.Status != StatusTilt {
		t.Fatalf("Status=%v, expected tilt from the daily limit alone", snap.Status)
	}
}

func TestBuildSnapshotRecommendedStopDistance(t *testing.T) {
	eq := AccountEquity{StartingCapital: 10000, CurrentEquity: 10000}
	settings := DefaultSettings()

	tests := []struct {
		name     string
		closed   []ClosedTrade
		wantDist float64
	}{
		{
			name:     "no history falls back to equity fraction",
			closed:   nil,
			wantDist: 5, // 0.05% of 10000
		},
		{
			name: "explicit stops averaged",
			closed: []ClosedTrade{
				{EntryPrice: 100, StopLoss: f64(98), Closed: true},
				{EntryPrice: 200, StopLoss: f64(196), Closed: true},
			},
			wantDist: 3, // (2 + 4) / 2
		},
		{
			name: "missing stop approximated at half a percent of entry",
			closed: []ClosedTrade{
				{EntryPrice: 1000, Closed: true},
			},
			wantDist: 5, // 0.5% of 1000
		},
		{
			name: "open trades ignored",
			closed: []ClosedTrade{
				{EntryPrice: 100, StopLoss: f64(90), Closed: false},
				{EntryPrice: 100, StopLoss: f64(99), Closed: true},
			},
			wantDist: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := BuildSnapshot(eq, 0, settings, tt.closed)
			if math.Abs(snap.RecommendedStopDistance-tt.wantDist) > 1e-9 {
				t.Fatalf("RecommendedStopDistance=%v, expected %v", snap.RecommendedStopDistance, tt.wantDist)
			}
			// riskBudget = 1% of 10000 = 100
			wantSize := 100 / tt.wantDist
			if math.Abs(snap.RecommendedSize-wantSize) > 1e-9 {
				t.Fatalf("RecommendedSize=%v, expected %v", snap.RecommendedSize, wantSize)
			}
		})
	}
}

func TestBuildSnapshotNegativeEquityClamped(t *testing.T) {
	eq := AccountEquity{StartingCapital: 1000, CurrentEquity: -50}
	snap := BuildSnapshot(eq, -50, DefaultSettings(), nil)

	if snap.RecommendedStopDistance != 0 {
		t.Fatalf("stop distance fallback must clamp negative equity to 0, got %v", snap.RecommendedStopDistance)
	}
	if snap.RecommendedSize != 0 {
		t.Fatalf("RecommendedSize=%v, expected 0 with zero stop distance", snap.RecommendedSize)
	}
}

func TestBuildSnapshotIdempotent(t *testing.T) {
	eq := AccountEquity{StartingCapital: 10000, CurrentEquity: 9200}
	closed := []ClosedTrade{{EntryPrice: 100, StopLoss: f64(97), Closed: true}}
	first := BuildSnapshot(eq, -180, DefaultSettings(), closed)
	second := BuildSnapshot(eq, -180, DefaultSettings(), closed)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("BuildSnapshot is not idempotent:\n%+v\n%+v", first, second)
	}
}
