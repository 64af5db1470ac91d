package db

import (
	"context"
	"testing"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	database, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	if err := ApplyMigrations(database); err != nil {
		t.Fatalf("ApplyMigrations: %v", err)
	}
	return database
}

func TestAccountLifecycle(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	if err := database.CreateAccount(ctx, "u1", 10000); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	acct, err := database.GetAccount(ctx, "u1")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if acct == nil {
		t.Fatalf("expected account row")
	}
	if acct.StartingCapital != 10000 || acct.CurrentEquity != 10000 {
		t.Fatalf("fresh account must start at capital: %+v", acct)
	}

	if err := database.UpdateAccountEquity(ctx, "u1", 9500); err != nil {
		t.Fatalf("UpdateAccountEquity: %v", err)
	}
	acct, _ = database.GetAccount(ctx, "u1")
	if acct.CurrentEquity != 9500 {
		t.Fatalf("CurrentEquity=%v, expected 9500", acct.CurrentEquity)
	}
	if acct.StartingCapital != 10000 {
		t.Fatalf("StartingCapital must be immutable, got %v", acct.StartingCapital)
	}

	missing, err := database.GetAccount(ctx, "nobody")
	if err != nil {
		t.Fatalf("GetAccount(missing): %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown user")
	}
}

func TestDailyStatUpsert(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	// Missing row reads as zero.
	stat, err := database.GetDailyStat(ctx, "u1", "2026-08-30")
	if err != nil {
		t.Fatalf("GetDailyStat: %v", err)
	}
	if stat.DailyPnL != 0 || stat.Trades != 0 {
		t.Fatalf("missing day must read as zero: %+v", stat)
	}

	if err := database.ApplyDailyPnL(ctx, "u1", "2026-08-30", -120.5); err != nil {
		t.Fatalf("ApplyDailyPnL: %v", err)
	}
	if err := database.ApplyDailyPnL(ctx, "u1", "2026-08-30", 40); err != nil {
		t.Fatalf("ApplyDailyPnL: %v", err)
	}

	stat, _ = database.GetDailyStat(ctx, "u1", "2026-08-30")
	if stat.DailyPnL != -80.5 {
		t.Fatalf("DailyPnL=%v, expected -80.5", stat.DailyPnL)
	}
	if stat.Trades != 2 {
		t.Fatalf("Trades=%v, expected 2", stat.Trades)
	}

	// Other days and users are untouched.
	other, _ := database.GetDailyStat(ctx, "u1", "2026-08-31")
	if other.DailyPnL != 0 {
		t.Fatalf("day isolation broken: %+v", other)
	}
}

func TestRiskSettingsRoundTrip(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	row, err := database.GetRiskSettings(ctx, "u1")
	if err != nil {
		t.Fatalf("GetRiskSettings: %v", err)
	}
	if row != nil {
		t.Fatalf("expected nil before first save")
	}

	rec := SettingsRecord{
		DailyLossLimitPct:     2,
		MaxRiskPerTradePct:    0.5,
		MaxLeverage:           10,
		EnableTiltAlerts:      true,
		MDLPercent:            4,
		MLPercent:             8,
		EnforcePropFirmLimits: true,
	}
	if err := database.SaveRiskSettings(ctx, "u1", rec); err != nil {
		t.Fatalf("SaveRiskSettings: %v", err)
	}

	row, err = database.GetRiskSettings(ctx, "u1")
	if err != nil {
		t.Fatalf("GetRiskSettings: %v", err)
	}
	if row == nil {
		t.Fatalf("expected settings row after save")
	}
	if !row.DailyLossLimitPct.Valid || row.DailyLossLimitPct.Float64 != 2 {
		t.Fatalf("DailyLossLimitPct=%+v, expected 2", row.DailyLossLimitPct)
	}
	if !row.EnforcePropFirmLimits.Valid || !row.EnforcePropFirmLimits.Bool {
		t.Fatalf("EnforcePropFirmLimits=%+v, expected true", row.EnforcePropFirmLimits)
	}

	// Whole-record overwrite.
	rec.MaxLeverage = 5
	rec.EnforcePropFirmLimits = false
	if err := database.SaveRiskSettings(ctx, "u1", rec); err != nil {
		t.Fatalf("SaveRiskSettings (update): %v", err)
	}
	row, _ = database.GetRiskSettings(ctx, "u1")
	if row.MaxLeverage.Float64 != 5 || row.EnforcePropFirmLimits.Bool {
		t.Fatalf("update not applied: %+v", row)
	}
}

func TestJournalTrades(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	stop := 98.0
	if err := database.CreateJournalTrade(ctx, JournalTrade{
		ID:         "t1",
		UserID:     "u1",
		Symbol:     "BTCUSDT",
		Side:       "LONG",
		EntryPrice: 100,
		StopLoss:   &stop,
		Size:       2,
		Leverage:   1,
		PnL:        -4,
		Closed:     true,
	}); err != nil {
		t.Fatalf("CreateJournalTrade: %v", err)
	}
	if err := database.CreateJournalTrade(ctx, JournalTrade{
		ID:         "t2",
		UserID:     "u1",
		Symbol:     "ETHUSDT",
		Side:       "SHORT",
		EntryPrice: 3000,
		Size:       0.5,
		Leverage:   2,
	}); err != nil {
		t.Fatalf("CreateJournalTrade: %v", err)
	}

	trades, err := database.ListJournalTrades(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ListJournalTrades: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("got %d trades, expected 2", len(trades))
	}

	var withStop, withoutStop int
	for _, tr := range trades {
		if tr.StopLoss != nil {
			withStop++
		} else {
			withoutStop++
		}
	}
	if withStop != 1 || withoutStop != 1 {
		t.Fatalf("nullable stop round-trip broken: %+v", trades)
	}

	other, _ := database.ListJournalTrades(ctx, "u2", 10)
	if len(other) != 0 {
		t.Fatalf("user isolation broken: %+v", other)
	}
}

func TestRiskProfiles(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	p := RiskProfileRow{
		Name:                  "conservative",
		Description:           "small limits",
		DailyLossLimitPct:     2,
		MaxRiskPerTradePct:    0.5,
		MaxLeverage:           5,
		MDLPercent:            3,
		MLPercent:             6,
		EnforcePropFirmLimits: true,
	}
	if err := database.UpsertRiskProfile(ctx, p); err != nil {
		t.Fatalf("UpsertRiskProfile: %v", err)
	}

	got, err := database.GetRiskProfile(ctx, "conservative")
	if err != nil {
		t.Fatalf("GetRiskProfile: %v", err)
	}
	if got == nil || got.MaxLeverage != 5 || !got.EnforcePropFirmLimits {
		t.Fatalf("profile round-trip broken: %+v", got)
	}

	p.MaxLeverage = 3
	if err := database.UpsertRiskProfile(ctx, p); err != nil {
		t.Fatalf("UpsertRiskProfile (update): %v", err)
	}
	all, err := database.ListRiskProfiles(ctx)
	if err != nil {
		t.Fatalf("ListRiskProfiles: %v", err)
	}
	if len(all) != 1 || all[0].MaxLeverage != 3 {
		t.Fatalf("upsert should overwrite, got %+v", all)
	}

	missing, _ := database.GetRiskProfile(ctx, "nope")
	if missing != nil {
		t.Fatalf("expected nil for unknown profile")
	}
}
