// Package profile loads named risk presets from YAML and keeps the database
// copy in sync, so users can switch between conservative/default/aggressive
// limits without hand-editing every field.
package profile

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"risk-core/internal/risk"
	"risk-core/pkg/db"
)

// Profile is one named risk preset in YAML.
type Profile struct {
	Name                  string  `yaml:"name" json:"name"`
	Description           string  `yaml:"description" json:"description"`
	DailyLossLimitPct     float64 `yaml:"daily_loss_limit_pct" json:"daily_loss_limit_pct"`
	MaxRiskPerTradePct    float64 `yaml:"max_risk_per_trade_pct" json:"max_risk_per_trade_pct"`
	MaxLeverage           float64 `yaml:"max_leverage" json:"max_leverage"`
	MDLPercent            float64 `yaml:"mdl_percent" json:"mdl_percent"`
	MLPercent             float64 `yaml:"ml_percent" json:"ml_percent"`
	EnforcePropFirmLimits bool    `yaml:"enforce_prop_firm_limits" json:"enforce_prop_firm_limits"`
}

// File is the top-level YAML structure.
type File struct {
	Profiles []Profile `yaml:"profiles"`
}

// Load reads profiles from a YAML file.
func Load(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	for _, p := range file.Profiles {
		if err := validate(p); err != nil {
			return nil, fmt.Errorf("profile %q: %w", p.Name, err)
		}
	}
	return file.Profiles, nil
}

func validate(p Profile) error {
	if p.Name == "" {
		return fmt.Errorf("missing name")
	}
	if p.DailyLossLimitPct <= 0 || p.DailyLossLimitPct > 100 {
		return fmt.Errorf("daily_loss_limit_pct %.2f out of range (0, 100]", p.DailyLossLimitPct)
	}
	if p.MaxRiskPerTradePct <= 0 || p.MaxRiskPerTradePct > 100 {
		return fmt.Errorf("max_risk_per_trade_pct %.2f out of range (0, 100]", p.MaxRiskPerTradePct)
	}
	if p.MaxLeverage < 1 {
		return fmt.Errorf("max_leverage %.2f below 1", p.MaxLeverage)
	}
	if p.MDLPercent < 0 || p.MLPercent < 0 {
		return fmt.Errorf("prop-firm percentages must be non-negative")
	}
	return nil
}

// SyncToDB upserts profiles into the database.
func SyncToDB(ctx context.Context, store *db.Database, profiles []Profile) error {
	for _, p := range profiles {
		if err := store.UpsertRiskProfile(ctx, db.RiskProfileRow{
			Name:                  p.Name,
			Description:           p.Description,
			DailyLossLimitPct:     p.DailyLossLimitPct,
			MaxRiskPerTradePct:    p.MaxRiskPerTradePct,
			MaxLeverage:           p.MaxLeverage,
			MDLPercent:            p.MDLPercent,
			MLPercent:             p.MLPercent,
			EnforcePropFirmLimits: p.EnforcePropFirmLimits,
		}); err != nil {
			return fmt.Errorf("upsert profile %s: %w", p.Name, err)
		}
	}
	return nil
}

// Apply overlays a preset onto existing settings, keeping the
// presentation-only toggles the user already chose.
func Apply(p Profile, current risk.Settings) risk.Settings {
	current.DailyLossLimitPct = p.DailyLossLimitPct
	current.MaxRiskPerTradePct = p.MaxRiskPerTradePct
	current.MaxLeverage = p.MaxLeverage
	current.MDLPercent = p.MDLPercent
	current.MLPercent = p.MLPercent
	current.EnforcePropFirmLimits = p.EnforcePropFirmLimits
	return current
}

// FromRow converts a stored profile row back to a Profile.
func FromRow(r db.RiskProfileRow) Profile {
	return Profile{
		Name:                  r.Name,
		Description:           r.Description,
		DailyLossLimitPct:     r.DailyLossLimitPct,
		MaxRiskPerTradePct:    r.MaxRiskPerTradePct,
		MaxLeverage:           r.MaxLeverage,
		MDLPercent:            r.MDLPercent,
		MLPercent:             r.MLPercent,
		EnforcePropFirmLimits: r.EnforcePropFirmLimits,
	}
}
