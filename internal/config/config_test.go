package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	require.NoError(t, Defaults().Validate())
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[sim]
mode = "realtime"
tick_rate = "20ms"

[anchor]
recall_debt_cost = 2.0

[logging]
format = "json"
`))
	require.NoError(t, err)
	assert.Equal(t, "realtime", cfg.Sim.Mode)
	assert.Equal(t, 20*time.Millisecond, cfg.Sim.TickRate)
	assert.Equal(t, 2.0, cfg.Anchor.RecallDebtCost)
	assert.Equal(t, 3, cfg.Anchor.MaxAnchors, "untouched keys keep defaults")
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestValidateRejectsBrokenTierTable(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing speed", func(c *Config) { c.Debt.SpeedMultipliers = c.Debt.SpeedMultipliers[:4] }},
		{"threshold count", func(c *Config) { c.Debt.Thresholds = []float64{3, 6} }},
		{"non increasing", func(c *Config) { c.Debt.Thresholds = []float64{3, 3, 10, 15} }},
		{"zero interest", func(c *Config) { c.Debt.InterestRates[0] = 0 }},
		{"names", func(c *Config) { c.Debt.TierNames = []string{"a"} }},
		{"echo interval", func(c *Config) { c.Echo.Interval = 0 }},
		{"anchors", func(c *Config) { c.Anchor.MaxAnchors = 0 }},
		{"mode", func(c *Config) { c.Sim.Mode = "turbo" }},
		{"momentum max", func(c *Config) { c.Debt.Momentum = MomentumConfig{Enabled: true} }},
		{"momentum reduction", func(c *Config) { c.Debt.Momentum = MomentumConfig{Enabled: true, Max: 10, MaxReduction: 1.5} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "temporaldebt.toml"))
	require.NoError(t, err)
	assert.Equal(t, 1.5, cfg.Debt.AccrualRate)
	assert.Len(t, cfg.Debt.InterestRates, 5)
}

func TestDisabledMomentumIsNotValidated(t *testing.T) {
	cfg := Defaults()
	assert.False(t, cfg.Debt.Momentum.Enabled)
	cfg.Debt.Momentum.Max = -1
	assert.NoError(t, cfg.Validate())
}
