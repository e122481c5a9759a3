package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temporaldebt/core/internal/config"
	"github.com/temporaldebt/core/internal/core/event"
)

func enabledMomentum() config.MomentumConfig {
	cfg := config.Defaults().Debt.Momentum
	cfg.Enabled = true
	return cfg
}

func TestMomentumDisabledByDefault(t *testing.T) {
	m := NewMomentum(config.Defaults().Debt.Momentum, nil)
	m.Update(30, false)
	assert.False(t, m.Enabled())
	assert.Equal(t, 0.0, m.Value())
	assert.Equal(t, 1.0, m.AccrualMultiplier())
}

func TestMomentumBuildsDrainsAndCaps(t *testing.T) {
	bus := event.NewBus()
	m := NewMomentum(enabledMomentum(), bus)

	m.Update(3, false)
	assert.InDelta(t, 3.0, m.Value(), 1e-12)
	assert.InDelta(t, 0.85, m.AccrualMultiplier(), 1e-12, "5% per point")

	m.Update(20, false)
	assert.Equal(t, 10.0, m.Value(), "capped")
	assert.InDelta(t, 0.5, m.AccrualMultiplier(), 1e-12, "50% at most")
	assert.Equal(t, 1.0, m.Fraction())

	m.Update(1.5, true)
	assert.InDelta(t, 7.0, m.Value(), 1e-12, "drains at 2 points per second")
	m.Update(10, true)
	assert.Equal(t, 0.0, m.Value())
	assert.Equal(t, 1.0, m.AccrualMultiplier())

	m.Update(10, false)
	maxed := event.Collect[event.MomentumMaxed](bus.Drain())
	require.Len(t, maxed, 2)
	assert.Equal(t, 2, maxed[1].Times)

	s := m.Stats()
	assert.Equal(t, 10.0, s.Peak)
	assert.InDelta(t, 20.0, s.TotalEarned, 1e-12)
	assert.Equal(t, 2, s.TimesMaxed)

	m.Reset()
	assert.Equal(t, 0.0, m.Value())
	assert.Equal(t, 2, m.Stats().TimesMaxed, "lifetime stats survive a reset")
}

func TestMomentumCapsDiscountBelowMax(t *testing.T) {
	cfg := enabledMomentum()
	cfg.ReductionPerPoint = 0.2
	m := NewMomentum(cfg, nil)
	m.Update(4, false)
	assert.InDelta(t, 0.5, m.AccrualMultiplier(), 1e-12, "0.8 discount capped at max_reduction")
}
