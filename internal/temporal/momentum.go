package temporal

import (
	"github.com/temporaldebt/core/internal/config"
	"github.com/temporaldebt/core/internal/core/event"
)

// MomentumStats is the end-of-level view of the momentum meter.
type MomentumStats struct {
	Current     float64
	Peak        float64
	TotalEarned float64
	TimesMaxed  int
}

// Momentum rewards sparing use of the freeze. It builds while time flows,
// drains while frozen, and discounts freeze accrual by a fixed share per
// point up to a cap. A disabled meter never moves and never discounts.
type Momentum struct {
	enabled      bool
	max          float64
	build        float64
	drain        float64
	perPoint     float64
	maxReduction float64

	value      float64
	peak       float64
	earned     float64
	timesMaxed int

	bus *event.Bus
}

func NewMomentum(cfg config.MomentumConfig, bus *event.Bus) *Momentum {
	return &Momentum{
		enabled:      cfg.Enabled && cfg.Max > 0,
		max:          cfg.Max,
		build:        max(0, cfg.BuildRate),
		drain:        max(0, cfg.DrainRate),
		perPoint:     max(0, cfg.ReductionPerPoint),
		maxReduction: clamp01(cfg.MaxReduction),
		bus:          bus,
	}
}

func (m *Momentum) Enabled() bool  { return m.enabled }
func (m *Momentum) Value() float64 { return m.value }

// Fraction is the meter fill in [0,1].
func (m *Momentum) Fraction() float64 {
	if !m.enabled {
		return 0
	}
	return m.value / m.max
}

// AccrualMultiplier is 1 minus the current discount: 1 with no momentum,
// 1-max_reduction at best.
func (m *Momentum) AccrualMultiplier() float64 {
	if !m.enabled {
		return 1
	}
	return 1 - min(m.value*m.perPoint, m.maxReduction)
}

// Update moves the meter by one frame of real time.
func (m *Momentum) Update(realDt float64, frozen bool) {
	if !m.enabled || realDt <= 0 {
		return
	}
	old := m.value
	if frozen {
		m.value = max(0, m.value-m.drain*realDt)
		return
	}
	m.value = min(m.max, m.value+m.build*realDt)
	m.earned += m.value - old
	m.peak = max(m.peak, m.value)
	if m.value >= m.max && old < m.max {
		m.timesMaxed++
		event.Emit(m.bus, event.MomentumMaxed{Times: m.timesMaxed})
	}
}

// Reset empties the meter, as on player death. Lifetime stats survive.
func (m *Momentum) Reset() {
	m.value = 0
}

func (m *Momentum) Stats() MomentumStats {
	return MomentumStats{
		Current:     m.value,
		Peak:        m.peak,
		TotalEarned: m.earned,
		TimesMaxed:  m.timesMaxed,
	}
}
