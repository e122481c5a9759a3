package temporal

import (
	"github.com/temporaldebt/core/internal/core/event"
)

// TimeEngine decides how much game time passes each frame.
//
// While frozen the scale is exactly 0 for time-affected entities; time-immune
// entities (player, hunters, shadows) always receive the real delta. While
// time flows the scale is whatever the speed source reports for the current
// debt tier. Freeze and Unfreeze take effect immediately but only Update
// accumulates frozen time, so toggling several times in one frame cannot
// double count.
type TimeEngine struct {
	speed SpeedSource
	bus   *event.Bus

	frozen      bool
	scale       float64
	frozenAccum float64 // real seconds in the current hold
	totalFrozen float64
	realTime    float64

	closedEpisode float64
	hasClosed     bool
}

func NewTimeEngine(speed SpeedSource, bus *event.Bus) *TimeEngine {
	return &TimeEngine{speed: speed, bus: bus, scale: 1}
}

func (e *TimeEngine) Frozen() bool            { return e.frozen }
func (e *TimeEngine) Scale() float64          { return e.scale }
func (e *TimeEngine) FrozenDuration() float64 { return e.frozenAccum }
func (e *TimeEngine) TotalFrozen() float64    { return e.totalFrozen }

// RealTime is the engine's real-time clock: the sum of every clamped delta.
func (e *TimeEngine) RealTime() float64 { return e.realTime }

func (e *TimeEngine) Freeze() {
	if e.frozen {
		return
	}
	e.frozen = true
	e.frozenAccum = 0
	event.Emit(e.bus, event.TimeFrozen{TotalFrozen: e.totalFrozen})
	e.setScale(0)
}

// Unfreeze ends the hold and closes the episode for the debt manager to settle.
func (e *TimeEngine) Unfreeze() {
	if !e.frozen {
		return
	}
	held := e.frozenAccum
	e.frozen = false
	e.frozenAccum = 0
	e.totalFrozen += held
	e.closedEpisode += held
	e.hasClosed = true
	scale := e.speed.WorldSpeedMultiplier()
	event.Emit(e.bus, event.TimeUnfrozen{Duration: held, Scale: scale})
	e.setScale(scale)
}

// Update advances the engine by one clamped real delta.
func (e *TimeEngine) Update(realDt float64) {
	if realDt < 0 {
		realDt = 0
	}
	e.realTime += realDt
	if e.frozen {
		e.frozenAccum += realDt
		return
	}
	e.setScale(e.speed.WorldSpeedMultiplier())
}

// GameDt is the delta an entity should integrate this frame.
func (e *TimeEngine) GameDt(realDt float64, affectedByTime bool) float64 {
	if !affectedByTime {
		return realDt
	}
	if e.frozen {
		return 0
	}
	return realDt * e.scale
}

// TakeClosedEpisode hands over the duration of freeze holds that ended since
// the last call. The second result is false when nothing closed.
func (e *TimeEngine) TakeClosedEpisode() (float64, bool) {
	if !e.hasClosed {
		return 0, false
	}
	d := e.closedEpisode
	e.closedEpisode = 0
	e.hasClosed = false
	return d, true
}

// Reset returns to flowing time for a level restart. Lifetime totals survive.
func (e *TimeEngine) Reset() {
	e.frozen = false
	e.frozenAccum = 0
	e.closedEpisode = 0
	e.hasClosed = false
	e.setScale(e.speed.WorldSpeedMultiplier())
}

func (e *TimeEngine) setScale(s float64) {
	if s == e.scale {
		return
	}
	e.scale = s
	event.Emit(e.bus, event.TimeScaleChanged{Scale: s})
}
