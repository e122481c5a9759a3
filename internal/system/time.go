package system

import (
	"time"

	"github.com/temporaldebt/core/internal/clock"
	coresys "github.com/temporaldebt/core/internal/core/system"
	"github.com/temporaldebt/core/internal/temporal"
)

// TimeSystem clamps the real delta and advances the time engine.
// Phase 1 (Time).
type TimeSystem struct {
	frame      *Frame
	engine     *temporal.TimeEngine
	maxFrameDt float64
	started    bool
}

func NewTimeSystem(frame *Frame, engine *temporal.TimeEngine, maxFrameDt float64) *TimeSystem {
	return &TimeSystem{frame: frame, engine: engine, maxFrameDt: maxFrameDt}
}

func (s *TimeSystem) Phase() coresys.Phase { return coresys.PhaseTime }

func (s *TimeSystem) Update(dt time.Duration) {
	if s.started {
		s.frame.RealTime += s.frame.RealDt
		s.frame.Number++
	}
	s.started = true
	s.frame.RealDt = clock.ClampSeconds(dt, s.maxFrameDt)
	s.engine.Update(s.frame.RealDt)
}
