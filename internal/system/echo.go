package system

import (
	"time"

	coresys "github.com/temporaldebt/core/internal/core/system"
	"github.com/temporaldebt/core/internal/temporal"
	"github.com/temporaldebt/core/internal/world"
)

// EchoSystem keeps predicted paths in step with the freeze: active exactly
// while time is frozen, at the accuracy of the current debt tier.
// Phase 4 (Echo).
type EchoSystem struct {
	engine *temporal.TimeEngine
	debt   *temporal.DebtManager
	echo   *temporal.EchoSystem
	state  *world.State
}

func NewEchoSystem(engine *temporal.TimeEngine, debt *temporal.DebtManager, echo *temporal.EchoSystem, state *world.State) *EchoSystem {
	return &EchoSystem{engine: engine, debt: debt, echo: echo, state: state}
}

func (s *EchoSystem) Phase() coresys.Phase { return coresys.PhaseEcho }

func (s *EchoSystem) Update(_ time.Duration) {
	frozen := s.engine.Frozen()
	switch {
	case frozen && !s.echo.Active():
		s.echo.Activate()
	case !frozen && s.echo.Active():
		s.echo.Deactivate()
	}
	s.echo.SetAccuracy(s.debt.Tier())
	if frozen {
		s.echo.Update(s.state.Entities())
	}
}
