package system

import (
	"time"

	"github.com/temporaldebt/core/internal/core/event"
	coresys "github.com/temporaldebt/core/internal/core/system"
	"github.com/temporaldebt/core/internal/temporal"
	"github.com/temporaldebt/core/internal/world"
)

// EntitySystem moves every actor by the game delta the time engine grants
// it. Finished actors are queued for destruction. Phase 2 (Entities).
type EntitySystem struct {
	frame  *Frame
	engine *temporal.TimeEngine
	state  *world.State
	debt   world.DebtAccount
	bus    *event.Bus
}

func NewEntitySystem(frame *Frame, engine *temporal.TimeEngine, state *world.State, debt world.DebtAccount, bus *event.Bus) *EntitySystem {
	return &EntitySystem{frame: frame, engine: engine, state: state, debt: debt, bus: bus}
}

func (s *EntitySystem) Phase() coresys.Phase { return coresys.PhaseEntities }

func (s *EntitySystem) Update(_ time.Duration) {
	env := &world.Env{
		Frozen: s.engine.Frozen(),
		RealDt: s.frame.RealDt,
		Player: s.state.Player(),
		Debt:   s.debt,
		Bus:    s.bus,
	}
	w := s.state.World()
	s.state.Each(func(a world.Actor) {
		if w.PendingDestruction(a.ID()) {
			return
		}
		a.Update(s.engine.GameDt(s.frame.RealDt, a.AffectedByTime()), env)
		if a.Done() {
			w.MarkForDestruction(a.ID())
		}
	})
}
