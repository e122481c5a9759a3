package system

import (
	"time"

	"github.com/temporaldebt/core/internal/core/event"
	coresys "github.com/temporaldebt/core/internal/core/system"
)

// DispatchSystem routes the frame's events, in emission order, to their
// subscribers once every simulation phase has run. Phase 7 (Output).
type DispatchSystem struct {
	bus        *event.Bus
	dispatched uint64
}

func NewDispatchSystem(bus *event.Bus) *DispatchSystem {
	return &DispatchSystem{bus: bus}
}

func (s *DispatchSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *DispatchSystem) Update(_ time.Duration) {
	events := s.bus.Drain()
	s.bus.Dispatch(events)
	s.dispatched += uint64(len(events))
}

// Dispatched returns the number of events routed so far.
func (s *DispatchSystem) Dispatched() uint64 { return s.dispatched }
