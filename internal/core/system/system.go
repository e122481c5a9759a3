package system

import "time"

// Phase defines execution ordering within a single frame. The order is part of
// the temporal contract: the time scale must be final before entities read
// their delta, and the debt tier must be final before echoes read it.
type Phase int

const (
	PhaseInput       Phase = iota // 0: apply queued player commands (freeze, anchor, recall)
	PhaseTime                     // 1: clamp real dt, advance the time engine
	PhaseEntities                 // 2: move entities with their game dt
	PhaseDebt                     // 3: accrue or repay debt, settle freeze episodes
	PhaseEcho                     // 4: recompute predicted paths while frozen
	PhaseAnchor                   // 5: real-time anchor decay
	PhaseConsequence              // 6: shadows, bombs
	PhaseOutput                   // 7: route this frame's events
	PhasePersist                  // 8: ledger batch flush
	PhaseCleanup                  // 9: destroy queued entities
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseTime:
		return "time"
	case PhaseEntities:
		return "entities"
	case PhaseDebt:
		return "debt"
	case PhaseEcho:
		return "echo"
	case PhaseAnchor:
		return "anchor"
	case PhaseConsequence:
		return "consequence"
	case PhaseOutput:
		return "output"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every frame system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
