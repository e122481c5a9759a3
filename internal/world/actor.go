package world

import (
	"github.com/temporaldebt/core/internal/core/event"
	"github.com/temporaldebt/core/internal/temporal"
)

type Kind uint8

const (
	KindPlayer Kind = iota
	KindDrone
	KindHunter
	KindShadow
	KindSink
	KindMirror
	KindBomb
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindDrone:
		return "drone"
	case KindHunter:
		return "hunter"
	case KindShadow:
		return "shadow"
	case KindSink:
		return "sink"
	case KindMirror:
		return "mirror"
	case KindBomb:
		return "bomb"
	}
	return "unknown"
}

// DebtAccount is the slice of the debt manager entities may touch.
type DebtAccount interface {
	Current() float64
	Charge(amount float64)
	Absorb(amount float64) float64
}

// Env is the per-frame context handed to every actor.
type Env struct {
	Frozen bool
	RealDt float64
	Player *Player
	Debt   DebtAccount
	Bus    *event.Bus
}

// Actor is the closed set of simulated variants. Done reports that the actor
// has finished (dissolved shadow, spent bomb) and should be destroyed at the
// end of the frame.
type Actor interface {
	temporal.Entity
	Kind() Kind
	Update(dt float64, env *Env)
	Done() bool
}
