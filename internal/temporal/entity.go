// Package temporal is the time-manipulation core: the time engine, the debt
// economy, echo prediction and anchor recall. It runs on the frame goroutine
// only and never blocks; every mutation happens inside one Runner tick.
package temporal

import (
	"github.com/temporaldebt/core/internal/core/ecs"
	"github.com/temporaldebt/core/internal/geom"
)

// Entity is the contract the temporal core needs from anything in the world.
// PredictPosition must be pure: echoes sample it many times per frame and it
// must not touch entity state.
type Entity interface {
	ID() ecs.EntityID
	Position() geom.Vec2
	Velocity() geom.Vec2
	AffectedByTime() bool
	PredictPosition(offset float64) geom.Vec2
}

// Teleporter receives the position of a recalled anchor.
type Teleporter interface {
	Teleport(pos geom.Vec2)
}

// Charger accepts an immediate debt charge.
type Charger interface {
	Charge(amount float64)
}

// SpeedSource supplies the world-speed multiplier the time engine applies
// while time flows.
type SpeedSource interface {
	WorldSpeedMultiplier() float64
}
