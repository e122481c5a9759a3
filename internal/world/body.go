// Package world holds the simulated entities. Every variant implements the
// temporal entity contract and is updated once per frame with the game delta
// the time engine grants it. Accessed only from the frame loop goroutine.
package world

import (
	"github.com/temporaldebt/core/internal/core/ecs"
	"github.com/temporaldebt/core/internal/geom"
)

// Arena bounds in pixels. Shadows enter from its edges.
const (
	ArenaWidth  = 1280.0
	ArenaHeight = 720.0
)

// Body is the spatial component shared by every actor.
type Body struct {
	id     ecs.EntityID
	Pos    geom.Vec2
	Vel    geom.Vec2
	Radius float64
}

func (b *Body) ID() ecs.EntityID    { return b.id }
func (b *Body) Position() geom.Vec2 { return b.Pos }
func (b *Body) Velocity() geom.Vec2 { return b.Vel }

// PredictPosition extrapolates the current velocity. Variants with a known
// path override it.
func (b *Body) PredictPosition(t float64) geom.Vec2 {
	return b.Pos.Add(b.Vel.Scale(t))
}

// Touches reports whether two bodies overlap.
func (b *Body) Touches(o *Body) bool {
	r := b.Radius + o.Radius
	return b.Pos.DistSq(o.Pos) <= r*r
}
