package world

import "github.com/temporaldebt/core/internal/geom"

const PlayerSpeed = 250.0

// Player is immune to the time scale: it moves at full speed while the world
// is frozen. Movement is driven by a destination set from input.
type Player struct {
	*Body
	Speed  float64
	target *geom.Vec2
	Hits   int
}

func (p *Player) Kind() Kind           { return KindPlayer }
func (p *Player) AffectedByTime() bool { return false }
func (p *Player) Done() bool           { return false }

// MoveTo sets a destination; the player walks there over the next frames.
func (p *Player) MoveTo(dst geom.Vec2) {
	p.target = &dst
}

// Teleport places the player instantly and cancels any walk.
func (p *Player) Teleport(pos geom.Vec2) {
	p.Pos = pos
	p.Vel = geom.Vec2{}
	p.target = nil
}

func (p *Player) Moving() bool { return p.target != nil }

func (p *Player) Update(dt float64, _ *Env) {
	if p.target == nil || dt <= 0 {
		p.Vel = geom.Vec2{}
		return
	}
	next := p.Pos.MoveToward(*p.target, p.Speed*dt)
	p.Vel = next.Sub(p.Pos).Scale(1 / dt)
	p.Pos = next
	if p.Pos == *p.target {
		p.target = nil
	}
}
