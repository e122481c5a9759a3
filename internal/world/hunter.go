package world

import "github.com/temporaldebt/core/internal/geom"

const (
	HunterSpeed      = 180.0
	hunterReturnRate = 0.3
)

// TemporalHunter punishes long freezes: it is time-immune and closes in on
// the player only while the world is frozen, then drifts back home.
type TemporalHunter struct {
	*Body
	Speed float64
	Home  geom.Vec2

	hunting bool
}

func (h *TemporalHunter) Kind() Kind           { return KindHunter }
func (h *TemporalHunter) AffectedByTime() bool { return false }
func (h *TemporalHunter) Done() bool           { return false }
func (h *TemporalHunter) Hunting() bool        { return h.hunting }

func (h *TemporalHunter) Update(dt float64, env *Env) {
	h.hunting = env != nil && env.Frozen && env.Player != nil
	if dt <= 0 {
		return
	}
	var next geom.Vec2
	switch {
	case h.hunting:
		next = h.Pos.MoveToward(env.Player.Pos, h.Speed*dt)
	case h.Pos.Dist(h.Home) > 5:
		next = h.Pos.MoveToward(h.Home, h.Speed*hunterReturnRate*dt)
	default:
		h.Vel = geom.Vec2{}
		return
	}
	h.Vel = next.Sub(h.Pos).Scale(1 / dt)
	h.Pos = next
}
