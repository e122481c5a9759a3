package world

import (
	"github.com/temporaldebt/core/internal/core/event"
	"github.com/temporaldebt/core/internal/geom"
)

// DebtSink absorbs a fixed amount of debt per use. Spent sinks are removed.
type DebtSink struct {
	*Body
	Amount float64
	Uses   int
}

func (s *DebtSink) Kind() Kind           { return KindSink }
func (s *DebtSink) AffectedByTime() bool { return true }
func (s *DebtSink) Done() bool           { return s.Uses <= 0 }
func (s *DebtSink) Update(float64, *Env) {}

// Use absorbs up to Amount and returns what was removed. A spent sink does
// nothing.
func (s *DebtSink) Use(debt DebtAccount) float64 {
	if s.Uses <= 0 || debt == nil {
		return 0
	}
	s.Uses--
	return debt.Absorb(s.Amount)
}

const (
	MirrorCapacity    = 5.0
	mirrorDepositRate = 2.0 // debt seconds per real second
)

// DebtMirror stores debt drained from the player and emits it along its
// facing once at least half charged.
type DebtMirror struct {
	*Body
	Facing geom.Vec2
	Stored float64
}

func (m *DebtMirror) Kind() Kind           { return KindMirror }
func (m *DebtMirror) AffectedByTime() bool { return true }
func (m *DebtMirror) Done() bool           { return false }
func (m *DebtMirror) Update(float64, *Env) {}

func (m *DebtMirror) Charged() bool { return m.Stored >= MirrorCapacity*0.5 }

// Deposit drains up to seconds*rate of debt into the mirror, bounded by its
// remaining capacity. Returns the amount moved.
func (m *DebtMirror) Deposit(debt DebtAccount, seconds float64) float64 {
	if debt == nil || seconds <= 0 {
		return 0
	}
	room := MirrorCapacity - m.Stored
	if room <= 0 {
		return 0
	}
	moved := debt.Absorb(min(room, seconds*mirrorDepositRate))
	m.Stored += moved
	return moved
}

// Emit releases the stored charge. It refuses below half capacity.
func (m *DebtMirror) Emit(bus *event.Bus) (float64, bool) {
	if !m.Charged() {
		return 0, false
	}
	amount := m.Stored
	m.Stored = 0
	event.Emit(bus, event.MirrorEmitted{Position: m.Pos, Direction: m.Facing, Amount: amount})
	return amount, true
}

const (
	BombTriggerDistance = 60.0
	BombFuse            = 1.0
)

// DebtBomb arms when the player comes close and detonates after its fuse,
// charging its payload if the player is inside the blast radius. The fuse
// runs on game time, so freezing stalls it.
type DebtBomb struct {
	*Body
	Payload    float64
	BlastRange float64

	armed     bool
	fuse      float64
	detonated bool
}

func (b *DebtBomb) Kind() Kind           { return KindBomb }
func (b *DebtBomb) AffectedByTime() bool { return true }
func (b *DebtBomb) Done() bool           { return b.detonated }
func (b *DebtBomb) Armed() bool          { return b.armed }

func (b *DebtBomb) Update(dt float64, env *Env) {
	if b.detonated || env == nil || env.Player == nil {
		return
	}
	if !b.armed && b.Pos.Dist(env.Player.Pos) < BombTriggerDistance {
		b.armed = true
		b.fuse = 0
	}
	if !b.armed {
		return
	}
	b.fuse += dt
	if b.fuse < BombFuse {
		return
	}
	b.detonated = true
	hit := b.Pos.Dist(env.Player.Pos) <= b.BlastRange
	if hit && env.Debt != nil {
		env.Debt.Charge(b.Payload)
	}
	event.Emit(env.Bus, event.BombDetonated{Position: b.Pos, Payload: b.Payload, HitPlayer: hit})
}
