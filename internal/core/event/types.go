package event

import (
	"github.com/temporaldebt/core/internal/geom"
)

// Time engine.

type TimeFrozen struct {
	TotalFrozen float64 // lifetime frozen seconds before this hold
}

type TimeUnfrozen struct {
	Duration float64 // real seconds held in this freeze episode
	Scale    float64 // time scale the world resumes at
}

type TimeScaleChanged struct {
	Scale float64
}

// Debt manager.

type DebtChanged struct {
	Value float64
	Delta float64
}

type TierChanged struct {
	Old int
	New int
}

type DebtAbsorbed struct {
	Amount    float64
	Remaining float64
}

type BankruptcyStarted struct {
	Debt  float64
	Times int
}

type BankruptcyEnded struct{}

// MomentumMaxed fires each time momentum climbs back to its cap.
type MomentumMaxed struct {
	Times int
}

// Anchor system.

type AnchorPlaced struct {
	Position geom.Vec2
	Index    int
}

type AnchorRecalled struct {
	Position geom.Vec2
	Cost     float64
}

type AnchorExpired struct {
	Index int
}

// AnchorEvicted fires when placement at capacity drops the oldest anchor.
type AnchorEvicted struct {
	Position geom.Vec2
}

// RecallDeclined is the UI signal for a recall on a missing or expired anchor.
type RecallDeclined struct {
	Index int
}

type AnchorsCleared struct {
	Count int
}

// Consequences.

type ShadowSpawned struct {
	Position geom.Vec2
}

type BombDetonated struct {
	Position  geom.Vec2
	Payload   float64
	HitPlayer bool
}

type MirrorEmitted struct {
	Position  geom.Vec2
	Direction geom.Vec2
	Amount    float64
}

// PlayerHit fires when a hostile actor first touches the player.
type PlayerHit struct {
	By       string
	Position geom.Vec2
}
