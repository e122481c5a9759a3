package temporal

import (
	"errors"
	"fmt"

	"github.com/temporaldebt/core/internal/config"
	"github.com/temporaldebt/core/internal/core/ecs"
	"github.com/temporaldebt/core/internal/core/event"
	"github.com/temporaldebt/core/internal/geom"
	"go.uber.org/zap"
)

// ErrInvalidIndex is returned for a recall on a missing or expired anchor.
var ErrInvalidIndex = errors.New("invalid anchor index")

// WorldSnapshot is optional state captured when an anchor is placed.
type WorldSnapshot struct {
	Debt      float64
	Positions map[ecs.EntityID]geom.Vec2
}

type TimeAnchor struct {
	Position      geom.Vec2
	CreationTime  float64 // anchor-system real clock at placement
	RemainingTime float64
	Snapshot      *WorldSnapshot
}

// AnchorSystem keeps a small FIFO of teleport points. Decay runs on real time
// and keeps running while time is frozen.
type AnchorSystem struct {
	anchors    []TimeAnchor // oldest first
	maxAnchors int
	decayTime  float64
	recallCost float64
	clock      float64

	debt Charger
	bus  *event.Bus
	log  *zap.Logger
}

// NewAnchorSystem holds at least one anchor whatever the config says.
func NewAnchorSystem(cfg config.AnchorConfig, debt Charger, bus *event.Bus, log *zap.Logger) *AnchorSystem {
	maxAnchors := max(1, cfg.MaxAnchors)
	return &AnchorSystem{
		anchors:    make([]TimeAnchor, 0, maxAnchors+1),
		maxAnchors: maxAnchors,
		decayTime:  cfg.DecayTime,
		recallCost: cfg.RecallDebtCost,
		debt:       debt,
		bus:        bus,
		log:        log,
	}
}

func (s *AnchorSystem) Len() int            { return len(s.anchors) }
func (s *AnchorSystem) Max() int            { return s.maxAnchors }
func (s *AnchorSystem) Clock() float64      { return s.clock }
func (s *AnchorSystem) RecallCost() float64 { return s.recallCost }
func (s *AnchorSystem) SetRecallCost(c float64) {
	if c >= 0 {
		s.recallCost = c
	}
}

// Anchors returns a copy, oldest first, for HUD markers.
func (s *AnchorSystem) Anchors() []TimeAnchor {
	out := make([]TimeAnchor, len(s.anchors))
	copy(out, s.anchors)
	return out
}

// DecayFraction is 1 for a fresh anchor and approaches 0 as it expires.
func (s *AnchorSystem) DecayFraction(a TimeAnchor) float64 {
	return clamp01(a.RemainingTime / s.decayTime)
}

// Place never fails. At capacity the anchor with the earliest creation time
// is evicted first.
func (s *AnchorSystem) Place(pos geom.Vec2, snap *WorldSnapshot) TimeAnchor {
	if len(s.anchors) >= s.maxAnchors {
		oldest := 0
		for i, a := range s.anchors {
			if a.CreationTime < s.anchors[oldest].CreationTime {
				oldest = i
			}
		}
		evicted := s.anchors[oldest]
		s.anchors = append(s.anchors[:oldest], s.anchors[oldest+1:]...)
		event.Emit(s.bus, event.AnchorEvicted{Position: evicted.Position})
	}
	a := TimeAnchor{
		Position:      pos,
		CreationTime:  s.clock,
		RemainingTime: s.decayTime,
		Snapshot:      snap,
	}
	s.anchors = append(s.anchors, a)
	event.Emit(s.bus, event.AnchorPlaced{Position: pos, Index: len(s.anchors) - 1})
	return a
}

// Recall consumes anchor index, charges the recall cost and teleports target.
// A declined recall changes nothing and emits RecallDeclined.
func (s *AnchorSystem) Recall(index int, target Teleporter) (geom.Vec2, error) {
	if index < 0 || index >= len(s.anchors) || s.anchors[index].RemainingTime <= 0 {
		event.Emit(s.bus, event.RecallDeclined{Index: index})
		s.log.Debug("recall declined", zap.Int("index", index), zap.Int("anchors", len(s.anchors)))
		return geom.Vec2{}, fmt.Errorf("recall %d: %w", index, ErrInvalidIndex)
	}
	a := s.anchors[index]
	s.anchors = append(s.anchors[:index], s.anchors[index+1:]...)

	cost := s.recallCost
	if s.debt != nil {
		s.debt.Charge(cost)
	}
	if target != nil {
		target.Teleport(a.Position)
	}
	event.Emit(s.bus, event.AnchorRecalled{Position: a.Position, Cost: cost})
	return a.Position, nil
}

// RecallNearest recalls to the live anchor closest to from.
func (s *AnchorSystem) RecallNearest(from geom.Vec2, target Teleporter) (geom.Vec2, error) {
	best := -1
	for i, a := range s.anchors {
		if a.RemainingTime <= 0 {
			continue
		}
		if best < 0 || from.DistSq(a.Position) < from.DistSq(s.anchors[best].Position) {
			best = i
		}
	}
	return s.Recall(best, target)
}

// Update decays every anchor by real time. Expired anchors are removed and
// reported with the index they held before this update.
func (s *AnchorSystem) Update(realDt float64) {
	if realDt < 0 {
		realDt = 0
	}
	s.clock += realDt
	kept := s.anchors[:0]
	for i, a := range s.anchors {
		a.RemainingTime -= realDt
		if a.RemainingTime <= 0 {
			event.Emit(s.bus, event.AnchorExpired{Index: i})
			continue
		}
		kept = append(kept, a)
	}
	s.anchors = kept
}

// ClearAll drops every anchor at a level boundary.
func (s *AnchorSystem) ClearAll() {
	n := len(s.anchors)
	s.anchors = s.anchors[:0]
	if n > 0 {
		event.Emit(s.bus, event.AnchorsCleared{Count: n})
	}
}
