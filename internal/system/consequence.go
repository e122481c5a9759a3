package system

import (
	"math/rand/v2"
	"time"

	"github.com/temporaldebt/core/internal/config"
	"github.com/temporaldebt/core/internal/core/ecs"
	"github.com/temporaldebt/core/internal/core/event"
	coresys "github.com/temporaldebt/core/internal/core/system"
	"github.com/temporaldebt/core/internal/geom"
	"github.com/temporaldebt/core/internal/temporal"
	"github.com/temporaldebt/core/internal/world"
)

// ShadowLimiter decides how many debt shadows may exist at a debt level.
type ShadowLimiter interface {
	ShadowLimit(debt, spawnDebt float64) int
}

// ConsequenceSystem turns debt into danger: it spawns debt shadows at the
// arena edge while fewer exist than the limit allows, and reports hostile
// contact with the player. Phase 6 (Consequence).
type ConsequenceSystem struct {
	cfg     config.ConsequenceConfig
	debt    *temporal.DebtManager
	state   *world.State
	bus     *event.Bus
	limiter ShadowLimiter
	rng     *rand.Rand

	touching map[ecs.EntityID]bool
}

func NewConsequenceSystem(cfg config.ConsequenceConfig, debt *temporal.DebtManager, state *world.State, bus *event.Bus, limiter ShadowLimiter, seed uint64) *ConsequenceSystem {
	return &ConsequenceSystem{
		cfg:      cfg,
		debt:     debt,
		state:    state,
		bus:      bus,
		limiter:  limiter,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		touching: make(map[ecs.EntityID]bool),
	}
}

func (s *ConsequenceSystem) Phase() coresys.Phase { return coresys.PhaseConsequence }

func (s *ConsequenceSystem) Update(_ time.Duration) {
	s.spawnShadows()
	s.checkContacts()
}

func (s *ConsequenceSystem) spawnShadows() {
	debt := s.debt.Current()
	if debt < s.cfg.ShadowSpawnDebt || s.state.Player() == nil {
		return
	}
	limit := s.limiter.ShadowLimit(debt, s.cfg.ShadowSpawnDebt)
	if s.liveShadows() >= limit {
		return
	}
	pos := s.edgePoint()
	s.state.SpawnShadow(pos, s.cfg.ShadowSpeed, s.cfg.ShadowSpawnDebt)
	event.Emit(s.bus, event.ShadowSpawned{Position: pos})
}

func (s *ConsequenceSystem) liveShadows() int {
	n := 0
	w := s.state.World()
	s.state.Each(func(a world.Actor) {
		if sh, ok := a.(*world.DebtShadow); ok && !sh.Dissolving() && !w.PendingDestruction(sh.ID()) {
			n++
		}
	})
	return n
}

func (s *ConsequenceSystem) edgePoint() geom.Vec2 {
	switch s.rng.IntN(4) {
	case 0:
		return geom.V(0, s.rng.Float64()*world.ArenaHeight)
	case 1:
		return geom.V(world.ArenaWidth, s.rng.Float64()*world.ArenaHeight)
	case 2:
		return geom.V(s.rng.Float64()*world.ArenaWidth, 0)
	}
	return geom.V(s.rng.Float64()*world.ArenaWidth, world.ArenaHeight)
}

// checkContacts reports a hit only when contact begins, not every frame it
// lasts.
func (s *ConsequenceSystem) checkContacts() {
	player := s.state.Player()
	if player == nil {
		clear(s.touching)
		return
	}
	s.state.Each(func(a world.Actor) {
		id := a.ID()
		switch a.Kind() {
		case world.KindDrone, world.KindHunter, world.KindShadow:
		default:
			return
		}
		if sh, ok := a.(*world.DebtShadow); ok && sh.Dissolving() {
			delete(s.touching, id)
			return
		}
		body, ok := s.state.Body(id)
		if !ok {
			return
		}
		if !body.Touches(player.Body) {
			delete(s.touching, id)
			return
		}
		if s.touching[id] {
			return
		}
		s.touching[id] = true
		player.Hits++
		event.Emit(s.bus, event.PlayerHit{By: a.Kind().String(), Position: player.Pos})
	})
	for id := range s.touching {
		if _, ok := s.state.Get(id); !ok {
			delete(s.touching, id)
		}
	}
}
