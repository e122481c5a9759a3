package world

import (
	"github.com/temporaldebt/core/internal/core/ecs"
	"github.com/temporaldebt/core/internal/geom"
	"github.com/temporaldebt/core/internal/temporal"
)

// State is the set of live actors. Bodies live in an ECS store so destroying
// an entity through the ECS world purges every trace of it; State itself is
// registered as a store and forgets the actor at the same moment.
type State struct {
	world  *ecs.World
	bodies *ecs.Store[Body]
	actors map[ecs.EntityID]Actor
	order  []ecs.EntityID // spawn order, for deterministic updates
	player *Player
}

func NewState(w *ecs.World) *State {
	s := &State{
		world:  w,
		bodies: ecs.NewStore[Body](),
		actors: make(map[ecs.EntityID]Actor, 32),
	}
	w.Register(s.bodies)
	w.Register(s)
	return s
}

func (s *State) World() *ecs.World { return s.world }
func (s *State) Player() *Player   { return s.player }
func (s *State) Count() int        { return len(s.order) }

func (s *State) Get(id ecs.EntityID) (Actor, bool) {
	a, ok := s.actors[id]
	return a, ok
}

func (s *State) Body(id ecs.EntityID) (*Body, bool) {
	return s.bodies.Get(id)
}

// Remove implements ecs.Removable.
func (s *State) Remove(id ecs.EntityID) {
	if _, ok := s.actors[id]; !ok {
		return
	}
	delete(s.actors, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.player != nil && s.player.id == id {
		s.player = nil
	}
}

// Each visits actors in spawn order.
func (s *State) Each(fn func(Actor)) {
	for _, id := range s.order {
		fn(s.actors[id])
	}
}

// Actors returns a spawn-ordered copy.
func (s *State) Actors() []Actor {
	out := make([]Actor, 0, len(s.order))
	s.Each(func(a Actor) { out = append(out, a) })
	return out
}

// Entities exposes every actor through the temporal entity contract.
func (s *State) Entities() []temporal.Entity {
	out := make([]temporal.Entity, 0, len(s.order))
	s.Each(func(a Actor) { out = append(out, a) })
	return out
}

func (s *State) CountKind(k Kind) int {
	n := 0
	s.Each(func(a Actor) {
		if a.Kind() == k && !s.world.PendingDestruction(a.ID()) {
			n++
		}
	})
	return n
}

// Snapshot captures every position and the given debt for an anchor.
func (s *State) Snapshot(debt float64) *temporal.WorldSnapshot {
	snap := &temporal.WorldSnapshot{
		Debt:      debt,
		Positions: make(map[ecs.EntityID]geom.Vec2, len(s.order)),
	}
	s.Each(func(a Actor) { snap.Positions[a.ID()] = a.Position() })
	return snap
}

// Nearest returns the closest actor of kind k to pos, if any.
func (s *State) Nearest(k Kind, pos geom.Vec2) (Actor, bool) {
	var best Actor
	bestD := 0.0
	s.Each(func(a Actor) {
		if a.Kind() != k {
			return
		}
		if d := pos.DistSq(a.Position()); best == nil || d < bestD {
			best, bestD = a, d
		}
	})
	return best, best != nil
}

func (s *State) newBody(pos geom.Vec2, radius float64) *Body {
	id := s.world.CreateEntity()
	b := &Body{id: id, Pos: pos, Radius: radius}
	s.bodies.Set(id, b)
	return b
}

func (s *State) add(a Actor) {
	s.actors[a.ID()] = a
	s.order = append(s.order, a.ID())
}

// SpawnPlayer replaces any previous player.
func (s *State) SpawnPlayer(pos geom.Vec2) *Player {
	if s.player != nil {
		s.world.MarkForDestruction(s.player.id)
	}
	p := &Player{Body: s.newBody(pos, 18), Speed: PlayerSpeed}
	s.add(p)
	s.player = p
	return p
}

// SpawnDrone creates a patrol drone. Linear and seeker drones walk
// waypoints; circular drones orbit pos.
func (s *State) SpawnDrone(pos geom.Vec2, mode PatrolMode, waypoints []geom.Vec2, speed float64) *PatrolDrone {
	if speed <= 0 {
		speed = DroneSpeed
	}
	d := &PatrolDrone{
		Body:      s.newBody(pos, 20),
		Mode:      mode,
		Speed:     speed,
		waypoints: append([]geom.Vec2(nil), waypoints...),
		dir:       1,
		center:    pos,
		radius:    OrbitRadius,
	}
	if mode == PatrolCircular {
		d.Pos = d.orbitAt(0)
		d.Vel = d.orbitVelocity(0)
	}
	s.add(d)
	return d
}

func (s *State) SpawnHunter(pos geom.Vec2, speed float64) *TemporalHunter {
	if speed <= 0 {
		speed = HunterSpeed
	}
	h := &TemporalHunter{Body: s.newBody(pos, 24), Speed: speed, Home: pos}
	s.add(h)
	return h
}

func (s *State) SpawnShadow(pos geom.Vec2, speed, spawnDebt float64) *DebtShadow {
	sh := &DebtShadow{Body: s.newBody(pos, 30), Speed: speed, SpawnDebt: spawnDebt}
	s.add(sh)
	return sh
}

func (s *State) SpawnSink(pos geom.Vec2, amount float64, uses int) *DebtSink {
	if uses <= 0 {
		uses = 1
	}
	k := &DebtSink{Body: s.newBody(pos, 24), Amount: amount, Uses: uses}
	s.add(k)
	return k
}

func (s *State) SpawnMirror(pos, facing geom.Vec2) *DebtMirror {
	m := &DebtMirror{Body: s.newBody(pos, 16), Facing: facing.Norm()}
	s.add(m)
	return m
}

func (s *State) SpawnBomb(pos geom.Vec2, payload, blast float64) *DebtBomb {
	b := &DebtBomb{Body: s.newBody(pos, 20), Payload: payload, BlastRange: blast}
	s.add(b)
	return b
}

// Clear destroys every actor, player included, at the next flush.
func (s *State) Clear() {
	for _, id := range s.order {
		s.world.MarkForDestruction(id)
	}
}
