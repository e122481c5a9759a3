package world

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temporaldebt/core/internal/core/ecs"
	"github.com/temporaldebt/core/internal/core/event"
	"github.com/temporaldebt/core/internal/geom"
)

type fakeDebt struct {
	current float64
	charged float64
}

func (f *fakeDebt) Current() float64      { return f.current }
func (f *fakeDebt) Charge(amount float64) { f.current += amount; f.charged += amount }
func (f *fakeDebt) Absorb(amount float64) float64 {
	amount = min(amount, f.current)
	f.current -= amount
	return amount
}

func newState() *State {
	return NewState(ecs.NewWorld())
}

func TestStateSpawnOrderAndDestroy(t *testing.T) {
	s := newState()
	p := s.SpawnPlayer(geom.V(0, 0))
	d := s.SpawnDrone(geom.V(10, 10), PatrolLinear, nil, 0)
	h := s.SpawnHunter(geom.V(20, 20), 0)

	ids := []ecs.EntityID{}
	s.Each(func(a Actor) { ids = append(ids, a.ID()) })
	assert.Equal(t, []ecs.EntityID{p.ID(), d.ID(), h.ID()}, ids)
	assert.Equal(t, 1, s.CountKind(KindDrone))

	s.World().MarkForDestruction(d.ID())
	assert.Equal(t, 0, s.CountKind(KindDrone), "pending destruction is not counted")
	_, ok := s.Get(d.ID())
	assert.True(t, ok, "still readable until the flush")

	require.Equal(t, 1, s.World().FlushDestroyQueue())
	_, ok = s.Get(d.ID())
	assert.False(t, ok)
	_, ok = s.Body(d.ID())
	assert.False(t, ok)
	assert.Equal(t, 2, s.Count())
}

func TestClearRemovesPlayer(t *testing.T) {
	s := newState()
	s.SpawnPlayer(geom.V(1, 1))
	s.SpawnSink(geom.V(2, 2), 3, 1)
	s.Clear()
	s.World().FlushDestroyQueue()
	assert.Nil(t, s.Player())
	assert.Equal(t, 0, s.Count())
}

func TestSnapshotCapturesPositions(t *testing.T) {
	s := newState()
	p := s.SpawnPlayer(geom.V(5, 6))
	snap := s.Snapshot(4.5)
	assert.Equal(t, 4.5, snap.Debt)
	assert.Equal(t, geom.V(5, 6), snap.Positions[p.ID()])
}

func TestPlayerWalksAndTeleports(t *testing.T) {
	s := newState()
	p := s.SpawnPlayer(geom.V(0, 0))
	assert.False(t, p.AffectedByTime())

	p.MoveTo(geom.V(100, 0))
	p.Update(0.2, nil)
	assert.InDelta(t, 50.0, p.Pos.X, 1e-9)
	assert.True(t, p.Moving())

	p.Update(1, nil)
	assert.Equal(t, geom.V(100, 0), p.Pos)
	assert.False(t, p.Moving())

	p.MoveTo(geom.V(500, 500))
	p.Teleport(geom.V(-3, 4))
	assert.Equal(t, geom.V(-3, 4), p.Pos)
	assert.False(t, p.Moving())
}

func TestLinearDroneBouncesAndPredictionMatchesUpdate(t *testing.T) {
	s := newState()
	route := []geom.Vec2{geom.V(0, 0), geom.V(120, 0)}
	d := s.SpawnDrone(geom.V(0, 0), PatrolLinear, route, 120)

	predicted := d.PredictPosition(1.5)
	for i := 0; i < 15; i++ {
		d.Update(0.1, nil)
	}
	assert.InDelta(t, predicted.X, d.Pos.X, 1e-6)
	assert.InDelta(t, 60.0, d.Pos.X, 1e-6, "reached 120 then came back 60")
	assert.Less(t, d.Vel.X, 0.0)
}

func TestDroneFrozenDoesNotMove(t *testing.T) {
	s := newState()
	d := s.SpawnDrone(geom.V(0, 0), PatrolLinear, []geom.Vec2{geom.V(0, 0), geom.V(50, 0)}, 0)
	d.Update(0, nil)
	assert.Equal(t, geom.V(0, 0), d.Pos)
}

func TestDroneWithCoincidentWaypointsTerminates(t *testing.T) {
	s := newState()
	d := s.SpawnDrone(geom.V(5, 5), PatrolLinear, []geom.Vec2{geom.V(5, 5), geom.V(5, 5), geom.V(5, 5)}, 0)
	d.Update(10, nil)
	assert.Equal(t, geom.V(5, 5), d.Pos)
}

func TestCircularDroneOrbit(t *testing.T) {
	s := newState()
	d := s.SpawnDrone(geom.V(200, 200), PatrolCircular, nil, 0)
	assert.InDelta(t, 300.0, d.Pos.X, 1e-9)

	want := d.PredictPosition(math.Pi)
	d.Update(math.Pi, nil)
	assert.InDelta(t, want.X, d.Pos.X, 1e-9)
	assert.InDelta(t, 100.0, d.Pos.X, 1e-9)
	assert.InDelta(t, OrbitRadius, d.Pos.Dist(geom.V(200, 200)), 1e-9)
}

func TestSeekerChasesInRange(t *testing.T) {
	s := newState()
	p := s.SpawnPlayer(geom.V(200, 0))
	d := s.SpawnDrone(geom.V(0, 0), PatrolSeeker, []geom.Vec2{geom.V(0, 0), geom.V(0, 100)}, 0)
	env := &Env{Player: p}

	d.Update(0.1, env)
	assert.True(t, d.Chasing())
	assert.InDelta(t, 15.0, d.Pos.X, 1e-9)

	p.Teleport(geom.V(1000, 0))
	d.Update(0.1, env)
	assert.False(t, d.Chasing())
	assert.InDelta(t, 3.0, d.Pos.X, 1e-9, "back on its route at patrol speed")
}

func TestHunterMovesOnlyWhileFrozen(t *testing.T) {
	s := newState()
	p := s.SpawnPlayer(geom.V(100, 0))
	h := s.SpawnHunter(geom.V(0, 0), 0)
	assert.False(t, h.AffectedByTime())

	h.Update(0.1, &Env{Player: p, Frozen: true})
	assert.True(t, h.Hunting())
	assert.InDelta(t, 18.0, h.Pos.X, 1e-9)

	h.Update(0.1, &Env{Player: p})
	assert.False(t, h.Hunting())
	assert.Less(t, h.Pos.X, 18.0, "drifts back home")
}

func TestShadowChasesAndDissolves(t *testing.T) {
	s := newState()
	p := s.SpawnPlayer(geom.V(100, 0))
	sh := s.SpawnShadow(geom.V(0, 0), 100, 10)
	debt := &fakeDebt{current: 10}
	env := &Env{Player: p, Debt: debt, Frozen: true}

	sh.Update(0.1, env)
	assert.InDelta(t, 15.0, sh.Pos.X, 1e-9, "100 * (1 + 10/20) * 0.1")

	debt.current = 4.9
	sh.Update(0.5, env)
	assert.True(t, sh.Dissolving())
	assert.False(t, sh.Done())
	assert.InDelta(t, 0.5, sh.Alpha(), 1e-9)

	debt.current = 12 // dissolving is final
	sh.Update(0.5, env)
	assert.True(t, sh.Done())
}

func TestSinkUses(t *testing.T) {
	s := newState()
	k := s.SpawnSink(geom.V(0, 0), 3, 2)
	debt := &fakeDebt{current: 4}

	assert.Equal(t, 3.0, k.Use(debt))
	assert.False(t, k.Done())
	assert.Equal(t, 1.0, k.Use(debt))
	assert.True(t, k.Done())
	assert.Equal(t, 0.0, k.Use(debt))
}

func TestMirrorStoresAndEmits(t *testing.T) {
	s := newState()
	m := s.SpawnMirror(geom.V(0, 0), geom.V(0, 10))
	debt := &fakeDebt{current: 10}
	bus := event.NewBus()

	assert.InDelta(t, 2.0, m.Deposit(debt, 1), 1e-12)
	_, ok := m.Emit(bus)
	assert.False(t, ok, "under half charge")

	m.Deposit(debt, 5)
	assert.Equal(t, MirrorCapacity, m.Stored)
	assert.InDelta(t, 5.0, debt.current, 1e-12)

	amount, ok := m.Emit(bus)
	require.True(t, ok)
	assert.Equal(t, MirrorCapacity, amount)
	emitted := event.Collect[event.MirrorEmitted](bus.Drain())
	require.Len(t, emitted, 1)
	assert.Equal(t, geom.V(0, 1), emitted[0].Direction)
}

func TestBombFuseAndBlast(t *testing.T) {
	s := newState()
	p := s.SpawnPlayer(geom.V(100, 0))
	b := s.SpawnBomb(geom.V(0, 0), 5, 150)
	debt := &fakeDebt{}
	bus := event.NewBus()
	env := &Env{Player: p, Debt: debt, Bus: bus}

	b.Update(0.1, env)
	assert.False(t, b.Armed(), "outside the trigger distance")

	p.Teleport(geom.V(40, 0))
	b.Update(0.5, env)
	require.True(t, b.Armed())
	b.Update(0, env) // frozen: fuse stalls
	assert.False(t, b.Done())

	p.Teleport(geom.V(120, 0)) // still inside the blast
	b.Update(0.5, env)
	assert.True(t, b.Done())
	assert.Equal(t, 5.0, debt.charged)

	det := event.Collect[event.BombDetonated](bus.Drain())
	require.Len(t, det, 1)
	assert.True(t, det[0].HitPlayer)
}

func TestNearest(t *testing.T) {
	s := newState()
	s.SpawnSink(geom.V(0, 0), 3, 1)
	far := s.SpawnSink(geom.V(500, 0), 3, 1)
	a, ok := s.Nearest(KindSink, geom.V(400, 0))
	require.True(t, ok)
	assert.Equal(t, far.ID(), a.ID())
	_, ok = s.Nearest(KindMirror, geom.V(0, 0))
	assert.False(t, ok)
	assert.True(t, slices.ContainsFunc(s.Actors(), func(a Actor) bool { return a.Kind() == KindSink }))
}
