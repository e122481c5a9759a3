package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temporaldebt/core/internal/config"
	"github.com/temporaldebt/core/internal/core/ecs"
	"github.com/temporaldebt/core/internal/core/event"
	"github.com/temporaldebt/core/internal/data"
	"github.com/temporaldebt/core/internal/geom"
	"github.com/temporaldebt/core/internal/temporal"
	"github.com/temporaldebt/core/internal/world"
)

type fixture struct {
	cfg     *config.Config
	frame   *Frame
	bus     *event.Bus
	debt    *temporal.DebtManager
	engine  *temporal.TimeEngine
	anchors *temporal.AnchorSystem
	ecs     *ecs.World
	state   *world.State
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Defaults()
	bus := event.NewBus()
	debt, err := temporal.NewDebtManager(cfg.Debt, bus, zap.NewNop())
	require.NoError(t, err)
	w := ecs.NewWorld()
	return &fixture{
		cfg:     cfg,
		frame:   &Frame{},
		bus:     bus,
		debt:    debt,
		engine:  temporal.NewTimeEngine(debt, bus),
		anchors: temporal.NewAnchorSystem(cfg.Anchor, debt, bus, zap.NewNop()),
		ecs:     w,
		state:   world.NewState(w),
	}
}

func (f *fixture) input(script []data.Command) *InputSystem {
	return NewInputSystem(f.frame, f.engine, f.debt, f.anchors, f.state, f.bus, script, zap.NewNop())
}

const tick = 100 * time.Millisecond

func TestTimeSystemAdvancesFrameAfterFirst(t *testing.T) {
	f := newFixture(t)
	ts := NewTimeSystem(f.frame, f.engine, f.cfg.Sim.MaxFrameDt)

	ts.Update(tick)
	assert.Equal(t, uint64(0), f.frame.Number)
	assert.Equal(t, 0.0, f.frame.RealTime)
	assert.InDelta(t, 0.1, f.frame.Now(), 1e-12)

	ts.Update(5 * time.Second) // stall
	assert.Equal(t, uint64(1), f.frame.Number)
	assert.InDelta(t, 0.1, f.frame.RealDt, 1e-12, "clamped to max_frame_dt")
	assert.InDelta(t, 0.2, f.frame.Now(), 1e-12)
	assert.InDelta(t, 0.2, f.engine.RealTime(), 1e-12)
}

func TestDebtSystemAccruesWhileFrozenAndRepaysAfter(t *testing.T) {
	f := newFixture(t)
	ts := NewTimeSystem(f.frame, f.engine, f.cfg.Sim.MaxFrameDt)
	ds := NewDebtSystem(f.frame, f.engine, f.debt, nil)
	frame := func() { ts.Update(tick); ds.Update(tick) }

	f.engine.Freeze()
	for i := 0; i < 24; i++ {
		frame()
	}
	assert.InDelta(t, 3.6, f.debt.Current(), 1e-9)
	assert.Equal(t, 1, f.debt.Tier())

	f.engine.Unfreeze()
	frame()
	assert.InDelta(t, 3.6-0.1*1.25, f.debt.Current(), 1e-9, "tier-1 interest")
	assert.InDelta(t, 2.4, f.engine.TotalFrozen(), 1e-9)
}

func TestInputAppliesScriptOnRealClock(t *testing.T) {
	f := newFixture(t)
	f.state.SpawnPlayer(geom.V(10, 10))
	in := f.input([]data.Command{
		{At: 0, Op: data.OpPlaceAnchor},
		{At: 0.2, Op: data.OpFreeze},
		{At: 0.2, Op: data.OpMove, Target: geom.V(50, 10)},
	})
	ts := NewTimeSystem(f.frame, f.engine, f.cfg.Sim.MaxFrameDt)
	frame := func() { in.Update(tick); ts.Update(tick) }

	frame()
	assert.Equal(t, 1, f.anchors.Len())
	assert.False(t, f.engine.Frozen())
	assert.Equal(t, 2, in.Remaining())

	frame() // starts at 0.1
	assert.False(t, f.engine.Frozen())

	frame() // starts at 0.2
	assert.True(t, f.engine.Frozen())
	assert.True(t, f.state.Player().Moving())
	assert.Equal(t, 0, in.Remaining())
	assert.Equal(t, 3, in.Applied())
}

func TestInputQueueAndMissingTargets(t *testing.T) {
	f := newFixture(t)
	in := f.input(nil)

	// No player and no interactables: nothing panics, nothing changes.
	in.Enqueue(data.Command{Op: data.OpPlaceAnchor})
	in.Enqueue(data.Command{Op: data.OpRecallNearest})
	in.Enqueue(data.Command{Op: data.OpUseSink})
	in.Enqueue(data.Command{Op: data.OpEmitMirror})
	in.Enqueue(data.Command{Op: "dance"})
	in.Update(tick)
	assert.Equal(t, 0, f.anchors.Len())
	assert.Equal(t, 5, in.Applied())

	in.Enqueue(data.Command{Op: data.OpRecall, Index: 0})
	in.Update(tick)
	assert.Len(t, event.Collect[event.RecallDeclined](f.bus.Drain()), 1)
}

func TestEntitySystemUsesGameDtAndQueuesFinished(t *testing.T) {
	f := newFixture(t)
	f.state.SpawnPlayer(geom.V(0, 0))
	drone := f.state.SpawnDrone(geom.V(100, 100), world.PatrolLinear, []geom.Vec2{geom.V(100, 100), geom.V(500, 100)}, 0)
	sink := f.state.SpawnSink(geom.V(300, 300), 3, 1)

	ts := NewTimeSystem(f.frame, f.engine, f.cfg.Sim.MaxFrameDt)
	es := NewEntitySystem(f.frame, f.engine, f.state, f.debt, f.bus)
	cs := NewCleanupSystem(f.ecs, zap.NewNop())

	f.engine.Freeze()
	ts.Update(tick)
	es.Update(tick)
	assert.Equal(t, geom.V(100, 100), drone.Pos)

	f.engine.Unfreeze()
	ts.Update(tick)
	es.Update(tick)
	assert.InDelta(t, 100+world.DroneSpeed*0.1, drone.Pos.X, 1e-9)

	f.debt.Charge(2)
	sink.Use(f.debt)
	es.Update(tick)
	assert.True(t, f.ecs.PendingDestruction(sink.ID()))
	cs.Update(tick)
	_, ok := f.state.Get(sink.ID())
	assert.False(t, ok)
}

type fixedLimit int

func (l fixedLimit) ShadowLimit(float64, float64) int { return int(l) }

func TestConsequenceSpawnsUpToLimit(t *testing.T) {
	f := newFixture(t)
	f.state.SpawnPlayer(geom.V(640, 360))
	cs := NewConsequenceSystem(f.cfg.Consequence, f.debt, f.state, f.bus, fixedLimit(2), 3)

	cs.Update(tick)
	assert.Equal(t, 0, f.state.CountKind(world.KindShadow), "below the spawn debt")

	f.debt.Charge(25)
	for i := 0; i < 5; i++ {
		cs.Update(tick)
	}
	assert.Equal(t, 2, f.state.CountKind(world.KindShadow))
	assert.Len(t, event.Collect[event.ShadowSpawned](f.bus.Drain()), 2)
}

func TestContactHitsCountOncePerTouch(t *testing.T) {
	f := newFixture(t)
	p := f.state.SpawnPlayer(geom.V(100, 100))
	hunter := f.state.SpawnHunter(geom.V(105, 100), 0)
	cs := NewConsequenceSystem(f.cfg.Consequence, f.debt, f.state, f.bus, fixedLimit(0), 1)

	cs.Update(tick)
	cs.Update(tick)
	assert.Equal(t, 1, p.Hits)

	hunter.Pos = geom.V(900, 600)
	cs.Update(tick)
	hunter.Pos = geom.V(100, 100)
	cs.Update(tick)
	assert.Equal(t, 2, p.Hits)

	hits := event.Collect[event.PlayerHit](f.bus.Drain())
	require.Len(t, hits, 2)
	assert.Equal(t, "hunter", hits[0].By)
}

func TestDispatchRoutesFrameEvents(t *testing.T) {
	f := newFixture(t)
	var tiers []event.TierChanged
	event.Subscribe(f.bus, func(e event.TierChanged) { tiers = append(tiers, e) })
	d := NewDispatchSystem(f.bus)

	f.debt.Charge(7)
	d.Update(tick)
	require.Len(t, tiers, 1)
	assert.Equal(t, 2, tiers[0].New)
	assert.GreaterOrEqual(t, d.Dispatched(), uint64(1))

	d.Update(tick)
	assert.Len(t, tiers, 1, "events are routed once")
}

func TestDebtSystemAppliesMomentumDiscount(t *testing.T) {
	f := newFixture(t)
	cfg := f.cfg.Debt.Momentum
	cfg.Enabled = true
	m := temporal.NewMomentum(cfg, f.bus)
	ts := NewTimeSystem(f.frame, f.engine, f.cfg.Sim.MaxFrameDt)
	ds := NewDebtSystem(f.frame, f.engine, f.debt, m)
	frame := func() { ts.Update(tick); ds.Update(tick) }

	for i := 0; i < 100; i++ { // 10 s of flowing time
		frame()
	}
	require.InDelta(t, 10.0, m.Value(), 1e-9)

	f.engine.Freeze()
	frame()
	assert.InDelta(t, 0.1*1.5*0.5, f.debt.Current(), 1e-9, "full momentum halves accrual")
	assert.InDelta(t, 9.8, m.Value(), 1e-9, "drains while frozen")

	f.engine.Unfreeze()
	before := f.debt.Current()
	frame()
	assert.Less(t, f.debt.Current(), before, "settling the episode adds nothing back")
}
