// Package sim assembles the temporal core, the actors and the frame systems
// into one runnable simulation.
package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temporaldebt/core/internal/clock"
	"github.com/temporaldebt/core/internal/config"
	"github.com/temporaldebt/core/internal/core/ecs"
	"github.com/temporaldebt/core/internal/core/event"
	coresys "github.com/temporaldebt/core/internal/core/system"
	"github.com/temporaldebt/core/internal/data"
	"github.com/temporaldebt/core/internal/persist"
	"github.com/temporaldebt/core/internal/scripting"
	"github.com/temporaldebt/core/internal/system"
	"github.com/temporaldebt/core/internal/temporal"
	"github.com/temporaldebt/core/internal/world"
)

// Options carries the optional collaborators. Zero values disable them.
type Options struct {
	Lua    *scripting.Engine    // echo accuracy curve and shadow limit hooks
	Ledger persist.LedgerWriter // debt ledger; nil disables persistence
	RunID  uuid.UUID            // defaults to a fresh random id
	Seed   uint64               // shadow spawn placement
}

// Sim owns every piece of one run. Single goroutine.
type Sim struct {
	cfg      *config.Config
	scenario *data.Scenario
	log      *zap.Logger
	runID    uuid.UUID

	Bus      *event.Bus
	Frame    *system.Frame
	Debt     *temporal.DebtManager
	Momentum *temporal.Momentum
	Engine   *temporal.TimeEngine
	Echo     *temporal.EchoSystem
	Anchors  *temporal.AnchorSystem
	ECS      *ecs.World
	State    *world.State

	runner   *coresys.Runner
	input    *system.InputSystem
	dispatch *system.DispatchSystem
	ledger   *system.LedgerSystem
}

func New(cfg *config.Config, sc *data.Scenario, opts Options, log *zap.Logger) (*Sim, error) {
	if sc == nil {
		sc = &data.Scenario{Name: "empty"}
	}
	runID := opts.RunID
	if runID == uuid.Nil {
		runID = uuid.New()
	}

	bus := event.NewBus()
	debt, err := temporal.NewDebtManager(cfg.Debt, bus, log.Named("debt"))
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	engine := temporal.NewTimeEngine(debt, bus)

	curve := temporal.LinearAccuracy(cfg.Echo.AccuracyStep, cfg.Echo.MinAccuracy)
	if opts.Lua != nil {
		curve = opts.Lua.AccuracyCurve(curve)
	}
	echo := temporal.NewEchoSystem(cfg.Echo, debt.Tiers().Tiers(), curve)
	anchors := temporal.NewAnchorSystem(cfg.Anchor, debt, bus, log.Named("anchor"))

	ecsWorld := ecs.NewWorld()
	state := world.NewState(ecsWorld)
	frame := &system.Frame{}

	s := &Sim{
		cfg:      cfg,
		scenario: sc,
		log:      log,
		runID:    runID,
		Bus:      bus,
		Frame:    frame,
		Debt:     debt,
		Momentum: temporal.NewMomentum(cfg.Debt.Momentum, bus),
		Engine:   engine,
		Echo:     echo,
		Anchors:  anchors,
		ECS:      ecsWorld,
		State:    state,
	}
	if err := s.spawnAll(); err != nil {
		return nil, err
	}

	var limiter system.ShadowLimiter = defaultLimiter{}
	if opts.Lua != nil {
		limiter = opts.Lua
	}

	s.input = system.NewInputSystem(frame, engine, debt, anchors, state, bus, sc.Commands, log.Named("input"))
	s.dispatch = system.NewDispatchSystem(bus)
	s.ledger = system.NewLedgerSystem(frame, debt, bus, opts.Ledger, runID, cfg.Database.FlushTicks, log.Named("ledger"))

	s.runner = coresys.NewRunner()
	s.runner.Register(s.input)
	s.runner.Register(system.NewTimeSystem(frame, engine, cfg.Sim.MaxFrameDt))
	s.runner.Register(system.NewEntitySystem(frame, engine, state, debt, bus))
	s.runner.Register(system.NewDebtSystem(frame, engine, debt, s.Momentum))
	s.runner.Register(system.NewEchoSystem(engine, debt, echo, state))
	s.runner.Register(system.NewAnchorSystem(frame, anchors))
	s.runner.Register(system.NewConsequenceSystem(cfg.Consequence, debt, state, bus, limiter, opts.Seed))
	s.runner.Register(s.dispatch)
	s.runner.Register(s.ledger)
	s.runner.Register(system.NewCleanupSystem(ecsWorld, log.Named("cleanup")))

	return s, nil
}

type defaultLimiter struct{}

func (defaultLimiter) ShadowLimit(debt, spawnDebt float64) int {
	return scripting.DefaultShadowLimit(debt, spawnDebt)
}

func (s *Sim) spawnAll() error {
	s.State.SpawnPlayer(s.scenario.Player)
	cc := s.cfg.Consequence
	for i, sp := range s.scenario.Spawns {
		switch sp.Kind {
		case "drone":
			mode, ok := world.ParsePatrolMode(sp.Mode)
			if !ok {
				return fmt.Errorf("spawn %d: unknown drone mode %q", i, sp.Mode)
			}
			s.State.SpawnDrone(sp.Position, mode, sp.Waypoints, sp.Speed)
		case "hunter":
			s.State.SpawnHunter(sp.Position, sp.Speed)
		case "sink":
			s.State.SpawnSink(sp.Position, orDefault(sp.Amount, cc.SinkAmount), sp.Uses)
		case "mirror":
			s.State.SpawnMirror(sp.Position, sp.Facing)
		case "bomb":
			s.State.SpawnBomb(sp.Position, orDefault(sp.Payload, cc.BombPayload), orDefault(sp.Radius, cc.BombRadius))
		default:
			return fmt.Errorf("spawn %d: unknown kind %q", i, sp.Kind)
		}
	}
	return nil
}

func orDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

func (s *Sim) RunID() uuid.UUID             { return s.runID }
func (s *Sim) Input() *system.InputSystem   { return s.input }
func (s *Sim) Ledger() *system.LedgerSystem { return s.ledger }
func (s *Sim) Frames() uint64               { return s.runner.Frames() }
func (s *Sim) Dispatched() uint64           { return s.dispatch.Dispatched() }
func (s *Sim) Scenario() *data.Scenario     { return s.scenario }

// Step runs one frame with the given real delta.
func (s *Sim) Step(dt time.Duration) {
	s.runner.Tick(dt)
}

// StepSeconds is Step for callers that think in seconds.
func (s *Sim) StepSeconds(dt float64) {
	s.Step(time.Duration(dt * float64(time.Second)))
}

// Done reports that the run is over. A configured sim duration is a hard
// cap: commands scripted after it never fire. Without one the run lasts
// until the scenario's end and its last command. A zero end means run until
// cancelled.
func (s *Sim) Done() bool {
	now := s.Frame.Now()
	if d := s.cfg.Sim.Duration.Seconds(); d > 0 {
		return now >= d
	}
	end := s.scenario.End()
	return end > 0 && now >= end && s.input.Remaining() == 0
}

// Run drives frames from src until Done or ctx is cancelled. In realtime
// mode frames are paced by a ticker at the configured rate.
func (s *Sim) Run(ctx context.Context, src clock.Source) error {
	var tick <-chan time.Time
	if s.cfg.Sim.Mode == "realtime" {
		ticker := time.NewTicker(s.cfg.Sim.TickRate)
		defer ticker.Stop()
		tick = ticker.C
	}
	for !s.Done() {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		s.Step(src.Step())
	}
	return nil
}

// Close flushes the ledger. Call once the loop has stopped.
func (s *Sim) Close(ctx context.Context) error {
	if err := s.ledger.Flush(ctx); err != nil {
		return fmt.Errorf("final ledger flush: %w", err)
	}
	return nil
}

// Summary is the end-of-run report.
type Summary struct {
	RunID        uuid.UUID
	Frames       uint64
	RealTime     float64
	Debt         temporal.DebtStats
	Momentum     temporal.MomentumStats
	TotalFrozen  float64
	Anchors      int
	Actors       int
	PlayerHits   int
	LedgerWrites int
}

func (s *Sim) Summary() Summary {
	hits := 0
	if p := s.State.Player(); p != nil {
		hits = p.Hits
	}
	return Summary{
		RunID:        s.runID,
		Frames:       s.Frames(),
		RealTime:     s.Frame.Now(),
		Debt:         s.Debt.Stats(),
		Momentum:     s.Momentum.Stats(),
		TotalFrozen:  s.Engine.TotalFrozen(),
		Anchors:      s.Anchors.Len(),
		Actors:       s.State.Count(),
		PlayerHits:   hits,
		LedgerWrites: s.ledger.Written(),
	}
}
