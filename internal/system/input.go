package system

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/temporaldebt/core/internal/core/event"
	coresys "github.com/temporaldebt/core/internal/core/system"
	"github.com/temporaldebt/core/internal/data"
	"github.com/temporaldebt/core/internal/temporal"
	"github.com/temporaldebt/core/internal/world"
)

// InputSystem applies player commands: scripted ones once the real clock
// reaches their time, and queued ones immediately. Phase 0 (Input).
type InputSystem struct {
	frame   *Frame
	engine  *temporal.TimeEngine
	debt    *temporal.DebtManager
	anchors *temporal.AnchorSystem
	state   *world.State
	bus     *event.Bus
	log     *zap.Logger

	script  []data.Command
	next    int
	queue   []data.Command
	applied int
}

func NewInputSystem(
	frame *Frame,
	engine *temporal.TimeEngine,
	debt *temporal.DebtManager,
	anchors *temporal.AnchorSystem,
	state *world.State,
	bus *event.Bus,
	script []data.Command,
	log *zap.Logger,
) *InputSystem {
	return &InputSystem{
		frame:   frame,
		engine:  engine,
		debt:    debt,
		anchors: anchors,
		state:   state,
		bus:     bus,
		script:  script,
		log:     log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

// Enqueue schedules a command for the next frame regardless of its time.
func (s *InputSystem) Enqueue(cmd data.Command) {
	s.queue = append(s.queue, cmd)
}

// Remaining reports scripted commands not yet applied.
func (s *InputSystem) Remaining() int { return len(s.script) - s.next }

// Applied counts every command applied so far.
func (s *InputSystem) Applied() int { return s.applied }

func (s *InputSystem) Update(_ time.Duration) {
	now := s.frame.Now()
	for s.next < len(s.script) && s.script[s.next].At <= now {
		s.apply(s.script[s.next])
		s.next++
	}
	for _, cmd := range s.queue {
		s.apply(cmd)
	}
	s.queue = s.queue[:0]
}

func (s *InputSystem) apply(cmd data.Command) {
	s.applied++
	player := s.state.Player()

	switch cmd.Op {
	case data.OpFreeze:
		s.engine.Freeze()
	case data.OpUnfreeze:
		s.engine.Unfreeze()
	case data.OpPlaceAnchor:
		if player == nil {
			return
		}
		s.anchors.Place(player.Pos, s.state.Snapshot(s.debt.Current()))
	case data.OpRecall:
		s.recall(cmd, func() error {
			_, err := s.anchors.Recall(cmd.Index, teleporter(player))
			return err
		})
	case data.OpRecallNearest:
		if player == nil {
			return
		}
		s.recall(cmd, func() error {
			_, err := s.anchors.RecallNearest(player.Pos, player)
			return err
		})
	case data.OpMove:
		if player != nil {
			player.MoveTo(cmd.Target)
		}
	case data.OpUseSink:
		if sink, ok := s.nearest(world.KindSink).(*world.DebtSink); ok {
			absorbed := sink.Use(s.debt)
			s.log.Debug("debt sink used", zap.Float64("absorbed", absorbed), zap.Int("uses_left", sink.Uses))
		}
	case data.OpUseMirror:
		if m, ok := s.nearest(world.KindMirror).(*world.DebtMirror); ok {
			m.Deposit(s.debt, cmd.Seconds)
		}
	case data.OpEmitMirror:
		if m, ok := s.nearest(world.KindMirror).(*world.DebtMirror); ok {
			m.Emit(s.bus)
		}
	case data.OpClearAnchors:
		s.anchors.ClearAll()
	default:
		s.log.Warn("unknown command", zap.String("op", string(cmd.Op)))
	}
}

func (s *InputSystem) recall(cmd data.Command, do func() error) {
	err := do()
	switch {
	case err == nil:
	case errors.Is(err, temporal.ErrInvalidIndex):
		s.log.Debug("recall declined", zap.String("op", string(cmd.Op)), zap.Int("index", cmd.Index))
	default:
		s.log.Error("recall failed", zap.Error(err))
	}
}

func (s *InputSystem) nearest(k world.Kind) world.Actor {
	player := s.state.Player()
	if player == nil {
		return nil
	}
	a, ok := s.state.Nearest(k, player.Pos)
	if !ok {
		return nil
	}
	return a
}

// teleporter keeps a nil player from becoming a non-nil interface.
func teleporter(p *world.Player) temporal.Teleporter {
	if p == nil {
		return nil
	}
	return p
}
