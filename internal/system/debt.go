package system

import (
	"time"

	coresys "github.com/temporaldebt/core/internal/core/system"
	"github.com/temporaldebt/core/internal/temporal"
)

// DebtSystem feeds the debt manager from the time engine's state. Closed
// freeze episodes are settled before this frame's accrual so a hold that
// ends and another that starts in one frame stay separate. Momentum, when
// present, discounts this frame's accrual by its value at frame start and
// then moves. Phase 3 (Debt).
type DebtSystem struct {
	frame    *Frame
	engine   *temporal.TimeEngine
	debt     *temporal.DebtManager
	momentum *temporal.Momentum
}

func NewDebtSystem(frame *Frame, engine *temporal.TimeEngine, debt *temporal.DebtManager, momentum *temporal.Momentum) *DebtSystem {
	return &DebtSystem{frame: frame, engine: engine, debt: debt, momentum: momentum}
}

func (s *DebtSystem) Phase() coresys.Phase { return coresys.PhaseDebt }

func (s *DebtSystem) Update(_ time.Duration) {
	if d, ok := s.engine.TakeClosedEpisode(); ok {
		s.debt.SettleFreeze(d)
	}
	frozen := s.engine.Frozen()
	if s.momentum != nil {
		s.debt.SetAccrualScale(s.momentum.AccrualMultiplier())
	}
	if frozen {
		s.debt.Accrue(s.frame.RealDt)
	} else {
		s.debt.Repay(s.frame.RealDt)
	}
	if s.momentum != nil {
		s.momentum.Update(s.frame.RealDt, frozen)
	}
}
