package temporal

import (
	"fmt"
	"math"

	"github.com/temporaldebt/core/internal/config"
	"github.com/temporaldebt/core/internal/core/event"
	"go.uber.org/zap"
)

// settleEpsilon absorbs float noise when reconciling a freeze episode.
const settleEpsilon = 1e-9

// DebtStats is the read-only view the HUD and the ledger consume.
type DebtStats struct {
	Current       float64
	Tier          int
	TierName      string
	Bankrupt      bool
	TotalAccrued  float64
	TotalRepaid   float64
	Peak          float64
	TimesBankrupt int
	InterestRate  float64
	WorldSpeed    float64
	AccrualScale  float64
}

// DebtManager owns the debt balance. It never calls into the time engine:
// the frame pipeline hands it real elapsed seconds and closed freeze episodes.
//
// Invariants: current >= 0 after every call; tier == tiers.TierFor(current);
// totalAccrued never decreases; bankrupt latches above the threshold and is
// cleared only by RecoverFromBankruptcy, which requires current == 0.
type DebtManager struct {
	tiers               TierTable
	accrualRate         float64
	bankruptcyThreshold float64
	bankruptSpeed       float64

	current        float64
	tier           int
	bankrupt       bool
	totalAccrued   float64
	totalRepaid    float64
	peak           float64
	timesBankrupt  int
	episodeSeconds float64 // frozen seconds already accrued this episode
	accrualScale   float64 // momentum discount, 1 = none

	bus *event.Bus
	log *zap.Logger
}

func NewDebtManager(cfg config.DebtConfig, bus *event.Bus, log *zap.Logger) (*DebtManager, error) {
	tiers, err := NewTierTable(cfg)
	if err != nil {
		return nil, fmt.Errorf("debt manager: %w", err)
	}
	return &DebtManager{
		tiers:               tiers,
		accrualRate:         cfg.AccrualRate,
		bankruptcyThreshold: cfg.BankruptcyThreshold,
		bankruptSpeed:       cfg.BankruptSpeed,
		accrualScale:        1,
		bus:                 bus,
		log:                 log,
	}, nil
}

func (d *DebtManager) Current() float64      { return d.current }
func (d *DebtManager) Tier() int             { return d.tier }
func (d *DebtManager) TierName() string      { return d.tiers.Name(d.tier) }
func (d *DebtManager) Bankrupt() bool        { return d.bankrupt }
func (d *DebtManager) TotalAccrued() float64 { return d.totalAccrued }
func (d *DebtManager) Tiers() TierTable      { return d.tiers }
func (d *DebtManager) AccrualRate() float64  { return d.accrualRate }

// InterestRate is the repayment rate of the current tier.
func (d *DebtManager) InterestRate() float64 { return d.tiers.Interest(d.tier) }

// Fraction is debt relative to the bankruptcy threshold; may exceed 1.
func (d *DebtManager) Fraction() float64 { return d.current / d.bankruptcyThreshold }

// WorldSpeedMultiplier is a pure lookup, overridden while bankrupt.
func (d *DebtManager) WorldSpeedMultiplier() float64 {
	if d.bankrupt {
		return d.bankruptSpeed
	}
	return d.tiers.Speed(d.tier)
}

// AccrualScale is the discount applied to freeze accrual.
func (d *DebtManager) AccrualScale() float64 { return d.accrualScale }

// SetAccrualScale discounts freeze accrual. Values are clamped into [0,1];
// anything else resets to 1.
func (d *DebtManager) SetAccrualScale(s float64) {
	if math.IsNaN(s) {
		s = 1
	}
	d.accrualScale = clamp01(s)
}

// Accrue charges real frozen seconds at the accrual rate and the current
// accrual scale.
func (d *DebtManager) Accrue(realSeconds float64) {
	realSeconds = d.nonNegative("accrue", realSeconds)
	if realSeconds == 0 {
		return
	}
	d.episodeSeconds += realSeconds
	d.add(realSeconds * d.accrualRate * d.accrualScale)
}

// Charge adds debt verbatim (anchor recall, bomb payloads).
func (d *DebtManager) Charge(amount float64) {
	amount = d.nonNegative("charge", amount)
	if amount == 0 {
		return
	}
	d.add(amount)
}

// SettleFreeze reconciles a closed freeze episode of the given real duration
// against the seconds accrued frame by frame. Only unaccrued seconds are
// charged, so a fully accrued episode costs nothing extra.
func (d *DebtManager) SettleFreeze(duration float64) {
	duration = d.nonNegative("settle", duration)
	short := (duration - d.episodeSeconds) * d.accrualRate * d.accrualScale
	d.episodeSeconds = 0
	if short > settleEpsilon {
		d.log.Debug("freeze episode under-accrued", zap.Float64("shortfall", short))
		d.add(short)
	}
}

// Repay burns debt down at the current tier's interest rate, clamped at 0.
func (d *DebtManager) Repay(realSeconds float64) {
	realSeconds = d.nonNegative("repay", realSeconds)
	if realSeconds == 0 || d.current <= 0 {
		return
	}
	paid := realSeconds * d.InterestRate()
	if paid > d.current {
		paid = d.current
	}
	d.current -= paid
	if d.current < 0 {
		d.current = 0
	}
	d.totalRepaid += paid
	d.afterDecrease(-paid)
}

// Absorb removes debt from a sink. Lifetime accrual is untouched.
// Returns the amount actually removed.
func (d *DebtManager) Absorb(amount float64) float64 {
	amount = d.nonNegative("absorb", amount)
	if amount > d.current {
		amount = d.current
	}
	if amount == 0 {
		return 0
	}
	d.current -= amount
	event.Emit(d.bus, event.DebtAbsorbed{Amount: amount, Remaining: d.current})
	d.afterDecrease(-amount)
	return amount
}

// TriggerBankruptcy latches the bankrupt state. Idempotent.
func (d *DebtManager) TriggerBankruptcy() {
	if d.bankrupt {
		return
	}
	d.bankrupt = true
	d.timesBankrupt++
	d.log.Warn("temporal bankruptcy",
		zap.Float64("debt", d.current),
		zap.Int("times", d.timesBankrupt),
	)
	event.Emit(d.bus, event.BankruptcyStarted{Debt: d.current, Times: d.timesBankrupt})
}

// RecoverFromBankruptcy clears the latch once the debt is fully repaid.
// It refuses while any debt remains, which keeps the state from flickering
// around the threshold.
func (d *DebtManager) RecoverFromBankruptcy() bool {
	if !d.bankrupt || d.current > 0 {
		return false
	}
	d.bankrupt = false
	d.log.Info("bankruptcy cleared")
	event.Emit(d.bus, event.BankruptcyEnded{})
	return true
}

// Reset zeroes the balance for a level restart. Lifetime stats survive.
func (d *DebtManager) Reset() {
	wasBankrupt := d.bankrupt
	delta := -d.current
	d.current = 0
	d.episodeSeconds = 0
	if wasBankrupt {
		d.RecoverFromBankruptcy()
	}
	d.retier()
	event.Emit(d.bus, event.DebtChanged{Value: 0, Delta: delta})
}

func (d *DebtManager) Stats() DebtStats {
	return DebtStats{
		Current:       d.current,
		Tier:          d.tier,
		TierName:      d.TierName(),
		Bankrupt:      d.bankrupt,
		TotalAccrued:  d.totalAccrued,
		TotalRepaid:   d.totalRepaid,
		Peak:          d.peak,
		TimesBankrupt: d.timesBankrupt,
		InterestRate:  d.InterestRate(),
		WorldSpeed:    d.WorldSpeedMultiplier(),
		AccrualScale:  d.accrualScale,
	}
}

func (d *DebtManager) add(amount float64) {
	d.current += amount
	d.totalAccrued += amount
	if d.current > d.peak {
		d.peak = d.current
	}
	d.retier()
	if d.current > d.bankruptcyThreshold {
		d.TriggerBankruptcy()
	}
	event.Emit(d.bus, event.DebtChanged{Value: d.current, Delta: amount})
}

func (d *DebtManager) afterDecrease(delta float64) {
	d.retier()
	if d.current == 0 {
		d.RecoverFromBankruptcy()
	}
	event.Emit(d.bus, event.DebtChanged{Value: d.current, Delta: delta})
}

func (d *DebtManager) retier() {
	next := d.tiers.TierFor(d.current)
	if next == d.tier {
		return
	}
	prev := d.tier
	d.tier = next
	event.Emit(d.bus, event.TierChanged{Old: prev, New: next})
}

// nonNegative clamps a contract violation (negative, NaN or infinite) to
// zero and logs it.
func (d *DebtManager) nonNegative(op string, v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		d.log.Warn("invalid debt amount clamped",
			zap.String("op", op),
			zap.Float64("amount", v),
		)
		return 0
	}
	return v
}
