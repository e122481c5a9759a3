package system

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temporaldebt/core/internal/core/event"
	coresys "github.com/temporaldebt/core/internal/core/system"
	"github.com/temporaldebt/core/internal/persist"
	"github.com/temporaldebt/core/internal/temporal"
)

const (
	ledgerFlushTimeout = 5 * time.Second
	ledgerMaxPending   = 10000
)

// LedgerSystem records debt-relevant events and writes them in batches every
// flushEvery frames. A nil writer disables it. Phase 8 (Persist).
type LedgerSystem struct {
	frame     *Frame
	debt      *temporal.DebtManager
	writer    persist.LedgerWriter
	runID     uuid.UUID
	log       *zap.Logger
	tickCount int
	interval  int // flush every N frames

	pending []persist.LedgerEntry
	written int
	dropped int
}

func NewLedgerSystem(
	frame *Frame,
	debt *temporal.DebtManager,
	bus *event.Bus,
	writer persist.LedgerWriter,
	runID uuid.UUID,
	flushEvery int,
	log *zap.Logger,
) *LedgerSystem {
	s := &LedgerSystem{
		frame:    frame,
		debt:     debt,
		writer:   writer,
		runID:    runID,
		log:      log,
		interval: max(1, flushEvery),
	}
	if writer != nil {
		s.subscribe(bus)
	}
	return s
}

func (s *LedgerSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *LedgerSystem) Pending() int { return len(s.pending) }
func (s *LedgerSystem) Written() int { return s.written }

func (s *LedgerSystem) subscribe(bus *event.Bus) {
	event.Subscribe(bus, func(e event.TimeUnfrozen) { s.record(persist.KindFreeze, e.Duration) })
	event.Subscribe(bus, func(e event.TierChanged) { s.record(persist.KindTier, float64(e.New-e.Old)) })
	event.Subscribe(bus, func(e event.BankruptcyStarted) { s.record(persist.KindBankrupt, e.Debt) })
	event.Subscribe(bus, func(event.BankruptcyEnded) { s.record(persist.KindRecovered, 0) })
	event.Subscribe(bus, func(e event.AnchorRecalled) { s.record(persist.KindRecall, e.Cost) })
	event.Subscribe(bus, func(event.RecallDeclined) { s.record(persist.KindRecallDenied, 0) })
	event.Subscribe(bus, func(e event.DebtAbsorbed) { s.record(persist.KindAbsorb, e.Amount) })
	event.Subscribe(bus, func(e event.BombDetonated) {
		if e.HitPlayer {
			s.record(persist.KindBomb, e.Payload)
		}
	})
}

func (s *LedgerSystem) record(kind string, amount float64) {
	if len(s.pending) >= ledgerMaxPending {
		s.pending = s.pending[1:]
		s.dropped++
	}
	s.pending = append(s.pending, persist.LedgerEntry{
		RunID:     s.runID,
		Frame:     s.frame.Number,
		RealTime:  s.frame.Now(),
		Kind:      kind,
		Amount:    amount,
		Debt:      s.debt.Current(),
		Tier:      s.debt.Tier(),
		CreatedAt: time.Now().UTC(),
	})
}

func (s *LedgerSystem) Update(_ time.Duration) {
	if s.writer == nil {
		return
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	ctx, cancel := context.WithTimeout(context.Background(), ledgerFlushTimeout)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		s.log.Warn("ledger flush failed, retrying next batch",
			zap.Int("pending", len(s.pending)),
			zap.Error(err),
		)
	}
}

// Flush writes everything pending. On failure the entries stay queued.
func (s *LedgerSystem) Flush(ctx context.Context) error {
	if s.writer == nil || len(s.pending) == 0 {
		return nil
	}
	if err := s.writer.WriteBatch(ctx, s.pending); err != nil {
		return err
	}
	s.written += len(s.pending)
	if s.dropped > 0 {
		s.log.Warn("ledger entries dropped while the database was unavailable", zap.Int("dropped", s.dropped))
		s.dropped = 0
	}
	s.pending = make([]persist.LedgerEntry, 0, cap(s.pending))
	return nil
}
