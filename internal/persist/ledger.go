package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Ledger entry kinds.
const (
	KindFreeze       = "freeze"
	KindTier         = "tier"
	KindBankrupt     = "bankrupt"
	KindRecovered    = "recovered"
	KindRecall       = "recall"
	KindAbsorb       = "absorb"
	KindBomb         = "bomb"
	KindRecallDenied = "recall_declined"
)

// LedgerEntry is one debt-relevant happening in a run.
type LedgerEntry struct {
	RunID     uuid.UUID
	Frame     uint64
	RealTime  float64
	Kind      string
	Amount    float64
	Debt      float64
	Tier      int
	CreatedAt time.Time
}

// LedgerWriter persists batches of ledger entries.
type LedgerWriter interface {
	WriteBatch(ctx context.Context, entries []LedgerEntry) error
}

type LedgerRepo struct {
	db *DB
}

func NewLedgerRepo(db *DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

var ledgerColumns = []string{"run_id", "frame", "real_time", "kind", "amount", "debt", "tier", "created_at"}

// WriteBatch copies a batch into debt_ledger inside one transaction. Either
// the whole batch lands or none of it does.
func (r *LedgerRepo) WriteBatch(ctx context.Context, entries []LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ledger begin: %w", err)
	}
	defer tx.Rollback(ctx)

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"debt_ledger"}, ledgerColumns,
		pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
			e := entries[i]
			return []any{e.RunID, int64(e.Frame), e.RealTime, e.Kind, e.Amount, e.Debt, int16(e.Tier), e.CreatedAt}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("ledger copy: %w", err)
	}
	if int(n) != len(entries) {
		return fmt.Errorf("ledger copy: wrote %d of %d rows", n, len(entries))
	}
	return tx.Commit(ctx)
}

// RunSummary aggregates one run for reports.
type RunSummary struct {
	Entries   int64
	PeakDebt  float64
	Bankrupts int64
}

func (r *LedgerRepo) Summary(ctx context.Context, runID uuid.UUID) (RunSummary, error) {
	var s RunSummary
	err := r.db.Pool.QueryRow(ctx,
		`SELECT count(*), coalesce(max(debt), 0),
		        count(*) FILTER (WHERE kind = $2)
		   FROM debt_ledger WHERE run_id = $1`,
		runID, KindBankrupt,
	).Scan(&s.Entries, &s.PeakDebt, &s.Bankrupts)
	if err != nil {
		return RunSummary{}, fmt.Errorf("ledger summary: %w", err)
	}
	return s, nil
}
