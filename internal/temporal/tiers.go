package temporal

import (
	"fmt"
	"sort"

	"github.com/temporaldebt/core/internal/config"
)

// TierTable maps a debt balance to its tier and the tier to its repayment
// rate and world speed. Lower bounds are inclusive: with thresholds
// [3 6 10 15], a debt of exactly 6 is tier 2.
type TierTable struct {
	thresholds []float64
	interest   []float64
	speed      []float64
	names      []string
}

// NewTierTable copies the configured table. The shape is a precondition
// (config.Validate enforces it), so a mismatch here is reported as an error
// rather than patched.
func NewTierTable(cfg config.DebtConfig) (TierTable, error) {
	n := len(cfg.InterestRates)
	if n == 0 || len(cfg.SpeedMultipliers) != n || len(cfg.Thresholds) != n-1 {
		return TierTable{}, fmt.Errorf("tier table: %d rates, %d speeds, %d thresholds",
			n, len(cfg.SpeedMultipliers), len(cfg.Thresholds))
	}
	if !sort.Float64sAreSorted(cfg.Thresholds) {
		return TierTable{}, fmt.Errorf("tier table: thresholds not ascending: %v", cfg.Thresholds)
	}
	names := cfg.TierNames
	if len(names) != n {
		names = make([]string, n)
		for i := range names {
			names[i] = fmt.Sprintf("tier%d", i)
		}
	}
	return TierTable{
		thresholds: append([]float64(nil), cfg.Thresholds...),
		interest:   append([]float64(nil), cfg.InterestRates...),
		speed:      append([]float64(nil), cfg.SpeedMultipliers...),
		names:      append([]string(nil), names...),
	}, nil
}

// TierFor is a pure function of debt: no hysteresis.
func (t TierTable) TierFor(debt float64) int {
	// number of thresholds <= debt
	return sort.Search(len(t.thresholds), func(i int) bool { return t.thresholds[i] > debt })
}

func (t TierTable) Tiers() int                { return len(t.interest) }
func (t TierTable) Interest(tier int) float64 { return t.interest[tier] }
func (t TierTable) Speed(tier int) float64    { return t.speed[tier] }
func (t TierTable) Name(tier int) string      { return t.names[tier] }
func (t TierTable) LowerBound(tier int) float64 {
	if tier == 0 {
		return 0
	}
	return t.thresholds[tier-1]
}
