package temporal

import (
	"iter"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/temporaldebt/core/internal/config"
	"github.com/temporaldebt/core/internal/core/ecs"
	"github.com/temporaldebt/core/internal/geom"
)

// EchoFrame is one predicted future position.
type EchoFrame struct {
	Position  geom.Vec2
	Timestamp float64 // seconds ahead, in (0, duration]
	Alpha     float64 // 0..1
}

// AccuracyCurve maps a debt tier to prediction accuracy.
type AccuracyCurve func(tier int) float64

// LinearAccuracy loses step per tier down to a floor.
func LinearAccuracy(step, floor float64) AccuracyCurve {
	return func(tier int) float64 {
		return math.Max(floor, 1-float64(tier)*step)
	}
}

// EchoSystem predicts where time-affected entities will be once time resumes.
// Paths are rebuilt from scratch every tick while active and thrown away on
// deactivation. Each path holds at most MaxFrames samples no matter how far or
// fast an entity moves, so a tick costs O(entities * MaxFrames).
type EchoSystem struct {
	duration  float64
	interval  float64
	samples   int
	baseAlpha float64
	fade      float64
	maxJitter float64

	accuracyByTier []float64
	accuracy       float64

	active bool
	trails map[ecs.EntityID][]EchoFrame
}

// NewEchoSystem samples the curve once per tier. The table is clamped into
// [floor, 1] and made non-increasing so reliability never improves as debt
// rises, whatever the curve returns.
func NewEchoSystem(cfg config.EchoConfig, tiers int, curve AccuracyCurve) *EchoSystem {
	if curve == nil {
		curve = LinearAccuracy(cfg.AccuracyStep, cfg.MinAccuracy)
	}
	floor := cfg.MinAccuracy
	if floor <= 0 {
		floor = 0.01
	}
	table := make([]float64, tiers)
	prev := 1.0
	for tier := range table {
		a := curve(tier)
		if math.IsNaN(a) || a < floor {
			a = floor
		}
		a = math.Min(a, prev)
		table[tier] = a
		prev = a
	}
	s := &EchoSystem{
		duration:       cfg.PredictionDuration,
		interval:       cfg.Interval,
		samples:        sampleCount(cfg.PredictionDuration, cfg.Interval),
		baseAlpha:      clamp01(cfg.BaseAlpha),
		fade:           clamp01(cfg.FadeRate),
		maxJitter:      math.Max(0, cfg.MaxJitter),
		accuracyByTier: table,
		accuracy:       1,
		trails:         make(map[ecs.EntityID][]EchoFrame),
	}
	if len(table) > 0 {
		s.accuracy = table[0]
	}
	return s
}

// sampleCount is the number of whole intervals that fit in the prediction
// window. The epsilon keeps exact multiples such as 3.0/0.1 from losing a
// sample to float error.
func sampleCount(duration, interval float64) int {
	if interval <= 0 || duration <= 0 {
		return 0
	}
	return int(math.Floor(duration/interval + 1e-9))
}

func (s *EchoSystem) Active() bool      { return s.active }
func (s *EchoSystem) Accuracy() float64 { return s.accuracy }
func (s *EchoSystem) MaxFrames() int    { return s.samples }
func (s *EchoSystem) Tracked() int      { return len(s.trails) }
func (s *EchoSystem) AccuracyTable() []float64 {
	return slices.Clone(s.accuracyByTier)
}

func (s *EchoSystem) Activate() {
	s.active = true
}

// Deactivate drops every path; echoes never outlive a freeze.
func (s *EchoSystem) Deactivate() {
	s.active = false
	clear(s.trails)
}

// SetAccuracy selects accuracy for a debt tier. Out-of-range tiers clamp to
// the table ends.
func (s *EchoSystem) SetAccuracy(tier int) {
	if len(s.accuracyByTier) == 0 {
		return
	}
	tier = max(0, min(tier, len(s.accuracyByTier)-1))
	s.accuracy = s.accuracyByTier[tier]
}

// PredictPath lazily samples e at fixed intervals. The sequence captures the
// accuracy at call time, and jitter comes from a source seeded by entity and
// sample index, so ranging over it twice yields the same frames.
func (s *EchoSystem) PredictPath(e Entity) iter.Seq[EchoFrame] {
	acc := s.accuracy
	n, interval, duration := s.samples, s.interval, s.duration
	base, fade, maxJitter := s.baseAlpha, s.fade, s.maxJitter
	id := uint64(e.ID())

	return func(yield func(EchoFrame) bool) {
		weight := base
		for i := 1; i <= n; i++ {
			t := math.Min(float64(i)*interval, duration)
			u := t / duration
			pos := e.PredictPosition(t)
			if j := maxJitter * (1 - acc) * u; j > 0 {
				rng := rand.New(rand.NewPCG(id, uint64(i)))
				pos = pos.Add(geom.V((rng.Float64()*2-1)*j, (rng.Float64()*2-1)*j))
			}
			f := EchoFrame{
				Position:  pos,
				Timestamp: t,
				Alpha:     clamp01(weight * (1 - (1-acc)*u)),
			}
			if !yield(f) {
				return
			}
			weight *= fade
		}
	}
}

// Update rebuilds paths for time-affected entities. Immune entities keep
// moving during a freeze, so predicting them is meaningless and any stale
// path for them is dropped along with paths of entities that left the world.
func (s *EchoSystem) Update(entities []Entity) {
	if !s.active {
		return
	}
	seen := make(map[ecs.EntityID]struct{}, len(entities))
	for _, e := range entities {
		if !e.AffectedByTime() {
			continue
		}
		seen[e.ID()] = struct{}{}
		s.trails[e.ID()] = slices.Collect(s.PredictPath(e))
	}
	for id := range s.trails {
		if _, ok := seen[id]; !ok {
			delete(s.trails, id)
		}
	}
}

// Trail returns the current path for an entity, oldest prediction first.
func (s *EchoSystem) Trail(id ecs.EntityID) []EchoFrame {
	return s.trails[id]
}

// Trails iterates every tracked path.
func (s *EchoSystem) Trails() iter.Seq2[ecs.EntityID, []EchoFrame] {
	return func(yield func(ecs.EntityID, []EchoFrame) bool) {
		for id, tr := range s.trails {
			if !yield(id, tr) {
				return
			}
		}
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
