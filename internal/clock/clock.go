// Package clock measures real frame time. The simulation never reads the wall
// clock directly so tests and fixed-step replays can drive it.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// Real uses the standard time package.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Fake is a manually advanced clock for tests.
type Fake struct {
	current time.Time
}

func NewFake(start time.Time) *Fake {
	return &Fake{current: start}
}

func (f *Fake) Now() time.Time          { return f.current }
func (f *Fake) Advance(d time.Duration) { f.current = f.current.Add(d) }

// Source yields the real delta of each frame.
type Source interface {
	Step() time.Duration
}

// Fixed returns the same step every frame: headless runs and replays.
type Fixed time.Duration

func (f Fixed) Step() time.Duration { return time.Duration(f) }

// Wall measures elapsed wall time between successive steps. The first step
// returns 0.
type Wall struct {
	clock Clock
	last  time.Time
}

func NewWall(c Clock) *Wall {
	return &Wall{clock: c}
}

func (w *Wall) Step() time.Duration {
	now := w.clock.Now()
	if w.last.IsZero() {
		w.last = now
		return 0
	}
	d := now.Sub(w.last)
	w.last = now
	if d < 0 {
		return 0
	}
	return d
}

// ClampSeconds converts a real delta to seconds capped at maxSeconds, so one
// stalled frame cannot dump a huge delta into the simulation.
func ClampSeconds(d time.Duration, maxSeconds float64) float64 {
	s := d.Seconds()
	if s < 0 {
		return 0
	}
	if maxSeconds > 0 && s > maxSeconds {
		return maxSeconds
	}
	return s
}
