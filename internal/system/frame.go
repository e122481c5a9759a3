package system

// Frame is the per-frame clock shared by every system. TimeSystem writes it
// at the Time phase; later phases only read it.
type Frame struct {
	Number   uint64  // frames completed before this one
	RealDt   float64 // clamped real seconds of this frame
	RealTime float64 // real seconds elapsed before this frame
}

// Now is RealTime plus RealDt. Read before the Time phase, it is the real
// time at which the coming frame starts.
func (f *Frame) Now() float64 { return f.RealTime + f.RealDt }
