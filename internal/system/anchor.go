package system

import (
	"time"

	coresys "github.com/temporaldebt/core/internal/core/system"
	"github.com/temporaldebt/core/internal/temporal"
)

// AnchorSystem decays anchors on real time, frozen or not.
// Phase 5 (Anchor).
type AnchorSystem struct {
	frame   *Frame
	anchors *temporal.AnchorSystem
}

func NewAnchorSystem(frame *Frame, anchors *temporal.AnchorSystem) *AnchorSystem {
	return &AnchorSystem{frame: frame, anchors: anchors}
}

func (s *AnchorSystem) Phase() coresys.Phase { return coresys.PhaseAnchor }

func (s *AnchorSystem) Update(_ time.Duration) {
	s.anchors.Update(s.frame.RealDt)
}
