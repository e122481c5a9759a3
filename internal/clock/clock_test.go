package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWallMeasuresBetweenSteps(t *testing.T) {
	fake := NewFake(time.Unix(1000, 0))
	w := NewWall(fake)

	assert.Equal(t, time.Duration(0), w.Step())
	fake.Advance(16 * time.Millisecond)
	assert.Equal(t, 16*time.Millisecond, w.Step())
	fake.Advance(2 * time.Second)
	assert.Equal(t, 2*time.Second, w.Step())
}

func TestFixedStep(t *testing.T) {
	f := Fixed(20 * time.Millisecond)
	assert.Equal(t, 20*time.Millisecond, f.Step())
	assert.Equal(t, 20*time.Millisecond, f.Step())
}

func TestClampSeconds(t *testing.T) {
	tests := []struct {
		d    time.Duration
		max  float64
		want float64
	}{
		{16 * time.Millisecond, 0.1, 0.016},
		{2 * time.Second, 0.1, 0.1},
		{-time.Second, 0.1, 0},
		{2 * time.Second, 0, 2},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, ClampSeconds(tt.d, tt.max), 1e-12, "%s", tt.d)
	}
}
