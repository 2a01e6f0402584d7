package textfx

import (
	"fmt"

	"github.com/ivlev/promo2video/internal/curve"
)

// ChunkState is how one chunk looks at a frame. Offsets are in pixels,
// Rotation in radians.
type ChunkState struct {
	Visible  bool
	Opacity  float64
	Scale    float64
	OffsetX  float64
	OffsetY  float64
	Rotation float64
}

// Rest is a fully shown chunk in place.
var Rest = ChunkState{Visible: true, Opacity: 1, Scale: 1}

// lerpState moves from a towards b by t. Opacity is clamped, everything
// else may overshoot with the easing.
func lerpState(a, b ChunkState, t float64) ChunkState {
	return ChunkState{
		Visible:  true,
		Opacity:  curve.Clamp01(curve.Lerp(a.Opacity, b.Opacity, t)),
		Scale:    curve.Lerp(a.Scale, b.Scale, t),
		OffsetX:  curve.Lerp(a.OffsetX, b.OffsetX, t),
		OffsetY:  curve.Lerp(a.OffsetY, b.OffsetY, t),
		Rotation: curve.Lerp(a.Rotation, b.Rotation, t),
	}
}

// Animator yields the state of chunk k at a scene-local frame.
type Animator interface {
	State(chunk int, frame float64) ChunkState
}

// Static shows every chunk at rest.
type Static struct{}

func (Static) State(int, float64) ChunkState { return Rest }

// Stagger offsets one entrance curve per chunk: chunk k starts at
// Delay + k*Step and takes Duration frames.
type Stagger struct {
	Delay    float64
	Step     float64
	Duration float64
	progress *curve.Curve
}

// NewStagger builds the shared progress curve once. A nil easing is
// linear.
func NewStagger(delay, step, duration float64, easing curve.Easing) (*Stagger, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("stagger duration must be positive, got %g", duration)
	}
	if step < 0 || delay < 0 {
		return nil, fmt.Errorf("stagger delay and step must not be negative")
	}
	c, err := curve.NewCurve([]float64{0, duration}, []float64{0, 1}, curve.Options{Easing: easing})
	if err != nil {
		return nil, err
	}
	return &Stagger{Delay: delay, Step: step, Duration: duration, progress: c}, nil
}

// Start is the frame chunk k begins to move.
func (s *Stagger) Start(chunk int) float64 {
	return s.Delay + float64(chunk)*s.Step
}

// Progress is the eased entrance progress of chunk k. Easings with
// overshoot may leave [0, 1] while the chunk is moving.
func (s *Stagger) Progress(chunk int, frame float64) float64 {
	return s.progress.At(frame - s.Start(chunk))
}

// End is the frame at which the last of n chunks has arrived.
func (s *Stagger) End(n int) float64 {
	if n == 0 {
		return s.Delay
	}
	return s.Start(n-1) + s.Duration
}

// Stream brings every chunk in from From to rest on its staggered clock.
type Stream struct {
	*Stagger
	From ChunkState
}

func (s *Stream) State(chunk int, frame float64) ChunkState {
	if frame < s.Start(chunk) {
		return ChunkState{Scale: s.From.Scale}
	}
	return lerpState(s.From, Rest, s.Progress(chunk, frame))
}

// FadeUp is the common entrance: transparent and dy pixels lower.
func FadeUp(dy float64) ChunkState {
	return ChunkState{Opacity: 0, Scale: 1, OffsetY: dy}
}
