// Package transition blends the tail of one scene into the head of the
// next over a fixed window of frames.
package transition

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/ivlev/promo2video/internal/curve"
	"github.com/ivlev/promo2video/internal/renderer"
)

var (
	// ErrUnknownPresentation reports a presentation name missing from the
	// registry.
	ErrUnknownPresentation = errors.New("transition: unknown presentation")
	// ErrUnknownTiming reports a timing name missing from the registry.
	ErrUnknownTiming = errors.New("transition: unknown timing")
)

// Phase of a frame relative to a transition window.
type Phase int

const (
	Pre Phase = iota
	Active
	Post
)

func (p Phase) String() string {
	switch p {
	case Pre:
		return "pre"
	case Active:
		return "active"
	case Post:
		return "post"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// PhaseAt places frame against the window [start, start+duration). Inside
// it the linear progress is (frame-start)/duration.
func PhaseAt(frame, windowStart, duration int) (Phase, float64) {
	switch {
	case frame < windowStart:
		return Pre, 0
	case frame >= windowStart+duration:
		return Post, 1
	}
	return Active, float64(frame-windowStart) / float64(duration)
}

// timingBuilder makes the progress track for a window of overlap frames.
type timingBuilder func(overlap int, fps float64) (curve.Track, error)

func eased(e curve.Easing) timingBuilder {
	return func(overlap int, _ float64) (curve.Track, error) {
		return curve.NewCurve([]float64{0, float64(overlap)}, []float64{0, 1}, curve.Options{Easing: e})
	}
}

var timings = map[string]timingBuilder{
	"linear":   eased(nil),
	"smooth":   eased(curve.InOut(curve.Cubic)),
	"snappy":   eased(curve.Bezier(0.2, 0.9, 0.1, 1)),
	"ease-out": eased(curve.Out(curve.Cubic)),
	"bouncy": func(overlap int, fps float64) (curve.Track, error) {
		return curve.NewSpring(fps, curve.SpringConfig{Mass: 1, Stiffness: 100, Damping: 10}, float64(overlap))
	},
}

// Timings lists the registered timing names.
func Timings() []string { return keys(timings) }

// NewTiming builds a named timing for a window of overlap frames.
func NewTiming(name string, overlap int, fps float64) (curve.Track, error) {
	build, ok := timings[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTiming, name)
	}
	if overlap <= 0 {
		return nil, fmt.Errorf("transition overlap must be positive, got %d", overlap)
	}
	return build(overlap, fps)
}

// Transition is a presentation driven by a timing over Overlap frames. It
// is immutable.
type Transition struct {
	Presentation string
	Timing       string
	Overlap      int
	present      Presentation
	progress     curve.Track
}

// New validates the names and the overlap.
func New(presentation, timing string, overlap int, fps float64) (*Transition, error) {
	p, ok := Lookup(presentation)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPresentation, presentation)
	}
	tr, err := NewTiming(timing, overlap, fps)
	if err != nil {
		return nil, err
	}
	return &Transition{
		Presentation: presentation,
		Timing:       timing,
		Overlap:      overlap,
		present:      p,
		progress:     tr,
	}, nil
}

// Validate reports whether t is usable in a timeline. Transitions made
// outside New carry no presentation or timing.
func (t *Transition) Validate() error {
	switch {
	case t == nil:
		return errors.New("transition is nil")
	case t.Overlap <= 0:
		return fmt.Errorf("transition %q: overlap must be positive, got %d", t.Presentation, t.Overlap)
	case t.present == nil || t.progress == nil:
		return fmt.Errorf("transition %q: not built with New", t.Presentation)
	}
	return nil
}

// Progress is the timed progress at a frame offset inside the window.
func (t *Transition) Progress(frameInWindow int) float64 {
	return t.progress.At(float64(frameInWindow))
}

// Blend mixes the outgoing and incoming frames into a new pooled frame.
// Progress at or below 0 yields out exactly, at or above 1 yields in.
func (t *Transition) Blend(out, in *image.RGBA, progress float64) *image.RGBA {
	dst := renderer.NewFrame(out.Rect.Dx(), out.Rect.Dy())
	switch {
	case progress <= 0:
		copy(dst.Pix, out.Pix)
	case progress >= 1:
		copy(dst.Pix, in.Pix)
	default:
		t.present(dst, out, in, progress)
	}
	return dst
}

// Render blends at a frame offset inside the window.
func (t *Transition) Render(out, in *image.RGBA, frameInWindow int) *image.RGBA {
	return t.Blend(out, in, t.Progress(frameInWindow))
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
