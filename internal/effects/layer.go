// Package effects contains the always-on visual layers of a scene:
// gradient fields, particle fields, ambient camera motion and glow. Every
// layer is a pure function of the frame number and its own configuration.
package effects

import (
	"errors"
	"image"
	"image/color"

	"github.com/ivlev/promo2video/internal/curve"
	"github.com/ivlev/promo2video/internal/renderer"
)

// ErrUnknownMode reports an animation mode or kind missing from a registry.
var ErrUnknownMode = errors.New("effects: unknown mode")

// Layer draws one visual contribution over dst for a scene-local frame.
// Implementations must not keep state between calls.
type Layer interface {
	Draw(dst *image.RGBA, frame int)
}

// LayerFunc adapts a function to Layer.
type LayerFunc func(dst *image.RGBA, frame int)

func (f LayerFunc) Draw(dst *image.RGBA, frame int) { f(dst, frame) }

// Stack draws its layers in order; later layers land on top.
type Stack []Layer

func (s Stack) Draw(dst *image.RGBA, frame int) {
	for _, l := range s {
		l.Draw(dst, frame)
	}
}

// Faded renders Layer offscreen and composites it with an animated
// opacity. A nil Opacity means fully opaque.
type Faded struct {
	Layer   Layer
	Opacity curve.Track
}

func (f Faded) Draw(dst *image.RGBA, frame int) {
	opacity := curve.Clamp01(curve.ValueOr(f.Opacity, float64(frame), 1))
	if opacity <= 0 {
		return
	}
	if opacity >= 1 {
		f.Layer.Draw(dst, frame)
		return
	}
	off := renderer.NewFrame(dst.Rect.Dx(), dst.Rect.Dy())
	defer renderer.Release(off)
	f.Layer.Draw(off, frame)
	renderer.DrawOver(dst, off, dst.Rect.Min, opacity)
}

// Fill paints a solid colour over the frame.
type Fill struct {
	Color color.Color
}

func (f Fill) Draw(dst *image.RGBA, _ int) {
	renderer.FillOver(dst, f.Color)
}
