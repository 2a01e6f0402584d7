package scene

import (
	"image"
	"math"

	"github.com/ivlev/promo2video/internal/curve"
	"github.com/ivlev/promo2video/internal/effects"
	"github.com/ivlev/promo2video/internal/renderer"
)

// Motion animates an element as a whole. Nil tracks keep their rest value:
// opacity 1, no translation, scale 1, no rotation. Rotation is in degrees.
type Motion struct {
	Opacity    curve.Track
	TranslateX curve.Track
	TranslateY curve.Track
	Scale      curve.Track
	Rotation   curve.Track
}

// Pose is a Motion evaluated at one frame.
type Pose struct {
	Opacity    float64
	TranslateX float64
	TranslateY float64
	Scale      float64
	Rotation   float64
}

func (m Motion) At(frame int) Pose {
	f := float64(frame)
	return Pose{
		Opacity:    curve.Clamp01(curve.ValueOr(m.Opacity, f, 1)),
		TranslateX: curve.ValueOr(m.TranslateX, f, 0),
		TranslateY: curve.ValueOr(m.TranslateY, f, 0),
		Scale:      curve.ValueOr(m.Scale, f, 1),
		Rotation:   curve.ValueOr(m.Rotation, f, 0),
	}
}

func (p Pose) isRest() bool {
	return p.Opacity >= 1 && p.TranslateX == 0 && p.TranslateY == 0 && p.Scale == 1 && p.Rotation == 0
}

// Anchored layers report the point their motion scales and rotates
// around. Others pivot on the frame centre.
type Anchored interface {
	Anchor(w, h int) (x, y float64)
}

// Animated draws Layer through Motion.
type Animated struct {
	Layer  effects.Layer
	Motion Motion
}

func (a *Animated) Draw(dst *image.RGBA, frame int) {
	p := a.Motion.At(frame)
	if p.Opacity <= 0 || p.Scale == 0 {
		return
	}
	if p.isRest() {
		a.Layer.Draw(dst, frame)
		return
	}

	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	off := renderer.NewFrame(w, h)
	defer renderer.Release(off)
	a.Layer.Draw(off, frame)

	ox, oy := float64(w)/2, float64(h)/2
	if an, ok := a.Layer.(Anchored); ok {
		ox, oy = an.Anchor(w, h)
	}
	renderer.DrawTransformed(dst, off, renderer.Affine{
		X:        float64(dst.Rect.Min.X) + p.TranslateX,
		Y:        float64(dst.Rect.Min.Y) + p.TranslateY,
		ScaleX:   p.Scale,
		ScaleY:   p.Scale,
		Rotation: p.Rotation * math.Pi / 180,
		OriginX:  ox,
		OriginY:  oy,
	}, p.Opacity)
}

func (a *Animated) Anchor(w, h int) (float64, float64) {
	if an, ok := a.Layer.(Anchored); ok {
		return an.Anchor(w, h)
	}
	return float64(w) / 2, float64(h) / 2
}
