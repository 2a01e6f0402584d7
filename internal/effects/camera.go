package effects

import (
	"image"
	"math"

	"github.com/ivlev/promo2video/internal/renderer"
)

// Camera moves its children as one picture: a slow hand-held wiggle plus
// optional pan/zoom keyframes. Children draw in their own untouched
// coordinates into an offscreen frame which is then transformed.
type Camera struct {
	// Wiggle is the amplitude as a fraction of the frame size.
	Wiggle      float64
	WiggleSpeed float64
	// Keyframes pin the camera centre (canvas pixels) and zoom.
	Keyframes []renderer.Keyframe
	Children  Stack
}

// Pose is where the camera puts the offscreen picture at a frame.
type Pose struct {
	DX, DY   float64
	Rotation float64
	Scale    float64
	CenterX  float64
	CenterY  float64
}

// PoseAt computes the camera motion for a w×h canvas.
func (c *Camera) PoseAt(frame, w, h int) Pose {
	f := float64(frame)
	s := c.WiggleSpeed
	if s == 0 {
		s = 1
	}
	a := c.Wiggle
	state := renderer.InterpolateKeyframes(c.Keyframes, f)
	if len(c.Keyframes) == 0 {
		state = renderer.CameraState{X: float64(w) / 2, Y: float64(h) / 2, Zoom: 1}
	}
	return Pose{
		DX:       a * float64(w) * math.Sin(f*s*0.1),
		DY:       a * float64(h) * math.Sin(f*s*0.13+1.1),
		Rotation: a * 0.5 * math.Sin(f*s*0.07+2.3),
		// Overscan so the wiggle never reveals the frame edge.
		Scale:   (1 + 2*a) * state.Zoom,
		CenterX: state.X,
		CenterY: state.Y,
	}
}

func (c *Camera) Draw(dst *image.RGBA, frame int) {
	if c.Wiggle == 0 && len(c.Keyframes) == 0 {
		c.Children.Draw(dst, frame)
		return
	}
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	off := renderer.NewFrame(w, h)
	defer renderer.Release(off)
	c.Children.Draw(off, frame)

	p := c.PoseAt(frame, w, h)
	// The keyframe centre is brought to the middle of the frame, then
	// zoomed and rotated around it.
	a := renderer.Affine{
		X:        float64(dst.Rect.Min.X) + float64(w)/2 - p.CenterX + p.DX,
		Y:        float64(dst.Rect.Min.Y) + float64(h)/2 - p.CenterY + p.DY,
		ScaleX:   p.Scale,
		ScaleY:   p.Scale,
		Rotation: p.Rotation,
		OriginX:  p.CenterX,
		OriginY:  p.CenterY,
	}
	renderer.DrawTransformed(dst, off, a, 1)
}
