package effects

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/ivlev/promo2video/internal/curve"
	"github.com/ivlev/promo2video/internal/renderer"
)

// Glow draws a blurred silhouette of its children in Color underneath
// them. Size is the blur radius in pixels; Intensity (default 1) scales
// the halo's opacity per frame.
type Glow struct {
	Color     color.NRGBA
	Intensity curve.Track
	Size      float64
	Children  Stack
}

func (g *Glow) Draw(dst *image.RGBA, frame int) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	content := renderer.NewFrame(w, h)
	defer renderer.Release(content)
	g.Children.Draw(content, frame)

	intensity := curve.Clamp01(curve.ValueOr(g.Intensity, float64(frame), 1))
	if intensity > 0 && g.Size > 0 {
		silhouette := renderer.NewFrame(w, h)
		draw.DrawMask(silhouette, silhouette.Bounds(), image.NewUniform(g.Color), image.Point{}, content, image.Point{}, draw.Src)
		halo := renderer.Blur(silhouette, g.Size/2)
		renderer.Release(silhouette)
		renderer.DrawOver(dst, halo, dst.Rect.Min, intensity)
		renderer.Release(halo)
	}
	renderer.DrawOver(dst, content, dst.Rect.Min, 1)
}
