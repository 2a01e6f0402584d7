package transition

import (
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/draw"

	"github.com/ivlev/promo2video/internal/effects"
	"github.com/ivlev/promo2video/internal/renderer"
)

// Presentation writes the blend of out and in at progress p, 0 < p < 1,
// into dst. dst starts transparent and has the same size as both inputs.
// Implementations must not modify out or in.
type Presentation func(dst, out, in *image.RGBA, p float64)

var (
	presentationsMu sync.RWMutex
	presentations   = map[string]Presentation{
		"fade":         fade,
		"whipPan":      whipPan,
		"slideUp":      slideUp,
		"slideLeft":    slideLeft,
		"wipe":         wipe,
		"flashWhite":   flash(color.White),
		"flashBlack":   flash(color.Black),
		"zoomIn":       zoomIn,
		"blurDissolve": blurDissolve,
		"morphCircle":  morphCircle,
		"glitch":       glitch,
	}
)

// Register adds or replaces a named presentation.
func Register(name string, p Presentation) {
	presentationsMu.Lock()
	defer presentationsMu.Unlock()
	presentations[name] = p
}

// Lookup finds a registered presentation.
func Lookup(name string) (Presentation, bool) {
	presentationsMu.RLock()
	defer presentationsMu.RUnlock()
	p, ok := presentations[name]
	return p, ok
}

// Presentations lists the registered presentation names.
func Presentations() []string {
	presentationsMu.RLock()
	defer presentationsMu.RUnlock()
	return keys(presentations)
}

func fade(dst, out, in *image.RGBA, p float64) {
	renderer.Mix(dst, out, in, p)
}

// whipPan pushes out to the left and pulls in from the right with a
// horizontal motion blur that peaks mid-way.
func whipPan(dst, out, in *image.RGBA, p float64) {
	w := out.Rect.Dx()
	shift := int(math.Round(p * float64(w)))
	radius := math.Sin(p*math.Pi) * float64(w) * 0.04

	a, b := renderer.BlurHorizontal(out, radius), renderer.BlurHorizontal(in, radius)
	defer renderer.Release(a)
	defer renderer.Release(b)
	draw.Draw(dst, dst.Rect, a, image.Pt(shift, 0).Add(a.Rect.Min), draw.Src)
	draw.Draw(dst, dst.Rect.Add(image.Pt(w-shift, 0)), b, b.Rect.Min, draw.Src)
}

// slideUp brings in from below over a still out.
func slideUp(dst, out, in *image.RGBA, p float64) {
	copy(dst.Pix, out.Pix)
	y := int(math.Round((1 - p) * float64(out.Rect.Dy())))
	draw.Draw(dst, dst.Rect.Add(image.Pt(0, y)), in, in.Rect.Min, draw.Over)
}

// slideLeft pushes out off to the left with in attached to its right edge.
func slideLeft(dst, out, in *image.RGBA, p float64) {
	w := out.Rect.Dx()
	shift := int(math.Round(p * float64(w)))
	draw.Draw(dst, dst.Rect, out, image.Pt(shift, 0).Add(out.Rect.Min), draw.Src)
	draw.Draw(dst, dst.Rect.Add(image.Pt(w-shift, 0)), in, in.Rect.Min, draw.Src)
}

// wipe reveals in left to right behind a hard edge.
func wipe(dst, out, in *image.RGBA, p float64) {
	copy(dst.Pix, out.Pix)
	edge := int(math.Round(p * float64(out.Rect.Dx())))
	r := image.Rect(0, 0, edge, out.Rect.Dy()).Add(dst.Rect.Min)
	draw.Draw(dst, r, in, in.Rect.Min, draw.Src)
}

// flash fades out into a solid colour for the first half and from it into
// in for the second.
func flash(c color.Color) Presentation {
	return func(dst, out, in *image.RGBA, p float64) {
		solid := renderer.NewFrame(out.Rect.Dx(), out.Rect.Dy())
		defer renderer.Release(solid)
		renderer.Fill(solid, c)
		if p < 0.5 {
			renderer.Mix(dst, out, solid, p*2)
			return
		}
		renderer.Mix(dst, solid, in, (p-0.5)*2)
	}
}

// zoomIn pushes the camera through out while in grows into place on top.
func zoomIn(dst, out, in *image.RGBA, p float64) {
	w, h := out.Rect.Dx(), out.Rect.Dy()
	cx, cy := float64(w)/2, float64(h)/2
	renderer.DrawTransformed(dst, out, renderer.Centered(cx, cy, w, h, 1+0.5*p, 0), 1)
	renderer.DrawTransformed(dst, in, renderer.Centered(cx, cy, w, h, 0.8+0.2*p, 0), p)
}

// blurDissolve crossfades through a blur that peaks mid-way.
func blurDissolve(dst, out, in *image.RGBA, p float64) {
	radius := math.Sin(p*math.Pi) * 20
	a, b := renderer.Blur(out, radius), renderer.Blur(in, radius)
	renderer.Mix(dst, a, b, p)
	renderer.Release(a)
	renderer.Release(b)
}

// morphCircle opens a circle of in from the centre until it covers the
// corners.
func morphCircle(dst, out, in *image.RGBA, p float64) {
	copy(dst.Pix, out.Pix)
	w, h := out.Rect.Dx(), out.Rect.Dy()
	reach := math.Hypot(float64(w)/2, float64(h)/2)
	mask := renderer.Circle(w, h, float64(w)/2, float64(h)/2, p*reach)
	draw.DrawMask(dst, dst.Rect, in, in.Rect.Min, mask, image.Point{}, draw.Over)
}

const glitchBands = 16

// glitch tears the picture into horizontal bands that jump sideways and
// splits off the red channel, switching from out to in half-way. The tear
// pattern changes on a fixed cadence and is a pure function of p.
func glitch(dst, out, in *image.RGBA, p float64) {
	src := out
	if p >= 0.5 {
		src = in
	}
	w, h := src.Rect.Dx(), src.Rect.Dy()
	strength := math.Sin(p * math.Pi)
	step := uint64(p * 24)
	split := int(strength * float64(w) * 0.015)

	bandH := max(1, (h+glitchBands-1)/glitchBands)
	for y := 0; y < h; y++ {
		band := uint64(y / bandH)
		shift := 0
		if effects.Noise(step, band) < 0.5 {
			shift = int((effects.Noise(step+1000, band) - 0.5) * strength * float64(w) * 0.2)
		}
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		drow := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		for x := 0; x < w; x++ {
			sx := wrap(x+shift, w)
			rx := wrap(x+shift+split, w)
			drow[x*4+0] = row[rx*4+0]
			drow[x*4+1] = row[sx*4+1]
			drow[x*4+2] = row[sx*4+2]
			drow[x*4+3] = max(row[sx*4+3], row[rx*4+3])
		}
	}
}

func wrap(x, n int) int {
	x %= n
	if x < 0 {
		x += n
	}
	return x
}
