package renderer

import (
	"image"
	"math"
)

// RoundedRect returns an anti-aliased alpha mask of a w×h rectangle with
// corner radius r.
func RoundedRect(w, h int, r float64) *image.Alpha {
	m := image.NewAlpha(image.Rect(0, 0, w, h))
	r = math.Max(0, math.Min(r, math.Min(float64(w), float64(h))/2))
	hw, hh := float64(w)/2, float64(h)/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Signed distance to the rounded box, sampled at the pixel centre.
			px := math.Abs(float64(x)+0.5-hw) - (hw - r)
			py := math.Abs(float64(y)+0.5-hh) - (hh - r)
			outside := math.Hypot(math.Max(px, 0), math.Max(py, 0))
			inside := math.Min(math.Max(px, py), 0)
			m.Pix[y*m.Stride+x] = coverage(outside + inside - r)
		}
	}
	return m
}

// Circle returns an anti-aliased disc mask of radius r centred at (cx, cy)
// on a w×h canvas.
func Circle(w, h int, cx, cy, r float64) *image.Alpha {
	m := image.NewAlpha(image.Rect(0, 0, w, h))
	if r <= 0 {
		return m
	}
	x0 := max(0, int(cx-r-1))
	x1 := min(w, int(cx+r+2))
	y0 := max(0, int(cy-r-1))
	y1 := min(h, int(cy+r+2))
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy) - r
			m.Pix[y*m.Stride+x] = coverage(d)
		}
	}
	return m
}

// coverage turns a signed distance (negative inside) into 8-bit alpha with
// a one pixel soft edge.
func coverage(d float64) uint8 {
	switch {
	case d <= -0.5:
		return 0xff
	case d >= 0.5:
		return 0
	default:
		return uint8((0.5 - d) * 255)
	}
}

// MaskAlpha multiplies the frame by the mask in place, so pixels outside
// the mask become transparent.
func MaskAlpha(img *image.RGBA, mask *image.Alpha) {
	b := img.Bounds().Intersect(mask.Bounds())
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			i := img.PixOffset(x, y)
			var a uint32
			if (image.Point{X: x, Y: y}).In(b) {
				a = uint32(mask.Pix[mask.PixOffset(x, y)])
			}
			if a == 0xff {
				continue
			}
			for c := 0; c < 4; c++ {
				img.Pix[i+c] = uint8(uint32(img.Pix[i+c]) * a / 255)
			}
		}
	}
}
