package renderer

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Blur approximates a gaussian of the given radius Kawase-style: halve the
// image with bilinear filtering log2(radius) times, then scale back up.
// The result is a new frame; src is not modified.
func Blur(src *image.RGBA, radius float64) *image.RGBA {
	return blurAxes(src, radius, true, true)
}

// BlurHorizontal smears along x only, the look of a fast camera pan.
func BlurHorizontal(src *image.RGBA, radius float64) *image.RGBA {
	return blurAxes(src, radius, true, false)
}

func blurAxes(src *image.RGBA, radius float64, horizontal, vertical bool) *image.RGBA {
	b := src.Bounds()
	if radius < 1 || b.Empty() {
		return Clone(src)
	}
	passes := int(math.Ceil(math.Log2(radius)))
	if passes < 1 {
		passes = 1
	}

	chain := make([]*image.RGBA, 0, passes)
	current := src
	w, h := b.Dx(), b.Dy()
	for i := 0; i < passes; i++ {
		if horizontal {
			w = max(w/2, 1)
		}
		if vertical {
			h = max(h/2, 1)
		}
		next := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(next, next.Bounds(), current, current.Bounds(), draw.Src, nil)
		chain = append(chain, next)
		current = next
	}
	for i := passes - 2; i >= 0; i-- {
		draw.BiLinear.Scale(chain[i], chain[i].Bounds(), current, current.Bounds(), draw.Src, nil)
		current = chain[i]
	}

	dst := NewFrame(b.Dx(), b.Dy())
	draw.BiLinear.Scale(dst, dst.Bounds(), current, current.Bounds(), draw.Src, nil)
	if b.Min != (image.Point{}) {
		dst.Rect = dst.Rect.Add(b.Min)
	}
	return dst
}
