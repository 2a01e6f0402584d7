// Package renderer holds the raster primitives every layer draws with.
// Frames are premultiplied *image.RGBA buffers recycled through the
// system image pool.
package renderer

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/ivlev/promo2video/internal/system"
)

// NewFrame returns a transparent w×h frame from the pool.
func NewFrame(w, h int) *image.RGBA {
	return system.GetImage(image.Rect(0, 0, w, h))
}

// Release returns a frame to the pool. The caller must not touch it
// afterwards.
func Release(img *image.RGBA) {
	system.PutImage(img)
}

// Clone copies src into a pooled frame of the same size.
func Clone(src *image.RGBA) *image.RGBA {
	dst := system.GetImage(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}

// Fill paints the whole frame with c, replacing what was there.
func Fill(dst *image.RGBA, c color.Color) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// FillOver composites a solid colour over the whole frame.
func FillOver(dst *image.RGBA, c color.Color) {
	FillRectOver(dst, dst.Bounds(), c)
}

// FillRectOver composites a solid colour over r.
func FillRectOver(dst *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Over)
}

// FillMask composites c through an alpha mask positioned at pt.
func FillMask(dst *image.RGBA, mask image.Image, pt image.Point, c color.Color) {
	r := mask.Bounds().Sub(mask.Bounds().Min).Add(pt)
	draw.DrawMask(dst, r, image.NewUniform(c), image.Point{}, mask, mask.Bounds().Min, draw.Over)
}

// DrawOver composites src with its top-left corner at pt, scaled by a
// constant opacity.
func DrawOver(dst *image.RGBA, src *image.RGBA, pt image.Point, opacity float64) {
	if opacity <= 0 {
		return
	}
	r := src.Bounds().Sub(src.Bounds().Min).Add(pt)
	if opacity >= 1 {
		draw.Draw(dst, r, src, src.Bounds().Min, draw.Over)
		return
	}
	overScaled(dst, r, src, src.Bounds().Min, opacity)
}

// overScaled is "over" with the source alpha multiplied by opacity.
// image/draw has no fast path for a uniform mask over an RGBA source, so
// the premultiplied arithmetic is done inline.
func overScaled(dst *image.RGBA, r image.Rectangle, src *image.RGBA, sp image.Point, opacity float64) {
	clipped := r.Intersect(dst.Bounds())
	if clipped.Empty() {
		return
	}
	sp = sp.Add(clipped.Min.Sub(r.Min))
	k := uint32(opacity*255 + 0.5)
	for y := 0; y < clipped.Dy(); y++ {
		di := dst.PixOffset(clipped.Min.X, clipped.Min.Y+y)
		si := src.PixOffset(sp.X, sp.Y+y)
		for x := 0; x < clipped.Dx(); x++ {
			sa := uint32(src.Pix[si+3]) * k / 255
			if sa != 0 {
				inv := 255 - sa
				for c := 0; c < 3; c++ {
					s := uint32(src.Pix[si+c]) * k / 255
					dst.Pix[di+c] = uint8(s + uint32(dst.Pix[di+c])*inv/255)
				}
				dst.Pix[di+3] = uint8(sa + uint32(dst.Pix[di+3])*inv/255)
			}
			di += 4
			si += 4
		}
	}
}

// Mix writes a*(1-t) + b*t into dst channel by channel. All three frames
// must share bounds; dst may alias a or b.
func Mix(dst, a, b *image.RGBA, t float64) {
	switch {
	case t <= 0:
		if dst != a {
			copy(dst.Pix, a.Pix)
		}
		return
	case t >= 1:
		if dst != b {
			copy(dst.Pix, b.Pix)
		}
		return
	}
	wb := uint32(t*256 + 0.5)
	wa := 256 - wb
	for i := range dst.Pix {
		dst.Pix[i] = uint8((uint32(a.Pix[i])*wa + uint32(b.Pix[i])*wb + 128) >> 8)
	}
}

// Scale multiplies every channel of img by k in place, fading it towards
// transparent.
func Scale(img *image.RGBA, k float64) {
	if k >= 1 {
		return
	}
	if k <= 0 {
		clear(img.Pix)
		return
	}
	w := uint32(k*256 + 0.5)
	for i, v := range img.Pix {
		img.Pix[i] = uint8((uint32(v)*w + 128) >> 8)
	}
}
