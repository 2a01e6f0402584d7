package renderer

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Affine places a sprite on the canvas. Scale and rotation (radians) are
// applied around Origin, given in sprite pixels; the sprite's top-left
// corner then lands at (X, Y) for an identity scale and rotation.
type Affine struct {
	X, Y             float64
	ScaleX, ScaleY   float64
	Rotation         float64
	OriginX, OriginY float64
}

// Translate is an Affine that only moves.
func Translate(x, y float64) Affine {
	return Affine{X: x, Y: y, ScaleX: 1, ScaleY: 1}
}

// Centered builds an Affine that puts the centre of a w×h sprite at
// (cx, cy), scaling and rotating around that centre.
func Centered(cx, cy float64, w, h int, scale, rotation float64) Affine {
	return Affine{
		X:        cx - float64(w)/2,
		Y:        cy - float64(h)/2,
		ScaleX:   scale,
		ScaleY:   scale,
		Rotation: rotation,
		OriginX:  float64(w) / 2,
		OriginY:  float64(h) / 2,
	}
}

// Matrix returns the source-to-destination matrix for a sprite whose
// bounds start at (0, 0).
func (a Affine) Matrix() f64.Aff3 {
	sin, cos := math.Sincos(a.Rotation)
	m00 := cos * a.ScaleX
	m01 := -sin * a.ScaleY
	m10 := sin * a.ScaleX
	m11 := cos * a.ScaleY
	tx := a.X + a.OriginX
	ty := a.Y + a.OriginY
	return f64.Aff3{
		m00, m01, tx - (m00*a.OriginX + m01*a.OriginY),
		m10, m11, ty - (m10*a.OriginX + m11*a.OriginY),
	}
}

func (a Affine) isTranslation() bool {
	return a.Rotation == 0 && a.ScaleX == 1 && a.ScaleY == 1 &&
		a.X == math.Trunc(a.X) && a.Y == math.Trunc(a.Y)
}

// Bounds is the destination rectangle covered by an sw×sh sprite.
func (a Affine) Bounds(sw, sh int) image.Rectangle {
	m := a.Matrix()
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range [4][2]float64{{0, 0}, {float64(sw), 0}, {0, float64(sh)}, {float64(sw), float64(sh)}} {
		x := m[0]*p[0] + m[1]*p[1] + m[2]
		y := m[3]*p[0] + m[4]*p[1] + m[5]
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return image.Rect(int(math.Floor(minX))-1, int(math.Floor(minY))-1, int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
}

// DrawTransformed composites src onto dst through the affine placement
// with bilinear filtering, scaled by opacity.
func DrawTransformed(dst *image.RGBA, src *image.RGBA, a Affine, opacity float64) {
	if opacity <= 0 || a.ScaleX == 0 || a.ScaleY == 0 || src.Bounds().Empty() {
		return
	}
	if src.Rect.Min != (image.Point{}) {
		src = rebase(src)
	}
	if a.isTranslation() {
		DrawOver(dst, src, image.Pt(int(a.X), int(a.Y)), opacity)
		return
	}

	m := a.Matrix()
	if opacity >= 1 {
		draw.BiLinear.Transform(dst, m, src, src.Bounds(), draw.Over, nil)
		return
	}

	box := a.Bounds(src.Rect.Dx(), src.Rect.Dy()).Intersect(dst.Bounds())
	if box.Empty() {
		return
	}
	scratch := image.NewRGBA(box)
	draw.BiLinear.Transform(scratch, m, src, src.Bounds(), draw.Src, nil)
	overScaled(dst, box, scratch, box.Min, opacity)
}

// rebase returns a view of img whose bounds start at the origin.
func rebase(img *image.RGBA) *image.RGBA {
	return &image.RGBA{
		Pix:    img.Pix,
		Stride: img.Stride,
		Rect:   image.Rect(0, 0, img.Rect.Dx(), img.Rect.Dy()),
	}
}

// Fit modes for ScaleInto.
const (
	FitCover   = "cover"
	FitContain = "contain"
	FitFill    = "fill"
)

// ScaleInto resamples src to exactly w×h with Catmull-Rom. Cover crops to
// fill the box, contain letterboxes with transparency, fill stretches.
func ScaleInto(src image.Image, w, h int, fit string) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	sb := src.Bounds()
	if sb.Empty() || w <= 0 || h <= 0 {
		return dst
	}
	sw, sh := float64(sb.Dx()), float64(sb.Dy())
	switch fit {
	case FitCover:
		k := math.Max(float64(w)/sw, float64(h)/sh)
		cw, ch := float64(w)/k, float64(h)/k
		x0 := sb.Min.X + int((sw-cw)/2)
		y0 := sb.Min.Y + int((sh-ch)/2)
		sr := image.Rect(x0, y0, x0+int(math.Round(cw)), y0+int(math.Round(ch))).Intersect(sb)
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, sr, draw.Src, nil)
	case FitContain:
		k := math.Min(float64(w)/sw, float64(h)/sh)
		dw, dh := int(math.Round(sw*k)), int(math.Round(sh*k))
		x0, y0 := (w-dw)/2, (h-dh)/2
		draw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+dw, y0+dh), src, sb, draw.Src, nil)
	default:
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	}
	return dst
}
