package renderer

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpolateKeyframes(t *testing.T) {
	keyframes := []Keyframe{
		{Frame: 0, X: 960, Y: 540, Zoom: 1.0},
		{Frame: 60, X: 500, Y: 400, Zoom: 1.5},
		{Frame: 120, X: 400, Y: 350, Zoom: 2.0},
	}

	tests := []struct {
		frame        float64
		expectedZoom float64
	}{
		{0, 1.0},   // First keyframe
		{30, 1.25}, // Midpoint between first and second
		{60, 1.5},  // Second keyframe
		{90, 1.75}, // Midpoint between second and third
		{120, 2.0}, // Third keyframe
		{150, 2.0}, // After last keyframe
		{-10, 1.0}, // Before first keyframe
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			state := InterpolateKeyframes(keyframes, tt.frame)
			assert.InDelta(t, tt.expectedZoom, state.Zoom, 1e-9, "frame %.0f", tt.frame)
		})
	}

	// Eased: a quarter of the way in time is less than a quarter of the way in space.
	q := InterpolateKeyframes(keyframes, 15)
	assert.Greater(t, q.X, 960-0.25*460)
	assert.Equal(t, CameraState{Zoom: 1}, InterpolateKeyframes(nil, 5))
}

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	Fill(img, c)
	return img
}

func TestMix(t *testing.T) {
	a := solid(2, 2, color.RGBA{0, 0, 0, 0})
	b := solid(2, 2, color.RGBA{200, 200, 200, 200})
	dst := image.NewRGBA(a.Rect)

	Mix(dst, a, b, 0)
	assert.Equal(t, a.Pix, dst.Pix)
	Mix(dst, a, b, 1)
	assert.Equal(t, b.Pix, dst.Pix)
	Mix(dst, a, b, 0.5)
	assert.Equal(t, uint8(100), dst.Pix[0])

	Mix(a, a, b, 1)
	assert.Equal(t, b.Pix, a.Pix)
}

func TestDrawOverOpacity(t *testing.T) {
	dst := solid(4, 4, color.RGBA{0, 0, 255, 255})
	src := solid(2, 2, color.RGBA{255, 0, 0, 255})

	DrawOver(dst, src, image.Pt(1, 1), 0.5)
	got := dst.RGBAAt(1, 1)
	assert.InDelta(t, 128, int(got.R), 1)
	assert.InDelta(t, 127, int(got.B), 1)
	assert.Equal(t, uint8(255), got.A)
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, dst.RGBAAt(0, 0))

	DrawOver(dst, src, image.Pt(3, 3), 1)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, dst.RGBAAt(3, 3))

	before := append([]uint8(nil), dst.Pix...)
	DrawOver(dst, src, image.Pt(0, 0), 0)
	assert.Equal(t, before, dst.Pix)
}

func TestDrawTransformed(t *testing.T) {
	sprite := image.NewRGBA(image.Rect(0, 0, 2, 1))
	sprite.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	sprite.SetRGBA(1, 0, color.RGBA{0, 255, 0, 255})

	t.Run("integer translation is exact", func(t *testing.T) {
		dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
		DrawTransformed(dst, sprite, Translate(5, 7), 1)
		assert.Equal(t, color.RGBA{255, 0, 0, 255}, dst.RGBAAt(5, 7))
		assert.Equal(t, color.RGBA{0, 255, 0, 255}, dst.RGBAAt(6, 7))
	})

	t.Run("half turn swaps pixels", func(t *testing.T) {
		dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
		DrawTransformed(dst, sprite, Centered(11, 10.5, 2, 1, 1, math.Pi), 1)
		left, right := dst.RGBAAt(10, 10), dst.RGBAAt(11, 10)
		assert.Greater(t, left.G, uint8(200))
		assert.Less(t, left.R, uint8(50))
		assert.Greater(t, right.R, uint8(200))
	})

	t.Run("scaled with opacity", func(t *testing.T) {
		dot := solid(1, 1, color.White)
		dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
		DrawTransformed(dst, dot, Affine{ScaleX: 2, ScaleY: 2}, 0.5)
		for _, p := range []image.Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
			assert.InDelta(t, 128, int(dst.RGBAAt(p.X, p.Y).A), 2, "%v", p)
		}
		assert.Zero(t, dst.RGBAAt(3, 3).A)
	})
}

func TestAffineBounds(t *testing.T) {
	b := Translate(10, 20).Bounds(30, 40)
	assert.True(t, image.Rect(10, 20, 40, 60).In(b))
	assert.True(t, b.In(image.Rect(8, 18, 42, 62)))
}

func TestMasks(t *testing.T) {
	rr := RoundedRect(10, 10, 3)
	assert.Equal(t, uint8(255), rr.AlphaAt(5, 5).A)
	assert.Equal(t, uint8(0), rr.AlphaAt(0, 0).A)
	assert.Equal(t, uint8(255), rr.AlphaAt(0, 5).A)

	c := Circle(20, 20, 10, 10, 5)
	assert.Equal(t, uint8(255), c.AlphaAt(10, 10).A)
	assert.Equal(t, uint8(0), c.AlphaAt(0, 0).A)
	covered := 0
	for _, a := range c.Pix {
		if a >= 128 {
			covered++
		}
	}
	assert.InDelta(t, math.Pi*25, covered, 6)

	img := solid(20, 20, color.White)
	MaskAlpha(img, c)
	assert.Equal(t, uint8(0), img.RGBAAt(0, 0).A)
	assert.Equal(t, uint8(255), img.RGBAAt(10, 10).A)
}

func TestFillMask(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	FillMask(dst, RoundedRect(4, 4, 0), image.Pt(2, 2), color.RGBA{0, 0, 255, 255})
	assert.Equal(t, uint8(255), dst.RGBAAt(3, 3).B)
	assert.Zero(t, dst.RGBAAt(1, 1).A)
	assert.Zero(t, dst.RGBAAt(6, 6).A)
}

func TestBlur(t *testing.T) {
	flat := solid(32, 32, color.RGBA{100, 50, 25, 255})
	out := Blur(flat, 6)
	defer Release(out)
	got := out.RGBAAt(16, 16)
	assert.InDelta(t, 100, int(got.R), 1)
	assert.InDelta(t, 50, int(got.G), 1)
	assert.InDelta(t, 255, int(got.A), 1)

	line := solid(32, 32, color.Black)
	for y := 0; y < 32; y++ {
		line.SetRGBA(16, y, color.RGBA{255, 255, 255, 255})
	}
	smeared := BlurHorizontal(line, 8)
	defer Release(smeared)
	assert.Less(t, smeared.RGBAAt(16, 16).R, uint8(255))
	assert.Greater(t, smeared.RGBAAt(14, 16).R, uint8(0))
	assert.Equal(t, smeared.RGBAAt(14, 3), smeared.RGBAAt(14, 20))

	small := Blur(flat, 0.5)
	assert.Equal(t, flat.Pix, small.Pix)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#fff", color.NRGBA{255, 255, 255, 255}},
		{"#0a0A23", color.NRGBA{10, 10, 35, 255}},
		{"#ff000080", color.NRGBA{255, 0, 0, 128}},
		{"rgb(1, 2, 3)", color.NRGBA{1, 2, 3, 255}},
		{"rgba(10,20,30,0.5)", color.NRGBA{10, 20, 30, 128}},
		{"transparent", color.NRGBA{}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"#zzz", "rgba(1,2,3)", "blue", "rgb(300,0,0)", "rgba(1,2,3,2)", "#ff0000zz"} {
		_, err := ParseColor(bad)
		assert.ErrorIs(t, err, ErrColor, bad)
	}
	assert.Panics(t, func() { MustColor("nope") })
}

func TestColorHelpers(t *testing.T) {
	black, white := color.NRGBA{0, 0, 0, 255}, color.NRGBA{255, 255, 255, 255}
	assert.Equal(t, black, Blend(black, white, 0))
	assert.Equal(t, white, Blend(black, white, 1))
	mid := Blend(black, white, 0.5)
	assert.InDelta(t, 188, int(mid.R), 3)

	assert.Equal(t, uint8(0), WithAlpha(white, -1).A)
	assert.Equal(t, uint8(128), WithAlpha(white, 0.5).A)
	assert.Equal(t, uint8(255), WithAlpha(white, 2).A)
}

func TestScaleInto(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 100))
	FillRectOver(src, image.Rect(0, 0, 100, 100), color.RGBA{255, 0, 0, 255})
	FillRectOver(src, image.Rect(100, 0, 200, 100), color.RGBA{0, 0, 255, 255})

	cover := ScaleInto(src, 100, 100, FitCover)
	assert.Greater(t, cover.RGBAAt(10, 50).R, uint8(250))
	assert.Greater(t, cover.RGBAAt(90, 50).B, uint8(250))

	contain := ScaleInto(src, 100, 100, FitContain)
	assert.Zero(t, contain.RGBAAt(50, 5).A)
	assert.Greater(t, contain.RGBAAt(50, 50).A, uint8(250))

	fill := ScaleInto(src, 50, 50, FitFill)
	assert.Greater(t, fill.RGBAAt(2, 25).R, uint8(250))
}

func TestScaleAndClone(t *testing.T) {
	img := NewFrame(2, 2)
	Fill(img, color.RGBA{200, 100, 0, 200})
	cp := Clone(img)
	Scale(img, 0.5)
	assert.Equal(t, uint8(100), img.Pix[0])
	assert.Equal(t, uint8(200), cp.Pix[0])
	Scale(img, 0)
	assert.Zero(t, img.Pix[3])
	Release(img)
	Release(cp)
}
