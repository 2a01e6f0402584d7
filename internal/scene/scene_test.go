package scene

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/ivlev/promo2video/internal/curve"
	"github.com/ivlev/promo2video/internal/effects"
	"github.com/ivlev/promo2video/internal/renderer"
	"github.com/ivlev/promo2video/internal/textfx"
)

var (
	background = color.NRGBA{0x09, 0x09, 0x0B, 0xff}
	primary    = color.NRGBA{0xF5, 0x6B, 0x3D, 0xff}
)

func square(x, y, size int, c color.Color) effects.Layer {
	return effects.LayerFunc(func(dst *image.RGBA, _ int) {
		renderer.FillRectOver(dst, image.Rect(x, y, x+size, y+size), c)
	})
}

func TestNewValidates(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no id", Config{DurationInFrames: 10, Width: 4, Height: 4}},
		{"zero duration", Config{ID: "a", Width: 4, Height: 4}},
		{"negative duration", Config{ID: "a", DurationInFrames: -3, Width: 4, Height: 4}},
		{"no size", Config{ID: "a", DurationInFrames: 10}},
		{"nil layer", Config{ID: "a", DurationInFrames: 10, Width: 4, Height: 4, Layers: []effects.Layer{nil}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestRender(t *testing.T) {
	s, err := New(Config{
		ID:               "hook",
		DurationInFrames: 90,
		Width:            32,
		Height:           32,
		Background:       background,
		Layers:           []effects.Layer{square(4, 4, 8, primary)},
	})
	require.NoError(t, err)
	assert.Equal(t, "hook", s.ID())
	assert.Equal(t, 90, s.DurationInFrames())
	w, h := s.Size()
	assert.Equal(t, [2]int{32, 32}, [2]int{w, h})

	img, err := s.Render(0)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0x09, 0x09, 0x0B, 0xff}, img.RGBAAt(20, 20))
	assert.Equal(t, color.RGBA{0xF5, 0x6B, 0x3D, 0xff}, img.RGBAAt(5, 5))
	renderer.Release(img)

	img, err = s.Render(89)
	require.NoError(t, err)
	renderer.Release(img)

	for _, f := range []int{-1, 90, 1000} {
		_, err := s.Render(f)
		assert.ErrorIs(t, err, ErrLocalFrameOutOfRange, "frame %d", f)
	}
}

func TestLayerOrder(t *testing.T) {
	s, err := New(Config{ID: "order", DurationInFrames: 1, Width: 16, Height: 16, Layers: []effects.Layer{
		square(0, 0, 8, color.NRGBA{255, 0, 0, 255}),
		square(4, 4, 8, color.NRGBA{0, 0, 255, 255}),
	}})
	require.NoError(t, err)
	img, err := s.Render(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), img.RGBAAt(5, 5).B)
	assert.Equal(t, uint8(255), img.RGBAAt(1, 1).R)
	assert.Zero(t, img.RGBAAt(14, 14).A)
}

func TestScenesAreIsolated(t *testing.T) {
	build := func() *Scene {
		s, err := New(Config{ID: "a", DurationInFrames: 30, Width: 32, Height: 32, Background: background,
			Layers: []effects.Layer{&Animated{Layer: square(10, 10, 8, primary), Motion: Motion{
				TranslateX: curve.Oscillator{Amplitude: 4, Frequency: 0.3},
			}}}})
		require.NoError(t, err)
		return s
	}
	a := build()
	alone, err := a.Render(12)
	require.NoError(t, err)

	b, err := New(Config{ID: "b", DurationInFrames: 30, Width: 32, Height: 32, Background: color.White,
		Layers: []effects.Layer{square(0, 0, 32, primary)}})
	require.NoError(t, err)
	for f := 0; f < 30; f += 7 {
		img, err := b.Render(f)
		require.NoError(t, err)
		renderer.Release(img)
	}

	again, err := a.Render(12)
	require.NoError(t, err)
	assert.Equal(t, alone.Pix, again.Pix)
}

func TestAnimated(t *testing.T) {
	fade, err := curve.NewCurve([]float64{0, 15}, []float64{0, 1}, curve.Options{})
	require.NoError(t, err)
	rise, err := curve.NewCurve([]float64{0, 20}, []float64{40, 0}, curve.Options{Easing: curve.Out(curve.Cubic)})
	require.NoError(t, err)
	a := &Animated{Layer: square(12, 12, 8, color.White), Motion: Motion{Opacity: fade, TranslateY: rise}}

	draw := func(frame int) *image.RGBA {
		dst := image.NewRGBA(image.Rect(0, 0, 32, 64))
		a.Draw(dst, frame)
		return dst
	}

	assert.Zero(t, draw(0).RGBAAt(14, 14).A)

	mid := draw(5)
	assert.Zero(t, mid.RGBAAt(14, 14).A)
	assert.Greater(t, mid.RGBAAt(14, 12+int(rise.At(5))+2).A, uint8(0))

	rest := draw(30)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, rest.RGBAAt(14, 14))

	pose := Motion{}.At(3)
	assert.Equal(t, Pose{Opacity: 1, Scale: 1}, pose)
}

func TestAnimatedScalesAroundAnchor(t *testing.T) {
	sprite := &Sprite{Image: image.NewRGBA(image.Rect(0, 0, 4, 4)), OffsetX: -8}
	renderer.Fill(sprite.Image, color.White)
	a := &Animated{Layer: sprite, Motion: Motion{Scale: curve.Const(2)}}
	dst := image.NewRGBA(image.Rect(0, 0, 32, 32))
	a.Draw(dst, 0)

	// Centre stays at (8, 16); the 8 px wide result spans 4..12.
	assert.Greater(t, dst.RGBAAt(5, 16).A, uint8(200))
	assert.Greater(t, dst.RGBAAt(10, 13).A, uint8(200))
	assert.Zero(t, dst.RGBAAt(16, 16).A)
	x, y := a.Anchor(32, 32)
	assert.Equal(t, 8.0, x)
	assert.Equal(t, 16.0, y)
}

func TestSprites(t *testing.T) {
	photo := image.NewRGBA(image.Rect(0, 0, 200, 100))
	renderer.Fill(photo, primary)

	t.Run("picture", func(t *testing.T) {
		p, err := NewPicture(PictureConfig{Image: photo, Width: 60, Height: 60, Radius: 12}, 0, 0)
		require.NoError(t, err)
		w, h := p.Size()
		assert.Equal(t, 60, w)
		assert.Equal(t, 60, h)
		assert.Zero(t, p.Image.RGBAAt(0, 0).A)
		assert.Greater(t, p.Image.RGBAAt(30, 30).A, uint8(250))

		_, err = NewPicture(PictureConfig{Image: photo, Width: 10, Height: 10, Fit: "stretch"}, 0, 0)
		assert.Error(t, err)
		_, err = NewPicture(PictureConfig{Width: 10, Height: 10}, 0, 0)
		assert.Error(t, err)
	})

	t.Run("mockup", func(t *testing.T) {
		m, err := NewMockup(photo, 300, 0, 0)
		require.NoError(t, err)
		w, h := m.Size()
		assert.Equal(t, 300, w)
		assert.Equal(t, 150+chromeHeight, h)
		assert.InDelta(t, 0xF5, int(m.Image.RGBAAt(150, 100).R), 2)
		assert.Equal(t, uint8(0x27), m.Image.RGBAAt(150, 2).R)
		_, err = NewMockup(photo, 10, 0, 0)
		assert.Error(t, err)
	})

	t.Run("qr code", func(t *testing.T) {
		q, err := NewQRCode(QRConfig{Content: "https://superlinks.ai", Size: 128}, 0, 0)
		require.NoError(t, err)
		dark, light := 0, 0
		for i := 0; i < len(q.Image.Pix); i += 4 {
			if q.Image.Pix[i] < 64 {
				dark++
			} else {
				light++
			}
		}
		assert.Greater(t, dark, 1000)
		assert.Greater(t, light, 1000)

		_, err = NewQRCode(QRConfig{Content: "x", Size: 64, Level: "extreme"}, 0, 0)
		assert.Error(t, err)
		_, err = NewQRCode(QRConfig{Content: "x"}, 0, 0)
		assert.Error(t, err)
	})

	t.Run("sprite placement", func(t *testing.T) {
		s := &Sprite{Image: renderer.ScaleInto(photo, 4, 4, renderer.FitFill), OffsetX: 6, OffsetY: -6}
		dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
		s.Draw(dst, 0)
		assert.Greater(t, dst.RGBAAt(16, 4).A, uint8(250))
		assert.Zero(t, dst.RGBAAt(10, 10).A)
	})
}

func testFont(t *testing.T) *opentype.Font {
	t.Helper()
	f, err := opentype.Parse(goregular.TTF)
	require.NoError(t, err)
	return f
}

func TestCard(t *testing.T) {
	glass := color.NRGBA{255, 255, 255, 13}
	edge := color.NRGBA{255, 255, 255, 26}
	title := []textfx.Span{{Text: "Scattered Analytics"}}
	icon := image.NewRGBA(image.Rect(0, 0, 8, 8))
	renderer.Fill(icon, primary)

	for _, layout := range []string{CardRow, CardColumn, CardCenter} {
		t.Run(layout, func(t *testing.T) {
			c, err := NewCard(CardConfig{
				Width: 320, Height: 120, Radius: 16,
				Fill: glass, Border: edge, BorderWidth: 1,
				Layout: layout,
				Icon:   icon, IconSize: 40,
				Title: title, TitleFont: testFont(t), TitleSize: 24,
				Body: []textfx.Span{{Text: "Real-time insights"}}, BodyFont: testFont(t), BodySize: 16,
			}, 0, 0)
			require.NoError(t, err)
			assert.Zero(t, c.Image.RGBAAt(0, 0).A)
			// Border ring is brighter than the glass fill.
			assert.Greater(t, c.Image.RGBAAt(160, 0).A, c.Image.RGBAAt(160, 3).A)
			white := 0
			for i := 0; i < len(c.Image.Pix); i += 4 {
				if c.Image.Pix[i+3] > 200 {
					white++
				}
			}
			assert.Greater(t, white, 50)
		})
	}

	_, err := NewCard(CardConfig{Width: 10, Height: 10, TitleFont: testFont(t), TitleSize: 10, Layout: "grid"}, 0, 0)
	assert.Error(t, err)
	_, err = NewCard(CardConfig{Width: 10, Height: 10, TitleSize: 10}, 0, 0)
	assert.Error(t, err)
	_, err = NewCard(CardConfig{Width: 10, Height: 10, TitleFont: testFont(t), TitleSize: 10, Border: edge, BorderWidth: 5}, 0, 0)
	assert.Error(t, err)
}

func TestNewText(t *testing.T) {
	spans := []textfx.Span{{Text: "With "}, {Text: "Zero Code", Color: primary}, {Text: " Required"}}
	l, err := NewText(testFont(t), 20, spans, color.White, 0, -20)
	require.NoError(t, err)
	assert.Len(t, l.Chunks(), 4)
	dst := image.NewRGBA(image.Rect(0, 0, 320, 120))
	l.Draw(dst, 0)
	orange := 0
	for i := 0; i < len(dst.Pix); i += 4 {
		if dst.Pix[i+3] == 255 && dst.Pix[i] > 200 && dst.Pix[i+2] < 100 {
			orange++
		}
	}
	assert.Greater(t, orange, 5)
	x, y := l.Anchor(320, 120)
	assert.Equal(t, 160.0, x)
	assert.Equal(t, 40.0, y)
}
