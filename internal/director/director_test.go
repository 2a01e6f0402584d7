package director

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/promo2video/internal/analyzer"
	"github.com/ivlev/promo2video/internal/curve"
	"github.com/ivlev/promo2video/internal/logging"
	"github.com/ivlev/promo2video/internal/renderer"
	"github.com/ivlev/promo2video/internal/scene"
	"github.com/ivlev/promo2video/internal/source"
	"github.com/ivlev/promo2video/internal/textfx"
)

const sample = `
version: "1"
composition:
  width: 320
  height: 180
  fps: 30
  thumbnail_frame: 40
palette:
  background: "#09090B"
  primary: "#F56B3D"
  text: "#FAFAFA"
scenes:
  - id: hook
    duration: 1s
    background: $background
    transition:
      presentation: whipPan
      timing: snappy
      duration: 12
    layers:
      - type: gradient
        mode: rotate
        anchors:
          - {color: $primary, x: 0, y: 0}
          - {color: "#27272A", x: 1, y: 1}
      - type: particles
        count: 20
        color: $primary
        min_size: 2
        max_size: 4
        seed: 7
      - type: text
        text: "Stop {primary:guessing}"
        font: go:bold
        size: 32
        color: $text
        reveal:
          style: stomp
          hold: 0.25s
          transition: 4
  - id: tagline
    duration: 75
    layers:
      - type: camera
        wiggle: 0.015
        wiggle_speed: 0.4
        layers:
          - type: glow
            color: $primary
            size: 12
            intensity: {from: 0, to: 1, duration: 10}
            layers:
              - type: text
                text: "With {primary:Zero Code} Required"
                font: go:regular
                size: 24
                split: chars
                reveal:
                  style: stream
                  stagger: 0.02s
                  duration: 0.4s
                  easing: outBack(1.4)
                  from: {y: 30}
      - type: qr
        content: https://superlinks.ai
        size: 64
        x: 100
        motion:
          opacity: {from: 0, to: 1, delay: 10, duration: 15}
          scale: {spring: {stiffness: 100, damping: 10}, from: 0.8, to: 1}
`

func compileSample(t *testing.T) (*Storyboard, *Director) {
	t.Helper()
	sb, err := ParseStoryboard(strings.NewReader(sample))
	require.NoError(t, err)
	return sb, NewDirector(nil, logging.NewNop())
}

func TestCompile(t *testing.T) {
	sb, d := compileSample(t)
	comp, err := d.Compile(sb)
	require.NoError(t, err)

	meta := comp.Metadata()
	assert.Equal(t, 93, meta.TotalFrames)
	assert.Equal(t, 320, meta.Width)

	spans := comp.Spans()
	require.Len(t, spans, 2)
	assert.Equal(t, "whipPan", spans[1].TransitionIn)
	assert.Equal(t, 18, spans[1].Start)

	thumbs := comp.Artifacts(40)
	require.Len(t, thumbs, 1)
	assert.Equal(t, ThumbnailName, thumbs[0].Filename)

	for _, f := range []int{0, 10, 24, 60, 92} {
		img, err := comp.RenderAt(f)
		require.NoError(t, err, "frame %d", f)
		assert.Equal(t, image.Rect(0, 0, 320, 180), img.Rect)
		renderer.Release(img)
	}

	a, err := comp.RenderAt(50)
	require.NoError(t, err)
	b, err := comp.RenderAt(50)
	require.NoError(t, err)
	assert.Equal(t, a.Pix, b.Pix)
}

func TestCompileClampsThumbnail(t *testing.T) {
	sb, d := compileSample(t)
	sb.Composition.ThumbnailFrame = 10_000
	comp, err := d.Compile(sb)
	require.NoError(t, err)
	assert.Len(t, comp.Artifacts(comp.Metadata().TotalFrames-1), 1)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(sb *Storyboard)
		target error
	}{
		{"unknown layer", func(sb *Storyboard) {
			sb.Scenes[0].Layers = append(sb.Scenes[0].Layers, mustLayer(t, FillSpec{Element: Element{Type: "hologram"}}))
		}, ErrUnknownLayer},
		{"missing palette colour", func(sb *Storyboard) {
			sb.Scenes[1].Background = "$sky"
		}, ErrPalette},
		{"unknown presentation", func(sb *Storyboard) {
			sb.Scenes[0].Transition.Presentation = "spin"
		}, ErrStoryboard},
		{"transition on last scene", func(sb *Storyboard) {
			sb.Scenes[1].Transition = &TransitionSpec{Presentation: "fade", Duration: Frames(5)}
		}, ErrStoryboard},
		{"duplicate id", func(sb *Storyboard) {
			sb.Scenes[1].ID = "hook"
		}, ErrStoryboard},
		{"odd canvas", func(sb *Storyboard) {
			sb.Composition.Width = 321
		}, ErrStoryboard},
		{"no scenes", func(sb *Storyboard) {
			sb.Scenes = nil
		}, ErrStoryboard},
		{"missing image", func(sb *Storyboard) {
			sb.Scenes[0].Layers = append(sb.Scenes[0].Layers, mustLayer(t, PictureSpec{Element: Element{Type: "picture"}, Image: "hero", Width: 10, Height: 10}))
		}, source.ErrAssetNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sb, d := compileSample(t)
			tt.mutate(sb)
			_, err := d.Compile(sb)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	t.Run("overlap longer than a scene", func(t *testing.T) {
		sb, d := compileSample(t)
		sb.Scenes[0].Transition.Duration = Seconds(2)
		_, err := d.Compile(sb)
		assert.Error(t, err)
	})
}

func mustLayer(t *testing.T, v any) LayerSpec {
	t.Helper()
	l, err := NewLayer(v)
	require.NoError(t, err)
	return l
}

func TestParseStoryboardRejectsUnknownKeys(t *testing.T) {
	_, err := ParseStoryboard(strings.NewReader("version: \"1\"\nscenez: []\n"))
	assert.ErrorIs(t, err, ErrStoryboard)
	_, err = ParseStoryboard(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrStoryboard)
	_, err = ParseStoryboard(strings.NewReader("scenes:\n  - id: a\n    duration: 10\n    layers:\n      - color: red\n"))
	assert.ErrorIs(t, err, ErrStoryboard, "layer without a type")
}

func TestTime(t *testing.T) {
	tests := []struct {
		in     string
		frames float64
	}{
		{"90", 90},
		{"12f", 12},
		{"0.25s", 7.5},
		{"1.5s", 45},
		{"250ms", 7.5},
	}
	for _, tt := range tests {
		var v Time
		require.NoError(t, yaml.Unmarshal([]byte(tt.in), &v), tt.in)
		assert.InDelta(t, tt.frames, v.Frames(30), 1e-9, tt.in)
	}
	var v Time
	assert.Error(t, yaml.Unmarshal([]byte("soon"), &v))
	assert.Error(t, yaml.Unmarshal([]byte("[1, 2]"), &v))

	out, err := yaml.Marshal(struct {
		A Time `yaml:"a"`
		B Time `yaml:"b"`
	}{Seconds(0.5), Frames(12)})
	require.NoError(t, err)
	assert.Equal(t, "a: 0.5s\nb: 12\n", string(out))
	assert.Equal(t, 8, Seconds(0.25).WholeFrames(30))
}

func TestTrackSpec(t *testing.T) {
	parse := func(src string) curve.Track {
		t.Helper()
		var s TrackSpec
		require.NoError(t, yaml.Unmarshal([]byte(src), &s))
		tr, err := s.Track(30)
		require.NoError(t, err, src)
		return tr
	}

	c := parse("0.5")
	assert.Equal(t, 0.5, c.At(100))

	tween := parse("{from: 10, to: 20, delay: 1s, duration: 10}")
	assert.Equal(t, 10.0, tween.At(0))
	assert.Equal(t, 10.0, tween.At(30))
	assert.InDelta(t, 15, tween.At(35), 1e-9)
	assert.Equal(t, 20.0, tween.At(100))

	keys := parse("{keyframes: [{at: 0, value: 0}, {at: 10, value: 1}, {at: 20, value: 0}], extrapolate: extend}")
	assert.InDelta(t, 1, keys.At(10), 1e-9)
	assert.InDelta(t, -1, keys.At(30), 1e-9)

	spring := parse("{spring: {stiffness: 100, damping: 10}, from: 0.8, to: 1}")
	assert.InDelta(t, 0.8, spring.At(0), 1e-9)
	assert.InDelta(t, 1, spring.At(300), 1e-3)

	defaults := parse("{spring: {}, from: 0, to: 1, duration: 20}")
	assert.InDelta(t, 1, defaults.At(20), 0.01)

	osc := parse("{oscillate: {amplitude: 2, frequency: 0.1, offset: 1}}")
	assert.InDelta(t, 1, osc.At(0), 1e-9)

	for _, bad := range []string{
		"{from: 0, to: 1}",
		"{from: 0, to: 1, duration: 5, easing: wobble}",
		"{keyframes: [{at: 5, value: 0}, {at: 1, value: 1}]}",
		"{keyframes: [{at: 0, value: 0}, {at: 1, value: 1}], extrapolate: mirror}",
		"{spring: {mass: -1, stiffness: 1}, to: 1}",
	} {
		var s TrackSpec
		require.NoError(t, yaml.Unmarshal([]byte(bad), &s))
		_, err := s.Track(30)
		assert.Error(t, err, bad)
	}

	var none *TrackSpec
	tr, err := none.Track(30)
	assert.NoError(t, err)
	assert.Nil(t, tr)
}

func TestMotionWrapsLayer(t *testing.T) {
	sb, d := compileSample(t)
	c := &compiler{lib: d.Library, fps: 30, width: 320, height: 180}
	require.NoError(t, c.loadPalette(sb.Palette))

	qr := sb.Scenes[1].Layers[1]
	l, err := c.layer(qr)
	require.NoError(t, err)
	animated, ok := l.(*scene.Animated)
	require.True(t, ok)
	assert.Equal(t, 0.0, animated.Motion.At(5).Opacity)

	text := sb.Scenes[0].Layers[2]
	l, err = c.layer(text)
	require.NoError(t, err)
	tl, ok := l.(*textfx.TextLayer)
	require.True(t, ok, "no motion means no wrapper")
	assert.Len(t, tl.Chunks(), 2)
}

func TestMarkupColors(t *testing.T) {
	c := &compiler{palette: map[string]color.NRGBA{"primary": {0xF5, 0x6B, 0x3D, 0xff}}}
	for _, name := range []string{"primary", "$primary"} {
		col, err := c.markupColor(name)
		require.NoError(t, err)
		assert.Equal(t, color.NRGBA{0xF5, 0x6B, 0x3D, 0xff}, col)
	}
	col, err := c.markupColor("#00ff00")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0, 0xff, 0, 0xff}, col)
	_, err = c.markupColor("$sky")
	assert.ErrorIs(t, err, ErrPalette)
}

func TestStoryboardWriteRead(t *testing.T) {
	sb, d := compileSample(t)
	path := filepath.Join(t.TempDir(), "storyboard.yaml")
	require.NoError(t, WriteStoryboard(sb, path))

	back, err := ReadStoryboard(path)
	require.NoError(t, err)
	assert.Equal(t, sb.Palette, back.Palette)
	require.Len(t, back.Scenes, 2)
	assert.Equal(t, Seconds(1), back.Scenes[0].Duration)
	assert.Equal(t, "text", back.Scenes[0].Layers[2].Type)

	a, err := d.Compile(sb)
	require.NoError(t, err)
	b, err := d.Compile(back)
	require.NoError(t, err)
	assert.Equal(t, a.Metadata(), b.Metadata())

	_, err = ReadStoryboard(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestScaffold(t *testing.T) {
	dir := t.TempDir()
	shots := filepath.Join(dir, "shots")
	require.NoError(t, os.Mkdir(shots, 0755))
	for i, size := range []image.Point{{400, 300}, {300, 600}} {
		img := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
		renderer.Fill(img, color.NRGBA{uint8(100 * i), 80, 200, 255})
		f, err := os.Create(filepath.Join(shots, []string{"a.png", "b.png"}[i]))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		require.NoError(t, f.Close())
	}

	src, err := source.NewImageSource(shots)
	require.NoError(t, err)
	sb, err := Scaffold(src, "shots", ScaffoldOptions{Width: 320, Height: 180, Title: "Superlinks"})
	require.NoError(t, err)
	require.Len(t, sb.Scenes, 2)
	assert.Equal(t, "shots#2", sb.Images["page-2"])
	assert.NotNil(t, sb.Scenes[0].Transition)
	assert.Nil(t, sb.Scenes[1].Transition)
	assert.Len(t, sb.Scenes[0].Layers, 2)

	lib, err := source.Load(context.Background(), sb.Manifest(dir), logging.NewNop())
	require.NoError(t, err)
	comp, err := NewDirector(lib, nil).Compile(sb)
	require.NoError(t, err)
	assert.Equal(t, 90+90-15, comp.Metadata().TotalFrames)

	img, err := comp.RenderAt(45)
	require.NoError(t, err)
	assert.Equal(t, uint8(200), img.RGBAAt(100, 20).B, "page one, clear of the title")
}

func TestScaffoldAimsAtContent(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 640, 360))
	renderer.Fill(img, color.NRGBA{10, 10, 12, 255})
	renderer.FillRectOver(img, image.Rect(40, 40, 200, 120), color.NRGBA{250, 250, 250, 255})
	f, err := os.Create(filepath.Join(dir, "slide.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	src, err := source.NewImageSource(dir)
	require.NoError(t, err)
	sb, err := Scaffold(src, ".", ScaffoldOptions{Width: 640, Height: 360, Zoom: 1.5, Detector: analyzer.NewContrastDetector()})
	require.NoError(t, err)

	var cam CameraSpec
	require.NoError(t, sb.Scenes[0].Layers[0].Decode(&cam))
	require.Len(t, cam.Keyframes, 2)
	assert.Equal(t, 320.0, cam.Keyframes[0].X)
	end := cam.Keyframes[1]
	assert.Less(t, end.X, 320.0, "pans left towards the block")
	assert.Less(t, end.Y, 180.0, "pans up towards the block")
	// Never further than the zoom uncovers.
	assert.GreaterOrEqual(t, end.X, 320.0-640*(1-1/1.5)/2)
	assert.GreaterOrEqual(t, end.Y, 180.0-360*(1-1/1.5)/2)
}

func TestFitSize(t *testing.T) {
	w, h := fitSize(400, 300, 320, 180)
	assert.Equal(t, 216, w)
	assert.Equal(t, 162, h)
	w, h = fitSize(0, 0, 100, 100)
	assert.Equal(t, 90, w)
	assert.Equal(t, 90, h)
}

func TestLaunchStoryboard(t *testing.T) {
	path := filepath.Join("..", "..", "storyboards", "launch.yaml")
	sb, err := ReadStoryboard(path)
	require.NoError(t, err)
	lib, err := source.Load(context.Background(), sb.Manifest(filepath.Dir(path)), logging.NewNop())
	require.NoError(t, err)
	comp, err := NewDirector(lib, nil).Compile(sb)
	require.NoError(t, err)

	meta := comp.Metadata()
	assert.Equal(t, 701, meta.TotalFrames)
	assert.Equal(t, 1280, meta.Width)
	assert.Equal(t, 720, meta.Height)

	res, err := comp.Resolve(84)
	require.NoError(t, err)
	assert.True(t, res.InTransition())
	assert.Equal(t, 6, res.Incoming.LocalFrame)

	res, err = comp.Resolve(95)
	require.NoError(t, err)
	assert.False(t, res.InTransition())
	assert.Equal(t, 17, res.Primary.LocalFrame)
}
