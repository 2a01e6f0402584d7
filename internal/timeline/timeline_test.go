package timeline

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/promo2video/internal/renderer"
	"github.com/ivlev/promo2video/internal/transition"
)

// solid is a scene that paints one colour and encodes the local frame in
// the green channel of pixel (0, 0).
type solid struct {
	id       string
	duration int
	c        color.RGBA
	fail     bool
	// wide reports 32x18 instead of 16x9; misfit reports 16x9 but renders
	// 8x9.
	wide, misfit bool
}

func (s *solid) ID() string            { return s.id }
func (s *solid) DurationInFrames() int { return s.duration }

func (s *solid) Size() (int, int) {
	if s.wide {
		return 32, 18
	}
	return 16, 9
}

func (s *solid) Render(local int) (*image.RGBA, error) {
	if s.fail {
		return nil, errors.New("boom")
	}
	w := 16
	if s.misfit {
		w = 8
	}
	img := renderer.NewFrame(w, 9)
	renderer.Fill(img, s.c)
	img.SetRGBA(0, 0, color.RGBA{0, uint8(local), 0, 255})
	return img, nil
}

var meta = Metadata{FrameRate: 30, Width: 16, Height: 9}

func tr(t *testing.T, presentation, timing string, overlap int) TransitionEntry {
	t.Helper()
	x, err := transition.New(presentation, timing, overlap, 30)
	require.NoError(t, err)
	return TransitionEntry{Transition: x}
}

// launch mirrors the eight-scene product video: 785 scene frames and
// seven 12-frame transitions.
func launch(t *testing.T) *Composition {
	t.Helper()
	durations := []int{90, 75, 100, 100, 110, 100, 90, 120}
	presentations := []string{"whipPan", "glitch", "flashWhite", "zoomIn", "blurDissolve", "slideUp", "morphCircle"}
	var entries []Entry
	for i, d := range durations {
		if i > 0 {
			entries = append(entries, tr(t, presentations[i-1], "snappy", 12))
		}
		entries = append(entries, SceneEntry{Scene: &solid{
			id:       fmt.Sprintf("scene-%d", i+1),
			duration: d,
			c:        color.RGBA{uint8(30 * i), 0, uint8(255 - 30*i), 255},
		}})
	}
	c, err := Build(meta, entries...)
	require.NoError(t, err)
	return c
}

func TestBuildComputesOffsets(t *testing.T) {
	c := launch(t)
	assert.Equal(t, 701, c.Metadata().TotalFrames)
	assert.Equal(t, 30.0, c.Metadata().FrameRate)

	spans := c.Spans()
	require.Len(t, spans, 8)
	assert.Equal(t, Span{Index: 0, ID: "scene-1", Start: 0, End: 90, OverlapOut: 12}, spans[0])
	assert.Equal(t, Span{Index: 1, ID: "scene-2", Start: 78, End: 153, OverlapIn: 12, OverlapOut: 12, TransitionIn: "whipPan"}, spans[1])
	assert.Equal(t, 141, spans[2].Start)
	assert.Equal(t, 701, spans[7].End)
	assert.Zero(t, spans[7].OverlapOut)
}

func TestResolve(t *testing.T) {
	c := launch(t)

	tests := []struct {
		frame    int
		primary  string
		local    int
		incoming string
		inLocal  int
		window   int
	}{
		{frame: 0, primary: "scene-1", local: 0},
		{frame: 77, primary: "scene-1", local: 77},
		{frame: 78, primary: "scene-1", local: 78, incoming: "scene-2", inLocal: 0, window: 0},
		{frame: 84, primary: "scene-1", local: 84, incoming: "scene-2", inLocal: 6, window: 6},
		{frame: 89, primary: "scene-1", local: 89, incoming: "scene-2", inLocal: 11, window: 11},
		{frame: 90, primary: "scene-2", local: 12},
		{frame: 95, primary: "scene-2", local: 17},
		{frame: 141, primary: "scene-2", local: 63, incoming: "scene-3", inLocal: 0},
		{frame: 700, primary: "scene-8", local: 119},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.frame), func(t *testing.T) {
			res, err := c.Resolve(tt.frame)
			require.NoError(t, err)
			assert.Equal(t, tt.primary, res.Primary.Scene.ID())
			assert.Equal(t, tt.local, res.Primary.LocalFrame)
			if tt.incoming == "" {
				assert.False(t, res.InTransition())
				assert.Nil(t, res.Transition)
				return
			}
			require.True(t, res.InTransition())
			assert.Equal(t, tt.incoming, res.Incoming.Scene.ID())
			assert.Equal(t, tt.inLocal, res.Incoming.LocalFrame)
			assert.Equal(t, tt.window, res.FrameInWindow)
		})
	}

	for _, f := range []int{-1, 701, 5000} {
		_, err := c.Resolve(f)
		assert.ErrorIs(t, err, ErrFrameOutOfRange, "frame %d", f)
		_, err = c.RenderAt(f)
		assert.ErrorIs(t, err, ErrFrameOutOfRange, "frame %d", f)
	}
}

func TestEveryFrameBelongsToAScene(t *testing.T) {
	c := launch(t)
	windows := 0
	for f := 0; f < c.Metadata().TotalFrames; f++ {
		res, err := c.Resolve(f)
		require.NoError(t, err)
		d := res.Primary.Scene.DurationInFrames()
		require.True(t, res.Primary.LocalFrame >= 0 && res.Primary.LocalFrame < d, "frame %d", f)
		if res.InTransition() {
			windows++
			require.Less(t, res.Incoming.LocalFrame, res.Transition.Overlap)
		}
	}
	assert.Equal(t, 7*12, windows)
}

func TestRenderAt(t *testing.T) {
	c := launch(t)

	img, err := c.RenderAt(95)
	require.NoError(t, err)
	assert.Equal(t, uint8(17), img.RGBAAt(0, 0).G)
	assert.Equal(t, color.RGBA{30, 0, 225, 255}, img.RGBAAt(8, 4))
	renderer.Release(img)

	// Inside a window the output is neither input.
	img, err = c.RenderAt(84)
	require.NoError(t, err)
	assert.NotEqual(t, color.RGBA{0, 0, 255, 255}, img.RGBAAt(8, 4))
	renderer.Release(img)
}

func TestRenderAtIsDeterministic(t *testing.T) {
	c := launch(t)
	properties := gopter.NewProperties(nil)
	properties.Property("rendering a frame twice gives the same pixels", prop.ForAll(
		func(f int) bool {
			a, err := c.RenderAt(f)
			if err != nil {
				return false
			}
			defer renderer.Release(a)
			b, err := c.RenderAt(f)
			if err != nil {
				return false
			}
			defer renderer.Release(b)
			return assert.ObjectsAreEqual(a.Pix, b.Pix)
		},
		gen.IntRange(0, 700),
	))
	properties.TestingRun(t)
}

func TestRenderAtPropagatesSceneErrors(t *testing.T) {
	c, err := Build(meta,
		SceneEntry{Scene: &solid{id: "ok", duration: 10}},
		tr(t, "fade", "linear", 4),
		SceneEntry{Scene: &solid{id: "broken", duration: 10, fail: true}},
	)
	require.NoError(t, err)
	_, err = c.RenderAt(2)
	assert.NoError(t, err)
	_, err = c.RenderAt(7)
	assert.ErrorContains(t, err, `"broken"`)
}

func TestHardCut(t *testing.T) {
	c, err := Build(meta,
		SceneEntry{Scene: &solid{id: "a", duration: 10}},
		SceneEntry{Scene: &solid{id: "b", duration: 5}},
	)
	require.NoError(t, err)
	assert.Equal(t, 15, c.Metadata().TotalFrames)
	res, err := c.Resolve(10)
	require.NoError(t, err)
	assert.Equal(t, "b", res.Primary.Scene.ID())
	assert.False(t, res.InTransition())
}

func TestBuildValidates(t *testing.T) {
	a := SceneEntry{Scene: &solid{id: "a", duration: 10}}
	b := SceneEntry{Scene: &solid{id: "b", duration: 10}}
	short := SceneEntry{Scene: &solid{id: "short", duration: 6}}

	tests := []struct {
		name    string
		meta    Metadata
		entries []Entry
	}{
		{"no entries", meta, nil},
		{"zero fps", Metadata{Width: 1, Height: 1}, []Entry{a}},
		{"no size", Metadata{FrameRate: 30}, []Entry{a}},
		{"leading transition", meta, []Entry{tr(t, "fade", "linear", 2), a}},
		{"trailing transition", meta, []Entry{a, tr(t, "fade", "linear", 2)}},
		{"adjacent transitions", meta, []Entry{a, tr(t, "fade", "linear", 2), tr(t, "wipe", "linear", 2), b}},
		{"nil scene", meta, []Entry{SceneEntry{}}},
		{"nil transition", meta, []Entry{a, TransitionEntry{}, b}},
		{"zero duration", meta, []Entry{SceneEntry{Scene: &solid{id: "z"}}}},
		{"overlap longer than scene", meta, []Entry{a, tr(t, "fade", "linear", 11), b}},
		{"windows overlap inside a scene", meta, []Entry{a, tr(t, "fade", "linear", 4), short, tr(t, "fade", "linear", 4), b}},
		{"negative overlap", meta, []Entry{a, TransitionEntry{&transition.Transition{Presentation: "fade", Overlap: -10}}, b}},
		{"transition not built with New", meta, []Entry{a, TransitionEntry{&transition.Transition{Presentation: "fade", Timing: "linear", Overlap: 4}}, b}},
		{"scene size differs", meta, []Entry{a, SceneEntry{Scene: &solid{id: "wide", duration: 10, wide: true}}}},
		{"composition size differs", Metadata{FrameRate: 30, Width: 1920, Height: 1080}, []Entry{a}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.meta, tt.entries...)
			assert.ErrorIs(t, err, ErrInvalidTimeline)
		})
	}

	_, err := Build(meta, a, tr(t, "fade", "linear", 3), short, tr(t, "fade", "linear", 3), b)
	assert.NoError(t, err, "in+out equal to the duration is allowed")
}

func TestRenderAtRejectsWrongFrameSize(t *testing.T) {
	c, err := Build(meta,
		SceneEntry{Scene: &solid{id: "a", duration: 10}},
		tr(t, "fade", "linear", 4),
		SceneEntry{Scene: &solid{id: "b", duration: 10, misfit: true}},
	)
	require.NoError(t, err)

	img, err := c.RenderAt(0)
	require.NoError(t, err)
	renderer.Release(img)

	for _, frame := range []int{7, 12} {
		_, err := c.RenderAt(frame)
		assert.ErrorIs(t, err, ErrFrameSize, "frame %d", frame)
	}
}

func TestArtifacts(t *testing.T) {
	c := launch(t)
	withThumb, err := c.WithArtifacts(Artifact{Kind: "thumbnail", Filename: "thumb.png", Frame: 95})
	require.NoError(t, err)
	assert.Empty(t, c.Artifacts(95), "original is unchanged")
	assert.Equal(t, []Artifact{{Kind: "thumbnail", Filename: "thumb.png", Frame: 95}}, withThumb.Artifacts(95))
	assert.Empty(t, withThumb.Artifacts(96))

	_, err = c.WithArtifacts(Artifact{Filename: "late.png", Frame: 701})
	assert.ErrorIs(t, err, ErrFrameOutOfRange)
	_, err = c.WithArtifacts(Artifact{Frame: 1})
	assert.ErrorIs(t, err, ErrInvalidTimeline)
}
