// Package director reads storyboards and compiles them into a timeline of
// scenes and transitions.
package director

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"strings"

	"github.com/ivlev/promo2video/internal/effects"
	"github.com/ivlev/promo2video/internal/logging"
	"github.com/ivlev/promo2video/internal/renderer"
	"github.com/ivlev/promo2video/internal/scene"
	"github.com/ivlev/promo2video/internal/source"
	"github.com/ivlev/promo2video/internal/timeline"
	"github.com/ivlev/promo2video/internal/transition"
)

var (
	// ErrStoryboard wraps every structural problem in a storyboard.
	ErrStoryboard = errors.New("director: invalid storyboard")
	// ErrUnknownLayer reports a layer type with no builder.
	ErrUnknownLayer = errors.New("director: unknown layer type")
	// ErrPalette reports a $name missing from the palette.
	ErrPalette = errors.New("director: unknown palette colour")
)

const (
	DefaultWidth  = 1280
	DefaultHeight = 720
	DefaultFPS    = 30
	// DefaultTiming applies to transitions that leave timing unset.
	DefaultTiming = "smooth"
)

// ThumbnailName is the artifact filename requested at the thumbnail frame.
const ThumbnailName = "thumbnail.jpg"

// Director compiles storyboards against a loaded asset library.
type Director struct {
	Library *source.Library
	Log     *slog.Logger
}

// NewDirector creates a Director. log may be nil.
func NewDirector(lib *source.Library, log *slog.Logger) *Director {
	if log == nil {
		log = logging.NewNop()
	}
	return &Director{Library: lib, Log: log}
}

// ApplyDefaults fills the canvas defaults in place.
func (sb *Storyboard) ApplyDefaults() {
	if sb.Composition.Width == 0 {
		sb.Composition.Width = DefaultWidth
	}
	if sb.Composition.Height == 0 {
		sb.Composition.Height = DefaultHeight
	}
	if sb.Composition.FPS == 0 {
		sb.Composition.FPS = DefaultFPS
	}
}

// Validate checks what can be checked without assets: canvas, scene ids
// and durations, transition names and that nothing follows the last scene.
func (sb *Storyboard) Validate() error {
	c := sb.Composition
	if c.Width <= 0 || c.Height <= 0 || c.Width%2 != 0 || c.Height%2 != 0 {
		return fmt.Errorf("%w: canvas %dx%d must be positive and even", ErrStoryboard, c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive, got %g", ErrStoryboard, c.FPS)
	}
	if len(sb.Scenes) == 0 {
		return fmt.Errorf("%w: no scenes", ErrStoryboard)
	}
	seen := make(map[string]bool, len(sb.Scenes))
	for i, s := range sb.Scenes {
		if s.ID == "" {
			return fmt.Errorf("%w: scene %d has no id", ErrStoryboard, i+1)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate scene id %q", ErrStoryboard, s.ID)
		}
		seen[s.ID] = true
		if s.Duration.WholeFrames(c.FPS) <= 0 {
			return fmt.Errorf("%w: scene %q has duration %s", ErrStoryboard, s.ID, s.Duration)
		}
		if s.Transition == nil {
			continue
		}
		if i == len(sb.Scenes)-1 {
			return fmt.Errorf("%w: last scene %q has a transition", ErrStoryboard, s.ID)
		}
		if _, ok := transition.Lookup(s.Transition.Presentation); !ok {
			return fmt.Errorf("%w: scene %q: %w: %q", ErrStoryboard, s.ID, transition.ErrUnknownPresentation, s.Transition.Presentation)
		}
	}
	for name, v := range sb.Palette {
		if _, err := renderer.ParseColor(v); err != nil {
			return fmt.Errorf("%w: palette %q: %w", ErrStoryboard, name, err)
		}
	}
	return nil
}

// Manifest lists the assets the storyboard needs. Relative paths resolve
// against baseDir, normally the storyboard's folder.
func (sb *Storyboard) Manifest(baseDir string) source.Manifest {
	return source.Manifest{
		BaseDir: baseDir,
		Fonts:   sb.Fonts,
		Images:  sb.Images,
		DPI:     sb.Composition.DPI,
	}
}

// Compile builds every scene and transition and lays them on a timeline.
// All asset lookups and parameter checks happen here; the result renders
// without further errors from configuration.
func (d *Director) Compile(sb *Storyboard) (*timeline.Composition, error) {
	sb.ApplyDefaults()
	if err := sb.Validate(); err != nil {
		return nil, err
	}
	c := &compiler{
		lib:    d.Library,
		log:    d.Log,
		fps:    sb.Composition.FPS,
		width:  sb.Composition.Width,
		height: sb.Composition.Height,
	}
	if err := c.loadPalette(sb.Palette); err != nil {
		return nil, err
	}

	var entries []timeline.Entry
	for i, spec := range sb.Scenes {
		s, err := c.scene(spec)
		if err != nil {
			return nil, fmt.Errorf("scene %q: %w", spec.ID, err)
		}
		entries = append(entries, timeline.SceneEntry{Scene: s})
		if spec.Transition == nil || i == len(sb.Scenes)-1 {
			continue
		}
		t, err := c.transition(*spec.Transition)
		if err != nil {
			return nil, fmt.Errorf("transition after %q: %w", spec.ID, err)
		}
		entries = append(entries, timeline.TransitionEntry{Transition: t})
	}

	comp, err := timeline.Build(timeline.Metadata{
		FrameRate: c.fps,
		Width:     c.width,
		Height:    c.height,
	}, entries...)
	if err != nil {
		return nil, err
	}
	thumb := min(max(sb.Composition.ThumbnailFrame, 0), comp.Metadata().TotalFrames-1)
	comp, err = comp.WithArtifacts(timeline.Artifact{Kind: "thumbnail", Filename: ThumbnailName, Frame: thumb})
	if err != nil {
		return nil, err
	}
	d.Log.Debug("storyboard compiled", "scenes", len(sb.Scenes), "frames", comp.Metadata().TotalFrames)
	return comp, nil
}

// compiler carries per-storyboard state through the layer builders.
type compiler struct {
	lib     *source.Library
	log     *slog.Logger
	fps     float64
	width   int
	height  int
	palette map[string]color.NRGBA
}

func (c *compiler) loadPalette(p map[string]string) error {
	c.palette = make(map[string]color.NRGBA, len(p))
	for name, v := range p {
		col, err := renderer.ParseColor(v)
		if err != nil {
			return fmt.Errorf("%w: palette %q: %w", ErrStoryboard, name, err)
		}
		c.palette[name] = col
	}
	return nil
}

// color resolves "$name" against the palette and anything else as a
// colour literal.
func (c *compiler) color(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if name, ok := strings.CutPrefix(s, "$"); ok {
		col, found := c.palette[name]
		if !found {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrPalette, name)
		}
		return col, nil
	}
	return renderer.ParseColor(s)
}

// colorOr is color with a fallback for an empty string.
func (c *compiler) colorOr(s string, def color.NRGBA) (color.NRGBA, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	return c.color(s)
}

// markupColor resolves the name part of "{name:text}": a palette entry
// with or without the "$", or a literal colour.
func (c *compiler) markupColor(name string) (color.Color, error) {
	if col, ok := c.palette[strings.TrimPrefix(name, "$")]; ok {
		return col, nil
	}
	return c.color(name)
}

func (c *compiler) frames(t Time) float64 { return t.Frames(c.fps) }

func (c *compiler) scene(spec SceneSpec) (*scene.Scene, error) {
	bg, err := c.colorOr(spec.Background, color.NRGBA{A: 0xff})
	if err != nil {
		return nil, err
	}
	layers, err := c.layers(spec.Layers)
	if err != nil {
		return nil, err
	}
	return scene.New(scene.Config{
		ID:               spec.ID,
		DurationInFrames: spec.Duration.WholeFrames(c.fps),
		Width:            c.width,
		Height:           c.height,
		Background:       bg,
		Layers:           layers,
	})
}

func (c *compiler) layers(specs []LayerSpec) ([]effects.Layer, error) {
	out := make([]effects.Layer, 0, len(specs))
	for i, spec := range specs {
		l, err := c.layer(spec)
		if err != nil {
			if line := spec.Line(); line > 0 {
				return nil, fmt.Errorf("layer %d (%s, line %d): %w", i+1, spec.Type, line, err)
			}
			return nil, fmt.Errorf("layer %d (%s): %w", i+1, spec.Type, err)
		}
		out = append(out, l)
	}
	return out, nil
}

func (c *compiler) transition(spec TransitionSpec) (*transition.Transition, error) {
	timing := spec.Timing
	if timing == "" {
		timing = DefaultTiming
	}
	return transition.New(spec.Presentation, timing, spec.Duration.WholeFrames(c.fps), c.fps)
}
