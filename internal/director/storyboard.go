package director

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/promo2video/internal/curve"
)

// Storyboard is the complete description of a video: canvas, palette,
// assets and the ordered scene list.
type Storyboard struct {
	Version     string            `yaml:"version"`
	Composition CompositionSpec   `yaml:"composition"`
	Palette     map[string]string `yaml:"palette,omitempty"`
	Fonts       map[string]string `yaml:"fonts,omitempty"`
	Images      map[string]string `yaml:"images,omitempty"`
	Scenes      []SceneSpec       `yaml:"scenes"`
}

// CompositionSpec is the output canvas.
type CompositionSpec struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	FPS    float64 `yaml:"fps"`
	// ThumbnailFrame is where the thumbnail artifact is taken.
	ThumbnailFrame int        `yaml:"thumbnail_frame,omitempty"`
	Audio          *AudioSpec `yaml:"audio,omitempty"`
	// DPI rasterises PDF page assets.
	DPI int `yaml:"dpi,omitempty"`
}

// AudioSpec places a soundtrack on the video.
type AudioSpec struct {
	Path   string  `yaml:"path"`
	Offset Time    `yaml:"offset,omitempty"`
	Volume float64 `yaml:"volume,omitempty"`
}

// SceneSpec is one scene. Transition, when set, blends this scene into the
// next one.
type SceneSpec struct {
	ID         string          `yaml:"id"`
	Duration   Time            `yaml:"duration"`
	Background string          `yaml:"background,omitempty"`
	Layers     []LayerSpec     `yaml:"layers,omitempty"`
	Transition *TransitionSpec `yaml:"transition,omitempty"`
}

type TransitionSpec struct {
	Presentation string `yaml:"presentation"`
	Timing       string `yaml:"timing,omitempty"`
	Duration     Time   `yaml:"duration"`
}

// Time is a storyboard duration or instant. A bare number counts frames;
// a string with an "s" suffix counts seconds ("0.25s"), with "f" frames
// ("12f").
type Time struct {
	Value   float64
	Seconds bool
}

func Frames(n float64) Time  { return Time{Value: n} }
func Seconds(s float64) Time { return Time{Value: s, Seconds: true} }

// Frames converts to (possibly fractional) frames at fps.
func (t Time) Frames(fps float64) float64 {
	if t.Seconds {
		return t.Value * fps
	}
	return t.Value
}

// WholeFrames rounds to the nearest frame.
func (t Time) WholeFrames(fps float64) int {
	return int(math.Round(t.Frames(fps)))
}

func (t Time) IsZero() bool { return t.Value == 0 }

func (t Time) String() string {
	v := strconv.FormatFloat(t.Value, 'f', -1, 64)
	if t.Seconds {
		return v + "s"
	}
	return v
}

func (t *Time) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: time must be a number or a string like 0.5s", n.Line)
	}
	s := strings.TrimSpace(n.Value)
	seconds := false
	switch {
	case strings.HasSuffix(s, "ms"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "ms"), 64)
		if err != nil {
			return fmt.Errorf("line %d: bad time %q", n.Line, n.Value)
		}
		*t = Seconds(v / 1000)
		return nil
	case strings.HasSuffix(s, "s"):
		s, seconds = strings.TrimSuffix(s, "s"), true
	case strings.HasSuffix(s, "f"):
		s = strings.TrimSuffix(s, "f")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("line %d: bad time %q", n.Line, n.Value)
	}
	*t = Time{Value: v, Seconds: seconds}
	return nil
}

func (t Time) MarshalYAML() (any, error) {
	if t.Seconds {
		return t.String(), nil
	}
	return t.Value, nil
}

// LayerSpec is one entry of a scene's layer list. Type selects the builder;
// the rest of the mapping is decoded by that builder.
type LayerSpec struct {
	Type string
	node yaml.Node
}

// NewLayer encodes a typed layer description, such as a TextSpec, into a
// LayerSpec.
func NewLayer(v any) (LayerSpec, error) {
	var l LayerSpec
	if err := l.node.Encode(v); err != nil {
		return LayerSpec{}, err
	}
	if err := l.readType(); err != nil {
		return LayerSpec{}, err
	}
	return l, nil
}

func (l *LayerSpec) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: layer must be a mapping", n.Line)
	}
	l.node = *n
	return l.readType()
}

func (l *LayerSpec) readType() error {
	var head struct {
		Type string `yaml:"type"`
	}
	if err := l.node.Decode(&head); err != nil {
		return err
	}
	if head.Type == "" {
		return fmt.Errorf("line %d: layer without a type", l.node.Line)
	}
	l.Type = head.Type
	return nil
}

func (l LayerSpec) MarshalYAML() (any, error) { return &l.node, nil }

// Decode fills v from the layer's mapping.
func (l LayerSpec) Decode(v any) error {
	if err := l.node.Decode(v); err != nil {
		return fmt.Errorf("%s layer: %w", l.Type, err)
	}
	return nil
}

// Line is the source line of the layer, or 0 for built layers.
func (l LayerSpec) Line() int { return l.node.Line }

// TrackSpec describes an animated number. A bare scalar is a constant.
// Otherwise exactly one of the shapes applies, checked in this order:
// Keyframes, Spring, Oscillate, then a from→to tween over Duration.
type TrackSpec struct {
	Constant *float64 `yaml:"-"`

	From     float64 `yaml:"from,omitempty"`
	To       float64 `yaml:"to,omitempty"`
	Delay    Time    `yaml:"delay,omitempty"`
	Duration Time    `yaml:"duration,omitempty"`
	Easing   string  `yaml:"easing,omitempty"`

	Keyframes   []KeyframeSpec     `yaml:"keyframes,omitempty"`
	Extrapolate string             `yaml:"extrapolate,omitempty"`
	Spring      *curve.SpringConfig `yaml:"spring,omitempty"`
	Oscillate   *OscillatorSpec    `yaml:"oscillate,omitempty"`
}

// KeyframeSpec is one control point of a keyframed track.
type KeyframeSpec struct {
	At    Time    `yaml:"at"`
	Value float64 `yaml:"value"`
}

// OscillatorSpec is a sine wave. Frequency is in radians per frame.
type OscillatorSpec struct {
	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"`
	Phase     float64 `yaml:"phase,omitempty"`
	Offset    float64 `yaml:"offset,omitempty"`
}

// Const is a constant TrackSpec.
func Const(v float64) *TrackSpec { return &TrackSpec{Constant: &v} }

func (t *TrackSpec) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		var v float64
		if err := n.Decode(&v); err != nil {
			return err
		}
		*t = TrackSpec{Constant: &v}
		return nil
	}
	type plain TrackSpec
	var p plain
	if err := n.Decode(&p); err != nil {
		return err
	}
	*t = TrackSpec(p)
	return nil
}

func (t TrackSpec) MarshalYAML() (any, error) {
	if t.Constant != nil {
		return *t.Constant, nil
	}
	type plain TrackSpec
	return plain(t), nil
}

// MotionSpec animates a whole layer. Rotation is in degrees.
type MotionSpec struct {
	Opacity  *TrackSpec `yaml:"opacity,omitempty"`
	X        *TrackSpec `yaml:"x,omitempty"`
	Y        *TrackSpec `yaml:"y,omitempty"`
	Scale    *TrackSpec `yaml:"scale,omitempty"`
	Rotation *TrackSpec `yaml:"rotation,omitempty"`
}
