package director

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"golang.org/x/image/font/opentype"

	"github.com/ivlev/promo2video/internal/curve"
	"github.com/ivlev/promo2video/internal/effects"
	"github.com/ivlev/promo2video/internal/renderer"
	"github.com/ivlev/promo2video/internal/scene"
	"github.com/ivlev/promo2video/internal/source"
	"github.com/ivlev/promo2video/internal/textfx"
)

// layerBuilder turns one layer mapping into a drawable layer.
type layerBuilder func(c *compiler, spec LayerSpec) (effects.Layer, error)

var layerBuilders map[string]layerBuilder

func init() {
	layerBuilders = map[string]layerBuilder{
		"fill":            buildFill,
		"gradient":        buildGradient,
		"linear-gradient": buildLinearGradient,
		"radial-gradient": buildRadialGradient,
		"particles":       buildParticles,
		"camera":          buildCamera,
		"glow":            buildGlow,
		"text":            buildText,
		"card":            buildCard,
		"picture":         buildPicture,
		"mockup":          buildMockup,
		"qr":              buildQR,
	}
}

// LayerTypes lists the layer types a storyboard may use.
func LayerTypes() []string {
	names := make([]string, 0, len(layerBuilders))
	for n := range layerBuilders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Element carries the fields shared by every layer type.
type Element struct {
	Type   string      `yaml:"type"`
	Motion *MotionSpec `yaml:"motion,omitempty"`
}

func (c *compiler) layer(spec LayerSpec) (effects.Layer, error) {
	build, ok := layerBuilders[spec.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayer, spec.Type)
	}
	l, err := build(c, spec)
	if err != nil {
		return nil, err
	}
	var common Element
	if err := spec.Decode(&common); err != nil {
		return nil, err
	}
	if common.Motion.empty() {
		return l, nil
	}
	m, err := common.Motion.Motion(c.fps)
	if err != nil {
		return nil, err
	}
	return &scene.Animated{Layer: l, Motion: m}, nil
}

// FillSpec paints a solid colour over the whole frame.
type FillSpec struct {
	Element `yaml:",inline"`
	Color   string `yaml:"color"`
}

func buildFill(c *compiler, spec LayerSpec) (effects.Layer, error) {
	var s FillSpec
	if err := spec.Decode(&s); err != nil {
		return nil, err
	}
	col, err := c.color(s.Color)
	if err != nil {
		return nil, err
	}
	return effects.Fill{Color: col}, nil
}

// AnchorSpec is one gradient colour at a normalised position.
type AnchorSpec struct {
	Color string  `yaml:"color"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
}

// GradientSpec is an animated multi-anchor colour field.
type GradientSpec struct {
	Element `yaml:",inline"`
	Anchors []AnchorSpec `yaml:"anchors"`
	Mode    string       `yaml:"mode,omitempty"`
	Speed   float64      `yaml:"speed,omitempty"`
}

func buildGradient(c *compiler, spec LayerSpec) (effects.Layer, error) {
	var s GradientSpec
	if err := spec.Decode(&s); err != nil {
		return nil, err
	}
	if len(s.Anchors) == 0 {
		return nil, fmt.Errorf("gradient needs anchors")
	}
	anchors := make([]effects.Anchor, len(s.Anchors))
	for i, a := range s.Anchors {
		col, err := c.color(a.Color)
		if err != nil {
			return nil, err
		}
		anchors[i] = effects.Anchor{Color: col, X: a.X, Y: a.Y}
	}
	speed := s.Speed
	if speed == 0 {
		speed = 1
	}
	return effects.NewFourColorGradient(anchors, s.Mode, speed)
}

// StopSpec is a gradient colour at a position in [0, 1].
type StopSpec struct {
	Color string  `yaml:"color"`
	At    float64 `yaml:"at"`
}

func (c *compiler) stops(specs []StopSpec) ([]effects.Stop, error) {
	out := make([]effects.Stop, len(specs))
	for i, s := range specs {
		col, err := c.color(s.Color)
		if err != nil {
			return nil, err
		}
		out[i] = effects.Stop{Color: col, Position: s.At}
	}
	return out, nil
}

type LinearGradientSpec struct {
	Element   `yaml:",inline"`
	Stops     []StopSpec `yaml:"stops"`
	Direction string     `yaml:"direction,omitempty"`
}

func buildLinearGradient(c *compiler, spec LayerSpec) (effects.Layer, error) {
	var s LinearGradientSpec
	if err := spec.Decode(&s); err != nil {
		return nil, err
	}
	stops, err := c.stops(s.Stops)
	if err != nil {
		return nil, err
	}
	if s.Direction == "" {
		s.Direction = "to-bottom"
	}
	return effects.NewLinearGradient(stops, s.Direction)
}

// RadialGradientSpec centres the gradient at (CX, CY) in normalised
// coordinates; both default to 0.5.
type RadialGradientSpec struct {
	Element `yaml:",inline"`
	Stops   []StopSpec `yaml:"stops"`
	CX      *float64   `yaml:"cx,omitempty"`
	CY      *float64   `yaml:"cy,omitempty"`
}

func buildRadialGradient(c *compiler, spec LayerSpec) (effects.Layer, error) {
	var s RadialGradientSpec
	if err := spec.Decode(&s); err != nil {
		return nil, err
	}
	stops, err := c.stops(s.Stops)
	if err != nil {
		return nil, err
	}
	return effects.NewRadialGradient(stops, valueOr(s.CX, 0.5), valueOr(s.CY, 0.5))
}

type ParticlesSpec struct {
	Element `yaml:",inline"`
	Kind    string  `yaml:"kind,omitempty"`
	Count   int     `yaml:"count"`
	Color   string  `yaml:"color"`
	MinSize float64 `yaml:"min_size"`
	MaxSize float64 `yaml:"max_size"`
	Speed   float64 `yaml:"speed,omitempty"`
	Opacity float64 `yaml:"opacity,omitempty"`
	Seed    uint64  `yaml:"seed,omitempty"`
}

func buildParticles(c *compiler, spec LayerSpec) (effects.Layer, error) {
	var s ParticlesSpec
	if err := spec.Decode(&s); err != nil {
		return nil, err
	}
	col, err := c.color(s.Color)
	if err != nil {
		return nil, err
	}
	return effects.NewParticles(effects.ParticleConfig{
		Kind:    s.Kind,
		Count:   s.Count,
		Color:   col,
		MinSize: s.MinSize,
		MaxSize: s.MaxSize,
		Speed:   s.Speed,
		Opacity: s.Opacity,
		Seed:    s.Seed,
	})
}

// CameraKeyframe pins the camera centre (canvas pixels) and zoom.
type CameraKeyframe struct {
	At   Time    `yaml:"at"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	Zoom float64 `yaml:"zoom,omitempty"`
}

// CameraSpec moves its child layers as one picture.
type CameraSpec struct {
	Element     `yaml:",inline"`
	Wiggle      float64          `yaml:"wiggle,omitempty"`
	WiggleSpeed float64          `yaml:"wiggle_speed,omitempty"`
	Keyframes   []CameraKeyframe `yaml:"keyframes,omitempty"`
	Layers      []LayerSpec      `yaml:"layers"`
}

func buildCamera(c *compiler, spec LayerSpec) (effects.Layer, error) {
	var s CameraSpec
	if err := spec.Decode(&s); err != nil {
		return nil, err
	}
	children, err := c.layers(s.Layers)
	if err != nil {
		return nil, err
	}
	cam := &effects.Camera{Wiggle: s.Wiggle, WiggleSpeed: s.WiggleSpeed, Children: children}
	for i, k := range s.Keyframes {
		f := c.frames(k.At)
		if i > 0 && f <= cam.Keyframes[i-1].Frame {
			return nil, fmt.Errorf("camera keyframes must be in increasing time order")
		}
		cam.Keyframes = append(cam.Keyframes, renderer.Keyframe{Frame: f, X: k.X, Y: k.Y, Zoom: k.Zoom})
	}
	return cam, nil
}

// GlowSpec draws a coloured halo under its child layers.
type GlowSpec struct {
	Element   `yaml:",inline"`
	Color     string      `yaml:"color"`
	Size      float64     `yaml:"size"`
	Intensity *TrackSpec  `yaml:"intensity,omitempty"`
	Layers    []LayerSpec `yaml:"layers"`
}

func buildGlow(c *compiler, spec LayerSpec) (effects.Layer, error) {
	var s GlowSpec
	if err := spec.Decode(&s); err != nil {
		return nil, err
	}
	col, err := c.color(s.Color)
	if err != nil {
		return nil, err
	}
	intensity, err := s.Intensity.Track(c.fps)
	if err != nil {
		return nil, fmt.Errorf("glow intensity: %w", err)
	}
	children, err := c.layers(s.Layers)
	if err != nil {
		return nil, err
	}
	return &effects.Glow{Color: col, Intensity: intensity, Size: s.Size, Children: children}, nil
}

// TextSpec is a block of text. Text accepts "{colour:words}" markup where
// colour is a palette name or a literal.
type TextSpec struct {
	Element    `yaml:",inline"`
	Text       string      `yaml:"text"`
	Font       string      `yaml:"font"`
	Size       float64     `yaml:"size"`
	Color      string      `yaml:"color,omitempty"`
	X          float64     `yaml:"x,omitempty"`
	Y          float64     `yaml:"y,omitempty"`
	MaxWidth   float64     `yaml:"max_width,omitempty"`
	LineHeight float64     `yaml:"line_height,omitempty"`
	Split      string      `yaml:"split,omitempty"`
	Reveal     *RevealSpec `yaml:"reveal,omitempty"`
}

// RevealSpec animates text chunk by chunk. Style is static, stream, or a
// flip style (stomp, swipe, elastic).
type RevealSpec struct {
	Style string `yaml:"style"`
	// stream
	Delay    Time      `yaml:"delay,omitempty"`
	Stagger  Time      `yaml:"stagger,omitempty"`
	Duration Time      `yaml:"duration,omitempty"`
	Easing   string    `yaml:"easing,omitempty"`
	From     *FromSpec `yaml:"from,omitempty"`
	// flip
	Hold       Time    `yaml:"hold,omitempty"`
	Transition Time    `yaml:"transition,omitempty"`
	Distance   float64 `yaml:"distance,omitempty"`
}

// FromSpec is where streamed chunks start. Rotation is in degrees; scale
// defaults to 1 and opacity to 0.
type FromSpec struct {
	Opacity  float64  `yaml:"opacity,omitempty"`
	Scale    *float64 `yaml:"scale,omitempty"`
	X        float64  `yaml:"x,omitempty"`
	Y        float64  `yaml:"y,omitempty"`
	Rotation float64  `yaml:"rotation,omitempty"`
}

func buildText(c *compiler, spec LayerSpec) (effects.Layer, error) {
	var s TextSpec
	if err := spec.Decode(&s); err != nil {
		return nil, err
	}
	f, err := c.font(s.Font)
	if err != nil {
		return nil, err
	}
	col, err := c.colorOr(s.Color, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	if err != nil {
		return nil, err
	}
	spans, err := textfx.ParseMarkup(s.Text, c.markupColor)
	if err != nil {
		return nil, err
	}
	split := s.Split
	if split == "" {
		split = textfx.UnitWords
	}
	g, err := textfx.ParseGranularity(split)
	if err != nil {
		return nil, err
	}
	chunks, err := textfx.SplitSpans(spans, g)
	if err != nil {
		return nil, err
	}

	cfg := textfx.TextConfig{
		Font:       f,
		Size:       s.Size,
		Color:      col,
		Chunks:     chunks,
		Separator:  g.Separator(),
		MaxWidth:   s.MaxWidth,
		LineHeight: s.LineHeight,
		OffsetX:    s.X,
		OffsetY:    s.Y,
	}
	if s.Reveal != nil {
		cfg.Animator, cfg.Stacked, err = c.reveal(*s.Reveal, len(chunks))
		if err != nil {
			return nil, err
		}
	}
	return textfx.NewTextLayer(cfg)
}

// reveal builds the chunk animator and reports whether chunks share one
// position.
func (c *compiler) reveal(r RevealSpec, count int) (textfx.Animator, bool, error) {
	switch r.Style {
	case "", "static":
		return textfx.Static{}, false, nil
	case "stream":
		easing, err := curve.EasingByName(r.Easing)
		if err != nil {
			return nil, false, err
		}
		st, err := textfx.NewStagger(c.frames(r.Delay), c.frames(r.Stagger), c.frames(r.Duration), easing)
		if err != nil {
			return nil, false, err
		}
		from := textfx.ChunkState{Scale: 1}
		if r.From != nil {
			from = textfx.ChunkState{
				Opacity:  r.From.Opacity,
				Scale:    valueOr(r.From.Scale, 1),
				OffsetX:  r.From.X,
				OffsetY:  r.From.Y,
				Rotation: r.From.Rotation * math.Pi / 180,
			}
		}
		return &textfx.Stream{Stagger: st, From: from}, false, nil
	}
	fl, err := textfx.NewFlip(r.Style, c.frames(r.Hold), c.frames(r.Transition), count, c.fps)
	if err != nil {
		return nil, false, err
	}
	if r.Distance != 0 {
		fl.Distance = r.Distance
	}
	return fl, true, nil
}

// CardSpec is a rounded panel with an optional icon image, a title and a
// body line.
type CardSpec struct {
	Element     `yaml:",inline"`
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Radius      float64 `yaml:"radius,omitempty"`
	Fill        string  `yaml:"fill,omitempty"`
	Border      string  `yaml:"border,omitempty"`
	BorderWidth int     `yaml:"border_width,omitempty"`
	Layout      string  `yaml:"layout,omitempty"`
	Padding     int     `yaml:"padding,omitempty"`
	Icon        string  `yaml:"icon,omitempty"`
	IconSize    int     `yaml:"icon_size,omitempty"`
	Title       string  `yaml:"title"`
	TitleFont   string  `yaml:"title_font"`
	TitleSize   float64 `yaml:"title_size"`
	Body        string  `yaml:"body,omitempty"`
	BodyFont    string  `yaml:"body_font,omitempty"`
	BodySize    float64 `yaml:"body_size,omitempty"`
	TextColor   string  `yaml:"text_color,omitempty"`
	BodyColor   string  `yaml:"body_color,omitempty"`
	X           float64 `yaml:"x,omitempty"`
	Y           float64 `yaml:"y,omitempty"`
}

func buildCard(c *compiler, spec LayerSpec) (effects.Layer, error) {
	var s CardSpec
	if err := spec.Decode(&s); err != nil {
		return nil, err
	}
	cfg := scene.CardConfig{
		Width:       s.Width,
		Height:      s.Height,
		Radius:      s.Radius,
		BorderWidth: s.BorderWidth,
		Layout:      s.Layout,
		Padding:     s.Padding,
		IconSize:    s.IconSize,
		TitleSize:   s.TitleSize,
		BodySize:    s.BodySize,
	}
	var err error
	colors := []struct {
		src string
		dst *color.Color
	}{
		{s.Fill, &cfg.Fill}, {s.Border, &cfg.Border}, {s.TextColor, &cfg.TextColor}, {s.BodyColor, &cfg.BodyColor},
	}
	for _, p := range colors {
		if p.src == "" {
			continue
		}
		col, err := c.color(p.src)
		if err != nil {
			return nil, err
		}
		*p.dst = col
	}
	if cfg.TitleFont, err = c.font(s.TitleFont); err != nil {
		return nil, err
	}
	if cfg.Title, err = textfx.ParseMarkup(s.Title, c.markupColor); err != nil {
		return nil, err
	}
	if s.Body != "" {
		font := s.BodyFont
		if font == "" {
			font = s.TitleFont
		}
		if cfg.BodyFont, err = c.font(font); err != nil {
			return nil, err
		}
		if cfg.Body, err = textfx.ParseMarkup(s.Body, c.markupColor); err != nil {
			return nil, err
		}
	}
	if s.Icon != "" {
		if cfg.Icon, err = c.image(s.Icon); err != nil {
			return nil, err
		}
	}
	return scene.NewCard(cfg, s.X, s.Y)
}

type PictureSpec struct {
	Element `yaml:",inline"`
	Image   string  `yaml:"image"`
	Width   int     `yaml:"width"`
	Height  int     `yaml:"height"`
	Fit     string  `yaml:"fit,omitempty"`
	Radius  float64 `yaml:"radius,omitempty"`
	X       float64 `yaml:"x,omitempty"`
	Y       float64 `yaml:"y,omitempty"`
}

func buildPicture(c *compiler, spec LayerSpec) (effects.Layer, error) {
	var s PictureSpec
	if err := spec.Decode(&s); err != nil {
		return nil, err
	}
	img, err := c.image(s.Image)
	if err != nil {
		return nil, err
	}
	return scene.NewPicture(scene.PictureConfig{Image: img, Width: s.Width, Height: s.Height, Fit: s.Fit, Radius: s.Radius}, s.X, s.Y)
}

// MockupSpec frames a screenshot in browser chrome Width pixels wide.
type MockupSpec struct {
	Element `yaml:",inline"`
	Image   string  `yaml:"image"`
	Width   int     `yaml:"width"`
	X       float64 `yaml:"x,omitempty"`
	Y       float64 `yaml:"y,omitempty"`
}

func buildMockup(c *compiler, spec LayerSpec) (effects.Layer, error) {
	var s MockupSpec
	if err := spec.Decode(&s); err != nil {
		return nil, err
	}
	img, err := c.image(s.Image)
	if err != nil {
		return nil, err
	}
	return scene.NewMockup(img, s.Width, s.X, s.Y)
}

type QRSpec struct {
	Element    `yaml:",inline"`
	Content    string  `yaml:"content"`
	Size       int     `yaml:"size"`
	Foreground string  `yaml:"foreground,omitempty"`
	Background string  `yaml:"background,omitempty"`
	Level      string  `yaml:"level,omitempty"`
	X          float64 `yaml:"x,omitempty"`
	Y          float64 `yaml:"y,omitempty"`
}

func buildQR(c *compiler, spec LayerSpec) (effects.Layer, error) {
	var s QRSpec
	if err := spec.Decode(&s); err != nil {
		return nil, err
	}
	cfg := scene.QRConfig{Content: s.Content, Size: s.Size, Level: s.Level}
	if s.Foreground != "" {
		col, err := c.color(s.Foreground)
		if err != nil {
			return nil, err
		}
		cfg.Foreground = col
	}
	if s.Background != "" {
		col, err := c.color(s.Background)
		if err != nil {
			return nil, err
		}
		cfg.Background = col
	}
	return scene.NewQRCode(cfg, s.X, s.Y)
}

// font and image fall back to the built-in fonts when no library is
// loaded.
func (c *compiler) font(id string) (*opentype.Font, error) {
	if c.lib == nil {
		return source.LoadFont(id, "")
	}
	return c.lib.Font(id)
}

func (c *compiler) image(id string) (*image.RGBA, error) {
	if c.lib == nil {
		return nil, fmt.Errorf("%w: image %q", source.ErrAssetNotFound, id)
	}
	return c.lib.Image(id)
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
