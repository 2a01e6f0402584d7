package textfx

import (
	"errors"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/promo2video/internal/renderer"
)

// spritePad keeps antialiased edges inside a chunk sprite.
const spritePad = 2

// NewFace makes a face for one draw call. opentype faces cache glyphs and
// are not safe for concurrent use, the parsed Font is.
func NewFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
}

// Measure is the advance width of spans in pixels.
func Measure(face font.Face, spans []Span) float64 {
	var w fixed.Int26_6
	for _, s := range spans {
		w += font.MeasureString(face, s.Text)
	}
	return float64(w) / 64
}

// DrawSpans draws spans left to right with the baseline's left end at
// (x, y). Spans without a colour use def.
func DrawSpans(dst *image.RGBA, face font.Face, spans []Span, x, y float64, def color.Color) {
	d := font.Drawer{Dst: dst, Face: face, Dot: fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}}
	for _, s := range spans {
		c := s.Color
		if c == nil {
			c = def
		}
		d.Src = image.NewUniform(c)
		d.DrawString(s.Text)
	}
}

// TextConfig describes a block of animated text.
type TextConfig struct {
	Font   *opentype.Font
	Size   float64
	Color  color.Color
	Chunks []Chunk
	// Separator goes between consecutive chunks on a line.
	Separator string
	// Animator defaults to Static.
	Animator Animator
	// Stacked puts every chunk on the anchor instead of flowing them into
	// lines. Flip reveals use it.
	Stacked bool
	// MaxWidth wraps lines, as a fraction of the frame width; default 0.85.
	MaxWidth float64
	// LineHeight is a multiple of Size; default 1.2.
	LineHeight float64
	// OffsetX, OffsetY move the block centre away from the frame centre.
	OffsetX, OffsetY float64
}

// TextLayer lays out chunks centred on the frame and draws each one
// through its animator's state.
type TextLayer struct {
	cfg TextConfig
}

func NewTextLayer(cfg TextConfig) (*TextLayer, error) {
	if cfg.Font == nil {
		return nil, errors.New("text layer needs a font")
	}
	if cfg.Size <= 0 {
		return nil, errors.New("text size must be positive")
	}
	face, err := NewFace(cfg.Font, cfg.Size)
	if err != nil {
		return nil, err
	}
	face.Close()
	if cfg.Color == nil {
		cfg.Color = color.White
	}
	if cfg.Animator == nil {
		cfg.Animator = Static{}
	}
	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = 0.85
	}
	if cfg.LineHeight <= 0 {
		cfg.LineHeight = 1.2
	}
	return &TextLayer{cfg: cfg}, nil
}

// placement is a chunk's centre relative to the block centre.
type placement struct {
	cx, cy float64
	width  float64
}

// layout positions every chunk for a frame of the given width.
func (l *TextLayer) layout(face font.Face, frameWidth int) []placement {
	out := make([]placement, len(l.cfg.Chunks))
	widths := make([]float64, len(l.cfg.Chunks))
	for i, c := range l.cfg.Chunks {
		widths[i] = Measure(face, c.Spans)
	}
	if l.cfg.Stacked {
		for i := range out {
			out[i] = placement{width: widths[i]}
		}
		return out
	}

	sep := Measure(face, []Span{{Text: l.cfg.Separator}})
	limit := l.cfg.MaxWidth * float64(frameWidth)

	type line struct {
		first, last int
		width       float64
	}
	var lines []line
	for _, g := range l.breakGroups() {
		gw := 0.0
		for i := g[0]; i <= g[1]; i++ {
			gw += widths[i]
			if i > g[0] {
				gw += sep
			}
		}
		if n := len(lines); n > 0 && lines[n-1].width+sep+gw <= limit {
			lines[n-1].width += sep + gw
			lines[n-1].last = g[1]
			continue
		}
		lines = append(lines, line{first: g[0], last: g[1], width: gw})
	}

	lh := l.cfg.Size * l.cfg.LineHeight
	for li, ln := range lines {
		y := (float64(li) - float64(len(lines)-1)/2) * lh
		x := -ln.width / 2
		for i := ln.first; i <= ln.last; i++ {
			out[i] = placement{cx: x + widths[i]/2, cy: y, width: widths[i]}
			x += widths[i] + sep
		}
	}
	return out
}

// breakGroups returns inclusive chunk ranges that must stay on one line.
// With a separator every chunk is its own group; character chunks break
// only after whitespace.
func (l *TextLayer) breakGroups() [][2]int {
	var groups [][2]int
	start := 0
	for i, c := range l.cfg.Chunks {
		if l.cfg.Separator != "" || isSpace(c.Text()) || i == len(l.cfg.Chunks)-1 {
			groups = append(groups, [2]int{start, i})
			start = i + 1
		}
	}
	return groups
}

func isSpace(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' {
			return false
		}
	}
	return s != ""
}

func (l *TextLayer) Draw(dst *image.RGBA, frame int) {
	face, err := NewFace(l.cfg.Font, l.cfg.Size)
	if err != nil {
		return
	}
	defer face.Close()

	m := face.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()
	spriteH := ascent + descent + 2*spritePad
	centreX := float64(dst.Rect.Min.X) + float64(dst.Rect.Dx())/2 + l.cfg.OffsetX
	centreY := float64(dst.Rect.Min.Y) + float64(dst.Rect.Dy())/2 + l.cfg.OffsetY

	for i, p := range l.layout(face, dst.Rect.Dx()) {
		st := l.cfg.Animator.State(i, float64(frame))
		if !st.Visible || st.Opacity <= 0 || st.Scale == 0 || isSpace(l.cfg.Chunks[i].Text()) {
			continue
		}
		spriteW := int(math.Ceil(p.width)) + 2*spritePad
		sprite := renderer.NewFrame(spriteW, spriteH)
		DrawSpans(sprite, face, l.cfg.Chunks[i].Spans, spritePad, float64(spritePad+ascent), l.cfg.Color)
		a := renderer.Centered(centreX+p.cx+st.OffsetX, centreY+p.cy+st.OffsetY, spriteW, spriteH, st.Scale, st.Rotation)
		renderer.DrawTransformed(dst, sprite, a, st.Opacity)
		renderer.Release(sprite)
	}
}

// Anchor is the block centre, the pivot for whole-block motion.
func (l *TextLayer) Anchor(w, h int) (float64, float64) {
	return float64(w)/2 + l.cfg.OffsetX, float64(h)/2 + l.cfg.OffsetY
}

// Chunks exposes the laid-out units, mostly for inspection.
func (l *TextLayer) Chunks() []Chunk { return l.cfg.Chunks }
