package effects

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
)

// fieldCell is the size in pixels of one sample of a smooth colour field;
// the sampled grid is upscaled with bilinear filtering.
const fieldCell = 8

// paintField samples fn on a coarse grid in normalised coordinates and
// composites the bilinear upscale over dst. Grid sample (gx, gy) lands on
// the pixel centre ((gx+0.5)*fieldCell, (gy+0.5)*fieldCell).
func paintField(dst *image.RGBA, fn func(u, v float64) color.RGBA) {
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return
	}
	gw, gh := w/fieldCell+2, h/fieldCell+2
	grid := image.NewRGBA(image.Rect(0, 0, gw, gh))
	for gy := 0; gy < gh; gy++ {
		v := (float64(gy) + 0.5) * fieldCell / float64(h)
		for gx := 0; gx < gw; gx++ {
			u := (float64(gx) + 0.5) * fieldCell / float64(w)
			grid.SetRGBA(gx, gy, fn(u, v))
		}
	}
	dr := image.Rect(b.Min.X, b.Min.Y, b.Min.X+gw*fieldCell, b.Min.Y+gh*fieldCell)
	draw.BiLinear.Scale(dst, dr, grid, grid.Bounds(), draw.Over, nil)
}

// Anchor is one colour of a gradient field at a normalised position.
type Anchor struct {
	Color color.NRGBA
	X, Y  float64
}

// animation moves the anchors for a phase. Implementations must not
// modify the input slice.
type animation func(anchors []Anchor, phase float64) []Anchor

var gradientModes = map[string]animation{
	"":       func(a []Anchor, _ float64) []Anchor { return a },
	"none":   func(a []Anchor, _ float64) []Anchor { return a },
	"rotate": rotateAnchors,
	"pulse":  pulseAnchors,
	"morph":  morphAnchors,
	"shift":  shiftAnchors,
}

// GradientModes lists the registered animation modes.
func GradientModes() []string {
	var names []string
	for n := range gradientModes {
		if n != "" {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

func rotateAnchors(in []Anchor, phase float64) []Anchor {
	sin, cos := math.Sincos(phase)
	out := make([]Anchor, len(in))
	for i, a := range in {
		dx, dy := a.X-0.5, a.Y-0.5
		out[i] = Anchor{Color: a.Color, X: 0.5 + dx*cos - dy*sin, Y: 0.5 + dx*sin + dy*cos}
	}
	return out
}

func pulseAnchors(in []Anchor, phase float64) []Anchor {
	out := make([]Anchor, len(in))
	for i, a := range in {
		k := 1 + 0.25*math.Sin(phase+float64(i)*math.Pi/2)
		out[i] = Anchor{Color: a.Color, X: 0.5 + (a.X-0.5)*k, Y: 0.5 + (a.Y-0.5)*k}
	}
	return out
}

func morphAnchors(in []Anchor, phase float64) []Anchor {
	out := make([]Anchor, len(in))
	for i, a := range in {
		fi := float64(i)
		out[i] = Anchor{
			Color: a.Color,
			X:     a.X + 0.15*math.Sin(phase+fi*1.7),
			Y:     a.Y + 0.15*math.Cos(phase*0.8+fi*2.3),
		}
	}
	return out
}

func shiftAnchors(in []Anchor, phase float64) []Anchor {
	out := make([]Anchor, len(in))
	for i, a := range in {
		x := math.Mod(a.X+phase*0.1, 1)
		out[i] = Anchor{Color: a.Color, X: x, Y: a.Y}
	}
	return out
}

// FourColorGradient blends its anchors with inverse-square-distance
// weights in linear RGB. Despite the name any number of anchors works.
type FourColorGradient struct {
	anchors []Anchor
	mode    animation
	speed   float64
}

// NewFourColorGradient validates the mode name against the registry.
func NewFourColorGradient(anchors []Anchor, mode string, speed float64) (*FourColorGradient, error) {
	if len(anchors) == 0 {
		return nil, fmt.Errorf("gradient needs at least one anchor")
	}
	anim, ok := gradientModes[mode]
	if !ok {
		return nil, fmt.Errorf("%w: gradient animation %q", ErrUnknownMode, mode)
	}
	return &FourColorGradient{
		anchors: append([]Anchor(nil), anchors...),
		mode:    anim,
		speed:   speed,
	}, nil
}

// Phase maps a frame onto the animation phase.
func (g *FourColorGradient) Phase(frame int) float64 {
	return float64(frame) * g.speed * 0.05
}

func (g *FourColorGradient) Draw(dst *image.RGBA, frame int) {
	anchors := g.mode(g.anchors, g.Phase(frame))
	aspect := float64(dst.Rect.Dx()) / math.Max(1, float64(dst.Rect.Dy()))

	type linear struct{ r, g, b, a float64 }
	lin := make([]linear, len(anchors))
	for i, a := range anchors {
		c := colorful.Color{R: float64(a.Color.R) / 255, G: float64(a.Color.G) / 255, B: float64(a.Color.B) / 255}
		r, gg, b := c.LinearRgb()
		lin[i] = linear{r, gg, b, float64(a.Color.A) / 255}
	}

	paintField(dst, func(u, v float64) color.RGBA {
		var sum, r, gg, b, alpha float64
		for i, a := range anchors {
			dx := (u - a.X) * aspect
			dy := v - a.Y
			w := 1 / (dx*dx + dy*dy + 1e-3)
			sum += w
			r += w * lin[i].r
			gg += w * lin[i].g
			b += w * lin[i].b
			alpha += w * lin[i].a
		}
		c := colorful.LinearRgb(r/sum, gg/sum, b/sum).Clamped()
		return premultiply(c, alpha/sum)
	})
}

func premultiply(c colorful.Color, alpha float64) color.RGBA {
	alpha = math.Max(0, math.Min(1, alpha))
	return color.RGBA{
		R: uint8(c.R*alpha*255 + 0.5),
		G: uint8(c.G*alpha*255 + 0.5),
		B: uint8(c.B*alpha*255 + 0.5),
		A: uint8(alpha*255 + 0.5),
	}
}

// Stop is a gradient colour at a position in [0, 1].
type Stop struct {
	Color    color.NRGBA
	Position float64
}

// colorAt interpolates premultiplied colours between sorted stops, the
// way CSS gradients do, so fading to transparent does not darken.
func colorAt(stops []Stop, t float64) color.RGBA {
	if t <= stops[0].Position {
		return toPremul(stops[0].Color)
	}
	for i := 1; i < len(stops); i++ {
		if t <= stops[i].Position {
			a, b := stops[i-1], stops[i]
			span := b.Position - a.Position
			k := 0.0
			if span > 0 {
				k = (t - a.Position) / span
			}
			return lerpPremul(toPremul(a.Color), toPremul(b.Color), k)
		}
	}
	return toPremul(stops[len(stops)-1].Color)
}

func toPremul(c color.NRGBA) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}

func lerpPremul(a, b color.RGBA, k float64) color.RGBA {
	l := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*k + 0.5) }
	return color.RGBA{R: l(a.R, b.R), G: l(a.G, b.G), B: l(a.B, b.B), A: l(a.A, b.A)}
}

func sortedStops(stops []Stop) ([]Stop, error) {
	if len(stops) < 2 {
		return nil, fmt.Errorf("gradient needs at least two stops, got %d", len(stops))
	}
	out := append([]Stop(nil), stops...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// Directions accepted by NewLinearGradient, as CSS angles in degrees.
var directions = map[string]float64{
	"to-top":          0,
	"to-top-right":    45,
	"to-right":        90,
	"to-bottom-right": 135,
	"to-bottom":       180,
	"to-bottom-left":  225,
	"to-left":         270,
	"to-top-left":     315,
}

// LinearGradient is a static CSS-style linear gradient.
type LinearGradient struct {
	stops []Stop
	angle float64
}

// NewLinearGradient accepts a direction name ("to-bottom-right") or an
// angle such as "135deg".
func NewLinearGradient(stops []Stop, direction string) (*LinearGradient, error) {
	sorted, err := sortedStops(stops)
	if err != nil {
		return nil, err
	}
	angle, ok := directions[direction]
	if !ok {
		if _, err := fmt.Sscanf(direction, "%gdeg", &angle); err != nil {
			return nil, fmt.Errorf("%w: gradient direction %q", ErrUnknownMode, direction)
		}
	}
	return &LinearGradient{stops: sorted, angle: angle}, nil
}

func (g *LinearGradient) Draw(dst *image.RGBA, _ int) {
	w, h := float64(dst.Rect.Dx()), float64(dst.Rect.Dy())
	sin, cos := math.Sincos(g.angle * math.Pi / 180)
	length := math.Abs(w*sin) + math.Abs(h*cos)
	paintField(dst, func(u, v float64) color.RGBA {
		x, y := (u-0.5)*w, (v-0.5)*h
		t := (x*sin-y*cos)/length + 0.5
		return colorAt(g.stops, t)
	})
}

// RadialGradient is a circle centred at (CX, CY) whose stops run from the
// centre to the farthest corner.
type RadialGradient struct {
	stops  []Stop
	cx, cy float64
}

func NewRadialGradient(stops []Stop, cx, cy float64) (*RadialGradient, error) {
	sorted, err := sortedStops(stops)
	if err != nil {
		return nil, err
	}
	return &RadialGradient{stops: sorted, cx: cx, cy: cy}, nil
}

func (g *RadialGradient) Draw(dst *image.RGBA, _ int) {
	w, h := float64(dst.Rect.Dx()), float64(dst.Rect.Dy())
	cx, cy := g.cx*w, g.cy*h
	reach := math.Hypot(math.Max(cx, w-cx), math.Max(cy, h-cy))
	paintField(dst, func(u, v float64) color.RGBA {
		return colorAt(g.stops, math.Hypot(u*w-cx, v*h-cy)/reach)
	})
}
