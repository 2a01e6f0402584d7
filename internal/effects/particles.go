package effects

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ivlev/promo2video/internal/curve"
	"github.com/ivlev/promo2video/internal/renderer"
)

// ParticleConfig describes a particle field. Sizes are diameters in pixels.
type ParticleConfig struct {
	Kind    string
	Count   int
	Color   color.NRGBA
	MinSize float64
	MaxSize float64
	Speed   float64
	Opacity float64
	Seed    uint64
}

type particleKind func(p *Particles, dst *image.RGBA, frame int)

var particleKinds = map[string]particleKind{
	"":         drawDots,
	"dots":     drawDots,
	"confetti": drawConfetti,
}

// ParticleKinds lists the registered particle kinds.
func ParticleKinds() []string {
	var names []string
	for n := range particleKinds {
		if n != "" {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// particle holds the per-index constants drawn from the seed. Nothing in
// here changes with the frame.
type particle struct {
	x, y   float64
	size   float64
	phase  float64
	drift  float64
	vel    float64
	alpha  float64
	spin   float64
	tint   color.NRGBA
	sprite *image.RGBA
	mask   *image.Alpha
}

// Particles is a field of independent particles. Positions are a function
// of the frame and the particle's own seed only.
type Particles struct {
	cfg       ParticleConfig
	draw      particleKind
	particles []particle
}

// NewParticles validates cfg and precomputes every particle.
func NewParticles(cfg ParticleConfig) (*Particles, error) {
	kind, ok := particleKinds[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: particle kind %q", ErrUnknownMode, cfg.Kind)
	}
	if cfg.Count < 0 {
		return nil, fmt.Errorf("particle count must not be negative, got %d", cfg.Count)
	}
	if cfg.MinSize <= 0 || cfg.MaxSize < cfg.MinSize {
		return nil, fmt.Errorf("invalid particle size range [%g, %g]", cfg.MinSize, cfg.MaxSize)
	}
	if cfg.Opacity == 0 {
		cfg.Opacity = 1
	}

	p := &Particles{cfg: cfg, draw: kind, particles: make([]particle, cfg.Count)}
	base := colorful.Color{R: float64(cfg.Color.R) / 255, G: float64(cfg.Color.G) / 255, B: float64(cfg.Color.B) / 255}
	h, s, v := base.Hsv()
	for i := range p.particles {
		rng := newRand(cfg.Seed, uint64(i))
		pt := particle{
			x:     rng.float(),
			y:     rng.float(),
			size:  cfg.MinSize + rng.float()*(cfg.MaxSize-cfg.MinSize),
			phase: rng.float() * 2 * math.Pi,
			drift: 0.5 + rng.float(),
			vel:   0.5 + rng.float(),
			alpha: 0.4 + 0.6*rng.float(),
			spin:  (rng.float() - 0.5) * 0.3,
		}
		hue := math.Mod(h+(rng.float()-0.5)*60+360, 360)
		r, g, b := colorful.Hsv(hue, s, v).Clamped().RGB255()
		pt.tint = color.NRGBA{R: r, G: g, B: b, A: cfg.Color.A}

		d := int(math.Ceil(pt.size)) + 2
		if cfg.Kind == "confetti" {
			pt.sprite = image.NewRGBA(image.Rect(0, 0, d, int(math.Ceil(pt.size*0.6))+2))
			renderer.FillMask(pt.sprite, renderer.RoundedRect(d, pt.sprite.Rect.Dy(), 1), image.Point{}, pt.tint)
		} else {
			c := float64(d) / 2
			pt.mask = renderer.Circle(d, d, c, c, pt.size/2)
		}
		p.particles[i] = pt
	}
	return p, nil
}

func (p *Particles) Draw(dst *image.RGBA, frame int) {
	p.draw(p, dst, frame)
}

// drawDots floats soft dots upwards, wrapping at the top edge, with a
// sideways sway and a slow twinkle.
func drawDots(p *Particles, dst *image.RGBA, frame int) {
	w, h := float64(dst.Rect.Dx()), float64(dst.Rect.Dy())
	f := float64(frame)
	for _, pt := range p.particles {
		y := frac(pt.y - f*p.cfg.Speed*pt.vel*0.002)
		x := pt.x + 0.02*pt.drift*math.Sin(f*0.05*p.cfg.Speed+pt.phase)
		twinkle := 0.6 + 0.4*math.Sin(f*0.1+pt.phase)
		alpha := curve.Clamp01(p.cfg.Opacity * pt.alpha * twinkle)
		if alpha == 0 {
			continue
		}
		d := float64(pt.mask.Rect.Dx())
		at := image.Pt(
			dst.Rect.Min.X+int(math.Round(x*w-d/2)),
			dst.Rect.Min.Y+int(math.Round(y*(h+d)-d)),
		)
		renderer.FillMask(dst, pt.mask, at, renderer.WithAlpha(p.cfg.Color, alpha))
	}
}

// drawConfetti drops tumbling paper strips that wrap at the bottom edge.
func drawConfetti(p *Particles, dst *image.RGBA, frame int) {
	w, h := float64(dst.Rect.Dx()), float64(dst.Rect.Dy())
	f := float64(frame)
	for _, pt := range p.particles {
		sw, sh := pt.sprite.Rect.Dx(), pt.sprite.Rect.Dy()
		y := frac(pt.y + f*p.cfg.Speed*pt.vel*0.003)
		x := pt.x + 0.03*pt.drift*math.Sin(f*0.04*p.cfg.Speed+pt.phase)
		rot := pt.phase + f*pt.spin*p.cfg.Speed
		// Flattening the strip on one axis reads as tumbling.
		flip := math.Cos(f*0.08*pt.drift + pt.phase)
		a := renderer.Centered(
			float64(dst.Rect.Min.X)+x*w,
			float64(dst.Rect.Min.Y)+y*(h+float64(sw))-float64(sw)/2,
			sw, sh, 1, rot,
		)
		a.ScaleY = math.Max(0.15, math.Abs(flip))
		renderer.DrawTransformed(dst, pt.sprite, a, curve.Clamp01(p.cfg.Opacity*pt.alpha))
	}
}

func frac(v float64) float64 {
	return v - math.Floor(v)
}

// splitmix64 is the SplitMix64 finaliser; consecutive inputs give
// uncorrelated outputs.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// rand is a tiny splitmix64 stream seeded from (seed, index).
type rand struct{ state uint64 }

func newRand(seed, index uint64) *rand {
	return &rand{state: splitmix64(seed ^ splitmix64(index))}
}

// float returns a value in [0, 1).
func (r *rand) float() float64 {
	r.state += 0x9e3779b97f4a7c15
	return float64(splitmix64(r.state)>>11) / (1 << 53)
}

// Noise is a stable pseudo-random value in [0, 1) for (seed, index).
func Noise(seed, index uint64) float64 {
	return newRand(seed, index).float()
}
