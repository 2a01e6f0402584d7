package curve

import (
	"fmt"
	"math"
)

// settleThreshold is the distance from the target under which a spring
// counts as at rest.
const settleThreshold = 0.005

// SpringConfig holds the physical parameters of a damped oscillator that
// travels from 0 to 1 starting at rest.
type SpringConfig struct {
	Mass      float64 `yaml:"mass"`
	Stiffness float64 `yaml:"stiffness"`
	Damping   float64 `yaml:"damping"`
	// OvershootClamping caps the output at 1.
	OvershootClamping bool `yaml:"overshoot_clamping"`
}

// DefaultSpringConfig matches the usual web animation defaults.
func DefaultSpringConfig() SpringConfig {
	return SpringConfig{Mass: 1, Stiffness: 100, Damping: 10}
}

// SpringFromRatio builds a config from a damping ratio instead of a
// damping coefficient. Ratio 1 is critical damping.
func SpringFromRatio(ratio, stiffness, mass float64) SpringConfig {
	return SpringConfig{
		Mass:      mass,
		Stiffness: stiffness,
		Damping:   ratio * 2 * math.Sqrt(stiffness*mass),
	}
}

// DampingRatio is damping / (2*sqrt(stiffness*mass)).
func (c SpringConfig) DampingRatio() float64 {
	return c.Damping / (2 * math.Sqrt(c.Stiffness*c.Mass))
}

// Validate rejects parameters with no physical meaning.
func (c SpringConfig) Validate() error {
	switch {
	case !finite(c.Mass) || c.Mass <= 0:
		return fmt.Errorf("%w: spring mass must be > 0, got %g", ErrDegenerate, c.Mass)
	case !finite(c.Stiffness) || c.Stiffness <= 0:
		return fmt.Errorf("%w: spring stiffness must be > 0, got %g", ErrDegenerate, c.Stiffness)
	case !finite(c.Damping) || c.Damping < 0:
		return fmt.Errorf("%w: spring damping must be >= 0, got %g", ErrDegenerate, c.Damping)
	}
	return nil
}

// Spring evaluates a damped harmonic oscillator in closed form. Any frame
// can be queried in any order; nothing is stepped or cached.
type Spring struct {
	cfg       SpringConfig
	fps       float64
	omega     float64
	zeta      float64
	timeScale float64
}

// NewSpring validates cfg. When durationInFrames > 0 the time axis is
// stretched so the spring settles exactly at that frame; the stretch
// factor comes from the analytic settle time, so overshoot and
// oscillation count stay those of the physical spring.
func NewSpring(fps float64, cfg SpringConfig, durationInFrames float64) (*Spring, error) {
	if !finite(fps) || fps <= 0 {
		return nil, fmt.Errorf("%w: frame rate must be > 0, got %g", ErrDegenerate, fps)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !finite(durationInFrames) || durationInFrames < 0 {
		return nil, fmt.Errorf("%w: spring duration must be >= 0, got %g", ErrDegenerate, durationInFrames)
	}

	s := &Spring{
		cfg:       cfg,
		fps:       fps,
		omega:     math.Sqrt(cfg.Stiffness / cfg.Mass),
		zeta:      cfg.DampingRatio(),
		timeScale: 1,
	}
	if durationInFrames > 0 {
		settle, err := s.settleSeconds()
		if err != nil {
			return nil, err
		}
		s.timeScale = settle * fps / durationInFrames
	}
	return s, nil
}

// SpringValue is a one-shot evaluation without duration normalisation.
func SpringValue(frame, fps float64, cfg SpringConfig) (float64, error) {
	s, err := NewSpring(fps, cfg, 0)
	if err != nil {
		return 0, err
	}
	return s.At(frame), nil
}

// At returns the spring position after elapsed frames. Negative or NaN
// input means the spring has not started.
func (s *Spring) At(frame float64) float64 {
	if !(frame > 0) {
		return 0
	}
	if math.IsInf(frame, 1) {
		return 1
	}
	t := frame * s.timeScale / s.fps
	v := 1 + s.displacement(t)
	if s.cfg.OvershootClamping && v > 1 {
		v = 1
	}
	return v
}

// NaturalFrames is the number of frames the unscaled spring needs to
// settle.
func (s *Spring) NaturalFrames() (float64, error) {
	settle, err := s.settleSeconds()
	if err != nil {
		return 0, err
	}
	return settle * s.fps, nil
}

// displacement is the signed distance from the target at t seconds for an
// oscillator released at x0 = -1 with zero velocity.
func (s *Spring) displacement(t float64) float64 {
	const x0 = -1.0
	w0, z := s.omega, s.zeta

	switch {
	case math.Abs(z-1) < 1e-6:
		return math.Exp(-w0*t) * (x0 + w0*x0*t)
	case z < 1:
		wd := w0 * math.Sqrt(1-z*z)
		env := math.Exp(-z * w0 * t)
		return env * (x0*math.Cos(wd*t) + (z*w0*x0/wd)*math.Sin(wd*t))
	default:
		wr := w0 * math.Sqrt(z*z-1)
		r1 := -z*w0 + wr
		r2 := -z*w0 - wr
		a := -r2 * x0 / (r1 - r2)
		b := x0 - a
		return a*math.Exp(r1*t) + b*math.Exp(r2*t)
	}
}

// settleSeconds finds the time after which |displacement| stays below
// settleThreshold. Under-damped springs use the decay envelope; the other
// regimes decay monotonically and are bisected.
func (s *Spring) settleSeconds() (float64, error) {
	w0, z := s.omega, s.zeta
	if z == 0 {
		return 0, fmt.Errorf("%w: an undamped spring never settles", ErrDegenerate)
	}
	if z < 1 && math.Abs(z-1) >= 1e-6 {
		wd := w0 * math.Sqrt(1-z*z)
		k := z * w0 / wd
		amp := math.Sqrt(1 + k*k)
		return math.Log(amp/settleThreshold) / (z * w0), nil
	}

	hi := 1 / w0
	for i := 0; i < 64 && math.Abs(s.displacement(hi)) >= settleThreshold; i++ {
		hi *= 2
	}
	lo := 0.0
	for i := 0; i < 80; i++ {
		mid := (lo + hi) / 2
		if math.Abs(s.displacement(mid)) >= settleThreshold {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi, nil
}
