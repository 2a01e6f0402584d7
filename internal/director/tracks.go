package director

import (
	"fmt"

	"github.com/ivlev/promo2video/internal/curve"
	"github.com/ivlev/promo2video/internal/scene"
)

// Track builds the described track for a frame rate. Times inside the
// spec are converted to frames here.
func (t *TrackSpec) Track(fps float64) (curve.Track, error) {
	if t == nil {
		return nil, nil
	}
	if t.Constant != nil {
		return curve.Const(*t.Constant), nil
	}
	easing, err := curve.EasingByName(t.Easing)
	if err != nil {
		return nil, err
	}
	delay := t.Delay.Frames(fps)

	var track curve.Track
	switch {
	case len(t.Keyframes) > 0:
		ext, err := curve.ParseExtrapolation(t.Extrapolate)
		if err != nil {
			return nil, err
		}
		in := make([]float64, len(t.Keyframes))
		out := make([]float64, len(t.Keyframes))
		for i, k := range t.Keyframes {
			in[i], out[i] = k.At.Frames(fps), k.Value
		}
		track, err = curve.NewCurve(in, out, curve.Options{Easing: easing, ExtrapolateLeft: ext, ExtrapolateRight: ext})
		if err != nil {
			return nil, err
		}
	case t.Spring != nil:
		cfg := *t.Spring
		if cfg == (curve.SpringConfig{}) {
			cfg = curve.DefaultSpringConfig()
		}
		if cfg.Mass == 0 {
			cfg.Mass = 1
		}
		sp, err := curve.NewSpring(fps, cfg, t.Duration.Frames(fps))
		if err != nil {
			return nil, err
		}
		track = curve.Affine{Track: sp, Mul: t.To - t.From, Add: t.From}
	case t.Oscillate != nil:
		o := t.Oscillate
		return curve.Oscillator{
			Amplitude: o.Amplitude,
			Frequency: o.Frequency,
			Phase:     o.Phase,
			Offset:    o.Offset,
			Start:     delay,
		}, nil
	default:
		d := t.Duration.Frames(fps)
		if d <= 0 {
			return nil, fmt.Errorf("tween from %g to %g needs a positive duration", t.From, t.To)
		}
		track, err = curve.NewCurve([]float64{0, d}, []float64{t.From, t.To}, curve.Options{Easing: easing})
		if err != nil {
			return nil, err
		}
	}
	if delay != 0 {
		track = curve.Delay{Track: track, Frames: delay}
	}
	return track, nil
}

// Motion builds the whole-layer motion. Rotation stays in degrees.
func (m *MotionSpec) Motion(fps float64) (scene.Motion, error) {
	var out scene.Motion
	if m == nil {
		return out, nil
	}
	fields := []struct {
		name string
		spec *TrackSpec
		dst  *curve.Track
	}{
		{"opacity", m.Opacity, &out.Opacity},
		{"x", m.X, &out.TranslateX},
		{"y", m.Y, &out.TranslateY},
		{"scale", m.Scale, &out.Scale},
		{"rotation", m.Rotation, &out.Rotation},
	}
	for _, f := range fields {
		t, err := f.spec.Track(fps)
		if err != nil {
			return scene.Motion{}, fmt.Errorf("motion %s: %w", f.name, err)
		}
		*f.dst = t
	}
	return out, nil
}

func (m *MotionSpec) empty() bool {
	return m == nil || (m.Opacity == nil && m.X == nil && m.Y == nil && m.Scale == nil && m.Rotation == nil)
}
