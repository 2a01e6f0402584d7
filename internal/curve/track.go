package curve

import "math"

// Track is anything that yields a value for a (possibly fractional) frame.
// *Curve and *Spring satisfy it.
type Track interface {
	At(frame float64) float64
}

// Const ignores the frame.
type Const float64

func (c Const) At(float64) float64 { return float64(c) }

// Delay shifts a track later in time.
type Delay struct {
	Track  Track
	Frames float64
}

func (d Delay) At(frame float64) float64 { return d.Track.At(frame - d.Frames) }

// Affine rescales a track: Track*Mul + Add.
type Affine struct {
	Track Track
	Mul   float64
	Add   float64
}

func (a Affine) At(frame float64) float64 { return a.Track.At(frame)*a.Mul + a.Add }

// Oscillator is Offset + Amplitude*sin(frame*Frequency + Phase) from Start
// onwards and Offset before it.
type Oscillator struct {
	Amplitude float64
	Frequency float64
	Phase     float64
	Offset    float64
	Start     float64
}

func (o Oscillator) At(frame float64) float64 {
	if frame < o.Start {
		return o.Offset
	}
	return o.Offset + o.Amplitude*math.Sin(frame*o.Frequency+o.Phase)
}

// Sum adds its tracks.
type Sum []Track

func (s Sum) At(frame float64) float64 {
	v := 0.0
	for _, t := range s {
		v += t.At(frame)
	}
	return v
}

// Product multiplies its tracks; an empty product is 1.
type Product []Track

func (p Product) At(frame float64) float64 {
	v := 1.0
	for _, t := range p {
		v *= t.At(frame)
	}
	return v
}

// ValueOr evaluates t, or returns def when t is nil.
func ValueOr(t Track, frame, def float64) float64 {
	if t == nil {
		return def
	}
	return t.At(frame)
}
