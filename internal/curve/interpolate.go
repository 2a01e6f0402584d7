// Package curve maps frame indices to animated values: piecewise
// interpolation with explicit extrapolation, an easing catalogue and
// closed-form spring physics. Every function here is pure.
package curve

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	// ErrControlPoints reports an unusable input/output range pair.
	ErrControlPoints = errors.New("curve: invalid control points")
	// ErrDegenerate reports parameters that would produce NaN or Inf.
	ErrDegenerate = errors.New("curve: degenerate parameters")
)

// Extrapolation decides what happens to input outside the control points.
type Extrapolation int

const (
	// Clamp holds the boundary output value.
	Clamp Extrapolation = iota
	// Extend continues the boundary segment linearly.
	Extend
	// Identity returns the input unchanged.
	Identity
)

func (e Extrapolation) String() string {
	switch e {
	case Clamp:
		return "clamp"
	case Extend:
		return "extend"
	case Identity:
		return "identity"
	default:
		return fmt.Sprintf("Extrapolation(%d)", int(e))
	}
}

// ParseExtrapolation accepts "clamp", "extend" and "identity". An empty
// string means Clamp.
func ParseExtrapolation(s string) (Extrapolation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clamp":
		return Clamp, nil
	case "extend":
		return Extend, nil
	case "identity":
		return Identity, nil
	default:
		return Clamp, fmt.Errorf("%w: unknown extrapolation %q", ErrControlPoints, s)
	}
}

// Options tunes Interpolate. The zero value clamps on both sides with no
// easing.
type Options struct {
	Easing           Easing
	ExtrapolateLeft  Extrapolation
	ExtrapolateRight Extrapolation
}

// Curve is a validated piecewise mapping. It is immutable and safe for
// concurrent use.
type Curve struct {
	input  []float64
	output []float64
	opts   Options
}

// NewCurve validates the control points once so At can stay total.
func NewCurve(input, output []float64, opts Options) (*Curve, error) {
	if err := validateRanges(input, output); err != nil {
		return nil, err
	}
	for _, e := range []Extrapolation{opts.ExtrapolateLeft, opts.ExtrapolateRight} {
		if e < Clamp || e > Identity {
			return nil, fmt.Errorf("%w: unknown extrapolation %d", ErrControlPoints, int(e))
		}
	}
	return &Curve{
		input:  append([]float64(nil), input...),
		output: append([]float64(nil), output...),
		opts:   opts,
	}, nil
}

// Interpolate maps x through the control points in one call.
func Interpolate(x float64, input, output []float64, opts Options) (float64, error) {
	c, err := NewCurve(input, output, opts)
	if err != nil {
		return 0, err
	}
	return c.At(x), nil
}

// At evaluates the curve at x.
func (c *Curve) At(x float64) float64 {
	seg := c.segment(x)
	return c.interpolateSegment(x, seg)
}

// Domain returns the first and last input control points.
func (c *Curve) Domain() (float64, float64) {
	return c.input[0], c.input[len(c.input)-1]
}

// segment finds the segment whose right edge is the first control point
// at or beyond x. Input left of the range maps to the first segment and
// input right of it to the last.
func (c *Curve) segment(x float64) int {
	inner := c.input[1 : len(c.input)-1]
	return sort.SearchFloat64s(inner, x)
}

func (c *Curve) interpolateSegment(x float64, seg int) float64 {
	inMin, inMax := c.input[seg], c.input[seg+1]
	outMin, outMax := c.output[seg], c.output[seg+1]

	if x < inMin {
		switch c.opts.ExtrapolateLeft {
		case Identity:
			return x
		case Clamp:
			return outMin
		}
	}
	if x > inMax {
		switch c.opts.ExtrapolateRight {
		case Identity:
			return x
		case Clamp:
			return outMax
		}
	}
	if outMin == outMax {
		return outMin
	}

	t := (x - inMin) / (inMax - inMin)
	if c.opts.Easing != nil {
		t = c.opts.Easing(t)
	}
	return outMin + t*(outMax-outMin)
}

func validateRanges(input, output []float64) error {
	if len(input) < 2 {
		return fmt.Errorf("%w: need at least 2 points, got %d", ErrControlPoints, len(input))
	}
	if len(input) != len(output) {
		return fmt.Errorf("%w: input has %d points, output has %d", ErrControlPoints, len(input), len(output))
	}
	for i := range input {
		if !finite(input[i]) || !finite(output[i]) {
			return fmt.Errorf("%w: non-finite value at point %d", ErrControlPoints, i)
		}
		if i > 0 && input[i] <= input[i-1] {
			return fmt.Errorf("%w: input must be strictly increasing (%g after %g)", ErrControlPoints, input[i], input[i-1])
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Lerp blends a towards b by t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
