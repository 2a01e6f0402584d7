package curve

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tanema/gween/ease"
)

// Easing remaps a normalised position. Inputs in [0, 1] must map 0 to 0
// and 1 to 1; values outside that range are allowed to extrapolate.
type Easing func(t float64) float64

func Linear(t float64) float64 { return t }

func Quad(t float64) float64 { return t * t }

func Cubic(t float64) float64 { return t * t * t }

func Sin(t float64) float64 { return 1 - math.Cos(t*math.Pi/2) }

func Circle(t float64) float64 { return 1 - math.Sqrt(math.Max(0, 1-t*t)) }

func Exp(t float64) float64 {
	if t <= 0 {
		return 0
	}
	return math.Pow(2, 10*(t-1))
}

// Bounce is the classic four-arc bounce.
func Bounce(t float64) float64 {
	switch {
	case t < 1/2.75:
		return 7.5625 * t * t
	case t < 2/2.75:
		t -= 1.5 / 2.75
		return 7.5625*t*t + 0.75
	case t < 2.5/2.75:
		t -= 2.25 / 2.75
		return 7.5625*t*t + 0.9375
	default:
		t -= 2.625 / 2.75
		return 7.5625*t*t + 0.984375
	}
}

// Back pulls slightly behind the start before moving; s controls how far.
func Back(s float64) Easing {
	return func(t float64) float64 {
		return t * t * ((s+1)*t - s)
	}
}

// Elastic springs back and forth bounciness times before settling.
func Elastic(bounciness float64) Easing {
	p := bounciness * math.Pi
	return func(t float64) float64 {
		c := math.Cos(t * math.Pi / 2)
		return 1 - c*c*c*math.Cos(t*p)
	}
}

// In returns e unchanged; it exists so call sites read like the curve.
func In(e Easing) Easing { return e }

// Out mirrors e so it decelerates into the target.
func Out(e Easing) Easing {
	return func(t float64) float64 { return 1 - e(1-t) }
}

// InOut runs e forwards for the first half and mirrored for the second.
func InOut(e Easing) Easing {
	return func(t float64) float64 {
		if t < 0.5 {
			return e(t*2) / 2
		}
		return 1 - e((1-t)*2)/2
	}
}

// Bezier is a CSS-style cubic-bezier timing function with P0=(0,0) and
// P3=(1,1). Outside [0, 1] it continues along the end tangents.
func Bezier(x1, y1, x2, y2 float64) Easing {
	ax, bx, cx := coefficients(x1, x2)
	ay, by, cy := coefficients(y1, y2)
	sample := func(a, b, c, t float64) float64 { return ((a*t+b)*t + c) * t }
	slope := func(a, b, c, t float64) float64 { return (3*a*t+2*b)*t + c }

	startSlope, endSlope := 0.0, 0.0
	if x1 > 0 {
		startSlope = y1 / x1
	} else if y1 == 0 && x2 > 0 {
		startSlope = y2 / x2
	}
	if x2 < 1 {
		endSlope = (y2 - 1) / (x2 - 1)
	} else if y2 == 1 && x1 < 1 {
		endSlope = (y1 - 1) / (x1 - 1)
	}

	return func(x float64) float64 {
		if x <= 0 {
			return x * startSlope
		}
		if x >= 1 {
			return 1 + (x-1)*endSlope
		}
		// Newton first, bisection when the slope is too flat to trust.
		t := x
		for i := 0; i < 8; i++ {
			err := sample(ax, bx, cx, t) - x
			if math.Abs(err) < 1e-7 {
				return sample(ay, by, cy, t)
			}
			d := slope(ax, bx, cx, t)
			if math.Abs(d) < 1e-6 {
				break
			}
			t -= err / d
		}
		lo, hi := 0.0, 1.0
		t = x
		for i := 0; i < 50; i++ {
			v := sample(ax, bx, cx, t)
			if math.Abs(v-x) < 1e-7 {
				break
			}
			if v < x {
				lo = t
			} else {
				hi = t
			}
			t = (lo + hi) / 2
		}
		return sample(ay, by, cy, t)
	}
}

func coefficients(p1, p2 float64) (a, b, c float64) {
	c = 3 * p1
	b = 3*(p2-p1) - c
	a = 1 - c - b
	return a, b, c
}

// pennerBack is the overshoot of the unparameterised back easings.
const pennerBack = 1.70158

// fromTween adapts a Penner tween function (elapsed, begin, change,
// duration) to a normalised easing. gween computes in float32, so these
// easings are accurate to about 1e-7; names with a closed form above use
// it instead.
func fromTween(fn ease.TweenFunc) Easing {
	return func(t float64) float64 {
		switch {
		case t == 0:
			return 0
		case t == 1:
			return 1
		}
		return float64(fn(float32(t), 0, 1, 1))
	}
}

var namedEasings = map[string]Easing{
	"linear":      Linear,
	"ease":        Bezier(0.25, 0.1, 0.25, 1),
	"ease-in":     Bezier(0.42, 0, 1, 1),
	"ease-out":    Bezier(0, 0, 0.58, 1),
	"ease-in-out": Bezier(0.42, 0, 0.58, 1),
	"inQuad":      Quad,
	"outQuad":     Out(Quad),
	"inOutQuad":   InOut(Quad),
	"inCubic":     Cubic,
	"outCubic":    Out(Cubic),
	"inOutCubic":  InOut(Cubic),
	"inQuart":     fromTween(ease.InQuart),
	"outQuart":    fromTween(ease.OutQuart),
	"inOutQuart":  fromTween(ease.InOutQuart),
	"inSine":      Sin,
	"outSine":     Out(Sin),
	"inOutSine":   InOut(Sin),
	"inExpo":      Exp,
	"outExpo":     Out(Exp),
	"inCirc":      Circle,
	"outCirc":     Out(Circle),
	"inBack":      Back(pennerBack),
	"outBack":     Out(Back(pennerBack)),
	"inOutBack":   fromTween(ease.InOutBack),
	"inElastic":   fromTween(ease.InElastic),
	"outElastic":  fromTween(ease.OutElastic),
	"inBounce":    fromTween(ease.InBounce),
	"outBounce":   fromTween(ease.OutBounce),
	"inOutBounce": fromTween(ease.InOutBounce),
}

// parametric easings take one or four numeric arguments: outBack(1.5),
// bezier(0.2,0.9,0.1,1).
var parametricEasings = map[string]func(args []float64) (Easing, error){
	"inBack":     oneArg(func(s float64) Easing { return Back(s) }),
	"outBack":    oneArg(func(s float64) Easing { return Out(Back(s)) }),
	"inOutBack":  oneArg(func(s float64) Easing { return InOut(Back(s)) }),
	"inElastic":  oneArg(func(b float64) Easing { return Elastic(b) }),
	"outElastic": oneArg(func(b float64) Easing { return Out(Elastic(b)) }),
	"bezier": func(args []float64) (Easing, error) {
		if len(args) != 4 {
			return nil, fmt.Errorf("%w: bezier needs 4 arguments, got %d", ErrControlPoints, len(args))
		}
		if args[0] < 0 || args[0] > 1 || args[2] < 0 || args[2] > 1 {
			return nil, fmt.Errorf("%w: bezier x coordinates must lie in [0,1]", ErrControlPoints)
		}
		return Bezier(args[0], args[1], args[2], args[3]), nil
	},
}

func oneArg(build func(float64) Easing) func([]float64) (Easing, error) {
	return func(args []float64) (Easing, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: expected 1 argument, got %d", ErrControlPoints, len(args))
		}
		return build(args[0]), nil
	}
}

// EasingByName resolves a catalogue name such as "outCubic" or a
// parametric form such as "outBack(1.7)". An empty name means Linear.
func EasingByName(spec string) (Easing, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Linear, nil
	}
	open := strings.IndexByte(spec, '(')
	if open < 0 {
		if e, ok := namedEasings[spec]; ok {
			return e, nil
		}
		return nil, fmt.Errorf("%w: unknown easing %q", ErrControlPoints, spec)
	}
	if !strings.HasSuffix(spec, ")") {
		return nil, fmt.Errorf("%w: malformed easing %q", ErrControlPoints, spec)
	}
	name := spec[:open]
	build, ok := parametricEasings[name]
	if !ok {
		return nil, fmt.Errorf("%w: easing %q takes no arguments", ErrControlPoints, name)
	}
	var args []float64
	for _, raw := range strings.Split(spec[open+1:len(spec)-1], ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: easing %q: %v", ErrControlPoints, spec, err)
		}
		args = append(args, v)
	}
	return build(args)
}

// EasingNames lists the fixed catalogue in sorted order.
func EasingNames() []string {
	names := make([]string, 0, len(namedEasings))
	for n := range namedEasings {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
