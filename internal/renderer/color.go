package renderer

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrColor reports a colour string that could not be parsed.
var ErrColor = errors.New("renderer: invalid colour")

// ParseColor accepts #rgb, #rrggbb, #rrggbbaa, rgb(r,g,b), rgba(r,g,b,a)
// with a in [0,1], and "transparent".
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == "transparent":
		return color.NRGBA{}, nil
	case strings.HasPrefix(s, "#") && len(s) == 9:
		c, err := colorful.Hex(s[:7])
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrColor, s)
		}
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrColor, s)
		}
		r, g, b := c.RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: uint8(a)}, nil
	case strings.HasPrefix(s, "#"):
		c, err := colorful.Hex(s)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrColor, s)
		}
		r, g, b := c.RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
	case strings.HasPrefix(s, "rgb"):
		return parseFunctional(s)
	}
	return color.NRGBA{}, fmt.Errorf("%w: %q", ErrColor, s)
}

// MustColor is ParseColor for literals known to be valid.
func MustColor(s string) color.NRGBA {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseFunctional(s string) (color.NRGBA, error) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrColor, s)
	}
	name := s[:open]
	parts := strings.Split(s[open+1:end], ",")
	if (name == "rgb" && len(parts) != 3) || (name == "rgba" && len(parts) != 4) || (name != "rgb" && name != "rgba") {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrColor, s)
	}
	var v [4]float64
	v[3] = 1
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrColor, s)
		}
		v[i] = f
	}
	for i := 0; i < 3; i++ {
		if v[i] < 0 || v[i] > 255 {
			return color.NRGBA{}, fmt.Errorf("%w: channel out of range in %q", ErrColor, s)
		}
	}
	if v[3] < 0 || v[3] > 1 {
		return color.NRGBA{}, fmt.Errorf("%w: alpha out of range in %q", ErrColor, s)
	}
	return color.NRGBA{R: uint8(v[0] + 0.5), G: uint8(v[1] + 0.5), B: uint8(v[2] + 0.5), A: uint8(v[3]*255 + 0.5)}, nil
}

// WithAlpha scales the colour's alpha by k.
func WithAlpha(c color.NRGBA, k float64) color.NRGBA {
	switch {
	case k <= 0:
		c.A = 0
	case k < 1:
		c.A = uint8(float64(c.A)*k + 0.5)
	}
	return c
}

// Blend mixes two colours in linear RGB; alpha is interpolated directly.
func Blend(a, b color.NRGBA, t float64) color.NRGBA {
	ca := colorful.Color{R: float64(a.R) / 255, G: float64(a.G) / 255, B: float64(a.B) / 255}
	cb := colorful.Color{R: float64(b.R) / 255, G: float64(b.G) / 255, B: float64(b.B) / 255}
	r1, g1, b1 := ca.LinearRgb()
	r2, g2, b2 := cb.LinearRgb()
	mixed := colorful.LinearRgb(r1+(r2-r1)*t, g1+(g2-g1)*t, b1+(b2-b1)*t)
	r, g, bl := mixed.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: bl, A: uint8(float64(a.A) + (float64(b.A)-float64(a.A))*t + 0.5)}
}
