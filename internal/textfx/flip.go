package textfx

import (
	"fmt"
	"math"
	"sort"

	"github.com/ivlev/promo2video/internal/curve"
)

// flipStyle describes how a chunk enters and how its predecessor leaves
// during the same window. p runs 0→1 over the transition; elapsed is the
// frame count since the chunk's slot began.
type flipStyle struct {
	enter func(f *Flip, p, elapsed float64) ChunkState
	exit  func(f *Flip, p float64) ChunkState
}

var flipStyles = map[string]flipStyle{
	"stomp": {
		enter: func(_ *Flip, p, _ float64) ChunkState {
			return lerpState(ChunkState{Opacity: 0, Scale: 1.6}, Rest, outCubic(p))
		},
		exit: func(_ *Flip, p float64) ChunkState {
			return lerpState(Rest, ChunkState{Opacity: 0, Scale: 0.8}, p)
		},
	},
	"swipe": {
		enter: func(f *Flip, p, _ float64) ChunkState {
			return lerpState(ChunkState{Opacity: 0, Scale: 1, OffsetX: f.Distance}, Rest, outCubic(p))
		},
		exit: func(f *Flip, p float64) ChunkState {
			return lerpState(Rest, ChunkState{Opacity: 0, Scale: 1, OffsetX: -f.Distance}, outCubic(p))
		},
	},
	"elastic": {
		enter: func(f *Flip, p, elapsed float64) ChunkState {
			return ChunkState{Visible: true, Opacity: curve.Clamp01(p * 2), Scale: f.spring.At(elapsed)}
		},
		exit: func(_ *Flip, p float64) ChunkState {
			return lerpState(Rest, ChunkState{Opacity: 0, Scale: 0.6}, p)
		},
	},
}

var outCubic = curve.Out(curve.Cubic)

// FlipStyles lists the registered flip styles.
func FlipStyles() []string {
	names := make([]string, 0, len(flipStyles))
	for n := range flipStyles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// elasticSpring gives the elastic style its overshoot.
var elasticSpring = curve.SpringConfig{Mass: 1, Stiffness: 180, Damping: 12}

// Flip shows one chunk at a time. Chunk k owns the slot starting at
// k*Hold; it enters over Transition frames while chunk k-1 leaves. The
// last chunk stays on screen.
type Flip struct {
	Hold       float64
	Transition float64
	Count      int
	// Distance is how far swipe slides, in pixels.
	Distance float64
	style    flipStyle
	spring   *curve.Spring
}

// NewFlip validates the style and cadence. Hold must leave room for the
// transition.
func NewFlip(style string, hold, transition float64, count int, fps float64) (*Flip, error) {
	s, ok := flipStyles[style]
	if !ok {
		return nil, fmt.Errorf("%w: flip style %q", ErrStyle, style)
	}
	if hold <= 0 || transition <= 0 || transition > hold {
		return nil, fmt.Errorf("flip needs 0 < transition <= hold, got transition %g hold %g", transition, hold)
	}
	if count < 1 {
		return nil, fmt.Errorf("flip needs at least one chunk")
	}
	sp, err := curve.NewSpring(fps, elasticSpring, 0)
	if err != nil {
		return nil, err
	}
	return &Flip{Hold: hold, Transition: transition, Count: count, Distance: 200, style: s, spring: sp}, nil
}

// Active is the chunk owning the slot that contains frame.
func (f *Flip) Active(frame float64) int {
	k := int(math.Floor(frame / f.Hold))
	return max(0, min(k, f.Count-1))
}

func (f *Flip) State(chunk int, frame float64) ChunkState {
	if chunk < 0 || chunk >= f.Count || frame < 0 {
		return ChunkState{}
	}
	active := f.Active(frame)
	switch {
	case chunk == active:
		elapsed := frame - float64(chunk)*f.Hold
		return f.style.enter(f, curve.Clamp01(elapsed/f.Transition), elapsed)
	case chunk == active-1:
		since := frame - float64(active)*f.Hold
		if since < f.Transition {
			st := f.style.exit(f, curve.Clamp01(since/f.Transition))
			st.Visible = st.Opacity > 0
			return st
		}
	}
	return ChunkState{}
}
