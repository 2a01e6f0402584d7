package director

import (
	"fmt"
	"math"
	"sort"
)

// FitTo rescales every scene so the whole video lasts seconds, for example
// the length of its soundtrack. Transition lengths are kept; the frames
// they overlap are added back before scaling so the result is exact to the
// frame. Durations become whole frames.
func (sb *Storyboard) FitTo(seconds float64) error {
	sb.ApplyDefaults()
	fps := sb.Composition.FPS
	target := int(math.Round(seconds * fps))
	if target <= 0 || len(sb.Scenes) == 0 {
		return fmt.Errorf("%w: cannot fit %d scenes into %gs", ErrStoryboard, len(sb.Scenes), seconds)
	}

	n := len(sb.Scenes)
	durations := make([]float64, n)
	floor := make([]int, n)
	overlaps, sum := 0, 0.0
	for i, s := range sb.Scenes {
		durations[i] = s.Duration.Frames(fps)
		sum += durations[i]
		out := 0
		if s.Transition != nil && i < n-1 {
			out = s.Transition.Duration.WholeFrames(fps)
			overlaps += out
		}
		in := 0
		if i > 0 && sb.Scenes[i-1].Transition != nil {
			in = sb.Scenes[i-1].Transition.Duration.WholeFrames(fps)
		}
		floor[i] = max(1, in+out)
	}
	if sum <= 0 {
		return fmt.Errorf("%w: scenes have no duration", ErrStoryboard)
	}

	// Largest remainder rounding keeps the total exact.
	want := target + overlaps
	scale := float64(want) / sum
	frames := make([]int, n)
	rest := want
	order := make([]int, n)
	for i, d := range durations {
		frames[i] = int(math.Floor(d * scale))
		rest -= frames[i]
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra := durations[order[a]]*scale - float64(frames[order[a]])
		rb := durations[order[b]]*scale - float64(frames[order[b]])
		return ra > rb
	})
	for k := 0; k < rest; k++ {
		frames[order[k%n]]++
	}

	for i, f := range frames {
		if f < floor[i] {
			return fmt.Errorf("%w: scene %q would last %d frames, its transitions need %d", ErrStoryboard, sb.Scenes[i].ID, f, floor[i])
		}
	}
	for i := range sb.Scenes {
		sb.Scenes[i].Duration = Frames(float64(frames[i]))
	}
	return nil
}
