package director

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fitStoryboard() *Storyboard {
	sb := &Storyboard{Composition: CompositionSpec{Width: 320, Height: 180, FPS: 30}}
	for i, d := range []float64{90, 75, 100, 120} {
		s := SceneSpec{ID: string(rune('a' + i)), Duration: Frames(d)}
		if i < 3 {
			s.Transition = &TransitionSpec{Presentation: "fade", Duration: Frames(12)}
		}
		sb.Scenes = append(sb.Scenes, s)
	}
	return sb
}

func TestFitTo(t *testing.T) {
	sb := fitStoryboard()
	require.NoError(t, sb.FitTo(20))

	sum := 0
	for _, s := range sb.Scenes {
		assert.False(t, s.Duration.Seconds)
		assert.Equal(t, s.Duration.Value, float64(int(s.Duration.Value)), "whole frames")
		sum += s.Duration.WholeFrames(30)
	}
	// Scene frames minus the three overlaps equal 20 seconds.
	assert.Equal(t, 600, sum-3*12)

	// Proportions survive the stretch.
	assert.InDelta(t, 120.0/90.0, sb.Scenes[3].Duration.Value/sb.Scenes[0].Duration.Value, 0.02)

	comp, err := NewDirector(nil, nil).Compile(sb)
	require.NoError(t, err)
	assert.Equal(t, 600, comp.Metadata().TotalFrames)
}

func TestFitToMixedUnits(t *testing.T) {
	sb := fitStoryboard()
	sb.Scenes[0].Duration = Seconds(3)
	require.NoError(t, sb.FitTo(12.5))
	sum := 0
	for _, s := range sb.Scenes {
		sum += s.Duration.WholeFrames(30)
	}
	assert.Equal(t, 375, sum-36)
}

func TestFitToRejectsShortTargets(t *testing.T) {
	sb := fitStoryboard()
	assert.ErrorIs(t, sb.FitTo(0.5), ErrStoryboard)
	assert.ErrorIs(t, sb.FitTo(0), ErrStoryboard)
	assert.Equal(t, Frames(90), sb.Scenes[0].Duration, "unchanged on error")
}
