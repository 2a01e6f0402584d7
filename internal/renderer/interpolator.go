package renderer

import "github.com/ivlev/promo2video/internal/curve"

// Keyframe pins the camera centre and zoom at a frame.
type Keyframe struct {
	Frame float64 `yaml:"frame"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Zoom  float64 `yaml:"zoom"`
}

// CameraState represents the camera position and zoom at a specific moment
type CameraState struct {
	X    float64 // Pan X position (center point in pixels)
	Y    float64 // Pan Y position (center point in pixels)
	Zoom float64 // Zoom level (1.0 = no zoom)
}

// InterpolateKeyframes calculates camera state at a given frame by easing
// between the surrounding keyframes. Keyframes must be sorted by frame.
func InterpolateKeyframes(keyframes []Keyframe, frame float64) CameraState {
	if len(keyframes) == 0 {
		return CameraState{Zoom: 1.0}
	}

	// If before first keyframe, use first keyframe
	if frame <= keyframes[0].Frame {
		return keyframes[0].state()
	}

	// If after last keyframe, use last keyframe
	last := keyframes[len(keyframes)-1]
	if frame >= last.Frame {
		return last.state()
	}

	// Find surrounding keyframes
	var prevKf, nextKf Keyframe
	for i := 0; i < len(keyframes)-1; i++ {
		if frame >= keyframes[i].Frame && frame < keyframes[i+1].Frame {
			prevKf = keyframes[i]
			nextKf = keyframes[i+1]
			break
		}
	}

	t := (frame - prevKf.Frame) / (nextKf.Frame - prevKf.Frame)
	t = easeInOutCubic(t)

	return CameraState{
		X:    curve.Lerp(prevKf.X, nextKf.X, t),
		Y:    curve.Lerp(prevKf.Y, nextKf.Y, t),
		Zoom: curve.Lerp(prevKf.zoom(), nextKf.zoom(), t),
	}
}

func (k Keyframe) state() CameraState {
	return CameraState{X: k.X, Y: k.Y, Zoom: k.zoom()}
}

func (k Keyframe) zoom() float64 {
	if k.Zoom <= 0 {
		return 1
	}
	return k.Zoom
}

var easeInOutCubic = curve.InOut(curve.Cubic)
