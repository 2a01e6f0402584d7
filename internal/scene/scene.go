// Package scene holds the bounded unit of a video: a background and an
// ordered stack of layers rendered for local frames [0, duration).
package scene

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/ivlev/promo2video/internal/effects"
	"github.com/ivlev/promo2video/internal/renderer"
)

// ErrLocalFrameOutOfRange is returned for frames outside [0, duration).
var ErrLocalFrameOutOfRange = errors.New("scene: local frame out of range")

// Config is everything a scene needs. Layers draw in order, the first one
// lands directly on the background.
type Config struct {
	ID               string
	DurationInFrames int
	Width, Height    int
	Background       color.Color
	Layers           []effects.Layer
}

// Scene is immutable after New and safe for concurrent Render calls as
// long as its layers are.
type Scene struct {
	cfg Config
}

func New(cfg Config) (*Scene, error) {
	if cfg.ID == "" {
		return nil, errors.New("scene id is empty")
	}
	if cfg.DurationInFrames <= 0 {
		return nil, fmt.Errorf("scene %q: duration must be positive, got %d", cfg.ID, cfg.DurationInFrames)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("scene %q: invalid size %dx%d", cfg.ID, cfg.Width, cfg.Height)
	}
	for i, l := range cfg.Layers {
		if l == nil {
			return nil, fmt.Errorf("scene %q: layer %d is nil", cfg.ID, i)
		}
	}
	cfg.Layers = append([]effects.Layer(nil), cfg.Layers...)
	return &Scene{cfg: cfg}, nil
}

func (s *Scene) ID() string            { return s.cfg.ID }
func (s *Scene) DurationInFrames() int { return s.cfg.DurationInFrames }
func (s *Scene) Size() (int, int)      { return s.cfg.Width, s.cfg.Height }

// Render draws the scene at a local frame into a pooled frame owned by the
// caller.
func (s *Scene) Render(localFrame int) (*image.RGBA, error) {
	if localFrame < 0 || localFrame >= s.cfg.DurationInFrames {
		return nil, fmt.Errorf("%w: scene %q frame %d not in [0, %d)", ErrLocalFrameOutOfRange, s.cfg.ID, localFrame, s.cfg.DurationInFrames)
	}
	dst := renderer.NewFrame(s.cfg.Width, s.cfg.Height)
	if s.cfg.Background != nil {
		renderer.Fill(dst, s.cfg.Background)
	}
	effects.Stack(s.cfg.Layers).Draw(dst, localFrame)
	return dst, nil
}
