package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

var ErrConfig = errors.New("config: invalid")

// Config is everything a render run needs besides the storyboard itself.
type Config struct {
	StoryboardPath string
	OutputVideo    string
	// Width, Height and FPS override the storyboard's composition when set.
	Width, Height int
	FPS           float64
	// Preset is a format shortcut for Width and Height: 16:9, 9:16 or 4:5.
	Preset string
	// From and To select the inclusive frame range to render. To < 0 means
	// the last frame.
	From, To int

	Workers       int
	VideoEncoder  string
	Quality       int
	EncoderPreset string
	AudioPath     string
	// Artifacts writes the composition's artifacts, such as the thumbnail,
	// next to the video.
	Artifacts bool

	LogLevel     string
	MetricsAddr  string
	ShowStats    bool
	BuildVersion string
}

// Default returns a Config with the CLI defaults.
func Default() Config {
	return Config{
		To:        -1,
		Artifacts: true,
		LogLevel:  "info",
	}
}

var presets = map[string][2]int{
	"16:9": {1280, 720},
	"9:16": {720, 1280},
	"4:5":  {1080, 1350},
	"1:1":  {1080, 1080},
}

// PresetSize resolves a format preset.
func PresetSize(name string) (int, int, error) {
	s, ok := presets[name]
	if !ok {
		return 0, 0, fmt.Errorf("%w: unknown preset %q", ErrConfig, name)
	}
	return s[0], s[1], nil
}

// ApplyPreset copies the preset size into Width and Height. An empty
// preset changes nothing.
func (c *Config) ApplyPreset() error {
	if c.Preset == "" {
		return nil
	}
	w, h, err := PresetSize(c.Preset)
	if err != nil {
		return err
	}
	c.Width, c.Height = w, h
	return nil
}

func (c *Config) Validate() error {
	switch {
	case c.StoryboardPath == "":
		return fmt.Errorf("%w: no storyboard", ErrConfig)
	case c.Width < 0 || c.Height < 0 || c.Width%2 != 0 || c.Height%2 != 0:
		return fmt.Errorf("%w: size %dx%d must be even", ErrConfig, c.Width, c.Height)
	case c.FPS < 0:
		return fmt.Errorf("%w: fps %g", ErrConfig, c.FPS)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d", ErrConfig, c.Workers)
	case c.Quality < 0:
		return fmt.Errorf("%w: quality %d", ErrConfig, c.Quality)
	case c.From < 0:
		return fmt.Errorf("%w: from frame %d", ErrConfig, c.From)
	case c.To >= 0 && c.To < c.From:
		return fmt.Errorf("%w: frame range %d..%d", ErrConfig, c.From, c.To)
	}
	return nil
}

// DefaultOutput names the video after the storyboard with a timestamp, in
// dir.
func DefaultOutput(dir, storyboard string, now time.Time) string {
	base := filepath.Base(storyboard)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.ReplaceAll(name, " ", "_")
	return filepath.Join(dir, fmt.Sprintf("%s_%s.mp4", name, now.Format("2006-01-02_15-04-05")))
}
