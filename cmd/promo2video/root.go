package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ivlev/promo2video/internal/director"
	"github.com/ivlev/promo2video/internal/logging"
	"github.com/ivlev/promo2video/internal/source"
	"github.com/ivlev/promo2video/internal/system"
	"github.com/ivlev/promo2video/internal/timeline"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	logLevel string
	log      = logging.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "promo2video",
	Short: "Render storyboards into promo videos",
	Long: `promo2video compiles a YAML storyboard of scenes, layers and transitions
into a frame-exact timeline and renders it through ffmpeg.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		log = logging.New(level)
		system.InitResourceLimits(log)
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
}

// storyboardArg picks the storyboard from the first argument or, failing
// that, the newest file in the storyboards folder.
func storyboardArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	latest, err := director.FindLatestStoryboard(director.StoryboardsDir)
	if err != nil {
		return "", fmt.Errorf("no storyboard given: %w", err)
	}
	log.Info("using latest storyboard", "path", latest)
	return latest, nil
}

// canvas overrides the storyboard composition.
type canvas struct {
	width, height int
	fps           float64
}

func (c canvas) apply(sb *director.Storyboard) {
	if c.width > 0 {
		sb.Composition.Width = c.width
	}
	if c.height > 0 {
		sb.Composition.Height = c.height
	}
	if c.fps > 0 {
		sb.Composition.FPS = c.fps
	}
}

// compile loads the storyboard's assets and compiles it.
func compile(ctx context.Context, sb *director.Storyboard, path string, log *slog.Logger) (*timeline.Composition, error) {
	lib, err := source.Load(ctx, sb.Manifest(filepath.Dir(path)), log)
	if err != nil {
		return nil, err
	}
	return director.NewDirector(lib, log).Compile(sb)
}
