package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/promo2video/internal/analyzer"
	"github.com/ivlev/promo2video/internal/config"
	"github.com/ivlev/promo2video/internal/director"
	"github.com/ivlev/promo2video/internal/source"
	"github.com/ivlev/promo2video/internal/system"
)

var (
	scaffoldOpts   director.ScaffoldOptions
	scaffoldOutput string
	scaffoldPreset string
	pageSeconds    float64
	overlapSeconds float64
	detectorName   string
)

var scaffoldCmd = &cobra.Command{
	Use:   "scaffold [deck.pdf | images-dir]",
	Short: "Draft a slideshow storyboard from a PDF or a folder of images",
	Long: `Scaffold writes a storyboard with one scene per page, each under a slow
camera push-in, joined by the same transition. With no argument it uses the
newest PDF in input/pdf/.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := ""
		if len(args) > 0 {
			input = args[0]
		} else {
			latest, err := system.FindLatest("input/pdf", ".pdf")
			if err != nil {
				return fmt.Errorf("no input given: %w", err)
			}
			input = latest
			log.Info("using latest pdf", "path", input)
		}

		var src source.Source
		var err error
		if strings.HasSuffix(strings.ToLower(input), ".pdf") {
			src, err = source.NewFitzPDFSource(input)
		} else {
			src, err = source.NewImageSource(input)
		}
		if err != nil {
			return err
		}
		defer src.Close()

		out := scaffoldOutput
		if out == "" {
			out = director.GenerateStoryboardPath(director.StoryboardsDir, time.Now())
		}
		ref, err := relativeRef(out, input)
		if err != nil {
			return err
		}

		opts := scaffoldOpts
		if scaffoldPreset != "" {
			if opts.Width, opts.Height, err = config.PresetSize(scaffoldPreset); err != nil {
				return err
			}
		}
		opts.PageDuration = director.Seconds(pageSeconds)
		opts.Overlap = director.Seconds(overlapSeconds)
		if opts.Detector, err = analyzer.NewDetector(detectorName); err != nil {
			return err
		}

		sb, err := director.Scaffold(src, ref, opts)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
			return err
		}
		if err := director.WriteStoryboard(sb, out); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Storyboard with %d scenes written to %s\n", len(sb.Scenes), out)
		return nil
	},
}

func init() {
	f := scaffoldCmd.Flags()
	f.StringVarP(&scaffoldOutput, "output", "o", "", "storyboard path (default: storyboards/storyboard_<time>.yaml)")
	f.StringVar(&scaffoldPreset, "preset", "", "format preset: 16:9, 9:16, 4:5, 1:1")
	f.IntVar(&scaffoldOpts.Width, "width", 0, "canvas width (default 1280)")
	f.IntVar(&scaffoldOpts.Height, "height", 0, "canvas height (default 720)")
	f.Float64Var(&scaffoldOpts.FPS, "fps", 0, "frame rate (default 30)")
	f.Float64Var(&pageSeconds, "page-duration", 3, "seconds per page")
	f.StringVar(&scaffoldOpts.Transition, "transition", "fade", "presentation between pages")
	f.Float64Var(&overlapSeconds, "overlap", 0.5, "transition length in seconds")
	f.Float64Var(&scaffoldOpts.Zoom, "zoom", 1.08, "camera zoom reached at the end of each page")
	f.StringVar(&detectorName, "detector", "contrast", "content detector aiming each push-in: contrast or none")
	f.StringVar(&scaffoldOpts.Title, "title", "", "headline streamed over the first page")
	rootCmd.AddCommand(scaffoldCmd)
}

// relativeRef expresses input relative to the storyboard's folder, the
// base the storyboard's asset paths resolve against.
func relativeRef(storyboard, input string) (string, error) {
	absBoard, err := filepath.Abs(filepath.Dir(storyboard))
	if err != nil {
		return "", err
	}
	absInput, err := filepath.Abs(input)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absBoard, absInput)
	if err != nil {
		return absInput, nil
	}
	return filepath.ToSlash(rel), nil
}
