package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ivlev/promo2video/internal/director"
	"github.com/ivlev/promo2video/internal/timeline"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [storyboard.yaml]",
	Short: "Print the compiled timeline: scenes, frame spans and transitions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := storyboardArg(args)
		if err != nil {
			return err
		}
		sb, err := director.ReadStoryboard(path)
		if err != nil {
			return err
		}
		comp, err := compile(cmd.Context(), sb, path, log)
		if err != nil {
			return err
		}
		return printTimeline(cmd.OutOrStdout(), comp)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func printTimeline(w io.Writer, comp *timeline.Composition) error {
	meta := comp.Metadata()
	fmt.Fprintf(w, "%dx%d @ %g fps, %d frames (%.2fs)\n\n",
		meta.Width, meta.Height, meta.FrameRate, meta.TotalFrames, float64(meta.TotalFrames)/meta.FrameRate)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSCENE\tSTART\tEND\tFRAMES\tIN\tTRANSITION")
	for _, s := range comp.Spans() {
		in := "-"
		if s.TransitionIn != "" {
			in = fmt.Sprintf("%s (%d)", s.TransitionIn, s.OverlapIn)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%s\n", s.Index+1, s.ID, s.Start, s.End, s.End-s.Start, s.OverlapIn, in)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for f := 0; f < meta.TotalFrames; f++ {
		for _, a := range comp.Artifacts(f) {
			fmt.Fprintf(w, "\nartifact %s %q at frame %d\n", a.Kind, a.Filename, a.Frame)
		}
	}
	return nil
}
