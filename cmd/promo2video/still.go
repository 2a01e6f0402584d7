package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivlev/promo2video/internal/director"
	"github.com/ivlev/promo2video/internal/engine"
)

var (
	stillFrame  int
	stillOutput string
	stillCanvas canvas
)

var stillCmd = &cobra.Command{
	Use:   "still [storyboard.yaml]",
	Short: "Render a single frame to PNG or JPEG",
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
		stillCanvas.apply(sb)
		comp, err := compile(cmd.Context(), sb, path, log)
		if err != nil {
			return err
		}
		out := stillOutput
		if out == "" {
			out = fmt.Sprintf("frame_%04d.png", stillFrame)
		}
		if err := engine.RenderStill(comp, stillFrame, out); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Frame %d written to %s\n", stillFrame, out)
		return nil
	},
}

func init() {
	f := stillCmd.Flags()
	f.IntVarP(&stillFrame, "frame", "f", 0, "global frame to render")
	f.StringVarP(&stillOutput, "output", "o", "", "image path, .png or .jpg (default: frame_NNNN.png)")
	f.IntVar(&stillCanvas.width, "width", 0, "override the composition width")
	f.IntVar(&stillCanvas.height, "height", 0, "override the composition height")
	rootCmd.AddCommand(stillCmd)
}
