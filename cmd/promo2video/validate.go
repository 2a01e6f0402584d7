package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivlev/promo2video/internal/director"
)

var validateCmd = &cobra.Command{
	Use:   "validate [storyboard.yaml]",
	Short: "Check a storyboard without rendering",
	Long: `Validate parses the storyboard, loads every asset and compiles every
scene and transition, reporting the first problem found.`,
	Args: cobra.MaximumNArgs(1),
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
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d scenes, %d frames\n", path, len(comp.Spans()), comp.Metadata().TotalFrames)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
