package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"nerve-tracer/internal/errors"
	"nerve-tracer/internal/raster"
	"nerve-tracer/internal/skeleton"
)

// PruneCmd runs only the pruning engine and writes the cleaned skeleton.
var PruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove spurs and redundant junction pixels from a skeleton",
	RunE: func(cmd *cobra.Command, args []string) error {
		src, _ := cmd.Flags().GetString("skeleton")
		dst, _ := cmd.Flags().GetString("out")

		skel, err := raster.Load(src)
		if err != nil {
			return err
		}
		if v, ok := skel.CheckBinary(); !ok {
			return errors.InputContractf("%s contains value %d, want only 0 and 255", src, v)
		}

		pruned, stats, err := skeleton.Prune(skel, skeleton.PruneOptions{
			LengthThresh:  cfg.Prune.LengthThresh,
			MaxIterations: cfg.Prune.MaxIterations,
			Logger:        log,
		})
		if err != nil {
			return err
		}
		if err := pruned.SavePNG(dst); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d -> %d pixels in %d iterations\n",
			stats.InitialPixels, stats.FinalPixels, stats.Iterations)
		return nil
	},
}

func init() {
	PruneCmd.Flags().String("skeleton", "", "Input skeleton (required)")
	PruneCmd.Flags().String("out", "pruned.png", "Output PNG")
	_ = PruneCmd.MarkFlagRequired("skeleton")
}
