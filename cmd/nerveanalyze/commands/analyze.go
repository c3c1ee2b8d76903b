package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"nerve-tracer/internal/analysis"
	"nerve-tracer/internal/raster"
)

// AnalyzeCmd computes the morphology indices for one image.
var AnalyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute nerve morphology metrics",
	Long: `Prune the skeleton, build and classify the fibre graph and print the
metrics as JSON. CNFT is null when no trunk was found.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := loadInputs(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("precision") {
			cfg.Metrics.Precision, _ = cmd.Flags().GetInt("precision")
		}

		res, err := analysis.Analyze(cmd.Context(), in, analysis.Options{Config: cfg, Logger: log})
		if err != nil {
			return err
		}

		if out, _ := cmd.Flags().GetString("trunk-out"); out != "" {
			mask := raster.FromPixels(res.Graph.Width, res.Graph.Height, res.TrunkMask())
			if err := mask.SavePNG(out); err != nil {
				return err
			}
		}

		var payload any = res.Metrics
		if withCounts, _ := cmd.Flags().GetBool("counts"); withCounts {
			payload = struct {
				Metrics any `json:"metrics"`
				Counts  any `json:"counts"`
			}{res.Metrics, res.Counts}
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	addInputFlags(AnalyzeCmd)
	AnalyzeCmd.Flags().Int("precision", 3, "Decimals kept in every metric")
	AnalyzeCmd.Flags().Bool("counts", false, "Also print the raw pixel counts behind the metrics")
	AnalyzeCmd.Flags().String("trunk-out", "", "Write the accepted trunk pixels to this PNG")
}
